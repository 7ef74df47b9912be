// Package rooms defines the application surfaces (customer vs driver) and the
// deterministic room-name grammar used to address live connections.
//
// Every room name is prefixed with the lowercase surface name, so a room
// computed for one surface can never collide with a room on the other. The
// prefix makes cross-surface delivery structurally impossible: a driver
// connection only ever joins "driver:"-prefixed rooms, and a notification
// resolved for customers only ever targets "customer:"-prefixed rooms.
//
// Grammar:
//
//	{app}:user:{userID}   - a single user's connections on one surface
//	{app}:all             - every connection on one surface
//	{app}:perm:{key}      - connections holding a permission claim
package rooms
