// Package gateway owns every live client connection of the real-time
// notification subsystem: handshake authentication, surface-scoped room
// membership and the emit primitives the notification service pushes through.
//
// # Connection lifecycle
//
// A client connects over WebSocket carrying a signed credential and a declared
// application surface. The handshake is verified before the connection is
// upgraded, so a rejected client never allocates gateway resources. On
// success the connection joins exactly its user room, its surface-wide room
// and one room per permission claim, then receives a "connected"
// acknowledgment listing the joined rooms. Any transport close tears the
// connection down; there is no missed-notification replay, clients reconcile
// through the durable record store.
//
// # Isolation
//
// The credential's embedded surface claim, when present, must equal the
// declared surface. Combined with the surface-prefixed room grammar this
// makes cross-surface delivery structurally impossible: a connection only
// ever joins rooms of its authenticated surface, and emissions only ever
// target rooms of the notification's surface.
//
// The Hub is an explicitly constructed object with its own lifecycle; it is
// passed by reference to the HTTP layer and to the notification service (as
// its Emitter), never looked up through a package global.
package gateway
