package rooms

import (
	"errors"
	"regexp"
)

// permissionKeyRe bounds the open-ended permission vocabulary. Keys are
// partner/admin-defined, so they stay strings, but unknown shapes are rejected
// at handshake time rather than silently creating unreachable rooms.
var permissionKeyRe = regexp.MustCompile(`^[a-z0-9][a-z0-9_.-]{0,63}$`)

// ErrInvalidPermissionKey is returned for permission keys outside the
// documented format (lowercase alphanumeric plus "_", ".", "-", max 64 chars).
var ErrInvalidPermissionKey = errors.New("rooms: invalid permission key")

// User returns the room holding all of one user's connections on a surface.
// The result is deterministic: the same (appType, userID) pair always yields
// the same name.
func User(app AppType, userID string) string {
	return string(app) + ":user:" + userID
}

// App returns the surface-wide broadcast room.
func App(app AppType) string {
	return string(app) + ":all"
}

// Permission returns the room for connections carrying a permission claim.
func Permission(app AppType, key string) string {
	return string(app) + ":perm:" + key
}

// ValidPermissionKey reports whether key matches the documented permission
// format.
func ValidPermissionKey(key string) bool {
	return permissionKeyRe.MatchString(key)
}
