package notify

import (
	"github.com/washhub/realtime/pkg/rooms"
)

// TargetKind discriminates the Target union.
type TargetKind string

const (
	TargetUser       TargetKind = "user"
	TargetPermission TargetKind = "permission"
	TargetApp        TargetKind = "app"
	TargetSystem     TargetKind = "system"
)

// Target describes the intended recipient set for one send operation. It is a
// tagged union: Kind selects which of the remaining fields are meaningful.
// Every kind except TargetSystem carries an explicit AppType; TargetSystem
// fans out into one independent operation per surface.
type Target struct {
	Kind          TargetKind    `json:"kind"`
	AppType       rooms.AppType `json:"appType,omitempty"`
	UserID        string        `json:"userId,omitempty"`
	PermissionKey string        `json:"permissionKey,omitempty"`
}

// UserTarget addresses a single user's connections on one surface.
func UserTarget(userID string, app rooms.AppType) Target {
	return Target{Kind: TargetUser, AppType: app, UserID: userID}
}

// PermissionTarget addresses every connection holding a permission claim on
// one surface.
func PermissionTarget(key string, app rooms.AppType) Target {
	return Target{Kind: TargetPermission, AppType: app, PermissionKey: key}
}

// AppTarget addresses every connection on one surface.
func AppTarget(app rooms.AppType) Target {
	return Target{Kind: TargetApp, AppType: app}
}

// SystemTarget addresses both surfaces as two independent operations.
func SystemTarget() Target {
	return Target{Kind: TargetSystem}
}

// Validate checks the union invariants for the tagged kind.
func (t Target) Validate() error {
	switch t.Kind {
	case TargetUser:
		if !t.AppType.Valid() {
			return ErrInvalidTargetApp
		}
		if t.UserID == "" {
			return ErrMissingTargetUser
		}
	case TargetPermission:
		if !t.AppType.Valid() {
			return ErrInvalidTargetApp
		}
		if !rooms.ValidPermissionKey(t.PermissionKey) {
			return ErrInvalidTargetPermKey
		}
	case TargetApp:
		if !t.AppType.Valid() {
			return ErrInvalidTargetApp
		}
	case TargetSystem:
		// No fields; resolution assigns a surface per fan-out operation.
	default:
		return ErrInvalidTargetKind
	}
	return nil
}

// room returns the single room this target resolves to. Only defined for the
// surface-scoped kinds; TargetSystem is fanned out before resolution.
func (t Target) room() string {
	switch t.Kind {
	case TargetUser:
		return rooms.User(t.AppType, t.UserID)
	case TargetPermission:
		return rooms.Permission(t.AppType, t.PermissionKey)
	default:
		return rooms.App(t.AppType)
	}
}

// audience maps the target kind onto the persisted record audience.
func (t Target) audience() Audience {
	switch t.Kind {
	case TargetUser:
		return AudienceUser
	case TargetPermission:
		return AudiencePermission
	default:
		return AudienceApp
	}
}
