package notify

import (
	"context"
	"time"

	"github.com/washhub/realtime/pkg/rooms"
)

// Storage handles durable notification records. The production implementation
// lives in the surrounding platform; this subsystem only writes records at
// send time and reads them back on the reconciliation path.
type Storage interface {
	// Create stores a new record.
	Create(ctx context.Context, rec Record) error

	// Get retrieves a single record by ID.
	Get(ctx context.Context, id string) (*Record, error)

	// List returns the records visible to a recipient, newest first.
	List(ctx context.Context, rcpt Recipient, opts ListOptions) ([]Record, error)

	// MarkRead marks the recipient's user-addressed record(s) as read.
	// Broadcast records carry no per-user read state; an ID that does not
	// resolve to a record addressed to that user on that surface yields
	// ErrRecordNotFound and no record in the batch is mutated.
	MarkRead(ctx context.Context, app rooms.AppType, userID string, ids ...string) error

	// CountUnread returns the number of unread records visible to a recipient.
	CountUnread(ctx context.Context, rcpt Recipient) (int, error)
}

// Recipient identifies one authenticated reader of the record store: records
// addressed to the user directly, to the whole surface, or to any of the
// user's permission claims are visible to it.
type Recipient struct {
	AppType     rooms.AppType
	UserID      string
	Permissions []string
}

// Sees reports whether the record is visible to the recipient.
func (r Recipient) Sees(rec Record) bool {
	if rec.AppType != r.AppType {
		return false
	}
	switch rec.Audience {
	case AudienceUser:
		return rec.UserID == r.UserID
	case AudienceApp:
		return true
	case AudiencePermission:
		for _, key := range r.Permissions {
			if key == rec.PermissionKey {
				return true
			}
		}
	}
	return false
}

// ListOptions provides filtering and pagination for listing records.
type ListOptions struct {
	Limit      int        // Maximum number of records to return (0 = no limit)
	Offset     int        // Number of records to skip for pagination
	OnlyUnread bool       // When true, only return unread records
	Categories []Category // If non-empty, only return records of these categories
	Since      *time.Time // If set, only return records created after this time
}
