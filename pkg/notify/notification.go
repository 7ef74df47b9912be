package notify

import (
	"time"

	"github.com/washhub/realtime/pkg/rooms"
)

// Category classifies a notification for filtering and client-side routing.
type Category string

const (
	CategoryBooking   Category = "booking"
	CategoryPayment   Category = "payment"
	CategoryPromotion Category = "promotion"
	CategoryAccount   Category = "account"
	CategorySystem    Category = "system"
)

// Valid reports whether c is a recognized category.
func (c Category) Valid() bool {
	switch c {
	case CategoryBooking, CategoryPayment, CategoryPromotion, CategoryAccount, CategorySystem:
		return true
	default:
		return false
	}
}

// Content is the "what" of a notification. Title, Body and Category are
// required; the rest link the notification to a platform entity or carry an
// opaque payload for the client.
type Content struct {
	Title      string         `json:"title"`
	Body       string         `json:"body"`
	Category   Category       `json:"category"`
	EntityType string         `json:"entityType,omitempty"`
	EntityID   string         `json:"entityId,omitempty"`
	ActionURL  string         `json:"actionUrl,omitempty"`
	Payload    map[string]any `json:"payload,omitempty"`
}

// Validate checks the required content fields.
func (c Content) Validate() error {
	if c.Title == "" {
		return ErrEmptyTitle
	}
	if c.Body == "" {
		return ErrEmptyBody
	}
	if !c.Category.Valid() {
		return ErrInvalidCategory
	}
	return nil
}

// Audience describes who a persisted record was addressed to.
type Audience string

const (
	AudienceUser       Audience = "user"
	AudiencePermission Audience = "permission"
	AudienceApp        Audience = "app"
)

// Record is the durable representation of one notification, valid and
// queryable regardless of whether any connection was live to receive the
// push. Created at send time; mutated only by the read-state toggle; never
// deleted by this subsystem.
type Record struct {
	ID            string        `json:"id"`
	AppType       rooms.AppType `json:"appType"`
	Audience      Audience      `json:"audience"`
	UserID        string        `json:"userId,omitempty"`
	PermissionKey string        `json:"permissionKey,omitempty"`

	Title      string         `json:"title"`
	Body       string         `json:"body"`
	Category   Category       `json:"category"`
	EntityType string         `json:"entityType,omitempty"`
	EntityID   string         `json:"entityId,omitempty"`
	ActionURL  string         `json:"actionUrl,omitempty"`
	Payload    map[string]any `json:"payload,omitempty"`

	Read      bool       `json:"read"`
	ReadAt    *time.Time `json:"readAt,omitempty"`
	CreatedAt time.Time  `json:"createdAt"`
}

// MarkAsRead marks the record as read with the current timestamp.
func (r *Record) MarkAsRead() {
	r.Read = true
	now := time.Now()
	r.ReadAt = &now
}

// Content returns the content fields of the record.
func (r Record) Content() Content {
	return Content{
		Title:      r.Title,
		Body:       r.Body,
		Category:   r.Category,
		EntityType: r.EntityType,
		EntityID:   r.EntityID,
		ActionURL:  r.ActionURL,
		Payload:    r.Payload,
	}
}
