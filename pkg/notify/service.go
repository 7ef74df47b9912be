package notify

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/washhub/realtime/pkg/logger"
	"github.com/washhub/realtime/pkg/rooms"
)

// DeliveryEvent is the wire payload pushed to connections. Timestamps marshal
// as RFC 3339.
type DeliveryEvent struct {
	ID         string         `json:"id"`
	Title      string         `json:"title"`
	Body       string         `json:"body"`
	Category   Category       `json:"category"`
	EntityType string         `json:"entityType,omitempty"`
	EntityID   string         `json:"entityId,omitempty"`
	ActionURL  string         `json:"actionUrl,omitempty"`
	Payload    map[string]any `json:"payload,omitempty"`
	CreatedAt  time.Time      `json:"createdAt"`
}

// Service validates notifications, persists their durable records and asks
// the gateway to push them to the resolved rooms.
type Service struct {
	storage Storage
	emitter Emitter
	logger  *slog.Logger
}

// Option configures a Service.
type Option func(*Service)

// WithLogger sets the logger for the Service.
func WithLogger(l *slog.Logger) Option {
	return func(s *Service) {
		if l != nil {
			s.logger = l
		}
	}
}

// NewService creates a notification service. A nil emitter falls back to
// NoopEmitter (durable records only).
func NewService(storage Storage, emitter Emitter, opts ...Option) *Service {
	if emitter == nil {
		emitter = NoopEmitter{}
	}

	s := &Service{
		storage: storage,
		emitter: emitter,
		logger:  slog.Default(),
	}
	for _, opt := range opts {
		opt(s)
	}

	return s
}

// Send validates the target and content, persists one durable record per
// surface-scoped operation and pushes the event to the resolved room. System
// targets fan out into two fully independent operations, one per surface.
func (s *Service) Send(ctx context.Context, target Target, content Content) error {
	if err := content.Validate(); err != nil {
		return err
	}
	if err := target.Validate(); err != nil {
		return err
	}

	if target.Kind == TargetSystem {
		// Two independent operations with independent persistence and
		// independent emission outcome.
		var errs []error
		for _, app := range rooms.AppTypes() {
			if err := s.deliver(ctx, AppTarget(app), content, EventSystemNew); err != nil {
				errs = append(errs, fmt.Errorf("system notification for %s: %w", app, err))
			}
		}
		return errors.Join(errs...)
	}

	return s.deliver(ctx, target, content, eventFor(target.AppType))
}

// SendToUser sends a notification to one user's connections on one surface.
func (s *Service) SendToUser(ctx context.Context, userID string, app rooms.AppType, content Content) error {
	return s.Send(ctx, UserTarget(userID, app), content)
}

// SendToPermission sends a notification to every connection holding a
// permission claim on one surface.
func (s *Service) SendToPermission(ctx context.Context, key string, app rooms.AppType, content Content) error {
	return s.Send(ctx, PermissionTarget(key, app), content)
}

// SendToApp sends a notification to every connection on one surface.
func (s *Service) SendToApp(ctx context.Context, app rooms.AppType, content Content) error {
	return s.Send(ctx, AppTarget(app), content)
}

// SendSystemNotification sends a notification to both surfaces as two
// independent operations.
func (s *Service) SendSystemNotification(ctx context.Context, content Content) error {
	return s.Send(ctx, SystemTarget(), content)
}

// deliver persists the record for one surface-scoped target, then attempts
// the live push. The target is already validated.
func (s *Service) deliver(ctx context.Context, target Target, content Content, event string) error {
	rec := Record{
		ID:            uuid.New().String(),
		AppType:       target.AppType,
		Audience:      target.audience(),
		UserID:        target.UserID,
		PermissionKey: target.PermissionKey,
		Title:         content.Title,
		Body:          content.Body,
		Category:      content.Category,
		EntityType:    content.EntityType,
		EntityID:      content.EntityID,
		ActionURL:     content.ActionURL,
		Payload:       content.Payload,
		CreatedAt:     time.Now(),
	}

	// Store first: the durable record and the push must never disagree about
	// success, so a persistence failure aborts before any emission.
	if err := s.storage.Create(ctx, rec); err != nil {
		return fmt.Errorf("store notification: %w", err)
	}

	room := target.room()
	if err := s.emitter.EmitToRoom(ctx, room, event, deliveryEvent(rec)); err != nil {
		// Best effort: the record is persisted and reconcilable by polling.
		s.logger.LogAttrs(ctx, slog.LevelWarn, "notification stored but live push failed",
			logger.NotificationID(rec.ID),
			logger.Room(room),
			logger.Event(event),
			logger.Error(err),
		)
	}

	return nil
}

// Get retrieves a single record by ID.
func (s *Service) Get(ctx context.Context, id string) (*Record, error) {
	return s.storage.Get(ctx, id)
}

// List returns the records visible to a recipient, newest first.
func (s *Service) List(ctx context.Context, rcpt Recipient, opts ListOptions) ([]Record, error) {
	return s.storage.List(ctx, rcpt, opts)
}

// MarkRead marks the recipient's record(s) as read.
func (s *Service) MarkRead(ctx context.Context, app rooms.AppType, userID string, ids ...string) error {
	return s.storage.MarkRead(ctx, app, userID, ids...)
}

// MarkAllRead marks every unread record addressed to the recipient as read.
// Broadcast records are visible but not markable per user, so they are left
// untouched.
func (s *Service) MarkAllRead(ctx context.Context, rcpt Recipient) error {
	unread, err := s.storage.List(ctx, rcpt, ListOptions{OnlyUnread: true})
	if err != nil {
		return err
	}

	ids := make([]string, 0, len(unread))
	for _, rec := range unread {
		if rec.Audience != AudienceUser {
			continue
		}
		ids = append(ids, rec.ID)
	}
	if len(ids) > 0 {
		return s.storage.MarkRead(ctx, rcpt.AppType, rcpt.UserID, ids...)
	}
	return nil
}

// CountUnread returns the number of unread records visible to a recipient.
func (s *Service) CountUnread(ctx context.Context, rcpt Recipient) (int, error) {
	return s.storage.CountUnread(ctx, rcpt)
}

// eventFor selects the surface-specific event name.
func eventFor(app rooms.AppType) string {
	if app == rooms.AppDriver {
		return EventDriverNew
	}
	return EventCustomerNew
}

func deliveryEvent(rec Record) DeliveryEvent {
	return DeliveryEvent{
		ID:         rec.ID,
		Title:      rec.Title,
		Body:       rec.Body,
		Category:   rec.Category,
		EntityType: rec.EntityType,
		EntityID:   rec.EntityID,
		ActionURL:  rec.ActionURL,
		Payload:    rec.Payload,
		CreatedAt:  rec.CreatedAt,
	}
}
