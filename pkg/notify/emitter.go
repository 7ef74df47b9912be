package notify

import "context"

// Event names pushed over the socket transport. Customer- and driver-targeted
// emissions use surface-specific names; system-wide emissions use the neutral
// name once per surface-scoped operation.
const (
	EventCustomerNew = "customer-new"
	EventDriverNew   = "driver-new"
	EventSystemNew   = "system-new"
)

// Emitter is the live push primitive the service needs from the socket
// gateway. The service owns the interface and the gateway implements it, so
// the two layers stay decoupled at compile time and no package-global gateway
// handle exists.
type Emitter interface {
	// EmitToRoom pushes an event to every connection currently in the room.
	// Emitting to a room with no subscribers is a silent no-op.
	EmitToRoom(ctx context.Context, room, event string, payload any) error
}

// NoopEmitter discards all emissions. Useful when a deployment only wants
// durable records, and in tests.
type NoopEmitter struct{}

func (NoopEmitter) EmitToRoom(ctx context.Context, room, event string, payload any) error {
	return nil
}
