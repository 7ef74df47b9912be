// Package notify implements the notification service of the real-time
// delivery subsystem: content and target models, validation, durable record
// persistence and target-to-room resolution.
//
// # Architecture
//
// The package follows a layered design:
//
//   - Storage: durable notification records (the platform's store in
//     production, MemoryStorage for development and tests)
//   - Emitter: live push primitives, implemented by the socket gateway and
//     registered at construction time so the service and the gateway stay
//     decoupled at compile time
//   - Service: validation, persistence, target resolution, emission
//
// # Send pipeline
//
// Every send operation validates first; an invalid content or target produces
// a validation error and no side effects. On success the service persists a
// Record, resolves the target to one room per surface and asks the Emitter to
// push there. Persistence failure aborts before emission; emission failure is
// logged and swallowed, because the durable record is the source of truth and
// a reconnecting client reconciles by querying it.
//
// System-wide notifications fan out into two fully independent operations,
// one per application surface, each with its own record and emission.
package notify
