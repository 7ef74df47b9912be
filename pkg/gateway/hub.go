package gateway

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/washhub/realtime/pkg/logger"
	"github.com/washhub/realtime/pkg/rooms"
	"github.com/washhub/realtime/pkg/token"
)

// Verifier validates handshake credentials. *token.Verifier satisfies it.
type Verifier interface {
	Verify(tokenString string) (*token.Claims, error)
}

// envelope is the wire frame pushed to connections.
type envelope struct {
	Event string `json:"event"`
	Data  any    `json:"data"`
}

// ConnectionAck is the payload of the "connected" acknowledgment event.
type ConnectionAck struct {
	UserID    string    `json:"userId"`
	AppType   string    `json:"appType"`
	Rooms     []string  `json:"rooms"`
	Timestamp time.Time `json:"timestamp"`
}

// EventConnected is the acknowledgment event name sent once per successful
// handshake.
const EventConnected = "connected"

// Hub owns all live connections and their room membership. It implements the
// notification service's Emitter interface.
//
// The registry and the room table are guarded by a single RWMutex: connection
// handlers are short and non-blocking, so lock hold times stay bounded and
// per-room emission order follows emission call order.
type Hub struct {
	verifier   Verifier
	logger     *slog.Logger
	sendBuffer int

	mu      sync.RWMutex
	clients map[*client]struct{}
	rooms   map[string]map[*client]struct{}
	closed  bool

	wg sync.WaitGroup
}

// HubOption configures a Hub.
type HubOption func(*Hub)

// WithHubLogger sets the logger for the Hub.
func WithHubLogger(l *slog.Logger) HubOption {
	return func(h *Hub) {
		if l != nil {
			h.logger = l
		}
	}
}

// WithSendBuffer sets the per-connection outbound buffer size. A connection
// whose buffer fills up is treated as a slow consumer and disconnected.
func WithSendBuffer(n int) HubOption {
	return func(h *Hub) {
		if n > 0 {
			h.sendBuffer = n
		}
	}
}

// NewHub creates a gateway hub. The verifier is required: every connection
// must present a verifiable credential before it is allocated.
func NewHub(verifier Verifier, opts ...HubOption) *Hub {
	if verifier == nil {
		panic("gateway: NewHub requires a verifier")
	}

	h := &Hub{
		verifier:   verifier,
		logger:     slog.Default(),
		sendBuffer: 64,
		clients:    make(map[*client]struct{}),
		rooms:      make(map[string]map[*client]struct{}),
	}
	for _, opt := range opts {
		opt(h)
	}

	return h
}

// EmitToRoom pushes an event to every connection currently in the room.
// Emitting to a room with no subscribers is a silent no-op: durability is the
// record store's job, not the transport's.
func (h *Hub) EmitToRoom(ctx context.Context, room, event string, payload any) error {
	frame, err := json.Marshal(envelope{Event: event, Data: payload})
	if err != nil {
		return fmt.Errorf("marshal event %q: %w", event, err)
	}

	h.mu.RLock()
	if h.closed {
		h.mu.RUnlock()
		return ErrHubClosed
	}
	members := make([]*client, 0, len(h.rooms[room]))
	for c := range h.rooms[room] {
		members = append(members, c)
	}
	h.mu.RUnlock()

	if len(members) == 0 {
		return nil
	}

	for _, c := range members {
		if !c.enqueue(frame) {
			// Slow consumer: drop the connection rather than block emission.
			// The client recovers missed notifications from the record store.
			slowConsumerDrops.Inc()
			h.logger.LogAttrs(ctx, slog.LevelWarn, "disconnecting slow consumer",
				logger.ConnectionID(c.id),
				logger.UserID(c.userID),
				logger.Room(room),
			)
			go func(c *client) {
				h.unregister(c)
				_ = c.conn.Close()
			}(c)
		}
	}

	emittedEvents.WithLabelValues(event).Inc()
	return nil
}

// EmitToUser computes the user room for (appType, userID) and delegates to
// EmitToRoom.
func (h *Hub) EmitToUser(ctx context.Context, app rooms.AppType, userID, event string, payload any) error {
	return h.EmitToRoom(ctx, rooms.User(app, userID), event, payload)
}

// ClientCount returns the number of live connections, optionally narrowed to
// one room when room is non-empty.
func (h *Hub) ClientCount(room string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()

	if room == "" {
		return len(h.clients)
	}
	return len(h.rooms[room])
}

// Rooms returns the names of rooms with at least one member.
func (h *Hub) Rooms() []string {
	h.mu.RLock()
	defer h.mu.RUnlock()

	names := make([]string, 0, len(h.rooms))
	for name := range h.rooms {
		names = append(names, name)
	}
	return names
}

// Close disconnects every client and waits for their pumps to finish, up to
// the context deadline.
func (h *Hub) Close(ctx context.Context) error {
	h.mu.Lock()
	if h.closed {
		h.mu.Unlock()
		return nil
	}
	h.closed = true
	clients := make([]*client, 0, len(h.clients))
	for c := range h.clients {
		clients = append(clients, c)
	}
	h.mu.Unlock()

	for _, c := range clients {
		h.unregister(c)
	}

	done := make(chan struct{})
	go func() {
		h.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ErrShutdownTimeout
	}
}

// register adds an authenticated client to the registry and joins its rooms.
func (h *Hub) register(c *client) error {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.closed {
		return ErrHubClosed
	}

	h.clients[c] = struct{}{}
	for _, name := range c.rooms {
		members, exists := h.rooms[name]
		if !exists {
			members = make(map[*client]struct{})
			h.rooms[name] = members
		}
		members[c] = struct{}{}
	}

	connectedClients.WithLabelValues(string(c.appType)).Inc()
	return nil
}

// unregister removes a client from the registry and all its rooms, then
// closes its send channel. Safe to call more than once per client.
func (h *Hub) unregister(c *client) {
	h.mu.Lock()
	_, present := h.clients[c]
	if present {
		delete(h.clients, c)
		for _, name := range c.rooms {
			if members, exists := h.rooms[name]; exists {
				delete(members, c)
				if len(members) == 0 {
					delete(h.rooms, name)
				}
			}
		}
	}
	h.mu.Unlock()

	if present {
		connectedClients.WithLabelValues(string(c.appType)).Dec()
		h.logger.LogAttrs(context.Background(), slog.LevelDebug, "client disconnected",
			logger.ConnectionID(c.id),
			logger.UserID(c.userID),
			logger.AppType(string(c.appType)),
		)
	}
	c.close()
}
