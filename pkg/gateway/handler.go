package gateway

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"github.com/washhub/realtime/pkg/clientip"
	"github.com/washhub/realtime/pkg/logger"
	"github.com/washhub/realtime/pkg/rooms"
)

// upgrader performs the WebSocket handshake. Origin checks are intentionally
// permissive: the clients are native apps, and trust comes from the signed
// credential, not the Origin header.
var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin:     func(r *http.Request) bool { return true },
}

// identity is the authenticated result of a handshake.
type identity struct {
	userID      string
	appType     rooms.AppType
	permissions []string
}

// ServeHTTP authenticates the handshake and, on success, upgrades the
// connection, joins its rooms and sends the connection acknowledgment.
//
// The handshake carries `token` and `appType` query parameters. Every
// rejection happens before the upgrade, so a rejected client never allocates
// gateway resources.
func (h *Hub) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	id, status, reason, err := h.authenticate(r)
	if err != nil {
		handshakeRejections.WithLabelValues(reason).Inc()
		h.logger.LogAttrs(r.Context(), slog.LevelInfo, "handshake rejected",
			slog.String("reason", reason),
			slog.String("remote_ip", clientip.FromRequest(r)),
		)
		http.Error(w, err.Error(), status)
		return
	}

	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		// Upgrade already wrote the HTTP error response.
		h.logger.LogAttrs(r.Context(), slog.LevelDebug, "websocket upgrade failed", logger.Error(err))
		return
	}

	c := &client{
		id:          uuid.New().String(),
		userID:      id.userID,
		appType:     id.appType,
		permissions: id.permissions,
		connectedAt: time.Now(),
		rooms:       joinedRooms(id),
		conn:        conn,
		send:        make(chan []byte, h.sendBuffer),
		hub:         h,
	}

	if err := h.register(c); err != nil {
		_ = conn.Close()
		return
	}

	ack, err := json.Marshal(envelope{
		Event: EventConnected,
		Data: ConnectionAck{
			UserID:    c.userID,
			AppType:   c.appType.Upper(),
			Rooms:     c.rooms,
			Timestamp: c.connectedAt.UTC(),
		},
	})
	if err == nil {
		c.enqueue(ack)
	}

	h.logger.LogAttrs(r.Context(), slog.LevelInfo, "client connected",
		logger.ConnectionID(c.id),
		logger.UserID(c.userID),
		logger.AppType(string(c.appType)),
		slog.Int("rooms", len(c.rooms)),
		slog.String("remote_ip", clientip.FromRequest(r)),
	)

	h.wg.Add(2)
	go func() {
		defer h.wg.Done()
		c.writePump()
	}()
	go func() {
		defer h.wg.Done()
		c.readPump()
	}()
}

// authenticate validates the handshake payload against the connection
// authentication state machine. It returns the identity on success, or an
// HTTP status plus a rejection reason.
func (h *Hub) authenticate(r *http.Request) (identity, int, string, error) {
	query := r.URL.Query()

	rawToken := query.Get("token")
	if rawToken == "" {
		return identity{}, http.StatusUnauthorized, reasonMissingToken, ErrAuthentication
	}

	declaredRaw := query.Get("appType")
	if declaredRaw == "" {
		return identity{}, http.StatusBadRequest, reasonMissingAppType, ErrInvalidAppType
	}
	declared, err := rooms.ParseAppType(declaredRaw)
	if err != nil {
		return identity{}, http.StatusBadRequest, reasonInvalidAppType, ErrInvalidAppType
	}

	claims, err := h.verifier.Verify(rawToken)
	if err != nil {
		return identity{}, http.StatusUnauthorized, reasonInvalidToken, ErrAuthentication
	}

	// The critical isolation check: a credential carrying a surface claim may
	// only connect as that surface.
	if claims.AppType != "" {
		claimed, err := rooms.ParseAppType(claims.AppType)
		if err != nil || claimed != declared {
			h.logger.LogAttrs(r.Context(), slog.LevelWarn, "handshake app type mismatch",
				logger.UserID(claims.Subject),
				slog.String("declared", declaredRaw),
				slog.String("claimed", claims.AppType),
			)
			return identity{}, http.StatusUnauthorized, reasonAppTypeMismatch, ErrAppTypeMismatch
		}
	}

	for _, key := range claims.Permissions {
		if !rooms.ValidPermissionKey(key) {
			h.logger.LogAttrs(r.Context(), slog.LevelWarn, "handshake carries malformed permission key",
				logger.UserID(claims.Subject),
				slog.String("permission", key),
			)
			return identity{}, http.StatusUnauthorized, reasonInvalidPermission, ErrAuthentication
		}
	}

	return identity{
		userID:      claims.Subject,
		appType:     declared,
		permissions: claims.Permissions,
	}, 0, "", nil
}

// joinedRooms computes the fixed room set for an identity: the user room, the
// surface-wide room and one room per permission claim.
func joinedRooms(id identity) []string {
	names := make([]string, 0, 2+len(id.permissions))
	names = append(names, rooms.User(id.appType, id.userID), rooms.App(id.appType))
	for _, key := range id.permissions {
		names = append(names, rooms.Permission(id.appType, key))
	}
	return names
}
