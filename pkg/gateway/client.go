package gateway

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/washhub/realtime/pkg/logger"
	"github.com/washhub/realtime/pkg/rooms"
)

const (
	// writeWait is the time allowed to write a message to the peer.
	writeWait = 10 * time.Second

	// pongWait is the time allowed to read the next pong from the peer.
	pongWait = 60 * time.Second

	// pingPeriod must be less than pongWait.
	pingPeriod = (pongWait * 9) / 10

	// maxMessageSize bounds inbound frames; clients only send control frames.
	maxMessageSize = 512
)

// client is the gateway-owned registration of one active authenticated
// connection. One user may hold several simultaneous clients (tabs, devices),
// each with its own connection ID.
type client struct {
	id          string
	userID      string
	appType     rooms.AppType
	permissions []string
	connectedAt time.Time
	rooms       []string

	conn *websocket.Conn
	send chan []byte
	hub  *Hub

	closeOnce sync.Once
}

// close shuts the send channel exactly once. The write pump drains and closes
// the underlying connection when the channel closes.
func (c *client) close() {
	c.closeOnce.Do(func() {
		close(c.send)
	})
}

// enqueue hands a marshaled frame to the write pump without blocking. A full
// buffer means the consumer cannot keep up; the frame is dropped and the
// caller decides whether to disconnect the client.
func (c *client) enqueue(frame []byte) (ok bool) {
	defer func() {
		// Losing the race with close() turns the send into a failed enqueue
		// instead of a panic.
		if recover() != nil {
			ok = false
		}
	}()

	select {
	case c.send <- frame:
		return true
	default:
		return false
	}
}

// readPump consumes inbound frames until the transport reports closure. The
// gateway has no inbound protocol beyond keepalive, so payloads are
// discarded. Disconnect is the sole teardown path and is unconditional once
// the transport closes.
func (c *client) readPump() {
	defer func() {
		c.hub.unregister(c)
		_ = c.conn.Close()
	}()

	c.conn.SetReadLimit(maxMessageSize)
	_ = c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		if _, _, err := c.conn.ReadMessage(); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				c.hub.logger.LogAttrs(context.Background(), slog.LevelDebug, "connection closed unexpectedly",
					logger.ConnectionID(c.id),
					logger.UserID(c.userID),
					logger.Error(err),
				)
			}
			return
		}
	}
}

// writePump serializes all writes to the connection: queued frames and
// keepalive pings. It closes the connection when the send channel closes.
func (c *client) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		_ = c.conn.Close()
	}()

	for {
		select {
		case frame, ok := <-c.send:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				_ = c.conn.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, frame); err != nil {
				return
			}
		case <-ticker.C:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
