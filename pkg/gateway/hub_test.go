package gateway_test

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/washhub/realtime/pkg/gateway"
	"github.com/washhub/realtime/pkg/rooms"
	"github.com/washhub/realtime/pkg/token"
)

var signingKey = []byte("gateway-test-signing-key-32-bytes!!!")

type testEnv struct {
	hub    *gateway.Hub
	server *httptest.Server
	issuer *token.Issuer
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	verifier, err := token.NewVerifier(signingKey)
	require.NoError(t, err)
	issuer, err := token.NewIssuer(signingKey, time.Hour)
	require.NoError(t, err)

	hub := gateway.NewHub(verifier, gateway.WithHubLogger(slog.New(slog.NewTextHandler(io.Discard, nil))))
	server := httptest.NewServer(hub)

	t.Cleanup(func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = hub.Close(ctx)
		server.Close()
	})

	return &testEnv{hub: hub, server: server, issuer: issuer}
}

// dial connects with an issued credential and waits for the connection
// acknowledgment, which guarantees the server side finished registration.
func (e *testEnv) dial(t *testing.T, userID string, tokenApp, declaredApp string, perms []string) (*websocket.Conn, gateway.ConnectionAck) {
	t.Helper()

	raw, err := e.issuer.Issue(userID, tokenApp, perms)
	require.NoError(t, err)

	conn, _, err := websocket.DefaultDialer.Dial(e.wsURL("token="+raw+"&appType="+declaredApp), nil)
	require.NoError(t, err)
	t.Cleanup(func() { _ = conn.Close() })

	event, data := readFrame(t, conn)
	require.Equal(t, gateway.EventConnected, event)

	var ack gateway.ConnectionAck
	require.NoError(t, json.Unmarshal(data, &ack))
	return conn, ack
}

func (e *testEnv) wsURL(query string) string {
	return "ws" + strings.TrimPrefix(e.server.URL, "http") + "/?" + query
}

func readFrame(t *testing.T, conn *websocket.Conn) (string, json.RawMessage) {
	t.Helper()

	require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))
	_, frame, err := conn.ReadMessage()
	require.NoError(t, err)

	var env struct {
		Event string          `json:"event"`
		Data  json.RawMessage `json:"data"`
	}
	require.NoError(t, json.Unmarshal(frame, &env))
	return env.Event, env.Data
}

// expectSilence asserts that no frame arrives within the window.
func expectSilence(t *testing.T, conn *websocket.Conn) {
	t.Helper()

	require.NoError(t, conn.SetReadDeadline(time.Now().Add(300*time.Millisecond)))
	_, _, err := conn.ReadMessage()
	require.Error(t, err)
	netErr, ok := err.(interface{ Timeout() bool })
	require.True(t, ok, "expected timeout, got %v", err)
	assert.True(t, netErr.Timeout())
}

func TestHandshake_Acknowledgment(t *testing.T) {
	env := newTestEnv(t)

	_, ack := env.dial(t, "driver-7", "DRIVER", "DRIVER", []string{"ops", "fleet.manage"})

	assert.Equal(t, "driver-7", ack.UserID)
	assert.Equal(t, "DRIVER", ack.AppType)
	assert.ElementsMatch(t, []string{
		"driver:user:driver-7",
		"driver:all",
		"driver:perm:ops",
		"driver:perm:fleet.manage",
	}, ack.Rooms)
	assert.WithinDuration(t, time.Now(), ack.Timestamp, 5*time.Second)
}

func TestHandshake_TokenWithoutSurfaceClaim(t *testing.T) {
	env := newTestEnv(t)

	// Surface-agnostic credentials may connect as either surface.
	_, ack := env.dial(t, "u1", "", "CUSTOMER", nil)
	assert.Equal(t, "CUSTOMER", ack.AppType)

	_, ack = env.dial(t, "u1", "", "DRIVER", nil)
	assert.Equal(t, "DRIVER", ack.AppType)
}

func TestHandshake_Rejections(t *testing.T) {
	env := newTestEnv(t)

	goodToken := func(app string, perms []string) string {
		raw, err := env.issuer.Issue("u1", app, perms)
		require.NoError(t, err)
		return raw
	}

	tests := []struct {
		name       string
		query      string
		wantStatus int
	}{
		{
			name:       "missing token",
			query:      "appType=CUSTOMER",
			wantStatus: http.StatusUnauthorized,
		},
		{
			name:       "missing app type",
			query:      "token=" + goodToken("CUSTOMER", nil),
			wantStatus: http.StatusBadRequest,
		},
		{
			name:       "unknown app type",
			query:      "token=" + goodToken("CUSTOMER", nil) + "&appType=ADMIN",
			wantStatus: http.StatusBadRequest,
		},
		{
			name:       "garbage token",
			query:      "token=not.a.jwt&appType=CUSTOMER",
			wantStatus: http.StatusUnauthorized,
		},
		{
			name:       "customer credential declaring driver",
			query:      "token=" + goodToken("CUSTOMER", nil) + "&appType=DRIVER",
			wantStatus: http.StatusUnauthorized,
		},
		{
			name:       "driver credential declaring customer",
			query:      "token=" + goodToken("DRIVER", nil) + "&appType=CUSTOMER",
			wantStatus: http.StatusUnauthorized,
		},
		{
			name:       "malformed permission claim",
			query:      "token=" + goodToken("CUSTOMER", []string{"NOT A KEY"}) + "&appType=CUSTOMER",
			wantStatus: http.StatusUnauthorized,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			conn, resp, err := websocket.DefaultDialer.Dial(env.wsURL(tt.query), nil)
			require.ErrorIs(t, err, websocket.ErrBadHandshake)
			require.Nil(t, conn)
			require.NotNil(t, resp)
			assert.Equal(t, tt.wantStatus, resp.StatusCode)

			// A rejected handshake never allocates a connection.
			assert.Zero(t, env.hub.ClientCount(""))
		})
	}
}

func TestEmitToRoom_CrossSurfaceIsolation(t *testing.T) {
	env := newTestEnv(t)

	customer, _ := env.dial(t, "u1", "CUSTOMER", "CUSTOMER", []string{"ops"})
	driver, _ := env.dial(t, "u1", "DRIVER", "DRIVER", nil)

	err := env.hub.EmitToRoom(context.Background(), "customer:user:u1", "customer-new",
		map[string]any{"title": "T"})
	require.NoError(t, err)

	event, data := readFrame(t, customer)
	assert.Equal(t, "customer-new", event)
	assert.Contains(t, string(data), `"title":"T"`)

	// The driver connection shares the literal user ID but belongs to the
	// other surface; it must observe nothing.
	expectSilence(t, driver)
}

func TestEmitToRoom_PermissionRoom(t *testing.T) {
	env := newTestEnv(t)

	withPerm, _ := env.dial(t, "u1", "CUSTOMER", "CUSTOMER", []string{"ops"})
	withoutPerm, _ := env.dial(t, "u2", "CUSTOMER", "CUSTOMER", nil)

	err := env.hub.EmitToRoom(context.Background(), "customer:perm:ops", "customer-new",
		map[string]any{"body": "for ops"})
	require.NoError(t, err)

	event, _ := readFrame(t, withPerm)
	assert.Equal(t, "customer-new", event)
	expectSilence(t, withoutPerm)
}

func TestEmitToRoom_AppWideFanOut(t *testing.T) {
	env := newTestEnv(t)

	first, _ := env.dial(t, "u1", "CUSTOMER", "CUSTOMER", nil)
	second, _ := env.dial(t, "u2", "CUSTOMER", "CUSTOMER", nil)

	require.NoError(t, env.hub.EmitToRoom(context.Background(), "customer:all", "customer-new", nil))

	for _, conn := range []*websocket.Conn{first, second} {
		event, _ := readFrame(t, conn)
		assert.Equal(t, "customer-new", event)
	}
}

func TestEmitToRoom_EmptyRoomIsNoOp(t *testing.T) {
	env := newTestEnv(t)

	require.NoError(t, env.hub.EmitToRoom(context.Background(), "customer:perm:nobody", "customer-new", nil))
}

func TestEmitToUser_ComputesUserRoom(t *testing.T) {
	env := newTestEnv(t)

	conn, _ := env.dial(t, "u5", "DRIVER", "DRIVER", nil)

	err := env.hub.EmitToUser(context.Background(), rooms.AppDriver, "u5", "driver-new",
		map[string]any{"title": "Pickup"})
	require.NoError(t, err)

	event, data := readFrame(t, conn)
	assert.Equal(t, "driver-new", event)
	assert.Contains(t, string(data), "Pickup")
}

func TestEmitOrdering_WithinRoom(t *testing.T) {
	env := newTestEnv(t)

	conn, _ := env.dial(t, "u1", "CUSTOMER", "CUSTOMER", nil)

	for i := 0; i < 20; i++ {
		require.NoError(t, env.hub.EmitToRoom(context.Background(), "customer:user:u1", "customer-new",
			map[string]any{"seq": i}))
	}

	for i := 0; i < 20; i++ {
		_, data := readFrame(t, conn)
		var payload struct {
			Seq int `json:"seq"`
		}
		require.NoError(t, json.Unmarshal(data, &payload))
		assert.Equal(t, i, payload.Seq)
	}
}

func TestMultipleConnectionsPerUser(t *testing.T) {
	env := newTestEnv(t)

	tab1, _ := env.dial(t, "u1", "CUSTOMER", "CUSTOMER", nil)
	tab2, _ := env.dial(t, "u1", "CUSTOMER", "CUSTOMER", nil)
	assert.Equal(t, 2, env.hub.ClientCount("customer:user:u1"))

	require.NoError(t, env.hub.EmitToUser(context.Background(), rooms.AppCustomer, "u1", "customer-new", nil))

	for _, conn := range []*websocket.Conn{tab1, tab2} {
		event, _ := readFrame(t, conn)
		assert.Equal(t, "customer-new", event)
	}
}

func TestDisconnectReleasesRooms(t *testing.T) {
	env := newTestEnv(t)

	conn, _ := env.dial(t, "u1", "CUSTOMER", "CUSTOMER", []string{"ops"})
	require.Equal(t, 1, env.hub.ClientCount("customer:user:u1"))

	require.NoError(t, conn.Close())

	require.Eventually(t, func() bool {
		return env.hub.ClientCount("") == 0
	}, 2*time.Second, 20*time.Millisecond)
	assert.Zero(t, env.hub.ClientCount("customer:user:u1"))
	assert.Zero(t, env.hub.ClientCount("customer:perm:ops"))
	assert.Empty(t, env.hub.Rooms())
}

func TestHub_Close(t *testing.T) {
	env := newTestEnv(t)

	conn, _ := env.dial(t, "u1", "CUSTOMER", "CUSTOMER", nil)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	require.NoError(t, env.hub.Close(ctx))

	// Emissions after shutdown fail loudly rather than silently dropping.
	err := env.hub.EmitToRoom(context.Background(), "customer:all", "customer-new", nil)
	require.ErrorIs(t, err, gateway.ErrHubClosed)

	// The client observes the transport closing.
	require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))
	_, _, err = conn.ReadMessage()
	require.Error(t, err)

	// Close is idempotent.
	require.NoError(t, env.hub.Close(ctx))
}
