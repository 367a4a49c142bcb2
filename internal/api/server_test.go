package api

import (
	"context"
	"database/sql"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	_ "github.com/mattn/go-sqlite3"

	"github.com/nerrad567/iotmock/internal/account"
	"github.com/nerrad567/iotmock/internal/device"
	"github.com/nerrad567/iotmock/internal/infrastructure/config"
	"github.com/nerrad567/iotmock/internal/infrastructure/logging"
)

// testServer creates a Server with real repositories backed by in-memory SQLite.
func testServer(t *testing.T) *Server {
	t.Helper()

	db := setupTestDB(t)
	log := logging.New(config.LoggingConfig{Level: "error", Format: "text", Output: "stdout"}, "test")

	srv, err := New(Deps{
		Config: config.APIConfig{
			Host: "127.0.0.1",
			Port: 0,
			Timeouts: config.APITimeoutConfig{
				Read:  5,
				Write: 5,
				Idle:  5,
			},
			CORS: config.CORSConfig{
				AllowedOrigins: []string{"*"},
			},
		},
		WS: config.WebSocketConfig{
			MaxMessageSize: 8192,
			PingInterval:   30,
			PongTimeout:    10,
		},
		Uploads: config.UploadsConfig{
			Dir:        t.TempDir(),
			PublicPath: "/uploads",
		},
		Logger:  log,
		Users:   account.NewUserRepository(db),
		Devices: device.NewSQLiteRepository(db),
		Ledger:  device.NewSQLiteStatusLedger(db),
		Version: "test",
	})
	if err != nil {
		t.Fatalf("New() error: %v", err)
	}

	// Initialise hub for tests
	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)
	srv.hub = NewHub(srv.wsCfg, log)
	go srv.hub.Run(ctx)

	return srv
}

// setupTestDB creates an in-memory SQLite database with the full schema.
// A single connection keeps the in-memory data alive across queries.
func setupTestDB(t *testing.T) *sql.DB {
	t.Helper()

	db, err := sql.Open("sqlite3", "file::memory:?_foreign_keys=on")
	if err != nil {
		t.Fatalf("failed to open test database: %v", err)
	}
	db.SetMaxOpenConns(1)

	schema := `
		CREATE TABLE users (
			id TEXT PRIMARY KEY,
			first_name TEXT NOT NULL,
			last_name TEXT NOT NULL,
			gender TEXT NOT NULL,
			email TEXT NOT NULL UNIQUE,
			password TEXT NOT NULL,
			token TEXT NOT NULL UNIQUE,
			avatar TEXT,
			time_zone TEXT,
			created_at TEXT NOT NULL
		) STRICT;

		CREATE TABLE devices (
			uuid TEXT PRIMARY KEY,
			name TEXT NOT NULL,
			owner_email TEXT NOT NULL REFERENCES users(email),
			created_at TEXT NOT NULL
		) STRICT;
		CREATE INDEX idx_devices_owner ON devices(owner_email);

		CREATE TABLE status_history (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			device_uuid TEXT NOT NULL REFERENCES devices(uuid) ON DELETE CASCADE,
			status TEXT NOT NULL CHECK (status IN ('ON', 'OFF')),
			recorded_at TEXT NOT NULL
		) STRICT;
		CREATE INDEX idx_status_history_device ON status_history(device_uuid);
	`

	if _, execErr := db.Exec(schema); execErr != nil {
		db.Close()
		t.Fatalf("failed to create test schema: %v", execErr)
	}

	t.Cleanup(func() { db.Close() })
	return db
}

// registerUser creates an account through the repository and returns it
// with its token populated.
func registerUser(t *testing.T, srv *Server, email string) *account.User {
	t.Helper()

	user := &account.User{
		FirstName: "Ada",
		LastName:  "Lovelace",
		Gender:    "female",
		Email:     email,
		Password:  "s3cret",
	}
	if err := srv.users.Create(context.Background(), user); err != nil {
		t.Fatalf("Create user: %v", err)
	}
	return user
}

// authedRequest builds a request carrying the user's bearer token.
func authedRequest(t *testing.T, method, target, body string, user *account.User) *http.Request {
	t.Helper()

	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, target, nil)
	} else {
		req = httptest.NewRequest(method, target, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	}
	req.Header.Set("Authorization", "Bearer "+user.Token)
	return req
}

// ─── Health Endpoint Tests ─────────────────────────────────────────

func TestHealth(t *testing.T) {
	srv := testServer(t)
	router := srv.buildRouter()

	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Errorf("health status = %d, want %d", w.Code, http.StatusOK)
	}

	var resp map[string]any
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}

	if resp["status"] != "ok" {
		t.Errorf("status = %v, want ok", resp["status"])
	}
	if resp["version"] != "test" {
		t.Errorf("version = %v, want test", resp["version"])
	}
}

func TestHealth_ContentType(t *testing.T) {
	srv := testServer(t)
	router := srv.buildRouter()

	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	ct := w.Header().Get("Content-Type")
	if ct != "application/json" {
		t.Errorf("Content-Type = %q, want %q", ct, "application/json")
	}
}

// ─── Middleware Tests ──────────────────────────────────────────────

func TestRequestID_Generated(t *testing.T) {
	srv := testServer(t)
	router := srv.buildRouter()

	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	if w.Header().Get("X-Request-ID") == "" {
		t.Error("expected X-Request-ID header to be set")
	}
}

func TestRequestID_PreservesClient(t *testing.T) {
	srv := testServer(t)
	router := srv.buildRouter()

	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	req.Header.Set("X-Request-ID", "client-123")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	if got := w.Header().Get("X-Request-ID"); got != "client-123" {
		t.Errorf("X-Request-ID = %q, want %q", got, "client-123")
	}
}

func TestCORS_Preflight(t *testing.T) {
	srv := testServer(t)
	router := srv.buildRouter()

	req := httptest.NewRequest(http.MethodOptions, "/health", nil)
	req.Header.Set("Origin", "http://localhost:3000")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	if w.Code != http.StatusNoContent {
		t.Errorf("preflight status = %d, want %d", w.Code, http.StatusNoContent)
	}

	if got := w.Header().Get("Access-Control-Allow-Origin"); got != "http://localhost:3000" {
		t.Errorf("ACAO = %q, want %q", got, "http://localhost:3000")
	}
}

func TestNotFound(t *testing.T) {
	srv := testServer(t)
	router := srv.buildRouter()

	req := httptest.NewRequest(http.MethodGet, "/nonexistent", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	if w.Code != http.StatusNotFound {
		t.Errorf("unknown route status = %d, want %d", w.Code, http.StatusNotFound)
	}
}

// ─── Auth Middleware Tests ─────────────────────────────────────────

func TestAuthMiddleware(t *testing.T) {
	srv := testServer(t)
	router := srv.buildRouter()
	user := registerUser(t, srv, "ada@example.com")

	t.Run("missing header returns 401", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/user/me", nil)
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)

		if w.Code != http.StatusUnauthorized {
			t.Errorf("status = %d, want %d", w.Code, http.StatusUnauthorized)
		}
	})

	t.Run("malformed header returns 401", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/user/me", nil)
		req.Header.Set("Authorization", "Token "+user.Token)
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)

		if w.Code != http.StatusUnauthorized {
			t.Errorf("status = %d, want %d", w.Code, http.StatusUnauthorized)
		}
	})

	t.Run("unknown token returns 404", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/user/me", nil)
		req.Header.Set("Authorization", "Bearer no-such-token")
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)

		if w.Code != http.StatusNotFound {
			t.Errorf("status = %d, want %d", w.Code, http.StatusNotFound)
		}
	})

	t.Run("valid token passes", func(t *testing.T) {
		w := httptest.NewRecorder()
		router.ServeHTTP(w, authedRequest(t, http.MethodGet, "/user/me", "", user))

		if w.Code != http.StatusOK {
			t.Errorf("status = %d, want %d; body: %s", w.Code, http.StatusOK, w.Body.String())
		}
	})
}

// ─── WebSocket Hub Tests ───────────────────────────────────────────

func TestHub_BroadcastToAll(t *testing.T) {
	log := logging.New(config.LoggingConfig{Level: "error", Format: "text", Output: "stdout"}, "test")
	hub := NewHub(config.WebSocketConfig{MaxMessageSize: 8192, PingInterval: 30, PongTimeout: 10}, log)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go hub.Run(ctx)

	client := &WSClient{
		hub:   hub,
		send:  make(chan []byte, wsSendBufferSize),
		email: "ada@example.com",
	}
	hub.Register(client)

	hub.Broadcast(EventStatusRecorded, map[string]any{"uuid": "dev-1", "status": "ON"})

	select {
	case msg := <-client.send:
		var wsMsg WSMessage
		if err := json.Unmarshal(msg, &wsMsg); err != nil {
			t.Fatalf("unmarshal: %v", err)
		}
		if wsMsg.Type != WSTypeEvent {
			t.Errorf("type = %q, want %q", wsMsg.Type, WSTypeEvent)
		}
		if wsMsg.EventType != EventStatusRecorded {
			t.Errorf("event_type = %q, want %q", wsMsg.EventType, EventStatusRecorded)
		}
	case <-time.After(time.Second):
		t.Error("timed out waiting for broadcast message")
	}
}

func TestHub_ClientCount(t *testing.T) {
	log := logging.New(config.LoggingConfig{Level: "error", Format: "text", Output: "stdout"}, "test")
	hub := NewHub(config.WebSocketConfig{MaxMessageSize: 8192, PingInterval: 30, PongTimeout: 10}, log)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go hub.Run(ctx)

	if hub.ClientCount() != 0 {
		t.Errorf("initial client count = %d, want 0", hub.ClientCount())
	}

	client := &WSClient{
		hub:  hub,
		send: make(chan []byte, wsSendBufferSize),
	}
	hub.Register(client)

	if hub.ClientCount() != 1 {
		t.Errorf("after register count = %d, want 1", hub.ClientCount())
	}

	hub.Unregister(client)

	if hub.ClientCount() != 0 {
		t.Errorf("after unregister count = %d, want 0", hub.ClientCount())
	}
}

func TestWebSocket_RequiresToken(t *testing.T) {
	srv := testServer(t)
	router := srv.buildRouter()

	req := httptest.NewRequest(http.MethodGet, "/ws", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	if w.Code != http.StatusUnauthorized {
		t.Errorf("status = %d, want %d", w.Code, http.StatusUnauthorized)
	}
}

func TestWebSocket_UnknownToken(t *testing.T) {
	srv := testServer(t)
	router := srv.buildRouter()

	req := httptest.NewRequest(http.MethodGet, "/ws?token=no-such-token", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	if w.Code != http.StatusNotFound {
		t.Errorf("status = %d, want %d", w.Code, http.StatusNotFound)
	}
}

// connectWebSocket dials /ws through a live listener with the user's token
// and waits until the hub has registered the client.
func connectWebSocket(t *testing.T, srv *Server, ts *httptest.Server, token string) *websocket.Conn {
	t.Helper()

	wsURL := "ws" + strings.TrimPrefix(ts.URL, "http") + "/ws?token=" + token
	ws, resp, err := websocket.DefaultDialer.Dial(wsURL, nil)
	if err != nil {
		status := 0
		if resp != nil {
			status = resp.StatusCode
		}
		t.Fatalf("websocket dial failed: %v (status %d)", err, status)
	}
	t.Cleanup(func() { ws.Close() })

	// Registration happens just after the handshake; wait for it.
	deadline := time.Now().Add(2 * time.Second)
	for srv.hub.ClientCount() == 0 && time.Now().Before(deadline) {
		time.Sleep(10 * time.Millisecond)
	}
	if srv.hub.ClientCount() == 0 {
		t.Fatal("client never registered with hub")
	}
	return ws
}

// The full path: upgrade through the complete middleware chain, then a
// device registration over HTTP arrives as events on the socket.
func TestWebSocket_UpgradeAndBroadcast(t *testing.T) {
	srv := testServer(t)
	router := srv.buildRouter()
	user := registerUser(t, srv, "ada@example.com")

	ts := httptest.NewServer(router)
	defer ts.Close()

	ws := connectWebSocket(t, srv, ts, user.Token)

	w := httptest.NewRecorder()
	router.ServeHTTP(w, authedRequest(t, http.MethodPost, "/devices/register",
		`{"uuid":"dev-1","name":"Kettle"}`, user))
	if w.Code != http.StatusCreated {
		t.Fatalf("register device status = %d, want %d; body: %s", w.Code, http.StatusCreated, w.Body.String())
	}

	// Registration emits device.registered followed by status.recorded.
	ws.SetReadDeadline(time.Now().Add(2 * time.Second))

	var first WSMessage
	if err := ws.ReadJSON(&first); err != nil {
		t.Fatalf("read first event: %v", err)
	}
	if first.Type != WSTypeEvent {
		t.Errorf("type = %q, want %q", first.Type, WSTypeEvent)
	}
	if first.EventType != EventDeviceRegistered {
		t.Errorf("event_type = %q, want %q", first.EventType, EventDeviceRegistered)
	}

	var second WSMessage
	if err := ws.ReadJSON(&second); err != nil {
		t.Fatalf("read second event: %v", err)
	}
	if second.EventType != EventStatusRecorded {
		t.Errorf("event_type = %q, want %q", second.EventType, EventStatusRecorded)
	}
}

func TestWebSocket_Ping(t *testing.T) {
	srv := testServer(t)
	user := registerUser(t, srv, "ada@example.com")

	ts := httptest.NewServer(srv.buildRouter())
	defer ts.Close()

	ws := connectWebSocket(t, srv, ts, user.Token)

	if err := ws.WriteJSON(WSMessage{Type: WSTypePing, ID: "ping-1"}); err != nil {
		t.Fatalf("write ping: %v", err)
	}

	ws.SetReadDeadline(time.Now().Add(2 * time.Second))
	var resp WSMessage
	if err := ws.ReadJSON(&resp); err != nil {
		t.Fatalf("read pong: %v", err)
	}

	if resp.Type != WSTypePong {
		t.Errorf("response type = %q, want %q", resp.Type, WSTypePong)
	}
	if resp.ID != "ping-1" {
		t.Errorf("response ID = %q, want ping-1", resp.ID)
	}
}
