package handlers

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"
	"time"

	"elevator_control/internal/models"
	"elevator_control/internal/service"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
)

func TestParseInterval(t *testing.T) {
	h := NewHandler(&service.Service{}, nil)

	cases := []struct {
		name string
		u    string
		want time.Duration
	}{
		{"disabled_when_missing", "/ws", 0},
		{"interval_string_valid", "/ws?interval=200ms", 200 * time.Millisecond},
		{"interval_ms_valid", "/ws?interval_ms=150", 150 * time.Millisecond},
		{"interval_too_large", "/ws?interval=20s", 0},
		{"interval_ms_too_large", "/ws?interval_ms=20000", 0},
		{"interval_invalid_string", "/ws?interval=bogus", 0},
		{"both_present_interval_wins", "/ws?interval=2s&interval_ms=150", 2 * time.Second},
		{"both_present_invalid_interval_ms_used", "/ws?interval=bogus&interval_ms=250", 250 * time.Millisecond},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			w := httptest.NewRecorder()
			c, _ := gin.CreateTestContext(w)
			c.Request = httptest.NewRequest(http.MethodGet, tc.u, nil)
			if got := h.parseInterval(c); got != tc.want {
				t.Fatalf("expected %v, got %v for %s", tc.want, got, tc.u)
			}
		})
	}
}

type envelope struct {
	Type  string          `json:"type"`
	Data  json.RawMessage `json:"data"`
	Error string          `json:"error"`
}

func dialWS(t *testing.T, el *mockElevator, query string) *websocket.Conn {
	t.Helper()
	gin.SetMode(gin.TestMode)
	r := gin.New()
	h := NewHandler(&service.Service{Elevator: el}, nil)
	r.GET("/ws", h.wsConnect)

	srv := httptest.NewServer(r)
	t.Cleanup(srv.Close)

	u, _ := url.Parse(srv.URL)
	u.Scheme = "ws"
	u.Path = "/ws"
	u.RawQuery = query

	dialer := websocket.Dialer{HandshakeTimeout: 2 * time.Second}
	conn, _, err := dialer.Dial(u.String(), nil)
	if err != nil {
		t.Fatalf("dial error: %v", err)
	}
	t.Cleanup(func() { _ = conn.Close() })
	return conn
}

func readEnvelope(t *testing.T, conn *websocket.Conn) envelope {
	t.Helper()
	_ = conn.SetReadDeadline(time.Now().Add(time.Second))
	var env envelope
	if err := conn.ReadJSON(&env); err != nil {
		t.Fatalf("read: %v", err)
	}
	return env
}

func TestWebSocket_InitialSnapshotThenPushedEvents(t *testing.T) {
	el := &mockElevator{
		snap:   models.Snapshot{Floor: 0, State: models.StateIdle, Status: "Idle at Floor 0"},
		subbed: make(chan struct{}, 1),
	}
	conn := dialWS(t, el, "")

	env := readEnvelope(t, conn)
	if env.Type != envSnapshot {
		t.Fatalf("expected snapshot first, got %+v", env)
	}
	var snap models.Snapshot
	if err := json.Unmarshal(env.Data, &snap); err != nil || snap.State != models.StateIdle {
		t.Fatalf("unexpected snapshot: %+v (%v)", snap, err)
	}

	select {
	case <-el.subbed:
	case <-time.After(time.Second):
		t.Fatalf("handler never subscribed")
	}

	el.push(service.Notification{Kind: service.KindState, State: &service.StateEvent{
		State: models.StateMovingUp, Floor: 0, Status: "Moving up",
	}})
	el.push(service.Notification{Kind: service.KindLog, Log: &models.LogEntry{
		Sequence: 3, State: models.StateMovingUp, Message: "Moving up from Floor 0 to Floor 1",
	}})

	env = readEnvelope(t, conn)
	if env.Type != envState {
		t.Fatalf("expected state envelope, got %+v", env)
	}
	var ev service.StateEvent
	_ = json.Unmarshal(env.Data, &ev)
	if ev.State != models.StateMovingUp {
		t.Fatalf("unexpected state event: %+v", ev)
	}

	env = readEnvelope(t, conn)
	if env.Type != envLog {
		t.Fatalf("expected log envelope, got %+v", env)
	}
	var entry models.LogEntry
	_ = json.Unmarshal(env.Data, &entry)
	if entry.Sequence != 3 || entry.Message != "Moving up from Floor 0 to Floor 1" {
		t.Fatalf("unexpected log entry: %+v", entry)
	}
}

func TestWebSocket_PeriodicSnapshots(t *testing.T) {
	el := &mockElevator{snap: models.Snapshot{State: models.StateDoorsOpening, Door: models.DoorState{Phase: models.DoorOpening, Progress: 4}}}
	conn := dialWS(t, el, "interval_ms=20")

	for i := 0; i < 2; i++ {
		if env := readEnvelope(t, conn); env.Type != envSnapshot {
			t.Fatalf("expected snapshot %d, got %+v", i, env)
		}
	}
}

func TestWebSocket_ClosedSubscriptionClosesConnection(t *testing.T) {
	el := &mockElevator{subbed: make(chan struct{}, 1)}
	conn := dialWS(t, el, "")

	_ = readEnvelope(t, conn)
	select {
	case <-el.subbed:
	case <-time.After(time.Second):
		t.Fatalf("handler never subscribed")
	}
	el.closeAll()

	_ = conn.SetReadDeadline(time.Now().Add(500 * time.Millisecond))
	var raw json.RawMessage
	if err := conn.ReadJSON(&raw); err == nil {
		t.Fatalf("expected read error (closed), got message: %s", string(raw))
	}
}
