package handlers

import (
	"net/http"
	"strconv"
	"time"

	"elevator_control/internal/service"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
)

const (
	writeWait        = 10 * time.Second
	pongWait         = 60 * time.Second
	pingPeriod       = (pongWait * 9) / 10
	maxMsgSize       = 1 << 12 // 4 KB
	subscriberBuffer = 64

	// snapshot frames carry door and cab progress for animation; 0 disables them.
	defaultInterval  = 0
	maxInterval      = 10 * time.Second
	maxIntervalMilli = 10_000
)

// Envelope types written to the socket.
const (
	envSnapshot = "snapshot"
	envState    = service.KindState
	envLog      = service.KindLog
)

type wsEnvelope struct {
	Type  string      `json:"type"`
	Data  interface{} `json:"data,omitempty"`
	Error string      `json:"error,omitempty"`
}

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool { return true }, // TODO: restrict origins once the operator UI has a fixed host
}

// wsConnect streams a snapshot on connect, then every state change and log
// entry as it happens. ?interval adds periodic snapshots.
func (h *Handler) wsConnect(c *gin.Context) {
	interval := h.parseInterval(c)

	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		if h.log != nil {
			h.log.Errorw("ws_upgrade_failed", "err", err)
		}
		return
	}
	defer func() { _ = conn.Close() }()

	conn.SetReadLimit(maxMsgSize)
	_ = conn.SetReadDeadline(time.Now().Add(pongWait))
	conn.SetPongHandler(func(string) error {
		return conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	done := make(chan struct{})
	go h.startReader(conn, done)

	events, cancel := h.services.Elevator.Subscribe(subscriberBuffer)
	defer cancel()

	ping := time.NewTicker(pingPeriod)
	defer ping.Stop()

	var snapshots <-chan time.Time
	if interval > 0 {
		t := time.NewTicker(interval)
		defer t.Stop()
		snapshots = t.C
	}

	if err := h.sendSnapshot(c, conn); err != nil {
		if h.log != nil {
			h.log.Infow("ws_write_failed_initial", "err", err)
		}
		return
	}

	for {
		select {
		case <-done:
			return
		case <-c.Request.Context().Done():
			return
		case <-ping.C:
			_ = conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				if h.log != nil {
					h.log.Infow("ws_ping_failed", "err", err)
				}
				return
			}
		case <-snapshots:
			if err := h.sendSnapshot(c, conn); err != nil {
				if h.log != nil {
					h.log.Infow("ws_write_failed", "err", err)
				}
				return
			}
		case n, ok := <-events:
			if !ok {
				return
			}
			if err := writeEnvelope(conn, notificationEnvelope(n)); err != nil {
				if h.log != nil {
					h.log.Infow("ws_write_failed", "err", err, "type", n.Kind)
				}
				return
			}
		}
	}
}

func notificationEnvelope(n service.Notification) wsEnvelope {
	switch n.Kind {
	case service.KindState:
		return wsEnvelope{Type: envState, Data: n.State}
	case service.KindLog:
		return wsEnvelope{Type: envLog, Data: n.Log}
	default:
		return wsEnvelope{Type: n.Kind, Error: "unknown notification"}
	}
}

// parseInterval reads ?interval=2s or ?interval_ms=2000 with bounds.
func (h *Handler) parseInterval(c *gin.Context) time.Duration {
	if s := c.Query("interval"); s != "" {
		if d, err := time.ParseDuration(s); err == nil && d > 0 && d <= maxInterval {
			return d
		}
	}

	if ms := c.Query("interval_ms"); ms != "" {
		if v, err := strconv.Atoi(ms); err == nil && v > 0 && v <= maxIntervalMilli {
			return time.Duration(v) * time.Millisecond
		}
	}

	return defaultInterval
}

// startReader drains incoming messages to handle control frames and detect closure.
func (h *Handler) startReader(conn *websocket.Conn, done chan<- struct{}) {
	defer close(done)
	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			if h.log != nil {
				h.log.Debugw("ws_read_closed", "err", err)
			}
			return
		}
	}
}

func (h *Handler) sendSnapshot(c *gin.Context, conn *websocket.Conn) error {
	return writeEnvelope(conn, wsEnvelope{Type: envSnapshot, Data: h.services.Elevator.State(c.Request.Context())})
}

func writeEnvelope(conn *websocket.Conn, env wsEnvelope) error {
	_ = conn.SetWriteDeadline(time.Now().Add(writeWait))
	return conn.WriteJSON(env)
}
