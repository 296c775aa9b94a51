package handlers

import (
	"context"
	"io"
	"net/http"
	"sync"

	"elevator_control/internal/models"
	"elevator_control/internal/service"

	"github.com/gin-gonic/gin"
)

// ---- Service Mocks ----

type mockAuth struct {
	signUpID      int
	signUpErr     error
	genTokenToken string
	genTokenErr   error
	parseID       int
	parseErr      error

	lastSignUpUsername string
	lastSignUpPassword string
	lastGenUsername    string
	lastGenPassword    string
	lastParseToken     string
}

func (m *mockAuth) SignUp(_ context.Context, username, password string) (int, error) {
	m.lastSignUpUsername = username
	m.lastSignUpPassword = password
	return m.signUpID, m.signUpErr
}
func (m *mockAuth) GenerateToken(_ context.Context, username, password string) (string, error) {
	m.lastGenUsername = username
	m.lastGenPassword = password
	return m.genTokenToken, m.genTokenErr
}
func (m *mockAuth) ParseToken(token string) (int, error) {
	m.lastParseToken = token
	return m.parseID, m.parseErr
}

type mockElevator struct {
	snap       models.Snapshot
	requestErr error
	openErr    error
	closeErr   error
	floors     []models.Floor

	lastFloor  models.FloorID
	requests   int
	openCalls  int
	closeCalls int

	mu     sync.Mutex
	subs   []chan service.Notification
	subbed chan struct{}
}

func (m *mockElevator) RequestFloor(_ context.Context, f models.FloorID) (models.Snapshot, error) {
	m.requests++
	m.lastFloor = f
	return m.snap, m.requestErr
}
func (m *mockElevator) OpenDoors(context.Context) (models.Snapshot, error) {
	m.openCalls++
	return m.snap, m.openErr
}
func (m *mockElevator) CloseDoors(context.Context) (models.Snapshot, error) {
	m.closeCalls++
	return m.snap, m.closeErr
}
func (m *mockElevator) State(context.Context) models.Snapshot { return m.snap }
func (m *mockElevator) Floors() []models.Floor { return m.floors }

func (m *mockElevator) Subscribe(buffer int) (<-chan service.Notification, func()) {
	ch := make(chan service.Notification, buffer)
	m.mu.Lock()
	m.subs = append(m.subs, ch)
	m.mu.Unlock()
	if m.subbed != nil {
		m.subbed <- struct{}{}
	}
	return ch, func() {}
}

// push delivers n to every subscriber.
func (m *mockElevator) push(n service.Notification) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, ch := range m.subs {
		ch <- n
	}
}

// closeAll ends every subscription, as a shutting down service would.
func (m *mockElevator) closeAll() {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, ch := range m.subs {
		close(ch)
	}
	m.subs = nil
}

type mockEventLog struct {
	resp      []models.LogEntry
	err       error
	clearErr  error
	export    string
	exportErr error

	lastFilter service.LogFilter
	clears     int
}

func (m *mockEventLog) List(_ context.Context, f service.LogFilter) ([]models.LogEntry, error) {
	m.lastFilter = f
	return m.resp, m.err
}
func (m *mockEventLog) Clear(context.Context) error {
	m.clears++
	return m.clearErr
}
func (m *mockEventLog) Export(_ context.Context, w io.Writer) (int, error) {
	if m.exportErr != nil {
		return 0, m.exportErr
	}
	_, err := io.WriteString(w, m.export)
	return len(m.resp), err
}

// ---- Shared Test Helpers ----

func newTestRouter(s *service.Service) *gin.Engine {
	h := NewHandler(s, nil)
	gin.SetMode(gin.TestMode)
	return h.InitRoutes()
}

func authHeader(token string) http.Header {
	h := http.Header{}
	if token != "" {
		h.Set("Authorization", "Bearer "+token)
	}
	return h
}
