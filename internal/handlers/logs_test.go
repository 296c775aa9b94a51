package handlers

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"testing"
	"time"

	"elevator_control/internal/logqueue"
	"elevator_control/internal/models"
	"elevator_control/internal/service"
)

func TestLogsHandler_ListAndValidation(t *testing.T) {
	now := time.Now().UTC().Truncate(time.Second)
	entries := []models.LogEntry{
		{Sequence: 2, EventID: "e2", Timestamp: now.Add(time.Second), State: models.StateMovingUp, Message: "Moving up from Floor 0 to Floor 1"},
		{Sequence: 1, EventID: "e1", Timestamp: now, State: models.StateIdle, Message: "Elevator initialized at Floor 0"},
	}
	logs := &mockEventLog{resp: entries}
	r := newTestRouter(&service.Service{Authorization: &mockAuth{parseID: 99}, EventLog: logs})

	w := doAuthed(r, http.MethodGet, "/api/v1/logs?from=notatime", "")
	if w.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 invalid 'from', got %d", w.Code)
	}

	q := "/api/v1/logs/?from=" + now.Format(time.RFC3339) + "&to=" + now.Add(2*time.Second).Format(time.RFC3339) + "&state=MovingUp"
	w = doAuthed(r, http.MethodGet, q, "")
	if w.Code != http.StatusOK {
		t.Fatalf("logs status=%d, body=%s", w.Code, w.Body.String())
	}
	var out struct {
		Count   int               `json:"count"`
		Entries []models.LogEntry `json:"entries"`
	}
	_ = json.Unmarshal(w.Body.Bytes(), &out)
	if out.Count != 2 || len(out.Entries) != 2 || out.Entries[0].Sequence != 2 {
		t.Fatalf("unexpected response: %+v", out)
	}
	if logs.lastFilter.State != "MovingUp" || !logs.lastFilter.From.Equal(now) {
		t.Fatalf("unexpected filter: %+v", logs.lastFilter)
	}

	w = doAuthed(r, http.MethodGet, "/api/v1/logs?to=2025-08-31", "")
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200 for date-only 'to', got %d", w.Code)
	}
	wantTo := time.Date(2025, 8, 31, 23, 59, 59, 999999999, time.UTC)
	if !logs.lastFilter.To.Equal(wantTo) {
		t.Fatalf("expected end-of-day %v, got %v", wantTo, logs.lastFilter.To)
	}
}

func TestLogsHandler_ListErrors(t *testing.T) {
	cases := []struct {
		name string
		err  error
		want int
	}{
		{"invalid range", fmt.Errorf("%w: unknown state", service.ErrInvalidFilter), http.StatusBadRequest},
		{"flush timeout", logqueue.ErrFlushTimeout, http.StatusGatewayTimeout},
		{"persistence", fmt.Errorf("%w: locked", logqueue.ErrPersistence), http.StatusInternalServerError},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			r := newTestRouter(&service.Service{Authorization: &mockAuth{}, EventLog: &mockEventLog{err: tc.err}})
			w := doAuthed(r, http.MethodGet, "/api/v1/logs", "")
			if w.Code != tc.want {
				t.Fatalf("expected %d, got %d: %s", tc.want, w.Code, w.Body.String())
			}
		})
	}
}

func TestLogsHandler_Clear(t *testing.T) {
	logs := &mockEventLog{}
	r := newTestRouter(&service.Service{Authorization: &mockAuth{}, EventLog: logs})

	w := doAuthed(r, http.MethodDelete, "/api/v1/logs", "")
	if w.Code != http.StatusOK || logs.clears != 1 {
		t.Fatalf("expected cleared, got %d clears=%d", w.Code, logs.clears)
	}

	logs.clearErr = logqueue.ErrFlushTimeout
	w = doAuthed(r, http.MethodDelete, "/api/v1/logs", "")
	if w.Code != http.StatusGatewayTimeout {
		t.Fatalf("expected 504, got %d", w.Code)
	}
}

func TestLogsHandler_Export(t *testing.T) {
	report := "=== ELEVATOR OPERATION LOG ===\nExported: 2025-03-04 10:00:00\n\n"
	logs := &mockEventLog{export: report}
	r := newTestRouter(&service.Service{Authorization: &mockAuth{}, EventLog: logs})

	w := doAuthed(r, http.MethodGet, "/api/v1/logs/export", "")
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}
	if w.Body.String() != report {
		t.Fatalf("unexpected body %q", w.Body.String())
	}
	if ct := w.Header().Get("Content-Type"); !strings.HasPrefix(ct, "text/plain") {
		t.Fatalf("expected text/plain, got %q", ct)
	}
	if cd := w.Header().Get("Content-Disposition"); !strings.Contains(cd, "elevator_log_") {
		t.Fatalf("expected attachment name, got %q", cd)
	}

	logs.exportErr = errors.New("boom")
	w = doAuthed(r, http.MethodGet, "/api/v1/logs/export", "")
	if w.Code != http.StatusInternalServerError {
		t.Fatalf("expected 500, got %d", w.Code)
	}
}
