package repository_test

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"elevator_control/internal/models"
	"elevator_control/internal/repository"
	"elevator_control/internal/repository/db"
)

func TestSQLite_LogRoundTrip(t *testing.T) {
	conn, err := db.InitDB(filepath.Join(t.TempDir(), "elevator.db"))
	if err != nil {
		t.Fatalf("InitDB: %v", err)
	}
	t.Cleanup(func() { _ = conn.Close() })

	repos := repository.NewRepository(conn)
	ctx := context.Background()
	base := time.Date(2025, 5, 1, 8, 0, 0, 0, time.UTC)

	entries := []models.LogEntry{
		{Sequence: 1, EventID: "e1", Timestamp: base, Floor: 0, State: models.StateIdle, Message: "Elevator initialized at Floor 0"},
		{Sequence: 2, EventID: "e2", Timestamp: base.Add(time.Second), Floor: 0, State: models.StateMovingUp, Message: "Moving up from Floor 0 to Floor 1"},
		{Sequence: 3, EventID: "e3", Timestamp: base.Add(2 * time.Second), Floor: 1, State: models.StateIdle, Message: "Arrived at Floor 1",
			Metadata: map[string]any{"floor": "First Floor"}},
	}
	for _, e := range entries {
		if err := repos.LogRepo.Append(ctx, e); err != nil {
			t.Fatalf("Append %d: %v", e.Sequence, err)
		}
	}

	all, err := repos.LogRepo.ReadAll(ctx)
	if err != nil {
		t.Fatalf("ReadAll: %v", err)
	}
	if len(all) != 3 || all[0].Sequence != 3 || all[2].Sequence != 1 {
		t.Fatalf("expected newest first, got %+v", all)
	}
	if !all[0].Timestamp.Equal(entries[2].Timestamp) || all[0].Metadata["floor"] != "First Floor" {
		t.Fatalf("round trip mismatch: %+v", all[0])
	}

	idle, err := repos.LogRepo.List(ctx, base.Add(500*time.Millisecond), time.Time{}, "Idle")
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(idle) != 1 || idle[0].EventID != "e3" {
		t.Fatalf("unexpected filtered list: %+v", idle)
	}

	last, err := repos.LogRepo.LastSequence(ctx)
	if err != nil || last != 3 {
		t.Fatalf("expected last sequence 3, got %d (%v)", last, err)
	}

	if err := repos.LogRepo.Clear(ctx); err != nil {
		t.Fatalf("Clear: %v", err)
	}
	if all, _ := repos.LogRepo.ReadAll(ctx); len(all) != 0 {
		t.Fatalf("expected empty log, got %d", len(all))
	}
}

func TestSQLite_Users(t *testing.T) {
	conn, err := db.InitDB(filepath.Join(t.TempDir(), "users.db"))
	if err != nil {
		t.Fatalf("InitDB: %v", err)
	}
	t.Cleanup(func() { _ = conn.Close() })

	users := repository.NewUserRepository(conn)
	ctx := context.Background()

	id, err := users.Create(ctx, "operator", "hash")
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if _, err := users.Create(ctx, "operator", "other"); err == nil {
		t.Fatalf("expected duplicate username to fail")
	}

	u, err := users.GetByUsername(ctx, "operator")
	if err != nil || u == nil {
		t.Fatalf("GetByUsername: %v %v", u, err)
	}
	if u.ID != id || u.PasswordHash != "hash" || u.CreatedAt.IsZero() {
		t.Fatalf("unexpected user: %+v", u)
	}

	missing, err := users.GetByUsername(ctx, "nobody")
	if err != nil || missing != nil {
		t.Fatalf("expected (nil, nil), got %v %v", missing, err)
	}
}
