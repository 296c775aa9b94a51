package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, "config.yml"), []byte(body), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return dir
}

func TestLoad_DefaultsWithoutFile(t *testing.T) {
	cfg, err := Load(t.TempDir())
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Port != "8080" || cfg.DB.Driver != DriverSQLite || cfg.DB.Path != "elevator.db" {
		t.Fatalf("unexpected defaults: %+v", cfg)
	}
	if cfg.Sim.Tick != 20*time.Millisecond || cfg.Log.FlushTimeout != 2*time.Second {
		t.Fatalf("unexpected timing defaults: %+v %+v", cfg.Sim, cfg.Log)
	}
	if cfg.Door.MaxStep != 35 || cfg.Door.StepSize != 2 || cfg.Cab.Speed != 2 || cfg.Cab.FloorHeight != 120 {
		t.Fatalf("unexpected animation defaults: %+v %+v", cfg.Door, cfg.Cab)
	}

	b, err := cfg.BuildingModel()
	if err != nil {
		t.Fatalf("BuildingModel: %v", err)
	}
	ec := cfg.Elevator(b)
	if ec.MinFloor != 0 || ec.MaxFloor != 1 {
		t.Fatalf("expected 0..1, got %d..%d", ec.MinFloor, ec.MaxFloor)
	}
}

func TestLoad_FileAndEnvOverride(t *testing.T) {
	dir := writeConfig(t, `
port: "9090"
sim:
  tick: 5ms
db:
  driver: memory
building:
  floors:
    - number: 0
      name: Lobby
      display_order: 0
    - number: 1
      name: Roof
      display_order: 1
    - number: 2
      name: Deck
      display_order: 2
`)
	t.Setenv("ELEVATOR_PORT", "7070")
	t.Setenv("ELEVATOR_LOG_LEVEL", "debug")

	cfg, err := Load(dir)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Port != "7070" {
		t.Fatalf("expected env override 7070, got %q", cfg.Port)
	}
	if cfg.Log.Level != "debug" {
		t.Fatalf("expected env log level, got %q", cfg.Log.Level)
	}
	if cfg.Sim.Tick != 5*time.Millisecond || cfg.DB.Driver != DriverMemory {
		t.Fatalf("file values not applied: %+v %+v", cfg.Sim, cfg.DB)
	}
	b, err := cfg.BuildingModel()
	if err != nil {
		t.Fatalf("BuildingModel: %v", err)
	}
	if b.Max() != 2 || b.FloorName(0) != "Lobby" {
		t.Fatalf("unexpected building: %+v", b.Floors())
	}
}

func TestLoad_RejectsInvalid(t *testing.T) {
	cases := []struct {
		name string
		body string
		want string
	}{
		{"bad_driver", "db:\n  driver: postgres\n", "db.driver"},
		{"zero_tick", "sim:\n  tick: 0s\n", "sim.tick"},
		{"gap_in_floors", "building:\n  floors:\n    - number: 0\n    - number: 2\n", "not contiguous"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := Load(writeConfig(t, tc.body))
			if err == nil || !strings.Contains(err.Error(), tc.want) {
				t.Fatalf("expected error containing %q, got %v", tc.want, err)
			}
		})
	}
}
