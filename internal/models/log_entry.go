package models

import (
	"fmt"
	"time"
)

// LogTimeLayout is the timestamp layout used in rendered log lines and exports.
const LogTimeLayout = "2006-01-02 15:04:05"

// LogEntry is a single operation record. Sequence is assigned at enqueue time.
type LogEntry struct {
	Sequence  uint64         `json:"sequence"`
	EventID   string         `json:"event_id"`
	Timestamp time.Time      `json:"timestamp"`
	Floor     FloorID        `json:"floor"`
	State     ElevatorState  `json:"state"`
	Message   string         `json:"message"`
	Metadata  map[string]any `json:"metadata,omitempty"`
}

// String renders the entry as "[yyyy-MM-dd HH:mm:ss] Floor N - State: message".
func (e LogEntry) String() string {
	return fmt.Sprintf("[%s] Floor %d - %s: %s",
		e.Timestamp.Format(LogTimeLayout), e.Floor, e.State, e.Message)
}
