package repository

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"elevator_control/internal/logqueue"
	"elevator_control/internal/models"

	"github.com/tiendc/go-deepcopy"
)

// LogMemory is an in-process LogRepo. Entries are copied on the way in and
// out so callers never share metadata maps with the store.
type LogMemory struct {
	mu      sync.RWMutex
	entries []models.LogEntry
}

func NewLogMemory() *LogMemory { return &LogMemory{} }

var _ LogRepo = (*LogMemory)(nil)

func (r *LogMemory) Append(_ context.Context, e models.LogEntry) error {
	cp, err := copyEntry(e)
	if err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.entries = append(r.entries, cp)
	return nil
}

func (r *LogMemory) ReadAll(ctx context.Context) ([]models.LogEntry, error) {
	return r.List(ctx, time.Time{}, time.Time{}, "")
}

func (r *LogMemory) Clear(context.Context) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.entries = nil
	return nil
}

func (r *LogMemory) List(_ context.Context, from, to time.Time, state string) ([]models.LogEntry, error) {
	state = strings.TrimSpace(state)

	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]models.LogEntry, 0, len(r.entries))
	for i := len(r.entries) - 1; i >= 0; i-- {
		e := r.entries[i]
		if !from.IsZero() && e.Timestamp.Before(from) {
			continue
		}
		if !to.IsZero() && e.Timestamp.After(to) {
			continue
		}
		if state != "" && string(e.State) != state {
			continue
		}
		cp, err := copyEntry(e)
		if err != nil {
			return nil, err
		}
		out = append(out, cp)
	}
	logqueue.SortNewestFirst(out)
	return out, nil
}

func (r *LogMemory) LastSequence(context.Context) (uint64, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var last uint64
	for _, e := range r.entries {
		last = max(last, e.Sequence)
	}
	return last, nil
}

func copyEntry(e models.LogEntry) (models.LogEntry, error) {
	cp := e
	cp.Metadata = nil
	if e.Metadata != nil {
		if err := deepcopy.Copy(&cp.Metadata, e.Metadata); err != nil {
			return models.LogEntry{}, fmt.Errorf("copy metadata of entry %d: %w", e.Sequence, err)
		}
	}
	return cp, nil
}
