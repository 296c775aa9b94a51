package service

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"elevator_control/internal/logqueue"
	"elevator_control/internal/models"
	"elevator_control/internal/repository"
)

// LogFilter narrows List results. Zero values mean "no bound".
type LogFilter struct {
	From  time.Time
	To    time.Time
	State string
}

func (f LogFilter) empty() bool {
	return f.From.IsZero() && f.To.IsZero() && strings.TrimSpace(f.State) == ""
}

// LogQueue is the buffered writer in front of the log store.
type LogQueue interface {
	Flush(ctx context.Context) error
	ReadAll(ctx context.Context) ([]models.LogEntry, error)
	Clear(ctx context.Context) error
}

const exportHeader = "=== ELEVATOR OPERATION LOG ==="

type EventLogService struct {
	queue   LogQueue
	logRepo repository.LogRepo
	now     func() time.Time
}

func NewEventLogService(queue LogQueue, logRepo repository.LogRepo) *EventLogService {
	return &EventLogService{queue: queue, logRepo: logRepo, now: time.Now}
}

// ErrInvalidFilter marks List errors caused by the caller's filter.
var ErrInvalidFilter = errors.New("invalid log filter")

var (
	errInvalidTimeRange = fmt.Errorf("%w: from must be <= to", ErrInvalidFilter)
	errInvalidState     = fmt.Errorf("%w: unknown state", ErrInvalidFilter)
)

// normalizeToUTC returns t in UTC, preserving zero time values.
func normalizeToUTC(t time.Time) time.Time {
	if t.IsZero() {
		return t
	}
	return t.UTC()
}

// normalizeState trims the filter and matches it case-insensitively against
// the known states.
func normalizeState(s string) (string, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return "", nil
	}
	for _, st := range models.States() {
		if strings.EqualFold(s, string(st)) {
			return string(st), nil
		}
	}
	return "", fmt.Errorf("%w: %q", errInvalidState, s)
}

func normalizeAndValidateFilter(f LogFilter) (time.Time, time.Time, string, error) {
	from := normalizeToUTC(f.From)
	to := normalizeToUTC(f.To)

	if !from.IsZero() && !to.IsZero() && from.After(to) {
		return time.Time{}, time.Time{}, "", errInvalidTimeRange
	}

	state, err := normalizeState(f.State)
	if err != nil {
		return time.Time{}, time.Time{}, "", err
	}
	return from, to, state, nil
}

// List returns entries newest first. Pending entries are flushed before the
// store is queried.
func (s *EventLogService) List(ctx context.Context, f LogFilter) ([]models.LogEntry, error) {
	if f.empty() {
		return s.queue.ReadAll(ctx)
	}
	from, to, state, err := normalizeAndValidateFilter(f)
	if err != nil {
		return nil, err
	}
	if err := s.queue.Flush(ctx); err != nil {
		return nil, err
	}
	entries, err := s.logRepo.List(ctx, from, to, state)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", logqueue.ErrPersistence, err)
	}
	return entries, nil
}

func (s *EventLogService) Clear(ctx context.Context) error {
	return s.queue.Clear(ctx)
}

// Export writes a plain-text report of the whole log, newest first, and
// returns the number of entries written.
func (s *EventLogService) Export(ctx context.Context, w io.Writer) (int, error) {
	entries, err := s.queue.ReadAll(ctx)
	if err != nil {
		return 0, err
	}

	bw := bufio.NewWriter(w)
	fmt.Fprintln(bw, exportHeader)
	fmt.Fprintf(bw, "Exported: %s\n\n", s.now().Format(models.LogTimeLayout))
	for _, e := range entries {
		fmt.Fprintln(bw, e.String())
	}
	if err := bw.Flush(); err != nil {
		return 0, fmt.Errorf("write export: %w", err)
	}
	return len(entries), nil
}
