// Package logqueue buffers operation log entries and drains them to a
// Persistence store on a single background worker.
package logqueue

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"

	"elevator_control/internal/logger"
	"elevator_control/internal/models"

	"github.com/google/uuid"
)

var (
	ErrPersistence  = errors.New("persistence failure")
	ErrFlushTimeout = errors.New("log flush timed out")
)

// DefaultFlushTimeout bounds ReadAll and Clear when no option overrides it.
const DefaultFlushTimeout = 2 * time.Second

// Persistence is the durable store behind the queue.
type Persistence interface {
	Append(ctx context.Context, e models.LogEntry) error
	ReadAll(ctx context.Context) ([]models.LogEntry, error)
	Clear(ctx context.Context) error
}

type Option func(*Queue)

func WithFlushTimeout(d time.Duration) Option {
	return func(q *Queue) {
		if d > 0 {
			q.flushTimeout = d
		}
	}
}

// WithStartSequence continues numbering after n, typically the store's last sequence.
func WithStartSequence(n uint64) Option {
	return func(q *Queue) { q.seq = n }
}

// WithFallback sets the sink that records entries the store rejected.
func WithFallback(l *logger.Logger) Option {
	return func(q *Queue) {
		if l != nil {
			q.fallback = l
		}
	}
}

func WithClock(now func() time.Time) Option {
	return func(q *Queue) { q.now = now }
}

// Queue is a FIFO of log entries with at most one drain goroutine.
type Queue struct {
	store        Persistence
	fallback     *logger.Logger
	flushTimeout time.Duration
	now          func() time.Time

	mu       sync.Mutex
	buf      []models.LogEntry
	seq      uint64
	draining bool
	stored   uint64        // highest sequence handed to the store
	progress chan struct{} // closed and replaced whenever stored advances
}

func New(store Persistence, opts ...Option) *Queue {
	q := &Queue{
		store:        store,
		fallback:     logger.NewNop(),
		flushTimeout: DefaultFlushTimeout,
		now:          time.Now,
		progress:     make(chan struct{}),
	}
	for _, opt := range opts {
		opt(q)
	}
	q.stored = q.seq
	return q
}

// Enqueue stamps e with the next sequence, an event id and a timestamp,
// buffers it and returns without waiting for the store.
func (q *Queue) Enqueue(e models.LogEntry) models.LogEntry {
	q.mu.Lock()
	defer q.mu.Unlock()

	q.seq++
	e.Sequence = q.seq
	if e.EventID == "" {
		e.EventID = uuid.NewString()
	}
	if e.Timestamp.IsZero() {
		e.Timestamp = q.now().UTC()
	}
	q.buf = append(q.buf, e)

	if !q.draining {
		q.draining = true
		go q.drain()
	}
	return e
}

// LastSequence is the most recently assigned sequence number.
func (q *Queue) LastSequence() uint64 {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.seq
}

func (q *Queue) drain() {
	for {
		q.mu.Lock()
		if len(q.buf) == 0 {
			q.draining = false
			q.mu.Unlock()
			return
		}
		e := q.buf[0]
		q.buf[0] = models.LogEntry{}
		q.buf = q.buf[1:]
		q.mu.Unlock()

		if err := q.store.Append(context.Background(), e); err != nil {
			q.fallback.Errorw("log_append_failed",
				"err", err,
				"sequence", e.Sequence,
				"event_id", e.EventID,
				"entry", e.String(),
			)
		}

		q.mu.Lock()
		q.stored = e.Sequence
		close(q.progress)
		q.progress = make(chan struct{})
		q.mu.Unlock()
	}
}

// Flush waits until every entry enqueued before the call has been handed to
// the store, or returns ErrFlushTimeout. Entries enqueued while it waits do
// not extend the wait.
func (q *Queue) Flush(ctx context.Context) error {
	q.mu.Lock()
	target := q.seq
	if q.stored >= target {
		q.mu.Unlock()
		return nil
	}
	q.mu.Unlock()

	ctx, cancel := context.WithTimeout(ctx, q.flushTimeout)
	defer cancel()

	for {
		q.mu.Lock()
		if q.stored >= target {
			q.mu.Unlock()
			return nil
		}
		progress := q.progress
		q.mu.Unlock()

		select {
		case <-progress:
		case <-ctx.Done():
			return fmt.Errorf("%w after %s: %w", ErrFlushTimeout, q.flushTimeout, ctx.Err())
		}
	}
}

// ReadAll flushes and returns the stored entries, newest first.
func (q *Queue) ReadAll(ctx context.Context) ([]models.LogEntry, error) {
	if err := q.Flush(ctx); err != nil {
		return nil, err
	}
	entries, err := q.store.ReadAll(ctx)
	if err != nil {
		return nil, fmt.Errorf("%w: read all: %w", ErrPersistence, err)
	}
	SortNewestFirst(entries)
	return entries, nil
}

// Clear flushes and then empties the store.
func (q *Queue) Clear(ctx context.Context) error {
	if err := q.Flush(ctx); err != nil {
		return err
	}
	if err := q.store.Clear(ctx); err != nil {
		return fmt.Errorf("%w: clear: %w", ErrPersistence, err)
	}
	return nil
}

// SortNewestFirst orders by timestamp descending, then sequence descending.
func SortNewestFirst(entries []models.LogEntry) {
	sort.SliceStable(entries, func(i, j int) bool {
		a, b := entries[i], entries[j]
		if !a.Timestamp.Equal(b.Timestamp) {
			return a.Timestamp.After(b.Timestamp)
		}
		return a.Sequence > b.Sequence
	})
}
