package logqueue

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"elevator_control/internal/logger"
	"elevator_control/internal/models"

	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
)

// ---- fake store ----

type fakeStore struct {
	mu       sync.Mutex
	entries  []models.LogEntry
	failOn   func(models.LogEntry) error
	readErr  error
	clearErr error
	gate     chan struct{} // when set, Append waits for it

	active    atomic.Int32
	maxActive atomic.Int32
}

func (s *fakeStore) Append(_ context.Context, e models.LogEntry) error {
	n := s.active.Add(1)
	defer s.active.Add(-1)
	for {
		cur := s.maxActive.Load()
		if n <= cur || s.maxActive.CompareAndSwap(cur, n) {
			break
		}
	}
	if s.gate != nil {
		<-s.gate
	}
	time.Sleep(50 * time.Microsecond)

	if s.failOn != nil {
		if err := s.failOn(e); err != nil {
			return err
		}
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.entries = append(s.entries, e)
	return nil
}

func (s *fakeStore) ReadAll(context.Context) ([]models.LogEntry, error) {
	if s.readErr != nil {
		return nil, s.readErr
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]models.LogEntry(nil), s.entries...), nil
}

func (s *fakeStore) Clear(context.Context) error {
	if s.clearErr != nil {
		return s.clearErr
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.entries = nil
	return nil
}

func (s *fakeStore) appended() []models.LogEntry {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]models.LogEntry(nil), s.entries...)
}

// steppingClock returns strictly increasing timestamps.
func steppingClock() func() time.Time {
	var mu sync.Mutex
	t := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	return func() time.Time {
		mu.Lock()
		defer mu.Unlock()
		t = t.Add(time.Millisecond)
		return t
	}
}

func ctx(t *testing.T) context.Context {
	t.Helper()
	c, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	t.Cleanup(cancel)
	return c
}

// ---- tests ----

func TestEnqueue_ConcurrentCallersGetGaplessSequences(t *testing.T) {
	store := &fakeStore{}
	q := New(store, WithClock(steppingClock()))

	const workers, perWorker = 8, 25
	var wg sync.WaitGroup
	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func(w int) {
			defer wg.Done()
			for i := 0; i < perWorker; i++ {
				q.Enqueue(models.LogEntry{Message: fmt.Sprintf("w%d-%d", w, i)})
			}
		}(w)
	}
	wg.Wait()

	got, err := q.ReadAll(ctx(t))
	if err != nil {
		t.Fatalf("ReadAll: %v", err)
	}
	if len(got) != workers*perWorker {
		t.Fatalf("expected %d entries, got %d", workers*perWorker, len(got))
	}
	// newest first: reversed the sequences must be 1..N
	for i := range got {
		want := uint64(len(got) - i)
		if got[i].Sequence != want {
			t.Fatalf("position %d: expected sequence %d, got %d", i, want, got[i].Sequence)
		}
		if got[i].EventID == "" {
			t.Fatalf("entry %d has no event id", got[i].Sequence)
		}
	}
	// the store saw them in enqueue order
	for i, e := range store.appended() {
		if e.Sequence != uint64(i+1) {
			t.Fatalf("append %d: expected sequence %d, got %d", i, i+1, e.Sequence)
		}
	}
}

func TestDrain_AtMostOneWorker(t *testing.T) {
	store := &fakeStore{}
	q := New(store)

	var wg sync.WaitGroup
	for w := 0; w < 16; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := 0; i < 20; i++ {
				q.Enqueue(models.LogEntry{Message: "tick"})
				if i%5 == 0 {
					time.Sleep(100 * time.Microsecond)
				}
			}
		}()
	}
	wg.Wait()
	if err := q.Flush(ctx(t)); err != nil {
		t.Fatalf("Flush: %v", err)
	}
	if got := store.maxActive.Load(); got != 1 {
		t.Fatalf("expected at most one concurrent append, observed %d", got)
	}
	if n := len(store.appended()); n != 320 {
		t.Fatalf("expected 320 appended, got %d", n)
	}
}

func TestDrain_FailedAppendGoesToFallback(t *testing.T) {
	core, recorded := observer.New(zap.ErrorLevel)
	store := &fakeStore{failOn: func(e models.LogEntry) error {
		if e.Message == "boom" {
			return errors.New("disk full")
		}
		return nil
	}}
	q := New(store, WithFallback(logger.FromCore(core)), WithClock(steppingClock()))

	failed := q.Enqueue(models.LogEntry{Message: "boom"})
	if failed.Sequence != 1 {
		t.Fatalf("expected sequence 1 for failed entry, got %d", failed.Sequence)
	}
	q.Enqueue(models.LogEntry{Message: "ok"})

	got, err := q.ReadAll(ctx(t))
	if err != nil {
		t.Fatalf("ReadAll: %v", err)
	}
	if len(got) != 1 || got[0].Message != "ok" {
		t.Fatalf("expected only the successful entry, got %+v", got)
	}

	logs := recorded.FilterMessage("log_append_failed").All()
	if len(logs) != 1 {
		t.Fatalf("expected one fallback record, got %d", len(logs))
	}
	fields := logs[0].ContextMap()
	if fields["sequence"] != uint64(1) {
		t.Fatalf("expected sequence field 1, got %v", fields["sequence"])
	}
	if fields["err"] != "disk full" {
		t.Fatalf("expected err field, got %v", fields["err"])
	}
}

func TestFlush_IgnoresEntriesEnqueuedAfterTheCall(t *testing.T) {
	store := &fakeStore{}
	q := New(store, WithFlushTimeout(500*time.Millisecond))

	first := q.Enqueue(models.LogEntry{Message: "first"})

	stop := make(chan struct{})
	done := make(chan struct{})
	go func() {
		defer close(done)
		for {
			select {
			case <-stop:
				return
			default:
			}
			q.Enqueue(models.LogEntry{Message: "busy"})
			time.Sleep(200 * time.Microsecond)
		}
	}()
	defer func() {
		close(stop)
		<-done
	}()

	if err := q.Flush(ctx(t)); err != nil {
		t.Fatalf("expected flush to finish under steady traffic, got %v", err)
	}
	stored := store.appended()
	if len(stored) == 0 || stored[0].Sequence != first.Sequence {
		t.Fatalf("expected entry %d to be stored first, got %+v", first.Sequence, stored)
	}
}

func TestReadAll_FlushTimeout(t *testing.T) {
	gate := make(chan struct{})
	store := &fakeStore{gate: gate}
	q := New(store, WithFlushTimeout(20*time.Millisecond))

	q.Enqueue(models.LogEntry{Message: "stuck"})

	if _, err := q.ReadAll(ctx(t)); !errors.Is(err, ErrFlushTimeout) {
		t.Fatalf("expected ErrFlushTimeout, got %v", err)
	}
	if err := q.Clear(ctx(t)); !errors.Is(err, ErrFlushTimeout) {
		t.Fatalf("expected ErrFlushTimeout from Clear, got %v", err)
	}

	close(gate)
	got, err := q.ReadAll(ctx(t))
	if err != nil {
		t.Fatalf("ReadAll after release: %v", err)
	}
	if len(got) != 1 {
		t.Fatalf("expected 1 entry, got %d", len(got))
	}
}

func TestClear_FlushesFirst(t *testing.T) {
	store := &fakeStore{}
	q := New(store)
	for i := 0; i < 3; i++ {
		q.Enqueue(models.LogEntry{Message: "x"})
	}
	if err := q.Clear(ctx(t)); err != nil {
		t.Fatalf("Clear: %v", err)
	}
	got, err := q.ReadAll(ctx(t))
	if err != nil {
		t.Fatalf("ReadAll: %v", err)
	}
	if len(got) != 0 {
		t.Fatalf("expected empty store, got %d entries", len(got))
	}
	if q.LastSequence() != 3 {
		t.Fatalf("clear must not reset sequence, got %d", q.LastSequence())
	}
}

func TestStoreErrors_WrapPersistence(t *testing.T) {
	store := &fakeStore{readErr: errors.New("read failed"), clearErr: errors.New("clear failed")}
	q := New(store)

	if _, err := q.ReadAll(ctx(t)); !errors.Is(err, ErrPersistence) {
		t.Fatalf("expected ErrPersistence from ReadAll, got %v", err)
	}
	if err := q.Clear(ctx(t)); !errors.Is(err, ErrPersistence) {
		t.Fatalf("expected ErrPersistence from Clear, got %v", err)
	}
}

func TestWithStartSequence_Continues(t *testing.T) {
	q := New(&fakeStore{}, WithStartSequence(41))
	if e := q.Enqueue(models.LogEntry{}); e.Sequence != 42 {
		t.Fatalf("expected 42, got %d", e.Sequence)
	}
}

func TestSortNewestFirst_TieBreaksOnSequence(t *testing.T) {
	ts := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	entries := []models.LogEntry{
		{Sequence: 1, Timestamp: ts},
		{Sequence: 3, Timestamp: ts.Add(-time.Second)},
		{Sequence: 2, Timestamp: ts},
	}
	SortNewestFirst(entries)
	want := []uint64{2, 1, 3}
	for i, w := range want {
		if entries[i].Sequence != w {
			t.Fatalf("expected order %v, got %+v", want, entries)
		}
	}
}
