package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"elevator_control/internal/models"
)

type LogSQLite struct {
	db *sql.DB
}

func NewLogSQLite(db *sql.DB) *LogSQLite { return &LogSQLite{db: db} }

var _ LogRepo = (*LogSQLite)(nil)

const (
	insertLogSQL = `INSERT INTO elevator_log (sequence, event_id, occurred_at, floor, state, message, meta) VALUES (?, ?, ?, ?, ?, ?, ?)`

	selectLogSQL = `SELECT sequence, event_id, occurred_at, floor, state, message, meta FROM elevator_log`

	orderNewestFirst = ` ORDER BY occurred_at DESC, sequence DESC`

	deleteLogSQL = `DELETE FROM elevator_log`

	selectLastSequenceSQL = `SELECT COALESCE(MAX(sequence), 0) FROM elevator_log`
)

// Append stores one entry. Sequence and EventID are expected to be set by the caller.
func (r *LogSQLite) Append(ctx context.Context, e models.LogEntry) error {
	if e.Timestamp.IsZero() {
		e.Timestamp = time.Now()
	}

	var meta *string
	if len(e.Metadata) > 0 {
		b, err := json.Marshal(e.Metadata)
		if err != nil {
			return fmt.Errorf("marshal metadata for entry %d: %w", e.Sequence, err)
		}
		s := string(b)
		meta = &s
	}

	_, err := r.db.ExecContext(ctx, insertLogSQL,
		int64(e.Sequence),
		e.EventID,
		e.Timestamp.UTC(),
		int(e.Floor),
		string(e.State),
		e.Message,
		meta,
	)
	if err != nil {
		return fmt.Errorf("insert log entry %d: %w", e.Sequence, err)
	}
	return nil
}

// ReadAll returns every entry, newest first.
func (r *LogSQLite) ReadAll(ctx context.Context) ([]models.LogEntry, error) {
	return r.query(ctx, selectLogSQL+orderNewestFirst)
}

func (r *LogSQLite) Clear(ctx context.Context) error {
	if _, err := r.db.ExecContext(ctx, deleteLogSQL); err != nil {
		return fmt.Errorf("clear log: %w", err)
	}
	return nil
}

// List filters by [from, to] (inclusive, zero means open) and state, newest first.
func (r *LogSQLite) List(ctx context.Context, from, to time.Time, state string) ([]models.LogEntry, error) {
	var (
		conds []string
		args  []any
	)
	if !from.IsZero() {
		conds = append(conds, "occurred_at >= ?")
		args = append(args, from.UTC())
	}
	if !to.IsZero() {
		conds = append(conds, "occurred_at <= ?")
		args = append(args, to.UTC())
	}
	if state = strings.TrimSpace(state); state != "" {
		conds = append(conds, "state = ?")
		args = append(args, state)
	}

	q := selectLogSQL
	if len(conds) > 0 {
		q += " WHERE " + strings.Join(conds, " AND ")
	}
	return r.query(ctx, q+orderNewestFirst, args...)
}

func (r *LogSQLite) LastSequence(ctx context.Context) (uint64, error) {
	var last int64
	if err := r.db.QueryRowContext(ctx, selectLastSequenceSQL).Scan(&last); err != nil {
		return 0, fmt.Errorf("select last sequence: %w", err)
	}
	return uint64(last), nil
}

func (r *LogSQLite) query(ctx context.Context, q string, args ...any) ([]models.LogEntry, error) {
	rows, err := r.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, fmt.Errorf("query log: %w", err)
	}
	defer rows.Close()

	out := make([]models.LogEntry, 0, 64)
	for rows.Next() {
		var (
			e       models.LogEntry
			seq     int64
			floor   int
			state   string
			metaStr sql.NullString
		)
		if err := rows.Scan(&seq, &e.EventID, &e.Timestamp, &floor, &state, &e.Message, &metaStr); err != nil {
			return nil, fmt.Errorf("scan log row: %w", err)
		}
		e.Sequence = uint64(seq)
		e.Timestamp = e.Timestamp.UTC()
		e.Floor = models.FloorID(floor)
		e.State = models.ElevatorState(state)

		if metaStr.Valid && metaStr.String != "" {
			var m map[string]any
			if err := json.Unmarshal([]byte(metaStr.String), &m); err == nil {
				e.Metadata = m
			} else {
				e.Metadata = map[string]any{"raw": metaStr.String}
			}
		}
		out = append(out, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate log rows: %w", err)
	}
	return out, nil
}
