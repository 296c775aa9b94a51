package repository

import (
	"context"
	"database/sql"
	"time"

	"elevator_control/internal/models"
)

type Authorization interface {
	Create(ctx context.Context, username, hash string) (int, error)
	GetByUsername(ctx context.Context, username string) (*models.User, error)
}

// LogRepo is the durable operation log. Append/ReadAll/Clear form the
// persistence contract the log queue drains into.
type LogRepo interface {
	Append(ctx context.Context, e models.LogEntry) error
	ReadAll(ctx context.Context) ([]models.LogEntry, error)
	Clear(ctx context.Context) error
	List(ctx context.Context, from, to time.Time, state string) ([]models.LogEntry, error)
	LastSequence(ctx context.Context) (uint64, error)
}

type Repository struct {
	LogRepo LogRepo
	Auth    Authorization
}

// NewRepository wires the SQLite implementations.
func NewRepository(db *sql.DB) *Repository {
	return &Repository{
		LogRepo: NewLogSQLite(db),
		Auth:    NewUserRepository(db),
	}
}

// NewMemoryRepository keeps the log in process memory; operators still need a database.
func NewMemoryRepository(db *sql.DB) *Repository {
	return &Repository{
		LogRepo: NewLogMemory(),
		Auth:    NewUserRepository(db),
	}
}
