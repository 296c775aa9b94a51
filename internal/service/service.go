package service

import (
	"context"
	"fmt"
	"io"
	"time"

	"elevator_control/internal/elevator"
	"elevator_control/internal/logger"
	"elevator_control/internal/logqueue"
	"elevator_control/internal/models"
	"elevator_control/internal/repository"
)

type Authorization interface {
	SignUp(ctx context.Context, username, password string) (int, error)
	GenerateToken(ctx context.Context, username, password string) (string, error)
	ParseToken(accessToken string) (int, error)
}

// Elevator is the controller facade used by the HTTP and WebSocket layers.
type Elevator interface {
	RequestFloor(ctx context.Context, floor models.FloorID) (models.Snapshot, error)
	OpenDoors(ctx context.Context) (models.Snapshot, error)
	CloseDoors(ctx context.Context) (models.Snapshot, error)
	State(ctx context.Context) models.Snapshot
	Floors() []models.Floor
	Subscribe(buffer int) (<-chan Notification, func())
}

// EventLog exposes the durable operation log.
type EventLog interface {
	List(ctx context.Context, f LogFilter) ([]models.LogEntry, error)
	Clear(ctx context.Context) error
	Export(ctx context.Context, w io.Writer) (int, error)
}

// Simulator drives the state machine until ctx is cancelled.
type Simulator interface {
	Run(ctx context.Context, tick time.Duration)
}

type Service struct {
	Elevator
	EventLog
	Simulator
	Authorization

	queue *logqueue.Queue
}

// Shutdown waits for buffered log entries to reach the store.
func (s *Service) Shutdown(ctx context.Context) error {
	if s.queue == nil {
		return nil
	}
	return s.queue.Flush(ctx)
}

// Options carries the settings NewService needs besides the repositories.
type Options struct {
	Building     *models.Building
	Elevator     elevator.Config
	FlushTimeout time.Duration
	Fallback     *logger.Logger
	SigningKey   string
	TokenTTL     time.Duration
}

// NewService builds the log queue and the state machine on top of repos and
// wires the sub-services around them.
func NewService(ctx context.Context, repos *repository.Repository, opts Options, log *logger.Logger) (*Service, error) {
	if log == nil {
		log = logger.NewNop()
	}
	building := opts.Building
	if building == nil {
		building = models.DefaultBuilding()
	}

	last, err := repos.LogRepo.LastSequence(ctx)
	if err != nil {
		return nil, fmt.Errorf("resume log sequence: %w", err)
	}
	queue := logqueue.New(repos.LogRepo,
		logqueue.WithStartSequence(last),
		logqueue.WithFlushTimeout(opts.FlushTimeout),
		logqueue.WithFallback(opts.Fallback),
	)

	machine, err := elevator.New(opts.Elevator, queue)
	if err != nil {
		return nil, fmt.Errorf("build state machine: %w", err)
	}

	return &Service{
		Elevator:      NewElevatorService(machine, building, log),
		EventLog:      NewEventLogService(queue, repos.LogRepo),
		Simulator:     NewSimulatorService(machine, log),
		Authorization: NewAuthService(repos.Auth, opts.SigningKey, opts.TokenTTL),
		queue:         queue,
	}, nil
}
