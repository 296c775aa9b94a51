package service

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"

	"elevator_control/internal/elevator"
	"elevator_control/internal/logger"
	"elevator_control/internal/models"
)

// Notification kinds pushed to subscribers.
const (
	KindState = "state"
	KindLog   = "log"
)

// StateEvent is a state change as seen by subscribers.
type StateEvent struct {
	State     models.ElevatorState `json:"state"`
	Floor     models.FloorID       `json:"floor"`
	FloorName string               `json:"floor_name"`
	DoorOpen  bool                 `json:"door_open"`
	Status    string               `json:"status"`
}

// Notification carries exactly one of State or Log, according to Kind.
type Notification struct {
	Kind  string           `json:"type"`
	State *StateEvent      `json:"state,omitempty"`
	Log   *models.LogEntry `json:"log,omitempty"`
}

// Controller is the part of the state machine the facade drives.
type Controller interface {
	RequestFloor(f models.FloorID) error
	OpenDoors() error
	CloseDoors() error
	Snapshot() models.Snapshot
	Subscribe(o elevator.Observer) func()
}

// ElevatorService adapts the state machine to request handlers and fans its
// notifications out to channel subscribers.
type ElevatorService struct {
	ctl      Controller
	building *models.Building
	log      *logger.Logger

	mu      sync.RWMutex
	nextID  int
	subs    map[int]chan Notification
	dropped atomic.Uint64
}

func NewElevatorService(ctl Controller, building *models.Building, log *logger.Logger) *ElevatorService {
	if log == nil {
		log = logger.NewNop()
	}
	if building == nil {
		building = models.DefaultBuilding()
	}
	s := &ElevatorService{
		ctl:      ctl,
		building: building,
		log:      log,
		subs:     make(map[int]chan Notification),
	}
	ctl.Subscribe(s)
	return s
}

func (s *ElevatorService) RequestFloor(ctx context.Context, floor models.FloorID) (models.Snapshot, error) {
	if err := ctx.Err(); err != nil {
		return models.Snapshot{}, err
	}
	if err := s.ctl.RequestFloor(floor); err != nil {
		s.rejected("request_floor", err, "floor", floor)
		return s.ctl.Snapshot(), err
	}
	return s.ctl.Snapshot(), nil
}

func (s *ElevatorService) OpenDoors(ctx context.Context) (models.Snapshot, error) {
	if err := ctx.Err(); err != nil {
		return models.Snapshot{}, err
	}
	if err := s.ctl.OpenDoors(); err != nil {
		s.rejected("open_doors", err)
		return s.ctl.Snapshot(), err
	}
	return s.ctl.Snapshot(), nil
}

func (s *ElevatorService) CloseDoors(ctx context.Context) (models.Snapshot, error) {
	if err := ctx.Err(); err != nil {
		return models.Snapshot{}, err
	}
	if err := s.ctl.CloseDoors(); err != nil {
		s.rejected("close_doors", err)
		return s.ctl.Snapshot(), err
	}
	return s.ctl.Snapshot(), nil
}

func (s *ElevatorService) State(_ context.Context) models.Snapshot {
	return s.ctl.Snapshot()
}

func (s *ElevatorService) Floors() []models.Floor {
	return s.building.Floors()
}

// Dropped reports how many notifications were discarded because a
// subscriber's buffer was full.
func (s *ElevatorService) Dropped() uint64 {
	return s.dropped.Load()
}

// Subscribe returns a buffered channel of notifications and a cancel func
// that closes it. Slow subscribers lose notifications instead of blocking
// the state machine.
func (s *ElevatorService) Subscribe(buffer int) (<-chan Notification, func()) {
	if buffer <= 0 {
		buffer = 1
	}
	ch := make(chan Notification, buffer)

	s.mu.Lock()
	s.nextID++
	id := s.nextID
	s.subs[id] = ch
	s.mu.Unlock()

	var once sync.Once
	return ch, func() {
		once.Do(func() {
			s.mu.Lock()
			delete(s.subs, id)
			s.mu.Unlock()
			close(ch)
		})
	}
}

// OnStateChanged implements elevator.Observer.
func (s *ElevatorService) OnStateChanged(state models.ElevatorState, floor models.FloorID, doorOpen bool) {
	s.broadcast(Notification{
		Kind: KindState,
		State: &StateEvent{
			State:     state,
			Floor:     floor,
			FloorName: s.building.FloorName(floor),
			DoorOpen:  doorOpen,
			Status:    models.StatusText(state, floor),
		},
	})
}

// OnLogAppended implements elevator.Observer.
func (s *ElevatorService) OnLogAppended(entry models.LogEntry) {
	s.broadcast(Notification{Kind: KindLog, Log: &entry})
}

func (s *ElevatorService) broadcast(n Notification) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for id, ch := range s.subs {
		select {
		case ch <- n:
		default:
			total := s.dropped.Add(1)
			s.log.Debugw("notification_dropped", "subscriber", id, "kind", n.Kind, "total", total)
		}
	}
}

func (s *ElevatorService) rejected(op string, err error, kv ...any) {
	fields := append([]any{"op", op, "error", err}, kv...)
	switch {
	case errors.Is(err, elevator.ErrInvalidFloor), errors.Is(err, elevator.ErrBusy), errors.Is(err, elevator.ErrInvalidOperation):
		s.log.Infow("elevator_request_rejected", fields...)
	default:
		s.log.Errorw("elevator_request_failed", fields...)
	}
}
