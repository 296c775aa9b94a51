package elevator

import (
	"fmt"
	"sync"
	"sync/atomic"

	"elevator_control/internal/models"
)

// Original desktop tuning: door 35 steps at 2 per tick, cab 2 units per tick over 120 units.
const (
	DefaultDoorMaxStep  = 35
	DefaultDoorStepSize = 2
	DefaultCabSpeed     = 2
	DefaultFloorHeight  = 120
)

// Journal receives log entries and returns them with their sequence assigned.
// Enqueue must not block.
type Journal interface {
	Enqueue(e models.LogEntry) models.LogEntry
}

// Observer is notified after every published mutation, in mutation order.
// Observers may read the machine but must not call its mutating methods
// from inside a callback.
type Observer interface {
	OnStateChanged(state models.ElevatorState, floor models.FloorID, doorOpen bool)
	OnLogAppended(entry models.LogEntry)
}

// Config fixes the floor bounds and animation tuning for a machine.
type Config struct {
	MinFloor     models.FloorID
	MaxFloor     models.FloorID
	DoorMaxStep  int
	DoorStepSize int
	CabSpeed     int
	FloorHeight  int
}

// DefaultConfig is the two-floor building.
func DefaultConfig() Config {
	return Config{
		MinFloor:     0,
		MaxFloor:     1,
		DoorMaxStep:  DefaultDoorMaxStep,
		DoorStepSize: DefaultDoorStepSize,
		CabSpeed:     DefaultCabSpeed,
		FloorHeight:  DefaultFloorHeight,
	}
}

func (c Config) validate() error {
	switch {
	case c.MinFloor > c.MaxFloor:
		return fmt.Errorf("%w: min floor %d > max floor %d", ErrInvalidConfig, c.MinFloor, c.MaxFloor)
	case c.DoorMaxStep <= 0 || c.DoorStepSize <= 0:
		return fmt.Errorf("%w: door steps must be positive", ErrInvalidConfig)
	case c.CabSpeed <= 0 || c.FloorHeight <= 0:
		return fmt.Errorf("%w: cab speed and floor height must be positive", ErrInvalidConfig)
	}
	return nil
}

type notification struct {
	log      bool
	entry    models.LogEntry
	state    models.ElevatorState
	floor    models.FloorID
	doorOpen bool
}

// StateMachine is the elevator controller. Requests and ticks are serialized
// by mu; readers use the atomically published snapshot.
type StateMachine struct {
	cfg     Config
	journal Journal

	mu      sync.Mutex
	floor   models.FloorID
	state   models.ElevatorState
	target  models.FloorID
	pending *models.FloorID
	cabPos  int
	door    *DoorAnimator
	cab     *CabAnimator
	outbox  []notification

	snap atomic.Pointer[models.Snapshot]

	// emitMu is taken before mu is released so notifications leave in mutation order.
	emitMu    sync.Mutex
	obsMu     sync.RWMutex
	nextObsID int
	observers []subscription
}

type subscription struct {
	id int
	o  Observer
}

// New builds a machine idle at cfg.MinFloor with doors closed.
func New(cfg Config, journal Journal) (*StateMachine, error) {
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	if journal == nil {
		return nil, fmt.Errorf("%w: journal is required", ErrInvalidConfig)
	}

	m := &StateMachine{
		cfg:     cfg,
		journal: journal,
		floor:   cfg.MinFloor,
		state:   models.StateIdle,
	}
	m.cabPos = m.positionOf(m.floor)
	m.door = NewDoorAnimator(cfg.DoorMaxStep, cfg.DoorStepSize, m.onDoorComplete)
	m.publish()
	m.journal.Enqueue(m.entry(fmt.Sprintf("Elevator initialized at Floor %d", m.floor)))
	return m, nil
}

// Subscribe registers o and returns a function that removes it.
func (m *StateMachine) Subscribe(o Observer) (unsubscribe func()) {
	m.obsMu.Lock()
	m.nextObsID++
	id := m.nextObsID
	m.observers = append(m.observers, subscription{id: id, o: o})
	m.obsMu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() {
			m.obsMu.Lock()
			defer m.obsMu.Unlock()
			for i, cur := range m.observers {
				if cur.id == id {
					m.observers = append(m.observers[:i:i], m.observers[i+1:]...)
					return
				}
			}
		})
	}
}

// RequestFloor asks the elevator to serve floor f. It never waits for animation.
func (m *StateMachine) RequestFloor(f models.FloorID) error {
	m.mu.Lock()
	defer m.unlockAndNotify()

	if f < m.cfg.MinFloor || f > m.cfg.MaxFloor {
		m.logf("Invalid floor request: %d", f)
		return fmt.Errorf("%w: %d not in [%d, %d]", ErrInvalidFloor, f, m.cfg.MinFloor, m.cfg.MaxFloor)
	}

	switch m.state {
	case models.StateMovingUp, models.StateMovingDown, models.StateDoorsOpening:
		m.logf("Floor %d requested from Floor %d rejected: elevator busy", f, m.floor)
		return fmt.Errorf("%w: %s", ErrBusy, m.state)

	case models.StateDoorsClosing:
		if m.pending != nil && *m.pending != f {
			m.logf("Floor %d requested from Floor %d, superseding Floor %d", f, m.floor, *m.pending)
		} else {
			m.logf("Floor %d requested from Floor %d", f, m.floor)
		}
		m.pending = &f
		m.publish()
		return nil

	case models.StateDoorsOpen:
		if f == m.floor {
			m.logf("Already at Floor %d, doors open", f)
			return nil
		}
		m.logf("Floor %d requested from Floor %d", f, m.floor)
		m.pending = &f
		m.startClosing()
		return nil

	default:
		if f == m.floor {
			m.logf("Already at Floor %d", f)
			m.startOpening()
			return nil
		}
		m.logf("Floor %d requested from Floor %d", f, m.floor)
		m.startMove(f)
		return nil
	}
}

// OpenDoors opens the doors, reversing a close in progress.
func (m *StateMachine) OpenDoors() error {
	m.mu.Lock()
	defer m.unlockAndNotify()

	if m.state.IsMoving() {
		m.logf("Open doors rejected: cab is moving")
		return fmt.Errorf("%w: cannot open doors while %s", ErrInvalidOperation, m.state)
	}
	switch m.state {
	case models.StateDoorsOpen, models.StateDoorsOpening:
		return nil
	case models.StateDoorsClosing:
		if m.pending != nil {
			m.logf("Pending request for Floor %d cancelled", *m.pending)
			m.pending = nil
		}
	}
	m.startOpening()
	return nil
}

// CloseDoors closes the doors, reversing an open in progress.
func (m *StateMachine) CloseDoors() error {
	m.mu.Lock()
	defer m.unlockAndNotify()

	if m.state.IsMoving() {
		m.logf("Close doors rejected: cab is moving")
		return fmt.Errorf("%w: cannot close doors while %s", ErrInvalidOperation, m.state)
	}
	switch m.state {
	case models.StateIdle, models.StateDoorsClosing:
		return nil
	}
	m.startClosing()
	return nil
}

// Tick advances whichever animation is active by one step.
func (m *StateMachine) Tick() {
	m.mu.Lock()
	defer m.unlockAndNotify()

	switch {
	case m.cab != nil:
		m.cabPos = m.cab.Tick()
	case !m.door.IsComplete():
		m.door.Tick()
	default:
		return
	}
	m.publish()
}

func (m *StateMachine) Snapshot() models.Snapshot {
	return *m.snap.Load()
}

func (m *StateMachine) CurrentFloor() models.FloorID {
	return m.snap.Load().Floor
}

func (m *StateMachine) CurrentState() models.ElevatorState {
	return m.snap.Load().State
}

func (m *StateMachine) DoorState() models.DoorState {
	return m.snap.Load().Door
}

func (m *StateMachine) IsMoving() bool {
	return m.snap.Load().State.IsMoving()
}

// Bounds returns the configured floor range.
func (m *StateMachine) Bounds() (lo, hi models.FloorID) {
	return m.cfg.MinFloor, m.cfg.MaxFloor
}

// Transitions. All run with mu held.

func (m *StateMachine) startMove(target models.FloorID) {
	m.target = target
	m.cab = NewCabAnimator(m.cabPos, m.cfg.CabSpeed, m.onCabArrived)

	dir := "up"
	if target > m.floor {
		m.setState(models.StateMovingUp)
	} else {
		dir = "down"
		m.setState(models.StateMovingDown)
	}
	m.logf("Moving %s from Floor %d to Floor %d", dir, m.floor, target)
	m.cab.Start(m.positionOf(target))
}

func (m *StateMachine) onCabArrived() {
	m.cab = nil
	m.floor = m.target
	m.cabPos = m.positionOf(m.floor)
	m.setState(models.StateIdle)
	m.logf("Arrived at Floor %d", m.floor)
	m.startOpening()
}

func (m *StateMachine) startOpening() {
	m.setState(models.StateDoorsOpening)
	m.logf("Opening doors...")
	m.runDoor(Opening)
}

func (m *StateMachine) startClosing() {
	m.setState(models.StateDoorsClosing)
	m.logf("Closing doors...")
	m.runDoor(Closing)
}

// runDoor starts the door after the transition has been announced. A door
// already at the bound completes inside Start.
func (m *StateMachine) runDoor(dir Direction) {
	m.door.Start(dir)
	m.publish()
}

func (m *StateMachine) onDoorComplete(dir Direction) {
	if dir == Opening {
		m.setState(models.StateDoorsOpen)
		m.logf("Doors open")
		return
	}

	m.logf("Doors closed")
	next := m.pending
	m.pending = nil
	if next != nil && *next != m.floor {
		m.startMove(*next)
		return
	}
	m.setState(models.StateIdle)
}

func (m *StateMachine) setState(s models.ElevatorState) {
	m.state = s
	m.publish()
	m.outbox = append(m.outbox, notification{
		state:    s,
		floor:    m.floor,
		doorOpen: m.door.State().IsOpen(),
	})
}

func (m *StateMachine) publish() {
	snap := &models.Snapshot{
		Floor:       m.floor,
		State:       m.state,
		Door:        m.door.State(),
		CabPosition: m.cabPos,
		Status:      models.StatusText(m.state, m.floor),
	}
	if m.pending != nil {
		p := *m.pending
		snap.Pending = &p
	}
	m.snap.Store(snap)
}

func (m *StateMachine) entry(msg string) models.LogEntry {
	return models.LogEntry{Floor: m.floor, State: m.state, Message: msg}
}

func (m *StateMachine) logf(format string, args ...any) {
	e := m.journal.Enqueue(m.entry(fmt.Sprintf(format, args...)))
	m.outbox = append(m.outbox, notification{log: true, entry: e})
}

func (m *StateMachine) positionOf(f models.FloorID) int {
	return int(f-m.cfg.MinFloor) * m.cfg.FloorHeight
}

// unlockAndNotify hands the outbox to the observers after releasing mu.
func (m *StateMachine) unlockAndNotify() {
	out := m.outbox
	m.outbox = nil
	m.emitMu.Lock()
	m.mu.Unlock()
	defer m.emitMu.Unlock()

	if len(out) == 0 {
		return
	}
	m.obsMu.RLock()
	subs := append([]subscription(nil), m.observers...)
	m.obsMu.RUnlock()

	for _, n := range out {
		for _, s := range subs {
			if n.log {
				s.o.OnLogAppended(n.entry)
			} else {
				s.o.OnStateChanged(n.state, n.floor, n.doorOpen)
			}
		}
	}
}
