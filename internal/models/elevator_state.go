package models

import "fmt"

// FloorID identifies a floor within the configured building bounds.
type FloorID int

// ElevatorState is the controller's logical state.
type ElevatorState string

const (
	StateIdle         ElevatorState = "Idle"
	StateMovingUp     ElevatorState = "MovingUp"
	StateMovingDown   ElevatorState = "MovingDown"
	StateDoorsOpening ElevatorState = "DoorsOpening"
	StateDoorsOpen    ElevatorState = "DoorsOpen"
	StateDoorsClosing ElevatorState = "DoorsClosing"
)

// IsMoving reports whether the cab is travelling between floors.
func (s ElevatorState) IsMoving() bool {
	return s == StateMovingUp || s == StateMovingDown
}

var allStates = []ElevatorState{
	StateIdle, StateMovingUp, StateMovingDown,
	StateDoorsOpening, StateDoorsOpen, StateDoorsClosing,
}

// States lists every state in declaration order.
func States() []ElevatorState {
	out := make([]ElevatorState, len(allStates))
	copy(out, allStates)
	return out
}

// Valid reports whether s is one of the known states.
func (s ElevatorState) Valid() bool {
	for _, st := range allStates {
		if s == st {
			return true
		}
	}
	return false
}

// DoorPhase is the coarse door position.
type DoorPhase string

const (
	DoorClosed  DoorPhase = "Closed"
	DoorOpening DoorPhase = "Opening"
	DoorOpen    DoorPhase = "Open"
	DoorClosing DoorPhase = "Closing"
)

// DoorState pairs the door phase with its animation progress (0 = shut).
type DoorState struct {
	Phase    DoorPhase `json:"phase"`
	Progress int       `json:"progress"`
}

// IsOpen is true whenever the door is not fully shut.
func (d DoorState) IsOpen() bool {
	return d.Phase != DoorClosed
}

// Snapshot is the consistent view of the elevator published after every mutation.
type Snapshot struct {
	Floor       FloorID       `json:"floor"`
	State       ElevatorState `json:"state"`
	Door        DoorState     `json:"door"`
	CabPosition int           `json:"cab_position"`
	Pending     *FloorID      `json:"pending,omitempty"`
	Status      string        `json:"status"`
}

// StatusText renders the operator-facing status line for a state.
func StatusText(state ElevatorState, floor FloorID) string {
	switch state {
	case StateIdle:
		return fmt.Sprintf("Idle at Floor %d", floor)
	case StateMovingUp:
		return "Moving Up..."
	case StateMovingDown:
		return "Moving Down..."
	case StateDoorsOpening:
		return "Doors Opening"
	case StateDoorsOpen:
		return fmt.Sprintf("Arrived at Floor %d", floor)
	case StateDoorsClosing:
		return "Doors Closing"
	default:
		return string(state)
	}
}
