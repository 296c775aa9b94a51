package elevator

import "elevator_control/internal/models"

// Direction is the way a door animation runs.
type Direction int

const (
	Opening Direction = iota + 1
	Closing
)

func (d Direction) String() string {
	switch d {
	case Opening:
		return "opening"
	case Closing:
		return "closing"
	default:
		return "none"
	}
}

// DoorAnimator moves a door between shut (0) and fully open (maxStep)
// by stepSize per tick.
type DoorAnimator struct {
	maxStep    int
	stepSize   int
	progress   int
	running    Direction
	onComplete func(Direction)
}

// NewDoorAnimator returns a closed door. onComplete may be nil.
func NewDoorAnimator(maxStep, stepSize int, onComplete func(Direction)) *DoorAnimator {
	return &DoorAnimator{
		maxStep:    maxStep,
		stepSize:   stepSize,
		onComplete: onComplete,
	}
}

// Start runs the door in dir. Starting the running direction again is a no-op;
// starting the opposite one reverses from the current progress. A door that is
// idle at the bound for dir completes immediately and fires onComplete.
func (d *DoorAnimator) Start(dir Direction) {
	if d.running == dir {
		return
	}
	if d.running == 0 && d.atBound(dir) {
		if d.onComplete != nil {
			d.onComplete(dir)
		}
		return
	}
	d.running = dir
}

// Tick advances one step and fires onComplete when the bound is reached.
func (d *DoorAnimator) Tick() models.DoorState {
	switch d.running {
	case Opening:
		d.progress = min(d.progress+d.stepSize, d.maxStep)
	case Closing:
		d.progress = max(d.progress-d.stepSize, 0)
	default:
		return d.State()
	}

	if dir := d.running; d.atBound(dir) {
		d.running = 0
		if d.onComplete != nil {
			d.onComplete(dir)
		}
	}
	return d.State()
}

// IsComplete reports that no animation is running.
func (d *DoorAnimator) IsComplete() bool {
	return d.running == 0
}

func (d *DoorAnimator) Progress() int {
	return d.progress
}

func (d *DoorAnimator) State() models.DoorState {
	st := models.DoorState{Progress: d.progress}
	switch {
	case d.running == Opening:
		st.Phase = models.DoorOpening
	case d.running == Closing:
		st.Phase = models.DoorClosing
	case d.progress >= d.maxStep:
		st.Phase = models.DoorOpen
	default:
		st.Phase = models.DoorClosed
	}
	return st
}

func (d *DoorAnimator) atBound(dir Direction) bool {
	if dir == Opening {
		return d.progress >= d.maxStep
	}
	return d.progress <= 0
}
