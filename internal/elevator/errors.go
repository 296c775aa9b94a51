package elevator

import "errors"

// Errors returned synchronously to callers of the state machine.
var (
	ErrInvalidFloor     = errors.New("invalid floor")
	ErrBusy             = errors.New("elevator busy")
	ErrInvalidOperation = errors.New("invalid operation")
	ErrInvalidConfig    = errors.New("invalid elevator config")
)
