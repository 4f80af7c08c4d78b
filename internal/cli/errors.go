package cli

import (
	"errors"
	"fmt"
)

var (
	ErrSignalingTimeout = errors.New("signaling server did not answer in time")
	ErrServerGone       = errors.New("signaling connection closed")
	ErrCannotJoin       = errors.New("room cannot be joined")
)

// CommandError names the step of a command that failed.
type CommandError struct {
	Op  string
	Err error
}

func (e *CommandError) Error() string {
	return fmt.Sprintf("%s: %v", e.Op, e.Err)
}

func (e *CommandError) Unwrap() error {
	return e.Err
}

func NewError(op string, err error) *CommandError {
	return &CommandError{Op: op, Err: err}
}
