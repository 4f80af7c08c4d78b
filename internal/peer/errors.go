package peer

import (
	"errors"
	"fmt"
)

var (
	ErrPeerDisconnected = errors.New("peer disconnected")
	ErrTimeout          = errors.New("timeout")
	ErrChannelNotOpen   = errors.New("channel not open")
	ErrUnexpectedSignal = errors.New("unexpected signal type")
	ErrConnectionFailed = errors.New("connection failed")
	ErrWrongRole        = errors.New("operation not valid for this role")
)

// ProtocolError records which step of the session failed.
type ProtocolError struct {
	Op      string
	Err     error
	Details string
}

func (e *ProtocolError) Error() string {
	if e.Details != "" {
		return fmt.Sprintf("%s: %v (%s)", e.Op, e.Err, e.Details)
	}
	return fmt.Sprintf("%s: %v", e.Op, e.Err)
}

func (e *ProtocolError) Unwrap() error {
	return e.Err
}

func NewError(op string, err error) *ProtocolError {
	return &ProtocolError{Op: op, Err: err}
}

func WrapError(op string, err error, details string) *ProtocolError {
	return &ProtocolError{Op: op, Err: err, Details: details}
}
