package signaling

import (
	"errors"
	"fmt"

	"github.com/paraclete/paraclete/internal/roomname"
)

var (
	ErrControllerOccupied = errors.New("controller slot occupied")
	ErrReceiverOccupied   = errors.New("receiver slot occupied")
	ErrNoController       = errors.New("controller not present")
	ErrAlreadyJoined      = errors.New("connection already joined a room")
	ErrInvalidRoomName    = errors.New("invalid room name")
	ErrInvalidRole        = errors.New("invalid role")
	ErrUnknownMessage     = errors.New("unknown message type")
	ErrMalformedMessage   = errors.New("malformed message")
)

// Wire codes carried in the "code" field of error-bearing events.
const (
	CodeControllerOccupied = "controller-occupied"
	CodeReceiverOccupied   = "receiver-occupied"
	CodeNoController       = "no-controller"
	CodeAlreadyJoined      = "already-joined"
	CodeInvalidRoomName    = "invalid-room-name"
	CodeInvalidRole        = "invalid-role"
	CodeUnknownType        = "unknown-type"
	CodeMalformedMessage   = "malformed-message"
	CodeInternal           = "internal"
)

// ErrorCode maps an error produced by this package to its wire code.
func ErrorCode(err error) string {
	switch {
	case errors.Is(err, ErrControllerOccupied):
		return CodeControllerOccupied
	case errors.Is(err, ErrReceiverOccupied):
		return CodeReceiverOccupied
	case errors.Is(err, ErrNoController):
		return CodeNoController
	case errors.Is(err, ErrAlreadyJoined):
		return CodeAlreadyJoined
	case errors.Is(err, ErrInvalidRoomName):
		return CodeInvalidRoomName
	case errors.Is(err, ErrInvalidRole):
		return CodeInvalidRole
	case errors.Is(err, ErrUnknownMessage):
		return CodeUnknownType
	case errors.Is(err, ErrMalformedMessage):
		return CodeMalformedMessage
	default:
		return CodeInternal
	}
}

// validRoomName wraps roomname.Validate so failures match ErrInvalidRoomName.
func validRoomName(name string) (string, error) {
	normalized, err := roomname.Validate(name)
	if err != nil {
		return "", fmt.Errorf("%w: %w", ErrInvalidRoomName, err)
	}
	return normalized, nil
}

var errorsByCode = map[string]error{
	CodeControllerOccupied: ErrControllerOccupied,
	CodeReceiverOccupied:   ErrReceiverOccupied,
	CodeNoController:       ErrNoController,
	CodeAlreadyJoined:      ErrAlreadyJoined,
	CodeInvalidRoomName:    ErrInvalidRoomName,
	CodeInvalidRole:        ErrInvalidRole,
	CodeUnknownType:        ErrUnknownMessage,
	CodeMalformedMessage:   ErrMalformedMessage,
}

// ErrorForCode is the inverse of ErrorCode. Unknown codes return nil.
func ErrorForCode(code string) error {
	return errorsByCode[code]
}
