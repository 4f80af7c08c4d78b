package client

import (
	"fmt"
	"log/slog"
	"sync"

	"github.com/paraclete/paraclete/internal/signaling"
)

// ServerError is an error event reported by the signaling server. It
// unwraps to the matching signaling sentinel, so errors.Is works against
// codes such as signaling.ErrControllerOccupied.
type ServerError struct {
	Type    string
	Code    string
	Message string
}

func (e *ServerError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("%s: %s", e.Type, e.Code)
	}
	return e.Message
}

func (e *ServerError) Unwrap() error {
	return signaling.ErrorForCode(e.Code)
}

// CheckResult answers a check-join-possibility request.
type CheckResult struct {
	Room string
	Err  *ServerError
}

// OK reports whether the room can be joined.
func (r CheckResult) OK() bool { return r.Err == nil }

// PeerLeft describes a participant-left event.
type PeerLeft struct {
	ID   string
	Role string
}

// Handler routes incoming signaling messages to appropriate channels.
type Handler struct {
	client *Client
	logger *slog.Logger

	Welcome           chan string
	Check             chan CheckResult
	Joined            chan string
	ReceiverConnected chan string
	PeerLeft          chan PeerLeft
	Ended             chan string
	Signal            chan *signaling.Message
	Error             chan *ServerError

	// Done is closed once the server connection is gone.
	Done chan struct{}

	stop     chan struct{}
	stopOnce sync.Once
}

// NewHandler creates a new message handler.
func NewHandler(c *Client, logger *slog.Logger) *Handler {
	if logger == nil {
		logger = slog.Default()
	}
	return &Handler{
		client:            c,
		logger:            logger,
		Welcome:           make(chan string, 1),
		Check:             make(chan CheckResult, 1),
		Joined:            make(chan string, 1),
		ReceiverConnected: make(chan string, 4),
		PeerLeft:          make(chan PeerLeft, 4),
		Ended:             make(chan string, 4),
		Signal:            make(chan *signaling.Message, 64),
		Error:             make(chan *ServerError, 4),
		Done:              make(chan struct{}),
		stop:              make(chan struct{}),
	}
}

// Start routes messages until the connection closes or Close is called.
func (h *Handler) Start() {
	defer close(h.Done)
	for msg := range h.client.Incoming() {
		if !h.route(msg) {
			return
		}
	}
}

func (h *Handler) route(msg *signaling.Message) bool {
	switch msg.Type {
	case signaling.MessageTypeWelcome:
		return deliver(h, h.Welcome, msg.SelfID)

	case signaling.MessageTypeCanJoin:
		return deliver(h, h.Check, CheckResult{Room: msg.RoomName})

	case signaling.MessageTypeCannotJoin:
		return deliver(h, h.Check, CheckResult{Err: serverError(msg)})

	case signaling.MessageTypeControllerJoined, signaling.MessageTypeReceiverJoined:
		return deliver(h, h.Joined, msg.RoomName)

	case signaling.MessageTypeReceiverConnected:
		return deliver(h, h.ReceiverConnected, msg.ReceiverID)

	case signaling.MessageTypeParticipantLeft:
		return deliver(h, h.PeerLeft, PeerLeft{ID: msg.ID, Role: msg.Role})

	case signaling.MessageTypeControllerLeft, signaling.MessageTypeReceiverLeft:
		return deliver(h, h.Ended, msg.Message)

	case signaling.MessageTypeOffer, signaling.MessageTypeAnswer, signaling.MessageTypeICE:
		return deliver(h, h.Signal, msg)

	case signaling.MessageTypeJoinError, signaling.MessageTypeError:
		return deliver(h, h.Error, serverError(msg))

	default:
		h.logger.Debug("ignoring unknown server message", "type", msg.Type)
		return true
	}
}

func serverError(msg *signaling.Message) *ServerError {
	return &ServerError{Type: msg.Type, Code: msg.Code, Message: msg.Message}
}

func deliver[T any](h *Handler, ch chan T, v T) bool {
	select {
	case ch <- v:
		return true
	case <-h.stop:
		return false
	}
}

// Close stops routing. Channels stay open; select on Done instead.
func (h *Handler) Close() {
	h.stopOnce.Do(func() { close(h.stop) })
}
