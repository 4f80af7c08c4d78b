package signaling

import (
	"encoding/json"
	"fmt"
)

// RelayKind is the kind of handshake payload being relayed.
type RelayKind int

const (
	RelayOffer RelayKind = iota + 1
	RelayAnswer
	RelayICE
)

// String returns the wire message type of the kind.
func (k RelayKind) String() string {
	switch k {
	case RelayOffer:
		return MessageTypeOffer
	case RelayAnswer:
		return MessageTypeAnswer
	case RelayICE:
		return MessageTypeICE
	default:
		return ""
	}
}

// Command is a validated client request. The set of implementations is
// closed: CheckJoin, Join, Relay, Bye and Disconnect.
type Command interface {
	command()
}

// CheckJoin asks whether a receiver could join Room right now.
type CheckJoin struct {
	Room string
}

// Join claims Role in Room.
type Join struct {
	Room string
	Role Role
}

// Relay forwards an opaque handshake payload. An empty Room means the
// sender's current room.
type Relay struct {
	Kind    RelayKind
	Room    string
	Payload json.RawMessage
}

// Bye tells the other participants the sender is hanging up. An empty Room
// means the sender's current room.
type Bye struct {
	Room string
}

// Disconnect tears the connection's membership down without closing the
// transport.
type Disconnect struct{}

func (CheckJoin) command()  {}
func (Join) command()       {}
func (Relay) command()      {}
func (Bye) command()        {}
func (Disconnect) command() {}

// ParseCommand validates an inbound message and converts it into a Command.
func ParseCommand(msg *Message) (Command, error) {
	switch msg.Type {
	case MessageTypeCheckJoin:
		room, err := validRoomName(msg.RoomName)
		if err != nil {
			return nil, err
		}
		return CheckJoin{Room: room}, nil

	case MessageTypeJoinRoom:
		room, err := validRoomName(msg.RoomName)
		if err != nil {
			return nil, err
		}
		role, err := ParseRole(msg.Role)
		if err != nil {
			return nil, err
		}
		return Join{Room: room, Role: role}, nil

	case MessageTypeOffer, MessageTypeAnswer, MessageTypeICE:
		room, err := optionalRoomName(msg.RoomName)
		if err != nil {
			return nil, err
		}
		if len(msg.Payload) == 0 {
			return nil, fmt.Errorf("%w: %s without payload", ErrMalformedMessage, msg.Type)
		}
		return Relay{Kind: relayKind(msg.Type), Room: room, Payload: msg.Payload}, nil

	case MessageTypeBye:
		room, err := optionalRoomName(msg.RoomName)
		if err != nil {
			return nil, err
		}
		return Bye{Room: room}, nil

	case MessageTypeDisconnecting:
		return Disconnect{}, nil

	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownMessage, msg.Type)
	}
}

func optionalRoomName(name string) (string, error) {
	if name == "" {
		return "", nil
	}
	return validRoomName(name)
}

func relayKind(msgType string) RelayKind {
	switch msgType {
	case MessageTypeOffer:
		return RelayOffer
	case MessageTypeAnswer:
		return RelayAnswer
	default:
		return RelayICE
	}
}
