package signaling

import "encoding/json"

// Message defines the structure for all C2S (Client to Server)
// and S2C (Server to Client) websocket messages. Only Type is always set;
// which other fields are present depends on the type.
type Message struct {
	Type       string          `json:"type"`
	RoomName   string          `json:"roomName,omitempty"`
	Role       string          `json:"role,omitempty"`
	Payload    json.RawMessage `json:"payload,omitempty"`
	SenderID   string          `json:"senderId,omitempty"`
	ReceiverID string          `json:"receiverId,omitempty"`
	ID         string          `json:"id,omitempty"`
	SelfID     string          `json:"selfId,omitempty"`
	Code       string          `json:"code,omitempty"`
	Message    string          `json:"message,omitempty"`
}

// Client to server message types.
const (
	MessageTypeCheckJoin     = "check-join-possibility"
	MessageTypeJoinRoom      = "join-room"
	MessageTypeOffer         = "offer"
	MessageTypeAnswer        = "answer"
	MessageTypeICE           = "ice"
	MessageTypeBye           = "bye-signal"
	MessageTypeDisconnecting = "disconnecting"
)

// Server to client message types. Offer, answer and ice reuse the
// client to server names.
const (
	MessageTypeWelcome           = "welcome"
	MessageTypeCanJoin           = "can-join"
	MessageTypeCannotJoin        = "cannot-join"
	MessageTypeControllerJoined  = "controller-joined"
	MessageTypeReceiverJoined    = "receiver-joined"
	MessageTypeJoinError         = "join-error"
	MessageTypeReceiverConnected = "receiver-connected"
	MessageTypeParticipantLeft   = "participant-left"
	MessageTypeControllerLeft    = "controller-left"
	MessageTypeReceiverLeft      = "receiver-left"
	MessageTypeError             = "error"
)

// Notices sent with controller-left and receiver-left.
const (
	controllerLeftNotice = "The controller left the room. The session has ended."
	receiverLeftNotice   = "The receiver left the room."
)

func welcomeMessage(selfID string) *Message {
	return &Message{Type: MessageTypeWelcome, SelfID: selfID}
}

func errorMessage(msgType string, err error) *Message {
	return &Message{Type: msgType, Code: ErrorCode(err), Message: err.Error()}
}

func relayMessage(kind RelayKind, payload json.RawMessage, senderID string) *Message {
	return &Message{Type: kind.String(), Payload: payload, SenderID: senderID}
}

func participantLeftMessage(id string, role Role) *Message {
	return &Message{Type: MessageTypeParticipantLeft, ID: id, Role: role.String()}
}
