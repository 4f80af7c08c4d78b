package signaling

import (
	"context"
	"errors"
	"log/slog"

	"github.com/paraclete/paraclete/internal/metrics"
)

// ErrHubStopped is returned by Hub methods called after Run has returned.
var ErrHubStopped = errors.New("hub stopped")

// phase tracks where a connection is in its lifecycle.
type phase int

const (
	phaseUnjoined phase = iota
	phaseJoined
	phaseDisconnected
)

// session is the hub's record of one live connection.
type session struct {
	client *Client
	phase  phase
	room   string
	role   Role
}

type inbound struct {
	client *Client
	msg    *Message
	err    error
}

// Hub is the central brain of the signaling server.
// It owns the room registry and the table of live connections, and applies
// every client event from a single goroutine (Run), so check-then-act
// sequences on a room never interleave.
type Hub struct {
	registry *Registry
	sessions map[string]*session

	register   chan *Client
	unregister chan *Client
	inbound    chan inbound
	queries    chan chan []RoomInfo
	done       chan struct{}

	logger  *slog.Logger
	metrics *metrics.Metrics
}

// NewHub creates a new Hub instance. m may be nil.
func NewHub(logger *slog.Logger, m *metrics.Metrics) *Hub {
	if logger == nil {
		logger = slog.Default()
	}
	return &Hub{
		registry:   NewRegistry(),
		sessions:   make(map[string]*session),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		inbound:    make(chan inbound),
		queries:    make(chan chan []RoomInfo),
		done:       make(chan struct{}),
		logger:     logger,
		metrics:    m,
	}
}

// Run starts the hub's main processing loop and blocks until ctx is done.
// When it returns every remaining connection's send channel is closed, which
// makes its write pump hang up.
func (h *Hub) Run(ctx context.Context) {
	defer h.shutdown()

	for {
		select {
		case <-ctx.Done():
			return

		case client := <-h.register:
			h.connect(client)

		case client := <-h.unregister:
			h.disconnect(client)

		case in := <-h.inbound:
			h.handle(in)

		case reply := <-h.queries:
			reply <- h.registry.Snapshot()
		}
	}
}

// Register hands a freshly opened connection to the hub.
func (h *Hub) Register(c *Client) error {
	select {
	case h.register <- c:
		return nil
	case <-h.done:
		return ErrHubStopped
	}
}

// Unregister tears the connection down. Calling it more than once is harmless.
func (h *Hub) Unregister(c *Client) {
	select {
	case h.unregister <- c:
	case <-h.done:
	}
}

// Dispatch queues a message read from c. A non-nil readErr reports a frame
// that could not be decoded.
func (h *Hub) Dispatch(c *Client, msg *Message, readErr error) error {
	select {
	case h.inbound <- inbound{client: c, msg: msg, err: readErr}:
		return nil
	case <-h.done:
		return ErrHubStopped
	}
}

// Rooms returns a snapshot of every room.
func (h *Hub) Rooms(ctx context.Context) ([]RoomInfo, error) {
	reply := make(chan []RoomInfo, 1)
	select {
	case h.queries <- reply:
	case <-h.done:
		return nil, ErrHubStopped
	case <-ctx.Done():
		return nil, ctx.Err()
	}
	select {
	case rooms := <-reply:
		return rooms, nil
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

func (h *Hub) shutdown() {
	close(h.done)
	for id, s := range h.sessions {
		close(s.client.send)
		delete(h.sessions, id)
	}
	h.metrics.SetConnections(0)
}

func (h *Hub) connect(c *Client) {
	if _, ok := h.sessions[c.ID]; ok {
		return
	}
	h.sessions[c.ID] = &session{client: c}
	h.metrics.SetConnections(len(h.sessions))
	h.logger.Info("client registered", "conn", c.ID, "remote", c.RemoteAddr())

	h.send(c, welcomeMessage(c.ID))
}

// disconnect runs teardown at most once per connection id.
func (h *Hub) disconnect(c *Client) {
	s, ok := h.sessions[c.ID]
	if !ok {
		return
	}
	h.leave(s)
	delete(h.sessions, c.ID)
	close(c.send)
	h.metrics.SetConnections(len(h.sessions))
	h.logger.Info("client unregistered", "conn", c.ID)
}

func (h *Hub) handle(in inbound) {
	s, ok := h.sessions[in.client.ID]
	if !ok {
		return
	}
	log := h.logger.With("conn", s.client.ID)

	if in.err != nil {
		log.Debug("undecodable frame", "error", in.err)
		h.reject(s, MessageTypeError, in.err)
		return
	}

	if s.phase == phaseDisconnected {
		log.Debug("ignoring message after disconnecting", "type", in.msg.Type)
		return
	}

	cmd, err := ParseCommand(in.msg)
	if err != nil {
		log.Debug("rejected message", "type", in.msg.Type, "error", err)
		h.reject(s, rejectionType(in.msg.Type), err)
		return
	}
	h.metrics.Command(in.msg.Type)

	switch cmd := cmd.(type) {
	case CheckJoin:
		h.checkJoin(s, cmd)
	case Join:
		h.join(s, cmd)
	case Relay:
		h.relay(s, cmd)
	case Bye:
		h.bye(s, cmd)
	case Disconnect:
		h.leave(s)
		s.phase = phaseDisconnected
		log.Info("client disconnecting")
	}
}

// rejectionType picks the event a validation failure is reported with.
func rejectionType(msgType string) string {
	switch msgType {
	case MessageTypeJoinRoom:
		return MessageTypeJoinError
	case MessageTypeCheckJoin:
		return MessageTypeCannotJoin
	default:
		return MessageTypeError
	}
}

func (h *Hub) checkJoin(s *session, cmd CheckJoin) {
	room, ok := h.registry.Get(cmd.Room)
	switch {
	case !ok || room.ControllerID == "":
		h.reject(s, MessageTypeCannotJoin, ErrNoController)
	case room.ReceiverID != "" && room.ReceiverID != s.client.ID:
		h.reject(s, MessageTypeCannotJoin, ErrReceiverOccupied)
	default:
		h.send(s.client, &Message{Type: MessageTypeCanJoin, RoomName: cmd.Room})
	}
}

func (h *Hub) join(s *session, cmd Join) {
	id := s.client.ID
	if s.phase == phaseJoined && (s.room != cmd.Room || s.role != cmd.Role) {
		h.reject(s, MessageTypeJoinError, ErrAlreadyJoined)
		return
	}
	log := h.logger.With("conn", id, "room", cmd.Room, "role", cmd.Role.String())

	switch cmd.Role {
	case RoleController:
		room := h.registry.GetOrCreate(cmd.Room)
		h.metrics.SetRooms(h.registry.Len())
		if !h.claimable(room, room.ControllerID, id) {
			h.reject(s, MessageTypeJoinError, ErrControllerOccupied)
			return
		}
		room.ControllerID = id
		room.add(id)
		s.phase, s.room, s.role = phaseJoined, cmd.Room, RoleController
		log.Info("controller joined room")

		h.send(s.client, &Message{Type: MessageTypeControllerJoined, RoomName: cmd.Room})
		// A receiver left behind by a previous controller can start over.
		if room.ReceiverID != "" {
			h.send(s.client, &Message{Type: MessageTypeReceiverConnected, ReceiverID: room.ReceiverID})
		}

	case RoleReceiver:
		room, ok := h.registry.Get(cmd.Room)
		if !ok || room.ControllerID == "" {
			h.reject(s, MessageTypeJoinError, ErrNoController)
			return
		}
		if !h.claimable(room, room.ReceiverID, id) {
			h.reject(s, MessageTypeJoinError, ErrReceiverOccupied)
			return
		}
		room.ReceiverID = id
		room.add(id)
		s.phase, s.room, s.role = phaseJoined, cmd.Room, RoleReceiver
		log.Info("receiver joined room")

		h.send(s.client, &Message{Type: MessageTypeReceiverJoined, RoomName: cmd.Room})
		h.sendTo(room.ControllerID, &Message{Type: MessageTypeReceiverConnected, ReceiverID: id})
	}
}

// claimable reports whether id may take a slot currently held by holder.
// A holder that is no longer a live member of the room is dropped from the
// participant set so the slot can be reused.
func (h *Hub) claimable(room *Room, holder, id string) bool {
	if holder == "" || holder == id {
		return true
	}
	if hs, ok := h.sessions[holder]; ok && hs.phase == phaseJoined && hs.room == room.Name {
		return false
	}
	h.logger.Warn("reclaiming slot from stale holder", "room", room.Name, "holder", holder)
	room.remove(holder)
	return true
}

func (h *Hub) relay(s *session, cmd Relay) {
	room, ok := h.memberRoom(s, cmd.Room)
	if !ok {
		return
	}
	for _, other := range room.Others(s.client.ID) {
		if h.sendTo(other, relayMessage(cmd.Kind, cmd.Payload, s.client.ID)) {
			h.metrics.Relay(cmd.Kind.String())
		}
	}
	h.logger.Debug("relayed signal", "conn", s.client.ID, "room", room.Name, "kind", cmd.Kind.String())
}

func (h *Hub) bye(s *session, cmd Bye) {
	room, ok := h.memberRoom(s, cmd.Room)
	if !ok {
		return
	}
	for _, other := range room.Others(s.client.ID) {
		h.sendTo(other, participantLeftMessage(s.client.ID, s.role))
	}
	h.logger.Info("client said bye", "conn", s.client.ID, "room", room.Name)
}

// memberRoom resolves the room a relay or bye targets. Unknown rooms and
// rooms the sender is not part of resolve to nothing, so a connection that
// never joined cannot inject signals into someone else's room. This is
// stricter than a plain broadcast to every other participant.
func (h *Hub) memberRoom(s *session, name string) (*Room, bool) {
	if name == "" {
		name = s.room
	}
	room, ok := h.registry.Get(name)
	if !ok {
		h.logger.Debug("dropping message for unknown room", "conn", s.client.ID, "room", name)
		return nil, false
	}
	if !room.HasParticipant(s.client.ID) {
		h.logger.Debug("dropping message from non-member", "conn", s.client.ID, "room", name)
		return nil, false
	}
	return room, true
}

// leave detaches the session from its room and notifies whoever remains.
func (h *Hub) leave(s *session) {
	if s.phase != phaseJoined {
		return
	}
	id, roomName, role := s.client.ID, s.room, s.role
	s.phase, s.room, s.role = phaseUnjoined, "", RoleNone

	room, ok := h.registry.Get(roomName)
	if !ok {
		return
	}
	room.remove(id)

	for _, other := range room.Participants() {
		h.sendTo(other, participantLeftMessage(id, role))
	}

	switch role {
	case RoleController:
		if room.ControllerID == id {
			room.ControllerID = ""
		}
		if room.ReceiverID != "" {
			h.sendTo(room.ReceiverID, &Message{Type: MessageTypeControllerLeft, Message: controllerLeftNotice})
		}
	case RoleReceiver:
		if room.ReceiverID == id {
			room.ReceiverID = ""
		}
		if room.ControllerID != "" {
			h.sendTo(room.ControllerID, &Message{Type: MessageTypeReceiverLeft, Message: receiverLeftNotice})
		}
	}

	h.logger.Info("client left room", "conn", id, "room", roomName, "role", role.String())
	if h.registry.RemoveIfEmpty(roomName) {
		h.logger.Info("room closed", "room", roomName)
	}
	h.metrics.SetRooms(h.registry.Len())
}

func (h *Hub) reject(s *session, msgType string, err error) {
	h.metrics.Rejected(ErrorCode(err))
	h.send(s.client, errorMessage(msgType, err))
}

// sendTo delivers msg to the live connection with the given id.
func (h *Hub) sendTo(id string, msg *Message) bool {
	s, ok := h.sessions[id]
	if !ok {
		return false
	}
	return h.send(s.client, msg)
}

// send never blocks the hub. A connection that cannot keep up is evicted;
// closing its transport brings it back through Unregister.
func (h *Hub) send(c *Client, msg *Message) bool {
	select {
	case c.send <- msg:
		return true
	default:
		h.metrics.Drop()
		h.logger.Warn("send buffer full, evicting client", "conn", c.ID, "type", msg.Type)
		c.evict()
		return false
	}
}
