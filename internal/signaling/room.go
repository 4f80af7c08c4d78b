package signaling

import "sort"

// Room pairs at most one controller with at most one receiver.
// Rooms are owned by the Hub goroutine and are not safe for concurrent use.
type Room struct {
	// Name is the identifier both peers agreed on.
	Name string

	// ControllerID is the connection holding the controller slot, or "".
	ControllerID string

	// ReceiverID is the connection holding the receiver slot, or "".
	ReceiverID string

	// participants only ever contains ControllerID and/or ReceiverID.
	participants map[string]struct{}
}

func newRoom(name string) *Room {
	return &Room{
		Name:         name,
		participants: make(map[string]struct{}, 2),
	}
}

// HasParticipant reports whether id is attached to the room.
func (r *Room) HasParticipant(id string) bool {
	_, ok := r.participants[id]
	return ok
}

// Participants returns the attached connection ids in sorted order.
func (r *Room) Participants() []string {
	ids := make([]string, 0, len(r.participants))
	for id := range r.participants {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// Others returns every participant except id.
func (r *Room) Others(id string) []string {
	others := make([]string, 0, len(r.participants))
	for _, p := range r.Participants() {
		if p != id {
			others = append(others, p)
		}
	}
	return others
}

// Empty reports whether no connection is attached.
func (r *Room) Empty() bool {
	return len(r.participants) == 0
}

func (r *Room) add(id string) {
	r.participants[id] = struct{}{}
}

func (r *Room) remove(id string) {
	delete(r.participants, id)
}

// RoomInfo is a point-in-time copy of a room, safe to hand out of the hub.
type RoomInfo struct {
	Name         string   `json:"name"`
	ControllerID string   `json:"controllerId,omitempty"`
	ReceiverID   string   `json:"receiverId,omitempty"`
	Participants []string `json:"participants"`
}

// Info snapshots the room.
func (r *Room) Info() RoomInfo {
	return RoomInfo{
		Name:         r.Name,
		ControllerID: r.ControllerID,
		ReceiverID:   r.ReceiverID,
		Participants: r.Participants(),
	}
}
