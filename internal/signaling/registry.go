package signaling

import "sort"

// Registry maps room names to rooms. Rooms are created lazily by controller
// joins and removed once their last participant leaves.
//
// A Registry belongs to exactly one Hub and is only touched from the hub
// goroutine, so it carries no lock of its own.
type Registry struct {
	rooms map[string]*Room
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{rooms: make(map[string]*Room)}
}

// GetOrCreate returns the room called name, creating an empty one if needed.
func (reg *Registry) GetOrCreate(name string) *Room {
	room, ok := reg.rooms[name]
	if !ok {
		room = newRoom(name)
		reg.rooms[name] = room
	}
	return room
}

// Get looks a room up without creating it.
func (reg *Registry) Get(name string) (*Room, bool) {
	room, ok := reg.rooms[name]
	return room, ok
}

// RemoveIfEmpty deletes the room if nobody is attached to it and reports
// whether it did.
func (reg *Registry) RemoveIfEmpty(name string) bool {
	room, ok := reg.rooms[name]
	if !ok || !room.Empty() {
		return false
	}
	delete(reg.rooms, name)
	return true
}

// Len returns the number of live rooms.
func (reg *Registry) Len() int {
	return len(reg.rooms)
}

// Snapshot copies every room, ordered by name.
func (reg *Registry) Snapshot() []RoomInfo {
	infos := make([]RoomInfo, 0, len(reg.rooms))
	for _, room := range reg.rooms {
		infos = append(infos, room.Info())
	}
	sort.Slice(infos, func(i, j int) bool { return infos[i].Name < infos[j].Name })
	return infos
}
