package signaling

import "fmt"

// Role is the part a connection plays in a room.
type Role int

const (
	RoleNone Role = iota
	RoleController
	RoleReceiver
)

// String returns the wire name of the role.
func (r Role) String() string {
	switch r {
	case RoleController:
		return "controller"
	case RoleReceiver:
		return "receiver"
	default:
		return ""
	}
}

// ParseRole converts a wire role into a Role. "sharer" is accepted as an
// alias for the receiver, which is what older web clients send.
func ParseRole(s string) (Role, error) {
	switch s {
	case "controller":
		return RoleController, nil
	case "receiver", "sharer":
		return RoleReceiver, nil
	default:
		return RoleNone, fmt.Errorf("%w: %q", ErrInvalidRole, s)
	}
}
