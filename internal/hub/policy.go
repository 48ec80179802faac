package hub

import "github.com/huddlenet/huddle/internal/domain"

// BackpressureAction decides what happens to a peer whose send buffer was
// full during fan-out.
type BackpressureAction int

const (
	NoAction BackpressureAction = iota
	DropFrame
	KickMember
)

// BackpressurePolicy is consulted once per dropped delivery. Delivery is
// fire-and-forget; a slow peer must never block the room.
type BackpressurePolicy interface {
	OnBackpressure(room domain.RoomName, id domain.ConnID) BackpressureAction
}

// DropPolicy drops the frame for the slow peer and moves on. The default:
// a relay hub has nothing to retry, the client is the retry authority.
type DropPolicy struct{}

func (DropPolicy) OnBackpressure(domain.RoomName, domain.ConnID) BackpressureAction {
	return DropFrame
}

// RelayPolicy is the membership precondition for relaying from a connection
// that has not joined any room.
type RelayPolicy string

const (
	// RelayStrict requires an active room for every relay operation.
	RelayStrict RelayPolicy = "strict"
	// RelayPermissive allows explicitly targeted signals from a sender with
	// no active room. Broadcast forms still require a room.
	RelayPermissive RelayPolicy = "permissive"
)
