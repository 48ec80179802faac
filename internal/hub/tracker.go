package hub

import (
	"sync"

	"github.com/rs/zerolog/log"

	"github.com/huddlenet/huddle/internal/domain"
)

type connSet map[domain.ConnID]struct{}

func (s connSet) clone() connSet {
	out := make(connSet, len(s))
	for id := range s {
		out[id] = struct{}{}
	}
	return out
}

// Tracker owns the room→members relation and, per room, the previously
// observed member set retained solely to compute joined/left deltas on the
// next mutation. A room exists while it has at least one member.
type Tracker struct {
	registry *Registry

	mu        sync.RWMutex
	members   map[domain.RoomName]connSet
	snapshots map[domain.RoomName]connSet
}

func NewTracker(registry *Registry) *Tracker {
	return &Tracker{
		registry:  registry,
		members:   make(map[domain.RoomName]connSet),
		snapshots: make(map[domain.RoomName]connSet),
	}
}

// MembersOf returns the current member ids of room; empty slice if the room
// has no members.
func (t *Tracker) MembersOf(room domain.RoomName) []domain.ConnID {
	t.mu.RLock()
	defer t.mu.RUnlock()
	set := t.members[room]
	out := make([]domain.ConnID, 0, len(set))
	for id := range set {
		out = append(out, id)
	}
	return out
}

// MemberCount reports the size of room's member set.
func (t *Tracker) MemberCount(room domain.RoomName) int {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return len(t.members[room])
}

// AddMember is idempotent; adding an already-present member is a no-op.
func (t *Tracker) AddMember(room domain.RoomName, id domain.ConnID) {
	t.mu.Lock()
	defer t.mu.Unlock()
	set, ok := t.members[room]
	if !ok {
		set = make(connSet)
		t.members[room] = set
	}
	if _, present := set[id]; present {
		return
	}
	set[id] = struct{}{}
	log.Info().Str("module", "hub.tracker").Str("room", string(room)).Str("conn", string(id)).Msg("member added")
}

// RemoveMember is idempotent; removing a non-member is a no-op. The live set
// for an emptied room is dropped immediately; its delta snapshot survives
// until the next ComputeDelta so departures are still reported.
func (t *Tracker) RemoveMember(room domain.RoomName, id domain.ConnID) {
	t.mu.Lock()
	defer t.mu.Unlock()
	set, ok := t.members[room]
	if !ok {
		return
	}
	if _, present := set[id]; !present {
		return
	}
	delete(set, id)
	if len(set) == 0 {
		delete(t.members, room)
	}
	log.Info().Str("module", "hub.tracker").Str("room", string(room)).Str("conn", string(id)).Msg("member removed")
}

// Roster resolves the room's current members to identities through the
// Registry. except (if non-empty) is excluded from the result.
func (t *Tracker) Roster(room domain.RoomName, except domain.ConnID) []PeerInfo {
	t.mu.RLock()
	set := t.members[room].clone()
	t.mu.RUnlock()

	out := make([]PeerInfo, 0, len(set))
	for id := range set {
		if id == except {
			continue
		}
		out = append(out, t.peerInfo(id))
	}
	return out
}

// ComputeDelta compares the room's retained snapshot against its live
// membership, enriches both sides with identity resolved at computation
// time, then replaces the snapshot with the live set. Once a room's live
// membership is empty its snapshot entry is deleted: abandoned rooms
// accumulate no memory.
func (t *Tracker) ComputeDelta(room domain.RoomName) Delta {
	t.mu.Lock()
	prev := t.snapshots[room]
	curr := t.members[room]

	delta := Delta{Joined: []PeerInfo{}, Left: []PeerInfo{}}
	for id := range curr {
		if _, ok := prev[id]; !ok {
			delta.Joined = append(delta.Joined, t.peerInfo(id))
		}
	}
	for id := range prev {
		if _, ok := curr[id]; !ok {
			delta.Left = append(delta.Left, t.peerInfo(id))
		}
	}

	if len(curr) == 0 {
		delete(t.snapshots, room)
	} else {
		t.snapshots[room] = curr.clone()
	}
	t.mu.Unlock()

	return delta
}

// peerInfo is best-effort: ids already purged from the Registry resolve to
// the default identity rather than erroring.
func (t *Tracker) peerInfo(id domain.ConnID) PeerInfo {
	ident := t.registry.IdentityOf(id)
	return PeerInfo{ID: id, Name: ident.Name, Metadata: ident.Metadata}
}

// RoomInfo is a read-only room view for the REST surface.
type RoomInfo struct {
	Name        domain.RoomName `json:"name"`
	MemberCount int             `json:"member_count"`
}

// Rooms lists all rooms that currently have members.
func (t *Tracker) Rooms() []RoomInfo {
	t.mu.RLock()
	defer t.mu.RUnlock()
	out := make([]RoomInfo, 0, len(t.members))
	for room, set := range t.members {
		out = append(out, RoomInfo{Name: room, MemberCount: len(set)})
	}
	return out
}
