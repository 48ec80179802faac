package hub

import (
	"encoding/json"
	"hash/fnv"
	"sync"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/huddlenet/huddle/internal/domain"
)

const lockStripes = 64

// Orchestrator drives the per-connection lifecycle: join, re-join, room
// switch, leave and abrupt disconnect. It sequences Registry and Tracker
// mutations and the resulting notifications.
//
// Mutations for a given room are serialized through a striped lock so no two
// join/leave sequences for the same room interleave their read-modify-write
// of the membership set and delta snapshot. Independent rooms proceed
// concurrently.
type Orchestrator struct {
	Registry *Registry
	Tracker  *Tracker
	Relay    *Relay
	Policy   BackpressurePolicy

	locks [lockStripes]sync.Mutex
}

func NewOrchestrator(registry *Registry, tracker *Tracker, relay *Relay) *Orchestrator {
	return &Orchestrator{
		Registry: registry,
		Tracker:  tracker,
		Relay:    relay,
		Policy:   DropPolicy{},
	}
}

func (o *Orchestrator) roomLock(room domain.RoomName) *sync.Mutex {
	h := fnv.New32a()
	h.Write([]byte(room))
	return &o.locks[h.Sum32()%lockStripes]
}

// Connect registers a new transport connection. Driven by the transport
// layer before any client event is dispatched.
//
// Connection ids derive from a persistent client token, so a reconnect (page
// reload, second tab) reuses the id of a binding that may still be joined to
// a room. The old binding gets the full departure sequence first; otherwise
// its membership would outlive it in the tracker.
func (o *Orchestrator) Connect(id domain.ConnID, conn Conn) {
	if _, ok := o.Registry.ConnOf(id); ok {
		log.Info().Str("module", "hub.orch").Str("conn", string(id)).Msg("rebinding connection, retiring old binding")
		o.Leave(id)
	}
	o.Registry.Bind(id, conn)
}

// Join moves the connection into room. An empty room is answered with a
// single advisory notice and changes no state. A join while in a different
// room is an implicit leave of the old room first. A re-join of the current
// room is a resync: the roster is returned without membership changes or
// peer notifications.
func (o *Orchestrator) Join(id domain.ConnID, room domain.RoomName, name string, meta map[string]string) {
	if room == "" {
		log.Warn().Str("module", "hub.orch").Str("conn", string(id)).Msg("join without room")
		o.Relay.SendTo(id, ErrorEvent{Type: EvtRequireName, Error: "room is required"})
		return
	}
	if _, ok := o.Registry.ConnOf(id); !ok {
		log.Warn().Str("module", "hub.orch").Str("conn", string(id)).Msg("join from unknown connection")
		return
	}

	o.Registry.SetIdentity(id, name, meta)

	if current, ok := o.Registry.RoomOf(id); ok {
		if current == room {
			// Resync: point-in-time roster, no membership change, no events
			// to peers.
			o.Relay.SendTo(id, ExistingPeersEvent{Type: EvtExistingPeers, Peers: o.Tracker.Roster(room, id)})
			return
		}
		o.leaveRoom(id, current)
	}

	mu := o.roomLock(room)
	mu.Lock()

	o.Tracker.AddMember(room, id)
	o.Registry.SetRoom(id, room)
	log.Info().Str("module", "hub.orch").Str("conn", string(id)).Str("room", string(room)).Msg("joined room")

	// Requester gets the other-members snapshot; peers get the arrival
	// notice; the whole room gets delta+roster for reconciliation.
	o.Relay.SendTo(id, ExistingPeersEvent{Type: EvtExistingPeers, Peers: o.Tracker.Roster(room, id)})

	ident := o.Registry.IdentityOf(id)
	res := o.Relay.BroadcastRoom(room, id, PeerJoinedEvent{
		Type: EvtPeerJoined,
		Peer: PeerInfo{ID: id, Name: ident.Name, Metadata: ident.Metadata},
	})
	kicks := o.slowMembers(room, res)

	o.publishRoomState(room)
	mu.Unlock()

	o.kick(kicks)
}

// Signal is a pure relay; no state change.
func (o *Orchestrator) Signal(from, to domain.ConnID, data json.RawMessage) {
	if len(data) == 0 {
		o.Relay.SendTo(from, ErrorEvent{Type: EvtError, Error: "signal data is required"})
		return
	}
	room, _ := o.Registry.RoomOf(from)
	res := o.Relay.RelaySignal(from, to, data)
	o.kick(o.slowMembers(room, res))
}

// ChatMessage is a pure relay; no state change. Non-string text produces
// zero outbound events.
func (o *Orchestrator) ChatMessage(from domain.ConnID, room domain.RoomName, text any) {
	s, ok := text.(string)
	if !ok {
		log.Debug().Str("module", "hub.orch").Str("conn", string(from)).Msg("chat dropped, text is not a string")
		return
	}
	res := o.Relay.RelayChat(from, room, s)
	o.kick(o.slowMembers(room, res))
}

// Leave removes the connection from its active room, if any.
func (o *Orchestrator) Leave(id domain.ConnID) {
	room, ok := o.Registry.RoomOf(id)
	if !ok {
		return
	}
	o.leaveRoom(id, room)
}

// Disconnect is the transport-driven terminal transition: leave the active
// room if any, then purge all registry state. Irreversible; the transport
// dispatches no further events for this id.
func (o *Orchestrator) Disconnect(id domain.ConnID, reason string) {
	log.Info().Str("module", "hub.orch").Str("conn", string(id)).Str("reason", reason).Msg("disconnect")
	o.Leave(id)
	o.Registry.Remove(id)
}

// leaveRoom runs the full departure sequence for one room: peer-left notice
// to the remaining members, membership and association removal, then
// delta+roster broadcast.
func (o *Orchestrator) leaveRoom(id domain.ConnID, room domain.RoomName) {
	mu := o.roomLock(room)
	mu.Lock()

	ident := o.Registry.IdentityOf(id)
	res := o.Relay.BroadcastRoom(room, id, PeerLeftEvent{
		Type: EvtPeerLeft,
		Peer: PeerInfo{ID: id, Name: ident.Name, Metadata: ident.Metadata},
	})
	kicks := o.slowMembers(room, res)

	o.Tracker.RemoveMember(room, id)
	o.Registry.SetRoom(id, "")
	log.Info().Str("module", "hub.orch").Str("conn", string(id)).Str("room", string(room)).Msg("left room")

	o.publishRoomState(room)
	mu.Unlock()

	o.kick(kicks)
}

// publishRoomState broadcasts the membership delta (only when non-empty) and
// the full roster to the entire room. Caller holds the room lock.
func (o *Orchestrator) publishRoomState(room domain.RoomName) {
	now := time.Now().UnixMilli()

	delta := o.Tracker.ComputeDelta(room)
	if !delta.Empty() {
		o.Relay.BroadcastRoom(room, "", RoomDeltaEvent{
			Type:      EvtRoomDelta,
			Joined:    delta.Joined,
			Left:      delta.Left,
			Timestamp: now,
		})
	}

	members := o.Tracker.Roster(room, "")
	if len(members) == 0 {
		return
	}
	o.Relay.BroadcastRoom(room, "", RoomMembersEvent{
		Type:      EvtRoomMembers,
		Members:   members,
		Count:     len(members),
		Timestamp: now,
	})
}

// slowMembers applies the backpressure policy to dropped deliveries and
// returns the members to evict. Eviction happens outside the room lock.
func (o *Orchestrator) slowMembers(room domain.RoomName, res PublishResult) []domain.ConnID {
	if o.Policy == nil {
		return nil
	}
	var kicks []domain.ConnID
	for _, slow := range res.Dropped {
		switch o.Policy.OnBackpressure(room, slow) {
		case KickMember:
			kicks = append(kicks, slow)
		case DropFrame, NoAction:
		}
	}
	return kicks
}

func (o *Orchestrator) kick(ids []domain.ConnID) {
	for _, id := range ids {
		log.Warn().Str("module", "hub.orch").Str("conn", string(id)).Msg("kicking slow member")
		o.Leave(id)
	}
}
