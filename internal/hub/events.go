package hub

import (
	"encoding/json"

	"github.com/huddlenet/huddle/internal/domain"
)

// Frame is a marshalled outbound event, ready for the transport.
type Frame []byte

// Conn abstracts the messaging transport endpoint of one connection.
// Owned by the adapter; the adapter must Close() it.
type Conn interface {
	TrySend(Frame) error
}

// Outbound event names on the wire.
const (
	EvtExistingPeers = "existingPeers"
	EvtPeerJoined    = "peer-joined"
	EvtPeerLeft      = "peer-left"
	EvtSignal        = "signal"
	EvtChatMessage   = "chatMessage"
	EvtRoomMembers   = "roomMembers"
	EvtRoomDelta     = "roomDelta"
	EvtError         = "error"
	EvtRequireName   = "require-name"
)

// PeerInfo is a read-only identity view of one room member.
type PeerInfo struct {
	ID       domain.ConnID     `json:"id"`
	Name     string            `json:"name"`
	Metadata map[string]string `json:"metadata"`
}

// Delta is the set of connections that joined and left a room since the
// last retained snapshot for that room.
type Delta struct {
	Joined []PeerInfo `json:"joined"`
	Left   []PeerInfo `json:"left"`
}

func (d Delta) Empty() bool {
	return len(d.Joined) == 0 && len(d.Left) == 0
}

type ExistingPeersEvent struct {
	Type  string     `json:"type"`
	Peers []PeerInfo `json:"peers"`
}

type PeerJoinedEvent struct {
	Type string   `json:"type"`
	Peer PeerInfo `json:"peer"`
}

type PeerLeftEvent struct {
	Type string   `json:"type"`
	Peer PeerInfo `json:"peer"`
}

// SignalEvent carries opaque negotiation data between peers. The hub never
// interprets Data.
type SignalEvent struct {
	Type string          `json:"type"`
	From domain.ConnID   `json:"from"`
	Data json.RawMessage `json:"data"`
}

type ChatMessageEvent struct {
	Type string        `json:"type"`
	From domain.ConnID `json:"from"`
	Name string        `json:"name"`
	Text string        `json:"text"`
}

type RoomMembersEvent struct {
	Type      string     `json:"type"`
	Members   []PeerInfo `json:"members"`
	Count     int        `json:"count"`
	Timestamp int64      `json:"timestamp"`
}

type RoomDeltaEvent struct {
	Type      string     `json:"type"`
	Joined    []PeerInfo `json:"joined"`
	Left      []PeerInfo `json:"left"`
	Timestamp int64      `json:"timestamp"`
}

// ErrorEvent is a single advisory notice sent to the offending connection
// only; it never affects other connections.
type ErrorEvent struct {
	Type  string `json:"type"`
	Error string `json:"error"`
}
