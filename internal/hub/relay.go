package hub

import (
	"encoding/json"

	"github.com/rs/zerolog/log"

	"github.com/huddlenet/huddle/internal/domain"
)

// PublishResult reports delivery stats/backpressure to the orchestrator.
type PublishResult struct {
	SentTo  int
	Dropped []domain.ConnID
}

// Relay routes marshalled events to one addressed connection or to all other
// members of a room. It never delivers a message back to its own sender and
// never blocks on a slow peer.
type Relay struct {
	Registry *Registry
	Tracker  *Tracker
	Policy   RelayPolicy
}

func NewRelay(registry *Registry, tracker *Tracker, policy RelayPolicy) *Relay {
	if policy != RelayPermissive {
		policy = RelayStrict
	}
	return &Relay{Registry: registry, Tracker: tracker, Policy: policy}
}

// SendTo marshals v and delivers it to one connection. Unknown targets are
// silently skipped; never a fatal condition.
func (r *Relay) SendTo(id domain.ConnID, v any) bool {
	conn, ok := r.Registry.ConnOf(id)
	if !ok {
		log.Debug().Str("module", "hub.relay").Str("conn", string(id)).Msg("send skipped, unknown target")
		return false
	}
	frame, err := json.Marshal(v)
	if err != nil {
		log.Error().Err(err).Str("module", "hub.relay").Msg("marshal event")
		return false
	}
	if err := conn.TrySend(frame); err != nil {
		log.Warn().Err(err).Str("module", "hub.relay").Str("conn", string(id)).Msg("send dropped")
		return false
	}
	return true
}

// BroadcastRoom marshals v once and fans it out to every member of room
// except `except`.
func (r *Relay) BroadcastRoom(room domain.RoomName, except domain.ConnID, v any) PublishResult {
	frame, err := json.Marshal(v)
	if err != nil {
		log.Error().Err(err).Str("module", "hub.relay").Msg("marshal event")
		return PublishResult{}
	}

	res := PublishResult{}
	for _, id := range r.Tracker.MembersOf(room) {
		if id == except {
			continue
		}
		conn, ok := r.Registry.ConnOf(id)
		if !ok {
			continue
		}
		if err := conn.TrySend(frame); err != nil {
			res.Dropped = append(res.Dropped, id)
			continue
		}
		res.SentTo++
	}
	log.Debug().Str("module", "hub.relay").Str("room", string(room)).Int("sent_to", res.SentTo).Int("dropped", len(res.Dropped)).Msg("broadcast result")
	return res
}

// RelaySignal forwards opaque negotiation data. An explicit target wins over
// room broadcast and is delivered regardless of the target's membership.
// With no target and no active room the call is a silent no-op.
func (r *Relay) RelaySignal(from, to domain.ConnID, data json.RawMessage) PublishResult {
	room, joined := r.Registry.RoomOf(from)

	if to != "" {
		if r.Policy == RelayStrict && !joined {
			log.Debug().Str("module", "hub.relay").Str("conn", string(from)).Msg("signal dropped, sender has no room")
			return PublishResult{}
		}
		if r.SendTo(to, SignalEvent{Type: EvtSignal, From: from, Data: data}) {
			return PublishResult{SentTo: 1}
		}
		return PublishResult{}
	}

	if !joined {
		return PublishResult{}
	}
	return r.BroadcastRoom(room, from, SignalEvent{Type: EvtSignal, From: from, Data: data})
}

// RelayChat delivers a chat line to every other member of room, tagged with
// the sender's id and display name resolved at delivery time. Missing room
// or empty text is a silent no-op: malformed client messages must not crash
// or be echoed as errors on this channel.
func (r *Relay) RelayChat(from domain.ConnID, room domain.RoomName, text string) PublishResult {
	if room == "" || text == "" {
		return PublishResult{}
	}
	if _, joined := r.Registry.RoomOf(from); !joined && r.Policy == RelayStrict {
		log.Debug().Str("module", "hub.relay").Str("conn", string(from)).Msg("chat dropped, sender has no room")
		return PublishResult{}
	}
	ident := r.Registry.IdentityOf(from)
	return r.BroadcastRoom(room, from, ChatMessageEvent{
		Type: EvtChatMessage,
		From: from,
		Name: ident.Name,
		Text: text,
	})
}
