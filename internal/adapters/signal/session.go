package signal

import (
	"encoding/json"

	"github.com/rs/zerolog/log"

	"github.com/huddlenet/huddle/internal/domain"
	"github.com/huddlenet/huddle/internal/hub"
)

// handleEvent dispatches one inbound wire event. Every event is a tagged
// JSON envelope; each case has its own payload shape, validated here before
// it reaches the orchestrator. A panic while applying an event is contained
// to that event: the session and the process keep running.
func (ctl *Controller) handleEvent(sid domain.ConnID, c *WsConn, data []byte) {
	defer func() {
		if r := recover(); r != nil {
			log.Error().Any("panic", r).Str("module", "signal").Str("conn", string(sid)).Msg("event handler panicked, event not applied")
		}
	}()

	var env struct {
		Type string `json:"type"`
	}
	if err := json.Unmarshal(data, &env); err != nil {
		log.Warn().Err(err).Str("module", "signal").Str("conn", string(sid)).Msg("bad json")
		return
	}

	switch env.Type {
	case "join":
		ctl.handleJoin(sid, c, data)
	case "signal":
		ctl.handleSignal(sid, data)
	case "chatMessage":
		ctl.handleChat(sid, data)
	case "leave":
		ctl.Orch.Leave(sid)
	case "ping":
		ctl.sendJSON(c, map[string]string{"type": "pong"})
	default:
		// "disconnect" is transport-originated only; a client sending it
		// lands here and is ignored like any unknown type.
		log.Warn().Str("module", "signal").Str("type", env.Type).Msg("unknown event")
	}
}

func (ctl *Controller) sendJSON(c *WsConn, v any) {
	b, err := json.Marshal(v)
	if err != nil {
		log.Error().Err(err).Str("module", "signal").Msg("sendJSON marshal")
		return
	}
	_ = c.TrySend(b)
}

func (ctl *Controller) handleJoin(sid domain.ConnID, c *WsConn, data []byte) {
	type joinPayload struct {
		Type       string            `json:"type"`
		Room       string            `json:"room"`
		Name       string            `json:"name,omitempty"`
		ClientMeta map[string]string `json:"clientMeta,omitempty"`
	}
	var p joinPayload
	if err := json.Unmarshal(data, &p); err != nil {
		log.Warn().Err(err).Str("module", "signal").Msg("bad join payload")
		ctl.sendJSON(c, hub.ErrorEvent{Type: hub.EvtError, Error: "bad_payload"})
		return
	}

	if !ctl.Limiter.Allow(sid) {
		log.Warn().Str("module", "signal").Str("conn", string(sid)).Msg("join rate limited")
		ctl.sendJSON(c, hub.ErrorEvent{Type: hub.EvtError, Error: "too_many_joins"})
		return
	}

	log.Info().Str("module", "signal").Str("conn", string(sid)).Str("room", p.Room).Msg("join")
	ctl.Orch.Join(sid, domain.RoomName(p.Room), p.Name, p.ClientMeta)
}

func (ctl *Controller) handleSignal(sid domain.ConnID, data []byte) {
	type signalPayload struct {
		Type string          `json:"type"`
		To   string          `json:"to,omitempty"`
		Data json.RawMessage `json:"data"`
	}
	var p signalPayload
	if err := json.Unmarshal(data, &p); err != nil {
		log.Warn().Err(err).Str("module", "signal").Msg("bad signal payload")
		return
	}
	ctl.Orch.Signal(sid, domain.ConnID(p.To), p.Data)
}

func (ctl *Controller) handleChat(sid domain.ConnID, data []byte) {
	// Text is decoded loosely on purpose: the hub decides what a malformed
	// text value means (silent drop), not the codec.
	type chatPayload struct {
		Type string `json:"type"`
		Room string `json:"room"`
		Text any    `json:"text"`
	}
	var p chatPayload
	if err := json.Unmarshal(data, &p); err != nil {
		log.Warn().Err(err).Str("module", "signal").Msg("bad chat payload")
		return
	}
	ctl.Orch.ChatMessage(sid, domain.RoomName(p.Room), p.Text)
}
