package hub

import (
	"sync"

	"github.com/rs/zerolog/log"

	"github.com/huddlenet/huddle/internal/domain"
)

type connEntry struct {
	Identity domain.Identity
	Room     domain.RoomName
	Conn     Conn
}

// Registry owns per-connection state: display identity, current room and the
// transport endpoint. It never emits notifications; callers sequence those.
type Registry struct {
	mu    sync.RWMutex
	conns map[domain.ConnID]*connEntry
}

func NewRegistry() *Registry {
	return &Registry{conns: make(map[domain.ConnID]*connEntry)}
}

// Bind registers the transport endpoint for a new connection.
func (r *Registry) Bind(id domain.ConnID, conn Conn) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.conns[id] = &connEntry{Identity: domain.DefaultIdentity(), Conn: conn}
	log.Info().Str("module", "hub.registry").Str("conn", string(id)).Msg("bound connection")
}

// SetIdentity sanitizes and stores name/metadata for the connection.
// Never fails: invalid input degrades to defaults rather than being rejected.
func (r *Registry) SetIdentity(id domain.ConnID, name string, meta map[string]string) {
	ident := domain.Identity{
		Name:     domain.SanitizeName(name),
		Metadata: domain.SanitizeMetadata(meta),
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if e, ok := r.conns[id]; ok {
		e.Identity = ident
		log.Info().Str("module", "hub.registry").Str("conn", string(id)).Str("name", ident.Name).Msg("updated identity")
	}
}

// SetRoom records the connection's current room. Empty clears it.
func (r *Registry) SetRoom(id domain.ConnID, room domain.RoomName) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if e, ok := r.conns[id]; ok {
		e.Room = room
	}
}

// RoomOf reports the connection's active room, if any.
func (r *Registry) RoomOf(id domain.ConnID) (domain.RoomName, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	e, ok := r.conns[id]
	if !ok || e.Room == "" {
		return "", false
	}
	return e.Room, true
}

// IdentityOf resolves a connection's display identity. Lookups never fail:
// unknown ids resolve to the documented default, since callers may query ids
// that have just disconnected.
func (r *Registry) IdentityOf(id domain.ConnID) domain.Identity {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if e, ok := r.conns[id]; ok {
		return e.Identity
	}
	return domain.DefaultIdentity()
}

// ConnOf returns the transport endpoint for the connection.
func (r *Registry) ConnOf(id domain.ConnID) (Conn, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	e, ok := r.conns[id]
	if !ok || e.Conn == nil {
		return nil, false
	}
	return e.Conn, true
}

// Remove purges all stored state for the connection.
func (r *Registry) Remove(id domain.ConnID) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.conns, id)
	log.Info().Str("module", "hub.registry").Str("conn", string(id)).Msg("removed connection")
}
