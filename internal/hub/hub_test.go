package hub

import (
	"encoding/json"
	"errors"
	"sync"
	"testing"

	"github.com/huddlenet/huddle/internal/domain"
)

// fakeConn records every frame delivered to it. Setting full makes TrySend
// fail the way a saturated send buffer does.
type fakeConn struct {
	mu     sync.Mutex
	frames []Frame
	full   bool
}

func (c *fakeConn) TrySend(f Frame) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.full {
		return errors.New("backpressure")
	}
	c.frames = append(c.frames, f)
	return nil
}

// events decodes recorded frames into their type tag plus raw payload.
func (c *fakeConn) events(t *testing.T) []map[string]json.RawMessage {
	t.Helper()
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]map[string]json.RawMessage, 0, len(c.frames))
	for _, f := range c.frames {
		var m map[string]json.RawMessage
		if err := json.Unmarshal(f, &m); err != nil {
			t.Fatalf("bad frame %s: %v", f, err)
		}
		out = append(out, m)
	}
	return out
}

func (c *fakeConn) eventTypes(t *testing.T) []string {
	t.Helper()
	var types []string
	for _, e := range c.events(t) {
		var typ string
		if err := json.Unmarshal(e["type"], &typ); err != nil {
			t.Fatalf("bad type field: %v", err)
		}
		types = append(types, typ)
	}
	return types
}

func (c *fakeConn) reset() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.frames = nil
}

func (c *fakeConn) count() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.frames)
}

func newTestHub(policy RelayPolicy) (*Orchestrator, *Registry, *Tracker) {
	registry := NewRegistry()
	tracker := NewTracker(registry)
	relay := NewRelay(registry, tracker, policy)
	return NewOrchestrator(registry, tracker, relay), registry, tracker
}

// connect wires a fake connection into the hub and returns it.
func connect(o *Orchestrator, id domain.ConnID) *fakeConn {
	c := &fakeConn{}
	o.Connect(id, c)
	return c
}

func hasEvent(t *testing.T, c *fakeConn, want string) bool {
	t.Helper()
	for _, typ := range c.eventTypes(t) {
		if typ == want {
			return true
		}
	}
	return false
}
