// Package domain contains entity without logic, just meta-data
package domain

import "strings"

const (
	MaxNameLen      = 36
	MaxMetaValueLen = 64

	// DefaultName is used whenever a client supplies no usable display name.
	DefaultName = "Anonymous"
)

// ConnID is the transport-assigned identifier of one live connection.
// Opaque to the hub; stable for the connection's lifetime.
type ConnID string

// Metadata fields accepted from clients. Anything else is dropped.
var metaWhitelist = map[string]struct{}{
	"device":   {},
	"locale":   {},
	"timezone": {},
	"region":   {},
	"agent":    {},
}

// Identity is the resolved display identity of a connection.
type Identity struct {
	Name     string            `json:"name"`
	Metadata map[string]string `json:"metadata"`
}

// DefaultIdentity is what lookups resolve to for unknown or departed
// connections. Identity lookups never fail.
func DefaultIdentity() Identity {
	return Identity{Name: DefaultName, Metadata: map[string]string{}}
}

// SanitizeName trims the raw name, caps its length and substitutes
// DefaultName for anything empty.
func SanitizeName(raw string) string {
	name := strings.TrimSpace(raw)
	if name == "" {
		return DefaultName
	}
	if len(name) > MaxNameLen {
		name = name[:MaxNameLen]
	}
	return name
}

// SanitizeMetadata keeps only whitelisted fields, each capped at
// MaxMetaValueLen. Unknown fields are dropped, not stored. Never returns nil.
func SanitizeMetadata(raw map[string]string) map[string]string {
	out := make(map[string]string, len(metaWhitelist))
	for k, v := range raw {
		if _, ok := metaWhitelist[k]; !ok {
			continue
		}
		v = strings.TrimSpace(v)
		if v == "" {
			continue
		}
		if len(v) > MaxMetaValueLen {
			v = v[:MaxMetaValueLen]
		}
		out[k] = v
	}
	return out
}
