// Package customfield resolves type mappings for Strapi custom-field
// attributes. Custom fields are defined by plugins installed in the target
// project, so their mappings cannot be known when this tool is built; they
// are resolved at run time by identifier string instead.
package customfield

import (
	"encoding/json"
	"strings"
	"sync"

	"github.com/cockroachdb/errors"
)

// Mapper converts a custom-field attribute's opaque options value into a
// TypeScript type expression. The returned string is spliced into the
// generated output verbatim; its syntactic validity is the author's
// responsibility.
type Mapper func(options json.RawMessage) (string, error)

// Resolver looks up the Mapper for a custom-field identifier. The
// identifier has its "plugin::" namespace prefix already stripped
// (e.g. "color-picker.color"). Resolution must be idempotent: repeated
// calls for the same identifier yield the same result.
type Resolver interface {
	Resolve(uid string) (Mapper, bool)
}

// StripNamespace removes a leading "plugin::" prefix from a custom-field
// identifier.
func StripNamespace(uid string) string {
	return strings.TrimPrefix(uid, "plugin::")
}

// Registry is a compiled-in Resolver backed by an in-memory table. It
// serves extension authors who are known at build time and embed this tool
// as a library.
type Registry struct {
	mu      sync.RWMutex
	mappers map[string]Mapper
}

// NewRegistry returns an empty Registry.
func NewRegistry() *Registry {
	return &Registry{mappers: make(map[string]Mapper)}
}

// Register adds a mapper for the given identifier. Registering the same
// identifier twice is an error.
func (r *Registry) Register(uid string, fn Mapper) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.mappers[uid]; exists {
		return errors.Newf("custom field mapper already registered: %s", uid)
	}
	r.mappers[uid] = fn
	return nil
}

// Resolve implements Resolver.
func (r *Registry) Resolve(uid string) (Mapper, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	fn, ok := r.mappers[uid]
	return fn, ok
}

// Chain tries each Resolver in order and returns the first hit.
type Chain []Resolver

// Resolve implements Resolver.
func (c Chain) Resolve(uid string) (Mapper, bool) {
	for _, r := range c {
		if fn, ok := r.Resolve(uid); ok {
			return fn, true
		}
	}
	return nil, false
}
