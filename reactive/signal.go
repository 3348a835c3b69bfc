// Package reactive implements the reactive value model of via: Signal,
// Action, and the scope-keyed stores (ScopeRegistry, SignalStore,
// ActionStore) that back sharing, broadcast fan-out, and the "scope
// garbage collection" rule of spec.md §4.3.
package reactive

import (
	"encoding/json"
	"reflect"
	"sync"
)

// Broadcaster is the capability a scoped Signal needs to trigger a
// broadcast of its own scope on change. Application implements this;
// Signal only depends on the interface to avoid an import cycle back
// into the application package.
type Broadcaster interface {
	Broadcast(scope string)
}

// Signal is a named reactive value, optionally bound to a scope and an
// auto-broadcast policy (spec.md §3).
type Signal struct {
	mu            sync.Mutex
	id            string
	name          string
	value         any
	changed       bool
	scope         string // "" means TAB-local
	autoBroadcast bool
	broadcaster   Broadcaster
}

// New constructs a Signal. id is the store key (unique across however
// wide the enclosing map is shared); name is the developer-facing key
// sent to the client in signal patches — the two differ because a
// TAB signal's store id folds in its owning context id to stay unique
// when a component tree shares one signal map, while the client only
// ever wants to see the plain name it declared.
//
// initial is normalised through a JSON round-trip so structured values
// are stored in their generic decoded JSON form (map[string]any /
// []any).
// Signal.changed starts true: a freshly created signal has never been
// synced to any client.
func New(id, name string, initial any, scopeStr string, autoBroadcast bool, broadcaster Broadcaster) *Signal {
	return &Signal{
		id:            id,
		name:          name,
		value:         normalize(initial),
		changed:       true,
		scope:         scopeStr,
		autoBroadcast: autoBroadcast,
		broadcaster:   broadcaster,
	}
}

// ID returns the signal's store key.
func (s *Signal) ID() string { return s.id }

// Name returns the developer-facing key used on the wire.
func (s *Signal) Name() string { return s.name }

// Scope returns the signal's scope, or "" if it is TAB-local.
func (s *Signal) Scope() string { return s.scope }

// Value returns the current value.
func (s *Signal) Value() any {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.value
}

// Changed reports whether the signal has unsynced changes.
func (s *Signal) Changed() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.changed
}

// MarkSynced clears the changed flag, per invariant (iii).
func (s *Signal) MarkSynced() {
	s.mu.Lock()
	s.changed = false
	s.mu.Unlock()
}

// Set updates the value. markChanged controls whether the changed flag
// is raised (invariant i); allowBroadcast controls whether this call is
// eligible to trigger an auto-broadcast (invariant ii) — it is still
// gated on the signal actually being scoped, autoBroadcast being on,
// and the value actually differing from the previous one.
func (s *Signal) Set(value any, markChanged, allowBroadcast bool) {
	next := normalize(value)

	s.mu.Lock()
	differs := !reflect.DeepEqual(s.value, next)
	s.value = next
	if markChanged {
		s.changed = true
	}
	shouldBroadcast := differs && allowBroadcast && s.autoBroadcast && s.scope != "" && s.broadcaster != nil
	scopeStr := s.scope
	broadcaster := s.broadcaster
	s.mu.Unlock()

	if shouldBroadcast {
		broadcaster.Broadcast(scopeStr)
	}
}

// normalize round-trips structured values through JSON so complex
// values are stored in their generic decoded JSON form. Scalars
// (string, bool, numeric, nil) pass through unchanged; maps and slices
// are normalized to map[string]any / []any.
func normalize(value any) any {
	switch value.(type) {
	case nil, string, bool, int, int8, int16, int32, int64,
		uint, uint8, uint16, uint32, uint64, float32, float64:
		return value
	}

	raw, err := json.Marshal(value)
	if err != nil {
		// Not JSON-encodable; keep the original value rather than lose it.
		return value
	}
	var decoded any
	if err := json.Unmarshal(raw, &decoded); err != nil {
		return value
	}
	return decoded
}
