package reactive

import "sync"

// ContextHandle is the minimal view of a Context that the stores need:
// enough to dedupe by id and to answer route-based broadcast queries
// (spec.md §4.9 case 3). viactx.Context satisfies this structurally.
type ContextHandle interface {
	ID() string
	Route() string
}

// Store holds the three scope-keyed maps described in spec.md §3
// (ScopeRegistry, SignalStore, ActionStore) plus the global registry of
// every live context, and enforces the "scope garbage collection" rule:
// when a scope's last context leaves, its SignalStore and ActionStore
// entries are dropped as a side effect.
//
// A single Store is owned by the Application and is the only place in
// via where the scoped maps are mutated — matching the single
// scheduling domain described in spec.md §5, guarded here with a mutex
// so action/timer goroutines can call in safely.
type Store struct {
	mu            sync.Mutex
	contexts      map[string]ContextHandle
	scopeContexts map[string]map[string]struct{}
	signals       map[string]map[string]*Signal
	actions       map[string]map[string]*Action
}

// NewStore creates an empty Store.
func NewStore() *Store {
	return &Store{
		contexts:      make(map[string]ContextHandle),
		scopeContexts: make(map[string]map[string]struct{}),
		signals:       make(map[string]map[string]*Signal),
		actions:       make(map[string]map[string]*Action),
	}
}

// RegisterScope adds ctx to the registry under scopeStr, registering
// ctx in the global context set if it is not already known.
func (st *Store) RegisterScope(scopeStr string, ctx ContextHandle) {
	st.mu.Lock()
	defer st.mu.Unlock()

	st.contexts[ctx.ID()] = ctx

	set, ok := st.scopeContexts[scopeStr]
	if !ok {
		set = make(map[string]struct{})
		st.scopeContexts[scopeStr] = set
	}
	set[ctx.ID()] = struct{}{}
}

// UnregisterScope removes contextID from scopeStr. It reports whether
// the scope became empty as a result, and if so, drops the scope's
// SignalStore/ActionStore entries (the GC rule of spec.md §4.3).
func (st *Store) UnregisterScope(scopeStr, contextID string) bool {
	st.mu.Lock()
	defer st.mu.Unlock()

	set, ok := st.scopeContexts[scopeStr]
	if !ok {
		return false
	}
	delete(set, contextID)
	if len(set) > 0 {
		return false
	}

	delete(st.scopeContexts, scopeStr)
	delete(st.signals, scopeStr)
	delete(st.actions, scopeStr)
	return true
}

// RemoveContext drops contextID from the global context registry. Call
// this once a context is fully destroyed (after it has already been
// unregistered from every scope it belonged to).
func (st *Store) RemoveContext(contextID string) {
	st.mu.Lock()
	delete(st.contexts, contextID)
	st.mu.Unlock()
}

// ContextsIn returns the contexts registered directly under scopeStr.
func (st *Store) ContextsIn(scopeStr string) []ContextHandle {
	st.mu.Lock()
	defer st.mu.Unlock()
	return st.contextsInLocked(scopeStr)
}

func (st *Store) contextsInLocked(scopeStr string) []ContextHandle {
	set, ok := st.scopeContexts[scopeStr]
	if !ok {
		return nil
	}
	out := make([]ContextHandle, 0, len(set))
	for id := range set {
		if ctx, ok := st.contexts[id]; ok {
			out = append(out, ctx)
		}
	}
	return out
}

// ContextsByPattern returns every context registered under a scope
// matching pattern. If pattern has no wildcard this is equivalent to
// ContextsIn; a wildcard pattern iterates every known scope.
func (st *Store) ContextsByPattern(pattern string, matches func(scope, pattern string) bool) []ContextHandle {
	st.mu.Lock()
	defer st.mu.Unlock()

	if !containsWildcard(pattern) {
		return st.contextsInLocked(pattern)
	}

	seen := make(map[string]struct{})
	var out []ContextHandle
	for scopeStr := range st.scopeContexts {
		if !matches(scopeStr, pattern) {
			continue
		}
		for _, ctx := range st.contextsInLocked(scopeStr) {
			if _, dup := seen[ctx.ID()]; dup {
				continue
			}
			seen[ctx.ID()] = struct{}{}
			out = append(out, ctx)
		}
	}
	return out
}

func containsWildcard(s string) bool {
	for i := 0; i < len(s); i++ {
		if s[i] == '*' {
			return true
		}
	}
	return false
}

// AllContexts returns every context known to the store, regardless of
// scope membership. The Application's "global" and bare-"route"
// broadcasts do not call it; they iterate the Application's own
// id→Context index (see DESIGN.md).
func (st *Store) AllContexts() []ContextHandle {
	st.mu.Lock()
	defer st.mu.Unlock()
	out := make([]ContextHandle, 0, len(st.contexts))
	for _, ctx := range st.contexts {
		out = append(out, ctx)
	}
	return out
}

// ContextsByRoute returns every known context whose Route() equals route.
func (st *Store) ContextsByRoute(route string) []ContextHandle {
	st.mu.Lock()
	defer st.mu.Unlock()
	var out []ContextHandle
	for _, ctx := range st.contexts {
		if ctx.Route() == route {
			out = append(out, ctx)
		}
	}
	return out
}

// GetOrCreateSignal returns the existing signal at scopeStr/id if one
// exists (the shared-signal identity rule of spec.md §4.4, "no value
// overwrite"), otherwise constructs and stores a new one from factory.
func (st *Store) GetOrCreateSignal(scopeStr, id string, factory func() *Signal) (sig *Signal, created bool) {
	st.mu.Lock()
	defer st.mu.Unlock()

	bucket, ok := st.signals[scopeStr]
	if !ok {
		bucket = make(map[string]*Signal)
		st.signals[scopeStr] = bucket
	}
	if existing, ok := bucket[id]; ok {
		return existing, false
	}
	sig = factory()
	bucket[id] = sig
	return sig, true
}

// SignalsIn returns every signal registered under scopeStr.
func (st *Store) SignalsIn(scopeStr string) []*Signal {
	st.mu.Lock()
	defer st.mu.Unlock()
	bucket := st.signals[scopeStr]
	out := make([]*Signal, 0, len(bucket))
	for _, sig := range bucket {
		out = append(out, sig)
	}
	return out
}

// GetOrCreateAction returns the existing action at scopeStr/id if one
// exists ("reuse it without registering a new callable"), otherwise
// registers and returns a new one built from fn.
func (st *Store) GetOrCreateAction(scopeStr, id string, fn ActionFunc) (action *Action, created bool) {
	st.mu.Lock()
	defer st.mu.Unlock()

	bucket, ok := st.actions[scopeStr]
	if !ok {
		bucket = make(map[string]*Action)
		st.actions[scopeStr] = bucket
	}
	if existing, ok := bucket[id]; ok {
		return existing, false
	}
	action = &Action{ID: id, Scope: scopeStr, Fn: fn}
	bucket[id] = action
	return action, true
}

// ActionIn looks up the action registered under scopeStr/id.
func (st *Store) ActionIn(scopeStr, id string) (*Action, bool) {
	st.mu.Lock()
	defer st.mu.Unlock()
	bucket, ok := st.actions[scopeStr]
	if !ok {
		return nil, false
	}
	a, ok := bucket[id]
	return a, ok
}
