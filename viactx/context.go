package viactx

import (
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/go-via/via/reactive"
	"github.com/go-via/via/render"
	"github.com/go-via/via/scope"
)

// ViewFunc is the callable form of a registered view (spec.md §4.4):
// invoked with isUpdate=false for the initial GET render and
// isUpdate=true for every subsequent sync.
type ViewFunc func(isUpdate bool) (string, error)

// ActionFunc is the developer-facing action callable. spec.md §9's
// Design Notes mandate that actions always receive the Context.
type ActionFunc func(ctx *Context) error

// Context is the per-connection façade of spec.md §4.4: it mirrors one
// browser tab's connection (or, for a component, one node in that
// tab's component tree) and is the single entry point developer page
// handlers use to create signals, actions, and views.
type Context struct {
	id          string
	route       string
	sessionID   string
	namespace   string
	routeParams map[string]string

	mu             sync.Mutex
	scopes         []string
	signals        map[string]*reactive.Signal // TAB-local; only populated on the signal-host context
	actions        map[string]*reactive.Action // TAB-local; only populated on the action-host context
	view           ViewFunc
	viewIsSet      bool
	cacheUpdates   bool
	cssID          string
	componentOrder []*Context

	parent *Context
	host   Host

	patchQueue *PatchQueue
	life       *lifecycle
}

// New constructs a page-level Context for a fresh GET request.
// sessionID may be empty if the request carried no session cookie yet
// (session-scoped signals will then fail to resolve, per spec.md §4.4).
func New(host Host, route, sessionID string, routeParams map[string]string) *Context {
	c := &Context{
		id:           uuid.NewString(),
		route:        route,
		sessionID:    sessionID,
		routeParams:  routeParams,
		scopes:       []string{scope.Tab},
		signals:      make(map[string]*reactive.Signal),
		actions:      make(map[string]*reactive.Action),
		cacheUpdates: true,
		host:         host,
		life:         newLifecycle(),
	}
	c.patchQueue = NewPatchQueue(QueueCapacity, func(p Patch) {
		log.Printf("viactx: dropping oldest patch (kind=%d) for context %s: queue full", p.Kind, c.id)
	})
	return c
}

// ID returns the context's opaque id, satisfying reactive.ContextHandle.
func (c *Context) ID() string { return c.id }

// Route returns the registered route pattern this context was created
// for, satisfying reactive.ContextHandle.
func (c *Context) Route() string { return c.route }

// SessionID returns the browser session id (from the via_session_id
// cookie), or "" if none was present.
func (c *Context) SessionID() string { return c.sessionID }

// PathParam returns the named route parameter, or "" if absent.
func (c *Context) PathParam(name string) string { return c.routeParams[name] }

// IsComponent reports whether this context is a component node rather
// than a page-level context.
func (c *Context) IsComponent() bool { return c.parent != nil }

// Root walks up to the page-level context that hosts this context's
// signals, actions, and patch queue (spec.md §3: "A component context
// additionally holds a back-reference to its parent page context; its
// signals and patch queue are hosted by the parent").
func (c *Context) Root() *Context {
	if c.parent == nil {
		return c
	}
	return c.parent.Root()
}

// Scopes returns a copy of the context's ordered scope list.
func (c *Context) Scopes() []string {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]string, len(c.scopes))
	copy(out, c.scopes)
	return out
}

// PrimaryScope returns the first entry of the scope list.
func (c *Context) PrimaryScope() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	if len(c.scopes) == 0 {
		return scope.Tab
	}
	return c.scopes[0]
}

// SetScope replaces the entire scope list with a single scope s.
func (c *Context) SetScope(s string) {
	c.mu.Lock()
	c.scopes = []string{s}
	c.mu.Unlock()
}

// AddScope appends s to the scope list if it is not already present.
func (c *Context) AddScope(s string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	for _, existing := range c.scopes {
		if existing == s {
			return
		}
	}
	c.scopes = append(c.scopes, s)
}

// resolveScope implements the signal/action scope-resolution rule of
// spec.md §4.4: an explicit scope wins; otherwise inherit the primary
// scope unless it is "tab" (stay TAB-local, returned as ""); "session"
// is substituted with "session:<sessionId>".
func (c *Context) resolveScope(explicit string) (resolved string, err error) {
	s := explicit
	if s == "" {
		primary := c.PrimaryScope()
		if primary == scope.Tab {
			return "", nil
		}
		s = primary
	}
	if s == scope.Session {
		if c.sessionID == "" {
			return "", fmt.Errorf("viactx: signal/action scoped to session but context %s has no session id", c.id)
		}
		return scope.Build(scope.Session, c.sessionID), nil
	}
	return s, nil
}

// --- Signals ---

type signalConfig struct {
	name          string
	scope         string
	autoBroadcast bool
}

// SignalOption configures Context.Signal.
type SignalOption func(*signalConfig)

// WithName sets the developer-facing signal name; if omitted, a random
// name is generated (still unique per context for TAB signals).
func WithName(name string) SignalOption { return func(c *signalConfig) { c.name = name } }

// WithScope pins the signal to an explicit scope instead of inheriting
// the context's primary scope.
func WithScope(s string) SignalOption { return func(c *signalConfig) { c.scope = s } }

// WithAutoBroadcast controls whether changing this signal's value can
// trigger a broadcast of its scope (default true).
func WithAutoBroadcast(b bool) SignalOption { return func(c *signalConfig) { c.autoBroadcast = b } }

// Signal creates (or, for a shared scope, looks up) a reactive signal,
// per the creation rules of spec.md §4.4.
func (c *Context) Signal(initial any, opts ...SignalOption) (*reactive.Signal, error) {
	cfg := signalConfig{autoBroadcast: true}
	for _, opt := range opts {
		opt(&cfg)
	}
	if cfg.name == "" {
		cfg.name = uuid.NewString()
	}

	resolvedScope, err := c.resolveScope(cfg.scope)
	if err != nil {
		return nil, err
	}

	host := c.Root()

	if resolvedScope == "" {
		id := c.tabSignalID(cfg.name)
		host.mu.Lock()
		defer host.mu.Unlock()
		if existing, ok := host.signals[id]; ok {
			return existing, nil
		}
		sig := reactive.New(id, cfg.name, initial, "", cfg.autoBroadcast, c.host)
		host.signals[id] = sig
		return sig, nil
	}

	id := scope.Sanitize(resolvedScope + ":" + cfg.name)
	sig, _ := c.host.Store().GetOrCreateSignal(resolvedScope, id, func() *reactive.Signal {
		return reactive.New(id, cfg.name, initial, resolvedScope, cfg.autoBroadcast, c.host)
	})
	return sig, nil
}

func (c *Context) tabSignalID(name string) string {
	if c.namespace != "" {
		return scope.Sanitize(c.namespace + "." + name)
	}
	return scope.Sanitize(name + "_" + c.Root().id)
}

// --- Actions ---

type actionConfig struct {
	name  string
	scope string
}

// ActionOption configures Context.Action.
type ActionOption func(*actionConfig)

// WithActionName names a scoped action; mandatory for non-TAB scopes.
func WithActionName(name string) ActionOption { return func(c *actionConfig) { c.name = name } }

// WithActionScope pins the action to an explicit scope instead of
// inheriting the context's primary scope.
func WithActionScope(s string) ActionOption { return func(c *actionConfig) { c.scope = s } }

// Action registers fn as a callable action, per the creation rules of
// spec.md §4.4.
func (c *Context) Action(fn ActionFunc, opts ...ActionOption) (*reactive.Action, error) {
	cfg := actionConfig{}
	for _, opt := range opts {
		opt(&cfg)
	}

	resolvedScope, err := c.resolveScope(cfg.scope)
	if err != nil {
		return nil, err
	}

	wrapped := func(ctxAny any) error {
		ctx, ok := ctxAny.(*Context)
		if !ok {
			return fmt.Errorf("viactx: action invoked with non-Context argument")
		}
		return fn(ctx)
	}

	if resolvedScope == "" {
		id := uuid.NewString()
		action := &reactive.Action{ID: id, Scope: "", Fn: wrapped}
		host := c.Root()
		host.mu.Lock()
		host.actions[id] = action
		host.mu.Unlock()
		return action, nil
	}

	if cfg.name == "" {
		return nil, fmt.Errorf("viactx: a name is required for actions scoped outside tab")
	}
	id := cfg.name
	action, _ := c.host.Store().GetOrCreateAction(resolvedScope, id, wrapped)
	return action, nil
}

// --- View / render ---

// ViewOption configures Context.View.
type ViewOption func(*viewConfig)

type viewConfig struct {
	data         map[string]any
	block        string
	cacheUpdates *bool
}

// WithViewData supplies the template data map for a string-template view.
func WithViewData(data map[string]any) ViewOption { return func(c *viewConfig) { c.data = data } }

// WithViewBlock selects a named block within a string-template view.
func WithViewBlock(block string) ViewOption { return func(c *viewConfig) { c.block = block } }

// WithCacheUpdates toggles whether update (SSE) renders of this view
// may populate/use the render cache (default true); never affects
// initial-load renders, which are never cached (spec.md §4.5).
func WithCacheUpdates(b bool) ViewOption { return func(c *viewConfig) { c.cacheUpdates = &b } }

// View registers the view this context renders. v is either a plush
// template source string (rendered with WithViewData's data, and
// WithViewBlock's block if given) or a func(isUpdate bool) (string,
// error) invoked directly.
func (c *Context) View(v any, opts ...ViewOption) {
	cfg := viewConfig{}
	for _, opt := range opts {
		opt(&cfg)
	}

	c.mu.Lock()
	if cfg.cacheUpdates != nil {
		c.cacheUpdates = *cfg.cacheUpdates
	} else {
		c.cacheUpdates = true
	}
	c.mu.Unlock()

	switch fn := v.(type) {
	case func(isUpdate bool) (string, error):
		c.setView(fn)
	case ViewFunc:
		c.setView(fn)
	case string:
		c.setView(func(isUpdate bool) (string, error) {
			return render.RenderBlock(fn, cfg.block, cfg.data)
		})
	default:
		log.Printf("viactx: context %s: View called with unsupported type %T", c.id, v)
	}
}

func (c *Context) setView(fn ViewFunc) {
	c.mu.Lock()
	c.view = fn
	c.viewIsSet = true
	c.mu.Unlock()
}

func (c *Context) hasView() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.viewIsSet
}

func (c *Context) cacheUpdatesEnabled() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.cacheUpdates
}

// renderView invokes the registered view, applying the render decision
// table of spec.md §4.5 via the render cache's soft lock.
func (c *Context) renderView(isUpdate bool) (string, error) {
	c.mu.Lock()
	view := c.view
	c.mu.Unlock()
	if view == nil {
		return "", nil
	}

	decision := render.Decide(c.PrimaryScope(), isUpdate, c.cacheUpdatesEnabled())
	cache := c.host.RenderCache()

	timed := func() (string, error) {
		start := time.Now()
		html, err := view(isUpdate)
		c.host.RecordRenderDuration(time.Since(start))
		return html, err
	}

	if !decision.UseCache || cache == nil {
		return timed()
	}
	if !decision.WriteCache {
		if html, ok := cache.Get(c.PrimaryScope()); ok {
			return html, nil
		}
		return timed()
	}
	return cache.WithRenderLock(c.PrimaryScope(), timed)
}

// Render renders a plush template string directly, independent of the
// registered view — for use inside handler/view code that needs a
// one-off fragment.
func (c *Context) Render(template string, data map[string]any) (string, error) {
	return render.RenderTemplate(template, data)
}

// RenderString is a synonym for Render kept for parity with spec.md
// §4.4's renderString alias.
func (c *Context) RenderString(template string, data map[string]any) (string, error) {
	return render.RenderTemplate(template, data)
}

// --- Broadcast / lifecycle / timers ---

// Broadcast invalidates and re-syncs the context's primary scope.
func (c *Context) Broadcast() {
	c.host.Broadcast(c.PrimaryScope())
}

// OnCleanup registers cb to run when this context is finally torn down.
func (c *Context) OnCleanup(cb func()) { c.Root().life.onCleanup(cb) }

// OnDisconnect is a synonym for OnCleanup.
func (c *Context) OnDisconnect(cb func()) { c.OnCleanup(cb) }

// SetInterval starts a context-owned ticker invoking cb every interval,
// cancelled automatically when the context is cleaned up. Returns a
// timer id for symmetry with spec.md §4.4's signature; there is no
// ClearInterval in the spec, so cancellation is lifecycle-driven only.
func (c *Context) SetInterval(cb func(), interval time.Duration) string {
	id := uuid.NewString()
	c.Root().life.setInterval(id, interval, cb)
	return id
}

// ExecScript enqueues a script patch to run arbitrary JS in the browser.
func (c *Context) ExecScript(js string) {
	c.enqueue(Patch{Kind: KindScript, Script: js})
}

func (c *Context) enqueue(p Patch) {
	c.Root().patchQueue.Push(p)
}
