// Package via is the reactive runtime itself: an Application that
// wires together the router, the scoped stores, the render cache, the
// observability surface and the HTTP endpoints described in spec.md
// §2, the way buffkit.Wire assembles its own Kit from smaller pieces.
package via

import (
	"log"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/securecookie"

	"github.com/go-via/via/asset"
	"github.com/go-via/via/auditlog"
	"github.com/go-via/via/reactive"
	"github.com/go-via/via/render"
	"github.com/go-via/via/router"
	"github.com/go-via/via/secure"
	"github.com/go-via/via/sse"
	"github.com/go-via/via/stats"
	"github.com/go-via/via/viactx"
)

// SessionCookieName is the cookie spec.md §6 requires on every page
// GET ("Sets session cookie via_session_id ... if absent").
const SessionCookieName = "via_session_id"

// SessionCookieTTL is the cookie's expiry, per spec.md §6 ("30-day
// expiry").
const SessionCookieTTL = 30 * 24 * time.Hour

// Config configures an Application, mirroring the shape of buffkit's
// own Config struct: a handful of developer-tunable knobs with sane
// zero-value defaults.
type Config struct {
	DevMode       bool
	DocumentTitle string
	SecurityKey   []byte // signs the via_session_id cookie; random if empty

	ClientScript     []byte // the bundled reactive client library
	ClientScriptPath string // defaults to /_datastar.js

	RenderCacheCapacity int // defaults to render.DefaultCapacity

	// AuditLogPath is the SQLite file backing the connection history
	// audit log. Empty means ":memory:" — still exercised, just not
	// durable across restarts.
	AuditLogPath string
}

// Application is the root object of spec.md §4.9: global state, the
// client registry, render stats, the render cache, and the broadcast
// orchestrator, plus the HTTP plumbing (router, asset manager, session
// cookie codec) that turns all of that into the five endpoint classes
// of spec.md §2.
type Application struct {
	cfg Config

	Router *router.Router
	Assets *asset.Manager

	store       *reactive.Store
	renderCache *render.Cache
	renderStats *stats.RenderStats
	registry    *stats.Registry

	cookies *securecookie.SecureCookie
	audit   *auditlog.Store

	mu          sync.Mutex
	globalState map[string]any
	contexts    map[string]*viactx.Context

	sseHandler   *sse.Handler
	clientScript http.HandlerFunc
}

// New constructs an Application. Call Wire-style setup (Assets.Pin,
// Router.Register) before serving traffic.
func New(cfg Config) *Application {
	if cfg.ClientScriptPath == "" {
		cfg.ClientScriptPath = "/_datastar.js"
	}
	if cfg.DocumentTitle == "" {
		cfg.DocumentTitle = "via"
	}
	if len(cfg.SecurityKey) == 0 {
		cfg.SecurityKey = securecookie.GenerateRandomKey(32)
	}
	if cfg.AuditLogPath == "" {
		cfg.AuditLogPath = ":memory:"
	}

	audit, err := auditlog.Open(cfg.AuditLogPath)
	if err != nil {
		logf("audit log disabled: %v", err)
	}

	app := &Application{
		cfg:         cfg,
		Router:      router.New((*viactx.Context)(nil)),
		Assets:      asset.NewManager(cfg.DevMode),
		store:       reactive.NewStore(),
		renderCache: render.NewCache(cfg.RenderCacheCapacity),
		renderStats: stats.NewRenderStats(),
		registry:    stats.NewRegistry(),
		cookies:     securecookie.New(cfg.SecurityKey, nil),
		audit:       audit,
		globalState: make(map[string]any),
		contexts:    make(map[string]*viactx.Context),
	}
	app.sseHandler = sse.NewHandler(app)

	if cfg.ClientScript != nil {
		app.Assets.Pin("via-client", cfg.ClientScriptPath, cfg.ClientScript)
		app.clientScript = asset.ServeBundle(cfg.ClientScript, time.Now())
	}

	return app
}

// --- viactx.Host ---

func (app *Application) Store() *reactive.Store      { return app.store }
func (app *Application) RenderCache() *render.Cache   { return app.renderCache }
func (app *Application) RecordRenderDuration(d time.Duration) {
	app.renderStats.Record(d)
}

// --- sse.Host ---

func (app *Application) Context(id string) (*viactx.Context, bool) {
	app.mu.Lock()
	defer app.mu.Unlock()
	ctx, ok := app.contexts[id]
	return ctx, ok
}

func (app *Application) Registry() *stats.Registry { return app.registry }

// Audit returns the Application itself as the narrow sse.Audit
// interface, nil-safe when the audit log failed to open.
func (app *Application) Audit() sse.Audit { return app }

func (app *Application) RecordConnect(id, remoteAddr string) error {
	if app.audit == nil {
		return nil
	}
	return app.audit.RecordConnect(id, remoteAddr)
}

func (app *Application) RecordDisconnect(id string) error {
	if app.audit == nil {
		return nil
	}
	return app.audit.RecordDisconnect(id)
}

// newContext creates and registers a fresh page-level Context for
// route, satisfying spec.md §4.4 ("Created on GET of a page").
func (app *Application) newContext(route, sessionID string, params map[string]string) *viactx.Context {
	ctx := viactx.New(app, route, sessionID, params)
	app.mu.Lock()
	app.contexts[ctx.ID()] = ctx
	app.mu.Unlock()
	return ctx
}

// Forget drops id from the application's id→Context index, called by
// viactx.Context.Destroy when it tears a context down for good.
func (app *Application) Forget(id string) {
	app.mu.Lock()
	delete(app.contexts, id)
	app.mu.Unlock()
}

// allContexts returns every live context, for the broadcast cases that
// iterate the whole process (spec.md §4.9 cases 1 and 2).
func (app *Application) allContexts() []*viactx.Context {
	app.mu.Lock()
	defer app.mu.Unlock()
	out := make([]*viactx.Context, 0, len(app.contexts))
	for _, c := range app.contexts {
		out = append(out, c)
	}
	return out
}

// GlobalState exposes the developer-facing global state map of
// spec.md §3 ("free-form developer state"). Concurrency-safe.
func (app *Application) GlobalState() *GlobalState { return (*GlobalState)(app) }

// GlobalState is Application viewed through the narrow Get/Set
// interface spec.md §4.9 describes ("Global state get/set is a simple
// map").
type GlobalState Application

func (g *GlobalState) Get(key string) any {
	a := (*Application)(g)
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.globalState[key]
}

func (g *GlobalState) Set(key string, value any) {
	a := (*Application)(g)
	a.mu.Lock()
	a.globalState[key] = value
	a.mu.Unlock()
}

// RenderStats exposes the render-duration accumulator for the /_stats
// handler.
func (app *Application) RenderStats() *stats.RenderStats { return app.renderStats }

// Middleware returns the baseline security-header middleware, pre-wired
// to the application's DevMode, per secure.Middleware's own doc
// comment on why it applies even though auth is a Non-goal.
func (app *Application) Middleware() func(http.Handler) http.Handler {
	opts := secure.DefaultOptions()
	opts.DevMode = app.cfg.DevMode
	return secure.Middleware(opts)
}

// logf is a small indirection so every package-internal log line
// carries a consistent prefix, matching the "Jobs:"/"Assets:"-style
// prefixes used elsewhere in the stack.
func logf(format string, args ...any) {
	log.Printf("via: "+format, args...)
}
