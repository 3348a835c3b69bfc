package via

import (
	"log"
	"net/http"

	"github.com/go-via/via/router"
	"github.com/go-via/via/viactx"
)

// PageHandler is the developer-facing page handler signature: a plain
// function whose first argument is a *viactx.Context, invoked by the
// router's reflection-based binding (spec.md §4.1). Declared here only
// as documentation — callers pass any func(*viactx.Context, ...) to
// Router.Register, same as the router package allows.
type PageHandler func(ctx *viactx.Context)

// ServeHTTP implements the top-level mux: dispatch to the page router
// for everything except the four fixed system endpoints, per spec.md
// §2's endpoint table.
func (app *Application) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	switch {
	case r.URL.Path == "/_sse":
		app.sseHandler.ServeHTTP(w, r)
	case r.URL.Path == "/_session/close":
		app.handleSessionClose(w, r)
	case r.URL.Path == "/_stats":
		app.handleStats(w, r)
	case r.URL.Path == app.cfg.ClientScriptPath:
		if app.clientScript != nil {
			app.clientScript(w, r)
		} else {
			http.NotFound(w, r)
		}
	case len(r.URL.Path) >= len("/_action/") && r.URL.Path[:len("/_action/")] == "/_action/":
		app.handleAction(w, r, r.URL.Path[len("/_action/"):])
	default:
		app.handlePage(w, r)
	}
}

// handlePage implements GET/HEAD /<route-pattern> of spec.md §6: build
// a Context, run the page handler synchronously, return the shell.
func (app *Application) handlePage(w http.ResponseWriter, r *http.Request) {
	handler, params, route, ok := app.Router.Match(r.URL.Path)
	if !ok {
		http.NotFound(w, r)
		return
	}

	if r.Method == http.MethodHead {
		w.WriteHeader(http.StatusOK)
		return
	}
	if r.Method != http.MethodGet {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	sessionID := app.ensureSession(w, r)
	ctx := app.newContext(route.Pattern(), sessionID, params)

	if err := router.Invoke(handler, ctx, route, params); err != nil {
		log.Printf("via: page handler for %s failed: %v", r.URL.Path, err)
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}

	view, err := ctx.RenderInitial()
	if err != nil {
		log.Printf("via: initial render for %s failed: %v", r.URL.Path, err)
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}

	html, err := app.renderShell(ctx, view, nil, Shell{})
	if err != nil {
		log.Printf("via: shell assembly for %s failed: %v", r.URL.Path, err)
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	_, _ = w.Write([]byte(html))
}
