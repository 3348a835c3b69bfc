package via

import (
	"log"
	"strings"

	"github.com/go-via/via/reactive"
	"github.com/go-via/via/scope"
	"github.com/go-via/via/viactx"
)

// Broadcast implements the five-case orchestrator of spec.md §4.9.
// Case 1 (global) and case 2 (bare route scope) iterate every live
// context in the process — the spec flags this as one of two
// competing interpretations in the source and asks the implementer to
// pick one and say so: via picks the process-wide interpretation for
// both (see DESIGN.md, "broadcast fan-out for bare route/global").
func (app *Application) Broadcast(s string) {
	switch {
	case s == scope.Global:
		app.renderCache.Invalidate(scope.Global)
		app.syncAll(app.allContexts())

	case s == scope.Route:
		app.renderCache.InvalidateMatching(func(cached string) bool {
			return scope.IsRouteBased(cached, "")
		})
		app.syncAll(app.allContexts())

	case strings.HasPrefix(s, scope.Route+":"):
		route := strings.TrimPrefix(s, scope.Route+":")
		app.renderCache.Invalidate(s)
		app.syncAll(app.contextsByRoute(route))

	case scope.HasWildcard(s):
		app.renderCache.InvalidateMatching(func(cached string) bool {
			return scope.Matches(cached, s)
		})
		app.syncAll(app.contextsByPattern(s))

	default:
		app.renderCache.Invalidate(s)
		app.syncAll(app.contextsIn(s))
	}
}

func (app *Application) contextsIn(s string) []*viactx.Context {
	handles := app.store.ContextsIn(s)
	return app.resolveHandles(handles)
}

func (app *Application) contextsByPattern(pattern string) []*viactx.Context {
	handles := app.store.ContextsByPattern(pattern, scope.Matches)
	return app.resolveHandles(handles)
}

func (app *Application) contextsByRoute(route string) []*viactx.Context {
	app.mu.Lock()
	defer app.mu.Unlock()
	var out []*viactx.Context
	for _, c := range app.contexts {
		if c.Route() == route {
			out = append(out, c)
		}
	}
	return out
}

func (app *Application) resolveHandles(handles []reactive.ContextHandle) []*viactx.Context {
	app.mu.Lock()
	defer app.mu.Unlock()
	out := make([]*viactx.Context, 0, len(handles))
	for _, h := range handles {
		if c, ok := app.contexts[h.ID()]; ok {
			out = append(out, c)
		}
	}
	return out
}

func (app *Application) syncAll(contexts []*viactx.Context) {
	for _, c := range contexts {
		if err := c.Sync(); err != nil {
			log.Printf("via: broadcast sync failed for context %s: %v", c.ID(), err)
		}
	}
}
