package via

import (
	"io"
	"net/http"
)

// handleSessionClose implements POST /_session/close of spec.md §6: a
// browser-initiated disconnect hint (beacon on unload) whose body is
// the raw context id. Always 200 — per spec.md §7 this is not an error
// boundary. It schedules the same delayed cleanup an SSE disconnect
// does: the requested grace of 0 is raised to DefaultCleanupGrace by
// the context's lifecycle.
func (app *Application) handleSessionClose(w http.ResponseWriter, r *http.Request) {
	body, _ := io.ReadAll(io.LimitReader(r.Body, 256))
	contextID := string(body)

	if ctx, ok := app.Context(contextID); ok {
		ctx.ScheduleDelayedCleanup(0, func() {
			app.registry.Remove(ctx.ID())
			ctx.Destroy()
		})
	}

	w.WriteHeader(http.StatusOK)
}
