// Package sse implements the per-connection pump loop of spec.md
// §4.6: it turns a Context's bounded patch queue into a live SSE
// stream, handling the stale-context reload, the reconnect handshake,
// and the delayed-cleanup handoff on disconnect.
//
// Wire framing is delegated to datastar-go, same as the broker in the
// teacher repo delegates SSE framing to net/http directly — here the
// framing is just one layer further out, behind a real client-protocol
// library instead of hand-rolled "data: ...\n\n" writes.
package sse

import (
	"log"
	"net/http"
	"time"

	"github.com/starfederation/datastar-go/datastar"

	"github.com/go-via/via/stats"
	"github.com/go-via/via/viactx"
)

// PollInterval is how often the pump checks a context's patch queue,
// per spec.md §4.6 ("Every ~100 ms poll the queue").
const PollInterval = 100 * time.Millisecond

// KeepaliveInterval is how often an SSE comment is sent on an
// otherwise idle connection, per spec.md §4.6.
const KeepaliveInterval = 30 * time.Second

// DelayedCleanupGrace is the grace period scheduled when the pump
// exits, per spec.md §4.8 ("default 5 s").
const DelayedCleanupGrace = 5 * time.Second

// Audit receives connect/disconnect events for persistence, kept as a
// narrow interface (rather than importing the auditlog package
// directly) so sse has no dependency on how, or whether, history is
// stored.
type Audit interface {
	RecordConnect(id, remoteAddr string) error
	RecordDisconnect(id string) error
}

// Host is the slice of Application the SSE handler needs: looking up
// an existing context by id, and the client registry it updates on
// first connect. Kept as a narrow interface, same reasoning as
// viactx.Host, to avoid an import cycle with the application package.
type Host interface {
	Context(id string) (*viactx.Context, bool)
	Registry() *stats.Registry
	Audit() Audit
}

// Handler serves GET /_sse.
type Handler struct {
	Host Host
}

// NewHandler constructs a Handler bound to host.
func NewHandler(host Host) *Handler {
	return &Handler{Host: host}
}

// ServeHTTP implements spec.md §4.6's connect handshake and pump loop.
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	var sigs map[string]any
	_ = datastar.ReadSignals(r, &sigs)
	contextID, _ := sigs["via_ctx"].(string)

	sse := datastar.NewSSE(w, r)

	ctx, ok := h.Host.Context(contextID)
	if !ok {
		h.reload(sse)
		return
	}

	if !h.Host.Registry().Has(contextID) {
		h.Host.Registry().Add(contextID, r.RemoteAddr)
		if err := h.Host.Audit().RecordConnect(contextID, r.RemoteAddr); err != nil {
			log.Printf("sse: context %s: audit record failed: %v", contextID, err)
		}
	}

	ctx.CancelDelayedCleanup()
	ctx.RegisterScopes()
	ctx.ResetPatchQueue()

	if err := ctx.Sync(); err != nil {
		log.Printf("sse: context %s: initial sync failed: %v", contextID, err)
	}

	h.pump(w, sse, ctx)
}

// reload implements spec.md S5: an unrecognised via_ctx gets a single
// execute-script reload patch, then the stream closes.
func (h *Handler) reload(sse *datastar.ServerSentEventGenerator) {
	if err := sse.ExecuteScript("window.location.reload()"); err != nil {
		log.Printf("sse: failed to send stale-context reload: %v", err)
	}
}

// pump drains ctx's patch queue onto the wire every PollInterval,
// falling back to a keepalive comment if nothing was sent within
// KeepaliveInterval, and exits (triggering cleanup) on write failure
// or socket closure.
func (h *Handler) pump(w http.ResponseWriter, sse *datastar.ServerSentEventGenerator, ctx *viactx.Context) {
	defer h.cleanup(ctx)

	flusher, _ := w.(http.Flusher)
	ticker := time.NewTicker(PollInterval)
	defer ticker.Stop()

	lastSent := time.Now()

	for {
		select {
		case <-sse.Context().Done():
			return
		case <-ticker.C:
			patches := ctx.DrainPatches()
			if len(patches) == 0 {
				if time.Since(lastSent) >= KeepaliveInterval {
					if _, err := w.Write([]byte(": keepalive\n\n")); err != nil {
						return
					}
					if flusher != nil {
						flusher.Flush()
					}
					lastSent = time.Now()
				}
				continue
			}
			for _, p := range patches {
				if err := writePatch(sse, p); err != nil {
					return
				}
			}
			lastSent = time.Now()
		}
	}
}

// writePatch maps a viactx.Patch onto the corresponding datastar-go
// wire verb, per spec.md §4.6 ("Mapping to wire verbs is delegated to
// the SSE library").
func writePatch(sse *datastar.ServerSentEventGenerator, p viactx.Patch) error {
	switch p.Kind {
	case viactx.KindElements:
		if p.Selector != "" {
			return sse.PatchElements(p.HTML, datastar.WithSelector(p.Selector))
		}
		return sse.PatchElements(p.HTML)
	case viactx.KindSignals:
		return sse.PatchSignals(p.SignalsJSON)
	case viactx.KindScript:
		return sse.ExecuteScript(p.Script, datastar.WithExecuteScriptAutoRemove(true))
	default:
		return nil
	}
}

// cleanup implements the exit side of spec.md §4.6: unregister from
// every scope immediately, then hand off to the grace-period timer
// that either cancels (on reconnect) or fully destroys the context.
func (h *Handler) cleanup(ctx *viactx.Context) {
	ctx.UnregisterScopes()
	ctx.ScheduleDelayedCleanup(DelayedCleanupGrace, func() {
		h.Host.Registry().Remove(ctx.ID())
		if err := h.Host.Audit().RecordDisconnect(ctx.ID()); err != nil {
			log.Printf("sse: context %s: audit record failed: %v", ctx.ID(), err)
		}
		ctx.Destroy()
	})
}
