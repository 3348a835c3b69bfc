package viactx

import (
	"time"

	"github.com/go-via/via/reactive"
	"github.com/go-via/via/render"
)

// Host is the slice of Application a Context needs: the scoped stores
// it registers into, the render cache and render-lock its PatchManager
// consults, and the broadcast entry point ctx.broadcast() calls into.
// Defined here (rather than imported from the application package) to
// avoid an import cycle — Context is built low enough in the stack
// that Application, not Context, depends on this package.
type Host interface {
	Store() *reactive.Store
	RenderCache() *render.Cache
	RecordRenderDuration(d time.Duration)
	Broadcast(scope string)
	Forget(contextID string)
}
