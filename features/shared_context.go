// Package features holds the godog scenario suites exercising
// spec.md's named walkthroughs end to end, grounded in buffkit's own
// features package: one scenario-suite struct per area, a Reset
// between scenarios, and plain Gherkin step methods.
package features

import (
	"time"

	"github.com/go-via/via/reactive"
	"github.com/go-via/via/render"
)

// testHost is a minimal viactx.Host, the features-package twin of
// viactx's own unexported fakeHost, needed here because that type
// isn't exported across the package boundary.
type testHost struct {
	store      *reactive.Store
	cache      *render.Cache
	broadcasts []string
}

func newTestHost() *testHost {
	return &testHost{store: reactive.NewStore(), cache: render.NewCache(16)}
}

func (h *testHost) Store() *reactive.Store              { return h.store }
func (h *testHost) RenderCache() *render.Cache          { return h.cache }
func (h *testHost) RecordRenderDuration(d time.Duration) {}
func (h *testHost) Broadcast(scope string)               { h.broadcasts = append(h.broadcasts, scope) }
func (h *testHost) Forget(contextID string)              {}
