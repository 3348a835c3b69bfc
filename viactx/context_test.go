package viactx

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/go-via/via/reactive"
	"github.com/go-via/via/render"
)

// fakeHost is a minimal Host for exercising Context in isolation,
// grounded in the teacher's habit of hand-writing small test doubles
// rather than pulling in a mocking library.
type fakeHost struct {
	store     *reactive.Store
	cache     *render.Cache
	broadcast []string
	forgotten []string
}

func newFakeHost() *fakeHost {
	return &fakeHost{store: reactive.NewStore(), cache: render.NewCache(16)}
}

func (h *fakeHost) Store() *reactive.Store              { return h.store }
func (h *fakeHost) RenderCache() *render.Cache           { return h.cache }
func (h *fakeHost) RecordRenderDuration(d time.Duration) {}
func (h *fakeHost) Broadcast(scope string)               { h.broadcast = append(h.broadcast, scope) }
func (h *fakeHost) Forget(contextID string)              { h.forgotten = append(h.forgotten, contextID) }

func TestContextSignalIsTabLocalByDefault(t *testing.T) {
	host := newFakeHost()
	ctx := New(host, "/counter", "sess-1", nil)

	sig, err := ctx.Signal(0, WithName("count"))
	require.NoError(t, err)
	assert.Equal(t, "count", sig.Name())
	assert.Equal(t, "", sig.Scope())
}

func TestContextScopedSignalsAreSharedByIdentity(t *testing.T) {
	host := newFakeHost()
	a := New(host, "/room", "sess-1", nil)
	a.SetScope("room:lobby")
	b := New(host, "/room", "sess-2", nil)
	b.SetScope("room:lobby")

	sigA, err := a.Signal(0, WithName("occupants"))
	require.NoError(t, err)
	sigA.Set(5, true, false)

	sigB, err := b.Signal(999, WithName("occupants"))
	require.NoError(t, err)

	assert.Same(t, sigA, sigB)
	assert.Equal(t, 5, sigB.Value(), "re-creating a shared signal must not overwrite its value")
}

func TestContextSessionScopeRequiresSessionID(t *testing.T) {
	host := newFakeHost()
	ctx := New(host, "/profile", "", nil)

	_, err := ctx.Signal("anon", WithName("draft"), WithScope("session"))
	assert.Error(t, err)
}

func TestContextActionLookupFindsGlobalScopedAction(t *testing.T) {
	host := newFakeHost()
	ctx := New(host, "/ticker", "sess-1", nil)
	ctx.SetScope("global")

	called := false
	_, err := ctx.Action(func(c *Context) error {
		called = true
		return nil
	}, WithActionName("refresh"), WithActionScope("global"))
	require.NoError(t, err)

	err = ctx.ExecuteAction("refresh")
	require.NoError(t, err)
	assert.True(t, called)
}

func TestContextExecuteActionNotFound(t *testing.T) {
	host := newFakeHost()
	ctx := New(host, "/ticker", "sess-1", nil)
	err := ctx.ExecuteAction("nonexistent")
	assert.Error(t, err)
}

func TestContextViewCacheDecisionSkipsTabScope(t *testing.T) {
	host := newFakeHost()
	ctx := New(host, "/counter", "sess-1", nil)

	renders := 0
	ctx.View(func(isUpdate bool) (string, error) {
		renders++
		return "<div>hi</div>", nil
	})

	_, err := ctx.renderView(true)
	require.NoError(t, err)
	_, err = ctx.renderView(true)
	require.NoError(t, err)

	assert.Equal(t, 2, renders, "tab-scoped views must never be served from cache")
}

func TestContextSyncEnqueuesElementsAndSignalsPatches(t *testing.T) {
	host := newFakeHost()
	ctx := New(host, "/counter", "sess-1", nil)
	ctx.View(func(isUpdate bool) (string, error) {
		return "<div>count</div>", nil
	})
	sig, err := ctx.Signal(0, WithName("count"))
	require.NoError(t, err)
	sig.Set(1, true, false)

	require.NoError(t, ctx.Sync())

	patches := ctx.DrainPatches()
	require.Len(t, patches, 2)
	assert.Equal(t, KindElements, patches[0].Kind)
	assert.Equal(t, KindSignals, patches[1].Kind)
	assert.Contains(t, string(patches[1].SignalsJSON), "count")
}

func TestContextComponentRendersWrappedFragment(t *testing.T) {
	host := newFakeHost()
	page := New(host, "/dashboard", "sess-1", nil)

	renderClock := page.Component(func(child *Context) {
		child.View(func(isUpdate bool) (string, error) {
			return "<span>tick</span>", nil
		})
	}, "clock")

	html, err := renderClock(false)
	require.NoError(t, err)
	assert.Contains(t, html, "tick")
	assert.Len(t, page.Children(), 1)
}

func TestContextDestroyRunsCleanupAndUnregistersScopes(t *testing.T) {
	host := newFakeHost()
	ctx := New(host, "/room", "sess-1", nil)
	ctx.SetScope("room:lobby")
	ctx.RegisterScopes()

	cleaned := false
	ctx.OnCleanup(func() { cleaned = true })

	ctx.Destroy()

	assert.True(t, cleaned)
	assert.Empty(t, host.store.ContextsIn("room:lobby"))
}
