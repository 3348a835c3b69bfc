package viactx

import (
	"encoding/json"
	"log"
	"strings"

	"github.com/go-via/via/render"
	"github.com/go-via/via/scope"
)

// RenderInitial renders this context's view with isUpdate=false, for
// the page-GET shell assembly of spec.md §4.9. Returns "" if no view
// was registered.
func (c *Context) RenderInitial() (string, error) {
	return c.renderView(false)
}

// Sync implements the PatchManager.sync() algorithm of spec.md §4.7:
// render the view (if any) and enqueue an elements patch, then enqueue
// a signals patch covering changed TAB signals plus every scoped
// signal visible to this context.
func (c *Context) Sync() error {
	if !c.hasView() {
		c.SyncSignals()
		return nil
	}

	html, err := c.renderView(true)
	if err != nil {
		log.Printf("viactx: context %s: render failed during sync: %v", c.id, err)
		return err
	}
	if strings.TrimSpace(html) != "" {
		if c.IsComponent() {
			wrapped, selector := render.WrapComponent(html, c.cssID)
			c.enqueue(Patch{Kind: KindElements, HTML: wrapped, Selector: selector})
		} else {
			c.enqueue(Patch{Kind: KindElements, HTML: html})
		}
	}

	c.SyncSignals()
	return nil
}

// SyncSignals enqueues a signals patch without touching the view,
// collecting changed TAB-local signals (clearing their changed flag)
// and every signal in every non-tab scope this context belongs to —
// unconditionally, because multiple consumers must each receive the
// value (spec.md §4.7, §9 open question 2).
func (c *Context) SyncSignals() {
	flat := make(map[string]any)

	root := c.Root()
	root.mu.Lock()
	for _, sig := range root.signals {
		if sig.Changed() {
			flat[sig.Name()] = sig.Value()
			sig.MarkSynced()
		}
	}
	root.mu.Unlock()

	for _, s := range c.Scopes() {
		if s == scope.Tab {
			continue
		}
		for _, sig := range c.host.Store().SignalsIn(s) {
			flat[sig.Name()] = sig.Value()
		}
	}

	if len(flat) == 0 {
		return
	}

	nested := Nest(flat)
	data, err := json.Marshal(nested)
	if err != nil {
		log.Printf("viactx: context %s: failed to encode signals patch: %v", c.id, err)
		return
	}
	c.enqueue(Patch{Kind: KindSignals, SignalsJSON: data})
}
