package viactx

import "github.com/go-via/via/scope"

// ApplyInboundSignals implements the "signal injection from the
// client" half of action dispatch (spec.md §1 item 5): nested is the
// client signals payload in its nested wire form (via_ctx already
// stripped by the caller), flattened here before matching. Every TAB-local signal hosted on this context's root, and
// every scoped signal visible to this context, whose name appears in
// nested is updated to the client's value before the action runs.
func (c *Context) ApplyInboundSignals(nested map[string]any) {
	flat := Flatten(nested)

	root := c.Root()
	root.mu.Lock()
	for _, sig := range root.signals {
		if v, ok := flat[sig.Name()]; ok {
			sig.Set(v, true, true)
		}
	}
	root.mu.Unlock()

	store := c.host.Store()
	for _, s := range c.Scopes() {
		if s == scope.Tab {
			continue
		}
		for _, sig := range store.SignalsIn(s) {
			if v, ok := flat[sig.Name()]; ok {
				sig.Set(v, true, true)
			}
		}
	}
}
