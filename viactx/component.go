package viactx

import (
	"github.com/google/uuid"

	"github.com/go-via/via/render"
	"github.com/go-via/via/scope"
)

// Component creates a child context nested under c, per spec.md §3: "A
// component context additionally holds a back-reference to its parent
// page context; its signals and patch queue are hosted by the parent."
// init wires up the child's signals/actions/view exactly as a page
// handler would for a top-level Context. The returned func renders the
// component's current fragment wrapped in its container element,
// ready to hand to a parent view template or to enqueue directly.
func (c *Context) Component(init func(*Context), namespace ...string) func(isUpdate bool) (string, error) {
	ns := ""
	if len(namespace) > 0 {
		ns = namespace[0]
	}

	child := &Context{
		id:           c.Root().id + ":" + uuid.NewString(),
		route:        c.route,
		sessionID:    c.sessionID,
		routeParams:  c.routeParams,
		scopes:       c.Scopes(),
		cacheUpdates: true,
		host:         c.host,
		life:         newLifecycle(),
		parent:       c,
	}
	if ns != "" {
		child.namespace = ns
	} else {
		child.namespace = child.id
	}
	child.cssID = scope.Sanitize(child.id)

	c.mu.Lock()
	c.componentOrder = append(c.componentOrder, child)
	c.mu.Unlock()

	init(child)

	return func(isUpdate bool) (string, error) {
		html, err := child.renderView(isUpdate)
		if err != nil {
			return "", err
		}
		wrapped, _ := render.WrapComponent(html, child.cssID)
		return wrapped, nil
	}
}

// Children returns the components created under this context, in
// creation order, per the componentOrder bookkeeping of spec.md §4.4.
func (c *Context) Children() []*Context {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]*Context, len(c.componentOrder))
	copy(out, c.componentOrder)
	return out
}
