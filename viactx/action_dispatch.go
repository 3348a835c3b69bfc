package viactx

import (
	"fmt"
	"log"
	"time"

	"github.com/go-via/via/reactive"
	"github.com/go-via/via/scope"
)

// ExecuteAction runs the action named id against this context, walking
// the lookup order of spec.md §4.4: TAB actions of this context, then
// ActionStore at each of its scopes, then route:<route> (if not
// already among its scopes), then global, then recursively through
// every component's own TAB actions.
func (c *Context) ExecuteAction(id string) error {
	root := c.Root()

	root.mu.Lock()
	action, ok := root.actions[id]
	root.mu.Unlock()
	if ok {
		return action.Execute(root)
	}

	store := c.host.Store()
	scopes := c.Scopes()
	for _, s := range scopes {
		if a, found := store.ActionIn(s, id); found {
			return a.Execute(root)
		}
	}

	routeScope := scope.RouteScope(c.route)
	if !containsString(scopes, routeScope) {
		if a, found := store.ActionIn(routeScope, id); found {
			return a.Execute(root)
		}
	}

	if a, found := store.ActionIn(scope.Global, id); found {
		return a.Execute(root)
	}

	if a, found := findComponentAction(root, id); found {
		return a.Execute(root)
	}

	return fmt.Errorf("viactx: action %q not found for context %s", id, c.id)
}

func findComponentAction(c *Context, id string) (*reactive.Action, bool) {
	for _, child := range c.Children() {
		child.mu.Lock()
		a, ok := child.actions[id]
		child.mu.Unlock()
		if ok {
			return a, true
		}
		if a, ok := findComponentAction(child, id); ok {
			return a, true
		}
	}
	return nil, false
}

func containsString(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}

// RegisterScopes registers this context under every scope in its scope
// list, so broadcasts and scoped signal/action lookups can find it
// (spec.md §3, ScopeRegistry).
func (c *Context) RegisterScopes() {
	store := c.host.Store()
	for _, s := range c.Scopes() {
		store.RegisterScope(s, c)
	}
}

// UnregisterScopes removes this context from every scope it belongs
// to. Per the scope GC rule, a scope whose last context just left has
// its signal/action store entries dropped by the Store itself.
func (c *Context) UnregisterScopes() {
	store := c.host.Store()
	for _, s := range c.Scopes() {
		store.UnregisterScope(s, c.id)
	}
}

// ScheduleDelayedCleanup arms the grace-period teardown timer used when
// an SSE connection drops, per spec.md §4.8.
func (c *Context) ScheduleDelayedCleanup(grace time.Duration, fire func()) {
	c.Root().life.scheduleDelayedCleanup(grace, fire)
}

// CancelDelayedCleanup stops a pending grace-period timer because the
// browser reconnected before it fired.
func (c *Context) CancelDelayedCleanup() {
	c.Root().life.cancelDelayedCleanup()
}

// DrainPatches removes and returns every patch currently queued for
// this context's root, in FIFO order.
func (c *Context) DrainPatches() []Patch {
	return c.Root().patchQueue.DrainAll()
}

// ResetPatchQueue replaces the root's patch queue with a fresh empty
// one, per spec.md §4.6 ("recreate its patch queue") on SSE reconnect.
func (c *Context) ResetPatchQueue() {
	root := c.Root()
	root.patchQueue = NewPatchQueue(QueueCapacity, func(p Patch) {
		log.Printf("viactx: dropping oldest patch (kind=%d) for context %s: queue full", p.Kind, root.id)
	})
}

// Destroy tears this context down for good: cancels its timers, runs
// its cleanup callbacks (each isolated), unregisters it from every
// scope, and removes it from the store entirely (spec.md §4.8).
func (c *Context) Destroy() {
	c.UnregisterScopes()
	c.Root().life.runCleanup(c.id)
	c.host.Store().RemoveContext(c.id)
	c.host.Forget(c.id)
}
