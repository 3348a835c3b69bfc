package features

import (
	"context"
	"fmt"
	"strings"
	"sync/atomic"

	"github.com/cucumber/godog"

	"github.com/go-via/via/reactive"
	"github.com/go-via/via/viactx"
)

// CounterSuite exercises spec.md's shared-counter walkthrough (S1):
// two Contexts in the same route scope must see the same signal and
// action identity, and a broadcast must render once, not twice.
type CounterSuite struct {
	host      *testHost
	a, b      *viactx.Context
	count     *reactive.Signal
	actionA   *reactive.Action
	actionByB *reactive.Action
	renders   int32
}

func (s *CounterSuite) reset() {
	s.host = newTestHost()
	s.a = nil
	s.b = nil
	s.count = nil
	s.actionA = nil
	s.actionByB = nil
	atomic.StoreInt32(&s.renders, 0)
}

func (s *CounterSuite) twoContextsOnRouteWithPrimaryScope(route, scope string) error {
	s.a = viactx.New(s.host, route, "sess-a", nil)
	s.b = viactx.New(s.host, route, "sess-b", nil)
	s.a.SetScope(scope)
	s.b.SetScope(scope)
	return nil
}

func (s *CounterSuite) bothContextsRegisterASignalAndAnActionScopedTo(scope string) error {
	var err error
	s.count, err = s.a.Signal(0, viactx.WithName("count"))
	if err != nil {
		return err
	}
	if _, err = s.b.Signal(999, viactx.WithName("count")); err != nil {
		return err
	}

	view := func(isUpdate bool) (string, error) {
		atomic.AddInt32(&s.renders, 1)
		return fmt.Sprintf("<div>%d</div>", s.count.Value()), nil
	}
	s.a.View(view)
	s.b.View(view)

	s.actionA, err = s.a.Action(func(c *viactx.Context) error {
		s.count.Set(s.count.Value().(int)+1, true, false)
		return nil
	}, viactx.WithActionName("toggle"), viactx.WithActionScope(scope))
	if err != nil {
		return err
	}
	s.actionByB, err = s.b.Action(func(c *viactx.Context) error { return nil },
		viactx.WithActionName("toggle"), viactx.WithActionScope(scope))
	return err
}

func (s *CounterSuite) theFirstContextInvokesTimesAndBroadcastsEachTime(n int) error {
	if s.actionA.ID != s.actionByB.ID {
		return fmt.Errorf("expected shared action id, got %q and %q", s.actionA.ID, s.actionByB.ID)
	}
	for i := 0; i < n; i++ {
		if err := s.a.ExecuteAction(s.actionA.ID); err != nil {
			return err
		}
		s.a.Broadcast()
	}
	return nil
}

func (s *CounterSuite) bothContextsAreSynced() error {
	if err := s.a.Sync(); err != nil {
		return err
	}
	return s.b.Sync()
}

func (s *CounterSuite) bothContextsHaveAPendingElementsPatchWhoseHTMLContains(want string) error {
	for _, c := range []*viactx.Context{s.a, s.b} {
		found := false
		for _, p := range c.DrainPatches() {
			if p.Kind == viactx.KindElements {
				found = true
				if !strings.Contains(p.HTML, want) {
					return fmt.Errorf("patch HTML %q does not contain %q", p.HTML, want)
				}
			}
		}
		if !found {
			return fmt.Errorf("context %s has no elements patch", c.ID())
		}
	}
	return nil
}

func (s *CounterSuite) theViewFunctionRanExactlyOnceAcrossBothSyncs() error {
	if got := atomic.LoadInt32(&s.renders); got != 1 {
		return fmt.Errorf("expected exactly 1 render, got %d", got)
	}
	return nil
}

// InitializeCounterScenario registers the shared-counter steps.
func InitializeCounterScenario(sc *godog.ScenarioContext) {
	s := &CounterSuite{}

	sc.Before(func(ctx context.Context, _ *godog.Scenario) (context.Context, error) {
		s.reset()
		return ctx, nil
	})

	sc.Step(`^two contexts on route "([^"]*)" with primary scope "([^"]*)"$`, s.twoContextsOnRouteWithPrimaryScope)
	sc.Step(`^both contexts register a "count" signal and a "toggle" action scoped to "([^"]*)"$`, s.bothContextsRegisterASignalAndAnActionScopedTo)
	sc.Step(`^the first context invokes "toggle" (\d+) times? and broadcasts each time$`, s.theFirstContextInvokesTimesAndBroadcastsEachTime)
	sc.Step(`^both contexts are synced$`, s.bothContextsAreSynced)
	sc.Step(`^both contexts have a pending elements patch whose HTML contains "([^"]*)"$`, s.bothContextsHaveAPendingElementsPatchWhoseHTMLContains)
	sc.Step(`^the view function ran exactly once across both syncs$`, s.theViewFunctionRanExactlyOnceAcrossBothSyncs)
}
