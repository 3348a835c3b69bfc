package features

import (
	"context"
	"fmt"
	"strings"

	"github.com/cucumber/godog"

	"github.com/go-via/via/scope"
	"github.com/go-via/via/viactx"
)

// NotifySuite exercises spec.md's global-notification walkthrough
// (S2): three contexts on distinct routes share the "global" scope and
// its "add" action.
type NotifySuite struct {
	host      *testHost
	byRoute   map[string]*viactx.Context
	order     []string
	notifyIDs map[string]string
	count     int
}

func (s *NotifySuite) reset() {
	s.host = newTestHost()
	s.byRoute = make(map[string]*viactx.Context)
	s.order = nil
	s.notifyIDs = make(map[string]string)
	s.count = 0
}

func (s *NotifySuite) threeContextsOnRoutesAndWithPrimaryScope(home, dash, settings, primaryScope string) error {
	for _, route := range []string{home, dash, settings} {
		c := viactx.New(s.host, route, "sess-"+route, nil)
		c.SetScope(primaryScope)
		s.byRoute[route] = c
		s.order = append(s.order, route)
	}
	return nil
}

func (s *NotifySuite) eachContextRegistersAGlobalAction() error {
	for _, route := range s.order {
		c := s.byRoute[route]
		c.View(func(isUpdate bool) (string, error) {
			return fmt.Sprintf("<div>Notifications: %d</div>", s.count), nil
		})
		action, err := c.Action(func(ctx *viactx.Context) error {
			s.count++
			return nil
		}, viactx.WithActionName("add"), viactx.WithActionScope(scope.Global))
		if err != nil {
			return err
		}
		s.notifyIDs[route] = action.ID
	}
	first := s.notifyIDs[s.order[0]]
	for _, route := range s.order[1:] {
		if s.notifyIDs[route] != first {
			return fmt.Errorf("action id for %s (%s) differs from %s (%s)", route, s.notifyIDs[route], s.order[0], first)
		}
	}
	return nil
}

func (s *NotifySuite) theContextInvokesAddAndBroadcasts(route string) error {
	c, ok := s.byRoute[route]
	if !ok {
		return fmt.Errorf("no context registered for route %s", route)
	}
	if err := c.ExecuteAction(s.notifyIDs[route]); err != nil {
		return err
	}
	c.Broadcast()
	return nil
}

func (s *NotifySuite) everyContextIsSynced() error {
	for _, route := range s.order {
		if err := s.byRoute[route].Sync(); err != nil {
			return err
		}
	}
	return nil
}

func (s *NotifySuite) everyContextHasAPendingElementsPatchWhoseHTMLContains(want string) error {
	for _, route := range s.order {
		found := false
		for _, p := range s.byRoute[route].DrainPatches() {
			if p.Kind == viactx.KindElements {
				found = true
				if !strings.Contains(p.HTML, want) {
					return fmt.Errorf("route %s patch HTML %q missing %q", route, p.HTML, want)
				}
			}
		}
		if !found {
			return fmt.Errorf("route %s has no elements patch", route)
		}
	}
	return nil
}

// InitializeNotifyScenario registers the global-notification steps.
func InitializeNotifyScenario(sc *godog.ScenarioContext) {
	s := &NotifySuite{}

	sc.Before(func(ctx context.Context, _ *godog.Scenario) (context.Context, error) {
		s.reset()
		return ctx, nil
	})

	sc.Step(`^three contexts on routes "([^"]*)", "([^"]*)" and "([^"]*)" with primary scope "([^"]*)"$`, s.threeContextsOnRoutesAndWithPrimaryScope)
	sc.Step(`^each context registers a global "add" action$`, s.eachContextRegistersAGlobalAction)
	sc.Step(`^the "([^"]*)" context invokes "add" and broadcasts$`, s.theContextInvokesAddAndBroadcasts)
	sc.Step(`^every context is synced$`, s.everyContextIsSynced)
	sc.Step(`^every context has a pending elements patch whose HTML contains "([^"]*)"$`, s.everyContextHasAPendingElementsPatchWhoseHTMLContains)
}
