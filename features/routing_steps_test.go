package features

import (
	"context"
	"fmt"

	"github.com/cucumber/godog"

	"github.com/go-via/via/router"
	"github.com/go-via/via/viactx"
)

// RoutingSuite exercises spec.md's route parameter injection walkthrough
// (S6): a handler declaring typed trailing parameters gets them bound
// from the matched path segments by name, not position in the URL.
type RoutingSuite struct {
	r         *router.Router
	gotYear   int
	gotMonth  int
	gotSlug   string
	invokeErr error
}

func (s *RoutingSuite) reset() {
	s.r = router.New((*viactx.Context)(nil))
	s.gotYear, s.gotMonth, s.gotSlug = 0, 0, ""
	s.invokeErr = nil
}

func (s *RoutingSuite) aRouteWithParams(pattern string) error {
	s.r.Register(pattern,
		func(ctx *viactx.Context, year int, month int, slug string) {
			s.gotYear, s.gotMonth, s.gotSlug = year, month, slug
		},
		router.Param{Name: "year", Kind: router.KindInt},
		router.Param{Name: "month", Kind: router.KindInt},
		router.Param{Name: "slug", Kind: router.KindString},
	)
	return nil
}

func (s *RoutingSuite) thePathIsMatchedAndInvoked(path string) error {
	handler, params, route, ok := s.r.Match(path)
	if !ok {
		return fmt.Errorf("no route matched %s", path)
	}
	s.invokeErr = router.Invoke(handler, (*viactx.Context)(nil), route, params)
	return s.invokeErr
}

func (s *RoutingSuite) theHandlerReceivedYearMonthAndSlug(year, month int, slug string) error {
	if s.gotYear != year || s.gotMonth != month || s.gotSlug != slug {
		return fmt.Errorf("got (%d, %d, %q), want (%d, %d, %q)", s.gotYear, s.gotMonth, s.gotSlug, year, month, slug)
	}
	return nil
}

// InitializeRoutingScenario registers the route-injection steps.
func InitializeRoutingScenario(sc *godog.ScenarioContext) {
	s := &RoutingSuite{}

	sc.Before(func(ctx context.Context, _ *godog.Scenario) (context.Context, error) {
		s.reset()
		return ctx, nil
	})

	sc.Step(`^a route "([^"]*)" with params year:int, month:int, slug:string$`, s.aRouteWithParams)
	sc.Step(`^the path "([^"]*)" is matched and invoked$`, s.thePathIsMatchedAndInvoked)
	sc.Step(`^the handler received year (\d+), month (\d+) and slug "([^"]*)"$`, s.theHandlerReceivedYearMonthAndSlug)
}
