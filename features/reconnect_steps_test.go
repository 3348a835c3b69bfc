package features

import (
	"context"
	"fmt"
	"net/http/httptest"
	"strings"

	"github.com/cucumber/godog"

	"github.com/go-via/via"
)

// ReconnectSuite exercises spec.md's stale-context walkthrough (S5):
// an SSE request naming a via_ctx the process has no record of (a
// restart, or simply a forged id) must get a reload instruction, not
// silently hang.
type ReconnectSuite struct {
	app  *via.Application
	resp *httptest.ResponseRecorder
}

func (s *ReconnectSuite) reset() {
	s.app = nil
	s.resp = nil
}

func (s *ReconnectSuite) aRunningApplicationWithNoPageEverRequested() error {
	s.app = via.New(via.Config{})
	return nil
}

func (s *ReconnectSuite) aClientOpensWithAnUnknownContextID(path string) error {
	req := httptest.NewRequest("GET", path+"?datastar="+`{"via_ctx":"does-not-exist"}`, nil)
	s.resp = httptest.NewRecorder()
	s.app.ServeHTTP(s.resp, req)
	return nil
}

func (s *ReconnectSuite) theResponseContainsAScriptPatchCalling(script string) error {
	body := s.resp.Body.String()
	if !strings.Contains(body, script) {
		return fmt.Errorf("response body %q does not contain %q", body, script)
	}
	return nil
}

// InitializeReconnectScenario registers the stale-context steps.
func InitializeReconnectScenario(sc *godog.ScenarioContext) {
	s := &ReconnectSuite{}

	sc.Before(func(ctx context.Context, _ *godog.Scenario) (context.Context, error) {
		s.reset()
		return ctx, nil
	})

	sc.Step(`^a running application with no page ever requested$`, s.aRunningApplicationWithNoPageEverRequested)
	sc.Step(`^a client opens "([^"]*)" with an unknown context id$`, s.aClientOpensWithAnUnknownContextID)
	sc.Step(`^the response contains a script patch calling "([^"]*)"$`, s.theResponseContainsAScriptPatchCalling)
}
