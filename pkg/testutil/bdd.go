package testutil

import "testing"

// Scenario runs Given/When/Then steps as ordered subtests. Steps share state
// through closures, so once a step fails the remaining ones are skipped
// rather than reported as confusing follow-on failures.
type Scenario struct {
	t      *testing.T
	failed string
}

func NewScenario(t *testing.T) *Scenario {
	return &Scenario{t: t}
}

func (s *Scenario) Given(desc string, fn func(t *testing.T)) { s.step("Given "+desc, fn) }

func (s *Scenario) When(desc string, fn func(t *testing.T)) { s.step("When "+desc, fn) }

func (s *Scenario) Then(desc string, fn func(t *testing.T)) { s.step("Then "+desc, fn) }

// And continues the previous clause.
func (s *Scenario) And(desc string, fn func(t *testing.T)) { s.step("And "+desc, fn) }

func (s *Scenario) step(name string, fn func(t *testing.T)) {
	s.t.Helper()
	failed := s.failed
	ok := s.t.Run(name, func(t *testing.T) {
		if failed != "" {
			t.Skipf("skipped: %q failed", failed)
		}
		fn(t)
	})
	if !ok && s.failed == "" {
		s.failed = name
	}
}
