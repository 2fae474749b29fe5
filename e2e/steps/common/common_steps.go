package common

import (
	"context"
	"fmt"

	"github.com/cucumber/godog"
)

// TestContext interface defines the methods needed from the main test context
type TestContext interface {
	LastError() error
}

// RegisterSteps registers outcome assertions shared across features
func RegisterSteps(ctx *godog.ScenarioContext, tc TestContext) {
	steps := &commonSteps{tc: tc}

	ctx.Step(`^it succeeds$`, steps.itSucceeds)
	ctx.Step(`^it fails with "([^"]*)"$`, steps.itFailsWith)
}

type commonSteps struct {
	tc TestContext
}

func (s *commonSteps) itSucceeds(ctx context.Context) error {
	if err := s.tc.LastError(); err != nil {
		return fmt.Errorf("expected success, got %q", err.Error())
	}
	return nil
}

func (s *commonSteps) itFailsWith(ctx context.Context, message string) error {
	err := s.tc.LastError()
	if err == nil {
		return fmt.Errorf("expected failure %q, got success", message)
	}
	if err.Error() != message {
		return fmt.Errorf("expected failure %q, got %q", message, err.Error())
	}
	return nil
}
