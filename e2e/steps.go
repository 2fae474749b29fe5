package e2e

import (
	"context"

	"github.com/cucumber/godog"

	"foodrescue/e2e/steps/auth"
	"foodrescue/e2e/steps/common"
	"foodrescue/e2e/steps/donor"
)

// InitializeScenario gives every scenario its own backend and session file.
func InitializeScenario(sc *godog.ScenarioContext) {
	tc := &TestContext{}
	sc.Before(func(ctx context.Context, _ *godog.Scenario) (context.Context, error) {
		return ctx, tc.setUp(ctx)
	})
	sc.After(func(ctx context.Context, _ *godog.Scenario, err error) (context.Context, error) {
		tc.tearDown()
		return ctx, err
	})
	RegisterSteps(sc, tc)
}

// RegisterSteps registers all step definitions from modular packages
func RegisterSteps(ctx *godog.ScenarioContext, tc *TestContext) {
	// Outcome assertions shared by every feature
	common.RegisterSteps(ctx, tc)

	// Registration, sign-in and session persistence
	auth.RegisterSteps(ctx, tc)

	// Donor food offers
	donor.RegisterSteps(ctx, tc)
}
