package donor

import (
	"context"
	"fmt"
	"time"

	"github.com/cucumber/godog"

	"foodrescue/internal/api"
	"foodrescue/internal/domain"
)

// TestContext interface defines the methods needed from the main test context
type TestContext interface {
	API() *api.Client
	Record(err error)
	SetFood(items []domain.FoodItem)
	LastFood() []domain.FoodItem
}

// RegisterSteps registers donor step definitions
func RegisterSteps(ctx *godog.ScenarioContext, tc TestContext) {
	steps := &donorSteps{tc: tc}

	ctx.Step(`^I offer (\d+) portions of "([^"]*)" for pickup at "([^"]*)"$`, steps.offerFood)
	ctx.Step(`^I list my food offers$`, steps.listOffers)
	ctx.Step(`^I see (\d+) offers?$`, steps.seeOffers)
	ctx.Step(`^offer "([^"]*)" is "([^"]*)"$`, steps.offerHasStatus)
}

type donorSteps struct {
	tc TestContext
}

func (s *donorSteps) offerFood(ctx context.Context, portions int, name, location string) error {
	_, err := s.tc.API().Donor.SubmitFood(ctx, domain.FoodSubmission{
		Name:       name,
		Quantity:   fmt.Sprintf("%d portions", portions),
		Location:   location,
		PickupTime: time.Now().Add(2 * time.Hour).Truncate(time.Second),
	})
	s.tc.Record(err)
	return nil
}

func (s *donorSteps) listOffers(ctx context.Context) error {
	items, err := s.tc.API().Donor.History(ctx)
	s.tc.Record(err)
	s.tc.SetFood(items)
	return nil
}

func (s *donorSteps) seeOffers(ctx context.Context, n int) error {
	if got := len(s.tc.LastFood()); got != n {
		return fmt.Errorf("expected %d offers, got %d", n, got)
	}
	return nil
}

func (s *donorSteps) offerHasStatus(ctx context.Context, name, status string) error {
	for _, item := range s.tc.LastFood() {
		if item.Name == name {
			if string(item.Status) != status {
				return fmt.Errorf("offer %q is %s, expected %s", name, item.Status, status)
			}
			return nil
		}
	}
	return fmt.Errorf("no offer named %q", name)
}
