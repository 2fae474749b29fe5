package auth

import (
	"context"
	"fmt"

	"github.com/cucumber/godog"

	"foodrescue/internal/domain"
	"foodrescue/internal/session"
)

// TestContext interface defines the methods needed from the main test context
type TestContext interface {
	Session() *session.Manager
	Restart(ctx context.Context) error
	Email(addr string) string
	Record(err error)
	SetUser(u domain.User)
	LastUser() domain.User
}

// RegisterSteps registers authentication-related step definitions
func RegisterSteps(ctx *godog.ScenarioContext, tc TestContext) {
	steps := &authSteps{tc: tc}

	// Account steps
	ctx.Step(`^a registered (donor|ngo|admin) "([^"]*)" with password "([^"]*)"$`, steps.registeredAccount)
	ctx.Step(`^I register as (donor|ngo|admin) "([^"]*)" named "([^"]*)" with password "([^"]*)"$`, steps.register)

	// Session steps
	ctx.Step(`^I log in as "([^"]*)" with password "([^"]*)"$`, steps.login)
	ctx.Step(`^I log out$`, steps.logout)
	ctx.Step(`^I restart the client$`, steps.restart)

	// Session assertions
	ctx.Step(`^I am signed in as a (donor|ngo|admin)$`, steps.signedInAs)
	ctx.Step(`^I am signed out$`, steps.signedOut)
}

type authSteps struct {
	tc TestContext
}

func (s *authSteps) registeredAccount(ctx context.Context, role, email, password string) error {
	_, err := s.tc.Session().Register(ctx, domain.Registration{
		Email:    s.tc.Email(email),
		Password: password,
		Name:     "E2E " + role,
		Role:     domain.Role(role),
		Location: "Downtown",
	})
	return err
}

func (s *authSteps) register(ctx context.Context, role, email, name, password string) error {
	user, err := s.tc.Session().Register(ctx, domain.Registration{
		Email:    s.tc.Email(email),
		Password: password,
		Name:     name,
		Role:     domain.Role(role),
	})
	s.tc.Record(err)
	s.tc.SetUser(user)
	return nil
}

func (s *authSteps) login(ctx context.Context, email, password string) error {
	user, err := s.tc.Session().Login(ctx, s.tc.Email(email), password)
	s.tc.Record(err)
	s.tc.SetUser(user)
	return nil
}

func (s *authSteps) logout(ctx context.Context) error {
	s.tc.Session().Logout(ctx)
	return nil
}

func (s *authSteps) restart(ctx context.Context) error {
	return s.tc.Restart(ctx)
}

func (s *authSteps) signedInAs(ctx context.Context, role string) error {
	user := s.tc.Session().User()
	if user == nil {
		return fmt.Errorf("expected to be signed in as %s, but the session is %s", role, s.tc.Session().State())
	}
	if string(user.Role) != role {
		return fmt.Errorf("expected role %s, got %s", role, user.Role)
	}
	return nil
}

func (s *authSteps) signedOut(ctx context.Context) error {
	if s.tc.Session().IsAuthenticated() {
		return fmt.Errorf("expected to be signed out, still signed in as %s", s.tc.Session().User().Email)
	}
	return nil
}
