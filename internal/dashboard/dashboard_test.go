package dashboard_test

import (
	"context"
	"errors"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	promtestutil "github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/suite"

	"foodrescue/internal/api"
	"foodrescue/internal/dashboard"
	"foodrescue/internal/dashboard/metrics"
	"foodrescue/internal/domain"
	"foodrescue/internal/gateway"
	"foodrescue/internal/routing"
	"foodrescue/pkg/testutil"
	"foodrescue/pkg/testutil/fakeapi"
)

type LoaderSuite struct {
	suite.Suite
	backend *fakeapi.Server
	token   string
	client  *api.Client
	metrics *metrics.Metrics
	loader  *dashboard.Loader
}

func TestLoaderSuite(t *testing.T) {
	suite.Run(t, new(LoaderSuite))
}

func (s *LoaderSuite) SetupTest() {
	s.backend = fakeapi.New(fakeapi.WithInsight("Pickups peak on Friday afternoons."))
	s.token = ""
	gw, err := gateway.New(s.backend.BaseURL(),
		gateway.WithTokenSource(gateway.TokenFunc(func(context.Context) string { return s.token })),
		gateway.WithLogger(testutil.DiscardLogger()),
	)
	s.Require().NoError(err)
	s.client = api.New(gw)
	s.metrics = metrics.New(prometheus.NewRegistry())
	s.loader, err = dashboard.New(s.client.Donor, s.client.NGO, s.client.Admin,
		dashboard.WithLogger(testutil.DiscardLogger()),
		dashboard.WithMetrics(s.metrics),
	)
	s.Require().NoError(err)
}

func (s *LoaderSuite) TearDownTest() {
	s.backend.Close()
}

func (s *LoaderSuite) signInAs(user domain.User) *domain.User {
	s.token = s.backend.IssueToken(user.Email)
	return &user
}

func (s *LoaderSuite) TestDonorDashboard() {
	donor := s.backend.Seed("donor@example.com", "pw", "Dana", domain.RoleDonor)
	s.backend.SeedFood(donor.ID, "Bread", "Downtown")

	view, err := s.loader.Load(testutil.Context(s.T()), s.signInAs(donor))

	s.Require().NoError(err)
	s.Equal(routing.DonorDashboard, view.Kind)
	s.Require().NotNil(view.Donor)
	s.Require().Len(view.Donor.History, 1)
	s.Equal("Bread", view.Donor.History[0].Name)
	s.Nil(view.NGO)
	s.Nil(view.Admin)
	s.Equal(1.0, promtestutil.ToFloat64(s.metrics.LoadOutcome.WithLabelValues("donor", "ok")))
}

func (s *LoaderSuite) TestNGODashboard() {
	donor := s.backend.Seed("donor@example.com", "pw", "Dana", domain.RoleDonor)
	ngo := s.backend.Seed("ngo@example.com", "pw", "Helping Hands", domain.RoleNGO)
	item := s.backend.SeedFood(donor.ID, "Soup", "Harbor")
	s.backend.SeedFood(donor.ID, "Rice", "Harbor")
	ctx := testutil.Context(s.T())
	s.signInAs(ngo)
	_, err := s.client.NGO.Claim(ctx, item.ID)
	s.Require().NoError(err)

	view, err := s.loader.Load(ctx, &ngo)

	s.Require().NoError(err)
	s.Equal(routing.NGODashboard, view.Kind)
	s.Require().NotNil(view.NGO)
	s.Len(view.NGO.Available, 1)
	s.Require().Len(view.NGO.Claims, 1)
	s.Equal(item.ID, view.NGO.Claims[0].FoodItemID)
}

func (s *LoaderSuite) TestAdminDashboard() {
	admin := s.backend.Seed("admin@example.com", "pw", "Ada", domain.RoleAdmin)
	s.backend.Seed("ngo@example.com", "pw", "Helping Hands", domain.RoleNGO)

	view, err := s.loader.Load(testutil.Context(s.T()), s.signInAs(admin))

	s.Require().NoError(err)
	s.Equal(routing.AdminDashboard, view.Kind)
	s.Require().NotNil(view.Admin)
	s.Len(view.Admin.Users, 2)
	s.Equal("Pickups peak on Friday afternoons.", view.Admin.Insight)
}

func (s *LoaderSuite) TestWrongRoleSurfacesBackendMessage() {
	donor := s.backend.Seed("donor@example.com", "pw", "Dana", domain.RoleDonor)
	s.signInAs(donor)
	pretending := donor
	pretending.Role = domain.RoleNGO

	view, err := s.loader.Load(testutil.Context(s.T()), &pretending)

	s.Require().Error(err)
	s.Equal("Not an NGO", err.Error())
	s.Nil(view.NGO)
	s.Equal(1.0, promtestutil.ToFloat64(s.metrics.LoadOutcome.WithLabelValues("ngo", "error")))
}

func (s *LoaderSuite) TestViewsWithoutNetwork() {
	ctx := testutil.Context(s.T())

	view, err := s.loader.Load(ctx, nil)
	s.Require().NoError(err)
	s.Equal(routing.LoadingUser, view.Kind)

	view, err = s.loader.Load(ctx, &domain.User{Role: "volunteer"})
	s.Require().NoError(err)
	s.Equal(routing.RoleNotRecognized, view.Kind)

	s.Empty(s.backend.Requests())
}

type stubNGO struct {
	available   error
	historySeen chan error
}

func (n *stubNGO) Available(context.Context) ([]domain.FoodItem, error) {
	return nil, n.available
}

func (n *stubNGO) History(ctx context.Context) ([]domain.Claim, error) {
	<-ctx.Done()
	n.historySeen <- ctx.Err()
	return nil, ctx.Err()
}

type stubAdmin struct {
	insightErr error
}

func (a *stubAdmin) Users(context.Context) ([]domain.User, error) {
	return []domain.User{{ID: 1}}, nil
}

func (a *stubAdmin) Analytics(context.Context) (domain.Analytics, error) {
	return domain.Analytics{TotalFoodRedistributed: 3}, nil
}

func (a *stubAdmin) Insight(context.Context) (domain.Analytics, error) {
	return domain.Analytics{}, a.insightErr
}

func TestFirstFailureCancelsSiblings(t *testing.T) {
	failure := errors.New("Food service unavailable")
	ngo := &stubNGO{available: failure, historySeen: make(chan error, 1)}
	loader, err := dashboard.New(&api.Donor{}, ngo, &stubAdmin{}, dashboard.WithLogger(testutil.DiscardLogger()))
	if err != nil {
		t.Fatal(err)
	}

	_, err = loader.Load(testutil.Context(t), &domain.User{Role: domain.RoleNGO})

	if !errors.Is(err, failure) {
		t.Fatalf("expected the first failure, got %v", err)
	}
	if got := <-ngo.historySeen; !errors.Is(got, context.Canceled) {
		t.Fatalf("expected sibling fetch to be cancelled, got %v", got)
	}
}

func TestInsightFailureIsTolerated(t *testing.T) {
	loader, err := dashboard.New(&api.Donor{}, &stubNGO{}, &stubAdmin{insightErr: errors.New("AI service down")},
		dashboard.WithLogger(testutil.DiscardLogger()))
	if err != nil {
		t.Fatal(err)
	}

	view, err := loader.Load(testutil.Context(t), &domain.User{Role: domain.RoleAdmin})

	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if view.Admin == nil || view.Admin.Analytics.TotalFoodRedistributed != 3 || view.Admin.Insight != "" {
		t.Fatalf("unexpected admin view: %+v", view.Admin)
	}
}

func TestNewRequiresAPIs(t *testing.T) {
	if _, err := dashboard.New(nil, &stubNGO{}, &stubAdmin{}); err == nil {
		t.Fatal("expected error for missing donor api")
	}
}
