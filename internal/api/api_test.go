package api_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	"foodrescue/internal/api"
	"foodrescue/internal/domain"
	"foodrescue/internal/gateway"
	"foodrescue/pkg/testutil/fakeapi"
)

type APISuite struct {
	suite.Suite
	backend *fakeapi.Server
	token   string
	client  *api.Client
}

func TestAPISuite(t *testing.T) {
	suite.Run(t, new(APISuite))
}

func (s *APISuite) SetupTest() {
	s.backend = fakeapi.New()
	s.token = ""
	gw, err := gateway.New(s.backend.BaseURL(),
		gateway.WithTokenSource(gateway.TokenFunc(func(context.Context) string { return s.token })),
	)
	s.Require().NoError(err)
	s.client = api.New(gw)
}

func (s *APISuite) TearDownTest() {
	s.backend.Close()
}

func (s *APISuite) signInAs(email string) {
	s.token = s.backend.IssueToken(email)
}

func (s *APISuite) TestAuth() {
	ctx := context.Background()

	s.Run("register then login returns the server role", func() {
		user, err := s.client.Auth.Register(ctx, domain.Registration{
			Email:    "donor@example.com",
			Password: "Str0ng!pass",
			Name:     "Dana",
			Role:     domain.RoleDonor,
		})
		s.Require().NoError(err)
		s.Equal(domain.RoleDonor, user.Role)

		resp, err := s.client.Auth.Login(ctx, "donor@example.com", "Str0ng!pass")
		s.Require().NoError(err)
		s.NotEmpty(resp.AccessToken)
		s.Require().NotNil(resp.User)
		s.Equal(domain.RoleDonor, resp.User.Role)
	})

	s.Run("duplicate registration surfaces the detail", func() {
		_, err := s.client.Auth.Register(ctx, domain.Registration{
			Email:    "donor@example.com",
			Password: "Str0ng!pass",
			Name:     "Dana",
			Role:     domain.RoleDonor,
		})
		s.Require().Error(err)
		s.Equal("Email already registered", err.Error())
	})

	s.Run("wrong password is unauthorized", func() {
		_, err := s.client.Auth.Login(ctx, "donor@example.com", "nope")
		s.Require().Error(err)
		s.Equal("Incorrect email or password", err.Error())
		s.True(gateway.IsUnauthorized(err))
	})

	s.Run("otp round trip", func() {
		s.Require().NoError(s.client.Auth.RequestOTP(ctx, "donor@example.com"))
		code := s.backend.OTP("donor@example.com")
		s.Require().NotEmpty(code)

		_, err := s.client.Auth.VerifyOTP(ctx, "donor@example.com", "000000")
		s.Require().Error(err)
		s.Equal("Invalid or expired OTP", err.Error())

		resp, err := s.client.Auth.VerifyOTP(ctx, "donor@example.com", code)
		s.Require().NoError(err)
		s.NotEmpty(resp.AccessToken)
	})

	s.Run("google exchange creates a donor", func() {
		s.backend.RegisterGoogleToken("google-id-token", "g@example.com", "Gina")
		resp, err := s.client.Auth.ExchangeGoogleToken(ctx, "google-id-token")
		s.Require().NoError(err)
		s.Require().NotNil(resp.User)
		s.Equal("g@example.com", resp.User.Email)
		s.Equal(domain.RoleDonor, resp.User.Role)
	})

	s.Run("password reset confirm returns no content", func() {
		s.Require().NoError(s.client.Auth.RequestPasswordReset(ctx, "donor@example.com"))
		token := s.backend.ResetToken("donor@example.com")
		s.Require().NotEmpty(token)

		s.Require().NoError(s.client.Auth.ConfirmPasswordReset(ctx, token, "N3w!password"))
		_, err := s.client.Auth.Login(ctx, "donor@example.com", "N3w!password")
		s.NoError(err)
	})
}

func (s *APISuite) TestDonorFlow() {
	ctx := context.Background()
	s.backend.Seed("donor@example.com", "pw", "Dana", domain.RoleDonor)
	s.signInAs("donor@example.com")

	item, err := s.client.Donor.SubmitFood(ctx, domain.FoodSubmission{
		Name:       "Bread",
		Quantity:   "20 loaves",
		Location:   "Downtown",
		PickupTime: time.Now().Add(time.Hour),
	})
	s.Require().NoError(err)
	s.Equal(domain.FoodStatusPending, item.Status)

	history, err := s.client.Donor.History(ctx)
	s.Require().NoError(err)
	s.Require().Len(history, 1)
	s.Equal("Bread", history[0].Name)
}

func (s *APISuite) TestNGOFlow() {
	ctx := context.Background()
	donor := s.backend.Seed("donor@example.com", "pw", "Dana", domain.RoleDonor)
	s.backend.Seed("ngo@example.com", "pw", "Helping Hands", domain.RoleNGO)
	food := s.backend.SeedFood(donor.ID, "Soup", "Harbor")
	s.signInAs("ngo@example.com")

	available, err := s.client.NGO.Available(ctx)
	s.Require().NoError(err)
	s.Require().Len(available, 1)

	claim, err := s.client.NGO.Claim(ctx, food.ID)
	s.Require().NoError(err)
	s.Equal(food.ID, claim.FoodItemID)

	_, err = s.client.NGO.Claim(ctx, food.ID)
	s.Require().Error(err)
	s.Equal("Food item is no longer available", err.Error())

	updated, err := s.client.NGO.UpdateClaim(ctx, claim.ID, domain.FoodStatusDelivered)
	s.Require().NoError(err)
	s.Equal(domain.FoodStatusDelivered, updated.Status)

	history, err := s.client.NGO.History(ctx)
	s.Require().NoError(err)
	s.Require().Len(history, 1)
	s.Require().NotNil(history[0].FoodItem)
	s.Equal("Soup", history[0].FoodItem.Name)
}

func (s *APISuite) TestRoleEnforcement() {
	s.backend.Seed("donor@example.com", "pw", "Dana", domain.RoleDonor)
	s.signInAs("donor@example.com")

	_, err := s.client.Admin.Users(context.Background())

	s.Require().Error(err)
	s.Equal("Not an admin", err.Error())
	s.Equal(403, gateway.StatusCode(err))
}

func (s *APISuite) TestMissingToken() {
	_, err := s.client.Donor.History(context.Background())

	s.Require().Error(err)
	s.Equal("Not authenticated", err.Error())
}

func (s *APISuite) TestAdminFlow() {
	ctx := context.Background()
	s.backend.Seed("admin@example.com", "pw", "Ada", domain.RoleAdmin)
	_, err := s.client.Auth.Register(ctx, domain.Registration{
		Email: "ngo@example.com", Password: "pw", Name: "Helping Hands", Role: domain.RoleNGO, Location: "Harbor",
	})
	s.Require().NoError(err)
	s.signInAs("admin@example.com")

	users, err := s.client.Admin.Users(ctx)
	s.Require().NoError(err)
	s.Require().Len(users, 2)
	pending := users[1]
	s.False(pending.IsVerified)

	verified, err := s.client.Admin.VerifyUser(ctx, pending.ID)
	s.Require().NoError(err)
	s.True(verified.IsVerified)

	_, err = s.client.Admin.VerifyUser(ctx, 9999)
	s.Require().Error(err)
	s.Equal("User not found", err.Error())

	analytics, err := s.client.Admin.Analytics(ctx)
	s.Require().NoError(err)
	s.Empty(analytics.Insight)
	s.Require().Len(analytics.TopNGOLocations, 1)
	s.Equal("Harbor", analytics.TopNGOLocations[0].Location)

	insight, err := s.client.Admin.Insight(ctx)
	s.Require().NoError(err)
	s.NotEmpty(insight.Insight)
}

func (s *APISuite) TestAI() {
	ctx := context.Background()
	s.backend.Seed("donor@example.com", "pw", "Dana", domain.RoleDonor)
	s.backend.Seed("ngo@example.com", "pw", "Helping Hands", domain.RoleNGO)
	s.signInAs("donor@example.com")

	shelf, err := s.client.AI.ShelfLife(ctx, "cooked rice")
	s.Require().NoError(err)
	s.NotEmpty(shelf.Estimation)

	_, err = s.client.AI.ShelfLife(ctx, "")
	s.Require().Error(err)
	s.Equal("Field required", err.Error())

	match, err := s.client.AI.MatchNGO(ctx, domain.MatchRequest{Location: "Downtown", FoodType: "bread", Quantity: "5"})
	s.Require().NoError(err)
	s.Require().Len(match.Suggestions, 1)
	s.Equal("Helping Hands", match.Suggestions[0].Name)

	draft, err := s.client.AI.DraftMessage(ctx, domain.DraftRequest{FoodName: "bread", Quantity: "5 loaves", Location: "Downtown"})
	s.Require().NoError(err)
	s.Contains(draft.DraftMessage, "bread")
}
