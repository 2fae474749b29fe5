package validation

import (
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"

	"foodrescue/internal/domain"
)

func TestCheckPassword(t *testing.T) {
	cases := []struct {
		password string
		want     PasswordRules
	}{
		{"", PasswordRules{}},
		{"Str0ng!pw", PasswordRules{Length: true, Uppercase: true, Lowercase: true, Number: true, Special: true}},
		{"alllowercase", PasswordRules{Length: true, Lowercase: true}},
		{"SHORT1!", PasswordRules{Uppercase: true, Number: true, Special: true}},
		{"Password123?", PasswordRules{Length: true, Uppercase: true, Lowercase: true, Number: true}},
	}
	for _, tc := range cases {
		t.Run(tc.password, func(t *testing.T) {
			assert.Equal(t, tc.want, CheckPassword(tc.password))
		})
	}
}

func TestPassword(t *testing.T) {
	require.NoError(t, Password("Str0ng!pw"))

	err := Password("weakpass")
	require.Error(t, err)
	assert.True(t, IsValidation(err))
	assert.Equal(t, "Password must contain an uppercase letter, a number, a special character (!@#$%^&*)", err.Error())
}

type FormSuite struct {
	suite.Suite
}

func TestFormSuite(t *testing.T) {
	suite.Run(t, new(FormSuite))
}

func (s *FormSuite) validRegistration() domain.Registration {
	return domain.Registration{
		Email:    "dana@example.com",
		Password: "Str0ng!pw",
		Name:     "Dana",
		Role:     domain.RoleDonor,
	}
}

func (s *FormSuite) TestRegistration() {
	s.Run("valid registration passes", func() {
		s.NoError(Registration(s.validRegistration()))
	})

	s.Run("bad email rejected", func() {
		reg := s.validRegistration()
		reg.Email = "not-an-email"
		err := Registration(reg)
		s.Require().Error(err)
		s.Equal("Please enter a valid email address", err.Error())
	})

	s.Run("missing name rejected", func() {
		reg := s.validRegistration()
		reg.Name = "  "
		s.EqualError(Registration(reg), "Name is required")
	})

	s.Run("unknown role rejected", func() {
		reg := s.validRegistration()
		reg.Role = "volunteer"
		err := Registration(reg)
		var ve *Error
		s.Require().ErrorAs(err, &ve)
		s.Equal("role", ve.Field)
	})

	s.Run("weak password rejected", func() {
		reg := s.validRegistration()
		reg.Password = "password"
		s.Error(Registration(reg))
	})
}

func (s *FormSuite) TestPasswordReset() {
	s.EqualError(PasswordReset("", "Str0ng!pw", "Str0ng!pw"), "Missing or invalid reset link")
	s.EqualError(PasswordReset("tok", "Str0ng!pw", "Str0ng!px"), "Passwords do not match")
	s.Error(PasswordReset("tok", "weak", "weak"))
	s.NoError(PasswordReset("tok", "Str0ng!pw", "Str0ng!pw"))
}

func (s *FormSuite) TestCredentials() {
	s.EqualError(Credentials("", "pw"), "Email and password are required")
	s.EqualError(Credentials("a@b.com", ""), "Email and password are required")
	s.NoError(Credentials("a@b.com", "pw"))
}

func (s *FormSuite) TestClaimStatus() {
	for _, status := range []domain.FoodStatus{domain.FoodStatusDelivered, domain.FoodStatusCancelled} {
		s.NoError(ClaimStatus(status), fmt.Sprint(status))
	}
	for _, status := range []domain.FoodStatus{domain.FoodStatusPending, domain.FoodStatusClaimed, "lost"} {
		s.Error(ClaimStatus(status), fmt.Sprint(status))
	}
}

func (s *FormSuite) TestFoodSubmission() {
	valid := domain.FoodSubmission{
		Name:       "Bread",
		Quantity:   "20 loaves",
		Location:   "Downtown",
		PickupTime: time.Now().Add(time.Hour),
	}
	s.NoError(FoodSubmission(valid))

	missingTime := valid
	missingTime.PickupTime = time.Time{}
	s.EqualError(FoodSubmission(missingTime), "Pickup time is required")

	missingName := valid
	missingName.Name = ""
	s.EqualError(FoodSubmission(missingName), "Food name is required")
}

func (s *FormSuite) TestOTPCode() {
	s.Error(OTPCode(" "))
	s.NoError(OTPCode("123456"))
}
