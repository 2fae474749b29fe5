package api

import (
	"context"
	"net/http"
	"net/url"

	"foodrescue/internal/domain"
	"foodrescue/internal/gateway"
)

// Auth covers the endpoints that create accounts and issue tokens.
// Token-issuing calls are sent without a bearer header.
type Auth struct {
	gw Doer
}

func NewAuth(gw Doer) *Auth {
	return &Auth{gw: gw}
}

// Login exchanges email and password for a token. The backend expects an
// OAuth2 password form, with the email in the username field.
func (a *Auth) Login(ctx context.Context, email, password string) (domain.TokenResponse, error) {
	var out domain.TokenResponse
	err := a.gw.Do(ctx, gateway.Request{
		Method:    http.MethodPost,
		Path:      "/auth/token",
		Body:      url.Values{"username": {email}, "password": {password}},
		Encoding:  gateway.EncodingForm,
		Anonymous: true,
	}, &out)
	return out, err
}

// Register creates an account. It never signs the user in.
func (a *Auth) Register(ctx context.Context, reg domain.Registration) (domain.User, error) {
	var out domain.User
	err := a.gw.Do(ctx, gateway.Request{
		Method:    http.MethodPost,
		Path:      "/auth/register",
		Body:      reg,
		Anonymous: true,
	}, &out)
	return out, err
}

// ExchangeGoogleToken trades a Google ID token for a session token.
func (a *Auth) ExchangeGoogleToken(ctx context.Context, idToken string) (domain.TokenResponse, error) {
	var out domain.TokenResponse
	err := a.gw.Do(ctx, gateway.Request{
		Method:    http.MethodPost,
		Path:      "/auth/google",
		Body:      map[string]string{"token": idToken},
		Anonymous: true,
	}, &out)
	return out, err
}

// RequestOTP asks the backend to email a one-time code.
func (a *Auth) RequestOTP(ctx context.Context, email string) error {
	return a.gw.Do(ctx, gateway.Request{
		Method:    http.MethodPost,
		Path:      "/auth/otp/request",
		Query:     url.Values{"email": {email}},
		Anonymous: true,
	}, nil)
}

// VerifyOTP redeems a one-time code for a session token.
func (a *Auth) VerifyOTP(ctx context.Context, email, code string) (domain.TokenResponse, error) {
	var out domain.TokenResponse
	err := a.gw.Do(ctx, gateway.Request{
		Method:    http.MethodPost,
		Path:      "/auth/otp/verify",
		Body:      map[string]string{"email": email, "code": code},
		Anonymous: true,
	}, &out)
	return out, err
}

func (a *Auth) RequestPasswordReset(ctx context.Context, email string) error {
	return a.gw.Do(ctx, gateway.Request{
		Method: http.MethodPost,
		Path:   "/auth/password/reset/request",
		Body:   map[string]string{"email": email},
	}, nil)
}

func (a *Auth) ConfirmPasswordReset(ctx context.Context, token, newPassword string) error {
	return a.gw.Do(ctx, gateway.Request{
		Method: http.MethodPost,
		Path:   "/auth/password/reset/confirm",
		Body:   map[string]string{"token": token, "new_password": newPassword},
	}, nil)
}
