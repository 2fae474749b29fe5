package api

import (
	"context"
	"net/http"
	"strconv"

	"foodrescue/internal/domain"
	"foodrescue/internal/gateway"
)

// Admin covers the endpoints available to administrators.
type Admin struct {
	gw Doer
}

func NewAdmin(gw Doer) *Admin {
	return &Admin{gw: gw}
}

func (a *Admin) Users(ctx context.Context) ([]domain.User, error) {
	var out []domain.User
	err := a.gw.Do(ctx, gateway.Request{Method: http.MethodGet, Path: "/admin/users"}, &out)
	return out, err
}

// VerifyUser approves an NGO or admin account so it can sign in.
func (a *Admin) VerifyUser(ctx context.Context, userID int64) (domain.User, error) {
	var out domain.User
	err := a.gw.Do(ctx, gateway.Request{
		Method: http.MethodPut,
		Path:   "/admin/users/" + strconv.FormatInt(userID, 10) + "/verify",
		Route:  "/admin/users/{id}/verify",
		Body:   emptyBody,
	}, &out)
	return out, err
}

func (a *Admin) Analytics(ctx context.Context) (domain.Analytics, error) {
	var out domain.Analytics
	err := a.gw.Do(ctx, gateway.Request{Method: http.MethodGet, Path: "/admin/analytics"}, &out)
	return out, err
}

// Insight returns the analytics summary with a generated narrative.
func (a *Admin) Insight(ctx context.Context) (domain.Analytics, error) {
	var out domain.Analytics
	err := a.gw.Do(ctx, gateway.Request{Method: http.MethodGet, Path: "/ai/analytics-insight"}, &out)
	return out, err
}
