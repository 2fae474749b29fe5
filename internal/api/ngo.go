package api

import (
	"context"
	"net/http"
	"strconv"

	"foodrescue/internal/domain"
	"foodrescue/internal/gateway"
)

// NGO covers the endpoints available to NGO accounts.
type NGO struct {
	gw Doer
}

func NewNGO(gw Doer) *NGO {
	return &NGO{gw: gw}
}

// Available lists food that nobody has claimed yet.
func (n *NGO) Available(ctx context.Context) ([]domain.FoodItem, error) {
	var out []domain.FoodItem
	err := n.gw.Do(ctx, gateway.Request{Method: http.MethodGet, Path: "/ngo/food/available"}, &out)
	return out, err
}

// Claim reserves a food item for the signed-in NGO.
func (n *NGO) Claim(ctx context.Context, foodItemID int64) (domain.Claim, error) {
	var out domain.Claim
	err := n.gw.Do(ctx, gateway.Request{
		Method: http.MethodPost,
		Path:   "/ngo/food/claim/" + strconv.FormatInt(foodItemID, 10),
		Route:  "/ngo/food/claim/{id}",
		Body:   emptyBody,
	}, &out)
	return out, err
}

// History lists the signed-in NGO's claims.
func (n *NGO) History(ctx context.Context) ([]domain.Claim, error) {
	var out []domain.Claim
	err := n.gw.Do(ctx, gateway.Request{Method: http.MethodGet, Path: "/ngo/food/history"}, &out)
	return out, err
}

// UpdateClaim moves a claim to status. Callers validate the transition;
// the backend has the final say.
func (n *NGO) UpdateClaim(ctx context.Context, claimID int64, status domain.FoodStatus) (domain.Claim, error) {
	var out domain.Claim
	err := n.gw.Do(ctx, gateway.Request{
		Method: http.MethodPut,
		Path:   "/ngo/food/claim/" + strconv.FormatInt(claimID, 10),
		Route:  "/ngo/food/claim/{id}",
		Body:   map[string]domain.FoodStatus{"status": status},
	}, &out)
	return out, err
}
