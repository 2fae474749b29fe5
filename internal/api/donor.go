package api

import (
	"context"
	"net/http"

	"foodrescue/internal/domain"
	"foodrescue/internal/gateway"
)

// Donor covers the endpoints available to donor accounts.
type Donor struct {
	gw Doer
}

func NewDonor(gw Doer) *Donor {
	return &Donor{gw: gw}
}

// SubmitFood offers a new donation.
func (d *Donor) SubmitFood(ctx context.Context, sub domain.FoodSubmission) (domain.FoodItem, error) {
	var out domain.FoodItem
	err := d.gw.Do(ctx, gateway.Request{
		Method: http.MethodPost,
		Path:   "/donor/food",
		Body:   sub,
	}, &out)
	return out, err
}

// History lists the signed-in donor's submissions.
func (d *Donor) History(ctx context.Context) ([]domain.FoodItem, error) {
	var out []domain.FoodItem
	err := d.gw.Do(ctx, gateway.Request{Method: http.MethodGet, Path: "/donor/food/history"}, &out)
	return out, err
}
