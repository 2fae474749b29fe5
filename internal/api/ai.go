package api

import (
	"context"
	"net/http"

	"foodrescue/internal/domain"
	"foodrescue/internal/gateway"
)

// AI covers the assistant endpoints. Any signed-in role may call them.
type AI struct {
	gw Doer
}

func NewAI(gw Doer) *AI {
	return &AI{gw: gw}
}

// ShelfLife estimates how long the described food stays safe to eat.
func (a *AI) ShelfLife(ctx context.Context, description string) (domain.ShelfLife, error) {
	var out domain.ShelfLife
	err := a.gw.Do(ctx, gateway.Request{
		Method: http.MethodPost,
		Path:   "/ai/shelf-life",
		Body:   map[string]string{"description": description},
	}, &out)
	return out, err
}

// MatchNGO ranks NGOs that could take a donation.
func (a *AI) MatchNGO(ctx context.Context, req domain.MatchRequest) (domain.MatchResponse, error) {
	var out domain.MatchResponse
	err := a.gw.Do(ctx, gateway.Request{
		Method: http.MethodPost,
		Path:   "/ai/match-ngo",
		Body:   req,
	}, &out)
	return out, err
}

// DraftMessage writes a pickup announcement for a donation.
func (a *AI) DraftMessage(ctx context.Context, req domain.DraftRequest) (domain.DraftResponse, error) {
	var out domain.DraftResponse
	err := a.gw.Do(ctx, gateway.Request{
		Method: http.MethodPost,
		Path:   "/ai/draft-message",
		Body:   req,
	}, &out)
	return out, err
}
