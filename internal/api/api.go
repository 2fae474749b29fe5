// Package api wraps each backend endpoint in a typed call.
//
// Every wrapper goes through a gateway client, so bearer credentials, error
// normalization and instrumentation are uniform across endpoints.
package api

import (
	"context"

	"foodrescue/internal/gateway"
)

// Doer performs a single API call. *gateway.Client satisfies it.
type Doer interface {
	Do(ctx context.Context, req gateway.Request, out any) error
}

// Client groups the endpoint families behind one gateway.
type Client struct {
	Auth  *Auth
	Donor *Donor
	NGO   *NGO
	Admin *Admin
	AI    *AI
}

// New builds every endpoint family on top of gw.
func New(gw Doer) *Client {
	return &Client{
		Auth:  NewAuth(gw),
		Donor: NewDonor(gw),
		NGO:   NewNGO(gw),
		Admin: NewAdmin(gw),
		AI:    NewAI(gw),
	}
}

// emptyBody is sent where the backend expects a JSON object but reads nothing.
var emptyBody = struct{}{}
