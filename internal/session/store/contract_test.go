package store

import (
	"context"

	"github.com/stretchr/testify/suite"

	"foodrescue/internal/domain"
	"foodrescue/pkg/platform/sentinel"
)

func sampleIdentity() domain.Identity {
	return domain.Identity{
		Token: "header.payload.signature",
		User: &domain.User{
			ID:         42,
			Email:      "dana@example.com",
			Name:       "Dana",
			Location:   "Downtown",
			Role:       domain.RoleDonor,
			IsActive:   true,
			IsVerified: true,
		},
	}
}

type sessionStore interface {
	Load(ctx context.Context) (domain.Identity, error)
	Save(ctx context.Context, id domain.Identity) error
	Clear(ctx context.Context) error
}

// runContract exercises the behavior every store must share.
func runContract(s *suite.Suite, newStore func() sessionStore) {
	ctx := context.Background()

	s.Run("empty store reports not found", func() {
		st := newStore()
		_, err := st.Load(ctx)
		s.ErrorIs(err, sentinel.ErrNotFound)
	})

	s.Run("save then load round trips", func() {
		st := newStore()
		want := sampleIdentity()
		s.Require().NoError(st.Save(ctx, want))

		got, err := st.Load(ctx)
		s.Require().NoError(err)
		s.Equal(want, got)
	})

	s.Run("save replaces the whole record", func() {
		st := newStore()
		s.Require().NoError(st.Save(ctx, sampleIdentity()))
		next := domain.Identity{Token: "other", User: &domain.User{ID: 7, Email: "n@example.com", Role: domain.RoleNGO}}
		s.Require().NoError(st.Save(ctx, next))

		got, err := st.Load(ctx)
		s.Require().NoError(err)
		s.Equal(next, got)
	})

	s.Run("clear removes the record and is idempotent", func() {
		st := newStore()
		s.Require().NoError(st.Save(ctx, sampleIdentity()))
		s.Require().NoError(st.Clear(ctx))
		s.Require().NoError(st.Clear(ctx))

		_, err := st.Load(ctx)
		s.ErrorIs(err, sentinel.ErrNotFound)
	})
}
