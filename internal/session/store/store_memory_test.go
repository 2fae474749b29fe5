package store

import (
	"context"
	"testing"

	"github.com/stretchr/testify/suite"

	"foodrescue/pkg/platform/sentinel"
)

type InMemoryStoreSuite struct {
	suite.Suite
}

func TestInMemoryStoreSuite(t *testing.T) {
	suite.Run(t, new(InMemoryStoreSuite))
}

func (s *InMemoryStoreSuite) TestContract() {
	runContract(&s.Suite, func() sessionStore { return NewInMemory() })
}

func (s *InMemoryStoreSuite) TestCorruptedRecord() {
	st := NewInMemory()
	st.SetRaw([]byte("{not json"))

	_, err := st.Load(context.Background())

	s.ErrorIs(err, sentinel.ErrCorrupted)
}

func (s *InMemoryStoreSuite) TestRawHoldsJSONRecord() {
	st := NewInMemory()
	s.Require().NoError(st.Save(context.Background(), sampleIdentity()))

	s.JSONEq(`{
		"token": "header.payload.signature",
		"user": {
			"id": 42,
			"email": "dana@example.com",
			"name": "Dana",
			"location": "Downtown",
			"role": "donor",
			"is_active": true,
			"is_verified": true
		}
	}`, string(st.Raw()))
}
