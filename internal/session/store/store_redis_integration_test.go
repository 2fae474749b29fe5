//go:build integration

package store

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	"foodrescue/pkg/platform/sentinel"
	"foodrescue/pkg/testutil/containers"
)

type RedisStoreSuite struct {
	suite.Suite
	redis *containers.RedisContainer
}

func TestRedisStoreSuite(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}
	suite.Run(t, new(RedisStoreSuite))
}

func (s *RedisStoreSuite) SetupSuite() {
	s.redis = containers.NewRedisContainer(s.T())
}

func (s *RedisStoreSuite) SetupTest() {
	s.Require().NoError(s.redis.FlushAll(context.Background()))
}

func (s *RedisStoreSuite) TestContract() {
	runContract(&s.Suite, func() sessionStore {
		s.Require().NoError(s.redis.FlushAll(context.Background()))
		return NewRedis(s.redis.Client)
	})
}

func (s *RedisStoreSuite) TestKeyPrefix() {
	ctx := context.Background()
	st := NewRedis(s.redis.Client, WithKeyPrefix("foodrescue:"))
	s.Require().NoError(st.Save(ctx, sampleIdentity()))

	s.Equal("foodrescue:auth", st.RedisKey())
	exists, err := s.redis.Client.Exists(ctx, "foodrescue:auth").Result()
	s.Require().NoError(err)
	s.Equal(int64(1), exists)
}

func (s *RedisStoreSuite) TestTTLFollowsTokenExpiry() {
	ctx := context.Background()
	expires := time.Now().Add(10 * time.Minute)
	st := NewRedis(s.redis.Client, WithTokenExpiry(func(string) (time.Time, bool) {
		return expires, true
	}))
	s.Require().NoError(st.Save(ctx, sampleIdentity()))

	ttl, err := s.redis.Client.TTL(ctx, Key).Result()
	s.Require().NoError(err)
	s.InDelta(10*time.Minute, ttl, float64(5*time.Second))
}

func (s *RedisStoreSuite) TestExpiredTokenNotStored() {
	ctx := context.Background()
	st := NewRedis(s.redis.Client, WithTokenExpiry(func(string) (time.Time, bool) {
		return time.Now().Add(-time.Minute), true
	}))

	err := st.Save(ctx, sampleIdentity())

	s.ErrorIs(err, ErrTokenExpired)
	_, err = st.Load(ctx)
	s.ErrorIs(err, sentinel.ErrNotFound)
}

func (s *RedisStoreSuite) TestCorruptedValue() {
	ctx := context.Background()
	s.Require().NoError(s.redis.Client.Set(ctx, Key, "garbage", 0).Err())

	_, err := NewRedis(s.redis.Client).Load(ctx)

	s.ErrorIs(err, sentinel.ErrCorrupted)
}
