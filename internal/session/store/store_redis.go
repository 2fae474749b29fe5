package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"foodrescue/internal/domain"
	"foodrescue/pkg/platform/sentinel"
)

// ErrTokenExpired is returned by Save when the token has already expired.
var ErrTokenExpired = errors.New("session token has already expired")

// ExpiryFunc reports when a token stops being valid.
type ExpiryFunc func(token string) (time.Time, bool)

// RedisStore keeps the record under a single key, written with one SET.
type RedisStore struct {
	client *redis.Client
	key    string
	expiry ExpiryFunc
	now    func() time.Time
}

// RedisOption configures a RedisStore.
type RedisOption func(*RedisStore)

// WithKeyPrefix namespaces the key, e.g. "foodrescue:" gives "foodrescue:auth".
func WithKeyPrefix(prefix string) RedisOption {
	return func(s *RedisStore) {
		s.key = prefix + Key
	}
}

// WithTokenExpiry lets the record expire with its token. Tokens without an
// expiry are stored without a TTL.
func WithTokenExpiry(fn ExpiryFunc) RedisOption {
	return func(s *RedisStore) {
		s.expiry = fn
	}
}

func NewRedis(client *redis.Client, opts ...RedisOption) *RedisStore {
	s := &RedisStore{client: client, key: Key, now: time.Now}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// RedisKey is the key the record is stored under.
func (s *RedisStore) RedisKey() string {
	return s.key
}

func (s *RedisStore) Load(ctx context.Context) (domain.Identity, error) {
	data, err := s.client.Get(ctx, s.key).Bytes()
	if errors.Is(err, redis.Nil) {
		return domain.Identity{}, sentinel.ErrNotFound
	}
	if err != nil {
		return domain.Identity{}, fmt.Errorf("get session: %w: %w", sentinel.ErrUnavailable, err)
	}
	return decode(data)
}

func (s *RedisStore) Save(ctx context.Context, id domain.Identity) error {
	data, err := encode(id)
	if err != nil {
		return err
	}
	ttl := s.ttl(id.Token)
	if ttl < 0 {
		return ErrTokenExpired
	}
	if err := s.client.Set(ctx, s.key, data, ttl).Err(); err != nil {
		return fmt.Errorf("set session: %w: %w", sentinel.ErrUnavailable, err)
	}
	return nil
}

func (s *RedisStore) Clear(ctx context.Context) error {
	if err := s.client.Del(ctx, s.key).Err(); err != nil {
		return fmt.Errorf("delete session: %w: %w", sentinel.ErrUnavailable, err)
	}
	return nil
}

// ttl returns 0 for no expiry and a negative value for a token that has
// already expired.
func (s *RedisStore) ttl(token string) time.Duration {
	if s.expiry == nil {
		return 0
	}
	exp, ok := s.expiry(token)
	if !ok {
		return 0
	}
	remaining := exp.Sub(s.now())
	if remaining <= 0 {
		return -1
	}
	return remaining
}
