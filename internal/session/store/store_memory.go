package store

import (
	"context"
	"sync"

	"foodrescue/internal/domain"
	"foodrescue/pkg/platform/sentinel"
)

// InMemoryStore keeps the encoded record in process memory. It goes through
// the same codec as the durable stores so corruption handling is identical.
type InMemoryStore struct {
	mu   sync.RWMutex
	data []byte
}

func NewInMemory() *InMemoryStore {
	return &InMemoryStore{}
}

func (s *InMemoryStore) Load(_ context.Context) (domain.Identity, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.data == nil {
		return domain.Identity{}, sentinel.ErrNotFound
	}
	return decode(s.data)
}

func (s *InMemoryStore) Save(_ context.Context, id domain.Identity) error {
	data, err := encode(id)
	if err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.data = data
	return nil
}

func (s *InMemoryStore) Clear(_ context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.data = nil
	return nil
}

// Raw returns the stored bytes, or nil when empty.
func (s *InMemoryStore) Raw() []byte {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]byte(nil), s.data...)
}

// SetRaw stores bytes verbatim, bypassing the codec.
func (s *InMemoryStore) SetRaw(data []byte) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.data = append([]byte(nil), data...)
}
