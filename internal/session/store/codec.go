// Package store provides the persisted-session backends: in-memory, a local
// file and Redis. All of them hold one record, the JSON {"token", "user"}
// stored under the key "auth".
package store

import (
	"encoding/json"
	"fmt"

	"foodrescue/internal/domain"
	"foodrescue/pkg/platform/sentinel"
)

// Key is the name the session record is stored under.
const Key = "auth"

func encode(id domain.Identity) ([]byte, error) {
	data, err := json.Marshal(id)
	if err != nil {
		return nil, fmt.Errorf("encode session: %w", err)
	}
	return data, nil
}

// decode parses a stored record. Anything that is not a JSON object of the
// expected shape is reported as corrupted; completeness is the caller's check.
func decode(data []byte) (domain.Identity, error) {
	var id domain.Identity
	if err := json.Unmarshal(data, &id); err != nil {
		return domain.Identity{}, fmt.Errorf("decode session: %w: %w", sentinel.ErrCorrupted, err)
	}
	return id, nil
}
