package sentinel

import "errors"

// Sentinel errors for infrastructure facts. Session stores and other adapters
// return these (optionally wrapped) so the session manager can decide what the
// caller should see.
//
//   - ErrNotFound: no record exists in the store
//   - ErrCorrupted: a record exists but cannot be decoded
//   - ErrUnavailable: the backing service could not be reached
var (
	ErrNotFound    = errors.New("not found")
	ErrCorrupted   = errors.New("corrupted")
	ErrUnavailable = errors.New("unavailable")
)
