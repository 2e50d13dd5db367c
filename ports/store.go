package ports

import "context"

// Store tracks issued challenge tokens and enforces uniqueness,
// single-use consumption, and time-based expiry.
//
// The boolean results are the contract: a false from AddToken means the
// token value is already present (live or consumed), a false from
// Validate uniformly covers unknown, already-consumed, and expired
// tokens. Errors are reserved for backend failures; the in-memory
// reference store never returns one.
type Store interface {
	// AddToken inserts a fresh token as live. Returns false if the
	// token value is already present, in which case the caller must
	// retry with a new token.
	AddToken(ctx context.Context, token string) (bool, error)

	// Validate reports whether the token is live. When invalidate is
	// true a live token is consumed before returning, so at most one
	// caller ever observes true for a given issuance.
	Validate(ctx context.Context, token string, invalidate bool) (bool, error)

	// Expire marks every live token past its expiry window as invalid.
	// Idempotent; implementations with native TTL support may no-op.
	Expire(ctx context.Context) error
}
