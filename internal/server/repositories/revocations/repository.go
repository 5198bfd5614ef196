// Package revocations keeps the optional denylist of token IDs that were
// explicitly logged out before their natural expiry.
package revocations

import (
	"context"
	"time"
)

type Repository interface {
	// Revoke marks jti as unusable until expiresAt. Already expired tokens
	// are ignored.
	Revoke(ctx context.Context, jti string, expiresAt time.Time) error
	IsRevoked(ctx context.Context, jti string) (bool, error)
}

// Noop is used when no denylist backend is configured: tokens stay valid
// until they expire.
type Noop struct{}

func (Noop) Revoke(context.Context, string, time.Time) error { return nil }

func (Noop) IsRevoked(context.Context, string) (bool, error) { return false, nil }
