package repository

import (
	"context"
	"time"
)

// StateStore abstracts the ephemeral key-value state the auth flow needs:
// OAuth2 CSRF state tokens and the refresh-token JTI allow-list.
// Implementations: Redis (production) or in-memory (local dev, tests).
type StateStore interface {
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error
	Get(ctx context.Context, key string) ([]byte, error)
	Delete(ctx context.Context, key string) error
	Exists(ctx context.Context, key string) (bool, error)
}
