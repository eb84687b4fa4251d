// Package memory holds in-process repository implementations used when
// no external store is configured.
package memory

import (
	"context"
	"time"

	"github.com/patrickmn/go-cache"

	"github.com/jwalitptl/clinic-console/internal/repository"
)

type tokenRepository struct {
	revoked *cache.Cache
	now     func() time.Time
}

// NewTokenRepository keeps revocations in memory. They do not survive a
// restart or spread across replicas.
func NewTokenRepository(cleanup time.Duration) repository.TokenRepository {
	return &tokenRepository{
		revoked: cache.New(cache.NoExpiration, cleanup),
		now:     time.Now,
	}
}

func (r *tokenRepository) Revoke(_ context.Context, tokenID string, expiresAt time.Time) error {
	ttl := expiresAt.Sub(r.now())
	if ttl <= 0 {
		return nil
	}
	r.revoked.Set(tokenID, struct{}{}, ttl)
	return nil
}

func (r *tokenRepository) IsRevoked(_ context.Context, tokenID string) (bool, error) {
	_, found := r.revoked.Get(tokenID)
	return found, nil
}
