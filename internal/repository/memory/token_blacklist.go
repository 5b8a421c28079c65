package memory

import (
	"context"
	"sync"
	"time"

	"github.com/tablebook/reservation-service/internal/repository"
)

type tokenBlacklist struct {
	mu      sync.Mutex
	now     func() time.Time
	revoked map[string]time.Time
}

// NewTokenBlacklist returns a process-local blacklist. Entries lapse when the token expires.
func NewTokenBlacklist() repository.TokenBlacklist {
	return &tokenBlacklist{now: time.Now, revoked: make(map[string]time.Time)}
}

func (b *tokenBlacklist) Revoke(_ context.Context, tokenID string, expiresAt time.Time) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.revoked[tokenID] = expiresAt
	return nil
}

func (b *tokenBlacklist) IsRevoked(_ context.Context, tokenID string) (bool, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	expiresAt, ok := b.revoked[tokenID]
	if !ok {
		return false, nil
	}
	if b.now().After(expiresAt) {
		delete(b.revoked, tokenID)
		return false, nil
	}
	return true, nil
}
