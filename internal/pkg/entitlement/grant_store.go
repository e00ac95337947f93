package entitlement

import (
	"sync"
	"time"

	"github.com/rishikalpadas/mydesignbazaar-sub001/internal/pkg/cache"
)

const grantKeyPrefix = "download_grant:"

// redisGrantStore marks redemptions with a TTL'd SETNX so a grant id can be
// redeemed once across all app instances.
type redisGrantStore struct{}

// NewRedisGrantStore returns the production grant store backed by the shared
// Redis cache.
func NewRedisGrantStore() GrantStore {
	return redisGrantStore{}
}

func (redisGrantStore) MarkRedeemed(grantID string, ttl time.Duration) (bool, error) {
	return cache.SetNX(grantKeyPrefix+grantID, 1, ttl)
}

// MemoryGrantStore is an in-process grant store for tests and single-node
// development runs.
type MemoryGrantStore struct {
	mu       sync.Mutex
	redeemed map[string]time.Time
}

// NewMemoryGrantStore creates an empty in-memory store.
func NewMemoryGrantStore() *MemoryGrantStore {
	return &MemoryGrantStore{redeemed: make(map[string]time.Time)}
}

func (m *MemoryGrantStore) MarkRedeemed(grantID string, ttl time.Duration) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	now := time.Now()
	if exp, ok := m.redeemed[grantID]; ok && now.Before(exp) {
		return false, nil
	}
	m.redeemed[grantID] = now.Add(ttl)
	return true, nil
}
