package subscription

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/rishikalpadas/mydesignbazaar-sub001/internal/pkg/cache"
)

// StatusCacheTTL bounds how stale a cached status summary can get when an
// invalidation is missed.
const StatusCacheTTL = 30 * time.Second

// StatusStore caches entitlement status summaries for the read-only status
// endpoint. Lookups are best effort: any store failure reads like a miss and
// the ledger stays authoritative.
type StatusStore interface {
	GetStatus(buyerID uint) (*Status, bool)
	PutStatus(buyerID uint, status *Status)
	Invalidate(buyerID uint)
}

type redisStatusStore struct {
	ttl time.Duration
}

// NewRedisStatusStore returns a StatusStore backed by the shared Redis cache.
func NewRedisStatusStore() StatusStore {
	return &redisStatusStore{ttl: StatusCacheTTL}
}

func statusKey(buyerID uint) string {
	return fmt.Sprintf("subscription_status:%d", buyerID)
}

func (r *redisStatusStore) GetStatus(buyerID uint) (*Status, bool) {
	raw, err := cache.Get(statusKey(buyerID))
	if err != nil {
		return nil, false
	}
	var status Status
	if err := json.Unmarshal([]byte(raw), &status); err != nil {
		return nil, false
	}
	return &status, true
}

func (r *redisStatusStore) PutStatus(buyerID uint, status *Status) {
	raw, err := json.Marshal(status)
	if err != nil {
		return
	}
	_ = cache.Set(statusKey(buyerID), raw, r.ttl)
}

func (r *redisStatusStore) Invalidate(buyerID uint) {
	_ = cache.Delete(statusKey(buyerID))
}
