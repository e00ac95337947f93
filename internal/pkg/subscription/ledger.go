package subscription

import (
	"context"
	"errors"
	"time"

	"github.com/rishikalpadas/mydesignbazaar-sub001/app/models"
	"github.com/rishikalpadas/mydesignbazaar-sub001/app/repository"
	"gorm.io/gorm"
)

var (
	// ErrNoActiveEntry means the buyer never had an entry, or has no current one.
	ErrNoActiveEntry = errors.New("subscription: no active entry")
	// ErrCreditsExhausted means the current entry has zero credits left.
	ErrCreditsExhausted = errors.New("subscription: credits exhausted")
	// ErrEntryExpired means the current entry's validity window has closed.
	ErrEntryExpired = errors.New("subscription: entry expired")
)

// Service is the authoritative subscription ledger. It is the only writer of
// ledger entries; entries are mutated solely by verified payments (grant)
// and download consumption (decrement).
type Service struct {
	repo     repository.LedgerRepository
	statuses StatusStore
	now      func() time.Time
}

// NewService creates a ledger service from an injected repository.
func NewService(repo repository.LedgerRepository) *Service {
	return &Service{repo: repo, now: time.Now}
}

// NewServiceFromDB creates a ledger service from a GORM DB handle.
func NewServiceFromDB(db *gorm.DB) *Service {
	return NewService(repository.NewLedgerRepository(db))
}

// WithClock overrides the time source. Tests only.
func (s *Service) WithClock(now func() time.Time) *Service {
	s.now = now
	return s
}

// WithStatusStore enables status-summary caching. Every ledger mutation
// invalidates the buyer's cached summary.
func (s *Service) WithStatusStore(store StatusStore) *Service {
	s.statuses = store
	return s
}

func (s *Service) invalidateStatus(buyerID uint) {
	if s.statuses != nil {
		s.statuses.Invalidate(buyerID)
	}
}

// GrantEntitlement opens a new entitlement window for the buyer. An existing
// current entry is superseded and its unused credits are discarded (replace
// policy): a purchase always buys exactly the new plan's credits and window.
func (s *Service) GrantEntitlement(ctx context.Context, buyerID uint, planID string, credits, validityDays int, sourceOrderID string) (*models.SubscriptionLedgerEntry, error) {
	_ = ctx
	if buyerID == 0 || planID == "" || sourceOrderID == "" {
		return nil, errors.New("buyer_id, plan_id and source_order_id are required")
	}
	if credits <= 0 || validityDays <= 0 {
		return nil, errors.New("credits and validity_days must be positive")
	}

	activatedAt := s.now()
	entry := &models.SubscriptionLedgerEntry{
		BuyerID:          buyerID,
		PlanID:           planID,
		CreditsGranted:   credits,
		CreditsRemaining: credits,
		ActivatedAt:      activatedAt,
		ExpiresAt:        activatedAt.AddDate(0, 0, validityDays),
		SourceOrderID:    sourceOrderID,
	}
	if err := s.repo.Replace(entry); err != nil {
		return nil, err
	}
	s.invalidateStatus(buyerID)
	return entry, nil
}

// GetActiveEntry returns the buyer's entry only while it is valid. Expired
// or exhausted rows are never reported as active.
func (s *Service) GetActiveEntry(ctx context.Context, buyerID uint) (*models.SubscriptionLedgerEntry, error) {
	_ = ctx
	entry, err := s.repo.GetCurrentEntry(buyerID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNoActiveEntry
		}
		return nil, err
	}
	if !entry.IsValidAt(s.now()) {
		return nil, ErrNoActiveEntry
	}
	return entry, nil
}

// ConsumeCredit atomically takes one credit from the buyer's entry. On
// failure the specific reason is classified from the current row so the
// caller can tell the buyer whether to renew (expired) or upgrade
// (exhausted). Denial paths never mutate the ledger.
func (s *Service) ConsumeCredit(ctx context.Context, buyerID uint) (*models.SubscriptionLedgerEntry, error) {
	_ = ctx
	now := s.now()
	ok, err := s.repo.DecrementCredit(buyerID, now)
	if err != nil {
		return nil, err
	}
	if ok {
		s.invalidateStatus(buyerID)
		return s.repo.GetCurrentEntry(buyerID)
	}

	entry, err := s.repo.GetCurrentEntry(buyerID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNoActiveEntry
		}
		return nil, err
	}
	return nil, classifyDenial(entry, now)
}

// classifyDenial picks the denial reason for an unusable entry. Credits can
// only reach zero through downloads inside the validity window, so an entry
// that is both exhausted and expired ran out of credits first.
func classifyDenial(entry *models.SubscriptionLedgerEntry, now time.Time) error {
	switch {
	case entry.CreditsRemaining <= 0:
		return ErrCreditsExhausted
	case entry.IsExpiredAt(now):
		return ErrEntryExpired
	default:
		// Lost a supersede race; the buyer has no usable entry right now.
		return ErrNoActiveEntry
	}
}

// EntryForOrder returns the ledger entry a payment order produced, or
// ErrNoActiveEntry if the grant was never applied. Used by the payment
// adapter's idempotent verification path.
func (s *Service) EntryForOrder(ctx context.Context, sourceOrderID string) (*models.SubscriptionLedgerEntry, error) {
	_ = ctx
	entry, err := s.repo.GetBySourceOrder(sourceOrderID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNoActiveEntry
		}
		return nil, err
	}
	return entry, nil
}

// Status is the read-only entitlement summary consumed by presentation layers.
type Status struct {
	IsValid          bool      `json:"is_valid"`
	PlanID           string    `json:"plan_id"`
	CreditsRemaining int       `json:"credits_remaining"`
	DaysRemaining    int       `json:"days_remaining"`
	ExpiresAt        time.Time `json:"expires_at"`
}

// Status reports the buyer's current entitlement. ErrNoActiveEntry means the
// buyer never subscribed. An expired or exhausted entry is reported with
// IsValid=false rather than an error so the UI can show the old plan.
func (s *Service) Status(ctx context.Context, buyerID uint) (*Status, error) {
	_ = ctx
	if s.statuses != nil {
		if cached, ok := s.statuses.GetStatus(buyerID); ok {
			return cached, nil
		}
	}
	entry, err := s.repo.GetCurrentEntry(buyerID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNoActiveEntry
		}
		return nil, err
	}
	now := s.now()
	status := &Status{
		IsValid:          entry.IsValidAt(now),
		PlanID:           entry.PlanID,
		CreditsRemaining: entry.CreditsRemaining,
		DaysRemaining:    entry.DaysRemainingAt(now),
		ExpiresAt:        entry.ExpiresAt,
	}
	if s.statuses != nil {
		s.statuses.PutStatus(buyerID, status)
	}
	return status, nil
}
