package models

import "time"

// SubscriptionLedgerEntry is the authoritative record of a buyer's
// entitlement. At most one current (non-superseded) row exists per buyer;
// exhausted and expired rows are retained for audit but never active.
type SubscriptionLedgerEntry struct {
	ID               uint       `gorm:"primaryKey" json:"id"`
	BuyerID          uint       `gorm:"not null;index:idx_ledger_buyer_current,priority:1" json:"buyer_id"`
	PlanID           string     `gorm:"type:varchar(20);not null" json:"plan_id"`
	CreditsGranted   int        `gorm:"not null" json:"credits_granted"`
	CreditsRemaining int        `gorm:"not null" json:"credits_remaining"`
	ActivatedAt      time.Time  `gorm:"type:timestamp;not null" json:"activated_at"`
	ExpiresAt        time.Time  `gorm:"type:timestamp;not null;index" json:"expires_at"`
	SourceOrderID    string     `gorm:"type:varchar(36);not null;uniqueIndex" json:"source_order_id"`
	SupersededAt     *time.Time `gorm:"type:timestamp;default:null;index:idx_ledger_buyer_current,priority:2" json:"superseded_at,omitempty"`
	CreatedAt        time.Time  `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt        time.Time  `gorm:"autoUpdateTime" json:"updated_at"`
}

// IsValidAt reports whether the entry entitles downloads at the given time.
func (e *SubscriptionLedgerEntry) IsValidAt(now time.Time) bool {
	return e.SupersededAt == nil && e.CreditsRemaining > 0 && now.Before(e.ExpiresAt)
}

// IsExpiredAt reports whether the validity window has closed.
func (e *SubscriptionLedgerEntry) IsExpiredAt(now time.Time) bool {
	return !now.Before(e.ExpiresAt)
}

// DaysRemainingAt returns whole days left in the validity window, never negative.
func (e *SubscriptionLedgerEntry) DaysRemainingAt(now time.Time) int {
	if e.IsExpiredAt(now) {
		return 0
	}
	return int(e.ExpiresAt.Sub(now).Hours() / 24)
}
