package models

import "time"

// Payment order lifecycle. Transitions are one-directional:
// created -> verified -> consumed, or created -> failed.
const (
	OrderStatusCreated  = "created"
	OrderStatusVerified = "verified"
	OrderStatusConsumed = "consumed"
	OrderStatusFailed   = "failed"
)

// Order kinds. Subscription orders credit the ledger on verification;
// download orders issue a single one-shot grant and never touch the ledger.
const (
	OrderKindSubscription = "subscription"
	OrderKindDownload     = "download"
)

// PaymentOrder records a gateway checkout. Plan values (amount, credits,
// validity) are copied from the pricing catalog at creation time so later
// catalog edits never change what an order entitles the buyer to.
type PaymentOrder struct {
	ID               uint       `gorm:"primaryKey" json:"id"`
	OrderID          string     `gorm:"type:varchar(36);uniqueIndex;not null" json:"order_id"`
	GatewayOrderID   string     `gorm:"type:varchar(191);index;not null;default:''" json:"gateway_order_id"`
	GatewayPaymentID string     `gorm:"type:varchar(191);default:''" json:"gateway_payment_id"`
	BuyerID          uint       `gorm:"not null;index" json:"buyer_id"`
	Kind             string     `gorm:"type:varchar(20);not null;default:'subscription'" json:"kind"`
	PlanID           string     `gorm:"type:varchar(20);default:''" json:"plan_id"`
	TierID           string     `gorm:"type:varchar(20);default:''" json:"tier_id"`
	DesignUUID       string     `gorm:"type:varchar(36);default:''" json:"design_uuid"`
	AmountMinorUnits int64      `gorm:"not null" json:"amount_minor_units"`
	Currency         string     `gorm:"type:varchar(3);not null;default:'INR'" json:"currency"`
	CreditsGranted   int        `gorm:"not null;default:0" json:"credits_granted"`
	ValidityDays     int        `gorm:"not null;default:0" json:"validity_days"`
	Status           string     `gorm:"type:varchar(20);not null;default:'created';index" json:"status"`
	VerifiedAt       *time.Time `gorm:"type:timestamp;default:null" json:"verified_at,omitempty"`
	CreatedAt        time.Time  `gorm:"autoCreateTime;index" json:"created_at"`
	UpdatedAt        time.Time  `gorm:"autoUpdateTime" json:"updated_at"`
}

// IsSettled reports whether verification has already been applied; a second
// verification of a settled order is answered idempotently.
func (o *PaymentOrder) IsSettled() bool {
	return o.Status == OrderStatusVerified || o.Status == OrderStatusConsumed
}
