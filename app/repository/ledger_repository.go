package repository

import (
	"time"

	"github.com/rishikalpadas/mydesignbazaar-sub001/app/models"
	"gorm.io/gorm"
)

// ledgerRepository implements the LedgerRepository interface
type ledgerRepository struct {
	db *gorm.DB
}

// NewLedgerRepository creates a new subscription ledger repository instance
func NewLedgerRepository(db *gorm.DB) LedgerRepository {
	return &ledgerRepository{db: db}
}

// GetCurrentEntry returns the latest non-superseded entry for a buyer,
// valid or not. Callers classify expiry/exhaustion themselves.
func (r *ledgerRepository) GetCurrentEntry(buyerID uint) (*models.SubscriptionLedgerEntry, error) {
	var entry models.SubscriptionLedgerEntry
	err := r.db.Where("buyer_id = ? AND superseded_at IS NULL", buyerID).
		Order("activated_at DESC").
		First(&entry).Error
	if err != nil {
		return nil, err
	}
	return &entry, nil
}

// Replace supersedes the buyer's current entry (if any) and inserts the new
// one atomically. Superseded rows stay in the table for audit.
func (r *ledgerRepository) Replace(entry *models.SubscriptionLedgerEntry) error {
	return r.db.Transaction(func(tx *gorm.DB) error {
		// Each payment order grants at most once, ever; the unique index on
		// source_order_id backs this check under concurrency.
		var count int64
		if err := tx.Model(&models.SubscriptionLedgerEntry{}).
			Where("source_order_id = ?", entry.SourceOrderID).
			Count(&count).Error; err != nil {
			return err
		}
		if count > 0 {
			return gorm.ErrDuplicatedKey
		}

		now := time.Now()
		if err := tx.Model(&models.SubscriptionLedgerEntry{}).
			Where("buyer_id = ? AND superseded_at IS NULL", entry.BuyerID).
			Update("superseded_at", now).Error; err != nil {
			return err
		}
		return tx.Create(entry).Error
	})
}

// GetBySourceOrder returns the ledger entry created by a payment order
func (r *ledgerRepository) GetBySourceOrder(orderID string) (*models.SubscriptionLedgerEntry, error) {
	var entry models.SubscriptionLedgerEntry
	err := r.db.Where("source_order_id = ?", orderID).First(&entry).Error
	if err != nil {
		return nil, err
	}
	return &entry, nil
}

// DecrementCredit is the single atomic conditional update that consumes one
// credit. A plain read-then-write would lose updates when two requests both
// observe credits_remaining = 1; the WHERE clause makes the decrement and
// the validity check one statement.
func (r *ledgerRepository) DecrementCredit(buyerID uint, now time.Time) (bool, error) {
	res := r.db.Model(&models.SubscriptionLedgerEntry{}).
		Where("buyer_id = ? AND superseded_at IS NULL AND credits_remaining > 0 AND expires_at > ?", buyerID, now).
		UpdateColumn("credits_remaining", gorm.Expr("credits_remaining - 1"))
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected > 0, nil
}
