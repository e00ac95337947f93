package repository

import (
	"time"

	"github.com/rishikalpadas/mydesignbazaar-sub001/app/models"
	"gorm.io/gorm"
)

// UserRepository defines the interface for user-related database operations
type UserRepository interface {
	Create(user *models.User) error
	GetByID(id uint) (*models.User, error)
	GetByEmail(email string) (*models.User, error)
	GetByAPIKeyHash(hash string) (*models.User, error)
	Update(user *models.User) error
}

// DesignRepository defines the interface for design catalog operations
type DesignRepository interface {
	Create(design *models.Design) error
	GetByUUID(uuid string) (*models.Design, error)
	GetApprovedByUUID(uuid string) (*models.Design, error)
	ListApproved(offset, limit int) ([]models.Design, error)
	UpdateStatus(uuid, status string) error
}

// OrderRepository defines the interface for payment order persistence.
// Status transitions are one-directional; the conditional updates below are
// the serialization points that make verification idempotent under
// concurrent callbacks.
type OrderRepository interface {
	Create(order *models.PaymentOrder) error
	GetByOrderID(orderID string) (*models.PaymentOrder, error)
	ListByBuyer(buyerID uint, offset, limit int) ([]models.PaymentOrder, error)
	// MarkVerified transitions created -> verified and reports whether this
	// caller won the transition (RowsAffected > 0).
	MarkVerified(orderID, gatewayPaymentID string, at time.Time) (bool, error)
	// MarkConsumed transitions verified -> consumed after the ledger grant
	// has been applied.
	MarkConsumed(orderID string) error
	MarkFailed(orderID string) error
}

// LedgerRepository defines the interface for subscription ledger persistence.
type LedgerRepository interface {
	// GetCurrentEntry returns the latest non-superseded entry for a buyer
	// regardless of validity, or gorm.ErrRecordNotFound if none ever existed.
	GetCurrentEntry(buyerID uint) (*models.SubscriptionLedgerEntry, error)
	// Replace supersedes any current entry and inserts the new one in a
	// single transaction.
	Replace(entry *models.SubscriptionLedgerEntry) error
	// GetBySourceOrder returns the entry created by a given payment order.
	GetBySourceOrder(orderID string) (*models.SubscriptionLedgerEntry, error)
	// DecrementCredit issues the single conditional UPDATE that consumes one
	// credit, and reports whether a row was actually modified.
	DecrementCredit(buyerID uint, now time.Time) (bool, error)
}

// SettingRepository defines the interface for settings access
type SettingRepository interface {
	List() ([]models.Setting, error)
	GetValue(key string) (string, error)
	SetValue(key, value, settingType string) error
}

// Repositories struct holds all repository instances
type Repositories struct {
	User    UserRepository
	Design  DesignRepository
	Order   OrderRepository
	Ledger  LedgerRepository
	Setting SettingRepository
}

// NewRepositories creates a new instance of all repositories
func NewRepositories(db *gorm.DB) *Repositories {
	return &Repositories{
		User:    NewUserRepository(db),
		Design:  NewDesignRepository(db),
		Order:   NewOrderRepository(db),
		Ledger:  NewLedgerRepository(db),
		Setting: NewSettingRepository(db),
	}
}
