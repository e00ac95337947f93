package repository

import (
	"time"

	"github.com/rishikalpadas/mydesignbazaar-sub001/app/models"
	"gorm.io/gorm"
)

// orderRepository implements the OrderRepository interface
type orderRepository struct {
	db *gorm.DB
}

// NewOrderRepository creates a new payment order repository instance
func NewOrderRepository(db *gorm.DB) OrderRepository {
	return &orderRepository{db: db}
}

// Create persists a new order in created status
func (r *orderRepository) Create(order *models.PaymentOrder) error {
	return r.db.Create(order).Error
}

// GetByOrderID retrieves an order by its public order id
func (r *orderRepository) GetByOrderID(orderID string) (*models.PaymentOrder, error) {
	var order models.PaymentOrder
	err := r.db.Where("order_id = ?", orderID).First(&order).Error
	if err != nil {
		return nil, err
	}
	return &order, nil
}

// ListByBuyer returns a buyer's orders, newest first
func (r *orderRepository) ListByBuyer(buyerID uint, offset, limit int) ([]models.PaymentOrder, error) {
	var orders []models.PaymentOrder
	err := r.db.Where("buyer_id = ?", buyerID).
		Order("created_at DESC").
		Offset(offset).Limit(limit).
		Find(&orders).Error
	return orders, err
}

// MarkVerified transitions created -> verified with a conditional update.
// Concurrent verifications race on the WHERE clause; exactly one wins.
func (r *orderRepository) MarkVerified(orderID, gatewayPaymentID string, at time.Time) (bool, error) {
	res := r.db.Model(&models.PaymentOrder{}).
		Where("order_id = ? AND status = ?", orderID, models.OrderStatusCreated).
		Updates(map[string]interface{}{
			"status":             models.OrderStatusVerified,
			"gateway_payment_id": gatewayPaymentID,
			"verified_at":        at,
		})
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected > 0, nil
}

// MarkConsumed transitions verified -> consumed once the grant is applied
func (r *orderRepository) MarkConsumed(orderID string) error {
	return r.db.Model(&models.PaymentOrder{}).
		Where("order_id = ? AND status = ?", orderID, models.OrderStatusVerified).
		Update("status", models.OrderStatusConsumed).Error
}

// MarkFailed transitions created -> failed
func (r *orderRepository) MarkFailed(orderID string) error {
	return r.db.Model(&models.PaymentOrder{}).
		Where("order_id = ? AND status = ?", orderID, models.OrderStatusCreated).
		Update("status", models.OrderStatusFailed).Error
}
