package payment

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/rishikalpadas/mydesignbazaar-sub001/app/models"
	"github.com/rishikalpadas/mydesignbazaar-sub001/app/repository"
	"github.com/rishikalpadas/mydesignbazaar-sub001/internal/pkg/audit"
	"github.com/rishikalpadas/mydesignbazaar-sub001/internal/pkg/pricing"
	"github.com/rishikalpadas/mydesignbazaar-sub001/internal/pkg/subscription"
	"gorm.io/gorm"
)

var (
	// ErrNotABuyer means the account exists but may not purchase plans.
	ErrNotABuyer = errors.New("payment: account is not a buyer")
	// ErrOrderNotFound means no order exists for the given id.
	ErrOrderNotFound = errors.New("payment: order not found")
	// ErrOrderFailed means the order was already marked failed.
	ErrOrderFailed = errors.New("payment: order already failed")
	// ErrOrderSettled means the order already applied its entitlement and
	// cannot be failed.
	ErrOrderSettled = errors.New("payment: order already settled")
	// ErrSignatureMismatch means the gateway callback signature did not verify.
	ErrSignatureMismatch = errors.New("payment: signature mismatch")
	// ErrDesignNotAvailable means a pay-per-download order referenced a
	// design that is missing or not approved.
	ErrDesignNotAvailable = errors.New("payment: design not available")
)

// DownloadGrantIssuer issues one-shot download grants for pay-per-download
// orders. Implemented by the entitlement engine.
type DownloadGrantIssuer interface {
	IssueGrant(ctx context.Context, buyerID uint, designUUID string) (token string, expiresAt time.Time, err error)
}

// CatalogProvider returns the current pricing snapshot. The snapshot is
// consulted exactly once per order creation; its values are copied into the
// order row and never re-read.
type CatalogProvider func() pricing.Catalog

// Service is the payment order/verification adapter. It owns PaymentOrder
// rows; status transitions are one-directional and verification is
// idempotent.
type Service struct {
	users   repository.UserRepository
	orders  repository.OrderRepository
	designs repository.DesignRepository
	ledger  *subscription.Service
	gateway Gateway
	grants  DownloadGrantIssuer
	auditor audit.Recorder
	catalog CatalogProvider
	secret  string
	now     func() time.Time
}

// NewService wires the payment adapter from its collaborators.
func NewService(
	users repository.UserRepository,
	orders repository.OrderRepository,
	designs repository.DesignRepository,
	ledger *subscription.Service,
	gateway Gateway,
	grants DownloadGrantIssuer,
	auditor audit.Recorder,
	catalog CatalogProvider,
	secret string,
) *Service {
	return &Service{
		users:   users,
		orders:  orders,
		designs: designs,
		ledger:  ledger,
		gateway: gateway,
		grants:  grants,
		auditor: auditor,
		catalog: catalog,
		secret:  secret,
		now:     time.Now,
	}
}

// WithClock overrides the time source. Tests only.
func (s *Service) WithClock(now func() time.Time) *Service {
	s.now = now
	return s
}

// OrderDescriptor is returned to the client to launch gateway checkout.
type OrderDescriptor struct {
	OrderID          string `json:"order_id"`
	GatewayOrderID   string `json:"gateway_order_id"`
	AmountMinorUnits int64  `json:"amount_minor_units"`
	Currency         string `json:"currency"`
}

const currencyINR = "INR"

func (s *Service) resolveBuyer(buyerID uint) (*models.User, error) {
	user, err := s.users.GetByID(buyerID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotABuyer
		}
		return nil, err
	}
	if !user.IsBuyer() || !user.IsActive() {
		return nil, ErrNotABuyer
	}
	return user, nil
}

// CreateOrder opens a subscription checkout for a plan. The plan's price,
// credits and validity are copied from the catalog snapshot into the order.
func (s *Service) CreateOrder(ctx context.Context, buyerID uint, planID pricing.PlanID) (*OrderDescriptor, error) {
	if _, err := s.resolveBuyer(buyerID); err != nil {
		return nil, err
	}
	plan, err := s.catalog().Plan(planID)
	if err != nil {
		return nil, err
	}

	gatewayOrderID, err := s.gateway.CreateGatewayOrder(ctx, plan.PriceMinorUnits, currencyINR)
	if err != nil {
		return nil, err
	}

	order := &models.PaymentOrder{
		OrderID:          uuid.NewString(),
		GatewayOrderID:   gatewayOrderID,
		BuyerID:          buyerID,
		Kind:             models.OrderKindSubscription,
		PlanID:           string(plan.ID),
		AmountMinorUnits: plan.PriceMinorUnits,
		Currency:         currencyINR,
		CreditsGranted:   plan.CreditsGranted,
		ValidityDays:     plan.ValidityDays,
		Status:           models.OrderStatusCreated,
	}
	if err := s.orders.Create(order); err != nil {
		return nil, err
	}

	s.auditor.Record(audit.EventOrderCreated, map[string]any{
		"order_id": order.OrderID,
		"buyer_id": buyerID,
		"kind":     order.Kind,
		"plan_id":  order.PlanID,
		"amount":   order.AmountMinorUnits,
	})
	return &OrderDescriptor{
		OrderID:          order.OrderID,
		GatewayOrderID:   order.GatewayOrderID,
		AmountMinorUnits: order.AmountMinorUnits,
		Currency:         order.Currency,
	}, nil
}

// CreateDownloadOrder opens a pay-per-download checkout for a single design,
// priced by the design's tier. This path never touches the subscription
// ledger; verification issues one grant directly.
func (s *Service) CreateDownloadOrder(ctx context.Context, buyerID uint, designUUID string) (*OrderDescriptor, error) {
	if _, err := s.resolveBuyer(buyerID); err != nil {
		return nil, err
	}
	design, err := s.designs.GetApprovedByUUID(designUUID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrDesignNotAvailable
		}
		return nil, err
	}
	tierID, err := pricing.ParseTierID(design.Tier)
	if err != nil {
		return nil, err
	}
	tier, err := s.catalog().Tier(tierID)
	if err != nil {
		return nil, err
	}

	gatewayOrderID, err := s.gateway.CreateGatewayOrder(ctx, tier.PriceMinorUnits, currencyINR)
	if err != nil {
		return nil, err
	}

	order := &models.PaymentOrder{
		OrderID:          uuid.NewString(),
		GatewayOrderID:   gatewayOrderID,
		BuyerID:          buyerID,
		Kind:             models.OrderKindDownload,
		TierID:           string(tier.ID),
		DesignUUID:       design.UUID,
		AmountMinorUnits: tier.PriceMinorUnits,
		Currency:         currencyINR,
		Status:           models.OrderStatusCreated,
	}
	if err := s.orders.Create(order); err != nil {
		return nil, err
	}

	s.auditor.Record(audit.EventOrderCreated, map[string]any{
		"order_id":    order.OrderID,
		"buyer_id":    buyerID,
		"kind":        order.Kind,
		"tier_id":     order.TierID,
		"design_uuid": order.DesignUUID,
		"amount":      order.AmountMinorUnits,
	})
	return &OrderDescriptor{
		OrderID:          order.OrderID,
		GatewayOrderID:   order.GatewayOrderID,
		AmountMinorUnits: order.AmountMinorUnits,
		Currency:         order.Currency,
	}, nil
}

// ClaimedValues are client-echoed order parameters. They are never used for
// crediting; they only feed a logged consistency check against the stored
// order.
type ClaimedValues struct {
	PlanID           string `json:"plan_id"`
	Credits          int    `json:"credits"`
	ValidityDays     int    `json:"validity_days"`
	AmountMinorUnits int64  `json:"amount_minor_units"`
}

// VerifiedEntitlement is the outcome of a successful (or idempotently
// repeated) payment verification.
type VerifiedEntitlement struct {
	Order          *models.PaymentOrder            `json:"order"`
	Entry          *models.SubscriptionLedgerEntry `json:"entry,omitempty"`
	GrantToken     string                          `json:"grant_token,omitempty"`
	GrantExpiresAt time.Time                       `json:"grant_expires_at,omitempty"`
	AlreadyApplied bool                            `json:"already_applied"`
}

// VerifyPayment checks the gateway callback signature and, exactly once per
// order, applies the entitlement: a ledger grant for subscription orders, a
// one-shot download grant for download orders. Amount, credits and validity
// are re-derived from the stored order; claimed values only produce a
// mismatch warning. Repeat calls for a settled order return the previously
// applied result without re-crediting.
func (s *Service) VerifyPayment(ctx context.Context, orderID, gatewayPaymentID, gatewaySignature string, claimed *ClaimedValues) (*VerifiedEntitlement, error) {
	order, err := s.orders.GetByOrderID(orderID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrOrderNotFound
		}
		return nil, err
	}
	if order.Status == models.OrderStatusFailed {
		return nil, ErrOrderFailed
	}

	if !VerifySignature(order.GatewayOrderID, gatewayPaymentID, gatewaySignature, s.secret) {
		s.auditor.Record(audit.EventSignatureRejected, map[string]any{
			"order_id":           order.OrderID,
			"buyer_id":           order.BuyerID,
			"gateway_payment_id": gatewayPaymentID,
		})
		return nil, ErrSignatureMismatch
	}

	s.checkClaims(order, claimed)

	if order.IsSettled() {
		return s.applySettled(ctx, order, true)
	}

	won, err := s.orders.MarkVerified(order.OrderID, gatewayPaymentID, s.now())
	if err != nil {
		return nil, err
	}
	if !won {
		// Lost a concurrent verification; the winner applied (or is
		// applying) the entitlement. Serve the idempotent result.
		order, err = s.orders.GetByOrderID(orderID)
		if err != nil {
			return nil, err
		}
		return s.applySettled(ctx, order, true)
	}

	order.Status = models.OrderStatusVerified
	order.GatewayPaymentID = gatewayPaymentID
	return s.applySettled(ctx, order, false)
}

// applySettled completes a verified order. For subscription orders the
// ledger grant is applied at most once: if the entry for this order already
// exists the stored result is returned, otherwise the grant is performed now
// (this also covers retrying a verified-but-not-applied order after a
// storage failure). Download orders issue a fresh grant token; the signed
// token is ephemeral, so re-verification simply re-issues it.
func (s *Service) applySettled(ctx context.Context, order *models.PaymentOrder, repeat bool) (*VerifiedEntitlement, error) {
	if order.Kind == models.OrderKindDownload {
		token, expiresAt, err := s.grants.IssueGrant(ctx, order.BuyerID, order.DesignUUID)
		if err != nil {
			return nil, err
		}
		if err := s.orders.MarkConsumed(order.OrderID); err != nil {
			return nil, err
		}
		order.Status = models.OrderStatusConsumed
		if !repeat {
			s.auditor.Record(audit.EventPaymentVerified, map[string]any{
				"order_id":    order.OrderID,
				"buyer_id":    order.BuyerID,
				"kind":        order.Kind,
				"design_uuid": order.DesignUUID,
			})
		}
		return &VerifiedEntitlement{
			Order:          order,
			GrantToken:     token,
			GrantExpiresAt: expiresAt,
			AlreadyApplied: repeat,
		}, nil
	}

	entry, err := s.ledger.EntryForOrder(ctx, order.OrderID)
	if errors.Is(err, subscription.ErrNoActiveEntry) {
		entry, err = s.ledger.GrantEntitlement(ctx, order.BuyerID, order.PlanID,
			order.CreditsGranted, order.ValidityDays, order.OrderID)
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			// A concurrent verification applied the grant first.
			entry, err = s.ledger.EntryForOrder(ctx, order.OrderID)
			if err != nil {
				return nil, err
			}
			if err := s.finishApplied(order); err != nil {
				return nil, err
			}
			return &VerifiedEntitlement{Order: order, Entry: entry, AlreadyApplied: true}, nil
		}
		if err != nil {
			// Order stays verified; a later retry re-attempts the grant
			// without any double-credit risk.
			return nil, err
		}
		if err := s.orders.MarkConsumed(order.OrderID); err != nil {
			return nil, err
		}
		order.Status = models.OrderStatusConsumed
		if !repeat {
			s.auditor.Record(audit.EventPaymentVerified, map[string]any{
				"order_id": order.OrderID,
				"buyer_id": order.BuyerID,
				"kind":     order.Kind,
				"plan_id":  order.PlanID,
				"credits":  order.CreditsGranted,
			})
		}
		return &VerifiedEntitlement{Order: order, Entry: entry, AlreadyApplied: repeat}, nil
	}
	if err != nil {
		return nil, err
	}
	if err := s.finishApplied(order); err != nil {
		return nil, err
	}
	return &VerifiedEntitlement{Order: order, Entry: entry, AlreadyApplied: true}, nil
}

// finishApplied promotes an order whose ledger entry already exists to
// consumed. Covers a verify that granted the entry but crashed before the
// status transition landed.
func (s *Service) finishApplied(order *models.PaymentOrder) error {
	if order.Status != models.OrderStatusVerified {
		return nil
	}
	if err := s.orders.MarkConsumed(order.OrderID); err != nil {
		return err
	}
	order.Status = models.OrderStatusConsumed
	return nil
}

// FailOrder records an aborted checkout reported by the client. Only orders
// still in created status can fail; a settled order is never demoted.
func (s *Service) FailOrder(ctx context.Context, orderID string) error {
	_ = ctx
	order, err := s.orders.GetByOrderID(orderID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrOrderNotFound
		}
		return err
	}
	if order.IsSettled() {
		return ErrOrderSettled
	}
	if err := s.orders.MarkFailed(order.OrderID); err != nil {
		return err
	}
	s.auditor.Record(audit.EventPaymentFailed, map[string]any{
		"order_id": order.OrderID,
		"buyer_id": order.BuyerID,
		"kind":     order.Kind,
	})
	return nil
}

func (s *Service) checkClaims(order *models.PaymentOrder, claimed *ClaimedValues) {
	if claimed == nil {
		return
	}
	mismatch := map[string]any{}
	if claimed.PlanID != "" && claimed.PlanID != order.PlanID {
		mismatch["plan_id"] = claimed.PlanID
	}
	if claimed.Credits != 0 && claimed.Credits != order.CreditsGranted {
		mismatch["credits"] = claimed.Credits
	}
	if claimed.ValidityDays != 0 && claimed.ValidityDays != order.ValidityDays {
		mismatch["validity_days"] = claimed.ValidityDays
	}
	if claimed.AmountMinorUnits != 0 && claimed.AmountMinorUnits != order.AmountMinorUnits {
		mismatch["amount_minor_units"] = claimed.AmountMinorUnits
	}
	if len(mismatch) == 0 {
		return
	}
	mismatch["order_id"] = order.OrderID
	mismatch["buyer_id"] = order.BuyerID
	s.auditor.Record(audit.EventClaimsMismatch, mismatch)
}
