package controllers

import (
	"errors"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"

	"github.com/rishikalpadas/mydesignbazaar-sub001/app/models"
	"github.com/rishikalpadas/mydesignbazaar-sub001/app/repository"
	"github.com/rishikalpadas/mydesignbazaar-sub001/internal/pkg/env"
	"github.com/rishikalpadas/mydesignbazaar-sub001/internal/pkg/payment"
	"github.com/rishikalpadas/mydesignbazaar-sub001/internal/pkg/pricing"
	"github.com/rishikalpadas/mydesignbazaar-sub001/internal/pkg/usercontext"
)

var (
	paymentService *payment.Service
	validate       = validator.New()
)

// InitializePaymentController wires the payment service with repositories
func InitializePaymentController() {
	repos := repository.GetGlobalRepositories()
	paymentService = payment.NewService(
		repos.User,
		repos.Order,
		repos.Design,
		ledgerService(),
		payment.NewHTTPGatewayFromEnv(),
		grantEngine(),
		auditRecorder(),
		catalogSnapshot,
		env.GetEnv("GATEWAY_KEY_SECRET", ""),
	)
}

type createOrderRequest struct {
	PlanID string `json:"plan_id" validate:"required"`
}

// HandleCreateOrder opens a subscription checkout for the authenticated buyer.
func HandleCreateOrder(c *fiber.Ctx) error {
	var req createOrderRequest
	if err := c.BodyParser(&req); err != nil {
		return jsonError(c, fiber.StatusBadRequest, "bad_request", "Invalid request body")
	}
	if err := validate.Struct(&req); err != nil {
		return jsonError(c, fiber.StatusBadRequest, "bad_request", "plan_id is required")
	}
	planID, err := pricing.ParsePlanID(req.PlanID)
	if err != nil {
		return jsonError(c, fiber.StatusBadRequest, "unknown_plan", "Unknown subscription plan: "+req.PlanID)
	}

	order, err := paymentService.CreateOrder(c.Context(), usercontext.GetUserID(c), planID)
	if err != nil {
		return mapOrderError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(order)
}

type createDownloadOrderRequest struct {
	DesignUUID string `json:"design_uuid" validate:"required,uuid4"`
}

// HandleCreateDownloadOrder opens a one-shot pay-per-download checkout.
func HandleCreateDownloadOrder(c *fiber.Ctx) error {
	var req createDownloadOrderRequest
	if err := c.BodyParser(&req); err != nil {
		return jsonError(c, fiber.StatusBadRequest, "bad_request", "Invalid request body")
	}
	if err := validate.Struct(&req); err != nil {
		return jsonError(c, fiber.StatusBadRequest, "bad_request", "design_uuid must be a valid UUID")
	}

	order, err := paymentService.CreateDownloadOrder(c.Context(), usercontext.GetUserID(c), req.DesignUUID)
	if err != nil {
		return mapOrderError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(order)
}

func mapOrderError(c *fiber.Ctx, err error) error {
	switch {
	case errors.Is(err, payment.ErrNotABuyer):
		return jsonError(c, fiber.StatusForbidden, "not_a_buyer", "Register as a buyer to purchase plans")
	case errors.Is(err, payment.ErrDesignNotAvailable):
		return jsonError(c, fiber.StatusNotFound, "design_not_found", "Design not found or not available for purchase")
	case errors.Is(err, pricing.ErrUnknownPlan):
		return jsonError(c, fiber.StatusBadRequest, "unknown_plan", "Unknown subscription plan")
	case errors.Is(err, pricing.ErrUnknownTier):
		return jsonError(c, fiber.StatusBadRequest, "unknown_tier", "Unknown download tier")
	case errors.Is(err, payment.ErrGatewayUnavailable):
		return jsonError(c, fiber.StatusServiceUnavailable, "gateway_unavailable", "Payment gateway is temporarily unavailable, try again")
	default:
		return jsonError(c, fiber.StatusInternalServerError, "internal_server_error", "Failed to create order")
	}
}

type failPaymentRequest struct {
	OrderID string `json:"order_id" validate:"required"`
}

// HandleFailPayment records a checkout the client reports as aborted or
// declined. Settled orders are never demoted.
func HandleFailPayment(c *fiber.Ctx) error {
	var req failPaymentRequest
	if err := c.BodyParser(&req); err != nil {
		return jsonError(c, fiber.StatusBadRequest, "bad_request", "Invalid request body")
	}
	if err := validate.Struct(&req); err != nil {
		return jsonError(c, fiber.StatusBadRequest, "bad_request", "order_id is required")
	}

	if err := paymentService.FailOrder(c.Context(), req.OrderID); err != nil {
		switch {
		case errors.Is(err, payment.ErrOrderNotFound):
			return jsonError(c, fiber.StatusNotFound, "order_not_found", "No order exists for the given order_id")
		case errors.Is(err, payment.ErrOrderSettled):
			return jsonError(c, fiber.StatusConflict, "order_settled", "This order was already verified and cannot be failed")
		default:
			return jsonError(c, fiber.StatusInternalServerError, "internal_server_error", "Failed to update order")
		}
	}
	return c.JSON(fiber.Map{"order_id": req.OrderID, "status": models.OrderStatusFailed})
}

type verifyPaymentRequest struct {
	OrderID          string `json:"order_id" validate:"required"`
	GatewayPaymentID string `json:"gateway_payment_id" validate:"required"`
	GatewaySignature string `json:"gateway_signature" validate:"required"`

	// Client-echoed values; logged against the stored order, never trusted.
	PlanID           string `json:"plan_id"`
	Credits          int    `json:"credits"`
	ValidityDays     int    `json:"validity_days"`
	AmountMinorUnits int64  `json:"amount_minor_units"`
}

// HandleVerifyPayment completes checkout. Verification is idempotent: the
// client may safely retry after a timeout and a settled order returns its
// previously applied result.
func HandleVerifyPayment(c *fiber.Ctx) error {
	var req verifyPaymentRequest
	if err := c.BodyParser(&req); err != nil {
		return jsonError(c, fiber.StatusBadRequest, "bad_request", "Invalid request body")
	}
	if err := validate.Struct(&req); err != nil {
		return jsonError(c, fiber.StatusBadRequest, "bad_request", "order_id, gateway_payment_id and gateway_signature are required")
	}

	claimed := &payment.ClaimedValues{
		PlanID:           req.PlanID,
		Credits:          req.Credits,
		ValidityDays:     req.ValidityDays,
		AmountMinorUnits: req.AmountMinorUnits,
	}
	result, err := paymentService.VerifyPayment(c.Context(), req.OrderID, req.GatewayPaymentID, req.GatewaySignature, claimed)
	if err != nil {
		switch {
		case errors.Is(err, payment.ErrOrderNotFound):
			return jsonError(c, fiber.StatusNotFound, "order_not_found", "No order exists for the given order_id")
		case errors.Is(err, payment.ErrOrderFailed):
			return jsonError(c, fiber.StatusConflict, "order_failed", "This order already failed and cannot be verified")
		case errors.Is(err, payment.ErrSignatureMismatch):
			return jsonError(c, fiber.StatusBadRequest, "signature_mismatch", "Payment signature verification failed")
		default:
			return jsonError(c, fiber.StatusInternalServerError, "internal_server_error", "Payment verification failed, retry with the same order_id")
		}
	}

	response := fiber.Map{
		"order_id":        result.Order.OrderID,
		"status":          result.Order.Status,
		"already_applied": result.AlreadyApplied,
	}
	if result.Order.Kind == models.OrderKindDownload {
		response["grant"] = fiber.Map{
			"token":       result.GrantToken,
			"design_uuid": result.Order.DesignUUID,
			"expires_at":  result.GrantExpiresAt,
		}
	} else if result.Entry != nil {
		response["subscription"] = fiber.Map{
			"plan_id":           result.Entry.PlanID,
			"credits_remaining": result.Entry.CreditsRemaining,
			"expires_at":        result.Entry.ExpiresAt,
		}
	}
	return c.JSON(response)
}
