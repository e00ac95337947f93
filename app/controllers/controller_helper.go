package controllers

import (
	"github.com/gofiber/fiber/v2"

	"github.com/rishikalpadas/mydesignbazaar-sub001/internal/pkg/entitlement"
)

// jsonError writes the standard error payload shape used across the API.
func jsonError(c *fiber.Ctx, status int, code, message string) error {
	return c.Status(status).JSON(fiber.Map{
		"error":   code,
		"message": message,
	})
}

// denialStatus maps an entitlement denial to its HTTP status. Role failures
// are 403, a missing design is 404, everything the buyer can fix by paying
// is 402.
func denialStatus(reason entitlement.Reason) int {
	switch reason {
	case entitlement.ReasonNotABuyer:
		return fiber.StatusForbidden
	case entitlement.ReasonDesignNotFound:
		return fiber.StatusNotFound
	default:
		return fiber.StatusPaymentRequired
	}
}

// denialMessage turns a denial reason into the remediation text shown to the
// buyer.
func denialMessage(reason entitlement.Reason) string {
	switch reason {
	case entitlement.ReasonNotABuyer:
		return "Register as a buyer to download designs"
	case entitlement.ReasonDesignNotFound:
		return "Design not found or not available for download"
	case entitlement.ReasonNoSubscription:
		return "Purchase a subscription plan to start downloading"
	case entitlement.ReasonExpired:
		return "Your subscription has expired. Renew a plan to continue downloading"
	case entitlement.ReasonExhausted:
		return "You have used all your download credits. Buy a new plan to continue"
	default:
		return "Download not permitted"
	}
}

// denialResponse writes the typed denial payload for a rejected download.
func denialResponse(c *fiber.Ctx, d *entitlement.Denial) error {
	return jsonError(c, denialStatus(d.Reason), string(d.Reason), denialMessage(d.Reason))
}
