package controllers

import (
	"errors"

	"github.com/gofiber/fiber/v2"

	"github.com/rishikalpadas/mydesignbazaar-sub001/internal/pkg/subscription"
	"github.com/rishikalpadas/mydesignbazaar-sub001/internal/pkg/usercontext"
)

// HandleGetSubscription returns the authenticated buyer's entitlement status.
// An expired or exhausted plan is reported with is_valid=false; a buyer who
// never subscribed gets a 404 with the no_subscription code.
func HandleGetSubscription(c *fiber.Ctx) error {
	status, err := ledgerService().Status(c.Context(), usercontext.GetUserID(c))
	if err != nil {
		if errors.Is(err, subscription.ErrNoActiveEntry) {
			return jsonError(c, fiber.StatusNotFound, "no_subscription", "Purchase a subscription plan to start downloading")
		}
		return jsonError(c, fiber.StatusInternalServerError, "internal_server_error", "Failed to load subscription status")
	}
	return c.JSON(status)
}
