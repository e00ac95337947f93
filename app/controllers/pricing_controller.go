package controllers

import (
	"strconv"
	"strings"

	"github.com/gofiber/fiber/v2"

	"github.com/rishikalpadas/mydesignbazaar-sub001/app/repository"
)

// HandleGetPricing lists the current catalog (defaults plus admin overrides).
// Prices are INR paise and exclude GST.
func HandleGetPricing(c *fiber.Ctx) error {
	catalog := catalogSnapshot()

	plans := make([]fiber.Map, 0, 3)
	for _, p := range catalog.Plans() {
		plans = append(plans, fiber.Map{
			"id":                p.ID,
			"price_minor_units": p.PriceMinorUnits,
			"credits":           p.CreditsGranted,
			"validity_days":     p.ValidityDays,
		})
	}
	tiers := make([]fiber.Map, 0, 3)
	for _, t := range catalog.Tiers() {
		tiers = append(tiers, fiber.Map{
			"id":                t.ID,
			"price_minor_units": t.PriceMinorUnits,
		})
	}
	return c.JSON(fiber.Map{
		"currency": "INR",
		"plans":    plans,
		"tiers":    tiers,
	})
}

type updatePricingRequest struct {
	Key   string `json:"key" validate:"required"`
	Value string `json:"value" validate:"required"`
}

// HandleUpdatePricing stores an admin pricing override in the settings table.
// The override affects future snapshots only; existing orders and ledger
// entries keep their copied values.
func HandleUpdatePricing(c *fiber.Ctx) error {
	var req updatePricingRequest
	if err := c.BodyParser(&req); err != nil {
		return jsonError(c, fiber.StatusBadRequest, "bad_request", "Invalid request body")
	}
	if err := validate.Struct(&req); err != nil {
		return jsonError(c, fiber.StatusBadRequest, "bad_request", "key and value are required")
	}

	key := strings.TrimSpace(req.Key)
	if !strings.HasPrefix(key, "pricing.") || len(strings.Split(key, ".")) != 4 {
		return jsonError(c, fiber.StatusBadRequest, "bad_request", "key must look like pricing.plan.<id>.<field> or pricing.tier.<id>.price_minor_units")
	}
	if n, err := strconv.ParseInt(strings.TrimSpace(req.Value), 10, 64); err != nil || n <= 0 {
		return jsonError(c, fiber.StatusBadRequest, "bad_request", "value must be a positive integer")
	}

	repo := repository.GetGlobalFactory().GetSettingRepository()
	if err := repo.SetValue(key, strings.TrimSpace(req.Value), "integer"); err != nil {
		return jsonError(c, fiber.StatusInternalServerError, "internal_server_error", "Failed to store pricing override")
	}
	return HandleGetPricing(c)
}
