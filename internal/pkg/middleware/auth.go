package middleware

import (
	"github.com/gofiber/fiber/v2"

	"github.com/rishikalpadas/mydesignbazaar-sub001/internal/pkg/usercontext"
)

// RequireBuyer ensures the authenticated account holds the buyer role.
// Designers and admins purchase nothing and download nothing here.
func RequireBuyer(c *fiber.Ctx) error {
	if !usercontext.IsLoggedIn(c) {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
			"error":   "unauthorized",
			"message": "authentication required",
		})
	}
	if !usercontext.IsBuyer(c) {
		return c.Status(fiber.StatusForbidden).JSON(fiber.Map{
			"error":   "not_a_buyer",
			"message": "Register as a buyer to purchase plans and download designs",
		})
	}
	return c.Next()
}

// RequireAdmin ensures the authenticated account holds the admin role.
func RequireAdmin(c *fiber.Ctx) error {
	if !usercontext.IsLoggedIn(c) {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
			"error":   "unauthorized",
			"message": "authentication required",
		})
	}
	if !usercontext.IsAdmin(c) {
		return c.Status(fiber.StatusForbidden).JSON(fiber.Map{
			"error":   "forbidden",
			"message": "admin access required",
		})
	}
	return c.Next()
}
