package controllers

import (
	"errors"
	"os"
	"strings"

	"github.com/gofiber/fiber/v2"

	"github.com/rishikalpadas/mydesignbazaar-sub001/internal/pkg/entitlement"
	"github.com/rishikalpadas/mydesignbazaar-sub001/internal/pkg/usercontext"
)

// HandleRequestDownload runs the entitlement decision for a design. On
// success one credit has been consumed and the response carries a short-lived
// grant token for the actual file fetch.
func HandleRequestDownload(c *fiber.Ctx) error {
	designUUID := strings.TrimSpace(c.Params("uuid"))
	if designUUID == "" {
		return jsonError(c, fiber.StatusBadRequest, "bad_request", "design uuid missing")
	}

	result, err := grantEngine().RequestDownload(c.Context(), usercontext.GetUserID(c), designUUID)
	if err != nil {
		if d, ok := entitlement.AsDenial(err); ok {
			return denialResponse(c, d)
		}
		return jsonError(c, fiber.StatusInternalServerError, "internal_server_error", "Download request failed, no credit was consumed")
	}
	return c.JSON(result)
}

// HandleRedeemDownload serves the design file for a valid, unused grant
// token. Each grant serves exactly one fetch.
func HandleRedeemDownload(c *fiber.Ctx) error {
	token := strings.TrimSpace(c.Params("token"))
	if token == "" {
		return jsonError(c, fiber.StatusBadRequest, "bad_request", "grant token missing")
	}

	claims, err := grantEngine().RedeemGrant(c.Context(), token)
	if err != nil {
		switch {
		case errors.Is(err, entitlement.ErrGrantExpired):
			return jsonError(c, fiber.StatusGone, "grant_expired", "This download link has expired, request the download again")
		case errors.Is(err, entitlement.ErrGrantAlreadyUsed):
			return jsonError(c, fiber.StatusGone, "grant_used", "This download link was already used, request the download again")
		case errors.Is(err, entitlement.ErrInvalidGrant):
			return jsonError(c, fiber.StatusBadRequest, "invalid_grant", "Invalid download token")
		default:
			return jsonError(c, fiber.StatusInternalServerError, "internal_server_error", "Failed to redeem download")
		}
	}

	if _, err := os.Stat(claims.ResourceLocator); err != nil {
		return jsonError(c, fiber.StatusNotFound, "file_not_found", "Design file is not available")
	}
	return c.Download(claims.ResourceLocator)
}
