package apiv1

import (
	"github.com/gofiber/fiber/v2"

	// Delegate to existing controllers to keep behavior consistent
	"github.com/rishikalpadas/mydesignbazaar-sub001/app/controllers"
	"github.com/rishikalpadas/mydesignbazaar-sub001/internal/pkg/middleware"
)

// APIServer implements the versioned API surface
type APIServer struct{}

// NewAPIServer creates a new API server instance
func NewAPIServer() *APIServer {
	return &APIServer{}
}

// GetPing handles the ping endpoint
func (s *APIServer) GetPing(c *fiber.Ctx) error {
	return c.Status(fiber.StatusOK).JSON(fiber.Map{"ping": "pong"})
}

// GetPricing lists the current subscription plans and download tiers.
func (s *APIServer) GetPricing(c *fiber.Ctx) error {
	return controllers.HandleGetPricing(c)
}

// PostOrder opens a subscription checkout (buyer API key required).
func (s *APIServer) PostOrder(c *fiber.Ctx) error {
	return controllers.HandleCreateOrder(c)
}

// PostDownloadOrder opens a pay-per-download checkout (buyer API key required).
func (s *APIServer) PostDownloadOrder(c *fiber.Ctx) error {
	return controllers.HandleCreateDownloadOrder(c)
}

// PostVerifyPayment completes checkout after the gateway callback. Idempotent.
func (s *APIServer) PostVerifyPayment(c *fiber.Ctx) error {
	return controllers.HandleVerifyPayment(c)
}

// PostFailPayment records an aborted or declined checkout.
func (s *APIServer) PostFailPayment(c *fiber.Ctx) error {
	return controllers.HandleFailPayment(c)
}

// GetSubscription returns the buyer's entitlement status.
func (s *APIServer) GetSubscription(c *fiber.Ctx) error {
	return controllers.HandleGetSubscription(c)
}

// PostDesignDownload runs the entitlement decision for a design.
func (s *APIServer) PostDesignDownload(c *fiber.Ctx) error {
	return controllers.HandleRequestDownload(c)
}

// GetDownload redeems a grant token and serves the design file. The token is
// the credential; no API key is required.
func (s *APIServer) GetDownload(c *fiber.Ctx) error {
	return controllers.HandleRedeemDownload(c)
}

// PutAdminPricing stores a pricing override (admin API key required).
func (s *APIServer) PutAdminPricing(c *fiber.Ctx) error {
	return controllers.HandleUpdatePricing(c)
}

// RegisterHandlers attaches the API surface to a router group.
func RegisterHandlers(router fiber.Router, si *APIServer) {
	authed := middleware.APIKeyAuthMiddleware()

	router.Get("/ping", si.GetPing)
	router.Get("/pricing", si.GetPricing)

	router.Post("/orders", authed, middleware.RequireBuyer, si.PostOrder)
	router.Post("/orders/download", authed, middleware.RequireBuyer, si.PostDownloadOrder)
	router.Post("/payments/verify", authed, middleware.RequireBuyer, si.PostVerifyPayment)
	router.Post("/payments/failed", authed, middleware.RequireBuyer, si.PostFailPayment)
	router.Get("/subscription", authed, middleware.RequireBuyer, si.GetSubscription)
	router.Post("/designs/:uuid/download", authed, middleware.RequireBuyer, si.PostDesignDownload)

	// Grant tokens are self-authenticating and single-use.
	router.Get("/downloads/:token", si.GetDownload)

	router.Put("/admin/pricing", authed, middleware.RequireAdmin, si.PutAdminPricing)
}
