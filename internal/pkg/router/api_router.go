package router

import (
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/limiter"

	"github.com/launchpadhq/launchpad/app/controllers"
	"github.com/launchpadhq/launchpad/internal/pkg/middleware"
)

type ApiRouter struct {
}

func (h ApiRouter) InstallRouter(app *fiber.App) {
	api := app.Group("/api", limiter.New(limiter.Config{Max: 60}))

	// Billing (session-authenticated)
	api.Post("/checkout", middleware.RequireAPISessionAuth, controllers.HandleCreateCheckout)
	api.Get("/checkout/success", controllers.HandleCheckoutSuccess)
	api.Post("/subscription/cancel", middleware.RequireAPISessionAuth, controllers.HandleCancelSubscription)
	api.Patch("/subscription/cancel", middleware.RequireAPISessionAuth, controllers.HandleReactivateSubscription)

	// Stripe webhooks (signature-verified in the controller, no session)
	api.Post("/webhooks/stripe", controllers.HandleStripeWebhook)
}

func NewApiRouter() *ApiRouter {
	return &ApiRouter{}
}
