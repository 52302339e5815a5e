package router

import (
	"github.com/gofiber/fiber/v2"
	gothfiber "github.com/shareed2k/goth_fiber"

	"github.com/launchpadhq/launchpad/app/controllers"
	"github.com/launchpadhq/launchpad/internal/pkg/constants"
	"github.com/launchpadhq/launchpad/internal/pkg/middleware"
	"github.com/launchpadhq/launchpad/internal/pkg/oauth"
	"github.com/launchpadhq/launchpad/internal/pkg/session"
)

type HttpRouter struct {
}

func (h HttpRouter) InstallRouter(app *fiber.App) {
	// init session
	session.NewSessionStore()

	// init oauth providers
	oauth.Setup()

	// Apply UserContext middleware globally as first middleware
	app.Use(middleware.UserContextMiddleware)

	// Public pages
	app.Get(constants.HomeRoute, controllers.HandleHome)
	app.Get(constants.PricingRoute, controllers.HandlePricing)
	app.Get(constants.SuccessRoute, controllers.HandleSuccessPage)

	// Auth
	app.Get(constants.LoginRoute, controllers.HandleAuthLogin)
	app.Post(constants.LoginRoute, controllers.HandleAuthLogin)
	app.Get(constants.RegisterRoute, controllers.HandleAuthRegister)
	app.Post(constants.RegisterRoute, controllers.HandleAuthRegister)
	app.Post(constants.LogoutRoute, middleware.RequireAuth, controllers.HandleAuthLogout)

	// Social OAuth
	app.Get("/auth/:provider", gothfiber.BeginAuthHandler)
	app.Get("/auth/:provider/callback", controllers.HandleOAuthCallback)

	// Account
	app.Get(constants.DashboardRoute, middleware.RequireAuth, controllers.HandleDashboard)
}

func NewHttpRouter() *HttpRouter {
	return &HttpRouter{}
}
