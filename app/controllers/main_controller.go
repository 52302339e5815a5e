package controllers

import (
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/sujit-baniya/flash"

	"github.com/launchpadhq/launchpad/app/models"
	"github.com/launchpadhq/launchpad/internal/pkg/billing"
	"github.com/launchpadhq/launchpad/internal/pkg/constants"
	"github.com/launchpadhq/launchpad/internal/pkg/usercontext"
)

func HandleHome(c *fiber.Ctx) error {
	userCtx := usercontext.GetUserContext(c)

	return c.Render("index", fiber.Map{
		"Title":      "LaunchPad",
		"IsLoggedIn": userCtx.IsLoggedIn,
		"Username":   userCtx.Username,
	}, "layouts/main")
}

func HandlePricing(c *fiber.Ctx) error {
	userCtx := usercontext.GetUserContext(c)

	return c.Render("pricing", fiber.Map{
		"Title":      "Pricing",
		"IsLoggedIn": userCtx.IsLoggedIn,
		"Plans":      billing.Plans(),
	}, "layouts/main")
}

// HandleDashboard renders account info and the subscription history for the
// logged-in user. Read-only; all writes go through the API endpoints.
func HandleDashboard(c *fiber.Ctx) error {
	userCtx := usercontext.GetUserContext(c)
	if !userCtx.IsLoggedIn {
		return c.Redirect(constants.LoginRoute, fiber.StatusSeeOther)
	}

	svc := newBillingService()
	subscriptions, err := svc.ListUserSubscriptions(userCtx.UserID)
	if err != nil {
		subscriptions = nil
	}

	var active *models.Subscription
	for i := range subscriptions {
		if subscriptions[i].IsActive() {
			active = &subscriptions[i]
			break
		}
	}

	return c.Render("dashboard", fiber.Map{
		"Title":         "Dashboard",
		"IsLoggedIn":    true,
		"Username":      userCtx.Username,
		"Email":         userCtx.Email,
		"Provider":      userCtx.Provider,
		"Subscriptions": subscriptions,
		"Active":        active,
		"Flash":         flash.Get(c),
	}, "layouts/main")
}

// HandleSuccessPage renders the post-checkout landing page. The page itself
// confirms the checkout via GET /api/checkout/success so a page reload stays
// idempotent.
func HandleSuccessPage(c *fiber.Ctx) error {
	userCtx := usercontext.GetUserContext(c)
	sessionID := strings.TrimSpace(c.Query("session_id"))

	return c.Render("success", fiber.Map{
		"Title":      "Checkout complete",
		"IsLoggedIn": userCtx.IsLoggedIn,
		"SessionID":  sessionID,
	}, "layouts/main")
}
