package controllers

import (
	"errors"

	"github.com/gofiber/fiber/v2"

	"github.com/launchpadhq/launchpad/internal/pkg/billing"
	"github.com/launchpadhq/launchpad/internal/pkg/database"
)

// Session keys shared with the user context middleware.
const (
	AUTH_KEY      string = "authenticated"
	USER_ID       string = "user_id"
	USER_NAME     string = "username"
	USER_EMAIL    string = "user_email"
	USER_PROVIDER string = "user_provider"
	USER_IS_ADMIN string = "isAdmin"
)

// newBillingService builds the billing service for a request. Overridable so
// handler tests can substitute fakes for the repository and processor.
var newBillingService = func() *billing.Service {
	return billing.NewServiceFromDB(database.GetDB())
}

// jsonError writes the API error shape used across all JSON endpoints.
func jsonError(c *fiber.Ctx, status int, message string) error {
	return c.Status(status).JSON(fiber.Map{"error": message})
}

// billingErrorResponse maps billing sentinel errors onto HTTP status codes.
// Anything unmapped is an upstream/processor or database failure.
func billingErrorResponse(c *fiber.Ctx, err error) error {
	switch {
	case errors.Is(err, billing.ErrPriceRequired):
		return jsonError(c, fiber.StatusBadRequest, "Price ID is required")
	case errors.Is(err, billing.ErrActiveSubscriptionExists):
		return jsonError(c, fiber.StatusBadRequest, "You already have an active subscription")
	case errors.Is(err, billing.ErrNoSubscription):
		return jsonError(c, fiber.StatusBadRequest, "No subscription found")
	case errors.Is(err, billing.ErrMissingUserMetadata):
		return jsonError(c, fiber.StatusBadRequest, "User ID not found in session metadata")
	case errors.Is(err, billing.ErrSubscriptionNotFound):
		return jsonError(c, fiber.StatusNotFound, "Subscription not found")
	case errors.Is(err, billing.ErrNotSubscriptionOwner):
		return jsonError(c, fiber.StatusForbidden, "Unauthorized")
	case errors.Is(err, billing.ErrAlreadyCanceled):
		return jsonError(c, fiber.StatusBadRequest, "Subscription is already canceled")
	default:
		return jsonError(c, fiber.StatusInternalServerError, err.Error())
	}
}
