package controllers

import (
	"context"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/launchpadhq/launchpad/internal/pkg/usercontext"
)

type checkoutRequest struct {
	PriceID string `json:"priceId"`
}

// HandleCreateCheckout opens a Stripe hosted checkout session for the
// authenticated user and returns its redirect URL. No local subscription row
// is written here; that happens on confirmation.
func HandleCreateCheckout(c *fiber.Ctx) error {
	userCtx := usercontext.GetUserContext(c)
	if !userCtx.IsLoggedIn {
		return jsonError(c, fiber.StatusUnauthorized, "You must be logged in to subscribe")
	}

	var req checkoutRequest
	if err := c.BodyParser(&req); err != nil {
		return jsonError(c, fiber.StatusBadRequest, "Price ID is required")
	}
	if strings.TrimSpace(req.PriceID) == "" {
		return jsonError(c, fiber.StatusBadRequest, "Price ID is required")
	}

	svc := newBillingService()
	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Second)
	defer cancel()

	url, err := svc.StartCheckout(ctx, userCtx.UserID, req.PriceID)
	if err != nil {
		return billingErrorResponse(c, err)
	}

	return c.Status(fiber.StatusOK).JSON(fiber.Map{"url": url})
}

// HandleCheckoutSuccess is the pull path of reconciliation: the success
// redirect asks us to retrieve the checkout session and record the resulting
// subscription. Confirming the same session twice is a no-op.
func HandleCheckoutSuccess(c *fiber.Ctx) error {
	sessionID := strings.TrimSpace(c.Query("session_id"))
	if sessionID == "" {
		return jsonError(c, fiber.StatusBadRequest, "Session ID is required")
	}

	svc := newBillingService()
	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Second)
	defer cancel()

	sub, alreadyRecorded, err := svc.ConfirmCheckout(ctx, sessionID)
	if err != nil {
		return billingErrorResponse(c, err)
	}

	message := "Subscription created successfully"
	if alreadyRecorded {
		message = "Subscription already recorded"
	}
	return c.Status(fiber.StatusOK).JSON(fiber.Map{
		"subscription": sub,
		"message":      message,
	})
}
