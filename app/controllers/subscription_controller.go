package controllers

import (
	"context"
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/launchpadhq/launchpad/internal/pkg/usercontext"
)

type subscriptionRequest struct {
	SubscriptionID uint `json:"subscriptionId"`
}

// HandleCancelSubscription flags the owner's subscription for cancellation at
// period end. The Stripe call is best-effort; the local record is updated
// regardless of its outcome.
func HandleCancelSubscription(c *fiber.Ctx) error {
	userCtx := usercontext.GetUserContext(c)
	if !userCtx.IsLoggedIn {
		return jsonError(c, fiber.StatusUnauthorized, "You must be logged in to cancel a subscription")
	}

	var req subscriptionRequest
	if err := c.BodyParser(&req); err != nil || req.SubscriptionID == 0 {
		return jsonError(c, fiber.StatusBadRequest, "Subscription ID is required")
	}

	svc := newBillingService()
	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Second)
	defer cancel()

	sub, err := svc.CancelSubscription(ctx, userCtx.UserID, req.SubscriptionID)
	if err != nil {
		return billingErrorResponse(c, err)
	}

	return c.Status(fiber.StatusOK).JSON(fiber.Map{
		"subscription": sub,
		"message":      "Subscription will be canceled at the end of the billing period",
	})
}

// HandleReactivateSubscription clears a pending cancellation.
func HandleReactivateSubscription(c *fiber.Ctx) error {
	userCtx := usercontext.GetUserContext(c)
	if !userCtx.IsLoggedIn {
		return jsonError(c, fiber.StatusUnauthorized, "You must be logged in")
	}

	var req subscriptionRequest
	if err := c.BodyParser(&req); err != nil || req.SubscriptionID == 0 {
		return jsonError(c, fiber.StatusBadRequest, "Subscription ID is required")
	}

	svc := newBillingService()
	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Second)
	defer cancel()

	sub, err := svc.ReactivateSubscription(ctx, userCtx.UserID, req.SubscriptionID)
	if err != nil {
		return billingErrorResponse(c, err)
	}

	return c.Status(fiber.StatusOK).JSON(fiber.Map{
		"subscription": sub,
		"message":      "Subscription reactivated successfully",
	})
}
