package controllers

import (
	"context"
	"log"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/launchpadhq/launchpad/app/models"
	"github.com/launchpadhq/launchpad/internal/pkg/billing"
	"github.com/launchpadhq/launchpad/internal/pkg/env"
)

// HandleStripeWebhook is the push path of reconciliation. The signature is
// verified before anything in the payload is trusted; after that the event is
// always acknowledged with 200 so Stripe does not retry deliveries whose
// local processing failed. Processing errors land on the stored event row.
func HandleStripeWebhook(c *fiber.Ctx) error {
	rawBody := append([]byte(nil), c.BodyRaw()...)
	signature := strings.TrimSpace(c.Get("Stripe-Signature"))
	secret := env.GetEnv("STRIPE_WEBHOOK_SECRET", "")

	if signature == "" {
		return jsonError(c, fiber.StatusBadRequest, "No signature")
	}
	if secret == "" {
		log.Printf("webhook: STRIPE_WEBHOOK_SECRET not configured")
		return jsonError(c, fiber.StatusBadRequest, "Webhook secret not configured")
	}

	event, err := billing.VerifyWebhookSignature(rawBody, signature, secret)
	if err != nil {
		return jsonError(c, fiber.StatusBadRequest, "Webhook Error: "+err.Error())
	}

	svc := newBillingService()
	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	created, stored, err := svc.RecordWebhookEvent(ctx, billing.WebhookEventInput{
		Provider:        models.BillingProviderStripe,
		ProviderEventID: event.ID,
		EventType:       string(event.Type),
		PayloadJSON:     string(rawBody),
		SignatureValid:  true,
	})
	if err != nil {
		log.Printf("webhook: persisting event %s failed: %v", event.ID, err)
		return c.Status(fiber.StatusOK).JSON(fiber.Map{"received": true})
	}
	if !created {
		// Duplicate delivery; already handled.
		return c.Status(fiber.StatusOK).JSON(fiber.Map{"received": true})
	}

	processErr := svc.HandleWebhookEvent(ctx, event)
	if processErr != nil {
		log.Printf("webhook: processing event %s (%s) failed: %v", event.ID, event.Type, processErr)
	}
	_ = svc.MarkWebhookProcessed(ctx, stored.ID, processErr)

	return c.Status(fiber.StatusOK).JSON(fiber.Map{"received": true})
}
