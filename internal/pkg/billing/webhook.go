package billing

import (
	"github.com/stripe/stripe-go/v76"
	"github.com/stripe/stripe-go/v76/webhook"
)

// Webhook event types this service reconciles on. Anything else is
// acknowledged and ignored.
const (
	EventCheckoutCompleted       = "checkout.session.completed"
	EventSubscriptionCreated     = "customer.subscription.created"
	EventSubscriptionUpdated     = "customer.subscription.updated"
	EventSubscriptionDeleted     = "customer.subscription.deleted"
	EventInvoicePaymentSucceeded = "invoice.payment_succeeded"
	EventInvoicePaymentFailed    = "invoice.payment_failed"
)

// VerifyWebhookSignature checks the Stripe-Signature header against the
// shared webhook secret and returns the parsed event. Nothing from the
// payload may be trusted before this succeeds.
func VerifyWebhookSignature(payload []byte, signatureHeader, webhookSecret string) (stripe.Event, error) {
	return webhook.ConstructEvent(payload, signatureHeader, webhookSecret)
}
