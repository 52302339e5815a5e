package billing

import "context"

// Processor is the payment-processor surface the billing service depends on.
// The Stripe implementation lives in stripe.go; tests substitute fakes.
type Processor interface {
	// FindCustomerByEmail returns the processor customer id for the given
	// email, or "" when no customer exists.
	FindCustomerByEmail(ctx context.Context, email string) (string, error)
	// CreateCustomer creates a processor customer tagged with the local user id.
	CreateCustomer(ctx context.Context, email, name string, userID uint) (string, error)
	// CreateCheckoutSession opens a hosted checkout in subscription mode.
	CreateCheckoutSession(ctx context.Context, in CheckoutSessionInput) (*CheckoutSessionRef, error)
	// GetCheckoutSession retrieves a checkout session with its subscription
	// and line-item price/product data expanded.
	GetCheckoutSession(ctx context.Context, sessionID string) (*CheckoutDetails, error)
	// GetSubscription retrieves current subscription state from the processor.
	GetSubscription(ctx context.Context, subscriptionID string) (*SubscriptionState, error)
	// SetCancelAtPeriodEnd flags or unflags the subscription for cancellation
	// at the end of the current billing period.
	SetCancelAtPeriodEnd(ctx context.Context, subscriptionID string, cancel bool) error
}
