package billing

import "time"

// SubscriptionState is the provider-agnostic shape of a processor
// subscription used when reconciling external state into local tables.
type SubscriptionState struct {
	ID                 string
	CustomerID         string
	PriceID            string
	ProductID          string
	PlanName           string
	Status             string
	Amount             int64
	Currency           string
	Interval           string
	CurrentPeriodStart *time.Time
	CurrentPeriodEnd   *time.Time
	CancelAtPeriodEnd  bool
	Metadata           map[string]string
}

// CheckoutDetails is a retrieved checkout session with its subscription and
// line-item price data resolved.
type CheckoutDetails struct {
	SessionID    string
	CustomerID   string
	Metadata     map[string]string
	Subscription *SubscriptionState
}

// CheckoutSessionInput carries everything needed to open a hosted checkout.
type CheckoutSessionInput struct {
	CustomerID string
	PriceID    string
	SuccessURL string
	CancelURL  string
	UserID     uint
	UserEmail  string
}

// CheckoutSessionRef points at a created hosted checkout session.
type CheckoutSessionRef struct {
	ID  string
	URL string
}

// WebhookEventInput is the normalized input for webhook event persistence.
type WebhookEventInput struct {
	Provider        string
	ProviderEventID string
	EventType       string
	PayloadJSON     string
	SignatureValid  bool
}
