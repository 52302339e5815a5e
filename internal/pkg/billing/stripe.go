package billing

import (
	"context"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/stripe/stripe-go/v76"
	"github.com/stripe/stripe-go/v76/client"

	"github.com/launchpadhq/launchpad/internal/pkg/env"
)

// stripeProcessor implements Processor against the Stripe API.
type stripeProcessor struct {
	api *client.API
}

// NewStripeProcessor creates a Stripe-backed processor with its own API client.
func NewStripeProcessor(secretKey string) Processor {
	api := &client.API{}
	api.Init(secretKey, nil)
	return &stripeProcessor{api: api}
}

// NewStripeProcessorFromEnv creates a processor configured from STRIPE_SECRET_KEY.
func NewStripeProcessorFromEnv() Processor {
	return NewStripeProcessor(env.GetEnv("STRIPE_SECRET_KEY", ""))
}

func (p *stripeProcessor) FindCustomerByEmail(ctx context.Context, email string) (string, error) {
	params := &stripe.CustomerListParams{Email: stripe.String(email)}
	params.Context = ctx
	params.Limit = stripe.Int64(1)

	it := p.api.Customers.List(params)
	if it.Next() {
		return it.Customer().ID, nil
	}
	return "", it.Err()
}

func (p *stripeProcessor) CreateCustomer(ctx context.Context, email, name string, userID uint) (string, error) {
	params := &stripe.CustomerParams{
		Email: stripe.String(email),
	}
	if name != "" {
		params.Name = stripe.String(name)
	}
	params.Context = ctx
	params.AddMetadata("user_id", strconv.FormatUint(uint64(userID), 10))
	params.SetIdempotencyKey(uuid.NewString())

	customer, err := p.api.Customers.New(params)
	if err != nil {
		return "", err
	}
	return customer.ID, nil
}

func (p *stripeProcessor) CreateCheckoutSession(ctx context.Context, in CheckoutSessionInput) (*CheckoutSessionRef, error) {
	userID := strconv.FormatUint(uint64(in.UserID), 10)
	params := &stripe.CheckoutSessionParams{
		Mode:               stripe.String(string(stripe.CheckoutSessionModeSubscription)),
		PaymentMethodTypes: stripe.StringSlice([]string{"card"}),
		Customer:           stripe.String(in.CustomerID),
		LineItems: []*stripe.CheckoutSessionLineItemParams{
			{
				Price:    stripe.String(in.PriceID),
				Quantity: stripe.Int64(1),
			},
		},
		SuccessURL: stripe.String(in.SuccessURL),
		CancelURL:  stripe.String(in.CancelURL),
		SubscriptionData: &stripe.CheckoutSessionSubscriptionDataParams{
			Metadata: map[string]string{"user_id": userID},
		},
	}
	params.Context = ctx
	params.AddMetadata("user_id", userID)
	params.AddMetadata("user_email", in.UserEmail)
	params.SetIdempotencyKey(uuid.NewString())

	s, err := p.api.CheckoutSessions.New(params)
	if err != nil {
		return nil, err
	}
	return &CheckoutSessionRef{ID: s.ID, URL: s.URL}, nil
}

func (p *stripeProcessor) GetCheckoutSession(ctx context.Context, sessionID string) (*CheckoutDetails, error) {
	params := &stripe.CheckoutSessionParams{}
	params.Context = ctx
	params.AddExpand("subscription")
	params.AddExpand("line_items.data.price.product")

	s, err := p.api.CheckoutSessions.Get(sessionID, params)
	if err != nil {
		return nil, err
	}

	details := &CheckoutDetails{
		SessionID: s.ID,
		Metadata:  s.Metadata,
	}
	if s.Customer != nil {
		details.CustomerID = s.Customer.ID
	}
	if s.Subscription == nil {
		return details, nil
	}

	state := subscriptionToState(s.Subscription)
	// Plan name, amount and interval come from the expanded line item, since
	// the subscription object itself only references the price.
	if s.LineItems != nil && len(s.LineItems.Data) > 0 {
		applyPriceToState(state, s.LineItems.Data[0].Price)
	}
	details.Subscription = state
	return details, nil
}

func (p *stripeProcessor) GetSubscription(ctx context.Context, subscriptionID string) (*SubscriptionState, error) {
	params := &stripe.SubscriptionParams{}
	params.Context = ctx
	params.AddExpand("items.data.price.product")

	sub, err := p.api.Subscriptions.Get(subscriptionID, params)
	if err != nil {
		return nil, err
	}

	state := subscriptionToState(sub)
	if sub.Items != nil && len(sub.Items.Data) > 0 {
		applyPriceToState(state, sub.Items.Data[0].Price)
	}
	return state, nil
}

func (p *stripeProcessor) SetCancelAtPeriodEnd(ctx context.Context, subscriptionID string, cancel bool) error {
	params := &stripe.SubscriptionParams{
		CancelAtPeriodEnd: stripe.Bool(cancel),
	}
	params.Context = ctx

	_, err := p.api.Subscriptions.Update(subscriptionID, params)
	return err
}

func subscriptionToState(sub *stripe.Subscription) *SubscriptionState {
	state := &SubscriptionState{
		ID:                sub.ID,
		Status:            string(sub.Status),
		CancelAtPeriodEnd: sub.CancelAtPeriodEnd,
		Metadata:          sub.Metadata,
	}
	if sub.Customer != nil {
		state.CustomerID = sub.Customer.ID
	}
	if sub.CurrentPeriodStart > 0 {
		t := time.Unix(sub.CurrentPeriodStart, 0).UTC()
		state.CurrentPeriodStart = &t
	}
	if sub.CurrentPeriodEnd > 0 {
		t := time.Unix(sub.CurrentPeriodEnd, 0).UTC()
		state.CurrentPeriodEnd = &t
	}
	return state
}

func applyPriceToState(state *SubscriptionState, price *stripe.Price) {
	if price == nil {
		return
	}
	state.PriceID = price.ID
	state.Amount = price.UnitAmount
	state.Currency = string(price.Currency)
	if price.Recurring != nil {
		state.Interval = string(price.Recurring.Interval)
	}
	if price.Product != nil {
		state.ProductID = price.Product.ID
		state.PlanName = price.Product.Name
	}
}
