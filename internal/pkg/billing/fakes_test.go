package billing

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/gorm"

	"github.com/launchpadhq/launchpad/app/models"
)

// fakeRepository is an in-memory Repository used by service tests.
type fakeRepository struct {
	users  map[uint]*models.User
	subs   []*models.Subscription
	events map[string]*models.WebhookEvent
	nextID uint
}

func newFakeRepository() *fakeRepository {
	return &fakeRepository{
		users:  make(map[uint]*models.User),
		events: make(map[string]*models.WebhookEvent),
	}
}

func (r *fakeRepository) addUser(u *models.User) *models.User {
	r.users[u.ID] = u
	return u
}

func (r *fakeRepository) addSubscription(s *models.Subscription) *models.Subscription {
	r.nextID++
	s.ID = r.nextID
	r.subs = append(r.subs, s)
	return s
}

func (r *fakeRepository) GetUserByID(userID uint) (*models.User, error) {
	if u, ok := r.users[userID]; ok {
		return u, nil
	}
	return nil, gorm.ErrRecordNotFound
}

func (r *fakeRepository) GetSubscriptionByID(id uint) (*models.Subscription, error) {
	for _, s := range r.subs {
		if s.ID == id {
			return s, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (r *fakeRepository) GetSubscriptionByStripeID(stripeSubscriptionID string) (*models.Subscription, error) {
	for _, s := range r.subs {
		if s.StripeSubscriptionID == stripeSubscriptionID {
			return s, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (r *fakeRepository) FindActiveSubscriptionByUser(userID uint) (*models.Subscription, error) {
	for _, s := range r.subs {
		if s.UserID == userID && s.Status == models.SubscriptionStatusActive {
			return s, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (r *fakeRepository) FindLatestSubscriptionByUser(userID uint) (*models.Subscription, error) {
	var latest *models.Subscription
	for _, s := range r.subs {
		if s.UserID == userID {
			latest = s
		}
	}
	if latest == nil {
		return nil, gorm.ErrRecordNotFound
	}
	return latest, nil
}

func (r *fakeRepository) ListSubscriptionsByUser(userID uint) ([]models.Subscription, error) {
	var out []models.Subscription
	for _, s := range r.subs {
		if s.UserID == userID {
			out = append(out, *s)
		}
	}
	return out, nil
}

func (r *fakeRepository) CreateSubscriptionIfNotExists(sub *models.Subscription) (bool, *models.Subscription, error) {
	if stored, err := r.GetSubscriptionByStripeID(sub.StripeSubscriptionID); err == nil {
		return false, stored, nil
	}
	return true, r.addSubscription(sub), nil
}

func (r *fakeRepository) UpsertSubscription(sub *models.Subscription) error {
	existing, err := r.GetSubscriptionByStripeID(sub.StripeSubscriptionID)
	if err != nil {
		r.addSubscription(sub)
		return nil
	}

	existing.Status = sub.Status
	existing.StripePriceID = sub.StripePriceID
	existing.StripeProductID = sub.StripeProductID
	existing.PlanName = sub.PlanName
	existing.Amount = sub.Amount
	existing.Currency = sub.Currency
	existing.Interval = sub.Interval
	existing.CurrentPeriodStart = sub.CurrentPeriodStart
	existing.CurrentPeriodEnd = sub.CurrentPeriodEnd
	existing.CancelAtPeriodEnd = sub.CancelAtPeriodEnd
	existing.CanceledAt = sub.CanceledAt
	*sub = *existing
	return nil
}

func (r *fakeRepository) SaveSubscription(sub *models.Subscription) error {
	for i, s := range r.subs {
		if s.ID == sub.ID {
			r.subs[i] = sub
			return nil
		}
	}
	return gorm.ErrRecordNotFound
}

func (r *fakeRepository) CreateWebhookEventIfNotExists(event *models.WebhookEvent) (bool, *models.WebhookEvent, error) {
	key := event.Provider + "/" + event.ProviderEventID
	if stored, ok := r.events[key]; ok {
		return false, stored, nil
	}
	r.nextID++
	event.ID = r.nextID
	r.events[key] = event
	return true, event, nil
}

func (r *fakeRepository) MarkWebhookProcessed(id uint, processingError string) error {
	for _, e := range r.events {
		if e.ID == id {
			e.ProcessingError = processingError
			return nil
		}
	}
	return gorm.ErrRecordNotFound
}

// fakeProcessor is an in-memory Processor used by service tests.
type fakeProcessor struct {
	customersByEmail map[string]string
	checkoutSessions map[string]*CheckoutDetails
	subscriptions    map[string]*SubscriptionState

	createdCustomers  int
	createdSessions   int
	lastCheckoutInput CheckoutSessionInput
	cancelCalls       map[string]bool
	failSetCancel     bool
	failCreateSession bool
}

func newFakeProcessor() *fakeProcessor {
	return &fakeProcessor{
		customersByEmail: make(map[string]string),
		checkoutSessions: make(map[string]*CheckoutDetails),
		subscriptions:    make(map[string]*SubscriptionState),
		cancelCalls:      make(map[string]bool),
	}
}

func (p *fakeProcessor) FindCustomerByEmail(_ context.Context, email string) (string, error) {
	return p.customersByEmail[email], nil
}

func (p *fakeProcessor) CreateCustomer(_ context.Context, email, _ string, userID uint) (string, error) {
	p.createdCustomers++
	id := fmt.Sprintf("cus_new_%d", userID)
	p.customersByEmail[email] = id
	return id, nil
}

func (p *fakeProcessor) CreateCheckoutSession(_ context.Context, in CheckoutSessionInput) (*CheckoutSessionRef, error) {
	if p.failCreateSession {
		return nil, errors.New("stripe: checkout unavailable")
	}
	p.createdSessions++
	p.lastCheckoutInput = in
	return &CheckoutSessionRef{ID: "cs_test", URL: "https://checkout.stripe.test/cs_test"}, nil
}

func (p *fakeProcessor) GetCheckoutSession(_ context.Context, sessionID string) (*CheckoutDetails, error) {
	if d, ok := p.checkoutSessions[sessionID]; ok {
		return d, nil
	}
	return nil, errors.New("stripe: no such checkout session")
}

func (p *fakeProcessor) GetSubscription(_ context.Context, subscriptionID string) (*SubscriptionState, error) {
	if s, ok := p.subscriptions[subscriptionID]; ok {
		return s, nil
	}
	return nil, errors.New("stripe: no such subscription")
}

func (p *fakeProcessor) SetCancelAtPeriodEnd(_ context.Context, subscriptionID string, cancel bool) error {
	if p.failSetCancel {
		return errors.New("stripe: api unavailable")
	}
	p.cancelCalls[subscriptionID] = cancel
	return nil
}
