package controllers

import (
	"context"
	"errors"

	"gorm.io/gorm"

	"github.com/launchpadhq/launchpad/app/models"
	"github.com/launchpadhq/launchpad/internal/pkg/billing"
)

// stubRepository is a minimal in-memory billing.Repository for handler tests.
type stubRepository struct {
	users   map[uint]*models.User
	subs    []*models.Subscription
	events  map[string]*models.WebhookEvent
	upserts int
	nextID  uint
}

func newStubRepository() *stubRepository {
	return &stubRepository{
		users:  make(map[uint]*models.User),
		events: make(map[string]*models.WebhookEvent),
	}
}

func (r *stubRepository) addSubscription(s *models.Subscription) *models.Subscription {
	r.nextID++
	s.ID = r.nextID
	r.subs = append(r.subs, s)
	return s
}

func (r *stubRepository) GetUserByID(userID uint) (*models.User, error) {
	if u, ok := r.users[userID]; ok {
		return u, nil
	}
	return nil, gorm.ErrRecordNotFound
}

func (r *stubRepository) GetSubscriptionByID(id uint) (*models.Subscription, error) {
	for _, s := range r.subs {
		if s.ID == id {
			return s, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (r *stubRepository) GetSubscriptionByStripeID(stripeSubscriptionID string) (*models.Subscription, error) {
	for _, s := range r.subs {
		if s.StripeSubscriptionID == stripeSubscriptionID {
			return s, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (r *stubRepository) FindActiveSubscriptionByUser(userID uint) (*models.Subscription, error) {
	for _, s := range r.subs {
		if s.UserID == userID && s.Status == models.SubscriptionStatusActive {
			return s, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (r *stubRepository) FindLatestSubscriptionByUser(userID uint) (*models.Subscription, error) {
	if len(r.subs) == 0 {
		return nil, gorm.ErrRecordNotFound
	}
	for i := len(r.subs) - 1; i >= 0; i-- {
		if r.subs[i].UserID == userID {
			return r.subs[i], nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (r *stubRepository) ListSubscriptionsByUser(userID uint) ([]models.Subscription, error) {
	var out []models.Subscription
	for _, s := range r.subs {
		if s.UserID == userID {
			out = append(out, *s)
		}
	}
	return out, nil
}

func (r *stubRepository) CreateSubscriptionIfNotExists(sub *models.Subscription) (bool, *models.Subscription, error) {
	if stored, err := r.GetSubscriptionByStripeID(sub.StripeSubscriptionID); err == nil {
		return false, stored, nil
	}
	return true, r.addSubscription(sub), nil
}

func (r *stubRepository) UpsertSubscription(sub *models.Subscription) error {
	r.upserts++
	existing, err := r.GetSubscriptionByStripeID(sub.StripeSubscriptionID)
	if err != nil {
		r.addSubscription(sub)
		return nil
	}
	id, userID := existing.ID, existing.UserID
	*existing = *sub
	existing.ID = id
	existing.UserID = userID
	*sub = *existing
	return nil
}

func (r *stubRepository) SaveSubscription(sub *models.Subscription) error {
	for i, s := range r.subs {
		if s.ID == sub.ID {
			r.subs[i] = sub
			return nil
		}
	}
	return gorm.ErrRecordNotFound
}

func (r *stubRepository) CreateWebhookEventIfNotExists(event *models.WebhookEvent) (bool, *models.WebhookEvent, error) {
	key := event.Provider + "/" + event.ProviderEventID
	if stored, ok := r.events[key]; ok {
		return false, stored, nil
	}
	r.nextID++
	event.ID = r.nextID
	r.events[key] = event
	return true, event, nil
}

func (r *stubRepository) MarkWebhookProcessed(id uint, processingError string) error {
	for _, e := range r.events {
		if e.ID == id {
			e.ProcessingError = processingError
			return nil
		}
	}
	return gorm.ErrRecordNotFound
}

// stubProcessor is a minimal in-memory billing.Processor for handler tests.
type stubProcessor struct {
	checkoutURL   string
	sessions      map[string]*billing.CheckoutDetails
	subscriptions map[string]*billing.SubscriptionState
	cancelCalls   int
}

func newStubProcessor() *stubProcessor {
	return &stubProcessor{
		checkoutURL:   "https://checkout.stripe.test/cs_test",
		sessions:      make(map[string]*billing.CheckoutDetails),
		subscriptions: make(map[string]*billing.SubscriptionState),
	}
}

func (p *stubProcessor) FindCustomerByEmail(_ context.Context, _ string) (string, error) {
	return "", nil
}

func (p *stubProcessor) CreateCustomer(_ context.Context, _, _ string, _ uint) (string, error) {
	return "cus_stub", nil
}

func (p *stubProcessor) CreateCheckoutSession(_ context.Context, _ billing.CheckoutSessionInput) (*billing.CheckoutSessionRef, error) {
	return &billing.CheckoutSessionRef{ID: "cs_test", URL: p.checkoutURL}, nil
}

func (p *stubProcessor) GetCheckoutSession(_ context.Context, sessionID string) (*billing.CheckoutDetails, error) {
	if d, ok := p.sessions[sessionID]; ok {
		return d, nil
	}
	return nil, errors.New("stripe: no such checkout session")
}

func (p *stubProcessor) GetSubscription(_ context.Context, subscriptionID string) (*billing.SubscriptionState, error) {
	if s, ok := p.subscriptions[subscriptionID]; ok {
		return s, nil
	}
	return nil, errors.New("stripe: no such subscription")
}

func (p *stubProcessor) SetCancelAtPeriodEnd(_ context.Context, _ string, _ bool) error {
	p.cancelCalls++
	return nil
}

// withStubBillingService swaps the per-request service factory for one built
// on the stubs and returns a restore func.
func withStubBillingService(repo *stubRepository, proc *stubProcessor) func() {
	orig := newBillingService
	newBillingService = func() *billing.Service {
		return billing.NewService(repo, proc, "http://localhost:3000")
	}
	return func() { newBillingService = orig }
}
