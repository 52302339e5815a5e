package billing

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"log"
	"strconv"
	"strings"
	"time"

	"github.com/stripe/stripe-go/v76"
	"gorm.io/gorm"

	"github.com/launchpadhq/launchpad/app/models"
	"github.com/launchpadhq/launchpad/internal/pkg/env"
)

// Service coordinates checkout, reconciliation of processor subscription
// state into local tables, and the owner-facing cancel/reactivate surface.
type Service struct {
	repo      Repository
	processor Processor
	publicURL string
}

// NewService creates a billing service from injected dependencies.
func NewService(repo Repository, processor Processor, publicURL string) *Service {
	return &Service{
		repo:      repo,
		processor: processor,
		publicURL: strings.TrimRight(publicURL, "/"),
	}
}

// NewServiceFromDB creates a billing service from a GORM DB handle with the
// Stripe processor and public URL configured from the environment.
func NewServiceFromDB(db *gorm.DB) *Service {
	publicURL := env.GetEnv("PUBLIC_DOMAIN", "http://localhost:"+env.GetEnv("APP_PORT", "3000"))
	return NewService(NewRepository(db), NewStripeProcessorFromEnv(), publicURL)
}

// StartCheckout opens a hosted checkout session for the given user and price
// and returns its redirect URL. No local row is written here; the
// subscription is only recorded once the processor confirms it.
//
// The duplicate-active check is a read-then-write business rule, not a
// processor guarantee; two concurrent requests can race past it.
func (s *Service) StartCheckout(ctx context.Context, userID uint, priceID string) (string, error) {
	priceID = strings.TrimSpace(priceID)
	if priceID == "" {
		return "", ErrPriceRequired
	}

	if _, err := s.repo.FindActiveSubscriptionByUser(userID); err == nil {
		return "", ErrActiveSubscriptionExists
	} else if !IsNotFound(err) {
		return "", err
	}

	user, err := s.repo.GetUserByID(userID)
	if err != nil {
		return "", err
	}

	customerID, err := s.resolveCustomer(ctx, user)
	if err != nil {
		return "", err
	}

	ref, err := s.processor.CreateCheckoutSession(ctx, CheckoutSessionInput{
		CustomerID: customerID,
		PriceID:    priceID,
		SuccessURL: s.publicURL + "/success?session_id={CHECKOUT_SESSION_ID}",
		CancelURL:  s.publicURL + "/pricing",
		UserID:     user.ID,
		UserEmail:  user.Email,
	})
	if err != nil {
		return "", err
	}
	return ref.URL, nil
}

// resolveCustomer picks the processor customer for a user: the one on their
// most recent subscription row, an existing processor customer matching
// their email, or a freshly created customer.
func (s *Service) resolveCustomer(ctx context.Context, user *models.User) (string, error) {
	if latest, err := s.repo.FindLatestSubscriptionByUser(user.ID); err == nil {
		return latest.StripeCustomerID, nil
	} else if !IsNotFound(err) {
		return "", err
	}

	customerID, err := s.processor.FindCustomerByEmail(ctx, user.Email)
	if err != nil {
		return "", err
	}
	if customerID != "" {
		return customerID, nil
	}

	return s.processor.CreateCustomer(ctx, user.Email, user.Name, user.ID)
}

// ConfirmCheckout is the pull path of reconciliation: the success redirect
// hands us a checkout session id, we retrieve it from the processor and
// record the subscription. Confirming the same session twice returns the
// stored row unchanged.
func (s *Service) ConfirmCheckout(ctx context.Context, sessionID string) (*models.Subscription, bool, error) {
	details, err := s.processor.GetCheckoutSession(ctx, sessionID)
	if err != nil {
		return nil, false, err
	}
	if details.Subscription == nil || details.Subscription.ID == "" {
		return nil, false, ErrNoSubscription
	}

	userID, ok := userIDFromMetadata(details.Metadata)
	if !ok {
		return nil, false, ErrMissingUserMetadata
	}

	state := details.Subscription
	row := &models.Subscription{
		UserID:               userID,
		StripeCustomerID:     details.CustomerID,
		StripeSubscriptionID: state.ID,
		StripePriceID:        state.PriceID,
		StripeProductID:      state.ProductID,
		Status:               defaultStatus(state.Status),
		PlanName:             defaultPlanName(state.PlanName),
		Amount:               state.Amount,
		Currency:             defaultCurrency(state.Currency),
		Interval:             defaultInterval(state.Interval),
		CurrentPeriodStart:   state.CurrentPeriodStart,
		CurrentPeriodEnd:     state.CurrentPeriodEnd,
		CancelAtPeriodEnd:    state.CancelAtPeriodEnd,
	}

	created, stored, err := s.repo.CreateSubscriptionIfNotExists(row)
	if err != nil {
		return nil, false, err
	}
	return stored, !created, nil
}

// HandleWebhookEvent is the push path of reconciliation. The event signature
// must already be verified. Each recognized event type upserts or transitions
// the local record to mirror processor-reported state; reconciliation is
// keyed on the subscription id and is last-write-wins, so events are safe to
// apply more than once and out of order.
func (s *Service) HandleWebhookEvent(ctx context.Context, event stripe.Event) error {
	switch string(event.Type) {
	case EventCheckoutCompleted:
		var session stripe.CheckoutSession
		if err := json.Unmarshal(event.Data.Raw, &session); err != nil {
			return fmt.Errorf("parse checkout session: %w", err)
		}
		return s.reconcileCheckoutCompleted(ctx, &session)

	case EventSubscriptionCreated, EventSubscriptionUpdated:
		var sub stripe.Subscription
		if err := json.Unmarshal(event.Data.Raw, &sub); err != nil {
			return fmt.Errorf("parse subscription: %w", err)
		}
		return s.reconcileSubscriptionState(ctx, subscriptionToState(&sub))

	case EventSubscriptionDeleted:
		var sub stripe.Subscription
		if err := json.Unmarshal(event.Data.Raw, &sub); err != nil {
			return fmt.Errorf("parse subscription: %w", err)
		}
		return s.markSubscriptionCanceled(sub.ID)

	case EventInvoicePaymentSucceeded:
		var invoice stripe.Invoice
		if err := json.Unmarshal(event.Data.Raw, &invoice); err != nil {
			return fmt.Errorf("parse invoice: %w", err)
		}
		return s.transitionStatusForInvoice(&invoice, models.SubscriptionStatusActive)

	case EventInvoicePaymentFailed:
		var invoice stripe.Invoice
		if err := json.Unmarshal(event.Data.Raw, &invoice); err != nil {
			return fmt.Errorf("parse invoice: %w", err)
		}
		return s.transitionStatusForInvoice(&invoice, models.SubscriptionStatusPastDue)

	default:
		// Unrecognized event types are acknowledged without processing.
		log.Printf("billing: unhandled webhook event type %s", event.Type)
		return nil
	}
}

// reconcileCheckoutCompleted records the subscription referenced by a
// completed checkout session. The webhook payload does not carry expanded
// price data, so the full state is fetched from the processor.
func (s *Service) reconcileCheckoutCompleted(ctx context.Context, session *stripe.CheckoutSession) error {
	if session.Subscription == nil || session.Subscription.ID == "" {
		// One-time payment sessions carry no subscription; nothing to do.
		return nil
	}

	if _, err := s.repo.GetSubscriptionByStripeID(session.Subscription.ID); err == nil {
		// Pull path already recorded it.
		return nil
	} else if !IsNotFound(err) {
		return err
	}

	state, err := s.processor.GetSubscription(ctx, session.Subscription.ID)
	if err != nil {
		return err
	}
	if _, ok := userIDFromMetadata(state.Metadata); !ok {
		// Fall back to the session-level metadata set at checkout creation.
		if state.Metadata == nil {
			state.Metadata = map[string]string{}
		}
		if uid, ok := userIDFromMetadata(session.Metadata); ok {
			state.Metadata["user_id"] = strconv.FormatUint(uint64(uid), 10)
		}
	}
	if state.CustomerID == "" && session.Customer != nil {
		state.CustomerID = session.Customer.ID
	}
	return s.reconcileSubscriptionState(ctx, state)
}

// reconcileSubscriptionState upserts processor subscription state keyed on
// the subscription id.
func (s *Service) reconcileSubscriptionState(ctx context.Context, state *SubscriptionState) error {
	_ = ctx
	if state == nil || state.ID == "" {
		return nil
	}

	existing, err := s.repo.GetSubscriptionByStripeID(state.ID)
	if err != nil && !IsNotFound(err) {
		return err
	}

	row := &models.Subscription{
		StripeSubscriptionID: state.ID,
		StripeCustomerID:     state.CustomerID,
		StripePriceID:        state.PriceID,
		StripeProductID:      state.ProductID,
		Status:               defaultStatus(state.Status),
		PlanName:             defaultPlanName(state.PlanName),
		Amount:               state.Amount,
		Currency:             defaultCurrency(state.Currency),
		Interval:             defaultInterval(state.Interval),
		CurrentPeriodStart:   state.CurrentPeriodStart,
		CurrentPeriodEnd:     state.CurrentPeriodEnd,
		CancelAtPeriodEnd:    state.CancelAtPeriodEnd,
	}

	if existing != nil {
		row.UserID = existing.UserID
		row.CanceledAt = existing.CanceledAt
		if row.StripeCustomerID == "" {
			row.StripeCustomerID = existing.StripeCustomerID
		}
		if row.PlanName == defaultPlanName("") && existing.PlanName != "" {
			row.PlanName = existing.PlanName
		}
		if row.Amount == 0 {
			row.Amount = existing.Amount
		}
	} else {
		userID, ok := userIDFromMetadata(state.Metadata)
		if !ok {
			// Without a local row or a user id in metadata there is nothing
			// to link this subscription to. Skip rather than create an
			// orphaned record.
			log.Printf("billing: subscription %s has no local row and no user metadata, skipping", state.ID)
			return nil
		}
		row.UserID = userID
	}

	return s.repo.UpsertSubscription(row)
}

// markSubscriptionCanceled transitions the local record after the processor
// reports the subscription gone.
func (s *Service) markSubscriptionCanceled(stripeSubscriptionID string) error {
	sub, err := s.repo.GetSubscriptionByStripeID(stripeSubscriptionID)
	if err != nil {
		if IsNotFound(err) {
			return nil
		}
		return err
	}

	sub.Status = models.SubscriptionStatusCanceled
	if sub.CanceledAt == nil {
		now := time.Now()
		sub.CanceledAt = &now
	}
	return s.repo.SaveSubscription(sub)
}

func (s *Service) transitionStatusForInvoice(invoice *stripe.Invoice, status string) error {
	if invoice.Subscription == nil || invoice.Subscription.ID == "" {
		return nil
	}

	sub, err := s.repo.GetSubscriptionByStripeID(invoice.Subscription.ID)
	if err != nil {
		if IsNotFound(err) {
			return nil
		}
		return err
	}

	sub.Status = status
	return s.repo.SaveSubscription(sub)
}

// CancelSubscription flags the owner's subscription for cancellation at
// period end. The processor call is best-effort: its failure is logged and
// swallowed so the local record always reflects the owner's intent, at the
// cost of possible divergence from processor state.
func (s *Service) CancelSubscription(ctx context.Context, actorUserID, subscriptionID uint) (*models.Subscription, error) {
	sub, err := s.repo.GetSubscriptionByID(subscriptionID)
	if err != nil {
		if IsNotFound(err) {
			return nil, ErrSubscriptionNotFound
		}
		return nil, err
	}
	if sub.UserID != actorUserID {
		return nil, ErrNotSubscriptionOwner
	}
	if sub.Status == models.SubscriptionStatusCanceled {
		return nil, ErrAlreadyCanceled
	}

	if sub.StripeSubscriptionID != "" {
		if err := s.processor.SetCancelAtPeriodEnd(ctx, sub.StripeSubscriptionID, true); err != nil {
			log.Printf("billing: stripe cancel failed for %s: %v", sub.StripeSubscriptionID, err)
		}
	}

	now := time.Now()
	sub.CancelAtPeriodEnd = true
	sub.CanceledAt = &now
	if err := s.repo.SaveSubscription(sub); err != nil {
		return nil, err
	}
	return sub, nil
}

// ReactivateSubscription clears a pending cancellation, mirroring
// CancelSubscription including the best-effort processor call.
func (s *Service) ReactivateSubscription(ctx context.Context, actorUserID, subscriptionID uint) (*models.Subscription, error) {
	sub, err := s.repo.GetSubscriptionByID(subscriptionID)
	if err != nil {
		if IsNotFound(err) {
			return nil, ErrSubscriptionNotFound
		}
		return nil, err
	}
	if sub.UserID != actorUserID {
		return nil, ErrNotSubscriptionOwner
	}

	if sub.StripeSubscriptionID != "" {
		if err := s.processor.SetCancelAtPeriodEnd(ctx, sub.StripeSubscriptionID, false); err != nil {
			log.Printf("billing: stripe reactivate failed for %s: %v", sub.StripeSubscriptionID, err)
		}
	}

	sub.CancelAtPeriodEnd = false
	sub.CanceledAt = nil
	if err := s.repo.SaveSubscription(sub); err != nil {
		return nil, err
	}
	return sub, nil
}

// ListUserSubscriptions returns the user's subscription history, newest first.
func (s *Service) ListUserSubscriptions(userID uint) ([]models.Subscription, error) {
	return s.repo.ListSubscriptionsByUser(userID)
}

// RecordWebhookEvent persists webhook payloads idempotently.
func (s *Service) RecordWebhookEvent(ctx context.Context, in WebhookEventInput) (bool, *models.WebhookEvent, error) {
	_ = ctx
	provider := strings.ToLower(strings.TrimSpace(in.Provider))
	if provider == "" {
		provider = models.BillingProviderStripe
	}
	eventID := strings.TrimSpace(in.ProviderEventID)
	if eventID == "" {
		sum := sha256.Sum256([]byte(in.PayloadJSON))
		eventID = "hash:" + hex.EncodeToString(sum[:])
	}

	event := &models.WebhookEvent{
		Provider:        provider,
		ProviderEventID: eventID,
		EventType:       strings.TrimSpace(in.EventType),
		PayloadJSON:     in.PayloadJSON,
		SignatureValid:  in.SignatureValid,
	}
	return s.repo.CreateWebhookEventIfNotExists(event)
}

// MarkWebhookProcessed marks an event as processed and stores an optional error.
func (s *Service) MarkWebhookProcessed(ctx context.Context, webhookEventID uint, processingErr error) error {
	_ = ctx
	errMsg := ""
	if processingErr != nil {
		errMsg = processingErr.Error()
	}
	return s.repo.MarkWebhookProcessed(webhookEventID, errMsg)
}

func userIDFromMetadata(metadata map[string]string) (uint, bool) {
	raw := strings.TrimSpace(metadata["user_id"])
	if raw == "" {
		return 0, false
	}
	id, err := strconv.ParseUint(raw, 10, 64)
	if err != nil || id == 0 {
		return 0, false
	}
	return uint(id), true
}

func defaultStatus(status string) string {
	if status == "" {
		return models.SubscriptionStatusActive
	}
	return strings.ToLower(status)
}

func defaultPlanName(name string) string {
	if name == "" {
		return "Unknown"
	}
	return name
}

func defaultCurrency(currency string) string {
	if currency == "" {
		return "usd"
	}
	return strings.ToLower(currency)
}

func defaultInterval(interval string) string {
	if interval == "" {
		return models.BillingIntervalMonth
	}
	return interval
}
