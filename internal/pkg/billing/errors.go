package billing

import "errors"

// Sentinel errors mapped to HTTP status codes at the handler boundary.
var (
	// ErrPriceRequired is returned when checkout is started without a price id.
	ErrPriceRequired = errors.New("price id is required")
	// ErrActiveSubscriptionExists is returned when a user with an active
	// subscription tries to start another checkout.
	ErrActiveSubscriptionExists = errors.New("user already has an active subscription")
	// ErrNoSubscription is returned when a checkout session has no resolved
	// subscription object attached.
	ErrNoSubscription = errors.New("no subscription found on checkout session")
	// ErrMissingUserMetadata is returned when a checkout session carries no
	// local user id in its metadata.
	ErrMissingUserMetadata = errors.New("user id not found in session metadata")
	// ErrSubscriptionNotFound is returned when the referenced local
	// subscription row does not exist.
	ErrSubscriptionNotFound = errors.New("subscription not found")
	// ErrNotSubscriptionOwner is returned when the acting user does not own
	// the subscription.
	ErrNotSubscriptionOwner = errors.New("subscription does not belong to user")
	// ErrAlreadyCanceled is returned when cancel is requested on a
	// subscription whose status is already canceled.
	ErrAlreadyCanceled = errors.New("subscription is already canceled")
)
