package models

import "time"

const (
	BillingIntervalMonth = "month"
	BillingIntervalYear  = "year"
)

const (
	SubscriptionStatusActive     = "active"
	SubscriptionStatusTrialing   = "trialing"
	SubscriptionStatusPastDue    = "past_due"
	SubscriptionStatusCanceled   = "canceled"
	SubscriptionStatusIncomplete = "incomplete"
	SubscriptionStatusUnpaid     = "unpaid"
)

// Subscription mirrors one Stripe subscription lifecycle instance. Rows are
// created by checkout confirmation or webhook reconciliation and are never
// hard-deleted; a user accumulates rows over time as history.
type Subscription struct {
	ID                   uint       `gorm:"primaryKey" json:"id"`
	UserID               uint       `gorm:"not null;index" json:"user_id"`
	StripeCustomerID     string     `gorm:"type:varchar(191);not null;index" json:"stripe_customer_id"`
	StripeSubscriptionID string     `gorm:"type:varchar(191);not null;uniqueIndex" json:"stripe_subscription_id"`
	StripePriceID        string     `gorm:"type:varchar(191);not null" json:"stripe_price_id"`
	StripeProductID      string     `gorm:"type:varchar(191);default:null" json:"stripe_product_id,omitempty"`
	Status               string     `gorm:"type:varchar(32);not null;default:'active';index" json:"status"`
	PlanName             string     `gorm:"type:varchar(100);not null;default:''" json:"plan_name"`
	Amount               int64      `gorm:"not null;default:0" json:"amount"`
	Currency             string     `gorm:"type:varchar(8);not null;default:'usd'" json:"currency"`
	Interval             string     `gorm:"type:varchar(16);not null;default:'month'" json:"interval"`
	CurrentPeriodStart   *time.Time `gorm:"type:timestamp;default:null" json:"current_period_start,omitempty"`
	CurrentPeriodEnd     *time.Time `gorm:"type:timestamp;default:null" json:"current_period_end,omitempty"`
	CancelAtPeriodEnd    bool       `gorm:"default:false" json:"cancel_at_period_end"`
	CanceledAt           *time.Time `gorm:"type:timestamp;default:null" json:"canceled_at,omitempty"`
	CreatedAt            time.Time  `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt            time.Time  `gorm:"autoUpdateTime" json:"updated_at"`
}

// IsActive reports whether the subscription currently entitles the user.
func (s *Subscription) IsActive() bool {
	return s.Status == SubscriptionStatusActive
}
