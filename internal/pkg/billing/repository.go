package billing

import (
	"errors"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/launchpadhq/launchpad/app/models"
)

// Repository provides DB operations used by the billing service.
type Repository interface {
	GetUserByID(userID uint) (*models.User, error)
	GetSubscriptionByID(id uint) (*models.Subscription, error)
	GetSubscriptionByStripeID(stripeSubscriptionID string) (*models.Subscription, error)
	FindActiveSubscriptionByUser(userID uint) (*models.Subscription, error)
	FindLatestSubscriptionByUser(userID uint) (*models.Subscription, error)
	ListSubscriptionsByUser(userID uint) ([]models.Subscription, error)
	CreateSubscriptionIfNotExists(sub *models.Subscription) (bool, *models.Subscription, error)
	UpsertSubscription(sub *models.Subscription) error
	SaveSubscription(sub *models.Subscription) error
	CreateWebhookEventIfNotExists(event *models.WebhookEvent) (bool, *models.WebhookEvent, error)
	MarkWebhookProcessed(id uint, processingError string) error
}

type gormRepository struct {
	db *gorm.DB
}

// NewRepository creates a billing repository backed by GORM.
func NewRepository(db *gorm.DB) Repository {
	return &gormRepository{db: db}
}

func (r *gormRepository) GetUserByID(userID uint) (*models.User, error) {
	var user models.User
	if err := r.db.First(&user, userID).Error; err != nil {
		return nil, err
	}
	return &user, nil
}

func (r *gormRepository) GetSubscriptionByID(id uint) (*models.Subscription, error) {
	var sub models.Subscription
	if err := r.db.First(&sub, id).Error; err != nil {
		return nil, err
	}
	return &sub, nil
}

func (r *gormRepository) GetSubscriptionByStripeID(stripeSubscriptionID string) (*models.Subscription, error) {
	var sub models.Subscription
	err := r.db.Where("stripe_subscription_id = ?", stripeSubscriptionID).First(&sub).Error
	if err != nil {
		return nil, err
	}
	return &sub, nil
}

func (r *gormRepository) FindActiveSubscriptionByUser(userID uint) (*models.Subscription, error) {
	var sub models.Subscription
	err := r.db.Where("user_id = ? AND status = ?", userID, models.SubscriptionStatusActive).
		First(&sub).Error
	if err != nil {
		return nil, err
	}
	return &sub, nil
}

func (r *gormRepository) FindLatestSubscriptionByUser(userID uint) (*models.Subscription, error) {
	var sub models.Subscription
	err := r.db.Where("user_id = ?", userID).Order("created_at DESC").First(&sub).Error
	if err != nil {
		return nil, err
	}
	return &sub, nil
}

func (r *gormRepository) ListSubscriptionsByUser(userID uint) ([]models.Subscription, error) {
	var subs []models.Subscription
	err := r.db.Where("user_id = ?", userID).Order("created_at DESC").Find(&subs).Error
	return subs, err
}

// CreateSubscriptionIfNotExists inserts the row unless one with the same
// stripe_subscription_id exists. Returns whether a row was created and the
// stored row either way, so concurrent confirmation paths converge on the
// same record.
func (r *gormRepository) CreateSubscriptionIfNotExists(sub *models.Subscription) (bool, *models.Subscription, error) {
	tx := r.db.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "stripe_subscription_id"}},
		DoNothing: true,
	}).Create(sub)
	if tx.Error != nil {
		return false, nil, tx.Error
	}

	created := tx.RowsAffected > 0
	var stored models.Subscription
	if err := r.db.Where("stripe_subscription_id = ?", sub.StripeSubscriptionID).
		First(&stored).Error; err != nil {
		return false, nil, err
	}
	return created, &stored, nil
}

func (r *gormRepository) UpsertSubscription(sub *models.Subscription) error {
	if err := r.db.Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "stripe_subscription_id"}},
		DoUpdates: clause.AssignmentColumns([]string{
			"status",
			"stripe_price_id",
			"stripe_product_id",
			"plan_name",
			"amount",
			"currency",
			"interval",
			"current_period_start",
			"current_period_end",
			"cancel_at_period_end",
			"canceled_at",
			"updated_at",
		}),
	}).Create(sub).Error; err != nil {
		return err
	}

	// Ensure ID is populated after upsert.
	return r.db.Where("stripe_subscription_id = ?", sub.StripeSubscriptionID).
		First(sub).Error
}

func (r *gormRepository) SaveSubscription(sub *models.Subscription) error {
	return r.db.Save(sub).Error
}

func (r *gormRepository) CreateWebhookEventIfNotExists(event *models.WebhookEvent) (bool, *models.WebhookEvent, error) {
	tx := r.db.Clauses(clause.OnConflict{
		Columns: []clause.Column{
			{Name: "provider"},
			{Name: "provider_event_id"},
		},
		DoNothing: true,
	}).Create(event)
	if tx.Error != nil {
		return false, nil, tx.Error
	}

	created := tx.RowsAffected > 0
	var stored models.WebhookEvent
	if err := r.db.Where("provider = ? AND provider_event_id = ?", event.Provider, event.ProviderEventID).
		First(&stored).Error; err != nil {
		return false, nil, err
	}
	return created, &stored, nil
}

func (r *gormRepository) MarkWebhookProcessed(id uint, processingError string) error {
	now := time.Now()
	updates := map[string]interface{}{
		"processed_at":     &now,
		"processing_error": processingError,
	}
	return r.db.Model(&models.WebhookEvent{}).Where("id = ?", id).Updates(updates).Error
}

// IsNotFound reports whether err is the repository's record-not-found error.
func IsNotFound(err error) bool {
	return errors.Is(err, gorm.ErrRecordNotFound)
}
