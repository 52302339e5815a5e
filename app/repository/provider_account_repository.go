package repository

import (
	"gorm.io/gorm"

	"github.com/launchpadhq/launchpad/app/models"
)

// providerAccountRepository implements the ProviderAccountRepository interface
type providerAccountRepository struct {
	db *gorm.DB
}

// NewProviderAccountRepository creates a new provider account repository instance
func NewProviderAccountRepository(db *gorm.DB) ProviderAccountRepository {
	return &providerAccountRepository{db: db}
}

// Create links an external provider identity to a user
func (r *providerAccountRepository) Create(account *models.ProviderAccount) error {
	return r.db.Create(account).Error
}

// GetByProviderUserID resolves a provider identity to its linked account
func (r *providerAccountRepository) GetByProviderUserID(provider, providerUserID string) (*models.ProviderAccount, error) {
	var account models.ProviderAccount
	err := r.db.Where("provider = ? AND provider_user_id = ?", provider, providerUserID).
		First(&account).Error
	if err != nil {
		return nil, err
	}
	return &account, nil
}

// Update persists refreshed provider tokens
func (r *providerAccountRepository) Update(account *models.ProviderAccount) error {
	return r.db.Save(account).Error
}
