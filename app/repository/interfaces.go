package repository

import (
	"gorm.io/gorm"

	"github.com/launchpadhq/launchpad/app/models"
)

// UserRepository defines the interface for user-related database operations
type UserRepository interface {
	Create(user *models.User) error
	GetByID(id uint) (*models.User, error)
	GetByEmail(email string) (*models.User, error)
	Update(user *models.User) error
	TouchLastLogin(id uint) error
}

// ProviderAccountRepository defines the interface for linked OAuth identities
type ProviderAccountRepository interface {
	Create(account *models.ProviderAccount) error
	GetByProviderUserID(provider, providerUserID string) (*models.ProviderAccount, error)
	Update(account *models.ProviderAccount) error
}

// Repositories struct holds all repository instances
type Repositories struct {
	User            UserRepository
	ProviderAccount ProviderAccountRepository
}

// NewRepositories creates a new instance of all repositories
func NewRepositories(db *gorm.DB) *Repositories {
	return &Repositories{
		User:            NewUserRepository(db),
		ProviderAccount: NewProviderAccountRepository(db),
	}
}
