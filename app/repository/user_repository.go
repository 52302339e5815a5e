package repository

import (
	"time"

	"gorm.io/gorm"

	"github.com/launchpadhq/launchpad/app/models"
)

// userRepository implements the UserRepository interface
type userRepository struct {
	db *gorm.DB
}

// NewUserRepository creates a new user repository instance
func NewUserRepository(db *gorm.DB) UserRepository {
	return &userRepository{db: db}
}

// Create creates a new user in the database
func (r *userRepository) Create(user *models.User) error {
	return r.db.Create(user).Error
}

// GetByID retrieves a user by their ID
func (r *userRepository) GetByID(id uint) (*models.User, error) {
	var user models.User
	err := r.db.First(&user, id).Error
	if err != nil {
		return nil, err
	}
	return &user, nil
}

// GetByEmail retrieves a user by their email address
func (r *userRepository) GetByEmail(email string) (*models.User, error) {
	var user models.User
	err := r.db.Where("email = ?", email).First(&user).Error
	if err != nil {
		return nil, err
	}
	return &user, nil
}

// Update persists changes to an existing user
func (r *userRepository) Update(user *models.User) error {
	return r.db.Save(user).Error
}

// TouchLastLogin stamps the user's last successful login
func (r *userRepository) TouchLastLogin(id uint) error {
	return r.db.Model(&models.User{}).Where("id = ?", id).
		Update("last_login_at", time.Now()).Error
}
