package controllers

import (
	"errors"
	"fmt"
	"time"

	"github.com/gofiber/fiber/v2"
	gothfiber "github.com/shareed2k/goth_fiber"
	"gorm.io/gorm"

	"github.com/launchpadhq/launchpad/app/models"
	"github.com/launchpadhq/launchpad/app/repository"
	"github.com/launchpadhq/launchpad/internal/pkg/constants"
	"github.com/launchpadhq/launchpad/internal/pkg/utils"
)

// HandleOAuthCallback completes the provider flow and logs the user in
func HandleOAuthCallback(c *fiber.Ctx) error {
	// Complete OAuth with provider and obtain unified user
	u, err := gothfiber.CompleteUserAuth(c)
	if err != nil {
		return c.Status(fiber.StatusBadRequest).SendString(fmt.Sprintf("OAuth failed: %v", err))
	}

	users := repository.GetGlobalFactory().GetUserRepository()
	accounts := repository.GetGlobalFactory().GetProviderAccountRepository()

	var appUser *models.User
	pa, err := accounts.GetByProviderUserID(u.Provider, u.UserID)
	switch {
	case err == nil:
		// Known identity, refresh the stored tokens
		pa.AccessToken = u.AccessToken
		pa.RefreshToken = u.RefreshToken
		if !u.ExpiresAt.IsZero() {
			t := u.ExpiresAt
			pa.ExpiresAt = &t
		} else {
			pa.ExpiresAt = nil
		}
		if err := accounts.Update(pa); err != nil {
			return c.Status(fiber.StatusInternalServerError).SendString(fmt.Sprintf("update tokens failed: %v", err))
		}
		appUser, err = users.GetByID(pa.UserID)
		if err != nil {
			return c.Status(fiber.StatusInternalServerError).SendString("linked user not found")
		}

	case errors.Is(err, gorm.ErrRecordNotFound):
		// First login with this identity. Match on email when the provider
		// supplies one, otherwise create a fresh account.
		if u.Email != "" {
			appUser, _ = users.GetByEmail(u.Email)
		}
		if appUser == nil {
			appUser, err = newOAuthUser(u.Provider, u.UserID, u.Email,
				firstNonEmpty(u.Name, u.NickName, u.Email, "User"), u.AvatarURL)
			if err == nil {
				err = users.Create(appUser)
			}
			if err != nil {
				return c.Status(fiber.StatusInternalServerError).SendString(fmt.Sprintf("create user failed: %v", err))
			}
		}

		var exp *time.Time
		if !u.ExpiresAt.IsZero() {
			t := u.ExpiresAt
			exp = &t
		}
		pa = &models.ProviderAccount{
			UserID:         appUser.ID,
			Provider:       u.Provider,
			ProviderUserID: u.UserID,
			AccessToken:    u.AccessToken,
			RefreshToken:   u.RefreshToken,
			ExpiresAt:      exp,
		}
		if err := accounts.Create(pa); err != nil {
			return c.Status(fiber.StatusInternalServerError).SendString(fmt.Sprintf("link provider failed: %v", err))
		}

	default:
		return c.Status(fiber.StatusInternalServerError).SendString(fmt.Sprintf("db error: %v", err))
	}

	if err := createUserSession(c, appUser, u.Provider); err != nil {
		return c.Status(fiber.StatusInternalServerError).SendString("session save failed")
	}

	_ = users.TouchLastLogin(appUser.ID)

	return c.Redirect(constants.DashboardRoute, fiber.StatusSeeOther)
}

// newOAuthUser builds a local account for a provider identity. The password is
// a random placeholder since validation requires one; it is never usable for
// login.
func newOAuthUser(provider, providerUserID, email, name, avatarURL string) (*models.User, error) {
	placeholder := fmt.Sprintf("oauth_%d", time.Now().UnixNano())
	hash, err := models.HashPassword(placeholder)
	if err != nil {
		return nil, err
	}
	if email == "" {
		// Ensure unique, non-empty email to satisfy the unique index
		email = fmt.Sprintf("%s_%s@%s.oauth.local", provider, providerUserID, provider)
	}
	if avatarURL == "" {
		avatarURL = utils.GetGravatarURL(email, 200)
	}
	return &models.User{
		Name:      name,
		Email:     email,
		Password:  hash,
		AvatarURL: avatarURL,
		Role:      models.ROLE_USER,
		Status:    models.STATUS_ACTIVE,
	}, nil
}

func firstNonEmpty(vals ...string) string {
	for _, v := range vals {
		if v != "" {
			return v
		}
	}
	return ""
}
