package middleware

import (
	"strings"

	"github.com/gofiber/fiber/v2"

	"github.com/launchpadhq/launchpad/app/controllers"
	"github.com/launchpadhq/launchpad/internal/pkg/session"
	"github.com/launchpadhq/launchpad/internal/pkg/usercontext"
)

// UserContextMiddleware sets up the complete user context for every request.
// This centralizes user session handling and eliminates code duplication.
func UserContextMiddleware(c *fiber.Ctx) error {
	// Avoid interfering with Goth/Fiber session handling on OAuth routes.
	// Goth uses its own fiber session store and relies on per-request locals.
	if strings.HasPrefix(c.Path(), "/auth/") {
		return c.Next()
	}

	sess, err := session.GetSessionStore().Get(c)
	if err != nil {
		c.Locals(usercontext.KeyUserContext, usercontext.UserContext{
			IsLoggedIn: false,
			IsAdmin:    false,
		})
		c.Locals(usercontext.KeyFromProtected, false)
		return c.Next()
	}

	userID := sess.Get(controllers.USER_ID)
	if userID == nil {
		c.Locals(usercontext.KeyUserContext, usercontext.UserContext{
			IsLoggedIn: false,
			IsAdmin:    false,
		})
		c.Locals(usercontext.KeyFromProtected, false)
		return c.Next()
	}

	username := session.GetSessionValue(c, controllers.USER_NAME)
	email := session.GetSessionValue(c, controllers.USER_EMAIL)
	provider := session.GetSessionValue(c, controllers.USER_PROVIDER)
	isAdmin := sess.Get(controllers.USER_IS_ADMIN)

	userCtx := usercontext.UserContext{
		UserID:     userID.(uint),
		Username:   username,
		Email:      email,
		Provider:   provider,
		IsLoggedIn: true,
		IsAdmin:    isAdmin != nil && isAdmin.(bool),
	}
	c.Locals(usercontext.KeyUserContext, userCtx)
	c.Locals(usercontext.KeyFromProtected, true)
	c.Locals(usercontext.KeyIsAdmin, userCtx.IsAdmin)

	return c.Next()
}
