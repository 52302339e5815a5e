package controllers

import (
	"fmt"

	"github.com/gofiber/fiber/v2"
	"github.com/sujit-baniya/flash"

	"github.com/launchpadhq/launchpad/app/models"
	"github.com/launchpadhq/launchpad/app/repository"
	"github.com/launchpadhq/launchpad/internal/pkg/constants"
	"github.com/launchpadhq/launchpad/internal/pkg/env"
	"github.com/launchpadhq/launchpad/internal/pkg/hcaptcha"
	"github.com/launchpadhq/launchpad/internal/pkg/mail"
	"github.com/launchpadhq/launchpad/internal/pkg/session"
	"github.com/launchpadhq/launchpad/internal/pkg/usercontext"
	"github.com/launchpadhq/launchpad/internal/pkg/utils"
)

// loginFailedMessage is deliberately generic: unknown email, OAuth-only
// account and wrong password must be indistinguishable from outside.
const loginFailedMessage = "Invalid email or password"

func HandleAuthLogin(c *fiber.Ctx) error {
	if c.Method() == fiber.MethodPost {
		fm := fiber.Map{"type": "error"}
		users := repository.GetGlobalFactory().GetUserRepository()

		user, err := users.GetByEmail(c.FormValue("email"))
		if err != nil {
			fm["message"] = loginFailedMessage

			return flash.WithError(c, fm).Redirect(constants.LoginRoute)
		}

		if !user.CheckPassword(c.FormValue("password")) {
			fm["message"] = loginFailedMessage

			return flash.WithError(c, fm).Redirect(constants.LoginRoute)
		}

		if err := createUserSession(c, user, ""); err != nil {
			fm["message"] = fmt.Sprintf("something went wrong: %s", err)

			return flash.WithError(c, fm).Redirect(constants.LoginRoute)
		}

		_ = users.TouchLastLogin(user.ID)

		return c.Redirect(constants.DashboardRoute, fiber.StatusSeeOther)
	}

	return c.Render("login", fiber.Map{
		"Title": "Sign in",
		"Flash": flash.Get(c),
	}, "layouts/main")
}

func HandleAuthRegister(c *fiber.Ctx) error {
	if c.Method() == fiber.MethodPost {
		// Captcha check is only active when a secret is configured
		if env.GetEnv("HCAPTCHA_SECRET", "") != "" {
			ok, err := hcaptcha.Verify(c.FormValue("h-captcha-response"))
			if err != nil || !ok {
				fm := fiber.Map{
					"type":    "error",
					"message": "Captcha verification failed, please try again",
				}

				return flash.WithError(c, fm).Redirect(constants.RegisterRoute)
			}
		}

		user, err := models.CreateUser(c.FormValue("name"), c.FormValue("email"), c.FormValue("password"))
		if err != nil {
			fm := fiber.Map{
				"type":    "error",
				"message": fmt.Sprintf("something went wrong: %s", err),
			}

			return flash.WithError(c, fm).Redirect(constants.RegisterRoute)
		}
		user.AvatarURL = utils.GetGravatarURL(user.Email, 200)

		if err := repository.GetGlobalFactory().GetUserRepository().Create(user); err != nil {
			fm := fiber.Map{
				"type":    "error",
				"message": "An account with this email already exists",
			}

			return flash.WithError(c, fm).Redirect(constants.RegisterRoute)
		}

		if mail.IsConfigured() {
			go sendWelcomeMail(user)
		}

		fm := fiber.Map{
			"type":    "success",
			"message": "Account created, you can sign in now!",
		}

		return flash.WithSuccess(c, fm).Redirect(constants.LoginRoute)
	}

	return c.Render("register", fiber.Map{
		"Title":           "Create account",
		"Flash":           flash.Get(c),
		"HCaptchaSitekey": env.GetEnv("HCAPTCHA_SITEKEY", ""),
	}, "layouts/main")
}

func HandleAuthLogout(c *fiber.Ctx) error {
	sess, err := session.GetSessionStore().Get(c)
	if err == nil {
		_ = sess.Destroy()
	}

	c.Locals(usercontext.KeyFromProtected, false)

	return c.Redirect(constants.LoginRoute, fiber.StatusSeeOther)
}

// createUserSession writes the authenticated identity into the app session.
// provider is the OAuth provider name, or "" for credentials logins.
func createUserSession(c *fiber.Ctx, user *models.User, provider string) error {
	sess, err := session.GetSessionStore().Get(c)
	if err != nil {
		return err
	}

	sess.Set(AUTH_KEY, true)
	sess.Set(USER_ID, user.ID)
	sess.Set(USER_NAME, user.Name)
	sess.Set(USER_EMAIL, user.Email)
	sess.Set(USER_PROVIDER, provider)
	sess.Set(USER_IS_ADMIN, user.Role == models.ROLE_ADMIN)

	return sess.Save()
}

// sendWelcomeMail is fire-and-forget; registration never fails on mail errors.
func sendWelcomeMail(user *models.User) {
	appName := env.GetEnv("APP_NAME", "LaunchPad")
	body := fmt.Sprintf(
		"<h1>Welcome to %s, %s!</h1><p>Your account is ready. Head over to the <a href=\"%s%s\">pricing page</a> to pick a plan.</p>",
		appName, user.Name,
		env.GetEnv("PUBLIC_DOMAIN", "http://localhost:3000"), constants.PricingRoute,
	)
	_ = mail.SendMail(user.Email, fmt.Sprintf("Welcome to %s", appName), body)
}
