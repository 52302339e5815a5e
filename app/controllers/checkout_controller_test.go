package controllers

import (
	"bytes"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/launchpadhq/launchpad/app/models"
	"github.com/launchpadhq/launchpad/internal/pkg/billing"
	"github.com/launchpadhq/launchpad/internal/pkg/usercontext"
)

// newAuthedTestApp mounts a handler behind a Locals-injected user context, the
// way the user context middleware would populate it for a logged-in session.
func newAuthedTestApp(method, path string, userID uint, handler fiber.Handler) *fiber.App {
	app := fiber.New()
	app.Add(method, path, func(c *fiber.Ctx) error {
		c.Locals(usercontext.KeyUserContext, usercontext.UserContext{
			UserID:     userID,
			Username:   "Test User",
			Email:      "user@example.com",
			IsLoggedIn: true,
		})
		return handler(c)
	})
	return app
}

func jsonRequest(method, path, body string) *http.Request {
	req := httptest.NewRequest(method, path, bytes.NewReader([]byte(body)))
	req.Header.Set("Content-Type", "application/json")
	return req
}

func TestHandleCreateCheckout_Unauthenticated(t *testing.T) {
	app := fiber.New()
	app.Post("/api/checkout", HandleCreateCheckout)

	resp, err := app.Test(jsonRequest(http.MethodPost, "/api/checkout", `{"priceId":"price_pro"}`), -1)
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusUnauthorized, resp.StatusCode)

	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	assert.Contains(t, string(body), "You must be logged in to subscribe")
}

func TestHandleCreateCheckout_MissingPriceID(t *testing.T) {
	app := newAuthedTestApp(http.MethodPost, "/api/checkout", 7, HandleCreateCheckout)

	for _, body := range []string{`{}`, `{"priceId":""}`, `not-json`} {
		resp, err := app.Test(jsonRequest(http.MethodPost, "/api/checkout", body), -1)
		require.NoError(t, err)
		assert.Equal(t, fiber.StatusBadRequest, resp.StatusCode, "body %q", body)
	}
}

func TestHandleCreateCheckout_DuplicateActiveSubscription(t *testing.T) {
	repo := newStubRepository()
	repo.users[7] = &models.User{Name: "Test User", Email: "user@example.com"}
	repo.addSubscription(&models.Subscription{
		UserID:               7,
		StripeSubscriptionID: "sub_1",
		Status:               models.SubscriptionStatusActive,
	})
	restore := withStubBillingService(repo, newStubProcessor())
	defer restore()

	app := newAuthedTestApp(http.MethodPost, "/api/checkout", 7, HandleCreateCheckout)
	resp, err := app.Test(jsonRequest(http.MethodPost, "/api/checkout", `{"priceId":"price_pro"}`), -1)
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusBadRequest, resp.StatusCode)

	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	assert.Contains(t, string(body), "You already have an active subscription")
}

func TestHandleCreateCheckout_ReturnsRedirectURL(t *testing.T) {
	repo := newStubRepository()
	user := &models.User{Name: "Test User", Email: "user@example.com"}
	user.ID = 7
	repo.users[7] = user
	restore := withStubBillingService(repo, newStubProcessor())
	defer restore()

	app := newAuthedTestApp(http.MethodPost, "/api/checkout", 7, HandleCreateCheckout)
	resp, err := app.Test(jsonRequest(http.MethodPost, "/api/checkout", `{"priceId":"price_pro"}`), -1)
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)

	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	assert.Contains(t, string(body), "https://checkout.stripe.test/cs_test")
}

func TestHandleCheckoutSuccess_MissingSessionID(t *testing.T) {
	app := fiber.New()
	app.Get("/api/checkout/success", HandleCheckoutSuccess)

	resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/api/checkout/success", nil), -1)
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusBadRequest, resp.StatusCode)

	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	assert.Contains(t, string(body), "Session ID is required")
}

func TestHandleCheckoutSuccess_RecordsAndRepeatsIdempotently(t *testing.T) {
	repo := newStubRepository()
	proc := newStubProcessor()

	start := time.Date(2025, 3, 1, 0, 0, 0, 0, time.UTC)
	end := start.AddDate(0, 1, 0)
	proc.sessions["cs_test"] = &billing.CheckoutDetails{
		SessionID:  "cs_test",
		CustomerID: "cus_123",
		Metadata:   map[string]string{"user_id": "7"},
		Subscription: &billing.SubscriptionState{
			ID:                 "sub_123",
			PriceID:            "price_basic",
			PlanName:           "Basic",
			Status:             "active",
			Amount:             1000,
			Currency:           "usd",
			Interval:           "month",
			CurrentPeriodStart: &start,
			CurrentPeriodEnd:   &end,
		},
	}
	restore := withStubBillingService(repo, proc)
	defer restore()

	app := fiber.New()
	app.Get("/api/checkout/success", HandleCheckoutSuccess)

	resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/api/checkout/success?session_id=cs_test", nil), -1)
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)
	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	assert.Contains(t, string(body), "Subscription created successfully")

	resp, err = app.Test(httptest.NewRequest(http.MethodGet, "/api/checkout/success?session_id=cs_test", nil), -1)
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)
	body, err = io.ReadAll(resp.Body)
	require.NoError(t, err)
	assert.Contains(t, string(body), "Subscription already recorded")

	assert.Len(t, repo.subs, 1)
}
