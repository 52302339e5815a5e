package controllers

import (
	"io"
	"net/http"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/launchpadhq/launchpad/app/models"
)

func TestHandleCancelSubscription_Unauthenticated(t *testing.T) {
	app := fiber.New()
	app.Post("/api/subscription/cancel", HandleCancelSubscription)

	resp, err := app.Test(jsonRequest(http.MethodPost, "/api/subscription/cancel", `{"subscriptionId":1}`), -1)
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusUnauthorized, resp.StatusCode)
}

func TestHandleCancelSubscription_MissingID(t *testing.T) {
	app := newAuthedTestApp(http.MethodPost, "/api/subscription/cancel", 7, HandleCancelSubscription)

	for _, body := range []string{`{}`, `{"subscriptionId":0}`, `not-json`} {
		resp, err := app.Test(jsonRequest(http.MethodPost, "/api/subscription/cancel", body), -1)
		require.NoError(t, err)
		assert.Equal(t, fiber.StatusBadRequest, resp.StatusCode, "body %q", body)
	}
}

func TestHandleCancelSubscription_NotFound(t *testing.T) {
	restore := withStubBillingService(newStubRepository(), newStubProcessor())
	defer restore()

	app := newAuthedTestApp(http.MethodPost, "/api/subscription/cancel", 7, HandleCancelSubscription)
	resp, err := app.Test(jsonRequest(http.MethodPost, "/api/subscription/cancel", `{"subscriptionId":99}`), -1)
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusNotFound, resp.StatusCode)
}

func TestHandleCancelSubscription_NotOwner(t *testing.T) {
	repo := newStubRepository()
	sub := repo.addSubscription(&models.Subscription{
		UserID:               8,
		StripeSubscriptionID: "sub_1",
		Status:               models.SubscriptionStatusActive,
	})
	restore := withStubBillingService(repo, newStubProcessor())
	defer restore()

	app := newAuthedTestApp(http.MethodPost, "/api/subscription/cancel", 7, HandleCancelSubscription)
	resp, err := app.Test(jsonRequest(http.MethodPost, "/api/subscription/cancel", `{"subscriptionId":1}`), -1)
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusForbidden, resp.StatusCode)

	stored, err := repo.GetSubscriptionByID(sub.ID)
	require.NoError(t, err)
	assert.False(t, stored.CancelAtPeriodEnd)
}

func TestHandleCancelSubscription_Success(t *testing.T) {
	repo := newStubRepository()
	proc := newStubProcessor()
	sub := repo.addSubscription(&models.Subscription{
		UserID:               7,
		StripeSubscriptionID: "sub_1",
		Status:               models.SubscriptionStatusActive,
	})
	restore := withStubBillingService(repo, proc)
	defer restore()

	app := newAuthedTestApp(http.MethodPost, "/api/subscription/cancel", 7, HandleCancelSubscription)
	resp, err := app.Test(jsonRequest(http.MethodPost, "/api/subscription/cancel", `{"subscriptionId":1}`), -1)
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)

	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	assert.Contains(t, string(body), "canceled at the end of the billing period")

	stored, err := repo.GetSubscriptionByID(sub.ID)
	require.NoError(t, err)
	assert.True(t, stored.CancelAtPeriodEnd)
	assert.NotNil(t, stored.CanceledAt)
	assert.Equal(t, 1, proc.cancelCalls)
}

func TestHandleReactivateSubscription_Success(t *testing.T) {
	repo := newStubRepository()
	sub := repo.addSubscription(&models.Subscription{
		UserID:               7,
		StripeSubscriptionID: "sub_1",
		Status:               models.SubscriptionStatusActive,
		CancelAtPeriodEnd:    true,
	})
	restore := withStubBillingService(repo, newStubProcessor())
	defer restore()

	app := newAuthedTestApp(http.MethodPatch, "/api/subscription/cancel", 7, HandleReactivateSubscription)
	resp, err := app.Test(jsonRequest(http.MethodPatch, "/api/subscription/cancel", `{"subscriptionId":1}`), -1)
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)

	stored, err := repo.GetSubscriptionByID(sub.ID)
	require.NoError(t, err)
	assert.False(t, stored.CancelAtPeriodEnd)
	assert.Nil(t, stored.CanceledAt)
}

func TestHandleReactivateSubscription_NotOwner(t *testing.T) {
	repo := newStubRepository()
	repo.addSubscription(&models.Subscription{
		UserID:               8,
		StripeSubscriptionID: "sub_1",
		Status:               models.SubscriptionStatusActive,
		CancelAtPeriodEnd:    true,
	})
	restore := withStubBillingService(repo, newStubProcessor())
	defer restore()

	app := newAuthedTestApp(http.MethodPatch, "/api/subscription/cancel", 7, HandleReactivateSubscription)
	resp, err := app.Test(jsonRequest(http.MethodPatch, "/api/subscription/cancel", `{"subscriptionId":1}`), -1)
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusForbidden, resp.StatusCode)
}
