package controller

import (
	"context"
	"errors"
	"fmt"
	"net/http/httptest"
	"strings"
	"testing"

	"subscription-billing-be/pkg/billing"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubLogger struct{}

func (stubLogger) Debug(module, message string, details map[string]interface{}) {}
func (stubLogger) Info(module, message string, details map[string]interface{})  {}
func (stubLogger) Warn(module, message string, details map[string]interface{})  {}
func (stubLogger) Error(module, message string, details map[string]interface{}) {}
func (stubLogger) Sync() error                                                  { return nil }

type stubAdapter struct {
	name      string
	gotHint   string
	gotSig    string
	event     *billing.NormalizedEvent
	verifyErr error
}

func (a *stubAdapter) ProviderName() string { return a.name }

func (a *stubAdapter) VerifyAndNormalize(ctx context.Context, eventTypeHint string, payload []byte, signature string) (*billing.NormalizedEvent, error) {
	a.gotHint = eventTypeHint
	a.gotSig = signature
	if a.verifyErr != nil {
		return nil, a.verifyErr
	}
	return a.event, nil
}

type stubReconciler struct {
	processed []*billing.NormalizedEvent
	err       error
}

func (r *stubReconciler) Process(ctx context.Context, ev *billing.NormalizedEvent) error {
	r.processed = append(r.processed, ev)
	return r.err
}

func newWebhookApp(card, catalog *stubAdapter, reconciler *stubReconciler) *fiber.App {
	app := fiber.New()
	NewWebhookController(card, catalog, reconciler, stubLogger{}).RegisterRoutes(app.Group("/api"))
	return app
}

func TestStripeRoutesCarryEventTypeHint(t *testing.T) {
	tests := []struct {
		route string
		hint  string
	}{
		{"/api/payment/webhook/stripe/checkoutSessionCompleted", "checkout.session.completed"},
		{"/api/payment/webhook/stripe/customerSubscriptionUpdated", "customer.subscription.updated"},
		{"/api/payment/webhook/stripe/customerSubscriptionDeleted", "customer.subscription.deleted"},
		{"/api/payment/webhook/stripe/invoicePaid", "invoice.paid"},
		{"/api/payment/webhook/stripe/chargeRefunded", "charge.refunded"},
		{"/api/payment/webhook/stripe/chargeRefundUpdated", "charge.refund.updated"},
		{"/api/payment/webhook/stripe/commonTestRoute", ""},
	}

	for _, tt := range tests {
		t.Run(tt.route, func(t *testing.T) {
			card := &stubAdapter{name: "stripe", event: &billing.NormalizedEvent{Kind: billing.KindCheckoutCompleted}}
			reconciler := &stubReconciler{}
			app := newWebhookApp(card, &stubAdapter{name: "paddle"}, reconciler)

			req := httptest.NewRequest("POST", tt.route, strings.NewReader(`{}`))
			req.Header.Set("Stripe-Signature", "t=1,v1=sig")
			resp, err := app.Test(req)
			require.NoError(t, err)

			assert.Equal(t, fiber.StatusOK, resp.StatusCode)
			assert.Equal(t, tt.hint, card.gotHint)
			assert.Equal(t, "t=1,v1=sig", card.gotSig)
			assert.Len(t, reconciler.processed, 1)
		})
	}
}

func TestPaddleRouteUsesCatalogAdapter(t *testing.T) {
	catalog := &stubAdapter{name: "paddle", event: &billing.NormalizedEvent{Kind: billing.KindChargeRefunded}}
	reconciler := &stubReconciler{}
	app := newWebhookApp(&stubAdapter{name: "stripe"}, catalog, reconciler)

	req := httptest.NewRequest("POST", "/api/payment/webhook/paddle", strings.NewReader(`{}`))
	req.Header.Set("Paddle-Signature", "ts=1;h1=sig")
	resp, err := app.Test(req)
	require.NoError(t, err)

	assert.Equal(t, fiber.StatusOK, resp.StatusCode)
	assert.Equal(t, "ts=1;h1=sig", catalog.gotSig)
	assert.Len(t, reconciler.processed, 1)
}

func TestWebhookVerificationFailureIs400(t *testing.T) {
	card := &stubAdapter{name: "stripe", verifyErr: fmt.Errorf("%w: bad signature", billing.ErrVerification)}
	reconciler := &stubReconciler{}
	app := newWebhookApp(card, &stubAdapter{name: "paddle"}, reconciler)

	req := httptest.NewRequest("POST", "/api/payment/webhook/stripe/invoicePaid", strings.NewReader(`{}`))
	resp, err := app.Test(req)
	require.NoError(t, err)

	assert.Equal(t, fiber.StatusBadRequest, resp.StatusCode)
	assert.Empty(t, reconciler.processed)
}

func TestWebhookReconcileFailureIs500(t *testing.T) {
	card := &stubAdapter{name: "stripe", event: &billing.NormalizedEvent{Kind: billing.KindSubscriptionDeleted}}
	reconciler := &stubReconciler{err: errors.New("ledger unavailable")}
	app := newWebhookApp(card, &stubAdapter{name: "paddle"}, reconciler)

	req := httptest.NewRequest("POST", "/api/payment/webhook/stripe/customerSubscriptionDeleted", strings.NewReader(`{}`))
	resp, err := app.Test(req)
	require.NoError(t, err)

	// Non-2xx so the provider retries the delivery.
	assert.Equal(t, fiber.StatusInternalServerError, resp.StatusCode)
}

func TestWebhookUnsupportedEventIsAcked(t *testing.T) {
	card := &stubAdapter{name: "stripe", event: &billing.NormalizedEvent{Kind: billing.KindUnsupported}}
	reconciler := &stubReconciler{err: billing.ErrUnsupportedEvent}
	app := newWebhookApp(card, &stubAdapter{name: "paddle"}, reconciler)

	req := httptest.NewRequest("POST", "/api/payment/webhook/stripe/commonTestRoute", strings.NewReader(`{}`))
	resp, err := app.Test(req)
	require.NoError(t, err)

	// Acked so the provider stops redelivering something we will never handle.
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)
}
