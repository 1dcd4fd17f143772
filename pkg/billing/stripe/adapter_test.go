package stripe

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"testing"
	"time"

	"subscription-billing-be/pkg/billing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type testLogger struct{}

func (testLogger) Debug(module, message string, details map[string]interface{}) {}
func (testLogger) Info(module, message string, details map[string]interface{})  {}
func (testLogger) Warn(module, message string, details map[string]interface{})  {}
func (testLogger) Error(module, message string, details map[string]interface{}) {}
func (testLogger) Sync() error                                                  { return nil }

type fakeAPI struct {
	invoices   map[string]*InvoiceInfo
	periodEnds map[string]time.Time
	promoCodes map[string]string
	charges    map[string]*ChargeInfo
}

func (f *fakeAPI) GetInvoice(id string) (*InvoiceInfo, error) {
	if info, ok := f.invoices[id]; ok {
		return info, nil
	}
	return nil, errors.New("invoice not found")
}

func (f *fakeAPI) GetSubscriptionPeriodEnd(id string) (time.Time, error) {
	if end, ok := f.periodEnds[id]; ok {
		return end, nil
	}
	return time.Time{}, errors.New("subscription not found")
}

func (f *fakeAPI) GetPromotionCode(id string) (string, error) {
	if code, ok := f.promoCodes[id]; ok {
		return code, nil
	}
	return "", errors.New("promotion code not found")
}

func (f *fakeAPI) GetCharge(id string) (*ChargeInfo, error) {
	if info, ok := f.charges[id]; ok {
		return info, nil
	}
	return nil, errors.New("charge not found")
}

// signEvent produces a header in the provider's "t=<ts>,v1=<hmac>" scheme.
// The timestamp must be near time.Now because verification applies its own
// tolerance against the wall clock.
func signEvent(payload []byte, secret string) string {
	ts := time.Now().Unix()
	mac := hmac.New(sha256.New, []byte(secret))
	fmt.Fprintf(mac, "%d.", ts)
	mac.Write(payload)
	return fmt.Sprintf("t=%d,v1=%s", ts, hex.EncodeToString(mac.Sum(nil)))
}

func eventPayload(eventType, object string) []byte {
	return []byte(fmt.Sprintf(`{
		"id": "evt_1",
		"type": %q,
		"created": %d,
		"data": {"object": %s}
	}`, eventType, time.Now().Unix(), object))
}

func newTestStripeAdapter(api API) *Adapter {
	return NewAdapter(Secrets{
		PerEvent: map[string]string{
			"checkout.session.completed":    "whsec_checkout",
			"customer.subscription.updated": "whsec_sub",
			"customer.subscription.deleted": "whsec_sub_del",
			"charge.refunded":               "whsec_refund",
		},
		Production: true,
	}, api, testLogger{})
}

func TestVerifyAndNormalizeCheckoutSession(t *testing.T) {
	periodEnd := time.Date(2030, 2, 1, 0, 0, 0, 0, time.UTC)
	api := &fakeAPI{
		periodEnds: map[string]time.Time{"sub_abc": periodEnd},
		invoices: map[string]*InvoiceInfo{
			"in_1": {Number: "INV-100", PromotionCodeID: "promo_1"},
		},
		promoCodes: map[string]string{"promo_1": "LAUNCH20"},
	}
	adapter := newTestStripeAdapter(api)

	payload := eventPayload("checkout.session.completed", `{
		"id": "cs_1",
		"client_reference_id": "user_1",
		"customer_details": {"email": "a@example.com"},
		"metadata": {"product_code": "pro_monthly"},
		"subscription": "sub_abc",
		"invoice": "in_1",
		"amount_total": 1999,
		"currency": "usd"
	}`)
	sig := signEvent(payload, "whsec_checkout")

	ev, err := adapter.VerifyAndNormalize(context.Background(), "checkout.session.completed", payload, sig)
	require.NoError(t, err)

	assert.Equal(t, billing.KindCheckoutCompleted, ev.Kind)
	assert.Equal(t, "stripe", ev.Provider)
	assert.Equal(t, "user_1", ev.Uid)
	assert.Equal(t, "a@example.com", ev.Email)
	assert.Equal(t, "pro_monthly", ev.ProductCode)
	assert.Equal(t, "sub_abc", ev.ProviderSubscriptionId)
	assert.False(t, ev.Trial)
	require.NotNil(t, ev.PeriodEnd)
	assert.Equal(t, periodEnd, *ev.PeriodEnd)
	assert.Equal(t, "INV-100", ev.InvoiceNumber)
	assert.Equal(t, "LAUNCH20", ev.PromoCode)
}

func TestVerifyAndNormalizeTrialCheckout(t *testing.T) {
	api := &fakeAPI{periodEnds: map[string]time.Time{"sub_abc": time.Now().AddDate(0, 1, 0)}}
	adapter := newTestStripeAdapter(api)

	payload := eventPayload("checkout.session.completed", `{
		"id": "cs_1",
		"client_reference_id": "user_1",
		"metadata": {"product_code": "pro_monthly"},
		"subscription": "sub_abc",
		"amount_total": 0,
		"currency": "usd"
	}`)
	sig := signEvent(payload, "whsec_checkout")

	ev, err := adapter.VerifyAndNormalize(context.Background(), "checkout.session.completed", payload, sig)
	require.NoError(t, err)
	assert.True(t, ev.Trial)
}

func TestVerifyAndNormalizeSubscriptionUpdated(t *testing.T) {
	adapter := newTestStripeAdapter(&fakeAPI{})

	payload := eventPayload("customer.subscription.updated", `{
		"id": "sub_abc",
		"status": "active",
		"cancel_at_period_end": true,
		"metadata": {"uid": "user_1"},
		"cancellation_details": {"comment": "too busy", "feedback": "unused"},
		"items": {"data": [{"current_period_end": 1893456000, "price": {"metadata": {"product_code": "pro_monthly"}}}]}
	}`)
	sig := signEvent(payload, "whsec_sub")

	ev, err := adapter.VerifyAndNormalize(context.Background(), "customer.subscription.updated", payload, sig)
	require.NoError(t, err)

	assert.Equal(t, billing.KindSubscriptionUpdated, ev.Kind)
	assert.True(t, ev.CancelAtPeriodEnd)
	assert.Equal(t, "user_1", ev.Uid)
	assert.Equal(t, "too busy", ev.CancellationComment)
	assert.Equal(t, "unused", ev.CancellationFeedback)
	assert.Equal(t, "pro_monthly", ev.ProductCode)
	require.NotNil(t, ev.PeriodEnd)
	assert.Equal(t, time.Unix(1893456000, 0).UTC(), *ev.PeriodEnd)
}

func TestVerifyAndNormalizeChargeRefunded(t *testing.T) {
	api := &fakeAPI{
		invoices: map[string]*InvoiceInfo{
			"in_1": {Number: "INV-100", SubscriptionID: "sub_abc"},
		},
	}
	adapter := newTestStripeAdapter(api)

	payload := eventPayload("charge.refunded", `{
		"id": "ch_1",
		"invoice": "in_1",
		"amount_refunded": 1999,
		"currency": "usd",
		"refunds": {"data": [{"id": "re_1", "status": "succeeded", "reason": "requested_by_customer"}]}
	}`)
	sig := signEvent(payload, "whsec_refund")

	ev, err := adapter.VerifyAndNormalize(context.Background(), "charge.refunded", payload, sig)
	require.NoError(t, err)

	assert.Equal(t, billing.KindChargeRefunded, ev.Kind)
	assert.True(t, ev.RefundApproved())
	assert.Equal(t, "requested_by_customer", ev.RefundReason)
	// Subscription resolved through the invoice.
	assert.Equal(t, "sub_abc", ev.ProviderSubscriptionId)
}

func TestVerifyAndNormalizePendingRefundNotApproved(t *testing.T) {
	adapter := newTestStripeAdapter(&fakeAPI{})

	payload := eventPayload("charge.refunded", `{
		"id": "ch_1",
		"amount_refunded": 1999,
		"currency": "usd",
		"refunds": {"data": [{"id": "re_1", "status": "pending", "reason": ""}]}
	}`)
	sig := signEvent(payload, "whsec_refund")

	ev, err := adapter.VerifyAndNormalize(context.Background(), "charge.refunded", payload, sig)
	require.NoError(t, err)
	assert.False(t, ev.RefundApproved())
}

func TestVerifyAndNormalizeRejectsBadSignature(t *testing.T) {
	adapter := newTestStripeAdapter(&fakeAPI{})

	payload := eventPayload("checkout.session.completed", `{"id": "cs_1"}`)
	sig := signEvent(payload, "whsec_wrong")

	_, err := adapter.VerifyAndNormalize(context.Background(), "checkout.session.completed", payload, sig)
	require.ErrorIs(t, err, billing.ErrVerification)
}

func TestVerifyAndNormalizeMissingInput(t *testing.T) {
	adapter := newTestStripeAdapter(&fakeAPI{})

	_, err := adapter.VerifyAndNormalize(context.Background(), "checkout.session.completed", nil, "sig")
	require.ErrorIs(t, err, billing.ErrVerification)

	_, err = adapter.VerifyAndNormalize(context.Background(), "checkout.session.completed", []byte("{}"), "")
	require.ErrorIs(t, err, billing.ErrVerification)
}

func TestVerifyAndNormalizeUnknownEventType(t *testing.T) {
	adapter := newTestStripeAdapter(&fakeAPI{})
	adapter.secrets.PerEvent["customer.created"] = "whsec_other"

	payload := eventPayload("customer.created", `{"id": "cus_1"}`)
	sig := signEvent(payload, "whsec_other")

	ev, err := adapter.VerifyAndNormalize(context.Background(), "customer.created", payload, sig)
	require.NoError(t, err)
	assert.Equal(t, billing.KindUnsupported, ev.Kind)
}
