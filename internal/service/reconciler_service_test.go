package service

import (
	"context"
	"testing"
	"time"

	"subscription-billing-be/internal/entity"
	"subscription-billing-be/internal/repository/memory"
	"subscription-billing-be/pkg/analytics"
	"subscription-billing-be/pkg/billing"
	"subscription-billing-be/pkg/events"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type nopLogger struct{}

func (nopLogger) Debug(module, message string, details map[string]interface{}) {}
func (nopLogger) Info(module, message string, details map[string]interface{})  {}
func (nopLogger) Warn(module, message string, details map[string]interface{})  {}
func (nopLogger) Error(module, message string, details map[string]interface{}) {}
func (nopLogger) Sync() error                                                  { return nil }

type captureDispatcher struct {
	effects []SideEffect
}

func (d *captureDispatcher) Dispatch(ctx context.Context, effects []SideEffect) {
	d.effects = append(d.effects, effects...)
}

func (d *captureDispatcher) reset() {
	d.effects = nil
}

func (d *captureDispatcher) analyticsTitles() []string {
	var out []string
	for _, e := range d.effects {
		if n, ok := e.(AnalyticsNotifyEffect); ok {
			out = append(out, n.Event.Title)
		}
	}
	return out
}

func (d *captureDispatcher) busEventTypes() []string {
	var out []string
	for _, e := range d.effects {
		if b, ok := e.(BusEventEffect); ok {
			out = append(out, b.Event.EventType())
		}
	}
	return out
}

func (d *captureDispatcher) paymentLogCount() int {
	n := 0
	for _, e := range d.effects {
		if _, ok := e.(PaymentLogEffect); ok {
			n++
		}
	}
	return n
}

var testNow = time.Date(2030, 1, 1, 12, 0, 0, 0, time.UTC)

func newTestReconciler(store *memory.Store, dispatcher *captureDispatcher) IReconcilerService {
	log := nopLogger{}
	customers := NewCustomerService(store, nil, log)
	return NewReconcilerServiceWithClock(store, customers, dispatcher, log, func() time.Time { return testNow })
}

func checkoutEvent(subscriptionId string) *billing.NormalizedEvent {
	periodEnd := testNow.AddDate(0, 1, 0)
	amount := int64(1999)
	return &billing.NormalizedEvent{
		Kind:                   billing.KindCheckoutCompleted,
		Provider:               "stripe",
		Uid:                    "user_1",
		Email:                  "user@example.com",
		ProductCode:            "pro_monthly",
		ProviderSubscriptionId: subscriptionId,
		PeriodEnd:              &periodEnd,
		OccurredAt:             testNow,
		AmountCents:            &amount,
		Currency:               "usd",
		RawPayload:             []byte(`{"id":"evt_1","type":"checkout.session.completed"}`),
	}
}

func TestProcessCheckoutCreatesSubscription(t *testing.T) {
	store := memory.NewStore()
	store.SeedProvider(entity.ProviderStripe, true)
	store.SeedProduct("pro_monthly", "Pro Monthly")

	dispatcher := &captureDispatcher{}
	reconciler := newTestReconciler(store, dispatcher)

	err := reconciler.Process(context.Background(), checkoutEvent("sub_abc"))
	require.NoError(t, err)

	uow := store.NewUnitOfWork(context.Background())
	subs, err := uow.SubscriptionRepository().FindAll(context.Background())
	require.NoError(t, err)
	require.Len(t, subs, 1)

	created := subs[0]
	require.NotNil(t, created.Customer)
	assert.Equal(t, "user_1", created.Customer.Uid)
	assert.Equal(t, "sub_abc", created.SubscriptionId)
	require.NotNil(t, created.NextBillingAt)
	assert.Equal(t, testNow.AddDate(0, 1, 0), *created.NextBillingAt)
	assert.True(t, created.IsActive(testNow))

	assert.Equal(t, 1, dispatcher.paymentLogCount())
	assert.Equal(t, []string{analytics.EventPurchase}, dispatcher.analyticsTitles())
	assert.Equal(t, []string{events.TypeSubscriptionStarted}, dispatcher.busEventTypes())
}

func TestProcessCheckoutRetryIsIdempotent(t *testing.T) {
	store := memory.NewStore()
	store.SeedProvider(entity.ProviderStripe, true)
	store.SeedProduct("pro_monthly", "Pro Monthly")

	dispatcher := &captureDispatcher{}
	reconciler := newTestReconciler(store, dispatcher)

	require.NoError(t, reconciler.Process(context.Background(), checkoutEvent("sub_abc")))
	dispatcher.reset()

	// Same delivery again: no second row, no second purchase event.
	require.NoError(t, reconciler.Process(context.Background(), checkoutEvent("sub_abc")))

	uow := store.NewUnitOfWork(context.Background())
	subs, err := uow.SubscriptionRepository().FindAll(context.Background())
	require.NoError(t, err)
	assert.Len(t, subs, 1)
	assert.Equal(t, 0, dispatcher.paymentLogCount())
	assert.Empty(t, dispatcher.analyticsTitles())
}

func TestProcessCheckoutOneTimePurchasesAlwaysCreate(t *testing.T) {
	store := memory.NewStore()
	store.SeedProvider(entity.ProviderStripe, true)
	store.SeedProduct("pro_monthly", "Pro Monthly")

	dispatcher := &captureDispatcher{}
	reconciler := newTestReconciler(store, dispatcher)

	// Two one-time purchases share an empty subscription id but are distinct
	// rows.
	require.NoError(t, reconciler.Process(context.Background(), checkoutEvent("")))
	require.NoError(t, reconciler.Process(context.Background(), checkoutEvent("")))

	uow := store.NewUnitOfWork(context.Background())
	subs, err := uow.SubscriptionRepository().FindAll(context.Background())
	require.NoError(t, err)
	assert.Len(t, subs, 2)
}

func TestProcessCheckoutUnknownProductFails(t *testing.T) {
	store := memory.NewStore()
	store.SeedProvider(entity.ProviderStripe, true)

	dispatcher := &captureDispatcher{}
	reconciler := newTestReconciler(store, dispatcher)

	err := reconciler.Process(context.Background(), checkoutEvent("sub_abc"))
	require.ErrorIs(t, err, ErrProductNotFound)
	assert.Empty(t, dispatcher.effects)
}

func seedActiveSubscription(store *memory.Store) *entity.Subscription {
	provider := store.SeedProvider(entity.ProviderStripe, true)
	product := store.SeedProduct("pro_monthly", "Pro Monthly")
	customer := store.SeedCustomer("user_1")
	next := testNow.AddDate(0, 1, 0)
	return store.SeedSubscription(&entity.Subscription{
		CustomerId:        customer.Id,
		ProductId:         product.Id,
		PaymentProviderId: provider.Id,
		SubscriptionId:    "sub_abc",
		CreatedAt:         testNow.AddDate(0, -1, 0),
		NextBillingAt:     &next,
	})
}

func renewalEvent(payload string) *billing.NormalizedEvent {
	periodEnd := testNow.AddDate(0, 2, 0)
	amount := int64(1999)
	return &billing.NormalizedEvent{
		Kind:                   billing.KindSubscriptionUpdated,
		Provider:               "stripe",
		ProviderSubscriptionId: "sub_abc",
		ProviderStatus:         billing.ProviderStatusActive,
		PeriodEnd:              &periodEnd,
		OccurredAt:             testNow,
		AmountCents:            &amount,
		Currency:               "usd",
		RawPayload:             []byte(payload),
	}
}

func TestProcessRenewalAdvancesBillingDate(t *testing.T) {
	store := memory.NewStore()
	sub := seedActiveSubscription(store)

	dispatcher := &captureDispatcher{}
	reconciler := newTestReconciler(store, dispatcher)

	require.NoError(t, reconciler.Process(context.Background(), renewalEvent(`{"id":"evt_renew_1"}`)))

	updated := store.Subscription(sub.Id)
	require.NotNil(t, updated.NextBillingAt)
	assert.Equal(t, testNow.AddDate(0, 2, 0), *updated.NextBillingAt)
	assert.Equal(t, 1, dispatcher.paymentLogCount())
	assert.Equal(t, []string{analytics.EventPurchase}, dispatcher.analyticsTitles())
	assert.Equal(t, []string{events.TypeSubscriptionRenewed}, dispatcher.busEventTypes())
}

func TestProcessRenewalDuplicatePayloadIsNoOp(t *testing.T) {
	store := memory.NewStore()
	sub := seedActiveSubscription(store)

	dispatcher := &captureDispatcher{}
	reconciler := newTestReconciler(store, dispatcher)

	require.NoError(t, reconciler.Process(context.Background(), renewalEvent(`{"id":"evt_renew_1"}`)))

	// The dispatcher ran post-commit; replay the logged payload by hand so
	// the dedup oracle has seen it.
	uow := store.NewUnitOfWork(context.Background())
	require.NoError(t, uow.PaymentLogRepository().Append(context.Background(), &entity.PaymentLog{
		SubscriptionId: sub.Id,
		Data:           []byte(`{"id":"evt_renew_1"}`),
	}))
	dispatcher.reset()

	require.NoError(t, reconciler.Process(context.Background(), renewalEvent(`{"id":"evt_renew_1"}`)))
	assert.Empty(t, dispatcher.effects)

	// A byte-different payload is a new charge.
	require.NoError(t, reconciler.Process(context.Background(), renewalEvent(`{"id":"evt_renew_2"}`)))
	assert.Equal(t, 1, dispatcher.paymentLogCount())
}

func TestProcessNonActiveUpdateIsIgnored(t *testing.T) {
	store := memory.NewStore()
	sub := seedActiveSubscription(store)

	dispatcher := &captureDispatcher{}
	reconciler := newTestReconciler(store, dispatcher)

	ev := renewalEvent(`{"id":"evt_past_due"}`)
	ev.ProviderStatus = "past_due"
	require.NoError(t, reconciler.Process(context.Background(), ev))

	assert.Empty(t, dispatcher.effects)
	updated := store.Subscription(sub.Id)
	assert.Equal(t, testNow.AddDate(0, 1, 0), *updated.NextBillingAt)
}

func TestProcessCancelThenResume(t *testing.T) {
	store := memory.NewStore()
	sub := seedActiveSubscription(store)

	dispatcher := &captureDispatcher{}
	reconciler := newTestReconciler(store, dispatcher)

	cancel := &billing.NormalizedEvent{
		Kind:                   billing.KindSubscriptionUpdated,
		Provider:               "stripe",
		ProviderSubscriptionId: "sub_abc",
		ProviderStatus:         billing.ProviderStatusActive,
		CancelAtPeriodEnd:      true,
		OccurredAt:             testNow,
		CancellationFeedback:   "too_expensive",
		RawPayload:             []byte(`{"id":"evt_cancel"}`),
	}
	require.NoError(t, reconciler.Process(context.Background(), cancel))

	updated := store.Subscription(sub.Id)
	assert.True(t, updated.Canceled())
	// Still active until the paid period runs out.
	assert.True(t, updated.IsActive(testNow))
	assert.Equal(t, []string{analytics.EventSubscriptionCancel}, dispatcher.analyticsTitles())
	assert.Equal(t, []string{events.TypeSubscriptionCanceled}, dispatcher.busEventTypes())
	dispatcher.reset()

	resume := renewalEvent(`{"id":"evt_resume"}`)
	require.NoError(t, reconciler.Process(context.Background(), resume))

	updated = store.Subscription(sub.Id)
	assert.False(t, updated.Canceled())
	assert.Equal(t, testNow.AddDate(0, 2, 0), *updated.NextBillingAt)
	assert.Equal(t, []string{analytics.EventSubscriptionResume}, dispatcher.analyticsTitles())
	assert.Equal(t, []string{events.TypeSubscriptionResumed}, dispatcher.busEventTypes())
}

func TestProcessRepeatCancelWithFeedbackAmends(t *testing.T) {
	store := memory.NewStore()
	sub := seedActiveSubscription(store)
	canceled := true
	sub.IsCanceled = &canceled

	dispatcher := &captureDispatcher{}
	reconciler := newTestReconciler(store, dispatcher)

	ev := &billing.NormalizedEvent{
		Kind:                   billing.KindSubscriptionCanceled,
		Provider:               "stripe",
		ProviderSubscriptionId: "sub_abc",
		OccurredAt:             testNow,
		CancellationComment:    "switching tools",
		CancellationFeedback:   "missing_features",
		RawPayload:             []byte(`{"id":"evt_cancel_2"}`),
	}
	require.NoError(t, reconciler.Process(context.Background(), ev))

	require.Len(t, dispatcher.effects, 1)
	amend, ok := dispatcher.effects[0].(AnalyticsAmendEffect)
	require.True(t, ok)
	assert.Equal(t, analytics.EventSubscriptionCancel, amend.Amendment.Event)
	assert.Equal(t, "switching tools", amend.Amendment.Update["comment"])
}

func TestProcessDeletionRequiresExistingSubscription(t *testing.T) {
	store := memory.NewStore()
	store.SeedProvider(entity.ProviderStripe, true)

	dispatcher := &captureDispatcher{}
	reconciler := newTestReconciler(store, dispatcher)

	ev := &billing.NormalizedEvent{
		Kind:                   billing.KindSubscriptionDeleted,
		Provider:               "stripe",
		ProviderSubscriptionId: "sub_ghost",
		OccurredAt:             testNow,
		RawPayload:             []byte(`{"id":"evt_del"}`),
	}
	err := reconciler.Process(context.Background(), ev)
	require.ErrorIs(t, err, ErrSubscriptionNotFound)

	// Drift is alerted even though the transition failed.
	assert.Equal(t, []string{events.TypeLedgerMismatch}, dispatcher.busEventTypes())
	var alerted bool
	for _, e := range dispatcher.effects {
		if _, ok := e.(OpsAlertEffect); ok {
			alerted = true
		}
	}
	assert.True(t, alerted)
}

func TestProcessDeletionDeactivatesImmediately(t *testing.T) {
	store := memory.NewStore()
	sub := seedActiveSubscription(store)

	dispatcher := &captureDispatcher{}
	reconciler := newTestReconciler(store, dispatcher)

	ev := &billing.NormalizedEvent{
		Kind:                   billing.KindSubscriptionDeleted,
		Provider:               "stripe",
		ProviderSubscriptionId: "sub_abc",
		OccurredAt:             testNow,
		RawPayload:             []byte(`{"id":"evt_del"}`),
	}
	require.NoError(t, reconciler.Process(context.Background(), ev))

	updated := store.Subscription(sub.Id)
	assert.True(t, updated.Canceled())
	assert.False(t, updated.IsActive(testNow.Add(time.Second)))
	assert.Equal(t, []string{analytics.EventSubscriptionDeleted}, dispatcher.analyticsTitles())
	assert.Equal(t, []string{events.TypeSubscriptionEnded}, dispatcher.busEventTypes())
}

func TestProcessInvoicePaidOnlyCountsRenewals(t *testing.T) {
	store := memory.NewStore()
	seedActiveSubscription(store)

	dispatcher := &captureDispatcher{}
	reconciler := newTestReconciler(store, dispatcher)

	ev := &billing.NormalizedEvent{
		Kind:                   billing.KindInvoicePaid,
		Provider:               "stripe",
		ProviderSubscriptionId: "sub_abc",
		BillingReason:          "subscription_create",
		OccurredAt:             testNow,
		RawPayload:             []byte(`{"id":"evt_inv_1"}`),
	}
	require.NoError(t, reconciler.Process(context.Background(), ev))
	assert.Empty(t, dispatcher.effects)

	ev.BillingReason = billing.BillingReasonRenewal
	require.NoError(t, reconciler.Process(context.Background(), ev))
	assert.Equal(t, 1, dispatcher.paymentLogCount())
	assert.Equal(t, []string{analytics.EventPurchase}, dispatcher.analyticsTitles())
}

func TestProcessRefundGating(t *testing.T) {
	tests := []struct {
		name      string
		action    string
		status    string
		wantWrite bool
	}{
		{"approved refund deactivates", "refund", "approved", true},
		{"pending refund ignored", "refund", "pending_approval", false},
		{"chargeback ignored", "chargeback", "approved", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			store := memory.NewStore()
			sub := seedActiveSubscription(store)

			dispatcher := &captureDispatcher{}
			reconciler := newTestReconciler(store, dispatcher)

			ev := &billing.NormalizedEvent{
				Kind:                   billing.KindChargeRefunded,
				Provider:               "stripe",
				ProviderSubscriptionId: "sub_abc",
				RefundAction:           tt.action,
				RefundStatus:           tt.status,
				OccurredAt:             testNow,
				RawPayload:             []byte(`{"id":"evt_ref"}`),
			}
			require.NoError(t, reconciler.Process(context.Background(), ev))

			updated := store.Subscription(sub.Id)
			if tt.wantWrite {
				assert.False(t, updated.IsActive(testNow.Add(time.Second)))
				assert.Equal(t, []string{analytics.EventRefund}, dispatcher.analyticsTitles())
				assert.Equal(t, []string{events.TypePaymentRefunded}, dispatcher.busEventTypes())
			} else {
				assert.True(t, updated.IsActive(testNow))
				assert.Empty(t, dispatcher.effects)
			}
		})
	}
}

func TestProcessRefundMetadataAmendsAnalytics(t *testing.T) {
	store := memory.NewStore()
	seedActiveSubscription(store)

	dispatcher := &captureDispatcher{}
	reconciler := newTestReconciler(store, dispatcher)

	ev := &billing.NormalizedEvent{
		Kind:                   billing.KindRefundMetadataUpdated,
		Provider:               "stripe",
		ProviderSubscriptionId: "sub_abc",
		RefundReason:           "requested_by_customer",
		OccurredAt:             testNow,
		RawPayload:             []byte(`{"id":"evt_ref_meta"}`),
	}
	require.NoError(t, reconciler.Process(context.Background(), ev))

	require.Len(t, dispatcher.effects, 1)
	amend, ok := dispatcher.effects[0].(AnalyticsAmendEffect)
	require.True(t, ok)
	assert.Equal(t, analytics.EventRefund, amend.Amendment.Event)
	assert.Equal(t, "requested_by_customer", amend.Amendment.Update["reason"])
}

func TestProcessUnsupportedKindErrors(t *testing.T) {
	store := memory.NewStore()
	dispatcher := &captureDispatcher{}
	reconciler := newTestReconciler(store, dispatcher)

	err := reconciler.Process(context.Background(), &billing.NormalizedEvent{
		Kind:     billing.KindUnsupported,
		Provider: "stripe",
	})
	require.ErrorIs(t, err, billing.ErrUnsupportedEvent)
}
