package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"subscription-billing-be/internal/entity"
	"subscription-billing-be/internal/pkg/logger"
	"subscription-billing-be/internal/repository/contract"
	"subscription-billing-be/internal/repository/specification"
	"subscription-billing-be/internal/repository/unitofwork"
	"subscription-billing-be/pkg/analytics"
	"subscription-billing-be/pkg/billing"
	"subscription-billing-be/pkg/events"
)

const reconcilerModule = "reconciler"

// IReconcilerService drives the subscription state machine. Process commits
// the ledger transition for one normalized event, then hands the resulting
// side effects to the dispatcher. A returned error means nothing was
// committed and the provider should retry the delivery.
type IReconcilerService interface {
	Process(ctx context.Context, ev *billing.NormalizedEvent) error
}

type reconcilerService struct {
	uowFactory      unitofwork.RepositoryFactory
	customerService ICustomerService
	dispatcher      IEffectDispatcher
	log             logger.ILogger
	now             func() time.Time
}

func NewReconcilerService(
	uowFactory unitofwork.RepositoryFactory,
	customerService ICustomerService,
	dispatcher IEffectDispatcher,
	log logger.ILogger,
) IReconcilerService {
	return &reconcilerService{
		uowFactory:      uowFactory,
		customerService: customerService,
		dispatcher:      dispatcher,
		log:             log,
		now:             time.Now,
	}
}

// NewReconcilerServiceWithClock injects the clock, for tests.
func NewReconcilerServiceWithClock(
	uowFactory unitofwork.RepositoryFactory,
	customerService ICustomerService,
	dispatcher IEffectDispatcher,
	log logger.ILogger,
	now func() time.Time,
) IReconcilerService {
	return &reconcilerService{
		uowFactory:      uowFactory,
		customerService: customerService,
		dispatcher:      dispatcher,
		log:             log,
		now:             now,
	}
}

func (s *reconcilerService) Process(ctx context.Context, ev *billing.NormalizedEvent) error {
	switch ev.Kind {
	case billing.KindCheckoutCompleted:
		return s.handleCheckout(ctx, ev)
	case billing.KindSubscriptionUpdated:
		return s.handleUpdated(ctx, ev)
	case billing.KindSubscriptionCanceled:
		return s.handleCanceled(ctx, ev)
	case billing.KindSubscriptionDeleted:
		return s.handleDeleted(ctx, ev)
	case billing.KindInvoicePaid:
		return s.handleInvoicePaid(ctx, ev)
	case billing.KindChargeRefunded:
		return s.handleRefund(ctx, ev)
	case billing.KindRefundMetadataUpdated:
		return s.handleRefundMetadata(ctx, ev)
	default:
		s.log.Error(reconcilerModule, "unsupported event kind", map[string]interface{}{
			"provider": ev.Provider, "kind": string(ev.Kind),
		})
		return fmt.Errorf("%w: provider %s", billing.ErrUnsupportedEvent, ev.Provider)
	}
}

func (s *reconcilerService) handleCheckout(ctx context.Context, ev *billing.NormalizedEvent) error {
	uow := s.uowFactory.NewUnitOfWork(ctx)
	if err := uow.Begin(ctx); err != nil {
		return err
	}

	customer, err := s.customerService.ResolveForEvent(ctx, uow, ev.Uid, ev.Email)
	if err != nil {
		_ = uow.Rollback()
		return err
	}

	product, err := uow.ProductRepository().FindOne(ctx, specification.ByProductCode{Code: ev.ProductCode})
	if err != nil {
		_ = uow.Rollback()
		return err
	}
	if product == nil {
		_ = uow.Rollback()
		return fmt.Errorf("%w: code %q", ErrProductNotFound, ev.ProductCode)
	}

	provider, err := uow.PaymentProviderRepository().FindOne(ctx, specification.ByProviderName{Name: ev.Provider})
	if err != nil {
		_ = uow.Rollback()
		return err
	}
	if provider == nil {
		_ = uow.Rollback()
		return fmt.Errorf("%w: %s", ErrProviderNotFound, ev.Provider)
	}

	subRepo := uow.SubscriptionRepository()

	// Recurring checkouts are idempotent on retry: an existing row only has
	// its next charge date refreshed, with no second log or purchase event.
	if ev.ProviderSubscriptionId != "" {
		existing, err := subRepo.FindOne(ctx, specification.ByProviderSubscription{
			PaymentProviderId: provider.Id,
			SubscriptionId:    ev.ProviderSubscriptionId,
		})
		if err != nil {
			_ = uow.Rollback()
			return err
		}
		if existing != nil {
			if ev.PeriodEnd != nil {
				if err := subRepo.SetNextBillingAt(ctx, existing.Id, *ev.PeriodEnd); err != nil {
					_ = uow.Rollback()
					return err
				}
			}
			if err := uow.Commit(); err != nil {
				return err
			}
			s.dispatcher.Dispatch(ctx, []SideEffect{StatusInvalidateEffect{Uid: customer.Uid}})
			return nil
		}
	}

	subscription := &entity.Subscription{
		CustomerId:        customer.Id,
		ProductId:         product.Id,
		PaymentProviderId: provider.Id,
		SubscriptionId:    ev.ProviderSubscriptionId,
		CreatedAt:         s.now(),
		NextBillingAt:     ev.PeriodEnd,
	}
	if err := subRepo.Create(ctx, subscription); err != nil {
		if errors.Is(err, contract.ErrDuplicate) {
			// Lost the create race against a concurrent retry. The winner
			// owns the log and the purchase event; we only refresh the date.
			_ = uow.Rollback()
			return s.retryCheckoutAsUpdate(ctx, ev, provider.Id, customer.Uid)
		}
		_ = uow.Rollback()
		return err
	}
	if err := uow.Commit(); err != nil {
		return err
	}

	effects := []SideEffect{
		PaymentLogEffect{SubscriptionId: subscription.Id, Payload: ev.RawPayload},
		AnalyticsNotifyEffect{Event: analytics.Event{
			Uid:        customer.Uid,
			Title:      analytics.EventPurchase,
			HappenedAt: ev.OccurredAt,
			Data:       purchaseData(ev, product.ProductCode),
		}},
		BusEventEffect{Event: events.NewSubscriptionEvent(
			events.TypeSubscriptionStarted, customer.Uid, ev.ProviderSubscriptionId, ev.Provider,
		)},
		StatusInvalidateEffect{Uid: customer.Uid},
	}
	s.dispatcher.Dispatch(ctx, effects)
	return nil
}

func (s *reconcilerService) retryCheckoutAsUpdate(ctx context.Context, ev *billing.NormalizedEvent, providerId uint, uid string) error {
	uow := s.uowFactory.NewUnitOfWork(ctx)
	if err := uow.Begin(ctx); err != nil {
		return err
	}
	subRepo := uow.SubscriptionRepository()
	existing, err := subRepo.FindOne(ctx, specification.ByProviderSubscription{
		PaymentProviderId: providerId,
		SubscriptionId:    ev.ProviderSubscriptionId,
	})
	if err != nil {
		_ = uow.Rollback()
		return err
	}
	if existing == nil {
		_ = uow.Rollback()
		return fmt.Errorf("%w: %s vanished after duplicate create", ErrSubscriptionNotFound, ev.ProviderSubscriptionId)
	}
	if ev.PeriodEnd != nil {
		if err := subRepo.SetNextBillingAt(ctx, existing.Id, *ev.PeriodEnd); err != nil {
			_ = uow.Rollback()
			return err
		}
	}
	if err := uow.Commit(); err != nil {
		return err
	}
	s.dispatcher.Dispatch(ctx, []SideEffect{StatusInvalidateEffect{Uid: uid}})
	return nil
}

func (s *reconcilerService) handleUpdated(ctx context.Context, ev *billing.NormalizedEvent) error {
	// A scheduled cancel-at-period-end rides on an update payload; it is a
	// cancellation, not a renewal.
	if ev.CancelAtPeriodEnd {
		return s.handleCanceled(ctx, ev)
	}

	// Not a successful charge yet.
	if ev.ProviderStatus != billing.ProviderStatusActive {
		s.log.Debug(reconcilerModule, "ignoring non-active subscription update", map[string]interface{}{
			"provider": ev.Provider, "subscription_id": ev.ProviderSubscriptionId, "status": ev.ProviderStatus,
		})
		return nil
	}

	uow := s.uowFactory.NewUnitOfWork(ctx)
	if err := uow.Begin(ctx); err != nil {
		return err
	}

	subscription, err := s.findSubscription(ctx, uow, ev)
	if err != nil {
		_ = uow.Rollback()
		return err
	}

	subRepo := uow.SubscriptionRepository()
	now := s.now()

	// Resume: canceled but not yet expired, and the provider says active
	// again.
	if subscription.Canceled() && subscription.IsActive(now) {
		if err := subRepo.SetCanceled(ctx, subscription.Id, false); err != nil {
			_ = uow.Rollback()
			return err
		}
		if ev.PeriodEnd != nil {
			if err := subRepo.SetNextBillingAt(ctx, subscription.Id, *ev.PeriodEnd); err != nil {
				_ = uow.Rollback()
				return err
			}
		}
		if err := uow.Commit(); err != nil {
			return err
		}
		uid := subscriptionUid(subscription)
		s.dispatcher.Dispatch(ctx, []SideEffect{
			AnalyticsNotifyEffect{Event: analytics.Event{
				Uid:        uid,
				Title:      analytics.EventSubscriptionResume,
				HappenedAt: ev.OccurredAt,
				Data: map[string]interface{}{
					"subscriptionId": subscription.SubscriptionId,
					"provider":       ev.Provider,
				},
			}},
			BusEventEffect{Event: events.NewSubscriptionEvent(
				events.TypeSubscriptionResumed, uid, subscription.SubscriptionId, ev.Provider,
			)},
			StatusInvalidateEffect{Uid: uid},
		})
		return nil
	}

	// Renewal: the payment log is the duplicate-delivery oracle. A payload
	// already logged means this charge was counted; nothing moves.
	hash := entity.HashPayload(ev.RawPayload)
	seen, err := uow.PaymentLogRepository().Exists(ctx, subscription.Id, hash)
	if err != nil {
		_ = uow.Rollback()
		return err
	}
	if seen {
		_ = uow.Rollback()
		s.log.Info(reconcilerModule, "duplicate renewal delivery ignored", map[string]interface{}{
			"subscription_id": subscription.SubscriptionId,
		})
		return nil
	}

	if ev.PeriodEnd != nil {
		if err := subRepo.SetNextBillingAt(ctx, subscription.Id, *ev.PeriodEnd); err != nil {
			_ = uow.Rollback()
			return err
		}
	}
	if err := uow.Commit(); err != nil {
		return err
	}

	uid := subscriptionUid(subscription)
	productCode := ev.ProductCode
	if productCode == "" && subscription.Product != nil {
		productCode = subscription.Product.ProductCode
	}
	s.dispatcher.Dispatch(ctx, []SideEffect{
		PaymentLogEffect{SubscriptionId: subscription.Id, Payload: ev.RawPayload},
		AnalyticsNotifyEffect{Event: analytics.Event{
			Uid:        uid,
			Title:      analytics.EventPurchase,
			HappenedAt: ev.OccurredAt,
			Data:       purchaseData(ev, productCode),
		}},
		BusEventEffect{Event: events.NewSubscriptionEvent(
			events.TypeSubscriptionRenewed, uid, subscription.SubscriptionId, ev.Provider,
		)},
		StatusInvalidateEffect{Uid: uid},
	})
	return nil
}

func (s *reconcilerService) handleCanceled(ctx context.Context, ev *billing.NormalizedEvent) error {
	uow := s.uowFactory.NewUnitOfWork(ctx)
	if err := uow.Begin(ctx); err != nil {
		return err
	}

	subscription, err := s.findSubscription(ctx, uow, ev)
	if err != nil {
		_ = uow.Rollback()
		return err
	}
	uid := subscriptionUid(subscription)

	// A repeat cancel carrying survey feedback amends the existing cancel
	// event instead of transitioning again.
	if subscription.Canceled() {
		_ = uow.Rollback()
		if ev.CancellationComment == "" && ev.CancellationFeedback == "" {
			return nil
		}
		s.dispatcher.Dispatch(ctx, []SideEffect{
			AnalyticsAmendEffect{Amendment: analytics.Amendment{
				Uid:   uid,
				Event: analytics.EventSubscriptionCancel,
				Where: map[string]interface{}{
					"subscriptionId": subscription.SubscriptionId,
				},
				Update: map[string]interface{}{
					"comment":  ev.CancellationComment,
					"feedback": ev.CancellationFeedback,
				},
			}},
		})
		return nil
	}

	// Cancellation takes effect at period end; nextBillingAt stays put and
	// the subscription remains active until it passes.
	if err := uow.SubscriptionRepository().SetCanceled(ctx, subscription.Id, true); err != nil {
		_ = uow.Rollback()
		return err
	}
	if err := uow.Commit(); err != nil {
		return err
	}

	data := map[string]interface{}{
		"subscriptionId": subscription.SubscriptionId,
		"provider":       ev.Provider,
	}
	if subscription.NextBillingAt != nil {
		data["expiresAt"] = subscription.NextBillingAt
	}
	if ev.CancellationFeedback != "" {
		data["feedback"] = ev.CancellationFeedback
	}
	if ev.CancellationComment != "" {
		data["comment"] = ev.CancellationComment
	}

	s.dispatcher.Dispatch(ctx, []SideEffect{
		AnalyticsNotifyEffect{Event: analytics.Event{
			Uid:        uid,
			Title:      analytics.EventSubscriptionCancel,
			HappenedAt: ev.OccurredAt,
			Data:       data,
		}},
		BusEventEffect{Event: events.NewSubscriptionEvent(
			events.TypeSubscriptionCanceled, uid, subscription.SubscriptionId, ev.Provider,
		)},
		StatusInvalidateEffect{Uid: uid},
	})
	return nil
}

func (s *reconcilerService) handleDeleted(ctx context.Context, ev *billing.NormalizedEvent) error {
	uow := s.uowFactory.NewUnitOfWork(ctx)
	if err := uow.Begin(ctx); err != nil {
		return err
	}

	subscription, err := s.findSubscription(ctx, uow, ev)
	if err != nil {
		_ = uow.Rollback()
		return err
	}

	subRepo := uow.SubscriptionRepository()
	if err := subRepo.SetCanceled(ctx, subscription.Id, true); err != nil {
		_ = uow.Rollback()
		return err
	}
	if err := subRepo.SetNextBillingAt(ctx, subscription.Id, s.now()); err != nil {
		_ = uow.Rollback()
		return err
	}
	if err := uow.Commit(); err != nil {
		return err
	}

	uid := subscriptionUid(subscription)
	s.dispatcher.Dispatch(ctx, []SideEffect{
		AnalyticsNotifyEffect{Event: analytics.Event{
			Uid:        uid,
			Title:      analytics.EventSubscriptionDeleted,
			HappenedAt: ev.OccurredAt,
			Data: map[string]interface{}{
				"subscriptionId": subscription.SubscriptionId,
				"provider":       ev.Provider,
			},
		}},
		BusEventEffect{Event: events.NewSubscriptionEvent(
			events.TypeSubscriptionEnded, uid, subscription.SubscriptionId, ev.Provider,
		)},
		StatusInvalidateEffect{Uid: uid},
	})
	return nil
}

func (s *reconcilerService) handleInvoicePaid(ctx context.Context, ev *billing.NormalizedEvent) error {
	// Only the recurring charge counts; first invoices are covered by the
	// checkout event.
	if ev.BillingReason != billing.BillingReasonRenewal {
		return nil
	}

	uow := s.uowFactory.NewUnitOfWork(ctx)
	if err := uow.Begin(ctx); err != nil {
		return err
	}

	subscription, err := s.findSubscription(ctx, uow, ev)
	if err != nil {
		_ = uow.Rollback()
		return err
	}

	hash := entity.HashPayload(ev.RawPayload)
	seen, err := uow.PaymentLogRepository().Exists(ctx, subscription.Id, hash)
	if err != nil {
		_ = uow.Rollback()
		return err
	}
	_ = uow.Rollback()
	if seen {
		return nil
	}

	uid := subscriptionUid(subscription)
	productCode := ev.ProductCode
	if productCode == "" && subscription.Product != nil {
		productCode = subscription.Product.ProductCode
	}
	data := purchaseData(ev, productCode)
	data["autoRenewal"] = true

	s.dispatcher.Dispatch(ctx, []SideEffect{
		PaymentLogEffect{SubscriptionId: subscription.Id, Payload: ev.RawPayload},
		AnalyticsNotifyEffect{Event: analytics.Event{
			Uid:        uid,
			Title:      analytics.EventPurchase,
			HappenedAt: ev.OccurredAt,
			Data:       data,
		}},
	})
	return nil
}

func (s *reconcilerService) handleRefund(ctx context.Context, ev *billing.NormalizedEvent) error {
	// Other adjustment types (chargebacks, credits, pending approvals) are
	// ignored entirely.
	if !ev.RefundApproved() {
		return nil
	}

	uow := s.uowFactory.NewUnitOfWork(ctx)
	if err := uow.Begin(ctx); err != nil {
		return err
	}

	subscription, err := s.findSubscription(ctx, uow, ev)
	if err != nil {
		_ = uow.Rollback()
		return err
	}

	if err := uow.SubscriptionRepository().SetNextBillingAt(ctx, subscription.Id, s.now()); err != nil {
		_ = uow.Rollback()
		return err
	}
	if err := uow.Commit(); err != nil {
		return err
	}

	uid := subscriptionUid(subscription)
	data := map[string]interface{}{
		"subscriptionId": subscription.SubscriptionId,
		"provider":       ev.Provider,
	}
	if amount := billing.CentsToUSD(ev.AmountCents); amount != nil {
		data["amount"] = *amount
		data["currency"] = ev.Currency
	}
	if ev.RefundReason != "" {
		data["reason"] = ev.RefundReason
	}
	if ev.InvoiceNumber != "" {
		data["invoiceNumber"] = ev.InvoiceNumber
	}

	s.dispatcher.Dispatch(ctx, []SideEffect{
		AnalyticsNotifyEffect{Event: analytics.Event{
			Uid:        uid,
			Title:      analytics.EventRefund,
			HappenedAt: ev.OccurredAt,
			Data:       data,
		}},
		BusEventEffect{Event: events.NewSubscriptionEvent(
			events.TypePaymentRefunded, uid, subscription.SubscriptionId, ev.Provider,
		)},
		StatusInvalidateEffect{Uid: uid},
	})
	return nil
}

func (s *reconcilerService) handleRefundMetadata(ctx context.Context, ev *billing.NormalizedEvent) error {
	uow := s.uowFactory.NewUnitOfWork(ctx)
	subscription, err := s.findSubscription(ctx, uow, ev)
	if err != nil {
		return err
	}

	if ev.RefundReason == "" {
		return nil
	}

	uid := subscriptionUid(subscription)
	s.dispatcher.Dispatch(ctx, []SideEffect{
		AnalyticsAmendEffect{Amendment: analytics.Amendment{
			Uid:   uid,
			Event: analytics.EventRefund,
			Where: map[string]interface{}{
				"subscriptionId": subscription.SubscriptionId,
			},
			Update: map[string]interface{}{
				"reason": ev.RefundReason,
			},
		}},
	})
	return nil
}

// findSubscription resolves the event's subscription or reports ledger
// drift: the provider refers to state this service never recorded. Drift is
// alerted immediately because the caller's error path skips dispatch.
func (s *reconcilerService) findSubscription(ctx context.Context, uow unitofwork.UnitOfWork, ev *billing.NormalizedEvent) (*entity.Subscription, error) {
	if ev.ProviderSubscriptionId == "" {
		return nil, fmt.Errorf("%w: event carries no subscription id", ErrSubscriptionNotFound)
	}

	provider, err := uow.PaymentProviderRepository().FindOne(ctx, specification.ByProviderName{Name: ev.Provider})
	if err != nil {
		return nil, err
	}
	if provider == nil {
		return nil, fmt.Errorf("%w: %s", ErrProviderNotFound, ev.Provider)
	}

	subscription, err := uow.SubscriptionRepository().FindOne(ctx, specification.ByProviderSubscription{
		PaymentProviderId: provider.Id,
		SubscriptionId:    ev.ProviderSubscriptionId,
	})
	if err != nil {
		return nil, err
	}
	if subscription == nil {
		s.log.Error(reconcilerModule, "ledger drift: unknown subscription referenced by provider", map[string]interface{}{
			"provider": ev.Provider, "subscription_id": ev.ProviderSubscriptionId, "kind": string(ev.Kind),
		})
		s.dispatcher.Dispatch(ctx, []SideEffect{
			BusEventEffect{Event: events.NewLedgerMismatchEvent(
				ev.Provider, ev.ProviderSubscriptionId,
				fmt.Sprintf("event %s references an unknown subscription", ev.Kind),
			)},
			OpsAlertEffect{
				Subject: "ledger drift detected",
				Detail: fmt.Sprintf("provider %s sent %s for unknown subscription %s",
					ev.Provider, ev.Kind, ev.ProviderSubscriptionId),
			},
		})
		return nil, fmt.Errorf("%w: provider %s id %s", ErrSubscriptionNotFound, ev.Provider, ev.ProviderSubscriptionId)
	}
	return subscription, nil
}

func subscriptionUid(subscription *entity.Subscription) string {
	if subscription.Customer != nil {
		return subscription.Customer.Uid
	}
	return ""
}

func purchaseData(ev *billing.NormalizedEvent, productCode string) map[string]interface{} {
	data := map[string]interface{}{
		"productCode": productCode,
		"provider":    ev.Provider,
	}
	if ev.ProviderSubscriptionId != "" {
		data["subscriptionId"] = ev.ProviderSubscriptionId
	}
	if amount := billing.CentsToUSD(ev.AmountCents); amount != nil {
		data["amount"] = *amount
		data["currency"] = ev.Currency
	}
	if fee := billing.CentsToUSD(ev.FeeCents); fee != nil {
		data["processingFee"] = *fee
	}
	if ev.PromoCode != "" {
		data["promoCode"] = ev.PromoCode
	}
	if ev.InvoiceNumber != "" {
		data["invoiceNumber"] = ev.InvoiceNumber
	}
	if ev.Trial {
		data["trial"] = true
	}
	return data
}
