package stripe

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"subscription-billing-be/internal/pkg/logger"
	"subscription-billing-be/pkg/billing"

	"github.com/stripe/stripe-go/v82/webhook"
)

const logModule = "billing.stripe"

// Adapter translates Stripe webhook deliveries into normalized events.
type Adapter struct {
	secrets Secrets
	api     API
	log     logger.ILogger
}

func NewAdapter(secrets Secrets, api API, log logger.ILogger) *Adapter {
	return &Adapter{
		secrets: secrets,
		api:     api,
		log:     log,
	}
}

func (a *Adapter) ProviderName() string {
	return "stripe"
}

// VerifyAndNormalize checks the delivery signature against the secret
// registered for the event type, then maps the payload onto a
// NormalizedEvent. Enrichment reads (invoice number, promo code, fees) are
// best effort; their failure downgrades the event, never rejects it.
func (a *Adapter) VerifyAndNormalize(ctx context.Context, eventTypeHint string, payload []byte, signature string) (*billing.NormalizedEvent, error) {
	if len(payload) == 0 || signature == "" {
		return nil, fmt.Errorf("%w: missing payload or signature", billing.ErrVerification)
	}

	secret, err := a.secrets.For(eventTypeHint)
	if err != nil {
		return nil, err
	}

	event, err := webhook.ConstructEventWithOptions(payload, signature, secret, webhook.ConstructEventOptions{
		IgnoreAPIVersionMismatch: true,
	})
	if err != nil {
		return nil, fmt.Errorf("%w: %v", billing.ErrVerification, err)
	}

	ev := &billing.NormalizedEvent{
		Provider:   a.ProviderName(),
		OccurredAt: time.Unix(event.Created, 0).UTC(),
		RawPayload: payload,
	}

	switch string(event.Type) {
	case "checkout.session.completed":
		return a.normalizeCheckout(ev, event.Data.Raw)
	case "customer.subscription.updated":
		return a.normalizeSubscription(ev, event.Data.Raw, billing.KindSubscriptionUpdated)
	case "customer.subscription.deleted":
		return a.normalizeSubscription(ev, event.Data.Raw, billing.KindSubscriptionDeleted)
	case "invoice.paid":
		return a.normalizeInvoicePaid(ev, event.Data.Raw)
	case "charge.refunded":
		return a.normalizeChargeRefunded(ev, event.Data.Raw)
	case "charge.refund.updated":
		return a.normalizeRefundUpdated(ev, event.Data.Raw)
	default:
		ev.Kind = billing.KindUnsupported
		return ev, nil
	}
}

func (a *Adapter) normalizeCheckout(ev *billing.NormalizedEvent, raw json.RawMessage) (*billing.NormalizedEvent, error) {
	var session checkoutSessionPayload
	if err := json.Unmarshal(raw, &session); err != nil {
		return nil, fmt.Errorf("decode checkout.session: %w", err)
	}

	ev.Kind = billing.KindCheckoutCompleted
	ev.Uid = session.ClientReferenceID
	ev.Email = session.CustomerDetails.Email
	if ev.Email == "" {
		ev.Email = session.CustomerEmail
	}
	ev.ProductCode = session.Metadata["product_code"]
	ev.ProviderSubscriptionId = session.Subscription
	amount := session.AmountTotal
	ev.AmountCents = &amount
	ev.Currency = session.Currency
	ev.Trial = session.Subscription != "" && session.AmountTotal == 0

	if session.Subscription != "" {
		end, err := a.api.GetSubscriptionPeriodEnd(session.Subscription)
		if err != nil {
			a.log.Warn(logModule, "failed to resolve billing period for checkout", map[string]interface{}{
				"subscription_id": session.Subscription, "error": err.Error(),
			})
		} else {
			ev.PeriodEnd = &end
		}
	}

	if session.Invoice != "" {
		a.enrichFromInvoice(ev, session.Invoice)
	}
	return ev, nil
}

func (a *Adapter) normalizeSubscription(ev *billing.NormalizedEvent, raw json.RawMessage, kind billing.EventKind) (*billing.NormalizedEvent, error) {
	var sub subscriptionPayload
	if err := json.Unmarshal(raw, &sub); err != nil {
		return nil, fmt.Errorf("decode subscription: %w", err)
	}

	ev.Kind = kind
	ev.ProviderSubscriptionId = sub.ID
	ev.ProviderStatus = sub.Status
	ev.CancelAtPeriodEnd = sub.CancelAtPeriodEnd
	ev.Uid = sub.Metadata["uid"]
	ev.CancellationComment = sub.CancellationDetails.Comment
	ev.CancellationFeedback = sub.CancellationDetails.Feedback

	if end := subscriptionPeriodEnd(sub); end > 0 {
		t := time.Unix(end, 0).UTC()
		ev.PeriodEnd = &t
	}
	if len(sub.Items.Data) > 0 {
		ev.ProductCode = sub.Items.Data[0].Price.Metadata["product_code"]
	}
	return ev, nil
}

func (a *Adapter) normalizeInvoicePaid(ev *billing.NormalizedEvent, raw json.RawMessage) (*billing.NormalizedEvent, error) {
	var inv invoicePayload
	if err := json.Unmarshal(raw, &inv); err != nil {
		return nil, fmt.Errorf("decode invoice: %w", err)
	}

	ev.Kind = billing.KindInvoicePaid
	ev.ProviderSubscriptionId = inv.subscriptionID()
	ev.BillingReason = inv.BillingReason
	ev.InvoiceNumber = inv.Number
	amount := inv.Total
	ev.AmountCents = &amount
	ev.Currency = inv.Currency
	return ev, nil
}

func (a *Adapter) normalizeChargeRefunded(ev *billing.NormalizedEvent, raw json.RawMessage) (*billing.NormalizedEvent, error) {
	var ch chargePayload
	if err := json.Unmarshal(raw, &ch); err != nil {
		return nil, fmt.Errorf("decode charge: %w", err)
	}

	ev.Kind = billing.KindChargeRefunded
	ev.RefundAction = billing.RefundActionRefund
	ev.RefundStatus = billing.RefundStatusApproved
	amount := ch.AmountRefunded
	ev.AmountCents = &amount
	ev.Currency = ch.Currency

	if len(ch.Refunds.Data) > 0 {
		refund := ch.Refunds.Data[0]
		ev.RefundReason = refund.Reason
		if refund.Status != "succeeded" {
			ev.RefundStatus = refund.Status
		}
	}

	if ch.Invoice != "" {
		a.enrichFromInvoice(ev, ch.Invoice)
	}
	return ev, nil
}

func (a *Adapter) normalizeRefundUpdated(ev *billing.NormalizedEvent, raw json.RawMessage) (*billing.NormalizedEvent, error) {
	var refund refundPayload
	if err := json.Unmarshal(raw, &refund); err != nil {
		return nil, fmt.Errorf("decode refund: %w", err)
	}

	ev.Kind = billing.KindRefundMetadataUpdated
	ev.RefundAction = billing.RefundActionRefund
	ev.RefundStatus = refund.Status
	ev.RefundReason = refund.Reason
	if reason, ok := refund.Metadata["reason"]; ok && reason != "" {
		ev.RefundReason = reason
	}

	if refund.Charge != "" {
		info, err := a.api.GetCharge(refund.Charge)
		if err != nil {
			a.log.Warn(logModule, "failed to resolve charge for refund update", map[string]interface{}{
				"charge_id": refund.Charge, "error": err.Error(),
			})
		} else {
			ev.FeeCents = &info.FeeCents
			if info.InvoiceID != "" {
				a.enrichFromInvoice(ev, info.InvoiceID)
			}
		}
	}
	return ev, nil
}

// enrichFromInvoice fills the invoice number, the owning subscription when
// still unknown, and the promo code. Failures log at Warn and leave the
// fields empty.
func (a *Adapter) enrichFromInvoice(ev *billing.NormalizedEvent, invoiceID string) {
	info, err := a.api.GetInvoice(invoiceID)
	if err != nil {
		a.log.Warn(logModule, "invoice enrichment failed", map[string]interface{}{
			"invoice_id": invoiceID, "error": err.Error(),
		})
		return
	}
	ev.InvoiceNumber = info.Number
	if ev.ProviderSubscriptionId == "" {
		ev.ProviderSubscriptionId = info.SubscriptionID
	}
	if info.PromotionCodeID != "" {
		code, err := a.api.GetPromotionCode(info.PromotionCodeID)
		if err != nil {
			a.log.Warn(logModule, "promotion code enrichment failed", map[string]interface{}{
				"promotion_code_id": info.PromotionCodeID, "error": err.Error(),
			})
			return
		}
		ev.PromoCode = code
	}
}

// subscriptionPeriodEnd prefers the per-item period end, falling back to the
// top-level field older API versions still send.
func subscriptionPeriodEnd(sub subscriptionPayload) int64 {
	var end int64
	for _, item := range sub.Items.Data {
		if item.CurrentPeriodEnd > end {
			end = item.CurrentPeriodEnd
		}
	}
	if end == 0 {
		end = sub.CurrentPeriodEnd
	}
	return end
}
