package paddle

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"time"

	"subscription-billing-be/internal/pkg/logger"
	"subscription-billing-be/pkg/billing"
)

const logModule = "billing.paddle"

// Secrets holds the webhook signing secret. Outside production the test
// secret, when set, is accepted so recorded fixtures can be replayed.
type Secrets struct {
	WebhookSecret string
	TestSecret    string
	Production    bool
}

func (s Secrets) active() string {
	if !s.Production && s.TestSecret != "" {
		return s.TestSecret
	}
	return s.WebhookSecret
}

// Adapter translates catalog-provider webhook deliveries into normalized
// events.
type Adapter struct {
	secrets Secrets
	client  *Client
	catalog *Catalog
	log     logger.ILogger
	now     func() time.Time
}

func NewAdapter(secrets Secrets, client *Client, catalog *Catalog, log logger.ILogger) *Adapter {
	return &Adapter{
		secrets: secrets,
		client:  client,
		catalog: catalog,
		log:     log,
		now:     time.Now,
	}
}

func (a *Adapter) ProviderName() string {
	return "paddle"
}

// VerifyAndNormalize validates the ts/h1 signature header and maps the
// envelope onto a NormalizedEvent. The eventTypeHint is unused; this
// provider delivers every event type to one endpoint.
func (a *Adapter) VerifyAndNormalize(ctx context.Context, eventTypeHint string, payload []byte, signature string) (*billing.NormalizedEvent, error) {
	secret := a.secrets.active()
	if secret == "" {
		return nil, fmt.Errorf("%w: no webhook secret configured", billing.ErrVerification)
	}
	if err := verifySignature(payload, signature, secret, a.now()); err != nil {
		return nil, err
	}

	var envelope webhookEnvelope
	if err := json.Unmarshal(payload, &envelope); err != nil {
		return nil, fmt.Errorf("%w: malformed webhook body", billing.ErrVerification)
	}

	ev := &billing.NormalizedEvent{
		Provider:   a.ProviderName(),
		OccurredAt: envelope.OccurredAt,
		RawPayload: payload,
	}

	switch envelope.EventType {
	case "transaction.completed":
		return a.normalizeTransaction(ctx, ev, envelope.Data)
	case "subscription.updated":
		return a.normalizeSubscription(ctx, ev, envelope.Data, billing.KindSubscriptionUpdated)
	case "subscription.canceled":
		return a.normalizeSubscription(ctx, ev, envelope.Data, billing.KindSubscriptionCanceled)
	case "adjustment.updated":
		return a.normalizeAdjustment(ctx, ev, envelope.Data)
	default:
		ev.Kind = billing.KindUnsupported
		return ev, nil
	}
}

func (a *Adapter) normalizeTransaction(ctx context.Context, ev *billing.NormalizedEvent, raw json.RawMessage) (*billing.NormalizedEvent, error) {
	var txn transactionPayload
	if err := json.Unmarshal(raw, &txn); err != nil {
		return nil, fmt.Errorf("decode transaction: %w", err)
	}

	ev.Kind = billing.KindCheckoutCompleted
	ev.Uid = txn.CustomData["uid"]
	ev.Email = txn.CustomData["email"]
	ev.ProviderSubscriptionId = txn.SubscriptionID
	ev.InvoiceNumber = txn.InvoiceNumber
	ev.Currency = txn.CurrencyCode
	ev.AmountCents = parseMinorUnits(txn.Details.Totals.Total)
	if !txn.BillingPeriod.EndsAt.IsZero() {
		end := txn.BillingPeriod.EndsAt.UTC()
		ev.PeriodEnd = &end
	}

	ev.ProductCode = txn.CustomData["product_code"]
	if ev.ProductCode == "" && len(txn.Items) > 0 {
		code, err := a.catalog.CodeFor(ctx, txn.Items[0].Price.ProductID)
		if err != nil {
			return nil, err
		}
		ev.ProductCode = code
	}

	if txn.DiscountID != "" {
		discount, err := a.client.GetDiscount(ctx, txn.DiscountID)
		if err != nil {
			a.log.Warn(logModule, "discount enrichment failed", map[string]interface{}{
				"discount_id": txn.DiscountID, "error": err.Error(),
			})
		} else {
			ev.PromoCode = discount.Code
		}
	}
	return ev, nil
}

func (a *Adapter) normalizeSubscription(ctx context.Context, ev *billing.NormalizedEvent, raw json.RawMessage, kind billing.EventKind) (*billing.NormalizedEvent, error) {
	var sub subscriptionNotification
	if err := json.Unmarshal(raw, &sub); err != nil {
		return nil, fmt.Errorf("decode subscription: %w", err)
	}

	ev.Kind = kind
	ev.ProviderSubscriptionId = sub.ID
	ev.ProviderStatus = sub.Status
	ev.Uid = sub.CustomData["uid"]
	ev.CancelAtPeriodEnd = sub.ScheduledChange != nil && sub.ScheduledChange.Action == "cancel"
	if !sub.CurrentBillingPeriod.EndsAt.IsZero() {
		end := sub.CurrentBillingPeriod.EndsAt.UTC()
		ev.PeriodEnd = &end
	}

	if len(sub.Items) > 0 {
		code, err := a.catalog.CodeFor(ctx, sub.Items[0].Price.ProductID)
		if err != nil {
			// Not fatal for lifecycle updates; the subscription row already
			// carries its product.
			a.log.Warn(logModule, "product code lookup failed", map[string]interface{}{
				"provider_product_id": sub.Items[0].Price.ProductID, "error": err.Error(),
			})
		} else {
			ev.ProductCode = code
		}
	}
	return ev, nil
}

func (a *Adapter) normalizeAdjustment(ctx context.Context, ev *billing.NormalizedEvent, raw json.RawMessage) (*billing.NormalizedEvent, error) {
	var adj adjustmentPayload
	if err := json.Unmarshal(raw, &adj); err != nil {
		return nil, fmt.Errorf("decode adjustment: %w", err)
	}

	ev.Kind = billing.KindChargeRefunded
	ev.RefundAction = adj.Action
	ev.RefundStatus = adj.Status
	ev.RefundReason = adj.Reason
	ev.ProviderSubscriptionId = adj.SubscriptionID
	ev.Currency = adj.CurrencyCode
	ev.AmountCents = parseMinorUnits(adj.Totals.Total)

	if adj.TransactionID != "" {
		txn, err := a.client.GetTransaction(ctx, adj.TransactionID)
		if err != nil {
			a.log.Warn(logModule, "transaction enrichment failed", map[string]interface{}{
				"transaction_id": adj.TransactionID, "error": err.Error(),
			})
		} else {
			ev.InvoiceNumber = txn.InvoiceNumber
			if ev.ProviderSubscriptionId == "" {
				ev.ProviderSubscriptionId = txn.SubscriptionID
			}
		}
	}
	return ev, nil
}

// parseMinorUnits parses the provider's string-encoded minor-unit totals.
func parseMinorUnits(total string) *int64 {
	if total == "" {
		return nil
	}
	cents, err := strconv.ParseInt(total, 10, 64)
	if err != nil {
		return nil
	}
	return &cents
}
