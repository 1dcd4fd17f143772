package events

import "time"

// Event type codes published on the billing stream.
const (
	TypeSubscriptionStarted  = "SUBSCRIPTION_STARTED"
	TypeSubscriptionRenewed  = "SUBSCRIPTION_RENEWED"
	TypeSubscriptionCanceled = "SUBSCRIPTION_CANCELED"
	TypeSubscriptionEnded    = "SUBSCRIPTION_ENDED"
	TypeSubscriptionResumed  = "SUBSCRIPTION_RESUMED"
	TypePaymentRefunded      = "PAYMENT_REFUNDED"
	TypeLedgerMismatch       = "LEDGER_MISMATCH"
)

// NewSubscriptionEvent builds a lifecycle event for a customer subscription.
func NewSubscriptionEvent(eventType, uid, subscriptionId, provider string) BaseEvent {
	return BaseEvent{
		Type: eventType,
		Data: map[string]interface{}{
			"uid":             uid,
			"subscription_id": subscriptionId,
			"provider":        provider,
		},
		OccurredAt: time.Now(),
	}
}

// NewLedgerMismatchEvent flags a webhook that referenced state the ledger does
// not hold, e.g. a deletion for an unknown subscription.
func NewLedgerMismatchEvent(provider, subscriptionId, detail string) BaseEvent {
	return BaseEvent{
		Type: TypeLedgerMismatch,
		Data: map[string]interface{}{
			"provider":        provider,
			"subscription_id": subscriptionId,
			"detail":          detail,
		},
		OccurredAt: time.Now(),
	}
}
