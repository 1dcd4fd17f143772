package billing

import "time"

// EventKind is the canonical classification of a provider webhook after
// normalization.
type EventKind string

const (
	KindCheckoutCompleted     EventKind = "checkout_completed"
	KindSubscriptionUpdated   EventKind = "subscription_updated"
	KindSubscriptionCanceled  EventKind = "subscription_canceled"
	KindSubscriptionDeleted   EventKind = "subscription_deleted"
	KindInvoicePaid           EventKind = "invoice_paid"
	KindChargeRefunded        EventKind = "charge_refunded"
	KindRefundMetadataUpdated EventKind = "refund_metadata_updated"

	// KindUnsupported marks a recognized provider event type that has no
	// mapped handling. The reconciler rejects it explicitly so it shows up
	// in the logs instead of vanishing.
	KindUnsupported EventKind = "unsupported"
)

// Refund gating values shared by both providers.
const (
	RefundActionRefund   = "refund"
	RefundStatusApproved = "approved"
	ProviderStatusActive = "active"
	BillingReasonRenewal = "subscription_cycle"
)

// NormalizedEvent is the provider-agnostic record handed to the reconciler.
// Kind decides which fields are meaningful; the rest stay zero.
type NormalizedEvent struct {
	Kind     EventKind
	Provider string

	// Customer reference. Uid may be empty when the purchase happened before
	// registration, in which case Email is used to derive a placeholder uid.
	Uid   string
	Email string

	ProductCode            string
	ProviderSubscriptionId string // empty means a one-time purchase
	PeriodEnd              *time.Time
	OccurredAt             time.Time

	// Monetary fields in provider minor units.
	AmountCents *int64
	FeeCents    *int64
	Currency    string

	PromoCode     string
	InvoiceNumber string
	Trial         bool

	// SubscriptionUpdated sub-conditions.
	ProviderStatus    string
	CancelAtPeriodEnd bool

	// InvoicePaid gating.
	BillingReason string

	// Refund fields.
	RefundAction string
	RefundStatus string
	RefundReason string

	// Cancellation survey fields, routed to an analytics amend.
	CancellationComment  string
	CancellationFeedback string

	// RawPayload is the exact bytes received from the provider, kept for the
	// payment-log dedup key.
	RawPayload []byte
}

// RefundApproved reports whether a refund event should act on the ledger.
// Anything that is not an approved refund is ignored.
func (e *NormalizedEvent) RefundApproved() bool {
	return e.RefundAction == RefundActionRefund && e.RefundStatus == RefundStatusApproved
}

// CentsToUSD converts a provider minor-unit amount to major units.
func CentsToUSD(cents *int64) *float64 {
	if cents == nil {
		return nil
	}
	usd := float64(*cents) / 100
	return &usd
}
