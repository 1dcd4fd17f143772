package service

import (
	"subscription-billing-be/pkg/analytics"
	"subscription-billing-be/pkg/events"
)

// SideEffect is one unit of post-commit work produced by a reconciliation.
// Effects run only after the ledger transaction committed; their failures
// are isolated from the webhook response.
type SideEffect interface {
	effectName() string
}

// PaymentLogEffect appends the raw provider payload to the audit log. The
// unique payload-hash index absorbs duplicate appends.
type PaymentLogEffect struct {
	SubscriptionId uint
	Payload        []byte
}

func (PaymentLogEffect) effectName() string { return "payment_log" }

// AnalyticsNotifyEffect delivers one collector event.
type AnalyticsNotifyEffect struct {
	Event analytics.Event
}

func (AnalyticsNotifyEffect) effectName() string { return "analytics_notify" }

// AnalyticsAmendEffect patches an already-delivered collector event.
type AnalyticsAmendEffect struct {
	Amendment analytics.Amendment
}

func (AnalyticsAmendEffect) effectName() string { return "analytics_amend" }

// StatusInvalidateEffect drops the cached status response for a customer
// whose subscription state just changed.
type StatusInvalidateEffect struct {
	Uid string
}

func (StatusInvalidateEffect) effectName() string { return "status_invalidate" }

// BusEventEffect publishes a lifecycle or ops event on the NATS stream.
type BusEventEffect struct {
	Event events.BaseEvent
}

func (BusEventEffect) effectName() string { return "bus_event" }

// OpsAlertEffect mails the on-call address. Reserved for conditions that
// need a human, like ledger drift.
type OpsAlertEffect struct {
	Subject string
	Detail  string
}

func (OpsAlertEffect) effectName() string { return "ops_alert" }
