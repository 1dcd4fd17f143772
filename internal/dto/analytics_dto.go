package dto

import "subscription-billing-be/pkg/analytics"

// Analytics queue message kinds.
const (
	AnalyticsKindNotify = "notify"
	AnalyticsKindAmend  = "amend"
)

// AnalyticsMessage is the payload published on the analytics topic and
// consumed by the collector delivery worker.
type AnalyticsMessage struct {
	Kind      string               `json:"kind"`
	Event     *analytics.Event     `json:"event,omitempty"`
	Amendment *analytics.Amendment `json:"amendment,omitempty"`
}
