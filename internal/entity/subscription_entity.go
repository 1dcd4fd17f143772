package entity

import (
	"time"
)

// Subscription is the central billing record. One row per purchase; renewals
// advance NextBillingAt on the same row, product changes create a new row.
//
// SubscriptionId is the provider-side subscription id. Empty means a one-time
// purchase, not a recurring subscription.
//
// "Active" is never stored. A subscription is active while the provider id is
// present and the next charge is still in the future, which also makes
// deactivation a matter of rewriting NextBillingAt to now.
type Subscription struct {
	Id                uint
	CustomerId        uint
	ProductId         uint
	PaymentProviderId uint
	SubscriptionId    string
	CreatedAt         time.Time
	NextBillingAt     *time.Time
	IsCanceled        *bool

	// Relations
	Customer        *Customer
	Product         *Product
	PaymentProvider *PaymentProvider
}

func (s *Subscription) IsActive(now time.Time) bool {
	return s.SubscriptionId != "" && s.NextBillingAt != nil && s.NextBillingAt.After(now)
}

// Canceled treats the unset tri-state as "not canceled".
func (s *Subscription) Canceled() bool {
	return s.IsCanceled != nil && *s.IsCanceled
}
