package specification

import (
	"time"

	"gorm.io/gorm"
)

// ByUid filters customers by their external uid
type ByUid struct {
	Uid string
}

func (s ByUid) Apply(db *gorm.DB) *gorm.DB {
	return db.Where("uid = ?", s.Uid)
}

// ByProviderName filters payment providers by name
type ByProviderName struct {
	Name string
}

func (s ByProviderName) Apply(db *gorm.DB) *gorm.DB {
	return db.Where("name = ?", s.Name)
}

// DefaultProvider filters for the provider flagged as default
type DefaultProvider struct{}

func (s DefaultProvider) Apply(db *gorm.DB) *gorm.DB {
	return db.Where("is_default = ?", true)
}

// ByProductCode filters products by their provider-assigned code
type ByProductCode struct {
	Code string
}

func (s ByProductCode) Apply(db *gorm.DB) *gorm.DB {
	return db.Where("product_code = ?", s.Code)
}

// ByProviderSubscription locates a subscription by its external id scoped to a
// provider. The external id is only unique per provider.
type ByProviderSubscription struct {
	PaymentProviderId uint
	SubscriptionId    string
}

func (s ByProviderSubscription) Apply(db *gorm.DB) *gorm.DB {
	return db.Where("payment_provider_id = ? AND subscription_id = ?", s.PaymentProviderId, s.SubscriptionId)
}

// OwnedBy filters subscriptions by the owning customer
type OwnedBy struct {
	CustomerId uint
}

func (s OwnedBy) Apply(db *gorm.DB) *gorm.DB {
	return db.Where("customer_id = ?", s.CustomerId)
}

// ActiveAt filters subscriptions whose paid period covers the given instant
type ActiveAt struct {
	Now time.Time
}

func (s ActiveAt) Apply(db *gorm.DB) *gorm.DB {
	return db.Where("subscription_id <> '' AND next_billing_at IS NOT NULL AND next_billing_at > ?", s.Now)
}

// ByDataHash filters payment logs by payload hash
type ByDataHash struct {
	SubscriptionId uint
	Hash           string
}

func (s ByDataHash) Apply(db *gorm.DB) *gorm.DB {
	return db.Where("subscription_id = ? AND data_hash = ?", s.SubscriptionId, s.Hash)
}
