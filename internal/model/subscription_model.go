package model

import "time"

type Subscription struct {
	Id                uint   `gorm:"primaryKey;autoIncrement"`
	CustomerId        uint   `gorm:"not null;index"`
	ProductId         uint   `gorm:"not null;index"`
	PaymentProviderId uint   `gorm:"not null;uniqueIndex:idx_provider_subscription,where:subscription_id <> ''"`
	SubscriptionId    string `gorm:"type:varchar(255);not null;default:'';uniqueIndex:idx_provider_subscription,where:subscription_id <> ''"`
	NextBillingAt     *time.Time
	IsCanceled        *bool
	CreatedAt         time.Time `gorm:"autoCreateTime"`
	UpdatedAt         time.Time `gorm:"autoUpdateTime"`

	// Relations
	Customer        *Customer        `gorm:"foreignKey:CustomerId"`
	Product         *Product         `gorm:"foreignKey:ProductId"`
	PaymentProvider *PaymentProvider `gorm:"foreignKey:PaymentProviderId"`
}

func (Subscription) TableName() string {
	return "subscriptions"
}
