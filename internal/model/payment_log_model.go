package model

import (
	"time"

	"gorm.io/datatypes"
)

type PaymentLog struct {
	Id             uint           `gorm:"primaryKey;autoIncrement"`
	SubscriptionId uint           `gorm:"not null;uniqueIndex:idx_subscription_data_hash"`
	Data           datatypes.JSON `gorm:"type:jsonb;not null"`
	DataHash       string         `gorm:"type:varchar(64);not null;uniqueIndex:idx_subscription_data_hash"`
	CreatedAt      time.Time      `gorm:"autoCreateTime"`
}

func (PaymentLog) TableName() string {
	return "payment_logs"
}
