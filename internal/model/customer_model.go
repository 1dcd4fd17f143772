package model

import (
	"time"

	"gorm.io/datatypes"
)

type Customer struct {
	Id             uint           `gorm:"primaryKey;autoIncrement"`
	Uid            string         `gorm:"type:varchar(255);uniqueIndex;not null"`
	AdditionalData datatypes.JSON `gorm:"type:jsonb"`
	CreatedAt      time.Time      `gorm:"autoCreateTime"`
	UpdatedAt      time.Time      `gorm:"autoUpdateTime"`

	// Relations
	Subscriptions []*Subscription `gorm:"foreignKey:CustomerId"`
}

func (Customer) TableName() string {
	return "customers"
}
