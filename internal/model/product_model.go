package model

import (
	"time"

	"gorm.io/datatypes"
)

type Product struct {
	Id          uint           `gorm:"primaryKey;autoIncrement"`
	ProductCode string         `gorm:"type:varchar(255);uniqueIndex;not null"`
	Name        string         `gorm:"type:varchar(255);not null"`
	Options     datatypes.JSON `gorm:"type:jsonb"`
	CreatedAt   time.Time      `gorm:"autoCreateTime"`
	UpdatedAt   time.Time      `gorm:"autoUpdateTime"`
}

func (Product) TableName() string {
	return "products"
}
