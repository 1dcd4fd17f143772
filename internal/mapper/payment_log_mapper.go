package mapper

import (
	"subscription-billing-be/internal/entity"
	"subscription-billing-be/internal/model"

	"gorm.io/datatypes"
)

type PaymentLogMapper struct{}

func NewPaymentLogMapper() *PaymentLogMapper {
	return &PaymentLogMapper{}
}

func (m *PaymentLogMapper) ToEntity(l *model.PaymentLog) *entity.PaymentLog {
	if l == nil {
		return nil
	}
	return &entity.PaymentLog{
		Id:             l.Id,
		SubscriptionId: l.SubscriptionId,
		CreatedAt:      l.CreatedAt,
		Data:           []byte(l.Data),
		DataHash:       l.DataHash,
	}
}

func (m *PaymentLogMapper) ToModel(l *entity.PaymentLog) *model.PaymentLog {
	if l == nil {
		return nil
	}
	return &model.PaymentLog{
		Id:             l.Id,
		SubscriptionId: l.SubscriptionId,
		CreatedAt:      l.CreatedAt,
		Data:           datatypes.JSON(l.Data),
		DataHash:       l.DataHash,
	}
}
