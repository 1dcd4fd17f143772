package mapper

import (
	"subscription-billing-be/internal/entity"
	"subscription-billing-be/internal/model"
)

type PaymentProviderMapper struct{}

func NewPaymentProviderMapper() *PaymentProviderMapper {
	return &PaymentProviderMapper{}
}

func (m *PaymentProviderMapper) ToEntity(p *model.PaymentProvider) *entity.PaymentProvider {
	if p == nil {
		return nil
	}
	return &entity.PaymentProvider{
		Id:        p.Id,
		Name:      entity.ProviderName(p.Name),
		IsDefault: p.IsDefault,
	}
}

func (m *PaymentProviderMapper) ToModel(p *entity.PaymentProvider) *model.PaymentProvider {
	if p == nil {
		return nil
	}
	return &model.PaymentProvider{
		Id:        p.Id,
		Name:      string(p.Name),
		IsDefault: p.IsDefault,
	}
}
