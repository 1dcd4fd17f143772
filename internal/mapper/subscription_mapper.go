package mapper

import (
	"subscription-billing-be/internal/entity"
	"subscription-billing-be/internal/model"
)

type SubscriptionMapper struct {
	productMapper  *ProductMapper
	providerMapper *PaymentProviderMapper
}

func NewSubscriptionMapper() *SubscriptionMapper {
	return &SubscriptionMapper{
		productMapper:  NewProductMapper(),
		providerMapper: NewPaymentProviderMapper(),
	}
}

func (m *SubscriptionMapper) ToEntity(s *model.Subscription) *entity.Subscription {
	if s == nil {
		return nil
	}
	ent := &entity.Subscription{
		Id:                s.Id,
		CustomerId:        s.CustomerId,
		ProductId:         s.ProductId,
		PaymentProviderId: s.PaymentProviderId,
		SubscriptionId:    s.SubscriptionId,
		CreatedAt:         s.CreatedAt,
		NextBillingAt:     s.NextBillingAt,
		IsCanceled:        s.IsCanceled,
		Product:           m.productMapper.ToEntity(s.Product),
		PaymentProvider:   m.providerMapper.ToEntity(s.PaymentProvider),
	}
	if s.Customer != nil {
		// Map without subscriptions to avoid a cycle.
		ent.Customer = &entity.Customer{
			Id:             s.Customer.Id,
			Uid:            s.Customer.Uid,
			AdditionalData: jsonToMap(s.Customer.AdditionalData),
		}
	}
	return ent
}

func (m *SubscriptionMapper) ToModel(s *entity.Subscription) *model.Subscription {
	if s == nil {
		return nil
	}
	return &model.Subscription{
		Id:                s.Id,
		CustomerId:        s.CustomerId,
		ProductId:         s.ProductId,
		PaymentProviderId: s.PaymentProviderId,
		SubscriptionId:    s.SubscriptionId,
		CreatedAt:         s.CreatedAt,
		NextBillingAt:     s.NextBillingAt,
		IsCanceled:        s.IsCanceled,
	}
}

func (m *SubscriptionMapper) ToEntities(models []*model.Subscription) []*entity.Subscription {
	if models == nil {
		return nil
	}
	entities := make([]*entity.Subscription, len(models))
	for i, mdl := range models {
		entities[i] = m.ToEntity(mdl)
	}
	return entities
}
