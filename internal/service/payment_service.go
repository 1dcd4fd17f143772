package service

import (
	"context"
	"fmt"

	"subscription-billing-be/internal/entity"
	"subscription-billing-be/pkg/billing"
)

// IPaymentService resolves which payment integration is authoritative for
// new checkouts.
type IPaymentService interface {
	DefaultPaymentSystem(ctx context.Context) (billing.System, error)
}

type paymentService struct {
	providerService IProviderService
	cardAdapter     billing.Adapter
	catalogAdapter  billing.Adapter
}

func NewPaymentService(providerService IProviderService, cardAdapter, catalogAdapter billing.Adapter) IPaymentService {
	return &paymentService{
		providerService: providerService,
		cardAdapter:     cardAdapter,
		catalogAdapter:  catalogAdapter,
	}
}

func (s *paymentService) DefaultPaymentSystem(ctx context.Context) (billing.System, error) {
	provider, err := s.providerService.GetDefault(ctx)
	if err != nil {
		return billing.System{}, err
	}

	switch provider.Name {
	case entity.ProviderStripe:
		return billing.System{Kind: billing.SystemCard, Adapter: s.cardAdapter}, nil
	case entity.ProviderPaddle:
		return billing.System{Kind: billing.SystemCatalog, Adapter: s.catalogAdapter}, nil
	default:
		return billing.System{}, fmt.Errorf("%w: unknown provider %s", ErrProviderNotFound, provider.Name)
	}
}
