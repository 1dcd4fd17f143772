package service

import (
	"context"
	"fmt"

	"subscription-billing-be/internal/entity"
	"subscription-billing-be/internal/pkg/logger"
	"subscription-billing-be/internal/repository/specification"
	"subscription-billing-be/internal/repository/unitofwork"
)

const providerModule = "provider_service"

type IProviderService interface {
	// GetDefault returns the single provider flagged as default. Absence is
	// a configuration error, not a soft miss.
	GetDefault(ctx context.Context) (*entity.PaymentProvider, error)

	// SetDefault moves the default flag to the named provider. Both updates
	// run in one transaction so readers never observe two defaults.
	SetDefault(ctx context.Context, name entity.ProviderName) (*entity.PaymentProvider, error)

	List(ctx context.Context) ([]*entity.PaymentProvider, error)
}

type providerService struct {
	uowFactory unitofwork.RepositoryFactory
	log        logger.ILogger
}

func NewProviderService(uowFactory unitofwork.RepositoryFactory, log logger.ILogger) IProviderService {
	return &providerService{
		uowFactory: uowFactory,
		log:        log,
	}
}

func (s *providerService) GetDefault(ctx context.Context) (*entity.PaymentProvider, error) {
	uow := s.uowFactory.NewUnitOfWork(ctx)
	provider, err := uow.PaymentProviderRepository().FindOne(ctx, specification.DefaultProvider{})
	if err != nil {
		return nil, err
	}
	if provider == nil {
		// A crash between the two setDefault updates can leave zero
		// defaults; surface it loudly so the next setDefault repairs it.
		s.log.Error(providerModule, "no default payment provider", nil)
		return nil, ErrNoDefaultProvider
	}
	return provider, nil
}

func (s *providerService) SetDefault(ctx context.Context, name entity.ProviderName) (*entity.PaymentProvider, error) {
	uow := s.uowFactory.NewUnitOfWork(ctx)
	if err := uow.Begin(ctx); err != nil {
		return nil, err
	}

	repo := uow.PaymentProviderRepository()
	provider, err := repo.FindOne(ctx, specification.ByProviderName{Name: string(name)})
	if err != nil {
		_ = uow.Rollback()
		return nil, err
	}
	if provider == nil {
		_ = uow.Rollback()
		return nil, fmt.Errorf("%w: %s", ErrProviderNotFound, name)
	}

	if err := repo.ClearDefaultExcept(ctx, provider.Id); err != nil {
		_ = uow.Rollback()
		return nil, err
	}
	if err := repo.MarkDefault(ctx, provider.Id); err != nil {
		_ = uow.Rollback()
		return nil, err
	}
	if err := uow.Commit(); err != nil {
		return nil, err
	}

	provider.IsDefault = true
	s.log.Info(providerModule, "default payment provider changed", map[string]interface{}{
		"provider": string(name),
	})
	return provider, nil
}

func (s *providerService) List(ctx context.Context) ([]*entity.PaymentProvider, error) {
	uow := s.uowFactory.NewUnitOfWork(ctx)
	return uow.PaymentProviderRepository().FindAll(ctx, specification.OrderBy{Field: "id"})
}
