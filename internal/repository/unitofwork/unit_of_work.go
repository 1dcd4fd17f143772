package unitofwork

import (
	"context"

	"subscription-billing-be/internal/repository/contract"
)

type UnitOfWork interface {
	Begin(ctx context.Context) error
	Commit() error
	Rollback() error

	CustomerRepository() contract.CustomerRepository
	ProductRepository() contract.ProductRepository
	PaymentProviderRepository() contract.PaymentProviderRepository
	SubscriptionRepository() contract.SubscriptionRepository
	PaymentLogRepository() contract.PaymentLogRepository
}
