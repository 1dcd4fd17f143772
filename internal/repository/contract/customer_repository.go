package contract

import (
	"context"

	"subscription-billing-be/internal/entity"
	"subscription-billing-be/internal/repository/specification"
)

type CustomerRepository interface {
	Create(ctx context.Context, customer *entity.Customer) error
	Update(ctx context.Context, customer *entity.Customer) error
	Delete(ctx context.Context, id uint) error
	FindOne(ctx context.Context, specs ...specification.Specification) (*entity.Customer, error)
	FindAll(ctx context.Context, specs ...specification.Specification) ([]*entity.Customer, error)

	// FindOneWithSubscriptions preloads the customer's subscriptions together
	// with their products and providers.
	FindOneWithSubscriptions(ctx context.Context, specs ...specification.Specification) (*entity.Customer, error)
}
