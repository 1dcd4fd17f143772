package contract

import (
	"context"

	"subscription-billing-be/internal/entity"
	"subscription-billing-be/internal/repository/specification"
)

type PaymentProviderRepository interface {
	Create(ctx context.Context, provider *entity.PaymentProvider) error
	FindOne(ctx context.Context, specs ...specification.Specification) (*entity.PaymentProvider, error)
	FindAll(ctx context.Context, specs ...specification.Specification) ([]*entity.PaymentProvider, error)

	// ClearDefaultExcept unsets is_default on every provider other than the
	// given id. MarkDefault sets it on exactly that id. Run both inside one
	// unit of work so at most one default is ever observable.
	ClearDefaultExcept(ctx context.Context, id uint) error
	MarkDefault(ctx context.Context, id uint) error
}
