package contract

import (
	"context"
	"time"

	"subscription-billing-be/internal/entity"
	"subscription-billing-be/internal/repository/specification"
)

type SubscriptionRepository interface {
	Create(ctx context.Context, subscription *entity.Subscription) error
	Update(ctx context.Context, subscription *entity.Subscription) error
	FindOne(ctx context.Context, specs ...specification.Specification) (*entity.Subscription, error)
	FindAll(ctx context.Context, specs ...specification.Specification) ([]*entity.Subscription, error)

	// Partial updates used by the webhook state machine. Each touches the
	// named column only and leaves the rest of the row alone.
	SetCanceled(ctx context.Context, id uint, canceled bool) error
	SetNextBillingAt(ctx context.Context, id uint, at time.Time) error

	// Delete removes the row. Only the placeholder-customer merge discards
	// subscriptions; webhook transitions deactivate instead.
	Delete(ctx context.Context, id uint) error
}
