package contract

import (
	"context"

	"subscription-billing-be/internal/entity"
	"subscription-billing-be/internal/repository/specification"
)

type PaymentLogRepository interface {
	// Append inserts the log row. Returns ErrDuplicate when the same payload
	// was already logged for the subscription.
	Append(ctx context.Context, log *entity.PaymentLog) error
	Exists(ctx context.Context, subscriptionId uint, dataHash string) (bool, error)
	FindAll(ctx context.Context, specs ...specification.Specification) ([]*entity.PaymentLog, error)

	// DeleteForSubscription removes every log of the subscription. Used only
	// when a discarded placeholder customer takes its history with it.
	DeleteForSubscription(ctx context.Context, subscriptionId uint) error
}
