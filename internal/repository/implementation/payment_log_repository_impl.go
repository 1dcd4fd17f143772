package implementation

import (
	"context"

	"subscription-billing-be/internal/entity"
	"subscription-billing-be/internal/mapper"
	"subscription-billing-be/internal/model"
	"subscription-billing-be/internal/repository/contract"
	"subscription-billing-be/internal/repository/specification"

	"gorm.io/gorm"
)

type PaymentLogRepositoryImpl struct {
	db     *gorm.DB
	mapper *mapper.PaymentLogMapper
}

func NewPaymentLogRepository(db *gorm.DB) contract.PaymentLogRepository {
	return &PaymentLogRepositoryImpl{
		db:     db,
		mapper: mapper.NewPaymentLogMapper(),
	}
}

func (r *PaymentLogRepositoryImpl) applySpecifications(db *gorm.DB, specs ...specification.Specification) *gorm.DB {
	for _, spec := range specs {
		db = spec.Apply(db)
	}
	return db
}

func (r *PaymentLogRepositoryImpl) Append(ctx context.Context, log *entity.PaymentLog) error {
	if log.DataHash == "" {
		log.DataHash = entity.HashPayload(log.Data)
	}
	m := r.mapper.ToModel(log)
	if err := r.db.WithContext(ctx).Create(m).Error; err != nil {
		return translateError(err)
	}
	*log = *r.mapper.ToEntity(m)
	return nil
}

func (r *PaymentLogRepositoryImpl) Exists(ctx context.Context, subscriptionId uint, dataHash string) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&model.PaymentLog{}).
		Where("subscription_id = ? AND data_hash = ?", subscriptionId, dataHash).
		Count(&count).Error
	if err != nil {
		return false, err
	}
	return count > 0, nil
}

func (r *PaymentLogRepositoryImpl) DeleteForSubscription(ctx context.Context, subscriptionId uint) error {
	return r.db.WithContext(ctx).
		Where("subscription_id = ?", subscriptionId).
		Delete(&model.PaymentLog{}).Error
}

func (r *PaymentLogRepositoryImpl) FindAll(ctx context.Context, specs ...specification.Specification) ([]*entity.PaymentLog, error) {
	var models []*model.PaymentLog
	query := r.applySpecifications(r.db.WithContext(ctx), specs...)
	if err := query.Find(&models).Error; err != nil {
		return nil, err
	}
	entities := make([]*entity.PaymentLog, len(models))
	for i, m := range models {
		entities[i] = r.mapper.ToEntity(m)
	}
	return entities, nil
}
