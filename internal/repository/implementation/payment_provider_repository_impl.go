package implementation

import (
	"context"
	"errors"

	"subscription-billing-be/internal/entity"
	"subscription-billing-be/internal/mapper"
	"subscription-billing-be/internal/model"
	"subscription-billing-be/internal/repository/contract"
	"subscription-billing-be/internal/repository/specification"

	"gorm.io/gorm"
)

type PaymentProviderRepositoryImpl struct {
	db     *gorm.DB
	mapper *mapper.PaymentProviderMapper
}

func NewPaymentProviderRepository(db *gorm.DB) contract.PaymentProviderRepository {
	return &PaymentProviderRepositoryImpl{
		db:     db,
		mapper: mapper.NewPaymentProviderMapper(),
	}
}

func (r *PaymentProviderRepositoryImpl) applySpecifications(db *gorm.DB, specs ...specification.Specification) *gorm.DB {
	for _, spec := range specs {
		db = spec.Apply(db)
	}
	return db
}

func (r *PaymentProviderRepositoryImpl) Create(ctx context.Context, provider *entity.PaymentProvider) error {
	m := r.mapper.ToModel(provider)
	if err := r.db.WithContext(ctx).Create(m).Error; err != nil {
		return translateError(err)
	}
	*provider = *r.mapper.ToEntity(m)
	return nil
}

func (r *PaymentProviderRepositoryImpl) FindOne(ctx context.Context, specs ...specification.Specification) (*entity.PaymentProvider, error) {
	var m model.PaymentProvider
	query := r.applySpecifications(r.db.WithContext(ctx), specs...)
	if err := query.First(&m).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return r.mapper.ToEntity(&m), nil
}

func (r *PaymentProviderRepositoryImpl) FindAll(ctx context.Context, specs ...specification.Specification) ([]*entity.PaymentProvider, error) {
	var models []*model.PaymentProvider
	query := r.applySpecifications(r.db.WithContext(ctx), specs...)
	if err := query.Find(&models).Error; err != nil {
		return nil, err
	}
	entities := make([]*entity.PaymentProvider, len(models))
	for i, m := range models {
		entities[i] = r.mapper.ToEntity(m)
	}
	return entities, nil
}

func (r *PaymentProviderRepositoryImpl) ClearDefaultExcept(ctx context.Context, id uint) error {
	return r.db.WithContext(ctx).
		Model(&model.PaymentProvider{}).
		Where("id <> ?", id).
		Update("is_default", false).Error
}

func (r *PaymentProviderRepositoryImpl) MarkDefault(ctx context.Context, id uint) error {
	result := r.db.WithContext(ctx).
		Model(&model.PaymentProvider{}).
		Where("id = ?", id).
		Update("is_default", true)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}
