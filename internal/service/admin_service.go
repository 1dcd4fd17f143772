package service

import (
	"context"
	"fmt"
	"time"

	"subscription-billing-be/internal/dto"
	"subscription-billing-be/internal/pkg/logger"
	"subscription-billing-be/internal/repository/specification"
	"subscription-billing-be/internal/repository/unitofwork"
)

type IAdminService interface {
	UserInfo(ctx context.Context, uid string) (*dto.AdminUserInfoResponse, error)
}

type adminService struct {
	uowFactory unitofwork.RepositoryFactory
	log        logger.ILogger
	now        func() time.Time
}

func NewAdminService(uowFactory unitofwork.RepositoryFactory, log logger.ILogger) IAdminService {
	return &adminService{
		uowFactory: uowFactory,
		log:        log,
		now:        time.Now,
	}
}

func (s *adminService) UserInfo(ctx context.Context, uid string) (*dto.AdminUserInfoResponse, error) {
	uow := s.uowFactory.NewUnitOfWork(ctx)
	customer, err := uow.CustomerRepository().FindOneWithSubscriptions(ctx, specification.ByUid{Uid: uid})
	if err != nil {
		return nil, err
	}
	if customer == nil {
		return nil, fmt.Errorf("%w: uid %q", ErrCustomerNotFound, uid)
	}

	res := &dto.AdminUserInfoResponse{
		Uid:            customer.Uid,
		AdditionalData: customer.AdditionalData,
		Subscriptions:  make([]dto.AdminSubscriptionInfo, 0, len(customer.Subscriptions)),
	}
	now := s.now()
	for _, sub := range customer.Subscriptions {
		info := dto.AdminSubscriptionInfo{
			Id:             sub.Id,
			SubscriptionId: sub.SubscriptionId,
			CreatedAt:      sub.CreatedAt,
			NextBillingAt:  sub.NextBillingAt,
			IsCanceled:     sub.IsCanceled,
			Active:         sub.IsActive(now),
		}
		if sub.Product != nil {
			info.ProductCode = sub.Product.ProductCode
			info.ProductName = sub.Product.Name
		}
		if sub.PaymentProvider != nil {
			info.Provider = string(sub.PaymentProvider.Name)
		}
		res.Subscriptions = append(res.Subscriptions, info)
	}
	return res, nil
}
