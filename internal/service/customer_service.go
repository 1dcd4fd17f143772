package service

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"subscription-billing-be/internal/dto"
	"subscription-billing-be/internal/entity"
	"subscription-billing-be/internal/pkg/logger"
	"subscription-billing-be/internal/repository/specification"
	"subscription-billing-be/internal/repository/unitofwork"

	"github.com/redis/go-redis/v9"
)

const customerModule = "customer_service"

// statusCacheTTL keeps status responses hot without letting a stale plan
// survive long; reconciliation writes invalidate the key anyway.
const statusCacheTTL = 30 * time.Second

func statusCacheKey(uid string) string {
	return "customer:status:" + uid
}

type ICustomerService interface {
	// ResolveForEvent applies the placeholder merge rule inside the caller's
	// unit of work and returns the customer a billing event belongs to,
	// creating one when needed.
	ResolveForEvent(ctx context.Context, uow unitofwork.UnitOfWork, uid, email string) (*entity.Customer, error)

	Status(ctx context.Context, req *dto.CustomerStatusRequest) (*dto.CustomerStatusResponse, error)
}

type customerService struct {
	uowFactory  unitofwork.RepositoryFactory
	redisClient *redis.Client
	log         logger.ILogger
	now         func() time.Time
}

func NewCustomerService(uowFactory unitofwork.RepositoryFactory, redisClient *redis.Client, log logger.ILogger) ICustomerService {
	return &customerService{
		uowFactory:  uowFactory,
		redisClient: redisClient,
		log:         log,
		now:         time.Now,
	}
}

func (s *customerService) ResolveForEvent(ctx context.Context, uow unitofwork.UnitOfWork, uid, email string) (*entity.Customer, error) {
	repo := uow.CustomerRepository()

	// No real uid yet: the purchase happened before registration, so the
	// customer lives under a placeholder uid derived from the email.
	if uid == "" {
		if email == "" {
			return nil, fmt.Errorf("%w: event carries neither uid nor email", ErrCustomerNotFound)
		}
		placeholder := entity.PlaceholderUid(email)
		customer, err := repo.FindOne(ctx, specification.ByUid{Uid: placeholder})
		if err != nil {
			return nil, err
		}
		if customer != nil {
			return customer, nil
		}
		customer = &entity.Customer{Uid: placeholder}
		if err := repo.Create(ctx, customer); err != nil {
			return nil, err
		}
		return customer, nil
	}

	customer, err := repo.FindOne(ctx, specification.ByUid{Uid: uid})
	if err != nil {
		return nil, err
	}

	var placeholder *entity.Customer
	if email != "" {
		placeholder, err = repo.FindOne(ctx, specification.ByUid{Uid: entity.PlaceholderUid(email)})
		if err != nil {
			return nil, err
		}
	}

	switch {
	case customer != nil && placeholder != nil:
		// Both exist independently. The placeholder's history is discarded,
		// not merged; see the status endpoint docs for this limitation.
		// Its subscriptions and logs must go first, the customer row is
		// referenced by a not-null foreign key.
		if err := s.discardPlaceholderHistory(ctx, uow, placeholder.Id); err != nil {
			return nil, err
		}
		if err := repo.Delete(ctx, placeholder.Id); err != nil {
			return nil, err
		}
		s.log.Warn(customerModule, "discarded placeholder customer with existing real uid", map[string]interface{}{
			"uid": uid, "placeholder_id": placeholder.Id,
		})
		return customer, nil
	case customer != nil:
		return customer, nil
	case placeholder != nil:
		// Rebind the placeholder to the real uid. Its subscriptions follow
		// because they reference the row id, not the uid.
		placeholder.Uid = uid
		if err := repo.Update(ctx, placeholder); err != nil {
			return nil, err
		}
		return placeholder, nil
	default:
		customer = &entity.Customer{Uid: uid}
		if err := repo.Create(ctx, customer); err != nil {
			return nil, err
		}
		return customer, nil
	}
}

func (s *customerService) discardPlaceholderHistory(ctx context.Context, uow unitofwork.UnitOfWork, customerId uint) error {
	subs, err := uow.SubscriptionRepository().FindAll(ctx, specification.OwnedBy{CustomerId: customerId})
	if err != nil {
		return err
	}
	for _, sub := range subs {
		if err := uow.PaymentLogRepository().DeleteForSubscription(ctx, sub.Id); err != nil {
			return err
		}
		if err := uow.SubscriptionRepository().Delete(ctx, sub.Id); err != nil {
			return err
		}
	}
	return nil
}

func (s *customerService) Status(ctx context.Context, req *dto.CustomerStatusRequest) (*dto.CustomerStatusResponse, error) {
	cacheUid := req.Uid
	if cacheUid == "" {
		cacheUid = entity.PlaceholderUid(req.Email)
	}

	if cached := s.readCachedStatus(ctx, cacheUid); cached != nil {
		return cached, nil
	}

	uow := s.uowFactory.NewUnitOfWork(ctx)
	if err := uow.Begin(ctx); err != nil {
		return nil, err
	}

	customer, err := s.ResolveForEvent(ctx, uow, req.Uid, req.Email)
	if err != nil {
		_ = uow.Rollback()
		return nil, err
	}
	if err := uow.Commit(); err != nil {
		return nil, err
	}

	// Reload with subscription relations outside the merge transaction.
	readUow := s.uowFactory.NewUnitOfWork(ctx)
	loaded, err := readUow.CustomerRepository().FindOneWithSubscriptions(ctx, specification.ByUid{Uid: customer.Uid})
	if err != nil {
		return nil, err
	}
	if loaded == nil {
		return nil, ErrCustomerNotFound
	}

	res := s.buildStatus(loaded)
	s.writeCachedStatus(ctx, cacheUid, res)
	return res, nil
}

// buildStatus picks the active subscription with the furthest next charge as
// the current plan.
func (s *customerService) buildStatus(customer *entity.Customer) *dto.CustomerStatusResponse {
	res := &dto.CustomerStatusResponse{Uid: customer.Uid}

	now := s.now()
	var current *entity.Subscription
	for _, sub := range customer.Subscriptions {
		if !sub.IsActive(now) {
			continue
		}
		if current == nil || (sub.NextBillingAt != nil && current.NextBillingAt != nil && sub.NextBillingAt.After(*current.NextBillingAt)) {
			current = sub
		}
	}
	if current == nil {
		return res
	}

	res.Active = true
	res.SubscriptionId = current.SubscriptionId
	res.NextBillingAt = current.NextBillingAt
	res.IsCanceled = current.Canceled()
	if current.Product != nil {
		res.ProductCode = current.Product.ProductCode
		res.ProductName = current.Product.Name
		res.ProductOptions = current.Product.Options
	}
	return res
}

func (s *customerService) readCachedStatus(ctx context.Context, uid string) *dto.CustomerStatusResponse {
	if s.redisClient == nil {
		return nil
	}
	raw, err := s.redisClient.Get(ctx, statusCacheKey(uid)).Bytes()
	if err != nil {
		if err != redis.Nil {
			s.log.Warn(customerModule, "status cache read failed", map[string]interface{}{
				"uid": uid, "error": err.Error(),
			})
		}
		return nil
	}
	var res dto.CustomerStatusResponse
	if err := json.Unmarshal(raw, &res); err != nil {
		return nil
	}
	return &res
}

func (s *customerService) writeCachedStatus(ctx context.Context, uid string, res *dto.CustomerStatusResponse) {
	if s.redisClient == nil {
		return
	}
	raw, err := json.Marshal(res)
	if err != nil {
		return
	}
	if err := s.redisClient.Set(ctx, statusCacheKey(uid), raw, statusCacheTTL).Err(); err != nil {
		s.log.Warn(customerModule, "status cache write failed", map[string]interface{}{
			"uid": uid, "error": err.Error(),
		})
	}
}
