package service

import (
	"context"
	"encoding/json"
	"errors"

	"subscription-billing-be/internal/dto"
	"subscription-billing-be/internal/entity"
	"subscription-billing-be/internal/pkg/logger"
	"subscription-billing-be/internal/pkg/mailer"
	"subscription-billing-be/internal/repository/contract"
	"subscription-billing-be/internal/repository/unitofwork"
	pkgNats "subscription-billing-be/pkg/nats"

	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/ThreeDotsLabs/watermill/pubsub/gochannel"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

const dispatcherModule = "effect_dispatcher"

// IEffectDispatcher executes side effects after a reconciliation committed.
// Every effect is capture-and-log: no failure here ever reaches the webhook
// response, and nothing here re-triggers the ledger write.
type IEffectDispatcher interface {
	Dispatch(ctx context.Context, effects []SideEffect)
}

type effectDispatcher struct {
	uowFactory     unitofwork.RepositoryFactory
	pubSub         *gochannel.GoChannel
	analyticsTopic string
	redisClient    *redis.Client
	eventPublisher *pkgNats.Publisher
	emailService   mailer.IEmailService
	log            logger.ILogger
}

func NewEffectDispatcher(
	uowFactory unitofwork.RepositoryFactory,
	pubSub *gochannel.GoChannel,
	analyticsTopic string,
	redisClient *redis.Client,
	eventPublisher *pkgNats.Publisher,
	emailService mailer.IEmailService,
	log logger.ILogger,
) IEffectDispatcher {
	return &effectDispatcher{
		uowFactory:     uowFactory,
		pubSub:         pubSub,
		analyticsTopic: analyticsTopic,
		redisClient:    redisClient,
		eventPublisher: eventPublisher,
		emailService:   emailService,
		log:            log,
	}
}

func (d *effectDispatcher) Dispatch(ctx context.Context, effects []SideEffect) {
	for _, effect := range effects {
		switch e := effect.(type) {
		case PaymentLogEffect:
			d.appendPaymentLog(ctx, e)
		case AnalyticsNotifyEffect:
			d.publishAnalytics(dto.AnalyticsMessage{Kind: dto.AnalyticsKindNotify, Event: &e.Event})
		case AnalyticsAmendEffect:
			d.publishAnalytics(dto.AnalyticsMessage{Kind: dto.AnalyticsKindAmend, Amendment: &e.Amendment})
		case StatusInvalidateEffect:
			d.invalidateStatus(ctx, e.Uid)
		case BusEventEffect:
			d.publishBusEvent(ctx, e)
		case OpsAlertEffect:
			d.sendOpsAlert(e)
		default:
			d.log.Error(dispatcherModule, "unknown side effect", map[string]interface{}{
				"effect": effect.effectName(),
			})
		}
	}
}

func (d *effectDispatcher) appendPaymentLog(ctx context.Context, e PaymentLogEffect) {
	uow := d.uowFactory.NewUnitOfWork(ctx)
	log := &entity.PaymentLog{
		SubscriptionId: e.SubscriptionId,
		Data:           e.Payload,
	}
	err := uow.PaymentLogRepository().Append(ctx, log)
	if err != nil {
		if errors.Is(err, contract.ErrDuplicate) {
			// Lost a race with a concurrent delivery of the same payload.
			d.log.Debug(dispatcherModule, "payment log already recorded", map[string]interface{}{
				"subscription_id": e.SubscriptionId,
			})
			return
		}
		d.log.Error(dispatcherModule, "payment log append failed", map[string]interface{}{
			"subscription_id": e.SubscriptionId, "error": err.Error(),
		})
	}
}

func (d *effectDispatcher) publishAnalytics(msg dto.AnalyticsMessage) {
	payload, err := json.Marshal(msg)
	if err != nil {
		d.log.Error(dispatcherModule, "failed to marshal analytics message", map[string]interface{}{
			"error": err.Error(),
		})
		return
	}
	if err := d.pubSub.Publish(d.analyticsTopic, message.NewMessage(uuid.NewString(), payload)); err != nil {
		d.log.Warn(dispatcherModule, "failed to queue analytics message", map[string]interface{}{
			"error": err.Error(),
		})
	}
}

func (d *effectDispatcher) invalidateStatus(ctx context.Context, uid string) {
	if d.redisClient == nil || uid == "" {
		return
	}
	if err := d.redisClient.Del(ctx, statusCacheKey(uid)).Err(); err != nil {
		d.log.Warn(dispatcherModule, "failed to invalidate status cache", map[string]interface{}{
			"uid": uid, "error": err.Error(),
		})
	}
}

func (d *effectDispatcher) publishBusEvent(ctx context.Context, e BusEventEffect) {
	if d.eventPublisher == nil {
		return
	}
	if err := d.eventPublisher.Publish(ctx, e.Event); err != nil {
		d.log.Warn(dispatcherModule, "failed to publish bus event", map[string]interface{}{
			"event_type": e.Event.EventType(), "error": err.Error(),
		})
	}
}

func (d *effectDispatcher) sendOpsAlert(e OpsAlertEffect) {
	if d.emailService == nil {
		return
	}
	if err := d.emailService.SendOpsAlert(e.Subject, e.Detail); err != nil {
		d.log.Warn(dispatcherModule, "failed to send ops alert", map[string]interface{}{
			"subject": e.Subject, "error": err.Error(),
		})
	}
}
