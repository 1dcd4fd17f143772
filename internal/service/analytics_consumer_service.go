package service

import (
	"context"
	"encoding/json"
	"time"

	"subscription-billing-be/internal/dto"
	"subscription-billing-be/internal/pkg/logger"
	"subscription-billing-be/pkg/analytics"

	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/ThreeDotsLabs/watermill/pubsub/gochannel"
)

const analyticsConsumerModule = "analytics_consumer"

// deliveryTimeout bounds each collector call regardless of upstream latency.
const deliveryTimeout = 5 * time.Second

type IAnalyticsConsumerService interface {
	Consume(ctx context.Context) error
}

type analyticsConsumerService struct {
	pubSub    *gochannel.GoChannel
	topicName string
	client    *analytics.Client
	log       logger.ILogger
}

func NewAnalyticsConsumerService(
	pubSub *gochannel.GoChannel,
	topicName string,
	client *analytics.Client,
	log logger.ILogger,
) IAnalyticsConsumerService {
	return &analyticsConsumerService{
		pubSub:    pubSub,
		topicName: topicName,
		client:    client,
		log:       log,
	}
}

func (cs *analyticsConsumerService) Consume(ctx context.Context) error {
	messages, err := cs.pubSub.Subscribe(ctx, cs.topicName)
	if err != nil {
		return err
	}

	go func() {
		for msg := range messages {
			cs.processMessage(msg)
		}
	}()

	return nil
}

// processMessage always acks: delivery is best-effort and a failed collector
// call is logged and dropped, never redelivered.
func (cs *analyticsConsumerService) processMessage(msg *message.Message) {
	defer msg.Ack()

	var payload dto.AnalyticsMessage
	if err := json.Unmarshal(msg.Payload, &payload); err != nil {
		cs.log.Error(analyticsConsumerModule, "failed to unmarshal analytics message", map[string]interface{}{
			"error": err.Error(),
		})
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), deliveryTimeout)
	defer cancel()

	var err error
	switch payload.Kind {
	case dto.AnalyticsKindNotify:
		if payload.Event == nil {
			return
		}
		err = cs.client.Notify(ctx, *payload.Event)
	case dto.AnalyticsKindAmend:
		if payload.Amendment == nil {
			return
		}
		err = cs.client.ModifyEvent(ctx, *payload.Amendment)
	default:
		cs.log.Warn(analyticsConsumerModule, "unknown analytics message kind", map[string]interface{}{
			"kind": payload.Kind,
		})
		return
	}

	if err != nil {
		cs.log.Warn(analyticsConsumerModule, "collector delivery failed", map[string]interface{}{
			"kind": payload.Kind, "error": err.Error(),
		})
	}
}
