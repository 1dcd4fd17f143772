package controller

import (
	"errors"

	"subscription-billing-be/internal/pkg/logger"
	"subscription-billing-be/internal/pkg/serverutils"
	"subscription-billing-be/internal/service"
	"subscription-billing-be/pkg/billing"

	"github.com/gofiber/fiber/v2"
)

type IWebhookController interface {
	RegisterRoutes(r fiber.Router)
}

type webhookController struct {
	cardAdapter    billing.Adapter
	catalogAdapter billing.Adapter
	reconciler     service.IReconcilerService
	log            logger.ILogger
}

func NewWebhookController(
	cardAdapter billing.Adapter,
	catalogAdapter billing.Adapter,
	reconciler service.IReconcilerService,
	log logger.ILogger,
) IWebhookController {
	return &webhookController{
		cardAdapter:    cardAdapter,
		catalogAdapter: catalogAdapter,
		reconciler:     reconciler,
		log:            log,
	}
}

func (c *webhookController) RegisterRoutes(r fiber.Router) {
	h := r.Group("/payment/webhook")

	// Each card-provider event type is subscribed through its own endpoint
	// so every route verifies against its own signing secret.
	s := h.Group("/stripe")
	s.Post("/checkoutSessionCompleted", c.stripeHandler("checkout.session.completed"))
	s.Post("/customerSubscriptionUpdated", c.stripeHandler("customer.subscription.updated"))
	s.Post("/customerSubscriptionDeleted", c.stripeHandler("customer.subscription.deleted"))
	s.Post("/invoicePaid", c.stripeHandler("invoice.paid"))
	s.Post("/chargeRefunded", c.stripeHandler("charge.refunded"))
	s.Post("/chargeRefundUpdated", c.stripeHandler("charge.refund.updated"))
	// Shared endpoint for replayed fixtures; only usable when a test secret
	// is configured.
	s.Post("/commonTestRoute", c.stripeHandler(""))

	h.Post("/paddle", c.paddleHandler)
}

func (c *webhookController) stripeHandler(eventTypeHint string) fiber.Handler {
	return func(ctx *fiber.Ctx) error {
		return c.handle(ctx, c.cardAdapter, eventTypeHint, ctx.Get("Stripe-Signature"))
	}
}

func (c *webhookController) paddleHandler(ctx *fiber.Ctx) error {
	return c.handle(ctx, c.catalogAdapter, "", ctx.Get("Paddle-Signature"))
}

func (c *webhookController) handle(ctx *fiber.Ctx, adapter billing.Adapter, eventTypeHint, signature string) error {
	payload := ctx.Body()

	ev, err := adapter.VerifyAndNormalize(ctx.Context(), eventTypeHint, payload, signature)
	if err != nil {
		if errors.Is(err, billing.ErrVerification) {
			c.log.Warn("webhook", "rejected delivery with bad signature", map[string]interface{}{
				"provider": adapter.ProviderName(), "error": err.Error(),
			})
			return ctx.Status(fiber.StatusBadRequest).JSON(serverutils.ErrorResponse(400, "signature verification failed"))
		}
		c.log.Error("webhook", "normalization failed", map[string]interface{}{
			"provider": adapter.ProviderName(), "error": err.Error(),
		})
		// Non-2xx makes the provider redeliver once the fault clears.
		return ctx.Status(fiber.StatusInternalServerError).JSON(serverutils.ErrorResponse(500, "event processing failed"))
	}

	if err := c.reconciler.Process(ctx.Context(), ev); err != nil {
		if errors.Is(err, billing.ErrUnsupportedEvent) {
			// Acknowledged but ignored; retrying would never help.
			return ctx.JSON(serverutils.SuccessResponse("event ignored", nil))
		}
		c.log.Error("webhook", "reconciliation failed", map[string]interface{}{
			"provider": adapter.ProviderName(), "kind": string(ev.Kind), "error": err.Error(),
		})
		return ctx.Status(fiber.StatusInternalServerError).JSON(serverutils.ErrorResponse(500, "event processing failed"))
	}

	return ctx.JSON(serverutils.SuccessResponse("event processed", nil))
}
