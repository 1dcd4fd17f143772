package controller

import (
	"errors"

	"subscription-billing-be/internal/pkg/serverutils"
	"subscription-billing-be/internal/service"

	"github.com/gofiber/fiber/v2"
)

type IPaymentController interface {
	RegisterRoutes(r fiber.Router)
	DefaultProvider(ctx *fiber.Ctx) error
}

type paymentController struct {
	service service.IPaymentService
}

func NewPaymentController(service service.IPaymentService) IPaymentController {
	return &paymentController{service: service}
}

func (c *paymentController) RegisterRoutes(r fiber.Router) {
	h := r.Group("/payment")
	h.Get("/default-provider", c.DefaultProvider)
}

// DefaultProvider tells clients which checkout integration to load.
func (c *paymentController) DefaultProvider(ctx *fiber.Ctx) error {
	system, err := c.service.DefaultPaymentSystem(ctx.Context())
	if err != nil {
		if errors.Is(err, service.ErrNoDefaultProvider) {
			return ctx.Status(fiber.StatusServiceUnavailable).JSON(serverutils.ErrorResponse(503, "no default payment provider configured"))
		}
		return ctx.Status(fiber.StatusInternalServerError).JSON(serverutils.ErrorResponse(500, err.Error()))
	}
	return ctx.JSON(serverutils.SuccessResponse("Default payment provider", fiber.Map{
		"provider": system.Adapter.ProviderName(),
		"kind":     string(system.Kind),
	}))
}
