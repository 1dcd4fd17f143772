package controller

import (
	"errors"

	"subscription-billing-be/internal/dto"
	"subscription-billing-be/internal/pkg/serverutils"
	"subscription-billing-be/internal/service"

	"github.com/gofiber/fiber/v2"
)

type ICustomerController interface {
	RegisterRoutes(r fiber.Router)
	Status(ctx *fiber.Ctx) error
}

type customerController struct {
	service service.ICustomerService
}

func NewCustomerController(service service.ICustomerService) ICustomerController {
	return &customerController{service: service}
}

func (c *customerController) RegisterRoutes(r fiber.Router) {
	h := r.Group("/customer")
	h.Post("/status", c.Status)
}

func (c *customerController) Status(ctx *fiber.Ctx) error {
	var req dto.CustomerStatusRequest
	if err := ctx.BodyParser(&req); err != nil {
		return ctx.Status(fiber.StatusBadRequest).JSON(serverutils.ErrorResponse(400, "invalid request body"))
	}
	if err := serverutils.ValidateRequest(req); err != nil {
		return ctx.Status(fiber.StatusBadRequest).JSON(serverutils.ErrorResponse(400, err.Error()))
	}

	res, err := c.service.Status(ctx.Context(), &req)
	if err != nil {
		if errors.Is(err, service.ErrCustomerNotFound) {
			return ctx.Status(fiber.StatusNotFound).JSON(serverutils.ErrorResponse(404, "customer not found"))
		}
		return ctx.Status(fiber.StatusInternalServerError).JSON(serverutils.ErrorResponse(500, err.Error()))
	}
	return ctx.JSON(serverutils.SuccessResponse("Customer status", res))
}
