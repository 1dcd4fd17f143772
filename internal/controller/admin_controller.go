package controller

import (
	"errors"

	"subscription-billing-be/internal/dto"
	"subscription-billing-be/internal/entity"
	"subscription-billing-be/internal/pkg/serverutils"
	"subscription-billing-be/internal/service"

	"github.com/gofiber/fiber/v2"
)

type IAdminController interface {
	RegisterRoutes(r fiber.Router)
	UserInfo(ctx *fiber.Ctx) error
	SetDefaultProvider(ctx *fiber.Ctx) error
	ListProviders(ctx *fiber.Ctx) error
}

type adminController struct {
	adminService    service.IAdminService
	providerService service.IProviderService
	jwtMiddleware   fiber.Handler
}

func NewAdminController(
	adminService service.IAdminService,
	providerService service.IProviderService,
	jwtMiddleware fiber.Handler,
) IAdminController {
	return &adminController{
		adminService:    adminService,
		providerService: providerService,
		jwtMiddleware:   jwtMiddleware,
	}
}

func (c *adminController) RegisterRoutes(r fiber.Router) {
	h := r.Group("/admin", c.jwtMiddleware)
	h.Get("/user-info", c.UserInfo)
	h.Get("/providers", c.ListProviders)
	h.Post("/default-provider", c.SetDefaultProvider)
}

func (c *adminController) UserInfo(ctx *fiber.Ctx) error {
	uid := ctx.Query("uid")
	if uid == "" {
		return ctx.Status(fiber.StatusBadRequest).JSON(serverutils.ErrorResponse(400, "uid is required"))
	}

	res, err := c.adminService.UserInfo(ctx.Context(), uid)
	if err != nil {
		if errors.Is(err, service.ErrCustomerNotFound) {
			return ctx.Status(fiber.StatusNotFound).JSON(serverutils.ErrorResponse(404, "customer not found"))
		}
		return ctx.Status(fiber.StatusInternalServerError).JSON(serverutils.ErrorResponse(500, err.Error()))
	}
	return ctx.JSON(serverutils.SuccessResponse("User info", res))
}

func (c *adminController) ListProviders(ctx *fiber.Ctx) error {
	providers, err := c.providerService.List(ctx.Context())
	if err != nil {
		return ctx.Status(fiber.StatusInternalServerError).JSON(serverutils.ErrorResponse(500, err.Error()))
	}
	res := make([]dto.DefaultProviderResponse, 0, len(providers))
	for _, p := range providers {
		res = append(res, dto.DefaultProviderResponse{
			Provider:  string(p.Name),
			IsDefault: p.IsDefault,
		})
	}
	return ctx.JSON(serverutils.SuccessResponse("Payment providers", res))
}

func (c *adminController) SetDefaultProvider(ctx *fiber.Ctx) error {
	var req dto.SetDefaultProviderRequest
	if err := ctx.BodyParser(&req); err != nil {
		return ctx.Status(fiber.StatusBadRequest).JSON(serverutils.ErrorResponse(400, "invalid request body"))
	}
	if err := serverutils.ValidateRequest(req); err != nil {
		return ctx.Status(fiber.StatusBadRequest).JSON(serverutils.ErrorResponse(400, err.Error()))
	}

	provider, err := c.providerService.SetDefault(ctx.Context(), entity.ProviderName(req.Provider))
	if err != nil {
		if errors.Is(err, service.ErrProviderNotFound) {
			return ctx.Status(fiber.StatusNotFound).JSON(serverutils.ErrorResponse(404, "provider not found"))
		}
		return ctx.Status(fiber.StatusInternalServerError).JSON(serverutils.ErrorResponse(500, err.Error()))
	}
	return ctx.JSON(serverutils.SuccessResponse("Default provider updated", &dto.DefaultProviderResponse{
		Provider:  string(provider.Name),
		IsDefault: provider.IsDefault,
	}))
}
