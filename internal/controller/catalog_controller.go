package controller

import (
	"library-assistant-be/internal/dto"
	"library-assistant-be/internal/pkg/serverutils"
	"library-assistant-be/internal/service"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
)

type ICatalogController interface {
	RegisterRoutes(r fiber.Router)
	Availability(ctx *fiber.Ctx) error
	UpsertTitles(ctx *fiber.Ctx) error
	Reindex(ctx *fiber.Ctx) error
	SetLoan(ctx *fiber.Ctx) error
}

type catalogController struct {
	catalogService service.ICatalogService
	jwtSecret      string
}

func NewCatalogController(catalogService service.ICatalogService, jwtSecret string) ICatalogController {
	return &catalogController{
		catalogService: catalogService,
		jwtSecret:      jwtSecret,
	}
}

func (c *catalogController) RegisterRoutes(r fiber.Router) {
	h := r.Group("/catalog/v1")
	h.Get("titles/:id/availability", c.Availability)

	auth := serverutils.JwtMiddleware(c.jwtSecret)
	h.Post("titles", auth, c.UpsertTitles)
	h.Post("reindex", auth, c.Reindex)
	h.Put("copies/:id/loan", auth, c.SetLoan)
}

func (c *catalogController) Availability(ctx *fiber.Ctx) error {
	res, err := c.catalogService.Availability(ctx.UserContext(), ctx.Params("id"))
	if err != nil {
		return err
	}
	return ctx.JSON(serverutils.SuccessResponse("Success get availability", res))
}

func (c *catalogController) UpsertTitles(ctx *fiber.Ctx) error {
	var req dto.UpsertTitlesRequest
	if err := ctx.BodyParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, err.Error())
	}
	if err := serverutils.ValidateRequest(req); err != nil {
		return err
	}

	res, err := c.catalogService.UpsertTitles(ctx.UserContext(), &req)
	if err != nil {
		return err
	}
	return ctx.JSON(serverutils.SuccessResponse("Success upsert titles", res))
}

func (c *catalogController) Reindex(ctx *fiber.Ctx) error {
	var req dto.ReindexCatalogRequest
	if len(ctx.Body()) > 0 {
		if err := ctx.BodyParser(&req); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, err.Error())
		}
	}

	res, err := c.catalogService.Reindex(ctx.UserContext(), &req)
	if err != nil {
		return err
	}
	return ctx.Status(fiber.StatusAccepted).JSON(serverutils.SuccessResponse("Catalog reindex queued", res))
}

func (c *catalogController) SetLoan(ctx *fiber.Ctx) error {
	id, err := uuid.Parse(ctx.Params("id"))
	if err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid copy id")
	}
	var req dto.SetLoanRequest
	if err := ctx.BodyParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, err.Error())
	}

	if err := c.catalogService.SetLoan(ctx.UserContext(), id, &req); err != nil {
		return err
	}
	return ctx.JSON(serverutils.SuccessResponse[any]("Success update loan", nil))
}
