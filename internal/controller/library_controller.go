package controller

import (
	"library-assistant-be/internal/dto"
	"library-assistant-be/internal/pkg/serverutils"
	"library-assistant-be/internal/service"
	"library-assistant-be/pkg/rag/session"
	"library-assistant-be/pkg/store"

	"github.com/gofiber/fiber/v2"
)

type ILibraryController interface {
	RegisterRoutes(r fiber.Router)
	Chat(ctx *fiber.Ctx) error
	ShowSession(ctx *fiber.Ctx) error
	ResetSession(ctx *fiber.Ctx) error
}

type libraryController struct {
	assistantService service.IAssistantService
	jwtSecret        string
}

func NewLibraryController(assistantService service.IAssistantService, jwtSecret string) ILibraryController {
	return &libraryController{
		assistantService: assistantService,
		jwtSecret:        jwtSecret,
	}
}

func (c *libraryController) RegisterRoutes(r fiber.Router) {
	h := r.Group("/library/v1")
	h.Use(serverutils.OptionalJwtMiddleware(c.jwtSecret))
	h.Post("chat", c.Chat)
	h.Get("sessions/:key", c.ShowSession)
	h.Delete("sessions/:key", c.ResetSession)
}

// currentUser is nil for anonymous patrons.
func currentUser(ctx *fiber.Ctx) *store.UserInfo {
	id := serverutils.UserID(ctx)
	if id == "" {
		return nil
	}
	return &store.UserInfo{ID: id, Name: serverutils.UserName(ctx)}
}

func (c *libraryController) Chat(ctx *fiber.Ctx) error {
	var req dto.LibraryChatRequest
	if err := ctx.BodyParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, err.Error())
	}
	if err := serverutils.ValidateRequest(req); err != nil {
		return err
	}

	res, err := c.assistantService.LibraryChat(ctx.UserContext(), currentUser(ctx), &req)
	if err != nil {
		return err
	}
	return ctx.JSON(serverutils.SuccessResponse("Success library chat", res))
}

func (c *libraryController) ShowSession(ctx *fiber.Ctx) error {
	res, err := c.assistantService.GetSession(ctx.UserContext(), session.LibraryKey(ctx.Params("key")))
	if err != nil {
		return err
	}
	return ctx.JSON(serverutils.SuccessResponse("Success get session", res))
}

func (c *libraryController) ResetSession(ctx *fiber.Ctx) error {
	if err := c.assistantService.ResetLibrarySession(ctx.UserContext(), ctx.Params("key")); err != nil {
		return err
	}
	return ctx.JSON(serverutils.SuccessResponse[any]("Success reset session", nil))
}
