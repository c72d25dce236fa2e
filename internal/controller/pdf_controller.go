package controller

import (
	"library-assistant-be/internal/dto"
	"library-assistant-be/internal/pkg/serverutils"
	"library-assistant-be/internal/service"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
)

type IPdfController interface {
	RegisterRoutes(r fiber.Router)
	Chat(ctx *fiber.Ctx) error
	Ingest(ctx *fiber.Ctx) error
	Show(ctx *fiber.Ctx) error
	Stats(ctx *fiber.Ctx) error
	Highlights(ctx *fiber.Ctx) error
	Delete(ctx *fiber.Ctx) error
	ResetSession(ctx *fiber.Ctx) error
}

type pdfController struct {
	assistantService service.IAssistantService
	documentService  service.IDocumentService
	jwtSecret        string
}

func NewPdfController(assistantService service.IAssistantService, documentService service.IDocumentService, jwtSecret string) IPdfController {
	return &pdfController{
		assistantService: assistantService,
		documentService:  documentService,
		jwtSecret:        jwtSecret,
	}
}

func (c *pdfController) RegisterRoutes(r fiber.Router) {
	h := r.Group("/pdf/v1")
	h.Post("chat", serverutils.OptionalJwtMiddleware(c.jwtSecret), c.Chat)
	h.Get("documents/:id", c.Show)
	h.Get("documents/:id/stats", c.Stats)
	h.Post("documents/:id/highlights", c.Highlights)
	h.Delete("sessions/:key/:documentId", c.ResetSession)

	// Ingestion is for librarians only.
	h.Post("documents", serverutils.JwtMiddleware(c.jwtSecret), c.Ingest)
	h.Delete("documents/:id", serverutils.JwtMiddleware(c.jwtSecret), c.Delete)
}

func documentID(ctx *fiber.Ctx) (uuid.UUID, error) {
	id, err := uuid.Parse(ctx.Params("id"))
	if err != nil {
		return uuid.Nil, fiber.NewError(fiber.StatusBadRequest, "invalid document id")
	}
	return id, nil
}

func (c *pdfController) Chat(ctx *fiber.Ctx) error {
	var req dto.PdfChatRequest
	if err := ctx.BodyParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, err.Error())
	}
	if err := serverutils.ValidateRequest(req); err != nil {
		return err
	}

	res, err := c.assistantService.PdfChat(ctx.UserContext(), currentUser(ctx), &req)
	if err != nil {
		return err
	}
	return ctx.JSON(serverutils.SuccessResponse("Success pdf chat", res))
}

func (c *pdfController) Ingest(ctx *fiber.Ctx) error {
	var req dto.IngestDocumentRequest
	if err := ctx.BodyParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, err.Error())
	}
	if err := serverutils.ValidateRequest(req); err != nil {
		return err
	}

	res, err := c.documentService.Ingest(ctx.UserContext(), &req)
	if err != nil {
		return err
	}
	return ctx.Status(fiber.StatusAccepted).JSON(serverutils.SuccessResponse("Document queued for indexing", res))
}

func (c *pdfController) Show(ctx *fiber.Ctx) error {
	id, err := documentID(ctx)
	if err != nil {
		return err
	}
	res, err := c.documentService.Show(ctx.UserContext(), id)
	if err != nil {
		return err
	}
	return ctx.JSON(serverutils.SuccessResponse("Success show document", res))
}

func (c *pdfController) Stats(ctx *fiber.Ctx) error {
	id, err := documentID(ctx)
	if err != nil {
		return err
	}
	res, err := c.documentService.Stats(ctx.UserContext(), id)
	if err != nil {
		return err
	}
	return ctx.JSON(serverutils.SuccessResponse("Success document stats", res))
}

func (c *pdfController) Highlights(ctx *fiber.Ctx) error {
	id, err := documentID(ctx)
	if err != nil {
		return err
	}

	var req dto.HighlightRequest
	if err := ctx.BodyParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, err.Error())
	}
	req.DocumentId = id
	if err := serverutils.ValidateRequest(req); err != nil {
		return err
	}

	res, err := c.documentService.Highlights(ctx.UserContext(), &req)
	if err != nil {
		return err
	}
	return ctx.JSON(serverutils.SuccessResponse("Success map highlights", res))
}

func (c *pdfController) Delete(ctx *fiber.Ctx) error {
	id, err := documentID(ctx)
	if err != nil {
		return err
	}
	if err := c.documentService.Delete(ctx.UserContext(), id); err != nil {
		return err
	}
	return ctx.JSON(serverutils.SuccessResponse[any]("Success delete document", nil))
}

func (c *pdfController) ResetSession(ctx *fiber.Ctx) error {
	if err := c.assistantService.ResetPdfSession(ctx.UserContext(), ctx.Params("key"), ctx.Params("documentId")); err != nil {
		return err
	}
	return ctx.JSON(serverutils.SuccessResponse[any]("Success reset session", nil))
}
