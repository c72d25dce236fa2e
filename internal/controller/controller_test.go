package controller

import (
	"context"
	"encoding/json"
	"net/http/httptest"
	"strings"
	"testing"

	"library-assistant-be/internal/dto"
	"library-assistant-be/internal/pkg/serverutils"
	"library-assistant-be/internal/service"
	"library-assistant-be/pkg/store"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubAssistantService struct {
	service.IAssistantService
	lastLibrary *dto.LibraryChatRequest
	lastUser    *store.UserInfo
	resetKey    string
}

func (s *stubAssistantService) LibraryChat(ctx context.Context, user *store.UserInfo, req *dto.LibraryChatRequest) (*dto.LibraryChatResponse, error) {
	s.lastLibrary = req
	s.lastUser = user
	return &dto.LibraryChatResponse{Answer: "ok", Action: "AVAILABILITY"}, nil
}

func (s *stubAssistantService) ResetLibrarySession(ctx context.Context, key string) error {
	s.resetKey = key
	return nil
}

type stubDocumentService struct {
	service.IDocumentService
	highlight *dto.HighlightRequest
}

func (s *stubDocumentService) Highlights(ctx context.Context, req *dto.HighlightRequest) (*dto.HighlightResponse, error) {
	s.highlight = req
	return &dto.HighlightResponse{Highlights: []dto.ChunkHighlight{}}, nil
}

func newTestApp(register func(r fiber.Router)) *fiber.App {
	app := fiber.New()
	app.Use(serverutils.ErrorHandlerMiddleware())
	register(app.Group("/api"))
	return app
}

func do(t *testing.T, app *fiber.App, method, path, body string) (int, map[string]interface{}) {
	t.Helper()
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	resp, err := app.Test(req)
	require.NoError(t, err)

	var out map[string]interface{}
	_ = json.NewDecoder(resp.Body).Decode(&out)
	return resp.StatusCode, out
}

func TestLibraryChatAnonymous(t *testing.T) {
	svc := &stubAssistantService{}
	app := newTestApp(NewLibraryController(svc, "secret").RegisterRoutes)

	code, body := do(t, app, "POST", "/api/library/v1/chat", `{"session_key":"abc","message":"Sách 1984 còn không?"}`)

	assert.Equal(t, fiber.StatusOK, code)
	assert.Equal(t, true, body["success"])
	require.NotNil(t, svc.lastLibrary)
	assert.Equal(t, "Sách 1984 còn không?", svc.lastLibrary.Message)
	assert.Nil(t, svc.lastUser)
}

func TestLibraryChatRequiresSessionKey(t *testing.T) {
	svc := &stubAssistantService{}
	app := newTestApp(NewLibraryController(svc, "secret").RegisterRoutes)

	code, body := do(t, app, "POST", "/api/library/v1/chat", `{"message":"hi"}`)

	assert.Equal(t, fiber.StatusBadRequest, code)
	assert.Equal(t, false, body["success"])
	assert.Nil(t, svc.lastLibrary)
}

func TestLibraryResetSession(t *testing.T) {
	svc := &stubAssistantService{}
	app := newTestApp(NewLibraryController(svc, "secret").RegisterRoutes)

	code, _ := do(t, app, "DELETE", "/api/library/v1/sessions/abc", "")
	assert.Equal(t, fiber.StatusOK, code)
	assert.Equal(t, "abc", svc.resetKey)
}

func TestPdfHighlightsBindsDocumentID(t *testing.T) {
	docs := &stubDocumentService{}
	app := newTestApp(NewPdfController(&stubAssistantService{}, docs, "secret").RegisterRoutes)
	id := uuid.New()

	code, _ := do(t, app, "POST", "/api/pdf/v1/documents/"+id.String()+"/highlights",
		`{"chunk_ids":["`+uuid.NewString()+`"],"viewport":{"scale":1.5,"page_width":612,"page_height":792}}`)

	assert.Equal(t, fiber.StatusOK, code)
	require.NotNil(t, docs.highlight)
	assert.Equal(t, id, docs.highlight.DocumentId)
	assert.Equal(t, 1.5, docs.highlight.Viewport.Scale)
}

func TestPdfIngestRequiresToken(t *testing.T) {
	app := newTestApp(NewPdfController(&stubAssistantService{}, &stubDocumentService{}, "secret").RegisterRoutes)

	code, _ := do(t, app, "POST", "/api/pdf/v1/documents", `{"title":"x"}`)
	assert.Equal(t, fiber.StatusUnauthorized, code)
}

func TestPdfRejectsBadDocumentID(t *testing.T) {
	app := newTestApp(NewPdfController(&stubAssistantService{}, &stubDocumentService{}, "secret").RegisterRoutes)

	code, _ := do(t, app, "GET", "/api/pdf/v1/documents/not-a-uuid", "")
	assert.Equal(t, fiber.StatusBadRequest, code)
}
