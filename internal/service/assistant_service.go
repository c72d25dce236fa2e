package service

import (
	"context"
	"strings"

	"library-assistant-be/internal/dto"
	"library-assistant-be/pkg/ai/router"
	"library-assistant-be/pkg/rag/session"
	"library-assistant-be/pkg/store"
)

// Assistant is the conversational core; *router.Router implements it.
type Assistant interface {
	HandleLibraryTurn(ctx context.Context, sessionKey, message string, user *store.UserInfo) *router.LibraryReply
	HandlePdfTurn(ctx context.Context, sessionKey, documentID, message string, user *store.UserInfo) *router.PdfReply
}

type IAssistantService interface {
	LibraryChat(ctx context.Context, user *store.UserInfo, req *dto.LibraryChatRequest) (*dto.LibraryChatResponse, error)
	PdfChat(ctx context.Context, user *store.UserInfo, req *dto.PdfChatRequest) (*dto.PdfChatResponse, error)
	GetSession(ctx context.Context, key string) (*dto.SessionResponse, error)
	ResetLibrarySession(ctx context.Context, sessionKey string) error
	ResetPdfSession(ctx context.Context, sessionKey, documentID string) error
}

type assistantService struct {
	assistant Assistant
	sessions  *session.Manager
}

func NewAssistantService(assistant Assistant, sessions *session.Manager) IAssistantService {
	return &assistantService{
		assistant: assistant,
		sessions:  sessions,
	}
}

func (s *assistantService) LibraryChat(ctx context.Context, user *store.UserInfo, req *dto.LibraryChatRequest) (*dto.LibraryChatResponse, error) {
	reply := s.assistant.HandleLibraryTurn(ctx, req.SessionKey, req.Message, user)

	res := &dto.LibraryChatResponse{
		Answer:       reply.Answer,
		Action:       string(reply.Action),
		Titles:       make([]dto.CatalogTitleResponse, 0, len(reply.Titles)),
		Availability: make([]dto.AvailabilityResponse, 0, len(reply.Availability)),
	}
	for _, t := range reply.Titles {
		res.Titles = append(res.Titles, dto.CatalogTitleResponse{
			Id:       t.ID,
			Title:    t.Title,
			Author:   t.Author,
			Category: t.Category,
			Score:    t.Score,
		})
	}
	for _, a := range reply.Availability {
		res.Availability = append(res.Availability, dto.AvailabilityResponse{
			Id:        a.ID,
			Title:     a.Title,
			Total:     a.Total,
			Available: a.Available,
			OnLoan:    a.OnLoan(),
		})
	}
	return res, nil
}

func (s *assistantService) PdfChat(ctx context.Context, user *store.UserInfo, req *dto.PdfChatRequest) (*dto.PdfChatResponse, error) {
	reply := s.assistant.HandlePdfTurn(ctx, req.SessionKey, req.DocumentId, req.Message, user)

	res := &dto.PdfChatResponse{
		Answer:      reply.Answer,
		Strategy:    string(reply.Strategy),
		Grounded:    reply.Grounded,
		SourceSpans: make([]dto.SourceSpanResponse, 0, len(reply.Sources)),
	}
	for _, src := range reply.Sources {
		res.SourceSpans = append(res.SourceSpans, dto.SourceSpanResponse{
			ChunkId: src.ChunkID,
			Page:    src.Page,
			Boxes:   src.Boxes,
		})
	}
	return res, nil
}

// GetSession takes the full stored key, e.g. "library:abc".
func (s *assistantService) GetSession(ctx context.Context, key string) (*dto.SessionResponse, error) {
	snap, err := s.sessions.Snapshot(ctx, key)
	if err != nil {
		return nil, err
	}
	res := &dto.SessionResponse{Key: key, Seen: []store.SeenTitle{}, History: []store.Turn{}}
	if snap != nil {
		res.Seen = append(res.Seen, snap.Seen...)
		res.History = append(res.History, snap.History...)
	}
	return res, nil
}

func (s *assistantService) ResetLibrarySession(ctx context.Context, sessionKey string) error {
	return s.sessions.Reset(ctx, session.LibraryKey(sessionKey))
}

func (s *assistantService) ResetPdfSession(ctx context.Context, sessionKey, documentID string) error {
	return s.sessions.Reset(ctx, session.PDFKey(sessionKey, strings.TrimSpace(documentID)))
}
