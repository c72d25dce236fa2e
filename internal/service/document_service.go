package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"library-assistant-be/internal/dto"
	"library-assistant-be/internal/entity"
	"library-assistant-be/internal/pkg/logger"
	"library-assistant-be/internal/repository/specification"
	"library-assistant-be/internal/repository/unitofwork"
	"library-assistant-be/pkg/highlight"
	"library-assistant-be/pkg/rag"
	"library-assistant-be/pkg/store"
	"library-assistant-be/pkg/utils"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
)

type IDocumentService interface {
	Ingest(ctx context.Context, req *dto.IngestDocumentRequest) (*dto.IngestDocumentResponse, error)
	Show(ctx context.Context, id uuid.UUID) (*dto.DocumentResponse, error)
	Stats(ctx context.Context, id uuid.UUID) (*dto.DocumentStatsResponse, error)
	Highlights(ctx context.Context, req *dto.HighlightRequest) (*dto.HighlightResponse, error)
	Delete(ctx context.Context, id uuid.UUID) error
}

// ChunkLookup resolves chunk ids of one document in reading order.
type ChunkLookup interface {
	ChunksByID(ctx context.Context, documentID uuid.UUID, ids []uuid.UUID) ([]store.Chunk, error)
}

type documentService struct {
	uowFactory       unitofwork.RepositoryFactory
	publisherService IPublisherService
	chunks           ChunkLookup
	chunkSize        int
	chunkOverlap     int
	logger           logger.ILogger
}

func NewDocumentService(
	uowFactory unitofwork.RepositoryFactory,
	publisherService IPublisherService,
	chunks ChunkLookup,
	chunkSize, chunkOverlap int,
	log logger.ILogger,
) IDocumentService {
	return &documentService{
		uowFactory:       uowFactory,
		publisherService: publisherService,
		chunks:           chunks,
		chunkSize:        chunkSize,
		chunkOverlap:     chunkOverlap,
		logger:           log,
	}
}

// Ingest stores an extracted document and queues it for embedding. The
// document is not answerable until the embedding job marks it indexed.
func (s *documentService) Ingest(ctx context.Context, req *dto.IngestDocumentRequest) (*dto.IngestDocumentResponse, error) {
	doc := &entity.Document{
		Id:         uuid.New(),
		Title:      strings.TrimSpace(req.Title),
		SourceName: req.SourceName,
		PageCount:  req.PageCount,
		Status:     entity.DocumentStatusPending,
		Metadata:   req.Metadata,
		CreatedAt:  time.Now(),
	}
	chunks := s.buildChunks(doc.Id, req.Chunks)

	uow := s.uowFactory.NewUnitOfWork(ctx)
	if err := uow.Begin(ctx); err != nil {
		return nil, err
	}
	defer uow.Rollback()

	if err := uow.DocumentRepository().Create(ctx, doc); err != nil {
		return nil, err
	}
	if err := uow.DocumentChunkRepository().CreateBulk(ctx, chunks); err != nil {
		return nil, err
	}
	if err := uow.Commit(); err != nil {
		return nil, err
	}

	if err := s.publisherService.SendMessage(ctx, TopicEmbedDocument, dto.EmbedDocumentMessage{DocumentId: doc.Id}); err != nil {
		s.logger.Error("DOCUMENT", "Failed to queue embedding job", map[string]interface{}{
			"document_id": doc.Id.String(),
			"error":       err.Error(),
		})
		return nil, err
	}

	s.logger.Info("DOCUMENT", "Document ingested", map[string]interface{}{
		"document_id": doc.Id.String(),
		"pages":       doc.PageCount,
		"chunks":      len(chunks),
	})

	return &dto.IngestDocumentResponse{
		Id:         doc.Id,
		Status:     doc.Status,
		ChunkCount: len(chunks),
	}, nil
}

// buildChunks assigns document-wide reading order and splits text blocks
// longer than the embedding window. Split parts keep the block's boxes.
func (s *documentService) buildChunks(docID uuid.UUID, in []dto.IngestChunkRequest) []*entity.DocumentChunk {
	chunks := make([]*entity.DocumentChunk, 0, len(in))
	order := 0
	for _, c := range in {
		kind := c.Type
		if kind == "" {
			kind = store.ChunkText
		}

		parts := []string{c.Content}
		if kind == store.ChunkText {
			parts = utils.SplitText(c.Content, s.chunkSize, s.chunkOverlap)
		}

		for _, part := range parts {
			chunks = append(chunks, &entity.DocumentChunk{
				Id:            uuid.New(),
				DocumentId:    docID,
				Page:          c.Page,
				ChunkIndex:    order,
				Type:          kind,
				ParentHeading: strings.TrimSpace(c.ParentHeading),
				Content:       part,
				BBoxes:        c.BBoxes,
				CreatedAt:     time.Now(),
			})
			order++
		}
	}
	return chunks
}

func (s *documentService) find(ctx context.Context, uow unitofwork.UnitOfWork, id uuid.UUID) (*entity.Document, error) {
	doc, err := uow.DocumentRepository().FindOne(ctx, specification.ByID{ID: id})
	if err != nil {
		return nil, err
	}
	if doc == nil {
		return nil, fmt.Errorf("document %s: %w", id, rag.ErrNotFound)
	}
	return doc, nil
}

func (s *documentService) Show(ctx context.Context, id uuid.UUID) (*dto.DocumentResponse, error) {
	uow := s.uowFactory.NewUnitOfWork(ctx)
	doc, err := s.find(ctx, uow, id)
	if err != nil {
		return nil, err
	}
	headings, err := uow.DocumentChunkRepository().Headings(ctx, id)
	if err != nil {
		return nil, err
	}
	if headings == nil {
		headings = []string{}
	}

	return &dto.DocumentResponse{
		Id:         doc.Id,
		Title:      doc.Title,
		SourceName: doc.SourceName,
		PageCount:  doc.PageCount,
		Status:     doc.Status,
		Headings:   headings,
		CreatedAt:  doc.CreatedAt,
		UpdatedAt:  doc.UpdatedAt,
	}, nil
}

func (s *documentService) Stats(ctx context.Context, id uuid.UUID) (*dto.DocumentStatsResponse, error) {
	uow := s.uowFactory.NewUnitOfWork(ctx)
	doc, err := s.find(ctx, uow, id)
	if err != nil {
		return nil, err
	}
	stats, err := uow.DocumentChunkRepository().Stats(ctx, id)
	if err != nil {
		return nil, err
	}

	return &dto.DocumentStatsResponse{
		DocumentId: id,
		Status:     doc.Status,
		Total:      stats.Total,
		Embedded:   stats.Embedded,
		ByType:     stats.ByType,
	}, nil
}

// Highlights maps chunk boxes for the caller's current viewport. Regions
// are never cached; every zoom or page change asks again.
func (s *documentService) Highlights(ctx context.Context, req *dto.HighlightRequest) (*dto.HighlightResponse, error) {
	ids := make([]uuid.UUID, 0, len(req.ChunkIds))
	for _, raw := range req.ChunkIds {
		id, err := uuid.Parse(raw)
		if err != nil {
			return nil, fiber.NewError(fiber.StatusBadRequest, fmt.Sprintf("invalid chunk id %q", raw))
		}
		ids = append(ids, id)
	}

	uow := s.uowFactory.NewUnitOfWork(ctx)
	if _, err := s.find(ctx, uow, req.DocumentId); err != nil {
		return nil, err
	}
	chunks, err := s.chunks.ChunksByID(ctx, req.DocumentId, ids)
	if err != nil {
		return nil, err
	}

	res := &dto.HighlightResponse{Highlights: make([]dto.ChunkHighlight, 0, len(chunks))}
	for _, c := range chunks {
		if req.Page > 0 && c.Page != req.Page {
			continue
		}
		res.Highlights = append(res.Highlights, dto.ChunkHighlight{
			ChunkId: c.ID,
			Page:    c.Page,
			Regions: highlight.Map(c.Boxes, req.Viewport),
		})
	}
	return res, nil
}

func (s *documentService) Delete(ctx context.Context, id uuid.UUID) error {
	uow := s.uowFactory.NewUnitOfWork(ctx)
	if _, err := s.find(ctx, uow, id); err != nil {
		return err
	}

	if err := uow.Begin(ctx); err != nil {
		return err
	}
	defer uow.Rollback()

	if err := uow.DocumentChunkRepository().DeleteByDocumentId(ctx, id); err != nil {
		return err
	}
	if err := uow.DocumentRepository().Delete(ctx, id); err != nil {
		return err
	}
	return uow.Commit()
}
