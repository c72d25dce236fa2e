package service

import (
	"context"
	"fmt"

	"library-assistant-be/internal/mapper"
	"library-assistant-be/internal/repository/specification"
	"library-assistant-be/internal/repository/unitofwork"
	"library-assistant-be/pkg/embedding"
	"library-assistant-be/pkg/rag"
	"library-assistant-be/pkg/store"

	"github.com/google/uuid"
)

// DocumentIndex serves chunk lookups and outlines for indexed PDFs.
type DocumentIndex struct {
	uowFactory        unitofwork.RepositoryFactory
	embeddingProvider embedding.EmbeddingProvider
	mapper            *mapper.DocumentMapper
}

func NewDocumentIndex(uowFactory unitofwork.RepositoryFactory, embeddingProvider embedding.EmbeddingProvider) *DocumentIndex {
	return &DocumentIndex{
		uowFactory:        uowFactory,
		embeddingProvider: embeddingProvider,
		mapper:            mapper.NewDocumentMapper(),
	}
}

func parseDocumentID(id string) (uuid.UUID, error) {
	docID, err := uuid.Parse(id)
	if err != nil {
		return uuid.Nil, fmt.Errorf("document %q: %w", id, rag.ErrNotFound)
	}
	return docID, nil
}

func (d *DocumentIndex) Similar(ctx context.Context, documentID, query, kind string, limit int, floor float64) ([]store.Chunk, error) {
	docID, err := parseDocumentID(documentID)
	if err != nil {
		return nil, err
	}

	res, err := d.embeddingProvider.Generate(ctx, query, embedding.TaskRetrievalQuery)
	if err != nil {
		return nil, fmt.Errorf("embed query: %w", err)
	}

	uow := d.uowFactory.NewUnitOfWork(ctx)
	scored, err := uow.DocumentChunkRepository().SearchSimilarWithScore(ctx, docID, res.Embedding.Values, kind, limit, floor)
	if err != nil {
		return nil, err
	}

	chunks := make([]store.Chunk, len(scored))
	for i, s := range scored {
		chunks[i] = d.mapper.ToStoreChunk(s.Chunk, s.Similarity)
	}
	return chunks, nil
}

func (d *DocumentIndex) ChunksOnPages(ctx context.Context, documentID string, pages []int) ([]store.Chunk, error) {
	if len(pages) == 0 {
		return nil, nil
	}
	docID, err := parseDocumentID(documentID)
	if err != nil {
		return nil, err
	}

	uow := d.uowFactory.NewUnitOfWork(ctx)
	chunks, err := uow.DocumentChunkRepository().FindAll(ctx,
		specification.ByDocumentID{DocumentID: docID},
		specification.OnPages{Pages: pages},
		specification.ReadingOrder{},
	)
	if err != nil {
		return nil, err
	}
	return d.mapper.ToStoreChunks(chunks), nil
}

func (d *DocumentIndex) ChunksUnderHeading(ctx context.Context, documentID, heading string, limit int) ([]store.Chunk, error) {
	docID, err := parseDocumentID(documentID)
	if err != nil {
		return nil, err
	}

	specs := []specification.Specification{
		specification.ByDocumentID{DocumentID: docID},
		specification.ByParentHeading{Heading: heading},
		specification.ReadingOrder{},
	}
	if limit > 0 {
		specs = append(specs, specification.Pagination{Limit: limit})
	}

	uow := d.uowFactory.NewUnitOfWork(ctx)
	chunks, err := uow.DocumentChunkRepository().FindAll(ctx, specs...)
	if err != nil {
		return nil, err
	}
	return d.mapper.ToStoreChunks(chunks), nil
}

// Outline returns nil for unknown documents. Documents still being indexed
// are returned with their status so callers can tell them apart.
func (d *DocumentIndex) Outline(ctx context.Context, documentID string) (*store.Outline, error) {
	docID, err := uuid.Parse(documentID)
	if err != nil {
		return nil, nil
	}

	uow := d.uowFactory.NewUnitOfWork(ctx)
	doc, err := uow.DocumentRepository().FindOne(ctx, specification.ByID{ID: docID})
	if err != nil {
		return nil, err
	}
	if doc == nil {
		return nil, nil
	}

	headings, err := uow.DocumentChunkRepository().Headings(ctx, docID)
	if err != nil {
		return nil, err
	}

	return &store.Outline{
		DocumentID: doc.Id.String(),
		Title:      doc.Title,
		PageCount:  doc.PageCount,
		Status:     doc.Status,
		Headings:   headings,
	}, nil
}

// ChunksByID returns the chunks of one document matching ids, in reading order.
func (d *DocumentIndex) ChunksByID(ctx context.Context, documentID uuid.UUID, ids []uuid.UUID) ([]store.Chunk, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	uow := d.uowFactory.NewUnitOfWork(ctx)
	chunks, err := uow.DocumentChunkRepository().FindAll(ctx,
		specification.ByDocumentID{DocumentID: documentID},
		specification.ByIDs{IDs: ids},
		specification.ReadingOrder{},
	)
	if err != nil {
		return nil, err
	}
	return d.mapper.ToStoreChunks(chunks), nil
}
