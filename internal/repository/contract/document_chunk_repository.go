package contract

import (
	"context"

	"library-assistant-be/internal/entity"
	"library-assistant-be/internal/repository/specification"

	"github.com/google/uuid"
)

type ScoredDocumentChunk struct {
	Chunk      *entity.DocumentChunk
	Similarity float64
}

// ChunkStats is the per-document breakdown shown on the stats endpoint.
type ChunkStats struct {
	Total    int64
	Embedded int64
	ByType   map[string]int64
}

type DocumentChunkRepository interface {
	CreateBulk(ctx context.Context, chunks []*entity.DocumentChunk) error
	UpdateEmbedding(ctx context.Context, id uuid.UUID, embedding []float32) error
	DeleteByDocumentId(ctx context.Context, documentId uuid.UUID) error
	FindAll(ctx context.Context, specs ...specification.Specification) ([]*entity.DocumentChunk, error)
	Count(ctx context.Context, specs ...specification.Specification) (int64, error)
	// SearchSimilarWithScore is scoped to one document. An empty kind matches
	// every chunk type.
	SearchSimilarWithScore(ctx context.Context, documentId uuid.UUID, embedding []float32, kind string, limit int, threshold float64) ([]*ScoredDocumentChunk, error)
	// Headings lists heading chunk texts in reading order.
	Headings(ctx context.Context, documentId uuid.UUID) ([]string, error)
	Stats(ctx context.Context, documentId uuid.UUID) (*ChunkStats, error)
}
