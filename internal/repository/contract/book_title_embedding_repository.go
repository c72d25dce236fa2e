package contract

import (
	"context"

	"library-assistant-be/internal/entity"
)

// ScoredBookTitleEmbedding wraps BookTitleEmbedding with its similarity score
type ScoredBookTitleEmbedding struct {
	Embedding  *entity.BookTitleEmbedding
	Similarity float64 // 0.0 to 1.0 (1.0 = identical)
}

type BookTitleEmbeddingRepository interface {
	// Upsert replaces the single embedding kept per title.
	Upsert(ctx context.Context, embedding *entity.BookTitleEmbedding) error
	DeleteByBookTitleId(ctx context.Context, bookTitleId string) error
	Count(ctx context.Context) (int64, error)
	SearchSimilarWithScore(ctx context.Context, embedding []float32, limit int, threshold float64) ([]*ScoredBookTitleEmbedding, error)
}
