package contract

import (
	"context"

	"library-assistant-be/internal/entity"
	"library-assistant-be/internal/repository/specification"
)

// ScoredBookTitle pairs a title with its full-text rank.
type ScoredBookTitle struct {
	Title *entity.BookTitle
	Rank  float64
}

type BookTitleRepository interface {
	Create(ctx context.Context, title *entity.BookTitle) error
	// Upsert inserts or refreshes titles keyed by catalog identifier.
	Upsert(ctx context.Context, titles []*entity.BookTitle) error
	Delete(ctx context.Context, id string) error
	FindOne(ctx context.Context, specs ...specification.Specification) (*entity.BookTitle, error)
	FindAll(ctx context.Context, specs ...specification.Specification) ([]*entity.BookTitle, error)
	Count(ctx context.Context, specs ...specification.Specification) (int64, error)
	// KeywordSearch ranks titles by full-text match over title and description.
	KeywordSearch(ctx context.Context, query string, limit int) ([]*ScoredBookTitle, error)
}
