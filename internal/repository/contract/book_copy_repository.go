package contract

import (
	"context"

	"library-assistant-be/internal/entity"
	"library-assistant-be/internal/repository/specification"

	"github.com/google/uuid"
)

type BookCopyRepository interface {
	CreateBulk(ctx context.Context, copies []*entity.BookCopy) error
	SetOnLoan(ctx context.Context, id uuid.UUID, onLoan bool) error
	FindAll(ctx context.Context, specs ...specification.Specification) ([]*entity.BookCopy, error)
	// CountByTitle aggregates active copies. It returns nil when the title
	// does not exist, and a zero count when it exists without copies.
	CountByTitle(ctx context.Context, bookTitleId string) (*entity.CopyCount, error)
}
