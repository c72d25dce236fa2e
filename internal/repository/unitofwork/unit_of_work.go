package unitofwork

import (
	"context"

	"library-assistant-be/internal/repository/contract"
)

type UnitOfWork interface {
	Begin(ctx context.Context) error
	Commit() error
	Rollback() error

	BookTitleRepository() contract.BookTitleRepository
	BookTitleEmbeddingRepository() contract.BookTitleEmbeddingRepository
	BookCopyRepository() contract.BookCopyRepository

	DocumentRepository() contract.DocumentRepository
	DocumentChunkRepository() contract.DocumentChunkRepository
}
