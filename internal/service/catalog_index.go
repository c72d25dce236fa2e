package service

import (
	"context"
	"fmt"

	"library-assistant-be/internal/mapper"
	"library-assistant-be/internal/repository/specification"
	"library-assistant-be/internal/repository/unitofwork"
	"library-assistant-be/pkg/embedding"
	"library-assistant-be/pkg/rag/search"
	"library-assistant-be/pkg/store"
)

// CatalogIndex exposes the relational catalog to the retrieval components:
// full-text and vector search for the fuser, hydration, and copy counts.
type CatalogIndex struct {
	uowFactory        unitofwork.RepositoryFactory
	embeddingProvider embedding.EmbeddingProvider
	mapper            *mapper.CatalogMapper
}

func NewCatalogIndex(uowFactory unitofwork.RepositoryFactory, embeddingProvider embedding.EmbeddingProvider) *CatalogIndex {
	return &CatalogIndex{
		uowFactory:        uowFactory,
		embeddingProvider: embeddingProvider,
		mapper:            mapper.NewCatalogMapper(),
	}
}

func (c *CatalogIndex) KeywordSearch(ctx context.Context, query string, limit int) ([]search.Hit, error) {
	uow := c.uowFactory.NewUnitOfWork(ctx)
	scored, err := uow.BookTitleRepository().KeywordSearch(ctx, query, limit)
	if err != nil {
		return nil, err
	}
	hits := make([]search.Hit, len(scored))
	for i, s := range scored {
		hits[i] = search.Hit{ID: s.Title.Id, Score: s.Rank}
	}
	return hits, nil
}

func (c *CatalogIndex) VectorSearch(ctx context.Context, query string, limit int, floor float64) ([]search.Hit, error) {
	res, err := c.embeddingProvider.Generate(ctx, query, embedding.TaskRetrievalQuery)
	if err != nil {
		return nil, fmt.Errorf("embed query: %w", err)
	}

	uow := c.uowFactory.NewUnitOfWork(ctx)
	scored, err := uow.BookTitleEmbeddingRepository().SearchSimilarWithScore(ctx, res.Embedding.Values, limit, floor)
	if err != nil {
		return nil, err
	}
	hits := make([]search.Hit, len(scored))
	for i, s := range scored {
		hits[i] = search.Hit{ID: s.Embedding.BookTitleId, Score: s.Similarity}
	}
	return hits, nil
}

func (c *CatalogIndex) FindTitles(ctx context.Context, ids []string) ([]store.CatalogTitle, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	uow := c.uowFactory.NewUnitOfWork(ctx)
	titles, err := uow.BookTitleRepository().FindAll(ctx, specification.ByStringIDs{IDs: ids})
	if err != nil {
		return nil, err
	}
	out := make([]store.CatalogTitle, len(titles))
	for i, t := range titles {
		out[i] = c.mapper.ToCatalogTitle(t)
	}
	return out, nil
}

func (c *CatalogIndex) CountCopies(ctx context.Context, id string) (*store.AvailabilityStatus, error) {
	uow := c.uowFactory.NewUnitOfWork(ctx)
	count, err := uow.BookCopyRepository().CountByTitle(ctx, id)
	if err != nil {
		return nil, err
	}
	return c.mapper.ToAvailability(count), nil
}
