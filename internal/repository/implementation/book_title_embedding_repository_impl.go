package implementation

import (
	"context"

	"library-assistant-be/internal/entity"
	"library-assistant-be/internal/mapper"
	"library-assistant-be/internal/model"
	"library-assistant-be/internal/repository/contract"

	"github.com/pgvector/pgvector-go"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type BookTitleEmbeddingRepositoryImpl struct {
	db     *gorm.DB
	mapper *mapper.CatalogMapper
}

func NewBookTitleEmbeddingRepository(db *gorm.DB) contract.BookTitleEmbeddingRepository {
	return &BookTitleEmbeddingRepositoryImpl{
		db:     db,
		mapper: mapper.NewCatalogMapper(),
	}
}

func (r *BookTitleEmbeddingRepositoryImpl) Upsert(ctx context.Context, embedding *entity.BookTitleEmbedding) error {
	m := r.mapper.ToEmbeddingModel(embedding)
	err := r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "book_title_id"}},
			DoUpdates: clause.AssignmentColumns([]string{"document", "embedding_value", "updated_at"}),
		}).
		Omit("id").
		Create(m).Error
	if err != nil {
		return err
	}
	*embedding = *r.mapper.ToEmbeddingEntity(m)
	return nil
}

func (r *BookTitleEmbeddingRepositoryImpl) DeleteByBookTitleId(ctx context.Context, bookTitleId string) error {
	return r.db.WithContext(ctx).Where("book_title_id = ?", bookTitleId).Delete(&model.BookTitleEmbedding{}).Error
}

func (r *BookTitleEmbeddingRepositoryImpl) Count(ctx context.Context) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&model.BookTitleEmbedding{}).Count(&count).Error
	return count, err
}

// SearchSimilarWithScore returns title embeddings with cosine similarity at or
// above threshold. Embeddings of soft-deleted titles are skipped.
func (r *BookTitleEmbeddingRepositoryImpl) SearchSimilarWithScore(ctx context.Context, embedding []float32, limit int, threshold float64) ([]*contract.ScoredBookTitleEmbedding, error) {
	if limit <= 0 {
		limit = 20
	}

	type result struct {
		model.BookTitleEmbedding
		Similarity float64
	}
	var results []result

	queryVector := pgvector.NewVector(embedding)

	err := r.db.WithContext(ctx).
		Table("book_title_embeddings").
		Select("book_title_embeddings.*, 1 - (embedding_value <=> ?) AS similarity", queryVector).
		Joins("JOIN book_titles ON book_titles.id = book_title_embeddings.book_title_id").
		Where("book_titles.deleted_at IS NULL").
		Where("1 - (embedding_value <=> ?) >= ?", queryVector, threshold).
		Order("similarity DESC").
		Limit(limit).
		Scan(&results).Error
	if err != nil {
		return nil, err
	}

	scored := make([]*contract.ScoredBookTitleEmbedding, len(results))
	for i, res := range results {
		scored[i] = &contract.ScoredBookTitleEmbedding{
			Embedding:  r.mapper.ToEmbeddingEntity(&res.BookTitleEmbedding),
			Similarity: res.Similarity,
		}
	}
	return scored, nil
}
