package implementation

import (
	"context"

	"library-assistant-be/internal/entity"
	"library-assistant-be/internal/mapper"
	"library-assistant-be/internal/model"
	"library-assistant-be/internal/repository/contract"
	"library-assistant-be/internal/repository/specification"
	"library-assistant-be/pkg/store"

	"github.com/google/uuid"
	"github.com/pgvector/pgvector-go"
	"gorm.io/gorm"
)

type DocumentChunkRepositoryImpl struct {
	db     *gorm.DB
	mapper *mapper.DocumentMapper
}

func NewDocumentChunkRepository(db *gorm.DB) contract.DocumentChunkRepository {
	return &DocumentChunkRepositoryImpl{
		db:     db,
		mapper: mapper.NewDocumentMapper(),
	}
}

func (r *DocumentChunkRepositoryImpl) applySpecifications(db *gorm.DB, specs ...specification.Specification) *gorm.DB {
	for _, spec := range specs {
		db = spec.Apply(db)
	}
	return db
}

func (r *DocumentChunkRepositoryImpl) CreateBulk(ctx context.Context, chunks []*entity.DocumentChunk) error {
	if len(chunks) == 0 {
		return nil
	}
	models := make([]*model.DocumentChunk, len(chunks))
	for i, c := range chunks {
		models[i] = r.mapper.ToChunkModel(c)
	}
	if err := r.db.WithContext(ctx).CreateInBatches(models, 200).Error; err != nil {
		return err
	}
	for i, m := range models {
		*chunks[i] = *r.mapper.ToChunkEntity(m)
	}
	return nil
}

func (r *DocumentChunkRepositoryImpl) UpdateEmbedding(ctx context.Context, id uuid.UUID, embedding []float32) error {
	return r.db.WithContext(ctx).
		Model(&model.DocumentChunk{}).
		Where("id = ?", id).
		Update("embedding_value", pgvector.NewVector(embedding)).Error
}

func (r *DocumentChunkRepositoryImpl) DeleteByDocumentId(ctx context.Context, documentId uuid.UUID) error {
	return r.db.WithContext(ctx).Where("document_id = ?", documentId).Delete(&model.DocumentChunk{}).Error
}

func (r *DocumentChunkRepositoryImpl) FindAll(ctx context.Context, specs ...specification.Specification) ([]*entity.DocumentChunk, error) {
	var models []*model.DocumentChunk
	query := r.applySpecifications(r.db.WithContext(ctx), specs...)
	if err := query.Find(&models).Error; err != nil {
		return nil, err
	}
	return r.mapper.ToChunkEntities(models), nil
}

func (r *DocumentChunkRepositoryImpl) Count(ctx context.Context, specs ...specification.Specification) (int64, error) {
	var count int64
	query := r.applySpecifications(r.db.WithContext(ctx), specs...)
	err := query.Model(&model.DocumentChunk{}).Count(&count).Error
	return count, err
}

func (r *DocumentChunkRepositoryImpl) SearchSimilarWithScore(ctx context.Context, documentId uuid.UUID, embedding []float32, kind string, limit int, threshold float64) ([]*contract.ScoredDocumentChunk, error) {
	if limit <= 0 {
		limit = 5
	}

	type result struct {
		model.DocumentChunk
		Similarity float64
	}
	var results []result

	queryVector := pgvector.NewVector(embedding)

	query := r.db.WithContext(ctx).
		Table("document_chunks").
		Select("document_chunks.*, 1 - (embedding_value <=> ?) AS similarity", queryVector).
		Where("document_id = ?", documentId).
		Where("embedding_value IS NOT NULL").
		Where("1 - (embedding_value <=> ?) >= ?", queryVector, threshold)
	if kind != "" {
		query = query.Where("type = ?", kind)
	}

	err := query.
		Order("similarity DESC").
		Limit(limit).
		Scan(&results).Error
	if err != nil {
		return nil, err
	}

	scored := make([]*contract.ScoredDocumentChunk, len(results))
	for i, res := range results {
		scored[i] = &contract.ScoredDocumentChunk{
			Chunk:      r.mapper.ToChunkEntity(&res.DocumentChunk),
			Similarity: res.Similarity,
		}
	}
	return scored, nil
}

func (r *DocumentChunkRepositoryImpl) Headings(ctx context.Context, documentId uuid.UUID) ([]string, error) {
	var headings []string
	err := r.applySpecifications(r.db.WithContext(ctx).Model(&model.DocumentChunk{}),
		specification.ByDocumentID{DocumentID: documentId},
		specification.ByChunkType{Type: store.ChunkHeading},
		specification.ReadingOrder{},
	).Pluck("content", &headings).Error
	return headings, err
}

func (r *DocumentChunkRepositoryImpl) Stats(ctx context.Context, documentId uuid.UUID) (*contract.ChunkStats, error) {
	type row struct {
		Type     string
		Total    int64
		Embedded int64
	}
	var rows []row

	err := r.db.WithContext(ctx).
		Model(&model.DocumentChunk{}).
		Select("type, COUNT(*) AS total, COUNT(embedding_value) AS embedded").
		Where("document_id = ?", documentId).
		Group("type").
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}

	stats := &contract.ChunkStats{ByType: make(map[string]int64, len(rows))}
	for _, row := range rows {
		stats.Total += row.Total
		stats.Embedded += row.Embedded
		stats.ByType[row.Type] = row.Total
	}
	return stats, nil
}
