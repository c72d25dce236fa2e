package implementation

import (
	"context"
	"errors"
	"strings"

	"library-assistant-be/internal/entity"
	"library-assistant-be/internal/mapper"
	"library-assistant-be/internal/model"
	"library-assistant-be/internal/repository/contract"
	"library-assistant-be/internal/repository/specification"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// searchDocument must match the expression of the GIN index below,
// otherwise postgres falls back to a sequential scan. Text is unaccented so
// "giao trinh" matches "Giáo trình".
const searchDocument = "to_tsvector('simple', f_unaccent(coalesce(title, '') || ' ' || coalesce(description, '')))"

const searchQuery = "plainto_tsquery('simple', f_unaccent(?))"

// SearchSetupSQL installs the unaccent wrapper and the full-text index.
// unaccent itself is only STABLE, so the index goes through an IMMUTABLE
// wrapper pinned to the default dictionary.
var SearchSetupSQL = []string{
	`CREATE EXTENSION IF NOT EXISTS unaccent;`,
	`CREATE OR REPLACE FUNCTION f_unaccent(text) RETURNS text
	 LANGUAGE sql IMMUTABLE PARALLEL SAFE STRICT
	 AS $$ SELECT public.unaccent('public.unaccent'::regdictionary, $1) $$;`,
	`DROP INDEX IF EXISTS idx_book_titles_fts;`,
	`CREATE INDEX IF NOT EXISTS idx_book_titles_fts_unaccent ON book_titles USING GIN (` + searchDocument + `);`,
}

type BookTitleRepositoryImpl struct {
	db     *gorm.DB
	mapper *mapper.CatalogMapper
}

func NewBookTitleRepository(db *gorm.DB) contract.BookTitleRepository {
	return &BookTitleRepositoryImpl{
		db:     db,
		mapper: mapper.NewCatalogMapper(),
	}
}

func (r *BookTitleRepositoryImpl) Create(ctx context.Context, title *entity.BookTitle) error {
	m := r.mapper.ToTitleModel(title)
	if err := r.db.WithContext(ctx).Create(m).Error; err != nil {
		return err
	}
	*title = *r.mapper.ToTitleEntity(m)
	return nil
}

func (r *BookTitleRepositoryImpl) Upsert(ctx context.Context, titles []*entity.BookTitle) error {
	if len(titles) == 0 {
		return nil
	}
	models := make([]*model.BookTitle, len(titles))
	for i, t := range titles {
		models[i] = r.mapper.ToTitleModel(t)
	}
	return r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "id"}},
			DoUpdates: clause.AssignmentColumns([]string{"title", "description", "author", "category", "image_path", "price", "updated_at"}),
		}).
		CreateInBatches(models, 200).Error
}

func (r *BookTitleRepositoryImpl) Delete(ctx context.Context, id string) error {
	return r.db.WithContext(ctx).Delete(&model.BookTitle{}, "id = ?", id).Error
}

func (r *BookTitleRepositoryImpl) applySpecifications(db *gorm.DB, specs ...specification.Specification) *gorm.DB {
	for _, spec := range specs {
		db = spec.Apply(db)
	}
	return db
}

func (r *BookTitleRepositoryImpl) FindOne(ctx context.Context, specs ...specification.Specification) (*entity.BookTitle, error) {
	var m model.BookTitle
	query := r.applySpecifications(r.db.WithContext(ctx), specs...)
	if err := query.First(&m).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return r.mapper.ToTitleEntity(&m), nil
}

func (r *BookTitleRepositoryImpl) FindAll(ctx context.Context, specs ...specification.Specification) ([]*entity.BookTitle, error) {
	var models []*model.BookTitle
	query := r.applySpecifications(r.db.WithContext(ctx), specs...)
	if err := query.Find(&models).Error; err != nil {
		return nil, err
	}
	return r.mapper.ToTitleEntities(models), nil
}

func (r *BookTitleRepositoryImpl) Count(ctx context.Context, specs ...specification.Specification) (int64, error) {
	var count int64
	query := r.applySpecifications(r.db.WithContext(ctx), specs...)
	err := query.Model(&model.BookTitle{}).Count(&count).Error
	return count, err
}

func (r *BookTitleRepositoryImpl) KeywordSearch(ctx context.Context, query string, limit int) ([]*contract.ScoredBookTitle, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return nil, nil
	}
	if limit <= 0 {
		limit = 20
	}

	type result struct {
		model.BookTitle
		Rank float64
	}
	var results []result

	err := r.db.WithContext(ctx).
		Table("book_titles").
		Select("book_titles.*, ts_rank("+searchDocument+", "+searchQuery+") AS rank", query).
		Where("deleted_at IS NULL").
		Where(searchDocument+" @@ "+searchQuery, query).
		Order("rank DESC").
		Limit(limit).
		Scan(&results).Error
	if err != nil {
		return nil, err
	}

	scored := make([]*contract.ScoredBookTitle, len(results))
	for i, res := range results {
		scored[i] = &contract.ScoredBookTitle{
			Title: r.mapper.ToTitleEntity(&res.BookTitle),
			Rank:  res.Rank,
		}
	}
	return scored, nil
}
