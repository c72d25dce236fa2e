package implementation

import (
	"context"

	"library-assistant-be/internal/entity"
	"library-assistant-be/internal/mapper"
	"library-assistant-be/internal/model"
	"library-assistant-be/internal/repository/contract"
	"library-assistant-be/internal/repository/specification"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type BookCopyRepositoryImpl struct {
	db     *gorm.DB
	mapper *mapper.CatalogMapper
}

func NewBookCopyRepository(db *gorm.DB) contract.BookCopyRepository {
	return &BookCopyRepositoryImpl{
		db:     db,
		mapper: mapper.NewCatalogMapper(),
	}
}

func (r *BookCopyRepositoryImpl) CreateBulk(ctx context.Context, copies []*entity.BookCopy) error {
	if len(copies) == 0 {
		return nil
	}
	models := make([]*model.BookCopy, len(copies))
	for i, c := range copies {
		models[i] = r.mapper.ToCopyModel(c)
	}
	if err := r.db.WithContext(ctx).Create(models).Error; err != nil {
		return err
	}
	for i, m := range models {
		*copies[i] = *r.mapper.ToCopyEntity(m)
	}
	return nil
}

func (r *BookCopyRepositoryImpl) SetOnLoan(ctx context.Context, id uuid.UUID, onLoan bool) error {
	return r.db.WithContext(ctx).Model(&model.BookCopy{}).Where("id = ?", id).Update("on_loan", onLoan).Error
}

func (r *BookCopyRepositoryImpl) FindAll(ctx context.Context, specs ...specification.Specification) ([]*entity.BookCopy, error) {
	var models []*model.BookCopy
	query := r.db.WithContext(ctx)
	for _, spec := range specs {
		query = spec.Apply(query)
	}
	if err := query.Find(&models).Error; err != nil {
		return nil, err
	}
	entities := make([]*entity.BookCopy, len(models))
	for i, m := range models {
		entities[i] = r.mapper.ToCopyEntity(m)
	}
	return entities, nil
}

func (r *BookCopyRepositoryImpl) CountByTitle(ctx context.Context, bookTitleId string) (*entity.CopyCount, error) {
	type result struct {
		Id     string
		Title  string
		Total  int
		OnLoan int
	}
	var rows []result

	// LEFT JOIN keeps titles without copies so they read as zero, not missing.
	err := r.db.WithContext(ctx).
		Table("book_titles").
		Select(`book_titles.id, book_titles.title,
			COUNT(book_copies.id) AS total,
			COUNT(book_copies.id) FILTER (WHERE book_copies.on_loan) AS on_loan`).
		Joins("LEFT JOIN book_copies ON book_copies.book_title_id = book_titles.id AND book_copies.active").
		Where("book_titles.id = ?", bookTitleId).
		Where("book_titles.deleted_at IS NULL").
		Group("book_titles.id, book_titles.title").
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return nil, nil
	}

	return &entity.CopyCount{
		BookTitleId: rows[0].Id,
		Title:       rows[0].Title,
		Total:       rows[0].Total,
		OnLoan:      rows[0].OnLoan,
	}, nil
}
