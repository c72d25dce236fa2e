package mapper

import (
	"time"

	"library-assistant-be/internal/entity"
	"library-assistant-be/internal/model"
	"library-assistant-be/pkg/store"

	"github.com/pgvector/pgvector-go"
	"gorm.io/gorm"
)

type CatalogMapper struct{}

func NewCatalogMapper() *CatalogMapper {
	return &CatalogMapper{}
}

func (m *CatalogMapper) ToTitleEntity(t *model.BookTitle) *entity.BookTitle {
	if t == nil {
		return nil
	}

	var deletedAt *time.Time
	if t.DeletedAt.Valid {
		d := t.DeletedAt.Time
		deletedAt = &d
	}

	var updatedAt *time.Time
	if !t.UpdatedAt.IsZero() {
		u := t.UpdatedAt
		updatedAt = &u
	}

	return &entity.BookTitle{
		Id:          t.Id,
		Title:       t.Title,
		Description: t.Description,
		Author:      t.Author,
		Category:    t.Category,
		ImagePath:   t.ImagePath,
		Price:       t.Price,
		CreatedAt:   t.CreatedAt,
		UpdatedAt:   updatedAt,
		DeletedAt:   deletedAt,
		IsDeleted:   t.DeletedAt.Valid,
	}
}

func (m *CatalogMapper) ToTitleModel(t *entity.BookTitle) *model.BookTitle {
	if t == nil {
		return nil
	}

	var deletedAt gorm.DeletedAt
	if t.DeletedAt != nil {
		deletedAt = gorm.DeletedAt{Time: *t.DeletedAt, Valid: true}
	} else if t.IsDeleted {
		deletedAt = gorm.DeletedAt{Time: time.Now(), Valid: true}
	}

	var updatedAt time.Time
	if t.UpdatedAt != nil {
		updatedAt = *t.UpdatedAt
	}

	return &model.BookTitle{
		Id:          t.Id,
		Title:       t.Title,
		Description: t.Description,
		Author:      t.Author,
		Category:    t.Category,
		ImagePath:   t.ImagePath,
		Price:       t.Price,
		CreatedAt:   t.CreatedAt,
		UpdatedAt:   updatedAt,
		DeletedAt:   deletedAt,
	}
}

func (m *CatalogMapper) ToTitleEntities(titles []*model.BookTitle) []*entity.BookTitle {
	entities := make([]*entity.BookTitle, len(titles))
	for i, t := range titles {
		entities[i] = m.ToTitleEntity(t)
	}
	return entities
}

func (m *CatalogMapper) ToEmbeddingEntity(e *model.BookTitleEmbedding) *entity.BookTitleEmbedding {
	if e == nil {
		return nil
	}
	return &entity.BookTitleEmbedding{
		Id:             e.Id,
		BookTitleId:    e.BookTitleId,
		Document:       e.Document,
		EmbeddingValue: e.EmbeddingValue.Slice(),
		CreatedAt:      e.CreatedAt,
	}
}

func (m *CatalogMapper) ToEmbeddingModel(e *entity.BookTitleEmbedding) *model.BookTitleEmbedding {
	if e == nil {
		return nil
	}
	return &model.BookTitleEmbedding{
		Id:             e.Id,
		BookTitleId:    e.BookTitleId,
		Document:       e.Document,
		EmbeddingValue: pgvector.NewVector(e.EmbeddingValue),
		CreatedAt:      e.CreatedAt,
	}
}

func (m *CatalogMapper) ToCopyEntity(c *model.BookCopy) *entity.BookCopy {
	if c == nil {
		return nil
	}
	return &entity.BookCopy{
		Id:          c.Id,
		BookTitleId: c.BookTitleId,
		Barcode:     c.Barcode,
		OnLoan:      c.OnLoan,
		Active:      c.Active,
		CreatedAt:   c.CreatedAt,
	}
}

func (m *CatalogMapper) ToCopyModel(c *entity.BookCopy) *model.BookCopy {
	if c == nil {
		return nil
	}
	return &model.BookCopy{
		Id:          c.Id,
		BookTitleId: c.BookTitleId,
		Barcode:     c.Barcode,
		OnLoan:      c.OnLoan,
		Active:      c.Active,
		CreatedAt:   c.CreatedAt,
	}
}

// ToCatalogTitle is the read-only view handed to the assistant.
func (m *CatalogMapper) ToCatalogTitle(t *entity.BookTitle) store.CatalogTitle {
	return store.CatalogTitle{
		ID:          t.Id,
		Title:       t.Title,
		Description: t.Description,
		Author:      t.Author,
		Category:    t.Category,
		ImagePath:   t.ImagePath,
		Price:       t.Price,
	}
}

// ToAvailability clamps the aggregate into a snapshot.
func (m *CatalogMapper) ToAvailability(c *entity.CopyCount) *store.AvailabilityStatus {
	if c == nil {
		return nil
	}
	available := c.Total - c.OnLoan
	if available < 0 {
		available = 0
	}
	return &store.AvailabilityStatus{
		ID:        c.BookTitleId,
		Title:     c.Title,
		Total:     c.Total,
		Available: available,
	}
}
