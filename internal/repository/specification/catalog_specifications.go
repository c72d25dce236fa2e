package specification

import "gorm.io/gorm"

type ByBookTitleID struct {
	BookTitleID string
}

func (s ByBookTitleID) Apply(db *gorm.DB) *gorm.DB {
	return db.Where("book_title_id = ?", s.BookTitleID)
}

// ActiveCopies excludes lost and withdrawn copies.
type ActiveCopies struct{}

func (s ActiveCopies) Apply(db *gorm.DB) *gorm.DB {
	return db.Where("active = ?", true)
}

type ByCategory struct {
	Category string
}

func (s ByCategory) Apply(db *gorm.DB) *gorm.DB {
	return db.Where("category = ?", s.Category)
}

// WithoutEmbedding selects titles missing from book_title_embeddings.
type WithoutEmbedding struct{}

func (s WithoutEmbedding) Apply(db *gorm.DB) *gorm.DB {
	return db.Where("NOT EXISTS (SELECT 1 FROM book_title_embeddings e WHERE e.book_title_id = book_titles.id)")
}
