package specification

import (
	"github.com/google/uuid"
	"gorm.io/gorm"
)

type ByDocumentID struct {
	DocumentID uuid.UUID
}

func (s ByDocumentID) Apply(db *gorm.DB) *gorm.DB {
	return db.Where("document_id = ?", s.DocumentID)
}

type OnPages struct {
	Pages []int
}

func (s OnPages) Apply(db *gorm.DB) *gorm.DB {
	return db.Where("page IN ?", s.Pages)
}

type ByParentHeading struct {
	Heading string
}

func (s ByParentHeading) Apply(db *gorm.DB) *gorm.DB {
	return db.Where("parent_heading = ?", s.Heading)
}

type ByChunkType struct {
	Type string
}

func (s ByChunkType) Apply(db *gorm.DB) *gorm.DB {
	return db.Where("type = ?", s.Type)
}

// ReadingOrder sorts chunks the way they appear in the document.
type ReadingOrder struct{}

func (s ReadingOrder) Apply(db *gorm.DB) *gorm.DB {
	return db.Order("page ASC").Order("chunk_index ASC")
}

// PendingEmbedding selects chunks the embedding job has not reached yet.
type PendingEmbedding struct{}

func (s PendingEmbedding) Apply(db *gorm.DB) *gorm.DB {
	return db.Where("embedding_value IS NULL")
}
