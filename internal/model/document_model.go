package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/pgvector/pgvector-go"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

type Document struct {
	Id         uuid.UUID      `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	Title      string         `gorm:"type:varchar(512)"`
	SourceName string         `gorm:"type:varchar(512)"`
	PageCount  int            `gorm:"default:0"`
	Status     string         `gorm:"type:varchar(32);default:'pending';index"`
	Metadata   datatypes.JSON `gorm:"type:jsonb"`
	CreatedAt  time.Time      `gorm:"autoCreateTime"`
	UpdatedAt  time.Time      `gorm:"autoUpdateTime"`
	DeletedAt  gorm.DeletedAt `gorm:"index"`
}

func (Document) TableName() string {
	return "documents"
}

// DocumentChunk is one extracted block. EmbeddingValue stays NULL until the
// embedding job has run.
type DocumentChunk struct {
	Id             uuid.UUID        `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	DocumentId     uuid.UUID        `gorm:"type:uuid;not null;index:idx_chunk_reading_order,priority:1"`
	Page           int              `gorm:"not null;index:idx_chunk_reading_order,priority:2"`
	ChunkIndex     int              `gorm:"not null;index:idx_chunk_reading_order,priority:3"`
	Type           string           `gorm:"type:varchar(16);default:'text'"`
	ParentHeading  string           `gorm:"type:text;index"`
	Content        string           `gorm:"type:text"`
	BBoxes         datatypes.JSON   `gorm:"type:jsonb"`
	EmbeddingValue *pgvector.Vector `gorm:"type:vector(768)"`
	CreatedAt      time.Time        `gorm:"autoCreateTime"`
	UpdatedAt      time.Time        `gorm:"autoUpdateTime"`
}

func (DocumentChunk) TableName() string {
	return "document_chunks"
}
