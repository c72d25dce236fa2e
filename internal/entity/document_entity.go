package entity

import (
	"time"

	"library-assistant-be/pkg/store"

	"github.com/google/uuid"
)

const (
	DocumentStatusPending = store.DocumentPending
	DocumentStatusIndexed = store.DocumentIndexed
	DocumentStatusFailed  = store.DocumentFailed
)

type Document struct {
	Id         uuid.UUID
	Title      string
	SourceName string
	PageCount  int
	Status     string
	Metadata   map[string]interface{}
	CreatedAt  time.Time
	UpdatedAt  *time.Time
}

type DocumentChunk struct {
	Id             uuid.UUID
	DocumentId     uuid.UUID
	Page           int
	ChunkIndex     int
	Type           string
	ParentHeading  string
	Content        string
	BBoxes         []store.BoundingBox
	EmbeddingValue []float32
	CreatedAt      time.Time
}
