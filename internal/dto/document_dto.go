package dto

import (
	"time"

	"library-assistant-be/pkg/highlight"
	"library-assistant-be/pkg/store"

	"github.com/google/uuid"
)

type IngestChunkRequest struct {
	Page          int                 `json:"page" validate:"gte=1"`
	Type          string              `json:"type" validate:"omitempty,oneof=text heading table"`
	ParentHeading string              `json:"parent_heading"`
	Content       string              `json:"content" validate:"required"`
	BBoxes        []store.BoundingBox `json:"bboxes"`
}

// IngestDocumentRequest carries a document already extracted into layout
// chunks, in reading order.
type IngestDocumentRequest struct {
	Title      string                 `json:"title" validate:"required,max=512"`
	SourceName string                 `json:"source_name" validate:"max=512"`
	PageCount  int                    `json:"page_count" validate:"gte=1"`
	Metadata   map[string]interface{} `json:"metadata"`
	Chunks     []IngestChunkRequest   `json:"chunks" validate:"required,min=1,dive"`
}

type IngestDocumentResponse struct {
	Id         uuid.UUID `json:"id"`
	Status     string    `json:"status"`
	ChunkCount int       `json:"chunk_count"`
}

type DocumentResponse struct {
	Id         uuid.UUID  `json:"id"`
	Title      string     `json:"title"`
	SourceName string     `json:"source_name"`
	PageCount  int        `json:"page_count"`
	Status     string     `json:"status"`
	Headings   []string   `json:"headings"`
	CreatedAt  time.Time  `json:"created_at"`
	UpdatedAt  *time.Time `json:"updated_at"`
}

type DocumentStatsResponse struct {
	DocumentId uuid.UUID        `json:"document_id"`
	Status     string           `json:"status"`
	Total      int64            `json:"total_chunks"`
	Embedded   int64            `json:"embedded_chunks"`
	ByType     map[string]int64 `json:"by_type"`
}

type HighlightRequest struct {
	DocumentId uuid.UUID          `json:"-"`
	ChunkIds   []string           `json:"chunk_ids" validate:"required,min=1,max=50"`
	Page       int                `json:"page" validate:"gte=0"`
	Viewport   highlight.Viewport `json:"viewport"`
}

type ChunkHighlight struct {
	ChunkId string             `json:"chunk_id"`
	Page    int                `json:"page"`
	Regions []highlight.Region `json:"regions"`
}

type HighlightResponse struct {
	Highlights []ChunkHighlight `json:"highlights"`
}

// EmbedDocumentMessage is the background job payload for chunk embedding.
type EmbedDocumentMessage struct {
	DocumentId uuid.UUID `json:"document_id"`
}
