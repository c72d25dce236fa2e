package mapper

import (
	"encoding/json"
	"time"

	"library-assistant-be/internal/entity"
	"library-assistant-be/internal/model"
	"library-assistant-be/pkg/store"

	"github.com/google/uuid"
	"github.com/pgvector/pgvector-go"
	"gorm.io/datatypes"
)

type DocumentMapper struct{}

func NewDocumentMapper() *DocumentMapper {
	return &DocumentMapper{}
}

func (m *DocumentMapper) ToEntity(d *model.Document) *entity.Document {
	if d == nil {
		return nil
	}

	var updatedAt *time.Time
	if !d.UpdatedAt.IsZero() {
		u := d.UpdatedAt
		updatedAt = &u
	}

	var metadata map[string]interface{}
	if len(d.Metadata) > 0 {
		_ = json.Unmarshal(d.Metadata, &metadata)
	}

	return &entity.Document{
		Id:         d.Id,
		Title:      d.Title,
		SourceName: d.SourceName,
		PageCount:  d.PageCount,
		Status:     d.Status,
		Metadata:   metadata,
		CreatedAt:  d.CreatedAt,
		UpdatedAt:  updatedAt,
	}
}

func (m *DocumentMapper) ToModel(d *entity.Document) *model.Document {
	if d == nil {
		return nil
	}

	var updatedAt time.Time
	if d.UpdatedAt != nil {
		updatedAt = *d.UpdatedAt
	}

	var metadata datatypes.JSON
	if d.Metadata != nil {
		if b, err := json.Marshal(d.Metadata); err == nil {
			metadata = datatypes.JSON(b)
		}
	}

	return &model.Document{
		Id:         d.Id,
		Title:      d.Title,
		SourceName: d.SourceName,
		PageCount:  d.PageCount,
		Status:     d.Status,
		Metadata:   metadata,
		CreatedAt:  d.CreatedAt,
		UpdatedAt:  updatedAt,
	}
}

func (m *DocumentMapper) ToChunkEntity(c *model.DocumentChunk) *entity.DocumentChunk {
	if c == nil {
		return nil
	}

	var boxes []store.BoundingBox
	if len(c.BBoxes) > 0 {
		_ = json.Unmarshal(c.BBoxes, &boxes)
	}

	var embedding []float32
	if c.EmbeddingValue != nil {
		embedding = c.EmbeddingValue.Slice()
	}

	return &entity.DocumentChunk{
		Id:             c.Id,
		DocumentId:     c.DocumentId,
		Page:           c.Page,
		ChunkIndex:     c.ChunkIndex,
		Type:           c.Type,
		ParentHeading:  c.ParentHeading,
		Content:        c.Content,
		BBoxes:         boxes,
		EmbeddingValue: embedding,
		CreatedAt:      c.CreatedAt,
	}
}

func (m *DocumentMapper) ToChunkModel(c *entity.DocumentChunk) *model.DocumentChunk {
	if c == nil {
		return nil
	}

	boxes := datatypes.JSON("[]")
	if len(c.BBoxes) > 0 {
		if b, err := json.Marshal(c.BBoxes); err == nil {
			boxes = datatypes.JSON(b)
		}
	}

	var embedding *pgvector.Vector
	if len(c.EmbeddingValue) > 0 {
		v := pgvector.NewVector(c.EmbeddingValue)
		embedding = &v
	}

	id := c.Id
	if id == uuid.Nil {
		id = uuid.New()
	}

	return &model.DocumentChunk{
		Id:             id,
		DocumentId:     c.DocumentId,
		Page:           c.Page,
		ChunkIndex:     c.ChunkIndex,
		Type:           c.Type,
		ParentHeading:  c.ParentHeading,
		Content:        c.Content,
		BBoxes:         boxes,
		EmbeddingValue: embedding,
		CreatedAt:      c.CreatedAt,
	}
}

func (m *DocumentMapper) ToChunkEntities(chunks []*model.DocumentChunk) []*entity.DocumentChunk {
	entities := make([]*entity.DocumentChunk, len(chunks))
	for i, c := range chunks {
		entities[i] = m.ToChunkEntity(c)
	}
	return entities
}

// ToStoreChunk drops the embedding; the assistant only needs text and boxes.
func (m *DocumentMapper) ToStoreChunk(c *entity.DocumentChunk, score float64) store.Chunk {
	kind := c.Type
	if kind == "" {
		kind = store.ChunkText
	}
	return store.Chunk{
		ID:         c.Id.String(),
		DocumentID: c.DocumentId.String(),
		Page:       c.Page,
		Order:      c.ChunkIndex,
		Kind:       kind,
		Heading:    c.ParentHeading,
		Text:       c.Content,
		Boxes:      append([]store.BoundingBox(nil), c.BBoxes...),
		Score:      score,
	}
}

func (m *DocumentMapper) ToStoreChunks(chunks []*entity.DocumentChunk) []store.Chunk {
	out := make([]store.Chunk, len(chunks))
	for i, c := range chunks {
		out[i] = m.ToStoreChunk(c, 0)
	}
	return out
}
