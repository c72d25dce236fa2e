package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/pgvector/pgvector-go"
	"gorm.io/gorm"
)

// BookTitle is keyed by the catalog identifier (ISBN or library code).
type BookTitle struct {
	Id          string         `gorm:"type:varchar(64);primaryKey"`
	Title       string         `gorm:"type:varchar(512);not null"`
	Description string         `gorm:"type:text"`
	Author      string         `gorm:"type:varchar(255);index"`
	Category    string         `gorm:"type:varchar(128);index"`
	ImagePath   string         `gorm:"type:varchar(512)"`
	Price       float64        `gorm:"type:numeric(12,2);default:0"`
	CreatedAt   time.Time      `gorm:"autoCreateTime"`
	UpdatedAt   time.Time      `gorm:"autoUpdateTime"`
	DeletedAt   gorm.DeletedAt `gorm:"index"`
}

func (BookTitle) TableName() string {
	return "book_titles"
}

// BookTitleEmbedding holds one vector per title over title + description.
type BookTitleEmbedding struct {
	Id             uuid.UUID       `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	BookTitleId    string          `gorm:"type:varchar(64);not null;uniqueIndex"`
	Document       string          `gorm:"type:text"`
	EmbeddingValue pgvector.Vector `gorm:"type:vector(768)"`
	CreatedAt      time.Time       `gorm:"autoCreateTime"`
	UpdatedAt      time.Time       `gorm:"autoUpdateTime"`
}

func (BookTitleEmbedding) TableName() string {
	return "book_title_embeddings"
}

// BookCopy is one physical copy. Inactive copies (lost, withdrawn) are not
// counted at all.
type BookCopy struct {
	Id          uuid.UUID `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	BookTitleId string    `gorm:"type:varchar(64);not null;index"`
	Barcode     string    `gorm:"type:varchar(64);uniqueIndex"`
	OnLoan      bool      `gorm:"not null"`
	Active      bool      `gorm:"not null"`
	CreatedAt   time.Time `gorm:"autoCreateTime"`
	UpdatedAt   time.Time `gorm:"autoUpdateTime"`
}

func (BookCopy) TableName() string {
	return "book_copies"
}
