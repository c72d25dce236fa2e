package entity

import (
	"time"

	"github.com/google/uuid"
)

type BookTitle struct {
	Id          string
	Title       string
	Description string
	Author      string
	Category    string
	ImagePath   string
	Price       float64
	CreatedAt   time.Time
	UpdatedAt   *time.Time
	DeletedAt   *time.Time
	IsDeleted   bool
}

type BookTitleEmbedding struct {
	Id             uuid.UUID
	BookTitleId    string
	Document       string
	EmbeddingValue []float32
	CreatedAt      time.Time
}

type BookCopy struct {
	Id          uuid.UUID
	BookTitleId string
	Barcode     string
	OnLoan      bool
	Active      bool
	CreatedAt   time.Time
}

// CopyCount is the aggregate over active copies of one title.
type CopyCount struct {
	BookTitleId string
	Title       string
	Total       int
	OnLoan      int
}
