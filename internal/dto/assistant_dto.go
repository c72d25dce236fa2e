package dto

import (
	"library-assistant-be/pkg/store"
)

type LibraryChatRequest struct {
	SessionKey string `json:"session_key" validate:"required,max=128"`
	Message    string `json:"message" validate:"max=2000"`
}

type CatalogTitleResponse struct {
	Id       string  `json:"id"`
	Title    string  `json:"title"`
	Author   string  `json:"author"`
	Category string  `json:"category"`
	Score    float64 `json:"score"`
}

type AvailabilityResponse struct {
	Id        string `json:"id"`
	Title     string `json:"title"`
	Total     int    `json:"total"`
	Available int    `json:"available"`
	OnLoan    int    `json:"on_loan"`
}

type LibraryChatResponse struct {
	Answer       string                 `json:"answer"`
	Action       string                 `json:"action"`
	Titles       []CatalogTitleResponse `json:"titles"`
	Availability []AvailabilityResponse `json:"availability"`
}

type PdfChatRequest struct {
	SessionKey string `json:"session_key" validate:"required,max=128"`
	DocumentId string `json:"document_id" validate:"required,uuid"`
	Message    string `json:"message" validate:"max=2000"`
}

type SourceSpanResponse struct {
	ChunkId string              `json:"chunk_id"`
	Page    int                 `json:"page"`
	Boxes   []store.BoundingBox `json:"boxes"`
}

type PdfChatResponse struct {
	Answer      string               `json:"answer"`
	Strategy    string               `json:"strategy,omitempty"`
	Grounded    bool                 `json:"grounded"`
	SourceSpans []SourceSpanResponse `json:"source_spans"`
}

type SessionResponse struct {
	Key     string            `json:"key"`
	Seen    []store.SeenTitle `json:"seen"`
	History []store.Turn      `json:"history"`
}
