package dto

type UpsertTitleRequest struct {
	Id          string  `json:"id" validate:"required,max=64"`
	Title       string  `json:"title" validate:"required,max=512"`
	Description string  `json:"description"`
	Author      string  `json:"author" validate:"max=255"`
	Category    string  `json:"category" validate:"max=128"`
	ImagePath   string  `json:"image_path"`
	Price       float64 `json:"price" validate:"gte=0"`
	Copies      int     `json:"copies" validate:"gte=0,lte=500"`
}

type UpsertTitlesRequest struct {
	Titles []UpsertTitleRequest `json:"titles" validate:"required,min=1,dive"`
}

type UpsertTitlesResponse struct {
	Upserted int `json:"upserted"`
	Queued   int `json:"queued_for_embedding"`
}

type ReindexCatalogRequest struct {
	// Full re-embeds every title instead of only those missing a vector.
	Full bool `json:"full"`
}

type ReindexCatalogResponse struct {
	Queued int `json:"queued"`
}

type SetLoanRequest struct {
	OnLoan bool `json:"on_loan"`
}

// EmbedTitlesMessage is the background job payload for title embedding.
type EmbedTitlesMessage struct {
	TitleIds []string `json:"title_ids"`
}
