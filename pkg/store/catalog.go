package store

// CatalogTitle is the read-only view of a book title shown to patrons.
type CatalogTitle struct {
	ID          string  `json:"id"`
	Title       string  `json:"title"`
	Description string  `json:"description"`
	Author      string  `json:"author"`
	Category    string  `json:"category"`
	ImagePath   string  `json:"image_path,omitempty"`
	Price       float64 `json:"price,omitempty"`
}

// AvailabilityStatus is a point-in-time copy count for one title.
type AvailabilityStatus struct {
	ID        string `json:"id"`
	Title     string `json:"title"`
	Total     int    `json:"total"`
	Available int    `json:"available"`
}

// OnLoan is derived, never stored.
func (a AvailabilityStatus) OnLoan() int {
	return a.Total - a.Available
}

// BoundingBox is a rectangle in PDF user space with a bottom-left origin.
type BoundingBox struct {
	X0 float64 `json:"x0"`
	Y0 float64 `json:"y0"`
	X1 float64 `json:"x1"`
	Y1 float64 `json:"y1"`
}

const (
	ChunkText    = "text"
	ChunkHeading = "heading"
	ChunkTable   = "table"
)

// Chunk is one piece of an indexed document. Order is the reading order
// within the whole document.
type Chunk struct {
	ID         string        `json:"id"`
	DocumentID string        `json:"document_id"`
	Page       int           `json:"page"`
	Order      int           `json:"order"`
	Kind       string        `json:"kind"`
	Heading    string        `json:"heading,omitempty"`
	Text       string        `json:"text"`
	Boxes      []BoundingBox `json:"boxes"`
	Score      float64       `json:"score,omitempty"`
}

// Indexing states of a document.
const (
	DocumentPending = "pending"
	DocumentIndexed = "indexed"
	DocumentFailed  = "failed"
)

// Outline is the document metadata the classifier and retriever rely on.
type Outline struct {
	DocumentID string   `json:"document_id"`
	Title      string   `json:"title"`
	PageCount  int      `json:"page_count"`
	Status     string   `json:"status,omitempty"`
	Headings   []string `json:"headings"`
}

// Ready reports whether chunk embeddings exist. An empty status is treated
// as indexed.
func (o Outline) Ready() bool {
	return o.Status == "" || o.Status == DocumentIndexed
}
