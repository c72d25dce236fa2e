package retriever

import (
	"library-assistant-be/pkg/rag/intent"
	"library-assistant-be/pkg/store"
)

// EvidenceSet is the chunk selection for one answer. It is built once by the
// retriever and read-only afterwards; Chunks hands out a copy.
type EvidenceSet struct {
	documentID string
	strategy   intent.Strategy
	chunks     []store.Chunk
}

func NewEvidenceSet(documentID string, strategy intent.Strategy, chunks []store.Chunk) *EvidenceSet {
	return &EvidenceSet{
		documentID: documentID,
		strategy:   strategy,
		chunks:     append([]store.Chunk(nil), chunks...),
	}
}

func (e *EvidenceSet) DocumentID() string { return e.documentID }

func (e *EvidenceSet) Strategy() intent.Strategy { return e.strategy }

func (e *EvidenceSet) Len() int {
	if e == nil {
		return 0
	}
	return len(e.chunks)
}

// Empty means no chunk cleared the similarity floor.
func (e *EvidenceSet) Empty() bool { return e.Len() == 0 }

func (e *EvidenceSet) Chunks() []store.Chunk {
	if e == nil {
		return nil
	}
	out := make([]store.Chunk, len(e.chunks))
	for i, c := range e.chunks {
		c.Boxes = append([]store.BoundingBox(nil), c.Boxes...)
		out[i] = c
	}
	return out
}
