// Package retriever selects the passages of an indexed document that an
// answer may be grounded on.
package retriever

import (
	"context"
	"sort"
	"strings"
	"time"

	"library-assistant-be/pkg/rag"
	"library-assistant-be/pkg/rag/intent"
	"library-assistant-be/pkg/store"
	"library-assistant-be/pkg/utils"

	"go.uber.org/zap"
)

// ChunkIndex is the read side of a DocumentIndex.
type ChunkIndex interface {
	// Similar returns chunks of kind ("" for any) with similarity >= floor, best first.
	Similar(ctx context.Context, documentID, query, kind string, limit int, floor float64) ([]store.Chunk, error)
	// ChunksOnPages returns every chunk on the given pages in reading order.
	ChunksOnPages(ctx context.Context, documentID string, pages []int) ([]store.Chunk, error)
	// ChunksUnderHeading returns chunks whose parent heading is heading, in reading order.
	ChunksUnderHeading(ctx context.Context, documentID, heading string, limit int) ([]store.Chunk, error)
}

type Config struct {
	TopK                 int
	EvidenceBudget       int
	MaxContextChars      int
	SummaryPages         int
	ChunksPerSummaryPage int
	SimilarityFloor      float64
	SectionSeeds         int
	HeadingChunkLimit    int
	Timeout              time.Duration
}

func DefaultConfig() Config {
	return Config{
		TopK:                 6,
		EvidenceBudget:       12,
		MaxContextChars:      12000,
		SummaryPages:         6,
		ChunksPerSummaryPage: 2,
		SimilarityFloor:      0.35,
		SectionSeeds:         3,
		HeadingChunkLimit:    30,
		Timeout:              10 * time.Second,
	}
}

type Retriever struct {
	index  ChunkIndex
	cfg    Config
	logger *zap.Logger
}

func NewRetriever(index ChunkIndex, cfg Config, logger *zap.Logger) *Retriever {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Retriever{index: index, cfg: cfg, logger: logger.Named("retriever")}
}

// Retrieve builds the evidence for one question. An empty set is not an
// error; the caller must answer "not found in the material".
func (r *Retriever) Retrieve(ctx context.Context, outline store.Outline, res intent.Result) (*EvidenceSet, error) {
	var (
		chunks []store.Chunk
		err    error
	)

	switch res.Strategy {
	case intent.Summary:
		chunks, err = r.summary(ctx, outline)
	case intent.SectionLookup:
		chunks, err = r.section(ctx, outline.DocumentID, res)
	default:
		chunks, err = r.general(ctx, outline.DocumentID, res.Query)
	}
	if err != nil {
		return nil, err
	}

	chunks = r.applyCharBudget(chunks)
	r.logger.Debug("evidence selected",
		zap.String("document", outline.DocumentID),
		zap.String("strategy", string(res.Strategy)),
		zap.Int("chunks", len(chunks)),
	)
	return NewEvidenceSet(outline.DocumentID, res.Strategy, chunks), nil
}

// summary takes the first chunks of evenly spread pages so the overview
// covers the whole document instead of the best-matching fragment.
func (r *Retriever) summary(ctx context.Context, outline store.Outline) ([]store.Chunk, error) {
	pages := SpreadPages(outline.PageCount, r.cfg.SummaryPages)
	if len(pages) == 0 {
		return nil, nil
	}

	onPages, err := r.onPages(ctx, outline.DocumentID, pages)
	if err != nil {
		return nil, err
	}
	sortReadingOrder(onPages)

	perPage := make(map[int]int)
	var out []store.Chunk
	for _, c := range onPages {
		if strings.TrimSpace(c.Text) == "" || perPage[c.Page] >= r.cfg.ChunksPerSummaryPage {
			continue
		}
		perPage[c.Page]++
		out = append(out, c)
	}
	if len(out) > r.cfg.EvidenceBudget {
		out = thin(out, r.cfg.EvidenceBudget)
	}
	return out, nil
}

// section combines similarity seeds with the matched heading's chunks and
// expands every seed to its whole page, returned in reading order.
func (r *Retriever) section(ctx context.Context, documentID string, res intent.Result) ([]store.Chunk, error) {
	seeds, err := r.similar(ctx, documentID, res.Query, "", r.cfg.SectionSeeds)
	if err != nil {
		return nil, err
	}

	var underHeading []store.Chunk
	if res.TargetHeading != "" {
		headings, err := r.similar(ctx, documentID, res.TargetHeading, store.ChunkHeading, 1)
		if err != nil {
			return nil, err
		}
		if len(headings) > 0 {
			h := headings[0]
			underHeading = append(underHeading, h)
			children, err := r.underHeading(ctx, documentID, strings.TrimSpace(h.Text))
			if err != nil {
				return nil, err
			}
			underHeading = append(underHeading, children...)
		}
	}

	if len(seeds) == 0 && len(underHeading) == 0 {
		return nil, nil
	}

	var pages []int
	seenPage := make(map[int]bool)
	for _, s := range seeds {
		if !seenPage[s.Page] {
			seenPage[s.Page] = true
			pages = append(pages, s.Page)
		}
	}
	var expanded []store.Chunk
	if len(pages) > 0 {
		onPages, err := r.onPages(ctx, documentID, pages)
		if err != nil {
			return nil, err
		}
		expanded = groupByPage(onPages, pages)
	}

	// Seed pages are filled before heading children so a long section
	// cannot crowd out a seed's neighbours.
	out := collect(r.cfg.EvidenceBudget, seeds, expanded, underHeading)
	sortReadingOrder(out)
	return out, nil
}

func (r *Retriever) general(ctx context.Context, documentID, query string) ([]store.Chunk, error) {
	k := r.cfg.TopK
	if k > r.cfg.EvidenceBudget {
		k = r.cfg.EvidenceBudget
	}
	return r.similar(ctx, documentID, query, "", k)
}

func (r *Retriever) similar(ctx context.Context, documentID, query, kind string, limit int) ([]store.Chunk, error) {
	if strings.TrimSpace(query) == "" || limit <= 0 {
		return nil, nil
	}
	return utils.RetryOnce(ctx, rag.IsRetryable, func(ctx context.Context) ([]store.Chunk, error) {
		cctx, cancel := context.WithTimeout(ctx, r.cfg.Timeout)
		defer cancel()
		chunks, err := r.index.Similar(cctx, documentID, query, kind, limit, r.cfg.SimilarityFloor)
		if err != nil {
			return nil, rag.Upstream("chunk similarity", err)
		}
		// The floor is enforced here too so a lax index cannot leak weak chunks.
		kept := chunks[:0]
		for _, c := range chunks {
			if c.Score >= r.cfg.SimilarityFloor {
				kept = append(kept, c)
			}
		}
		return kept, nil
	})
}

func (r *Retriever) onPages(ctx context.Context, documentID string, pages []int) ([]store.Chunk, error) {
	return utils.RetryOnce(ctx, rag.IsRetryable, func(ctx context.Context) ([]store.Chunk, error) {
		cctx, cancel := context.WithTimeout(ctx, r.cfg.Timeout)
		defer cancel()
		chunks, err := r.index.ChunksOnPages(cctx, documentID, pages)
		return chunks, rag.Upstream("chunks on pages", err)
	})
}

func (r *Retriever) underHeading(ctx context.Context, documentID, heading string) ([]store.Chunk, error) {
	if heading == "" {
		return nil, nil
	}
	return utils.RetryOnce(ctx, rag.IsRetryable, func(ctx context.Context) ([]store.Chunk, error) {
		cctx, cancel := context.WithTimeout(ctx, r.cfg.Timeout)
		defer cancel()
		chunks, err := r.index.ChunksUnderHeading(cctx, documentID, heading, r.cfg.HeadingChunkLimit)
		return chunks, rag.Upstream("chunks under heading", err)
	})
}

// applyCharBudget drops trailing chunks once the text budget is spent. The
// first chunk is always kept.
func (r *Retriever) applyCharBudget(chunks []store.Chunk) []store.Chunk {
	if r.cfg.MaxContextChars <= 0 {
		return chunks
	}
	total := 0
	for i, c := range chunks {
		total += len([]rune(c.Text))
		if total > r.cfg.MaxContextChars && i > 0 {
			return chunks[:i]
		}
	}
	return chunks
}

// SpreadPages picks up to n page numbers evenly across 1..pageCount,
// always including the first and last page.
func SpreadPages(pageCount, n int) []int {
	if pageCount <= 0 || n <= 0 {
		return nil
	}
	if pageCount <= n {
		pages := make([]int, pageCount)
		for i := range pages {
			pages[i] = i + 1
		}
		return pages
	}
	if n == 1 {
		return []int{1}
	}

	pages := make([]int, 0, n)
	last := 0
	for i := 0; i < n; i++ {
		p := 1 + int(float64(i)*float64(pageCount-1)/float64(n-1)+0.5)
		if p != last {
			pages = append(pages, p)
			last = p
		}
	}
	return pages
}

// collect merges lists in priority order, dropping duplicates, up to budget.
// groupByPage orders chunks page by page following pages, reading order
// within a page.
func groupByPage(chunks []store.Chunk, pages []int) []store.Chunk {
	sortReadingOrder(chunks)
	byPage := make(map[int][]store.Chunk, len(pages))
	for _, c := range chunks {
		byPage[c.Page] = append(byPage[c.Page], c)
	}
	out := make([]store.Chunk, 0, len(chunks))
	for _, p := range pages {
		out = append(out, byPage[p]...)
	}
	return out
}

func collect(budget int, lists ...[]store.Chunk) []store.Chunk {
	seen := make(map[string]bool)
	var out []store.Chunk
	for _, list := range lists {
		for _, c := range list {
			if budget > 0 && len(out) >= budget {
				return out
			}
			if seen[c.ID] {
				continue
			}
			seen[c.ID] = true
			out = append(out, c)
		}
	}
	return out
}

// thin keeps n chunks spread evenly over the input, preserving order.
func thin(chunks []store.Chunk, n int) []store.Chunk {
	if n <= 0 || len(chunks) <= n {
		return chunks
	}
	out := make([]store.Chunk, 0, n)
	step := float64(len(chunks)) / float64(n)
	for i := 0; i < n; i++ {
		out = append(out, chunks[int(float64(i)*step)])
	}
	return out
}

func sortReadingOrder(chunks []store.Chunk) {
	sort.SliceStable(chunks, func(i, j int) bool {
		if chunks[i].Page != chunks[j].Page {
			return chunks[i].Page < chunks[j].Page
		}
		return chunks[i].Order < chunks[j].Order
	})
}
