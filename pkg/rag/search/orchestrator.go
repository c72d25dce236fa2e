package search

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"library-assistant-be/pkg/rag"
	"library-assistant-be/pkg/store"
	"library-assistant-be/pkg/utils"

	"go.uber.org/zap"
)

// KeywordIndex is a full-text index over title and description.
type KeywordIndex interface {
	KeywordSearch(ctx context.Context, query string, limit int) ([]Hit, error)
}

// VectorIndex is a nearest-neighbour index over title+description embeddings.
// Hits below floor are not returned.
type VectorIndex interface {
	VectorSearch(ctx context.Context, query string, limit int, floor float64) ([]Hit, error)
}

// Catalog hydrates identifiers into titles. Unknown identifiers are skipped.
type Catalog interface {
	FindTitles(ctx context.Context, ids []string) ([]store.CatalogTitle, error)
}

// Reranker scores each document against the query, aligned with input order.
type Reranker interface {
	Rerank(ctx context.Context, query string, documents []string) ([]float64, error)
}

// ScoredTitle is a fused (and possibly reranked) search result.
type ScoredTitle struct {
	store.CatalogTitle
	Score    float64 `json:"score"`
	Reranked bool    `json:"reranked"`
}

// Config encapsulates search parameters
type Config struct {
	Fusion        FusionConfig
	CandidateK    int
	RerankTopK    int
	TopN          int
	SemanticFloor float64
	RerankFloor   float64
	Timeout       time.Duration
}

// DefaultConfig returns default search configuration
func DefaultConfig() Config {
	return Config{
		Fusion: FusionConfig{
			K:              60,
			LexicalWeight:  0.5,
			SemanticWeight: 0.5,
		},
		CandidateK:    20,
		RerankTopK:    20,
		TopN:          5,
		SemanticFloor: 0.35,
		RerankFloor:   0.15,
		Timeout:       10 * time.Second,
	}
}

// Fuser runs keyword and embedding retrieval side by side and reconciles them.
type Fuser struct {
	keywords KeywordIndex
	vectors  VectorIndex
	catalog  Catalog
	reranker Reranker
	cfg      Config
	logger   *zap.Logger
}

// NewFuser creates a fuser. reranker may be nil.
func NewFuser(keywords KeywordIndex, vectors VectorIndex, catalog Catalog, reranker Reranker, cfg Config, logger *zap.Logger) *Fuser {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Fuser{
		keywords: keywords,
		vectors:  vectors,
		catalog:  catalog,
		reranker: reranker,
		cfg:      cfg,
		logger:   logger.Named("fuser"),
	}
}

// Search returns ranked titles for query. No candidate above the floor is an
// empty result, not an error; an error always means the backends failed.
func (f *Fuser) Search(ctx context.Context, query string) ([]ScoredTitle, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return nil, nil
	}

	// Both sources always run to completion; one failing degrades the
	// result instead of cancelling the other.
	var (
		lexical, semantic []Hit
		lexErr, semErr    error
		wg                sync.WaitGroup
	)
	wg.Add(2)
	go func() {
		defer wg.Done()
		lexical, lexErr = f.keywordSearch(ctx, query)
	}()
	go func() {
		defer wg.Done()
		semantic, semErr = f.vectorSearch(ctx, query)
	}()
	wg.Wait()

	switch {
	case lexErr != nil && semErr != nil:
		return nil, rag.Upstream("catalog search", errors.Join(lexErr, semErr))
	case lexErr != nil:
		f.logger.Warn("keyword search failed, using semantic results only", zap.Error(lexErr))
	case semErr != nil:
		f.logger.Warn("vector search failed, using keyword results only", zap.Error(semErr))
	}

	fused := Fuse(lexical, semantic, f.cfg.Fusion)
	f.logger.Debug("fused candidates",
		zap.String("query", query),
		zap.Int("lexical", len(lexical)),
		zap.Int("semantic", len(semantic)),
		zap.Int("fused", len(fused)),
	)
	if len(fused) == 0 {
		return nil, nil
	}
	if f.cfg.RerankTopK > 0 && len(fused) > f.cfg.RerankTopK {
		fused = fused[:f.cfg.RerankTopK]
	}

	titles, err := f.hydrate(ctx, fused)
	if err != nil {
		return nil, err
	}

	candidates := make([]Fused, 0, len(fused))
	for _, c := range fused {
		if _, ok := titles[c.ID]; ok {
			candidates = append(candidates, c)
		}
	}

	reranked := false
	if f.reranker != nil && len(candidates) > 0 {
		scores, err := f.rerank(ctx, query, candidates, titles)
		if err != nil {
			f.logger.Warn("rerank failed, keeping fused order", zap.Error(err))
		} else {
			candidates = Reorder(candidates, scores, f.cfg.RerankFloor)
			reranked = true
		}
	}

	if f.cfg.TopN > 0 && len(candidates) > f.cfg.TopN {
		candidates = candidates[:f.cfg.TopN]
	}

	results := make([]ScoredTitle, 0, len(candidates))
	for _, c := range candidates {
		results = append(results, ScoredTitle{
			CatalogTitle: titles[c.ID],
			Score:        c.Score,
			Reranked:     reranked,
		})
	}
	return results, nil
}

func (f *Fuser) keywordSearch(ctx context.Context, query string) ([]Hit, error) {
	if f.keywords == nil {
		return nil, nil
	}
	return utils.RetryOnce(ctx, rag.IsRetryable, func(ctx context.Context) ([]Hit, error) {
		cctx, cancel := context.WithTimeout(ctx, f.cfg.Timeout)
		defer cancel()
		hits, err := f.keywords.KeywordSearch(cctx, query, f.cfg.CandidateK)
		return hits, rag.Upstream("keyword search", err)
	})
}

func (f *Fuser) vectorSearch(ctx context.Context, query string) ([]Hit, error) {
	if f.vectors == nil {
		return nil, nil
	}
	return utils.RetryOnce(ctx, rag.IsRetryable, func(ctx context.Context) ([]Hit, error) {
		cctx, cancel := context.WithTimeout(ctx, f.cfg.Timeout)
		defer cancel()
		hits, err := f.vectors.VectorSearch(cctx, query, f.cfg.CandidateK, f.cfg.SemanticFloor)
		return hits, rag.Upstream("vector search", err)
	})
}

func (f *Fuser) hydrate(ctx context.Context, fused []Fused) (map[string]store.CatalogTitle, error) {
	ids := make([]string, len(fused))
	for i, c := range fused {
		ids[i] = c.ID
	}

	titles, err := utils.RetryOnce(ctx, rag.IsRetryable, func(ctx context.Context) ([]store.CatalogTitle, error) {
		cctx, cancel := context.WithTimeout(ctx, f.cfg.Timeout)
		defer cancel()
		titles, err := f.catalog.FindTitles(cctx, ids)
		return titles, rag.Upstream("catalog hydrate", err)
	})
	if err != nil {
		return nil, err
	}

	byID := make(map[string]store.CatalogTitle, len(titles))
	for _, t := range titles {
		byID[t.ID] = t
	}
	return byID, nil
}

func (f *Fuser) rerank(ctx context.Context, query string, candidates []Fused, titles map[string]store.CatalogTitle) ([]float64, error) {
	docs := make([]string, len(candidates))
	for i, c := range candidates {
		docs[i] = rerankText(titles[c.ID])
	}

	cctx, cancel := context.WithTimeout(ctx, f.cfg.Timeout)
	defer cancel()

	scores, err := f.reranker.Rerank(cctx, query, docs)
	if err != nil {
		return nil, err
	}
	if len(scores) != len(docs) {
		return nil, fmt.Errorf("reranker returned %d scores for %d documents", len(scores), len(docs))
	}
	return scores, nil
}

func rerankText(t store.CatalogTitle) string {
	var b strings.Builder
	b.WriteString(t.Title)
	if t.Author != "" {
		b.WriteString(" - ")
		b.WriteString(t.Author)
	}
	if t.Description != "" {
		b.WriteString(". ")
		b.WriteString(t.Description)
	}
	return b.String()
}
