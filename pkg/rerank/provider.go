// Package rerank scores query/passage pairs with a cross-encoder served over HTTP.
package rerank

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"
)

// TEIReranker calls a text-embeddings-inference style /rerank endpoint
// (for example BAAI/bge-reranker-v2-m3). Scores are sigmoid-normalized to [0, 1].
type TEIReranker struct {
	baseURL string
	apiKey  string
	client  *http.Client
}

type rerankRequest struct {
	Query     string   `json:"query"`
	Texts     []string `json:"texts"`
	RawScores bool     `json:"raw_scores"`
	Truncate  bool     `json:"truncate"`
}

type rerankResult struct {
	Index int     `json:"index"`
	Score float64 `json:"score"`
}

func NewTEIReranker(baseURL, apiKey string) *TEIReranker {
	return &TEIReranker{
		baseURL: baseURL,
		apiKey:  apiKey,
		client:  &http.Client{Timeout: 30 * time.Second},
	}
}

// Rerank returns one score per document, aligned with the input order.
func (r *TEIReranker) Rerank(ctx context.Context, query string, documents []string) ([]float64, error) {
	if len(documents) == 0 {
		return nil, nil
	}

	body, err := json.Marshal(rerankRequest{Query: query, Texts: documents, Truncate: true})
	if err != nil {
		return nil, fmt.Errorf("marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, r.baseURL+"/rerank", bytes.NewBuffer(body))
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if r.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+r.apiKey)
	}

	resp, err := r.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("rerank request failed: %w", err)
	}
	defer resp.Body.Close()

	bodyBytes, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("rerank error: status %d, body: %s", resp.StatusCode, string(bodyBytes))
	}

	var results []rerankResult
	if err := json.Unmarshal(bodyBytes, &results); err != nil {
		return nil, fmt.Errorf("unmarshal response: %w", err)
	}

	scores := make([]float64, len(documents))
	seen := 0
	for _, res := range results {
		if res.Index < 0 || res.Index >= len(documents) {
			return nil, fmt.Errorf("rerank returned out-of-range index %d", res.Index)
		}
		scores[res.Index] = res.Score
		seen++
	}
	if seen != len(documents) {
		return nil, fmt.Errorf("rerank returned %d scores for %d documents", seen, len(documents))
	}
	return scores, nil
}
