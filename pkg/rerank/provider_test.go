package rerank

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRerankAlignsScoresWithInput(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/rerank", r.URL.Path)
		var req rerankRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, "1984", req.Query)
		// Results come back sorted by score, not by input order.
		_ = json.NewEncoder(w).Encode([]rerankResult{{Index: 1, Score: 0.9}, {Index: 0, Score: 0.1}})
	}))
	defer srv.Close()

	scores, err := NewTEIReranker(srv.URL, "").Rerank(context.Background(), "1984", []string{"Tắt Đèn", "1984 - George Orwell"})
	require.NoError(t, err)
	assert.Equal(t, []float64{0.1, 0.9}, scores)
}

func TestRerankRejectsPartialResults(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode([]rerankResult{{Index: 0, Score: 0.5}})
	}))
	defer srv.Close()

	_, err := NewTEIReranker(srv.URL, "").Rerank(context.Background(), "q", []string{"a", "b"})
	assert.Error(t, err)
}

func TestRerankEmptyInput(t *testing.T) {
	scores, err := NewTEIReranker("http://unused", "").Rerank(context.Background(), "q", nil)
	assert.NoError(t, err)
	assert.Nil(t, scores)
}
