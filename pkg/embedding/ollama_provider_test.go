package embedding

import (
	"context"
	"encoding/json"
	"math"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOllamaGenerateNormalizesAndPrefixes(t *testing.T) {
	var got ollamaEmbeddingRequest
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		_ = json.NewEncoder(w).Encode(ollamaEmbeddingResponse{Embedding: []float64{3, 4}})
	}))
	defer srv.Close()

	p := NewOllamaProvider(srv.URL, "nomic-embed-text")
	res, err := p.Generate(context.Background(), "sách lịch sử", TaskRetrievalQuery)

	require.NoError(t, err)
	assert.Equal(t, "search_query: sách lịch sử", got.Prompt)
	require.Len(t, res.Embedding.Values, 2)
	assert.InDelta(t, 0.6, res.Embedding.Values[0], 1e-6)
	assert.InDelta(t, 0.8, res.Embedding.Values[1], 1e-6)
}

func TestNormalizeVector(t *testing.T) {
	v := normalizeVector([]float32{1, 2, 2})
	var mag float64
	for _, x := range v {
		mag += float64(x) * float64(x)
	}
	assert.InDelta(t, 1.0, math.Sqrt(mag), 1e-6)
	assert.Equal(t, []float32{0, 0}, normalizeVector([]float32{0, 0}))
}
