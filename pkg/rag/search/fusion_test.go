package search

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var testFusion = FusionConfig{K: 60, LexicalWeight: 0.5, SemanticWeight: 0.5}

func ids(fused []Fused) []string {
	out := make([]string, len(fused))
	for i, f := range fused {
		out[i] = f.ID
	}
	return out
}

func TestFuseRewardsAgreement(t *testing.T) {
	lexical := []Hit{{ID: "A", Score: 0.9}, {ID: "B", Score: 0.5}}
	semantic := []Hit{{ID: "B", Score: 0.8}, {ID: "C", Score: 0.7}}

	got := Fuse(lexical, semantic, testFusion)

	require.Len(t, got, 3)
	assert.Equal(t, []string{"B", "A", "C"}, ids(got))
	assert.Equal(t, 2, got[0].LexicalRank)
	assert.Equal(t, 1, got[0].SemanticRank)
	assert.InDelta(t, 0.5/62+0.5/61, got[0].Score, 1e-12)
}

func TestFuseTieBreaksLexicalFirst(t *testing.T) {
	// A is lexical rank 1, C is semantic rank 1: identical fused scores.
	got := Fuse([]Hit{{ID: "C2"}, {ID: "A"}}, []Hit{{ID: "C", Score: 0.99}, {ID: "Z", Score: 0.5}}, FusionConfig{K: 60, LexicalWeight: 0.5, SemanticWeight: 0.5})

	require.Len(t, got, 4)
	assert.Equal(t, "C2", got[0].ID, "lexical match wins the tie at rank 1")
	assert.Equal(t, "C", got[1].ID)
	assert.Equal(t, "A", got[2].ID)
	assert.Equal(t, "Z", got[3].ID)
}

func TestFuseTieBreaksBySemanticScoreThenID(t *testing.T) {
	cfg := FusionConfig{K: 60, LexicalWeight: 0, SemanticWeight: 0}
	got := Fuse(nil, []Hit{{ID: "b", Score: 0.4}, {ID: "a", Score: 0.4}, {ID: "c", Score: 0.9}}, cfg)

	assert.Equal(t, []string{"c", "a", "b"}, ids(got))
}

func TestFuseDeduplicatesWithinAList(t *testing.T) {
	got := Fuse([]Hit{{ID: "A"}, {ID: "A"}, {ID: ""}, {ID: "B"}}, nil, testFusion)

	require.Len(t, got, 2)
	assert.Equal(t, 1, got[0].LexicalRank)
	assert.Equal(t, 2, got[1].LexicalRank)
}

func TestFuseEmpty(t *testing.T) {
	assert.Empty(t, Fuse(nil, nil, testFusion))
}

func TestReorderAppliesFloor(t *testing.T) {
	candidates := []Fused{{ID: "A"}, {ID: "B"}, {ID: "C"}}

	got := Reorder(candidates, []float64{0.2, 0.95, 0.05}, 0.15)

	assert.Equal(t, []string{"B", "A"}, ids(got))
	assert.Equal(t, 0.95, got[0].Score)
}

func TestReorderIgnoresMissingScores(t *testing.T) {
	got := Reorder([]Fused{{ID: "A"}, {ID: "B"}}, []float64{0.5}, 0)
	assert.Equal(t, []string{"A"}, ids(got))
}
