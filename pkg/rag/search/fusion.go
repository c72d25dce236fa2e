package search

import "sort"

// Hit is one candidate from a single source, in that source's rank order.
type Hit struct {
	ID    string
	Score float64
}

// FusionConfig holds the weighted reciprocal-rank fusion constants.
type FusionConfig struct {
	K              float64
	LexicalWeight  float64
	SemanticWeight float64
}

// Fused is a candidate after fusion. Ranks are 1-based; 0 means the source
// did not return the candidate.
type Fused struct {
	ID            string
	Score         float64
	LexicalRank   int
	LexicalScore  float64
	SemanticRank  int
	SemanticScore float64
}

// Fuse merges the two ranked lists with weighted reciprocal-rank fusion:
// score = wl/(k+rank_l) + ws/(k+rank_s). Duplicates inside a list keep their
// best rank. Equal scores are ordered by lexical match first, then by
// semantic score, then by identifier, so the output is fully deterministic.
func Fuse(lexical, semantic []Hit, cfg FusionConfig) []Fused {
	byID := make(map[string]*Fused)
	var order []string

	get := func(id string) *Fused {
		f, ok := byID[id]
		if !ok {
			f = &Fused{ID: id}
			byID[id] = f
			order = append(order, id)
		}
		return f
	}

	rank := 0
	for _, h := range lexical {
		if h.ID == "" {
			continue
		}
		f := get(h.ID)
		if f.LexicalRank != 0 {
			continue
		}
		rank++
		f.LexicalRank = rank
		f.LexicalScore = h.Score
		f.Score += cfg.LexicalWeight / (cfg.K + float64(rank))
	}

	rank = 0
	for _, h := range semantic {
		if h.ID == "" {
			continue
		}
		f := get(h.ID)
		if f.SemanticRank != 0 {
			continue
		}
		rank++
		f.SemanticRank = rank
		f.SemanticScore = h.Score
		f.Score += cfg.SemanticWeight / (cfg.K + float64(rank))
	}

	out := make([]Fused, 0, len(order))
	for _, id := range order {
		out = append(out, *byID[id])
	}

	sort.SliceStable(out, func(i, j int) bool {
		a, b := out[i], out[j]
		if a.Score != b.Score {
			return a.Score > b.Score
		}
		if (a.LexicalRank > 0) != (b.LexicalRank > 0) {
			return a.LexicalRank > 0
		}
		if a.LexicalRank != b.LexicalRank {
			return a.LexicalRank < b.LexicalRank
		}
		if a.SemanticScore != b.SemanticScore {
			return a.SemanticScore > b.SemanticScore
		}
		return a.ID < b.ID
	})
	return out
}

// Reorder applies reranker scores (aligned with candidates) and drops every
// candidate below floor. Ties keep the fused order.
func Reorder(candidates []Fused, scores []float64, floor float64) []Fused {
	kept := make([]Fused, 0, len(candidates))
	for i, c := range candidates {
		if i >= len(scores) {
			break
		}
		if scores[i] < floor {
			continue
		}
		c.Score = scores[i]
		kept = append(kept, c)
	}

	sort.SliceStable(kept, func(i, j int) bool {
		return kept[i].Score > kept[j].Score
	})
	return kept
}
