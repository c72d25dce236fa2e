package retriever

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"testing"

	"library-assistant-be/pkg/rag"
	"library-assistant-be/pkg/rag/intent"
	"library-assistant-be/pkg/store"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeIndex struct {
	chunks       []store.Chunk
	scores       map[string]float64 // query -> score applied to matching chunks
	similarCalls int
	pageCalls    [][]int
	err          error
}

func (f *fakeIndex) Similar(ctx context.Context, documentID, query, kind string, limit int, floor float64) ([]store.Chunk, error) {
	f.similarCalls++
	if f.err != nil {
		return nil, f.err
	}
	var out []store.Chunk
	for _, c := range f.chunks {
		if kind != "" && c.Kind != kind {
			continue
		}
		score := 0.0
		if strings.Contains(strings.ToLower(c.Text), strings.ToLower(query)) {
			score = 0.9
		}
		if s, ok := f.scores[c.ID]; ok {
			score = s
		}
		if score < floor {
			continue
		}
		c.Score = score
		out = append(out, c)
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Score > out[j].Score })
	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (f *fakeIndex) ChunksOnPages(ctx context.Context, documentID string, pages []int) ([]store.Chunk, error) {
	f.pageCalls = append(f.pageCalls, pages)
	want := make(map[int]bool)
	for _, p := range pages {
		want[p] = true
	}
	var out []store.Chunk
	for _, c := range f.chunks {
		if want[c.Page] {
			out = append(out, c)
		}
	}
	return out, nil
}

func (f *fakeIndex) ChunksUnderHeading(ctx context.Context, documentID, heading string, limit int) ([]store.Chunk, error) {
	var out []store.Chunk
	for _, c := range f.chunks {
		if c.Heading == heading && c.Kind != store.ChunkHeading {
			out = append(out, c)
		}
	}
	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

// book builds pages*perPage text chunks in reading order.
func book(pages, perPage int) []store.Chunk {
	var chunks []store.Chunk
	order := 0
	for p := 1; p <= pages; p++ {
		for i := 0; i < perPage; i++ {
			chunks = append(chunks, store.Chunk{
				ID:    fmt.Sprintf("p%d-c%d", p, i),
				Page:  p,
				Order: order,
				Kind:  store.ChunkText,
				Text:  fmt.Sprintf("page %d chunk %d", p, i),
				Boxes: []store.BoundingBox{{X0: 1, Y0: 2, X1: 3, Y1: 4}},
			})
			order++
		}
	}
	return chunks
}

func TestSpreadPages(t *testing.T) {
	assert.Equal(t, []int{1, 21, 40, 60, 79, 99}, SpreadPages(99, 6)[:6])
	assert.Equal(t, []int{1, 2, 3}, SpreadPages(3, 6))
	assert.Equal(t, []int{1}, SpreadPages(50, 1))
	assert.Nil(t, SpreadPages(0, 6))

	pages := SpreadPages(100, 6)
	require.Len(t, pages, 6)
	assert.Equal(t, 1, pages[0])
	assert.Equal(t, 100, pages[len(pages)-1])
}

func TestRetrieveSummarySpreadsAcrossDocument(t *testing.T) {
	idx := &fakeIndex{chunks: book(60, 4)}
	r := NewRetriever(idx, DefaultConfig(), nil)

	ev, err := r.Retrieve(context.Background(),
		store.Outline{DocumentID: "doc", PageCount: 60},
		intent.Result{Strategy: intent.Summary, Query: "tóm tắt toàn bộ"})
	require.NoError(t, err)

	chunks := ev.Chunks()
	require.Len(t, chunks, 12)
	assert.Equal(t, intent.Summary, ev.Strategy())
	assert.Equal(t, 1, chunks[0].Page)
	assert.Equal(t, 60, chunks[len(chunks)-1].Page)

	perPage := map[int]int{}
	for _, c := range chunks {
		perPage[c.Page]++
	}
	assert.Len(t, perPage, 6)
	for _, n := range perPage {
		assert.LessOrEqual(t, n, 2)
	}
	assert.Equal(t, 0, idx.similarCalls, "summary does not rank by similarity")
}

func TestRetrieveSectionExpandsSamePageInReadingOrder(t *testing.T) {
	chunks := book(5, 3)
	chunks = append(chunks,
		store.Chunk{ID: "h2", Page: 4, Order: 100, Kind: store.ChunkHeading, Text: "Chương 2"},
	)
	chunks[10].Heading = "Chương 2" // p4-c1
	chunks[11].Heading = "Chương 2" // p4-c2

	idx := &fakeIndex{
		chunks: chunks,
		scores: map[string]float64{"p2-c1": 0.8, "h2": 0.95},
	}
	r := NewRetriever(idx, DefaultConfig(), nil)

	ev, err := r.Retrieve(context.Background(),
		store.Outline{DocumentID: "doc", PageCount: 5},
		intent.Result{Strategy: intent.SectionLookup, Query: "chương 2", TargetHeading: "Chương 2"})
	require.NoError(t, err)

	got := ev.Chunks()
	ids := make([]string, len(got))
	for i, c := range got {
		ids[i] = c.ID
	}
	// Seeds are h2 (page 4) and p2-c1 (page 2); both pages are expanded.
	assert.Equal(t, []string{"p2-c0", "p2-c1", "p2-c2", "p4-c0", "p4-c1", "p4-c2", "h2"}, ids)

	for i := 1; i < len(got); i++ {
		prev, cur := got[i-1], got[i]
		assert.True(t, prev.Page < cur.Page || (prev.Page == cur.Page && prev.Order < cur.Order))
	}
}

func TestRetrieveSectionRespectsBudget(t *testing.T) {
	idx := &fakeIndex{chunks: book(4, 10), scores: map[string]float64{"p1-c0": 0.9, "p2-c0": 0.8, "p3-c0": 0.7}}
	cfg := DefaultConfig()
	cfg.EvidenceBudget = 5
	r := NewRetriever(idx, cfg, nil)

	ev, err := r.Retrieve(context.Background(), store.Outline{DocumentID: "doc", PageCount: 4},
		intent.Result{Strategy: intent.SectionLookup, Query: "phần 1"})
	require.NoError(t, err)

	ids := map[string]bool{}
	for _, c := range ev.Chunks() {
		ids[c.ID] = true
	}
	assert.Equal(t, 5, ev.Len())
	assert.True(t, ids["p1-c0"] && ids["p2-c0"] && ids["p3-c0"], "seeds are kept before expansions")
}

func TestRetrieveSectionKeepsSeedPageWhenHeadingIsLong(t *testing.T) {
	chunks := book(20, 3)
	chunks = append(chunks,
		store.Chunk{ID: "h2", Page: 5, Order: 1000, Kind: store.ChunkHeading, Text: "Chương 2"},
	)
	for i := range chunks {
		if chunks[i].Page >= 5 && chunks[i].Page <= 9 && chunks[i].Kind == store.ChunkText {
			chunks[i].Heading = "Chương 2"
		}
	}

	idx := &fakeIndex{
		chunks: chunks,
		scores: map[string]float64{"h2": 0.95, "p15-c1": 0.9},
	}
	r := NewRetriever(idx, DefaultConfig(), nil)

	ev, err := r.Retrieve(context.Background(),
		store.Outline{DocumentID: "doc", PageCount: 20},
		intent.Result{Strategy: intent.SectionLookup, Query: "định nghĩa", TargetHeading: "Chương 2"})
	require.NoError(t, err)

	ids := map[string]bool{}
	for _, c := range ev.Chunks() {
		ids[c.ID] = true
	}
	assert.Equal(t, DefaultConfig().EvidenceBudget, ev.Len())
	for _, id := range []string{"p15-c0", "p15-c1", "p15-c2", "h2", "p5-c0", "p5-c1", "p5-c2"} {
		assert.True(t, ids[id], "missing %s", id)
	}
}

func TestRetrieveGeneralIsBoundedByTopK(t *testing.T) {
	chunks := book(3, 5)
	for i := range chunks {
		chunks[i].Text = "lạm phát " + chunks[i].Text
	}
	idx := &fakeIndex{chunks: chunks}
	r := NewRetriever(idx, DefaultConfig(), nil)

	ev, err := r.Retrieve(context.Background(), store.Outline{DocumentID: "doc", PageCount: 3},
		intent.Result{Strategy: intent.GeneralGrounded, Query: "lạm phát"})
	require.NoError(t, err)
	assert.Equal(t, DefaultConfig().TopK, ev.Len())
}

func TestRetrieveNothingAboveFloorIsEmpty(t *testing.T) {
	idx := &fakeIndex{chunks: book(3, 2), scores: map[string]float64{"p1-c0": 0.2}}
	r := NewRetriever(idx, DefaultConfig(), nil)

	for _, s := range []intent.Strategy{intent.GeneralGrounded, intent.SectionLookup} {
		ev, err := r.Retrieve(context.Background(), store.Outline{DocumentID: "doc", PageCount: 3},
			intent.Result{Strategy: s, Query: "quantum chromodynamics"})
		require.NoError(t, err)
		assert.True(t, ev.Empty(), string(s))
	}
}

func TestRetrieveCharBudget(t *testing.T) {
	chunks := book(1, 4)
	for i := range chunks {
		chunks[i].Text = "x " + strings.Repeat("a", 100)
	}
	idx := &fakeIndex{chunks: chunks}
	cfg := DefaultConfig()
	cfg.MaxContextChars = 250
	r := NewRetriever(idx, cfg, nil)

	ev, err := r.Retrieve(context.Background(), store.Outline{DocumentID: "doc", PageCount: 1},
		intent.Result{Strategy: intent.GeneralGrounded, Query: "x"})
	require.NoError(t, err)
	assert.Equal(t, 2, ev.Len())
}

func TestRetrieveUpstreamFailure(t *testing.T) {
	idx := &fakeIndex{chunks: book(1, 1), err: errors.New("connection refused")}
	r := NewRetriever(idx, DefaultConfig(), nil)

	_, err := r.Retrieve(context.Background(), store.Outline{DocumentID: "doc", PageCount: 1},
		intent.Result{Strategy: intent.GeneralGrounded, Query: "x"})
	require.Error(t, err)
	assert.ErrorIs(t, err, rag.ErrUpstreamUnavailable)
	assert.Equal(t, 2, idx.similarCalls, "idempotent reads are retried once")
}

func TestEvidenceSetChunksIsACopy(t *testing.T) {
	ev := NewEvidenceSet("doc", intent.GeneralGrounded, book(1, 1))
	c := ev.Chunks()
	c[0].Text = "changed"
	c[0].Boxes[0].X0 = 99

	again := ev.Chunks()
	assert.Equal(t, "page 1 chunk 0", again[0].Text)
	assert.Equal(t, 1.0, again[0].Boxes[0].X0)
	assert.True(t, (*EvidenceSet)(nil).Empty())
}
