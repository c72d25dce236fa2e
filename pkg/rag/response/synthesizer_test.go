package response

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"
	"time"

	"library-assistant-be/pkg/llm"
	"library-assistant-be/pkg/rag"
	"library-assistant-be/pkg/rag/intent"
	"library-assistant-be/pkg/rag/retriever"
	"library-assistant-be/pkg/rag/search"
	"library-assistant-be/pkg/store"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubLLM struct {
	reply   string
	err     error
	calls   int
	history []llm.Message
}

func (s *stubLLM) Chat(ctx context.Context, history []llm.Message, options ...llm.Option) (string, error) {
	s.calls++
	s.history = history
	return s.reply, s.err
}

func (s *stubLLM) Generate(ctx context.Context, prompt string, options ...llm.Option) (string, error) {
	return s.Chat(ctx, []llm.Message{{Role: llm.RoleUser, Content: prompt}}, options...)
}

func evidence(n int) *retriever.EvidenceSet {
	chunks := make([]store.Chunk, n)
	for i := range chunks {
		chunks[i] = store.Chunk{
			ID:    fmt.Sprintf("c%d", i+1),
			Page:  i + 3,
			Text:  fmt.Sprintf("đoạn văn %d", i+1),
			Boxes: []store.BoundingBox{{X0: float64(i), Y0: 10, X1: 100, Y1: 20}},
		}
	}
	return retriever.NewEvidenceSet("doc", intent.GeneralGrounded, chunks)
}

func TestDocumentAnswerEmptyEvidenceSkipsLLM(t *testing.T) {
	stub := &stubLLM{reply: `{"answer":"bịa"}`}
	s := NewSynthesizer(stub, time.Second, nil)

	ans, err := s.DocumentAnswer(context.Background(), "lượng tử là gì", retriever.NewEvidenceSet("doc", intent.GeneralGrounded, nil), nil)
	require.NoError(t, err)
	assert.Equal(t, MsgNotInMaterial, ans.Text)
	assert.False(t, ans.Grounded)
	assert.Empty(t, ans.Sources)
	assert.Zero(t, stub.calls)
}

func TestDocumentAnswerSourcesAreUsedChunks(t *testing.T) {
	stub := &stubLLM{reply: "```json\n{\"answer\": \"Lạm phát tăng [1] do cung tiền [ref_3].\", \"used\": [3, 1, 9, 1]}\n```"}
	s := NewSynthesizer(stub, time.Second, nil)

	ans, err := s.DocumentAnswer(context.Background(), "vì sao lạm phát tăng", evidence(3), []store.Turn{
		{Role: store.RoleHuman, Content: "xin chào"},
		{Role: store.RoleAssistant, Content: "chào bạn"},
	})
	require.NoError(t, err)

	assert.Equal(t, "Lạm phát tăng do cung tiền.", ans.Text)
	assert.True(t, ans.Grounded)
	require.Len(t, ans.Sources, 2)
	assert.Equal(t, "c3", ans.Sources[0].ChunkID)
	assert.Equal(t, 5, ans.Sources[0].Page)
	assert.Equal(t, []store.BoundingBox{{X0: 2, Y0: 10, X1: 100, Y1: 20}}, ans.Sources[0].Boxes)
	assert.Equal(t, "c1", ans.Sources[1].ChunkID)

	require.Len(t, stub.history, 4)
	assert.Equal(t, llm.RoleSystem, stub.history[0].Role)
	assert.Equal(t, llm.RoleAssistant, stub.history[2].Role)
	assert.Contains(t, stub.history[3].Content, "đoạn văn 2")
}

func TestDocumentAnswerPlainTextUsesAllChunks(t *testing.T) {
	stub := &stubLLM{reply: "Tài liệu nói về mạng máy tính [1][2]."}
	s := NewSynthesizer(stub, time.Second, nil)

	ans, err := s.DocumentAnswer(context.Background(), "tài liệu nói gì", evidence(2), nil)
	require.NoError(t, err)
	assert.Equal(t, "Tài liệu nói về mạng máy tính.", ans.Text)
	assert.Len(t, ans.Sources, 2)
}

func TestDocumentAnswerLLMFailureIsClassified(t *testing.T) {
	s := NewSynthesizer(&stubLLM{err: context.DeadlineExceeded}, time.Second, nil)
	_, err := s.DocumentAnswer(context.Background(), "q", evidence(1), nil)
	assert.ErrorIs(t, err, rag.ErrUpstreamTimeout)

	s = NewSynthesizer(&stubLLM{err: errors.New("502")}, time.Second, nil)
	_, err = s.DocumentAnswer(context.Background(), "q", evidence(1), nil)
	assert.ErrorIs(t, err, rag.ErrUpstreamUnavailable)
}

func TestStripCitations(t *testing.T) {
	assert.Equal(t, "A và B.", StripCitations("A [1] và B [2, 3]."))
	assert.Equal(t, "Năm 1984 xuất bản.", StripCitations("Năm 1984 xuất bản [ref_12]."))
	assert.Equal(t, "Mảng [a] giữ nguyên", StripCitations("Mảng [a] giữ nguyên"))
}

func TestEmitAppendsBothTurns(t *testing.T) {
	d := store.NewDraft(store.NewSession("k"))
	now := time.Now()
	Emit(d, "Sách 1984 còn không?", "còn 3 bản", now)

	require.Len(t, d.View.History, 2)
	assert.Equal(t, store.RoleHuman, d.View.History[0].Role)
	assert.Equal(t, "còn 3 bản", d.View.History[1].Content)
}

func TestAvailabilityDiffersFromNotInCatalog(t *testing.T) {
	unavailable := Availability(store.AvailabilityStatus{ID: "ID-42", Title: "1984", Total: 3, Available: 0})
	missing := NotInCatalog("1984")

	assert.NotEqual(t, unavailable, missing)
	assert.Contains(t, unavailable, "tạm hết")
	assert.Contains(t, Availability(store.AvailabilityStatus{Title: "1984", Total: 5, Available: 3}), "3/5")
	assert.NotEqual(t, unavailable, Availability(store.AvailabilityStatus{Title: "1984"}))
}

func TestDiscovery(t *testing.T) {
	text := Discovery("lập trình", []search.ScoredTitle{
		{CatalogTitle: store.CatalogTitle{ID: "1", Title: "Go in Action", Author: "Kennedy"}},
		{CatalogTitle: store.CatalogTitle{ID: "2", Title: "Clean Code"}},
	})
	assert.True(t, strings.Index(text, "Go in Action") < strings.Index(text, "Clean Code"))
	assert.Contains(t, text, "1. Go in Action - Kennedy")
	assert.Equal(t, NotInCatalog("lập trình"), Discovery("lập trình", nil))
}

func TestForError(t *testing.T) {
	assert.Equal(t, MsgClarify, ForError(rag.ErrAmbiguousReference))
	assert.Equal(t, MsgTryAgain, ForError(rag.Upstream("x", context.DeadlineExceeded)))
	assert.Equal(t, MsgApology, ForError(rag.Upstream("x", errors.New("boom"))))
	assert.Equal(t, MsgApology, ForError(errors.New("unclassified")))
	assert.Empty(t, ForError(nil))
}
