package intent

import (
	"context"
	"errors"
	"testing"
	"time"

	"library-assistant-be/pkg/llm"

	"github.com/stretchr/testify/assert"
)

type stubLLM struct {
	reply string
	err   error
	calls int
}

func (s *stubLLM) Chat(ctx context.Context, history []llm.Message, options ...llm.Option) (string, error) {
	s.calls++
	return s.reply, s.err
}

func (s *stubLLM) Generate(ctx context.Context, prompt string, options ...llm.Option) (string, error) {
	return s.Chat(ctx, nil, options...)
}

var doc = DocumentContext{
	Title:     "Giáo trình Mạng máy tính",
	PageCount: 120,
	Headings:  []string{"Chương 1. Tổng quan", "Chương 2. Tầng vật lý", "Giao thức TCP/IP", "A"},
}

func TestClassifyRules(t *testing.T) {
	failing := &stubLLM{err: errors.New("should not be called")}
	c := NewClassifier(failing, time.Second, nil)

	tests := []struct {
		name        string
		question    string
		want        Strategy
		wantHeading string
	}{
		{"summary vietnamese", "tóm tắt toàn bộ", Summary, ""},
		{"summary without accents", "tom tat tai lieu nay giup minh", Summary, ""},
		{"summary english", "Give me an overview", Summary, ""},
		{"chapter number", "chương 2 nói gì", SectionLookup, "Chương 2"},
		{"english section", "what does section 3.1 say", SectionLookup, "Section 3.1"},
		{"roman numeral", "Phần II có gì", SectionLookup, "Phần II"},
		{"known heading", "giao thức tcp/ip hoạt động thế nào", SectionLookup, "Giao thức TCP/IP"},
		{"section beats summary", "tóm tắt chương 2", SectionLookup, "Chương 2"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := c.Classify(context.Background(), tt.question, doc)
			assert.Equal(t, tt.want, got.Strategy)
			assert.Equal(t, tt.wantHeading, got.TargetHeading)
			assert.Equal(t, SourceRule, got.Source)
		})
	}
	assert.Zero(t, failing.calls)
}

func TestClassifyFallsBackToGeneral(t *testing.T) {
	tests := []struct {
		name string
		llm  llm.LLMProvider
	}{
		{"no llm configured", nil},
		{"llm error", &stubLLM{err: context.DeadlineExceeded}},
		{"llm garbage", &stubLLM{reply: "I think it is a summary"}},
		{"unknown label", &stubLLM{reply: `{"strategy":"TRANSLATE","confidence":0.9}`}},
		{"low confidence", &stubLLM{reply: `{"strategy":"SUMMARY","confidence":0.2}`}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := NewClassifier(tt.llm, time.Second, nil)
			got := c.Classify(context.Background(), "cái này là gì vậy", doc)
			assert.Equal(t, GeneralGrounded, got.Strategy)
			assert.Equal(t, "cái này là gì vậy", got.Query)
			assert.Equal(t, SourceFallback, got.Source)
		})
	}
}

func TestClassifyUsesLLMVerdict(t *testing.T) {
	stub := &stubLLM{reply: "```json\n{\"strategy\":\"section_lookup\",\"refined_query\":\"định tuyến\",\"target_heading\":\"Tầng mạng\",\"confidence\":0.8}\n```"}
	c := NewClassifier(stub, time.Second, nil)

	got := c.Classify(context.Background(), "phần nói về định tuyến ấy", doc)

	assert.Equal(t, SectionLookup, got.Strategy)
	assert.Equal(t, "định tuyến", got.Query)
	assert.Equal(t, "Tầng mạng", got.TargetHeading)
	assert.Equal(t, SourceLLM, got.Source)
	assert.Equal(t, 1, stub.calls)
}

func TestClassifyIsDeterministicForRules(t *testing.T) {
	c := NewClassifier(nil, time.Second, nil)
	first := c.Classify(context.Background(), "chương 2 nói gì", doc)
	for i := 0; i < 5; i++ {
		assert.Equal(t, first, c.Classify(context.Background(), "chương 2 nói gì", doc))
	}
}

func TestDocumentContextHasTOC(t *testing.T) {
	assert.True(t, doc.HasTOC())
	assert.False(t, DocumentContext{PageCount: 3}.HasTOC())
}
