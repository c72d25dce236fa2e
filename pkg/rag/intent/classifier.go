// Package intent picks the retrieval strategy for a question about a loaded document.
package intent

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"library-assistant-be/pkg/llm"
	"library-assistant-be/pkg/utils"

	"go.uber.org/zap"
)

// Strategy is the retrieval strategy for a PDF question.
type Strategy string

const (
	Summary         Strategy = "SUMMARY"
	SectionLookup   Strategy = "SECTION_LOOKUP"
	GeneralGrounded Strategy = "GENERAL_GROUNDED"
)

// Where a decision came from.
const (
	SourceRule     = "rule"
	SourceLLM      = "llm"
	SourceFallback = "fallback"
)

// minConfidence is the LLM confidence below which the verdict counts as ambiguous.
const minConfidence = 0.5

var errNotNumeric = errors.New("not numeric")

// DocumentContext is the metadata the classifier may look at.
type DocumentContext struct {
	Title     string
	PageCount int
	Headings  []string
}

// HasTOC reports whether the document exposes any section headings.
func (d DocumentContext) HasTOC() bool {
	return len(d.Headings) > 0
}

// Result is the classification plus the query the retriever should use.
type Result struct {
	Strategy      Strategy `json:"strategy"`
	Query         string   `json:"query"`
	TargetHeading string   `json:"target_heading,omitempty"`
	Source        string   `json:"source"`
}

type llmVerdict struct {
	Strategy      string  `json:"strategy"`
	RefinedQuery  string  `json:"refined_query"`
	TargetHeading string  `json:"target_heading"`
	Confidence    float64 `json:"confidence"`
}

// Classifier applies deterministic rules first and only asks the LLM when
// none fires. It never fails: anything unclear becomes GeneralGrounded.
type Classifier struct {
	llmProvider llm.LLMProvider
	timeout     time.Duration
	logger      *zap.Logger
}

// NewClassifier creates a classifier. llmProvider may be nil.
func NewClassifier(llmProvider llm.LLMProvider, timeout time.Duration, logger *zap.Logger) *Classifier {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Classifier{
		llmProvider: llmProvider,
		timeout:     timeout,
		logger:      logger.Named("intent"),
	}
}

func (c *Classifier) Classify(ctx context.Context, question string, doc DocumentContext) Result {
	if res, ok := matchRules(question, doc); ok {
		c.logger.Debug("rule match", zap.String("strategy", string(res.Strategy)), zap.String("heading", res.TargetHeading))
		return res
	}

	fallback := Result{Strategy: GeneralGrounded, Query: question, Source: SourceFallback}
	if c.llmProvider == nil || strings.TrimSpace(question) == "" {
		return fallback
	}

	cctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	response, err := c.llmProvider.Generate(cctx, buildPrompt(question, doc),
		llm.WithTemperature(0.0),
		llm.WithJSON(),
		llm.WithMaxTokens(256),
	)
	if err != nil {
		c.logger.Warn("llm classification failed, using general strategy", zap.Error(err))
		return fallback
	}

	res, err := parseVerdict(response, question)
	if err != nil {
		c.logger.Warn("unusable llm verdict, using general strategy", zap.Error(err), zap.String("raw", truncate(response, 200)))
		return fallback
	}
	return res
}

func parseVerdict(response, question string) (Result, error) {
	raw := utils.ExtractJSON(response)
	if raw == "" {
		return Result{}, fmt.Errorf("no json object in response")
	}

	var v llmVerdict
	if err := json.Unmarshal([]byte(raw), &v); err != nil {
		return Result{}, fmt.Errorf("decode verdict: %w", err)
	}

	strategy := Strategy(strings.ToUpper(strings.TrimSpace(v.Strategy)))
	switch strategy {
	case Summary, SectionLookup, GeneralGrounded:
	default:
		return Result{}, fmt.Errorf("unknown strategy %q", v.Strategy)
	}
	if v.Confidence < minConfidence {
		return Result{}, fmt.Errorf("ambiguous verdict (confidence %.2f)", v.Confidence)
	}

	query := strings.TrimSpace(v.RefinedQuery)
	if query == "" {
		query = question
	}
	res := Result{Strategy: strategy, Query: query, Source: SourceLLM}
	if strategy == SectionLookup {
		res.TargetHeading = strings.TrimSpace(v.TargetHeading)
	}
	return res, nil
}

func buildPrompt(question string, doc DocumentContext) string {
	var headings strings.Builder
	limit := len(doc.Headings)
	if limit > 40 {
		limit = 40
	}
	for _, h := range doc.Headings[:limit] {
		headings.WriteString("- ")
		headings.WriteString(h)
		headings.WriteString("\n")
	}
	if headings.Len() == 0 {
		headings.WriteString("(no table of contents)\n")
	}

	return fmt.Sprintf(`<task>
Classify how to retrieve evidence from a PDF document to answer the user's question.

DOCUMENT:
- Title: %s
- Pages: %d
- Headings:
%s
STRATEGIES:
- SUMMARY: the user wants an overview or summary of the whole document.
- SECTION_LOOKUP: the user asks about a specific chapter, section or heading.
- GENERAL_GROUNDED: any other question answerable from the document text.

Respond with one JSON object only:
{"strategy": "SUMMARY|SECTION_LOOKUP|GENERAL_GROUNDED", "refined_query": "standalone search query in the user's language", "target_heading": "heading text for SECTION_LOOKUP, else empty", "confidence": 0.0-1.0}
</task>

QUESTION: %s`, doc.Title, doc.PageCount, headings.String(), question)
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
