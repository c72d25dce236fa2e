// Package response turns evidence and lookup results into the text shown to
// the user.
package response

import (
	"context"
	"encoding/json"
	"fmt"
	"regexp"
	"strings"
	"time"

	"library-assistant-be/pkg/llm"
	"library-assistant-be/pkg/rag"
	"library-assistant-be/pkg/rag/retriever"
	"library-assistant-be/pkg/store"
	"library-assistant-be/pkg/utils"

	"go.uber.org/zap"
)

// historyWindow is how many past turns are replayed to the LLM.
const historyWindow = 6

var citationMarker = regexp.MustCompile(`\s*\[(?:(?:ref|source|chunk|doc)[_ ]?)?\d+(?:\s*[,;-]\s*\d+)*\]`)

// SourceSpan points at one chunk the answer relied on.
type SourceSpan struct {
	ChunkID string              `json:"chunk_id"`
	Page    int                 `json:"page"`
	Boxes   []store.BoundingBox `json:"boxes"`
}

// Answer is a synthesized reply. Grounded is false when the reply is the
// fixed not-found text.
type Answer struct {
	Text     string       `json:"text"`
	Sources  []SourceSpan `json:"sources"`
	Grounded bool         `json:"grounded"`
}

type llmAnswer struct {
	Answer string `json:"answer"`
	Used   []int  `json:"used"`
}

type Synthesizer struct {
	llmProvider llm.LLMProvider
	timeout     time.Duration
	logger      *zap.Logger
}

func NewSynthesizer(llmProvider llm.LLMProvider, timeout time.Duration, logger *zap.Logger) *Synthesizer {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Synthesizer{
		llmProvider: llmProvider,
		timeout:     timeout,
		logger:      logger.Named("synthesizer"),
	}
}

// DocumentAnswer answers question from evidence only. Empty evidence yields
// the not-found text without calling the LLM.
func (s *Synthesizer) DocumentAnswer(ctx context.Context, question string, evidence *retriever.EvidenceSet, history []store.Turn) (Answer, error) {
	if evidence.Empty() {
		return Answer{Text: MsgNotInMaterial, Sources: []SourceSpan{}}, nil
	}
	if s.llmProvider == nil {
		return Answer{}, fmt.Errorf("answer synthesis: %w: no llm configured", rag.ErrUpstreamUnavailable)
	}

	chunks := evidence.Chunks()
	messages := make([]llm.Message, 0, historyWindow+2)
	messages = append(messages, llm.Message{Role: llm.RoleSystem, Content: systemPrompt})
	messages = append(messages, replay(history)...)
	messages = append(messages, llm.Message{Role: llm.RoleUser, Content: buildEvidencePrompt(question, evidence.Strategy(), chunks)})

	cctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	raw, err := s.llmProvider.Chat(cctx, messages, llm.WithTemperature(0.2), llm.WithJSON())
	if err != nil {
		return Answer{}, rag.Upstream("answer synthesis", err)
	}

	text, used := parseAnswer(raw, len(chunks))
	text = StripCitations(text)
	if text == "" {
		s.logger.Warn("llm returned an empty answer")
		return Answer{Text: MsgNotInMaterial, Sources: []SourceSpan{}}, nil
	}

	sources := make([]SourceSpan, 0, len(used))
	for _, i := range used {
		c := chunks[i]
		sources = append(sources, SourceSpan{ChunkID: c.ID, Page: c.Page, Boxes: c.Boxes})
	}

	s.logger.Debug("answer synthesized",
		zap.String("strategy", string(evidence.Strategy())),
		zap.Int("evidence", len(chunks)),
		zap.Int("sources", len(sources)),
	)
	return Answer{Text: text, Sources: sources, Grounded: true}, nil
}

// Emit stages the user message and reply into the turn's session draft.
func Emit(draft *store.Draft, userMessage, reply string, now time.Time) {
	if draft == nil {
		return
	}
	draft.AppendTurn(store.Turn{Role: store.RoleHuman, Content: userMessage, At: now})
	draft.AppendTurn(store.Turn{Role: store.RoleAssistant, Content: reply, At: now})
}

// StripCitations removes inline markers like [1], [ref_2] or [3, 4].
func StripCitations(text string) string {
	text = citationMarker.ReplaceAllString(text, "")
	return strings.TrimSpace(text)
}

// parseAnswer reads the LLM reply. used holds valid zero-based chunk indexes;
// when the model gives none, every chunk counts as used.
func parseAnswer(raw string, n int) (string, []int) {
	var out llmAnswer
	text := strings.TrimSpace(raw)
	if js := utils.ExtractJSON(raw); js != "" {
		if err := json.Unmarshal([]byte(js), &out); err == nil && strings.TrimSpace(out.Answer) != "" {
			text = out.Answer
		}
	}

	seen := make(map[int]bool)
	var used []int
	for _, u := range out.Used {
		i := u - 1
		if i < 0 || i >= n || seen[i] {
			continue
		}
		seen[i] = true
		used = append(used, i)
	}
	if len(used) == 0 {
		used = make([]int, n)
		for i := range used {
			used[i] = i
		}
	}
	return text, used
}

func replay(history []store.Turn) []llm.Message {
	if len(history) > historyWindow {
		history = history[len(history)-historyWindow:]
	}
	msgs := make([]llm.Message, 0, len(history))
	for _, t := range history {
		role := llm.RoleUser
		if t.Role == store.RoleAssistant {
			role = llm.RoleAssistant
		}
		msgs = append(msgs, llm.Message{Role: role, Content: t.Content})
	}
	return msgs
}
