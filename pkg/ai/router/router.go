// Package router is the entry point for every chat turn. It resolves
// identifiers against session memory, dispatches to the retrieval and
// answer components, and is the only place errors become user-facing text.
package router

import (
	"context"
	"errors"
	"sync"
	"time"

	"library-assistant-be/pkg/events"
	"library-assistant-be/pkg/rag"
	"library-assistant-be/pkg/rag/intent"
	"library-assistant-be/pkg/rag/response"
	"library-assistant-be/pkg/rag/retriever"
	"library-assistant-be/pkg/rag/search"
	"library-assistant-be/pkg/rag/session"
	"library-assistant-be/pkg/rag/state"
	"library-assistant-be/pkg/store"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

const tracerName = "library-assistant-be/router"

type TitleSearcher interface {
	Search(ctx context.Context, query string) ([]search.ScoredTitle, error)
}

type AvailabilityChecker interface {
	Check(ctx context.Context, id string) (*store.AvailabilityStatus, error)
}

type StrategyClassifier interface {
	Classify(ctx context.Context, question string, doc intent.DocumentContext) intent.Result
}

type EvidenceRetriever interface {
	Retrieve(ctx context.Context, outline store.Outline, res intent.Result) (*retriever.EvidenceSet, error)
}

type AnswerSynthesizer interface {
	DocumentAnswer(ctx context.Context, question string, evidence *retriever.EvidenceSet, history []store.Turn) (response.Answer, error)
}

// OutlineSource returns nil, nil for an unknown document.
type OutlineSource interface {
	Outline(ctx context.Context, documentID string) (*store.Outline, error)
}

type EventPublisher interface {
	Publish(ctx context.Context, event events.Event) error
}

// Components wires the router. Publisher may be nil.
type Components struct {
	Titles       TitleSearcher
	Availability AvailabilityChecker
	Classifier   StrategyClassifier
	Retriever    EvidenceRetriever
	Synthesizer  AnswerSynthesizer
	Outlines     OutlineSource
	Sessions     *session.Manager
	Publisher    EventPublisher
}

type Config struct {
	TurnTimeout    time.Duration
	PublishTimeout time.Duration
	// MaxAvailabilityChecks bounds per-title lookups for discovery+availability.
	MaxAvailabilityChecks int
}

func DefaultConfig() Config {
	return Config{
		TurnTimeout:           60 * time.Second,
		PublishTimeout:        5 * time.Second,
		MaxAvailabilityChecks: 5,
	}
}

// LibraryReply is the outcome of a library turn.
type LibraryReply struct {
	Answer       string                     `json:"answer"`
	Action       Action                     `json:"action"`
	Titles       []search.ScoredTitle       `json:"titles"`
	Availability []store.AvailabilityStatus `json:"availability"`
	Trace        []state.State              `json:"-"`
}

// PdfReply is the outcome of a PDF turn. Sources carry raw PDF boxes; the
// viewer maps them with highlight.Map for its current viewport.
type PdfReply struct {
	Answer   string                `json:"answer"`
	Sources  []response.SourceSpan `json:"source_spans"`
	Strategy intent.Strategy       `json:"strategy,omitempty"`
	Grounded bool                  `json:"grounded"`
	Trace    []state.State         `json:"-"`
}

type Router struct {
	c      Components
	cfg    Config
	logger *zap.Logger
	now    func() time.Time
	wg     sync.WaitGroup
}

func NewRouter(c Components, cfg Config, logger *zap.Logger) *Router {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Router{c: c, cfg: cfg, logger: logger.Named("router"), now: time.Now}
}

// HandleLibraryTurn answers a discovery or availability question. It never
// fails; errors are rendered into Answer.
func (r *Router) HandleLibraryTurn(ctx context.Context, sessionKey, message string, user *store.UserInfo) *LibraryReply {
	ctx, span := otel.Tracer(tracerName).Start(ctx, "router.library_turn")
	defer span.End()

	start := r.now()
	key := session.LibraryKey(sessionKey)
	m := state.NewMachine(r.logger)
	reply := &LibraryReply{}

	draft, err := r.c.Sessions.Begin(ctx, key)
	if err == nil {
		draft.SetUser(user)
		turnCtx, cancel := context.WithTimeout(ctx, r.cfg.TurnTimeout)
		err = r.runLibrary(turnCtx, m, draft, message, reply)
		cancel()
	}
	m.Emit()
	reply.Trace = m.Trace()
	span.SetAttributes(attribute.String("library.action", string(reply.Action)))

	outcome := r.finish(ctx, key, draft, message, &reply.Answer, err)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, outcome)
	}
	r.publishTurn(key, "library", string(reply.Action), outcome, reply.Trace, start)
	return reply
}

// HandlePdfTurn answers a question about one indexed document.
func (r *Router) HandlePdfTurn(ctx context.Context, sessionKey, documentID, message string, user *store.UserInfo) *PdfReply {
	ctx, span := otel.Tracer(tracerName).Start(ctx, "router.pdf_turn")
	defer span.End()
	span.SetAttributes(attribute.String("pdf.document_id", documentID))

	start := r.now()
	key := session.PDFKey(sessionKey, documentID)
	m := state.NewMachine(r.logger)
	reply := &PdfReply{Sources: []response.SourceSpan{}}

	draft, err := r.c.Sessions.Begin(ctx, key)
	if err == nil {
		draft.SetUser(user)
		turnCtx, cancel := context.WithTimeout(ctx, r.cfg.TurnTimeout)
		err = r.runPdf(turnCtx, m, draft, documentID, message, reply)
		cancel()
	}
	m.Emit()
	reply.Trace = m.Trace()
	span.SetAttributes(attribute.String("pdf.strategy", string(reply.Strategy)))

	outcome := r.finish(ctx, key, draft, message, &reply.Answer, err)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, outcome)
	}
	r.publishTurn(key, "pdf", string(reply.Strategy), outcome, reply.Trace, start)
	return reply
}

// finish renders a failure if there was one and commits the draft for turns
// that produced a real answer. Upstream failures and cancelled turns leave
// session memory untouched.
func (r *Router) finish(ctx context.Context, key string, draft *store.Draft, message string, answer *string, err error) string {
	outcome := "answered"
	if err != nil {
		*answer = response.ForError(err)
		if !errors.Is(err, rag.ErrAmbiguousReference) && !errors.Is(err, rag.ErrMissingIdentifier) {
			r.logger.Warn("turn failed", zap.String("session", key), zap.Error(err))
			return "failed"
		}
		outcome = "clarify"
	}
	if draft == nil {
		return outcome
	}

	response.Emit(draft, message, *answer, r.now())
	if cerr := r.c.Sessions.Commit(ctx, key, draft); cerr != nil {
		r.logger.Warn("session commit skipped", zap.String("session", key), zap.Error(cerr))
	}
	return outcome
}

func (r *Router) runLibrary(ctx context.Context, m *state.Machine, draft *store.Draft, message string, reply *LibraryReply) error {
	req := ParseLibraryRequest(message)
	if req.Empty() {
		reply.Answer = response.MsgEmptyQuestion
		return nil
	}
	reply.Action = req.Action

	switch req.Action {
	case ActionAvailability:
		return r.availability(ctx, m, draft, req, reply)
	case ActionDiscoveryAvailability:
		return r.discovery(ctx, m, draft, req, reply, true)
	default:
		return r.discovery(ctx, m, draft, req, reply, false)
	}
}

func (r *Router) availability(ctx context.Context, m *state.Machine, draft *store.Draft, req *LibraryRequest, reply *LibraryReply) error {
	if err := m.To(state.IdentifierResolution); err != nil {
		return err
	}
	target, found, err := r.resolve(ctx, draft.View, req)
	if err != nil {
		return err
	}
	if !found {
		reply.Answer = response.NotInCatalog(req.Query)
		return nil
	}

	if err := m.To(state.ActionDispatch); err != nil {
		return err
	}
	status, err := r.c.Availability.Check(ctx, target.ID)
	if errors.Is(err, rag.ErrNotFound) {
		reply.Answer = response.NotInCatalog(firstNonEmpty(target.Title, req.Query))
		return nil
	}
	if err != nil {
		return err
	}

	if status.Title == "" {
		status.Title = target.Title
	}
	draft.Remember(store.SeenTitle{ID: target.ID, Title: status.Title, Author: target.Author, SeenAt: r.now()})
	reply.Availability = []store.AvailabilityStatus{*status}
	reply.Answer = response.Availability(*status)
	return nil
}

// resolve maps the request to one catalog identifier. found is false only
// when the fuser had no candidate for the query.
func (r *Router) resolve(ctx context.Context, view *store.Session, req *LibraryRequest) (store.SeenTitle, bool, error) {
	if req.ExplicitID != "" {
		for _, s := range view.Seen {
			if s.ID == req.ExplicitID {
				return s, true, nil
			}
		}
		return store.SeenTitle{ID: req.ExplicitID}, true, nil
	}

	if req.Deictic {
		recent, ok := view.MostRecent()
		if !ok {
			return store.SeenTitle{}, false, rag.ErrAmbiguousReference
		}
		r.logger.Debug("deictic reference resolved", zap.String("id", recent.ID))
		return recent, true, nil
	}

	if seen, ok := view.FindSeen(req.Original, req.Query); ok {
		r.logger.Debug("title resolved from session", zap.String("id", seen.ID))
		return seen, true, nil
	}
	if req.Query == "" {
		return store.SeenTitle{}, false, rag.ErrAmbiguousReference
	}

	titles, err := r.c.Titles.Search(ctx, req.Query)
	if err != nil {
		return store.SeenTitle{}, false, err
	}
	if len(titles) == 0 {
		return store.SeenTitle{}, false, nil
	}
	top := titles[0]
	return store.SeenTitle{ID: top.ID, Title: top.Title, Author: top.Author}, true, nil
}

func (r *Router) discovery(ctx context.Context, m *state.Machine, draft *store.Draft, req *LibraryRequest, reply *LibraryReply, withAvailability bool) error {
	if err := m.To(state.ActionDispatch); err != nil {
		return err
	}
	query := firstNonEmpty(req.Query, req.Original)
	titles, err := r.c.Titles.Search(ctx, query)
	if err != nil {
		return err
	}
	reply.Titles = titles
	if len(titles) == 0 {
		reply.Answer = response.NotInCatalog(req.Query)
		return nil
	}

	// Remember in reverse rank so the top result is the most recent.
	now := r.now()
	for i := len(titles) - 1; i >= 0; i-- {
		t := titles[i]
		draft.Remember(store.SeenTitle{ID: t.ID, Title: t.Title, Author: t.Author, SeenAt: now})
	}

	if !withAvailability {
		reply.Answer = response.Discovery(req.Query, titles)
		return nil
	}

	statuses, err := r.checkAll(ctx, titles)
	if err != nil {
		return err
	}
	byID := make(map[string]store.AvailabilityStatus, len(statuses))
	for _, s := range statuses {
		byID[s.ID] = s
	}
	reply.Availability = statuses
	reply.Answer = response.DiscoveryWithAvailability(req.Query, titles, byID)
	return nil
}

// checkAll looks up copies for the leading titles concurrently. Titles that
// vanished from the catalog are skipped.
func (r *Router) checkAll(ctx context.Context, titles []search.ScoredTitle) ([]store.AvailabilityStatus, error) {
	n := len(titles)
	if r.cfg.MaxAvailabilityChecks > 0 && n > r.cfg.MaxAvailabilityChecks {
		n = r.cfg.MaxAvailabilityChecks
	}

	results := make([]*store.AvailabilityStatus, n)
	g, gctx := errgroup.WithContext(ctx)
	for i := 0; i < n; i++ {
		i := i
		g.Go(func() error {
			s, err := r.c.Availability.Check(gctx, titles[i].ID)
			if errors.Is(err, rag.ErrNotFound) {
				return nil
			}
			if err != nil {
				return err
			}
			if s.Title == "" {
				s.Title = titles[i].Title
			}
			results[i] = s
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	out := make([]store.AvailabilityStatus, 0, n)
	for _, s := range results {
		if s != nil {
			out = append(out, *s)
		}
	}
	return out, nil
}

func (r *Router) runPdf(ctx context.Context, m *state.Machine, draft *store.Draft, documentID, message string, reply *PdfReply) error {
	if documentID == "" {
		reply.Answer = response.MsgDocumentAbsent
		return nil
	}
	if err := m.To(state.IdentifierResolution); err != nil {
		return err
	}
	outline, err := r.c.Outlines.Outline(ctx, documentID)
	if err != nil {
		return rag.Upstream("document outline", err)
	}
	if outline == nil {
		reply.Answer = response.MsgDocumentAbsent
		return nil
	}
	if !outline.Ready() {
		reply.Answer = response.MsgDocumentIndexing
		if outline.Status == store.DocumentFailed {
			reply.Answer = response.MsgDocumentFailed
		}
		return nil
	}

	if err := m.To(state.ActionDispatch); err != nil {
		return err
	}
	res := r.c.Classifier.Classify(ctx, message, intent.DocumentContext{
		Title:     outline.Title,
		PageCount: outline.PageCount,
		Headings:  outline.Headings,
	})
	reply.Strategy = res.Strategy

	evidence, err := r.c.Retriever.Retrieve(ctx, *outline, res)
	if err != nil {
		return err
	}
	answer, err := r.c.Synthesizer.DocumentAnswer(ctx, message, evidence, draft.View.History)
	if err != nil {
		return err
	}

	reply.Answer = answer.Text
	reply.Sources = answer.Sources
	reply.Grounded = answer.Grounded
	return nil
}

// publishTurn runs detached from the request so a slow bus never delays
// the reply.
func (r *Router) publishTurn(key, channel, action, outcome string, trace []state.State, start time.Time) {
	if r.c.Publisher == nil {
		return
	}
	states := make([]string, len(trace))
	for i, s := range trace {
		states[i] = string(s)
	}
	ev := events.New(events.AssistantTurnCompleted, map[string]interface{}{
		"session_key": key,
		"channel":     channel,
		"action":      action,
		"outcome":     outcome,
		"states":      states,
		"duration_ms": r.now().Sub(start).Milliseconds(),
	})

	r.wg.Add(1)
	go func() {
		defer r.wg.Done()
		ctx, cancel := context.WithTimeout(context.Background(), r.cfg.PublishTimeout)
		defer cancel()
		if err := r.c.Publisher.Publish(ctx, ev); err != nil {
			r.logger.Warn("publish turn event failed", zap.Error(err))
		}
	}()
}

// Wait blocks until in-flight event publishes finish.
func (r *Router) Wait() {
	r.wg.Wait()
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
