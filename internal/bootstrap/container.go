package bootstrap

import (
	"context"
	"log"

	"library-assistant-be/internal/config"
	"library-assistant-be/internal/controller"
	"library-assistant-be/internal/pkg/logger"
	"library-assistant-be/internal/repository/memory"
	"library-assistant-be/internal/repository/redisstore"
	"library-assistant-be/internal/repository/unitofwork"
	"library-assistant-be/internal/service"
	"library-assistant-be/pkg/ai/router"
	"library-assistant-be/pkg/embedding"
	"library-assistant-be/pkg/embedding/jina"
	"library-assistant-be/pkg/llm/factory"
	"library-assistant-be/pkg/rag/availability"
	"library-assistant-be/pkg/rag/intent"
	"library-assistant-be/pkg/rag/response"
	"library-assistant-be/pkg/rag/retriever"
	"library-assistant-be/pkg/rag/search"
	"library-assistant-be/pkg/rag/session"
	"library-assistant-be/pkg/rerank"

	pktNats "library-assistant-be/pkg/nats"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/pubsub/gochannel"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"
)

type Container struct {
	// Controllers
	LibraryController controller.ILibraryController
	PdfController     controller.IPdfController
	CatalogController controller.ICatalogController

	// Background Services (Exposed for main.go to run)
	ConsumerService service.IConsumerService
	AuditService    service.IAuditService

	Logger *logger.ZapLogger
	Router *router.Router

	closers []func()
}

func NewContainer(db *gorm.DB, cfg *config.Config) *Container {
	// 1. Core Facades
	uowFactory := unitofwork.NewRepositoryFactory(db)
	sysLogger := logger.NewZapLogger(cfg.App.LogFilePath, cfg.App.Environment == "production")
	zapLogger := sysLogger.Zap()

	c := &Container{Logger: sysLogger}

	// 2. Event Bus
	watermillLogger := watermill.NewStdLogger(false, false)
	pubSub := gochannel.NewGoChannel(
		gochannel.Config{},
		watermillLogger,
	)
	c.closers = append(c.closers, func() { _ = pubSub.Close() })

	// Domain events leave the process only when NATS is configured.
	var eventPublisher router.EventPublisher
	if cfg.App.NatsURL != "" {
		natsPub, err := pktNats.NewPublisher(cfg.App.NatsURL, zapLogger)
		if err != nil {
			log.Printf("[WARN] Failed to connect to NATS Publisher: %v", err)
		} else {
			eventPublisher = natsPub
			c.closers = append(c.closers, natsPub.Close)
		}

		natsSub, err := pktNats.NewSubscriber(cfg.App.NatsURL, zapLogger)
		if err != nil {
			log.Printf("[WARN] Failed to connect to NATS Subscriber: %v", err)
		} else {
			c.AuditService = service.NewAuditService(natsSub, logger.NewIsolatedLogger("logs/audit.log"))
			c.closers = append(c.closers, natsSub.Close)
		}
	}

	// 3. AI Providers
	var embeddingProvider embedding.EmbeddingProvider
	switch cfg.Ai.EmbeddingProvider {
	case "ollama":
		embeddingProvider = embedding.NewOllamaProvider(cfg.Ai.OllamaBaseURL, cfg.Ai.OllamaModel)
		log.Printf("[INFO] Using Embedding Provider: OLLAMA (%s)", cfg.Ai.OllamaModel)
	case "jina":
		embeddingProvider = jina.NewJinaProvider(cfg.Keys.Jina)
		log.Printf("[INFO] Using Embedding Provider: JINA AI")
	default:
		embeddingProvider = embedding.NewGeminiProvider(cfg.Keys.GoogleGemini)
		log.Printf("[INFO] Using Embedding Provider: GEMINI")
	}

	llmProvider, err := factory.NewLLMProvider(
		cfg.Ai.LLMProvider,
		cfg.Ai.LLMModel,
		cfg.Ai.LLMBaseURL,
		cfg.Keys.HuggingFace,
	)
	if err != nil {
		log.Fatalf("[FATAL] Failed to initialize LLM Provider: %v", err)
	}
	log.Printf("[INFO] Using LLM Provider: %s (%s)", cfg.Ai.LLMProvider, cfg.Ai.LLMModel)

	var reranker search.Reranker
	if cfg.Ai.RerankerURL != "" {
		reranker = rerank.NewTEIReranker(cfg.Ai.RerankerURL, cfg.Keys.Reranker)
		log.Printf("[INFO] Using Reranker: %s", cfg.Ai.RerankerURL)
	}

	// 4. Session Storage
	var sessionStore session.Store
	if cfg.App.SessionStore == "redis" {
		opt, err := redis.ParseURL(cfg.App.RedisURL)
		if err != nil {
			log.Printf("[WARN] Failed to parse Redis URL: %v. Using direct Addr", err)
			opt = &redis.Options{Addr: cfg.App.RedisURL}
		}
		rdb := redis.NewClient(opt)
		if _, err := rdb.Ping(context.Background()).Result(); err != nil {
			log.Printf("[WARN] Failed to connect to Redis: %v", err)
		}
		sessionStore = redisstore.NewSessionRepository(rdb, cfg.App.SessionTTL)
		c.closers = append(c.closers, func() { _ = rdb.Close() })
	} else {
		sessionStore = memory.NewSessionRepository(cfg.App.SessionTTL)
	}
	sessions := session.NewManager(sessionStore, zapLogger)

	// 5. Retrieval Components
	catalogIndex := service.NewCatalogIndex(uowFactory, embeddingProvider)
	documentIndex := service.NewDocumentIndex(uowFactory, embeddingProvider)

	fuser := search.NewFuser(catalogIndex, catalogIndex, catalogIndex, reranker, search.Config{
		Fusion: search.FusionConfig{
			K:              float64(cfg.Retrieval.RRFK),
			LexicalWeight:  cfg.Retrieval.LexicalWeight,
			SemanticWeight: cfg.Retrieval.SemanticWeight,
		},
		CandidateK:    cfg.Retrieval.CandidateK,
		RerankTopK:    cfg.Retrieval.RerankTopK,
		TopN:          cfg.Retrieval.TopN,
		SemanticFloor: cfg.Retrieval.SemanticFloor,
		RerankFloor:   cfg.Retrieval.RerankFloor,
		Timeout:       cfg.Timeouts.Retrieval,
	}, zapLogger)
	lookup := availability.NewLookup(catalogIndex, cfg.Timeouts.Retrieval, zapLogger)
	classifier := intent.NewClassifier(llmProvider, cfg.Timeouts.LLM, zapLogger)
	evidence := retriever.NewRetriever(documentIndex, retriever.Config{
		TopK:                 cfg.Retrieval.TopK,
		EvidenceBudget:       cfg.Retrieval.EvidenceBudget,
		MaxContextChars:      cfg.Retrieval.MaxContextChars,
		SummaryPages:         cfg.Retrieval.SummaryPages,
		ChunksPerSummaryPage: cfg.Retrieval.ChunksPerSummaryPage,
		SimilarityFloor:      cfg.Retrieval.SimilarityFloor,
		SectionSeeds:         cfg.Retrieval.SectionSeeds,
		HeadingChunkLimit:    cfg.Retrieval.HeadingChunkLimit,
		Timeout:              cfg.Timeouts.Retrieval,
	}, zapLogger)
	synthesizer := response.NewSynthesizer(llmProvider, cfg.Timeouts.LLM, zapLogger)

	routerCfg := router.DefaultConfig()
	routerCfg.TurnTimeout = cfg.Timeouts.Turn
	c.Router = router.NewRouter(router.Components{
		Titles:       fuser,
		Availability: lookup,
		Classifier:   classifier,
		Retriever:    evidence,
		Synthesizer:  synthesizer,
		Outlines:     documentIndex,
		Sessions:     sessions,
		Publisher:    eventPublisher,
	}, routerCfg, zapLogger)

	// 6. Services
	publisherService := service.NewPublisherService(pubSub)
	c.ConsumerService = service.NewConsumerService(
		pubSub,
		uowFactory,
		embeddingProvider,
		eventPublisher,
		sysLogger,
	)

	assistantService := service.NewAssistantService(c.Router, sessions)
	documentService := service.NewDocumentService(
		uowFactory,
		publisherService,
		documentIndex,
		cfg.Ai.EmbedChunkSize,
		cfg.Ai.EmbedChunkOverlap,
		sysLogger,
	)
	catalogService := service.NewCatalogService(uowFactory, publisherService, lookup, sysLogger)

	// 7. Controllers
	c.LibraryController = controller.NewLibraryController(assistantService, cfg.App.JwtSecret)
	c.PdfController = controller.NewPdfController(assistantService, documentService, cfg.App.JwtSecret)
	c.CatalogController = controller.NewCatalogController(catalogService, cfg.App.JwtSecret)

	return c
}

// Close waits for in-flight turn events and releases bus connections.
func (c *Container) Close() {
	c.Router.Wait()
	for i := len(c.closers) - 1; i >= 0; i-- {
		c.closers[i]()
	}
	_ = c.Logger.Sync()
}
