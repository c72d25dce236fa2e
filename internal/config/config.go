package config

import (
	"log"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	App       AppConfig
	Database  DatabaseConfig
	Keys      APIKeys
	Ai        AIConfig
	Retrieval RetrievalConfig
	Timeouts  TimeoutConfig
}

type AppConfig struct {
	Port               string
	Environment        string
	LogFilePath        string
	CorsAllowedOrigins string
	NatsURL            string
	RedisURL           string
	SessionStore       string // "memory" or "redis"
	SessionTTL         time.Duration
	JwtSecret          string
	OtelEnabled        bool
	OtelEndpoint       string
}

type DatabaseConfig struct {
	Connection   string
	MaxOpenConns int
	MaxIdleConns int
}

type APIKeys struct {
	GoogleGemini string
	Jina         string
	HuggingFace  string
	Reranker     string
}

type AIConfig struct {
	EmbeddingProvider string // "gemini", "ollama" or "jina"
	OllamaBaseURL     string
	OllamaModel       string
	LLMProvider       string // "ollama", "huggingface", "openai"
	LLMModel          string // e.g. "llama3", "qwen2.5"
	LLMBaseURL        string
	RerankerURL       string // empty disables reranking
	EmbedChunkSize    int
	EmbedChunkOverlap int
}

// RetrievalConfig carries the fusion and evidence constants.
type RetrievalConfig struct {
	RRFK                 int
	LexicalWeight        float64
	SemanticWeight       float64
	CandidateK           int
	RerankTopK           int
	TopN                 int
	SemanticFloor        float64
	RerankFloor          float64
	TopK                 int
	EvidenceBudget       int
	MaxContextChars      int
	SummaryPages         int
	ChunksPerSummaryPage int
	SimilarityFloor      float64
	SectionSeeds         int
	HeadingChunkLimit    int
}

type TimeoutConfig struct {
	Retrieval time.Duration
	LLM       time.Duration
	Turn      time.Duration
}

func Load() *Config {
	if err := godotenv.Load(); err != nil {
		log.Println("Note: .env file not found, usage system environment")
	}

	return &Config{
		App: AppConfig{
			Port:               getEnv("APP_PORT", "3000"),
			Environment:        getEnv("GO_ENV", "development"),
			LogFilePath:        getEnv("LOG_FILE_PATH", "app.log"),
			CorsAllowedOrigins: getEnv("CORS_ALLOWED_ORIGINS", "http://localhost:5173"),
			NatsURL:            getEnv("NATS_URL", ""),
			RedisURL:           getEnv("REDIS_URL", "redis://localhost:6379"),
			SessionStore:       getEnv("SESSION_STORE", "memory"),
			SessionTTL:         getEnvAsDuration("SESSION_TTL", 2*time.Hour),
			JwtSecret:          getEnv("JWT_SECRET", ""),
			OtelEnabled:        getEnv("OTEL_ENABLED", "false") == "true",
			OtelEndpoint:       getEnv("OTEL_EXPORTER_OTLP_ENDPOINT", "localhost:4318"),
		},
		Database: DatabaseConfig{
			Connection:   getEnv("DB_CONNECTION_STRING", ""),
			MaxOpenConns: getEnvAsInt("DB_MAX_OPEN_CONNS", 20),
			MaxIdleConns: getEnvAsInt("DB_MAX_IDLE_CONNS", 5),
		},
		Keys: APIKeys{
			GoogleGemini: getEnv("GOOGLE_GEMINI_API_KEY", ""),
			Jina:         getEnv("JINA_API_KEY", ""),
			HuggingFace:  getEnv("HUGGINGFACE_API_KEY", ""),
			Reranker:     getEnv("RERANKER_API_KEY", ""),
		},
		Ai: AIConfig{
			EmbeddingProvider: getEnv("EMBEDDING_PROVIDER", "ollama"),
			OllamaBaseURL:     getEnv("OLLAMA_BASE_URL", "http://localhost:11434"),
			OllamaModel:       getEnv("OLLAMA_EMBEDDING_MODEL", "nomic-embed-text"),
			LLMProvider:       getEnv("LLM_PROVIDER", "ollama"),
			LLMModel:          getEnv("LLM_MODEL", "qwen2.5"),
			LLMBaseURL:        getEnv("LLM_BASE_URL", "http://localhost:11434"),
			RerankerURL:       getEnv("RERANKER_URL", ""),
			EmbedChunkSize:    getEnvAsInt("EMBED_CHUNK_SIZE", 1000),
			EmbedChunkOverlap: getEnvAsInt("EMBED_CHUNK_OVERLAP", 200),
		},
		Retrieval: RetrievalConfig{
			RRFK:                 getEnvAsInt("RETRIEVAL_RRF_K", 60),
			LexicalWeight:        getEnvAsFloat("RETRIEVAL_LEXICAL_WEIGHT", 0.5),
			SemanticWeight:       getEnvAsFloat("RETRIEVAL_SEMANTIC_WEIGHT", 0.5),
			CandidateK:           getEnvAsInt("RETRIEVAL_CANDIDATE_K", 20),
			RerankTopK:           getEnvAsInt("RETRIEVAL_RERANK_TOP_K", 20),
			TopN:                 getEnvAsInt("RETRIEVAL_TOP_N", 5),
			SemanticFloor:        getEnvAsFloat("RETRIEVAL_SEMANTIC_FLOOR", 0.35),
			RerankFloor:          getEnvAsFloat("RETRIEVAL_RERANK_FLOOR", 0.15),
			TopK:                 getEnvAsInt("EVIDENCE_TOP_K", 6),
			EvidenceBudget:       getEnvAsInt("EVIDENCE_BUDGET", 12),
			MaxContextChars:      getEnvAsInt("EVIDENCE_MAX_CHARS", 12000),
			SummaryPages:         getEnvAsInt("EVIDENCE_SUMMARY_PAGES", 6),
			ChunksPerSummaryPage: getEnvAsInt("EVIDENCE_CHUNKS_PER_SUMMARY_PAGE", 2),
			SimilarityFloor:      getEnvAsFloat("EVIDENCE_SIMILARITY_FLOOR", 0.35),
			SectionSeeds:         getEnvAsInt("EVIDENCE_SECTION_SEEDS", 3),
			HeadingChunkLimit:    getEnvAsInt("EVIDENCE_HEADING_CHUNK_LIMIT", 30),
		},
		Timeouts: TimeoutConfig{
			Retrieval: getEnvAsDuration("TIMEOUT_RETRIEVAL", 10*time.Second),
			LLM:       getEnvAsDuration("TIMEOUT_LLM", 45*time.Second),
			Turn:      getEnvAsDuration("TIMEOUT_TURN", 90*time.Second),
		},
	}
}

func getEnv(key, fallback string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return fallback
}

func getEnvAsInt(key string, fallback int) int {
	strValue := getEnv(key, "")
	if value, err := strconv.Atoi(strValue); err == nil {
		return value
	}
	return fallback
}

func getEnvAsFloat(key string, fallback float64) float64 {
	strValue := getEnv(key, "")
	if value, err := strconv.ParseFloat(strValue, 64); err == nil {
		return value
	}
	return fallback
}

// getEnvAsDuration accepts Go durations ("30s") or plain seconds.
func getEnvAsDuration(key string, fallback time.Duration) time.Duration {
	strValue := getEnv(key, "")
	if strValue == "" {
		return fallback
	}
	if d, err := time.ParseDuration(strValue); err == nil {
		return d
	}
	if secs, err := strconv.Atoi(strValue); err == nil {
		return time.Duration(secs) * time.Second
	}
	return fallback
}
