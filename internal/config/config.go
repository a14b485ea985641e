package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	GeminiAPIKey string
	Port         string
	GinMode      string
	CORSOrigins  []string

	// Ingestion
	MaxChunkSize  int
	ChunkOverlap  int
	CrawlMaxDepth int
	CrawlMaxPages int
	CrawlTimeout  time.Duration

	// Retrieval
	RetrievalTopK int

	// Models
	GeminiModel           string
	GoogleEmbeddingsModel string

	// Answer synthesis
	SupportEmail string

	// Conversation sessions
	SessionBackend  string // "memory" (default), "redis"
	SessionTTL      time.Duration
	SessionMaxTurns int

	// Redis (session backend and rate limiting)
	RedisURL      string
	RedisPassword string
	RedisDB       int

	// Rate limiting
	RateLimitReqs   int
	RateLimitWindow int

	// Outbound model calls
	UpstreamTimeout time.Duration

	// Tracing
	OtelEnabled  bool
	OtelEndpoint string
}

func LoadConfig() (*Config, error) {
	// Load .env file if exists
	if _, err := os.Stat(".env"); err == nil {
		if err := godotenv.Load(); err != nil {
			return nil, fmt.Errorf("error loading .env file: %v", err)
		}
	}

	cfg := &Config{
		GeminiAPIKey: getEnv("GEMINI_API_KEY", ""),
		Port:         getEnv("PORT", "8080"),
		GinMode:      getEnv("GIN_MODE", "debug"),
		CORSOrigins:  strings.Split(getEnv("CORS_ORIGINS", "http://localhost:3000,http://localhost:8080"), ","),

		MaxChunkSize:  getEnvInt("MAX_CHUNK_SIZE", 1000),
		ChunkOverlap:  getEnvInt("CHUNK_OVERLAP", 200),
		CrawlMaxDepth: getEnvInt("CRAWL_MAX_DEPTH", 2),
		CrawlMaxPages: getEnvInt("CRAWL_MAX_PAGES", 50),
		CrawlTimeout:  getEnvDuration("CRAWL_TIMEOUT", 60*time.Second),

		RetrievalTopK: getEnvInt("RETRIEVAL_TOP_K", 4),

		GeminiModel:           getEnv("GEMINI_MODEL", "gemini-2.0-flash"),
		GoogleEmbeddingsModel: getEnv("GOOGLE_EMBEDDINGS_MODEL", "text-embedding-004"),

		SupportEmail: getEnv("SUPPORT_EMAIL", "help@scrimba.com"),

		SessionBackend:  getEnv("SESSION_BACKEND", "memory"),
		SessionTTL:      getEnvDuration("SESSION_TTL", 24*time.Hour),
		SessionMaxTurns: getEnvInt("SESSION_MAX_TURNS", 50),

		RedisURL:      getEnv("REDIS_URL", "localhost:6379"),
		RedisPassword: getEnv("REDIS_PASSWORD", ""),
		RedisDB:       getEnvInt("REDIS_DB", 0),

		RateLimitReqs:   getEnvInt("RATE_LIMIT_REQUESTS", 100),
		RateLimitWindow: getEnvInt("RATE_LIMIT_WINDOW", 60),

		UpstreamTimeout: getEnvDuration("UPSTREAM_TIMEOUT", 60*time.Second),

		OtelEnabled:  getEnvBool("OTEL_ENABLED", false),
		OtelEndpoint: getEnv("OTEL_ENDPOINT", "localhost:4317"),
	}

	if cfg.GeminiAPIKey == "" {
		return nil, fmt.Errorf("GEMINI_API_KEY is required - set it in .env file")
	}

	if cfg.MaxChunkSize <= 0 {
		return nil, fmt.Errorf("MAX_CHUNK_SIZE must be positive, got %d", cfg.MaxChunkSize)
	}

	if cfg.ChunkOverlap < 0 || cfg.ChunkOverlap >= cfg.MaxChunkSize {
		return nil, fmt.Errorf("CHUNK_OVERLAP must be in [0, MAX_CHUNK_SIZE), got %d", cfg.ChunkOverlap)
	}

	return cfg, nil
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}

func getEnvBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if boolValue, err := strconv.ParseBool(value); err == nil {
			return boolValue
		}
	}
	return defaultValue
}

func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return defaultValue
}
