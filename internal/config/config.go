package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config holds the configuration for the application.
type Config struct {
	DatabasePath string
	HTTPAddr     string
	JWTSecret    string

	LogLevel  string
	LogFormat string

	// LLM
	LLMProvider          string // gemini or groq
	GeminiAPIKey         string
	GeminiModel          string
	GeminiEmbeddingModel string
	GroqAPIKey           string
	GroqModel            string
	EmbeddingFunctionURL string
	EmbeddingFunctionKey string
	HTTPRetryMax         int

	// Vector search
	VectorBackend          string // sqlite or postgres
	PostgresURL            string
	RAGSimilarityThreshold float64
	RAGEnhance             bool
	RAGBatchDelay          time.Duration

	// Key-value store
	KVBackend string // file, memory or redis
	KVPath    string
	RedisURL  string

	// Recommendation and planning
	DatasetMinScore        float64
	DatasetMinLoves        int
	PlannerAllowEmptySlots bool

	// Telegram Config
	TelegramBotToken       string
	TelegramWebhookURL     string
	TelegramAllowedUserIDs []int64
	TelegramAdminID        int64
}

// NewFromEnv creates a new Config object from environment variables.
// A .env file in the working directory is loaded first when present.
func NewFromEnv() (*Config, error) {
	_ = godotenv.Load()

	cfg := &Config{
		DatabasePath:           getEnv("DATABASE_PATH", "data/pantry.db"),
		HTTPAddr:               getEnv("HTTP_ADDR", ":8080"),
		JWTSecret:              os.Getenv("JWT_SECRET"),
		LogLevel:               getEnv("LOG_LEVEL", "info"),
		LogFormat:              getEnv("LOG_FORMAT", "json"),
		LLMProvider:            getEnv("LLM_PROVIDER", "gemini"),
		GeminiAPIKey:           os.Getenv("GEMINI_API_KEY"),
		GeminiModel:            getEnv("GEMINI_MODEL", "gemini-1.5-flash"),
		GeminiEmbeddingModel:   getEnv("GEMINI_EMBEDDING_MODEL", "text-embedding-004"),
		GroqAPIKey:             os.Getenv("GROQ_API_KEY"),
		GroqModel:              getEnv("GROQ_MODEL", "llama-3.3-70b-versatile"),
		EmbeddingFunctionURL:   os.Getenv("EMBEDDING_FUNCTION_URL"),
		EmbeddingFunctionKey:   os.Getenv("EMBEDDING_FUNCTION_KEY"),
		VectorBackend:          getEnv("VECTOR_BACKEND", "sqlite"),
		PostgresURL:            os.Getenv("POSTGRES_URL"),
		KVBackend:              getEnv("KV_BACKEND", "file"),
		KVPath:                 getEnv("KV_PATH", "data/kv"),
		RedisURL:               os.Getenv("REDIS_URL"),
		TelegramBotToken:       os.Getenv("TELEGRAM_BOT_TOKEN"),
		TelegramWebhookURL:     os.Getenv("TELEGRAM_WEBHOOK_URL"),
	}

	var err error
	if cfg.HTTPRetryMax, err = getInt("HTTP_RETRY_MAX", 2); err != nil {
		return nil, err
	}
	if cfg.RAGSimilarityThreshold, err = getFloat("RAG_SIMILARITY_THRESHOLD", 0.3); err != nil {
		return nil, err
	}
	if cfg.RAGEnhance, err = getBool("RAG_ENHANCE", false); err != nil {
		return nil, err
	}
	if cfg.RAGBatchDelay, err = getDuration("RAG_BATCH_DELAY", time.Second); err != nil {
		return nil, err
	}
	if cfg.DatasetMinScore, err = getFloat("DATASET_MIN_SCORE", 0.2); err != nil {
		return nil, err
	}
	if cfg.DatasetMinLoves, err = getInt("DATASET_MIN_LOVES", 0); err != nil {
		return nil, err
	}
	if cfg.PlannerAllowEmptySlots, err = getBool("PLANNER_ALLOW_EMPTY_SLOTS", false); err != nil {
		return nil, err
	}
	if cfg.TelegramAllowedUserIDs, err = getInt64List("TELEGRAM_ALLOWED_USER_IDS"); err != nil {
		return nil, err
	}
	if v := os.Getenv("TELEGRAM_ADMIN_ID"); v != "" {
		if cfg.TelegramAdminID, err = strconv.ParseInt(v, 10, 64); err != nil {
			return nil, fmt.Errorf("TELEGRAM_ADMIN_ID must be an integer: %w", err)
		}
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate reports settings that cannot work together.
func (c *Config) Validate() error {
	switch c.LLMProvider {
	case "gemini", "groq":
	default:
		return fmt.Errorf("LLM_PROVIDER must be gemini or groq, got %q", c.LLMProvider)
	}
	switch c.VectorBackend {
	case "sqlite":
	case "postgres":
		if c.PostgresURL == "" {
			return fmt.Errorf("POSTGRES_URL environment variable not set")
		}
	default:
		return fmt.Errorf("VECTOR_BACKEND must be sqlite or postgres, got %q", c.VectorBackend)
	}
	switch c.KVBackend {
	case "file", "memory":
	case "redis":
		if c.RedisURL == "" {
			return fmt.Errorf("REDIS_URL environment variable not set")
		}
	default:
		return fmt.Errorf("KV_BACKEND must be file, memory or redis, got %q", c.KVBackend)
	}
	if c.DatasetMinScore < 0 || c.DatasetMinScore > 1 {
		return fmt.Errorf("DATASET_MIN_SCORE must be within [0,1]")
	}
	if c.RAGSimilarityThreshold < 0 || c.RAGSimilarityThreshold > 1 {
		return fmt.Errorf("RAG_SIMILARITY_THRESHOLD must be within [0,1]")
	}
	return nil
}

// TextModelConfigured reports whether the selected provider has credentials.
func (c *Config) TextModelConfigured() bool {
	if c.LLMProvider == "groq" {
		return c.GroqAPIKey != ""
	}
	return c.GeminiAPIKey != ""
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getInt(key string, fallback int) (int, error) {
	v := os.Getenv(key)
	if v == "" {
		return fallback, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, fmt.Errorf("%s must be an integer: %w", key, err)
	}
	return n, nil
}

func getFloat(key string, fallback float64) (float64, error) {
	v := os.Getenv(key)
	if v == "" {
		return fallback, nil
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		return 0, fmt.Errorf("%s must be a number: %w", key, err)
	}
	return f, nil
}

func getBool(key string, fallback bool) (bool, error) {
	v := os.Getenv(key)
	if v == "" {
		return fallback, nil
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return false, fmt.Errorf("%s must be a boolean: %w", key, err)
	}
	return b, nil
}

func getDuration(key string, fallback time.Duration) (time.Duration, error) {
	v := os.Getenv(key)
	if v == "" {
		return fallback, nil
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return 0, fmt.Errorf("%s must be a duration: %w", key, err)
	}
	return d, nil
}

func getInt64List(key string) ([]int64, error) {
	v := os.Getenv(key)
	if v == "" {
		return nil, nil
	}
	var ids []int64
	for _, part := range strings.Split(v, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		id, err := strconv.ParseInt(part, 10, 64)
		if err != nil {
			return nil, fmt.Errorf("%s contains a non-integer id %q", key, part)
		}
		ids = append(ids, id)
	}
	return ids, nil
}
