package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// Config holds application configuration.
type Config struct {
	Port            string
	Env             string
	CORSAllowOrigin []string

	ObjectStoreType string
	LocalStoreDir   string
	AWSRegion       string
	S3Bucket        string
	S3Prefix        string
	SSEKMSKeyID     string

	DatabaseURL string

	CacheBackend    string
	DynamoTableName string
	CacheTTL        time.Duration

	QueueURL string

	LLMProvider       string
	LLMModel          string
	LLMAPIKey         string
	LLMMaxAttempts    int
	LLMRetryBaseDelay time.Duration

	ProcessingBudget time.Duration
	ChunkSize        int
	ChunkOverlap     int
	MaxUploadBytes   int64

	JWTSecret string
}

// Load reads configuration from environment variables with sensible defaults.
func Load() Config {
	// Best-effort load of local env files for dev convenience.
	loadEnvFiles(".env", "cmd/.env")

	return Config{
		Port:            getEnv("PORT", "8080"),
		Env:             normalizeEnv(getEnv("ENV", "dev")),
		CORSAllowOrigin: splitAndTrim(getEnv("CORS_ALLOW_ORIGINS", "http://localhost:5173")),

		ObjectStoreType: normalizeStoreType(getEnv("OBJECT_STORE", "local")),
		LocalStoreDir:   getEnv("LOCAL_STORE_DIR", "./data"),
		AWSRegion:       getEnv("AWS_REGION", ""),
		S3Bucket:        getEnv("S3_BUCKET", ""),
		S3Prefix:        getEnv("S3_PREFIX", ""),
		SSEKMSKeyID:     getEnv("SSE_KMS_KEY_ID", ""),

		DatabaseURL: os.Getenv("DATABASE_URL"),

		CacheBackend:    normalizeCacheBackend(getEnv("CACHE_BACKEND", "memory")),
		DynamoTableName: getEnv("DYNAMODB_CACHE_TABLE", "docqa-cache"),
		CacheTTL:        getEnvDuration("CACHE_TTL", 24*time.Hour),

		QueueURL: getEnv("SQS_QUEUE_URL", ""),

		LLMProvider:       getEnv("LLM_PROVIDER", "openai"),
		LLMModel:          getEnv("LLM_MODEL", ""),
		LLMAPIKey:         os.Getenv("LLM_API_KEY"),
		LLMMaxAttempts:    getEnvInt("LLM_MAX_ATTEMPTS", 3),
		LLMRetryBaseDelay: getEnvDuration("LLM_RETRY_BASE_DELAY", 300*time.Millisecond),

		ProcessingBudget: getEnvDuration("PROCESSING_BUDGET", 10*time.Minute),
		ChunkSize:        getEnvInt("CHUNK_SIZE", 4000),
		ChunkOverlap:     getEnvInt("CHUNK_OVERLAP", 400),
		MaxUploadBytes:   int64(getEnvInt("MAX_UPLOAD_BYTES", 10<<20)),

		JWTSecret: os.Getenv("JWT_SECRET"),
	}
}

// Validate reports configuration errors that should stop the process at startup.
func (c Config) Validate() error {
	var missing []string
	if c.Env == "production" {
		if strings.TrimSpace(c.DatabaseURL) == "" {
			missing = append(missing, "DATABASE_URL")
		}
		if strings.TrimSpace(c.JWTSecret) == "" {
			missing = append(missing, "JWT_SECRET")
		}
		if c.ObjectStoreType == "s3" && strings.TrimSpace(c.S3Bucket) == "" {
			missing = append(missing, "S3_BUCKET")
		}
	}
	if len(missing) > 0 {
		return fmt.Errorf("missing required configuration: %s", strings.Join(missing, ", "))
	}
	if c.LLMMaxAttempts < 1 {
		return fmt.Errorf("LLM_MAX_ATTEMPTS must be at least 1")
	}
	if c.ChunkOverlap >= c.ChunkSize {
		return fmt.Errorf("CHUNK_OVERLAP must be smaller than CHUNK_SIZE")
	}
	if c.ProcessingBudget <= 0 {
		return fmt.Errorf("PROCESSING_BUDGET must be positive")
	}
	return nil
}

func getEnv(key, def string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return def
}

func getEnvInt(key string, def int) int {
	raw := strings.TrimSpace(os.Getenv(key))
	if raw == "" {
		return def
	}
	val, err := strconv.Atoi(raw)
	if err != nil {
		return def
	}
	return val
}

func getEnvDuration(key string, def time.Duration) time.Duration {
	raw := strings.TrimSpace(os.Getenv(key))
	if raw == "" {
		return def
	}
	val, err := time.ParseDuration(raw)
	if err != nil {
		return def
	}
	return val
}

func splitAndTrim(raw string) []string {
	parts := strings.Split(raw, ",")
	var out []string
	for _, p := range parts {
		if trimmed := strings.TrimSpace(p); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}

func normalizeEnv(raw string) string {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "production", "prod":
		return "production"
	case "staging":
		return "staging"
	case "local":
		return "local"
	case "development", "dev":
		return "dev"
	default:
		return "dev"
	}
}

func normalizeStoreType(raw string) string {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "s3":
		return "s3"
	default:
		return "local"
	}
}

func normalizeCacheBackend(raw string) string {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "dynamodb", "dynamo":
		return "dynamodb"
	default:
		return "memory"
	}
}
