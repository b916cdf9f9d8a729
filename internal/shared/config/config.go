package config

import (
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/jirafa27/DocumentSearcher/internal/shared/telemetry"
)

const (
	// DefaultMaxFileSize is the largest accepted upload (20 MB).
	DefaultMaxFileSize int64 = 20 << 20

	DefaultContextSize = 50
	MaxContextSize     = 1000
)

// Config holds application configuration.
type Config struct {
	Port            string
	Env             string
	DatabaseURL     string
	CORSAllowOrigin []string

	ObjectStoreType string
	LocalStoreDir   string
	AWSRegion       string
	S3Bucket        string
	S3Prefix        string
	SSEKMSKeyID     string

	MaxFileSize        int64
	ExtractTimeout     time.Duration
	ExtractConcurrency int64

	IndexBackend     string
	BleveIndexPath   string
	TextSearchConfig string

	LockBackend   string
	RedisAddr     string
	RedisPassword string
	LockTTL       time.Duration

	DefaultContextSize int
	MaxContextSize     int
	SearchMaxResults   int

	RateLimitUpload RateRule
	RateLimitSearch RateRule
	RateLimitOther  RateRule
}

// RateRule is a requests-per-second rate with a burst allowance.
type RateRule struct {
	Rate  float64
	Burst int
}

// Load reads configuration from environment variables with sensible defaults.
func Load() Config {
	// Best-effort load of local env files for dev convenience.
	loadEnvFiles(".env", "cmd/.env")

	env := normalizeEnv(getEnv("APP_ENV", getEnv("ENV", "dev")))
	dbURL := os.Getenv("DATABASE_URL")

	if env == "production" && dbURL == "" {
		telemetry.Error("config.database_url_missing", map[string]any{"env": env})
	}

	indexBackend := normalizeIndexBackend(getEnv("INDEX_BACKEND", ""))
	if indexBackend == "" {
		indexBackend = "bleve"
		if dbURL != "" {
			indexBackend = "postgres"
		}
	}

	maxContext := getInt("MAX_CONTEXT_SIZE", MaxContextSize)
	if maxContext < 0 {
		maxContext = MaxContextSize
	}
	defContext := getInt("DEFAULT_CONTEXT_SIZE", DefaultContextSize)
	if defContext < 0 || defContext > maxContext {
		defContext = min(DefaultContextSize, maxContext)
	}

	return Config{
		Port:            getEnv("PORT", "8080"),
		Env:             env,
		DatabaseURL:     dbURL,
		CORSAllowOrigin: splitAndTrim(getEnv("CORS_ALLOW_ORIGINS", "http://localhost:5173")),

		ObjectStoreType: normalizeStoreType(getEnv("OBJECT_STORE_TYPE", getEnv("OBJECT_STORE", "local"))),
		LocalStoreDir:   getEnv("LOCAL_STORE_DIR", "./data/uploads"),
		AWSRegion:       getEnv("AWS_REGION", ""),
		S3Bucket:        getEnv("S3_BUCKET", ""),
		S3Prefix:        getEnv("S3_PREFIX", ""),
		SSEKMSKeyID:     getEnv("S3_SSE_KMS_KEY_ID", ""),

		MaxFileSize:        getInt64("MAX_FILE_SIZE_BYTES", DefaultMaxFileSize),
		ExtractTimeout:     getDuration("EXTRACT_TIMEOUT", 60*time.Second),
		ExtractConcurrency: getInt64("EXTRACT_CONCURRENCY", 4),

		IndexBackend:     indexBackend,
		BleveIndexPath:   getEnv("BLEVE_INDEX_PATH", ""),
		TextSearchConfig: getEnv("TEXT_SEARCH_CONFIG", "russian"),

		LockBackend:   normalizeLockBackend(getEnv("LOCK_BACKEND", "memory")),
		RedisAddr:     getEnv("REDIS_ADDR", "localhost:6379"),
		RedisPassword: getEnv("REDIS_PASSWORD", ""),
		LockTTL:       getDuration("LOCK_TTL", 2*time.Minute),

		DefaultContextSize: defContext,
		MaxContextSize:     maxContext,
		SearchMaxResults:   getInt("SEARCH_MAX_RESULTS", 500),

		RateLimitUpload: RateRule{Rate: getFloat("RATE_LIMIT_UPLOAD_RPS", 0.5), Burst: getInt("RATE_LIMIT_UPLOAD_BURST", 5)},
		RateLimitSearch: RateRule{Rate: getFloat("RATE_LIMIT_SEARCH_RPS", 10), Burst: getInt("RATE_LIMIT_SEARCH_BURST", 30)},
		RateLimitOther:  RateRule{Rate: getFloat("RATE_LIMIT_DEFAULT_RPS", 20), Burst: getInt("RATE_LIMIT_DEFAULT_BURST", 40)},
	}
}

func getEnv(key, def string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return def
}

func getInt(key string, def int) int {
	raw := strings.TrimSpace(os.Getenv(key))
	if raw == "" {
		return def
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		telemetry.Error("config.invalid_int", map[string]any{"key": key, "value": raw})
		return def
	}
	return v
}

func getInt64(key string, def int64) int64 {
	raw := strings.TrimSpace(os.Getenv(key))
	if raw == "" {
		return def
	}
	v, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || v <= 0 {
		telemetry.Error("config.invalid_int", map[string]any{"key": key, "value": raw})
		return def
	}
	return v
}

func getFloat(key string, def float64) float64 {
	raw := strings.TrimSpace(os.Getenv(key))
	if raw == "" {
		return def
	}
	v, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		telemetry.Error("config.invalid_float", map[string]any{"key": key, "value": raw})
		return def
	}
	return v
}

func getDuration(key string, def time.Duration) time.Duration {
	raw := strings.TrimSpace(os.Getenv(key))
	if raw == "" {
		return def
	}
	d, err := time.ParseDuration(raw)
	if err != nil || d <= 0 {
		telemetry.Error("config.invalid_duration", map[string]any{"key": key, "value": raw})
		return def
	}
	return d
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
	case "test":
		return "test"
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

func normalizeIndexBackend(raw string) string {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "postgres", "pg", "tsvector":
		return "postgres"
	case "bleve":
		return "bleve"
	default:
		return ""
	}
}

func normalizeLockBackend(raw string) string {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "redis":
		return "redis"
	case "postgres", "pg":
		return "postgres"
	default:
		return "memory"
	}
}
