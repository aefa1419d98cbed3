package config

import (
	"log"
	"strings"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Config holds application configuration.
type Config struct {
	Env             string
	Port            string
	LogLevel        string
	CORSAllowOrigin []string
	DatabaseURL     string
	AutoMigrate     bool

	ObjectStoreType string
	LocalStoreDir   string
	AWSRegion       string
	S3Bucket        string
	S3Prefix        string
	SSEKMSKeyID     string

	LLMProvider       string
	LLMBaseURL        string
	LLMAPIKey         string
	LLMModel          string
	LLMTimeoutSeconds int
	GeminiAPIKey      string
	GeminiModel       string

	SQSQueueURL              string
	WorkerConcurrency        int
	VisibilityTimeoutSeconds int
	ShutdownTimeoutSeconds   int

	// LLM-backed endpoints (process, match) are limited per client. Zero disables.
	LLMRateLimitPerMinute int
	LLMRateLimitBurst     int
}

var defaults = map[string]any{
	"ENV":                            "dev",
	"PORT":                           "8080",
	"LOG_LEVEL":                      "info",
	"AUTO_MIGRATE":                   true,
	"CORS_ALLOW_ORIGINS":             "http://localhost:5173",
	"OBJECT_STORE":                   "local",
	"LOCAL_STORE_DIR":                "./data",
	"S3_BUCKET":                      "lens",
	"LLM_PROVIDER":                   "openai",
	"LLM_BASE_URL":                   "https://api.cerebras.ai/v1",
	"LLM_MODEL":                      "llama-3.3-70b",
	"LLM_TIMEOUT_SECONDS":            120,
	"GEMINI_MODEL":                   "gemini-2.5-flash",
	"WORKER_CONCURRENCY":             4,
	"SQS_VISIBILITY_TIMEOUT_SECONDS": 600,
	"SHUTDOWN_TIMEOUT_SECONDS":       30,
	"RATE_LIMIT_LLM_PER_MINUTE":      30,
	"RATE_LIMIT_LLM_BURST":           10,
}

// Keys lists every configuration key, used by lensctl to bind flags.
func Keys() []string {
	return []string{
		"ENV", "PORT", "LOG_LEVEL", "CORS_ALLOW_ORIGINS", "DATABASE_URL", "AUTO_MIGRATE",
		"OBJECT_STORE", "LOCAL_STORE_DIR", "AWS_REGION", "S3_BUCKET", "S3_PREFIX", "SSE_KMS_KEY_ID",
		"LLM_PROVIDER", "LLM_BASE_URL", "LLM_API_KEY", "LLM_MODEL", "LLM_TIMEOUT_SECONDS", "GEMINI_API_KEY", "GEMINI_MODEL",
		"SQS_QUEUE_URL", "WORKER_CONCURRENCY", "SQS_VISIBILITY_TIMEOUT_SECONDS", "SHUTDOWN_TIMEOUT_SECONDS",
		"RATE_LIMIT_LLM_PER_MINUTE", "RATE_LIMIT_LLM_BURST",
	}
}

// Load reads configuration from the environment with sensible defaults.
func Load() Config {
	return LoadFrom(NewViper())
}

// NewViper returns a viper instance with defaults and env binding applied.
// Local .env files are loaded first for dev convenience; real env vars win.
func NewViper() *viper.Viper {
	loadEnvFiles(".env", "cmd/.env")

	v := viper.New()
	for key, val := range defaults {
		v.SetDefault(key, val)
	}
	for _, key := range Keys() {
		_ = v.BindEnv(key)
	}
	v.AutomaticEnv()
	return v
}

// LoadFrom builds a Config from an already-populated viper instance.
func LoadFrom(v *viper.Viper) Config {
	env := normalizeEnv(v.GetString("ENV"))
	dbURL := strings.TrimSpace(v.GetString("DATABASE_URL"))
	if env == "production" && dbURL == "" {
		log.Printf("DATABASE_URL is required in production")
	}

	return Config{
		Env:             env,
		Port:            v.GetString("PORT"),
		LogLevel:        strings.ToLower(strings.TrimSpace(v.GetString("LOG_LEVEL"))),
		CORSAllowOrigin: splitAndTrim(v.GetString("CORS_ALLOW_ORIGINS")),
		DatabaseURL:     dbURL,
		AutoMigrate:     v.GetBool("AUTO_MIGRATE"),

		ObjectStoreType: normalizeStoreType(v.GetString("OBJECT_STORE")),
		LocalStoreDir:   v.GetString("LOCAL_STORE_DIR"),
		AWSRegion:       strings.TrimSpace(v.GetString("AWS_REGION")),
		S3Bucket:        strings.TrimSpace(v.GetString("S3_BUCKET")),
		S3Prefix:        strings.TrimSpace(v.GetString("S3_PREFIX")),
		SSEKMSKeyID:     strings.TrimSpace(v.GetString("SSE_KMS_KEY_ID")),

		LLMProvider:       normalizeProvider(v.GetString("LLM_PROVIDER")),
		LLMBaseURL:        strings.TrimRight(strings.TrimSpace(v.GetString("LLM_BASE_URL")), "/"),
		LLMAPIKey:         strings.TrimSpace(v.GetString("LLM_API_KEY")),
		LLMModel:          strings.TrimSpace(v.GetString("LLM_MODEL")),
		LLMTimeoutSeconds: positive(v.GetInt("LLM_TIMEOUT_SECONDS"), 120),
		GeminiAPIKey:      strings.TrimSpace(v.GetString("GEMINI_API_KEY")),
		GeminiModel:       strings.TrimSpace(v.GetString("GEMINI_MODEL")),

		SQSQueueURL:              strings.TrimSpace(v.GetString("SQS_QUEUE_URL")),
		WorkerConcurrency:        positive(v.GetInt("WORKER_CONCURRENCY"), 4),
		VisibilityTimeoutSeconds: positive(v.GetInt("SQS_VISIBILITY_TIMEOUT_SECONDS"), 600),
		ShutdownTimeoutSeconds:   positive(v.GetInt("SHUTDOWN_TIMEOUT_SECONDS"), 30),

		LLMRateLimitPerMinute: nonNegative(v.GetInt("RATE_LIMIT_LLM_PER_MINUTE")),
		LLMRateLimitBurst:     nonNegative(v.GetInt("RATE_LIMIT_LLM_BURST")),
	}
}

// IsDevLike reports whether the environment allows in-memory fallbacks.
func (c Config) IsDevLike() bool {
	switch c.Env {
	case "dev", "local":
		return true
	default:
		return false
	}
}

// loadEnvFiles loads KEY=VALUE files if present. Missing files are ignored.
func loadEnvFiles(paths ...string) {
	for _, path := range paths {
		if err := godotenv.Load(path); err != nil {
			continue
		}
	}
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

func positive(v, def int) int {
	if v <= 0 {
		return def
	}
	return v
}

func nonNegative(v int) int {
	if v < 0 {
		return 0
	}
	return v
}

func normalizeEnv(raw string) string {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "production", "prod":
		return "production"
	case "staging":
		return "staging"
	case "local":
		return "local"
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

func normalizeProvider(raw string) string {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "gemini", "google":
		return "gemini"
	case "none", "off", "disabled":
		return "none"
	default:
		return "openai"
	}
}
