package config

import (
	"testing"

	"github.com/spf13/viper"
)

func TestLoadFromDefaults(t *testing.T) {
	t.Setenv("LLM_PROVIDER", "")
	t.Setenv("WORKER_CONCURRENCY", "")

	cfg := LoadFrom(NewViper())
	if cfg.Env != "dev" {
		t.Fatalf("expected dev env, got %q", cfg.Env)
	}
	if cfg.LLMModel != "llama-3.3-70b" {
		t.Fatalf("unexpected default model %q", cfg.LLMModel)
	}
	if cfg.WorkerConcurrency != 4 {
		t.Fatalf("unexpected concurrency %d", cfg.WorkerConcurrency)
	}
	if !cfg.IsDevLike() {
		t.Fatalf("expected dev-like config")
	}
}

func TestLoadFromOverrides(t *testing.T) {
	v := viper.New()
	v.Set("ENV", "prod")
	v.Set("LLM_PROVIDER", "Google")
	v.Set("LLM_BASE_URL", "http://llm.local/v1/")
	v.Set("OBJECT_STORE", "S3")
	v.Set("WORKER_CONCURRENCY", -2)
	v.Set("CORS_ALLOW_ORIGINS", "http://a, ,http://b")

	cfg := LoadFrom(v)
	if cfg.Env != "production" {
		t.Fatalf("expected production, got %q", cfg.Env)
	}
	if cfg.LLMProvider != "gemini" {
		t.Fatalf("expected gemini provider, got %q", cfg.LLMProvider)
	}
	if cfg.LLMBaseURL != "http://llm.local/v1" {
		t.Fatalf("expected trailing slash trimmed, got %q", cfg.LLMBaseURL)
	}
	if cfg.ObjectStoreType != "s3" {
		t.Fatalf("expected s3 store, got %q", cfg.ObjectStoreType)
	}
	if cfg.WorkerConcurrency != 4 {
		t.Fatalf("expected fallback concurrency, got %d", cfg.WorkerConcurrency)
	}
	if len(cfg.CORSAllowOrigin) != 2 {
		t.Fatalf("expected 2 origins, got %v", cfg.CORSAllowOrigin)
	}
	if cfg.IsDevLike() {
		t.Fatalf("production must not be dev-like")
	}
}
