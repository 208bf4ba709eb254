package config

import "testing"

func TestLoadDefaults(t *testing.T) {
	t.Setenv("ENV", "")
	t.Setenv("PORT", "")
	t.Setenv("OBJECT_STORE", "")
	t.Setenv("EXTRACT_WORKERS", "")
	t.Setenv("CORS_ALLOW_ORIGINS", "")

	cfg := Load()
	if cfg.Port != "8080" {
		t.Fatalf("expected default port 8080, got %s", cfg.Port)
	}
	if cfg.Env != "dev" {
		t.Fatalf("expected default env dev, got %s", cfg.Env)
	}
	if cfg.ObjectStoreType != "local" {
		t.Fatalf("expected default store local, got %s", cfg.ObjectStoreType)
	}
	if cfg.ExtractWorkers != 4 {
		t.Fatalf("expected default 4 extract workers, got %d", cfg.ExtractWorkers)
	}
}

func TestLoadParsesOverrides(t *testing.T) {
	t.Setenv("ENV", "Prod")
	t.Setenv("OBJECT_STORE", "S3")
	t.Setenv("EXTRACT_WORKERS", "8")
	t.Setenv("CORS_ALLOW_ORIGINS", "https://a.example, https://b.example ,")

	cfg := Load()
	if cfg.Env != "production" {
		t.Fatalf("expected normalized production, got %s", cfg.Env)
	}
	if cfg.ObjectStoreType != "s3" {
		t.Fatalf("expected s3, got %s", cfg.ObjectStoreType)
	}
	if cfg.ExtractWorkers != 8 {
		t.Fatalf("expected 8 workers, got %d", cfg.ExtractWorkers)
	}
	if len(cfg.CORSAllowOrigin) != 2 || cfg.CORSAllowOrigin[1] != "https://b.example" {
		t.Fatalf("unexpected origins %v", cfg.CORSAllowOrigin)
	}
}

func TestLoadIgnoresInvalidWorkerCount(t *testing.T) {
	t.Setenv("EXTRACT_WORKERS", "zero")
	if cfg := Load(); cfg.ExtractWorkers != 4 {
		t.Fatalf("expected fallback to 4 workers, got %d", cfg.ExtractWorkers)
	}

	t.Setenv("EXTRACT_WORKERS", "-2")
	if cfg := Load(); cfg.ExtractWorkers != 4 {
		t.Fatalf("expected fallback to 4 workers, got %d", cfg.ExtractWorkers)
	}
}
