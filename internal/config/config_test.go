package config

import (
	"testing"
	"time"
)

func TestLoad_Defaults(t *testing.T) {
	t.Setenv("APP_ENV", "")
	t.Setenv("JWT_ACCESS_TTL_HOURS", "")
	t.Setenv("JWT_REFRESH_TTL_DAYS", "")
	t.Setenv("BCRYPT_COST", "")
	t.Setenv("DATABASE_URL", "")

	cfg := Load()

	if cfg.Env != "dev" {
		t.Fatalf("expected env dev, got %q", cfg.Env)
	}
	if cfg.JWTAccessTTL != 7*24*time.Hour {
		t.Fatalf("expected 7 day access ttl, got %s", cfg.JWTAccessTTL)
	}
	if cfg.JWTRefreshTTL != 30*24*time.Hour {
		t.Fatalf("expected 30 day refresh ttl, got %s", cfg.JWTRefreshTTL)
	}
	if cfg.BcryptCost != 10 {
		t.Fatalf("expected bcrypt cost 10, got %d", cfg.BcryptCost)
	}
}

func TestLoad_TrustedProxies(t *testing.T) {
	t.Setenv("TRUSTED_PROXIES", "")
	if got := Load().TrustedProxies; len(got) != 0 {
		t.Fatalf("expected no trusted proxies by default, got %v", got)
	}

	t.Setenv("TRUSTED_PROXIES", "10.0.0.0/8, 192.168.1.5")
	got := Load().TrustedProxies
	if len(got) != 2 || got[0] != "10.0.0.0/8" || got[1] != "192.168.1.5" {
		t.Fatalf("unexpected trusted proxies %v", got)
	}
}

func TestLoad_DatabaseURLWins(t *testing.T) {
	t.Setenv("DATABASE_URL", "postgres://u:p@db:5432/x?sslmode=disable")
	t.Setenv("DB_HOST", "ignored")

	cfg := Load()

	if cfg.DBURL != "postgres://u:p@db:5432/x?sslmode=disable" {
		t.Fatalf("unexpected db url %q", cfg.DBURL)
	}
}

func TestGetEnvInt_InvalidFallsBack(t *testing.T) {
	t.Setenv("PORT", "eighty")

	if got := getEnvInt("PORT", 8080); got != 8080 {
		t.Fatalf("expected fallback 8080, got %d", got)
	}
}

func TestGetEnvList(t *testing.T) {
	t.Setenv("CORS_ALLOWED_ORIGINS", " http://a.test , ,http://b.test")

	got := getEnvList("CORS_ALLOWED_ORIGINS", nil)

	if len(got) != 2 || got[0] != "http://a.test" || got[1] != "http://b.test" {
		t.Fatalf("unexpected origins: %#v", got)
	}
}

func TestGetEnvFloat(t *testing.T) {
	t.Setenv("OTEL_TRACES_SAMPLER_ARG", "0.25")
	if got := getEnvFloat("OTEL_TRACES_SAMPLER_ARG", 1); got != 0.25 {
		t.Fatalf("expected 0.25, got %v", got)
	}

	t.Setenv("OTEL_TRACES_SAMPLER_ARG", "most")
	if got := getEnvFloat("OTEL_TRACES_SAMPLER_ARG", 1); got != 1 {
		t.Fatalf("expected fallback 1, got %v", got)
	}
}
