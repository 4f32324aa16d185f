package app

import (
	"testing"
	"time"
)

func TestLoadConfigDefaults(t *testing.T) {
	for _, k := range []string{"PORT", "APP_BASE_URL", "ACCESS_TOKEN_TTL", "REFRESH_TOKEN_TTL", "TAX_RATE", "GUEST_CART_MAX_AGE_DAYS", "CORS_ALLOWED_ORIGINS", "REDIS_ADDR"} {
		t.Setenv(k, "")
	}
	cfg := LoadConfig(nil)

	if cfg.Port != "8080" {
		t.Fatalf("port: %q", cfg.Port)
	}
	if cfg.AppBaseURL != "http://localhost:3000" {
		t.Fatalf("base url: %q", cfg.AppBaseURL)
	}
	if cfg.AccessTokenTTL != time.Hour || cfg.RefreshTokenTTL != 7*24*time.Hour {
		t.Fatalf("ttls: %v %v", cfg.AccessTokenTTL, cfg.RefreshTokenTTL)
	}
	if cfg.Cart.TaxRate != 0.08 || cfg.Cart.DeliveryFeeCents != 500 || cfg.Cart.FreeDeliveryThresholdCents != 5000 {
		t.Fatalf("cart config: %+v", cfg.Cart)
	}
	if cfg.Maintenance.GuestCartMaxAge != 30*24*time.Hour {
		t.Fatalf("guest cart age: %v", cfg.Maintenance.GuestCartMaxAge)
	}
	if cfg.RedisAddr != "" || len(cfg.AllowedOrigins) != 0 {
		t.Fatalf("optional settings should be empty: %+v", cfg)
	}
}

func TestLoadConfigOverrides(t *testing.T) {
	t.Setenv("APP_BASE_URL", "https://bakes.example.com/")
	t.Setenv("ACCESS_TOKEN_TTL", "60")
	t.Setenv("TAX_RATE", "0.1")
	t.Setenv("CORS_ALLOWED_ORIGINS", "https://bakes.example.com, https://admin.bakes.example.com")
	cfg := LoadConfig(nil)

	if cfg.AppBaseURL != "https://bakes.example.com" {
		t.Fatalf("trailing slash not trimmed: %q", cfg.AppBaseURL)
	}
	if cfg.AccessTokenTTL != time.Minute {
		t.Fatalf("access ttl: %v", cfg.AccessTokenTTL)
	}
	if cfg.Cart.TaxRate != 0.1 {
		t.Fatalf("tax rate: %v", cfg.Cart.TaxRate)
	}
	if len(cfg.AllowedOrigins) != 2 || cfg.AllowedOrigins[1] != "https://admin.bakes.example.com" {
		t.Fatalf("origins: %v", cfg.AllowedOrigins)
	}
}
