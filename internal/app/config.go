package app

import (
	"strings"
	"time"

	"github.com/yungbote/deelicious-bakes-backend/internal/data/db"
	"github.com/yungbote/deelicious-bakes-backend/internal/email"
	"github.com/yungbote/deelicious-bakes-backend/internal/observability"
	"github.com/yungbote/deelicious-bakes-backend/internal/platform/envutil"
	"github.com/yungbote/deelicious-bakes-backend/internal/platform/logger"
	"github.com/yungbote/deelicious-bakes-backend/internal/platform/sendgrid"
	"github.com/yungbote/deelicious-bakes-backend/internal/services"
)

const defaultJWTSecret = "defaultsecret"

type Config struct {
	Port       string
	LogMode    string
	AppBaseURL string

	DB db.Config

	JWTSecretKey    string
	AccessTokenTTL  time.Duration
	RefreshTokenTTL time.Duration

	RedisAddr       string
	RealtimeChannel string
	CacheTTL        time.Duration

	SendGrid sendgrid.Config
	Email    services.EmailConfig
	Branding email.Branding

	Cart services.CartConfig

	RateLimitPerMinute int
	RateLimitBurst     int

	Maintenance services.MaintenanceConfig

	MetricsEnabled bool
	OtelEnabled    bool
	Otel           observability.OtelConfig

	AllowedOrigins []string
}

func LoadConfig(log *logger.Logger) Config {
	cfg := Config{
		Port:       envutil.String("PORT", "8080"),
		LogMode:    envutil.String("LOG_MODE", "development"),
		AppBaseURL: strings.TrimRight(envutil.String("APP_BASE_URL", "http://localhost:3000"), "/"),

		DB: db.ConfigFromEnv(),

		JWTSecretKey:    envutil.String("JWT_SECRET_KEY", defaultJWTSecret),
		AccessTokenTTL:  envutil.Seconds("ACCESS_TOKEN_TTL", time.Hour),
		RefreshTokenTTL: envutil.Seconds("REFRESH_TOKEN_TTL", 7*24*time.Hour),

		RedisAddr:       envutil.String("REDIS_ADDR", ""),
		RealtimeChannel: envutil.String("REDIS_CHANNEL", "bakes:realtime"),
		CacheTTL:        envutil.Seconds("CACHE_TTL_SECONDS", 5*time.Minute),

		SendGrid: sendgrid.ConfigFromEnv(),
		Email:    services.EmailConfigFromEnv(),
		Branding: email.BrandingFromEnv(),

		Cart: services.CartConfig{
			TaxRate:                    envutil.Float("TAX_RATE", 0.08),
			DeliveryFeeCents:           envutil.Int64("DELIVERY_FEE_CENTS", 500),
			FreeDeliveryThresholdCents: envutil.Int64("FREE_DELIVERY_THRESHOLD_CENTS", 5000),
		},

		RateLimitPerMinute: envutil.Int("RATE_LIMIT_PER_MINUTE", 10),
		RateLimitBurst:     envutil.Int("RATE_LIMIT_BURST", 5),

		Maintenance: services.MaintenanceConfig{
			TokenSchedule:   envutil.String("MAINTENANCE_TOKEN_CRON", "@hourly"),
			CartSchedule:    envutil.String("MAINTENANCE_CART_CRON", "@daily"),
			GuestCartMaxAge: time.Duration(envutil.Int("GUEST_CART_MAX_AGE_DAYS", 30)) * 24 * time.Hour,
		},

		MetricsEnabled: envutil.Bool("METRICS_ENABLED", false),
		OtelEnabled:    envutil.Bool("OTEL_ENABLED", false),
		Otel:           observability.OtelConfigFromEnv(),

		AllowedOrigins: envutil.List("CORS_ALLOWED_ORIGINS", nil),
	}
	if log != nil {
		if cfg.JWTSecretKey == defaultJWTSecret {
			log.Warn("JWT_SECRET_KEY not set, using the development default")
		}
		if strings.TrimSpace(cfg.SendGrid.APIKey) == "" {
			log.Warn("SENDGRID_API_KEY not set, emails will only be logged")
		}
	}
	cfg.Otel.Environment = cfg.LogMode
	return cfg
}
