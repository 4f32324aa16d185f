package services

import (
	"context"
	"time"

	"gorm.io/gorm"

	"github.com/yungbote/deelicious-bakes-backend/internal/platform/cache"
	"github.com/yungbote/deelicious-bakes-backend/internal/platform/logger"
)

const healthTimeout = 2 * time.Second

type HealthStatus struct {
	Status string `json:"status"`
	DB     string `json:"db"`
	Cache  string `json:"cache"`
}

// Healthy reports whether the database answered. A cache outage only
// degrades the service.
func (h HealthStatus) Healthy() bool { return h.DB == "ok" }

type HealthService interface {
	Check(ctx context.Context) HealthStatus
}

type healthService struct {
	db    *gorm.DB
	log   *logger.Logger
	cache cache.Cache
}

func NewHealthService(db *gorm.DB, log *logger.Logger, c cache.Cache) HealthService {
	return &healthService{db: db, log: log.With("service", "HealthService"), cache: c}
}

func (hs *healthService) Check(ctx context.Context) HealthStatus {
	ctx, cancel := context.WithTimeout(ctx, healthTimeout)
	defer cancel()

	out := HealthStatus{Status: "ok", DB: "ok", Cache: "ok"}
	sqlDB, err := hs.db.DB()
	if err == nil {
		err = sqlDB.PingContext(ctx)
	}
	if err != nil {
		hs.log.Warn("Database health check failed", "error", err)
		out.DB = "down"
		out.Status = "unavailable"
	}
	if hs.cache == nil {
		out.Cache = "disabled"
	} else if err := hs.cache.Ping(ctx); err != nil {
		hs.log.Warn("Cache health check failed", "error", err)
		out.Cache = "down"
		if out.Status == "ok" {
			out.Status = "degraded"
		}
	}
	return out
}
