package services

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/yungbote/deelicious-bakes-backend/internal/data/repos"
	"github.com/yungbote/deelicious-bakes-backend/internal/observability"
	"github.com/yungbote/deelicious-bakes-backend/internal/pkg/dbctx"
	"github.com/yungbote/deelicious-bakes-backend/internal/platform/logger"
)

const (
	jobPurgeTokens     = "purge_tokens"
	jobPurgeGuestCarts = "purge_guest_carts"
	maintenanceTimeout = 2 * time.Minute
)

type MaintenanceConfig struct {
	TokenSchedule   string
	CartSchedule    string
	GuestCartMaxAge time.Duration
}

type MaintenanceService interface {
	Start() error
	Stop(ctx context.Context)
	PurgeTokens(ctx context.Context) (int64, error)
	PurgeGuestCarts(ctx context.Context) (int64, error)
}

type maintenanceService struct {
	log           *logger.Logger
	userTokenRepo repos.UserTokenRepo
	verifyRepo    repos.VerificationTokenRepo
	cartRepo      repos.CartRepo
	cfg           MaintenanceConfig
	now           func() time.Time

	mu   sync.Mutex
	cron *cron.Cron
}

func NewMaintenanceService(
	log *logger.Logger,
	userTokenRepo repos.UserTokenRepo,
	verifyRepo repos.VerificationTokenRepo,
	cartRepo repos.CartRepo,
	cfg MaintenanceConfig,
) MaintenanceService {
	if cfg.TokenSchedule == "" {
		cfg.TokenSchedule = "@hourly"
	}
	if cfg.CartSchedule == "" {
		cfg.CartSchedule = "@daily"
	}
	if cfg.GuestCartMaxAge <= 0 {
		cfg.GuestCartMaxAge = 30 * 24 * time.Hour
	}
	return &maintenanceService{
		log:           log.With("service", "MaintenanceService"),
		userTokenRepo: userTokenRepo,
		verifyRepo:    verifyRepo,
		cartRepo:      cartRepo,
		cfg:           cfg,
		now:           func() time.Time { return time.Now().UTC() },
	}
}

// Start registers the jobs and runs the scheduler in the background.
func (ms *maintenanceService) Start() error {
	ms.mu.Lock()
	defer ms.mu.Unlock()
	if ms.cron != nil {
		return nil
	}
	c := cron.New(cron.WithLocation(time.UTC))
	if _, err := c.AddFunc(ms.cfg.TokenSchedule, ms.job(jobPurgeTokens, ms.PurgeTokens)); err != nil {
		return fmt.Errorf("schedule %s %q: %w", jobPurgeTokens, ms.cfg.TokenSchedule, err)
	}
	if _, err := c.AddFunc(ms.cfg.CartSchedule, ms.job(jobPurgeGuestCarts, ms.PurgeGuestCarts)); err != nil {
		return fmt.Errorf("schedule %s %q: %w", jobPurgeGuestCarts, ms.cfg.CartSchedule, err)
	}
	c.Start()
	ms.cron = c
	ms.log.Info("Maintenance scheduler started", "tokens", ms.cfg.TokenSchedule, "carts", ms.cfg.CartSchedule)
	return nil
}

// Stop waits for running jobs or until ctx is done.
func (ms *maintenanceService) Stop(ctx context.Context) {
	ms.mu.Lock()
	c := ms.cron
	ms.cron = nil
	ms.mu.Unlock()
	if c == nil {
		return
	}
	select {
	case <-c.Stop().Done():
	case <-ctx.Done():
		ms.log.Warn("Maintenance jobs still running at shutdown")
	}
}

func (ms *maintenanceService) job(name string, fn func(context.Context) (int64, error)) func() {
	return func() {
		ctx, cancel := context.WithTimeout(context.Background(), maintenanceTimeout)
		defer cancel()
		start := time.Now()
		n, err := fn(ctx)
		if err != nil {
			observability.Current().IncMaintenanceRun(name, "error")
			ms.log.Error("Maintenance job failed", "job", name, "error", err)
			return
		}
		observability.Current().IncMaintenanceRun(name, "ok")
		ms.log.Info("Maintenance job finished", "job", name, "removed", n, "duration_ms", time.Since(start).Milliseconds())
	}
}

func (ms *maintenanceService) PurgeTokens(ctx context.Context) (int64, error) {
	dbc := dbctx.New(ctx)
	now := ms.now()
	sessions, err := ms.userTokenRepo.DeleteExpired(dbc, now)
	if err != nil {
		return 0, fmt.Errorf("purge sessions: %w", err)
	}
	links, err := ms.verifyRepo.DeleteStale(dbc, now)
	if err != nil {
		return sessions, fmt.Errorf("purge verification tokens: %w", err)
	}
	return sessions + links, nil
}

func (ms *maintenanceService) PurgeGuestCarts(ctx context.Context) (int64, error) {
	n, err := ms.cartRepo.DeleteStaleGuestCarts(dbctx.New(ctx), ms.now().Add(-ms.cfg.GuestCartMaxAge))
	if err != nil {
		return 0, fmt.Errorf("purge guest carts: %w", err)
	}
	return n, nil
}
