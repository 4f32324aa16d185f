package app

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/yungbote/deelicious-bakes-backend/internal/data/db"
	"github.com/yungbote/deelicious-bakes-backend/internal/http"
	"github.com/yungbote/deelicious-bakes-backend/internal/http/validation"
	"github.com/yungbote/deelicious-bakes-backend/internal/platform/logger"
	"github.com/yungbote/deelicious-bakes-backend/internal/seed"
)

const shutdownTimeout = 15 * time.Second

type App struct {
	Log      *logger.Logger
	DB       *gorm.DB
	Router   *gin.Engine
	Cfg      Config
	Repos    Repos
	Services Services
	Clients  Clients

	store   *db.Service
	server  *http.Server
	started bool
}

// NewLogger reads LOG_MODE, defaulting to development.
func NewLogger() (*logger.Logger, error) {
	logMode := os.Getenv("LOG_MODE")
	if logMode == "" {
		logMode = "development"
	}
	log, err := logger.New(logMode)
	if err != nil {
		return nil, fmt.Errorf("init logger: %w", err)
	}
	return log, nil
}

func New() (*App, error) {
	log, err := NewLogger()
	if err != nil {
		return nil, err
	}

	log.Info("Loading environment variables...")
	cfg := LoadConfig(log)

	if err := validation.Register(); err != nil {
		log.Sync()
		return nil, fmt.Errorf("register validators: %w", err)
	}

	store, err := openStore(log, cfg.DB)
	if err != nil {
		log.Sync()
		return nil, err
	}
	theDB := store.DB()

	clientset, err := wireClients(log, cfg)
	if err != nil {
		_ = store.Close()
		log.Sync()
		return nil, err
	}
	if clientset.Metrics != nil {
		if sqlDB, err := theDB.DB(); err == nil {
			if err := clientset.Metrics.RegisterDB(sqlDB, store.Driver()); err != nil {
				log.Warn("db stats collector not registered", "error", err)
			}
		}
	}

	reposet := wireRepos(theDB, log)

	serviceset, err := wireServices(theDB, log, cfg, reposet, clientset)
	if err != nil {
		clientset.Close()
		_ = store.Close()
		log.Sync()
		return nil, err
	}

	handlerset := wireHandlers(log, serviceset, clientset)
	middleware := wireMiddleware(log, cfg, serviceset)
	router := wireRouter(log, cfg, clientset, handlerset, middleware)

	return &App{
		Log:      log,
		DB:       theDB,
		Router:   router,
		Cfg:      cfg,
		Repos:    reposet,
		Services: serviceset,
		Clients:  clientset,
		store:    store,
		server:   http.NewServer(router, ":"+cfg.Port),
	}, nil
}

// Start launches the background schedulers.
func (a *App) Start() {
	if a == nil || a.started {
		return
	}
	a.started = true
	if a.Services.Maintenance != nil {
		if err := a.Services.Maintenance.Start(); err != nil {
			a.Log.Warn("maintenance scheduler not started", "error", err)
		}
	}
}

// Run blocks serving HTTP on PORT until Close is called or the listener
// fails. Safe to call from its own goroutine while Close runs.
func (a *App) Run() error {
	if a == nil || a.server == nil {
		return fmt.Errorf("app not initialized")
	}
	a.Log.Info("Listening", "port", a.Cfg.Port)
	return a.server.Run()
}

func (a *App) Close() {
	if a == nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if a.server != nil {
		if err := a.server.Shutdown(ctx); err != nil {
			a.Log.Warn("http shutdown", "error", err)
		}
	}
	if a.started && a.Services.Maintenance != nil {
		a.Services.Maintenance.Stop(ctx)
	}
	a.started = false
	a.Clients.Close()
	if a.store != nil {
		if err := a.store.Close(); err != nil {
			a.Log.Warn("db close", "error", err)
		}
		a.store = nil
	}
	if a.Log != nil {
		a.Log.Sync()
	}
}

// Migrate applies the schema and exits. Used by the migrate command.
func Migrate(log *logger.Logger) error {
	store, err := openStore(log, db.ConfigFromEnv())
	if err != nil {
		return err
	}
	defer store.Close()
	log.Info("Schema up to date", "driver", store.Driver())
	return nil
}

// Seed migrates and loads the reference catalog data.
func Seed(ctx context.Context, log *logger.Logger) (seed.Result, error) {
	store, err := openStore(log, db.ConfigFromEnv())
	if err != nil {
		return seed.Result{}, err
	}
	defer store.Close()
	return seed.Run(ctx, store.DB(), log)
}

func openStore(log *logger.Logger, cfg db.Config) (*db.Service, error) {
	store, err := db.NewService(log, cfg)
	if err != nil {
		return nil, fmt.Errorf("init database: %w", err)
	}
	if err := db.AutoMigrateAll(store.DB()); err != nil {
		_ = store.Close()
		return nil, fmt.Errorf("database automigrate: %w", err)
	}
	return store, nil
}
