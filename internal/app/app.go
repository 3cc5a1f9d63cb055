package app

import (
	"context"
	"fmt"
	"net/http"
	"os"

	"github.com/jmoiron/sqlx"

	"github.com/riskibarqy/user-profile-svc/internal/config"
	"github.com/riskibarqy/user-profile-svc/internal/domain/migration"
	"github.com/riskibarqy/user-profile-svc/internal/domain/profile"
	"github.com/riskibarqy/user-profile-svc/internal/infrastructure/notify"
	cacherepo "github.com/riskibarqy/user-profile-svc/internal/infrastructure/repository/cache"
	"github.com/riskibarqy/user-profile-svc/internal/infrastructure/repository/memory"
	"github.com/riskibarqy/user-profile-svc/internal/infrastructure/repository/postgres"
	"github.com/riskibarqy/user-profile-svc/internal/interfaces/httpapi"
	"github.com/riskibarqy/user-profile-svc/internal/platform/cache"
	idgen "github.com/riskibarqy/user-profile-svc/internal/platform/id"
	"github.com/riskibarqy/user-profile-svc/internal/platform/logging"
	"github.com/riskibarqy/user-profile-svc/internal/usecase"
)

// App owns the wired service graph and the resources that need closing on
// shutdown.
type App struct {
	Server *http.Server

	logger   *logging.Logger
	db       *sqlx.DB
	notifier *notify.WebhookPublisher
}

// New builds the full service: schema chain, store, repositories, services,
// and HTTP server. Without DB_URL the service runs on the in-memory store,
// which is intended for local development only.
func New(ctx context.Context, cfg config.Config, logger *logging.Logger) (*App, error) {
	if logger == nil {
		logger = logging.Default()
	}

	chain, err := migration.LoadDir(os.DirFS(cfg.MigrationsDir))
	if err != nil {
		return nil, fmt.Errorf("load schema steps from %s: %w", cfg.MigrationsDir, err)
	}

	a := &App{logger: logger}

	var (
		repo   profile.Repository
		ledger migration.Ledger
	)
	if cfg.DBURL != "" {
		db, err := openDB(ctx, cfg)
		if err != nil {
			return nil, err
		}
		a.db = db
		repo = postgres.NewProfileRepository(db)
		ledger = postgres.NewLedgerRepository(db)
	} else {
		logger.Warn("DB_URL is empty, using in-memory store")
		repo = memory.NewProfileRepository()
		ledger = memory.NewLedgerRepository()
	}

	migrationSvc := usecase.NewMigrationService(chain, ledger, logger)

	// The memory ledger starts empty on every boot, so it always migrates.
	autoApply := cfg.MigrateOnStart || a.db == nil
	if err := migrationSvc.EnsureReady(ctx, autoApply); err != nil {
		a.closeDB()
		return nil, fmt.Errorf("schema readiness: %w", err)
	}

	if cfg.CacheEnabled {
		repo = cacherepo.NewProfileRepository(repo, cache.NewStore(cfg.CacheTTL))
	}

	var publisher usecase.EventPublisher
	if cfg.WebhookEnabled {
		notifier, err := notify.NewWebhookPublisher(notify.WebhookPublisherConfig{
			Endpoint:         cfg.WebhookEndpoint,
			Token:            cfg.WebhookToken,
			Timeout:          cfg.WebhookTimeout,
			Workers:          cfg.WebhookWorkers,
			FailureThreshold: cfg.WebhookCircuitFailureCount,
			OpenTimeout:      cfg.WebhookCircuitOpenTimeout,
			HalfOpenMax:      cfg.WebhookCircuitHalfOpenMax,
		}, logger)
		if err != nil {
			a.closeDB()
			return nil, fmt.Errorf("build webhook publisher: %w", err)
		}
		a.notifier = notifier
		publisher = notifier
	}

	profileSvc := usecase.NewProfileService(
		repo,
		idgen.NewRandomGenerator(),
		publisher,
		cfg.ConflictRetryAttempts,
		logger,
	)

	handler := httpapi.NewHandler(profileSvc, migrationSvc, a.dbPinger(), logger)
	router := httpapi.NewRouter(handler, logger, cfg.CORSAllowedOrigins)

	a.Server = &http.Server{
		Addr:         cfg.HTTPAddr,
		Handler:      router,
		ReadTimeout:  cfg.ReadTimeout,
		WriteTimeout: cfg.WriteTimeout,
	}
	if a.Server.Addr == "" {
		a.Close()
		return nil, fmt.Errorf("http server addr cannot be empty")
	}

	return a, nil
}

func (a *App) dbPinger() httpapi.DBPinger {
	if a.db == nil {
		return nil
	}
	return a.db
}

func (a *App) Close() {
	if a.notifier != nil {
		a.notifier.Close()
	}
	a.closeDB()
}

func (a *App) closeDB() {
	if a.db == nil {
		return
	}
	if err := a.db.Close(); err != nil {
		a.logger.Warn("close db failed", "error", err)
	}
	a.db = nil
}
