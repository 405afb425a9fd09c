package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
	gormlogger "gorm.io/gorm/logger"

	"github.com/photovault/photovault/internal/config"
	"github.com/photovault/photovault/internal/domain/archive"
	"github.com/photovault/photovault/internal/domain/compression"
	"github.com/photovault/photovault/internal/domain/routing"
	"github.com/photovault/photovault/internal/infrastructure/database"
	"github.com/photovault/photovault/internal/infrastructure/logger"
	"github.com/photovault/photovault/internal/infrastructure/observability"
	repo "github.com/photovault/photovault/internal/infrastructure/repository/photo"
	"github.com/photovault/photovault/internal/infrastructure/storage"
	"github.com/photovault/photovault/internal/interfaces/httpserver"
)

// Application bundles the long-running pieces of the service.
type Application struct {
	httpServer *httpserver.HttpServer
	log        zerolog.Logger
}

func NewApplication(httpServer *httpserver.HttpServer, log zerolog.Logger) *Application {
	return &Application{
		httpServer: httpServer,
		log:        log,
	}
}

func (a *Application) Start(ctx context.Context) error {
	return a.httpServer.Run(ctx)
}

func main() {
	loadEnvFiles()

	cfg, err := config.Load()
	if err != nil {
		panic(err)
	}

	log := logger.New(cfg)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	shutdownTelemetry, err := observability.Setup(ctx, cfg, log)
	if err != nil {
		log.Fatal().Err(err).Msg("initialize observability")
	}
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
		defer cancel()
		if err := shutdownTelemetry(shutdownCtx); err != nil {
			log.Error().Err(err).Msg("shutdown telemetry")
		}
	}()

	db, err := database.Connect(database.Config{
		DSN:             cfg.DatabaseDSN,
		MaxIdleConns:    cfg.DBMaxIdleConns,
		MaxOpenConns:    cfg.DBMaxOpenConns,
		ConnMaxLifetime: cfg.DBConnLifetime,
		LogLevel:        gormlogger.Warn,
	})
	if err != nil {
		log.Fatal().Err(err).Msg("connect database")
	}

	if err := database.AutoMigrate(ctx, db, log); err != nil {
		log.Fatal().Err(err).Msg("migrate database")
	}

	providers, err := buildProviders(ctx, cfg, log)
	if err != nil {
		log.Fatal().Err(err).Msg("initialize storage providers")
	}

	acct := routing.NewAccountant(map[storage.Tier]routing.TierCapacity{
		storage.TierPrimary:   {CapacityBytes: cfg.S3CapacityBytes()},
		storage.TierSecondary: {CapacityBytes: cfg.DriveCapacityBytes()},
		storage.TierLocal:     {CapacityBytes: cfg.LocalCapacityBytes(), Advisory: true},
	})
	seedUsage(ctx, providers, acct, log)

	engine := compression.NewEngine(cfg, log)
	router := routing.NewRouter(cfg, providers, engine, acct, log)

	photoRepository := repo.NewRepository(db)

	jobs, err := archive.NewJobStore(cfg.ArchiveJobCacheSize, cfg.ArchiveJobRetention)
	if err != nil {
		log.Fatal().Err(err).Msg("initialize job store")
	}
	archiver := archive.NewArchiver(cfg, providers, photoRepository, jobs, log)

	httpServer := httpserver.New(cfg, log, router, archiver, photoRepository)
	app := NewApplication(httpServer, log)

	if err := app.Start(ctx); err != nil {
		log.Fatal().Err(err).Msg("application stopped with error")
	}

	log.Info().Msg("application exited cleanly")
}

// buildProviders wires the three tier adapters. A tier with missing
// credentials comes up disabled rather than failing startup.
func buildProviders(ctx context.Context, cfg *config.Config, log zerolog.Logger) (map[storage.Tier]storage.Provider, error) {
	s3Storage, err := storage.NewS3Storage(ctx, cfg, log)
	if err != nil {
		return nil, fmt.Errorf("s3 storage: %w", err)
	}
	driveStorage, err := storage.NewDriveStorage(ctx, cfg, log)
	if err != nil {
		return nil, fmt.Errorf("drive storage: %w", err)
	}
	localStorage, err := storage.NewLocalStorage(cfg, log)
	if err != nil {
		return nil, fmt.Errorf("local storage: %w", err)
	}

	return map[storage.Tier]storage.Provider{
		storage.TierPrimary:   s3Storage,
		storage.TierSecondary: driveStorage,
		storage.TierLocal:     localStorage,
	}, nil
}

// seedUsage reconciles the accountant with each provider's usage snapshot.
// Failures are logged and leave the tier's counter at zero; the accountant
// stays conservative from there on.
func seedUsage(ctx context.Context, providers map[storage.Tier]storage.Provider, acct *routing.Accountant, log zerolog.Logger) {
	snapshotCtx, cancel := context.WithTimeout(ctx, 2*time.Minute)
	defer cancel()

	for tier, provider := range providers {
		if !provider.Available() {
			continue
		}
		usage, err := provider.UsageSnapshot(snapshotCtx)
		if err != nil {
			log.Warn().Err(err).Str("tier", string(tier)).Msg("usage snapshot failed; starting counter at zero")
			continue
		}
		acct.Seed(tier, usage.UsedBytes)
		log.Info().
			Str("tier", string(tier)).
			Int64("used_bytes", usage.UsedBytes).
			Int64("capacity_bytes", usage.CapacityBytes).
			Msg("seeded tier usage")
	}
}

func loadEnvFiles() {
	paths := []string{".env", "../.env"}
	for _, path := range paths {
		if _, err := os.Stat(path); err == nil {
			if err := godotenv.Overload(path); err != nil {
				fmt.Fprintf(os.Stderr, "warning: failed to load %s: %v\n", path, err)
			}
		}
	}
}
