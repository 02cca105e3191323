package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/AdamBeresnev/bracket-keeper/internal/config"
	"github.com/AdamBeresnev/bracket-keeper/internal/db"
	"github.com/AdamBeresnev/bracket-keeper/internal/live"
	"github.com/AdamBeresnev/bracket-keeper/internal/metrics"
	"github.com/AdamBeresnev/bracket-keeper/internal/service"
	"github.com/AdamBeresnev/bracket-keeper/internal/store"
	"github.com/go-co-op/gocron/v2"
	"github.com/jmoiron/sqlx"
	"golang.org/x/sync/errgroup"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load configuration", "error", err)
		os.Exit(1)
	}

	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: cfg.LogLevel}))
	slog.SetDefault(logger)
	logger.Info("configuration loaded", "port", cfg.ServerPort, "store", cfg.StoreBackend)

	if err := run(cfg, logger); err != nil {
		logger.Error("server stopped with error", "error", err)
		os.Exit(1)
	}
	logger.Info("server stopped")
}

func run(cfg *config.Config, logger *slog.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	kv, closeKV, err := openStore(ctx, cfg)
	if err != nil {
		return err
	}
	defer closeKV()

	metrics.Register()

	hub := live.NewHub(logger, cfg.CORSOrigins)

	tournaments := service.NewTournamentService(kv,
		service.WithLogger(logger),
		service.WithNotifier(hub),
	)
	if err := tournaments.Load(ctx); err != nil {
		return err
	}

	settings := service.NewSettingsService(kv, logger)
	if err := settings.Load(ctx); err != nil {
		return err
	}

	scheduler, err := startFlushJob(cfg.FlushInterval, tournaments, logger)
	if err != nil {
		return err
	}

	server := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.ServerPort),
		Handler:      newRouter(tournaments, settings, hub, cfg.CORSOrigins),
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  time.Minute,
	}

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		hub.Run(gctx)
		return nil
	})

	g.Go(func() error {
		logger.Info("server starting", "addr", server.Addr)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("http server: %w", err)
		}
		return nil
	})

	g.Go(func() error {
		<-gctx.Done()
		logger.Info("shutting down")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
		defer cancel()

		if err := scheduler.Shutdown(); err != nil {
			logger.Error("failed to stop scheduler", "error", err)
		}
		// Last chance for a snapshot that failed to write
		if err := tournaments.Flush(shutdownCtx); err != nil {
			logger.Error("final flush failed", "error", err)
		}
		return server.Shutdown(shutdownCtx)
	})

	return g.Wait()
}

// openStore picks the KV backend named in the config. The returned func
// releases whatever the backend holds open.
func openStore(ctx context.Context, cfg *config.Config) (store.KV, func(), error) {
	noop := func() {}

	switch cfg.StoreBackend {
	case config.BackendFile:
		fs, err := store.NewFileStore(cfg.DataDir)
		if err != nil {
			return nil, noop, err
		}
		return fs, noop, nil

	case config.BackendSQLite, config.BackendPostgres:
		var (
			database *sqlx.DB
			err      error
		)
		if cfg.StoreBackend == config.BackendSQLite {
			database, err = db.InitSQLite(cfg.SQLitePath)
		} else {
			database, err = db.InitPostgres(cfg.DatabaseURL, 5*time.Second)
		}
		if err != nil {
			return nil, noop, err
		}
		if err := db.RunMigrations(database); err != nil {
			database.Close()
			return nil, noop, fmt.Errorf("failed to run migrations: %w", err)
		}
		return store.NewSQLStore(database), func() { database.Close() }, nil

	case config.BackendS3:
		s3, err := store.NewS3Store(ctx, store.S3Config{
			Bucket:          cfg.S3.Bucket,
			Endpoint:        cfg.S3.Endpoint,
			Region:          cfg.S3.Region,
			AccessKeyID:     cfg.S3.AccessKeyID,
			SecretAccessKey: cfg.S3.SecretAccessKey,
			Prefix:          cfg.S3.Prefix,
		})
		if err != nil {
			return nil, noop, err
		}
		return s3, noop, nil

	default:
		return store.NewMemoryStore(), noop, nil
	}
}

func startFlushJob(interval time.Duration, tournaments *service.TournamentService, logger *slog.Logger) (gocron.Scheduler, error) {
	sched, err := gocron.NewScheduler()
	if err != nil {
		return nil, fmt.Errorf("failed to create scheduler: %w", err)
	}

	_, err = sched.NewJob(
		gocron.DurationJob(interval),
		gocron.NewTask(func() {
			if !tournaments.Dirty() {
				return
			}
			ctx, cancel := context.WithTimeout(context.Background(), interval)
			defer cancel()
			if err := tournaments.Flush(ctx); err != nil {
				logger.Warn("[Scheduler] snapshot flush failed", "error", err)
				return
			}
			logger.Info("[Scheduler] snapshot flushed")
		}),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to schedule flush job: %w", err)
	}

	sched.Start()
	return sched, nil
}
