// Package main is the entry point for the YaMDb API server.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/rs/zerolog"

	"github.com/khomenkoalx/api-yamdb/internal/auth"
	"github.com/khomenkoalx/api-yamdb/internal/cache/memory"
	rediscache "github.com/khomenkoalx/api-yamdb/internal/cache/redis"
	"github.com/khomenkoalx/api-yamdb/internal/codes"
	"github.com/khomenkoalx/api-yamdb/internal/config"
	"github.com/khomenkoalx/api-yamdb/internal/handler"
	"github.com/khomenkoalx/api-yamdb/internal/mailer"
	"github.com/khomenkoalx/api-yamdb/internal/repository"
	"github.com/khomenkoalx/api-yamdb/internal/repository/postgres"
	"github.com/khomenkoalx/api-yamdb/internal/repository/sqlite"
	"github.com/khomenkoalx/api-yamdb/internal/service"
)

// Version information (set at build time)
var (
	Version   = "dev"
	BuildTime = "unknown"
	GitCommit = "unknown"
)

func main() {
	configPath := flag.String("config", "", "path to config file")
	showVersion := flag.Bool("version", false, "print version and exit")
	flag.Parse()

	if *showVersion {
		fmt.Printf("YaMDb API Server\n")
		fmt.Printf("Version: %s\n", Version)
		fmt.Printf("Build Time: %s\n", BuildTime)
		fmt.Printf("Git Commit: %s\n", GitCommit)
		return
	}

	cfg := config.MustLoad(*configPath)
	logger := newLogger(cfg.Logging)

	logger.Info().
		Str("version", Version).
		Str("commit", GitCommit).
		Msg("starting yamdb-server")

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, logger); err != nil {
		logger.Fatal().Err(err).Msg("server exited with error")
	}
}

func run(ctx context.Context, cfg *config.Config, logger zerolog.Logger) error {
	repos, health, closeDB, err := openDatabase(ctx, cfg, logger)
	if err != nil {
		return fmt.Errorf("open database: %w", err)
	}
	defer closeDB()

	cache, closeCache, err := openCache(ctx, cfg, logger)
	if err != nil {
		return fmt.Errorf("open cache: %w", err)
	}
	defer closeCache()

	tokens, err := auth.NewTokenManager(cfg.Auth.JWTSecret, cfg.Auth.TokenLifetime)
	if err != nil {
		return fmt.Errorf("token manager: %w", err)
	}

	var mail mailer.Sender
	if cfg.Mail.Enabled {
		mail = mailer.NewSMTPSender(cfg.Mail.SMTP, logger)
	} else {
		mail = mailer.NewLogSender(logger)
	}

	codeStore := codes.NewStore(cache, cfg.Auth.CodeLifetime, logger)
	policy := auth.Policy{StaffIsAdmin: cfg.Auth.StaffIsAdmin}

	authService := service.NewAuthService(repos.User, codeStore, mail, tokens, logger)
	userService := service.NewUserService(repos.User, policy, logger)
	catalogService := service.NewCatalogService(repos.Category, repos.Genre, repos.Title, policy, logger)
	reviewService := service.NewReviewService(repos.Review, repos.Comment, repos.Title, policy, logger)

	var metrics *handler.Metrics
	if cfg.Metrics.Enabled {
		metrics = handler.NewMetrics()
	}

	router := handler.NewRouter(handler.RouterConfig{
		AuthHandler:    handler.NewAuthHandler(authService, logger),
		UserHandler:    handler.NewUserHandler(userService, logger),
		CatalogHandler: handler.NewCatalogHandler(catalogService, logger),
		ReviewHandler:  handler.NewReviewHandler(reviewService, logger),
		AuthMiddleware: auth.Middleware(tokens, repos.User),
		Metrics:        metrics,
		MaxBodySize:    cfg.Server.MaxBodySize,
		HealthCheck: func() error {
			pingCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			return health.Ping(pingCtx)
		},
		Logger: logger,
	})

	srv := &http.Server{
		Addr:         cfg.Server.Addr(),
		Handler:      router.Handler(),
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info().Str("addr", srv.Addr).Msg("listening")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	logger.Info().Msg("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}

	logger.Info().Msg("stopped cleanly")
	return nil
}

// openDatabase connects to the configured backend, runs embedded
// migrations for SQLite, and returns the repository set. PostgreSQL
// schemas are managed out of band by yamdb-migrate.
func openDatabase(ctx context.Context, cfg *config.Config, logger zerolog.Logger) (*repository.Repositories, repository.DatabaseHealth, func(), error) {
	if cfg.Database.IsEmbedded() {
		dbCfg := sqlite.DefaultConfig(cfg.Database.Path)
		dbCfg.JournalMode = cfg.Database.JournalMode
		dbCfg.BusyTimeout = cfg.Database.BusyTimeout
		dbCfg.CacheSize = cfg.Database.CacheSize
		dbCfg.SynchronousMode = cfg.Database.SynchronousMode

		db, err := sqlite.NewDB(ctx, dbCfg, logger)
		if err != nil {
			return nil, nil, nil, err
		}
		if err := db.Migrate(ctx); err != nil {
			db.Close()
			return nil, nil, nil, fmt.Errorf("migrate: %w", err)
		}
		return sqlite.NewRepositories(db), db, func() { db.Close() }, nil
	}

	db, err := postgres.NewDB(ctx, cfg.Database, logger)
	if err != nil {
		return nil, nil, nil, err
	}
	return postgres.NewRepositories(db), db, func() { db.Close() }, nil
}

// openCache returns the confirmation-code cache backend.
func openCache(ctx context.Context, cfg *config.Config, logger zerolog.Logger) (repository.Cache, func(), error) {
	if cfg.Redis.Enabled {
		cache, err := rediscache.NewCache(ctx, cfg.Redis, logger)
		if err != nil {
			return nil, nil, err
		}
		return cache, func() { cache.Close() }, nil
	}
	cache := memory.NewCache()
	return cache, cache.Stop, nil
}

// newLogger builds the root logger from the logging config.
func newLogger(cfg config.LoggingConfig) zerolog.Logger {
	zerolog.TimeFieldFormat = zerolog.TimeFormatUnix
	if cfg.TimeFormat != "" {
		zerolog.TimeFieldFormat = cfg.TimeFormat
	}

	level, err := zerolog.ParseLevel(strings.ToLower(cfg.Level))
	if err != nil {
		level = zerolog.InfoLevel
	}

	out := os.Stdout
	if cfg.Output == "stderr" {
		out = os.Stderr
	}

	var logger zerolog.Logger
	if cfg.Format == "console" {
		logger = zerolog.New(zerolog.ConsoleWriter{Out: out, TimeFormat: time.RFC3339})
	} else {
		logger = zerolog.New(out)
	}

	return logger.Level(level).With().Timestamp().Logger()
}
