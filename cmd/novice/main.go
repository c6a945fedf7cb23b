// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package main

import (
	"context"
	"database/sql"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"

	"github.com/jknm/novice/internal/auth"
	"github.com/jknm/novice/internal/cache"
	"github.com/jknm/novice/internal/config"
	"github.com/jknm/novice/internal/directory"
	"github.com/jknm/novice/internal/handler/api"
	"github.com/jknm/novice/internal/jobs"
	"github.com/jknm/novice/internal/logging"
	"github.com/jknm/novice/internal/metrics"
	"github.com/jknm/novice/internal/middleware"
	"github.com/jknm/novice/internal/scheduler"
	"github.com/jknm/novice/internal/service"
	"github.com/jknm/novice/internal/storage"
	"github.com/jknm/novice/internal/store"
	"github.com/jknm/novice/internal/version"
	"github.com/jknm/novice/internal/webhook"
)

// Version information - injected at build time via ldflags
var (
	appVersion   = "dev"
	appGitCommit = ""
	appBuildTime = ""
)

func main() {
	showVersion := flag.Bool("version", false, "Show version information")
	flag.BoolVar(showVersion, "v", false, "Show version information (shorthand)")
	mirrorDir := flag.String("mirror", "", "Download every stored object into `dir` and exit")
	issueFor := flag.String("issue-token", "", "Print a bearer token for editor `email` and exit")

	flag.Usage = func() {
		_, _ = fmt.Fprintf(os.Stderr, "novice - club news backend\n\n")
		_, _ = fmt.Fprintf(os.Stderr, "Usage: %s [options]\n\n", os.Args[0])
		_, _ = fmt.Fprintf(os.Stderr, "Options:\n")
		flag.PrintDefaults()
		_, _ = fmt.Fprintf(os.Stderr, "\nEnvironment Variables:\n")
		_, _ = fmt.Fprintf(os.Stderr, "  NOVICE_TOKEN_SECRET        Bearer token HS256 secret (required, min 32 bytes)\n")
		_, _ = fmt.Fprintf(os.Stderr, "  NOVICE_DB_PATH             SQLite database path (default: ./data/novice.db)\n")
		_, _ = fmt.Fprintf(os.Stderr, "  NOVICE_SERVER_PORT         Server port (default: 8080)\n")
		_, _ = fmt.Fprintf(os.Stderr, "  NOVICE_ENV                 Environment: development|production (default: development)\n")
		_, _ = fmt.Fprintf(os.Stderr, "  NOVICE_S3_ENDPOINT         S3-compatible endpoint host (required)\n")
		_, _ = fmt.Fprintf(os.Stderr, "  NOVICE_S3_BUCKET           Media bucket (required)\n")
		_, _ = fmt.Fprintf(os.Stderr, "  NOVICE_REDIS_URL           Redis URL for the article cache (optional)\n")
		_, _ = fmt.Fprintf(os.Stderr, "  NOVICE_GOOGLE_CREDENTIALS_B64  Directory service account key (optional)\n")
	}
	flag.Parse()

	info := version.Info{Version: appVersion, GitCommit: appGitCommit, BuildTime: appBuildTime}
	if *showVersion {
		_, _ = fmt.Printf("novice %s\n", info)
		os.Exit(0)
	}

	if err := run(info, *mirrorDir, *issueFor); err != nil {
		slog.Error("application error", "error", err)
		os.Exit(1)
	}
}

func run(info version.Info, mirrorDir, issueFor string) error {
	if err := config.LoadDotEnv(); err != nil {
		return err
	}
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	level := cfg.SlogLevel()
	logger := slog.New(logging.New(os.Stdout, cfg.Env, level))
	slog.SetDefault(logger)

	tokens, err := auth.NewTokenManager(cfg.TokenSecret, cfg.TokenIssuer, cfg.TokenTTL)
	if err != nil {
		return fmt.Errorf("initializing token verification: %w", err)
	}
	if issueFor != "" {
		return printToken(tokens, issueFor)
	}

	objects, err := storage.NewS3(cfg.S3())
	if err != nil {
		return fmt.Errorf("initializing object storage: %w", err)
	}

	if mirrorDir != "" {
		res, err := storage.Mirror(context.Background(), objects, mirrorDir, logger)
		if err != nil {
			return fmt.Errorf("mirroring bucket: %w", err)
		}
		logger.Info("mirror complete", "dir", mirrorDir, "downloaded", res.Downloaded, "skipped", res.Skipped)
		return nil
	}

	if err := os.MkdirAll(filepath.Dir(cfg.DBPath), 0o755); err != nil {
		return fmt.Errorf("creating data directory: %w", err)
	}

	logger.Info("initializing database", "path", cfg.DBPath)
	db, err := store.NewDB(cfg.DBPath)
	if err != nil {
		return fmt.Errorf("initializing database: %w", err)
	}
	defer func(db *sql.DB) {
		if err := db.Close(); err != nil {
			slog.Error("error closing database connection", "error", err)
		}
	}(db)

	if err := store.Migrate(db); err != nil {
		return fmt.Errorf("running migrations: %w", err)
	}

	// From here on WARN and ERROR records are also persisted as events.
	logger = slog.New(logging.NewEventLogHandler(logging.New(os.Stdout, cfg.Env, level), db))
	slog.SetDefault(logger)
	logger.Info("database ready", "version", info.String())

	articleCache, cacheBackend := cache.New(cfg.Cache(), logger)
	defer func() { _ = articleCache.Close() }()
	logger.Info("article cache ready", "backend", cacheBackend)

	var dir directory.Directory
	if cfg.DirectoryEnabled() {
		g, err := directory.NewGoogle(context.Background(), cfg.Directory())
		if err != nil {
			return fmt.Errorf("initializing directory client: %w", err)
		}
		dir = g
	} else {
		logger.Info("directory sync disabled", "reason", "no credentials configured")
	}

	m := metrics.New()
	if sp, ok := articleCache.(cache.StatsProvider); ok {
		err := m.ObserveCache(cacheBackend, func() (int64, int64) {
			st := sp.Stats()
			return st.Hits, st.Misses
		})
		if err != nil {
			logger.Warn("cache metrics not registered", "error", err)
		}
	}

	ctx, stop := context.WithCancel(context.Background())
	defer stop()

	queue := jobs.New(logger, m, cfg.Jobs())
	queue.Start(ctx)

	hookQueue := jobs.New(logger, m, cfg.WebhookJobs())

	articles := service.NewArticleService(db, articleCache, logger)
	if hooks := webhook.NewDispatcher(hookQueue, logger, cfg.Webhook()); hooks.Enabled() {
		hookQueue.Start(ctx)
		articles.SetNotifier(hooks)
		logger.Info("article webhooks enabled", "endpoints", len(cfg.WebhookURLs))
	}
	pipeline := service.NewVariantPipeline(db, objects, m, logger, cfg.PipelineWorkers)
	media := service.NewMediaService(db, objects, pipeline, queue, cfg.UploadURLTTL, logger)
	authors := service.NewAuthorService(db, dir, m, logger)
	admin := service.NewAdminService(db, objects, articles, queue, logger)

	sched := scheduler.New(logger)
	if dir != nil {
		err := sched.Register(scheduler.AuthorSyncTask(cfg.AuthorSyncSchedule, queue, func(ctx context.Context) error {
			_, err := authors.SyncFromDirectory(ctx)
			return err
		}))
		if err != nil {
			return fmt.Errorf("registering author sync: %w", err)
		}
	}
	if err := sched.Register(scheduler.EventRetentionTask("@daily", cfg.EventRetention, admin.PruneEvents, logger)); err != nil {
		return fmt.Errorf("registering event retention: %w", err)
	}
	sched.Start()

	apiHandler := api.NewHandler(api.Services{
		Articles:  articles,
		Search:    service.NewSearchService(db),
		Media:     media,
		Authors:   authors,
		Admin:     admin,
		Scheduler: sched,
	}, logger)
	health := api.NewHealthHandler(db, articleCache, cacheBackend, info)
	site := api.NewSEOHandler(articles, cfg.SiteURL, !cfg.IsProduction(), logger)
	limiter := middleware.NewRateLimiter(cfg.RateLimitRPS, cfg.RateLimitBurst, logger)

	r := chi.NewRouter()
	r.Use(chimw.RequestID)
	if cfg.TrustProxy {
		r.Use(chimw.RealIP)
	}
	r.Use(chimw.Logger)
	r.Use(chimw.Recoverer)
	r.Use(chimw.StripSlashes)
	r.Use(chimw.Compress(5))
	r.Use(middleware.CORS(cfg.AllowedOrigins()))
	r.Use(middleware.SecurityHeaders(middleware.DefaultSecurityHeadersConfig(cfg.IsDevelopment())))

	r.With(middleware.BearerAuth(tokens, logger)).Get("/health", health.Health)
	r.Get("/health/live", health.Liveness)
	r.Handle("/metrics", m.Handler())
	r.Get("/sitemap.xml", site.Sitemap)
	r.Get("/robots.txt", site.Robots)
	r.With(middleware.Timeout(cfg.RequestTimeout)).Mount("/api/v1", apiHandler.Routes(tokens, limiter))

	srv := &http.Server{
		Addr:              cfg.ServerAddr(),
		Handler:           r,
		ReadTimeout:       15 * time.Second,
		ReadHeaderTimeout: 5 * time.Second,
		WriteTimeout:      60 * time.Second,
		IdleTimeout:       60 * time.Second,
		MaxHeaderBytes:    1 << 20,
	}

	serverErr := make(chan error, 1)
	go func() {
		logger.Info("starting server", "addr", cfg.ServerAddr(), "env", cfg.Env)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErr <- err
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	select {
	case <-quit:
	case err := <-serverErr:
		return fmt.Errorf("server: %w", err)
	}

	logger.Info("shutting down server...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server shutdown: %w", err)
	}
	sched.Stop()
	if err := queue.Stop(shutdownCtx); err != nil {
		logger.Warn("job queue did not drain", "error", err)
	}
	if err := hookQueue.Stop(shutdownCtx); err != nil {
		logger.Warn("webhook queue did not drain", "error", err)
	}

	logger.Info("server stopped")
	return nil
}

// printToken writes a bearer token for an editor to stdout.
func printToken(tokens *auth.TokenManager, email string) error {
	token, expires, err := tokens.Issue(auth.Identity{Subject: email, Email: email})
	if err != nil {
		return fmt.Errorf("issuing token: %w", err)
	}
	_, _ = fmt.Fprintf(os.Stderr, "token for %s expires %s\n", email, expires.Format(time.RFC3339))
	_, _ = fmt.Println(token)
	return nil
}
