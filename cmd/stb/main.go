// Copyright (c) 2025-2026 Yuno Lab
// SPDX-License-Identifier: MIT

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
	"github.com/joho/godotenv"

	"github.com/yuno-tw/stb-api/internal/auth"
	"github.com/yuno-tw/stb-api/internal/config"
	"github.com/yuno-tw/stb-api/internal/facebook"
	"github.com/yuno-tw/stb-api/internal/handler"
	"github.com/yuno-tw/stb-api/internal/hashid"
	"github.com/yuno-tw/stb-api/internal/logpipe"
	"github.com/yuno-tw/stb-api/internal/middleware"
	"github.com/yuno-tw/stb-api/internal/scheduler"
	"github.com/yuno-tw/stb-api/internal/store"
	"github.com/yuno-tw/stb-api/internal/usercache"
	"github.com/yuno-tw/stb-api/internal/version"
)

// Version information - injected at build time via ldflags
var (
	appVersion   = "dev"
	appGitCommit = "unknown"
	appBuildTime = "unknown"
)

func main() {
	// Parse CLI flags
	showVersion := flag.Bool("version", false, "Show version information")
	flag.BoolVar(showVersion, "v", false, "Show version information (shorthand)")
	showHelp := flag.Bool("help", false, "Show help information")
	flag.BoolVar(showHelp, "h", false, "Show help information (shorthand)")

	flag.Usage = func() {
		_, _ = fmt.Fprintf(os.Stderr, "stb-api - STB backend service\n\n")
		_, _ = fmt.Fprintf(os.Stderr, "Usage: %s [options]\n\n", os.Args[0])
		_, _ = fmt.Fprintf(os.Stderr, "Options:\n")
		flag.PrintDefaults()
		_, _ = fmt.Fprintf(os.Stderr, "\nEnvironment Variables:\n")
		_, _ = fmt.Fprintf(os.Stderr, "  JWT_SECRET            Session token signing key (required, min 16 bytes)\n")
		_, _ = fmt.Fprintf(os.Stderr, "  STB_SERVER_PORT       Server port (default: 3000)\n")
		_, _ = fmt.Fprintf(os.Stderr, "  DB_DIALECT            Database dialect: sqlite|mysql (default: sqlite)\n")
		_, _ = fmt.Fprintf(os.Stderr, "  DB_PATH               SQLite database path (default: ./data/stb.db)\n")
		_, _ = fmt.Fprintf(os.Stderr, "  DB_DSN                MySQL DSN (required when DB_DIALECT=mysql)\n")
		_, _ = fmt.Fprintf(os.Stderr, "  FACEBOOK_APP_ID       Facebook application id\n")
		_, _ = fmt.Fprintf(os.Stderr, "  FACEBOOK_APP_TOKEN    Facebook app access token for token introspection\n")
		_, _ = fmt.Fprintf(os.Stderr, "  DEBUG                 Console log categories, comma separated (default: *)\n")
		_, _ = fmt.Fprintf(os.Stderr, "  LOG_BUFFER_TIME       Log batch flush window in ms (default: 5000)\n")
		_, _ = fmt.Fprintf(os.Stderr, "  LOG_RETENTION_DAYS    Days of log rows to keep (default: 90)\n")
	}

	flag.Parse()

	if *showHelp {
		flag.Usage()
		os.Exit(0)
	}

	if *showVersion {
		_, _ = fmt.Printf("stb-api %s (commit: %s, built: %s)\n", appVersion, appGitCommit, appBuildTime)
		os.Exit(0)
	}

	if err := run(); err != nil {
		slog.Error("application error", "error", err)
		os.Exit(1)
	}
}

func run() error {
	// Load .env file if present (development)
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	versionInfo := &version.Info{
		Version:   appVersion,
		GitCommit: appGitCommit,
		BuildTime: appBuildTime,
	}

	// Setup logger
	logLevel := slog.LevelInfo
	switch cfg.LogLevel {
	case "debug":
		logLevel = slog.LevelDebug
	case "warn":
		logLevel = slog.LevelWarn
	case "error":
		logLevel = slog.LevelError
	}
	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{
		Level: logLevel,
	}))
	slog.SetDefault(logger)

	// Initialize database
	if cfg.DBDialect == store.DialectSQLite {
		if err := os.MkdirAll(filepath.Dir(cfg.DBPath), 0755); err != nil {
			return fmt.Errorf("creating data directory: %w", err)
		}
	}

	dbCfg := store.DefaultDBConfig(cfg.DBDialect)
	dbCfg.Path = cfg.DBPath
	dbCfg.DSN = cfg.DBDSN

	slog.Info("initializing database", "dialect", cfg.DBDialect)
	db, err := store.NewDB(dbCfg)
	if err != nil {
		return fmt.Errorf("initializing database: %w", err)
	}
	defer func(db *sql.DB) {
		if err := db.Close(); err != nil {
			slog.Error("error closing database connection", "error", err)
		}
	}(db)

	slog.Info("running database migrations")
	if err := store.Migrate(db, cfg.DBDialect); err != nil {
		return fmt.Errorf("running migrations: %w", err)
	}
	slog.Info("database ready")

	st := store.New(db, cfg.DBDialect)

	// Start the log pipeline
	pipe := logpipe.New(st, logpipe.Config{
		BufferTime: cfg.LogBufferTime(),
		Debug:      cfg.Debug,
		PodName:    cfg.PodName,
		Version:    cfg.EffectiveVersion(versionInfo.String()),
	})
	pipe.Start()
	defer pipe.Stop()
	pipe.System("server starting")

	// User code codec and session tokens
	codec, err := hashid.New(cfg.UserHashSalt)
	if err != nil {
		return fmt.Errorf("initializing user code codec: %w", err)
	}
	tokens := auth.NewTokens(cfg.JWTSecret)

	// Profile cache in front of the user table
	cache := usercache.New(st.GetUserProfile, usercache.Options{
		Idle:          cfg.UserCacheIdle(),
		SweepInterval: time.Minute,
	})
	defer cache.Close()

	fb := facebook.NewClient("", cfg.FacebookAPIVersion, cfg.FacebookAppToken)

	// Start the retention scheduler
	sched := scheduler.New(st, pipe, cfg.LogRetentionDays)
	if err := sched.Start(); err != nil {
		return fmt.Errorf("starting scheduler: %w", err)
	}
	defer sched.Stop()

	// Login throttle
	loginLimiter := middleware.NewLoginLimiter(middleware.LoginLimiterConfig{})
	defer loginLimiter.Close()

	// Initialize handlers
	userHandler := handler.NewUserHandler(st, cache, codec, tokens, fb, cfg.FacebookAppID, pipe)
	healthHandler := handler.NewHealthHandler(db, versionInfo)

	// Create router
	r := chi.NewRouter()
	r.Use(chimw.RequestID)
	r.Use(chimw.RealIP)
	r.Use(middleware.RequestLogger(os.Stdout))
	r.Use(chimw.Recoverer)

	r.Get("/healthz", healthHandler.Health)

	r.With(loginLimiter.Middleware()).Post("/user/login/facebook", userHandler.LoginFacebook)
	r.With(auth.RequireUser(tokens, codec)).Get("/user", userHandler.Profile)

	// Create server with appropriate timeouts. The login path waits on
	// the identity provider, so the write timeout stays generous.
	srv := &http.Server{
		Addr:              cfg.ServerAddr(),
		Handler:           r,
		ReadTimeout:       15 * time.Second,
		ReadHeaderTimeout: 5 * time.Second,
		WriteTimeout:      60 * time.Second,
		IdleTimeout:       60 * time.Second,
		MaxHeaderBytes:    1 << 20,
	}

	// Start server in goroutine
	go func() {
		slog.Info("starting server", "addr", cfg.ServerAddr(), "env", cfg.Env)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			slog.Error("server error", "error", err)
		}
	}()

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	slog.Info("shutting down server...")
	pipe.System("server shutting down")

	// Graceful shutdown with timeout
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		return fmt.Errorf("server shutdown: %w", err)
	}

	slog.Info("server stopped")
	return nil
}
