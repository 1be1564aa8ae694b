package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/good-deeds/board/internal/auth"
	"github.com/good-deeds/board/internal/config"
	"github.com/good-deeds/board/internal/db"
	"github.com/good-deeds/board/internal/repo"
	"github.com/good-deeds/board/internal/repo/memory"
	"github.com/good-deeds/board/internal/scheduler"
	"github.com/good-deeds/board/internal/service"
	"github.com/good-deeds/board/internal/session"
	"github.com/good-deeds/board/internal/web"
)

func main() {
	if err := run(); err != nil {
		slog.Error("server exited", "error", err)
		os.Exit(1)
	}
}

func run() error {
	// Load configuration
	cfg := config.Load()
	slog.SetDefault(newLogger(os.Stderr, cfg.LogFormat, cfg.LogLevel))
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("config: %w", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	store, closeStore, err := openStore(ctx, cfg)
	if err != nil {
		return err
	}
	defer closeStore()

	denylist, err := openDenylist(ctx, cfg)
	if err != nil {
		return err
	}

	renderer, err := web.NewRenderer()
	if err != nil {
		return fmt.Errorf("templates: %w", err)
	}

	svc := service.New(store, nil)
	issuer := auth.NewIssuer([]byte(cfg.JWTSecret), time.Duration(cfg.JWTExpireHours)*time.Hour)
	gateway := auth.NewGateway(issuer, denylist, cfg.TLSEnabled())

	sched, err := scheduler.New(scheduler.ActiveMarkersJob(svc, cfg.ActiveMarkersCron))
	if err != nil {
		return err
	}
	schedDone := make(chan struct{})
	go func() {
		defer close(schedDone)
		if err := sched.Run(ctx); err != nil {
			slog.Error("scheduler", "error", err)
		}
	}()

	server := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           newRouter(svc, gateway, renderer, cfg),
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       120 * time.Second,
	}

	serveErr := make(chan error, 1)
	go func() {
		slog.Info("listening", "port", cfg.Port, "store", cfg.Store, "tls", cfg.TLSEnabled())
		if cfg.TLSEnabled() {
			serveErr <- server.ListenAndServeTLS(cfg.TLSCertFile, cfg.TLSKeyFile)
			return
		}
		serveErr <- server.ListenAndServe()
	}()

	select {
	case err := <-serveErr:
		if !errors.Is(err, http.ErrServerClosed) {
			stop()
			<-schedDone
			return err
		}
	case <-ctx.Done():
		slog.Info("shutting down")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		slog.Error("shutdown", "error", err)
	}
	<-schedDone
	slog.Info("server closed")
	return nil
}

// openStore returns the configured store and a function releasing it.
func openStore(ctx context.Context, cfg config.Config) (service.Store, func(), error) {
	if cfg.Store == config.StoreMemory {
		slog.Warn("using in-memory store; data is lost on restart")
		return memory.New(), func() {}, nil
	}

	database, err := db.Connect(ctx, cfg.DSN(), cfg.DBMaxOpenConns, cfg.DBMaxIdleConns)
	if err != nil {
		return nil, nil, fmt.Errorf("connect to database: %w", err)
	}
	slog.Info("connected to the database")

	if err := db.Migrate(cfg.MigrateURL()); err != nil {
		database.Close()
		return nil, nil, fmt.Errorf("migrate: %w", err)
	}
	return repo.NewStore(database), func() { database.Close() }, nil
}

// openDenylist uses redis when REDIS_ADDR is set so logouts survive restarts
// and are shared between instances.
func openDenylist(ctx context.Context, cfg config.Config) (session.Denylist, error) {
	if cfg.RedisAddr == "" {
		return session.NewMemoryDenylist(), nil
	}
	client, err := session.ConnectRedis(ctx, cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB)
	if err != nil {
		return nil, fmt.Errorf("connect to redis: %w", err)
	}
	slog.Info("session denylist on redis", "addr", cfg.RedisAddr)
	return session.NewRedisDenylist(client), nil
}

// newLogger builds the process logger from LOG_FORMAT and LOG_LEVEL.
func newLogger(w io.Writer, format, level string) *slog.Logger {
	var lvl slog.Level
	if err := lvl.UnmarshalText([]byte(level)); err != nil {
		lvl = slog.LevelInfo
	}
	opts := &slog.HandlerOptions{Level: lvl}
	if strings.EqualFold(format, "json") {
		return slog.New(slog.NewJSONHandler(w, opts))
	}
	return slog.New(slog.NewTextHandler(w, opts))
}
