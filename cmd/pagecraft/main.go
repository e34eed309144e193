package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/pagecraft/pagecraft/internal/app/migrate"
	"github.com/pagecraft/pagecraft/internal/hosting"
	httpx "github.com/pagecraft/pagecraft/internal/http"
	"github.com/pagecraft/pagecraft/internal/ratelimit"
	"github.com/pagecraft/pagecraft/internal/repository/postgres"
	"github.com/pagecraft/pagecraft/internal/service/export"
	"github.com/pagecraft/pagecraft/internal/service/publish"
	"github.com/pagecraft/pagecraft/internal/service/queue"
	"github.com/pagecraft/pagecraft/internal/ws"
	"github.com/pagecraft/pagecraft/pkg/config"
	"github.com/pagecraft/pagecraft/pkg/logger"
)

func main() {
	cfg := config.LoadPublisherConfig()
	log := logger.New("publisher", logger.ParseLevel(cfg.LogLevel))

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	pool, err := pgxpool.New(ctx, cfg.DatabaseURL)
	if err != nil {
		log.Error("failed to connect to database", "error", err)
		os.Exit(1)
	}

	runner, err := migrate.New(pool, cfg.DatabaseURL, cfg.MigrationsDir, log)
	if err != nil {
		log.Error("failed to configure migrations", "error", err)
		os.Exit(1)
	}
	defer runner.Close()
	if err := runner.Ping(ctx); err != nil {
		log.Error("database ping failed", "error", err)
		os.Exit(1)
	}
	if err := runner.Ensure(ctx); err != nil {
		log.Error("migrations failed", "error", err)
		os.Exit(1)
	}

	repo := postgres.New(pool)
	hub := ws.NewHub()
	defer hub.Close()

	gate := ratelimit.New(cfg.HostingBurstTokens, cfg.HostingCallsPerMin, cfg.HostingMinReserve)
	hostingClient, err := hosting.New(cfg.HostingBaseURL, cfg.HostingToken, gate, hosting.WithTeam(cfg.HostingTeamID))
	if err != nil {
		log.Error("failed to configure hosting client", "error", err)
		os.Exit(1)
	}

	exportSvc := export.New(repo, log)
	queueSvc := queue.New(repo, repo, hub, log)
	publishSvc := publish.New(exportSvc, queueSvc, cfg.ArchiveDir, log)

	var limiter httpx.RateLimiter
	if addr := strings.TrimSpace(cfg.RateLimitRedisAddr); addr != "" {
		redisLimiter, err := httpx.NewRedisRateLimiter(addr, cfg.RateLimitRedisPass, cfg.RateLimitRedisDB, log)
		if err != nil {
			log.Warn("redis rate limiter unavailable", "error", err)
		} else {
			limiter = redisLimiter
		}
	}
	if limiter == nil {
		limiter = httpx.NewMemoryRateLimiter()
	}

	router := httpx.NewRouter(log, exportSvc, publishSvc, queueSvc, hostingClient, limiter, cfg.ProcessorAuthToken, pool.Ping)
	defer router.Close()

	srv := &http.Server{
		Addr:              cfg.Addr,
		Handler:           router,
		ReadHeaderTimeout: 5 * time.Second,
	}

	errorCh := make(chan error, 1)
	go func() {
		log.Info("publisher server starting", "addr", cfg.Addr, "env", cfg.Environment)
		errorCh <- srv.ListenAndServe()
	}()

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			log.Error("graceful shutdown failed", "error", err)
		}
		log.Info("publisher server stopped")
	case err := <-errorCh:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error("server error", "error", err)
			os.Exit(1)
		}
	}
}
