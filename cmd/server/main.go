package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"crypto-pulse/cmd/server/handlers"
	"crypto-pulse/internal/clients/cache"
	"crypto-pulse/internal/clients/coingecko"
	"crypto-pulse/internal/clients/mail"
	mongo "crypto-pulse/internal/clients/mongo" // mongo client singleton
	"crypto-pulse/internal/config"
	"crypto-pulse/internal/logger"
	"crypto-pulse/internal/services/auth"
	"crypto-pulse/internal/services/watchlist"

	"github.com/grafana/pyroscope-go"
	_ "go.uber.org/automaxprocs"
	"golang.org/x/sync/errgroup"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(),
		syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	g, ctx := errgroup.WithContext(ctx)

	bootstrapLog := log.New(os.Stderr, "bootstrap: ", log.LstdFlags)

	cfg, err := config.Load()
	if err != nil {
		bootstrapLog.Printf("config load failed: %v", err)
		os.Exit(1)
	}

	logg, err := logger.Init(cfg)
	if err != nil {
		bootstrapLog.Printf("logger init failed: %v", err)
		os.Exit(1)
	}

	if cfg.PyroscopeServerAddress != "" {
		profiler, err := pyroscope.Start(pyroscope.Config{
			ApplicationName: "crypto-pulse",
			ServerAddress:   cfg.PyroscopeServerAddress,
		})
		if err != nil {
			logg.Warn("pyroscope disabled", "err", err)
		} else {
			defer func() { _ = profiler.Stop() }()
			logg.Info("pyroscope profiling enabled", "server", cfg.PyroscopeServerAddress)
		}
	}

	if _, _, err := mongo.Init(ctx, cfg, logg); err != nil {
		logg.Error("mongo init", "err", err)
		os.Exit(1)
	}

	redis := cache.New(cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB)
	if redis != nil {
		logg.Info("market data cache enabled", "addr", cfg.RedisAddr, "ttl_sec", cfg.MarketCacheTTLSec)
	}

	deps, err := buildDeps(ctx, cfg, logg, redis)
	if err != nil {
		logg.Error("wiring failed", "err", err)
		os.Exit(1)
	}

	logg.Info("starting CryptoPulse", "port", cfg.AppPort)

	app := setupRouter(cfg, deps)
	portStr := fmt.Sprintf(":%d", cfg.AppPort)

	g.Go(func() error {
		err := app.Listen(portStr)
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	})

	g.Go(func() error {
		<-ctx.Done()

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 25*time.Second)
		defer cancel()

		if err := app.ShutdownWithContext(shutdownCtx); err != nil {
			return err
		}
		if err := redis.Close(); err != nil {
			logg.Warn("redis close", "err", err)
		}
		return mongo.Shutdown(shutdownCtx)
	})

	if err := g.Wait(); err != nil && !errors.Is(err, context.Canceled) {
		logg.Error("fatal", "err", err)
		os.Exit(1)
	}
	logg.Info("graceful shutdown complete")
}

// buildDeps wires repositories, clients and services for the router.
func buildDeps(ctx context.Context, cfg config.Config, logg *slog.Logger, redis *cache.Client) (routerDeps, error) {
	users, err := mongo.NewUsersRepo(ctx, mongo.DB())
	if err != nil {
		return routerDeps{}, fmt.Errorf("users repository: %w", err)
	}

	mailer, err := mail.NewSender(cfg, logg)
	if err != nil {
		return routerDeps{}, fmt.Errorf("mailer: %w", err)
	}

	market := coingecko.NewCached(coingecko.New(nil, cfg), redis, cfg.MarketCacheTTL())
	hub := watchlist.NewHub(cfg.WSOutboxBuffer)
	authSvc := auth.NewService(users, mailer, cfg, logg)

	checks := map[string]handlers.Check{"mongo": mongo.Ping}
	if redis != nil {
		checks["redis"] = redis.Ping
	}

	return routerDeps{
		Auth:      authSvc,
		Tokens:    authSvc,
		Watchlist: watchlist.NewService(users, market, hub, logg),
		Users:     users,
		Hub:       hub,
		Checks:    checks,
	}, nil
}
