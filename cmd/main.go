package main

import (
	"context"
	"log/slog"
	"net"
	"net/http"
	"os"
	"os/signal"
	"time"

	"arbflow/config"
	redisadapter "arbflow/internal/adapters/cache/redis"
	"arbflow/internal/adapters/exchange"
	httpserver "arbflow/internal/adapters/handlers/http"
	"arbflow/internal/adapters/repository/postgres"
	"arbflow/internal/core/port"
	"arbflow/internal/core/service"
	deps "arbflow/pkg/config"
)

func init() {
	initialLogger := slog.New(slog.NewTextHandler(os.Stdout, nil))
	slog.SetDefault(initialLogger)
}

func main() {
	ctx := context.Background()
	cfg := config.LoadConfig()

	d, err := deps.NewDependencies(
		ctx,
		deps.WithLogger(cfg.Server.LogLvl),
		deps.WithPostgres(
			cfg.Postgres.User,
			cfg.Postgres.Pass,
			cfg.Postgres.Host,
			cfg.Postgres.Port,
			cfg.Postgres.DBName,
		),
		deps.WithRedis(
			cfg.Redis.Addr,
			cfg.Redis.DB,
		),
	)
	if err != nil {
		slog.Error("failed to load dependencies", slog.Any("error", err))
		os.Exit(1)
	}
	defer d.Close()

	run(ctx, cfg, d)
}

func run(ctx context.Context, cfg *config.Config, d *deps.Dependencies) {
	ctx, cancel := signal.NotifyContext(ctx, os.Interrupt)
	defer cancel()

	// Hard session lifetime: the graph and all edges are discarded when
	// it elapses.
	ctx, cancelSession := context.WithTimeout(ctx, cfg.Arbitrage.SessionLifetime)
	defer cancelSession()

	feeds := make([]port.QuoteSourcePort, 0, len(cfg.Feeds))
	for _, feed := range cfg.Feeds {
		feeds = append(feeds, exchange.NewTCPQuoteFeed(feed.ID, feed.Host, feed.Port, d.Logger))
	}

	svc := service.NewArbitrageService(
		redisadapter.NewRedisCache(d.Redis, d.Logger),
		postgres.NewOpportunityRepository(d.Postgres, d.Logger),
		feeds,
		d.Logger,
		service.PipelineConfig{
			StalenessWindow:   cfg.Arbitrage.StalenessWindow,
			InactivityTimeout: cfg.Arbitrage.InactivityTimeout,
			StartNotional:     cfg.Arbitrage.StartNotional,
		},
	)
	svc.Start()
	defer svc.Stop()

	httpServer := &http.Server{
		Addr:    net.JoinHostPort(cfg.Server.Host, cfg.Server.Port),
		Handler: httpserver.NewServer(d.Logger, svc),
	}

	go func() {
		slog.Info("server listening", "address", httpServer.Addr)
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			slog.Info("error listening and serving", "error", err)
		}
	}()

	select {
	case <-ctx.Done():
	case <-svc.Done():
	}

	shutdownCtx, cancelShutdown := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancelShutdown()
	slog.Info("Gracefully shutting down...")

	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		slog.Info("error shutting down http server", "error", err)
	}
}
