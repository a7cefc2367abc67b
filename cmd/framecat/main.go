package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/astrocat-lab/frame-catalog/internal/aggregate"
	"github.com/astrocat-lab/frame-catalog/internal/auth"
	"github.com/astrocat-lab/frame-catalog/internal/cache"
	"github.com/astrocat-lab/frame-catalog/internal/core/catalog"
	corecfg "github.com/astrocat-lab/frame-catalog/internal/core/config"
	"github.com/astrocat-lab/frame-catalog/internal/core/storage/postgres"
	"github.com/astrocat-lab/frame-catalog/internal/counting"
	"github.com/astrocat-lab/frame-catalog/internal/migrations"
	"github.com/astrocat-lab/frame-catalog/internal/server"
	"github.com/astrocat-lab/frame-catalog/internal/snapshot"
)

func main() {
	configPath := flag.String("config", "framecat.yaml", "Path to configuration file")
	flag.Parse()

	// 0. Initialize Logger
	logger := slog.New(slog.NewTextHandler(os.Stdout, nil))
	slog.SetDefault(logger)

	// 1. Load Configuration
	cfg, err := corecfg.Load(*configPath)
	if err != nil {
		slog.Error("Failed to load config", "error", err)
		os.Exit(1)
	}
	slog.Info("Loaded config", "config", cfg)

	// 2. Load the science configuration-type vocabulary
	scienceTypes := catalog.DefaultScienceTypes
	if cfg.Catalog.ScienceTypesPath != "" {
		scienceTypes, err = catalog.LoadScienceTypes(cfg.Catalog.ScienceTypesPath)
		if err != nil {
			slog.Error("Failed to load science types", "path", cfg.Catalog.ScienceTypesPath, "error", err)
			os.Exit(1)
		}
	}

	// 3. Initialize Storage (PostgreSQL frames replica)
	frameStore, err := postgres.NewAdapter(
		cfg.Database.DSN,
		cfg.Database.MaxOpenConns,
		cfg.Database.MaxIdleConns,
		scienceTypes,
	)
	if err != nil {
		slog.Error("Failed to initialize database", "error", err)
		os.Exit(1)
	}
	defer frameStore.Close()

	// 3.1. Run Database Migrations
	if err := migrations.RunMigrations(frameStore.DB(), cfg.Database.AutoMigrate); err != nil {
		slog.Error("Failed to run database migrations", "error", err)
		os.Exit(1)
	}

	// 4. Shared in-process cache
	cacheStore := cache.NewMemoryStore()

	// 5. Snapshot refresher + source
	snapshots := snapshot.NewCacheSource(cacheStore)
	refresher := snapshot.NewRefresher(cfg.Snapshot.RefreshIntervalDuration(), frameStore, cacheStore)

	// 6. Query engines
	counter := counting.NewCounter(frameStore, counting.Budgets{
		Anonymous:     cfg.Query.AnonymousBudgetDuration(),
		Authenticated: cfg.Query.AuthenticatedBudgetDuration(),
		Small:         cfg.Query.SmallBudgetDuration(),
	})
	aggregator := aggregate.NewService(frameStore, cacheStore, snapshots, aggregate.Budgets{
		Anonymous:     cfg.Query.AnonymousBudgetDuration(),
		Authenticated: cfg.Query.AuthenticatedBudgetDuration(),
	})

	// 7. Initialize Server
	srv := server.New(fmtAddr(cfg.Server.Host, cfg.Server.Port), frameStore.DB(), cfg.Server.Mode)
	if cfg.Auth.ProfileURL != "" {
		resolver := auth.NewPortalResolver(cfg.Auth.ProfileURL, cacheStore, cfg.Auth.CacheTTLDuration())
		srv.Engine.Use(auth.Middleware(resolver))
	} else {
		slog.Info("No auth.profile_url configured, serving anonymous traffic only")
	}
	counter.RegisterRoutes(srv.Engine)
	aggregator.RegisterRoutes(srv.Engine)

	// 8. Start Services
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if cfg.Snapshot.Enabled {
		go func() {
			if err := refresher.Start(ctx); err != nil {
				slog.Error("Snapshot refresher stopped with error", "error", err)
			}
		}()
	} else {
		slog.Info("Snapshot refresher disabled by config")
	}

	// Signal handler triggers the shutdown sequence below.
	go func() {
		quit := make(chan os.Signal, 1)
		signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
		<-quit
		slog.Info("Signal received, shutting down...")
		cancel()
	}()

	// HTTP server blocks until ctx is cancelled.
	if err := srv.Run(ctx); err != nil {
		slog.Error("Server stopped with error", "error", err)
	}

	slog.Info("Shutdown complete")
}

func fmtAddr(host string, port int) string {
	return fmt.Sprintf("%s:%d", host, port)
}
