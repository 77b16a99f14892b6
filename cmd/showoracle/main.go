// Package main wires together the last-show oracle service binary.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/showoracle/last-show-oracle/internal/api"
	"github.com/showoracle/last-show-oracle/internal/clock/system"
	"github.com/showoracle/last-show-oracle/internal/config"
	"github.com/showoracle/last-show-oracle/internal/fetch"
	"github.com/showoracle/last-show-oracle/internal/logging"
	"github.com/showoracle/last-show-oracle/internal/selection"
	"github.com/showoracle/last-show-oracle/internal/venues"
)

func main() {
	cfgPath := flag.String("config", "", "Path to config file")
	flag.Parse()

	cfg, err := config.Load(*cfgPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "load config failed: %v\n", err)
		os.Exit(1)
	}
	logger, err := logging.New(cfg.Logging.Development)
	if err != nil {
		fmt.Fprintf(os.Stderr, "logger init failed: %v\n", err)
		os.Exit(1)
	}
	defer func() {
		if syncErr := logger.Sync(); syncErr != nil {
			fmt.Fprintf(os.Stderr, "logger sync failed: %v\n", syncErr)
		}
	}()
	zap.ReplaceGlobals(logger)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	lists, err := venues.Load(cfg.Venues.Path)
	if err != nil {
		logger.Fatal("load venue allow-lists failed", zap.String("path", cfg.Venues.Path), zap.Error(err))
	}

	clock := system.New()
	client := fetch.NewClient(fetch.Config{
		UserAgent: cfg.HTTP.UserAgent,
		Timeout:   cfg.HTTP.Timeout(),
		PerHost:   cfg.HTTP.PerHost,
		CacheTTL:  cfg.Cache.TTL(),
		CacheSize: cfg.Cache.Size,
	}, logger.Named("fetch"))
	orch := fetch.NewOrchestrator(client, fetch.OrchestratorConfig{
		MaxRetries:      cfg.HTTP.MaxRetries,
		MaxPages:        cfg.Scrape.MaxPages,
		WaybackBase:     cfg.Wayback.Base,
		WaybackFromYear: cfg.Wayback.FromYear,
		WaybackLimit:    cfg.Wayback.Limit,
	}, lists, clock, logger.Named("orchestrator"))
	engine := selection.New(lists, clock)

	apiServer := api.NewServer(orch, engine, cfg, logger.Named("api"))

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:           apiServer.Handler(),
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		logger.Info("http server started", zap.Int("port", cfg.Server.Port))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("http server error", zap.Error(err))
			stop()
		}
	}()

	<-ctx.Done()
	logger.Info("shutdown initiated")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("server shutdown error", zap.Error(err))
	}
}
