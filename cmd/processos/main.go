package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"golang.org/x/sync/errgroup"

	"processos/internal/cli"
	apphttp "processos/internal/http"
	applog "processos/internal/log"
	"processos/internal/metrics"
	"processos/internal/services"
)

func main() {
	cli.LoadEnvFile()

	cfg, err := cli.LoadConfig()
	logger := cli.SetupLogger(cfg, applog.ComponentApp)
	if err != nil {
		logger.Error("Configuration validation failed", "error", err)
		os.Exit(1)
	}

	ctx, cancel := cli.SignalContext(logger.Logger)
	defer cancel()

	repo, err := cli.OpenRepository(ctx, logger.Logger, cfg)
	if err != nil {
		logger.Error("Failed to open repository", "error", err, "backend", cfg.DataBackend)
		os.Exit(1)
	}
	defer func() {
		if err := repo.Close(); err != nil {
			logger.Error("Failed to close repository", "error", err)
		}
	}()

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	m := metrics.New(reg)

	loc, _ := cfg.Location()
	opts := services.Options{
		LookaheadDays: &cfg.AlertLookaheadDays,
		Location:      loc,
		Metrics:       m,
	}
	if publisher := cli.OpenPublisher(logger.Logger, cfg); publisher != nil {
		defer publisher.Close()
		opts.Publisher = publisher
	}
	svc := services.NewProcessService(repo.Repository, opts)

	srv := apphttp.NewServer(":"+cfg.Port, svc, apphttp.Options{
		Logger:            logger,
		Metrics:           m,
		Gatherer:          reg,
		RequestsPerMinute: cfg.RateLimitPerMinute,
	})

	// Configure server timeouts and limits
	srv.ReadTimeout = 10 * time.Second
	srv.WriteTimeout = 10 * time.Second
	srv.IdleTimeout = 60 * time.Second
	srv.MaxHeaderBytes = 1 << 16 // 64KB

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		logger.Info("Starting processos server", "port", cfg.Port, "backend", cfg.DataBackend)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, shutdownCancel := cli.ShutdownContext(30 * time.Second)
		defer shutdownCancel()
		return srv.Shutdown(shutdownCtx)
	})

	if err := g.Wait(); err != nil && !errors.Is(err, context.Canceled) {
		logger.Error("Server error", "error", err, "port", cfg.Port)
		os.Exit(1)
	}
	logger.Info("Server stopped gracefully")
}
