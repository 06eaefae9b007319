package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"golang.org/x/sync/errgroup"

	"processos/internal/cli"
	applog "processos/internal/log"
	"processos/internal/metrics"
	"processos/internal/services"
	"processos/internal/worker"
)

func main() {
	cli.LoadEnvFile()

	cfg, err := cli.LoadConfig()
	logger := cli.SetupLogger(cfg, applog.ComponentWorker)
	if err != nil {
		logger.Error("Configuration validation failed", "error", err)
		os.Exit(1)
	}

	logger.Info("Starting alert-worker",
		"interval", cfg.AlertInterval.String(),
		"lookahead_days", cfg.AlertLookaheadDays)

	ctx, cancel := cli.SignalContext(logger.Logger)
	defer cancel()

	repo, err := cli.OpenRepository(ctx, logger.Logger, cfg)
	if err != nil {
		logger.Error("Failed to open repository", "error", err, "backend", cfg.DataBackend)
		os.Exit(1)
	}
	defer repo.Close()

	reg := prometheus.NewRegistry()
	m := metrics.New(reg)

	loc, _ := cfg.Location()
	svc := services.NewProcessService(repo.Repository, services.Options{
		LookaheadDays: &cfg.AlertLookaheadDays,
		Location:      loc,
		Metrics:       m,
	})

	var publisher worker.DigestPublisher
	if client := cli.OpenPublisher(logger.Logger, cfg); client != nil {
		defer client.Close()
		publisher = client
	}
	alertWorker := worker.NewAlertWorker(svc, publisher, m, cfg.AlertInterval)

	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(reg, promhttp.HandlerOpts{}))
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte("ok"))
	})
	metricsSrv := &http.Server{
		Addr:              ":" + cfg.MetricsPort,
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return alertWorker.Run(gctx)
	})
	g.Go(func() error {
		logger.Info("Serving worker metrics", "port", cfg.MetricsPort)
		if err := metricsSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, shutdownCancel := cli.ShutdownContext(10 * time.Second)
		defer shutdownCancel()
		return metricsSrv.Shutdown(shutdownCtx)
	})

	if err := g.Wait(); err != nil && !errors.Is(err, context.Canceled) {
		logger.Error("Alert worker failed", "error", err)
		os.Exit(1)
	}
	logger.Info("Alert worker stopped gracefully")
}
