// Command processosctl inspects and updates the process collection from the
// command line using the same configuration as the server.
package main

import (
	"context"
	"os"

	"processos/internal/cli"
	applog "processos/internal/log"
	"processos/internal/services"
)

func main() {
	if err := newRootCmd(openService).Execute(); err != nil {
		os.Exit(1)
	}
}

// openService wires the configured backend and publisher into a service.
func openService(ctx context.Context) (processService, func() error, error) {
	cli.LoadEnvFile()
	cfg, err := cli.LoadConfig()
	logger := cli.SetupLoggerTo(cfg, applog.ComponentCLI, os.Stderr)
	if err != nil {
		return nil, nil, err
	}

	repo, err := cli.OpenRepository(ctx, logger.Logger, cfg)
	if err != nil {
		return nil, nil, err
	}

	loc, _ := cfg.Location()
	opts := services.Options{
		LookaheadDays: &cfg.AlertLookaheadDays,
		Location:      loc,
	}
	closers := []func() error{repo.Close}
	if publisher := cli.OpenPublisher(logger.Logger, cfg); publisher != nil {
		opts.Publisher = publisher
		closers = append(closers, publisher.Close)
	}

	closeAll := func() error {
		var first error
		for i := len(closers) - 1; i >= 0; i-- {
			if err := closers[i](); err != nil && first == nil {
				first = err
			}
		}
		return first
	}
	return services.NewProcessService(repo.Repository, opts), closeAll, nil
}
