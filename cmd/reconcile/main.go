// Command reconcile runs transfer matching over the persisted
// transaction set: automatic matching with an optional dry-run, or a
// relaxed manual-suggestion listing.
package main

import (
	"context"
	"log/slog"
	"os"

	"github.com/kalder/finlink/internal/adapters/rates"
	"github.com/kalder/finlink/internal/application/service"
	"github.com/kalder/finlink/internal/cli"
	"github.com/kalder/finlink/internal/domain/transfer"
	"github.com/kalder/finlink/internal/infrastructure/config"
	"github.com/kalder/finlink/internal/infrastructure/logging"
	"github.com/kalder/finlink/internal/infrastructure/storage"
)

func main() {
	flags := cli.ParseReconcileFlags()

	cfg := config.LoadOrEnvWithPath(flags.ConfigPath)
	if flags.Verbose {
		cfg.Observability.Logging.Level = "debug"
	}
	logger := logging.NewLoggerWithSystem(cfg.Observability.Logging, "reconcile")

	store, err := storage.NewStorage(cfg.Storage.DatabasePath)
	if err != nil {
		logger.Error("failed to open database", "path", cfg.Storage.DatabasePath, "error", err)
		os.Exit(1)
	}
	defer store.Close()

	converter := rates.NewCachedConverter(
		rates.NewECBClient(cfg.Rates.FeedURL, logger),
		rates.NewCache(cfg.Rates.CacheTTL.Std(), nil),
		logger,
	)
	resolver := transfer.NewToleranceResolver(converter, cfg.Rates.DefaultCurrency, logger)
	matcher := transfer.NewMatcher(resolver, logger)
	svc := service.NewReconService(store, matcher, cfg.Matching, logger)

	ctx := context.Background()

	switch {
	case flags.Manual:
		cli.PrintHeader("manual transfer suggestions", true)
		result, err := svc.FindManualTransferMatches(ctx, flags.Apply(svc.ManualOptions()))
		exitOnErr(logger, err)
		cli.PrintMatches(result)

	case flags.DryRun:
		cli.PrintHeader("automatic transfer matching", true)
		result, err := svc.PreviewTransferMatches(ctx, flags.Apply(svc.AutoOptions()))
		exitOnErr(logger, err)
		cli.PrintMatches(result)

	default:
		cli.PrintHeader("automatic transfer matching", false)
		result, err := svc.AutoMatchTransfers(ctx, flags.Apply(svc.AutoOptions()))
		exitOnErr(logger, err)
		cli.PrintMatches(result)
	}
}

func exitOnErr(logger *slog.Logger, err error) {
	if err != nil {
		logger.Error("reconcile failed", "error", err)
		os.Exit(1)
	}
}
