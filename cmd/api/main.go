// Command api serves the reconciliation engine over HTTP.
package main

import (
	"flag"
	"os"

	"github.com/kalder/finlink/internal/adapters/rates"
	"github.com/kalder/finlink/internal/api"
	"github.com/kalder/finlink/internal/application/service"
	"github.com/kalder/finlink/internal/domain/transfer"
	"github.com/kalder/finlink/internal/infrastructure/config"
	"github.com/kalder/finlink/internal/infrastructure/logging"
	"github.com/kalder/finlink/internal/infrastructure/storage"
)

func main() {
	configPath := flag.String("config", "config.yaml", "Path to config file")
	flag.Parse()

	cfg := config.LoadOrEnvWithPath(*configPath)
	logger := logging.NewLoggerWithSystem(cfg.Observability.Logging, "api")

	store, err := storage.NewStorage(cfg.Storage.DatabasePath)
	if err != nil {
		logger.Error("failed to open database", "path", cfg.Storage.DatabasePath, "error", err)
		os.Exit(1)
	}
	defer store.Close()

	converter := rates.NewCachedConverter(
		rates.NewECBClient(cfg.Rates.FeedURL, logger.With("system", "rates")),
		rates.NewCache(cfg.Rates.CacheTTL.Std(), nil),
		logger.With("system", "rates"),
	)

	resolver := transfer.NewToleranceResolver(converter, cfg.Rates.DefaultCurrency, logger)
	matcher := transfer.NewMatcher(resolver, logger.With("system", "matcher"))
	svc := service.NewReconService(store, matcher, cfg.Matching, logger)

	server := api.NewServer(api.Config{
		Port:           cfg.Server.Port,
		AllowedOrigins: cfg.Server.AllowedOrigins,
	}, svc, logger)

	if err := server.Run(); err != nil {
		logger.Error("server stopped", "error", err)
		os.Exit(1)
	}
}
