// Command diagnose prints a transfer-link consistency report for the
// persisted transaction set: orphaned reimbursement references and
// one-directional links left behind by deletions or partial writes.
package main

import (
	"flag"
	"fmt"
	"os"

	"github.com/kalder/finlink/internal/cli"
	"github.com/kalder/finlink/internal/domain/diagnostics"
	"github.com/kalder/finlink/internal/infrastructure/config"
	"github.com/kalder/finlink/internal/infrastructure/storage"
)

func main() {
	configPath := flag.String("config", "config.yaml", "Path to config file")
	flag.Parse()

	cfg := config.LoadOrEnvWithPath(*configPath)

	store, err := storage.NewStorage(cfg.Storage.DatabasePath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to open database %s: %v\n", cfg.Storage.DatabasePath, err)
		os.Exit(1)
	}
	defer store.Close()

	txns, err := store.GetAllTransactions()
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load transactions: %v\n", err)
		os.Exit(1)
	}

	cli.PrintReport(diagnostics.Audit(txns))
}
