package cli

import (
	"flag"

	"github.com/kalder/finlink/internal/domain/transfer"
)

// ReconcileFlags are the flags shared by the matching CLIs.
type ReconcileFlags struct {
	ConfigPath string
	DryRun     bool
	Manual     bool
	Days       int
	Tolerance  float64
	Verbose    bool
}

// ParseReconcileFlags parses common reconcile flags from the command line.
func ParseReconcileFlags() ReconcileFlags {
	var flags ReconcileFlags
	flag.StringVar(&flags.ConfigPath, "config", "config.yaml", "Path to config file")
	flag.BoolVar(&flags.DryRun, "dry-run", false, "Preview matches without committing them")
	flag.BoolVar(&flags.Manual, "manual", false, "List relaxed manual-match suggestions instead")
	flag.IntVar(&flags.Days, "days", 0, "Max date gap in days (0 = configured default)")
	flag.Float64Var(&flags.Tolerance, "tolerance", 0, "Amount tolerance fraction (0 = configured default)")
	flag.BoolVar(&flags.Verbose, "verbose", false, "Verbose output")
	flag.Parse()
	return flags
}

// Apply overlays the flag values onto a base set of matching options.
func (f ReconcileFlags) Apply(base transfer.Options) transfer.Options {
	if f.Days > 0 {
		base.MaxDaysDifference = f.Days
	}
	if f.Tolerance > 0 {
		base.TolerancePercentage = f.Tolerance
	}
	return base
}
