package cli

import (
	"fmt"
	"strings"

	"github.com/kalder/finlink/internal/domain/diagnostics"
	"github.com/kalder/finlink/internal/domain/transfer"
)

// PrintHeader prints the application header
func PrintHeader(operation string, dryRun bool) {
	mode := "COMMIT"
	if dryRun {
		mode = "DRY-RUN"
	}
	fmt.Printf("finlink: %s (%s mode)\n\n", operation, mode)
}

// PrintMatches prints a matching result
func PrintMatches(result *transfer.Result) {
	if len(result.Matches) == 0 {
		fmt.Println("No transfer matches found.")
	}
	for _, m := range result.Matches {
		fmt.Printf("  %s <-> %s  confidence=%.2f type=%s gap=%dd diff=%.2f  (%s)\n",
			m.SourceID, m.TargetID, m.Confidence, m.MatchType,
			m.DateDiffDays, m.AmountDiff, m.Reasoning)
	}

	fmt.Println(strings.Repeat("-", 60))
	fmt.Printf("Summary: Matches=%d Unmatched=%d\n", len(result.Matches), len(result.Unmatched))
}

// PrintReport prints a transfer-link consistency report
func PrintReport(report *diagnostics.Report) {
	fmt.Printf("Transactions: total=%d transfers=%d linked=%d reciprocal-pairs=%d\n",
		report.TotalTransactions,
		report.TransferTransactions,
		report.LinkedTransactions,
		report.ActualMatches)

	if len(report.OrphanedReferences) > 0 {
		fmt.Println("\nOrphaned references:")
		for _, o := range report.OrphanedReferences {
			fmt.Printf("  - %s -> %s (%s, %.2f on %s)\n",
				o.TransactionID, o.ReimbursementID, o.Description,
				o.Amount, o.Date.Format("2006-01-02"))
		}
	}

	if len(report.BidirectionalIssues) > 0 {
		fmt.Println("\nOne-directional links:")
		for _, issue := range report.BidirectionalIssues {
			fmt.Printf("  - %s -> %s (target links to %q)\n",
				issue.TransactionID, issue.ReimbursementID, issue.TargetLinksTo)
		}
	}

	if len(report.OrphanedReferences) == 0 && len(report.BidirectionalIssues) == 0 {
		fmt.Println("\nNo link inconsistencies found.")
	}
}
