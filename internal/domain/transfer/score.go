package transfer

import (
	"fmt"
	"math"

	"github.com/kalder/finlink/internal/domain/ledger"
)

// manualConfidenceCap keeps manual suggestions below the automatic
// "certain" threshold; manual mode exists for pairs the system is not
// fully sure about.
const manualConfidenceCap = 0.85

// amountEpsilon absorbs float64 noise when testing for exact equality.
const amountEpsilon = 1e-6

// Score is the verdict on one candidate pair.
type Score struct {
	IsMatch      bool
	Confidence   float64
	MatchType    ledger.MatchType
	Reasoning    string
	DateDiffDays int
	AmountDiff   float64
}

// ScoreCandidate decides whether two transactions are plausibly the two
// legs of one transfer, and how confidently. Candidacy requires opposite
// sign amounts and different owning accounts; the caller is responsible
// for restricting the input to transfer-categorized transactions.
// Boundary values are inclusive: a gap landing exactly on the configured
// maximum still matches.
func ScoreCandidate(a, b *ledger.Transaction, tol Tolerances, mode Mode) Score {
	if !ledger.OppositeSigns(a, b) {
		return Score{Reasoning: "amounts are not opposite signed"}
	}
	if a.Account == b.Account {
		return Score{Reasoning: "same account"}
	}

	dateDiff := ledger.DaysBetween(a.Date, b.Date)
	if dateDiff > tol.MaxDateDays {
		return Score{
			Reasoning:    fmt.Sprintf("date gap %d days exceeds maximum %d", dateDiff, tol.MaxDateDays),
			DateDiffDays: dateDiff,
		}
	}

	amountA := a.AbsAmount()
	amountB := b.AbsAmount()
	if tol.RateApplied {
		amountB = math.Abs(tol.NormalizedTarget)
	}

	amountDiff := math.Abs(amountA - amountB)
	larger := math.Max(amountA, amountB)
	if larger == 0 {
		return Score{Reasoning: "zero amount"}
	}
	frac := amountDiff / larger
	exactAmount := amountDiff <= amountEpsilon

	if !exactAmount && frac > tol.MaxAmountFraction+amountEpsilon {
		return Score{
			Reasoning:    fmt.Sprintf("amount difference %.2f%% exceeds tolerance %.2f%%", frac*100, tol.MaxAmountFraction*100),
			DateDiffDays: dateDiff,
			AmountDiff:   amountDiff,
		}
	}

	s := Score{
		IsMatch:      true,
		DateDiffDays: dateDiff,
		AmountDiff:   amountDiff,
	}

	if exactAmount && dateDiff == 0 {
		s.Confidence = 1.0
		s.MatchType = ledger.MatchExact
		s.Reasoning = "exact amount match"
	} else {
		s.Confidence = 0.5*axisScore(float64(dateDiff), float64(tol.MaxDateDays)) +
			0.5*axisScore(frac, tol.MaxAmountFraction)
		s.MatchType = ledger.MatchApproximate
		s.Reasoning = approximateReasoning(exactAmount, dateDiff, tol)
	}

	if mode == ModeManual {
		if s.Confidence > manualConfidenceCap {
			s.Confidence = manualConfidenceCap
		}
		if s.MatchType != ledger.MatchExact {
			s.Reasoning = "possible manual match: " + s.Reasoning
		}
	}

	return s
}

// axisScore degrades linearly from 1 as the gap approaches the band. A
// zero-width band means the dimension matched exactly and scores full.
func axisScore(gap, band float64) float64 {
	if band <= 0 || gap <= 0 {
		return 1
	}
	score := 1 - gap/band
	if score < 0 {
		return 0
	}
	return score
}

func approximateReasoning(exactAmount bool, dateDiff int, tol Tolerances) string {
	switch {
	case exactAmount:
		return fmt.Sprintf("exact amount match, %d days apart", dateDiff)
	case tol.RateApplied:
		return "amount within converted exchange rate tolerance"
	case tol.CrossCurrency:
		return "amount within exchange rate tolerance"
	default:
		return "amount within tolerance"
	}
}
