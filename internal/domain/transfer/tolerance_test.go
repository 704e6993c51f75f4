package transfer

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/kalder/finlink/internal/adapters/rates"
	"github.com/kalder/finlink/internal/domain/ledger"
)

type stubConverter struct {
	conv rates.Conversion
	err  error
}

func (s stubConverter) Convert(_ context.Context, _ float64, _, _ string) (rates.Conversion, error) {
	return s.conv, s.err
}

func TestResolve_SameCurrencyAutomatic_ExactOnly(t *testing.T) {
	r := NewToleranceResolver(nil, "USD", nil)
	a := makeTransfer("a", -100, "Checking", 0)
	b := makeTransfer("b", 100, "Savings", 0)

	tol := r.Resolve(context.Background(), &a, &b, ModeAutomatic, DefaultAutoOptions())

	assert.False(t, tol.CrossCurrency)
	assert.Zero(t, tol.MaxAmountFraction)
	assert.Equal(t, 7, tol.MaxDateDays)
}

func TestResolve_SameCurrencyManual_CallerBand(t *testing.T) {
	r := NewToleranceResolver(nil, "USD", nil)
	a := makeTransfer("a", -100, "Checking", 0)
	b := makeTransfer("b", 100, "Savings", 0)

	tol := r.Resolve(context.Background(), &a, &b, ModeManual, DefaultManualOptions())

	assert.InDelta(t, 0.12, tol.MaxAmountFraction, 1e-9)
	assert.Equal(t, 8, tol.MaxDateDays)
}

func TestResolve_CrossCurrency_WideBands(t *testing.T) {
	r := NewToleranceResolver(nil, "USD", nil)
	a := makeTransfer("a", -100, "Checking", 0)
	b := makeTransfer("b", 95, "Savings", 0)
	b.OriginalCurrency = "EUR"

	auto := r.Resolve(context.Background(), &a, &b, ModeAutomatic, DefaultAutoOptions())
	manual := r.Resolve(context.Background(), &a, &b, ModeManual, DefaultManualOptions())

	assert.True(t, auto.CrossCurrency)
	assert.InDelta(t, 0.05, auto.MaxAmountFraction, 1e-9)
	assert.InDelta(t, 0.12, manual.MaxAmountFraction, 1e-9)
}

func TestResolve_CallerToleranceWidensCrossCurrencyBand(t *testing.T) {
	r := NewToleranceResolver(nil, "USD", nil)
	a := makeTransfer("a", -100, "Checking", 0)
	b := makeTransfer("b", 95, "Savings", 0)
	b.OriginalCurrency = "EUR"
	opts := Options{MaxDaysDifference: 7, TolerancePercentage: 0.08}

	tol := r.Resolve(context.Background(), &a, &b, ModeAutomatic, opts)

	assert.InDelta(t, 0.08, tol.MaxAmountFraction, 1e-9)
}

func TestResolve_ConverterNormalizesCounterpart(t *testing.T) {
	// With a live rate the counterpart is normalized into the anchor's
	// currency and automatic mode tightens to the narrow residual band.
	conv := stubConverter{conv: rates.Conversion{ConvertedAmount: 99.4, Rate: 1.08}}
	r := NewToleranceResolver(conv, "USD", nil)
	a := makeTransfer("a", -100, "Checking", 0)
	b := makeTransfer("b", 92, "Savings", 0)
	b.OriginalCurrency = "EUR"

	tol := r.Resolve(context.Background(), &a, &b, ModeAutomatic, DefaultAutoOptions())

	assert.True(t, tol.RateApplied)
	assert.InDelta(t, 99.4, tol.NormalizedTarget, 1e-9)
	assert.InDelta(t, 0.01, tol.MaxAmountFraction, 1e-9)
}

func TestResolve_ConverterFailureDegradesToWideBand(t *testing.T) {
	conv := stubConverter{err: errors.New("feed down")}
	r := NewToleranceResolver(conv, "USD", nil)
	a := makeTransfer("a", -100, "Checking", 0)
	b := makeTransfer("b", 95, "Savings", 0)
	b.OriginalCurrency = "EUR"

	tol := r.Resolve(context.Background(), &a, &b, ModeAutomatic, DefaultAutoOptions())

	assert.False(t, tol.RateApplied)
	assert.InDelta(t, 0.05, tol.MaxAmountFraction, 1e-9)
}

func TestResolve_ExplicitDefaultCurrencyIsSameCurrency(t *testing.T) {
	// One leg carrying the default currency explicitly and one leaving
	// it unset are the same currency: exact equality required, and the
	// converter is never consulted.
	conv := stubConverter{err: errors.New("must not be called")}
	r := NewToleranceResolver(conv, "USD", nil)
	a := makeTransfer("a", -1000, "Checking", 0)
	a.OriginalCurrency = "USD"
	b := makeTransfer("b", 970, "Savings", 0)

	tol := r.Resolve(context.Background(), &a, &b, ModeAutomatic, DefaultAutoOptions())

	assert.False(t, tol.CrossCurrency)
	assert.False(t, tol.RateApplied)
	assert.Zero(t, tol.MaxAmountFraction)
}

func TestResolve_CurrencyCodesNormalized(t *testing.T) {
	r := NewToleranceResolver(nil, "usd", nil)
	a := makeTransfer("a", -100, "Checking", 0)
	a.OriginalCurrency = " Usd "
	b := makeTransfer("b", 100, "Savings", 0)
	b.OriginalCurrency = "USD"

	tol := r.Resolve(context.Background(), &a, &b, ModeAutomatic, DefaultAutoOptions())

	assert.False(t, tol.CrossCurrency)
}

func TestResolve_BlankCurrencyUsesDefault(t *testing.T) {
	// A transaction with no recorded currency is assumed to be in the
	// configured home currency, so this pair is same-currency.
	r := NewToleranceResolver(nil, "EUR", nil)
	a := makeTransfer("a", -100, "Checking", 0)
	b := makeTransfer("b", 100, "Savings", 0)
	b.OriginalCurrency = "EUR"

	tol := r.Resolve(context.Background(), &a, &b, ModeAutomatic, DefaultAutoOptions())

	assert.False(t, tol.CrossCurrency)
}

func TestScoreCandidate_Preconditions(t *testing.T) {
	a := makeTransfer("a", -100, "Checking", 0)
	sameSign := makeTransfer("b", -100, "Savings", 0)
	sameAccount := makeTransfer("c", 100, "Checking", 0)
	tol := Tolerances{MaxDateDays: 7}

	assert.False(t, ScoreCandidate(&a, &sameSign, tol, ModeAutomatic).IsMatch)
	assert.False(t, ScoreCandidate(&a, &sameAccount, tol, ModeAutomatic).IsMatch)
}

func TestScoreCandidate_ExactIsFullConfidence(t *testing.T) {
	a := makeTransfer("a", -100, "Checking", 0)
	b := makeTransfer("b", 100, "Savings", 0)

	s := ScoreCandidate(&a, &b, Tolerances{MaxDateDays: 7}, ModeAutomatic)

	assert.True(t, s.IsMatch)
	assert.Equal(t, 1.0, s.Confidence)
	assert.Equal(t, ledger.MatchExact, s.MatchType)
}

func TestScoreCandidate_ConfidenceDegradesLinearly(t *testing.T) {
	a := makeTransfer("a", -100, "Checking", 0)
	tol := Tolerances{MaxDateDays: 8, MaxAmountFraction: 0.12}

	// Exact amount, half the date window gone: 0.5*0.5 + 0.5*1.
	halfway := makeTransfer("b", 100, "Savings", 4)
	s := ScoreCandidate(&a, &halfway, tol, ModeAutomatic)
	assert.InDelta(t, 0.75, s.Confidence, 1e-9)

	// Same day, half the amount band gone: 0.5*1 + 0.5*0.5.
	offAmount := makeTransfer("c", 94, "Savings", 0)
	s = ScoreCandidate(&a, &offAmount, tol, ModeAutomatic)
	assert.InDelta(t, 0.75, s.Confidence, 1e-9)
	assert.Equal(t, ledger.MatchApproximate, s.MatchType)
}

func TestScoreCandidate_BothBoundariesInclusive(t *testing.T) {
	a := makeTransfer("a", -100, "Checking", 0)
	b := makeTransfer("b", 88, "Savings", 8) // exactly 12% off, exactly 8 days
	tol := Tolerances{MaxDateDays: 8, MaxAmountFraction: 0.12}

	s := ScoreCandidate(&a, &b, tol, ModeAutomatic)

	assert.True(t, s.IsMatch)
	assert.InDelta(t, 0.0, s.Confidence, 1e-6)
}

func TestScoreCandidate_NormalizedAmountUsed(t *testing.T) {
	// When a rate normalized the counterpart, scoring compares against
	// the converted figure, not the raw foreign amount.
	a := makeTransfer("a", -100, "Checking", 0)
	b := makeTransfer("b", 92, "Savings", 0)
	tol := Tolerances{
		MaxDateDays:       7,
		MaxAmountFraction: 0.01,
		CrossCurrency:     true,
		RateApplied:       true,
		NormalizedTarget:  99.5,
	}

	s := ScoreCandidate(&a, &b, tol, ModeAutomatic)

	assert.True(t, s.IsMatch)
	assert.Equal(t, "amount within converted exchange rate tolerance", s.Reasoning)
}
