package transfer

import (
	"context"
	"log/slog"
	"strings"

	"github.com/kalder/finlink/internal/adapters/rates"
	"github.com/kalder/finlink/internal/domain/ledger"
)

// Mode selects between strict automatic matching and relaxed manual
// suggestion scanning.
type Mode int

const (
	ModeAutomatic Mode = iota
	ModeManual
)

// Tolerance bands. Same-currency transfers must move the literal amount,
// so automatic mode requires equality; cross-currency legs legitimately
// drift with the exchange rate and get a wide band.
const (
	crossCurrencyAutoBand   = 0.05
	crossCurrencyManualBand = 0.12
	// convertedAutoBand applies when a live or cached rate normalized the
	// counterpart amount: the residual drift is rate movement between the
	// two booking dates, not the full unknown spread.
	convertedAutoBand = 0.01
)

// Tolerances is the allowed deviation for one candidate pair.
type Tolerances struct {
	MaxDateDays       int
	MaxAmountFraction float64
	CrossCurrency     bool

	// RateApplied is true when NormalizedTarget carries the counterpart
	// amount converted into the anchor leg's currency.
	RateApplied      bool
	NormalizedTarget float64
}

// ToleranceResolver decides the allowed amount/date deviation for a
// candidate pair based on whether the legs share a currency. For
// cross-currency pairs it consults the injected converter when one is
// configured; lookup failure degrades to the wide band and never fails
// the matching pass.
type ToleranceResolver struct {
	converter       rates.Converter
	defaultCurrency string
	logger          *slog.Logger
}

// NewToleranceResolver creates a resolver. converter may be nil, in
// which case cross-currency pairs always use the raw wide band.
func NewToleranceResolver(converter rates.Converter, defaultCurrency string, logger *slog.Logger) *ToleranceResolver {
	defaultCurrency = strings.ToUpper(strings.TrimSpace(defaultCurrency))
	if defaultCurrency == "" {
		defaultCurrency = "USD"
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &ToleranceResolver{
		converter:       converter,
		defaultCurrency: defaultCurrency,
		logger:          logger,
	}
}

// Resolve returns the tolerance band for one candidate pair.
func (r *ToleranceResolver) Resolve(ctx context.Context, a, b *ledger.Transaction, mode Mode, opts Options) Tolerances {
	tol := Tolerances{MaxDateDays: opts.MaxDaysDifference}

	if r.currencyOf(a) == r.currencyOf(b) {
		if mode == ModeAutomatic {
			tol.MaxAmountFraction = 0 // exact equality only
		} else {
			tol.MaxAmountFraction = opts.TolerancePercentage
		}
		return tol
	}

	tol.CrossCurrency = true
	if mode == ModeAutomatic {
		tol.MaxAmountFraction = max(crossCurrencyAutoBand, opts.TolerancePercentage)
	} else {
		tol.MaxAmountFraction = max(crossCurrencyManualBand, opts.TolerancePercentage)
	}

	if r.converter == nil {
		return tol
	}

	from := r.currencyOf(b)
	to := r.currencyOf(a)
	conv, err := r.converter.Convert(ctx, b.AbsAmount(), from, to)
	if err != nil {
		// One pair's lookup failure must not abort the batch; the wide
		// band stands in for the unknown rate.
		r.logger.Debug("rate lookup failed, using wide tolerance band",
			"from", from, "to", to, "error", err)
		return tol
	}

	tol.RateApplied = true
	tol.NormalizedTarget = conv.ConvertedAmount
	if mode == ModeAutomatic {
		tol.MaxAmountFraction = convertedAutoBand
	}
	return tol
}

// currencyOf normalizes a transaction's currency code. A blank code
// means the household default, so a leg carrying the default currency
// explicitly and one leaving it unset compare as the same currency.
func (r *ToleranceResolver) currencyOf(t *ledger.Transaction) string {
	code := strings.ToUpper(strings.TrimSpace(t.OriginalCurrency))
	if code == "" {
		return r.defaultCurrency
	}
	return code
}
