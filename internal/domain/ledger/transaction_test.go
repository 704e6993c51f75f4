package ledger

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestDaysBetween(t *testing.T) {
	morning := time.Date(2025, 6, 1, 8, 0, 0, 0, time.UTC)
	sameEvening := time.Date(2025, 6, 1, 23, 0, 0, 0, time.UTC)
	nextMidnight := time.Date(2025, 6, 2, 0, 0, 0, 0, time.UTC)

	// Time-of-day is ignored; only the calendar day counts.
	assert.Equal(t, 0, DaysBetween(morning, sameEvening))
	assert.Equal(t, 1, DaysBetween(sameEvening, nextMidnight))
	// Order does not matter.
	assert.Equal(t, 1, DaysBetween(nextMidnight, sameEvening))

	monthEnd := time.Date(2025, 6, 30, 12, 0, 0, 0, time.UTC)
	monthStart := time.Date(2025, 7, 1, 1, 0, 0, 0, time.UTC)
	assert.Equal(t, 1, DaysBetween(monthEnd, monthStart))
}

func TestOppositeSigns(t *testing.T) {
	out := &Transaction{Amount: -10}
	in := &Transaction{Amount: 10}
	zero := &Transaction{}

	assert.True(t, OppositeSigns(out, in))
	assert.False(t, OppositeSigns(out, out))
	assert.False(t, OppositeSigns(out, zero))
	assert.False(t, OppositeSigns(zero, zero))
}

func TestClone_IsDeep(t *testing.T) {
	orig := Transaction{
		ID:    "a",
		Match: &MatchInfo{CounterpartID: "b", Confidence: 1.0},
	}

	clone := orig.Clone()
	clone.Match.CounterpartID = "changed"

	assert.Equal(t, "b", orig.Match.CounterpartID)
}
