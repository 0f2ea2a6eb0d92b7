package aggregate

import (
	"math"

	"github.com/shopspring/decimal"
)

// Policy names, as used in configuration.
const (
	PolicyLastWrite       = "last_write"
	PolicyPairwiseAverage = "pairwise_average"
	PolicyCumulativeSum   = "cumulative_sum"
)

// DefaultGreeting is what LastWrite returns for an account with no record.
const DefaultGreeting = "Hello"

// =============================================================================
// LAST WRITE - newest submission replaces the record
// =============================================================================

type LastWrite struct {
	DefaultText string
}

func NewLastWrite() *LastWrite {
	return &LastWrite{DefaultText: DefaultGreeting}
}

func (p *LastWrite) Name() string { return PolicyLastWrite }

func (p *LastWrite) Combine(_ string, _ bool, incoming string) string { return incoming }

func (p *LastWrite) Read(stored string) string { return stored }

func (p *LastWrite) Default() string { return p.DefaultText }

// LogSubmission records who submitted what.
func (p *LastWrite) LogSubmission(log Logger, account AccountID, incoming string) {
	log.Info("saving submission", "account", account, "value", incoming)
}

// =============================================================================
// PAIRWISE AVERAGE - average of the stored record and the submission
// =============================================================================

// PairwiseAverage averages the stored value with each submission using
// integer division truncated toward zero: (20+11)/2 == 15.
//
// The sum is taken in int64, so the result always fits in an int32.
type PairwiseAverage struct {
	Guard Guard
}

func NewPairwiseAverage() *PairwiseAverage {
	return &PairwiseAverage{Guard: GuardPositive}
}

func (p *PairwiseAverage) Name() string { return PolicyPairwiseAverage }

func (p *PairwiseAverage) Combine(existing int32, present bool, incoming int32) int32 {
	if !present || !p.Guard.Accumulates(float64(existing)) {
		return incoming
	}
	return int32((int64(existing) + int64(incoming)) / 2)
}

func (p *PairwiseAverage) Read(stored int32) int32 { return stored }

func (p *PairwiseAverage) Default() int32 { return 0 }

// =============================================================================
// CUMULATIVE SUM - running total, rounded on read
// =============================================================================

// CumulativeSum adds each submission to the stored total. The stored value
// keeps full precision; Read rounds to Places decimal places, half away from
// zero. Infinities and NaN propagate and are returned unrounded.
type CumulativeSum struct {
	Guard  Guard
	Places int32
}

func NewCumulativeSum() *CumulativeSum {
	return &CumulativeSum{Guard: GuardNonZero, Places: 2}
}

func (p *CumulativeSum) Name() string { return PolicyCumulativeSum }

func (p *CumulativeSum) Combine(existing float64, present bool, incoming float64) float64 {
	if !present || !p.Guard.Accumulates(existing) {
		return incoming
	}
	return existing + incoming
}

func (p *CumulativeSum) Read(stored float64) float64 {
	if math.IsNaN(stored) || math.IsInf(stored, 0) {
		return stored
	}
	return decimal.NewFromFloat(stored).Round(p.Places).InexactFloat64()
}

func (p *CumulativeSum) Default() float64 { return 0 }

// Compile-time checks
var (
	_ Policy[string]           = (*LastWrite)(nil)
	_ SubmissionLogger[string] = (*LastWrite)(nil)
	_ Policy[int32]            = (*PairwiseAverage)(nil)
	_ Policy[float64]          = (*CumulativeSum)(nil)
)
