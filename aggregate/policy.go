/*
policy.go - Aggregation policy interface and accumulate guards

PURPOSE:
  A Policy decides how a new submission combines with an account's existing
  aggregate, what a query shows for that aggregate, and what a query shows
  when the account has never submitted. It is chosen once, when the ledger
  is built, and never per call.

PURITY:
  Combine, Read and Default have no side effects. The one observable side
  effect in the system (LastWrite logging each submission) is exposed through
  the optional SubmissionLogger interface and invoked by the ledger.

GUARDS:
  The numeric policies only accumulate when the existing record passes a
  Guard. Otherwise the submission replaces the record as if none existed.

    GuardPositive  existing > 0     PairwiseAverage default
    GuardNonZero   existing != 0    CumulativeSum default
    GuardPresent   always           symmetric "every submission counts"

  The defaults reproduce deployed behavior: a stored zero (or, for the
  average, a negative) restarts aggregation from the next submission.

SEE ALSO:
  - policies.go: LastWrite, PairwiseAverage, CumulativeSum
*/
package aggregate

import "fmt"

// =============================================================================
// POLICY
// =============================================================================

// Policy combines submissions into one aggregate per account.
type Policy[T Value] interface {
	// Name identifies the policy, e.g. "cumulative_sum".
	Name() string

	// Combine returns the new aggregate. present is false when the account
	// has no record, in which case existing is the zero value.
	Combine(existing T, present bool, incoming T) T

	// Read transforms a stored aggregate into the value returned by a query.
	Read(stored T) T

	// Default is returned by a query for an account with no record.
	Default() T
}

// Logger is the subset of a structured logger the ledger needs.
type Logger interface {
	Info(msg string, keysAndValues ...interface{})
}

// SubmissionLogger is implemented by policies that log every submission.
type SubmissionLogger[T Value] interface {
	LogSubmission(log Logger, account AccountID, incoming T)
}

// =============================================================================
// GUARD - When does an existing record take part in aggregation?
// =============================================================================

type Guard string

const (
	GuardPresent  Guard = "present"
	GuardPositive Guard = "positive"
	GuardNonZero  Guard = "non_zero"
)

// ParseGuard maps a configuration string to a Guard.
func ParseGuard(s string) (Guard, error) {
	switch g := Guard(s); g {
	case GuardPresent, GuardPositive, GuardNonZero:
		return g, nil
	}
	return "", fmt.Errorf("unknown guard %q", s)
}

// Accumulates reports whether an existing record with value v should be
// combined with the next submission rather than replaced by it.
func (g Guard) Accumulates(v float64) bool {
	switch g {
	case GuardPositive:
		return v > 0
	case GuardNonZero:
		return v != 0
	default:
		return true
	}
}
