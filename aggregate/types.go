/*
Package aggregate provides the per-account aggregation ledger.

PURPOSE:
  Callers submit a value tied to their identity. The ledger combines it with
  the account's existing record using the deployed Policy and stores the
  result. Queries return the account's current aggregate, or the policy's
  default when the account never submitted.

KEY CONCEPTS IN THIS FILE (types.go):
  - AccountID: Opaque identifier supplied by the host environment
  - Record:    The encoded form of an aggregate, as held by a Store
  - Value:     The set of Go types an aggregate can take

VARIANTS:
  LastWrite        string   newest submission wins
  PairwiseAverage  int32    average of stored value and submission
  CumulativeSum    float64  running sum, rounded to cents on read

USAGE:
  ledger := aggregate.NewLedger[float64](store.NewMemory("a"), aggregate.NewCumulativeSum(), aggregate.Float64Codec{})
  err := ledger.Submit(ctx, "bob.near", 20)
  v, err := ledger.Query(ctx, "bob.near") // 20

SEE ALSO:
  - policy.go: Combination policies
  - ledger.go: Submit / Query facade
  - store.go: Persistence interface
*/
package aggregate

// AccountID identifies an account. No format validation is performed.
type AccountID string

// DefaultCollection is the namespace every record is stored under unless a
// deployment overrides it.
const DefaultCollection = "a"

// Record is an aggregate as persisted by a Store.
// The Store never interprets it; a Codec turns it into a Value.
type Record string

// Value is the set of aggregate types a Ledger can be built over.
type Value interface {
	~string | ~int32 | ~float64
}
