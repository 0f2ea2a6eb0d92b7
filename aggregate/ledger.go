/*
ledger.go - Submit / Query facade over a Store and a Policy

PURPOSE:
  The Ledger is the only externally callable surface of the core:

    Submit: store.Get -> policy.Combine -> store.Put
    Query:  store.Get -> policy.Read (or policy.Default when absent)

IDENTITY:
  Submit takes the acting account as a parameter. The ledger trusts it
  verbatim; resolving and vouching for it is the host's job.

CONCURRENCY:
  The ledger holds no locks. Two Submits for the same account must not run
  concurrently; the host serializes calls (see api.Handler).

FAILURE:
  A failed Put aborts Submit with ErrStoreWrite and the record is unchanged.
  Query fails only when the store itself fails or holds an unreadable record.
*/
package aggregate

import (
	"context"
	"fmt"
)

// =============================================================================
// LEDGER
// =============================================================================

// Ledger keeps one aggregate of type T per account.
type Ledger[T Value] struct {
	store  Store
	policy Policy[T]
	codec  Codec[T]
	log    Logger
}

// Option configures a Ledger.
type Option func(*options)

type options struct {
	log Logger
}

// WithLogger sets the logger handed to policies that log submissions.
func WithLogger(log Logger) Option {
	return func(o *options) { o.log = log }
}

// NewLedger builds a ledger. The policy is fixed for the ledger's lifetime.
func NewLedger[T Value](store Store, policy Policy[T], codec Codec[T], opts ...Option) *Ledger[T] {
	o := options{log: nopLogger{}}
	for _, opt := range opts {
		opt(&o)
	}
	return &Ledger[T]{store: store, policy: policy, codec: codec, log: o.log}
}

// Policy returns the deployed policy.
func (l *Ledger[T]) Policy() Policy[T] { return l.policy }

// Submit combines value into account's aggregate and persists the result.
func (l *Ledger[T]) Submit(ctx context.Context, account AccountID, value T) error {
	existing, present, err := l.load(ctx, account)
	if err != nil {
		return err
	}

	if sl, ok := l.policy.(SubmissionLogger[T]); ok {
		sl.LogSubmission(l.log, account, value)
	}

	next := l.policy.Combine(existing, present, value)
	if err := l.store.Put(ctx, account, l.codec.Encode(next)); err != nil {
		return &StoreError{Op: "put", Account: account, Err: err}
	}
	return nil
}

// Query returns account's aggregate as shown to readers, or the policy
// default when the account has no record. It never writes.
func (l *Ledger[T]) Query(ctx context.Context, account AccountID) (T, error) {
	stored, present, err := l.load(ctx, account)
	if err != nil {
		var zero T
		return zero, err
	}
	if !present {
		return l.policy.Default(), nil
	}
	return l.policy.Read(stored), nil
}

func (l *Ledger[T]) load(ctx context.Context, account AccountID) (T, bool, error) {
	var zero T
	rec, ok, err := l.store.Get(ctx, account)
	if err != nil {
		return zero, false, &StoreError{Op: "get", Account: account, Err: err}
	}
	if !ok {
		return zero, false, nil
	}
	v, err := l.codec.Decode(rec)
	if err != nil {
		return zero, false, fmt.Errorf("account %q: %w", account, err)
	}
	return v, true, nil
}

type nopLogger struct{}

func (nopLogger) Info(string, ...interface{}) {}
