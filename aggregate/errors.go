/*
errors.go - Error types for the aggregation ledger

ERROR CATEGORIES:
  1. Store errors - the backing store failed a read or a write
  2. Record errors - a stored record no longer decodes
  3. Input errors - raised by host layers (factory, api) before the ledger runs

USAGE:
    if errors.Is(err, aggregate.ErrStoreWrite) {
        // submission did not take effect
    }
*/
package aggregate

import (
	"errors"
	"fmt"
)

// =============================================================================
// SENTINEL ERRORS - Use with errors.Is()
// =============================================================================

var (
	// ErrStoreRead is returned when the store cannot answer a Get.
	ErrStoreRead = errors.New("store read failed")

	// ErrStoreWrite is returned when the store rejects a Put. The submission
	// has no effect.
	ErrStoreWrite = errors.New("store write failed")

	// ErrCorruptRecord is returned when a stored record cannot be decoded
	// into the ledger's value type.
	ErrCorruptRecord = errors.New("corrupt record")

	// ErrUnknownPolicy is returned when a policy name is not recognized.
	ErrUnknownPolicy = errors.New("unknown policy")

	// ErrInvalidValue is returned when a submitted value cannot be decoded
	// into the deployed value type.
	ErrInvalidValue = errors.New("invalid value")

	// ErrMissingIdentity is returned when a submission arrives without an
	// account identity.
	ErrMissingIdentity = errors.New("missing account identity")
)

// =============================================================================
// STRUCTURED ERRORS
// =============================================================================

// StoreError wraps a backend failure with the operation and account.
type StoreError struct {
	Op      string // "get" or "put"
	Account AccountID
	Err     error
}

func (e *StoreError) Error() string {
	return fmt.Sprintf("%s %q: %v", e.Op, e.Account, e.Err)
}

// Unwrap exposes both the sentinel for the operation and the backend error.
func (e *StoreError) Unwrap() []error {
	if e.Op == "put" {
		return []error{ErrStoreWrite, e.Err}
	}
	return []error{ErrStoreRead, e.Err}
}

// =============================================================================
// ERROR HELPERS
// =============================================================================

// IsClientError returns true if the error is due to bad caller input.
func IsClientError(err error) bool {
	return errors.Is(err, ErrInvalidValue) ||
		errors.Is(err, ErrMissingIdentity)
}

// IsStoreFailure returns true if the backing store failed or holds a record
// the ledger cannot read.
func IsStoreFailure(err error) bool {
	return errors.Is(err, ErrStoreRead) ||
		errors.Is(err, ErrStoreWrite) ||
		errors.Is(err, ErrCorruptRecord)
}
