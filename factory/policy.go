/*
Package factory turns a policy definition into a running ledger variant.

PURPOSE:
  The core ledger is generic over its value type (string, int32, float64).
  Host layers (HTTP, CLI) are not: they receive JSON or command-line text
  and need one surface regardless of the deployed policy. The factory picks
  the policy, value codec and input decoding once, and hides the type
  parameter behind the Variant interface.

DEFINITION:
  {
    "policy": "cumulative_sum",   // last_write | pairwise_average | cumulative_sum
    "guard": "non_zero",          // optional; numeric policies only
    "default_text": "Hello"       // optional; last_write only
  }

VALUE DECODING:
  last_write        JSON string
  pairwise_average  JSON integer within int32 range
  cumulative_sum    any JSON number
  null or a mismatched JSON type is ErrInvalidValue. Magnitude is never
  checked.

USAGE:
  variant, err := factory.New(store, factory.PolicyJSON{Policy: "pairwise_average"}, log)
  err = variant.Submit(ctx, "bob.near", json.RawMessage(`20`))
  v, err := variant.Query(ctx, "bob.near") // int32(20)
*/
package factory

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"strconv"

	"github.com/warp/pnl-ledger/aggregate"
	"github.com/warp/pnl-ledger/config"
	"github.com/warp/pnl-ledger/logger"
)

// =============================================================================
// DEFINITION
// =============================================================================

// PolicyJSON is the JSON representation of a deployed policy.
type PolicyJSON struct {
	Policy      string `json:"policy"`
	Guard       string `json:"guard,omitempty"`
	DefaultText string `json:"default_text,omitempty"`
}

// ParsePolicy decodes a policy definition.
func ParsePolicy(jsonStr string) (PolicyJSON, error) {
	var pj PolicyJSON
	if err := json.Unmarshal([]byte(jsonStr), &pj); err != nil {
		return PolicyJSON{}, fmt.Errorf("invalid policy JSON: %w", err)
	}
	return pj, nil
}

// FromConfig builds a definition from the ledger section of the service
// configuration. default_text only applies to last_write.
func FromConfig(c config.LedgerConfig) PolicyJSON {
	pj := PolicyJSON{Policy: c.Policy, Guard: c.Guard}
	if c.Policy == aggregate.PolicyLastWrite {
		pj.DefaultText = c.DefaultText
	}
	return pj
}

// =============================================================================
// VARIANT - type-erased ledger
// =============================================================================

// Variant is a ledger whose value type is only known at run time.
type Variant interface {
	// Name is the policy name, e.g. "pairwise_average".
	Name() string
	// ValueType is "string", "int32" or "float64".
	ValueType() string
	// Guard is the accumulate guard, empty for last_write.
	Guard() string
	// Default is what Query returns for an account with no record.
	Default() any

	// Submit decodes a JSON value and submits it for account.
	Submit(ctx context.Context, account aggregate.AccountID, raw json.RawMessage) error
	// SubmitString parses a plain-text value and submits it for account.
	SubmitString(ctx context.Context, account aggregate.AccountID, s string) error
	// Query returns account's aggregate or the default.
	Query(ctx context.Context, account aggregate.AccountID) (any, error)

	// Describe returns the definition this variant was built from, with
	// defaults filled in.
	Describe() PolicyJSON
}

type variant[T aggregate.Value] struct {
	ledger    *aggregate.Ledger[T]
	valueType string
	guard     aggregate.Guard
	fromJSON  func(json.RawMessage) (T, error)
	fromText  func(string) (T, error)
}

func (v *variant[T]) Name() string      { return v.ledger.Policy().Name() }
func (v *variant[T]) ValueType() string { return v.valueType }
func (v *variant[T]) Guard() string     { return string(v.guard) }
func (v *variant[T]) Default() any      { return v.ledger.Policy().Default() }

func (v *variant[T]) Submit(ctx context.Context, account aggregate.AccountID, raw json.RawMessage) error {
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null")) {
		return fmt.Errorf("%w: value is required", aggregate.ErrInvalidValue)
	}
	value, err := v.fromJSON(trimmed)
	if err != nil {
		return fmt.Errorf("%w: expected %s: %v", aggregate.ErrInvalidValue, v.valueType, err)
	}
	return v.ledger.Submit(ctx, account, value)
}

func (v *variant[T]) SubmitString(ctx context.Context, account aggregate.AccountID, s string) error {
	value, err := v.fromText(s)
	if err != nil {
		return fmt.Errorf("%w: expected %s: %v", aggregate.ErrInvalidValue, v.valueType, err)
	}
	return v.ledger.Submit(ctx, account, value)
}

func (v *variant[T]) Query(ctx context.Context, account aggregate.AccountID) (any, error) {
	return v.ledger.Query(ctx, account)
}

func (v *variant[T]) Describe() PolicyJSON {
	pj := PolicyJSON{Policy: v.Name(), Guard: v.Guard()}
	if s, ok := v.Default().(string); ok {
		pj.DefaultText = s
	}
	return pj
}

// =============================================================================
// CONSTRUCTION
// =============================================================================

// New builds the variant described by pj over store. log may be nil.
func New(store aggregate.Store, pj PolicyJSON, log *logger.Logger) (Variant, error) {
	var opts []aggregate.Option
	if log != nil {
		opts = append(opts, aggregate.WithLogger(log))
	}

	switch pj.Policy {
	case aggregate.PolicyLastWrite:
		if pj.Guard != "" {
			return nil, fmt.Errorf("policy %s takes no guard", pj.Policy)
		}
		policy := aggregate.NewLastWrite()
		if pj.DefaultText != "" {
			policy.DefaultText = pj.DefaultText
		}
		return &variant[string]{
			ledger:    aggregate.NewLedger[string](store, policy, aggregate.TextCodec{}, opts...),
			valueType: "string",
			fromJSON:  decodeJSON[string],
			fromText:  func(s string) (string, error) { return s, nil },
		}, nil

	case aggregate.PolicyPairwiseAverage:
		policy := aggregate.NewPairwiseAverage()
		if err := applyGuard(&policy.Guard, pj.Guard); err != nil {
			return nil, err
		}
		return &variant[int32]{
			ledger:    aggregate.NewLedger[int32](store, policy, aggregate.Int32Codec{}, opts...),
			valueType: "int32",
			guard:     policy.Guard,
			fromJSON:  decodeInt32,
			fromText:  parseInt32,
		}, nil

	case aggregate.PolicyCumulativeSum:
		policy := aggregate.NewCumulativeSum()
		if err := applyGuard(&policy.Guard, pj.Guard); err != nil {
			return nil, err
		}
		return &variant[float64]{
			ledger:    aggregate.NewLedger[float64](store, policy, aggregate.Float64Codec{}, opts...),
			valueType: "float64",
			guard:     policy.Guard,
			fromJSON:  decodeJSON[float64],
			fromText:  func(s string) (float64, error) { return strconv.ParseFloat(s, 64) },
		}, nil
	}

	return nil, fmt.Errorf("%w: %q", aggregate.ErrUnknownPolicy, pj.Policy)
}

func applyGuard(dst *aggregate.Guard, s string) error {
	if s == "" {
		return nil
	}
	g, err := aggregate.ParseGuard(s)
	if err != nil {
		return err
	}
	*dst = g
	return nil
}

func decodeJSON[T any](raw json.RawMessage) (T, error) {
	var v T
	err := json.Unmarshal(raw, &v)
	return v, err
}

func decodeInt32(raw json.RawMessage) (int32, error) {
	// json.Number also accepts quoted digits.
	if len(raw) > 0 && raw[0] == '"' {
		return 0, fmt.Errorf("got a JSON string")
	}
	var n json.Number
	if err := json.Unmarshal(raw, &n); err != nil {
		return 0, err
	}
	return parseInt32(n.String())
}

func parseInt32(s string) (int32, error) {
	n, err := strconv.ParseInt(s, 10, 32)
	if err != nil {
		return 0, err
	}
	return int32(n), nil
}
