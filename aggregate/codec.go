package aggregate

import (
	"fmt"
	"strconv"
)

// Codec converts between a ledger value and its stored Record.
type Codec[T Value] interface {
	Encode(v T) Record
	Decode(rec Record) (T, error)
}

// TextCodec stores strings verbatim.
type TextCodec struct{}

func (TextCodec) Encode(v string) Record { return Record(v) }
func (TextCodec) Decode(rec Record) (string, error) { return string(rec), nil }

// Int32Codec stores base-10 integers.
type Int32Codec struct{}

func (Int32Codec) Encode(v int32) Record { return Record(strconv.FormatInt(int64(v), 10)) }

func (Int32Codec) Decode(rec Record) (int32, error) {
	n, err := strconv.ParseInt(string(rec), 10, 32)
	if err != nil {
		return 0, fmt.Errorf("%w: %q is not an int32: %v", ErrCorruptRecord, rec, err)
	}
	return int32(n), nil
}

// Float64Codec stores the shortest representation that round-trips, so the
// stored value keeps full precision.
type Float64Codec struct{}

func (Float64Codec) Encode(v float64) Record {
	return Record(strconv.FormatFloat(v, 'g', -1, 64))
}

func (Float64Codec) Decode(rec Record) (float64, error) {
	f, err := strconv.ParseFloat(string(rec), 64)
	if err != nil {
		return 0, fmt.Errorf("%w: %q is not a float64: %v", ErrCorruptRecord, rec, err)
	}
	return f, nil
}
