package httpapi

import (
	"encoding/json"
	"strconv"
	"time"
)

// BigInt renders a uint64 as a JSON string, per spec.md §4.6: numeric
// fields that may exceed 2^53 (uptime, counters, block heights) are
// serialized as strings to preserve precision across JS clients.
type BigInt uint64

func (b BigInt) MarshalJSON() ([]byte, error) {
	return json.Marshal(strconv.FormatUint(uint64(b), 10))
}

// OptionalBigInt renders a *uint64 as a JSON string, or null when nil.
type OptionalBigInt struct {
	Value *uint64
}

func optBigInt(v *uint64) *OptionalBigInt {
	if v == nil {
		return nil
	}
	return &OptionalBigInt{Value: v}
}

func (o OptionalBigInt) MarshalJSON() ([]byte, error) {
	if o.Value == nil {
		return []byte("null"), nil
	}
	return json.Marshal(strconv.FormatUint(*o.Value, 10))
}

// Timestamp renders a time.Time as ISO-8601 UTC with millisecond precision.
type Timestamp time.Time

const timestampLayout = "2006-01-02T15:04:05.000Z"

func (t Timestamp) MarshalJSON() ([]byte, error) {
	return json.Marshal(time.Time(t).UTC().Format(timestampLayout))
}

func newTimestamp(t time.Time) Timestamp { return Timestamp(t) }

// NumericValue renders a decimal-string balance as the tagged union the
// wire format uses for chain Value sum types: {"t":"Numeric","c":"<value>"}.
type NumericValue struct {
	T string `json:"t"`
	C string `json:"c"`
}

func numeric(value string) NumericValue { return NumericValue{T: "Numeric", C: value} }

// Tagged renders an arbitrary instruction/payload sum type as {"t","c"}.
type Tagged struct {
	T string          `json:"t"`
	C json.RawMessage `json:"c"`
}

func rawOrNull(b []byte) json.RawMessage {
	if len(b) == 0 {
		return json.RawMessage("null")
	}
	return json.RawMessage(b)
}
