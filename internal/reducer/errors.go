package reducer

import (
	"errors"
	"fmt"
)

// ErrMalformed marks an instruction payload that does not match the shape
// its kind requires. It is a ReducerError cause, never surfaced on its own.
var ErrMalformed = errors.New("reducer: malformed instruction payload")

// ReducerError is returned for a block that cannot be reduced: an
// instruction payload that does not decode (ErrMalformed), a failed
// world-state read while applying an instruction, or an ambiguous
// Transfer(AssetDefinition) (§9 design note). Balances are arbitrary-precision
// decimals and a Burn or Transfer that would go negative clamps to zero, so
// no arithmetic case produces one. It is fatal for the offending
// block; the ingest supervisor resets and re-bootstraps on receiving one.
type ReducerError struct {
	TransactionHash string
	Instruction     string
	Err             error
}

func (e *ReducerError) Error() string {
	return fmt.Sprintf("reducer: tx %s: instruction %s: %v", e.TransactionHash, e.Instruction, e.Err)
}

func (e *ReducerError) Unwrap() error { return e.Err }
