package chain

import (
	"encoding/json"
	"fmt"
	"time"
)

// Block is a decoded committed block as delivered by the peer's block
// stream: a header plus the ordered list of signed transactions it commits.
type Block struct {
	Height             uint64        `json:"height"`
	Hash               string        `json:"hash"`
	PrevBlockHash      *string       `json:"prev_block_hash,omitempty"`
	TransactionsHash   *string       `json:"transactions_hash,omitempty"`
	CreatedAt          time.Time     `json:"created_at"`
	Transactions       []Transaction `json:"transactions"`
}

// Executable discriminates a transaction's payload kind.
type Executable string

const (
	ExecutableInstructions Executable = "Instructions"
	ExecutableWASM         Executable = "WASM"
)

// Transaction is a single signed transaction as committed (or rejected) in a
// block. Presence of Error is the sole discriminator between committed and
// rejected, per the data model.
type Transaction struct {
	Hash             string          `json:"hash"`
	AuthoritySig     string          `json:"authority_signatory"`
	AuthorityDomain  string          `json:"authority_domain"`
	Signature        string          `json:"signature"`
	Nonce            *uint32         `json:"nonce,omitempty"`
	Metadata         json.RawMessage `json:"metadata,omitempty"`
	TimeToLiveMs     *uint64         `json:"time_to_live_ms,omitempty"`
	CreatedAt        time.Time       `json:"created_at"`
	Executable       Executable      `json:"executable"`
	Instructions     []Instruction   `json:"instructions,omitempty"`
	WASM             []byte          `json:"wasm,omitempty"`
	Error            json.RawMessage `json:"error,omitempty"`
}

// Committed reports whether the transaction mutated world state.
func (t *Transaction) Committed() bool { return len(t.Error) == 0 }

// Instruction is one element of a transaction's sequential payload. On the
// wire (and in the SQL TEXT column the reducer writes) it is a JSON object
// with a single top-level key naming its kind, e.g. {"Register": {...}}.
type Instruction struct {
	Kind    string
	Payload json.RawMessage
}

// MarshalJSON renders the instruction back to its single-key object form.
func (i Instruction) MarshalJSON() ([]byte, error) {
	obj := map[string]json.RawMessage{i.Kind: i.Payload}
	return json.Marshal(obj)
}

// UnmarshalJSON expects a single-key JSON object naming the instruction kind.
func (i *Instruction) UnmarshalJSON(data []byte) error {
	var obj map[string]json.RawMessage
	if err := json.Unmarshal(data, &obj); err != nil {
		return fmt.Errorf("%w: instruction must be a JSON object: %v", ErrDecode, err)
	}
	if len(obj) != 1 {
		return fmt.Errorf("%w: instruction object must have exactly one key, got %d", ErrDecode, len(obj))
	}
	for k, v := range obj {
		i.Kind = k
		i.Payload = v
	}
	return nil
}

// Status is a single peer's liveness document.
type Status struct {
	PeerCount     uint64 `json:"peers"`
	BlockHeight   uint64 `json:"blocks"`
	TxsAccepted   uint64 `json:"txs_accepted"`
	TxsRejected   uint64 `json:"txs_rejected"`
	ViewChanges   uint64 `json:"view_changes"`
	UptimeSeconds uint64 `json:"uptime_secs"`
	UptimeNanos   uint32 `json:"uptime_nanos"`
	QueueDepth    uint64 `json:"queue_size"`
}

// QueryResult is the SDK-native page shape returned by query().
type QueryResult struct {
	Items   []json.RawMessage `json:"items"`
	Total   uint64            `json:"total"`
	Cursor  *string           `json:"cursor,omitempty"`
}
