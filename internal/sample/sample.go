// Package sample is the explorer's fixture data source (C7): it loads a
// YAML-described block stream and replays it through the same ingest path a
// live chain connection would use, so `serve-sample` and integration tests
// exercise production reducer/store code against a small, deterministic
// "wonderland" world instead of a running peer.
package sample

import (
	"context"
	"embed"
	"encoding/json"
	"fmt"
	"io"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/soramitsu/iroha-explorer/internal/chain"
	"github.com/soramitsu/iroha-explorer/internal/ingest"
	"github.com/soramitsu/iroha-explorer/internal/logging"
	"github.com/soramitsu/iroha-explorer/internal/metrics"
	"github.com/soramitsu/iroha-explorer/internal/reducer"
	"github.com/soramitsu/iroha-explorer/internal/store"
)

//go:embed fixtures/wonderland.yaml
var fixturesFS embed.FS

// document is the top-level YAML shape a fixture file carries.
type document struct {
	Blocks []fixtureBlock `yaml:"blocks"`
}

type fixtureBlock struct {
	Height           uint64               `yaml:"height"`
	Hash             string               `yaml:"hash"`
	PrevBlockHash    *string              `yaml:"prev_block_hash"`
	TransactionsHash *string              `yaml:"transactions_hash"`
	CreatedAt        time.Time            `yaml:"created_at"`
	Transactions     []fixtureTransaction `yaml:"transactions"`
}

type fixtureTransaction struct {
	Hash            string                 `yaml:"hash"`
	AuthoritySig    string                 `yaml:"authority_signatory"`
	AuthorityDomain string                 `yaml:"authority_domain"`
	Signature       string                 `yaml:"signature"`
	Nonce           *uint32                `yaml:"nonce"`
	Metadata        map[string]interface{} `yaml:"metadata"`
	TimeToLiveMs    *uint64                `yaml:"time_to_live_ms"`
	CreatedAt       time.Time              `yaml:"created_at"`
	Executable      string                 `yaml:"executable"`
	Error           map[string]interface{} `yaml:"error"`
	Instructions    []fixtureInstruction   `yaml:"instructions"`
}

type fixtureInstruction struct {
	Kind    string                 `yaml:"kind"`
	Payload map[string]interface{} `yaml:"payload"`
}

// Load parses a fixture document from r into the chain.Block stream the
// reducer consumes, in block order.
func Load(r io.Reader) ([]*chain.Block, error) {
	var doc document
	dec := yaml.NewDecoder(r)
	if err := dec.Decode(&doc); err != nil {
		return nil, fmt.Errorf("sample: decode fixture: %w", err)
	}

	blocks := make([]*chain.Block, 0, len(doc.Blocks))
	for _, fb := range doc.Blocks {
		block := &chain.Block{
			Height:           fb.Height,
			Hash:             fb.Hash,
			PrevBlockHash:    fb.PrevBlockHash,
			TransactionsHash: fb.TransactionsHash,
			CreatedAt:        fb.CreatedAt,
		}
		for _, ft := range fb.Transactions {
			tx, err := convertTransaction(ft)
			if err != nil {
				return nil, fmt.Errorf("sample: block %d tx %q: %w", fb.Height, ft.Hash, err)
			}
			block.Transactions = append(block.Transactions, tx)
		}
		blocks = append(blocks, block)
	}
	return blocks, nil
}

func convertTransaction(ft fixtureTransaction) (chain.Transaction, error) {
	tx := chain.Transaction{
		Hash:            ft.Hash,
		AuthoritySig:    ft.AuthoritySig,
		AuthorityDomain: ft.AuthorityDomain,
		Signature:       ft.Signature,
		Nonce:           ft.Nonce,
		TimeToLiveMs:    ft.TimeToLiveMs,
		CreatedAt:       ft.CreatedAt,
		Executable:      chain.Executable(ft.Executable),
	}

	metadata, err := toRawJSON(ft.Metadata)
	if err != nil {
		return tx, fmt.Errorf("metadata: %w", err)
	}
	tx.Metadata = metadata

	errPayload, err := toRawJSON(ft.Error)
	if err != nil {
		return tx, fmt.Errorf("error: %w", err)
	}
	tx.Error = errPayload

	for _, fi := range ft.Instructions {
		payload, err := toRawJSON(fi.Payload)
		if err != nil {
			return tx, fmt.Errorf("instruction %q: %w", fi.Kind, err)
		}
		tx.Instructions = append(tx.Instructions, chain.Instruction{Kind: fi.Kind, Payload: payload})
	}
	return tx, nil
}

// toRawJSON re-encodes a YAML-decoded value (already plain Go
// maps/slices/scalars, since yaml.v3 is JSON-compatible) as JSON, the form
// every downstream reducer payload struct expects. A nil/empty input yields
// a nil RawMessage, matching an absent optional field.
func toRawJSON(v map[string]interface{}) (json.RawMessage, error) {
	if v == nil {
		return nil, nil
	}
	b, err := json.Marshal(v)
	if err != nil {
		return nil, err
	}
	return json.RawMessage(b), nil
}

// LoadEmbedded parses the explorer's bundled wonderland fixture.
func LoadEmbedded() ([]*chain.Block, error) {
	f, err := fixturesFS.Open("fixtures/wonderland.yaml")
	if err != nil {
		return nil, fmt.Errorf("sample: open embedded fixture: %w", err)
	}
	defer f.Close()
	return Load(f)
}

// Stream pushes blocks onto a channel in order and closes it, the shape
// ingest.Supervisor.Bootstrap consumes.
func Stream(blocks []*chain.Block) <-chan *chain.Block {
	ch := make(chan *chain.Block, len(blocks))
	for _, b := range blocks {
		ch <- b
	}
	close(ch)
	return ch
}

// Seed resets st and replays the embedded wonderland fixture through red,
// via a fresh ingest.Supervisor, returning that supervisor so callers (the
// `serve-sample` command, integration tests) can report readiness the same
// way a live-connected one would.
func Seed(ctx context.Context, st *store.Store, red *reducer.Reducer, log *logging.Logger, m *metrics.Metrics) (*ingest.Supervisor, error) {
	blocks, err := LoadEmbedded()
	if err != nil {
		return nil, err
	}
	if err := st.Reset(ctx); err != nil {
		return nil, fmt.Errorf("sample: reset store: %w", err)
	}

	sup := ingest.New(nil, st, red, log, m, ingest.Config{})
	if err := sup.Bootstrap(ctx, 1, Stream(blocks)); err != nil {
		return nil, fmt.Errorf("sample: bootstrap fixture: %w", err)
	}
	return sup, nil
}
