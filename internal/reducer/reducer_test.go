package reducer

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/soramitsu/iroha-explorer/internal/chain"
	"github.com/soramitsu/iroha-explorer/internal/logging"
	"github.com/soramitsu/iroha-explorer/internal/store"
)

func testReducer(t *testing.T) *Reducer {
	t.Helper()
	return New(logging.New("reducer-test", "error", "text"))
}

func openReaderStore(t *testing.T) *store.Store {
	t.Helper()
	s, err := store.Open(context.Background(), store.DefaultConfig(":memory:"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func committedTx(hash string, position int, instructions ...chain.Instruction) chain.Transaction {
	return chain.Transaction{
		Hash:            hash,
		AuthoritySig:    "alice",
		AuthorityDomain: "wonderland",
		Signature:       "sig-" + hash,
		CreatedAt:       time.Unix(int64(position), 0).UTC(),
		Executable:      chain.ExecutableInstructions,
		Instructions:    instructions,
	}
}

func rejectedTx(hash string, instructions ...chain.Instruction) chain.Transaction {
	tx := committedTx(hash, 0, instructions...)
	tx.Error = []byte(`{"Validation":"NotPermitted"}`)
	return tx
}

func inst(kind, payload string) chain.Instruction {
	return chain.Instruction{Kind: kind, Payload: []byte(payload)}
}

// TestReduce_Genesis exercises Register across every world-state entity kind
// against an empty reader.
func TestReduce_Genesis(t *testing.T) {
	r := testReducer(t)
	s := openReaderStore(t)
	ctx := context.Background()

	block := &chain.Block{
		Height:    1,
		Hash:      "block1",
		CreatedAt: time.Unix(0, 0).UTC(),
		Transactions: []chain.Transaction{
			committedTx("tx1", 0,
				inst("Register", `{"object":{"Domain":{"id":"wonderland"}}}`),
				inst("Register", `{"object":{"Account":{"id":"alice@wonderland"}}}`),
				inst("Register", `{"object":{"AssetDefinition":{"id":"rose#wonderland","mintable":"Infinitely","owned_by":"alice@wonderland"}}}`),
			),
		},
	}

	batch, err := r.Reduce(ctx, s, block)
	require.NoError(t, err)

	require.Len(t, batch.UpsertDomains, 1)
	assert.Equal(t, "wonderland", batch.UpsertDomains[0].Name)
	require.Len(t, batch.UpsertAccounts, 1)
	assert.Equal(t, "alice", batch.UpsertAccounts[0].Signatory)
	require.Len(t, batch.UpsertAssetDefinitions, 1)
	assert.Equal(t, "rose", batch.UpsertAssetDefinitions[0].Name)
	assert.Equal(t, "Infinitely", batch.UpsertAssetDefinitions[0].Mintable)
	require.Len(t, batch.Transactions, 1)
	require.Len(t, batch.Instructions, 3)
}

// TestReduce_MintThenBurn_NetsToSingleUpsert exercises the overlay's
// netting: two instructions against the same asset within one block net to
// exactly one store.Asset row.
func TestReduce_MintThenBurn_NetsToSingleUpsert(t *testing.T) {
	r := testReducer(t)
	s := openReaderStore(t)
	ctx := context.Background()

	genesis := &chain.Block{
		Height: 1, Hash: "block1", CreatedAt: time.Unix(0, 0).UTC(),
		Transactions: []chain.Transaction{
			committedTx("tx1", 0,
				inst("Register", `{"object":{"Domain":{"id":"wonderland"}}}`),
				inst("Register", `{"object":{"Account":{"id":"alice@wonderland"}}}`),
				inst("Register", `{"object":{"AssetDefinition":{"id":"rose#wonderland","mintable":"Infinitely","owned_by":"alice@wonderland"}}}`),
			),
		},
	}
	b1, err := r.Reduce(ctx, s, genesis)
	require.NoError(t, err)
	require.NoError(t, s.Apply(ctx, b1))

	block2 := &chain.Block{
		Height: 2, Hash: "block2", CreatedAt: time.Unix(1, 0).UTC(),
		Transactions: []chain.Transaction{
			committedTx("tx2", 0,
				inst("Mint", `{"object":{"Asset":{"id":"rose##alice@wonderland","amount":"10"}}}`),
				inst("Burn", `{"object":{"Asset":{"id":"rose##alice@wonderland","amount":"3"}}}`),
			),
		},
	}
	b2, err := r.Reduce(ctx, s, block2)
	require.NoError(t, err)

	require.Len(t, b2.UpsertAssets, 1)
	assert.Equal(t, "7", b2.UpsertAssets[0].Value)
	assert.Empty(t, b2.DeleteAssets)
}

// TestReduce_BurnToZero_Deletes exercises the mutation table's "delete on
// zero" rule.
func TestReduce_BurnToZero_Deletes(t *testing.T) {
	r := testReducer(t)
	s := openReaderStore(t)
	ctx := context.Background()

	genesis := &chain.Block{
		Height: 1, Hash: "block1", CreatedAt: time.Unix(0, 0).UTC(),
		Transactions: []chain.Transaction{
			committedTx("tx1", 0,
				inst("Register", `{"object":{"Domain":{"id":"wonderland"}}}`),
				inst("Register", `{"object":{"Account":{"id":"alice@wonderland"}}}`),
				inst("Register", `{"object":{"AssetDefinition":{"id":"rose#wonderland","mintable":"Infinitely","owned_by":"alice@wonderland"}}}`),
				inst("Mint", `{"object":{"Asset":{"id":"rose##alice@wonderland","amount":"5"}}}`),
			),
		},
	}
	b1, err := r.Reduce(ctx, s, genesis)
	require.NoError(t, err)
	require.NoError(t, s.Apply(ctx, b1))

	block2 := &chain.Block{
		Height: 2, Hash: "block2", CreatedAt: time.Unix(1, 0).UTC(),
		Transactions: []chain.Transaction{
			committedTx("tx2", 0,
				inst("Burn", `{"object":{"Asset":{"id":"rose##alice@wonderland","amount":"5"}}}`),
			),
		},
	}
	b2, err := r.Reduce(ctx, s, block2)
	require.NoError(t, err)

	require.Empty(t, b2.UpsertAssets)
	require.Len(t, b2.DeleteAssets, 1)
	assert.Equal(t, "rose##alice@wonderland", b2.DeleteAssets[0].String())
}

// TestReduce_RejectedTransaction_NoWorldStateEffect exercises property P4:
// a rejected transaction is still recorded (history rows present) but
// contributes no world-state mutation.
func TestReduce_RejectedTransaction_NoWorldStateEffect(t *testing.T) {
	r := testReducer(t)
	s := openReaderStore(t)
	ctx := context.Background()

	block := &chain.Block{
		Height: 1, Hash: "block1", CreatedAt: time.Unix(0, 0).UTC(),
		Transactions: []chain.Transaction{
			rejectedTx("tx1",
				inst("Register", `{"object":{"Domain":{"id":"wonderland"}}}`),
			),
		},
	}

	batch, err := r.Reduce(ctx, s, block)
	require.NoError(t, err)

	assert.Empty(t, batch.UpsertDomains)
	require.Len(t, batch.Transactions, 1)
	require.Len(t, batch.Instructions, 1)
}

// TestReduce_Deterministic exercises property P2: reducing the same block
// against the same prior state twice yields equal batches.
func TestReduce_Deterministic(t *testing.T) {
	r := testReducer(t)
	block := &chain.Block{
		Height: 1, Hash: "block1", CreatedAt: time.Unix(0, 0).UTC(),
		Transactions: []chain.Transaction{
			committedTx("tx1", 0,
				inst("Register", `{"object":{"Domain":{"id":"wonderland"}}}`),
				inst("Register", `{"object":{"Account":{"id":"alice@wonderland"}}}`),
			),
		},
	}

	s1 := openReaderStore(t)
	b1, err := r.Reduce(context.Background(), s1, block)
	require.NoError(t, err)

	s2 := openReaderStore(t)
	b2, err := r.Reduce(context.Background(), s2, block)
	require.NoError(t, err)

	assert.Equal(t, b1.UpsertDomains, b2.UpsertDomains)
	assert.Equal(t, b1.UpsertAccounts, b2.UpsertAccounts)
	assert.Equal(t, b1.Block, b2.Block)
}

// TestReduce_SetKeyValue_PatchesExistingMetadata exercises SetKeyValue
// merging a single key into a domain's existing metadata object.
func TestReduce_SetKeyValue_PatchesExistingMetadata(t *testing.T) {
	r := testReducer(t)
	s := openReaderStore(t)
	ctx := context.Background()

	genesis := &chain.Block{
		Height: 1, Hash: "block1", CreatedAt: time.Unix(0, 0).UTC(),
		Transactions: []chain.Transaction{
			committedTx("tx1", 0,
				inst("Register", `{"object":{"Domain":{"id":"wonderland","metadata":{"about":"tea party"}}}}`),
			),
		},
	}
	b1, err := r.Reduce(ctx, s, genesis)
	require.NoError(t, err)
	require.NoError(t, s.Apply(ctx, b1))

	block2 := &chain.Block{
		Height: 2, Hash: "block2", CreatedAt: time.Unix(1, 0).UTC(),
		Transactions: []chain.Transaction{
			committedTx("tx2", 0,
				inst("SetKeyValue", `{"object_id":{"Domain":"wonderland"},"key":"motto","value":"we're all mad here"}`),
			),
		},
	}
	b2, err := r.Reduce(ctx, s, block2)
	require.NoError(t, err)

	require.Len(t, b2.UpsertDomains, 1)
	assert.JSONEq(t, `{"about":"tea party","motto":"we're all mad here"}`, string(b2.UpsertDomains[0].Metadata))
}

// TestReduce_TransferAssetDefinition_AmbiguousWithAssetMutation_Errors
// exercises the §9 design-note resolution: a transaction that both
// transfers an AssetDefinition and mutates an Asset balance under it is
// rejected as ambiguous rather than silently applied.
func TestReduce_TransferAssetDefinition_AmbiguousWithAssetMutation_Errors(t *testing.T) {
	r := testReducer(t)
	s := openReaderStore(t)
	ctx := context.Background()

	genesis := &chain.Block{
		Height: 1, Hash: "block1", CreatedAt: time.Unix(0, 0).UTC(),
		Transactions: []chain.Transaction{
			committedTx("tx1", 0,
				inst("Register", `{"object":{"Domain":{"id":"wonderland"}}}`),
				inst("Register", `{"object":{"Account":{"id":"alice@wonderland"}}}`),
				inst("Register", `{"object":{"Account":{"id":"bob@wonderland"}}}`),
				inst("Register", `{"object":{"AssetDefinition":{"id":"rose#wonderland","mintable":"Infinitely","owned_by":"alice@wonderland"}}}`),
			),
		},
	}
	b1, err := r.Reduce(ctx, s, genesis)
	require.NoError(t, err)
	require.NoError(t, s.Apply(ctx, b1))

	block2 := &chain.Block{
		Height: 2, Hash: "block2", CreatedAt: time.Unix(1, 0).UTC(),
		Transactions: []chain.Transaction{
			committedTx("tx2", 0,
				inst("Transfer", `{"source_id":"rose#wonderland","object":{"AssetDefinition":{}},"destination_id":"bob@wonderland"}`),
				inst("Mint", `{"object":{"Asset":{"id":"rose##alice@wonderland","amount":"1"}}}`),
			),
		},
	}
	_, err = r.Reduce(ctx, s, block2)
	require.Error(t, err)
	var rerr *ReducerError
	require.ErrorAs(t, err, &rerr)
	assert.Equal(t, "tx2", rerr.TransactionHash)
}

// TestReduce_GrantRole exercises the role-specific Grant resolution (§3
// supplement): a Grant whose object names a Role yields one GrantRoles
// entry for the destination account and no RevokeRoles entry.
func TestReduce_GrantRole(t *testing.T) {
	r := testReducer(t)
	s := openReaderStore(t)
	ctx := context.Background()

	block := &chain.Block{
		Height: 1, Hash: "block1", CreatedAt: time.Unix(0, 0).UTC(),
		Transactions: []chain.Transaction{
			committedTx("tx1", 0,
				inst("Register", `{"object":{"Domain":{"id":"wonderland"}}}`),
				inst("Register", `{"object":{"Account":{"id":"alice@wonderland"}}}`),
				inst("Register", `{"object":{"Role":{"id":"ROSE_GARDENER","permissions":[]}}}`),
				inst("Grant", `{"object":{"Role":"ROSE_GARDENER"},"destination_id":"alice@wonderland"}`),
			),
		},
	}
	batch, err := r.Reduce(ctx, s, block)
	require.NoError(t, err)

	require.Len(t, batch.GrantRoles, 1)
	assert.Equal(t, "ROSE_GARDENER", batch.GrantRoles[0].Role)
	assert.Equal(t, "alice", batch.GrantRoles[0].Account.Signatory)
	assert.Empty(t, batch.RevokeRoles)
}
