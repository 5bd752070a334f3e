package store

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := Open(context.Background(), DefaultConfig(":memory:"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func seedWonderland(t *testing.T, s *Store) {
	t.Helper()
	ctx := context.Background()

	err := s.Apply(ctx, Batch{
		Block: Block{Height: 1, Hash: "block1hash", CreatedAt: time.Unix(0, 0).UTC()},
		UpsertDomains: []Domain{
			{Name: "wonderland"},
		},
		UpsertAccounts: []Account{
			{Signatory: "alice", Domain: "wonderland"},
			{Signatory: "bob", Domain: "wonderland"},
		},
		UpsertAssetDefinitions: []AssetDefinition{
			{Name: "rose", Domain: "wonderland", OwnedBy: AccountID{Signatory: "alice", Domain: "wonderland"}, Mintable: "Infinitely"},
		},
		UpsertAssets: []Asset{
			{DefinitionName: "rose", DefinitionDomain: "wonderland", OwnedBy: AccountID{Signatory: "alice", Domain: "wonderland"}, Value: "13"},
		},
		Transactions: []Transaction{
			{
				Hash: "tx1", Block: 1, Position: 0, CreatedAt: time.Unix(0, 0).UTC(),
				Authority: AccountID{Signatory: "alice", Domain: "wonderland"},
				Signature: "sig1", Executable: "Instructions",
			},
		},
		Instructions: []Instruction{
			{TransactionHash: "tx1", Position: 0, Kind: "Register", Payload: []byte(`{"object":{"Domain":{"id":"wonderland"}}}`)},
		},
	})
	require.NoError(t, err)
}

func TestApply_AndListDomains(t *testing.T) {
	s := openTestStore(t)
	seedWonderland(t, s)

	page, err := s.ListDomains(context.Background(), PageRequest{Page: 1, PerPage: 15})
	require.NoError(t, err)
	require.Len(t, page.Items, 1)
	require.Equal(t, "wonderland", page.Items[0].Name)
	require.Equal(t, 1, page.Pagination.Pages)
	require.Equal(t, 1, *page.Pagination.TotalItems)
}

func TestGetDomain_NotFound(t *testing.T) {
	s := openTestStore(t)
	seedWonderland(t, s)

	_, err := s.GetDomain(context.Background(), "nowhere")
	var nf *NotFoundError
	require.ErrorAs(t, err, &nf)
}

func TestAssetID_RoundTripsThroughStore(t *testing.T) {
	s := openTestStore(t)
	seedWonderland(t, s)

	id := AssetID{DefinitionName: "rose", DefinitionDomain: "wonderland", OwnedBy: AccountID{Signatory: "alice", Domain: "wonderland"}}
	got, err := s.GetAsset(context.Background(), id)
	require.NoError(t, err)
	require.Equal(t, "rose##alice@wonderland", got.ID)

	reparsed, err := ParseAssetID(got.ID)
	require.NoError(t, err)
	require.Equal(t, id, reparsed)
}

func TestHeight_EmptyStore(t *testing.T) {
	s := openTestStore(t)
	h, err := s.Height(context.Background())
	require.NoError(t, err)
	require.Equal(t, uint64(0), h)
}

func TestHeight_AfterApply(t *testing.T) {
	s := openTestStore(t)
	seedWonderland(t, s)

	h, err := s.Height(context.Background())
	require.NoError(t, err)
	require.Equal(t, uint64(1), h)
}

// TestApply_RejectedTransactionHasNoWorldStateEffect exercises property P4:
// a rejected transaction (non-nil error) is still recorded for history, but
// contributes no world-state mutations in its batch.
func TestApply_RejectedTransactionHasNoWorldStateEffect(t *testing.T) {
	s := openTestStore(t)
	seedWonderland(t, s)
	ctx := context.Background()

	err := s.Apply(ctx, Batch{
		Block: Block{Height: 2, Hash: "block2hash", CreatedAt: time.Unix(1, 0).UTC()},
		Transactions: []Transaction{
			{
				Hash: "tx2", Block: 2, Position: 0, CreatedAt: time.Unix(1, 0).UTC(),
				Authority: AccountID{Signatory: "bob", Domain: "wonderland"},
				Signature: "sig2", Executable: "Instructions",
				Error: []byte(`{"Validation":"NotPermitted"}`),
			},
		},
		Instructions: []Instruction{
			{TransactionHash: "tx2", Position: 0, Kind: "Mint", Payload: []byte(`{"object":1}`)},
		},
		// No UpsertAssets: the rejected Mint must not be reflected in world state.
	})
	require.NoError(t, err)

	asset, err := s.GetAsset(ctx, AssetID{DefinitionName: "rose", DefinitionDomain: "wonderland", OwnedBy: AccountID{Signatory: "alice", Domain: "wonderland"}})
	require.NoError(t, err)
	require.Equal(t, "13", asset.Value)

	tx, err := s.GetTransaction(ctx, "tx2")
	require.NoError(t, err)
	require.Equal(t, "rejected", tx.Status)
}

func TestReset_ClearsAllTables(t *testing.T) {
	s := openTestStore(t)
	seedWonderland(t, s)

	require.NoError(t, s.Reset(context.Background()))

	h, err := s.Height(context.Background())
	require.NoError(t, err)
	require.Equal(t, uint64(0), h)

	page, err := s.ListDomains(context.Background(), PageRequest{Page: 1, PerPage: 15})
	require.NoError(t, err)
	require.Empty(t, page.Items)
}

func TestGetDomainOwner_UnsetThenSet(t *testing.T) {
	s := openTestStore(t)
	seedWonderland(t, s)
	ctx := context.Background()

	owner, err := s.GetDomainOwner(ctx, "wonderland")
	require.NoError(t, err)
	require.Nil(t, owner)

	require.NoError(t, s.Apply(ctx, Batch{
		Block: Block{Height: 2, Hash: "block2hash", CreatedAt: time.Unix(1, 0).UTC()},
		SetDomainOwners: []struct {
			Domain  string
			Account AccountID
		}{
			{Domain: "wonderland", Account: AccountID{Signatory: "bob", Domain: "wonderland"}},
		},
	}))

	owner, err = s.GetDomainOwner(ctx, "wonderland")
	require.NoError(t, err)
	require.NotNil(t, owner)
	require.Equal(t, "bob", owner.Signatory)
}

func TestRoleGrantees_GrantThenRevoke(t *testing.T) {
	s := openTestStore(t)
	seedWonderland(t, s)
	ctx := context.Background()

	alice := AccountID{Signatory: "alice", Domain: "wonderland"}
	require.NoError(t, s.Apply(ctx, Batch{
		Block:       Block{Height: 2, Hash: "block2hash", CreatedAt: time.Unix(1, 0).UTC()},
		UpsertRoles: []Role{{Name: "ADMIN", Permissions: []byte(`[]`)}},
		GrantRoles:  []RoleGrant{{Role: "ADMIN", Account: alice}},
	}))

	grantees, err := s.RoleGrantees(ctx, "ADMIN")
	require.NoError(t, err)
	require.Equal(t, []AccountID{alice}, grantees)

	require.NoError(t, s.Apply(ctx, Batch{
		Block:       Block{Height: 3, Hash: "block3hash", CreatedAt: time.Unix(2, 0).UTC()},
		RevokeRoles: []RoleGrant{{Role: "ADMIN", Account: alice}},
	}))

	grantees, err = s.RoleGrantees(ctx, "ADMIN")
	require.NoError(t, err)
	require.Empty(t, grantees)
}
