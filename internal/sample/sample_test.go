package sample

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/soramitsu/iroha-explorer/internal/logging"
	"github.com/soramitsu/iroha-explorer/internal/reducer"
	"github.com/soramitsu/iroha-explorer/internal/store"
)

func TestLoadEmbeddedParsesThreeBlocks(t *testing.T) {
	blocks, err := LoadEmbedded()
	require.NoError(t, err)
	require.Len(t, blocks, 3)
	require.Equal(t, uint64(1), blocks[0].Height)
	require.Nil(t, blocks[0].PrevBlockHash)
	require.Len(t, blocks[0].Transactions, 1)
	require.True(t, blocks[0].Transactions[0].Committed())
}

func TestLoadEmbeddedDecodesRejectedTransactions(t *testing.T) {
	blocks, err := LoadEmbedded()
	require.NoError(t, err)

	var rejected int
	for _, b := range blocks {
		for _, tx := range b.Transactions {
			if !tx.Committed() {
				rejected++
			}
		}
	}
	require.Equal(t, 2, rejected)
}

func TestSeedBuildsQueryableStore(t *testing.T) {
	st, err := store.Open(context.Background(), store.DefaultConfig(":memory:"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = st.Close() })

	log := logging.New("test", "error", "text")
	sup, err := Seed(context.Background(), st, reducer.New(log), log, nil)
	require.NoError(t, err)
	require.True(t, sup.Ready())

	height, err := st.Height(context.Background())
	require.NoError(t, err)
	require.Equal(t, uint64(3), height)

	domains, err := st.ListDomains(context.Background(), store.PageRequest{Page: 1, PerPage: 15})
	require.NoError(t, err)
	require.Len(t, domains.Items, 1)
	require.Equal(t, "wonderland", domains.Items[0].Name)
}
