package httpapi

import (
	"context"
	"encoding/json"
	"net/http"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/soramitsu/iroha-explorer/internal/logging"
	"github.com/soramitsu/iroha-explorer/internal/reducer"
	"github.com/soramitsu/iroha-explorer/internal/sample"
	"github.com/soramitsu/iroha-explorer/internal/store"
)

// newFixtureServer seeds a fresh :memory: store from the bundled wonderland
// fixture through the real reducer/ingest path, then builds a Server over it.
func newFixtureServer(t *testing.T) *Server {
	t.Helper()
	st, err := store.Open(context.Background(), store.DefaultConfig(":memory:"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = st.Close() })

	log := logging.New("test", "error", "text")
	sup, err := sample.Seed(context.Background(), st, reducer.New(log), log, nil)
	require.NoError(t, err)

	return New(Config{Store: st, Supervisor: sup, Log: log})
}

func TestFixtureDomainScenario(t *testing.T) {
	s := newFixtureServer(t)

	rec := doRequest(t, s, http.MethodGet, "/api/v1/domains/wonderland")
	require.Equal(t, http.StatusOK, rec.Code)

	var resp struct {
		ID               string   `json:"id"`
		Accounts         []string `json:"accounts"`
		AssetDefinitions []struct {
			ID string `json:"id"`
		} `json:"asset_definitions"`
		Metadata map[string]string `json:"metadata"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	require.Equal(t, "wonderland", resp.ID)
	require.Len(t, resp.Accounts, 3)
	require.Len(t, resp.AssetDefinitions, 1)
	require.Equal(t, "rose#wonderland", resp.AssetDefinitions[0].ID)
	require.Equal(t, "value", resp.Metadata["key"])
}

func TestFixtureAssetScenario(t *testing.T) {
	s := newFixtureServer(t)

	rec := doRequest(t, s, http.MethodGet,
		"/api/v1/assets/rose##ed0120a1b2c3d4e5f6a7b8c9d0e1f2a3b4c5d6e7f8a9b0c1d2e3f4a5b6c7d8da08@wonderland")
	require.Equal(t, http.StatusOK, rec.Code)

	var resp struct {
		AccountID    string `json:"account_id"`
		DefinitionID string `json:"definition_id"`
		Value        struct {
			T string `json:"t"`
			C string `json:"c"`
		} `json:"value"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	require.Equal(t, "rose#wonderland", resp.DefinitionID)
	require.Equal(t, "Numeric", resp.Value.T)
	require.Equal(t, "100000", resp.Value.C)
}

func TestFixtureRejectedTransactionsScenario(t *testing.T) {
	s := newFixtureServer(t)

	rec := doRequest(t, s, http.MethodGet, "/api/v1/transactions?status=rejected&per_page=2&page=1")
	require.Equal(t, http.StatusOK, rec.Code)

	var resp struct {
		Items []struct {
			Error json.RawMessage `json:"error"`
		} `json:"items"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	require.Len(t, resp.Items, 2)
	for _, item := range resp.Items {
		require.NotEqual(t, "null", string(item.Error))
	}
}

func TestFixtureGenesisBlockScenario(t *testing.T) {
	s := newFixtureServer(t)

	rec := doRequest(t, s, http.MethodGet, "/api/v1/blocks/1")
	require.Equal(t, http.StatusOK, rec.Code)

	var resp struct {
		Height        string   `json:"height"`
		PrevBlockHash *string  `json:"prev_block_hash"`
		Transactions  []string `json:"transactions"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	require.Equal(t, "1", resp.Height)
	require.Nil(t, resp.PrevBlockHash)
	require.Len(t, resp.Transactions, 1)
}

func TestFixtureInstructionKindFilterOrdering(t *testing.T) {
	s := newFixtureServer(t)

	rec := doRequest(t, s, http.MethodGet, "/api/v1/instructions?kind=Register&per_page=100")
	require.Equal(t, http.StatusOK, rec.Code)

	var resp struct {
		Items []struct {
			T         string `json:"t"`
			CreatedAt string `json:"created_at"`
		} `json:"items"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	require.NotEmpty(t, resp.Items)
	for _, item := range resp.Items {
		require.Equal(t, "Register", item.T)
	}
	for i := 1; i < len(resp.Items); i++ {
		require.GreaterOrEqual(t, resp.Items[i-1].CreatedAt, resp.Items[i].CreatedAt)
	}
}

func TestFixtureGetRoleScenario(t *testing.T) {
	s := newFixtureServer(t)

	rec := doRequest(t, s, http.MethodGet, "/api/v1/roles/ADMIN")
	require.Equal(t, http.StatusOK, rec.Code)

	var resp struct {
		Name        string          `json:"name"`
		Permissions json.RawMessage `json:"permissions"`
		Grantees    []string        `json:"grantees"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	require.Equal(t, "ADMIN", resp.Name)
	require.Len(t, resp.Grantees, 0)

	rec = doRequest(t, s, http.MethodGet, "/api/v1/roles/NOPE")
	require.Equal(t, http.StatusNotFound, rec.Code)
}

func TestFixtureReadyAfterSeed(t *testing.T) {
	s := newFixtureServer(t)

	rec := doRequest(t, s, http.MethodGet, "/api/ready")
	require.Equal(t, http.StatusOK, rec.Code)
}
