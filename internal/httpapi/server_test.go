package httpapi

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/soramitsu/iroha-explorer/internal/store"
)

type fakeReadiness struct{ ready bool }

func (f fakeReadiness) Ready() bool { return f.ready }

func newTestServer(t *testing.T) (*Server, *store.Store) {
	t.Helper()
	st, err := store.Open(context.Background(), store.DefaultConfig(":memory:"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = st.Close() })

	s := New(Config{Store: st, Supervisor: nil})
	s.supervisor = fakeReadiness{ready: true}
	return s, st
}

func seedWonderland(t *testing.T, st *store.Store) {
	t.Helper()
	err := st.Apply(context.Background(), store.Batch{
		Block: store.Block{Height: 1, Hash: "block1hash", CreatedAt: time.Unix(0, 0).UTC()},
		UpsertDomains: []store.Domain{
			{Name: "wonderland", Metadata: []byte(`{"key":"value"}`)},
		},
		UpsertAccounts: []store.Account{
			{Signatory: "ed0120alice", Domain: "wonderland"},
		},
		UpsertAssetDefinitions: []store.AssetDefinition{
			{Name: "rose", Domain: "wonderland", OwnedBy: store.AccountID{Signatory: "ed0120alice", Domain: "wonderland"}, Mintable: "Infinitely"},
		},
		UpsertAssets: []store.Asset{
			{DefinitionName: "rose", DefinitionDomain: "wonderland", OwnedBy: store.AccountID{Signatory: "ed0120alice", Domain: "wonderland"}, Value: "100000"},
		},
		Transactions: []store.Transaction{
			{Hash: "tx1", Block: 1, Position: 0, CreatedAt: time.Unix(0, 0).UTC(),
				Authority: store.AccountID{Signatory: "ed0120alice", Domain: "wonderland"}, Signature: "sig1", Executable: "Instructions"},
		},
		Instructions: []store.Instruction{
			{TransactionHash: "tx1", Position: 0, Kind: "Register", Payload: []byte(`{"object":{"Domain":{"id":"wonderland"}}}`)},
		},
	})
	require.NoError(t, err)
}

func doRequest(t *testing.T, s *Server, method, path string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, path, nil)
	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, req)
	return rec
}

func TestHealthAndReady(t *testing.T) {
	s, _ := newTestServer(t)

	rec := doRequest(t, s, http.MethodGet, "/api/health")
	require.Equal(t, http.StatusOK, rec.Code)
	require.Equal(t, "healthy", rec.Body.String())

	rec = doRequest(t, s, http.MethodGet, "/api/ready")
	require.Equal(t, http.StatusOK, rec.Code)
}

func TestGetDomainScenario(t *testing.T) {
	s, st := newTestServer(t)
	seedWonderland(t, st)

	rec := doRequest(t, s, http.MethodGet, "/api/v1/domains/wonderland")
	require.Equal(t, http.StatusOK, rec.Code)

	var resp struct {
		ID               string `json:"id"`
		Accounts         []string
		AssetDefinitions []struct {
			ID string `json:"id"`
		} `json:"asset_definitions"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	require.Equal(t, "wonderland", resp.ID)
	require.Len(t, resp.Accounts, 1)
	require.Len(t, resp.AssetDefinitions, 1)
	require.Equal(t, "rose#wonderland", resp.AssetDefinitions[0].ID)
}

func TestGetAssetScenario(t *testing.T) {
	s, st := newTestServer(t)
	seedWonderland(t, st)

	rec := doRequest(t, s, http.MethodGet, "/api/v1/assets/rose##ed0120alice@wonderland")
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
	require.Equal(t, "ed0120alice@wonderland", resp.AccountID)
	require.Equal(t, "rose#wonderland", resp.DefinitionID)
	require.Equal(t, "Numeric", resp.Value.T)
	require.Equal(t, "100000", resp.Value.C)
}

func TestListBlocksScenario(t *testing.T) {
	s, st := newTestServer(t)
	seedWonderland(t, st)

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

func TestBlockZeroIsBadRequest(t *testing.T) {
	s, _ := newTestServer(t)

	rec := doRequest(t, s, http.MethodGet, "/api/v1/blocks/0")
	require.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestUnknownBlockIs404(t *testing.T) {
	s, st := newTestServer(t)
	seedWonderland(t, st)

	rec := doRequest(t, s, http.MethodGet, "/api/v1/blocks/99")
	require.Equal(t, http.StatusNotFound, rec.Code)
}

func TestPaginationBoundary(t *testing.T) {
	s, st := newTestServer(t)
	seedWonderland(t, st)

	rec := doRequest(t, s, http.MethodGet, "/api/v1/domains?per_page=0")
	require.Equal(t, http.StatusBadRequest, rec.Code)

	rec = doRequest(t, s, http.MethodGet, "/api/v1/domains?page=0")
	require.Equal(t, http.StatusBadRequest, rec.Code)

	rec = doRequest(t, s, http.MethodGet, "/api/v1/domains?page=5")
	require.Equal(t, http.StatusOK, rec.Code)
	var page struct {
		Items      []json.RawMessage `json:"items"`
		Pagination struct {
			Pages int `json:"pages"`
		} `json:"pagination"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &page))
	require.Empty(t, page.Items)
	require.Equal(t, 1, page.Pagination.Pages)
}

func TestTelemetryFleetWithoutAggregatorReturnsEmpty(t *testing.T) {
	s, _ := newTestServer(t)

	rec := doRequest(t, s, http.MethodGet, "/api/v1/telemetry")
	require.Equal(t, http.StatusOK, rec.Code)

	var resp struct {
		Peers []json.RawMessage `json:"peers"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	require.Empty(t, resp.Peers)
}
