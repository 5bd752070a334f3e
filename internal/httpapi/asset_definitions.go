package httpapi

import (
	"net/http"
	"strings"

	"github.com/gorilla/mux"

	"github.com/soramitsu/iroha-explorer/internal/httputil"
	"github.com/soramitsu/iroha-explorer/internal/store"
)

func (s *Server) handleListAssetDefinitions(w http.ResponseWriter, r *http.Request) {
	if !allowedFilters(w, r, "domain") {
		return
	}
	page, ok := parsePage(w, r)
	if !ok {
		return
	}

	filter := store.AssetDefinitionFilter{Domain: httputil.QueryString(r, "domain", "")}

	result, err := s.store.ListAssetDefinitions(r.Context(), page, filter)
	if err != nil {
		writeStoreError(w, err)
		return
	}

	items := make([]assetDefinitionResponse, 0, len(result.Items))
	for _, ad := range result.Items {
		items = append(items, newAssetDefinitionResponse(ad))
	}
	httputil.WriteJSON(w, http.StatusOK, httputil.NewPage(items, result.Pagination.PageNumber, result.Pagination.PageSize, result.Pagination.TotalItems))
}

func (s *Server) handleGetAssetDefinition(w http.ResponseWriter, r *http.Request) {
	raw := mux.Vars(r)["id"]

	name, domain, err := parseAssetDefinitionID(raw)
	if err != nil {
		httputil.BadRequest(w, err.Error())
		return
	}

	ad, err := s.store.GetAssetDefinition(r.Context(), name, domain)
	if err != nil {
		writeStoreError(w, err)
		return
	}

	holders, err := s.store.HoldersOfDefinition(r.Context(), name, domain)
	if err != nil {
		writeStoreError(w, err)
		return
	}
	accountIDs := make([]string, 0, len(holders))
	for _, h := range holders {
		accountIDs = append(accountIDs, h.String())
	}

	resp := newAssetDefinitionResponse(*ad)
	resp.Accounts = accountIDs
	httputil.WriteJSON(w, http.StatusOK, resp)
}

// parseAssetDefinitionID parses "<name>#<domain>", per the id form
// v_assets.id derives a definition segment from (spec.md §6's
// "GET /asset-definitions/{id}").
func parseAssetDefinitionID(raw string) (name, domain string, err error) {
	i := strings.IndexByte(raw, '#')
	if i <= 0 || i == len(raw)-1 {
		return "", "", &store.ValidationError{Field: "id", Message: "asset definition id must be \"<name>#<domain>\""}
	}
	return raw[:i], raw[i+1:], nil
}
