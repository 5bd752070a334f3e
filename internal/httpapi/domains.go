package httpapi

import (
	"net/http"

	"github.com/gorilla/mux"

	"github.com/soramitsu/iroha-explorer/internal/httputil"
	"github.com/soramitsu/iroha-explorer/internal/store"
)

func (s *Server) handleListDomains(w http.ResponseWriter, r *http.Request) {
	if !allowedFilters(w, r) {
		return
	}
	page, ok := parsePage(w, r)
	if !ok {
		return
	}

	result, err := s.store.ListDomains(r.Context(), page)
	if err != nil {
		writeStoreError(w, err)
		return
	}

	items := make([]domainResponse, 0, len(result.Items))
	for _, d := range result.Items {
		items = append(items, newDomainResponse(d))
	}
	httputil.WriteJSON(w, http.StatusOK, httputil.NewPage(items, result.Pagination.PageNumber, result.Pagination.PageSize, result.Pagination.TotalItems))
}

func (s *Server) handleGetDomain(w http.ResponseWriter, r *http.Request) {
	name := mux.Vars(r)["id"]

	d, err := s.store.GetDomain(r.Context(), name)
	if err != nil {
		writeStoreError(w, err)
		return
	}

	accountsPage, err := s.store.ListAccounts(r.Context(), pageAll, store.AccountFilter{Domain: name})
	if err != nil {
		writeStoreError(w, err)
		return
	}
	accountIDs := make([]string, 0, len(accountsPage.Items))
	for _, a := range accountsPage.Items {
		accountIDs = append(accountIDs, store.AccountID{Signatory: a.Signatory, Domain: a.Domain}.String())
	}

	definitionsPage, err := s.store.ListAssetDefinitions(r.Context(), pageAll, store.AssetDefinitionFilter{Domain: name})
	if err != nil {
		writeStoreError(w, err)
		return
	}
	definitions := make([]assetDefinitionResponse, 0, len(definitionsPage.Items))
	for _, ad := range definitionsPage.Items {
		definitions = append(definitions, newAssetDefinitionResponse(ad))
	}

	owner, err := s.store.GetDomainOwner(r.Context(), name)
	if err != nil {
		writeStoreError(w, err)
		return
	}

	resp := newDomainResponse(*d)
	resp.Accounts = accountIDs
	resp.AssetDefinitions = definitions
	if owner != nil {
		ownerID := owner.String()
		resp.Owner = &ownerID
	}
	httputil.WriteJSON(w, http.StatusOK, resp)
}
