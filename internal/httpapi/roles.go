package httpapi

import (
	"net/http"

	"github.com/gorilla/mux"

	"github.com/soramitsu/iroha-explorer/internal/httputil"
)

func (s *Server) handleListRoles(w http.ResponseWriter, r *http.Request) {
	if !allowedFilters(w, r) {
		return
	}
	page, ok := parsePage(w, r)
	if !ok {
		return
	}

	result, err := s.store.ListRoles(r.Context(), page)
	if err != nil {
		writeStoreError(w, err)
		return
	}

	items := make([]roleResponse, 0, len(result.Items))
	for _, role := range result.Items {
		items = append(items, newRoleResponse(role))
	}
	httputil.WriteJSON(w, http.StatusOK, httputil.NewPage(items, result.Pagination.PageNumber, result.Pagination.PageSize, result.Pagination.TotalItems))
}

// handleGetRole resolves a single role plus the accounts it has been
// granted to, the one Grant/Revoke payload shape the instruction table
// treats as world-state-mutating (SPEC_FULL.md §3's RoleGrant addendum).
func (s *Server) handleGetRole(w http.ResponseWriter, r *http.Request) {
	name := mux.Vars(r)["name"]

	role, err := s.store.GetRole(r.Context(), name)
	if err != nil {
		writeStoreError(w, err)
		return
	}

	grantees, err := s.store.RoleGrantees(r.Context(), name)
	if err != nil {
		writeStoreError(w, err)
		return
	}

	resp := newRoleResponse(*role)
	resp.Grantees = make([]string, 0, len(grantees))
	for _, g := range grantees {
		resp.Grantees = append(resp.Grantees, g.String())
	}
	httputil.WriteJSON(w, http.StatusOK, resp)
}
