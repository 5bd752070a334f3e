package httpapi

import (
	"net/http"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// buildRouter mounts every route under /api/v1, plus the ambient
// /api/health, /api/ready, /api/docs, and /metrics endpoints, per spec.md
// §4.6 and its SPEC_FULL expansion.
func (s *Server) buildRouter() *mux.Router {
	r := mux.NewRouter()

	r.HandleFunc("/api/health", s.handleHealth).Methods(http.MethodGet)
	r.HandleFunc("/api/ready", s.handleReady).Methods(http.MethodGet)
	r.PathPrefix("/api/docs").Handler(http.StripPrefix("/api/docs", docsHandler())).Methods(http.MethodGet)
	r.Handle("/metrics", promhttp.Handler()).Methods(http.MethodGet)

	api := r.PathPrefix("/api/v1").Subrouter()

	api.HandleFunc("/blocks", s.handleListBlocks).Methods(http.MethodGet)
	api.HandleFunc("/blocks/{id}", s.handleGetBlock).Methods(http.MethodGet)

	api.HandleFunc("/transactions", s.handleListTransactions).Methods(http.MethodGet)
	api.HandleFunc("/transactions/{hash}", s.handleGetTransaction).Methods(http.MethodGet)

	api.HandleFunc("/instructions", s.handleListInstructions).Methods(http.MethodGet)

	api.HandleFunc("/domains", s.handleListDomains).Methods(http.MethodGet)
	api.HandleFunc("/domains/{id}", s.handleGetDomain).Methods(http.MethodGet)

	api.HandleFunc("/accounts", s.handleListAccounts).Methods(http.MethodGet)
	api.HandleFunc("/accounts/{id}", s.handleGetAccount).Methods(http.MethodGet)

	api.HandleFunc("/assets", s.handleListAssets).Methods(http.MethodGet)
	api.HandleFunc("/assets/{id}", s.handleGetAsset).Methods(http.MethodGet)

	api.HandleFunc("/asset-definitions", s.handleListAssetDefinitions).Methods(http.MethodGet)
	api.HandleFunc("/asset-definitions/{id}", s.handleGetAssetDefinition).Methods(http.MethodGet)

	api.HandleFunc("/nfts", s.handleListNFTs).Methods(http.MethodGet)
	api.HandleFunc("/nfts/{id}", s.handleGetNFT).Methods(http.MethodGet)

	api.HandleFunc("/roles", s.handleListRoles).Methods(http.MethodGet)
	api.HandleFunc("/roles/{name}", s.handleGetRole).Methods(http.MethodGet)

	api.HandleFunc("/peer/peers", s.handleListPeers).Methods(http.MethodGet)
	api.HandleFunc("/peer/status", s.handlePeerStatus).Methods(http.MethodGet)

	api.HandleFunc("/telemetry", s.handleTelemetryFleet).Methods(http.MethodGet)
	api.HandleFunc("/telemetry/peers/{url}/samples", s.handleTelemetrySamples).Methods(http.MethodGet)

	return r
}
