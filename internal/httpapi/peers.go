package httpapi

import (
	"context"
	"net/http"
	"time"

	"github.com/soramitsu/iroha-explorer/internal/httputil"
)

func (s *Server) handleListPeers(w http.ResponseWriter, r *http.Request) {
	if !allowedFilters(w, r) {
		return
	}
	page, ok := parsePage(w, r)
	if !ok {
		return
	}

	result, err := s.store.ListPeers(r.Context(), page)
	if err != nil {
		writeStoreError(w, err)
		return
	}

	items := make([]peerResponse, 0, len(result.Items))
	for _, p := range result.Items {
		items = append(items, newPeerResponse(p))
	}
	httputil.WriteJSON(w, http.StatusOK, httputil.NewPage(items, result.Pagination.PageNumber, result.Pagination.PageSize, result.Pagination.TotalItems))
}

// peerStatusResponse mirrors chain.Status with the explorer's big-integer
// wire convention.
type peerStatusResponse struct {
	PeerCount     BigInt `json:"peers"`
	BlockHeight   BigInt `json:"blocks"`
	TxsAccepted   BigInt `json:"txs_accepted"`
	TxsRejected   BigInt `json:"txs_rejected"`
	ViewChanges   BigInt `json:"view_changes"`
	UptimeSeconds BigInt `json:"uptime_seconds"`
	UptimeNanos   BigInt `json:"uptime_nanos"`
	QueueDepth    BigInt `json:"queue_depth"`
}

// handlePeerStatus issues a live probe against the configured primary chain
// peer (not the telemetry ring buffer, which may be a second or more
// stale): a quick "is the chain reachable right now" check for operators.
func (s *Server) handlePeerStatus(w http.ResponseWriter, r *http.Request) {
	if s.primary == nil {
		writeUpstreamUnavailable(w)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
	defer cancel()

	status, err := s.primary.Status(ctx)
	if err != nil {
		writeUpstreamUnavailable(w)
		return
	}

	httputil.WriteJSON(w, http.StatusOK, peerStatusResponse{
		PeerCount:     BigInt(status.PeerCount),
		BlockHeight:   BigInt(status.BlockHeight),
		TxsAccepted:   BigInt(status.TxsAccepted),
		TxsRejected:   BigInt(status.TxsRejected),
		ViewChanges:   BigInt(status.ViewChanges),
		UptimeSeconds: BigInt(status.UptimeSeconds),
		UptimeNanos:   BigInt(status.UptimeNanos),
		QueueDepth:    BigInt(status.QueueDepth),
	})
}
