package httpapi

import (
	"net/http"
	"net/url"
	"time"

	"github.com/gorilla/mux"

	"github.com/soramitsu/iroha-explorer/internal/httputil"
	"github.com/soramitsu/iroha-explorer/internal/telemetry"
)

type telemetrySampleResponse struct {
	Timestamp     Timestamp `json:"timestamp"`
	PeerCount     BigInt    `json:"peer_count"`
	BlockHeight   BigInt    `json:"block_height"`
	TxsAccepted   BigInt    `json:"txs_accepted"`
	TxsRejected   BigInt    `json:"txs_rejected"`
	ViewChanges   BigInt    `json:"view_changes"`
	UptimeSeconds BigInt    `json:"uptime_seconds"`
	UptimeNanos   BigInt    `json:"uptime_nanos"`
	QueueDepth    BigInt    `json:"queue_depth"`
}

func newTelemetrySampleResponse(s telemetry.Sample) telemetrySampleResponse {
	return telemetrySampleResponse{
		Timestamp:     newTimestamp(s.Timestamp),
		PeerCount:     BigInt(s.PeerCount),
		BlockHeight:   BigInt(s.BlockHeight),
		TxsAccepted:   BigInt(s.TxsAccepted),
		TxsRejected:   BigInt(s.TxsRejected),
		ViewChanges:   BigInt(s.ViewChanges),
		UptimeSeconds: BigInt(s.UptimeSeconds),
		UptimeNanos:   BigInt(s.UptimeNanos),
		QueueDepth:    BigInt(s.QueueDepth),
	}
}

type telemetryPeerResponse struct {
	URL      string                   `json:"url"`
	Status   string                   `json:"status"`
	Latest   *telemetrySampleResponse `json:"latest"`
	LastSeen *Timestamp               `json:"last_seen,omitempty"`
}

func newTelemetryPeerResponse(p telemetry.PeerSnapshot) telemetryPeerResponse {
	resp := telemetryPeerResponse{URL: p.URL, Status: string(p.Status)}
	if p.Latest != nil {
		s := newTelemetrySampleResponse(*p.Latest)
		resp.Latest = &s
	}
	if !p.LastSeen.IsZero() {
		ts := newTimestamp(p.LastSeen)
		resp.LastSeen = &ts
	}
	return resp
}

type telemetryFleetResponse struct {
	Peers          []telemetryPeerResponse `json:"peers"`
	MaxBlockHeight BigInt                  `json:"max_block_height"`
	MinBlockHeight BigInt                  `json:"min_block_height"`
	ReachableCount int                     `json:"reachable_count"`
}

// handleTelemetryFleet composes a fleet-wide view across every configured
// peer: each peer's latest sample plus derived aggregates. Unreachable
// peers degrade into status "unreachable" rather than failing the whole
// response (TelemetryPartial in the error taxonomy).
func (s *Server) handleTelemetryFleet(w http.ResponseWriter, r *http.Request) {
	if !allowedFilters(w, r) {
		return
	}
	if s.telemetry == nil {
		httputil.WriteJSON(w, http.StatusOK, telemetryFleetResponse{Peers: []telemetryPeerResponse{}})
		return
	}

	fleet := s.telemetry.Snapshot()
	peers := make([]telemetryPeerResponse, 0, len(fleet.Peers))
	for _, p := range fleet.Peers {
		peers = append(peers, newTelemetryPeerResponse(p))
	}

	httputil.WriteJSON(w, http.StatusOK, telemetryFleetResponse{
		Peers:          peers,
		MaxBlockHeight: BigInt(fleet.MaxBlockHeight),
		MinBlockHeight: BigInt(fleet.MinBlockHeight),
		ReachableCount: fleet.ReachableCount,
	})
}

// handleTelemetrySamples returns peerURL's samples newer than ?since=,
// oldest first.
func (s *Server) handleTelemetrySamples(w http.ResponseWriter, r *http.Request) {
	if !allowedFilters(w, r, "since") {
		return
	}
	rawURL := mux.Vars(r)["url"]
	peerURL, err := url.QueryUnescape(rawURL)
	if err != nil {
		httputil.BadRequest(w, "invalid peer url")
		return
	}

	since := time.Time{}
	if raw := r.URL.Query().Get("since"); raw != "" {
		t, err := time.Parse(time.RFC3339, raw)
		if err != nil {
			httputil.BadRequest(w, "since must be an RFC3339 timestamp")
			return
		}
		since = t
	}

	if s.telemetry == nil {
		httputil.NotFound(w, "")
		return
	}

	samples, ok := s.telemetry.SamplesSince(peerURL, since)
	if !ok {
		httputil.WriteJSON(w, http.StatusNotFound, notFoundBody{Error: "not found", Entity: "peer", ID: peerURL})
		return
	}

	items := make([]telemetrySampleResponse, 0, len(samples))
	for _, sm := range samples {
		items = append(items, newTelemetrySampleResponse(sm))
	}
	httputil.WriteJSON(w, http.StatusOK, items)
}
