package httpapi

import "net/http"

// handleHealth answers the literal body "healthy" with 200, per spec.md §4.6.
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("healthy"))
}

// handleReady answers 200 iff the ingest supervisor has completed at least
// one bootstrap, 503 otherwise.
func (s *Server) handleReady(w http.ResponseWriter, r *http.Request) {
	if s.supervisor == nil || !s.supervisor.Ready() {
		writeUpstreamUnavailable(w)
		return
	}
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ready"))
}
