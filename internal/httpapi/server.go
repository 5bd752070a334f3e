// Package httpapi is the explorer's HTTP surface (C6): it routes REST
// requests to the repository and telemetry aggregator, parses pagination
// and composite ids, and maps store/telemetry errors to status codes.
package httpapi

import (
	"context"
	"net/http"
	"time"

	"github.com/gorilla/mux"

	"github.com/soramitsu/iroha-explorer/internal/chain"
	"github.com/soramitsu/iroha-explorer/internal/ingest"
	"github.com/soramitsu/iroha-explorer/internal/logging"
	"github.com/soramitsu/iroha-explorer/internal/metrics"
	"github.com/soramitsu/iroha-explorer/internal/store"
	"github.com/soramitsu/iroha-explorer/internal/telemetry"
)

// Readiness reports whether the ingest pipeline has completed at least one
// bootstrap, gating /api/ready. *ingest.Supervisor satisfies it.
type Readiness interface {
	Ready() bool
}

// Server holds every dependency the HTTP surface reads from. None of them
// are owned by Server — it is a thin routing layer over the repository and
// telemetry aggregator the caller constructs and shuts down independently.
type Server struct {
	store      *store.Store
	telemetry  *telemetry.Aggregator
	supervisor Readiness
	primary    *chain.Client // used only by GET /peer/status's live probe
	log        *logging.Logger
	metrics    *metrics.Metrics
	startedAt  time.Time

	router *mux.Router
}

// Config constructs a Server.
type Config struct {
	Store      *store.Store
	Telemetry  *telemetry.Aggregator // nil when --no-telemetry
	Supervisor *ingest.Supervisor
	Primary    *chain.Client
	Log        *logging.Logger
	Metrics    *metrics.Metrics
}

// New builds a Server and mounts its routes.
func New(cfg Config) *Server {
	s := &Server{
		store:      cfg.Store,
		telemetry:  cfg.Telemetry,
		supervisor: cfg.Supervisor,
		primary:    cfg.Primary,
		log:        cfg.Log,
		metrics:    cfg.Metrics,
		startedAt:  time.Now(),
	}
	s.router = s.buildRouter()
	return s
}

// Handler returns the server's root http.Handler, wrapped with the
// explorer's standard middleware chain (request id, access log, metrics,
// panic recovery).
func (s *Server) Handler() http.Handler {
	return withRequestID(withAccessLog(s.log, withMetrics(s.metrics, withRecover(s.log, s.router))))
}

// ListenAndServe starts an http.Server bound to addr and runs it until ctx
// is cancelled, then shuts it down gracefully.
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	}
}
