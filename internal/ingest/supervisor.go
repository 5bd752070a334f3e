// Package ingest drives the explorer's ingest lifecycle: bootstrap a fresh
// store from genesis, then tail the peer's live block stream, reconnecting
// with backoff on fault. It owns the store's sole writer path.
package ingest

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/soramitsu/iroha-explorer/internal/chain"
	"github.com/soramitsu/iroha-explorer/internal/logging"
	"github.com/soramitsu/iroha-explorer/internal/metrics"
	"github.com/soramitsu/iroha-explorer/internal/reducer"
	"github.com/soramitsu/iroha-explorer/internal/resilience"
	"github.com/soramitsu/iroha-explorer/internal/store"
)

// State names the supervisor's lifecycle stage, per the state machine
// Init -> Reset -> Bootstrap -> Live -> (on fault) Reconnect -> Reset | Live.
type State string

const (
	StateInit      State = "init"
	StateReset     State = "reset"
	StateBootstrap State = "bootstrap"
	StateLive      State = "live"
	StateReconnect State = "reconnect"
)

// allStates is the label set SetIngestState exports.
var allStates = []string{string(StateInit), string(StateReset), string(StateBootstrap), string(StateLive), string(StateReconnect)}

// Config configures a Supervisor.
type Config struct {
	Retry resilience.RetryConfig // backoff policy for Reconnect; zero value uses resilience.DefaultRetryConfig
}

// Supervisor is the single task that owns the store's write path. It is not
// safe for concurrent use of Run by more than one goroutine.
type Supervisor struct {
	client  *chain.Client
	store   *store.Store
	reducer *reducer.Reducer
	log     *logging.Logger
	metrics *metrics.Metrics
	cfg     Config

	mu                 sync.Mutex
	state              State
	lastAppliedHeight  uint64
	ready              bool
}

// New creates a Supervisor driving ingest from client into store.
func New(client *chain.Client, st *store.Store, red *reducer.Reducer, log *logging.Logger, m *metrics.Metrics, cfg Config) *Supervisor {
	if cfg.Retry == (resilience.RetryConfig{}) {
		cfg.Retry = resilience.DefaultRetryConfig()
	}
	return &Supervisor{
		client:  client,
		store:   st,
		reducer: red,
		log:     log,
		metrics: m,
		cfg:     cfg,
		state:   StateInit,
	}
}

// Ready reports whether Bootstrap has completed at least once. C6 gates
// /api/ready on this.
func (s *Supervisor) Ready() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.ready
}

// State returns the supervisor's current lifecycle stage.
func (s *Supervisor) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// LastAppliedHeight returns the height of the last block committed to the store.
func (s *Supervisor) LastAppliedHeight() uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastAppliedHeight
}

func (s *Supervisor) setState(state State) {
	s.mu.Lock()
	s.state = state
	s.mu.Unlock()
	if s.metrics != nil {
		s.metrics.SetIngestState(allStates, string(state))
	}
	if s.log != nil {
		s.log.WithFields(map[string]interface{}{"state": string(state)}).Info("ingest: state transition")
	}
}

func (s *Supervisor) setLastAppliedHeight(h uint64) {
	s.mu.Lock()
	s.lastAppliedHeight = h
	s.mu.Unlock()
	if s.metrics != nil {
		s.metrics.IngestLastAppliedHeight.Set(float64(h))
	}
}

func (s *Supervisor) markReady() {
	s.mu.Lock()
	s.ready = true
	s.mu.Unlock()
}

// Run drives the supervisor state machine until ctx is cancelled. It never
// returns nil: it returns ctx.Err() on cancellation, or the error that
// stopped it (a failed store reset, or a reconnect retry that gave up).
func (s *Supervisor) Run(ctx context.Context) error {
	s.setState(StateInit)

	for {
		if ctx.Err() != nil {
			return ctx.Err()
		}

		s.setState(StateReset)
		if err := s.store.Reset(ctx); err != nil {
			return fmt.Errorf("ingest: reset store: %w", err)
		}
		s.setLastAppliedHeight(0)

		if err := s.bootstrapAndLive(ctx); err != nil {
			if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
				return err
			}
			s.log.WithError(err).Warn("ingest: stream ended, reconnecting")
		}

		s.setState(StateReconnect)
		if s.metrics != nil {
			s.metrics.IngestReconnectsTotal.Inc()
		}
		if err := resilience.Retry(ctx, s.cfg.Retry, func() error {
			// A single successful Status() call signals the peer is reachable
			// again; the outer loop always restarts from height 1 regardless.
			_, err := s.client.Status(ctx)
			return err
		}); err != nil {
			return err
		}
	}
}

// bootstrapAndLive opens one subscription from height 1 and applies blocks
// until the stream ends (error, close, or a detected gap).
func (s *Supervisor) bootstrapAndLive(ctx context.Context) error {
	s.setState(StateBootstrap)

	blocks, errs, err := s.client.SubscribeBlocks(ctx, 1)
	if err != nil {
		return fmt.Errorf("ingest: subscribe: %w", err)
	}

	bootstrapped := false

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()

		case err, ok := <-errs:
			if !ok {
				return nil
			}
			return err

		case block, ok := <-blocks:
			if !ok {
				return nil
			}

			expected := s.LastAppliedHeight() + 1
			if block.Height != expected {
				return fmt.Errorf("ingest: height gap: expected %d, got %d", expected, block.Height)
			}

			if err := s.applyBlock(ctx, block); err != nil {
				if s.metrics != nil {
					s.metrics.IngestReducerErrorsTotal.WithLabelValues("reduce").Inc()
				}
				return err
			}

			if !bootstrapped {
				bootstrapped = true
				s.markReady()
				s.setState(StateLive)
			}
		}
	}
}

// applyBlock reduces and commits exactly one block, serialized against any
// other writer via the Supervisor's identity as sole caller of store.Apply.
func (s *Supervisor) applyBlock(ctx context.Context, block *chain.Block) error {
	batch, err := s.reducer.Reduce(ctx, s.store, block)
	if err != nil {
		var rerr *reducer.ReducerError
		if errors.As(err, &rerr) {
			s.log.WithFields(map[string]interface{}{
				"transaction_hash": rerr.TransactionHash,
				"instruction":      rerr.Instruction,
			}).WithError(rerr.Err).Error("ingest: block reduction failed")
		}
		return fmt.Errorf("ingest: reduce block %d: %w", block.Height, err)
	}

	if err := s.store.Apply(ctx, batch); err != nil {
		if s.metrics != nil {
			s.metrics.IngestReducerErrorsTotal.WithLabelValues("apply").Inc()
		}
		return fmt.Errorf("ingest: apply block %d: %w", block.Height, err)
	}

	s.setLastAppliedHeight(block.Height)
	if s.metrics != nil {
		s.metrics.IngestBlocksAppliedTotal.Inc()
	}
	s.log.LogIngestEvent(ctx, string(StateLive), block.Height, nil)
	return nil
}

// Bootstrap runs the supervisor until Bootstrap completes once, then returns
// without entering Live. Used by the `scan` CLI command and sample-fixture
// ingestion, where only a one-shot replay is wanted.
func (s *Supervisor) Bootstrap(ctx context.Context, fromHeight uint64, blocks <-chan *chain.Block) error {
	s.setState(StateBootstrap)
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case block, ok := <-blocks:
			if !ok {
				s.markReady()
				return nil
			}
			expected := s.LastAppliedHeight() + 1
			if block.Height != expected {
				return fmt.Errorf("ingest: height gap: expected %d, got %d", expected, block.Height)
			}
			if err := s.applyBlock(ctx, block); err != nil {
				return err
			}
		}
	}
}
