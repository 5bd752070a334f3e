package telemetry

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/soramitsu/iroha-explorer/internal/chain"
	"github.com/soramitsu/iroha-explorer/internal/logging"
	"github.com/soramitsu/iroha-explorer/internal/metrics"
	"github.com/soramitsu/iroha-explorer/internal/resilience"
)

// Config tunes the aggregator's polling cadence and ring-buffer sizing. The
// zero value is replaced with DefaultConfig's values by New.
type Config struct {
	StatusInterval        time.Duration // default 1s, per spec.md §4.5
	MetricsInterval       time.Duration // default 5s
	PollTimeout           time.Duration // default 2s, per-call timeout
	BufferCapacity        int           // default 1024 samples per peer
	UnreachableThreshold  int           // consecutive failures before status flips; default 3
}

// DefaultConfig returns the polling cadence spec.md §4.5 names explicitly.
func DefaultConfig() Config {
	return Config{
		StatusInterval:       time.Second,
		MetricsInterval:      5 * time.Second,
		PollTimeout:          2 * time.Second,
		BufferCapacity:       1024,
		UnreachableThreshold: 3,
	}
}

func (c Config) withDefaults() Config {
	d := DefaultConfig()
	if c.StatusInterval <= 0 {
		c.StatusInterval = d.StatusInterval
	}
	if c.MetricsInterval <= 0 {
		c.MetricsInterval = d.MetricsInterval
	}
	if c.PollTimeout <= 0 {
		c.PollTimeout = d.PollTimeout
	}
	if c.BufferCapacity <= 0 {
		c.BufferCapacity = d.BufferCapacity
	}
	if c.UnreachableThreshold <= 0 {
		c.UnreachableThreshold = d.UnreachableThreshold
	}
	return c
}

// Aggregator runs one poller per configured peer, feeding a shared set of
// per-peer ring buffers. Reads (Snapshot, SamplesSince) and pollers only
// ever wait on each other briefly: each peerState's RWMutex is held briefly.
type Aggregator struct {
	cfg     Config
	log     *logging.Logger
	metrics *metrics.Metrics

	mu    sync.RWMutex
	peers map[string]*peerState

	wg sync.WaitGroup
}

// New creates an Aggregator. Start launches its pollers.
func New(cfg Config, log *logging.Logger, m *metrics.Metrics) *Aggregator {
	return &Aggregator{
		cfg:     cfg.withDefaults(),
		log:     log,
		metrics: m,
		peers:   make(map[string]*peerState),
	}
}

// Start launches one poller goroutine per client, keyed by its peer URL.
// Start returns immediately; call Stop (or cancel ctx) to join the pollers.
func (a *Aggregator) Start(ctx context.Context, clients map[string]*chain.Client) {
	a.mu.Lock()
	for url := range clients {
		if _, ok := a.peers[url]; !ok {
			a.peers[url] = newPeerState(a.cfg.BufferCapacity)
		}
	}
	a.mu.Unlock()

	for url, client := range clients {
		url, client := url, client
		state := a.peers[url]
		a.wg.Add(1)
		go func() {
			defer a.wg.Done()
			a.pollStatus(ctx, url, client, state)
		}()
		a.wg.Add(1)
		go func() {
			defer a.wg.Done()
			a.pollMetrics(ctx, url, client, state)
		}()
	}
}

// Stop waits for every poller goroutine to exit. Callers cancel the context
// passed to Start first; Stop only joins.
func (a *Aggregator) Stop() {
	a.wg.Wait()
}

func (a *Aggregator) pollStatus(ctx context.Context, url string, client *chain.Client, state *peerState) {
	ticker := time.NewTicker(a.cfg.StatusInterval)
	defer ticker.Stop()

	poll := func() {
		callCtx, cancel := context.WithTimeout(ctx, a.cfg.PollTimeout)
		defer cancel()

		start := time.Now()
		status, err := client.Status(callCtx)
		if a.metrics != nil {
			a.metrics.TelemetryPollDuration.WithLabelValues(url).Observe(time.Since(start).Seconds())
		}
		if err != nil {
			state.recordFailure(a.cfg.UnreachableThreshold)
			if a.metrics != nil {
				a.metrics.TelemetryPollFailuresTotal.WithLabelValues(url).Inc()
			}
			if a.log != nil {
				a.log.WithFields(map[string]interface{}{"peer": url}).WithError(err).Warn("telemetry: status poll failed")
			}
			return
		}
		state.recordSample(Sample{
			Timestamp:     time.Now().UTC(),
			PeerCount:     status.PeerCount,
			BlockHeight:   status.BlockHeight,
			TxsAccepted:   status.TxsAccepted,
			TxsRejected:   status.TxsRejected,
			ViewChanges:   status.ViewChanges,
			UptimeSeconds: status.UptimeSeconds,
			UptimeNanos:   status.UptimeNanos,
			QueueDepth:    status.QueueDepth,
		})
	}

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			poll()
		}
	}
}

func (a *Aggregator) pollMetrics(ctx context.Context, url string, client *chain.Client, state *peerState) {
	ticker := time.NewTicker(a.cfg.MetricsInterval)
	defer ticker.Stop()

	poll := func() {
		callCtx, cancel := context.WithTimeout(ctx, a.cfg.PollTimeout)
		defer cancel()

		raw, err := client.MetricsRaw(callCtx)
		if err != nil {
			if a.log != nil {
				a.log.WithFields(map[string]interface{}{"peer": url}).WithError(err).Warn("telemetry: metrics poll failed")
			}
			return
		}
		state.recordMetrics(raw)
	}

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			poll()
		}
	}
}

// RetryBackoffHint returns a full-jitter delay for the given retry attempt,
// using the same policy (resilience.DefaultRetryConfig) as the ingest
// supervisor's Reconnect state. The aggregator's own pollers do not use it,
// and no caller in this module does.
func RetryBackoffHint(attempt int) time.Duration {
	cfg := resilience.DefaultRetryConfig()
	return resilience.FullJitterDelay(cfg.InitialDelay, cfg.MaxDelay, attempt)
}

// Snapshot composes a fleet-wide view: every peer's latest sample plus
// derived aggregates (max/min block height across peers, reachable count).
func (a *Aggregator) Snapshot() FleetSnapshot {
	a.mu.RLock()
	urls := make([]string, 0, len(a.peers))
	for url := range a.peers {
		urls = append(urls, url)
	}
	a.mu.RUnlock()
	sort.Strings(urls)

	var fleet FleetSnapshot
	first := true
	for _, url := range urls {
		a.mu.RLock()
		state := a.peers[url]
		a.mu.RUnlock()

		snap := state.snapshot()
		snap.URL = url
		fleet.Peers = append(fleet.Peers, snap)

		if snap.Status == StatusReachable {
			fleet.ReachableCount++
		}
		if snap.Latest != nil {
			if first {
				fleet.MaxBlockHeight = snap.Latest.BlockHeight
				fleet.MinBlockHeight = snap.Latest.BlockHeight
				first = false
			} else {
				if snap.Latest.BlockHeight > fleet.MaxBlockHeight {
					fleet.MaxBlockHeight = snap.Latest.BlockHeight
				}
				if snap.Latest.BlockHeight < fleet.MinBlockHeight {
					fleet.MinBlockHeight = snap.Latest.BlockHeight
				}
			}
		}
	}
	return fleet
}

// SamplesSince returns peerURL's samples newer than since, oldest first, or
// ok=false if no such peer is configured.
func (a *Aggregator) SamplesSince(peerURL string, since time.Time) (samples []Sample, ok bool) {
	a.mu.RLock()
	state, found := a.peers[peerURL]
	a.mu.RUnlock()
	if !found {
		return nil, false
	}
	return state.samplesSince(since), true
}

// Peers returns the set of configured peer URLs, sorted.
func (a *Aggregator) Peers() []string {
	a.mu.RLock()
	defer a.mu.RUnlock()
	urls := make([]string, 0, len(a.peers))
	for url := range a.peers {
		urls = append(urls, url)
	}
	sort.Strings(urls)
	return urls
}
