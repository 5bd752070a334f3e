// Package chain provides a thin wrapper over a permissioned chain peer's
// torii interface: world-state queries, a live block-stream subscription,
// and peer status/metrics polling.
package chain

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/gorilla/websocket"
	"golang.org/x/time/rate"

	"github.com/soramitsu/iroha-explorer/internal/httputil"
	"github.com/soramitsu/iroha-explorer/internal/resilience"
)

// Config holds chain-client configuration.
type Config struct {
	BaseURL    string
	Timeout    time.Duration
	HTTPClient *http.Client
	// QueryRateLimit caps outbound Query, Status and MetricsRaw calls per
	// second. Zero disables throttling.
	QueryRateLimit rate.Limit
}

// Client talks to a single chain peer's torii endpoints.
type Client struct {
	baseURL    string
	httpClient *http.Client
	limiter    *rate.Limiter
	breaker    *resilience.CircuitBreaker
}

// NewClient creates a client bound to a single peer's torii base URL.
func NewClient(cfg Config) (*Client, error) {
	if cfg.BaseURL == "" {
		return nil, fmt.Errorf("chain: base URL required")
	}

	normalizedURL, _, err := httputil.NormalizeBaseURL(cfg.BaseURL)
	if err != nil {
		return nil, fmt.Errorf("chain: invalid base URL: %w", err)
	}

	timeout := cfg.Timeout
	if timeout == 0 {
		timeout = 10 * time.Second
	}
	forceTimeout := cfg.Timeout != 0

	httpClient := cfg.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{
			Timeout:   timeout,
			Transport: httputil.DefaultTransportWithMinTLS12(),
		}
	} else {
		httpClient = httputil.CopyHTTPClientWithTimeout(httpClient, timeout, forceTimeout)
	}

	var limiter *rate.Limiter
	if cfg.QueryRateLimit > 0 {
		limiter = rate.NewLimiter(cfg.QueryRateLimit, 1)
	}

	return &Client{
		baseURL:    normalizedURL,
		httpClient: httpClient,
		limiter:    limiter,
		breaker:    resilience.New(resilience.DefaultConfig()),
	}, nil
}

// BreakerState reports the circuit breaker's current state. No caller in
// this module reads it.
func (c *Client) BreakerState() resilience.State { return c.breaker.State() }

// BaseURL returns the peer's normalized torii base URL.
func (c *Client) BaseURL() string { return c.baseURL }

func (c *Client) get(ctx context.Context, path string, query url.Values) (json.RawMessage, error) {
	if c.limiter != nil {
		if err := c.limiter.Wait(ctx); err != nil {
			return nil, err
		}
	}

	u := c.baseURL + path
	if len(query) > 0 {
		u += "?" + query.Encode()
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return nil, fmt.Errorf("chain: build request: %w", err)
	}

	var body json.RawMessage
	err = c.breaker.Execute(ctx, func() error {
		resp, err := c.httpClient.Do(req)
		if err != nil {
			return classifyTransportError(err)
		}
		defer resp.Body.Close()

		if resp.StatusCode == http.StatusServiceUnavailable || resp.StatusCode == http.StatusGone {
			return ErrPeerGone
		}
		if resp.StatusCode < 200 || resp.StatusCode >= 300 {
			b, _, _ := httputil.ReadAllWithLimit(resp.Body, 4<<10)
			return fmt.Errorf("chain: http %d from %s: %s", resp.StatusCode, path, strings.TrimSpace(string(b)))
		}

		b, err := httputil.ReadAllStrict(resp.Body, 16<<20)
		if err != nil {
			return fmt.Errorf("%w: %v", ErrDecode, err)
		}
		body = b
		return nil
	})
	if errors.Is(err, resilience.ErrCircuitOpen) {
		return nil, ErrPeerGone
	}
	if err != nil {
		return nil, err
	}
	return body, nil
}

func classifyTransportError(err error) error {
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return fmt.Errorf("%w: %v", ErrTimeout, err)
	}
	if strings.Contains(err.Error(), "connection refused") {
		return fmt.Errorf("%w: %v", ErrConnectRefused, err)
	}
	return err
}

// Query forwards a world-state query to the peer and returns the SDK-native
// page shape.
func (c *Client) Query(ctx context.Context, kind string, filters url.Values) (*QueryResult, error) {
	query := url.Values{}
	for k, v := range filters {
		query[k] = v
	}
	query.Set("kind", kind)

	body, err := c.get(ctx, "/query", query)
	if err != nil {
		return nil, err
	}

	var result QueryResult
	if err := json.Unmarshal(body, &result); err != nil {
		return nil, fmt.Errorf("%w: decode query result: %v", ErrDecode, err)
	}
	return &result, nil
}

// Status fetches the peer's liveness document.
func (c *Client) Status(ctx context.Context) (*Status, error) {
	body, err := c.get(ctx, "/status", nil)
	if err != nil {
		return nil, err
	}
	var status Status
	if err := json.Unmarshal(body, &status); err != nil {
		return nil, fmt.Errorf("%w: decode status: %v", ErrDecode, err)
	}
	return &status, nil
}

// MetricsRaw returns the peer's /metrics endpoint content verbatim
// (Prometheus text exposition format), for passthrough re-export.
func (c *Client) MetricsRaw(ctx context.Context) (string, error) {
	if c.limiter != nil {
		if err := c.limiter.Wait(ctx); err != nil {
			return "", err
		}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/metrics", nil)
	if err != nil {
		return "", fmt.Errorf("chain: build request: %w", err)
	}

	var body []byte
	err = c.breaker.Execute(ctx, func() error {
		resp, err := c.httpClient.Do(req)
		if err != nil {
			return classifyTransportError(err)
		}
		defer resp.Body.Close()

		if resp.StatusCode < 200 || resp.StatusCode >= 300 {
			return fmt.Errorf("chain: metrics http %d", resp.StatusCode)
		}
		b, err := httputil.ReadAllStrict(resp.Body, 4<<20)
		if err != nil {
			return fmt.Errorf("%w: %v", ErrDecode, err)
		}
		body = b
		return nil
	})
	if errors.Is(err, resilience.ErrCircuitOpen) {
		return "", ErrPeerGone
	}
	if err != nil {
		return "", err
	}
	return string(body), nil
}

// blockStreamRequest is sent once after dialing to name the starting height.
type blockStreamRequest struct {
	FromHeight uint64 `json:"from_height"`
}

// SubscribeBlocks opens a long-lived subscription yielding decoded committed
// blocks in ascending height order starting at fromHeight. The returned
// channel is closed when ctx is cancelled or the connection is lost; the
// caller inspects the returned error channel to distinguish the two.
func (c *Client) SubscribeBlocks(ctx context.Context, fromHeight uint64) (<-chan *Block, <-chan error, error) {
	wsURL, err := toWebsocketURL(c.baseURL + "/block/stream")
	if err != nil {
		return nil, nil, fmt.Errorf("chain: %w", err)
	}

	dialer := websocket.Dialer{HandshakeTimeout: 10 * time.Second}
	var conn *websocket.Conn
	dialErr := c.breaker.Execute(ctx, func() error {
		var resp *http.Response
		var err error
		conn, resp, err = dialer.DialContext(ctx, wsURL, nil)
		if err != nil {
			if resp != nil && resp.StatusCode == http.StatusServiceUnavailable {
				return ErrPeerGone
			}
			return classifyTransportError(err)
		}
		if resp != nil {
			resp.Body.Close()
		}
		return nil
	})
	if errors.Is(dialErr, resilience.ErrCircuitOpen) {
		return nil, nil, ErrPeerGone
	}
	if dialErr != nil {
		return nil, nil, dialErr
	}

	if err := conn.WriteJSON(blockStreamRequest{FromHeight: fromHeight}); err != nil {
		conn.Close()
		return nil, nil, fmt.Errorf("chain: send subscription request: %w", err)
	}

	blocks := make(chan *Block)
	errs := make(chan error, 1)

	go func() {
		defer close(blocks)
		defer close(errs)
		defer conn.Close()

		go func() {
			<-ctx.Done()
			conn.Close()
		}()

		for {
			_, msg, err := conn.ReadMessage()
			if err != nil {
				if ctx.Err() != nil {
					return
				}
				errs <- classifyTransportError(err)
				return
			}

			var block Block
			if err := json.Unmarshal(msg, &block); err != nil {
				errs <- fmt.Errorf("%w: decode block: %v", ErrDecode, err)
				return
			}

			select {
			case blocks <- &block:
			case <-ctx.Done():
				return
			}
		}
	}()

	return blocks, errs, nil
}

func toWebsocketURL(httpURL string) (string, error) {
	u, err := url.Parse(httpURL)
	if err != nil {
		return "", fmt.Errorf("invalid stream URL: %w", err)
	}
	switch u.Scheme {
	case "http":
		u.Scheme = "ws"
	case "https":
		u.Scheme = "wss"
	default:
		return "", fmt.Errorf("unsupported scheme %q", u.Scheme)
	}
	return u.String(), nil
}
