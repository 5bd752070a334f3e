// Command explorer runs the Iroha Explorer backend: it dispatches to one of
// a handful of subcommands (serve, scan, serve-sample) the same way the
// teacher's slctl dispatches its own subcommands from a flag-based switch.
package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"sync"
	"syscall"
	"time"

	"github.com/soramitsu/iroha-explorer/internal/chain"
	"github.com/soramitsu/iroha-explorer/internal/config"
	"github.com/soramitsu/iroha-explorer/internal/httpapi"
	"github.com/soramitsu/iroha-explorer/internal/ingest"
	"github.com/soramitsu/iroha-explorer/internal/logging"
	"github.com/soramitsu/iroha-explorer/internal/metrics"
	"github.com/soramitsu/iroha-explorer/internal/reducer"
	"github.com/soramitsu/iroha-explorer/internal/sample"
	"github.com/soramitsu/iroha-explorer/internal/store"
	"github.com/soramitsu/iroha-explorer/internal/telemetry"
	"github.com/soramitsu/iroha-explorer/internal/version"
)

func main() {
	if err := run(context.Background(), os.Args[1:]); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, args []string) error {
	if len(args) == 0 {
		printUsage()
		return &config.ConfigError{Field: "command", Message: "no command specified"}
	}

	switch args[0] {
	case "--version", "-version":
		fmt.Println(version.FullVersion())
		return nil
	case "help", "-h", "--help":
		printUsage()
		return nil
	case "serve":
		return runServe(ctx, args[1:])
	case "serve-sample":
		return runServeSample(ctx, args[1:])
	case "scan":
		return runScan(ctx, args[1:])
	default:
		printUsage()
		return &config.ConfigError{Field: "command", Message: fmt.Sprintf("unknown command %q", args[0])}
	}
}

func printUsage() {
	fmt.Fprintln(os.Stderr, `iroha-explorer: read-only observability backend for a permissioned chain network

Usage:
  explorer serve [--port] [--torii-urls] [--account] [--account-private-key] [--no-telemetry] [--store-path]
  explorer serve-sample [--port]
  explorer scan <path> --torii-urls=<url>
  explorer help
  explorer --version`)
}

// runServe wires chain, store, reducer, ingest, telemetry and the HTTP
// surface together and runs until SIGINT/SIGTERM, per spec.md §6's `serve`.
func runServe(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("serve", flag.ContinueOnError)
	port := fs.Int("port", 0, "HTTP listen port (env PORT, default 8080)")
	toriiURLs := fs.String("torii-urls", "", "comma-separated peer torii base URLs (env IROHA_EXPLORER_TORII_URLS)")
	account := fs.String("account", "", "explorer's Iroha account id (env IROHA_EXPLORER_ACCOUNT)")
	accountKey := fs.String("account-private-key", "", "explorer's Iroha account private key (env IROHA_EXPLORER_ACCOUNT_PRIVATE_KEY)")
	noTelemetry := fs.Bool("no-telemetry", false, "disable the telemetry aggregator")
	storePath := fs.String("store-path", "", "SQLite database path (env IROHA_EXPLORER_STORE_PATH, default :memory:)")
	if err := fs.Parse(args); err != nil {
		return err
	}

	if err := config.LoadDotEnv(""); err != nil {
		return err
	}

	overrides := config.FlagOverrides{NoTelemetry: noTelemetry}
	if *port != 0 {
		overrides.Port = port
	}
	if strings.TrimSpace(*toriiURLs) != "" {
		overrides.ToriiURLs = toriiURLs
	}
	if strings.TrimSpace(*account) != "" {
		overrides.Account = account
	}
	if strings.TrimSpace(*accountKey) != "" {
		overrides.AccountPrivateKey = accountKey
	}
	if strings.TrimSpace(*storePath) != "" {
		overrides.StorePath = storePath
	}

	cfg, err := config.Load(overrides)
	if err != nil {
		return err
	}
	if err := cfg.ValidateServe(); err != nil {
		return err
	}

	log := logging.New("explorer", cfg.LogLevel, cfg.LogFormat)
	m := metrics.Init("iroha_explorer")

	st, err := store.Open(ctx, store.DefaultConfig(cfg.StorePath))
	if err != nil {
		return fmt.Errorf("open store: %w", err)
	}
	defer st.Close()

	clients := make(map[string]*chain.Client, len(cfg.ToriiURLs))
	for _, u := range cfg.ToriiURLs {
		c, err := chain.NewClient(chain.Config{BaseURL: u})
		if err != nil {
			return fmt.Errorf("connect torii peer %s: %w", u, err)
		}
		clients[u] = c
	}
	primary := clients[cfg.ToriiURLs[0]]

	red := reducer.New(log)
	sup := ingest.New(primary, st, red, log, m, ingest.Config{})

	var telem *telemetry.Aggregator
	if !cfg.NoTelemetry {
		telem = telemetry.New(telemetry.DefaultConfig(), log, m)
		telem.Start(ctx, clients)
		defer telem.Stop()
	}

	srv := httpapi.New(httpapi.Config{
		Store:      st,
		Telemetry:  telem,
		Supervisor: sup,
		Primary:    primary,
		Log:        log,
		Metrics:    m,
	})

	return serveUntilSignal(ctx, log, func(runCtx context.Context) {
		if err := sup.Run(runCtx); err != nil && !errors.Is(err, context.Canceled) {
			log.WithError(err).Error("ingest: supervisor exited")
		}
	}, srv, fmt.Sprintf(":%d", cfg.Port))
}

// runServeSample skips chain connectivity entirely: it seeds the store from
// the bundled wonderland fixture once, then serves the HTTP surface against
// that static world, exactly the code path `internal/sample` exists for.
func runServeSample(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("serve-sample", flag.ContinueOnError)
	port := fs.Int("port", 8080, "HTTP listen port")
	if err := fs.Parse(args); err != nil {
		return err
	}

	log := logging.NewFromEnv("explorer-sample")
	m := metrics.Init("iroha_explorer")

	st, err := store.Open(ctx, store.DefaultConfig(":memory:"))
	if err != nil {
		return fmt.Errorf("open store: %w", err)
	}
	defer st.Close()

	red := reducer.New(log)
	sup, err := sample.Seed(ctx, st, red, log, m)
	if err != nil {
		return fmt.Errorf("seed sample fixture: %w", err)
	}

	srv := httpapi.New(httpapi.Config{
		Store:      st,
		Supervisor: sup,
		Log:        log,
		Metrics:    m,
	})

	return serveUntilSignal(ctx, log, nil, srv, fmt.Sprintf(":%d", *port))
}

// serveUntilSignal starts background (ingest, if non-nil) alongside the HTTP
// server, and blocks until SIGINT/SIGTERM or a fatal server error, then
// shuts both down.
func serveUntilSignal(ctx context.Context, log *logging.Logger, background func(context.Context), srv *httpapi.Server, addr string) error {
	runCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	var wg sync.WaitGroup
	if background != nil {
		wg.Add(1)
		go func() {
			defer wg.Done()
			background(runCtx)
		}()
	}

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(sigCh)
	go func() {
		select {
		case <-sigCh:
			log.WithFields(nil).Info("explorer: received shutdown signal")
			cancel()
		case <-runCtx.Done():
		}
	}()

	log.WithFields(map[string]interface{}{"addr": addr}).Info("httpapi: listening")
	err := srv.ListenAndServe(runCtx, addr)
	cancel()
	wg.Wait()
	if err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("http server: %w", err)
	}
	return nil
}

// runScan bootstraps a fresh store at path from a live peer, dumps a summary
// of the resulting world state to stdout, and exits — a debugging aid, per
// spec.md §6.
func runScan(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("scan", flag.ContinueOnError)
	toriiURLs := fs.String("torii-urls", "", "comma-separated peer torii base URLs")
	if err := fs.Parse(args); err != nil {
		return err
	}
	positional := fs.Args()
	if len(positional) != 1 {
		return &config.ConfigError{Field: "path", Message: "scan requires exactly one positional SQLite path argument"}
	}
	path := positional[0]

	urls := splitCSV(*toriiURLs)
	if len(urls) == 0 {
		return &config.ConfigError{Field: "torii-urls", Message: "scan requires --torii-urls"}
	}

	log := logging.NewFromEnv("explorer-scan")

	st, err := store.Open(ctx, store.DefaultConfig(path))
	if err != nil {
		return fmt.Errorf("open store %s: %w", path, err)
	}
	defer st.Close()

	client, err := chain.NewClient(chain.Config{BaseURL: urls[0]})
	if err != nil {
		return fmt.Errorf("connect torii peer %s: %w", urls[0], err)
	}

	status, err := client.Status(ctx)
	if err != nil {
		return fmt.Errorf("fetch peer status: %w", err)
	}
	target := status.BlockHeight

	scanCtx, cancel := context.WithTimeout(ctx, 5*time.Minute)
	defer cancel()

	blocks, errs, err := client.SubscribeBlocks(scanCtx, 1)
	if err != nil {
		return fmt.Errorf("subscribe to block stream: %w", err)
	}

	relayed := make(chan *chain.Block)
	go relayUntilHeight(scanCtx, blocks, errs, relayed, target)

	red := reducer.New(log)
	sup := ingest.New(client, st, red, log, nil, ingest.Config{})
	if err := sup.Bootstrap(scanCtx, 1, relayed); err != nil {
		return fmt.Errorf("bootstrap scan: %w", err)
	}

	return dumpStoreSummary(ctx, st, os.Stdout)
}

// relayUntilHeight forwards blocks onto out until the peer's reported
// target height is reached, then closes out, giving `scan` a natural
// termination point instead of tailing forever.
func relayUntilHeight(ctx context.Context, in <-chan *chain.Block, errs <-chan error, out chan<- *chain.Block, target uint64) {
	defer close(out)
	for {
		select {
		case <-ctx.Done():
			return
		case err, ok := <-errs:
			if ok && err != nil {
				return
			}
		case block, ok := <-in:
			if !ok {
				return
			}
			select {
			case out <- block:
			case <-ctx.Done():
				return
			}
			if block.Height >= target {
				return
			}
		}
	}
}

type scanSummary struct {
	Height           uint64 `json:"height"`
	Domains          int    `json:"domains"`
	Accounts         int    `json:"accounts"`
	AssetDefinitions int    `json:"asset_definitions"`
	Assets           int    `json:"assets"`
	NFTs             int    `json:"nfts"`
	Roles            int    `json:"roles"`
	Blocks           int    `json:"blocks"`
}

func dumpStoreSummary(ctx context.Context, st *store.Store, w io.Writer) error {
	height, err := st.Height(ctx)
	if err != nil {
		return err
	}

	summary := scanSummary{Height: height}
	countOf := func(totalItems *int) int {
		if totalItems == nil {
			return 0
		}
		return *totalItems
	}

	domains, err := st.ListDomains(ctx, store.PageRequest{Page: 1, PerPage: 1})
	if err != nil {
		return err
	}
	summary.Domains = countOf(domains.Pagination.TotalItems)

	accounts, err := st.ListAccounts(ctx, store.PageRequest{Page: 1, PerPage: 1}, store.AccountFilter{})
	if err != nil {
		return err
	}
	summary.Accounts = countOf(accounts.Pagination.TotalItems)

	definitions, err := st.ListAssetDefinitions(ctx, store.PageRequest{Page: 1, PerPage: 1}, store.AssetDefinitionFilter{})
	if err != nil {
		return err
	}
	summary.AssetDefinitions = countOf(definitions.Pagination.TotalItems)

	assets, err := st.ListAssets(ctx, store.PageRequest{Page: 1, PerPage: 1}, store.AssetFilter{})
	if err != nil {
		return err
	}
	summary.Assets = countOf(assets.Pagination.TotalItems)

	nfts, err := st.ListNFTs(ctx, store.PageRequest{Page: 1, PerPage: 1}, store.NFTFilter{})
	if err != nil {
		return err
	}
	summary.NFTs = countOf(nfts.Pagination.TotalItems)

	roles, err := st.ListRoles(ctx, store.PageRequest{Page: 1, PerPage: 1})
	if err != nil {
		return err
	}
	summary.Roles = countOf(roles.Pagination.TotalItems)

	blocks, err := st.ListBlocks(ctx, store.PageRequest{Page: 1, PerPage: 1})
	if err != nil {
		return err
	}
	summary.Blocks = countOf(blocks.Pagination.TotalItems)

	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(summary)
}

func splitCSV(raw string) []string {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil
	}
	parts := strings.Split(raw, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p != "" {
			out = append(out, p)
		}
	}
	return out
}
