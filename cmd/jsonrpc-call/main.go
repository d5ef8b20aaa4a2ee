// Command jsonrpc-call sends one JSON-RPC 2.0 call to a configured server and prints the result.
//
//	JSONRPC_URL=http://localhost:8080/rpc jsonrpc-call Arith.Add '{"A":1,"B":2}'
//	jsonrpc-call --server billing Invoice.Get '[42]'
//
// Servers come from the options file (JSONRPC_CONFIG), JSONRPC_URL, or etcd
// (JSONRPC_ETCD_ENDPOINTS). See package config for every variable.
package main

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"os/signal"

	"github.com/alecthomas/kong"
	"go.uber.org/zap"
	"golang.org/x/oauth2"

	"jsonrpc-client/client"
	"jsonrpc-client/config"
	"jsonrpc-client/idgen"
	"jsonrpc-client/internal/logging"
	"jsonrpc-client/middleware"
	"jsonrpc-client/registry"
	"jsonrpc-client/rpcerr"
	"jsonrpc-client/transport"
)

// CLI is the command line of jsonrpc-call.
type CLI struct {
	Server string `short:"s" default:"main" help:"Name of the configured server to call"`
	Raw    bool   `help:"Print the raw HTTP response instead of the unwrapped result"`

	Method string `arg:"" help:"Remote method name"`
	Params string `arg:"" optional:"" default:"null" help:"Params as a JSON value, passed through untouched"`
}

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "configuration error: %v\n", err)
		os.Exit(2)
	}

	logger, err := logging.NewLogger(config.AppName, cfg.LogLevel)
	if err != nil {
		fmt.Fprintf(os.Stderr, "logger: %v\n", err)
		os.Exit(2)
	}
	defer logger.Sync()

	cli := &CLI{}
	ctx := kong.Parse(cli,
		kong.Name(config.AppName),
		kong.Description("Call a JSON-RPC 2.0 method over HTTP"),
		kong.Bind(cfg, logger),
		kong.ConfigureHelp(kong.HelpOptions{
			Compact: true,
		}),
	)
	ctx.FatalIfErrorf(ctx.Run())
}

// Run issues the call.
func (c *CLI) Run(cfg *config.Config, logger *zap.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	if !json.Valid([]byte(c.Params)) {
		return fmt.Errorf("params must be valid JSON: %s", c.Params)
	}

	reg, err := buildRegistry(ctx, cfg, c.Raw, logger)
	if err != nil {
		return err
	}

	cl := client.NewClient(reg, transport.NewHTTPTransport(httpClient(ctx, cfg)))
	cl.Use(middleware.LoggingMiddleware(logger))
	if cfg.RateLimit > 0 {
		cl.Use(middleware.RateLimitMiddleware(cfg.RateLimit, cfg.RateBurst))
	}
	if cfg.RedisAddr != "" {
		ids, err := idgen.NewRedisCounter(ctx, cfg.RedisAddr, cfg.RedisKey)
		if err != nil {
			return err
		}
		defer ids.Close()
		cl.SetIDGenerator(ids)
	}

	reply, err := cl.CallServer(ctx, c.Server, c.Method, json.RawMessage(c.Params)).Await(ctx)
	if err != nil {
		if kind := rpcerr.KindOf(err); kind != 0 {
			logger.Debug("call rejected", zap.Stringer("kind", kind))
		}
		return err
	}

	if reply.HTTP != nil {
		fmt.Printf("HTTP %d\n%s\n", reply.HTTP.Status, reply.HTTP.Body)
		return nil
	}

	var out bytes.Buffer
	if err := json.Indent(&out, reply.Result, "", "  "); err != nil {
		return fmt.Errorf("format result: %w", err)
	}
	fmt.Println(out.String())
	return nil
}

// buildRegistry applies the options file, JSONRPC_URL, servers from etcd and
// the --raw flag, in that order. A later server list replaces an earlier one,
// except that an empty etcd prefix leaves the file and JSONRPC_URL servers alone.
func buildRegistry(ctx context.Context, cfg *config.Config, raw bool, logger *zap.Logger) (*registry.Registry, error) {
	opts, err := cfg.RegistryOptions()
	if err != nil {
		return nil, err
	}

	if endpoints := cfg.Etcd(); len(endpoints) > 0 {
		src, err := registry.NewEtcdSource(endpoints, cfg.EtcdPrefix)
		if err != nil {
			return nil, fmt.Errorf("connect etcd: %w", err)
		}
		defer src.Close()

		servers, err := src.Load(ctx)
		if err != nil {
			return nil, fmt.Errorf("load servers from etcd: %w", err)
		}
		if len(servers) == 0 {
			logger.Warn("no servers under etcd prefix", zap.String("prefix", cfg.EtcdPrefix))
		} else {
			opts = append(opts, registry.WithServers(servers...))
		}
	}

	if raw {
		opts = append(opts, registry.WithReturnHTTPPromise(true))
	}

	reg := registry.New()
	if err := reg.Configure(opts...); err != nil {
		return nil, err
	}
	return reg, nil
}

func httpClient(ctx context.Context, cfg *config.Config) *http.Client {
	if cfg.Token == "" {
		return http.DefaultClient
	}
	ts := oauth2.StaticTokenSource(&oauth2.Token{AccessToken: cfg.Token})
	return oauth2.NewClient(ctx, ts)
}
