package config

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/joeshaw/envdecode"
	"github.com/joho/godotenv"

	"jsonrpc-client/registry"
)

const (
	AppName = "jsonrpc-call"
)

// Config is the process configuration. Values come from the environment,
// optionally seeded from a .env file in the working directory.
type Config struct {
	// ConfigPath is the YAML/JSON options file (url, servers, returnHttpPromise).
	ConfigPath string `env:"JSONRPC_CONFIG,default=jsonrpc.yaml"`
	// URL configures a single "main" server, overriding the file.
	URL string `env:"JSONRPC_URL"`

	// EtcdEndpoints is a comma separated list; when set, servers are loaded from etcd.
	EtcdEndpoints string `env:"JSONRPC_ETCD_ENDPOINTS"`
	EtcdPrefix    string `env:"JSONRPC_ETCD_PREFIX,default=/jsonrpc-client/servers/"`

	// RedisAddr, when set, makes request ids come from a shared Redis counter.
	RedisAddr string `env:"JSONRPC_REDIS_ADDR"`
	RedisKey  string `env:"JSONRPC_REDIS_KEY,default=jsonrpc-client:request-id"`

	// RateLimit is calls per second; 0 disables limiting.
	RateLimit float64 `env:"JSONRPC_RATE_LIMIT,default=0"`
	RateBurst int     `env:"JSONRPC_RATE_BURST,default=1"`

	LogLevel string `env:"JSONRPC_LOG_LEVEL,default=info"`

	// Token is sent as a bearer token on every request.
	Token string `env:"JSONRPC_TOKEN"`
}

// Load reads .env (if present) and then the environment.
func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("load .env: %w", err)
	}

	var cfg Config
	if err := envdecode.Decode(&cfg); err != nil && !errors.Is(err, envdecode.ErrNoTargetFieldsAreSet) {
		return nil, fmt.Errorf("decode environment: %w", err)
	}
	if cfg.RateLimit < 0 {
		return nil, fmt.Errorf("JSONRPC_RATE_LIMIT must not be negative, got %v", cfg.RateLimit)
	}
	return &cfg, nil
}

// Etcd returns the configured etcd endpoints, or nil.
func (c *Config) Etcd() []string {
	if c.EtcdEndpoints == "" {
		return nil
	}
	var out []string
	for _, ep := range strings.Split(c.EtcdEndpoints, ",") {
		if ep = strings.TrimSpace(ep); ep != "" {
			out = append(out, ep)
		}
	}
	return out
}

// RegistryOptions reads the options file and applies the URL override.
// A missing file is not an error.
func (c *Config) RegistryOptions() ([]registry.Option, error) {
	var opts []registry.Option

	if c.ConfigPath != "" {
		data, err := os.ReadFile(c.ConfigPath)
		switch {
		case err == nil:
			// Expand env vars before parsing
			parsed, err := registry.ParseOptions([]byte(os.ExpandEnv(string(data))))
			if err != nil {
				return nil, fmt.Errorf("failed to parse config file %s: %w", c.ConfigPath, err)
			}
			opts = parsed
		case !os.IsNotExist(err):
			return nil, fmt.Errorf("failed to read config file %s: %w", c.ConfigPath, err)
		}
	}

	if c.URL != "" {
		opts = append(opts, registry.WithURL(c.URL))
	}
	return opts, nil
}
