package config

import (
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"

	"github.com/ngnhng/durabletask/api/serde"
)

// Default configuration constants tuned for SDK clients.
const (
	DefaultNATSHost = "localhost"
	DefaultNATSPort = "4222"

	DefaultRequestTimeout = 10 * time.Second
	DefaultDrainTimeout   = 30 * time.Second
	DefaultReconnectWait  = 2 * time.Second
	DefaultPingInterval   = 2 * time.Minute

	DefaultMaxReconnects = -1 // reconnect forever
	DefaultMaxPingsOut   = 2

	DefaultPebbleDir = "./data/history"
)

// BackendKind selects where histories, tasks and results live.
type BackendKind string

const (
	BackendNATS   BackendKind = "nats"
	BackendMemory BackendKind = "memory"
	BackendPebble BackendKind = "pebble"
)

// NATSConfig holds NATS-specific configuration knobs for the SDK.
type NATSConfig struct {
	URL           string        `json:"url"             env:"URL"`
	Host          string        `json:"host"            env:"HOST"`
	Port          string        `json:"port"            env:"PORT"`
	MaxReconnects int           `json:"max_reconnects"  env:"MAX_RECONNECTS"`
	ReconnectWait time.Duration `json:"reconnect_wait"  env:"RECONNECT_WAIT"`
	DrainTimeout  time.Duration `json:"drain_timeout"   env:"DRAIN_TIMEOUT"`
	PingInterval  time.Duration `json:"ping_interval"   env:"PING_INTERVAL"`
	MaxPingsOut   int           `json:"max_pings_out"   env:"MAX_PINGS_OUT"`
	ClientName    string        `json:"client_name"     env:"CLIENT_NAME"`
}

// TimeoutConfig encapsulates SDK timeout values.
type TimeoutConfig struct {
	RequestTimeout time.Duration `json:"request_timeout" env:"REQUEST_TIMEOUT"`
}

// BackendConfig chooses the backend and the payload format. The pebble
// directory only matters for the pebble backend.
type BackendConfig struct {
	Kind      BackendKind `json:"kind"       env:"KIND"       envDefault:"nats"`
	Namespace string      `json:"namespace"  env:"NAMESPACE"`
	PebbleDir string      `json:"pebble_dir" env:"PEBBLE_DIR"`
	Serde     string      `json:"serde"      env:"SERDE"      envDefault:"msgpack"` // msgpack|json
}

// WorkerConfig bounds the work a single worker process takes on.
type WorkerConfig struct {
	MaxConcurrentTasks int `json:"max_concurrent_tasks" env:"MAX_CONCURRENT_TASKS" envDefault:"0"`
}

type LoggerConfig struct {
	Mode         string `json:"mode"          env:"MODE"          envDefault:"debug"` // debug|release
	Level        string `json:"level"         env:"LEVEL"         envDefault:"info"`  // debug|info|warn|error
	OTELExporter string `json:"otel_exporter" env:"OTEL_EXPORTER" envDefault:"none"`  // none|otlp-http|otlp-grpc
}

// Config is the public SDK configuration users can construct or load from env.
type Config struct {
	NATS     NATSConfig    `json:"nats"     envPrefix:"NATS_"`
	Timeouts TimeoutConfig `json:"timeouts" envPrefix:"TIMEOUTS_"`
	Backend  BackendConfig `json:"backend"  envPrefix:"BACKEND_"`
	Worker   WorkerConfig  `json:"worker"   envPrefix:"WORKER_"`
	Logger   LoggerConfig  `json:"logger"   envPrefix:"LOG_"`
}

// Load loads configuration from environment variables applying defaults.
func Load() (*Config, error) {
	return LoadWithOptions(env.Options{})
}

// LoadWithOptions is Load with explicit env parsing options, such as a
// fixed Environment map in tests.
func LoadWithOptions(opts env.Options) (*Config, error) {
	cfg := Config{
		NATS: NATSConfig{
			Host:          DefaultNATSHost,
			Port:          DefaultNATSPort,
			MaxReconnects: DefaultMaxReconnects,
			ReconnectWait: DefaultReconnectWait,
			DrainTimeout:  DefaultDrainTimeout,
			PingInterval:  DefaultPingInterval,
			MaxPingsOut:   DefaultMaxPingsOut,
			ClientName:    "durabletask-sdk",
		},
		Timeouts: TimeoutConfig{
			RequestTimeout: DefaultRequestTimeout,
		},
	}
	if err := env.ParseWithOptions(&cfg, opts); err != nil {
		return nil, err
	}
	if cfg.NATS.URL == "" {
		cfg.NATS.URL = fmt.Sprintf("nats://%s:%s", cfg.NATS.Host, cfg.NATS.Port)
	}
	if cfg.Backend.Kind == BackendPebble && cfg.Backend.PebbleDir == "" {
		cfg.Backend.PebbleDir = DefaultPebbleDir
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate checks the fields Load cannot default.
func (c *Config) Validate() error {
	var errs []error
	switch c.Backend.Kind {
	case BackendNATS:
		if c.NATS.URL == "" {
			errs = append(errs, errors.New("nats url is required for the nats backend"))
		}
	case BackendMemory:
	case BackendPebble:
		if c.Backend.PebbleDir == "" {
			errs = append(errs, errors.New("pebble dir is required for the pebble backend"))
		}
	default:
		errs = append(errs, fmt.Errorf("unknown backend kind %q", c.Backend.Kind))
	}
	if _, err := serde.ForFormat(c.Backend.Serde); err != nil {
		errs = append(errs, err)
	}
	if c.Worker.MaxConcurrentTasks < 0 {
		errs = append(errs, errors.New("max concurrent tasks must not be negative"))
	}
	if _, err := parseLevel(c.Logger.Level); err != nil {
		errs = append(errs, err)
	}
	return errors.Join(errs...)
}

// Serde returns the payload serde named by Backend.Serde. Every process
// sharing a history must use the same one.
func (c *Config) Serde() (serde.BinarySerde, error) {
	return serde.ForFormat(c.Backend.Serde)
}

// LogLevel returns the configured level, info when unset.
func (c *Config) LogLevel() slog.Level {
	l, _ := parseLevel(c.Logger.Level)
	return l
}

func parseLevel(s string) (slog.Level, error) {
	var l slog.Level
	if strings.TrimSpace(s) == "" {
		return slog.LevelInfo, nil
	}
	if err := l.UnmarshalText([]byte(s)); err != nil {
		return slog.LevelInfo, fmt.Errorf("invalid log level %q", s)
	}
	return l, nil
}

// Interface implementation for internal JetStream connection.
func (c *Config) Endpoint() string                 { return c.NATS.URL }
func (c *Config) NATSMaxReconnects() int           { return c.NATS.MaxReconnects }
func (c *Config) NATSReconnectWait() time.Duration { return c.NATS.ReconnectWait }
func (c *Config) NATSDrainTimeout() time.Duration  { return c.NATS.DrainTimeout }
func (c *Config) NATSPingInterval() time.Duration  { return c.NATS.PingInterval }
func (c *Config) NATSMaxPingsOut() int             { return c.NATS.MaxPingsOut }
func (c *Config) NATSClientName() string           { return c.NATS.ClientName }
