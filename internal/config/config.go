// Package config loads the venue's YAML configuration and applies
// environment overrides for deployment secrets.
package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// Duration parses yaml strings like "2s" into a time.Duration.
type Duration time.Duration

func (d *Duration) UnmarshalYAML(value *yaml.Node) error {
	var s string
	if err := value.Decode(&s); err != nil {
		return err
	}
	parsed, err := time.ParseDuration(s)
	if err != nil {
		return fmt.Errorf("config: invalid duration %q: %w", s, err)
	}
	*d = Duration(parsed)
	return nil
}

func (d Duration) Std() time.Duration { return time.Duration(d) }

// Config is the top-level configuration for the venue process.
type Config struct {
	Server      Server       `yaml:"server"`
	Logging     Logging      `yaml:"logging"`
	Storage     Storage      `yaml:"storage"`
	Cache       Cache        `yaml:"cache"`
	Trading     Trading      `yaml:"trading"`
	Instruments []Instrument `yaml:"instruments"`
	Bots        Bots         `yaml:"bots"`
}

// Server holds the listener addresses.
type Server struct {
	TCPAddr  string `yaml:"tcp_addr"`
	HTTPAddr string `yaml:"http_addr"`
}

type Logging struct {
	Level string `yaml:"level"`
}

// Storage configures ledger sinks. The text ledgers are always written;
// Postgres is added when a DSN is set.
type Storage struct {
	LogDir      string `yaml:"log_dir"`
	PostgresDSN string `yaml:"postgres_dsn"`
}

// Cache configures the audit snapshot cache. Redis is used when an
// address is set; otherwise the in-memory cache serves reads.
type Cache struct {
	RedisAddr     string   `yaml:"redis_addr"`
	RedisPassword string   `yaml:"redis_password"`
	RedisDB       int      `yaml:"redis_db"`
	TTL           Duration `yaml:"ttl"`
}

// Trading defines the engine's timing and fee parameters.
type Trading struct {
	AuditInterval  Duration `yaml:"audit_interval"`
	OrderExpiry    Duration `yaml:"order_expiry"`
	CommissionRate float64  `yaml:"commission_rate"`
	Workers        int      `yaml:"workers"`
}

// Instrument declares one tradeable symbol.
type Instrument struct {
	ID           string  `yaml:"id"`
	InitialPrice float64 `yaml:"initial_price"`
	MaxLiquidity float64 `yaml:"max_liquidity"`
	Volatility   float64 `yaml:"volatility"`
	Drift        float64 `yaml:"drift"`
}

// Bots configures the load-generating clients. Embedded starts them
// inside the server process; cmd/bot runs them standalone either way.
type Bots struct {
	Count    int      `yaml:"count"`
	Interval Duration `yaml:"interval"`
	Embedded bool     `yaml:"embedded"`
}

// Default returns the configuration used when a field is absent.
func Default() *Config {
	return &Config{
		Server:  Server{TCPAddr: ":8080", HTTPAddr: ":8081"},
		Logging: Logging{Level: "info"},
		Storage: Storage{LogDir: "logs"},
		Cache:   Cache{TTL: Duration(5 * time.Minute)},
		Trading: Trading{
			AuditInterval:  Duration(2 * time.Second),
			OrderExpiry:    Duration(10 * time.Second),
			CommissionRate: 0.005,
			Workers:        4,
		},
		Bots: Bots{Count: 5, Interval: Duration(time.Second)},
	}
}

// Load reads the YAML file at path over the defaults, applies env
// overrides, and validates the result.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("config: read %s: %w", path, err)
	}
	cfg := Default()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("config: parse %s: %w", path, err)
	}
	applyEnvOverrides(cfg)
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// applyEnvOverrides lets deployment secrets stay out of the file.
func applyEnvOverrides(cfg *Config) {
	if v := os.Getenv("VENUE_POSTGRES_DSN"); v != "" {
		cfg.Storage.PostgresDSN = v
	}
	if v := os.Getenv("VENUE_REDIS_ADDR"); v != "" {
		cfg.Cache.RedisAddr = v
	}
	if v := os.Getenv("VENUE_REDIS_PASSWORD"); v != "" {
		cfg.Cache.RedisPassword = v
	}
}

func (c *Config) Validate() error {
	if len(c.Instruments) == 0 {
		return fmt.Errorf("config: no instruments configured")
	}
	seen := make(map[string]bool, len(c.Instruments))
	for _, inst := range c.Instruments {
		if inst.ID == "" {
			return fmt.Errorf("config: instrument with empty id")
		}
		if seen[inst.ID] {
			return fmt.Errorf("config: duplicate instrument %s", inst.ID)
		}
		seen[inst.ID] = true
		if inst.InitialPrice <= 0 || inst.MaxLiquidity <= 0 {
			return fmt.Errorf("config: instrument %s needs positive price and liquidity", inst.ID)
		}
	}
	if c.Trading.AuditInterval.Std() <= 0 {
		return fmt.Errorf("config: audit_interval must be positive")
	}
	if c.Trading.OrderExpiry.Std() <= 0 {
		return fmt.Errorf("config: order_expiry must be positive")
	}
	if c.Trading.CommissionRate < 0 {
		return fmt.Errorf("config: commission_rate must not be negative")
	}
	if c.Trading.Workers < 1 {
		return fmt.Errorf("config: workers must be at least 1")
	}
	return nil
}
