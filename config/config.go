package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config holds all application configuration.
type Config struct {
	Server      ServerConfig      `mapstructure:"server"`
	Database    DatabaseConfig    `mapstructure:"database"`
	Redis       RedisConfig       `mapstructure:"redis"`
	JWT         JWTConfig         `mapstructure:"jwt"`
	Log         LogConfig         `mapstructure:"log"`
	Ledger      LedgerConfig      `mapstructure:"ledger"`
	Webhook     WebhookConfig     `mapstructure:"webhook"`
	Idempotency IdempotencyConfig `mapstructure:"idempotency"`
}

type ServerConfig struct {
	Host string `mapstructure:"host"`
	Port int    `mapstructure:"port"`
	Mode string `mapstructure:"mode"` // debug, release, test
}

type DatabaseConfig struct {
	Host            string        `mapstructure:"host"`
	Port            int           `mapstructure:"port"`
	User            string        `mapstructure:"user"`
	Password        string        `mapstructure:"password"`
	DBName          string        `mapstructure:"dbname"`
	SSLMode         string        `mapstructure:"sslmode"`
	MaxConns        int32         `mapstructure:"max_conns"`
	MinConns        int32         `mapstructure:"min_conns"`
	ConnMaxLifetime time.Duration `mapstructure:"conn_max_lifetime"`
	// StatementTimeout caps every statement, including the advisory lock wait.
	StatementTimeout time.Duration `mapstructure:"statement_timeout"`
	ConnectAttempts  int           `mapstructure:"connect_attempts"`
}

// DSN returns the PostgreSQL connection string.
func (d DatabaseConfig) DSN() string {
	return fmt.Sprintf(
		"postgres://%s:%s@%s:%d/%s?sslmode=%s",
		d.User, d.Password, d.Host, d.Port, d.DBName, d.SSLMode,
	)
}

type RedisConfig struct {
	Enabled     bool          `mapstructure:"enabled"`
	Host        string        `mapstructure:"host"`
	Port        int           `mapstructure:"port"`
	Password    string        `mapstructure:"password"`
	DB          int           `mapstructure:"db"`
	PoolSize    int           `mapstructure:"pool_size"`
	DialTimeout time.Duration `mapstructure:"dial_timeout"`
}

// Addr returns the Redis address string.
func (r RedisConfig) Addr() string {
	return fmt.Sprintf("%s:%d", r.Host, r.Port)
}

type JWTConfig struct {
	Secret string        `mapstructure:"secret"`
	Expiry time.Duration `mapstructure:"expiry"`
	Issuer string        `mapstructure:"issuer"`
}

type LogConfig struct {
	Level  string `mapstructure:"level"`  // trace, debug, info, warn, error
	Pretty bool   `mapstructure:"pretty"` // human-readable output (dev only)
}

// LedgerConfig names the privileged identities and the starting economics.
type LedgerConfig struct {
	Store         string `mapstructure:"store"` // postgres or memory
	Admin         string `mapstructure:"admin"`
	Minter        string `mapstructure:"minter"`
	Escrow        string `mapstructure:"escrow"`
	Treasury      string `mapstructure:"treasury"`
	FeeBps        uint32 `mapstructure:"fee_bps"`
	InitialSupply string `mapstructure:"initial_supply"` // decimal base units, minted to Minter at genesis
}

type WebhookConfig struct {
	URL     string        `mapstructure:"url"` // empty disables delivery
	Secret  string        `mapstructure:"secret"`
	Timeout time.Duration `mapstructure:"timeout"`
}

type IdempotencyConfig struct {
	TTL time.Duration `mapstructure:"ttl"`
}

// Load reads configuration from file and environment variables.
// Environment variables override file values. Prefix: GES_ (Gig Escrow Service).
// Nested keys use underscore: GES_DATABASE_HOST, GES_LEDGER_ADMIN, etc.
func Load(path string) (*Config, error) {
	v := viper.New()

	// Defaults
	v.SetDefault("server.host", "0.0.0.0")
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.mode", "debug")
	v.SetDefault("database.host", "localhost")
	v.SetDefault("database.port", 5432)
	v.SetDefault("database.user", "postgres")
	v.SetDefault("database.password", "postgres")
	v.SetDefault("database.dbname", "gig_escrow")
	v.SetDefault("database.sslmode", "disable")
	v.SetDefault("database.max_conns", 20)
	v.SetDefault("database.min_conns", 5)
	v.SetDefault("database.conn_max_lifetime", "30m")
	v.SetDefault("database.statement_timeout", "5s")
	v.SetDefault("database.connect_attempts", 5)
	v.SetDefault("redis.enabled", true)
	v.SetDefault("redis.host", "localhost")
	v.SetDefault("redis.port", 6379)
	v.SetDefault("redis.password", "")
	v.SetDefault("redis.db", 0)
	v.SetDefault("redis.pool_size", 20)
	v.SetDefault("redis.dial_timeout", "3s")
	v.SetDefault("jwt.secret", "")
	v.SetDefault("jwt.expiry", "24h")
	v.SetDefault("jwt.issuer", "gig-escrow")
	v.SetDefault("log.level", "info")
	v.SetDefault("log.pretty", false)
	v.SetDefault("ledger.store", "postgres")
	v.SetDefault("ledger.admin", "")
	v.SetDefault("ledger.minter", "")
	v.SetDefault("ledger.escrow", "")
	v.SetDefault("ledger.treasury", "")
	v.SetDefault("ledger.fee_bps", 250)
	v.SetDefault("ledger.initial_supply", "0")
	v.SetDefault("webhook.url", "")
	v.SetDefault("webhook.secret", "")
	v.SetDefault("webhook.timeout", "10s")
	v.SetDefault("idempotency.ttl", "24h")

	// File config
	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		v.AddConfigPath("./config")
	}

	// Environment variables: GES_LEDGER_FEE_BPS -> ledger.fee_bps
	v.SetEnvPrefix("GES")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Read config file (not required, env vars can suffice)
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("reading config file: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshaling config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// Validate checks values that viper cannot type-check.
func (c *Config) Validate() error {
	switch c.Ledger.Store {
	case "postgres", "memory":
	default:
		return fmt.Errorf("ledger.store must be postgres or memory, got %q", c.Ledger.Store)
	}
	if c.Ledger.FeeBps > 10_000 {
		return fmt.Errorf("ledger.fee_bps must not exceed 10000, got %d", c.Ledger.FeeBps)
	}
	if escrow := strings.TrimSpace(c.Ledger.Escrow); escrow != "" {
		for key, other := range map[string]string{
			"ledger.admin":    c.Ledger.Admin,
			"ledger.minter":   c.Ledger.Minter,
			"ledger.treasury": c.Ledger.Treasury,
		} {
			if strings.EqualFold(escrow, strings.TrimSpace(other)) {
				return fmt.Errorf("ledger.escrow must differ from %s", key)
			}
		}
	}
	return nil
}
