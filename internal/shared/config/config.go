// Package config loads the service configuration: built-in defaults, an optional
// TOML file, a .env file and finally environment variable overrides.
package config

import (
	"errors"
	"fmt"
	"net"
	"net/url"
	"strings"
	"time"
)

// Config is the root configuration.
type Config struct {
	Server     ServerConfig     `toml:"server"`
	Database   DatabaseConfig   `toml:"database"`
	Bidding    BiddingConfig    `toml:"bidding"`
	Settlement SettlementConfig `toml:"settlement"`
	Auth       AuthConfig       `toml:"auth"`
	Notify     NotifyConfig     `toml:"notify"`
	Redis      RedisConfig      `toml:"redis"`
	S3         S3Config         `toml:"s3"`
}

type ServerConfig struct {
	Addr            string        `toml:"addr"`
	ShutdownTimeout time.Duration `toml:"shutdown_timeout"`
}

// DatabaseConfig selects the storage engine. Driver is one of postgres, sqlite or memory.
type DatabaseConfig struct {
	Driver        string `toml:"driver"`
	Host          string `toml:"host"`
	Port          string `toml:"port"`
	User          string `toml:"user"`
	Password      string `toml:"password"`
	Name          string `toml:"name"`
	SSLMode       string `toml:"sslmode"`
	MaxConns      int    `toml:"max_conns"`
	SQLitePath    string `toml:"sqlite_path"`
	RunMigrations bool   `toml:"run_migrations"`
}

// BiddingConfig bounds a single bid placement.
type BiddingConfig struct {
	Timeout     time.Duration `toml:"timeout"`
	MaxAttempts int           `toml:"max_attempts"`
}

type SettlementConfig struct {
	Interval  time.Duration `toml:"interval"`
	BatchSize int           `toml:"batch_size"`
	Workers   int           `toml:"workers"`
	// SweepLock enables the redis backed sweep lock when redis is configured.
	SweepLock    bool          `toml:"sweep_lock"`
	SweepLockTTL time.Duration `toml:"sweep_lock_ttl"`
}

type AuthConfig struct {
	JWTSecret string        `toml:"jwt_secret"`
	TokenTTL  time.Duration `toml:"token_ttl"`
}

type NotifyConfig struct {
	SMTPHost     string `toml:"smtp_host"`
	SMTPPort     int    `toml:"smtp_port"`
	SMTPUser     string `toml:"smtp_user"`
	SMTPPassword string `toml:"smtp_password"`
	From         string `toml:"from"`
	WebhookURL   string `toml:"webhook_url"`
}

// RedisConfig is optional; an empty Addr disables redis.
type RedisConfig struct {
	Addr     string `toml:"addr"`
	Password string `toml:"password"`
	DB       int    `toml:"db"`
	Channel  string `toml:"channel"`
}

// S3Config is optional; an empty Bucket disables the settlement archive.
type S3Config struct {
	Endpoint       string `toml:"endpoint"`
	Region         string `toml:"region"`
	Bucket         string `toml:"bucket"`
	AccessKey      string `toml:"access_key"`
	SecretKey      string `toml:"secret_key"`
	ForcePathStyle bool   `toml:"force_path_style"`
	Prefix         string `toml:"prefix"`
}

// Defaults returns the configuration used when nothing else is provided.
func Defaults() Config {
	return Config{
		Server: ServerConfig{
			Addr:            ":9000",
			ShutdownTimeout: 5 * time.Second,
		},
		Database: DatabaseConfig{
			Driver:        "postgres",
			Host:          "localhost",
			Port:          "5432",
			SSLMode:       "disable",
			SQLitePath:    "./data/auctions.db",
			RunMigrations: true,
		},
		Bidding: BiddingConfig{
			Timeout:     5 * time.Second,
			MaxAttempts: 3,
		},
		Settlement: SettlementConfig{
			Interval:     time.Minute,
			BatchSize:    100,
			Workers:      4,
			SweepLockTTL: 30 * time.Second,
		},
		Auth: AuthConfig{
			TokenTTL: 24 * time.Hour,
		},
		Notify: NotifyConfig{
			SMTPPort: 587,
		},
		Redis: RedisConfig{
			Channel: "auction-events",
		},
		S3: S3Config{
			Prefix: "settlements",
		},
	}
}

// PostgresDSN builds the connection string for the postgres driver.
func (c DatabaseConfig) PostgresDSN() string {
	u := url.URL{
		Scheme:   "postgres",
		User:     url.UserPassword(c.User, c.Password),
		Host:     net.JoinHostPort(c.Host, c.Port),
		Path:     "/" + c.Name,
		RawQuery: url.Values{"sslmode": {c.SSLMode}}.Encode(),
	}
	return u.String()
}

// Validate checks the settings the rest of the program relies on.
func (c *Config) Validate() error {
	var errs []error
	switch strings.ToLower(c.Database.Driver) {
	case "postgres":
		if c.Database.Name == "" {
			errs = append(errs, errors.New("database.name is required for postgres"))
		}
	case "sqlite":
		if c.Database.SQLitePath == "" {
			errs = append(errs, errors.New("database.sqlite_path is required for sqlite"))
		}
	case "memory":
	default:
		errs = append(errs, fmt.Errorf("database.driver %q is not supported", c.Database.Driver))
	}
	if c.Bidding.Timeout <= 0 {
		errs = append(errs, errors.New("bidding.timeout must be positive"))
	}
	if c.Bidding.MaxAttempts < 1 {
		errs = append(errs, errors.New("bidding.max_attempts must be at least 1"))
	}
	if c.Settlement.Interval <= 0 {
		errs = append(errs, errors.New("settlement.interval must be positive"))
	}
	if c.Settlement.BatchSize < 1 {
		errs = append(errs, errors.New("settlement.batch_size must be at least 1"))
	}
	if c.Settlement.Workers < 1 {
		errs = append(errs, errors.New("settlement.workers must be at least 1"))
	}
	if c.Auth.JWTSecret == "" {
		errs = append(errs, errors.New("auth.jwt_secret is required"))
	}
	if c.Auth.TokenTTL <= 0 {
		errs = append(errs, errors.New("auth.token_ttl must be positive"))
	}
	if c.S3.Bucket != "" && c.S3.Region == "" {
		errs = append(errs, errors.New("s3.region is required when s3.bucket is set"))
	}
	return errors.Join(errs...)
}
