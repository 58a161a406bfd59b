package config

import (
	"os"
	"strconv"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/joho/godotenv"
)

// Load merges, in order: Defaults, the TOML file at path (skipped when path is
// empty), a .env file if present, and environment variables. The result is not
// validated; call Validate after Load.
func Load(path string) (*Config, error) {
	cfg := Defaults()

	if path != "" {
		if _, err := toml.DecodeFile(path, &cfg); err != nil {
			return nil, err
		}
	}

	_ = godotenv.Load()

	applyEnvOverrides(&cfg)

	return &cfg, nil
}

func applyEnvOverrides(cfg *Config) {
	setStr(&cfg.Server.Addr, "AUCTION_SERVER_ADDR")
	setDuration(&cfg.Server.ShutdownTimeout, "AUCTION_SERVER_SHUTDOWN_TIMEOUT")

	setStr(&cfg.Database.Driver, "DB_DRIVER")
	setStr(&cfg.Database.Host, "DB_HOST")
	setStr(&cfg.Database.Port, "DB_PORT")
	setStr(&cfg.Database.User, "DB_USER")
	setStr(&cfg.Database.Password, "DB_PASSWORD")
	setStr(&cfg.Database.Name, "DB_NAME")
	setStr(&cfg.Database.SSLMode, "DB_SSLMODE")
	setInt(&cfg.Database.MaxConns, "DB_MAX_CONNS")
	setStr(&cfg.Database.SQLitePath, "DB_SQLITE_PATH")
	setBool(&cfg.Database.RunMigrations, "DB_RUN_MIGRATIONS")

	setDuration(&cfg.Bidding.Timeout, "AUCTION_BID_TIMEOUT")
	setInt(&cfg.Bidding.MaxAttempts, "AUCTION_BID_MAX_ATTEMPTS")

	setDuration(&cfg.Settlement.Interval, "AUCTION_SETTLEMENT_INTERVAL")
	setInt(&cfg.Settlement.BatchSize, "AUCTION_SETTLEMENT_BATCH_SIZE")
	setInt(&cfg.Settlement.Workers, "AUCTION_SETTLEMENT_WORKERS")
	setBool(&cfg.Settlement.SweepLock, "AUCTION_SETTLEMENT_SWEEP_LOCK")
	setDuration(&cfg.Settlement.SweepLockTTL, "AUCTION_SETTLEMENT_SWEEP_LOCK_TTL")

	setStr(&cfg.Auth.JWTSecret, "JWT_SECRET")
	setDuration(&cfg.Auth.TokenTTL, "AUCTION_JWT_TTL")

	setStr(&cfg.Notify.SMTPHost, "AUCTION_SMTP_HOST")
	setInt(&cfg.Notify.SMTPPort, "AUCTION_SMTP_PORT")
	setStr(&cfg.Notify.SMTPUser, "AUCTION_SMTP_USER")
	setStr(&cfg.Notify.SMTPPassword, "AUCTION_SMTP_PASSWORD")
	setStr(&cfg.Notify.From, "AUCTION_SMTP_FROM")
	setStr(&cfg.Notify.WebhookURL, "AUCTION_NOTIFY_WEBHOOK_URL")

	setStr(&cfg.Redis.Addr, "AUCTION_REDIS_ADDR")
	setStr(&cfg.Redis.Password, "AUCTION_REDIS_PASSWORD")
	setInt(&cfg.Redis.DB, "AUCTION_REDIS_DB")
	setStr(&cfg.Redis.Channel, "AUCTION_REDIS_CHANNEL")

	setStr(&cfg.S3.Endpoint, "AUCTION_S3_ENDPOINT")
	setStr(&cfg.S3.Region, "AUCTION_S3_REGION")
	setStr(&cfg.S3.Bucket, "AUCTION_S3_BUCKET")
	setStr(&cfg.S3.AccessKey, "AUCTION_S3_ACCESS_KEY")
	setStr(&cfg.S3.SecretKey, "AUCTION_S3_SECRET_KEY")
	setBool(&cfg.S3.ForcePathStyle, "AUCTION_S3_FORCE_PATH_STYLE")
	setStr(&cfg.S3.Prefix, "AUCTION_S3_PREFIX")
}

func setStr(dst *string, key string) {
	if v := os.Getenv(key); v != "" {
		*dst = v
	}
}

func setInt(dst *int, key string) {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			*dst = n
		}
	}
}

func setBool(dst *bool, key string) {
	if v := os.Getenv(key); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			*dst = b
		}
	}
}

func setDuration(dst *time.Duration, key string) {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			*dst = d
		}
	}
}

const redacted = "***"

// Redacted returns a copy of cfg with secrets masked, safe to log.
func Redacted(cfg *Config) Config {
	out := *cfg
	redact(&out.Database.Password)
	redact(&out.Auth.JWTSecret)
	redact(&out.Notify.SMTPPassword)
	redact(&out.Notify.WebhookURL)
	redact(&out.Redis.Password)
	redact(&out.S3.AccessKey)
	redact(&out.S3.SecretKey)
	return out
}

func redact(s *string) {
	if *s != "" {
		*s = redacted
	}
}
