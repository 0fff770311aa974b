package config

import (
	"errors"
	"fmt"
	"log"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Config represents the overall application configuration.
type Config struct {
	Server       ServerConfig       `yaml:"server"`
	Auth         AuthConfig         `yaml:"auth"`
	Alerts       AlertsConfig       `yaml:"alerts"`
	School       SchoolConfig       `yaml:"school"`
	Database     DatabaseConfig     `yaml:"database"`
	Push         PushConfig         `yaml:"push"`
	Telegram     TelegramConfig     `yaml:"telegram"`
	SMS          SMSConfig          `yaml:"sms"`
	Notification NotificationConfig `yaml:"notification"`
	WorkerPool   WorkerPoolConfig   `yaml:"worker_pool"`
}

// ServerConfig holds the server-related configuration.
type ServerConfig struct {
	Port            int     `yaml:"port"`
	RequestIPHeader string  `yaml:"request_ip_header"`
	RateLimitPerSec float64 `yaml:"rate_limit_per_sec"`
	RateLimitBurst  int     `yaml:"rate_limit_burst"`
	CacheTTLSeconds int     `yaml:"cache_ttl_seconds"`

	// TrustedProxies lists the peers whose X-Forwarded-For is honoured.
	// Empty means the TCP peer address is the client.
	TrustedProxies []string `yaml:"trusted_proxies"`

	AlertRateLimitPerSec float64 `yaml:"alert_rate_limit_per_sec"`
	AlertRateLimitBurst  int     `yaml:"alert_rate_limit_burst"`
}

// AuthConfig holds the central dashboard credentials and lockout policy.
type AuthConfig struct {
	Enabled            bool   `yaml:"enabled"`
	Username           string `yaml:"username"`
	Password           string `yaml:"password"`
	PasswordHash       string `yaml:"password_hash"`
	SessionSecret      string `yaml:"session_secret"`
	SecureCookie       bool   `yaml:"secure_cookie"`
	SessionIdleMinutes int    `yaml:"session_idle_minutes"`
	MaxFailedAttempts  int    `yaml:"max_failed_attempts"`
	LockoutMinutes     int    `yaml:"lockout_minutes"`

	SessionIdle     time.Duration `yaml:"-"`
	LockoutDuration time.Duration `yaml:"-"`
}

// AlertsConfig controls how alert records are stamped.
type AlertsConfig struct {
	Timezone        string `yaml:"timezone"`
	TimestampLayout string `yaml:"timestamp_layout"`
}

// SchoolConfig is the initial school metadata printed on reports.
type SchoolConfig struct {
	Name    string `yaml:"name"`
	CNPJ    string `yaml:"cnpj"`
	Address string `yaml:"address"`
	Phone   string `yaml:"phone"`
}

// DatabaseConfig holds the journal database connection configuration.
type DatabaseConfig struct {
	Driver                 string `yaml:"driver"`
	DSN                    string `yaml:"dsn"`
	MaxOpenConns           int    `yaml:"max_open_conns"`
	MaxIdleConns           int    `yaml:"max_idle_conns"`
	ConnMaxLifetimeMinutes int    `yaml:"conn_max_lifetime_minutes"`
}

// PushConfig holds the VAPID keys for web push notifications.
type PushConfig struct {
	PublicKey  string `yaml:"vapid_public_key"`
	PrivateKey string `yaml:"vapid_private_key"`
	Subject    string `yaml:"subject"`
	TTL        int    `yaml:"ttl"`
}

// TelegramConfig holds the messaging bot credentials.
type TelegramConfig struct {
	BotToken string `yaml:"bot_token"`
	ChatID   string `yaml:"chat_id"`
	APIBase  string `yaml:"api_base"`
}

// SMSConfig holds the SMS gateway (Twilio) credentials.
type SMSConfig struct {
	AccountSID string `yaml:"account_sid"`
	AuthToken  string `yaml:"auth_token"`
	From       string `yaml:"from"`
	To         string `yaml:"to"`
	APIBase    string `yaml:"api_base"`
}

// NotificationConfig bounds outbound notification calls.
type NotificationConfig struct {
	TimeoutSeconds int           `yaml:"timeout_seconds"`
	QueueSize      int           `yaml:"queue_size"`
	HTTPProxy      string        `yaml:"http_proxy"`
	Timeout        time.Duration `yaml:"-"`
}

// WorkerPoolConfig holds the configuration for the notification worker pool.
type WorkerPoolConfig struct {
	Size int `yaml:"size"`
}

// Load reads the configuration from the given path, then applies .env and
// environment overrides. A missing file is not an error.
func Load(path string) (*Config, error) {
	cfg := Config{Auth: AuthConfig{Enabled: true}}

	f, err := os.Open(path)
	switch {
	case err == nil:
		defer f.Close()
		if err := yaml.NewDecoder(f).Decode(&cfg); err != nil {
			return nil, fmt.Errorf("decode %s: %w", path, err)
		}
	case errors.Is(err, os.ErrNotExist):
		log.Printf("config file %s not found; using defaults and environment", path)
	default:
		return nil, err
	}

	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		log.Printf("could not load .env: %v", err)
	}
	applyEnv(&cfg)
	ApplyDefaults(&cfg)

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// ApplyDefaults fills every unset field with its default and derives the
// duration fields.
func ApplyDefaults(cfg *Config) {
	if cfg.Server.Port <= 0 {
		cfg.Server.Port = 5000
	}
	if cfg.Server.RateLimitPerSec <= 0 {
		cfg.Server.RateLimitPerSec = 10
	}
	if cfg.Server.RateLimitBurst <= 0 {
		cfg.Server.RateLimitBurst = 5
	}
	if cfg.Server.CacheTTLSeconds <= 0 {
		cfg.Server.CacheTTLSeconds = 5
	}
	if cfg.Server.AlertRateLimitPerSec <= 0 {
		cfg.Server.AlertRateLimitPerSec = 5
	}
	if cfg.Server.AlertRateLimitBurst <= 0 {
		cfg.Server.AlertRateLimitBurst = 20
	}

	if cfg.Auth.SessionIdleMinutes <= 0 {
		cfg.Auth.SessionIdleMinutes = 15
	}
	if cfg.Auth.MaxFailedAttempts <= 0 {
		cfg.Auth.MaxFailedAttempts = 5
	}
	if cfg.Auth.LockoutMinutes <= 0 {
		cfg.Auth.LockoutMinutes = 10
	}
	cfg.Auth.SessionIdle = time.Duration(cfg.Auth.SessionIdleMinutes) * time.Minute
	cfg.Auth.LockoutDuration = time.Duration(cfg.Auth.LockoutMinutes) * time.Minute

	if cfg.Alerts.Timezone == "" {
		cfg.Alerts.Timezone = "America/Sao_Paulo"
	}
	if cfg.Alerts.TimestampLayout == "" {
		cfg.Alerts.TimestampLayout = "2006-01-02 15:04:05"
	}

	if cfg.Database.Driver == "" {
		cfg.Database.Driver = "sqlite"
	}
	if cfg.Database.DSN == "" && cfg.Database.Driver == "sqlite" {
		cfg.Database.DSN = "profsafe.db"
	}

	if cfg.Push.TTL <= 0 {
		cfg.Push.TTL = 3600
	}
	if cfg.Telegram.APIBase == "" {
		cfg.Telegram.APIBase = "https://api.telegram.org"
	}
	if cfg.SMS.APIBase == "" {
		cfg.SMS.APIBase = "https://api.twilio.com"
	}

	if cfg.Notification.TimeoutSeconds <= 0 {
		cfg.Notification.TimeoutSeconds = 10
	}
	cfg.Notification.Timeout = time.Duration(cfg.Notification.TimeoutSeconds) * time.Second
	if cfg.Notification.QueueSize <= 0 {
		cfg.Notification.QueueSize = 32
	}

	if cfg.WorkerPool.Size <= 0 {
		log.Printf("worker_pool.size is not set or invalid; defaulting to 2")
		cfg.WorkerPool.Size = 2
	}
}

// Validate reports configuration that cannot start a server.
func (c *Config) Validate() error {
	if c.Auth.Enabled {
		if c.Auth.Username == "" {
			return errors.New("auth.username is required when auth is enabled")
		}
		if c.Auth.Password == "" && c.Auth.PasswordHash == "" {
			return errors.New("auth.password or auth.password_hash is required when auth is enabled")
		}
	}
	switch c.Database.Driver {
	case "sqlite", "postgres":
	default:
		return fmt.Errorf("unsupported database driver %q", c.Database.Driver)
	}
	if c.Database.DSN == "" {
		return errors.New("database.dsn is required")
	}
	return nil
}

func applyEnv(cfg *Config) {
	if v := os.Getenv("PORT"); v != "" {
		if port, err := strconv.Atoi(v); err == nil {
			cfg.Server.Port = port
		} else {
			log.Printf("ignoring invalid PORT %q", v)
		}
	}
	setString(&cfg.Auth.Username, "CENTRAL_USER")
	setString(&cfg.Auth.Password, "CENTRAL_PASSWORD")
	setString(&cfg.Auth.SessionSecret, "SESSION_SECRET")
	setString(&cfg.Telegram.BotToken, "TELEGRAM_BOT_TOKEN")
	setString(&cfg.Telegram.ChatID, "TELEGRAM_CHAT_ID")
	setString(&cfg.SMS.AccountSID, "TWILIO_SID")
	setString(&cfg.SMS.AuthToken, "TWILIO_TOKEN")
	setString(&cfg.SMS.From, "TWILIO_FROM")
	setString(&cfg.SMS.To, "TWILIO_TO")
	setString(&cfg.Database.DSN, "DATABASE_DSN")
}

func setString(dst *string, key string) {
	if v := os.Getenv(key); v != "" {
		*dst = v
	}
}
