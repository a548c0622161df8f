package config

import (
	"fmt"
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

const (
	DefaultAPIURL          = "http://localhost:3000/api"
	DefaultTimeout         = 30 * time.Second
	DefaultRefreshSchedule = "@every 15m"
	DefaultPort            = "3000"
	DefaultTokenTTL        = 24 * time.Hour
	DefaultJobSchedule     = "@every 1m"
)

// Token store drivers.
const (
	StoreMemory   = "memory"
	StoreFile     = "file"
	StorePostgres = "postgres"
	StoreBadger   = "badger"
)

type Config struct {
	APIURL          string        `yaml:"api_url"`
	Timeout         time.Duration `yaml:"timeout"`
	RefreshSchedule string        `yaml:"refresh_schedule"`

	// RateLimit caps API requests per second. Zero means unlimited.
	RateLimit float64 `yaml:"rate_limit"`
	RateBurst int     `yaml:"rate_burst"`

	Log        LogConfig        `yaml:"log"`
	TokenStore TokenStoreConfig `yaml:"token_store"`
	Stripe     StripeConfig     `yaml:"stripe"`
	SendGrid   SendGridConfig   `yaml:"sendgrid"`
	Twilio     TwilioConfig     `yaml:"twilio"`
	Notify     NotifyConfig     `yaml:"notify"`
	Server     ServerConfig     `yaml:"server"`
}

type LogConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

// TokenStoreConfig selects where the session token is persisted.
type TokenStoreConfig struct {
	Driver      string `yaml:"driver"`
	File        string `yaml:"file"`
	Passphrase  string `yaml:"passphrase"`
	DatabaseURL string `yaml:"database_url"`
	Dir         string `yaml:"dir"`
}

type StripeConfig struct {
	Key           string `yaml:"key"`
	WebhookSecret string `yaml:"webhook_secret"`
}

type SendGridConfig struct {
	APIKey    string `yaml:"api_key"`
	FromEmail string `yaml:"from_email"`
	FromName  string `yaml:"from_name"`
}

type TwilioConfig struct {
	AccountSID string `yaml:"account_sid"`
	AuthToken  string `yaml:"auth_token"`
	FromNumber string `yaml:"from_number"`
}

// NotifyConfig holds the recipients of outcome notifications.
type NotifyConfig struct {
	Email string `yaml:"email"`
	Phone string `yaml:"phone"`
}

// ServerConfig configures the development backend.
type ServerConfig struct {
	Port        string        `yaml:"port"`
	JWTSecret   string        `yaml:"jwt_secret"`
	TokenTTL    time.Duration `yaml:"token_ttl"`
	JobSchedule string        `yaml:"job_schedule"`
}

// Default returns a configuration with every default applied.
func Default() *Config {
	home, _ := os.UserHomeDir()
	return &Config{
		APIURL:          DefaultAPIURL,
		Timeout:         DefaultTimeout,
		RefreshSchedule: DefaultRefreshSchedule,
		Log: LogConfig{
			Level:  "info",
			Format: "console",
		},
		TokenStore: TokenStoreConfig{
			Driver: StoreFile,
			File:   home + "/.aqve/token",
		},
		SendGrid: SendGridConfig{
			FromName: "Aqve",
		},
		Server: ServerConfig{
			Port:        DefaultPort,
			TokenTTL:    DefaultTokenTTL,
			JobSchedule: DefaultJobSchedule,
		},
	}
}

// Load reads .env (when present), then the optional YAML file at path, then
// environment variables. Later sources win.
func Load(path string) (*Config, error) {
	_ = godotenv.Load()

	cfg := Default()
	if path == "" {
		path = os.Getenv("AQVE_CONFIG")
	}
	if path != "" {
		if err := cfg.loadFile(path); err != nil {
			return nil, err
		}
	}
	if err := cfg.applyEnv(); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	return cfg, nil
}

func (c *Config) loadFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read config file: %w", err)
	}
	if err := yaml.Unmarshal([]byte(os.ExpandEnv(string(data))), c); err != nil {
		return fmt.Errorf("unmarshal config: %w", err)
	}
	return nil
}

func (c *Config) applyEnv() error {
	setString(&c.APIURL, "AQVE_API_URL")
	setString(&c.RefreshSchedule, "AQVE_REFRESH_SCHEDULE")
	setString(&c.Log.Level, "AQVE_LOG_LEVEL")
	setString(&c.Log.Format, "AQVE_LOG_FORMAT")
	setString(&c.TokenStore.Driver, "AQVE_TOKEN_STORE")
	setString(&c.TokenStore.File, "AQVE_TOKEN_FILE")
	setString(&c.TokenStore.Passphrase, "AQVE_TOKEN_PASSPHRASE")
	setString(&c.TokenStore.DatabaseURL, "DATABASE_URL")
	setString(&c.TokenStore.Dir, "AQVE_TOKEN_DIR")
	setString(&c.Stripe.Key, "STRIPE_KEY")
	setString(&c.Stripe.WebhookSecret, "STRIPE_WEBHOOK_SECRET")
	setString(&c.SendGrid.APIKey, "SENDGRID_API_KEY")
	setString(&c.SendGrid.FromEmail, "SENDGRID_FROM_EMAIL")
	setString(&c.SendGrid.FromName, "SENDGRID_FROM_NAME")
	setString(&c.Twilio.AccountSID, "TWILIO_ACCOUNT_SID")
	setString(&c.Twilio.AuthToken, "TWILIO_AUTH_TOKEN")
	setString(&c.Twilio.FromNumber, "TWILIO_FROM_NUMBER")
	setString(&c.Notify.Email, "AQVE_NOTIFY_EMAIL")
	setString(&c.Notify.Phone, "AQVE_NOTIFY_PHONE")
	setString(&c.Server.Port, "PORT")
	setString(&c.Server.JWTSecret, "JWT_SECRET")
	setString(&c.Server.JobSchedule, "AQVE_JOB_SCHEDULE")

	if err := setDuration(&c.Timeout, "AQVE_TIMEOUT"); err != nil {
		return err
	}
	if err := setFloat(&c.RateLimit, "AQVE_RATE_LIMIT"); err != nil {
		return err
	}
	if err := setInt(&c.RateBurst, "AQVE_RATE_BURST"); err != nil {
		return err
	}
	return setDuration(&c.Server.TokenTTL, "AQVE_TOKEN_TTL")
}

// Validate checks the fields the client cannot run without.
func (c *Config) Validate() error {
	u, err := url.Parse(c.APIURL)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return fmt.Errorf("api_url %q is not an absolute URL", c.APIURL)
	}
	if c.Timeout <= 0 {
		return fmt.Errorf("timeout must be positive")
	}
	if c.RateLimit < 0 || c.RateBurst < 0 {
		return fmt.Errorf("rate_limit and rate_burst must not be negative")
	}
	switch c.TokenStore.Driver {
	case StoreMemory:
	case StoreFile:
		if c.TokenStore.File == "" {
			return fmt.Errorf("token_store.file is required for the file driver")
		}
	case StorePostgres:
		if c.TokenStore.DatabaseURL == "" {
			return fmt.Errorf("token_store.database_url is required for the postgres driver")
		}
	case StoreBadger:
		// an empty dir keeps the store in memory
	default:
		return fmt.Errorf("unknown token store driver %q", c.TokenStore.Driver)
	}
	return nil
}

// ValidateServer checks the fields the development backend needs on top
// of Validate.
func (c *Config) ValidateServer() error {
	if c.Server.JWTSecret == "" {
		return fmt.Errorf("JWT_SECRET not set")
	}
	if c.Server.TokenTTL <= 0 {
		return fmt.Errorf("server.token_ttl must be positive")
	}
	if c.Server.Port == "" {
		return fmt.Errorf("server.port is required")
	}
	return nil
}

// SendGridEnabled reports whether email notifications can be sent.
func (c *Config) SendGridEnabled() bool {
	return c.SendGrid.APIKey != "" && c.SendGrid.FromEmail != "" && c.Notify.Email != ""
}

// TwilioEnabled reports whether SMS notifications can be sent.
func (c *Config) TwilioEnabled() bool {
	return c.Twilio.AccountSID != "" && c.Twilio.AuthToken != "" && c.Twilio.FromNumber != "" && c.Notify.Phone != ""
}

func setString(dst *string, key string) {
	if v, ok := os.LookupEnv(key); ok && strings.TrimSpace(v) != "" {
		*dst = strings.TrimSpace(v)
	}
}

func setDuration(dst *time.Duration, key string) error {
	v, ok := os.LookupEnv(key)
	if !ok || v == "" {
		return nil
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return fmt.Errorf("%s: %w", key, err)
	}
	*dst = d
	return nil
}

func setFloat(dst *float64, key string) error {
	v, ok := os.LookupEnv(key)
	if !ok || v == "" {
		return nil
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		return fmt.Errorf("%s: %w", key, err)
	}
	*dst = f
	return nil
}

func setInt(dst *int, key string) error {
	v, ok := os.LookupEnv(key)
	if !ok || v == "" {
		return nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return fmt.Errorf("%s: %w", key, err)
	}
	*dst = n
	return nil
}
