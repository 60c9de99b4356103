// Package config loads server configuration from defaults, an optional YAML
// file and PAYTUNGAN_* environment variables, in increasing precedence.
package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// EnvPrefix prefixes every environment override, e.g. PAYTUNGAN_HTTP_ADDR
// for http.addr.
const EnvPrefix = "PAYTUNGAN"

// Config is the complete server configuration.
type Config struct {
	HTTP     HTTPConfig     `mapstructure:"http"`
	Database DatabaseConfig `mapstructure:"database"`
	Auth     AuthConfig     `mapstructure:"auth"`
	Gateway  GatewayConfig  `mapstructure:"gateway"`
	Payment  PaymentConfig  `mapstructure:"payment"`
	NewRelic NewRelicConfig `mapstructure:"newrelic"`
}

type HTTPConfig struct {
	Addr           string        `mapstructure:"addr"`
	AllowedOrigins []string      `mapstructure:"allowed_origins"`
	ReadTimeout    time.Duration `mapstructure:"read_timeout"`
	WriteTimeout   time.Duration `mapstructure:"write_timeout"`
}

// DatabaseConfig selects the store dialect. DSN is a file path for sqlite
// and a connection string for postgres.
type DatabaseConfig struct {
	Driver string `mapstructure:"driver"`
	DSN    string `mapstructure:"dsn"`
}

type AuthConfig struct {
	JWTSecret     string        `mapstructure:"jwt_secret"`
	PublicKeyPEM  string        `mapstructure:"public_key_pem"`
	Issuer        string        `mapstructure:"issuer"`
	Audience      string        `mapstructure:"audience"`
	TokenDuration time.Duration `mapstructure:"token_duration"`
}

// GatewayConfig selects the payment gateway. Provider "memory" runs without
// any external calls, for local development.
type GatewayConfig struct {
	Provider string `mapstructure:"provider"`

	BaseURL   string        `mapstructure:"base_url"`
	SecretKey string        `mapstructure:"secret_key"`
	Currency  string        `mapstructure:"currency"`
	Timeout   time.Duration `mapstructure:"timeout"`

	// CallbackTokenHash is the bcrypt hash of the x-callback-token the
	// gateway sends with invoice callbacks. Empty disables the callback route.
	CallbackTokenHash string `mapstructure:"callback_token_hash"`
}

type PaymentConfig struct {
	InvoiceDuration time.Duration `mapstructure:"invoice_duration"`
	GatewayTimeout  time.Duration `mapstructure:"gateway_timeout"`
}

// NewRelicConfig enables the APM agent when LicenseKey is set.
type NewRelicConfig struct {
	AppName    string `mapstructure:"app_name"`
	LicenseKey string `mapstructure:"license_key"`
}

const (
	ProviderMemory = "memory"
	ProviderXendit = "xendit"
)

func setDefaults(v *viper.Viper) {
	v.SetDefault("http.addr", ":8080")
	v.SetDefault("http.allowed_origins", []string{"*"})
	v.SetDefault("http.read_timeout", 15*time.Second)
	v.SetDefault("http.write_timeout", 60*time.Second)

	v.SetDefault("database.driver", "sqlite")
	v.SetDefault("database.dsn", "./data/paytungan.db")

	v.SetDefault("auth.jwt_secret", "")
	v.SetDefault("auth.public_key_pem", "")
	v.SetDefault("auth.issuer", "")
	v.SetDefault("auth.audience", "")
	v.SetDefault("auth.token_duration", 24*time.Hour)

	v.SetDefault("gateway.provider", ProviderMemory)
	v.SetDefault("gateway.base_url", "https://api.xendit.co")
	v.SetDefault("gateway.secret_key", "")
	v.SetDefault("gateway.currency", "IDR")
	v.SetDefault("gateway.timeout", 30*time.Second)
	v.SetDefault("gateway.callback_token_hash", "")

	v.SetDefault("payment.invoice_duration", 24*time.Hour)
	v.SetDefault("payment.gateway_timeout", 15*time.Second)

	v.SetDefault("newrelic.app_name", "Paytungan API")
	v.SetDefault("newrelic.license_key", "")
}

// Load reads the configuration. path may be empty, in which case only
// defaults and the environment are used.
func Load(path string) (*Config, error) {
	v := viper.New()
	setDefaults(v)

	if path != "" {
		v.SetConfigFile(path)
		v.SetConfigType("yaml")
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
		}
	}

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("failed to decode config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks that the configuration can start a server.
func (c *Config) Validate() error {
	var errs []error
	switch c.Database.Driver {
	case "sqlite", "postgres":
	default:
		errs = append(errs, fmt.Errorf("database.driver must be sqlite or postgres, got %q", c.Database.Driver))
	}
	if c.Database.DSN == "" {
		errs = append(errs, errors.New("database.dsn is required"))
	}
	if c.Auth.JWTSecret == "" && c.Auth.PublicKeyPEM == "" {
		errs = append(errs, errors.New("auth.jwt_secret or auth.public_key_pem is required"))
	}
	switch c.Gateway.Provider {
	case ProviderMemory:
	case ProviderXendit:
		if c.Gateway.SecretKey == "" {
			errs = append(errs, errors.New("gateway.secret_key is required for xendit"))
		}
	default:
		errs = append(errs, fmt.Errorf("gateway.provider must be memory or xendit, got %q", c.Gateway.Provider))
	}
	if c.Payment.InvoiceDuration <= 0 {
		errs = append(errs, errors.New("payment.invoice_duration must be positive"))
	}
	return errors.Join(errs...)
}
