package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	t.Setenv("PAYTUNGAN_AUTH_JWT_SECRET", "secret")

	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, ":8080", cfg.HTTP.Addr)
	assert.Equal(t, []string{"*"}, cfg.HTTP.AllowedOrigins)
	assert.Equal(t, "sqlite", cfg.Database.Driver)
	assert.Equal(t, ProviderMemory, cfg.Gateway.Provider)
	assert.Equal(t, 24*time.Hour, cfg.Payment.InvoiceDuration)
	assert.Equal(t, 15*time.Second, cfg.Payment.GatewayTimeout)
	assert.Equal(t, "secret", cfg.Auth.JWTSecret)
}

func TestLoadFileAndEnv(t *testing.T) {
	path := filepath.Join(t.TempDir(), "paytungan.yaml")
	err := os.WriteFile(path, []byte(`
http:
  addr: ":9090"
database:
  driver: postgres
  dsn: postgres://localhost/paytungan?sslmode=disable
auth:
  jwt_secret: from-file
gateway:
  provider: xendit
  secret_key: xnd_development
payment:
  invoice_duration: 2h
`), 0o600)
	require.NoError(t, err)

	t.Setenv("PAYTUNGAN_HTTP_ADDR", ":7070")

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, ":7070", cfg.HTTP.Addr, "environment overrides the file")
	assert.Equal(t, "postgres", cfg.Database.Driver)
	assert.Equal(t, "from-file", cfg.Auth.JWTSecret)
	assert.Equal(t, ProviderXendit, cfg.Gateway.Provider)
	assert.Equal(t, 2*time.Hour, cfg.Payment.InvoiceDuration)
	assert.Equal(t, "IDR", cfg.Gateway.Currency)
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr string
	}{
		{name: "valid"},
		{name: "unknown driver", mutate: func(c *Config) { c.Database.Driver = "mysql" }, wantErr: "database.driver"},
		{name: "no verification key", mutate: func(c *Config) { c.Auth.JWTSecret = "" }, wantErr: "auth.jwt_secret"},
		{name: "xendit without key", mutate: func(c *Config) { c.Gateway.Provider = ProviderXendit }, wantErr: "gateway.secret_key"},
		{name: "unknown provider", mutate: func(c *Config) { c.Gateway.Provider = "stripe" }, wantErr: "gateway.provider"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := &Config{
				Database: DatabaseConfig{Driver: "sqlite", DSN: "test.db"},
				Auth:     AuthConfig{JWTSecret: "secret"},
				Gateway:  GatewayConfig{Provider: ProviderMemory},
				Payment:  PaymentConfig{InvoiceDuration: time.Hour},
			}
			if tt.mutate != nil {
				tt.mutate(cfg)
			}
			err := cfg.Validate()
			if tt.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}
