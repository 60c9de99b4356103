package main

import (
	"bytes"
	"context"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"connectrpc.com/connect"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/paytungan/paytungan/internal/auth"
	"github.com/paytungan/paytungan/internal/config"
	"github.com/paytungan/paytungan/internal/server"
	"github.com/paytungan/paytungan/pkg/api"
	"github.com/paytungan/paytungan/pkg/api/apiconnect"
)

const testSecret = "cmd-test-secret"

func testConfig(t *testing.T) *config.Config {
	t.Helper()
	return &config.Config{
		HTTP:     config.HTTPConfig{AllowedOrigins: []string{"*"}},
		Database: config.DatabaseConfig{Driver: "sqlite", DSN: filepath.Join(t.TempDir(), "app.db")},
		Auth:     config.AuthConfig{JWTSecret: testSecret, TokenDuration: time.Hour},
		Gateway:  config.GatewayConfig{Provider: config.ProviderMemory},
		Payment:  config.PaymentConfig{InvoiceDuration: time.Hour, GatewayTimeout: 5 * time.Second},
	}
}

func TestNewAppServesWiredRoutes(t *testing.T) {
	a, err := newApp(context.Background(), testConfig(t))
	require.NoError(t, err)
	t.Cleanup(a.close)

	srv := httptest.NewServer(server.Handler(server.New(a.router)))
	t.Cleanup(srv.Close)

	resp, err := http.Get(srv.URL + "/healthz")
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	idp, err := newIdentityProvider(testConfig(t).Auth)
	require.NoError(t, err)
	token, err := idp.Generate("uid-cmd", "+620000")
	require.NoError(t, err)

	client := apiconnect.NewAuthServiceClient(srv.Client(), srv.URL)
	login, err := client.Login(context.Background(), connect.NewRequest(&api.LoginRequest{Token: token}))
	require.NoError(t, err)
	require.NotNil(t, login.Msg.User)
	assert.Equal(t, "uid-cmd", login.Msg.User.FirebaseUID)

	payments := apiconnect.NewPaymentServiceClient(srv.Client(), srv.URL)
	_, err = payments.CreatePayment(context.Background(), connect.NewRequest(&api.CreatePaymentRequest{BillID: 1}))
	require.Error(t, err)
	assert.Equal(t, connect.CodeUnauthenticated, connect.CodeOf(err))
}

func TestNewAppRejectsBadCallbackHash(t *testing.T) {
	cfg := testConfig(t)
	cfg.Gateway.CallbackTokenHash = "not-a-bcrypt-hash"

	_, err := newApp(context.Background(), cfg)
	require.Error(t, err)
}

func TestTokenCommands(t *testing.T) {
	t.Setenv("PAYTUNGAN_AUTH_JWT_SECRET", testSecret)
	t.Setenv("PAYTUNGAN_DATABASE_DSN", filepath.Join(t.TempDir(), "unused.db"))

	t.Run("generate", func(t *testing.T) {
		var out bytes.Buffer
		cmd := rootCmd()
		cmd.SetOut(&out)
		cmd.SetArgs([]string{"token", "generate", "uid-42", "--phone", "+62811"})
		require.NoError(t, cmd.Execute())

		idp, err := auth.NewJWTManager(auth.JWTConfig{Secret: testSecret})
		require.NoError(t, err)
		decoded, err := idp.DecodeToken(context.Background(), strings.TrimSpace(out.String()))
		require.NoError(t, err)
		assert.Equal(t, "uid-42", decoded.UID)
		assert.Equal(t, "+62811", decoded.PhoneNumber)
	})

	t.Run("hash-callback", func(t *testing.T) {
		var out bytes.Buffer
		cmd := rootCmd()
		cmd.SetOut(&out)
		cmd.SetArgs([]string{"token", "hash-callback", "callback-secret"})
		require.NoError(t, cmd.Execute())

		verifier, err := auth.NewCallbackVerifier(strings.TrimSpace(out.String()))
		require.NoError(t, err)
		assert.NoError(t, verifier.Verify("callback-secret"))
		assert.Error(t, verifier.Verify("other"))
	})
}

func TestReportCommandRejectsBadID(t *testing.T) {
	cmd := rootCmd()
	cmd.SetOut(&bytes.Buffer{})
	cmd.SetArgs([]string{"report", "abc"})
	err := cmd.Execute()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid split bill id")
}
