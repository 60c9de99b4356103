package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"connectrpc.com/connect"
	"github.com/newrelic/go-agent/v3/newrelic"

	"github.com/paytungan/paytungan/internal/auth"
	"github.com/paytungan/paytungan/internal/config"
	"github.com/paytungan/paytungan/internal/gateway"
	"github.com/paytungan/paytungan/internal/gateway/memory"
	"github.com/paytungan/paytungan/internal/gateway/xendit"
	"github.com/paytungan/paytungan/internal/metrics"
	"github.com/paytungan/paytungan/internal/middleware"
	"github.com/paytungan/paytungan/internal/payment"
	"github.com/paytungan/paytungan/internal/report"
	"github.com/paytungan/paytungan/internal/server"
	"github.com/paytungan/paytungan/internal/service"
	"github.com/paytungan/paytungan/internal/storage/sqlstore"
	"github.com/paytungan/paytungan/pkg/api/apiconnect"
)

// app is the fully wired server.
type app struct {
	store    *sqlstore.Store
	router   server.Config
	newRelic *newrelic.Application
}

func openStore(ctx context.Context, cfg *config.Config) (*sqlstore.Store, error) {
	store, err := sqlstore.Open(ctx, cfg.Database.Driver, cfg.Database.DSN)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize storage: %w", err)
	}
	slog.Info("Storage initialized", "driver", cfg.Database.Driver)
	return store, nil
}

func newGateway(cfg config.GatewayConfig) gateway.Client {
	if cfg.Provider == config.ProviderXendit {
		return xendit.New(xendit.Config{
			BaseURL:   cfg.BaseURL,
			SecretKey: cfg.SecretKey,
			Timeout:   cfg.Timeout,
			Currency:  cfg.Currency,
		})
	}
	slog.Warn("Using in-memory payment gateway, no real payments will be collected")
	return memory.New()
}

func newIdentityProvider(cfg config.AuthConfig) (*auth.JWTManager, error) {
	return auth.NewJWTManager(auth.JWTConfig{
		Secret:        cfg.JWTSecret,
		PublicKeyPEM:  cfg.PublicKeyPEM,
		Issuer:        cfg.Issuer,
		Audience:      cfg.Audience,
		TokenDuration: cfg.TokenDuration,
	})
}

// newApp wires every component from cfg. The caller owns the returned
// store and must close it.
func newApp(ctx context.Context, cfg *config.Config) (*app, error) {
	store, err := openStore(ctx, cfg)
	if err != nil {
		return nil, err
	}

	idp, err := newIdentityProvider(cfg.Auth)
	if err != nil {
		store.Close()
		return nil, err
	}

	var verifier *auth.CallbackVerifier
	if cfg.Gateway.CallbackTokenHash != "" {
		if verifier, err = auth.NewCallbackVerifier(cfg.Gateway.CallbackTokenHash); err != nil {
			store.Close()
			return nil, err
		}
	} else {
		slog.Warn("Gateway callback token not configured, callback route disabled")
	}

	var nrApp *newrelic.Application
	if cfg.NewRelic.LicenseKey != "" {
		nrApp, err = newrelic.NewApplication(
			newrelic.ConfigAppName(cfg.NewRelic.AppName),
			newrelic.ConfigLicense(cfg.NewRelic.LicenseKey),
			newrelic.ConfigDistributedTracerEnabled(true),
		)
		if err != nil {
			slog.Warn("Failed to initialize New Relic", "error", err)
			nrApp = nil
		}
	}

	m := metrics.New()
	logger := slog.Default()
	gw := gateway.Instrument(newGateway(cfg.Gateway), m)
	engine := payment.NewEngine(payment.DepsFromStore(store, gw),
		payment.WithInvoiceDuration(cfg.Payment.InvoiceDuration),
		payment.WithGatewayTimeout(cfg.Payment.GatewayTimeout),
		payment.WithLogger(logger),
		payment.WithMetrics(m),
	)
	authService := auth.NewService(idp, store, logger)

	interceptors := connect.WithInterceptors(
		middleware.LoggingInterceptor(m),
		middleware.RequireAuth(authService, service.AuthPolicy()),
	)
	var routes []server.Route
	add := func(path string, handler http.Handler) {
		routes = append(routes, server.Route{Path: path, Handler: handler})
	}
	add(apiconnect.NewPaymentServiceHandler(service.NewPaymentService(engine), interceptors))
	add(apiconnect.NewAuthServiceHandler(service.NewAuthService(authService, logger), interceptors))
	add(apiconnect.NewUserServiceHandler(service.NewUserService(auth.NewUsers(store)), interceptors))
	add(apiconnect.NewSplitBillServiceHandler(service.NewSplitBillService(payment.NewSplitBills(store, store, store)), interceptors))

	return &app{
		store:    store,
		newRelic: nrApp,
		router: server.Config{
			Store:          store,
			Engine:         engine,
			Exporter:       report.NewExporter(store),
			Authn:          authService,
			Callback:       verifier,
			Metrics:        m,
			NewRelic:       nrApp,
			AllowedOrigins: cfg.HTTP.AllowedOrigins,
			RPC:            routes,
		},
	}, nil
}

func (a *app) close() {
	if a.newRelic != nil {
		a.newRelic.Shutdown(5 * time.Second)
	}
	if err := a.store.Close(); err != nil {
		slog.Error("Failed to close storage", "error", err)
	}
}
