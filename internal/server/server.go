// Package server builds the HTTP router: the Connect RPC services, the
// payment gateway callback, health, metrics and report downloads.
package server

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"slices"
	"strconv"
	"strings"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/newrelic/go-agent/v3/integrations/nrgin"
	"github.com/newrelic/go-agent/v3/newrelic"
	"golang.org/x/net/http2"
	"golang.org/x/net/http2/h2c"

	"github.com/paytungan/paytungan/internal/apperr"
	"github.com/paytungan/paytungan/internal/auth"
	"github.com/paytungan/paytungan/internal/metrics"
	"github.com/paytungan/paytungan/internal/middleware"
	"github.com/paytungan/paytungan/internal/payment"
	"github.com/paytungan/paytungan/internal/report"
	"github.com/paytungan/paytungan/internal/storage"
)

// CallbackTokenHeader carries the gateway's callback verification token.
const CallbackTokenHeader = "x-callback-token"

const healthTimeout = 2 * time.Second

// Route is a Connect service handler mounted under Path.
type Route struct {
	Path    string
	Handler http.Handler
}

// Config holds everything the router serves.
type Config struct {
	Store    storage.Store
	Engine   *payment.Engine
	Exporter *report.Exporter
	Authn    middleware.Authenticator

	// Callback verifies gateway callbacks. Nil disables the callback route.
	Callback *auth.CallbackVerifier

	// Metrics is served at /metrics when set.
	Metrics *metrics.Metrics

	// NewRelic instruments every request when set.
	NewRelic *newrelic.Application

	AllowedOrigins []string
	RPC            []Route
}

type handlers struct {
	store    storage.Store
	engine   *payment.Engine
	exporter *report.Exporter
	callback *auth.CallbackVerifier
}

// New creates the gin router.
func New(cfg Config) *gin.Engine {
	router := gin.New()
	router.Use(gin.Recovery(), requestLogger())
	if cfg.NewRelic != nil {
		router.Use(nrgin.Middleware(cfg.NewRelic))
	}
	router.Use(cors.New(corsConfig(cfg.AllowedOrigins)))

	h := &handlers{
		store:    cfg.Store,
		engine:   cfg.Engine,
		exporter: cfg.Exporter,
		callback: cfg.Callback,
	}

	router.GET("/healthz", h.health)
	if cfg.Metrics != nil {
		router.GET("/metrics", gin.WrapH(cfg.Metrics.Handler()))
	}
	if cfg.Callback != nil {
		router.POST("/callbacks/xendit/invoice", h.invoiceCallback)
	}
	if cfg.Exporter != nil {
		router.GET("/split-bills/:id/export", requireToken(cfg.Authn), h.exportSplitBill)
	}

	for _, r := range cfg.RPC {
		router.Any(r.Path+"*procedure", gin.WrapH(r.Handler))
	}
	return router
}

// Handler wraps the router with h2c so Connect and gRPC clients can use
// HTTP/2 without TLS.
func Handler(router *gin.Engine) http.Handler {
	return h2c.NewHandler(router, &http2.Server{})
}

func corsConfig(origins []string) cors.Config {
	cfg := cors.Config{
		AllowMethods:  []string{"GET", "POST", "OPTIONS"},
		AllowHeaders:  []string{"Origin", "Content-Type", "Accept", "Authorization", "Connect-Protocol-Version", "Connect-Timeout-Ms"},
		ExposeHeaders: []string{"Content-Length", "Content-Disposition", "Connect-Protocol-Version", "Connect-Timeout-Ms"},
		MaxAge:        12 * time.Hour,
	}
	if len(origins) == 0 || slices.Contains(origins, "*") {
		cfg.AllowAllOrigins = true
	} else {
		cfg.AllowOrigins = origins
		cfg.AllowCredentials = true
	}
	return cfg
}

// requestLogger logs all incoming requests
func requestLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		slog.Info("Request completed",
			"method", c.Request.Method,
			"path", c.Request.URL.Path,
			"status", c.Writer.Status(),
			"remote_addr", c.ClientIP(),
			"duration_ms", time.Since(start).Milliseconds(),
		)
	}
}

// requireToken rejects requests without a valid bearer identity token.
func requireToken(authn middleware.Authenticator) gin.HandlerFunc {
	return func(c *gin.Context) {
		token, ok := strings.CutPrefix(c.GetHeader("Authorization"), "Bearer ")
		if !ok || token == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": auth.ErrMissingToken.Error()})
			return
		}
		decoded, err := authn.DecodeToken(c.Request.Context(), token)
		if err != nil {
			abortWithError(c, err)
			return
		}
		ctx := context.WithValue(c.Request.Context(), middleware.TokenKey, decoded)
		c.Request = c.Request.WithContext(ctx)
		c.Next()
	}
}

func abortWithError(c *gin.Context, err error) {
	status := apperr.HTTPStatus(err)
	if status >= http.StatusInternalServerError {
		slog.Error("Request failed", "path", c.Request.URL.Path, "error", err)
	} else {
		slog.Warn("Request rejected", "path", c.Request.URL.Path, "error", err)
	}
	c.AbortWithStatusJSON(status, gin.H{"error": apperr.PublicMessage(err)})
}

func (h *handlers) health(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), healthTimeout)
	defer cancel()
	if err := h.store.Ping(ctx); err != nil {
		slog.Error("Health check failed", "error", err)
		c.JSON(http.StatusServiceUnavailable, gin.H{"status": "unavailable"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

// invoiceCallbackBody is the body of the gateway's invoice callback. Only the
// invoice id is trusted; the status is re-read from the gateway.
type invoiceCallbackBody struct {
	ID         string `json:"id"`
	ExternalID string `json:"external_id"`
	Status     string `json:"status"`
}

// invoiceCallback reconciles the payment behind a paid invoice, including
// one replaced since it was issued. Gateways deliver callbacks at least
// once, and settling is idempotent.
func (h *handlers) invoiceCallback(c *gin.Context) {
	if err := h.callback.Verify(c.GetHeader(CallbackTokenHeader)); err != nil {
		slog.Warn("Rejected gateway callback", "remote_addr", c.ClientIP())
		c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": err.Error()})
		return
	}

	var body invoiceCallbackBody
	if err := c.ShouldBindJSON(&body); err != nil || body.ID == "" {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "invalid callback body"})
		return
	}

	result, err := h.engine.SettleInvoice(c.Request.Context(), body.ID)
	if err != nil {
		abortWithError(c, err)
		return
	}

	slog.Info("Gateway callback handled",
		"invoice_id", body.ID,
		"callback_status", body.Status,
		"payment_id", result.Payment.ID,
		"payment_status", result.Payment.Status,
	)
	c.JSON(http.StatusOK, gin.H{
		"payment_id": result.Payment.ID,
		"bill_id":    result.Bill.ID,
		"status":     result.Payment.Status,
	})
}

func (h *handlers) exportSplitBill(c *gin.Context) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil || id <= 0 {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "invalid split bill id"})
		return
	}

	f, filename, err := h.exporter.SplitBill(c.Request.Context(), id)
	if err != nil {
		abortWithError(c, err)
		return
	}
	defer f.Close()

	c.Header("Content-Type", report.ContentType)
	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))
	c.Status(http.StatusOK)
	if err := f.Write(c.Writer); err != nil {
		slog.Error("Failed to write export", "split_bill_id", id, "error", err)
	}
}
