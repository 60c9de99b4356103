// Package xendit implements gateway.Client against the Xendit REST API.
package xendit

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"math"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/paytungan/paytungan/internal/gateway"
	"github.com/paytungan/paytungan/internal/models"
)

// DefaultBaseURL is the production API endpoint.
const DefaultBaseURL = "https://api.xendit.co"

// Ensure Client implements gateway.Client
var _ gateway.Client = (*Client)(nil)

// Config configures the Xendit client.
type Config struct {
	BaseURL   string
	SecretKey string

	// Timeout bounds a single HTTP exchange. Zero means 30s.
	Timeout time.Duration

	// Currency for invoices and payouts. Empty means IDR.
	Currency string
}

// Client talks to Xendit over HTTPS using basic auth with the secret key.
type Client struct {
	baseURL    string
	secretKey  string
	currency   string
	httpClient *http.Client
}

// New creates a Xendit client.
func New(cfg Config) *Client {
	if cfg.BaseURL == "" {
		cfg.BaseURL = DefaultBaseURL
	}
	if cfg.Timeout == 0 {
		cfg.Timeout = 30 * time.Second
	}
	if cfg.Currency == "" {
		cfg.Currency = "IDR"
	}
	return &Client{
		baseURL:    strings.TrimRight(cfg.BaseURL, "/"),
		secretKey:  cfg.SecretKey,
		currency:   cfg.Currency,
		httpClient: &http.Client{Timeout: cfg.Timeout},
	}
}

// APIError is a non-2xx response from Xendit.
type APIError struct {
	StatusCode int
	ErrorCode  string `json:"error_code"`
	Message    string `json:"message"`
}

func (e *APIError) Error() string {
	return fmt.Sprintf("xendit: %d %s: %s", e.StatusCode, e.ErrorCode, e.Message)
}

type invoice struct {
	ID                 string     `json:"id"`
	ExternalID         string     `json:"external_id"`
	Status             string     `json:"status"`
	Amount             float64    `json:"amount"`
	Description        string     `json:"description"`
	InvoiceURL         string     `json:"invoice_url"`
	ExpiryDate         time.Time  `json:"expiry_date"`
	PaymentMethod      string     `json:"payment_method,omitempty"`
	PaidAmount         float64    `json:"paid_amount,omitempty"`
	PayerEmail         string     `json:"payer_email,omitempty"`
	PaidAt             *time.Time `json:"paid_at,omitempty"`
	SuccessRedirectURL string     `json:"success_redirect_url,omitempty"`
	FailureRedirectURL string     `json:"failure_redirect_url,omitempty"`
}

func (i *invoice) toModel() *models.Invoice {
	return &models.Invoice{
		ID:                 i.ID,
		ExternalID:         i.ExternalID,
		Description:        i.Description,
		URL:                i.InvoiceURL,
		Status:             models.InvoiceStatus(i.Status),
		Amount:             toMinor(i.Amount),
		ExpiryDate:         i.ExpiryDate.UTC(),
		PaymentMethod:      i.PaymentMethod,
		PaidAmount:         toMinor(i.PaidAmount),
		PayerEmail:         i.PayerEmail,
		PaidAt:             i.PaidAt,
		SuccessRedirectURL: i.SuccessRedirectURL,
		FailureRedirectURL: i.FailureRedirectURL,
	}
}

type createInvoiceRequest struct {
	ExternalID         string `json:"external_id"`
	Amount             int64  `json:"amount"`
	Description        string `json:"description,omitempty"`
	PayerEmail         string `json:"payer_email,omitempty"`
	InvoiceDuration    int64  `json:"invoice_duration,omitempty"`
	SuccessRedirectURL string `json:"success_redirect_url,omitempty"`
	FailureRedirectURL string `json:"failure_redirect_url,omitempty"`
	Currency           string `json:"currency"`
}

type channelProperties struct {
	AccountNumber     string `json:"account_number"`
	AccountHolderName string `json:"account_holder_name,omitempty"`
}

type payout struct {
	ID                string            `json:"id"`
	ReferenceID       string            `json:"reference_id"`
	Amount            float64           `json:"amount"`
	Status            string            `json:"status"`
	ChannelCode       string            `json:"channel_code"`
	ChannelProperties channelProperties `json:"channel_properties"`
	Description       string            `json:"description,omitempty"`
	Currency          string            `json:"currency,omitempty"`
}

func (p *payout) toModel() *models.Payout {
	return &models.Payout{
		ExternalID:        p.ID,
		ReferenceID:       p.ReferenceID,
		Amount:            toMinor(p.Amount),
		Status:            models.PayoutStatus(p.Status),
		ChannelCode:       p.ChannelCode,
		AccountNumber:     p.ChannelProperties.AccountNumber,
		AccountHolderName: p.ChannelProperties.AccountHolderName,
	}
}

// GetInvoice fetches an invoice by id. A 404 yields (nil, nil).
func (c *Client) GetInvoice(ctx context.Context, id string) (*models.Invoice, error) {
	var inv invoice
	found, err := c.do(ctx, http.MethodGet, "/v2/invoices/"+url.PathEscape(id), nil, nil, &inv)
	if err != nil {
		return nil, fmt.Errorf("failed to get invoice %s: %w", id, err)
	}
	if !found {
		return nil, nil
	}
	return inv.toModel(), nil
}

// CreateInvoice creates a hosted invoice.
func (c *Client) CreateInvoice(ctx context.Context, spec models.CreateInvoiceSpec) (*models.Invoice, error) {
	req := createInvoiceRequest{
		ExternalID:         spec.ExternalID,
		Amount:             spec.Amount,
		Description:        spec.Description,
		PayerEmail:         spec.PayerEmail,
		InvoiceDuration:    int64(spec.Duration / time.Second),
		SuccessRedirectURL: spec.SuccessRedirectURL,
		FailureRedirectURL: spec.FailureRedirectURL,
		Currency:           c.currency,
	}
	var inv invoice
	if _, err := c.do(ctx, http.MethodPost, "/v2/invoices", nil, req, &inv); err != nil {
		return nil, fmt.Errorf("failed to create invoice: %w", err)
	}
	slog.Debug("Xendit invoice created", "id", inv.ID, "external_id", inv.ExternalID, "amount", inv.Amount)
	return inv.toModel(), nil
}

// GetPayout looks the split bill's payout up by reference id.
func (c *Client) GetPayout(ctx context.Context, splitBillID int64) (*models.Payout, error) {
	ref := gateway.PayoutReferenceID(splitBillID)
	var payouts []payout
	found, err := c.do(ctx, http.MethodGet, "/v2/payouts?reference_id="+url.QueryEscape(ref), nil, nil, &payouts)
	if err != nil {
		return nil, fmt.Errorf("failed to get payout %s: %w", ref, err)
	}
	if !found || len(payouts) == 0 {
		return nil, nil
	}
	return payouts[0].toModel(), nil
}

// CreatePayout creates a payout. The idempotency key makes retries safe.
func (c *Client) CreatePayout(ctx context.Context, spec models.CreateGatewayPayoutSpec) (*models.Payout, error) {
	req := payout{
		ReferenceID: spec.ReferenceID,
		Amount:      float64(spec.Amount),
		ChannelCode: spec.ChannelCode,
		ChannelProperties: channelProperties{
			AccountNumber:     spec.AccountNumber,
			AccountHolderName: spec.AccountHolderName,
		},
		Description: spec.Description,
		Currency:    c.currency,
	}
	headers := http.Header{}
	headers.Set("Idempotency-key", spec.IdempotencyKey)

	var p payout
	if _, err := c.do(ctx, http.MethodPost, "/v2/payouts", headers, req, &p); err != nil {
		return nil, fmt.Errorf("failed to create payout %s: %w", spec.ReferenceID, err)
	}
	slog.Debug("Xendit payout created", "id", p.ID, "reference_id", p.ReferenceID, "status", p.Status)
	return p.toModel(), nil
}

// do performs a JSON request. A GET answered with 404 reports found=false;
// any other non-2xx status returns an *APIError.
func (c *Client) do(ctx context.Context, method, path string, headers http.Header, body, out any) (bool, error) {
	var reader io.Reader
	if body != nil {
		buf, err := json.Marshal(body)
		if err != nil {
			return false, fmt.Errorf("failed to encode request: %w", err)
		}
		reader = bytes.NewReader(buf)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return false, fmt.Errorf("failed to build request: %w", err)
	}
	req.SetBasicAuth(c.secretKey, "")
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	for k, v := range headers {
		req.Header[k] = v
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return false, err
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return false, fmt.Errorf("failed to read response: %w", err)
	}

	if method == http.MethodGet && resp.StatusCode == http.StatusNotFound {
		return false, nil
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		apiErr := &APIError{StatusCode: resp.StatusCode}
		if err := json.Unmarshal(raw, apiErr); err != nil || apiErr.Message == "" {
			apiErr.Message = strings.TrimSpace(string(raw))
		}
		return false, apiErr
	}

	if out != nil {
		if err := json.Unmarshal(raw, out); err != nil {
			return false, fmt.Errorf("failed to decode response: %w", err)
		}
	}
	return true, nil
}

func toMinor(amount float64) int64 {
	return int64(math.Round(amount))
}
