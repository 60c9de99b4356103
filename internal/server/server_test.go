package server

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strconv"
	"strings"
	"testing"

	"connectrpc.com/connect"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/paytungan/paytungan/internal/auth"
	"github.com/paytungan/paytungan/internal/gateway/memory"
	"github.com/paytungan/paytungan/internal/metrics"
	"github.com/paytungan/paytungan/internal/models"
	"github.com/paytungan/paytungan/internal/payment"
	"github.com/paytungan/paytungan/internal/report"
	"github.com/paytungan/paytungan/internal/service"
	"github.com/paytungan/paytungan/internal/storage/sqlstore"
	"github.com/paytungan/paytungan/pkg/api"
	"github.com/paytungan/paytungan/pkg/api/apiconnect"
)

const callbackToken = "callback-secret"

type fixture struct {
	server *httptest.Server
	store  *sqlstore.Store
	gw     *memory.Gateway
	engine *payment.Engine
	jwt    *auth.JWTManager
	payer  *models.User
	split  *models.SplitBill
}

func init() {
	gin.SetMode(gin.TestMode)
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	ctx := context.Background()

	store, err := sqlstore.New(filepath.Join(t.TempDir(), "server.db"))
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })

	jwtManager, err := auth.NewJWTManager(auth.JWTConfig{Secret: "test-secret"})
	require.NoError(t, err)
	hash, err := auth.HashCallbackToken(callbackToken)
	require.NoError(t, err)
	verifier, err := auth.NewCallbackVerifier(hash)
	require.NoError(t, err)

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	gw := memory.New()
	engine := payment.NewEngine(payment.DepsFromStore(store, gw), payment.WithLogger(logger))
	authService := auth.NewService(jwtManager, store, logger)

	path, handler := apiconnect.NewPaymentServiceHandler(service.NewPaymentService(engine))
	router := New(Config{
		Store:    store,
		Engine:   engine,
		Exporter: report.NewExporter(store),
		Authn:    authService,
		Callback: verifier,
		Metrics:  metrics.New(),
		RPC:      []Route{{Path: path, Handler: handler}},
	})
	srv := httptest.NewServer(Handler(router))
	t.Cleanup(srv.Close)

	f := &fixture{server: srv, store: store, gw: gw, engine: engine, jwt: jwtManager}

	host := &models.User{FirebaseUID: "uid-host"}
	require.NoError(t, store.CreateUser(ctx, host))
	f.payer = &models.User{FirebaseUID: "uid-payer", Email: "payer@example.com"}
	require.NoError(t, store.CreateUser(ctx, f.payer))

	f.split = &models.SplitBill{
		Name:             "Dinner",
		HostID:           host.ID,
		WithdrawalMethod: "ID_BCA",
		WithdrawalNumber: "1234567890",
		Total:            20000,
		Subtotal:         20000,
		Bills: []models.Bill{
			{UserID: host.ID, Amount: 10000},
			{UserID: f.payer.ID, Amount: 10000},
		},
	}
	require.NoError(t, store.CreateSplitBill(ctx, f.split))
	return f
}

func (f *fixture) createPayment(t *testing.T) *models.Payment {
	t.Helper()
	p, err := f.engine.CreatePayment(context.Background(), models.CreatePaymentSpec{BillID: f.split.Bills[1].ID}, f.payer)
	require.NoError(t, err)
	return p
}

func (f *fixture) callback(t *testing.T, token, body string) *http.Response {
	t.Helper()
	req, err := http.NewRequest(http.MethodPost, f.server.URL+"/callbacks/xendit/invoice", strings.NewReader(body))
	require.NoError(t, err)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set(CallbackTokenHeader, token)
	}
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	t.Cleanup(func() { resp.Body.Close() })
	return resp
}

func TestHealthAndMetrics(t *testing.T) {
	f := newFixture(t)

	resp, err := http.Get(f.server.URL + "/healthz")
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	resp, err = http.Get(f.server.URL + "/metrics")
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	assert.Contains(t, string(body), "go_goroutines")
}

func TestInvoiceCallback(t *testing.T) {
	f := newFixture(t)
	p := f.createPayment(t)
	body := `{"id":"` + p.ReferenceNo + `","external_id":"` + p.Number + `","status":"PAID"}`

	t.Run("rejects missing token", func(t *testing.T) {
		assert.Equal(t, http.StatusUnauthorized, f.callback(t, "", body).StatusCode)
	})

	t.Run("rejects wrong token", func(t *testing.T) {
		assert.Equal(t, http.StatusUnauthorized, f.callback(t, "wrong", body).StatusCode)
	})

	t.Run("rejects malformed body", func(t *testing.T) {
		assert.Equal(t, http.StatusBadRequest, f.callback(t, callbackToken, `{}`).StatusCode)
	})

	t.Run("unknown invoice", func(t *testing.T) {
		assert.Equal(t, http.StatusNotFound, f.callback(t, callbackToken, `{"id":"inv_unknown"}`).StatusCode)
	})

	t.Run("unpaid invoice leaves bill pending", func(t *testing.T) {
		assert.Equal(t, http.StatusOK, f.callback(t, callbackToken, body).StatusCode)
		bill, err := f.store.GetBill(context.Background(), p.BillID)
		require.NoError(t, err)
		assert.Equal(t, models.BillStatusPending, bill.Status)
	})

	t.Run("paid invoice marks bill paid, repeatedly", func(t *testing.T) {
		require.NoError(t, f.gw.MarkPaid(p.ReferenceNo))
		for i := 0; i < 2; i++ {
			assert.Equal(t, http.StatusOK, f.callback(t, callbackToken, body).StatusCode)
		}
		bill, err := f.store.GetBill(context.Background(), p.BillID)
		require.NoError(t, err)
		assert.Equal(t, models.BillStatusPaid, bill.Status)
	})
}

func TestInvoiceCallbackSupersededInvoice(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	first := f.createPayment(t)
	_, err := f.engine.CreateInvoiceForPayment(ctx, models.CreateInvoicePaymentSpec{PaymentID: first.ID})
	require.NoError(t, err)

	require.NoError(t, f.gw.MarkPaid(first.ReferenceNo))
	body := `{"id":"` + first.ReferenceNo + `","external_id":"` + first.Number + `","status":"PAID"}`
	assert.Equal(t, http.StatusOK, f.callback(t, callbackToken, body).StatusCode)

	bill, err := f.store.GetBill(ctx, first.BillID)
	require.NoError(t, err)
	assert.Equal(t, models.BillStatusPaid, bill.Status)
	payment, err := f.store.GetPayment(ctx, first.ID)
	require.NoError(t, err)
	assert.Equal(t, models.PaymentStatusPaid, payment.Status)
}

func TestConnectServicesMounted(t *testing.T) {
	f := newFixture(t)
	p := f.createPayment(t)

	client := apiconnect.NewPaymentServiceClient(http.DefaultClient, f.server.URL)
	resp, err := client.GetPayment(context.Background(), connect.NewRequest(&api.GetPaymentRequest{ID: p.ID}))
	require.NoError(t, err)
	assert.Equal(t, p.ReferenceNo, resp.Msg.Payment.ReferenceNo)
}

func TestExportSplitBill(t *testing.T) {
	f := newFixture(t)
	url := f.server.URL + "/split-bills/" + strconv.FormatInt(f.split.ID, 10) + "/export"

	resp, err := http.Get(url)
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)

	token, err := f.jwt.Generate("uid-host", "")
	require.NoError(t, err)
	req, err := http.NewRequest(http.MethodGet, url, nil)
	require.NoError(t, err)
	req.Header.Set("Authorization", "Bearer "+token)

	resp, err = http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, report.ContentType, resp.Header.Get("Content-Type"))
	assert.Contains(t, resp.Header.Get("Content-Disposition"), "Dinner_Export_")

	req, err = http.NewRequest(http.MethodGet, f.server.URL+"/split-bills/999/export", nil)
	require.NoError(t, err)
	req.Header.Set("Authorization", "Bearer "+token)
	resp, err = http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}
