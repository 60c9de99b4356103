// Package apiconnect wires the paytungan.v1 services to Connect handlers and
// clients. Every handler and client speaks the JSON codec from package api.
package apiconnect

import (
	"context"
	"net/http"
	"strings"

	"connectrpc.com/connect"

	"github.com/paytungan/paytungan/pkg/api"
)

const (
	PaymentServiceName   = "paytungan.v1.PaymentService"
	AuthServiceName      = "paytungan.v1.AuthService"
	UserServiceName      = "paytungan.v1.UserService"
	SplitBillServiceName = "paytungan.v1.SplitBillService"
)

const (
	PaymentServiceGetPaymentProcedure              = "/paytungan.v1.PaymentService/GetPayment"
	PaymentServiceCreatePaymentProcedure           = "/paytungan.v1.PaymentService/CreatePayment"
	PaymentServiceUpdateStatusProcedure            = "/paytungan.v1.PaymentService/UpdateStatus"
	PaymentServiceGetPaymentByBillIdProcedure      = "/paytungan.v1.PaymentService/GetPaymentByBillId"
	PaymentServiceGetPaymentListProcedure          = "/paytungan.v1.PaymentService/GetPaymentList"
	PaymentServiceCreateInvoiceForPaymentProcedure = "/paytungan.v1.PaymentService/CreateInvoiceForPayment"
	PaymentServiceGetPayoutProcedure               = "/paytungan.v1.PaymentService/GetPayout"
	PaymentServiceCreatePayoutProcedure            = "/paytungan.v1.PaymentService/CreatePayout"
	PaymentServiceGetOrCreatePayoutProcedure       = "/paytungan.v1.PaymentService/GetOrCreatePayout"

	AuthServiceLoginProcedure          = "/paytungan.v1.AuthService/Login"
	AuthServiceGetCurrentUserProcedure = "/paytungan.v1.AuthService/GetCurrentUser"

	UserServiceGetUserProcedure     = "/paytungan.v1.UserService/GetUser"
	UserServiceGetUserListProcedure = "/paytungan.v1.UserService/GetUserList"
	UserServiceUpdateUserProcedure  = "/paytungan.v1.UserService/UpdateUser"

	SplitBillServiceCreateSplitBillProcedure = "/paytungan.v1.SplitBillService/CreateSplitBill"
	SplitBillServiceGetSplitBillProcedure    = "/paytungan.v1.SplitBillService/GetSplitBill"
	SplitBillServiceGetBillProcedure         = "/paytungan.v1.SplitBillService/GetBill"
)

func handlerOptions(opts []connect.HandlerOption) []connect.HandlerOption {
	return append([]connect.HandlerOption{connect.WithCodec(api.JSONCodec{})}, opts...)
}

func clientOptions(opts []connect.ClientOption) []connect.ClientOption {
	return append([]connect.ClientOption{connect.WithCodec(api.JSONCodec{})}, opts...)
}

// route dispatches to the handler registered for the request path.
func route(handlers map[string]http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if h, ok := handlers[r.URL.Path]; ok {
			h.ServeHTTP(w, r)
			return
		}
		http.NotFound(w, r)
	})
}

func servicePath(name string) string {
	return "/" + name + "/"
}

func endpoint(baseURL, procedure string) string {
	return strings.TrimRight(baseURL, "/") + procedure
}

// PaymentServiceHandler is implemented by the payment RPC service.
type PaymentServiceHandler interface {
	GetPayment(context.Context, *connect.Request[api.GetPaymentRequest]) (*connect.Response[api.GetPaymentResponse], error)
	CreatePayment(context.Context, *connect.Request[api.CreatePaymentRequest]) (*connect.Response[api.CreatePaymentResponse], error)
	UpdateStatus(context.Context, *connect.Request[api.UpdateStatusRequest]) (*connect.Response[api.UpdateStatusResponse], error)
	GetPaymentByBillId(context.Context, *connect.Request[api.GetPaymentByBillIdRequest]) (*connect.Response[api.GetPaymentByBillIdResponse], error)
	GetPaymentList(context.Context, *connect.Request[api.GetPaymentListRequest]) (*connect.Response[api.GetPaymentListResponse], error)
	CreateInvoiceForPayment(context.Context, *connect.Request[api.CreateInvoiceForPaymentRequest]) (*connect.Response[api.CreateInvoiceForPaymentResponse], error)
	GetPayout(context.Context, *connect.Request[api.GetPayoutRequest]) (*connect.Response[api.GetPayoutResponse], error)
	CreatePayout(context.Context, *connect.Request[api.CreatePayoutRequest]) (*connect.Response[api.CreatePayoutResponse], error)
	GetOrCreatePayout(context.Context, *connect.Request[api.CreatePayoutRequest]) (*connect.Response[api.CreatePayoutResponse], error)
}

// NewPaymentServiceHandler builds an HTTP handler from the service
// implementation. It returns the path on which to mount the handler and the
// handler itself.
func NewPaymentServiceHandler(svc PaymentServiceHandler, opts ...connect.HandlerOption) (string, http.Handler) {
	opts = handlerOptions(opts)
	return servicePath(PaymentServiceName), route(map[string]http.Handler{
		PaymentServiceGetPaymentProcedure:              connect.NewUnaryHandler(PaymentServiceGetPaymentProcedure, svc.GetPayment, opts...),
		PaymentServiceCreatePaymentProcedure:           connect.NewUnaryHandler(PaymentServiceCreatePaymentProcedure, svc.CreatePayment, opts...),
		PaymentServiceUpdateStatusProcedure:            connect.NewUnaryHandler(PaymentServiceUpdateStatusProcedure, svc.UpdateStatus, opts...),
		PaymentServiceGetPaymentByBillIdProcedure:      connect.NewUnaryHandler(PaymentServiceGetPaymentByBillIdProcedure, svc.GetPaymentByBillId, opts...),
		PaymentServiceGetPaymentListProcedure:          connect.NewUnaryHandler(PaymentServiceGetPaymentListProcedure, svc.GetPaymentList, opts...),
		PaymentServiceCreateInvoiceForPaymentProcedure: connect.NewUnaryHandler(PaymentServiceCreateInvoiceForPaymentProcedure, svc.CreateInvoiceForPayment, opts...),
		PaymentServiceGetPayoutProcedure:               connect.NewUnaryHandler(PaymentServiceGetPayoutProcedure, svc.GetPayout, opts...),
		PaymentServiceCreatePayoutProcedure:            connect.NewUnaryHandler(PaymentServiceCreatePayoutProcedure, svc.CreatePayout, opts...),
		PaymentServiceGetOrCreatePayoutProcedure:       connect.NewUnaryHandler(PaymentServiceGetOrCreatePayoutProcedure, svc.GetOrCreatePayout, opts...),
	})
}

// PaymentServiceClient is a client for paytungan.v1.PaymentService.
type PaymentServiceClient struct {
	getPayment              *connect.Client[api.GetPaymentRequest, api.GetPaymentResponse]
	createPayment           *connect.Client[api.CreatePaymentRequest, api.CreatePaymentResponse]
	updateStatus            *connect.Client[api.UpdateStatusRequest, api.UpdateStatusResponse]
	getPaymentByBillId      *connect.Client[api.GetPaymentByBillIdRequest, api.GetPaymentByBillIdResponse]
	getPaymentList          *connect.Client[api.GetPaymentListRequest, api.GetPaymentListResponse]
	createInvoiceForPayment *connect.Client[api.CreateInvoiceForPaymentRequest, api.CreateInvoiceForPaymentResponse]
	getPayout               *connect.Client[api.GetPayoutRequest, api.GetPayoutResponse]
	createPayout            *connect.Client[api.CreatePayoutRequest, api.CreatePayoutResponse]
	getOrCreatePayout       *connect.Client[api.CreatePayoutRequest, api.CreatePayoutResponse]
}

func NewPaymentServiceClient(httpClient connect.HTTPClient, baseURL string, opts ...connect.ClientOption) *PaymentServiceClient {
	opts = clientOptions(opts)
	return &PaymentServiceClient{
		getPayment:              connect.NewClient[api.GetPaymentRequest, api.GetPaymentResponse](httpClient, endpoint(baseURL, PaymentServiceGetPaymentProcedure), opts...),
		createPayment:           connect.NewClient[api.CreatePaymentRequest, api.CreatePaymentResponse](httpClient, endpoint(baseURL, PaymentServiceCreatePaymentProcedure), opts...),
		updateStatus:            connect.NewClient[api.UpdateStatusRequest, api.UpdateStatusResponse](httpClient, endpoint(baseURL, PaymentServiceUpdateStatusProcedure), opts...),
		getPaymentByBillId:      connect.NewClient[api.GetPaymentByBillIdRequest, api.GetPaymentByBillIdResponse](httpClient, endpoint(baseURL, PaymentServiceGetPaymentByBillIdProcedure), opts...),
		getPaymentList:          connect.NewClient[api.GetPaymentListRequest, api.GetPaymentListResponse](httpClient, endpoint(baseURL, PaymentServiceGetPaymentListProcedure), opts...),
		createInvoiceForPayment: connect.NewClient[api.CreateInvoiceForPaymentRequest, api.CreateInvoiceForPaymentResponse](httpClient, endpoint(baseURL, PaymentServiceCreateInvoiceForPaymentProcedure), opts...),
		getPayout:               connect.NewClient[api.GetPayoutRequest, api.GetPayoutResponse](httpClient, endpoint(baseURL, PaymentServiceGetPayoutProcedure), opts...),
		createPayout:            connect.NewClient[api.CreatePayoutRequest, api.CreatePayoutResponse](httpClient, endpoint(baseURL, PaymentServiceCreatePayoutProcedure), opts...),
		getOrCreatePayout:       connect.NewClient[api.CreatePayoutRequest, api.CreatePayoutResponse](httpClient, endpoint(baseURL, PaymentServiceGetOrCreatePayoutProcedure), opts...),
	}
}

func (c *PaymentServiceClient) GetPayment(ctx context.Context, req *connect.Request[api.GetPaymentRequest]) (*connect.Response[api.GetPaymentResponse], error) {
	return c.getPayment.CallUnary(ctx, req)
}

func (c *PaymentServiceClient) CreatePayment(ctx context.Context, req *connect.Request[api.CreatePaymentRequest]) (*connect.Response[api.CreatePaymentResponse], error) {
	return c.createPayment.CallUnary(ctx, req)
}

func (c *PaymentServiceClient) UpdateStatus(ctx context.Context, req *connect.Request[api.UpdateStatusRequest]) (*connect.Response[api.UpdateStatusResponse], error) {
	return c.updateStatus.CallUnary(ctx, req)
}

func (c *PaymentServiceClient) GetPaymentByBillId(ctx context.Context, req *connect.Request[api.GetPaymentByBillIdRequest]) (*connect.Response[api.GetPaymentByBillIdResponse], error) {
	return c.getPaymentByBillId.CallUnary(ctx, req)
}

func (c *PaymentServiceClient) GetPaymentList(ctx context.Context, req *connect.Request[api.GetPaymentListRequest]) (*connect.Response[api.GetPaymentListResponse], error) {
	return c.getPaymentList.CallUnary(ctx, req)
}

func (c *PaymentServiceClient) CreateInvoiceForPayment(ctx context.Context, req *connect.Request[api.CreateInvoiceForPaymentRequest]) (*connect.Response[api.CreateInvoiceForPaymentResponse], error) {
	return c.createInvoiceForPayment.CallUnary(ctx, req)
}

func (c *PaymentServiceClient) GetPayout(ctx context.Context, req *connect.Request[api.GetPayoutRequest]) (*connect.Response[api.GetPayoutResponse], error) {
	return c.getPayout.CallUnary(ctx, req)
}

func (c *PaymentServiceClient) CreatePayout(ctx context.Context, req *connect.Request[api.CreatePayoutRequest]) (*connect.Response[api.CreatePayoutResponse], error) {
	return c.createPayout.CallUnary(ctx, req)
}

func (c *PaymentServiceClient) GetOrCreatePayout(ctx context.Context, req *connect.Request[api.CreatePayoutRequest]) (*connect.Response[api.CreatePayoutResponse], error) {
	return c.getOrCreatePayout.CallUnary(ctx, req)
}

// AuthServiceHandler is implemented by the auth RPC service.
type AuthServiceHandler interface {
	Login(context.Context, *connect.Request[api.LoginRequest]) (*connect.Response[api.LoginResponse], error)
	GetCurrentUser(context.Context, *connect.Request[api.GetCurrentUserRequest]) (*connect.Response[api.GetCurrentUserResponse], error)
}

func NewAuthServiceHandler(svc AuthServiceHandler, opts ...connect.HandlerOption) (string, http.Handler) {
	opts = handlerOptions(opts)
	return servicePath(AuthServiceName), route(map[string]http.Handler{
		AuthServiceLoginProcedure:          connect.NewUnaryHandler(AuthServiceLoginProcedure, svc.Login, opts...),
		AuthServiceGetCurrentUserProcedure: connect.NewUnaryHandler(AuthServiceGetCurrentUserProcedure, svc.GetCurrentUser, opts...),
	})
}

// AuthServiceClient is a client for paytungan.v1.AuthService.
type AuthServiceClient struct {
	login          *connect.Client[api.LoginRequest, api.LoginResponse]
	getCurrentUser *connect.Client[api.GetCurrentUserRequest, api.GetCurrentUserResponse]
}

func NewAuthServiceClient(httpClient connect.HTTPClient, baseURL string, opts ...connect.ClientOption) *AuthServiceClient {
	opts = clientOptions(opts)
	return &AuthServiceClient{
		login:          connect.NewClient[api.LoginRequest, api.LoginResponse](httpClient, endpoint(baseURL, AuthServiceLoginProcedure), opts...),
		getCurrentUser: connect.NewClient[api.GetCurrentUserRequest, api.GetCurrentUserResponse](httpClient, endpoint(baseURL, AuthServiceGetCurrentUserProcedure), opts...),
	}
}

func (c *AuthServiceClient) Login(ctx context.Context, req *connect.Request[api.LoginRequest]) (*connect.Response[api.LoginResponse], error) {
	return c.login.CallUnary(ctx, req)
}

func (c *AuthServiceClient) GetCurrentUser(ctx context.Context, req *connect.Request[api.GetCurrentUserRequest]) (*connect.Response[api.GetCurrentUserResponse], error) {
	return c.getCurrentUser.CallUnary(ctx, req)
}

// UserServiceHandler is implemented by the user RPC service.
type UserServiceHandler interface {
	GetUser(context.Context, *connect.Request[api.GetUserRequest]) (*connect.Response[api.GetUserResponse], error)
	GetUserList(context.Context, *connect.Request[api.GetUserListRequest]) (*connect.Response[api.GetUserListResponse], error)
	UpdateUser(context.Context, *connect.Request[api.UpdateUserRequest]) (*connect.Response[api.UpdateUserResponse], error)
}

func NewUserServiceHandler(svc UserServiceHandler, opts ...connect.HandlerOption) (string, http.Handler) {
	opts = handlerOptions(opts)
	return servicePath(UserServiceName), route(map[string]http.Handler{
		UserServiceGetUserProcedure:     connect.NewUnaryHandler(UserServiceGetUserProcedure, svc.GetUser, opts...),
		UserServiceGetUserListProcedure: connect.NewUnaryHandler(UserServiceGetUserListProcedure, svc.GetUserList, opts...),
		UserServiceUpdateUserProcedure:  connect.NewUnaryHandler(UserServiceUpdateUserProcedure, svc.UpdateUser, opts...),
	})
}

// UserServiceClient is a client for paytungan.v1.UserService.
type UserServiceClient struct {
	getUser     *connect.Client[api.GetUserRequest, api.GetUserResponse]
	getUserList *connect.Client[api.GetUserListRequest, api.GetUserListResponse]
	updateUser  *connect.Client[api.UpdateUserRequest, api.UpdateUserResponse]
}

func NewUserServiceClient(httpClient connect.HTTPClient, baseURL string, opts ...connect.ClientOption) *UserServiceClient {
	opts = clientOptions(opts)
	return &UserServiceClient{
		getUser:     connect.NewClient[api.GetUserRequest, api.GetUserResponse](httpClient, endpoint(baseURL, UserServiceGetUserProcedure), opts...),
		getUserList: connect.NewClient[api.GetUserListRequest, api.GetUserListResponse](httpClient, endpoint(baseURL, UserServiceGetUserListProcedure), opts...),
		updateUser:  connect.NewClient[api.UpdateUserRequest, api.UpdateUserResponse](httpClient, endpoint(baseURL, UserServiceUpdateUserProcedure), opts...),
	}
}

func (c *UserServiceClient) GetUser(ctx context.Context, req *connect.Request[api.GetUserRequest]) (*connect.Response[api.GetUserResponse], error) {
	return c.getUser.CallUnary(ctx, req)
}

func (c *UserServiceClient) GetUserList(ctx context.Context, req *connect.Request[api.GetUserListRequest]) (*connect.Response[api.GetUserListResponse], error) {
	return c.getUserList.CallUnary(ctx, req)
}

func (c *UserServiceClient) UpdateUser(ctx context.Context, req *connect.Request[api.UpdateUserRequest]) (*connect.Response[api.UpdateUserResponse], error) {
	return c.updateUser.CallUnary(ctx, req)
}

// SplitBillServiceHandler is implemented by the split bill RPC service.
type SplitBillServiceHandler interface {
	CreateSplitBill(context.Context, *connect.Request[api.CreateSplitBillRequest]) (*connect.Response[api.CreateSplitBillResponse], error)
	GetSplitBill(context.Context, *connect.Request[api.GetSplitBillRequest]) (*connect.Response[api.GetSplitBillResponse], error)
	GetBill(context.Context, *connect.Request[api.GetBillRequest]) (*connect.Response[api.GetBillResponse], error)
}

func NewSplitBillServiceHandler(svc SplitBillServiceHandler, opts ...connect.HandlerOption) (string, http.Handler) {
	opts = handlerOptions(opts)
	return servicePath(SplitBillServiceName), route(map[string]http.Handler{
		SplitBillServiceCreateSplitBillProcedure: connect.NewUnaryHandler(SplitBillServiceCreateSplitBillProcedure, svc.CreateSplitBill, opts...),
		SplitBillServiceGetSplitBillProcedure:    connect.NewUnaryHandler(SplitBillServiceGetSplitBillProcedure, svc.GetSplitBill, opts...),
		SplitBillServiceGetBillProcedure:         connect.NewUnaryHandler(SplitBillServiceGetBillProcedure, svc.GetBill, opts...),
	})
}

// SplitBillServiceClient is a client for paytungan.v1.SplitBillService.
type SplitBillServiceClient struct {
	createSplitBill *connect.Client[api.CreateSplitBillRequest, api.CreateSplitBillResponse]
	getSplitBill    *connect.Client[api.GetSplitBillRequest, api.GetSplitBillResponse]
	getBill         *connect.Client[api.GetBillRequest, api.GetBillResponse]
}

func NewSplitBillServiceClient(httpClient connect.HTTPClient, baseURL string, opts ...connect.ClientOption) *SplitBillServiceClient {
	opts = clientOptions(opts)
	return &SplitBillServiceClient{
		createSplitBill: connect.NewClient[api.CreateSplitBillRequest, api.CreateSplitBillResponse](httpClient, endpoint(baseURL, SplitBillServiceCreateSplitBillProcedure), opts...),
		getSplitBill:    connect.NewClient[api.GetSplitBillRequest, api.GetSplitBillResponse](httpClient, endpoint(baseURL, SplitBillServiceGetSplitBillProcedure), opts...),
		getBill:         connect.NewClient[api.GetBillRequest, api.GetBillResponse](httpClient, endpoint(baseURL, SplitBillServiceGetBillProcedure), opts...),
	}
}

func (c *SplitBillServiceClient) CreateSplitBill(ctx context.Context, req *connect.Request[api.CreateSplitBillRequest]) (*connect.Response[api.CreateSplitBillResponse], error) {
	return c.createSplitBill.CallUnary(ctx, req)
}

func (c *SplitBillServiceClient) GetSplitBill(ctx context.Context, req *connect.Request[api.GetSplitBillRequest]) (*connect.Response[api.GetSplitBillResponse], error) {
	return c.getSplitBill.CallUnary(ctx, req)
}

func (c *SplitBillServiceClient) GetBill(ctx context.Context, req *connect.Request[api.GetBillRequest]) (*connect.Response[api.GetBillResponse], error) {
	return c.getBill.CallUnary(ctx, req)
}
