package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"go.uber.org/zap"

	"github.com/akozyrev/shopcart-system/internal/middleware"
	"github.com/akozyrev/shopcart-system/internal/model"
	"github.com/akozyrev/shopcart-system/internal/service"
)

type stubService struct {
	registerUser *model.User
	registerErr  error

	authUser *model.User
	authErr  error

	currentUser *model.User
	userErr     error

	addressResp *model.Address
	addressErr  error

	products    []model.Product
	productsErr error

	cartResp *model.Cart
	cartErr  error

	deleteErr error

	checkoutTotal  int64
	checkoutWallet int64
	checkoutErr    error
}

func (s *stubService) RegisterUser(ctx context.Context, email, name, password string) (*model.User, error) {
	return s.registerUser, s.registerErr
}

func (s *stubService) AuthenticateUser(ctx context.Context, email, password string) (*model.User, error) {
	return s.authUser, s.authErr
}

func (s *stubService) GetUserByID(ctx context.Context, id string) (*model.User, error) {
	return s.currentUser, s.userErr
}

func (s *stubService) SetAddress(ctx context.Context, u *model.User, addr *model.Address) (*model.Address, error) {
	return s.addressResp, s.addressErr
}

func (s *stubService) ListProducts(ctx context.Context) ([]model.Product, error) {
	return s.products, s.productsErr
}

func (s *stubService) GetCartByUser(ctx context.Context, u *model.User) (*model.Cart, error) {
	return s.cartResp, s.cartErr
}

func (s *stubService) AddProductToCart(ctx context.Context, u *model.User, productID string, quantity int) (*model.Cart, error) {
	return s.cartResp, s.cartErr
}

func (s *stubService) UpdateProductInCart(ctx context.Context, u *model.User, productID string, quantity int) (*model.Cart, error) {
	return s.cartResp, s.cartErr
}

func (s *stubService) DeleteProductFromCart(ctx context.Context, u *model.User, productID string) error {
	return s.deleteErr
}

func (s *stubService) Checkout(ctx context.Context, u *model.User) (int64, int64, error) {
	return s.checkoutTotal, s.checkoutWallet, s.checkoutErr
}

func newTestHandler(t *testing.T, svc Service) *Handler {
	t.Helper()

	logger, err := zap.NewDevelopment()
	if err != nil {
		t.Fatalf("new logger: %v", err)
	}

	auth := middleware.NewAuthMiddleware("test-secret")

	return NewHandler(svc, logger, auth, nil)
}

func authorizedRequest(t *testing.T, h *Handler, method, target string, body io.Reader) *http.Request {
	t.Helper()

	req := httptest.NewRequest(method, target, body)

	rec := httptest.NewRecorder()
	if err := h.authMiddleware.SetAuthCookie(rec, "user-1", "user@example.com"); err != nil {
		t.Fatalf("set auth cookie: %v", err)
	}
	req.AddCookie(rec.Result().Cookies()[0])

	return req
}

func TestRegister_Success(t *testing.T) {
	svc := &stubService{
		registerUser: &model.User{ID: "user-1", Email: "user@example.com", Name: "User", WalletCents: 50000},
	}
	h := newTestHandler(t, svc)

	body, _ := json.Marshal(registerRequest{
		Email:    "user@example.com",
		Name:     "User",
		Password: "secret123",
	})

	req := httptest.NewRequest(http.MethodPost, "/api/user/register", bytes.NewReader(body))
	rec := httptest.NewRecorder()

	h.Register(rec, req)

	res := rec.Result()
	if res.StatusCode != http.StatusOK {
		t.Fatalf("status = %d, want %d", res.StatusCode, http.StatusOK)
	}

	var resp userResponse
	if err := json.NewDecoder(res.Body).Decode(&resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if resp.Wallet != 500 {
		t.Fatalf("wallet = %v, want 500", resp.Wallet)
	}

	if len(res.Cookies()) == 0 {
		t.Fatalf("auth cookie not set on register")
	}
}

func TestRegister_DuplicateEmailIsSuccessStatus(t *testing.T) {
	svc := &stubService{
		registerErr: service.ErrEmailTaken,
	}
	h := newTestHandler(t, svc)

	body, _ := json.Marshal(registerRequest{
		Email:    "user@example.com",
		Name:     "User",
		Password: "secret123",
	})

	req := httptest.NewRequest(http.MethodPost, "/api/user/register", bytes.NewReader(body))
	rec := httptest.NewRecorder()

	h.Register(rec, req)

	res := rec.Result()
	if res.StatusCode != http.StatusOK {
		t.Fatalf("status = %d, want %d (duplicate email is reported as success)", res.StatusCode, http.StatusOK)
	}

	raw, _ := io.ReadAll(res.Body)
	if !strings.Contains(string(raw), "user already exists, please login") {
		t.Fatalf("body %q does not contain duplicate-email message", string(raw))
	}

	if len(res.Cookies()) != 0 {
		t.Fatalf("auth cookie must not be set for duplicate email")
	}
}

func TestRegister_ShapeValidation(t *testing.T) {
	h := newTestHandler(t, &stubService{})

	tests := []struct {
		name string
		body registerRequest
	}{
		{
			name: "bad email",
			body: registerRequest{Email: "not-an-email", Name: "User", Password: "secret123"},
		},
		{
			name: "weak password",
			body: registerRequest{Email: "user@example.com", Name: "User", Password: "short1"},
		},
		{
			name: "missing name",
			body: registerRequest{Email: "user@example.com", Password: "secret123"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			body, _ := json.Marshal(tt.body)
			req := httptest.NewRequest(http.MethodPost, "/api/user/register", bytes.NewReader(body))
			rec := httptest.NewRecorder()

			h.Register(rec, req)

			if rec.Result().StatusCode != http.StatusBadRequest {
				t.Fatalf("status = %d, want %d", rec.Result().StatusCode, http.StatusBadRequest)
			}
		})
	}
}

func TestLogin_InvalidCredentials(t *testing.T) {
	svc := &stubService{
		authErr: service.ErrInvalidCredentials,
	}
	h := newTestHandler(t, svc)

	body, _ := json.Marshal(loginRequest{
		Email:    "user@example.com",
		Password: "wrong-pass",
	})

	req := httptest.NewRequest(http.MethodPost, "/api/user/login", bytes.NewReader(body))
	rec := httptest.NewRecorder()

	h.Login(rec, req)

	res := rec.Result()
	if res.StatusCode != http.StatusUnauthorized {
		t.Fatalf("status = %d, want %d", res.StatusCode, http.StatusUnauthorized)
	}
}

func TestGetCart_NotFound(t *testing.T) {
	svc := &stubService{
		currentUser: &model.User{ID: "user-1", Email: "user@example.com"},
		cartErr:     service.ErrCartNotFound,
	}
	h := newTestHandler(t, svc)

	req := authorizedRequest(t, h, http.MethodGet, "/api/cart", nil)
	rec := httptest.NewRecorder()

	h.authMiddleware.Middleware(http.HandlerFunc(h.GetCart)).ServeHTTP(rec, req)

	res := rec.Result()
	if res.StatusCode != http.StatusNotFound {
		t.Fatalf("status = %d, want %d", res.StatusCode, http.StatusNotFound)
	}
}

func TestAddToCart_Conflict(t *testing.T) {
	svc := &stubService{
		currentUser: &model.User{ID: "user-1", Email: "user@example.com"},
		cartErr:     service.ErrAlreadyInCart,
	}
	h := newTestHandler(t, svc)

	body, _ := json.Marshal(cartItemRequest{ProductID: "p-1", Quantity: 1})
	req := authorizedRequest(t, h, http.MethodPost, "/api/cart", bytes.NewReader(body))
	rec := httptest.NewRecorder()

	h.authMiddleware.Middleware(http.HandlerFunc(h.AddToCart)).ServeHTTP(rec, req)

	res := rec.Result()
	if res.StatusCode != http.StatusConflict {
		t.Fatalf("status = %d, want %d", res.StatusCode, http.StatusConflict)
	}

	raw, _ := io.ReadAll(res.Body)
	if !strings.Contains(string(raw), "already in cart") {
		t.Fatalf("body %q does not contain conflict message", string(raw))
	}
}

func TestAddToCart_InvalidQuantity(t *testing.T) {
	svc := &stubService{
		currentUser: &model.User{ID: "user-1", Email: "user@example.com"},
	}
	h := newTestHandler(t, svc)

	body, _ := json.Marshal(cartItemRequest{ProductID: "p-1", Quantity: 0})
	req := authorizedRequest(t, h, http.MethodPost, "/api/cart", bytes.NewReader(body))
	rec := httptest.NewRecorder()

	h.authMiddleware.Middleware(http.HandlerFunc(h.AddToCart)).ServeHTTP(rec, req)

	if rec.Result().StatusCode != http.StatusBadRequest {
		t.Fatalf("status = %d, want %d", rec.Result().StatusCode, http.StatusBadRequest)
	}
}

func TestUpdateCart_NoCartMessage(t *testing.T) {
	svc := &stubService{
		currentUser: &model.User{ID: "user-1", Email: "user@example.com"},
		cartErr:     service.ErrNoCart,
	}
	h := newTestHandler(t, svc)

	body, _ := json.Marshal(cartItemRequest{ProductID: "p-1", Quantity: 2})
	req := authorizedRequest(t, h, http.MethodPut, "/api/cart", bytes.NewReader(body))
	rec := httptest.NewRecorder()

	h.authMiddleware.Middleware(http.HandlerFunc(h.UpdateCart)).ServeHTTP(rec, req)

	res := rec.Result()
	if res.StatusCode != http.StatusBadRequest {
		t.Fatalf("status = %d, want %d", res.StatusCode, http.StatusBadRequest)
	}

	raw, _ := io.ReadAll(res.Body)
	if strings.TrimSpace(string(raw)) != "no cart" {
		t.Fatalf("body = %q, want %q", strings.TrimSpace(string(raw)), "no cart")
	}
}

func TestCheckout_InsufficientMoney(t *testing.T) {
	svc := &stubService{
		currentUser: &model.User{ID: "user-1", Email: "user@example.com"},
		checkoutErr: service.ErrInsufficientFunds,
	}
	h := newTestHandler(t, svc)

	req := authorizedRequest(t, h, http.MethodPost, "/api/cart/checkout", nil)
	rec := httptest.NewRecorder()

	h.authMiddleware.Middleware(http.HandlerFunc(h.Checkout)).ServeHTTP(rec, req)

	res := rec.Result()
	if res.StatusCode != http.StatusBadRequest {
		t.Fatalf("status = %d, want %d", res.StatusCode, http.StatusBadRequest)
	}

	raw, _ := io.ReadAll(res.Body)
	if strings.TrimSpace(string(raw)) != "insufficient money" {
		t.Fatalf("body = %q, want %q", strings.TrimSpace(string(raw)), "insufficient money")
	}
}

func TestCheckout_Success(t *testing.T) {
	svc := &stubService{
		currentUser:    &model.User{ID: "user-1", Email: "user@example.com"},
		checkoutTotal:  25000,
		checkoutWallet: 25000,
	}
	h := newTestHandler(t, svc)

	req := authorizedRequest(t, h, http.MethodPost, "/api/cart/checkout", nil)
	rec := httptest.NewRecorder()

	h.authMiddleware.Middleware(http.HandlerFunc(h.Checkout)).ServeHTTP(rec, req)

	res := rec.Result()
	if res.StatusCode != http.StatusOK {
		t.Fatalf("status = %d, want %d", res.StatusCode, http.StatusOK)
	}

	var resp checkoutResponse
	if err := json.NewDecoder(res.Body).Decode(&resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if resp.Total != 250 || resp.Wallet != 250 {
		t.Fatalf("response = %+v, want total 250 and wallet 250", resp)
	}
}

func TestCartEndpoints_Unauthorized(t *testing.T) {
	h := newTestHandler(t, &stubService{})

	req := httptest.NewRequest(http.MethodGet, "/api/cart", nil)
	rec := httptest.NewRecorder()

	h.authMiddleware.Middleware(http.HandlerFunc(h.GetCart)).ServeHTTP(rec, req)

	if rec.Result().StatusCode != http.StatusUnauthorized {
		t.Fatalf("status = %d, want %d", rec.Result().StatusCode, http.StatusUnauthorized)
	}
}

func TestGetCart_JSONResponse(t *testing.T) {
	svc := &stubService{
		currentUser: &model.User{ID: "user-1", Email: "user@example.com"},
		cartResp: &model.Cart{
			UserEmail:     "user@example.com",
			PaymentOption: "card",
			Items: []model.CartItem{
				{
					Product:  model.Product{ID: "p-1", Name: "Mouse", CostCents: 10000},
					Quantity: 2,
				},
			},
		},
	}
	h := newTestHandler(t, svc)

	req := authorizedRequest(t, h, http.MethodGet, "/api/cart", nil)
	rec := httptest.NewRecorder()

	h.authMiddleware.Middleware(http.HandlerFunc(h.GetCart)).ServeHTTP(rec, req)

	res := rec.Result()
	if res.StatusCode != http.StatusOK {
		t.Fatalf("status = %d, want %d", res.StatusCode, http.StatusOK)
	}
	if ct := res.Header.Get("Content-Type"); ct != "application/json" {
		t.Fatalf("content-type = %q, want application/json", ct)
	}

	var resp cartResponse
	if err := json.NewDecoder(res.Body).Decode(&resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if len(resp.Items) != 1 || resp.Items[0].Product.Cost != 100 {
		t.Fatalf("unexpected items: %+v", resp.Items)
	}
	if resp.Total != 200 {
		t.Fatalf("total = %v, want 200", resp.Total)
	}
}
