// Package handler содержит HTTP-обработчики API сервиса корзины.
package handler

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"go.uber.org/zap"

	"github.com/akozyrev/shopcart-system/internal/middleware"
	"github.com/akozyrev/shopcart-system/internal/model"
	"github.com/akozyrev/shopcart-system/internal/service"
	"github.com/akozyrev/shopcart-system/internal/validation"
)

// Service определяет контракт бизнес-логики, используемой HTTP-обработчиками.
type Service interface {
	RegisterUser(ctx context.Context, email, name, password string) (*model.User, error)
	AuthenticateUser(ctx context.Context, email, password string) (*model.User, error)
	GetUserByID(ctx context.Context, id string) (*model.User, error)
	SetAddress(ctx context.Context, u *model.User, addr *model.Address) (*model.Address, error)
	ListProducts(ctx context.Context) ([]model.Product, error)
	GetCartByUser(ctx context.Context, u *model.User) (*model.Cart, error)
	AddProductToCart(ctx context.Context, u *model.User, productID string, quantity int) (*model.Cart, error)
	UpdateProductInCart(ctx context.Context, u *model.User, productID string, quantity int) (*model.Cart, error)
	DeleteProductFromCart(ctx context.Context, u *model.User, productID string) error
	Checkout(ctx context.Context, u *model.User) (int64, int64, error)
}

// Handler реализует HTTP-обработчики API сервиса корзины.
type Handler struct {
	service        Service
	logger         *zap.Logger
	authMiddleware *middleware.AuthMiddleware
	metrics        *middleware.Metrics
}

// NewHandler создаёт новый экземпляр обработчика HTTP-запросов.
// metrics может быть nil, тогда endpoint /metrics не поднимается.
func NewHandler(s Service, logger *zap.Logger, auth *middleware.AuthMiddleware, metrics *middleware.Metrics) *Handler {
	return &Handler{
		service:        s,
		logger:         logger,
		authMiddleware: auth,
		metrics:        metrics,
	}
}

type registerRequest struct {
	Email    string `json:"email"`
	Name     string `json:"name"`
	Password string `json:"password"`
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type userResponse struct {
	ID     string  `json:"id"`
	Email  string  `json:"email"`
	Name   string  `json:"name"`
	Wallet float64 `json:"wallet"`
}

type messageResponse struct {
	Message string `json:"message"`
}

// Register обрабатывает регистрацию нового пользователя.
func (h *Handler) Register(w http.ResponseWriter, r *http.Request) {
	var req registerRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, http.StatusText(http.StatusBadRequest), http.StatusBadRequest)
		return
	}

	if req.Name == "" {
		http.Error(w, http.StatusText(http.StatusBadRequest), http.StatusBadRequest)
		return
	}
	if !validation.IsValidEmail(req.Email) {
		http.Error(w, "invalid email", http.StatusBadRequest)
		return
	}
	if !validation.IsStrongPassword(req.Password) {
		http.Error(w, "weak password", http.StatusBadRequest)
		return
	}

	u, err := h.service.RegisterUser(r.Context(), req.Email, req.Name, req.Password)
	if err != nil {
		// Дубликат email намеренно отдаётся со статусом успеха,
		// чтобы не раскрывать наличие аккаунта.
		if errors.Is(err, service.ErrEmailTaken) {
			h.writeJSON(w, http.StatusOK, messageResponse{Message: err.Error()})
			return
		}
		h.logger.Error("register user error", zap.Error(err))
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	if err := h.authMiddleware.SetAuthCookie(w, u.ID, u.Email); err != nil {
		h.logger.Error("set auth cookie error", zap.Error(err))
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	h.writeJSON(w, http.StatusOK, toUserResponse(u))
}

// Login выполняет аутентификацию пользователя и установку cookie.
func (h *Handler) Login(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, http.StatusText(http.StatusBadRequest), http.StatusBadRequest)
		return
	}

	if req.Email == "" || req.Password == "" {
		http.Error(w, http.StatusText(http.StatusBadRequest), http.StatusBadRequest)
		return
	}

	u, err := h.service.AuthenticateUser(r.Context(), req.Email, req.Password)
	if err != nil {
		if errors.Is(err, service.ErrInvalidCredentials) {
			http.Error(w, err.Error(), http.StatusUnauthorized)
			return
		}
		h.logger.Error("login user error", zap.Error(err))
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	if err := h.authMiddleware.SetAuthCookie(w, u.ID, u.Email); err != nil {
		h.logger.Error("set auth cookie error", zap.Error(err))
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	h.writeJSON(w, http.StatusOK, toUserResponse(u))
}

// SetAddress перезаписывает адрес доставки текущего пользователя.
func (h *Handler) SetAddress(w http.ResponseWriter, r *http.Request) {
	u, ok := h.currentUser(w, r)
	if !ok {
		return
	}

	var addr model.Address
	if err := json.NewDecoder(r.Body).Decode(&addr); err != nil {
		http.Error(w, http.StatusText(http.StatusBadRequest), http.StatusBadRequest)
		return
	}

	if addr.Street == "" || addr.City == "" || addr.Country == "" {
		http.Error(w, http.StatusText(http.StatusBadRequest), http.StatusBadRequest)
		return
	}

	saved, err := h.service.SetAddress(r.Context(), u, &addr)
	if err != nil {
		h.logger.Error("set address error", zap.Error(err), zap.String("userID", u.ID))
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	h.writeJSON(w, http.StatusOK, saved)
}

type productResponse struct {
	ID          string  `json:"id"`
	Name        string  `json:"name"`
	Description string  `json:"description"`
	Cost        float64 `json:"cost"`
	ImageURL    string  `json:"image_url"`
}

// ListProducts возвращает каталог товаров.
func (h *Handler) ListProducts(w http.ResponseWriter, r *http.Request) {
	products, err := h.service.ListProducts(r.Context())
	if err != nil {
		h.logger.Error("list products error", zap.Error(err))
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	resp := make([]productResponse, 0, len(products))
	for _, p := range products {
		resp = append(resp, toProductResponse(p))
	}

	h.writeJSON(w, http.StatusOK, resp)
}

// currentUser загружает пользователя из контекста запроса. Если пользователь
// не найден (например, аккаунт удалён после выдачи токена), пишет 401.
func (h *Handler) currentUser(w http.ResponseWriter, r *http.Request) (*model.User, bool) {
	id, ok := middleware.GetUserIDFromContext(r.Context())
	if !ok {
		http.Error(w, http.StatusText(http.StatusUnauthorized), http.StatusUnauthorized)
		return nil, false
	}

	u, err := h.service.GetUserByID(r.Context(), id)
	if err != nil {
		h.logger.Error("get user error", zap.Error(err), zap.String("userID", id))
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return nil, false
	}
	if u == nil {
		http.Error(w, http.StatusText(http.StatusUnauthorized), http.StatusUnauthorized)
		return nil, false
	}

	return u, true
}

func (h *Handler) writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		h.logger.Error("encode response error", zap.Error(err))
	}
}

func toUserResponse(u *model.User) userResponse {
	return userResponse{
		ID:     u.ID,
		Email:  u.Email,
		Name:   u.Name,
		Wallet: float64(u.WalletCents) / 100,
	}
}

func toProductResponse(p model.Product) productResponse {
	return productResponse{
		ID:          p.ID,
		Name:        p.Name,
		Description: p.Description,
		Cost:        float64(p.CostCents) / 100,
		ImageURL:    p.ImageURL,
	}
}
