package handler

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/akozyrev/shopcart-system/internal/model"
	"github.com/akozyrev/shopcart-system/internal/service"
)

type cartItemRequest struct {
	ProductID string `json:"product_id"`
	Quantity  int    `json:"quantity"`
}

type cartItemResponse struct {
	Product  productResponse `json:"product"`
	Quantity int             `json:"quantity"`
}

type cartResponse struct {
	UserEmail     string             `json:"user_email"`
	PaymentOption string             `json:"payment_option"`
	Items         []cartItemResponse `json:"items"`
	Total         float64            `json:"total"`
}

type checkoutResponse struct {
	Total  float64 `json:"total"`
	Wallet float64 `json:"wallet"`
}

// GetCart возвращает корзину текущего пользователя.
func (h *Handler) GetCart(w http.ResponseWriter, r *http.Request) {
	u, ok := h.currentUser(w, r)
	if !ok {
		return
	}

	cart, err := h.service.GetCartByUser(r.Context(), u)
	if err != nil {
		if errors.Is(err, service.ErrCartNotFound) {
			http.Error(w, err.Error(), http.StatusNotFound)
			return
		}
		h.logger.Error("get cart error", zap.Error(err), zap.String("userID", u.ID))
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	h.writeJSON(w, http.StatusOK, toCartResponse(cart))
}

// AddToCart добавляет товар в корзину текущего пользователя.
func (h *Handler) AddToCart(w http.ResponseWriter, r *http.Request) {
	u, ok := h.currentUser(w, r)
	if !ok {
		return
	}

	req, ok := h.decodeCartItem(w, r)
	if !ok {
		return
	}

	cart, err := h.service.AddProductToCart(r.Context(), u, req.ProductID, req.Quantity)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrAlreadyInCart):
			http.Error(w, err.Error(), http.StatusConflict)
		case errors.Is(err, service.ErrUnknownProduct):
			http.Error(w, err.Error(), http.StatusBadRequest)
		case errors.Is(err, service.ErrCartCreate):
			h.logger.Error("create cart error", zap.Error(err), zap.String("userID", u.ID))
			http.Error(w, service.ErrCartCreate.Error(), http.StatusInternalServerError)
		default:
			h.logger.Error("add to cart error", zap.Error(err), zap.String("userID", u.ID), zap.String("product", req.ProductID))
			http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		}
		return
	}

	h.writeJSON(w, http.StatusOK, toCartResponse(cart))
}

// UpdateCart заменяет количество товара в корзине текущего пользователя.
func (h *Handler) UpdateCart(w http.ResponseWriter, r *http.Request) {
	u, ok := h.currentUser(w, r)
	if !ok {
		return
	}

	req, ok := h.decodeCartItem(w, r)
	if !ok {
		return
	}

	cart, err := h.service.UpdateProductInCart(r.Context(), u, req.ProductID, req.Quantity)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrNoCart),
			errors.Is(err, service.ErrUnknownProduct),
			errors.Is(err, service.ErrNotInCart):
			http.Error(w, err.Error(), http.StatusBadRequest)
		default:
			h.logger.Error("update cart error", zap.Error(err), zap.String("userID", u.ID), zap.String("product", req.ProductID))
			http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		}
		return
	}

	h.writeJSON(w, http.StatusOK, toCartResponse(cart))
}

// DeleteFromCart удаляет товар из корзины текущего пользователя.
func (h *Handler) DeleteFromCart(w http.ResponseWriter, r *http.Request) {
	u, ok := h.currentUser(w, r)
	if !ok {
		return
	}

	productID := chi.URLParam(r, "productID")
	if productID == "" {
		http.Error(w, http.StatusText(http.StatusBadRequest), http.StatusBadRequest)
		return
	}

	err := h.service.DeleteProductFromCart(r.Context(), u, productID)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrNoCart), errors.Is(err, service.ErrNotInCart):
			http.Error(w, err.Error(), http.StatusBadRequest)
		default:
			h.logger.Error("delete from cart error", zap.Error(err), zap.String("userID", u.ID), zap.String("product", productID))
			http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		}
		return
	}

	w.WriteHeader(http.StatusOK)
}

// Checkout оформляет заказ по корзине текущего пользователя.
func (h *Handler) Checkout(w http.ResponseWriter, r *http.Request) {
	u, ok := h.currentUser(w, r)
	if !ok {
		return
	}

	totalCents, walletCents, err := h.service.Checkout(r.Context(), u)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrCartNotFound):
			http.Error(w, err.Error(), http.StatusNotFound)
		case errors.Is(err, service.ErrEmptyCart),
			errors.Is(err, service.ErrAddressNotSet),
			errors.Is(err, service.ErrInsufficientFunds):
			http.Error(w, err.Error(), http.StatusBadRequest)
		default:
			h.logger.Error("checkout error", zap.Error(err), zap.String("userID", u.ID))
			http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		}
		return
	}

	h.writeJSON(w, http.StatusOK, checkoutResponse{
		Total:  float64(totalCents) / 100,
		Wallet: float64(walletCents) / 100,
	})
}

func (h *Handler) decodeCartItem(w http.ResponseWriter, r *http.Request) (cartItemRequest, bool) {
	var req cartItemRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, http.StatusText(http.StatusBadRequest), http.StatusBadRequest)
		return req, false
	}

	if req.ProductID == "" {
		http.Error(w, "product_id is required", http.StatusBadRequest)
		return req, false
	}
	if req.Quantity <= 0 {
		http.Error(w, "quantity must be positive", http.StatusBadRequest)
		return req, false
	}

	return req, true
}

func toCartResponse(c *model.Cart) cartResponse {
	items := make([]cartItemResponse, 0, len(c.Items))
	for _, item := range c.Items {
		items = append(items, cartItemResponse{
			Product:  toProductResponse(item.Product),
			Quantity: item.Quantity,
		})
	}

	return cartResponse{
		UserEmail:     c.UserEmail,
		PaymentOption: c.PaymentOption,
		Items:         items,
		Total:         float64(c.TotalCents()) / 100,
	}
}
