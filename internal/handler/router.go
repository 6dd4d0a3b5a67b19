package handler

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	custommiddleware "github.com/akozyrev/shopcart-system/internal/middleware"
)

// SetupRouter настраивает HTTP-маршруты и middleware сервиса корзины.
func (h *Handler) SetupRouter() *chi.Mux {
	r := chi.NewRouter()

	r.Use(custommiddleware.GzipMiddleware)
	r.Use(custommiddleware.Logger(h.logger))
	if h.metrics != nil {
		r.Use(h.metrics.Middleware)
	}

	r.Route("/api", func(r chi.Router) {
		r.Get("/products", h.ListProducts)

		r.Route("/user", func(r chi.Router) {
			r.Post("/register", h.Register)
			r.Post("/login", h.Login)

			r.Group(func(r chi.Router) {
				r.Use(h.authMiddleware.Middleware)

				r.Put("/address", h.SetAddress)
			})
		})

		r.Route("/cart", func(r chi.Router) {
			r.Use(h.authMiddleware.Middleware)

			r.Get("/", h.GetCart)
			r.Post("/", h.AddToCart)
			r.Put("/", h.UpdateCart)
			r.Delete("/{productID}", h.DeleteFromCart)

			r.Post("/checkout", h.Checkout)
		})
	})

	if h.metrics != nil {
		r.Handle("/metrics", promhttp.Handler())
	}

	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, http.StatusText(http.StatusNotFound), http.StatusNotFound)
	})

	r.MethodNotAllowed(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, http.StatusText(http.StatusMethodNotAllowed), http.StatusMethodNotAllowed)
	})

	return r
}
