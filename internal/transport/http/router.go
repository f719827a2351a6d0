package http

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	log "github.com/sirupsen/logrus"

	"github.com/vladislavdragonenkov/shop/internal/domain"
	"github.com/vladislavdragonenkov/shop/internal/service/cart"
	"github.com/vladislavdragonenkov/shop/internal/service/order"
)

// RouterConfig собирает зависимости HTTP-слоя.
type RouterConfig struct {
	Carts       *cart.Service
	Orders      *order.Service
	Idempotency domain.IdempotencyRepository
	Logger      *log.Entry
}

// NewRouter строит chi-роутер со всеми маршрутами API.
func NewRouter(cfg RouterConfig) http.Handler {
	logger := cfg.Logger
	if logger == nil {
		logger = log.New().WithField("component", "http")
	}

	cartHandler := NewCartHandler(cfg.Carts, logger)
	orderHandler := NewOrderHandler(cfg.Orders, cfg.Idempotency, logger)

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(30 * time.Second))

	r.Route("/api/v1", func(r chi.Router) {
		r.Route("/users/{userID}", func(r chi.Router) {
			r.Get("/cart", cartHandler.GetUserCart)
			r.Post("/cart/items", cartHandler.AddItem)
			r.Post("/orders", orderHandler.PlaceOrder)
			r.Get("/orders", orderHandler.ListUserOrders)
		})

		r.Route("/carts/{cartID}", func(r chi.Router) {
			r.Get("/", cartHandler.GetCart)
			r.Get("/total", cartHandler.GetTotal)
			r.Delete("/", cartHandler.ClearCart)
			r.Put("/items/{productID}", cartHandler.UpdateQuantity)
			r.Delete("/items/{productID}", cartHandler.RemoveItem)
		})

		r.Get("/orders/{orderID}", orderHandler.GetOrder)
	})

	return r
}
