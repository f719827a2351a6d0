package http

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"
	log "github.com/sirupsen/logrus"

	"github.com/vladislavdragonenkov/shop/internal/service/cart"
)

// CartHandler обслуживает HTTP-операции над корзиной.
type CartHandler struct {
	carts  *cart.Service
	logger *log.Entry
}

// NewCartHandler создаёт handler корзины.
func NewCartHandler(carts *cart.Service, logger *log.Entry) *CartHandler {
	if logger == nil {
		logger = log.New().WithField("component", "http-cart")
	}
	return &CartHandler{carts: carts, logger: logger}
}

// GetCart возвращает корзину по идентификатору.
func (h *CartHandler) GetCart(w http.ResponseWriter, r *http.Request) {
	cartID := chi.URLParam(r, "cartID")

	c, err := h.carts.Get(cartID)
	if err != nil {
		respondDomainError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, toCartResponse(c))
}

// GetUserCart возвращает корзину пользователя, лениво создавая пустую.
func (h *CartHandler) GetUserCart(w http.ResponseWriter, r *http.Request) {
	userID := chi.URLParam(r, "userID")

	c, err := h.carts.GetOrCreate(userID)
	if err != nil {
		respondDomainError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, toCartResponse(c))
}

// AddItem добавляет товар в корзину пользователя.
// Корзина создаётся лениво при первом добавлении.
func (h *CartHandler) AddItem(w http.ResponseWriter, r *http.Request) {
	userID := chi.URLParam(r, "userID")

	var req addItemRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid_request", "invalid JSON body")
		return
	}
	if req.ProductID == "" {
		respondError(w, http.StatusBadRequest, "invalid_product_id", "product_id is required")
		return
	}

	c, err := h.carts.AddItemForUser(userID, req.ProductID, req.Quantity)
	if err != nil {
		respondDomainError(w, err)
		return
	}
	respondJSON(w, http.StatusCreated, toCartResponse(c))
}

// UpdateQuantity выставляет количество позиции абсолютным значением.
func (h *CartHandler) UpdateQuantity(w http.ResponseWriter, r *http.Request) {
	cartID := chi.URLParam(r, "cartID")
	productID := chi.URLParam(r, "productID")

	var req updateQuantityRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid_request", "invalid JSON body")
		return
	}

	if err := h.carts.UpdateQuantity(cartID, productID, req.Quantity); err != nil {
		respondDomainError(w, err)
		return
	}

	c, err := h.carts.Get(cartID)
	if err != nil {
		respondDomainError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, toCartResponse(c))
}

// RemoveItem удаляет позицию из корзины.
func (h *CartHandler) RemoveItem(w http.ResponseWriter, r *http.Request) {
	cartID := chi.URLParam(r, "cartID")
	productID := chi.URLParam(r, "productID")

	if err := h.carts.RemoveItem(cartID, productID); err != nil {
		respondDomainError(w, err)
		return
	}

	c, err := h.carts.Get(cartID)
	if err != nil {
		respondDomainError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, toCartResponse(c))
}

// GetTotal отдаёт кэшированную сумму корзины.
func (h *CartHandler) GetTotal(w http.ResponseWriter, r *http.Request) {
	cartID := chi.URLParam(r, "cartID")

	total, err := h.carts.Total(cartID)
	if err != nil {
		respondDomainError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, totalResponse{CartID: cartID, Total: total.String()})
}

// ClearCart атомарно удаляет все позиции корзины.
func (h *CartHandler) ClearCart(w http.ResponseWriter, r *http.Request) {
	cartID := chi.URLParam(r, "cartID")

	if err := h.carts.Clear(cartID); err != nil {
		respondDomainError(w, err)
		return
	}
	respondJSON(w, http.StatusNoContent, nil)
}
