package http

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	log "github.com/sirupsen/logrus"

	"github.com/vladislavdragonenkov/shop/internal/domain"
	"github.com/vladislavdragonenkov/shop/internal/service/order"
)

const (
	headerIdempotencyKey = "Idempotency-Key"

	defaultIdempotencyTTL = 24 * time.Hour
	defaultOrdersLimit    = 50
)

// OrderHandler обслуживает размещение и чтение заказов.
type OrderHandler struct {
	orders      *order.Service
	idempotency domain.IdempotencyRepository
	logger      *log.Entry
}

// NewOrderHandler создаёт handler заказов.
// idempotency может быть nil: тогда заголовок Idempotency-Key игнорируется.
func NewOrderHandler(orders *order.Service, idempotency domain.IdempotencyRepository, logger *log.Entry) *OrderHandler {
	if logger == nil {
		logger = log.New().WithField("component", "http-order")
	}
	return &OrderHandler{orders: orders, idempotency: idempotency, logger: logger}
}

// PlaceOrder конвертирует корзину пользователя в заказ.
// Повторный запрос с тем же Idempotency-Key возвращает сохранённый ответ
// без повторного размещения.
func (h *OrderHandler) PlaceOrder(w http.ResponseWriter, r *http.Request) {
	userID := chi.URLParam(r, "userID")
	key := strings.TrimSpace(r.Header.Get(headerIdempotencyKey))

	if key == "" || h.idempotency == nil {
		h.placeOrder(w, userID, "")
		return
	}

	requestHash := hashPlacementRequest(r.Method, r.URL.Path, userID)
	_, err := h.idempotency.CreateProcessing(key, requestHash, time.Now().UTC().Add(defaultIdempotencyTTL))
	switch {
	case err == nil:
		h.placeOrder(w, userID, key)
	case err == domain.ErrIdempotencyHashMismatch:
		respondError(w, http.StatusUnprocessableEntity, "idempotency_mismatch",
			"idempotency key was used with a different request")
	case err == domain.ErrIdempotencyKeyAlreadyExists:
		h.replay(w, key)
	default:
		h.logger.WithError(err).WithField("key", key).Error("idempotency bookkeeping failed")
		respondError(w, http.StatusInternalServerError, "internal_error", "internal server error")
	}
}

func (h *OrderHandler) placeOrder(w http.ResponseWriter, userID, key string) {
	placed, err := h.orders.PlaceOrder(userID)
	if err != nil {
		if key != "" {
			body, _ := json.Marshal(ErrorResponse{Error: err.Error()})
			if markErr := h.idempotency.MarkFailed(key, body, statusForError(err)); markErr != nil {
				h.logger.WithError(markErr).WithField("key", key).Warn("failed to mark idempotency key failed")
				h.releaseKey(key)
			}
		}
		respondDomainError(w, err)
		return
	}

	response := toOrderResponse(placed)
	if key != "" {
		body, marshalErr := json.Marshal(response)
		if marshalErr != nil {
			h.releaseKey(key)
		} else if markErr := h.idempotency.MarkDone(key, body, http.StatusCreated); markErr != nil {
			h.logger.WithError(markErr).WithField("key", key).Warn("failed to mark idempotency key done")
			h.releaseKey(key)
		}
	}
	respondJSON(w, http.StatusCreated, response)
}

// releaseKey снимает ключ, застрявший в processing: иначе повторные
// запросы получали бы 409 до истечения TTL.
func (h *OrderHandler) releaseKey(key string) {
	if err := h.idempotency.Delete(key); err != nil {
		h.logger.WithError(err).WithField("key", key).Warn("failed to release idempotency key")
	}
}

// replay отдаёт ранее сохранённый ответ по idempotency-key.
func (h *OrderHandler) replay(w http.ResponseWriter, key string) {
	record, err := h.idempotency.Get(key)
	if err != nil {
		h.logger.WithError(err).WithField("key", key).Error("failed to load idempotency record")
		respondError(w, http.StatusInternalServerError, "internal_error", "internal server error")
		return
	}

	if record.Status == domain.IdempotencyStatusProcessing {
		respondError(w, http.StatusConflict, "request_in_flight",
			"request with this idempotency key is still being processed")
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(record.HTTPStatus)
	_, _ = w.Write(record.ResponseBody)
}

// GetOrder возвращает заказ по идентификатору.
func (h *OrderHandler) GetOrder(w http.ResponseWriter, r *http.Request) {
	orderID := chi.URLParam(r, "orderID")

	stored, err := h.orders.GetOrder(orderID)
	if err != nil {
		respondDomainError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, toOrderResponse(stored))
}

// ListUserOrders возвращает заказы пользователя, новые первыми.
func (h *OrderHandler) ListUserOrders(w http.ResponseWriter, r *http.Request) {
	userID := chi.URLParam(r, "userID")

	limit := defaultOrdersLimit
	if raw := r.URL.Query().Get("limit"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed <= 0 {
			respondError(w, http.StatusBadRequest, "invalid_limit", "limit must be a positive integer")
			return
		}
		limit = parsed
	}

	orders, err := h.orders.ListUserOrders(userID, limit)
	if err != nil {
		respondDomainError(w, err)
		return
	}

	responses := make([]orderResponse, 0, len(orders))
	for _, o := range orders {
		responses = append(responses, toOrderResponse(o))
	}
	respondJSON(w, http.StatusOK, responses)
}

func hashPlacementRequest(method, path, userID string) string {
	sum := sha256.Sum256([]byte(method + " " + path + " " + userID))
	return hex.EncodeToString(sum[:])
}

func statusForError(err error) int {
	if domain.IsNotFound(err) {
		return http.StatusNotFound
	}
	return http.StatusInternalServerError
}
