package http

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/shopspring/decimal"

	"github.com/vladislavdragonenkov/shop/internal/domain"
	"github.com/vladislavdragonenkov/shop/internal/service/cart"
	"github.com/vladislavdragonenkov/shop/internal/service/catalog"
	"github.com/vladislavdragonenkov/shop/internal/service/order"
	"github.com/vladislavdragonenkov/shop/internal/storage/memory"
)

func newTestRouter(t *testing.T) http.Handler {
	t.Helper()

	store := memory.NewStore()
	mock := catalog.NewMockCatalog()
	mock.Put(domain.Product{ID: "product-a", Name: "Widget", Price: decimal.RequireFromString("10.00")})
	mock.Put(domain.Product{ID: "product-b", Name: "Gadget", Price: decimal.RequireFromString("4.50")})

	cartRepo := memory.NewCartRepository(store)
	outboxRepo := memory.NewOutboxRepository()
	carts := cart.NewServiceWithoutMetrics(cartRepo, mock, outboxRepo, nil)
	orders := order.NewServiceWithoutMetrics(
		memory.NewOrderRepository(store), cartRepo, outboxRepo, carts.Locks(), nil)

	return NewRouter(RouterConfig{
		Carts:       carts,
		Orders:      orders,
		Idempotency: memory.NewIdempotencyRepository(),
	})
}

func doRequest(t *testing.T, router http.Handler, method, path, body string, headers map[string]string) *httptest.ResponseRecorder {
	t.Helper()

	var reader *strings.Reader
	if body == "" {
		reader = strings.NewReader("")
	} else {
		reader = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, path, reader)
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	return rec
}

func TestRouter_AddItemAndTotal(t *testing.T) {
	router := newTestRouter(t)

	rec := doRequest(t, router, http.MethodPost, "/api/v1/users/user-1/cart/items",
		`{"product_id":"product-a","quantity":2}`, nil)
	if rec.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d: %s", rec.Code, rec.Body.String())
	}

	var c cartResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &c); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if c.Total != "20" && c.Total != "20.00" {
		t.Fatalf("expected total 20.00, got %s", c.Total)
	}

	rec = doRequest(t, router, http.MethodGet, "/api/v1/carts/"+c.ID+"/total", "", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
}

func TestRouter_AddItem_Validation(t *testing.T) {
	router := newTestRouter(t)

	rec := doRequest(t, router, http.MethodPost, "/api/v1/users/user-1/cart/items",
		`{"product_id":"product-a","quantity":0}`, nil)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for zero quantity, got %d", rec.Code)
	}

	rec = doRequest(t, router, http.MethodPost, "/api/v1/users/user-1/cart/items",
		`{"product_id":"missing","quantity":1}`, nil)
	if rec.Code != http.StatusNotFound {
		t.Fatalf("expected 404 for unknown product, got %d", rec.Code)
	}

	var errResp ErrorResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &errResp); err != nil {
		t.Fatalf("decode error response: %v", err)
	}
	if errResp.Error != "product not found" {
		t.Fatalf("expected stable message, got %q", errResp.Error)
	}
}

func TestRouter_RemoveAndUpdate(t *testing.T) {
	router := newTestRouter(t)

	rec := doRequest(t, router, http.MethodPost, "/api/v1/users/user-1/cart/items",
		`{"product_id":"product-a","quantity":5}`, nil)
	var c cartResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &c); err != nil {
		t.Fatalf("decode response: %v", err)
	}

	rec = doRequest(t, router, http.MethodPut, "/api/v1/carts/"+c.ID+"/items/product-a",
		`{"quantity":1}`, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	var updated cartResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &updated); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if updated.Items[0].Quantity != 1 {
		t.Fatalf("expected quantity 1, got %d", updated.Items[0].Quantity)
	}

	rec = doRequest(t, router, http.MethodDelete, "/api/v1/carts/"+c.ID+"/items/product-b", "", nil)
	if rec.Code != http.StatusNotFound {
		t.Fatalf("expected 404 for product not in cart, got %d", rec.Code)
	}

	rec = doRequest(t, router, http.MethodDelete, "/api/v1/carts/"+c.ID+"/items/product-a", "", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
}

func TestRouter_PlaceOrderFlow(t *testing.T) {
	router := newTestRouter(t)

	doRequest(t, router, http.MethodPost, "/api/v1/users/user-1/cart/items",
		`{"product_id":"product-a","quantity":2}`, nil)
	doRequest(t, router, http.MethodPost, "/api/v1/users/user-1/cart/items",
		`{"product_id":"product-b","quantity":1}`, nil)

	rec := doRequest(t, router, http.MethodPost, "/api/v1/users/user-1/orders", "", nil)
	if rec.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d: %s", rec.Code, rec.Body.String())
	}
	var placed orderResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &placed); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if len(placed.Items) != 2 {
		t.Fatalf("expected 2 items, got %d", len(placed.Items))
	}
	if placed.TotalAmount != "24.5" && placed.TotalAmount != "24.50" {
		t.Fatalf("expected total 24.50, got %s", placed.TotalAmount)
	}

	// Корзина очищена после размещения.
	rec = doRequest(t, router, http.MethodGet, "/api/v1/users/user-1/cart", "", nil)
	var c cartResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &c); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if len(c.Items) != 0 {
		t.Fatalf("expected cleared cart, got %d items", len(c.Items))
	}

	rec = doRequest(t, router, http.MethodGet, "/api/v1/orders/"+placed.ID, "", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}

	rec = doRequest(t, router, http.MethodGet, "/api/v1/users/user-1/orders", "", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	var list []orderResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &list); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if len(list) != 1 {
		t.Fatalf("expected 1 order, got %d", len(list))
	}
}

func TestRouter_PlaceOrder_NoCart(t *testing.T) {
	router := newTestRouter(t)

	rec := doRequest(t, router, http.MethodPost, "/api/v1/users/nobody/orders", "", nil)
	if rec.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", rec.Code)
	}
	var errResp ErrorResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &errResp); err != nil {
		t.Fatalf("decode error response: %v", err)
	}
	if errResp.Error != "this user has no cart" {
		t.Fatalf("expected stable message, got %q", errResp.Error)
	}
}

func TestRouter_PlaceOrder_IdempotencyReplay(t *testing.T) {
	router := newTestRouter(t)

	doRequest(t, router, http.MethodPost, "/api/v1/users/user-1/cart/items",
		`{"product_id":"product-a","quantity":2}`, nil)

	headers := map[string]string{headerIdempotencyKey: "key-1"}
	first := doRequest(t, router, http.MethodPost, "/api/v1/users/user-1/orders", "", headers)
	if first.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d: %s", first.Code, first.Body.String())
	}

	// Повтор с тем же ключом не размещает второй заказ, а отдаёт сохранённый ответ.
	second := doRequest(t, router, http.MethodPost, "/api/v1/users/user-1/orders", "", headers)
	if second.Code != http.StatusCreated {
		t.Fatalf("expected replayed 201, got %d: %s", second.Code, second.Body.String())
	}

	var firstOrder, secondOrder orderResponse
	if err := json.Unmarshal(first.Body.Bytes(), &firstOrder); err != nil {
		t.Fatalf("decode first response: %v", err)
	}
	if err := json.Unmarshal(second.Body.Bytes(), &secondOrder); err != nil {
		t.Fatalf("decode second response: %v", err)
	}
	if firstOrder.ID != secondOrder.ID {
		t.Fatalf("expected same order id on replay, got %s and %s", firstOrder.ID, secondOrder.ID)
	}

	rec := doRequest(t, router, http.MethodGet, "/api/v1/users/user-1/orders", "", nil)
	var list []orderResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &list); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if len(list) != 1 {
		t.Fatalf("expected single order despite retry, got %d", len(list))
	}
}

// flakyIdempotencyRepo имитирует сбой хранилища на записи финального статуса.
type flakyIdempotencyRepo struct {
	domain.IdempotencyRepository
	failMarkDone bool
}

func (r *flakyIdempotencyRepo) MarkDone(key string, responseBody []byte, httpStatus int) error {
	if r.failMarkDone {
		return errors.New("storage unavailable")
	}
	return r.IdempotencyRepository.MarkDone(key, responseBody, httpStatus)
}

func TestRouter_PlaceOrder_IdempotencyBookkeepingFailure(t *testing.T) {
	store := memory.NewStore()
	mock := catalog.NewMockCatalog()
	mock.Put(domain.Product{ID: "product-a", Name: "Widget", Price: decimal.RequireFromString("10.00")})

	cartRepo := memory.NewCartRepository(store)
	outboxRepo := memory.NewOutboxRepository()
	carts := cart.NewServiceWithoutMetrics(cartRepo, mock, outboxRepo, nil)
	orders := order.NewServiceWithoutMetrics(
		memory.NewOrderRepository(store), cartRepo, outboxRepo, carts.Locks(), nil)
	flaky := &flakyIdempotencyRepo{IdempotencyRepository: memory.NewIdempotencyRepository(), failMarkDone: true}
	router := NewRouter(RouterConfig{Carts: carts, Orders: orders, Idempotency: flaky})

	doRequest(t, router, http.MethodPost, "/api/v1/users/user-1/cart/items",
		`{"product_id":"product-a","quantity":1}`, nil)

	headers := map[string]string{headerIdempotencyKey: "key-1"}
	first := doRequest(t, router, http.MethodPost, "/api/v1/users/user-1/orders", "", headers)
	if first.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d: %s", first.Code, first.Body.String())
	}

	// Запись финального статуса упала — ключ снят, повтор не виснет в 409.
	flaky.failMarkDone = false
	second := doRequest(t, router, http.MethodPost, "/api/v1/users/user-1/orders", "", headers)
	if second.Code != http.StatusCreated {
		t.Fatalf("expected 201 on retry after bookkeeping failure, got %d: %s",
			second.Code, second.Body.String())
	}
}

func TestRouter_ClearCart(t *testing.T) {
	router := newTestRouter(t)

	rec := doRequest(t, router, http.MethodPost, "/api/v1/users/user-1/cart/items",
		`{"product_id":"product-a","quantity":2}`, nil)
	var c cartResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &c); err != nil {
		t.Fatalf("decode response: %v", err)
	}

	rec = doRequest(t, router, http.MethodDelete, "/api/v1/carts/"+c.ID, "", nil)
	if rec.Code != http.StatusNoContent {
		t.Fatalf("expected 204, got %d", rec.Code)
	}

	rec = doRequest(t, router, http.MethodGet, "/api/v1/carts/"+c.ID, "", nil)
	var cleared cartResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &cleared); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if len(cleared.Items) != 0 {
		t.Fatalf("expected cleared cart, got %d items", len(cleared.Items))
	}
}
