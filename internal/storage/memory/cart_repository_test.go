package memory_test

import (
	"errors"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"github.com/vladislavdragonenkov/shop/internal/domain"
	"github.com/vladislavdragonenkov/shop/internal/storage/memory"
)

func newCart() domain.Cart {
	now := time.Now().UTC()
	item := domain.CartItem{
		ProductID:   "product-a",
		ProductName: "Widget",
		Quantity:    2,
		UnitPrice:   decimal.RequireFromString("10.00"),
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	item.RecalculateSubtotal()

	cart := domain.Cart{
		ID:        "cart-1",
		UserID:    "user-1",
		Items:     []domain.CartItem{item},
		CreatedAt: now,
		UpdatedAt: now,
	}
	cart.RecalculateTotal()
	return cart
}

func TestCartRepository_CreateGet(t *testing.T) {
	repo := memory.NewCartRepository(memory.NewStore())
	cart := newCart()

	if err := repo.Create(cart); err != nil {
		t.Fatalf("create failed: %v", err)
	}

	stored, err := repo.GetByID(cart.ID)
	if err != nil {
		t.Fatalf("get failed: %v", err)
	}
	if stored.ID != cart.ID {
		t.Fatalf("expected id %s, got %s", cart.ID, stored.ID)
	}
	// Идентификатор позиции присваивается при первом сохранении.
	if stored.Items[0].ID == "" {
		t.Fatal("expected item id to be assigned on first save")
	}
}

func TestCartRepository_GetByID_NotFound(t *testing.T) {
	repo := memory.NewCartRepository(memory.NewStore())

	if _, err := repo.GetByID("missing"); !errors.Is(err, domain.ErrCartNotFound) {
		t.Fatalf("expected ErrCartNotFound, got %v", err)
	}
}

func TestCartRepository_GetByUserID(t *testing.T) {
	repo := memory.NewCartRepository(memory.NewStore())
	cart := newCart()

	if _, err := repo.GetByUserID(cart.UserID); !errors.Is(err, domain.ErrUserHasNoCart) {
		t.Fatalf("expected ErrUserHasNoCart, got %v", err)
	}

	if err := repo.Create(cart); err != nil {
		t.Fatalf("create failed: %v", err)
	}

	stored, err := repo.GetByUserID(cart.UserID)
	if err != nil {
		t.Fatalf("get by user failed: %v", err)
	}
	if stored.ID != cart.ID {
		t.Fatalf("expected id %s, got %s", cart.ID, stored.ID)
	}
}

func TestCartRepository_CreateDuplicateUser(t *testing.T) {
	repo := memory.NewCartRepository(memory.NewStore())
	cart := newCart()

	if err := repo.Create(cart); err != nil {
		t.Fatalf("create failed: %v", err)
	}

	second := newCart()
	second.ID = "cart-2"
	if err := repo.Create(second); !errors.Is(err, domain.ErrCartAlreadyExists) {
		t.Fatalf("expected ErrCartAlreadyExists, got %v", err)
	}
}

func TestCartRepository_SaveVersionConflict(t *testing.T) {
	repo := memory.NewCartRepository(memory.NewStore())
	cart := newCart()
	if err := repo.Create(cart); err != nil {
		t.Fatalf("create failed: %v", err)
	}

	stored, err := repo.GetByID(cart.ID)
	if err != nil {
		t.Fatalf("get failed: %v", err)
	}

	stored.MergeItem("product-a", 3, time.Now().UTC())
	if err := repo.Save(stored); err != nil {
		t.Fatalf("save failed: %v", err)
	}

	// Повторная запись со старой версией должна конфликтовать.
	if err := repo.Save(stored); !errors.Is(err, domain.ErrCartVersionConflict) {
		t.Fatalf("expected ErrCartVersionConflict, got %v", err)
	}

	updated, err := repo.GetByID(cart.ID)
	if err != nil {
		t.Fatalf("get failed: %v", err)
	}
	if !updated.Total.Equal(decimal.RequireFromString("50.00")) {
		t.Fatalf("expected total 50.00, got %s", updated.Total)
	}
}

func TestCartRepository_ClearItems(t *testing.T) {
	repo := memory.NewCartRepository(memory.NewStore())
	cart := newCart()
	if err := repo.Create(cart); err != nil {
		t.Fatalf("create failed: %v", err)
	}

	if err := repo.ClearItems(cart.ID); err != nil {
		t.Fatalf("clear failed: %v", err)
	}

	cleared, err := repo.GetByID(cart.ID)
	if err != nil {
		t.Fatalf("get failed: %v", err)
	}
	if len(cleared.Items) != 0 {
		t.Fatalf("expected no items, got %d", len(cleared.Items))
	}
	if !cleared.Total.IsZero() {
		t.Fatalf("expected zero total, got %s", cleared.Total)
	}

	if err := repo.ClearItems("missing"); !errors.Is(err, domain.ErrCartNotFound) {
		t.Fatalf("expected ErrCartNotFound, got %v", err)
	}
}

func TestCartRepository_ReadIsACopy(t *testing.T) {
	repo := memory.NewCartRepository(memory.NewStore())
	cart := newCart()
	if err := repo.Create(cart); err != nil {
		t.Fatalf("create failed: %v", err)
	}

	first, _ := repo.GetByID(cart.ID)
	first.Items[0].Quantity = 99

	second, _ := repo.GetByID(cart.ID)
	if second.Items[0].Quantity != 2 {
		t.Fatalf("stored cart mutated through a read copy: %d", second.Items[0].Quantity)
	}
}
