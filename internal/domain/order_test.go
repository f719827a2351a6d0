package domain_test

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"github.com/vladislavdragonenkov/shop/internal/domain"
)

func TestNewOrderFromCart_Snapshot(t *testing.T) {
	cart := makeCart()
	now := time.Now().UTC()

	order := domain.NewOrderFromCart(cart, now)

	if order.ID == "" {
		t.Fatal("expected order id to be assigned")
	}
	if order.UserID != cart.UserID {
		t.Fatalf("expected user %s, got %s", cart.UserID, order.UserID)
	}
	if order.Status != domain.OrderStatusPlaced {
		t.Fatalf("expected status placed, got %s", order.Status)
	}
	if len(order.Items) != len(cart.Items) {
		t.Fatalf("expected %d items, got %d", len(cart.Items), len(order.Items))
	}

	item := order.Items[0]
	if item.ProductID != "product-a" || item.Quantity != 2 {
		t.Fatalf("unexpected snapshot item: %+v", item)
	}
	if !item.Price.Equal(decimal.RequireFromString("10.00")) {
		t.Fatalf("expected price 10.00, got %s", item.Price)
	}
	if !order.TotalAmount.Equal(decimal.RequireFromString("20.00")) {
		t.Fatalf("expected total 20.00, got %s", order.TotalAmount)
	}
}

func TestNewOrderFromCart_TotalRecomputedNotCopied(t *testing.T) {
	cart := makeCart()
	// Кэшированная сумма корзины испорчена; снимок обязан пересчитать
	// сумму из позиций, а не скопировать кэш.
	cart.Total = decimal.RequireFromString("777.00")

	order := domain.NewOrderFromCart(cart, time.Now().UTC())
	if !order.TotalAmount.Equal(decimal.RequireFromString("20.00")) {
		t.Fatalf("expected recomputed total 20.00, got %s", order.TotalAmount)
	}
}

func TestNewOrderFromCart_EmptyCart(t *testing.T) {
	cart := makeCart()
	cart.Clear()

	order := domain.NewOrderFromCart(cart, time.Now().UTC())
	if len(order.Items) != 0 {
		t.Fatalf("expected no items, got %d", len(order.Items))
	}
	if !order.TotalAmount.IsZero() {
		t.Fatalf("expected zero total, got %s", order.TotalAmount)
	}
	if errs := order.ValidateInvariants(); len(errs) != 0 {
		t.Fatalf("empty order must be valid, got %v", errs)
	}
}

func TestNewOrderFromCart_ImmutableAfterCartMutation(t *testing.T) {
	cart := makeCart()
	order := domain.NewOrderFromCart(cart, time.Now().UTC())

	// Дальнейшие мутации корзины не должны просачиваться в снимок.
	cart.MergeItem("product-a", 10, time.Now().UTC())

	if order.Items[0].Quantity != 2 {
		t.Fatalf("order snapshot mutated: quantity %d", order.Items[0].Quantity)
	}
	if !order.TotalAmount.Equal(decimal.RequireFromString("20.00")) {
		t.Fatalf("order snapshot mutated: total %s", order.TotalAmount)
	}
}

func TestOrderValidateInvariants_Errors(t *testing.T) {
	cases := []struct {
		name string
		mut  func(o *domain.Order)
	}{
		{
			name: "no user",
			mut: func(o *domain.Order) {
				o.UserID = ""
			},
		},
		{
			name: "amount mismatch",
			mut: func(o *domain.Order) {
				o.TotalAmount = decimal.RequireFromString("999.00")
			},
		},
		{
			name: "qty invalid",
			mut: func(o *domain.Order) {
				o.Items[0].Quantity = 0
			},
		},
		{
			name: "negative price",
			mut: func(o *domain.Order) {
				o.Items[0].Price = decimal.RequireFromString("-5")
			},
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			order := domain.NewOrderFromCart(makeCart(), time.Now().UTC())
			tc.mut(&order)

			if len(order.ValidateInvariants()) == 0 {
				t.Fatalf("expected validation errors for case %s", tc.name)
			}
		})
	}
}
