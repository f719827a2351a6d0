package domain

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// OrderStatus описывает состояние заказа.
// Заказ создаётся сразу размещённым и после этого не мутирует.
type OrderStatus string

const (
	// OrderStatusPlaced — заказ зафиксирован из корзины.
	OrderStatusPlaced OrderStatus = "placed"
)

// OrderItem представляет одну позицию заказа — снимок позиции корзины
// на момент размещения, независимый от последующих изменений каталога.
type OrderItem struct {
	ID          string
	ProductID   string
	ProductName string
	// Price копируется из UnitPrice позиции корзины.
	Price     decimal.Decimal
	Quantity  int32
	CreatedAt time.Time
}

// Order агрегирует неизменяемый снимок корзины.
type Order struct {
	ID     string
	UserID string
	Status OrderStatus
	// TotalAmount пересчитывается из позиций снимка при создании,
	// а не копируется из кэшированной суммы корзины.
	TotalAmount decimal.Decimal
	Items       []OrderItem
	CreatedAt   time.Time
}

// NewOrderFromCart строит снимок заказа из корзины.
// Пустая корзина даёт заказ без позиций с нулевой суммой — это
// допустимое состояние, минимального размера заказа нет.
func NewOrderFromCart(cart Cart, now time.Time) Order {
	items := make([]OrderItem, 0, len(cart.Items))
	total := decimal.Zero

	for idx := range cart.Items {
		line := &cart.Items[idx]
		item := OrderItem{
			ID:          uuid.NewString(),
			ProductID:   line.ProductID,
			ProductName: line.ProductName,
			Price:       line.UnitPrice,
			Quantity:    line.Quantity,
			CreatedAt:   now,
		}
		items = append(items, item)
		total = total.Add(item.Price.Mul(decimal.NewFromInt(int64(item.Quantity))))
	}

	return Order{
		ID:          uuid.NewString(),
		UserID:      cart.UserID,
		Status:      OrderStatusPlaced,
		TotalAmount: total,
		Items:       items,
		CreatedAt:   now,
	}
}

// ValidateInvariants проверяет базовые инварианты заказа и возвращает список замечаний.
func (o *Order) ValidateInvariants() []error {
	var errs []error

	if o.UserID == "" {
		errs = append(errs, ErrUserRequired)
	}
	if o.TotalAmount.IsNegative() {
		errs = append(errs, ErrAmountNegative)
	}

	// Сверяем сумму заказа с суммой позиций: price × quantity.
	calc := decimal.Zero
	for idx := range o.Items {
		item := &o.Items[idx]
		if item.Quantity <= 0 {
			errs = append(errs, ErrQuantityInvalid)
		}
		if item.Price.IsNegative() {
			errs = append(errs, ErrItemPriceInvalid)
		}
		calc = calc.Add(item.Price.Mul(decimal.NewFromInt(int64(item.Quantity))))
	}
	if !calc.Equal(o.TotalAmount) {
		errs = append(errs, ErrAmountMismatch)
	}

	return errs
}
