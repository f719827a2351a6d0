package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// CartItem представляет одну позицию корзины.
type CartItem struct {
	// ID позиции нужен для однозначной идентификации при хранении.
	ID string
	// ProductID — внешний идентификатор товара; неизменяем после создания позиции.
	ProductID string
	// ProductName — денормализованное имя товара для событий и снимков заказа.
	ProductName string
	// Quantity — количество единиц товара, всегда > 0.
	Quantity int32
	// UnitPrice — снимок цены товара на момент первого добавления.
	// При повторных добавлениях цена из каталога не перечитывается.
	UnitPrice decimal.Decimal
	// Subtotal — производное значение: UnitPrice × Quantity.
	Subtotal decimal.Decimal
	// CreatedAt фиксирует момент появления позиции в корзине.
	CreatedAt time.Time
	UpdatedAt time.Time
}

// RecalculateSubtotal пересчитывает стоимость позиции из количества и цены.
func (i *CartItem) RecalculateSubtotal() {
	i.Subtotal = i.UnitPrice.Mul(decimal.NewFromInt(int64(i.Quantity)))
}

// Cart агрегирует позиции одного пользователя и кэшированную сумму.
// Инвариант: после завершения любой мутации Total равна точной сумме
// Subtotal всех позиций.
type Cart struct {
	ID     string
	UserID string
	// Total пересчитывается при каждой записи; отдельно поле не мутируется.
	Total decimal.Decimal
	// Items уникальны по ProductID, порядок не несёт смысла.
	Items     []CartItem
	Version   int64
	CreatedAt time.Time
	UpdatedAt time.Time
}

// FindItem возвращает индекс позиции с данным товаром и признак наличия.
// Поиск всегда ведётся по ProductID: присвоен ли записи ID хранилищем,
// признаком существования не является.
func (c *Cart) FindItem(productID string) (int, bool) {
	for idx := range c.Items {
		if c.Items[idx].ProductID == productID {
			return idx, true
		}
	}
	return -1, false
}

// AddItem добавляет новую позицию и пересчитывает сумму корзины.
func (c *Cart) AddItem(item CartItem) {
	item.RecalculateSubtotal()
	c.Items = append(c.Items, item)
	c.RecalculateTotal()
}

// MergeItem увеличивает количество существующей позиции на delta,
// сохраняя зафиксированную при первом добавлении цену.
// Возвращает false, если товара в корзине нет.
func (c *Cart) MergeItem(productID string, delta int32, now time.Time) bool {
	idx, ok := c.FindItem(productID)
	if !ok {
		return false
	}
	c.Items[idx].Quantity += delta
	c.Items[idx].RecalculateSubtotal()
	c.Items[idx].UpdatedAt = now
	c.RecalculateTotal()
	return true
}

// SetItemQuantity выставляет количество позиции абсолютным значением.
// Отсутствие товара — не ошибка: сумма всё равно пересчитывается
// по фактическим позициям.
func (c *Cart) SetItemQuantity(productID string, quantity int32, now time.Time) bool {
	idx, ok := c.FindItem(productID)
	if ok {
		c.Items[idx].Quantity = quantity
		c.Items[idx].RecalculateSubtotal()
		c.Items[idx].UpdatedAt = now
	}
	c.RecalculateTotal()
	return ok
}

// RemoveItem отцепляет позицию от корзины и пересчитывает сумму.
// Возвращает false, если товара в корзине не было.
func (c *Cart) RemoveItem(productID string) bool {
	idx, ok := c.FindItem(productID)
	if !ok {
		return false
	}
	c.Items = append(c.Items[:idx], c.Items[idx+1:]...)
	c.RecalculateTotal()
	return true
}

// RecalculateTotal сворачивает Subtotal всех позиций в Total.
// Нулевая (отсутствующая) цена позиции учитывается как ноль, а не ошибка.
func (c *Cart) RecalculateTotal() {
	total := decimal.Zero
	for idx := range c.Items {
		item := &c.Items[idx]
		if item.UnitPrice.IsZero() {
			continue
		}
		total = total.Add(item.UnitPrice.Mul(decimal.NewFromInt(int64(item.Quantity))))
	}
	c.Total = total
}

// Clear удаляет все позиции и обнуляет сумму.
func (c *Cart) Clear() {
	c.Items = nil
	c.Total = decimal.Zero
}

// ValidateInvariants проверяет базовые инварианты корзины и возвращает список замечаний.
func (c *Cart) ValidateInvariants() []error {
	var errs []error

	if c.UserID == "" {
		errs = append(errs, ErrUserRequired)
	}

	seen := make(map[string]struct{}, len(c.Items))
	calc := decimal.Zero
	for idx := range c.Items {
		item := &c.Items[idx]
		if item.Quantity <= 0 {
			errs = append(errs, ErrQuantityInvalid)
		}
		if item.UnitPrice.IsNegative() {
			errs = append(errs, ErrItemPriceInvalid)
		}
		if _, dup := seen[item.ProductID]; dup {
			errs = append(errs, ErrDuplicateCartLine)
		}
		seen[item.ProductID] = struct{}{}
		calc = calc.Add(item.UnitPrice.Mul(decimal.NewFromInt(int64(item.Quantity))))
	}

	// Сверяем кэшированную сумму с суммой позиций.
	if !calc.Equal(c.Total) {
		errs = append(errs, ErrTotalMismatch)
	}

	return errs
}
