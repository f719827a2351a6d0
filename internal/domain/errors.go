package domain

import "errors"

var (
	// ErrCartNotFound возвращается при запросе корзины по несуществующему ID.
	ErrCartNotFound = errors.New("cart not found")
	// ErrUserHasNoCart возвращается read-путями, которые не создают корзину лениво.
	ErrUserHasNoCart = errors.New("this user has no cart")
	// ErrProductNotFound — товар не найден в каталоге.
	ErrProductNotFound = errors.New("product not found")
	// ErrProductNotInCart — товара нет среди позиций корзины.
	ErrProductNotInCart = errors.New("product not found in cart")
	// ErrOrderNotFound возвращается, если заказ не найден в репозитории.
	ErrOrderNotFound = errors.New("order not found")
	// ErrUserHasNoOrders — коллаборатор не смог разрешить список заказов пользователя.
	// Пустая история заказов существующего пользователя этой ошибкой не является.
	ErrUserHasNoOrders = errors.New("this user has no orders")

	// Ошибка отсутствующего идентификатора пользователя.
	ErrUserRequired = errors.New("user_id is required")
	// Ошибка при некорректном количестве товара (<= 0).
	ErrQuantityInvalid = errors.New("quantity must be greater than zero")
	// Ошибка, если цена позиции отрицательная.
	ErrItemPriceInvalid = errors.New("item price must be non-negative")
	// Ошибка отрицательной суммы заказа.
	ErrAmountNegative = errors.New("total amount must be non-negative")
	// Ошибка несоответствия суммы заказа и сумм позиций.
	ErrAmountMismatch = errors.New("order amount does not match items sum")
	// Ошибка несоответствия кэшированной суммы корзины и сумм позиций.
	ErrTotalMismatch = errors.New("cart total does not match line subtotals")
	// Ошибка повторяющегося товара среди позиций корзины.
	ErrDuplicateCartLine = errors.New("cart contains duplicate product line")

	// ErrCartVersionConflict сигнализирует о конфликте версий при сохранении корзины.
	ErrCartVersionConflict = errors.New("cart version conflict")
	// ErrCartAlreadyExists — у пользователя уже есть корзина (корзина 1:1 с пользователем).
	ErrCartAlreadyExists = errors.New("cart already exists for this user")
	// ErrOrderAlreadyExists — заказ с таким ID уже сохранён.
	ErrOrderAlreadyExists = errors.New("order already exists")

	// ErrOutboxPublish — ошибка при публикации сообщения из outbox.
	ErrOutboxPublish = errors.New("outbox publish failed")

	// Ошибки контракта idempotency-хранилища.
	ErrIdempotencyKeyRequired         = errors.New("idempotency key is required")
	ErrIdempotencyRequestHashRequired = errors.New("idempotency request hash is required")
	ErrIdempotencyKeyNotFound         = errors.New("idempotency key not found")
	ErrIdempotencyKeyAlreadyExists    = errors.New("idempotency key already exists")
	ErrIdempotencyHashMismatch        = errors.New("idempotency request hash mismatch")
)

// IsNotFound проверяет, относится ли ошибка к семейству "не найдено".
// Такие ошибки всегда восстановимы для вызывающей стороны и не портят состояние.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrCartNotFound) ||
		errors.Is(err, ErrUserHasNoCart) ||
		errors.Is(err, ErrProductNotFound) ||
		errors.Is(err, ErrProductNotInCart) ||
		errors.Is(err, ErrOrderNotFound) ||
		errors.Is(err, ErrUserHasNoOrders)
}

// IsVersionConflict проверяет, является ли ошибка конфликтом версий корзины.
func IsVersionConflict(err error) bool {
	return errors.Is(err, ErrCartVersionConflict)
}
