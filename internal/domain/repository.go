package domain

// CartRepository описывает требования к хранилищу корзин.
// Все мутации одной корзины сериализуются вызывающей стороной;
// хранилище дополнительно защищает запись optimistic locking по Version.
type CartRepository interface {
	// Create сохраняет новую корзину. Возвращает ErrCartAlreadyExists,
	// если у пользователя уже есть корзина.
	Create(cart Cart) error
	// GetByID возвращает корзину по идентификатору или ErrCartNotFound.
	GetByID(id string) (Cart, error)
	// GetByUserID возвращает корзину пользователя или ErrUserHasNoCart.
	GetByUserID(userID string) (Cart, error)
	// Save перезаписывает корзину вместе с позициями с учётом optimistic locking.
	Save(cart Cart) error
	// ClearItems удаляет все позиции корзины и обнуляет сумму как одно
	// атомарное действие; частичное удаление снаружи не наблюдаемо.
	ClearItems(cartID string) error
}

// OrderRepository описывает требования к хранилищу заказов.
type OrderRepository interface {
	// Create сохраняет новый заказ. Возвращает ErrOrderAlreadyExists,
	// если запись с таким ID уже существует.
	Create(order Order) error
	// CreateFromCart сохраняет заказ и очищает исходную корзину в одной
	// транзакции: либо происходит и то и другое, либо ничего.
	CreateFromCart(order Order, cartID string) error
	// Get возвращает заказ по идентификатору или ErrOrderNotFound.
	Get(id string) (Order, error)
	// ListByUser возвращает заказы пользователя, новые первыми.
	// Пользователь без заказов даёт пустой список, а не ошибку.
	ListByUser(userID string, limit int) ([]Order, error)
}
