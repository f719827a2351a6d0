package memory

import (
	"sort"

	"github.com/vladislavdragonenkov/shop/internal/domain"
)

// orderRepositoryInMemory — реализация OrderRepository поверх общего Store.
type orderRepositoryInMemory struct {
	store *Store
}

// NewOrderRepository возвращает in-memory репозиторий заказов.
func NewOrderRepository(store *Store) domain.OrderRepository {
	return &orderRepositoryInMemory{store: store}
}

// Create сохраняет новый заказ, если ID ещё не занят.
func (r *orderRepositoryInMemory) Create(order domain.Order) error {
	s := r.store
	s.mu.Lock()
	defer s.mu.Unlock()

	return createOrderLocked(s, order)
}

// CreateFromCart под одним мьютексом записывает заказ и очищает корзину:
// либо происходит и то и другое, либо состояние не меняется.
func (r *orderRepositoryInMemory) CreateFromCart(order domain.Order, cartID string) error {
	s := r.store
	s.mu.Lock()
	defer s.mu.Unlock()

	// Сначала проверяем корзину: заказ не должен появиться,
	// если очистка заведомо невозможна.
	if _, ok := s.carts[cartID]; !ok {
		return domain.ErrCartNotFound
	}
	if err := createOrderLocked(s, order); err != nil {
		return err
	}
	return clearCartLocked(s, cartID)
}

// Get возвращает заказ или ErrOrderNotFound, если его нет.
func (r *orderRepositoryInMemory) Get(id string) (domain.Order, error) {
	s := r.store
	s.mu.RLock()
	defer s.mu.RUnlock()

	order, ok := s.orders[id]
	if !ok {
		return domain.Order{}, domain.ErrOrderNotFound
	}
	return cloneOrder(order), nil
}

// ListByUser возвращает заказы пользователя, ограничивая выборку limit (если >0).
// Пользователь без заказов получает пустой список.
func (r *orderRepositoryInMemory) ListByUser(userID string, limit int) ([]domain.Order, error) {
	s := r.store
	s.mu.RLock()
	defer s.mu.RUnlock()

	result := make([]domain.Order, 0, len(s.orders))
	for _, order := range s.orders {
		if order.UserID != userID {
			continue
		}
		result = append(result, cloneOrder(order))
	}

	sort.Slice(result, func(i, j int) bool {
		if !result[i].CreatedAt.Equal(result[j].CreatedAt) {
			return result[i].CreatedAt.After(result[j].CreatedAt)
		}
		return result[i].ID > result[j].ID
	})

	if limit > 0 && len(result) > limit {
		result = result[:limit]
	}

	return result, nil
}

func createOrderLocked(s *Store, order domain.Order) error {
	if _, exists := s.orders[order.ID]; exists {
		return domain.ErrOrderAlreadyExists
	}
	s.orders[order.ID] = cloneOrder(order)
	return nil
}

var _ domain.OrderRepository = (*orderRepositoryInMemory)(nil)
