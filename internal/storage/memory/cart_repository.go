package memory

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/vladislavdragonenkov/shop/internal/domain"
)

// cartRepositoryInMemory — реализация CartRepository поверх общего Store.
type cartRepositoryInMemory struct {
	store *Store
}

// NewCartRepository возвращает in-memory репозиторий корзин.
func NewCartRepository(store *Store) domain.CartRepository {
	return &cartRepositoryInMemory{store: store}
}

// Create сохраняет новую корзину; у пользователя может быть только одна.
func (r *cartRepositoryInMemory) Create(cart domain.Cart) error {
	s := r.store
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.cartByUser[cart.UserID]; exists {
		return domain.ErrCartAlreadyExists
	}
	if _, exists := s.carts[cart.ID]; exists {
		return domain.ErrCartAlreadyExists
	}

	assignItemIDs(&cart)
	s.carts[cart.ID] = cloneCart(cart)
	s.cartByUser[cart.UserID] = cart.ID
	return nil
}

// GetByID возвращает корзину или ErrCartNotFound, если её нет.
func (r *cartRepositoryInMemory) GetByID(id string) (domain.Cart, error) {
	s := r.store
	s.mu.RLock()
	defer s.mu.RUnlock()

	cart, ok := s.carts[id]
	if !ok {
		return domain.Cart{}, domain.ErrCartNotFound
	}
	return cloneCart(cart), nil
}

// GetByUserID возвращает корзину пользователя или ErrUserHasNoCart.
func (r *cartRepositoryInMemory) GetByUserID(userID string) (domain.Cart, error) {
	s := r.store
	s.mu.RLock()
	defer s.mu.RUnlock()

	cartID, ok := s.cartByUser[userID]
	if !ok {
		return domain.Cart{}, domain.ErrUserHasNoCart
	}
	cart, ok := s.carts[cartID]
	if !ok {
		return domain.Cart{}, domain.ErrUserHasNoCart
	}
	return cloneCart(cart), nil
}

// Save перезаписывает корзину с позициями, проверяя версию (optimistic locking).
func (r *cartRepositoryInMemory) Save(cart domain.Cart) error {
	s := r.store
	s.mu.Lock()
	defer s.mu.Unlock()

	current, ok := s.carts[cart.ID]
	if !ok {
		return domain.ErrCartNotFound
	}
	if current.Version != cart.Version {
		return domain.ErrCartVersionConflict
	}

	assignItemIDs(&cart)
	cart.Version++
	cart.UpdatedAt = time.Now().UTC()
	s.carts[cart.ID] = cloneCart(cart)
	return nil
}

// ClearItems удаляет все позиции и обнуляет сумму как одно действие.
func (r *cartRepositoryInMemory) ClearItems(cartID string) error {
	s := r.store
	s.mu.Lock()
	defer s.mu.Unlock()

	return clearCartLocked(s, cartID)
}

// clearCartLocked очищает корзину; вызывающая сторона держит s.mu.
func clearCartLocked(s *Store, cartID string) error {
	cart, ok := s.carts[cartID]
	if !ok {
		return domain.ErrCartNotFound
	}

	cart.Items = nil
	cart.Total = decimal.Zero
	cart.Version++
	cart.UpdatedAt = time.Now().UTC()
	s.carts[cartID] = cart
	return nil
}

// assignItemIDs присваивает идентификаторы позициям, сохраняемым впервые.
func assignItemIDs(cart *domain.Cart) {
	for idx := range cart.Items {
		if cart.Items[idx].ID == "" {
			cart.Items[idx].ID = uuid.NewString()
		}
	}
}

var _ domain.CartRepository = (*cartRepositoryInMemory)(nil)
