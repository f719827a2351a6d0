package memory

import (
	"sync"

	"github.com/vladislavdragonenkov/shop/internal/domain"
)

// Store держит корзины и заказы в памяти под одним мьютексом:
// размещение заказа должно записать заказ и очистить корзину атомарно,
// поэтому репозитории разделяют общее состояние.
type Store struct {
	mu         sync.RWMutex
	carts      map[string]domain.Cart
	cartByUser map[string]string
	orders     map[string]domain.Order
}

// NewStore возвращает in-memory хранилище для локальной разработки и тестов.
func NewStore() *Store {
	return &Store{
		carts:      make(map[string]domain.Cart),
		cartByUser: make(map[string]string),
		orders:     make(map[string]domain.Order),
	}
}

// cloneCart копирует корзину вместе со слайсом позиций,
// чтобы избежать непредсказуемых мутаций извне.
func cloneCart(src domain.Cart) domain.Cart {
	dst := src
	if src.Items != nil {
		dst.Items = append([]domain.CartItem(nil), src.Items...)
	}
	return dst
}

// cloneOrder копирует заказ вместе со слайсом позиций.
func cloneOrder(src domain.Order) domain.Order {
	dst := src
	if src.Items != nil {
		dst.Items = append([]domain.OrderItem(nil), src.Items...)
	}
	return dst
}
