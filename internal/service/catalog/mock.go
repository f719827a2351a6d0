package catalog

import (
	"sync"

	"github.com/shopspring/decimal"

	"github.com/vladislavdragonenkov/shop/internal/domain"
)

// MockCatalog — конфигурируемая заглушка ProductCatalog для тестов
// и работы без внешнего каталога.
type MockCatalog struct {
	mu       sync.RWMutex
	products map[string]domain.Product

	FindErr   error
	FindCalls int
}

// NewMockCatalog возвращает пустой каталог с успешным сценарием по умолчанию.
func NewMockCatalog() *MockCatalog {
	return &MockCatalog{products: make(map[string]domain.Product)}
}

// Put добавляет или заменяет товар в каталоге.
func (m *MockCatalog) Put(product domain.Product) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.products[product.ID] = product
}

// SetPrice меняет цену товара, не трогая остальные поля.
// Ранее зафиксированные в корзинах цены при этом не меняются.
func (m *MockCatalog) SetPrice(productID string, price decimal.Decimal) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if product, ok := m.products[productID]; ok {
		product.Price = price
		m.products[productID] = product
	}
}

// Find возвращает товар по идентификатору, заранее настроенную ошибку
// или ErrProductNotFound; считает вызовы.
func (m *MockCatalog) Find(productID string) (domain.Product, error) {
	m.mu.Lock()
	m.FindCalls++
	m.mu.Unlock()

	if m.FindErr != nil {
		return domain.Product{}, m.FindErr
	}

	m.mu.RLock()
	defer m.mu.RUnlock()
	product, ok := m.products[productID]
	if !ok {
		return domain.Product{}, domain.ErrProductNotFound
	}
	return product, nil
}

var _ domain.ProductCatalog = (*MockCatalog)(nil)
