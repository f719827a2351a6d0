package integration

import (
	"context"
	"testing"

	"github.com/shopspring/decimal"
	log "github.com/sirupsen/logrus"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"

	"github.com/vladislavdragonenkov/shop/internal/domain"
	"github.com/vladislavdragonenkov/shop/internal/service/cart"
	"github.com/vladislavdragonenkov/shop/internal/service/catalog"
	"github.com/vladislavdragonenkov/shop/internal/service/order"
	"github.com/vladislavdragonenkov/shop/internal/service/outbox"
	"github.com/vladislavdragonenkov/shop/internal/storage/memory"
)

// CartOrderFlowTestSuite тестирует полный путь покупателя:
// корзина → позиции → заказ → события.
type CartOrderFlowTestSuite struct {
	suite.Suite
	carts   *cart.Service
	orders  *order.Service
	catalog *catalog.MockCatalog
	outbox  domain.OutboxRepository
}

func (suite *CartOrderFlowTestSuite) SetupTest() {
	baseLogger := log.New()
	baseLogger.SetLevel(log.WarnLevel) // Уменьшаем шум в тестах
	logger := baseLogger.WithField("component", "integration-test")

	store := memory.NewStore()
	cartRepo := memory.NewCartRepository(store)
	orderRepo := memory.NewOrderRepository(store)
	suite.outbox = memory.NewOutboxRepository()

	suite.catalog = catalog.NewMockCatalog()
	suite.catalog.Put(domain.Product{ID: "product-a", Name: "Widget", Price: decimal.RequireFromString("10.00")})
	suite.catalog.Put(domain.Product{ID: "product-b", Name: "Gadget", Price: decimal.RequireFromString("4.50")})

	suite.carts = cart.NewServiceWithoutMetrics(cartRepo, suite.catalog, suite.outbox, logger)
	suite.orders = order.NewServiceWithoutMetrics(orderRepo, cartRepo, suite.outbox, suite.carts.Locks(), logger)
}

func (suite *CartOrderFlowTestSuite) TestFullPurchaseFlow() {
	t := suite.T()

	// Корзина создаётся лениво.
	c, err := suite.carts.GetOrCreate("user-1")
	require.NoError(t, err)
	require.True(t, c.Total.IsZero())

	// Наполняем корзину: 2 × 10.00 + 1 × 4.50.
	require.NoError(t, suite.carts.AddItem(c.ID, "product-a", 2))
	require.NoError(t, suite.carts.AddItem(c.ID, "product-b", 1))

	total, err := suite.carts.Total(c.ID)
	require.NoError(t, err)
	require.True(t, total.Equal(decimal.RequireFromString("24.50")), "got total %s", total)

	// Размещаем заказ.
	placed, err := suite.orders.PlaceOrder("user-1")
	require.NoError(t, err)
	require.Equal(t, domain.OrderStatusPlaced, placed.Status)
	require.Len(t, placed.Items, 2)
	require.True(t, placed.TotalAmount.Equal(decimal.RequireFromString("24.50")))
	require.Empty(t, placed.ValidateInvariants())

	// Корзина очищена той же операцией.
	cleared, err := suite.carts.Get(c.ID)
	require.NoError(t, err)
	require.Empty(t, cleared.Items)
	require.True(t, cleared.Total.IsZero())

	// Событие размещения уходит через outbox worker.
	published := &capturingPublisher{}
	worker := outbox.NewWorker(suite.outbox, published, outbox.WithRetryBaseDelay(0))
	worker.ProcessOnce(context.Background())
	require.Len(t, published.events, 1)
	require.Equal(t, order.EventTypeOrderPlaced, published.events[0].EventType)
	require.Equal(t, placed.ID, published.events[0].AggregateID)

	// История заказов пользователя.
	orders, err := suite.orders.ListUserOrders("user-1", 10)
	require.NoError(t, err)
	require.Len(t, orders, 1)
	require.Equal(t, placed.ID, orders[0].ID)
}

func (suite *CartOrderFlowTestSuite) TestRepeatPurchases() {
	t := suite.T()

	c, err := suite.carts.GetOrCreate("user-1")
	require.NoError(t, err)

	// Первый заказ.
	require.NoError(t, suite.carts.AddItem(c.ID, "product-a", 1))
	first, err := suite.orders.PlaceOrder("user-1")
	require.NoError(t, err)

	// Цена в каталоге меняется, но снимок первого заказа неизменен.
	suite.catalog.SetPrice("product-a", decimal.RequireFromString("12.00"))

	// Та же корзина используется повторно.
	require.NoError(t, suite.carts.AddItem(c.ID, "product-a", 2))
	second, err := suite.orders.PlaceOrder("user-1")
	require.NoError(t, err)

	require.True(t, first.TotalAmount.Equal(decimal.RequireFromString("10.00")))
	require.True(t, second.TotalAmount.Equal(decimal.RequireFromString("24.00")))

	orders, err := suite.orders.ListUserOrders("user-1", 10)
	require.NoError(t, err)
	require.Len(t, orders, 2)
	// Новые заказы первыми.
	require.Equal(t, second.ID, orders[0].ID)
}

func (suite *CartOrderFlowTestSuite) TestPlaceOrderWithoutCart() {
	t := suite.T()

	_, err := suite.orders.PlaceOrder("stranger")
	require.ErrorIs(t, err, domain.ErrUserHasNoCart)
}

type capturingPublisher struct {
	events []domain.OutboxMessage
}

func (p *capturingPublisher) Publish(event domain.OutboxMessage) error {
	p.events = append(p.events, event)
	return nil
}

func TestCartOrderFlowTestSuite(t *testing.T) {
	suite.Run(t, new(CartOrderFlowTestSuite))
}
