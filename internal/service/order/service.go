package order

import (
	"encoding/json"
	"time"

	log "github.com/sirupsen/logrus"

	"github.com/vladislavdragonenkov/shop/internal/domain"
	"github.com/vladislavdragonenkov/shop/internal/messaging/kafka"
	"github.com/vladislavdragonenkov/shop/internal/metrics"
	"github.com/vladislavdragonenkov/shop/internal/service/cart"
)

// EventTypeOrderPlaced — тип события в outbox при размещении заказа.
const EventTypeOrderPlaced = string(kafka.EventTypeOrderPlaced)

// Service реализует размещение и чтение заказов.
// Размещение конкурирует с мутациями корзины, поэтому сервис делит
// реестр замков с сервисом корзин.
type Service struct {
	orders  domain.OrderRepository
	carts   domain.CartRepository
	outbox  domain.OutboxRepository
	locks   *cart.LockRegistry
	logger  *log.Entry
	metrics *metrics.OrderMetrics
}

// NewService создаёт рабочий экземпляр сервиса заказов.
func NewService(
	orders domain.OrderRepository,
	carts domain.CartRepository,
	outbox domain.OutboxRepository,
	locks *cart.LockRegistry,
	logger *log.Entry,
) *Service {
	if logger == nil {
		logger = log.New().WithField("component", "order")
	}
	if locks == nil {
		locks = cart.NewLockRegistry()
	}
	return &Service{
		orders:  orders,
		carts:   carts,
		outbox:  outbox,
		locks:   locks,
		logger:  logger,
		metrics: metrics.NewOrderMetrics(),
	}
}

// NewServiceWithoutMetrics создаёт сервис без метрик (для тестов).
func NewServiceWithoutMetrics(
	orders domain.OrderRepository,
	carts domain.CartRepository,
	outbox domain.OutboxRepository,
	locks *cart.LockRegistry,
	logger *log.Entry,
) *Service {
	svc := NewService(orders, carts, outbox, locks, logger)
	svc.metrics = nil
	return svc
}

// PlaceOrder конвертирует корзину пользователя в заказ.
// Снимок позиций и сохранение заказа с очисткой корзины происходят
// под замком корзины; заказ и очистка — одна транзакция хранилища.
// Пустая корзина даёт валидный пустой заказ.
func (s *Service) PlaceOrder(userID string) (domain.Order, error) {
	start := time.Now()

	order, err := s.placeOrder(userID)
	if s.metrics != nil {
		s.metrics.RecordPlacementDuration(time.Since(start))
		if err != nil {
			s.metrics.RecordPlacementFailed()
		} else {
			s.metrics.RecordOrderPlaced(len(order.Items))
		}
	}
	return order, err
}

func (s *Service) placeOrder(userID string) (domain.Order, error) {
	// Отсутствие корзины — фатальная предпосылка размещения:
	// ErrUserHasNoCart уходит вызывающему как есть.
	cart, err := s.carts.GetByUserID(userID)
	if err != nil {
		return domain.Order{}, err
	}

	unlock := s.locks.Lock(cart.ID)
	defer unlock()

	// Перечитываем под замком: между первым чтением и захватом замка
	// корзина могла измениться.
	cart, err = s.carts.GetByID(cart.ID)
	if err != nil {
		return domain.Order{}, err
	}

	order := domain.NewOrderFromCart(cart, time.Now().UTC())
	if err := s.orders.CreateFromCart(order, cart.ID); err != nil {
		s.logger.WithError(err).WithFields(log.Fields{
			"cart_id": cart.ID,
			"user_id": userID,
		}).Error("failed to persist order")
		return domain.Order{}, err
	}

	s.logger.WithFields(log.Fields{
		"order_id": order.ID,
		"user_id":  userID,
		"items":    len(order.Items),
		"total":    order.TotalAmount.String(),
	}).Info("order placed")

	s.emitOrderPlaced(order)
	return order, nil
}

// GetOrder возвращает заказ по идентификатору.
func (s *Service) GetOrder(orderID string) (domain.Order, error) {
	return s.orders.Get(orderID)
}

// ListUserOrders возвращает заказы пользователя, новые первыми.
// Пользователь без заказов получает пустой список.
func (s *Service) ListUserOrders(userID string, limit int) ([]domain.Order, error) {
	return s.orders.ListByUser(userID, limit)
}

// emitOrderPlaced кладёт событие в outbox. Заказ к этому моменту уже
// зафиксирован, поэтому ошибка постановки только логируется.
func (s *Service) emitOrderPlaced(order domain.Order) {
	if s.outbox == nil {
		return
	}

	items := make([]map[string]interface{}, 0, len(order.Items))
	for idx := range order.Items {
		item := &order.Items[idx]
		items = append(items, map[string]interface{}{
			"product_id":   item.ProductID,
			"product_name": item.ProductName,
			"price":        item.Price.String(),
			"quantity":     item.Quantity,
		})
	}
	payload, err := json.Marshal(map[string]interface{}{
		"order_id":     order.ID,
		"user_id":      order.UserID,
		"status":       string(order.Status),
		"total_amount": order.TotalAmount.String(),
		"items":        items,
		"ts":           order.CreatedAt.Format(time.RFC3339Nano),
	})
	if err != nil {
		s.logger.WithError(err).WithField("order_id", order.ID).Error("marshal order event failed")
		return
	}

	msg := domain.OutboxMessage{
		AggregateType: "order",
		AggregateID:   order.ID,
		EventType:     EventTypeOrderPlaced,
		Payload:       payload,
	}
	if _, err := s.outbox.Enqueue(msg); err != nil {
		s.logger.WithError(err).WithField("order_id", order.ID).Error("enqueue order event failed")
	}
}
