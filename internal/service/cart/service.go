package cart

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	log "github.com/sirupsen/logrus"

	"github.com/vladislavdragonenkov/shop/internal/domain"
	"github.com/vladislavdragonenkov/shop/internal/messaging/kafka"
	"github.com/vladislavdragonenkov/shop/internal/metrics"
)

// EventTypeCartCleared — тип события в outbox при ручной очистке корзины.
const EventTypeCartCleared = string(kafka.EventTypeCartCleared)

// Service реализует операции над корзиной покупателя.
// Мутации одной корзины сериализуются через LockRegistry, поэтому
// optimistic locking хранилища срабатывает только при конкуренции
// из других процессов.
type Service struct {
	carts   domain.CartRepository
	catalog domain.ProductCatalog
	outbox  domain.OutboxRepository
	logger  *log.Entry
	metrics *metrics.CartMetrics
	locks   *LockRegistry
}

// NewService создаёт рабочий экземпляр сервиса корзин.
// outbox может быть nil: тогда события очистки не публикуются.
func NewService(carts domain.CartRepository, catalog domain.ProductCatalog, outbox domain.OutboxRepository, logger *log.Entry) *Service {
	if logger == nil {
		logger = log.New().WithField("component", "cart")
	}
	return &Service{
		carts:   carts,
		catalog: catalog,
		outbox:  outbox,
		logger:  logger,
		metrics: metrics.NewCartMetrics(),
		locks:   NewLockRegistry(),
	}
}

// NewServiceWithoutMetrics создаёт сервис без метрик (для тестов).
func NewServiceWithoutMetrics(carts domain.CartRepository, catalog domain.ProductCatalog, outbox domain.OutboxRepository, logger *log.Entry) *Service {
	svc := NewService(carts, catalog, outbox, logger)
	svc.metrics = nil
	return svc
}

// Locks возвращает реестр замков для совместного использования
// с сервисом заказов: размещение заказа конкурирует с мутациями
// той же корзины.
func (s *Service) Locks() *LockRegistry {
	return s.locks
}

// GetOrCreate возвращает корзину пользователя, лениво создавая пустую,
// если её ещё нет. Повторный вызов всегда возвращает ту же корзину.
func (s *Service) GetOrCreate(userID string) (domain.Cart, error) {
	cart, err := s.carts.GetByUserID(userID)
	if err == nil {
		return cart, nil
	}
	if err != domain.ErrUserHasNoCart && !domain.IsNotFound(err) {
		return domain.Cart{}, err
	}

	now := time.Now().UTC()
	fresh := domain.Cart{
		ID:        uuid.NewString(),
		UserID:    userID,
		Total:     decimal.Zero,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if createErr := s.carts.Create(fresh); createErr != nil {
		// Конкурентный вызов успел создать корзину первым — перечитываем.
		if createErr == domain.ErrCartAlreadyExists {
			return s.carts.GetByUserID(userID)
		}
		return domain.Cart{}, createErr
	}

	s.logger.WithFields(log.Fields{
		"cart_id": fresh.ID,
		"user_id": userID,
	}).Info("cart created")
	return s.carts.GetByID(fresh.ID)
}

// Get возвращает корзину по идентификатору.
func (s *Service) Get(cartID string) (domain.Cart, error) {
	return s.carts.GetByID(cartID)
}

// GetByUser возвращает корзину пользователя без ленивого создания.
func (s *Service) GetByUser(userID string) (domain.Cart, error) {
	return s.carts.GetByUserID(userID)
}

// AddItem добавляет товар в корзину. Если товар уже есть, количества
// складываются, а цена остаётся зафиксированной с первого добавления.
func (s *Service) AddItem(cartID, productID string, quantity int32) (err error) {
	defer s.observe("add_item", time.Now(), &err)

	if quantity <= 0 {
		return domain.ErrQuantityInvalid
	}

	// Каталог опрашивается до захвата замка: ошибка каталога не должна
	// блокировать другие мутации корзины.
	product, err := s.catalog.Find(productID)
	if err != nil {
		return err
	}

	unlock := s.locks.Lock(cartID)
	defer unlock()

	cart, err := s.carts.GetByID(cartID)
	if err != nil {
		return err
	}

	now := time.Now().UTC()
	if !cart.MergeItem(productID, quantity, now) {
		cart.AddItem(domain.CartItem{
			ProductID:   product.ID,
			ProductName: product.Name,
			Quantity:    quantity,
			UnitPrice:   product.Price,
			CreatedAt:   now,
			UpdatedAt:   now,
		})
	}
	cart.UpdatedAt = now

	if err := s.carts.Save(cart); err != nil {
		return err
	}

	s.logger.WithFields(log.Fields{
		"cart_id":    cartID,
		"product_id": productID,
		"quantity":   quantity,
	}).Info("item added to cart")
	if s.metrics != nil {
		s.metrics.RecordCartSize(len(cart.Items))
	}
	return nil
}

// AddItemForUser добавляет товар в корзину пользователя, лениво создавая её.
func (s *Service) AddItemForUser(userID, productID string, quantity int32) (domain.Cart, error) {
	cart, err := s.GetOrCreate(userID)
	if err != nil {
		return domain.Cart{}, err
	}
	if err := s.AddItem(cart.ID, productID, quantity); err != nil {
		return domain.Cart{}, err
	}
	return s.carts.GetByID(cart.ID)
}

// RemoveItem удаляет позицию из корзины.
// Отсутствие товара среди позиций — ошибка ErrProductNotInCart.
func (s *Service) RemoveItem(cartID, productID string) (err error) {
	defer s.observe("remove_item", time.Now(), &err)

	unlock := s.locks.Lock(cartID)
	defer unlock()

	cart, err := s.carts.GetByID(cartID)
	if err != nil {
		return err
	}

	if !cart.RemoveItem(productID) {
		return domain.ErrProductNotInCart
	}
	cart.UpdatedAt = time.Now().UTC()

	if err := s.carts.Save(cart); err != nil {
		return err
	}

	s.logger.WithFields(log.Fields{
		"cart_id":    cartID,
		"product_id": productID,
	}).Info("item removed from cart")
	if s.metrics != nil {
		s.metrics.RecordCartSize(len(cart.Items))
	}
	return nil
}

// UpdateQuantity выставляет количество позиции абсолютным значением.
// Отсутствие товара в корзине проглатывается, но сумма всё равно
// пересчитывается и сохраняется.
func (s *Service) UpdateQuantity(cartID, productID string, quantity int32) (err error) {
	defer s.observe("update_quantity", time.Now(), &err)

	if quantity <= 0 {
		return domain.ErrQuantityInvalid
	}

	unlock := s.locks.Lock(cartID)
	defer unlock()

	cart, err := s.carts.GetByID(cartID)
	if err != nil {
		return err
	}

	now := time.Now().UTC()
	if !cart.SetItemQuantity(productID, quantity, now) {
		s.logger.WithFields(log.Fields{
			"cart_id":    cartID,
			"product_id": productID,
		}).Debug("quantity update for product not in cart")
	}
	cart.UpdatedAt = now

	return s.carts.Save(cart)
}

// Total возвращает кэшированную сумму корзины без пересчёта.
func (s *Service) Total(cartID string) (decimal.Decimal, error) {
	cart, err := s.carts.GetByID(cartID)
	if err != nil {
		return decimal.Zero, err
	}
	return cart.Total, nil
}

// Clear атомарно удаляет все позиции корзины и обнуляет сумму.
func (s *Service) Clear(cartID string) (err error) {
	defer s.observe("clear", time.Now(), &err)

	unlock := s.locks.Lock(cartID)
	defer unlock()

	cart, err := s.carts.GetByID(cartID)
	if err != nil {
		return err
	}
	if err := s.carts.ClearItems(cartID); err != nil {
		return err
	}

	s.logger.WithField("cart_id", cartID).Info("cart cleared")
	if s.metrics != nil {
		s.metrics.RecordCartSize(0)
	}
	s.emitCartCleared(cart)
	return nil
}

// emitCartCleared кладёт событие об очистке в outbox. Корзина к этому
// моменту уже очищена, поэтому ошибка постановки только логируется.
func (s *Service) emitCartCleared(cart domain.Cart) {
	if s.outbox == nil {
		return
	}

	payload, err := json.Marshal(map[string]interface{}{
		"cart_id": cart.ID,
		"user_id": cart.UserID,
		"items":   len(cart.Items),
		"ts":      time.Now().UTC().Format(time.RFC3339Nano),
	})
	if err != nil {
		s.logger.WithError(err).WithField("cart_id", cart.ID).Error("marshal cart event failed")
		return
	}

	msg := domain.OutboxMessage{
		AggregateType: "cart",
		AggregateID:   cart.ID,
		EventType:     EventTypeCartCleared,
		Payload:       payload,
	}
	if _, err := s.outbox.Enqueue(msg); err != nil {
		s.logger.WithError(err).WithField("cart_id", cart.ID).Error("enqueue cart event failed")
	}
}

func (s *Service) observe(op string, start time.Time, err *error) {
	if s.metrics == nil {
		return
	}
	s.metrics.RecordOperation(op, *err)
	s.metrics.RecordOperationDuration(op, time.Since(start))
}
