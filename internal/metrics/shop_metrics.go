package metrics

import (
	"fmt"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// CartMetrics содержит метрики операций над корзиной.
type CartMetrics struct {
	// Счётчики операций с разбивкой по операции и результату.
	operations *prometheus.CounterVec

	// Гистограммы времени выполнения операций.
	operationDuration *prometheus.HistogramVec

	// Gauge количества позиций, затронутых последней мутацией.
	lastCartSize prometheus.Gauge
}

// OrderMetrics содержит метрики размещения и чтения заказов.
type OrderMetrics struct {
	placed            prometheus.Counter
	placementFailed   prometheus.Counter
	placementDuration prometheus.Histogram
	orderItems        prometheus.Histogram
}

// NewCartMetrics создаёт метрики корзины в default registry.
func NewCartMetrics() *CartMetrics {
	return newCartMetricsWithRegisterer(prometheus.DefaultRegisterer)
}

func newCartMetricsWithRegisterer(registerer prometheus.Registerer) *CartMetrics {
	if registerer == nil {
		registerer = prometheus.DefaultRegisterer
	}

	return &CartMetrics{
		operations: registerCounterVec(registerer, prometheus.CounterOpts{
			Name: "shop_cart_operations_total",
			Help: "Total number of cart operations grouped by operation and result.",
		}, []string{"op", "result"}),
		operationDuration: registerHistogramVec(registerer, prometheus.HistogramOpts{
			Name:    "shop_cart_operation_duration_seconds",
			Help:    "Duration of cart operations in seconds.",
			Buckets: []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1.0, 2.5, 5.0},
		}, []string{"op"}),
		lastCartSize: registerGauge(registerer, prometheus.GaugeOpts{
			Name: "shop_cart_last_mutation_items",
			Help: "Number of line items in the cart after the last mutation.",
		}),
	}
}

// NewOrderMetrics создаёт метрики заказов в default registry.
func NewOrderMetrics() *OrderMetrics {
	return newOrderMetricsWithRegisterer(prometheus.DefaultRegisterer)
}

func newOrderMetricsWithRegisterer(registerer prometheus.Registerer) *OrderMetrics {
	if registerer == nil {
		registerer = prometheus.DefaultRegisterer
	}

	return &OrderMetrics{
		placed: registerCounter(registerer, prometheus.CounterOpts{
			Name: "shop_orders_placed_total",
			Help: "Total number of orders placed successfully.",
		}),
		placementFailed: registerCounter(registerer, prometheus.CounterOpts{
			Name: "shop_order_placement_failed_total",
			Help: "Total number of failed order placements.",
		}),
		placementDuration: registerHistogram(registerer, prometheus.HistogramOpts{
			Name:    "shop_order_placement_duration_seconds",
			Help:    "Duration of order placement in seconds.",
			Buckets: prometheus.DefBuckets,
		}),
		orderItems: registerHistogram(registerer, prometheus.HistogramOpts{
			Name:    "shop_order_items",
			Help:    "Number of line items in placed orders.",
			Buckets: []float64{0, 1, 2, 3, 5, 8, 13, 21, 34},
		}),
	}
}

// RecordOperation фиксирует результат операции над корзиной.
func (m *CartMetrics) RecordOperation(op string, err error) {
	result := "ok"
	if err != nil {
		result = "error"
	}
	m.operations.WithLabelValues(op, result).Inc()
}

// RecordOperationDuration записывает время выполнения операции.
func (m *CartMetrics) RecordOperationDuration(op string, duration time.Duration) {
	m.operationDuration.WithLabelValues(op).Observe(duration.Seconds())
}

// RecordCartSize запоминает размер корзины после мутации.
func (m *CartMetrics) RecordCartSize(items int) {
	m.lastCartSize.Set(float64(items))
}

// RecordOrderPlaced фиксирует успешно размещённый заказ.
func (m *OrderMetrics) RecordOrderPlaced(items int) {
	m.placed.Inc()
	m.orderItems.Observe(float64(items))
}

// RecordPlacementFailed фиксирует неудачное размещение.
func (m *OrderMetrics) RecordPlacementFailed() {
	m.placementFailed.Inc()
}

// RecordPlacementDuration записывает время размещения заказа.
func (m *OrderMetrics) RecordPlacementDuration(duration time.Duration) {
	m.placementDuration.Observe(duration.Seconds())
}

func registerCounter(registerer prometheus.Registerer, opts prometheus.CounterOpts) prometheus.Counter {
	collector := prometheus.NewCounter(opts)
	if err := registerer.Register(collector); err != nil {
		if alreadyRegistered, ok := err.(prometheus.AlreadyRegisteredError); ok {
			existing, ok := alreadyRegistered.ExistingCollector.(prometheus.Counter)
			if !ok {
				panic(fmt.Sprintf("collector %q already registered with unexpected type", opts.Name))
			}
			return existing
		}
		panic(fmt.Sprintf("register counter %q: %v", opts.Name, err))
	}
	return collector
}

func registerCounterVec(registerer prometheus.Registerer, opts prometheus.CounterOpts, labels []string) *prometheus.CounterVec {
	collector := prometheus.NewCounterVec(opts, labels)
	if err := registerer.Register(collector); err != nil {
		if alreadyRegistered, ok := err.(prometheus.AlreadyRegisteredError); ok {
			existing, ok := alreadyRegistered.ExistingCollector.(*prometheus.CounterVec)
			if !ok {
				panic(fmt.Sprintf("collector %q already registered with unexpected type", opts.Name))
			}
			return existing
		}
		panic(fmt.Sprintf("register counter vec %q: %v", opts.Name, err))
	}
	return collector
}

func registerGauge(registerer prometheus.Registerer, opts prometheus.GaugeOpts) prometheus.Gauge {
	collector := prometheus.NewGauge(opts)
	if err := registerer.Register(collector); err != nil {
		if alreadyRegistered, ok := err.(prometheus.AlreadyRegisteredError); ok {
			existing, ok := alreadyRegistered.ExistingCollector.(prometheus.Gauge)
			if !ok {
				panic(fmt.Sprintf("collector %q already registered with unexpected type", opts.Name))
			}
			return existing
		}
		panic(fmt.Sprintf("register gauge %q: %v", opts.Name, err))
	}
	return collector
}

func registerHistogram(registerer prometheus.Registerer, opts prometheus.HistogramOpts) prometheus.Histogram {
	collector := prometheus.NewHistogram(opts)
	if err := registerer.Register(collector); err != nil {
		if alreadyRegistered, ok := err.(prometheus.AlreadyRegisteredError); ok {
			existing, ok := alreadyRegistered.ExistingCollector.(prometheus.Histogram)
			if !ok {
				panic(fmt.Sprintf("collector %q already registered with unexpected type", opts.Name))
			}
			return existing
		}
		panic(fmt.Sprintf("register histogram %q: %v", opts.Name, err))
	}
	return collector
}

func registerHistogramVec(registerer prometheus.Registerer, opts prometheus.HistogramOpts, labels []string) *prometheus.HistogramVec {
	collector := prometheus.NewHistogramVec(opts, labels)
	if err := registerer.Register(collector); err != nil {
		if alreadyRegistered, ok := err.(prometheus.AlreadyRegisteredError); ok {
			existing, ok := alreadyRegistered.ExistingCollector.(*prometheus.HistogramVec)
			if !ok {
				panic(fmt.Sprintf("collector %q already registered with unexpected type", opts.Name))
			}
			return existing
		}
		panic(fmt.Sprintf("register histogram vec %q: %v", opts.Name, err))
	}
	return collector
}
