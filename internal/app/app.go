package app

import (
	"context"
	"errors"
	"net/http"
	"os"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	log "github.com/sirupsen/logrus"

	healthcheck "github.com/vladislavdragonenkov/shop/internal/health"
	"github.com/vladislavdragonenkov/shop/internal/messaging/kafka"
	"github.com/vladislavdragonenkov/shop/internal/service/cart"
	idemsvc "github.com/vladislavdragonenkov/shop/internal/service/idempotency"
	"github.com/vladislavdragonenkov/shop/internal/service/order"
	"github.com/vladislavdragonenkov/shop/internal/service/outbox"
	shophttp "github.com/vladislavdragonenkov/shop/internal/transport/http"
	"github.com/vladislavdragonenkov/shop/internal/version"
)

// Config описывает минимальные настройки запуска приложения.
type Config struct {
	HTTPAddr    string
	MetricsAddr string
	PostgresDSN string
}

// DefaultConfig возвращает базовые адреса для API и HTTP-метрик.
func DefaultConfig() Config {
	return Config{
		HTTPAddr:    ":8080",
		MetricsAddr: ":9090",
	}
}

// Run поднимает зависимости, HTTP API и фоновые воркеры и блокируется
// до отмены ctx.
func Run(ctx context.Context, cfg Config) error {
	logger := log.WithField("component", "app")

	deps, err := buildDependencies(ctx, cfg.PostgresDSN, logger)
	if err != nil {
		return err
	}
	defer deps.Close()

	// Mock-каталог вместо клиента внешнего каталога: товары заводятся
	// через переменные окружения демо-набором или остаются пустыми.
	productCatalog := buildCatalog(logger)

	carts := cart.NewService(deps.carts, productCatalog, deps.outbox, logger.WithField("layer", "cart"))
	orders := order.NewService(deps.orders, deps.carts, deps.outbox, carts.Locks(),
		logger.WithField("layer", "order"))

	kafkaProducer, publisher, dlqPublisher := initKafka(os.Getenv("KAFKA_BROKERS"), logger)
	if publisher != nil {
		worker := outbox.NewWorker(deps.outbox, publisher,
			outbox.WithLogger(logger.WithField("layer", "outbox")),
			outbox.WithDLQPublisher(dlqPublisher),
		)
		go worker.Run(ctx)
	}

	cleanup := idemsvc.NewCleanupWorker(deps.idempotency,
		idemsvc.WithLogger(logger.WithField("layer", "idempotency-cleanup")))
	go cleanup.Run(ctx)

	// HTTP health checks
	healthHandler := healthcheck.NewHandler(version.String())
	if deps.pg != nil {
		healthHandler.RegisterChecker("postgres", healthcheck.NewSimpleChecker("postgres", func() error {
			checkCtx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
			defer cancel()
			return deps.pg.Ping(checkCtx)
		}))
	}

	metricsSrv := startMetricsServer(ctx, cfg.MetricsAddr, logger, healthHandler)

	apiSrv := &http.Server{
		Addr: cfg.HTTPAddr,
		Handler: shophttp.NewRouter(shophttp.RouterConfig{
			Carts:       carts,
			Orders:      orders,
			Idempotency: deps.idempotency,
			Logger:      logger.WithField("layer", "http"),
		}),
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Infof("HTTP API слушает %s", cfg.HTTPAddr)
		errCh <- apiSrv.ListenAndServe()
	}()

	select {
	case <-ctx.Done():
		logger.Info("получен сигнал остановки, останавливаем HTTP сервер")
		shutdownHTTP(apiSrv, logger)
		shutdownHTTP(metricsSrv, logger)
		closeKafka(kafkaProducer, logger)
		return ctx.Err()
	case err := <-errCh:
		shutdownHTTP(metricsSrv, logger)
		closeKafka(kafkaProducer, logger)
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	}
}

// startMetricsServer запускает HTTP-обработчик /metrics для Prometheus.
func startMetricsServer(ctx context.Context, addr string, logger *log.Entry, healthHandler http.Handler) *http.Server {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	mux.Handle("/healthz", healthHandler)
	mux.HandleFunc("/livez", healthcheck.LivenessHandler)

	srv := &http.Server{Addr: addr, Handler: mux}
	go func() {
		logger.Infof("метрики доступны по адресу %s/metrics", addr)
		logger.Infof("health checks: %s/healthz, %s/livez", addr, addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.WithError(err).Warn("metrics server failed")
		}
	}()

	go func() {
		<-ctx.Done()
		shutdownHTTP(srv, logger)
	}()

	return srv
}

// shutdownHTTP аккуратно останавливает HTTP-сервер.
func shutdownHTTP(srv *http.Server, logger *log.Entry) {
	if srv == nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil && !errors.Is(err, http.ErrServerClosed) {
		logger.WithError(err).Warn("http shutdown with error")
	}
}

func closeKafka(producer *kafka.Producer, logger *log.Entry) {
	if producer == nil {
		return
	}
	if err := producer.Close(); err != nil {
		logger.WithError(err).Warn("failed to close kafka producer")
	} else {
		logger.Info("kafka producer closed")
	}
}
