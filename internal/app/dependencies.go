package app

import (
	"context"
	"fmt"

	log "github.com/sirupsen/logrus"

	"github.com/vladislavdragonenkov/shop/internal/domain"
	"github.com/vladislavdragonenkov/shop/internal/storage/memory"
	"github.com/vladislavdragonenkov/shop/internal/storage/postgres"
)

// dependencies собирает репозитории приложения поверх выбранного хранилища.
type dependencies struct {
	carts       domain.CartRepository
	orders      domain.OrderRepository
	outbox      domain.OutboxRepository
	idempotency domain.IdempotencyRepository

	// pg не nil только при работе поверх PostgreSQL.
	pg *postgres.Store
}

// buildDependencies выбирает backend: PostgreSQL при заданном DSN,
// иначе in-memory хранилище.
func buildDependencies(ctx context.Context, dsn string, logger *log.Entry) (*dependencies, error) {
	if dsn == "" {
		logger.Info("postgres DSN is empty, using in-memory storage")
		store := memory.NewStore()
		return &dependencies{
			carts:       memory.NewCartRepository(store),
			orders:      memory.NewOrderRepository(store),
			outbox:      memory.NewOutboxRepository(),
			idempotency: memory.NewIdempotencyRepository(),
		}, nil
	}

	store, err := postgres.Open(ctx, dsn)
	if err != nil {
		return nil, fmt.Errorf("open postgres: %w", err)
	}
	if err := store.EnsureSchema(ctx); err != nil {
		_ = store.Close()
		return nil, fmt.Errorf("ensure schema: %w", err)
	}

	logger.Info("using postgres storage")
	return &dependencies{
		carts:       postgres.NewCartRepository(store),
		orders:      postgres.NewOrderRepository(store),
		outbox:      postgres.NewOutboxRepository(store),
		idempotency: postgres.NewIdempotencyRepository(store),
		pg:          store,
	}, nil
}

// Close освобождает ресурсы хранилища.
func (d *dependencies) Close() {
	if d.pg != nil {
		_ = d.pg.Close()
	}
}
