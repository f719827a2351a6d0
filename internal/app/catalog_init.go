package app

import (
	"encoding/json"
	"os"

	"github.com/shopspring/decimal"
	log "github.com/sirupsen/logrus"

	"github.com/vladislavdragonenkov/shop/internal/domain"
	"github.com/vladislavdragonenkov/shop/internal/service/catalog"
)

// catalogSeed описывает один товар в SHOP_CATALOG_SEED.
type catalogSeed struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Brand string `json:"brand"`
	Price string `json:"price"`
}

// buildCatalog собирает каталог товаров. Клиента внешнего каталога у
// сервиса нет: набор товаров загружается из SHOP_CATALOG_SEED
// (JSON-массив) или остаётся пустым.
func buildCatalog(logger *log.Entry) domain.ProductCatalog {
	mock := catalog.NewMockCatalog()

	raw := os.Getenv("SHOP_CATALOG_SEED")
	if raw == "" {
		logger.Info("SHOP_CATALOG_SEED is empty, catalog starts empty")
		return mock
	}

	var seeds []catalogSeed
	if err := json.Unmarshal([]byte(raw), &seeds); err != nil {
		logger.WithError(err).Warn("failed to parse SHOP_CATALOG_SEED, catalog starts empty")
		return mock
	}

	loaded := 0
	for _, seed := range seeds {
		if seed.ID == "" {
			continue
		}
		price, err := decimal.NewFromString(seed.Price)
		if err != nil {
			logger.WithField("product_id", seed.ID).Warn("invalid price in catalog seed, skipping")
			continue
		}
		mock.Put(domain.Product{ID: seed.ID, Name: seed.Name, Brand: seed.Brand, Price: price})
		loaded++
	}

	logger.WithField("products", loaded).Info("catalog seeded")
	return mock
}
