package domain

import "github.com/shopspring/decimal"

// Product — снимок товара из каталога на момент обращения.
// Каталог — внешний коллаборатор, здесь хранится только то,
// что нужно корзине: идентификатор, имя и текущая цена.
type Product struct {
	ID    string
	Name  string
	Brand string
	Price decimal.Decimal
}
