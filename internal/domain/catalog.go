package domain

import "github.com/shopspring/decimal"

// CatalogItem is a purchasable item. The ledger only reads it.
type CatalogItem struct {
	ID    int64           `json:"id"`
	Name  string          `json:"name"`
	Price decimal.Decimal `json:"price"`
}

// SubtotalFor returns price x quantity without rounding.
func (i *CatalogItem) SubtotalFor(quantity int) decimal.Decimal {
	return i.Price.Mul(decimal.NewFromInt(int64(quantity)))
}
