package products

import "github.com/shopspring/decimal"

// Product is a sellable item with on-hand stock.
type Product struct {
	ID    int64           `json:"id"`
	Name  string          `json:"name"`
	Stock int             `json:"stock"`
	Price decimal.Decimal `json:"price"`
}

// CreateInput carries the fields for a new product.
type CreateInput struct {
	Name  string          `json:"name" validate:"required,notblank,max=255"`
	Stock int             `json:"stock" validate:"gte=0,lte=2147483647"`
	Price decimal.Decimal `json:"price"`
}

// UpdateInput carries a partial product update; nil fields are left as is.
type UpdateInput struct {
	Name  *string          `json:"name" validate:"omitempty,notblank,max=255"`
	Stock *int             `json:"stock" validate:"omitempty,gte=0,lte=2147483647"`
	Price *decimal.Decimal `json:"price"`
}
