package sales

import (
	"github.com/shopspring/decimal"

	"github.com/bizinsight360/bizinsight360/internal/products"
	"github.com/bizinsight360/bizinsight360/internal/users"
)

// DateLayout is the ISO-8601 form used for generated sale dates.
const DateLayout = "2006-01-02T15:04:05.000Z"

// Sale records the purchase of a quantity of one product by one user.
// Total is fixed at creation from the product price at that moment.
type Sale struct {
	ID        int64             `json:"id"`
	ProductID int64             `json:"productId"`
	UserID    int64             `json:"userId"`
	Quantity  int               `json:"quantity"`
	Total     decimal.Decimal   `json:"total"`
	Date      string            `json:"date"`
	Product   *products.Product `json:"product,omitempty"`
	User      *users.PublicUser `json:"user,omitempty"`
}

// CreateSaleInput is the request to record a sale.
type CreateSaleInput struct {
	ProductID int64   `json:"productId" validate:"gt=0"`
	Quantity  int     `json:"quantity" validate:"gt=0,lte=2147483647"`
	UserID    int64   `json:"userId" validate:"gt=0"`
	Date      *string `json:"date" validate:"omitempty,datetime=2006-01-02T15:04:05Z07:00"`
}

// CreateOptions carries request metadata that is not part of the sale.
type CreateOptions struct {
	IdempotencyKey string
	ActorID        int64
}
