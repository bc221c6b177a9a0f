package customers

// Customer is a buyer profile, optionally linked to one user account.
type Customer struct {
	ID                int64  `json:"id"`
	Name              string `json:"name"`
	Email             string `json:"email"`
	LoyaltyScore      int    `json:"loyaltyScore"`
	PurchaseFrequency int    `json:"purchaseFrequency"`
	UserID            *int64 `json:"userId,omitempty"`
}

// CreateInput carries the fields for a new customer.
type CreateInput struct {
	Name              string `json:"name" validate:"required,notblank,max=255"`
	Email             string `json:"email" validate:"required,email,max=255"`
	LoyaltyScore      int    `json:"loyaltyScore" validate:"gte=0"`
	PurchaseFrequency int    `json:"purchaseFrequency" validate:"gte=0"`
	UserID            *int64 `json:"userId" validate:"omitempty,gt=0"`
}

// UpdateInput is a partial update; nil fields are kept.
type UpdateInput struct {
	Name              *string `json:"name" validate:"omitempty,notblank,max=255"`
	Email             *string `json:"email" validate:"omitempty,email,max=255"`
	LoyaltyScore      *int    `json:"loyaltyScore" validate:"omitempty,gte=0"`
	PurchaseFrequency *int    `json:"purchaseFrequency" validate:"omitempty,gte=0"`
	UserID            *int64  `json:"userId" validate:"omitempty,gt=0"`
}
