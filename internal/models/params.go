package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// NewUser carries signup data. Password is plain text and never stored.
type NewUser struct {
	Email     string    `json:"email" validate:"required,email,max=254"`
	FirstName string    `json:"first_name" validate:"required,max=100"`
	LastName  string    `json:"last_name" validate:"required,max=100"`
	BirthDate time.Time `json:"birth_date" validate:"required"`
	Password  string    `json:"password" validate:"required,min=8,max=72"`
}

// UserUpdate replaces a user's profile fields. An empty Password keeps
// the current one.
type UserUpdate struct {
	UserID    int64     `json:"user_id" validate:"gt=0"`
	Email     string    `json:"email" validate:"required,email,max=254"`
	FirstName string    `json:"first_name" validate:"required,max=100"`
	LastName  string    `json:"last_name" validate:"required,max=100"`
	BirthDate time.Time `json:"birth_date" validate:"required"`
	Password  string    `json:"password,omitempty" validate:"omitempty,min=8,max=72"`
}

type NewShop struct {
	OwnerID     int64  `json:"owner_id" validate:"gt=0"`
	Name        string `json:"name" validate:"required,max=150"`
	Description string `json:"description" validate:"max=2000"`
}

type NewProduct struct {
	ShopID      int64           `json:"shop_id" validate:"gt=0"`
	Name        string          `json:"name" validate:"required,max=150"`
	Price       decimal.Decimal `json:"price"`
	Quantity    int             `json:"quantity" validate:"gte=0"`
	Description string          `json:"description" validate:"max=2000"`
}

type NewOrder struct {
	BuyerID   int64 `json:"buyer_id" validate:"gt=0"`
	ShopID    int64 `json:"shop_id" validate:"gt=0"`
	ProductID int64 `json:"product_id" validate:"gt=0"`
	Quantity  int   `json:"quantity" validate:"gt=0"`
}
