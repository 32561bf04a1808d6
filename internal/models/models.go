package models

import (
	"time"

	"github.com/shopspring/decimal"
)

type User struct {
	UserID       int64     `json:"user_id"`
	Email        string    `json:"email"`
	FirstName    string    `json:"first_name"`
	LastName     string    `json:"last_name"`
	BirthDate    time.Time `json:"birth_date"`
	PasswordHash string    `json:"-"`
	CreatedAt    time.Time `json:"created_at"`
}

// UserInfo is a row of user_info_view.
type UserInfo struct {
	UserID    int64     `json:"user_id"`
	Email     string    `json:"email"`
	FirstName string    `json:"first_name"`
	LastName  string    `json:"last_name"`
	BirthDate time.Time `json:"birth_date"`
	IsSeller  bool      `json:"is_seller"`
	CreatedAt time.Time `json:"created_at"`
}

type Seller struct {
	SellerID int64     `json:"seller_id"`
	Since    time.Time `json:"since"`
}

type Shop struct {
	ShopID      int64     `json:"shop_id"`
	Name        string    `json:"name"`
	Established time.Time `json:"established"`
	Description string    `json:"description"`
	OwnerID     int64     `json:"owner_id"`
}

// ShopInfo is a row of shop_info_view.
type ShopInfo struct {
	ShopID       int64     `json:"shop_id"`
	Name         string    `json:"name"`
	Established  time.Time `json:"established"`
	Description  string    `json:"description"`
	OwnerID      int64     `json:"owner_id"`
	OwnerName    string    `json:"owner_name"`
	OwnerEmail   string    `json:"owner_email"`
	ProductCount int64     `json:"product_count"`
}

type Product struct {
	ProductID   int64           `json:"product_id"`
	ShopID      int64           `json:"shop_id"`
	Name        string          `json:"name"`
	Price       decimal.Decimal `json:"price"`
	Quantity    int             `json:"quantity"`
	Description string          `json:"description"`
}

// ProductInfo is a row of product_info_view.
type ProductInfo struct {
	ProductID   int64           `json:"product_id"`
	ShopID      int64           `json:"shop_id"`
	ShopName    string          `json:"shop_name"`
	Name        string          `json:"name"`
	Price       decimal.Decimal `json:"price"`
	Quantity    int             `json:"quantity"`
	Description string          `json:"description"`
}

type Order struct {
	OrderID   int64           `json:"order_id"`
	BuyerID   int64           `json:"buyer_id"`
	ShopID    int64           `json:"shop_id"`
	ProductID int64           `json:"product_id"`
	Quantity  int             `json:"quantity"`
	UnitPrice decimal.Decimal `json:"unit_price"`
	OrderedAt time.Time       `json:"ordered_at"`
}

// OrderInfo is a row of orders_info_view.
type OrderInfo struct {
	OrderID     int64           `json:"order_id"`
	BuyerID     int64           `json:"buyer_id"`
	BuyerEmail  string          `json:"buyer_email"`
	ShopID      int64           `json:"shop_id"`
	ShopName    string          `json:"shop_name"`
	ProductID   int64           `json:"product_id"`
	ProductName string          `json:"product_name"`
	Quantity    int             `json:"quantity"`
	UnitPrice   decimal.Decimal `json:"unit_price"`
	Total       decimal.Decimal `json:"total"`
	OrderedAt   time.Time       `json:"ordered_at"`
}
