package repository

import (
	"context"

	"shop-data/internal/models"
)

type UserRepository interface {
	Create(ctx context.Context, user models.NewUser) (*models.User, error)
	GetByEmail(ctx context.Context, email string) (*models.User, error)
	GetInfo(ctx context.Context, id int64) (*models.UserInfo, error)
	Authenticate(ctx context.Context, email, password string) (*models.User, error)
	Update(ctx context.Context, update models.UserUpdate) (*models.User, error)
}

type SellerRepository interface {
	Register(ctx context.Context, userID int64) (*models.Seller, error)
	IsSeller(ctx context.Context, userID int64) (bool, error)
}

type ShopRepository interface {
	Create(ctx context.Context, shop models.NewShop) (*models.Shop, error)
	GetInfo(ctx context.Context, id int64) (*models.ShopInfo, error)
	Search(ctx context.Context, name string) ([]models.ShopInfo, error)
	ListByOwner(ctx context.Context, ownerID int64) ([]models.ShopInfo, error)
}

type ProductRepository interface {
	Create(ctx context.Context, product models.NewProduct) (*models.Product, error)
	GetInfo(ctx context.Context, id int64) (*models.ProductInfo, error)
	Search(ctx context.Context, name string) ([]models.ProductInfo, error)
	ListByShop(ctx context.Context, shopID int64) ([]models.ProductInfo, error)
	SetQuantity(ctx context.Context, id int64, quantity int) (*models.Product, error)
}

type OrderRepository interface {
	Create(ctx context.Context, order models.NewOrder) (*models.Order, error)
	GetByID(ctx context.Context, id int64) (*models.OrderInfo, error)
	ListByBuyer(ctx context.Context, buyerID int64) ([]models.OrderInfo, error)
	ListByShop(ctx context.Context, shopID int64) ([]models.OrderInfo, error)
}
