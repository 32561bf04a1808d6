package cache

import (
	"context"

	"shop-data/internal/models"
	"shop-data/internal/repository"

	"github.com/redis/go-redis/v9"
)

// CachedOrderRepository caches nothing itself. Placing an order changes the
// product's stock, so it drops the product's cached views.
type CachedOrderRepository struct {
	cacheBase
	realRepo repository.OrderRepository
}

var _ repository.OrderRepository = (*CachedOrderRepository)(nil)

func NewCachedOrderRepository(realRepo repository.OrderRepository, rdb *redis.Client, opts Options) *CachedOrderRepository {
	return &CachedOrderRepository{
		cacheBase: newCacheBase(rdb, opts),
		realRepo:  realRepo,
	}
}

func (c *CachedOrderRepository) Create(ctx context.Context, in models.NewOrder) (*models.Order, error) {
	order, err := c.realRepo.Create(ctx, in)
	if err != nil {
		return nil, err
	}
	c.invalidate(ctx, productKey(order.ProductID), shopProductsKey(order.ShopID))
	return order, nil
}

func (c *CachedOrderRepository) GetByID(ctx context.Context, id int64) (*models.OrderInfo, error) {
	return c.realRepo.GetByID(ctx, id)
}

func (c *CachedOrderRepository) ListByBuyer(ctx context.Context, buyerID int64) ([]models.OrderInfo, error) {
	return c.realRepo.ListByBuyer(ctx, buyerID)
}

func (c *CachedOrderRepository) ListByShop(ctx context.Context, shopID int64) ([]models.OrderInfo, error) {
	return c.realRepo.ListByShop(ctx, shopID)
}
