package cache

import (
	"context"

	"shop-data/internal/models"
	"shop-data/internal/repository"

	"github.com/redis/go-redis/v9"
)

type CachedProductRepository struct {
	cacheBase
	realRepo repository.ProductRepository
}

var _ repository.ProductRepository = (*CachedProductRepository)(nil)

func NewCachedProductRepository(realRepo repository.ProductRepository, rdb *redis.Client, opts Options) *CachedProductRepository {
	return &CachedProductRepository{
		cacheBase: newCacheBase(rdb, opts),
		realRepo:  realRepo,
	}
}

func (c *CachedProductRepository) GetInfo(ctx context.Context, id int64) (*models.ProductInfo, error) {
	return readThrough(ctx, &c.cacheBase, "product", productKey(id), func() (*models.ProductInfo, error) {
		return c.realRepo.GetInfo(ctx, id)
	})
}

func (c *CachedProductRepository) ListByShop(ctx context.Context, shopID int64) ([]models.ProductInfo, error) {
	return readThrough(ctx, &c.cacheBase, "shop_products", shopProductsKey(shopID), func() ([]models.ProductInfo, error) {
		return c.realRepo.ListByShop(ctx, shopID)
	})
}

func (c *CachedProductRepository) Search(ctx context.Context, name string) ([]models.ProductInfo, error) {
	return c.realRepo.Search(ctx, name)
}

func (c *CachedProductRepository) Create(ctx context.Context, in models.NewProduct) (*models.Product, error) {
	product, err := c.realRepo.Create(ctx, in)
	if err != nil {
		return nil, err
	}

	// The new id may carry a notfound marker; the shop's count and list changed.
	c.invalidate(ctx,
		productKey(product.ProductID),
		shopProductsKey(product.ShopID),
		shopKey(product.ShopID),
	)

	return product, nil
}

func (c *CachedProductRepository) SetQuantity(ctx context.Context, id int64, quantity int) (*models.Product, error) {
	product, err := c.realRepo.SetQuantity(ctx, id, quantity)
	if err != nil {
		return nil, err
	}

	c.invalidate(ctx, productKey(id), shopProductsKey(product.ShopID))

	return product, nil
}
