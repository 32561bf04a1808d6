package cache

import (
	"context"

	"shop-data/internal/models"
	"shop-data/internal/repository"

	"github.com/redis/go-redis/v9"
)

type CachedShopRepository struct {
	cacheBase
	realRepo repository.ShopRepository
}

var _ repository.ShopRepository = (*CachedShopRepository)(nil)

func NewCachedShopRepository(realRepo repository.ShopRepository, rdb *redis.Client, opts Options) *CachedShopRepository {
	return &CachedShopRepository{
		cacheBase: newCacheBase(rdb, opts),
		realRepo:  realRepo,
	}
}

func (c *CachedShopRepository) GetInfo(ctx context.Context, id int64) (*models.ShopInfo, error) {
	return readThrough(ctx, &c.cacheBase, "shop", shopKey(id), func() (*models.ShopInfo, error) {
		return c.realRepo.GetInfo(ctx, id)
	})
}

func (c *CachedShopRepository) Create(ctx context.Context, in models.NewShop) (*models.Shop, error) {
	shop, err := c.realRepo.Create(ctx, in)
	if err != nil {
		return nil, err
	}
	c.invalidate(ctx, shopKey(shop.ShopID))
	return shop, nil
}

func (c *CachedShopRepository) Search(ctx context.Context, name string) ([]models.ShopInfo, error) {
	return c.realRepo.Search(ctx, name)
}

func (c *CachedShopRepository) ListByOwner(ctx context.Context, ownerID int64) ([]models.ShopInfo, error) {
	return c.realRepo.ListByOwner(ctx, ownerID)
}
