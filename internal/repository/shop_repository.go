package repository

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"shop-data/internal/models"

	"github.com/jackc/pgx/v5"
)

type shopRepo struct {
	base
}

func NewShopRepository(db DB, opts Options) ShopRepository {
	return &shopRepo{base: newBase(db, opts)}
}

const shopInfoColumns = `
		shop_id,
		name,
		established,
		description,
		owner_id,
		owner_name,
		owner_email,
		product_count`

func scanShopInfo(row pgx.Row, s *models.ShopInfo) error {
	return row.Scan(
		&s.ShopID,
		&s.Name,
		&s.Established,
		&s.Description,
		&s.OwnerID,
		&s.OwnerName,
		&s.OwnerEmail,
		&s.ProductCount,
	)
}

// Create opens a shop for a seller. The establish date is the database's
// current date, never a caller-supplied value.
func (r *shopRepo) Create(ctx context.Context, in models.NewShop) (*models.Shop, error) {
	in.Name = strings.TrimSpace(in.Name)
	if err := validateInput(in); err != nil {
		return nil, err
	}

	sql := `
	INSERT INTO shops (
		name,
		description,
		owner_id,
		established
	) VALUES ($1, $2, $3, CURRENT_DATE)
	RETURNING shop_id, established
	`

	shop := &models.Shop{
		Name:        in.Name,
		Description: in.Description,
		OwnerID:     in.OwnerID,
	}

	err := r.inTx(ctx, "shops.create", func(tx pgx.Tx) error {
		var isSeller bool
		if err := tx.QueryRow(ctx, isSellerSQL, in.OwnerID).Scan(&isSeller); err != nil {
			return fmt.Errorf("check owner %d: %w", in.OwnerID, err)
		}
		if !isSeller {
			return fmt.Errorf("%w: user %d", ErrNotSeller, in.OwnerID)
		}

		err := tx.QueryRow(ctx, sql,
			shop.Name,
			shop.Description,
			shop.OwnerID,
		).Scan(&shop.ShopID, &shop.Established)
		if err != nil {
			return fmt.Errorf("create shop: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	return shop, nil
}

func (r *shopRepo) GetInfo(ctx context.Context, id int64) (*models.ShopInfo, error) {
	defer r.metrics.ObserveOp("shops.get_info", time.Now())

	if err := requireID("shop id", id); err != nil {
		return nil, err
	}

	sql := `SELECT` + shopInfoColumns + `
	FROM shop_info_view WHERE shop_id = $1
	`

	var shop models.ShopInfo
	if err := scanShopInfo(r.db.QueryRow(ctx, sql, id), &shop); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, classify(fmt.Errorf("failed to get shop info %d: %w", id, err))
	}

	return &shop, nil
}

// Search returns the shops whose name contains name, ignoring case.
func (r *shopRepo) Search(ctx context.Context, name string) ([]models.ShopInfo, error) {
	defer r.metrics.ObserveOp("shops.search", time.Now())

	sql := `SELECT` + shopInfoColumns + `
	FROM shop_info_view
	WHERE name ILIKE '%' || $1 || '%'
	ORDER BY shop_id
	`

	return r.list(ctx, sql, containsPattern(name))
}

func (r *shopRepo) ListByOwner(ctx context.Context, ownerID int64) ([]models.ShopInfo, error) {
	defer r.metrics.ObserveOp("shops.list_by_owner", time.Now())

	if err := requireID("owner id", ownerID); err != nil {
		return nil, err
	}

	sql := `SELECT` + shopInfoColumns + `
	FROM shop_info_view
	WHERE owner_id = $1
	ORDER BY shop_id
	`

	return r.list(ctx, sql, ownerID)
}

func (r *shopRepo) list(ctx context.Context, sql string, arg any) ([]models.ShopInfo, error) {
	rows, err := r.db.Query(ctx, sql, arg)
	if err != nil {
		return nil, classify(fmt.Errorf("failed to query shops: %w", err))
	}

	defer rows.Close()

	shops := make([]models.ShopInfo, 0)

	for rows.Next() {
		var s models.ShopInfo
		if err := scanShopInfo(rows, &s); err != nil {
			return nil, fmt.Errorf("failed to scan shops: %w", err)
		}
		shops = append(shops, s)
	}

	if err := rows.Err(); err != nil {
		return nil, classify(fmt.Errorf("failed to complete row iteration: %w", err))
	}

	return shops, nil
}
