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

type productRepo struct {
	base
}

func NewProductRepository(db DB, opts Options) ProductRepository {
	return &productRepo{base: newBase(db, opts)}
}

const productInfoColumns = `
		product_id,
		shop_id,
		shop_name,
		name,
		price,
		quantity,
		description`

func scanProductInfo(row pgx.Row, p *models.ProductInfo) error {
	return row.Scan(
		&p.ProductID,
		&p.ShopID,
		&p.ShopName,
		&p.Name,
		&p.Price,
		&p.Quantity,
		&p.Description,
	)
}

func (r *productRepo) Create(ctx context.Context, in models.NewProduct) (*models.Product, error) {
	in.Name = strings.TrimSpace(in.Name)
	if err := validateInput(in); err != nil {
		return nil, err
	}
	if in.Price.IsNegative() {
		return nil, fmt.Errorf("%w: product price cannot be negative", ErrInvalidInput)
	}

	sql := `
	INSERT INTO products (
		shop_id,
		name,
		price,
		quantity,
		description
	) VALUES ($1, $2, $3, $4, $5)
	RETURNING product_id
	`

	product := &models.Product{
		ShopID:      in.ShopID,
		Name:        in.Name,
		Price:       in.Price,
		Quantity:    in.Quantity,
		Description: in.Description,
	}

	err := r.inTx(ctx, "products.create", func(tx pgx.Tx) error {
		err := tx.QueryRow(ctx, sql,
			product.ShopID,
			product.Name,
			product.Price,
			product.Quantity,
			product.Description,
		).Scan(&product.ProductID)
		if err != nil {
			return fmt.Errorf("create product: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	return product, nil
}

func (r *productRepo) GetInfo(ctx context.Context, id int64) (*models.ProductInfo, error) {
	defer r.metrics.ObserveOp("products.get_info", time.Now())

	if err := requireID("product id", id); err != nil {
		return nil, err
	}

	sql := `SELECT` + productInfoColumns + `
	FROM product_info_view WHERE product_id = $1
	`

	var product models.ProductInfo
	if err := scanProductInfo(r.db.QueryRow(ctx, sql, id), &product); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, classify(fmt.Errorf("failed to get product by id %d: %w", id, err))
	}

	return &product, nil
}

// Search returns the products whose name contains name, ignoring case.
func (r *productRepo) Search(ctx context.Context, name string) ([]models.ProductInfo, error) {
	defer r.metrics.ObserveOp("products.search", time.Now())

	sql := `SELECT` + productInfoColumns + `
	FROM product_info_view
	WHERE name ILIKE '%' || $1 || '%'
	ORDER BY product_id
	`

	return r.list(ctx, sql, containsPattern(name))
}

func (r *productRepo) ListByShop(ctx context.Context, shopID int64) ([]models.ProductInfo, error) {
	defer r.metrics.ObserveOp("products.list_by_shop", time.Now())

	if err := requireID("shop id", shopID); err != nil {
		return nil, err
	}

	sql := `SELECT` + productInfoColumns + `
	FROM product_info_view
	WHERE shop_id = $1
	ORDER BY product_id
	`

	return r.list(ctx, sql, shopID)
}

func (r *productRepo) list(ctx context.Context, sql string, arg any) ([]models.ProductInfo, error) {
	rows, err := r.db.Query(ctx, sql, arg)
	if err != nil {
		return nil, classify(fmt.Errorf("failed to query products: %w", err))
	}

	defer rows.Close()

	products := make([]models.ProductInfo, 0)

	for rows.Next() {
		var p models.ProductInfo
		if err := scanProductInfo(rows, &p); err != nil {
			return nil, fmt.Errorf("failed to scan products: %w", err)
		}
		products = append(products, p)
	}

	if err := rows.Err(); err != nil {
		return nil, classify(fmt.Errorf("failed to complete row iteration: %w", err))
	}

	return products, nil
}

// SetQuantity overwrites the stock of one product while holding its row
// lock, so concurrent calls serialize and the last commit wins.
func (r *productRepo) SetQuantity(ctx context.Context, id int64, quantity int) (*models.Product, error) {
	if err := requireID("product id", id); err != nil {
		return nil, err
	}
	if quantity < 0 {
		return nil, fmt.Errorf("%w: product quantity cannot be negative", ErrInvalidInput)
	}

	lockSQL := `SELECT product_id FROM products WHERE product_id = $1 FOR UPDATE`

	updateSQL := `
	UPDATE products
	SET quantity = $1
	WHERE product_id = $2
	RETURNING product_id, shop_id, name, price, quantity, description
	`

	var product models.Product
	err := r.inTx(ctx, "products.set_quantity", func(tx pgx.Tx) error {
		if err := r.setLockTimeout(ctx, tx); err != nil {
			return err
		}

		var locked int64
		if err := tx.QueryRow(ctx, lockSQL, id).Scan(&locked); err != nil {
			if errors.Is(err, pgx.ErrNoRows) {
				return fmt.Errorf("%w: product %d", ErrNotFound, id)
			}
			return fmt.Errorf("lock product %d: %w", id, err)
		}

		err := tx.QueryRow(ctx, updateSQL, quantity, id).Scan(
			&product.ProductID,
			&product.ShopID,
			&product.Name,
			&product.Price,
			&product.Quantity,
			&product.Description,
		)
		if err != nil {
			return fmt.Errorf("failed to update product quantity %d: %w", id, err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	return &product, nil
}
