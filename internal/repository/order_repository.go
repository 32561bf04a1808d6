package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"shop-data/internal/models"

	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"
)

type orderRepo struct {
	base
}

func NewOrderRepository(db DB, opts Options) OrderRepository {
	return &orderRepo{base: newBase(db, opts)}
}

const orderInfoColumns = `
		order_id,
		buyer_id,
		buyer_email,
		shop_id,
		shop_name,
		product_id,
		product_name,
		quantity,
		unit_price,
		total,
		ordered_at`

func scanOrderInfo(row pgx.Row, o *models.OrderInfo) error {
	return row.Scan(
		&o.OrderID,
		&o.BuyerID,
		&o.BuyerEmail,
		&o.ShopID,
		&o.ShopName,
		&o.ProductID,
		&o.ProductName,
		&o.Quantity,
		&o.UnitPrice,
		&o.Total,
		&o.OrderedAt,
	)
}

// Create places an order: it locks the product row, checks the product
// belongs to the shop and has enough stock, takes the stock and appends the
// order at the current price.
func (r *orderRepo) Create(ctx context.Context, in models.NewOrder) (*models.Order, error) {
	if err := validateInput(in); err != nil {
		return nil, err
	}

	lockSQL := `
	SELECT
		shop_id,
		price,
		quantity
	FROM products WHERE product_id = $1
	FOR UPDATE
	`

	takeSQL := `UPDATE products SET quantity = quantity - $1 WHERE product_id = $2`

	insertSQL := `
	INSERT INTO orders (
		buyer_id,
		shop_id,
		product_id,
		quantity,
		unit_price,
		ordered_at
	) VALUES ($1, $2, $3, $4, $5, now())
	RETURNING order_id, ordered_at
	`

	order := &models.Order{
		BuyerID:   in.BuyerID,
		ShopID:    in.ShopID,
		ProductID: in.ProductID,
		Quantity:  in.Quantity,
	}

	err := r.inTx(ctx, "orders.create", func(tx pgx.Tx) error {
		if err := r.setLockTimeout(ctx, tx); err != nil {
			return err
		}

		var shopID int64
		var price decimal.Decimal
		var stock int
		if err := tx.QueryRow(ctx, lockSQL, in.ProductID).Scan(&shopID, &price, &stock); err != nil {
			if errors.Is(err, pgx.ErrNoRows) {
				return fmt.Errorf("%w: product %d", ErrNotFound, in.ProductID)
			}
			return fmt.Errorf("lock product %d: %w", in.ProductID, err)
		}

		if shopID != in.ShopID {
			return fmt.Errorf("%w: product %d is not sold by shop %d", ErrInvalidInput, in.ProductID, in.ShopID)
		}
		if stock < in.Quantity {
			return fmt.Errorf("%w: product %d has %d, requested %d", ErrNotEnough, in.ProductID, stock, in.Quantity)
		}

		result, err := tx.Exec(ctx, takeSQL, in.Quantity, in.ProductID)
		if err != nil {
			return fmt.Errorf("failed to update product %d: %w", in.ProductID, err)
		}
		if result.RowsAffected() == 0 {
			return fmt.Errorf("%w: product %d", ErrNotFound, in.ProductID)
		}

		order.UnitPrice = price
		err = tx.QueryRow(ctx, insertSQL,
			order.BuyerID,
			order.ShopID,
			order.ProductID,
			order.Quantity,
			order.UnitPrice,
		).Scan(&order.OrderID, &order.OrderedAt)
		if err != nil {
			return fmt.Errorf("failed to create order: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	return order, nil
}

func (r *orderRepo) GetByID(ctx context.Context, id int64) (*models.OrderInfo, error) {
	defer r.metrics.ObserveOp("orders.get_by_id", time.Now())

	if err := requireID("order id", id); err != nil {
		return nil, err
	}

	sql := `SELECT` + orderInfoColumns + `
	FROM orders_info_view
	WHERE order_id = $1
	`

	var order models.OrderInfo
	if err := scanOrderInfo(r.db.QueryRow(ctx, sql, id), &order); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, classify(fmt.Errorf("get order %d: %w", id, err))
	}

	return &order, nil
}

func (r *orderRepo) ListByBuyer(ctx context.Context, buyerID int64) ([]models.OrderInfo, error) {
	defer r.metrics.ObserveOp("orders.list_by_buyer", time.Now())

	if err := requireID("buyer id", buyerID); err != nil {
		return nil, err
	}

	sql := `SELECT` + orderInfoColumns + `
	FROM orders_info_view
	WHERE buyer_id = $1
	ORDER BY ordered_at, order_id
	`

	return r.list(ctx, sql, buyerID)
}

func (r *orderRepo) ListByShop(ctx context.Context, shopID int64) ([]models.OrderInfo, error) {
	defer r.metrics.ObserveOp("orders.list_by_shop", time.Now())

	if err := requireID("shop id", shopID); err != nil {
		return nil, err
	}

	sql := `SELECT` + orderInfoColumns + `
	FROM orders_info_view
	WHERE shop_id = $1
	ORDER BY ordered_at, order_id
	`

	return r.list(ctx, sql, shopID)
}

func (r *orderRepo) list(ctx context.Context, sql string, arg any) ([]models.OrderInfo, error) {
	rows, err := r.db.Query(ctx, sql, arg)
	if err != nil {
		return nil, classify(fmt.Errorf("failed to query orders: %w", err))
	}

	defer rows.Close()

	orders := make([]models.OrderInfo, 0)

	for rows.Next() {
		var o models.OrderInfo
		if err := scanOrderInfo(rows, &o); err != nil {
			return nil, fmt.Errorf("failed to scan orders: %w", err)
		}
		orders = append(orders, o)
	}

	if err := rows.Err(); err != nil {
		return nil, classify(fmt.Errorf("failed to complete row iteration: %w", err))
	}

	return orders, nil
}
