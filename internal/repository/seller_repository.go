package repository

import (
	"context"
	"fmt"
	"time"

	"shop-data/internal/models"

	"github.com/jackc/pgx/v5"
)

type sellerRepo struct {
	base
}

func NewSellerRepository(db DB, opts Options) SellerRepository {
	return &sellerRepo{base: newBase(db, opts)}
}

// Register marks an existing user as a seller.
func (r *sellerRepo) Register(ctx context.Context, userID int64) (*models.Seller, error) {
	if err := requireID("user id", userID); err != nil {
		return nil, err
	}

	sql := `INSERT INTO sellers (seller_id) VALUES ($1) RETURNING since`

	seller := &models.Seller{SellerID: userID}
	err := r.inTx(ctx, "sellers.register", func(tx pgx.Tx) error {
		if err := tx.QueryRow(ctx, sql, userID).Scan(&seller.Since); err != nil {
			return fmt.Errorf("register seller %d: %w", userID, err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	return seller, nil
}

const isSellerSQL = `SELECT EXISTS(SELECT 1 FROM sellers WHERE seller_id = $1)`

func (r *sellerRepo) IsSeller(ctx context.Context, userID int64) (bool, error) {
	defer r.metrics.ObserveOp("sellers.is_seller", time.Now())

	if err := requireID("user id", userID); err != nil {
		return false, err
	}

	var exists bool
	if err := r.db.QueryRow(ctx, isSellerSQL, userID).Scan(&exists); err != nil {
		return false, classify(fmt.Errorf("failed to check seller %d: %w", userID, err))
	}
	return exists, nil
}
