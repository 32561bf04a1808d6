package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"shop-data/internal/models"
	"shop-data/internal/repository"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/spf13/cobra"
)

// shopdb smoke
var smokeCmd = &cobra.Command{
	Use:   "smoke",
	Short: "Exercise every repository against the configured database",
	Long: "smoke signs up a seller and a buyer, opens a shop, lists a product, " +
		"changes its stock and places an order. It writes real rows.",
	Args: cobra.NoArgs,
	RunE: withApp(func(cmd *cobra.Command, _ []string, a *app) error {
		return runSmoke(cmd.Context(), cmd.OutOrStdout(), a.store)
	}),
}

func runSmoke(ctx context.Context, out io.Writer, store *repository.Store) error {
	run := strings.ReplaceAll(uuid.NewString(), "-", "")[:8]
	step := func(format string, args ...any) {
		fmt.Fprintf(out, "==> "+format+"\n", args...)
	}

	step("signing up seller and buyer (run %s)", run)
	seller, err := store.Users.Create(ctx, smokeUser("seller", run))
	if err != nil {
		return fmt.Errorf("create seller user: %w", err)
	}
	buyer, err := store.Users.Create(ctx, smokeUser("buyer", run))
	if err != nil {
		return fmt.Errorf("create buyer user: %w", err)
	}

	if _, err := store.Users.Authenticate(ctx, buyer.Email, "smoke-password"); err != nil {
		return fmt.Errorf("authenticate buyer: %w", err)
	}

	step("registering seller %d", seller.UserID)
	if _, err := store.Sellers.Register(ctx, seller.UserID); err != nil {
		return fmt.Errorf("register seller: %w", err)
	}

	shop, err := store.Shops.Create(ctx, models.NewShop{
		OwnerID:     seller.UserID,
		Name:        "Smoke Shop " + run,
		Description: "created by shopdb smoke",
	})
	if err != nil {
		return fmt.Errorf("create shop: %w", err)
	}
	step("opened shop %d on %s", shop.ShopID, shop.Established.Format(time.DateOnly))

	product, err := store.Products.Create(ctx, models.NewProduct{
		ShopID:   shop.ShopID,
		Name:     "Smoke Tea " + run,
		Price:    decimal.RequireFromString("4.50"),
		Quantity: 5,
	})
	if err != nil {
		return fmt.Errorf("create product: %w", err)
	}

	if _, err := store.Products.SetQuantity(ctx, product.ProductID, 10); err != nil {
		return fmt.Errorf("set quantity: %w", err)
	}
	step("product %d stocked with 10", product.ProductID)

	order, err := store.Orders.Create(ctx, models.NewOrder{
		BuyerID:   buyer.UserID,
		ShopID:    shop.ShopID,
		ProductID: product.ProductID,
		Quantity:  3,
	})
	if err != nil {
		return fmt.Errorf("create order: %w", err)
	}
	step("order %d placed at %s each", order.OrderID, order.UnitPrice.StringFixed(2))

	_, err = store.Orders.Create(ctx, models.NewOrder{
		BuyerID:   buyer.UserID,
		ShopID:    shop.ShopID,
		ProductID: product.ProductID,
		Quantity:  100,
	})
	if !errors.Is(err, repository.ErrNotEnough) {
		return fmt.Errorf("oversized order: want %v, got %v", repository.ErrNotEnough, err)
	}

	info, err := store.Products.GetInfo(ctx, product.ProductID)
	if err != nil {
		return fmt.Errorf("get product: %w", err)
	}
	if info.Quantity != 7 {
		return fmt.Errorf("product %d quantity: want 7, got %d", product.ProductID, info.Quantity)
	}

	found, err := store.Products.Search(ctx, strings.ToUpper("smoke tea "+run))
	if err != nil {
		return fmt.Errorf("search products: %w", err)
	}
	if len(found) != 1 {
		return fmt.Errorf("search products: want 1 match, got %d", len(found))
	}

	orders, err := store.Orders.ListByBuyer(ctx, buyer.UserID)
	if err != nil {
		return fmt.Errorf("list orders: %w", err)
	}
	if len(orders) != 1 {
		return fmt.Errorf("list orders: want 1, got %d", len(orders))
	}
	step("buyer has %d order(s), total %s", len(orders), orders[0].Total.StringFixed(2))

	step("smoke passed")
	return nil
}

func smokeUser(role, run string) models.NewUser {
	return models.NewUser{
		Email:     fmt.Sprintf("%s-%s@smoke.example.com", role, run),
		FirstName: "Smoke",
		LastName:  strings.ToUpper(role[:1]) + role[1:],
		BirthDate: time.Date(1990, 1, 1, 0, 0, 0, 0, time.UTC),
		Password:  "smoke-password",
	}
}
