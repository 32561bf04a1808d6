package main

import (
	"encoding/json"
	"fmt"
	"io"
	"strconv"

	"github.com/spf13/cobra"
)

var usersCmd = &cobra.Command{
	Use:   "users",
	Short: "Read users",
}

var shopsCmd = &cobra.Command{
	Use:   "shops",
	Short: "Read shops",
}

var productsCmd = &cobra.Command{
	Use:   "products",
	Short: "Read products",
}

var ordersCmd = &cobra.Command{
	Use:   "orders",
	Short: "Read orders",
}

func init() {
	usersCmd.AddCommand(usersGetCmd)
	shopsCmd.AddCommand(shopsSearchCmd)
	productsCmd.AddCommand(productsSearchCmd)
	ordersCmd.AddCommand(ordersByBuyerCmd)
}

// shopdb users get <email>
var usersGetCmd = &cobra.Command{
	Use:   "get <email>",
	Short: "Show the user with the given email",
	Args:  cobra.ExactArgs(1),
	RunE: withApp(func(cmd *cobra.Command, args []string, a *app) error {
		user, err := a.store.Users.GetByEmail(cmd.Context(), args[0])
		if err != nil {
			return err
		}
		info, err := a.store.Users.GetInfo(cmd.Context(), user.UserID)
		if err != nil {
			return err
		}
		return printJSON(cmd.OutOrStdout(), info)
	}),
}

// shopdb shops search [name]
var shopsSearchCmd = &cobra.Command{
	Use:   "search [name]",
	Short: "List shops whose name contains the text, ignoring case",
	Args:  cobra.MaximumNArgs(1),
	RunE: withApp(func(cmd *cobra.Command, args []string, a *app) error {
		shops, err := a.store.Shops.Search(cmd.Context(), firstArg(args))
		if err != nil {
			return err
		}
		return printJSON(cmd.OutOrStdout(), shops)
	}),
}

// shopdb products search [name]
var productsSearchCmd = &cobra.Command{
	Use:   "search [name]",
	Short: "List products whose name contains the text, ignoring case",
	Args:  cobra.MaximumNArgs(1),
	RunE: withApp(func(cmd *cobra.Command, args []string, a *app) error {
		products, err := a.store.Products.Search(cmd.Context(), firstArg(args))
		if err != nil {
			return err
		}
		return printJSON(cmd.OutOrStdout(), products)
	}),
}

// shopdb orders by-buyer <user-id>
var ordersByBuyerCmd = &cobra.Command{
	Use:   "by-buyer <user-id>",
	Short: "List the orders placed by a user",
	Args:  cobra.ExactArgs(1),
	RunE: withApp(func(cmd *cobra.Command, args []string, a *app) error {
		buyerID, err := strconv.ParseInt(args[0], 10, 64)
		if err != nil {
			return fmt.Errorf("invalid user id %q: %w", args[0], err)
		}
		orders, err := a.store.Orders.ListByBuyer(cmd.Context(), buyerID)
		if err != nil {
			return err
		}
		return printJSON(cmd.OutOrStdout(), orders)
	}),
}

func firstArg(args []string) string {
	if len(args) == 0 {
		return ""
	}
	return args[0]
}

func printJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
