package main

import (
	"context"
	"fmt"
	"os"
	"strconv"
	"strings"

	"marketplace-be/internal/config"
	"marketplace-be/internal/db"
	"marketplace-be/internal/logger"
	"marketplace-be/internal/order"
	"marketplace-be/internal/product"
	"marketplace-be/internal/user"
	"marketplace-be/internal/utils"

	"github.com/shopspring/decimal"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

type userFinder interface {
	FindByEmail(ctx context.Context, email string) (*user.User, error)
}

// app carries the services one admin command needs.
type app struct {
	users    user.Service
	finder   userFinder
	products product.Service
	orders   order.Service
}

// opener builds an app and returns a close func for its resources.
type opener func() (*app, func(), error)

func openApp() (*app, func(), error) {
	cfg, err := config.LoadConfig()
	if err != nil {
		return nil, nil, err
	}
	if err := logger.Init(cfg.AppEnv); err != nil {
		return nil, nil, err
	}

	database, err := db.NewDatabase(cfg)
	if err != nil {
		return nil, nil, err
	}

	userRepo := user.NewRepository(database)
	a := &app{
		users:    user.NewService(userRepo),
		finder:   userRepo,
		products: product.NewService(product.NewRepository(database)),
		orders:   order.NewService(order.NewRepository(database), nil),
	}
	return a, func() { database.Close(); logger.Sync() }, nil
}

func main() {
	if err := newRootCmd(openApp).Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newRootCmd(open opener) *cobra.Command {
	root := &cobra.Command{
		Use:           "admin",
		Short:         "Seed users, products and orders",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	withApp := func(fn func(cmd *cobra.Command, a *app) error) func(*cobra.Command, []string) error {
		return func(cmd *cobra.Command, _ []string) error {
			a, closeFn, err := open()
			if err != nil {
				return err
			}
			defer closeFn()
			return fn(cmd, a)
		}
	}

	root.AddCommand(
		createUserCmd(withApp),
		addProductCmd(withApp),
		addOrderCmd(withApp),
	)
	return root
}

type runner func(fn func(cmd *cobra.Command, a *app) error) func(*cobra.Command, []string) error

func createUserCmd(withApp runner) *cobra.Command {
	var email, password, role string

	cmd := &cobra.Command{
		Use:   "create-user",
		Short: "Create a user with the given role",
		RunE: withApp(func(cmd *cobra.Command, a *app) error {
			u, err := a.users.CreateUser(cmd.Context(), email, password, user.Role(strings.ToUpper(role)))
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "created user %d (%s, %s)\n", u.ID, u.Email, u.Role)
			return nil
		}),
	}
	cmd.Flags().StringVar(&email, "email", "", "user email")
	cmd.Flags().StringVar(&password, "password", "", "user password")
	cmd.Flags().StringVar(&role, "role", string(user.RoleUser), "SUPERADMIN, ADMIN, MANAGER or USER")
	_ = cmd.MarkFlagRequired("email")
	_ = cmd.MarkFlagRequired("password")
	return cmd
}

func addProductCmd(withApp runner) *cobra.Command {
	var name, price string
	var outOfStock bool

	cmd := &cobra.Command{
		Use:   "add-product",
		Short: "Create a catalog product",
		RunE: withApp(func(cmd *cobra.Command, a *app) error {
			amount, err := decimal.NewFromString(price)
			if err != nil {
				return fmt.Errorf("invalid price %q", price)
			}
			inStock := !outOfStock
			p, err := a.products.Create(cmd.Context(), product.CreateInput{Name: name, Price: amount, InStock: &inStock})
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "created product %d (%s, %s)\n", p.ID, p.Name, p.Price.StringFixed(2))
			return nil
		}),
	}
	cmd.Flags().StringVar(&name, "name", "", "product name")
	cmd.Flags().StringVar(&price, "price", "", "unit price, e.g. 12.50")
	cmd.Flags().BoolVar(&outOfStock, "out-of-stock", false, "mark the product unavailable")
	_ = cmd.MarkFlagRequired("name")
	_ = cmd.MarkFlagRequired("price")
	return cmd
}

func addOrderCmd(withApp runner) *cobra.Command {
	var email, address string
	var rawItems []string

	cmd := &cobra.Command{
		Use:   "add-order",
		Short: "Create an order on behalf of a user",
		RunE: withApp(func(cmd *cobra.Command, a *app) error {
			items, err := parseItems(rawItems)
			if err != nil {
				return err
			}

			ctx := cmd.Context()
			u, err := a.finder.FindByEmail(ctx, utils.NormalizeEmail(email))
			if err != nil {
				return err
			}

			o, err := a.orders.CreateOrder(ctx, u.ID, order.CreateInput{DeliveryAddress: address, Items: items})
			if err != nil {
				return err
			}
			logger.FromCtx(ctx).Info("order seeded", zap.Int64("order_id", o.ID), zap.Int64("user_id", u.ID))
			fmt.Fprintf(cmd.OutOrStdout(), "created order %d for %s, total %s\n", o.ID, u.Email, o.TotalPrice.StringFixed(2))
			return nil
		}),
	}
	cmd.Flags().StringVar(&email, "user-email", "", "owner email")
	cmd.Flags().StringVar(&address, "address", "", "delivery address")
	cmd.Flags().StringArrayVar(&rawItems, "item", nil, "product_id:quantity, repeatable")
	_ = cmd.MarkFlagRequired("user-email")
	_ = cmd.MarkFlagRequired("address")
	_ = cmd.MarkFlagRequired("item")
	return cmd
}

// parseItems reads "product_id:quantity" pairs.
func parseItems(raw []string) ([]order.ItemInput, error) {
	items := make([]order.ItemInput, 0, len(raw))
	for _, s := range raw {
		idPart, qtyPart, ok := strings.Cut(s, ":")
		if !ok {
			return nil, fmt.Errorf("invalid item %q: want product_id:quantity", s)
		}
		id, ok := utils.ParseID(idPart)
		if !ok {
			return nil, fmt.Errorf("invalid product id in %q", s)
		}
		qty, err := strconv.Atoi(strings.TrimSpace(qtyPart))
		if err != nil {
			return nil, fmt.Errorf("invalid quantity in %q", s)
		}
		items = append(items, order.ItemInput{ProductID: id, Quantity: qty})
	}
	return items, nil
}
