package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"

	"storefront-client/internal/app"
	"storefront-client/internal/cart"
	"storefront-client/internal/domain"
	"storefront-client/internal/importer"
	"storefront-client/internal/seed"
)

var errNotLoggedIn = errors.New("not logged in; run storefront login first")

func newFlags(name string) *flag.FlagSet {
	return flag.NewFlagSet(name, flag.ContinueOnError)
}

func requireLogin(a *app.App) error {
	if !a.Session.Snapshot().Authenticated() {
		return errNotLoggedIn
	}
	return nil
}

type cartContainer interface {
	Snapshot() cart.State
	ClearError()
}

// mutateCart runs op and reports its outcome. Update, remove and clear record
// failures on the container instead of returning them, so an error left by an
// earlier operation (the startup fetch included) is cleared first.
func mutateCart(w io.Writer, c cartContainer, op func()) error {
	c.ClearError()
	op()
	return showCart(w, c)
}

func showCart(w io.Writer, c cartContainer) error {
	st := c.Snapshot()
	if st.Err != "" {
		return errors.New(st.Err)
	}
	printCart(w, st.Cart)
	return nil
}

func runLogin(ctx context.Context, a *app.App, args []string) error {
	fs := newFlags("login")
	email := fs.String("email", "", "account email")
	password := fs.String("password", os.Getenv("STOREFRONT_PASSWORD"), "account password")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *email == "" || *password == "" {
		return errors.New("-email and -password are required")
	}
	if err := a.Session.Login(ctx, domain.LoginRequest{Email: *email, Password: *password}); err != nil {
		return errors.New(a.Session.Snapshot().Err)
	}
	st := a.Session.Snapshot()
	fmt.Printf("Logged in as %s (%s)\n", st.User.Username, st.User.Email)
	return nil
}

func runRegister(ctx context.Context, a *app.App, args []string) error {
	fs := newFlags("register")
	username := fs.String("username", "", "username")
	email := fs.String("email", "", "account email")
	password := fs.String("password", os.Getenv("STOREFRONT_PASSWORD"), "account password")
	fullName := fs.String("full-name", "", "full name")
	if err := fs.Parse(args); err != nil {
		return err
	}
	user, err := a.Session.Register(ctx, domain.RegisterRequest{
		Username: *username,
		Email:    *email,
		Password: *password,
		FullName: *fullName,
	})
	if err != nil {
		return errors.New(a.Session.Snapshot().Err)
	}
	fmt.Printf("Registered %s (%s). Log in to continue.\n", user.Username, user.Email)
	return nil
}

func runLogout(ctx context.Context, a *app.App, _ []string) error {
	if err := a.Session.Logout(ctx); err != nil {
		return err
	}
	fmt.Println("Logged out")
	return nil
}

func runWhoami(_ context.Context, a *app.App, _ []string) error {
	if err := requireLogin(a); err != nil {
		return err
	}
	return printJSON(os.Stdout, a.Session.Snapshot().User)
}

func runProducts(ctx context.Context, a *app.App, args []string) error {
	fs := newFlags("products")
	var q domain.ProductQuery
	fs.StringVar(&q.Category, "category", "", "filter by category")
	fs.StringVar(&q.Search, "search", "", "search name and description")
	fs.IntVar(&q.Skip, "skip", 0, "products to skip")
	fs.IntVar(&q.Limit, "limit", 0, "page size (1-1000)")
	if err := fs.Parse(args); err != nil {
		return err
	}
	products, err := a.Client.ListProducts(ctx, q)
	if err != nil {
		return err
	}
	printProducts(os.Stdout, products)
	return nil
}

func runProduct(ctx context.Context, a *app.App, args []string) error {
	if len(args) != 1 {
		return errors.New("usage: product ID")
	}
	p, err := a.Client.GetProduct(ctx, args[0])
	if err != nil {
		return err
	}
	return printJSON(os.Stdout, p)
}

func runCategories(ctx context.Context, a *app.App, _ []string) error {
	categories, err := a.Client.ListCategories(ctx)
	if err != nil {
		return err
	}
	for _, c := range categories {
		fmt.Println(c)
	}
	return nil
}

func runCart(_ context.Context, a *app.App, _ []string) error {
	if err := requireLogin(a); err != nil {
		return err
	}
	return showCart(os.Stdout, a.Cart)
}

func runCartAdd(ctx context.Context, a *app.App, args []string) error {
	fs := newFlags("cart-add")
	product := fs.String("product", "", "product id")
	quantity := fs.Int("quantity", 1, "quantity to add")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if err := requireLogin(a); err != nil {
		return err
	}
	if err := a.Cart.AddItem(ctx, *product, *quantity); err != nil {
		return errors.New(a.Cart.Snapshot().Err)
	}
	return showCart(os.Stdout, a.Cart)
}

func runCartUpdate(ctx context.Context, a *app.App, args []string) error {
	fs := newFlags("cart-update")
	product := fs.String("product", "", "product id")
	quantity := fs.Int("quantity", 1, "new quantity")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if err := requireLogin(a); err != nil {
		return err
	}
	// The container forwards any quantity; the lower bound is enforced here.
	if *quantity < 1 {
		*quantity = 1
	}
	return mutateCart(os.Stdout, a.Cart, func() { a.Cart.UpdateItem(ctx, *product, *quantity) })
}

func runCartRemove(ctx context.Context, a *app.App, args []string) error {
	fs := newFlags("cart-remove")
	product := fs.String("product", "", "product id")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if err := requireLogin(a); err != nil {
		return err
	}
	return mutateCart(os.Stdout, a.Cart, func() { a.Cart.RemoveItem(ctx, *product) })
}

func runCartClear(ctx context.Context, a *app.App, _ []string) error {
	if err := requireLogin(a); err != nil {
		return err
	}
	return mutateCart(os.Stdout, a.Cart, func() { a.Cart.Clear(ctx) })
}

func runCheckout(ctx context.Context, a *app.App, args []string) error {
	fs := newFlags("checkout")
	var addr domain.ShippingAddress
	fs.StringVar(&addr.FullName, "name", "", "recipient full name")
	fs.StringVar(&addr.Address, "address", "", "street address")
	fs.StringVar(&addr.City, "city", "", "city")
	fs.StringVar(&addr.PostalCode, "postal", "", "postal code")
	fs.StringVar(&addr.Country, "country", "", "country")
	fs.StringVar(&addr.PhoneNo, "phone", "", "phone number")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if err := requireLogin(a); err != nil {
		return err
	}
	preview, err := a.Client.CheckoutPreview(ctx)
	if err != nil {
		return err
	}
	fmt.Printf("%s: %d line(s), %s\n", preview.Message, len(preview.CartItems), money(preview.TotalAmount))

	order, err := a.Checkout.PlaceOrder(ctx, addr)
	if err != nil {
		return err
	}
	fmt.Printf("Order %s placed, total %s\n", order.ID, money(order.TotalPrice))
	return nil
}

func runOrders(ctx context.Context, a *app.App, _ []string) error {
	if err := requireLogin(a); err != nil {
		return err
	}
	orders, err := a.Client.ListOrders(ctx)
	if err != nil {
		return err
	}
	printOrders(os.Stdout, orders)
	return nil
}

func runOrder(ctx context.Context, a *app.App, args []string) error {
	if len(args) != 1 {
		return errors.New("usage: order ID")
	}
	if err := requireLogin(a); err != nil {
		return err
	}
	o, err := a.Client.GetOrder(ctx, args[0])
	if err != nil {
		return err
	}
	return printJSON(os.Stdout, o)
}

func runOrderStatus(ctx context.Context, a *app.App, args []string) error {
	fs := newFlags("order-status")
	id := fs.String("id", "", "order id")
	status := fs.String("status", "", "pending, processing, shipped, delivered or cancelled")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if err := requireLogin(a); err != nil {
		return err
	}
	msg, err := a.Client.UpdateOrderStatus(ctx, *id, domain.OrderStatus(*status))
	if err != nil {
		return err
	}
	fmt.Println(msg.Message)
	return nil
}

func runOrderPaid(ctx context.Context, a *app.App, args []string) error {
	fs := newFlags("order-paid")
	id := fs.String("id", "", "order id")
	paid := fs.Bool("paid", true, "payment state")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if err := requireLogin(a); err != nil {
		return err
	}
	msg, err := a.Client.UpdateOrderPayment(ctx, *id, *paid)
	if err != nil {
		return err
	}
	fmt.Println(msg.Message)
	return nil
}

func runImport(ctx context.Context, a *app.App, args []string) error {
	fs := newFlags("import")
	path := fs.String("file", "", "product CSV file")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *path == "" {
		return errors.New("-file is required")
	}
	if err := requireLogin(a); err != nil {
		return err
	}
	f, err := os.Open(*path)
	if err != nil {
		return fmt.Errorf("open file: %w", err)
	}
	defer f.Close()

	count, err := importer.NewCSVImporter(f, a.Client).Run(ctx)
	if err != nil {
		return fmt.Errorf("import failed after %d products: %w", count, err)
	}
	fmt.Printf("Imported %d products\n", count)
	return nil
}

func runSeed(ctx context.Context, a *app.App, args []string) error {
	fs := newFlags("seed")
	clearAll := fs.Bool("clear", false, "delete the catalogue instead")
	direct := fs.Bool("direct", false, "create each product through the admin endpoint")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *clearAll {
		res, err := a.Client.ClearProducts(ctx)
		if err != nil {
			return err
		}
		fmt.Println(res.Message)
		return nil
	}
	if *direct {
		if err := requireLogin(a); err != nil {
			return err
		}
		n, err := seed.Apply(ctx, a.Client)
		if err != nil {
			return err
		}
		fmt.Printf("Created %d products\n", n)
		return nil
	}
	res, err := a.Client.SeedProducts(ctx)
	if err != nil {
		return err
	}
	fmt.Println(res.Message)
	count, err := a.Client.ProductCount(ctx)
	if err != nil {
		return err
	}
	fmt.Printf("Catalogue now holds %d products\n", count)
	return nil
}
