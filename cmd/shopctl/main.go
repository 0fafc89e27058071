// Command shopctl is a terminal storefront client: browse the
// catalogue, manage the cart, check out and pay, all against the
// storefront REST API.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"text/tabwriter"

	"shopfront/internal/api"
	"shopfront/internal/cart"
	"shopfront/internal/catalog"
	"shopfront/internal/config"
	"shopfront/internal/fetch"
	"shopfront/internal/model"
	"shopfront/internal/order"
	"shopfront/internal/session"
	"shopfront/internal/storage"
)

const usage = `Usage: shopctl <command> [flags]

Commands:
  register     create an account
  login        log in and store the session
  logout       clear the stored session
  whoami       show the current session
  products     browse the catalogue
  product      show one product
  featured     show featured products
  categories   list categories
  cart         show the cart
  add          add a product to the cart
  update       change a cart item quantity
  remove       remove a cart item
  clear        empty the cart
  addresses    list shipping addresses
  checkout     create an order from the cart
  orders       list orders
  order        show one order
  pay          pay a pending order
  cancel       cancel a pending order
`

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// app bundles the wired client stack for command handlers.
type app struct {
	session *session.Store
	cart    *cart.Store
	catalog *catalog.Client
	orders  *order.Client
	api     *api.Client
}

func run() error {
	if len(os.Args) < 2 {
		fmt.Fprint(os.Stderr, usage)
		return fmt.Errorf("no command given")
	}

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}

	logger := config.NewLogger(cfg.Logger)

	store := storage.NewFileStore(cfg.State.File, logger)
	if err := store.Load(); err != nil {
		return fmt.Errorf("failed to load client state: %w", err)
	}

	notifier := api.NotifierFunc(func(message string) {
		fmt.Fprintf(os.Stderr, "! %s\n", message)
	})

	apiClient := api.NewClient(cfg.API, store, notifier, logger)

	a := &app{
		session: session.New(apiClient, store, logger),
		cart:    cart.New(apiClient, store, logger),
		catalog: catalog.New(apiClient, logger),
		orders:  order.New(apiClient, logger),
		api:     apiClient,
	}
	a.session.Rehydrate()
	a.cart.Rehydrate()

	ctx := context.Background()
	command, args := os.Args[1], os.Args[2:]

	switch command {
	case "register":
		return a.register(ctx, args)
	case "login":
		return a.login(ctx, args)
	case "logout":
		a.session.Logout()
		a.cart.Invalidate()
		fmt.Println("Logged out.")
		return nil
	case "whoami":
		return a.whoami()
	case "products":
		return a.products(ctx, args)
	case "product":
		return a.product(ctx, args)
	case "featured":
		return a.featured(ctx)
	case "categories":
		return a.categories(ctx)
	case "cart":
		return a.showCart(ctx)
	case "add":
		return a.addToCart(ctx, args)
	case "update":
		return a.updateCartItem(ctx, args)
	case "remove":
		return a.removeCartItem(ctx, args)
	case "clear":
		return a.clearCart(ctx)
	case "addresses":
		return a.addresses(ctx)
	case "checkout":
		return a.checkout(ctx, args)
	case "orders":
		return a.listOrders(ctx)
	case "order":
		return a.showOrder(ctx, args)
	case "pay":
		return a.pay(ctx, args)
	case "cancel":
		return a.cancel(ctx, args)
	default:
		fmt.Fprint(os.Stderr, usage)
		return fmt.Errorf("unknown command: %s", command)
	}
}

func (a *app) register(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("register", flag.ExitOnError)
	username := fs.String("u", "", "username")
	email := fs.String("e", "", "email")
	password := fs.String("p", "", "password")
	nickname := fs.String("nickname", "", "display name")
	phone := fs.String("phone", "", "phone number")
	fs.Parse(args)

	if *username == "" || *email == "" || *password == "" {
		return fmt.Errorf("username, email and password are required")
	}

	err := a.session.Register(ctx, model.RegisterRequest{
		Username:        *username,
		Email:           *email,
		Password:        *password,
		PasswordConfirm: *password,
		Nickname:        *nickname,
		Phone:           *phone,
	})
	if err != nil {
		return err
	}

	fmt.Println("Registered. Log in with: shopctl login -u", *username)
	return nil
}

func (a *app) login(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("login", flag.ExitOnError)
	username := fs.String("u", "", "username")
	password := fs.String("p", "", "password")
	fs.Parse(args)

	if *username == "" || *password == "" {
		return fmt.Errorf("username and password are required")
	}

	if err := a.session.Login(ctx, *username, *password); err != nil {
		return err
	}

	if err := a.cart.Fetch(ctx); err != nil {
		// Login succeeded; an empty mirror until the next fetch is fine.
		fmt.Fprintln(os.Stderr, "warning: could not fetch cart:", err)
	}

	user := a.session.User()
	fmt.Printf("Logged in as %s (%s).\n", user.Username, user.Email)
	return nil
}

func (a *app) whoami() error {
	if !a.session.IsAuthenticated() {
		fmt.Println("Not logged in.")
		return nil
	}

	user := a.session.User()
	fmt.Printf("Username: %s\nEmail:    %s\n", user.Username, user.Email)
	if user.Nickname != "" {
		fmt.Printf("Nickname: %s\n", user.Nickname)
	}
	if expiry, ok := a.session.AccessTokenExpiry(); ok {
		fmt.Printf("Token expires: %s\n", expiry.Local())
	}
	return nil
}

// products uses the generic query primitive the way a listing page
// would: one activation, then endpoint changes for page navigation.
func (a *app) products(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("products", flag.ExitOnError)
	search := fs.String("search", "", "search term")
	category := fs.String("category", "", "category id")
	page := fs.Int("page", 1, "page number")
	fs.Parse(args)

	params := catalog.ListParams{Search: *search, Category: *category, Page: *page}

	query := fetch.NewQuery[model.Page[model.Product]](a.api, "/products/"+params.Query(), true)
	if err := query.Start(ctx); err != nil {
		return err
	}

	result, ok := query.Data()
	if !ok {
		return fmt.Errorf("no product data received")
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tNAME\tPRICE\tSTOCK")
	for _, p := range result.Results {
		fmt.Fprintf(w, "%s\t%s\t%.2f\t%d\n", p.ID, p.Name, p.Price, p.Stock)
	}
	w.Flush()
	fmt.Printf("%d products total\n", result.Count)
	return nil
}

func (a *app) product(ctx context.Context, args []string) error {
	if len(args) < 1 {
		return fmt.Errorf("product id is required")
	}

	p, err := a.catalog.Product(ctx, args[0])
	if err != nil {
		return err
	}

	fmt.Printf("%s\n%s\nPrice: %.2f  Stock: %d  Sales: %d\n", p.Name, p.Description, p.Price, p.Stock, p.Sales)
	return nil
}

func (a *app) featured(ctx context.Context) error {
	products, err := a.catalog.Featured(ctx)
	if err != nil {
		return err
	}

	for _, p := range products {
		fmt.Printf("%s\t%s\t%.2f\n", p.ID, p.Name, p.Price)
	}
	return nil
}

func (a *app) categories(ctx context.Context) error {
	categories, err := a.catalog.Categories(ctx)
	if err != nil {
		return err
	}

	for _, c := range categories {
		fmt.Printf("%s\t%s\t(%d products)\n", c.ID, c.Name, c.ProductCount)
	}
	return nil
}

func (a *app) showCart(ctx context.Context) error {
	if err := a.requireAuth(); err != nil {
		return err
	}

	if err := a.cart.Fetch(ctx); err != nil {
		return err
	}

	items := a.cart.Items()
	if len(items) == 0 {
		fmt.Println("Cart is empty.")
		return nil
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "ITEM\tPRODUCT\tQTY\tSUBTOTAL")
	for _, item := range items {
		fmt.Fprintf(w, "%s\t%s\t%d\t%.2f\n", item.ID, item.Product.Name, item.Quantity, item.Subtotal)
	}
	w.Flush()

	total := a.cart.TotalAmount()
	fee := order.ShippingFee(total)
	fmt.Printf("Items: %d  Total: %.2f  Shipping: %.2f  Payable: %.2f\n",
		a.cart.TotalItems(), total, fee, order.PayableAmount(total, 0))
	return nil
}

func (a *app) addToCart(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("add", flag.ExitOnError)
	quantity := fs.Int("q", 1, "quantity")
	fs.Parse(args)

	if fs.NArg() < 1 {
		return fmt.Errorf("product id is required")
	}
	if err := a.requireAuth(); err != nil {
		return err
	}

	if err := a.cart.Add(ctx, fs.Arg(0), *quantity); err != nil {
		return err
	}

	fmt.Printf("Added. Cart now holds %d items (%.2f).\n", a.cart.TotalItems(), a.cart.TotalAmount())
	return nil
}

func (a *app) updateCartItem(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("update", flag.ExitOnError)
	quantity := fs.Int("q", 1, "new quantity")
	fs.Parse(args)

	if fs.NArg() < 1 {
		return fmt.Errorf("cart item id is required")
	}
	if err := a.requireAuth(); err != nil {
		return err
	}

	if err := a.cart.UpdateItem(ctx, fs.Arg(0), *quantity); err != nil {
		return err
	}

	fmt.Printf("Updated. Cart now holds %d items (%.2f).\n", a.cart.TotalItems(), a.cart.TotalAmount())
	return nil
}

func (a *app) removeCartItem(ctx context.Context, args []string) error {
	if len(args) < 1 {
		return fmt.Errorf("cart item id is required")
	}
	if err := a.requireAuth(); err != nil {
		return err
	}

	if err := a.cart.Remove(ctx, args[0]); err != nil {
		return err
	}

	fmt.Println("Removed.")
	return nil
}

func (a *app) clearCart(ctx context.Context) error {
	if err := a.requireAuth(); err != nil {
		return err
	}

	if err := a.cart.Clear(ctx); err != nil {
		return err
	}

	fmt.Println("Cart cleared.")
	return nil
}

func (a *app) addresses(ctx context.Context) error {
	if err := a.requireAuth(); err != nil {
		return err
	}

	addresses, err := a.orders.Addresses(ctx)
	if err != nil {
		return err
	}

	for _, addr := range addresses {
		marker := " "
		if addr.IsDefault {
			marker = "*"
		}
		fmt.Printf("%s %s\t%s, %s %s %s %s\n", marker, addr.ID,
			addr.ReceiverName, addr.Province, addr.City, addr.District, addr.Detail)
	}
	return nil
}

func (a *app) checkout(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("checkout", flag.ExitOnError)
	addressID := fs.String("address", "", "shipping address id")
	remarks := fs.String("remarks", "", "order remarks")
	fs.Parse(args)

	if err := a.requireAuth(); err != nil {
		return err
	}

	total := a.cart.TotalAmount()
	fmt.Printf("Cart total %.2f, shipping %.2f, payable %.2f\n",
		total, order.ShippingFee(total), order.PayableAmount(total, 0))

	created, err := a.orders.Create(ctx, *addressID, *remarks)
	if err != nil {
		return err
	}

	// The server consumed the cart; resync the mirror.
	if err := a.cart.Fetch(ctx); err != nil {
		fmt.Fprintln(os.Stderr, "warning: could not refresh cart:", err)
	}

	fmt.Printf("Order %s created, payable %.2f. Pay with: shopctl pay %s\n",
		created.OrderNo, created.ActualAmount, created.ID)
	return nil
}

func (a *app) listOrders(ctx context.Context) error {
	if err := a.requireAuth(); err != nil {
		return err
	}

	orders, err := a.orders.List(ctx)
	if err != nil {
		return err
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "ORDER\tNO\tSTATUS\tAMOUNT\tCREATED")
	for _, o := range orders {
		fmt.Fprintf(w, "%s\t%s\t%s\t%.2f\t%s\n",
			o.ID, o.OrderNo, o.Status, o.ActualAmount, o.CreatedAt.Local().Format("2006-01-02 15:04"))
	}
	return w.Flush()
}

func (a *app) showOrder(ctx context.Context, args []string) error {
	if len(args) < 1 {
		return fmt.Errorf("order id is required")
	}
	if err := a.requireAuth(); err != nil {
		return err
	}

	o, err := a.orders.Get(ctx, args[0])
	if err != nil {
		return err
	}

	fmt.Printf("Order %s  status=%s\n", o.OrderNo, o.Status)
	for _, item := range o.Items {
		fmt.Printf("  %s x%d  %.2f\n", item.ProductName, item.Quantity, item.Subtotal)
	}
	fmt.Printf("Total %.2f  Discount %.2f  Shipping %.2f  Paid %.2f\n",
		o.TotalAmount, o.DiscountAmount, o.ShippingFee, o.ActualAmount)
	return nil
}

func (a *app) pay(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("pay", flag.ExitOnError)
	method := fs.String("method", "alipay", "payment method")
	fs.Parse(args)

	if fs.NArg() < 1 {
		return fmt.Errorf("order id is required")
	}
	if err := a.requireAuth(); err != nil {
		return err
	}

	receipt, err := a.orders.Pay(ctx, fs.Arg(0), *method)
	if err != nil {
		return err
	}

	fmt.Printf("Paid order %s: %.2f\n", receipt.OrderNo, receipt.Amount)
	return nil
}

func (a *app) cancel(ctx context.Context, args []string) error {
	if len(args) < 1 {
		return fmt.Errorf("order id is required")
	}
	if err := a.requireAuth(); err != nil {
		return err
	}

	o, err := a.orders.Cancel(ctx, args[0])
	if err != nil {
		return err
	}

	fmt.Printf("Order %s is now %s.\n", o.OrderNo, o.Status)
	return nil
}

func (a *app) requireAuth() error {
	if !a.session.IsAuthenticated() {
		return model.ErrNotAuthenticated
	}
	return nil
}
