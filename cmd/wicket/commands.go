package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"sort"
	"strings"
	"text/tabwriter"

	"github.com/spf13/pflag"

	"github.com/dukerupert/wicket/internal/domain"
	"github.com/dukerupert/wicket/internal/service"
	"github.com/dukerupert/wicket/internal/worker"
)

// command is one wicket subcommand.
type command struct {
	usage   string
	summary string
	run     func(ctx context.Context, a *app, args []string) error
}

var commands map[string]command

func init() {
	commands = map[string]command{
		"products":    {"products", "List products with price and stock", runProducts},
		"add":         {"add <product-id>", "Add one unit to the cart", runAdd},
		"inc":         {"inc <product-id>", "Increase a cart line by one", runInc},
		"dec":         {"dec <product-id>", "Decrease a cart line by one", runDec},
		"remove":      {"remove <product-id>", "Remove a line from the cart", runRemove},
		"clear":       {"clear", "Empty the cart", runClear},
		"cart":        {"cart", "Show the cart", runCart},
		"addresses":   {"addresses", "List saved delivery addresses", runAddresses},
		"address-add": {"address-add [flags]", "Save a delivery address", runAddressAdd},
		"checkout":    {"checkout [--address id] [--payment cod|online]", "Place an order from the cart", runCheckout},
		"poll":        {"poll <reference>", "Wait for an online payment to be confirmed", runPoll},
		"orders":      {"orders", "Show order history", runOrders},
		"cancel":      {"cancel <order-id> --reason R [--note text]", "Cancel an order", runCancel},
		"login":       {"login --email E --password P", "Sign in", runLogin},
		"logout":      {"logout", "Sign out (the cart is kept)", runLogout},
		"whoami":      {"whoami", "Show the signed-in user", runWhoami},
	}
}

func usage(w io.Writer) {
	fmt.Fprintln(w, "Usage: wicket <command> [flags] [args]")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Commands:")

	names := make([]string, 0, len(commands))
	for name := range commands {
		names = append(names, name)
	}
	sort.Strings(names)

	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	for _, name := range names {
		fmt.Fprintf(tw, "  %s\t%s\n", commands[name].usage, commands[name].summary)
	}
	_ = tw.Flush()
}

func newFlagSet(name string) *pflag.FlagSet {
	fs := pflag.NewFlagSet(name, pflag.ContinueOnError)
	fs.SetOutput(os.Stderr)
	return fs
}

func oneArg(name string, args []string) (string, error) {
	if len(args) != 1 || strings.TrimSpace(args[0]) == "" {
		return "", fmt.Errorf("usage: wicket %s", commands[name].usage)
	}
	return strings.TrimSpace(args[0]), nil
}

// ============================================================================
// Catalog and cart
// ============================================================================

func runProducts(ctx context.Context, a *app, args []string) error {
	products, err := a.client.ListProducts(ctx)
	if err != nil {
		return err
	}

	tw := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tTITLE\tPRICE\tSTOCK")
	for _, p := range products {
		stock := fmt.Sprint(p.Stock)
		if !p.InStock() {
			stock = "out of stock"
		}
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\n", p.ID, p.Title, domain.FormatPrice(p.Price, a.cfg.Delivery.Currency), stock)
	}
	return tw.Flush()
}

func runAdd(ctx context.Context, a *app, args []string) error {
	id, err := oneArg("add", args)
	if err != nil {
		return err
	}
	state, err := a.carts.AddToCart(ctx, id)
	if err != nil {
		return err
	}
	return printCart(ctx, a, state)
}

func runInc(ctx context.Context, a *app, args []string) error {
	id, err := oneArg("inc", args)
	if err != nil {
		return err
	}
	state, err := a.carts.IncreaseQty(ctx, id)
	if err != nil {
		return err
	}
	return printCart(ctx, a, state)
}

func runDec(ctx context.Context, a *app, args []string) error {
	id, err := oneArg("dec", args)
	if err != nil {
		return err
	}
	return printCart(ctx, a, a.carts.DecreaseQty(id))
}

func runRemove(ctx context.Context, a *app, args []string) error {
	id, err := oneArg("remove", args)
	if err != nil {
		return err
	}
	return printCart(ctx, a, a.carts.RemoveFromCart(id))
}

func runClear(ctx context.Context, a *app, args []string) error {
	return printCart(ctx, a, a.carts.ClearCart())
}

func runCart(ctx context.Context, a *app, args []string) error {
	return printCart(ctx, a, a.carts.Cart())
}

func printCart(ctx context.Context, a *app, state domain.CartState) error {
	if state.IsEmpty() {
		fmt.Println("Your cart is empty")
		return nil
	}

	currency := a.cfg.Delivery.Currency
	tw := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tTITLE\tQTY\tPRICE\tTOTAL")
	for _, it := range state.Items {
		fmt.Fprintf(tw, "%s\t%s\t%d\t%s\t%s\n",
			it.ProductID, it.Title, it.Quantity,
			domain.FormatPrice(it.Price, currency),
			domain.FormatPrice(it.LineTotal(), currency),
		)
	}
	if err := tw.Flush(); err != nil {
		return err
	}

	totals, err := a.checkout().Totals(ctx)
	if err != nil {
		return err
	}
	printTotals(totals, currency)
	return nil
}

func printTotals(t domain.Totals, currency string) {
	delivery := domain.FormatPrice(t.DeliveryCharge, currency)
	if t.DeliveryCharge == 0 {
		delivery = "FREE"
	}
	fmt.Printf("Subtotal: %s\nDelivery: %s\nTotal:    %s\n",
		domain.FormatPrice(t.Subtotal, currency), delivery, domain.FormatPrice(t.TotalAmount, currency))
}

// ============================================================================
// Addresses
// ============================================================================

func runAddresses(ctx context.Context, a *app, args []string) error {
	addrs, err := a.addresses.List(ctx)
	if err != nil {
		return err
	}
	if len(addrs) == 0 {
		fmt.Println("No saved addresses")
		return nil
	}
	printAddresses(addrs, "")
	return nil
}

func printAddresses(addrs []domain.Address, selected string) {
	tw := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	for _, addr := range addrs {
		mark := " "
		if addr.ID == selected {
			mark = "*"
		}
		def := ""
		if addr.IsDefault {
			def = "(default)"
		}
		fmt.Fprintf(tw, "%s %s\t%s\t%s\n", mark, addr.ID, addr.OneLine(), def)
	}
	_ = tw.Flush()
}

func runAddressAdd(ctx context.Context, a *app, args []string) error {
	fs := newFlagSet("address-add")
	var addr domain.Address
	fs.StringVar(&addr.FullName, "name", "", "full name")
	fs.StringVar(&addr.Phone, "phone", "", "10-digit mobile number")
	fs.StringVar(&addr.Street, "street", "", "street address")
	fs.StringVar(&addr.City, "city", "", "city")
	fs.StringVar(&addr.State, "state", "", "state")
	fs.StringVar(&addr.Pincode, "pincode", "", "6-digit pincode")
	fs.StringVar(&addr.Country, "country", "", "country (default India)")
	fs.BoolVar(&addr.IsDefault, "default", false, "make this the default address")
	if err := fs.Parse(args); err != nil {
		return err
	}

	created, err := a.addresses.Create(ctx, addr)
	if err != nil {
		var ve *domain.ValidationError
		if errors.As(err, &ve) {
			for field, msg := range ve.Fields {
				fmt.Fprintf(os.Stderr, "  --%s: %s\n", flagFor(field), msg)
			}
		}
		return err
	}
	fmt.Printf("Saved %s: %s\n", created.ID, created.OneLine())
	return nil
}

func flagFor(field string) string {
	if field == "fullName" {
		return "name"
	}
	return field
}

// ============================================================================
// Checkout and payment
// ============================================================================

func runCheckout(ctx context.Context, a *app, args []string) error {
	fs := newFlagSet("checkout")
	addressID := fs.String("address", "", "address ID (defaults to the default address)")
	payment := fs.String("payment", "cod", "payment method: cod or online")
	dryRun := fs.Bool("dry-run", false, "show the order summary without placing it")
	if err := fs.Parse(args); err != nil {
		return err
	}

	method, err := domain.ParsePaymentMethod(*payment)
	if err != nil {
		return err
	}

	co := a.checkout()
	if err := co.Enter(ctx); err != nil {
		return err
	}
	if *addressID != "" {
		if err := co.SelectAddress(*addressID); err != nil {
			return err
		}
	}
	if err := co.SelectPaymentMethod(method); err != nil {
		return err
	}

	view := co.View()
	if len(view.Addresses) > 0 {
		fmt.Println("Deliver to:")
		printAddresses(view.Addresses, view.SelectedAddressID)
	}
	totals, err := co.Totals(ctx)
	if err != nil {
		return err
	}
	printTotals(totals, a.cfg.Delivery.Currency)

	if *dryRun {
		return nil
	}

	order, err := co.PlaceOrder(ctx)
	if err != nil {
		return err
	}
	fmt.Printf("Order %s placed: %s (%s)\n", order.ID,
		domain.FormatPrice(order.TotalAmount, a.cfg.Delivery.Currency), order.Status)
	return nil
}

func runPoll(ctx context.Context, a *app, args []string) error {
	ref, err := oneArg("poll", args)
	if err != nil {
		return err
	}

	fmt.Println("Verifying your payment...")
	if err := a.poller.Run(ctx, ref); err != nil {
		if errors.Is(err, worker.ErrPaymentUnconfirmed) {
			// already reported; the outcome is not a failure of the command
			return nil
		}
		return err
	}
	return nil
}

// ============================================================================
// Orders
// ============================================================================

func runOrders(ctx context.Context, a *app, args []string) error {
	orders, err := a.orders.History(ctx)
	if err != nil {
		return err
	}
	if len(orders) == 0 {
		fmt.Println("No orders yet")
		return nil
	}

	tw := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tPLACED\tSTATUS\tITEMS\tTOTAL")
	for _, o := range orders {
		placed := "-"
		if !o.CreatedAt.IsZero() {
			placed = o.CreatedAt.Local().Format("02 Jan 2006 15:04")
		}
		fmt.Fprintf(tw, "%s\t%s\t%s\t%d\t%s\n",
			o.ID, placed, o.Status, len(o.Items), domain.FormatPrice(o.TotalAmount, a.cfg.Delivery.Currency))
	}
	return tw.Flush()
}

func runCancel(ctx context.Context, a *app, args []string) error {
	fs := newFlagSet("cancel")
	reason := fs.String("reason", "", "one of: "+reasonList())
	note := fs.String("note", "", "details, required with --reason OTHER")
	if err := fs.Parse(args); err != nil {
		return err
	}
	id, err := oneArg("cancel", fs.Args())
	if err != nil {
		return err
	}

	var r domain.CancelReason
	if *reason != "" {
		if r, err = domain.ParseCancelReason(*reason); err != nil {
			return err
		}
	}

	order, err := a.orders.GetOrder(ctx, id)
	if err != nil {
		return err
	}
	updated, err := a.orders.Cancel(ctx, *order, r, *note)
	if err != nil {
		return err
	}
	fmt.Printf("Order %s is now %s\n", updated.ID, updated.Status)
	return nil
}

func reasonList() string {
	out := make([]string, 0, len(domain.CancelReasons))
	for _, r := range domain.CancelReasons {
		out = append(out, string(r))
	}
	return strings.Join(out, ", ")
}

// ============================================================================
// Session
// ============================================================================

func runLogin(ctx context.Context, a *app, args []string) error {
	fs := newFlagSet("login")
	email := fs.String("email", "", "account email")
	password := fs.String("password", os.Getenv("WICKET_PASSWORD"), "account password (or WICKET_PASSWORD)")
	if err := fs.Parse(args); err != nil {
		return err
	}

	user, err := a.session.Login(ctx, *email, *password)
	if err != nil {
		return err
	}
	fmt.Printf("Signed in as %s <%s>\n", user.Name, user.Email)
	return nil
}

func runLogout(ctx context.Context, a *app, args []string) error {
	if err := a.session.Logout(ctx); err != nil {
		return err
	}
	fmt.Println("Signed out")
	return nil
}

func runWhoami(ctx context.Context, a *app, args []string) error {
	user, err := a.session.Current()
	if err != nil {
		if errors.Is(err, service.ErrNotLoggedIn) {
			fmt.Println("Not signed in")
			return nil
		}
		return err
	}
	role := "customer"
	if user.IsAdmin() {
		role = "admin"
	}
	fmt.Printf("%s <%s> (%s)\n", user.Name, user.Email, role)
	return nil
}
