package service

import (
	"context"
	"encoding/json"
	"log/slog"
	"sync"

	"github.com/google/uuid"

	"github.com/dukerupert/wicket/internal/cart"
	"github.com/dukerupert/wicket/internal/domain"
	"github.com/dukerupert/wicket/internal/shipping"
	"github.com/dukerupert/wicket/internal/telemetry"
)

// CheckoutState is the state of a single order submission.
type CheckoutState string

const (
	CheckoutEditing    CheckoutState = "EDITING"
	CheckoutSubmitting CheckoutState = "SUBMITTING"
	CheckoutSucceeded  CheckoutState = "SUCCEEDED"
	// CheckoutFailed is passed through on a rejected submission before the
	// flow returns to CheckoutEditing.
	CheckoutFailed CheckoutState = "FAILED"
)

// CheckoutDeps are the collaborators of a Checkout.
type CheckoutDeps struct {
	Store     *cart.Store
	Orders    OrderBackend
	Addresses AddressBook
	Delivery  shipping.Provider
	Notifier  Notifier
	Navigator Navigator
	Logger    *slog.Logger
	Metrics   *telemetry.BusinessMetrics

	// OnStateChange, if set, observes every transition. It runs under the
	// flow's lock and must not call back into the Checkout.
	OnStateChange func(from, to CheckoutState)
	// NewIdempotencyKey overrides key generation (tests).
	NewIdempotencyKey func() string
}

// CheckoutView is a read-only snapshot for rendering the checkout page.
type CheckoutView struct {
	State             CheckoutState
	Cart              domain.CartState
	Addresses         []domain.Address
	SelectedAddressID string
	PaymentMethod     domain.PaymentMethod
	Busy              bool
}

// Checkout orchestrates one order submission from the live cart, the chosen
// address and the chosen payment method. It owns the guards that run
// before anything is sent.
type Checkout struct {
	deps CheckoutDeps

	mu                sync.Mutex
	state             CheckoutState
	addresses         []domain.Address
	selectedAddressID string
	explicitSelection bool
	defaultApplied    bool
	method            domain.PaymentMethod

	// pendingKey is reused while the same payload is resubmitted after a
	// failure, so a request that reached the backend is not booked twice.
	pendingKey         string
	pendingFingerprint string
}

// NewCheckout returns a flow in EDITING with cash on delivery selected.
func NewCheckout(deps CheckoutDeps) *Checkout {
	if deps.Notifier == nil {
		deps.Notifier = NopNotifier{}
	}
	if deps.Navigator == nil {
		deps.Navigator = NopNavigator{}
	}
	if deps.Logger == nil {
		deps.Logger = slog.Default()
	}
	deps.Logger = deps.Logger.With(slog.String("service", "checkout"))
	if deps.NewIdempotencyKey == nil {
		deps.NewIdempotencyKey = func() string { return uuid.NewString() }
	}

	return &Checkout{
		deps:   deps,
		state:  CheckoutEditing,
		method: domain.CashOnDelivery{},
	}
}

// Enter runs when the checkout view opens. An empty cart sends the user
// back to the cart view. Otherwise saved addresses are loaded.
func (c *Checkout) Enter(ctx context.Context) error {
	const op = "checkout.enter"

	if c.deps.Store.Snapshot().IsEmpty() {
		c.deps.Navigator.Navigate(Route{View: ViewCart})
		return domain.WithOp(ErrEmptyCart, op)
	}
	c.deps.Metrics.CheckoutStart()

	addrs, err := c.deps.Addresses.ListAddresses(ctx)
	if err != nil {
		c.deps.Logger.Error("failed to load addresses", slog.String("error", err.Error()))
		c.deps.Notifier.Error(userMessage(err, "We couldn't load your addresses. Please try again."))
		return err
	}

	c.SetAddresses(addrs)
	return nil
}

// SetAddresses replaces the known addresses. The first time a non-empty
// list arrives, and only if the user has not chosen one yet, the address
// flagged default (or else the first) is selected.
func (c *Checkout) SetAddresses(addrs []domain.Address) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.addresses = append([]domain.Address(nil), addrs...)

	if c.defaultApplied || c.explicitSelection || len(c.addresses) == 0 {
		return
	}
	c.defaultApplied = true

	c.selectedAddressID = c.addresses[0].ID
	for _, a := range c.addresses {
		if a.IsDefault {
			c.selectedAddressID = a.ID
			break
		}
	}
}

// SelectAddress records an explicit choice. It is never overridden by the
// default selection.
func (c *Checkout) SelectAddress(id string) error {
	const op = "checkout.select_address"

	c.mu.Lock()
	defer c.mu.Unlock()

	if c.state == CheckoutSubmitting {
		return domain.WithOp(ErrSubmissionInProgress, op)
	}
	if _, ok := c.findAddressLocked(id); !ok {
		return domain.WithOp(ErrAddressNotFound, op)
	}
	c.selectedAddressID = id
	c.explicitSelection = true
	c.defaultApplied = true
	return nil
}

// SelectPaymentMethod records the chosen method. Any method can be chosen;
// only cash on delivery passes the submission guard.
func (c *Checkout) SelectPaymentMethod(m domain.PaymentMethod) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.state == CheckoutSubmitting {
		return domain.WithOp(ErrSubmissionInProgress, "checkout.select_payment")
	}
	c.method = m
	return nil
}

// State returns the current state.
func (c *Checkout) State() CheckoutState {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// View returns a snapshot for rendering.
func (c *Checkout) View() CheckoutView {
	c.mu.Lock()
	defer c.mu.Unlock()

	return CheckoutView{
		State:             c.state,
		Cart:              c.deps.Store.Snapshot(),
		Addresses:         append([]domain.Address(nil), c.addresses...),
		SelectedAddressID: c.selectedAddressID,
		PaymentMethod:     c.method,
		Busy:              c.state == CheckoutSubmitting,
	}
}

// Totals prices the live cart. Delivery is quoted for the selected
// address when there is one.
func (c *Checkout) Totals(ctx context.Context) (domain.Totals, error) {
	c.mu.Lock()
	addr, _ := c.findAddressLocked(c.selectedAddressID)
	c.mu.Unlock()

	snap := c.deps.Store.Snapshot()
	delivery, err := c.deliveryCharge(ctx, snap, addr)
	if err != nil {
		return domain.Totals{}, err
	}

	subtotal := snap.Subtotal()
	return domain.Totals{
		Subtotal:       subtotal,
		DeliveryCharge: delivery,
		TotalAmount:    subtotal + delivery,
	}, nil
}

// PlaceOrder runs the guards in order and, when they pass, submits the
// order built from the current cart. On success the cart is cleared and
// the user is sent to the confirmation view. On failure the cart is left
// as it was and the flow returns to EDITING.
func (c *Checkout) PlaceOrder(ctx context.Context) (*domain.Order, error) {
	const op = "checkout.place_order"

	ctx, finish := telemetry.StartSpan(ctx, op, "submit order")
	defer finish()

	c.mu.Lock()

	// 0. busy flag
	if c.state == CheckoutSubmitting {
		c.mu.Unlock()
		c.deps.Metrics.CheckoutBlock("busy")
		return nil, domain.WithOp(ErrSubmissionInProgress, op)
	}

	snap := c.deps.Store.Snapshot()

	// 1. empty cart leaves checkout altogether
	if snap.IsEmpty() {
		c.mu.Unlock()
		c.deps.Metrics.CheckoutBlock("empty_cart")
		c.deps.Navigator.Navigate(Route{View: ViewCart})
		return nil, domain.WithOp(ErrEmptyCart, op)
	}

	// 2. no saved addresses
	if len(c.addresses) == 0 {
		c.mu.Unlock()
		c.deps.Metrics.CheckoutBlock("no_addresses")
		c.deps.Notifier.Warn(domain.ErrorMessage(ErrNoAddresses))
		c.deps.Navigator.Navigate(Route{View: ViewAddressForm})
		return nil, domain.WithOp(ErrNoAddresses, op)
	}

	// 3. nothing selected
	addr, ok := c.findAddressLocked(c.selectedAddressID)
	if !ok {
		c.mu.Unlock()
		c.deps.Metrics.CheckoutBlock("no_selection")
		c.deps.Notifier.Error(domain.ErrorMessage(ErrNoAddressSelected))
		return nil, domain.WithOp(ErrNoAddressSelected, op)
	}

	// 4. only cash on delivery submits
	method := c.method
	switch method.(type) {
	case domain.CashOnDelivery:
	case domain.OnlinePending:
		c.mu.Unlock()
		c.deps.Metrics.CheckoutBlock("payment_method")
		c.deps.Notifier.Info(domain.ErrorMessage(ErrPaymentMethodUnavailable))
		return nil, domain.WithOp(ErrPaymentMethodUnavailable, op)
	default:
		c.mu.Unlock()
		c.deps.Metrics.CheckoutBlock("payment_method")
		c.deps.Notifier.Error(domain.ErrorMessage(ErrNoPaymentMethod))
		return nil, domain.WithOp(ErrNoPaymentMethod, op)
	}

	c.transitionLocked(CheckoutSubmitting)
	c.mu.Unlock()

	delivery, err := c.deliveryCharge(ctx, snap, addr)
	if err != nil {
		return nil, c.fail(op, err)
	}

	req := domain.NewOrderRequest(snap, addr, method, delivery)
	req.IdempotencyKey = c.idempotencyKey(req)

	c.deps.Logger.Info("submitting order",
		slog.Int("lines", len(req.Items)),
		slog.Int64("total", req.TotalAmount),
		slog.String("payment_method", req.PaymentMethod),
	)

	conf, err := c.deps.Orders.CreateOrder(ctx, req)
	if err != nil {
		return nil, c.fail(op, err)
	}

	c.deps.Store.Clear()
	c.deps.Metrics.CartClear("order_placed")
	c.deps.Metrics.OrderCreate(req.PaymentMethod, req.TotalAmount, len(req.Items))

	c.mu.Lock()
	c.pendingKey, c.pendingFingerprint = "", ""
	c.transitionLocked(CheckoutSucceeded)
	c.mu.Unlock()

	order := conf.Order
	c.deps.Logger.Info("order placed", slog.String("order_id", order.ID))
	if conf.Message != "" {
		c.deps.Notifier.Info(conf.Message)
	}
	c.deps.Navigator.Navigate(Route{View: ViewOrderConfirmation, OrderID: order.ID})

	return &order, nil
}

// fail records a rejected submission and returns the flow to EDITING.
func (c *Checkout) fail(op string, err error) error {
	code := domain.ErrorCode(err)

	c.mu.Lock()
	c.transitionLocked(CheckoutFailed)
	c.transitionLocked(CheckoutEditing)
	c.mu.Unlock()

	c.deps.Logger.Error("order submission failed",
		slog.String("op", op),
		slog.String("code", code),
		slog.String("error", err.Error()),
	)
	c.deps.Metrics.OrderFail(code)
	if code == domain.EINTERNAL || code == domain.EUNAVAILABLE {
		telemetry.CaptureError(err, map[string]interface{}{"op": op})
	}

	c.deps.Notifier.Error(userMessage(err, genericOrderFailure))
	return err
}

// idempotencyKey returns the pending key when req matches the payload of
// the last failed attempt, and a fresh key otherwise.
func (c *Checkout) idempotencyKey(req domain.OrderRequest) string {
	b, _ := json.Marshal(req)
	fp := string(b)

	c.mu.Lock()
	defer c.mu.Unlock()
	if c.pendingKey == "" || c.pendingFingerprint != fp {
		c.pendingKey = c.deps.NewIdempotencyKey()
		c.pendingFingerprint = fp
	}
	return c.pendingKey
}

func (c *Checkout) deliveryCharge(ctx context.Context, snap domain.CartState, addr domain.Address) (int64, error) {
	if snap.IsEmpty() || c.deps.Delivery == nil {
		return 0, nil
	}
	rates, err := c.deps.Delivery.GetRates(ctx, shipping.RateParams{
		Subtotal: snap.Subtotal(),
		Units:    snap.Units(),
		Destination: shipping.ShippingAddress{
			City:    addr.City,
			State:   addr.State,
			Pincode: addr.Pincode,
			Country: addr.Country,
		},
	})
	if err != nil {
		return 0, err
	}
	rate, ok := shipping.Cheapest(rates)
	if !ok {
		return 0, domain.WithOp(ErrDeliveryUnavailable, "checkout.delivery")
	}
	return rate.Cost, nil
}

func (c *Checkout) findAddressLocked(id string) (domain.Address, bool) {
	if id == "" {
		return domain.Address{}, false
	}
	for _, a := range c.addresses {
		if a.ID == id {
			return a, true
		}
	}
	return domain.Address{}, false
}

func (c *Checkout) transitionLocked(to CheckoutState) {
	from := c.state
	c.state = to
	c.deps.Logger.Debug("checkout state", slog.String("from", string(from)), slog.String("to", string(to)))
	if c.deps.OnStateChange != nil {
		c.deps.OnStateChange(from, to)
	}
}

// userMessage picks what to show for a failed call: the coded message
// when there is one, fallback otherwise.
func userMessage(err error, fallback string) string {
	if domain.ErrorCode(err) == domain.EINTERNAL {
		return fallback
	}
	return domain.ErrorMessage(err)
}
