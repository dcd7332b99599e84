package domain

import (
	"fmt"
	"strings"
)

// Address is a saved delivery address. It is owned by the backend and
// only referenced by checkout.
type Address struct {
	ID        string `json:"_id,omitempty"`
	FullName  string `json:"fullName"`
	Phone     string `json:"phone"`
	Street    string `json:"street"`
	City      string `json:"city"`
	State     string `json:"state"`
	Pincode   string `json:"pincode"`
	Country   string `json:"country"`
	IsDefault bool   `json:"isDefault"`
}

// OneLine formats the address for a single line of output.
func (a Address) OneLine() string {
	parts := []string{a.FullName, a.Street, a.City, a.State + " " + a.Pincode, a.Country}
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return strings.Join(out, ", ")
}

// =============================================================================
// PAYMENT METHOD
// =============================================================================

// PaymentMethod is a closed set of payment options. The unexported marker
// keeps other packages from adding cases, so a type switch over
// CashOnDelivery and OnlinePending is exhaustive.
type PaymentMethod interface {
	// Code is the wire value sent in the order payload.
	Code() string
	paymentMethod()
}

// CashOnDelivery is the only method that submits an order today.
type CashOnDelivery struct{}

// OnlinePending is online payment, which is not wired yet and must never
// reach order submission.
type OnlinePending struct{}

func (CashOnDelivery) Code() string { return "CASH_ON_DELIVERY" }
func (OnlinePending) Code() string  { return "ONLINE" }

func (CashOnDelivery) paymentMethod() {}
func (OnlinePending) paymentMethod()  {}

// ParsePaymentMethod maps a wire value or a short CLI alias to a method.
func ParsePaymentMethod(s string) (PaymentMethod, error) {
	switch strings.ToUpper(strings.TrimSpace(s)) {
	case "CASH_ON_DELIVERY", "COD":
		return CashOnDelivery{}, nil
	case "ONLINE":
		return OnlinePending{}, nil
	default:
		return nil, Errorf(EINVALID, "payment.parse", "unknown payment method %q", s)
	}
}

// =============================================================================
// ORDER PAYLOAD
// =============================================================================

// OrderItem is a line of an order, copied from the cart at submission time.
type OrderItem struct {
	ProductID string `json:"productId"`
	Title     string `json:"title"`
	Image     string `json:"image"`
	Price     int64  `json:"price"`
	Quantity  int    `json:"quantity"`
}

// OrderRequest is the body of POST /orders.
type OrderRequest struct {
	Items           []OrderItem `json:"items"`
	ShippingAddress Address     `json:"shippingAddress"`
	PaymentMethod   string      `json:"paymentMethod"`
	Subtotal        int64       `json:"subtotal"`
	DeliveryCharge  int64       `json:"deliveryCharge"`
	TotalAmount     int64       `json:"totalAmount"`

	// IdempotencyKey is sent as a header so a retried submission can be
	// recognised by the backend.
	IdempotencyKey string `json:"-"`
}

// NewOrderRequest snapshots cart lines and the selected address into an
// order payload. Totals are computed from the snapshot itself.
func NewOrderRequest(cart CartState, addr Address, method PaymentMethod, deliveryCharge int64) OrderRequest {
	items := make([]OrderItem, 0, len(cart.Items))
	for _, it := range cart.Items {
		items = append(items, OrderItem{
			ProductID: it.ProductID,
			Title:     it.Title,
			Image:     it.Image,
			Price:     it.Price,
			Quantity:  it.Quantity,
		})
	}

	subtotal := cart.Subtotal()
	return OrderRequest{
		Items:           items,
		ShippingAddress: addr,
		PaymentMethod:   method.Code(),
		Subtotal:        subtotal,
		DeliveryCharge:  deliveryCharge,
		TotalAmount:     subtotal + deliveryCharge,
	}
}

// Totals is the price breakdown shown on the checkout page.
type Totals struct {
	Subtotal       int64
	DeliveryCharge int64
	TotalAmount    int64
}

// String renders the totals for logs.
func (t Totals) String() string {
	return fmt.Sprintf("subtotal=%d delivery=%d total=%d", t.Subtotal, t.DeliveryCharge, t.TotalAmount)
}

// OrderConfirmation is the backend's answer to a successful POST /orders.
type OrderConfirmation struct {
	Message string `json:"message"`
	Order   Order  `json:"order"`
}
