package domain

import (
	"strings"
	"time"
)

// OrderStatus is the backend-owned lifecycle state of an order.
type OrderStatus string

const (
	OrderStatusPlaced    OrderStatus = "PLACED"
	OrderStatusConfirmed OrderStatus = "CONFIRMED"
	OrderStatusShipped   OrderStatus = "SHIPPED"
	OrderStatusDelivered OrderStatus = "DELIVERED"
	OrderStatusCancelled OrderStatus = "CANCELLED"
	OrderStatusFailed    OrderStatus = "FAILED"
)

// Cancellable reports whether the customer may still cancel.
func (s OrderStatus) Cancellable() bool {
	return s == OrderStatusPlaced || s == OrderStatusConfirmed
}

// Order is a backend-owned record created from a cart snapshot.
// The client never mutates it after submission.
type Order struct {
	ID              string      `json:"_id"`
	Reference       string      `json:"reference,omitempty"`
	Status          OrderStatus `json:"status"`
	Items           []OrderItem `json:"items"`
	ShippingAddress Address     `json:"shippingAddress"`
	PaymentMethod   string      `json:"paymentMethod"`
	Subtotal        int64       `json:"subtotal"`
	DeliveryCharge  int64       `json:"deliveryCharge"`
	TotalAmount     int64       `json:"totalAmount"`
	CancelReason    string      `json:"cancelReason,omitempty"`
	CreatedAt       time.Time   `json:"createdAt"`
}

// =============================================================================
// CANCELLATION
// =============================================================================

// CancelReason is one of the fixed reasons offered on the cancel form.
type CancelReason string

const (
	CancelReasonOrderedByMistake CancelReason = "ORDERED_BY_MISTAKE"
	CancelReasonBetterPrice      CancelReason = "FOUND_BETTER_PRICE"
	CancelReasonDeliveryTooSlow  CancelReason = "DELIVERY_TOO_SLOW"
	CancelReasonChangedMind      CancelReason = "CHANGED_MIND"
	CancelReasonOther            CancelReason = "OTHER"
)

// CancelReasons lists the reasons in display order.
var CancelReasons = []CancelReason{
	CancelReasonOrderedByMistake,
	CancelReasonBetterPrice,
	CancelReasonDeliveryTooSlow,
	CancelReasonChangedMind,
	CancelReasonOther,
}

var cancelReasonLabels = map[CancelReason]string{
	CancelReasonOrderedByMistake: "Ordered by mistake",
	CancelReasonBetterPrice:      "Found a better price elsewhere",
	CancelReasonDeliveryTooSlow:  "Delivery time is too long",
	CancelReasonChangedMind:      "Changed my mind",
	CancelReasonOther:            "Other",
}

// Label returns the human-readable reason.
func (r CancelReason) Label() string {
	return cancelReasonLabels[r]
}

// Valid reports whether r is one of the fixed reasons.
func (r CancelReason) Valid() bool {
	_, ok := cancelReasonLabels[r]
	return ok
}

// ParseCancelReason accepts a wire value (case-insensitive).
func ParseCancelReason(s string) (CancelReason, error) {
	r := CancelReason(strings.ToUpper(strings.TrimSpace(s)))
	if !r.Valid() {
		return "", Errorf(EINVALID, "order.cancel", "unknown cancel reason %q", s)
	}
	return r, nil
}
