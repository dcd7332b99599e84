package domain

import (
	"github.com/shopspring/decimal"
)

// CartItem represents a cart line item.
// Title, Image and Price are captured when the product is first added and
// are never refreshed from the catalog afterwards.
type CartItem struct {
	ProductID string `json:"productId"`
	Title     string `json:"title"`
	Image     string `json:"image"`
	Price     int64  `json:"price"`
	Quantity  int    `json:"quantity"`
}

// LineTotal returns price × quantity for the line.
func (i CartItem) LineTotal() int64 {
	return i.Price * int64(i.Quantity)
}

// CartState is an ordered snapshot of the cart mapping.
// Items are in insertion order, which only matters for display.
type CartState struct {
	Items []CartItem `json:"items"`
}

// Subtotal sums price × quantity over the live items. It is always
// recomputed, never cached.
func (s CartState) Subtotal() int64 {
	var total int64
	for _, item := range s.Items {
		total += item.LineTotal()
	}
	return total
}

// ItemCount returns the number of distinct line items (the cart badge),
// not the number of units.
func (s CartState) ItemCount() int {
	return len(s.Items)
}

// Units returns the total number of units across all lines.
func (s CartState) Units() int {
	var n int
	for _, item := range s.Items {
		n += item.Quantity
	}
	return n
}

// IsEmpty reports whether the cart has no lines.
func (s CartState) IsEmpty() bool {
	return len(s.Items) == 0
}

// Item looks up a line by product ID.
func (s CartState) Item(productID string) (CartItem, bool) {
	for _, item := range s.Items {
		if item.ProductID == productID {
			return item, true
		}
	}
	return CartItem{}, false
}

// FormatPrice renders an amount in whole currency units with two decimals,
// e.g. FormatPrice(1299, "INR") == "INR 1299.00".
func FormatPrice(amount int64, currency string) string {
	s := decimal.NewFromInt(amount).StringFixed(2)
	if currency == "" {
		return s
	}
	return currency + " " + s
}
