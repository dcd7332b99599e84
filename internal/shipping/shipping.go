package shipping

import (
	"context"
	"time"
)

// Provider quotes delivery for an order.
// Implementations can be a flat rate or a courier aggregator.
type Provider interface {
	// GetRates returns available delivery options for a shipment.
	GetRates(ctx context.Context, params RateParams) ([]Rate, error)
}

// RateParams contains parameters for calculating delivery rates.
type RateParams struct {
	// Subtotal is the order value before delivery, in whole currency units.
	Subtotal int64
	// Units is the number of items being shipped.
	Units       int
	Destination ShippingAddress
}

// ShippingAddress is the part of an address delivery pricing looks at.
type ShippingAddress struct {
	City    string
	State   string
	Pincode string
	Country string
}

// Rate represents a delivery rate option.
type Rate struct {
	RateID                string
	Carrier               string
	ServiceName           string
	ServiceCode           string
	Cost                  int64
	EstimatedDaysMin      int
	EstimatedDaysMax      int
	EstimatedDeliveryDate time.Time
}

// Cheapest returns the lowest-cost rate. ok is false for an empty slice.
func Cheapest(rates []Rate) (Rate, bool) {
	if len(rates) == 0 {
		return Rate{}, false
	}
	best := rates[0]
	for _, r := range rates[1:] {
		if r.Cost < best.Cost {
			best = r
		}
	}
	return best, true
}
