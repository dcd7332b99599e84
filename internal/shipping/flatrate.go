package shipping

import (
	"context"
	"time"
)

// FlatRateProvider returns predefined flat-rate delivery options, waived
// once the order subtotal reaches the free-delivery threshold.
type FlatRateProvider struct {
	rates         []FlatRate
	freeThreshold int64
	now           func() time.Time
}

// FlatRate defines a single flat-rate delivery option.
type FlatRate struct {
	ServiceName string
	ServiceCode string
	Cost        int64
	DaysMin     int
	DaysMax     int
}

// StandardDelivery is the single option the storefront offers.
func StandardDelivery(cost int64) FlatRate {
	return FlatRate{
		ServiceName: "Standard Delivery",
		ServiceCode: "STD",
		Cost:        cost,
		DaysMin:     3,
		DaysMax:     7,
	}
}

// NewFlatRateProvider creates a new flat-rate delivery provider.
// freeThreshold of 0 disables free delivery.
func NewFlatRateProvider(rates []FlatRate, freeThreshold int64) Provider {
	return &FlatRateProvider{rates: rates, freeThreshold: freeThreshold, now: time.Now}
}

// GetRates converts flat rates to Rate objects.
func (p *FlatRateProvider) GetRates(ctx context.Context, params RateParams) ([]Rate, error) {
	// Validate required fields
	if params.Units <= 0 {
		return nil, ErrNoItems
	}
	if params.Subtotal < 0 {
		return nil, ErrInvalidSubtotal
	}
	if len(p.rates) == 0 {
		return nil, ErrNoRates
	}

	free := p.freeThreshold > 0 && params.Subtotal >= p.freeThreshold

	result := make([]Rate, len(p.rates))
	for i, fr := range p.rates {
		cost := fr.Cost
		if free {
			cost = 0
		}
		result[i] = Rate{
			RateID:                fr.ServiceCode,
			Carrier:               "Flat Rate",
			ServiceName:           fr.ServiceName,
			ServiceCode:           fr.ServiceCode,
			Cost:                  cost,
			EstimatedDaysMin:      fr.DaysMin,
			EstimatedDaysMax:      fr.DaysMax,
			EstimatedDeliveryDate: p.now().AddDate(0, 0, fr.DaysMax),
		}
	}
	return result, nil
}
