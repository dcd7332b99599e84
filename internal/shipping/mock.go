package shipping

import (
	"context"
)

// MockProvider is a test implementation of Provider.
type MockProvider struct {
	GetRatesFunc func(ctx context.Context, params RateParams) ([]Rate, error)
	Calls        []RateParams
}

// NewMockProvider creates a mock that quotes a single fixed-cost rate.
func NewMockProvider(cost int64) *MockProvider {
	return &MockProvider{
		GetRatesFunc: func(ctx context.Context, params RateParams) ([]Rate, error) {
			return []Rate{{RateID: "MOCK", Carrier: "Mock", ServiceCode: "MOCK", Cost: cost}}, nil
		},
	}
}

// GetRates delegates to the configured function or returns ErrNoRates.
func (m *MockProvider) GetRates(ctx context.Context, params RateParams) ([]Rate, error) {
	m.Calls = append(m.Calls, params)
	if m.GetRatesFunc != nil {
		return m.GetRatesFunc(ctx, params)
	}
	return nil, ErrNoRates
}
