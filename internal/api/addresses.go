package api

import (
	"context"
	"net/http"

	"github.com/dukerupert/wicket/internal/domain"
)

// ListAddresses returns the user's saved addresses.
func (c *Client) ListAddresses(ctx context.Context) ([]domain.Address, error) {
	var resp struct {
		Addresses []domain.Address `json:"addresses"`
	}
	err := c.do(ctx, request{
		method: http.MethodGet,
		path:   "/addresses",
		route:  "/addresses",
	}, &resp)
	if err != nil {
		return nil, err
	}
	return resp.Addresses, nil
}

// CreateAddress saves a new address and returns it with its ID.
func (c *Client) CreateAddress(ctx context.Context, addr domain.Address) (*domain.Address, error) {
	var resp struct {
		Address *domain.Address `json:"address"`
	}
	err := c.do(ctx, request{
		method: http.MethodPost,
		path:   "/addresses",
		route:  "/addresses",
		body:   addr,
	}, &resp)
	if err != nil {
		return nil, err
	}
	if resp.Address == nil {
		return &addr, nil
	}
	return resp.Address, nil
}
