package api

import (
	"context"
	"net/http"
	"net/url"
	"time"

	"golang.org/x/sync/singleflight"

	"github.com/dukerupert/wicket/internal/domain"
)

// ListProducts returns the catalog.
func (c *Client) ListProducts(ctx context.Context) ([]domain.Product, error) {
	var resp struct {
		Products []domain.Product `json:"products"`
	}
	err := c.do(ctx, request{
		method: http.MethodGet,
		path:   "/products",
		route:  "/products",
	}, &resp)
	if err != nil {
		return nil, err
	}
	return resp.Products, nil
}

// sharedLookupTimeout bounds a shared product lookup once it no longer
// follows any single caller's context.
const sharedLookupTimeout = 30 * time.Second

// GetProduct fetches a product for its live stock and price.
// Concurrent lookups of the same ID share one request. A caller that gives
// up leaves the shared request running for the others.
func (c *Client) GetProduct(ctx context.Context, id string) (*domain.Product, error) {
	ch := c.products.DoChan(id, func() (interface{}, error) {
		ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), sharedLookupTimeout)
		defer cancel()

		var resp struct {
			Product *domain.Product `json:"product"`
		}
		err := c.do(ctx, request{
			method: http.MethodGet,
			path:   "/products/" + url.PathEscape(id),
			route:  "/products/:id",
		}, &resp)
		if err != nil {
			return nil, err
		}
		if resp.Product == nil {
			return nil, &ResponseError{Method: http.MethodGet, Path: "/products/" + id, StatusCode: http.StatusNotFound, Message: "Product not found"}
		}
		return resp.Product, nil
	})

	var res singleflight.Result
	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case res = <-ch:
	}
	if res.Err != nil {
		return nil, res.Err
	}

	// callers may mutate their copy
	p := *res.Val.(*domain.Product)
	return &p, nil
}
