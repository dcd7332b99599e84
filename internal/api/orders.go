package api

import (
	"context"
	"net/http"
	"net/url"

	"github.com/dukerupert/wicket/internal/domain"
)

// CreateOrder submits an order. The idempotency key, when set, is sent as
// the Idempotency-Key header so a repeated submission is not double-booked.
// Order submission is never retried automatically.
func (c *Client) CreateOrder(ctx context.Context, req domain.OrderRequest) (*domain.OrderConfirmation, error) {
	headers := map[string]string{}
	if req.IdempotencyKey != "" {
		headers["Idempotency-Key"] = req.IdempotencyKey
	}

	var resp domain.OrderConfirmation
	err := c.do(ctx, request{
		method:  http.MethodPost,
		path:    "/orders",
		route:   "/orders",
		body:    req,
		headers: headers,
	}, &resp)
	if err != nil {
		return nil, err
	}
	return &resp, nil
}

// GetOrderByReference looks up an order by its payment reference.
// It returns (nil, nil) while the order does not exist yet, whether the
// backend answers 404 or {"order": null}.
func (c *Client) GetOrderByReference(ctx context.Context, ref string) (*domain.Order, error) {
	var resp struct {
		Order *domain.Order `json:"order"`
	}
	err := c.do(ctx, request{
		method: http.MethodGet,
		path:   "/orders/by-reference/" + url.PathEscape(ref),
		route:  "/orders/by-reference/:ref",
	}, &resp)
	if err != nil {
		if IsNotFound(err) {
			return nil, nil
		}
		return nil, err
	}
	return resp.Order, nil
}

// ListOrders returns the signed-in user's order history.
func (c *Client) ListOrders(ctx context.Context) ([]domain.Order, error) {
	var resp struct {
		Orders []domain.Order `json:"orders"`
	}
	err := c.do(ctx, request{
		method: http.MethodGet,
		path:   "/orders",
		route:  "/orders",
	}, &resp)
	if err != nil {
		return nil, err
	}
	return resp.Orders, nil
}

// GetOrder fetches a single order.
func (c *Client) GetOrder(ctx context.Context, id string) (*domain.Order, error) {
	var resp struct {
		Order *domain.Order `json:"order"`
	}
	err := c.do(ctx, request{
		method: http.MethodGet,
		path:   "/orders/" + url.PathEscape(id),
		route:  "/orders/:id",
	}, &resp)
	if err != nil {
		return nil, err
	}
	if resp.Order == nil {
		return nil, &ResponseError{Method: http.MethodGet, Path: "/orders/" + id, StatusCode: http.StatusNotFound, Message: "Order not found"}
	}
	return resp.Order, nil
}

// CancelOrder asks the backend to cancel an order. reason is sent verbatim.
func (c *Client) CancelOrder(ctx context.Context, id, reason string) (*domain.Order, error) {
	var resp struct {
		Order *domain.Order `json:"order"`
	}
	err := c.do(ctx, request{
		method: http.MethodPut,
		path:   "/orders/" + url.PathEscape(id) + "/cancel",
		route:  "/orders/:id/cancel",
		body:   map[string]string{"reason": reason},
	}, &resp)
	if err != nil {
		return nil, err
	}
	return resp.Order, nil
}
