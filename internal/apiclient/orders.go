package apiclient

import (
	"context"
	"net/http"
	"net/url"
	"strconv"

	"storefront-client/internal/domain"
)

// The orders collection is addressed with a trailing slash.

func (c *Client) CreateOrder(ctx context.Context, in domain.OrderCreate) (*domain.Order, error) {
	var out domain.Order
	if err := c.send(ctx, request{method: http.MethodPost, route: "/orders/", path: "/orders/", body: in}, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) ListOrders(ctx context.Context) ([]domain.Order, error) {
	var out []domain.Order
	if err := c.send(ctx, request{method: http.MethodGet, route: "/orders/", path: "/orders/"}, &out); err != nil {
		return nil, err
	}
	if out == nil {
		out = []domain.Order{}
	}
	return out, nil
}

func (c *Client) GetOrder(ctx context.Context, id string) (*domain.Order, error) {
	var out domain.Order
	if err := c.send(ctx, request{method: http.MethodGet, route: "/orders/{id}", path: "/orders/" + url.PathEscape(id)}, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// UpdateOrderStatus is restricted to administrators.
func (c *Client) UpdateOrderStatus(ctx context.Context, id string, status domain.OrderStatus) (*domain.StatusMessage, error) {
	var out domain.StatusMessage
	q := url.Values{"new_status": {string(status)}}
	if err := c.send(ctx, request{method: http.MethodPut, route: "/orders/{id}/status", path: "/orders/" + url.PathEscape(id) + "/status", query: q}, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) UpdateOrderPayment(ctx context.Context, id string, paid bool) (*domain.StatusMessage, error) {
	var out domain.StatusMessage
	q := url.Values{"is_paid": {strconv.FormatBool(paid)}}
	if err := c.send(ctx, request{method: http.MethodPut, route: "/orders/{id}/payment", path: "/orders/" + url.PathEscape(id) + "/payment", query: q}, &out); err != nil {
		return nil, err
	}
	return &out, nil
}
