package apiclient

import (
	"context"
	"net/http"
	"net/url"

	"storefront-client/internal/domain"
)

type addItemBody struct {
	ProductID string `json:"product_id"`
	Quantity  int    `json:"quantity"`
}

type updateItemBody struct {
	Quantity int `json:"quantity"`
}

func (c *Client) GetCart(ctx context.Context) (*domain.Cart, error) {
	return c.cartCall(ctx, request{method: http.MethodGet, route: "/cart", path: "/cart"})
}

func (c *Client) AddCartItem(ctx context.Context, productID string, quantity int) (*domain.Cart, error) {
	return c.cartCall(ctx, request{
		method: http.MethodPost,
		route:  "/cart/items",
		path:   "/cart/items",
		body:   addItemBody{ProductID: productID, Quantity: quantity},
	})
}

// UpdateCartItem sets the quantity of an existing line. quantity is sent as
// given; clamping is the caller's job.
func (c *Client) UpdateCartItem(ctx context.Context, productID string, quantity int) (*domain.Cart, error) {
	return c.cartCall(ctx, request{
		method: http.MethodPut,
		route:  "/cart/items/{product_id}",
		path:   "/cart/items/" + url.PathEscape(productID),
		body:   updateItemBody{Quantity: quantity},
	})
}

func (c *Client) RemoveCartItem(ctx context.Context, productID string) (*domain.Cart, error) {
	return c.cartCall(ctx, request{
		method: http.MethodDelete,
		route:  "/cart/items/{product_id}",
		path:   "/cart/items/" + url.PathEscape(productID),
	})
}

// ClearCart empties the cart. The API answers with a status message, not a cart.
func (c *Client) ClearCart(ctx context.Context) (*domain.StatusMessage, error) {
	var out domain.StatusMessage
	if err := c.send(ctx, request{method: http.MethodDelete, route: "/cart/clear", path: "/cart/clear"}, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// CheckoutPreview asks the API to summarise the cart before an order is placed.
func (c *Client) CheckoutPreview(ctx context.Context) (*domain.CheckoutPreview, error) {
	var out domain.CheckoutPreview
	if err := c.send(ctx, request{method: http.MethodPost, route: "/cart/checkout", path: "/cart/checkout"}, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) cartCall(ctx context.Context, r request) (*domain.Cart, error) {
	var out domain.Cart
	if err := c.send(ctx, r, &out); err != nil {
		return nil, err
	}
	return &out, nil
}
