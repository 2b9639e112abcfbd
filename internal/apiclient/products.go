package apiclient

import (
	"context"
	"net/http"
	"net/url"
	"strconv"

	"storefront-client/internal/domain"
)

func (c *Client) ListProducts(ctx context.Context, q domain.ProductQuery) ([]domain.Product, error) {
	params := url.Values{}
	if q.Skip > 0 {
		params.Set("skip", strconv.Itoa(q.Skip))
	}
	if q.Limit > 0 {
		params.Set("limit", strconv.Itoa(q.Limit))
	}
	if q.Category != "" {
		params.Set("category", q.Category)
	}
	if q.Search != "" {
		params.Set("search", q.Search)
	}
	var out []domain.Product
	if err := c.send(ctx, request{method: http.MethodGet, route: "/products", path: "/products", query: params}, &out); err != nil {
		return nil, err
	}
	if out == nil {
		out = []domain.Product{}
	}
	return out, nil
}

func (c *Client) GetProduct(ctx context.Context, id string) (*domain.Product, error) {
	var out domain.Product
	if err := c.send(ctx, request{method: http.MethodGet, route: "/products/{id}", path: "/products/" + url.PathEscape(id)}, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// CreateProduct requires an administrator credential.
func (c *Client) CreateProduct(ctx context.Context, in domain.ProductInput) (*domain.Product, error) {
	var out domain.Product
	if err := c.send(ctx, request{method: http.MethodPost, route: "/products", path: "/products", body: in}, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) UpdateProduct(ctx context.Context, id string, in domain.ProductInput) (*domain.Product, error) {
	var out domain.Product
	if err := c.send(ctx, request{method: http.MethodPut, route: "/products/{id}", path: "/products/" + url.PathEscape(id), body: in}, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) DeleteProduct(ctx context.Context, id string) error {
	return c.send(ctx, request{method: http.MethodDelete, route: "/products/{id}", path: "/products/" + url.PathEscape(id)}, nil)
}

type categoriesBody struct {
	Categories []string `json:"categories"`
}

// ListCategories returns the catalogue's category names.
func (c *Client) ListCategories(ctx context.Context) ([]string, error) {
	var out categoriesBody
	if err := c.send(ctx, request{method: http.MethodGet, route: "/seed/categories", path: "/seed/categories"}, &out); err != nil {
		return nil, err
	}
	return out.Categories, nil
}
