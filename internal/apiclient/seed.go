package apiclient

import (
	"context"
	"net/http"
)

type SeedResult struct {
	Message     string   `json:"message"`
	InsertedIDs []string `json:"inserted_ids"`
	Categories  []string `json:"categories"`
}

type ClearResult struct {
	Message      string `json:"message"`
	DeletedCount int    `json:"deleted_count"`
}

// SeedProducts loads the demo catalogue. The API refuses (400) when the
// catalogue is not empty.
func (c *Client) SeedProducts(ctx context.Context) (*SeedResult, error) {
	var out SeedResult
	if err := c.send(ctx, request{method: http.MethodPost, route: "/seed/products", path: "/seed/products"}, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// ClearProducts deletes the whole catalogue.
func (c *Client) ClearProducts(ctx context.Context) (*ClearResult, error) {
	var out ClearResult
	if err := c.send(ctx, request{method: http.MethodDelete, route: "/seed/products", path: "/seed/products"}, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) ProductCount(ctx context.Context) (int, error) {
	var out struct {
		TotalProducts int `json:"total_products"`
	}
	if err := c.send(ctx, request{method: http.MethodGet, route: "/seed/products/count", path: "/seed/products/count"}, &out); err != nil {
		return 0, err
	}
	return out.TotalProducts, nil
}
