// Package seed holds the demo catalogue the storefront API loads on
// POST /seed/products.
package seed

import (
	"context"
	"fmt"
	"sort"

	"storefront-client/internal/domain"
)

func img(id string) []string {
	return []string{"https://images.unsplash.com/photo-" + id + "?w=400&h=400&fit=crop"}
}

var catalogue = []domain.ProductInput{
	{Name: "iPhone 15", Description: "Latest Apple smartphone", Price: 999, Category: "Electronics", Brand: "Apple", Stock: 50, Images: img("1592750475338-74b7b21085ab")},
	{Name: "Samsung Galaxy S24", Description: "Android flagship", Price: 899, Category: "Electronics", Brand: "Samsung", Stock: 40, Images: img("1610945415295-d9bbf067e59c")},
	{Name: "MacBook Pro", Description: "14-inch M3 chip", Price: 1999, Category: "Electronics", Brand: "Apple", Stock: 25, Images: img("1517336714731-489689fd1ca8")},
	{Name: "AirPods Pro", Description: "Wireless noise-cancelling earbuds", Price: 249, Category: "Electronics", Brand: "Apple", Stock: 100, Images: img("1600294037681-c80b4cb5b434")},

	{Name: "Nike Air Max", Description: "Classic running shoes", Price: 120, Category: "Clothing", Brand: "Nike", Stock: 80, Images: img("1542291026-7eec264c27ff")},
	{Name: "Adidas Hoodie", Description: "Comfortable cotton hoodie", Price: 65, Category: "Clothing", Brand: "Adidas", Stock: 60, Images: img("1556821840-3a63f95609a7")},
	{Name: "Levi's Jeans", Description: "Classic 501 jeans", Price: 89, Category: "Clothing", Brand: "Levi's", Stock: 45, Images: img("1542272604-787c3835535d")},

	{Name: "Instant Pot", Description: "Multi-use pressure cooker", Price: 99, Category: "Home & Kitchen", Brand: "Instant Pot", Stock: 30, Images: img("1585515320310-259814833e62")},
	{Name: "Dyson Vacuum", Description: "Cordless stick vacuum", Price: 399, Category: "Home & Kitchen", Brand: "Dyson", Stock: 20, Images: img("1558317374-067fb5f30001")},
	{Name: "Air Fryer", Description: "Digital air fryer oven", Price: 129, Category: "Home & Kitchen", Brand: "Ninja", Stock: 35, Images: img("1626082927389-6cd097cdc6ec")},

	{Name: "Yoga Mat", Description: "Non-slip exercise mat", Price: 29, Category: "Sports", Brand: "Manduka", Stock: 75, Images: img("1601925260368-ae2f83cf8b7f")},
	{Name: "Dumbbells Set", Description: "Adjustable weights 5-50 lbs", Price: 299, Category: "Sports", Brand: "Bowflex", Stock: 15, Images: img("1534438327276-14e5300c3a48")},
	{Name: "Treadmill", Description: "Folding electric treadmill", Price: 599, Category: "Sports", Brand: "NordicTrack", Stock: 10, Images: img("1576678927484-cc907957088c")},

	{Name: "Atomic Habits", Description: "Self-improvement bestseller", Price: 18, Category: "Books", Brand: "Penguin", Stock: 200, Images: img("1544947950-fa07a98d237f")},
	{Name: "The Great Gatsby", Description: "Classic American novel", Price: 12, Category: "Books", Brand: "Scribner", Stock: 150, Images: img("1512820790803-83ca734da794")},
	{Name: "Python Crash Course", Description: "Learn Python programming", Price: 35, Category: "Books", Brand: "No Starch Press", Stock: 85, Images: img("1532012197267-da84d127e765")},

	{Name: "LEGO Classic Set", Description: "Creative building blocks", Price: 39, Category: "Toys", Brand: "LEGO", Stock: 120, Images: img("1587654780291-39c9404d746b")},
	{Name: "Barbie Doll", Description: "Fashion doll with accessories", Price: 25, Category: "Toys", Brand: "Mattel", Stock: 90, Images: img("1613682927083-e8c9cc59a44b")},
	{Name: "RC Car", Description: "Remote control racing car", Price: 79, Category: "Toys", Brand: "Traxxas", Stock: 25, Images: img("1594787318286-3d835c1d207f")},
}

// Products returns a fresh copy of the demo catalogue.
func Products() []domain.ProductInput {
	out := make([]domain.ProductInput, len(catalogue))
	for i, p := range catalogue {
		p.Images = append([]string(nil), p.Images...)
		out[i] = p
	}
	return out
}

// Categories returns the distinct categories of the demo catalogue, sorted.
func Categories() []string {
	seen := map[string]bool{}
	var out []string
	for _, p := range catalogue {
		if !seen[p.Category] {
			seen[p.Category] = true
			out = append(out, p.Category)
		}
	}
	sort.Strings(out)
	return out
}

type ProductWriter interface {
	CreateProduct(ctx context.Context, in domain.ProductInput) (*domain.Product, error)
}

// Apply creates every demo product one by one through w. It is the fallback
// for deployments that do not expose the seed endpoint.
func Apply(ctx context.Context, w ProductWriter) (int, error) {
	created := 0
	for _, p := range Products() {
		if _, err := w.CreateProduct(ctx, p); err != nil {
			return created, fmt.Errorf("create product %s: %w", p.Name, err)
		}
		created++
	}
	return created, nil
}
