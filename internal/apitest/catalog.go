package apitest

import (
	"errors"
	"fmt"
	"net/http"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"storefront-client/internal/domain"
	"storefront-client/internal/seed"
)

// AddProduct inserts a product directly and returns it.
func (s *Server) AddProduct(in domain.ProductInput) domain.Product {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.addProductLocked(in)
}

func (s *Server) addProductLocked(in domain.ProductInput) domain.Product {
	created := domain.NewTimestamp(time.Now())
	images := append([]string{}, in.Images...)
	p := &domain.Product{
		ID:          uuid.NewString(),
		Name:        in.Name,
		Description: in.Description,
		Price:       in.Price,
		Category:    in.Category,
		Brand:       in.Brand,
		Stock:       in.Stock,
		Images:      images,
		CreatedAt:   &created,
	}
	s.products[p.ID] = p
	s.order = append(s.order, p.ID)
	return *p
}

// SetStock overrides the stock level of a product.
func (s *Server) SetStock(productID string, stock int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if p, ok := s.products[productID]; ok {
		p.Stock = stock
	}
}

// Product returns the current state of a product.
func (s *Server) Product(productID string) (domain.Product, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	p, ok := s.products[productID]
	if !ok {
		return domain.Product{}, false
	}
	return *p, true
}

func (s *Server) listProducts(c *gin.Context) {
	skip, limit := 0, 100
	var problems []validationEntry
	if v := c.Query("skip"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 0 {
			problems = append(problems, queryError("skip", "ensure this value is greater than or equal to 0", "value_error.number.not_ge"))
		}
		skip = n
	}
	if v := c.Query("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 1 || n > 1000 {
			problems = append(problems, queryError("limit", "ensure this value is between 1 and 1000", "value_error.number"))
		}
		limit = n
	}
	if len(problems) > 0 {
		abortValidation(c, problems...)
		return
	}
	category := c.Query("category")
	search := strings.ToLower(c.Query("search"))

	s.mu.Lock()
	var matched []domain.Product
	for _, id := range s.order {
		p := s.products[id]
		if search != "" {
			// Search ignores category and paging.
			if strings.Contains(strings.ToLower(p.Name), search) || strings.Contains(strings.ToLower(p.Description), search) {
				matched = append(matched, *p)
			}
			continue
		}
		if category != "" && p.Category != category {
			continue
		}
		matched = append(matched, *p)
	}
	s.mu.Unlock()

	if search == "" {
		matched = page(matched, skip, limit)
	}
	if matched == nil {
		matched = []domain.Product{}
	}
	c.JSON(http.StatusOK, matched)
}

func page(items []domain.Product, skip, limit int) []domain.Product {
	if skip >= len(items) {
		return nil
	}
	items = items[skip:]
	if limit < len(items) {
		items = items[:limit]
	}
	return items
}

func (s *Server) getProduct(c *gin.Context) {
	p, ok := s.Product(c.Param("id"))
	if !ok {
		abortDetail(c, http.StatusNotFound, "Product not found")
		return
	}
	c.JSON(http.StatusOK, p)
}

func validateProduct(in domain.ProductInput) []validationEntry {
	var problems []validationEntry
	if n := len(in.Name); n < 1 || n > 200 {
		problems = append(problems, fieldError("name", "ensure this value has between 1 and 200 characters", "value_error.any_str"))
	}
	if in.Price <= 0 {
		problems = append(problems, fieldError("price", "ensure this value is greater than 0", "value_error.number.not_gt"))
	}
	if in.Stock < 0 {
		problems = append(problems, fieldError("stock", "ensure this value is greater than or equal to 0", "value_error.number.not_ge"))
	}
	return problems
}

func (s *Server) createProduct(c *gin.Context) {
	var in domain.ProductInput
	if !bindBody(c, &in) {
		return
	}
	if problems := validateProduct(in); len(problems) > 0 {
		abortValidation(c, problems...)
		return
	}
	c.JSON(http.StatusOK, s.AddProduct(in))
}

func (s *Server) updateProduct(c *gin.Context) {
	var in domain.ProductInput
	if !bindBody(c, &in) {
		return
	}
	if problems := validateProduct(in); len(problems) > 0 {
		abortValidation(c, problems...)
		return
	}
	s.mu.Lock()
	p, ok := s.products[c.Param("id")]
	if ok {
		p.Name = in.Name
		p.Description = in.Description
		p.Price = in.Price
		p.Category = in.Category
		p.Brand = in.Brand
		p.Stock = in.Stock
		p.Images = append([]string{}, in.Images...)
	}
	var out domain.Product
	if ok {
		out = *p
	}
	s.mu.Unlock()
	if !ok {
		abortDetail(c, http.StatusNotFound, "Product not found")
		return
	}
	c.JSON(http.StatusOK, out)
}

func (s *Server) deleteProduct(c *gin.Context) {
	id := c.Param("id")
	s.mu.Lock()
	_, ok := s.products[id]
	if ok {
		delete(s.products, id)
		s.order = removeID(s.order, id)
	}
	s.mu.Unlock()
	if !ok {
		abortDetail(c, http.StatusNotFound, "Product not found")
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "product deleted successfully"})
}

var errCatalogueNotEmpty = errors.New("catalogue not empty")

// SeedCatalogue loads the demo catalogue. It fails when products exist.
func (s *Server) SeedCatalogue() ([]domain.Product, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if n := len(s.products); n > 0 {
		return nil, fmt.Errorf("%w: %d products", errCatalogueNotEmpty, n)
	}
	var out []domain.Product
	for _, in := range seed.Products() {
		out = append(out, s.addProductLocked(in))
	}
	return out, nil
}

func (s *Server) seedProducts(c *gin.Context) {
	s.mu.Lock()
	existing := len(s.products)
	s.mu.Unlock()
	if existing > 0 {
		abortDetail(c, http.StatusBadRequest, fmt.Sprintf("Database already contains %d products. Clear them first if you want to re-seed.", existing))
		return
	}
	products, err := s.SeedCatalogue()
	if err != nil {
		abortDetail(c, http.StatusBadRequest, err.Error())
		return
	}
	ids := make([]string, 0, len(products))
	for _, p := range products {
		ids = append(ids, p.ID)
	}
	c.JSON(http.StatusOK, gin.H{
		"message":      fmt.Sprintf("Successfully seeded %d products", len(ids)),
		"inserted_ids": ids,
		"categories":   seed.Categories(),
	})
}

func (s *Server) clearProducts(c *gin.Context) {
	s.mu.Lock()
	n := len(s.products)
	s.products = map[string]*domain.Product{}
	s.order = nil
	s.mu.Unlock()
	c.JSON(http.StatusOK, gin.H{
		"message":       fmt.Sprintf("Successfully cleared %d products", n),
		"deleted_count": n,
	})
}

func (s *Server) countProducts(c *gin.Context) {
	s.mu.Lock()
	n := len(s.products)
	s.mu.Unlock()
	c.JSON(http.StatusOK, gin.H{"total_products": n})
}

func (s *Server) listCategories(c *gin.Context) {
	s.mu.Lock()
	seen := map[string]bool{}
	categories := []string{}
	for _, p := range s.products {
		if !seen[p.Category] {
			seen[p.Category] = true
			categories = append(categories, p.Category)
		}
	}
	s.mu.Unlock()
	sort.Strings(categories)
	c.JSON(http.StatusOK, gin.H{"categories": categories, "count": len(categories)})
}

func removeID(ids []string, id string) []string {
	out := ids[:0]
	for _, v := range ids {
		if v != id {
			out = append(out, v)
		}
	}
	return out
}
