package apitest

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"storefront-client/internal/domain"
)

type cartItemBody struct {
	ProductID string `json:"product_id"`
	Quantity  *int   `json:"quantity"`
}

// cartLocked returns the user's cart, creating an empty one on first use.
func (s *Server) cartLocked(userID string) *domain.Cart {
	c, ok := s.carts[userID]
	if !ok {
		now := domain.NewTimestamp(time.Now())
		c = &domain.Cart{
			ID:        uuid.NewString(),
			UserID:    userID,
			Items:     []domain.CartItem{},
			CreatedAt: now,
			UpdatedAt: &now,
		}
		s.carts[userID] = c
	}
	return c
}

func touch(c *domain.Cart) {
	total := 0.0
	for _, it := range c.Items {
		total += it.Subtotal
	}
	c.TotalAmount = total
	now := domain.NewTimestamp(time.Now())
	c.UpdatedAt = &now
}

// Cart returns a copy of the user's cart, if one exists.
func (s *Server) Cart(userID string) (*domain.Cart, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	c, ok := s.carts[userID]
	return c.Clone(), ok
}

func (s *Server) getCart(c *gin.Context) {
	user := currentUser(c)
	s.mu.Lock()
	out := s.cartLocked(user.ID).Clone()
	s.mu.Unlock()
	c.JSON(http.StatusOK, out)
}

func positiveQuantity(c *gin.Context, q *int) bool {
	if q == nil {
		abortValidation(c, fieldError("quantity", "field required", "value_error.missing"))
		return false
	}
	if *q <= 0 {
		abortValidation(c, fieldError("quantity", "ensure this value is greater than 0", "value_error.number.not_gt"))
		return false
	}
	return true
}

func (s *Server) addCartItem(c *gin.Context) {
	var in cartItemBody
	if !bindBody(c, &in) {
		return
	}
	if in.ProductID == "" {
		abortValidation(c, fieldError("product_id", "field required", "value_error.missing"))
		return
	}
	if !positiveQuantity(c, in.Quantity) {
		return
	}
	qty := *in.Quantity
	user := currentUser(c)

	s.mu.Lock()
	product, ok := s.products[in.ProductID]
	if !ok {
		s.mu.Unlock()
		abortDetail(c, http.StatusNotFound, "Product not found")
		return
	}
	if product.Stock < qty {
		s.mu.Unlock()
		abortDetail(c, http.StatusBadRequest, "Insufficient stock")
		return
	}
	cart := s.cartLocked(user.ID)
	found := false
	for i := range cart.Items {
		if cart.Items[i].ProductID == in.ProductID {
			cart.Items[i].Quantity += qty
			cart.Items[i].Subtotal = float64(cart.Items[i].Quantity) * product.Price
			found = true
			break
		}
	}
	if !found {
		cart.Items = append(cart.Items, domain.CartItem{
			ProductID: in.ProductID,
			Quantity:  qty,
			Price:     product.Price,
			Subtotal:  float64(qty) * product.Price,
		})
	}
	touch(cart)
	out := cart.Clone()
	s.mu.Unlock()

	c.JSON(http.StatusOK, out)
}

func (s *Server) updateCartItem(c *gin.Context) {
	var in cartItemBody
	if !bindBody(c, &in) {
		return
	}
	if !positiveQuantity(c, in.Quantity) {
		return
	}
	productID := c.Param("product_id")
	user := currentUser(c)

	s.mu.Lock()
	cart := s.cartLocked(user.ID)
	found := false
	for i := range cart.Items {
		if cart.Items[i].ProductID == productID {
			cart.Items[i].Quantity = *in.Quantity
			cart.Items[i].Subtotal = float64(*in.Quantity) * cart.Items[i].Price
			found = true
			break
		}
	}
	if found {
		touch(cart)
	}
	out := cart.Clone()
	s.mu.Unlock()

	if !found {
		abortDetail(c, http.StatusNotFound, "Item not found in cart")
		return
	}
	c.JSON(http.StatusOK, out)
}

func (s *Server) removeCartItem(c *gin.Context) {
	productID := c.Param("product_id")
	user := currentUser(c)

	s.mu.Lock()
	cart := s.cartLocked(user.ID)
	kept := make([]domain.CartItem, 0, len(cart.Items))
	for _, it := range cart.Items {
		if it.ProductID != productID {
			kept = append(kept, it)
		}
	}
	found := len(kept) != len(cart.Items)
	if found {
		cart.Items = kept
		touch(cart)
	}
	out := cart.Clone()
	s.mu.Unlock()

	if !found {
		abortDetail(c, http.StatusNotFound, "Item not found in cart")
		return
	}
	c.JSON(http.StatusOK, out)
}

func (s *Server) clearCart(c *gin.Context) {
	user := currentUser(c)
	s.mu.Lock()
	cart := s.cartLocked(user.ID)
	cart.Items = []domain.CartItem{}
	touch(cart)
	s.mu.Unlock()
	c.JSON(http.StatusOK, gin.H{"message": "Cart cleared successfully"})
}

func (s *Server) checkoutCart(c *gin.Context) {
	user := currentUser(c)
	s.mu.Lock()
	cart := s.cartLocked(user.ID).Clone()
	s.mu.Unlock()
	if len(cart.Items) == 0 {
		abortDetail(c, http.StatusBadRequest, "Cart is empty")
		return
	}
	c.JSON(http.StatusOK, domain.CheckoutPreview{
		Message:     "Checkout initiated",
		CartItems:   cart.Items,
		TotalAmount: cart.TotalAmount,
	})
}
