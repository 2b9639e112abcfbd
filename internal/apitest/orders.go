package apitest

import (
	"fmt"
	"net/http"
	"sort"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"storefront-client/internal/domain"
)

func validOrderStatus(s domain.OrderStatus) bool {
	switch s {
	case domain.OrderPending, domain.OrderProcessing, domain.OrderShipped, domain.OrderDelivered, domain.OrderCancelled:
		return true
	}
	return false
}

// Orders returns copies of every order placed by userID, oldest first.
func (s *Server) Orders(userID string) []domain.Order {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.ordersLocked(userID)
}

func (s *Server) ordersLocked(userID string) []domain.Order {
	out := []domain.Order{}
	for _, o := range s.orders {
		if o.UserID == userID {
			out = append(out, *o)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt.Time) })
	return out
}

func (s *Server) createOrder(c *gin.Context) {
	var in domain.OrderCreate
	if !bindBody(c, &in) {
		return
	}
	if len(in.OrderItems) == 0 {
		abortValidation(c, fieldError("order_items", "ensure this value has at least 1 items", "value_error.list.min_items"))
		return
	}
	user := currentUser(c)

	s.mu.Lock()
	defer s.mu.Unlock()

	for _, item := range in.OrderItems {
		if _, ok := s.products[item.ProductID]; !ok {
			abortDetail(c, http.StatusNotFound, fmt.Sprintf("Product %s not found", item.ProductID))
			return
		}
	}

	order := &domain.Order{
		ID:              uuid.NewString(),
		UserID:          user.ID,
		Status:          domain.OrderPending,
		OrderItems:      in.OrderItems,
		ShippingAddress: in.ShippingAddress,
		PaymentMethod:   in.PaymentMethod,
		ItemsPrice:      in.ItemsPrice,
		ShippingPrice:   in.ShippingPrice,
		TotalPrice:      in.TotalPrice,
		CreatedAt:       domain.NewTimestamp(time.Now()),
	}
	s.orders[order.ID] = order

	// Stock is taken line by line. A short line cancels the order; stock
	// already taken by earlier lines is not returned.
	for _, item := range in.OrderItems {
		p := s.products[item.ProductID]
		if p.Stock < item.Quantity {
			order.Status = domain.OrderCancelled
			abortDetail(c, http.StatusBadRequest, fmt.Sprintf("Insufficient stock for product %s. Order cancelled.", item.ProductID))
			return
		}
		p.Stock -= item.Quantity
	}
	c.JSON(http.StatusOK, *order)
}

func (s *Server) listOrders(c *gin.Context) {
	user := currentUser(c)
	c.JSON(http.StatusOK, s.Orders(user.ID))
}

func (s *Server) getOrder(c *gin.Context) {
	user := currentUser(c)
	s.mu.Lock()
	o, ok := s.orders[c.Param("id")]
	var out domain.Order
	if ok {
		out = *o
	}
	s.mu.Unlock()
	if !ok {
		abortDetail(c, http.StatusNotFound, "Order not found")
		return
	}
	if out.UserID != user.ID && !user.IsAdmin {
		abortDetail(c, http.StatusForbidden, "Not authorized to view this order")
		return
	}
	c.JSON(http.StatusOK, out)
}

func (s *Server) updateOrderStatus(c *gin.Context) {
	status := domain.OrderStatus(c.Query("new_status"))
	if !validOrderStatus(status) {
		abortValidation(c, queryError("new_status", "invalid order status", "value_error.enum"))
		return
	}
	s.mu.Lock()
	o, ok := s.orders[c.Param("id")]
	if ok {
		o.Status = status
		if status == domain.OrderDelivered {
			now := domain.NewTimestamp(time.Now())
			o.IsDelivered = true
			o.DeliveredAt = &now
		}
	}
	s.mu.Unlock()
	if !ok {
		abortDetail(c, http.StatusNotFound, "Order not found")
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Order status updated successfully"})
}

func (s *Server) updateOrderPayment(c *gin.Context) {
	paid, err := strconv.ParseBool(c.Query("is_paid"))
	if err != nil {
		abortValidation(c, queryError("is_paid", "value could not be parsed to a boolean", "type_error.bool"))
		return
	}
	s.mu.Lock()
	o, ok := s.orders[c.Param("id")]
	if ok {
		o.IsPaid = paid
		o.PaidAt = nil
		if paid {
			now := domain.NewTimestamp(time.Now())
			o.PaidAt = &now
		}
	}
	s.mu.Unlock()
	if !ok {
		abortDetail(c, http.StatusNotFound, "Order not found")
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Payment status updated successfully"})
}
