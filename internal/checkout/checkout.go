// Package checkout turns the cart snapshot into an order.
package checkout

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"storefront-client/internal/cart"
	"storefront-client/internal/domain"
)

var ErrEmptyCart = errors.New("cart is empty")

const (
	DefaultShippingPrice = 10
	DefaultPaymentMethod = "credit_card"
)

type CartSource interface {
	Snapshot() cart.State
	Clear(ctx context.Context)
}

type OrderAPI interface {
	CreateOrder(ctx context.Context, in domain.OrderCreate) (*domain.Order, error)
}

type Service struct {
	cart          CartSource
	orders        OrderAPI
	shippingPrice decimal.Decimal
	paymentMethod string
	logger        *zap.Logger
}

type Option func(*Service)

func WithShippingPrice(price float64) Option {
	return func(s *Service) { s.shippingPrice = decimal.NewFromFloat(price) }
}

func WithPaymentMethod(method string) Option {
	return func(s *Service) {
		if method != "" {
			s.paymentMethod = method
		}
	}
}

func WithLogger(logger *zap.Logger) Option {
	return func(s *Service) {
		if logger != nil {
			s.logger = logger
		}
	}
}

func New(c CartSource, orders OrderAPI, opts ...Option) *Service {
	s := &Service{
		cart:          c,
		orders:        orders,
		shippingPrice: decimal.NewFromInt(DefaultShippingPrice),
		paymentMethod: DefaultPaymentMethod,
		logger:        zap.NewNop(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Build assembles the order body from the current cart snapshot without
// sending it.
func (s *Service) Build(addr domain.ShippingAddress) (domain.OrderCreate, error) {
	if err := ValidateAddress(addr); err != nil {
		return domain.OrderCreate{}, err
	}
	snap := s.cart.Snapshot()
	if snap.Cart == nil || len(snap.Cart.Items) == 0 {
		return domain.OrderCreate{}, ErrEmptyCart
	}

	items := make([]domain.OrderItem, 0, len(snap.Cart.Items))
	for _, it := range snap.Cart.Items {
		items = append(items, domain.OrderItem{
			ProductID: it.ProductID,
			Name:      "Product " + it.ProductID,
			Quantity:  it.Quantity,
			Price:     it.Price,
		})
	}

	itemsPrice := decimal.NewFromFloat(snap.Cart.TotalAmount)
	total := itemsPrice.Add(s.shippingPrice)
	return domain.OrderCreate{
		OrderItems:      items,
		ShippingAddress: addr,
		PaymentMethod:   s.paymentMethod,
		ItemsPrice:      itemsPrice.InexactFloat64(),
		ShippingPrice:   s.shippingPrice.InexactFloat64(),
		TotalPrice:      total.Round(2).InexactFloat64(),
	}, nil
}

// PlaceOrder posts the order and, once the API accepts it, clears the cart.
func (s *Service) PlaceOrder(ctx context.Context, addr domain.ShippingAddress) (*domain.Order, error) {
	in, err := s.Build(addr)
	if err != nil {
		return nil, err
	}
	order, err := s.orders.CreateOrder(ctx, in)
	if err != nil {
		return nil, fmt.Errorf("create order: %w", err)
	}
	s.logger.Info("order placed",
		zap.String("order_id", order.ID),
		zap.Int("lines", len(in.OrderItems)),
		zap.Float64("total_price", in.TotalPrice))
	s.cart.Clear(ctx)
	return order, nil
}

type fieldMin struct {
	name  string
	value string
	min   int
}

// ValidateAddress applies the minimum lengths the storefront checkout form
// enforces. The error wraps domain.ErrValidation and names every short field.
func ValidateAddress(addr domain.ShippingAddress) error {
	fields := []fieldMin{
		{"full_name", addr.FullName, 3},
		{"address", addr.Address, 5},
		{"city", addr.City, 2},
		{"postal_code", addr.PostalCode, 3},
		{"country", addr.Country, 2},
	}
	var short []string
	for _, f := range fields {
		if utf8.RuneCountInString(strings.TrimSpace(f.value)) < f.min {
			short = append(short, fmt.Sprintf("%s must be at least %d characters", f.name, f.min))
		}
	}
	if len(short) > 0 {
		return fmt.Errorf("%w: %s", domain.ErrValidation, strings.Join(short, "; "))
	}
	return nil
}
