package domain

type OrderStatus string

const (
	OrderPending    OrderStatus = "pending"
	OrderProcessing OrderStatus = "processing"
	OrderShipped    OrderStatus = "shipped"
	OrderDelivered  OrderStatus = "delivered"
	OrderCancelled  OrderStatus = "cancelled"
)

type OrderItem struct {
	ProductID string  `json:"product_id"`
	Name      string  `json:"name"`
	Quantity  int     `json:"quantity"`
	Price     float64 `json:"price"`
	Image     string  `json:"image,omitempty"`
}

type ShippingAddress struct {
	FullName   string `json:"full_name"`
	Address    string `json:"address"`
	City       string `json:"city"`
	PostalCode string `json:"postal_code"`
	Country    string `json:"country"`
	PhoneNo    string `json:"phone_no,omitempty"`
}

// OrderCreate is the body of POST /orders/.
type OrderCreate struct {
	OrderItems      []OrderItem     `json:"order_items"`
	ShippingAddress ShippingAddress `json:"shipping_address"`
	PaymentMethod   string          `json:"payment_method"`
	ItemsPrice      float64         `json:"items_price"`
	ShippingPrice   float64         `json:"shipping_price"`
	TotalPrice      float64         `json:"total_price"`
}

type Order struct {
	ID              string          `json:"id"`
	UserID          string          `json:"user_id"`
	Status          OrderStatus     `json:"status"`
	OrderItems      []OrderItem     `json:"order_items"`
	ShippingAddress ShippingAddress `json:"shipping_address"`
	PaymentMethod   string          `json:"payment_method"`
	ItemsPrice      float64         `json:"items_price"`
	ShippingPrice   float64         `json:"shipping_price"`
	TotalPrice      float64         `json:"total_price"`
	IsPaid          bool            `json:"is_paid"`
	PaidAt          *Timestamp      `json:"paid_at,omitempty"`
	IsDelivered     bool            `json:"is_delivered"`
	DeliveredAt     *Timestamp      `json:"delivered_at,omitempty"`
	CreatedAt       Timestamp       `json:"created_at"`
}
