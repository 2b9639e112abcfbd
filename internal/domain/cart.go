package domain

// Cart mirrors the server-side cart of the authenticated user. Totals are
// computed by the API and never recomputed locally.
type Cart struct {
	ID          string     `json:"id,omitempty"`
	UserID      string     `json:"user_id"`
	Items       []CartItem `json:"items"`
	TotalAmount float64    `json:"total_amount"`
	CreatedAt   Timestamp  `json:"created_at"`
	UpdatedAt   *Timestamp `json:"updated_at,omitempty"`
}

type CartItem struct {
	ProductID string  `json:"product_id"`
	Quantity  int     `json:"quantity"`
	Price     float64 `json:"price"`
	Subtotal  float64 `json:"subtotal"`
}

// Clone returns a deep copy so snapshots never share the items slice.
func (c *Cart) Clone() *Cart {
	if c == nil {
		return nil
	}
	out := *c
	if c.Items != nil {
		out.Items = make([]CartItem, len(c.Items))
		copy(out.Items, c.Items)
	}
	if c.UpdatedAt != nil {
		updated := *c.UpdatedAt
		out.UpdatedAt = &updated
	}
	return &out
}

// ItemCount sums quantities across lines.
func (c *Cart) ItemCount() int {
	if c == nil {
		return 0
	}
	n := 0
	for _, item := range c.Items {
		n += item.Quantity
	}
	return n
}

// CheckoutPreview is the response of POST /cart/checkout.
type CheckoutPreview struct {
	Message     string     `json:"message"`
	CartItems   []CartItem `json:"cart_items"`
	TotalAmount float64    `json:"total_amount"`
}
