package domain

type Product struct {
	ID          string     `json:"id"`
	Name        string     `json:"name"`
	Description string     `json:"description"`
	Price       float64    `json:"price"`
	Category    string     `json:"category"`
	Brand       string     `json:"brand,omitempty"`
	Stock       int        `json:"stock"`
	Images      []string   `json:"images"`
	Rating      float64    `json:"rating"`
	NumReviews  int        `json:"num_reviews"`
	CreatedAt   *Timestamp `json:"created_at,omitempty"`
}

// ProductInput is the admin payload for creating or replacing a product.
type ProductInput struct {
	Name        string   `json:"name"`
	Description string   `json:"description"`
	Price       float64  `json:"price"`
	Category    string   `json:"category"`
	Brand       string   `json:"brand,omitempty"`
	Stock       int      `json:"stock"`
	Images      []string `json:"images"`
}

// ProductQuery filters GET /products. Zero values are omitted from the query string.
type ProductQuery struct {
	Skip     int
	Limit    int
	Category string
	Search   string
}
