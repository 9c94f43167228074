package domain

type Product struct {
	ID          string   `json:"id"`
	Name        string   `json:"name"`
	Description string   `json:"description"`
	Price       int64    `json:"price"`
	Image       string   `json:"image"`
	CategoryID  string   `json:"category_id"`
	Tags        []string `json:"tags"`
	Available   bool     `json:"available"`
	Featured    bool     `json:"featured"`
	Rating      *float64 `json:"rating,omitempty"`
	Unit        string   `json:"unit"`
}

type Category struct {
	ID           string `json:"id"`
	Name         string `json:"name"`
	Description  string `json:"description,omitempty"`
	Icon         string `json:"icon,omitempty"`
	DisplayOrder int    `json:"display_order"`
	Active       bool   `json:"is_active"`
}

// CartLine pairs a product with a positive quantity.
type CartLine struct {
	Product  Product `json:"product"`
	Quantity int     `json:"quantity"`
}

func (l CartLine) Subtotal() int64 {
	return l.Product.Price * int64(l.Quantity)
}
