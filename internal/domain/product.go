package domain

// =============================================================================
// PRODUCT DOMAIN TYPES
// =============================================================================

// Product is the catalog view of an item as served by GET /products/:id.
// Stock is the external truth that cart callers check before mutating.
type Product struct {
	ID       string `json:"_id"`
	Title    string `json:"title"`
	Image    string `json:"image"`
	Price    int64  `json:"price"`
	Stock    int    `json:"stock"`
	Category string `json:"category,omitempty"`
	Brand    string `json:"brand,omitempty"`
}

// InStock reports whether at least one unit is available.
func (p Product) InStock() bool {
	return p.Stock > 0
}

// CanFulfil reports whether quantity units can be bought.
func (p Product) CanFulfil(quantity int) bool {
	return quantity <= p.Stock
}
