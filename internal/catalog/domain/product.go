package domain

// Product is a read-only catalog entry sourced from the remote catalog.
type Product struct {
	ID    string  `json:"id"`
	Title string  `json:"title"`
	Price float64 `json:"price"`
	Image string  `json:"image"`
}
