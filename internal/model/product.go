package model

// Product represents a product in the catalogue.
type Product struct {
	ID              string         `json:"id"`
	Name            string         `json:"name"`
	Description     string         `json:"description,omitempty"`
	Price           float64        `json:"price"`
	OriginalPrice   *float64       `json:"original_price,omitempty"`
	DiscountPercent float64        `json:"discount_percent"`
	Stock           int            `json:"stock"`
	Sales           int            `json:"sales"`
	Category        string         `json:"category"`
	CategoryName    string         `json:"category_name,omitempty"`
	MainImage       string         `json:"main_image"`
	Images          []ProductImage `json:"images,omitempty"`
	IsFeatured      bool           `json:"is_featured"`
	InStock         bool           `json:"in_stock"`
}

// ProductImage is an additional gallery image of a product.
type ProductImage struct {
	ID      string `json:"id"`
	Image   string `json:"image"`
	Order   int    `json:"order"`
	AltText string `json:"alt_text,omitempty"`
}

// Category represents a product category.
type Category struct {
	ID           string     `json:"id"`
	Name         string     `json:"name"`
	Parent       string     `json:"parent,omitempty"`
	Image        string     `json:"image,omitempty"`
	Icon         string     `json:"icon,omitempty"`
	Children     []Category `json:"children,omitempty"`
	ProductCount int        `json:"product_count,omitempty"`
}

// Page is the paginated list envelope returned by list endpoints.
type Page[T any] struct {
	Count    int     `json:"count"`
	Next     *string `json:"next"`
	Previous *string `json:"previous"`
	Results  []T     `json:"results"`
}
