package model

// CartItem is a line in the server-side cart. The embedded product is a
// snapshot taken at fetch time; stock and price come from it, not from
// any separately cached product record.
type CartItem struct {
	ID       string  `json:"id"`
	Product  Product `json:"product"`
	Quantity int     `json:"quantity"`
	Subtotal float64 `json:"subtotal"`
}

// Cart is the server cart summary: the ordered item list plus totals
// computed by the server. The client treats the whole value as
// replaceable by the next successful fetch.
type Cart struct {
	Items       []CartItem `json:"items"`
	TotalItems  int        `json:"total_items"`
	TotalAmount float64    `json:"total_amount"`
}

// ComputeTotals recomputes item count and amount from the item lines.
// Invariant: the server-reported totals must equal these sums.
func (c *Cart) ComputeTotals() (totalItems int, totalAmount float64) {
	for _, item := range c.Items {
		totalItems += item.Quantity
		totalAmount += float64(item.Quantity) * item.Product.Price
	}
	return totalItems, totalAmount
}

// AddItemRequest is the payload for POST /cart/items/.
type AddItemRequest struct {
	ProductID string `json:"product_id"`
	Quantity  int    `json:"quantity"`
}

// UpdateItemRequest is the payload for PATCH /cart/items/{id}/.
type UpdateItemRequest struct {
	Quantity int `json:"quantity"`
}
