package model

import "time"

// OrderStatus enumerates the server-side order state machine:
// pending -> paid -> shipped -> completed, with pending -> cancelled as
// the only terminal deviation. The client never transitions an order
// locally; it only requests transitions and reflects the server reply.
type OrderStatus string

const (
	OrderStatusPending   OrderStatus = "pending"
	OrderStatusPaid      OrderStatus = "paid"
	OrderStatusShipped   OrderStatus = "shipped"
	OrderStatusCompleted OrderStatus = "completed"
	OrderStatusCancelled OrderStatus = "cancelled"
)

// Valid reports whether s is a known order status.
func (s OrderStatus) Valid() bool {
	switch s {
	case OrderStatusPending, OrderStatusPaid, OrderStatusShipped,
		OrderStatusCompleted, OrderStatusCancelled:
		return true
	}
	return false
}

// CanCancel reports whether a cancel request is worth sending. The
// server enforces the same rule; this only guards the obvious case.
func (s OrderStatus) CanCancel() bool {
	return s == OrderStatusPending
}

// CanPay reports whether a pay request is worth sending.
func (s OrderStatus) CanPay() bool {
	return s == OrderStatusPending
}

// Terminal reports whether no further transitions are possible.
func (s OrderStatus) Terminal() bool {
	return s == OrderStatusCompleted || s == OrderStatusCancelled
}

// OrderItem is a line in an order. Name, image and price are frozen at
// order-creation time, independent of the live product record.
type OrderItem struct {
	ID           string  `json:"id"`
	Product      string  `json:"product"`
	ProductName  string  `json:"product_name"`
	ProductImage string  `json:"product_image,omitempty"`
	Price        float64 `json:"price"`
	Quantity     int     `json:"quantity"`
	Subtotal     float64 `json:"subtotal"`
}

// Order represents a customer order as returned by the backend.
type Order struct {
	ID             string      `json:"id"`
	OrderNo        string      `json:"order_no"`
	Address        Address     `json:"address"`
	TotalAmount    float64     `json:"total_amount"`
	DiscountAmount float64     `json:"discount_amount"`
	ShippingFee    float64     `json:"shipping_fee"`
	ActualAmount   float64     `json:"actual_amount"`
	Status         OrderStatus `json:"status"`
	StatusDisplay  string      `json:"status_display,omitempty"`
	Remarks        string      `json:"remarks,omitempty"`
	Items          []OrderItem `json:"items"`
	PaidAt         *time.Time  `json:"paid_at,omitempty"`
	ShippedAt      *time.Time  `json:"shipped_at,omitempty"`
	CompletedAt    *time.Time  `json:"completed_at,omitempty"`
	CancelledAt    *time.Time  `json:"cancelled_at,omitempty"`
	CreatedAt      time.Time   `json:"created_at"`
}

// CreateOrderRequest is the payload for POST /orders/create/. The order
// is assembled server-side from the current cart snapshot.
type CreateOrderRequest struct {
	AddressID string `json:"address_id"`
	Remarks   string `json:"remarks,omitempty"`
}

// PaymentRequest is the payload for POST /orders/{id}/pay/.
type PaymentRequest struct {
	PaymentMethod string `json:"payment_method"`
}

// PaymentReceipt is the result of a simulated payment.
type PaymentReceipt struct {
	Success   bool       `json:"success"`
	Message   string     `json:"message,omitempty"`
	OrderID   string     `json:"order_id"`
	OrderNo   string     `json:"order_no"`
	Amount    float64    `json:"amount"`
	PaidAt    *time.Time `json:"paid_at,omitempty"`
	PaymentNo string     `json:"payment_no,omitempty"`
}
