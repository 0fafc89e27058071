package order

// Free-shipping threshold and the flat fee charged below it. These
// mirror the server's checkout arithmetic so totals can be shown before
// submission; the server remains authoritative.
const (
	FreeShippingThreshold = 199.0
	StandardShippingFee   = 10.0
)

// ShippingFee returns the fee for a cart total.
func ShippingFee(totalAmount float64) float64 {
	if totalAmount >= FreeShippingThreshold {
		return 0
	}
	return StandardShippingFee
}

// PayableAmount computes the amount actually charged:
// total - discount + shipping fee.
func PayableAmount(totalAmount, discountAmount float64) float64 {
	return totalAmount - discountAmount + ShippingFee(totalAmount)
}
