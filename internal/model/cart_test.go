package model

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCart_ComputeTotals(t *testing.T) {
	tests := []struct {
		name       string
		cart       Cart
		wantCount  int
		wantAmount float64
	}{
		{
			name:       "empty cart",
			cart:       Cart{},
			wantCount:  0,
			wantAmount: 0,
		},
		{
			name: "single line",
			cart: Cart{Items: []CartItem{
				{Product: Product{Price: 19.99}, Quantity: 3},
			}},
			wantCount:  3,
			wantAmount: 59.97,
		},
		{
			name: "multiple lines",
			cart: Cart{Items: []CartItem{
				{Product: Product{Price: 50}, Quantity: 2},
				{Product: Product{Price: 30}, Quantity: 1},
			}},
			wantCount:  3,
			wantAmount: 130,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			count, amount := tt.cart.ComputeTotals()
			assert.Equal(t, tt.wantCount, count)
			assert.InDelta(t, tt.wantAmount, amount, 1e-9)
		})
	}
}
