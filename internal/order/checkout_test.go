package order

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestShippingFee(t *testing.T) {
	tests := []struct {
		name  string
		total float64
		want  float64
	}{
		{"empty order", 0, StandardShippingFee},
		{"below threshold", 150, StandardShippingFee},
		{"just below threshold", 198.99, StandardShippingFee},
		{"at threshold", 199, 0},
		{"above threshold", 200, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.InDelta(t, tt.want, ShippingFee(tt.total), 1e-9)
		})
	}
}

func TestPayableAmount(t *testing.T) {
	tests := []struct {
		name     string
		total    float64
		discount float64
		want     float64
	}{
		{"fee applies below threshold", 150, 0, 160},
		{"free shipping at threshold", 199, 0, 199},
		{"free shipping above threshold", 200, 0, 200},
		{"discount does not change fee tier", 210, 20, 190},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.InDelta(t, tt.want, PayableAmount(tt.total, tt.discount), 1e-9)
		})
	}
}
