package utils

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
)

func TestFormatCurrencyBRL(t *testing.T) {
	tests := []struct {
		name   string
		amount string
		want   string
	}{
		{name: "zero", amount: "0", want: "R$ 0,00"},
		{name: "cents", amount: "5.5", want: "R$ 5,50"},
		{name: "thousands", amount: "1234.56", want: "R$ 1.234,56"},
		{name: "millions", amount: "1000000", want: "R$ 1.000.000,00"},
		{name: "rounding", amount: "25.005", want: "R$ 25,01"},
		{name: "negative", amount: "-12.3", want: "-R$ 12,30"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, FormatCurrencyBRL(decimal.RequireFromString(tt.amount)))
		})
	}
}
