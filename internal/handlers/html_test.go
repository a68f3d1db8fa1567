package handlers

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
)

func TestResolvePage(t *testing.T) {
	assert.Equal(t, 1, resolvePage("", 3))
	assert.Equal(t, 1, resolvePage("x", 3))
	assert.Equal(t, 2, resolvePage("2", 3))
	assert.Equal(t, 3, resolvePage("4", 3))
	assert.Equal(t, 3, resolvePage("-1", 3))
	assert.Equal(t, 1, resolvePage("5", 1))
}

func TestFormatMoney(t *testing.T) {
	assert.Contains(t, formatMoney(decimal.RequireFromString("120"), "EUR"), "120.00")
	assert.Contains(t, formatMoney(decimal.RequireFromString("0.005"), "USD"), "0.01")
	assert.Equal(t, "7.50 ZZZ", formatMoney(decimal.RequireFromString("7.5"), "ZZZ"))
}
