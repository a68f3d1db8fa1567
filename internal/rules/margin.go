package rules

import (
	"licitaciones/models"

	"github.com/shopspring/decimal"
)

var hundred = decimal.NewFromInt(100)

// Margin маржа позиции: (unit_price - unit_cost) * quantity, без округления
func Margin(o models.Order) decimal.Decimal {
	return o.UnitPrice.Sub(o.UnitCost).Mul(decimal.NewFromInt(int64(o.Quantity)))
}

// MarginPercentage процент маржи от цены продажи, округлённый до 2 знаков
// (банковское округление). При нулевой цене возвращает 0.00.
func MarginPercentage(o models.Order) decimal.Decimal {
	if o.UnitPrice.IsZero() {
		return decimal.Zero
	}
	pct := o.UnitPrice.Sub(o.UnitCost).Div(o.UnitPrice).Mul(hundred)
	return pct.RoundBank(2)
}

// TotalMargin сумма маржи по всем позициям тендера; 0 для пустого набора.
// Должна совпадать с агрегатом db.Storage.TotalMargin до копейки.
func TotalMargin(orders []models.Order) decimal.Decimal {
	total := decimal.Zero
	for _, o := range orders {
		total = total.Add(Margin(o))
	}
	return total
}
