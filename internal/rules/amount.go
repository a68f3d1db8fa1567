package rules

import "github.com/shopspring/decimal"

// Точность денежных колонок NUMERIC(12,2)
const (
	MaxDigits     = 12
	DecimalPlaces = 2
)

// MaxAmount максимальное значение, которое помещается в NUMERIC(12,2)
var MaxAmount = decimal.New(999999999999, -DecimalPlaces)

// Quantize округляет сумму до точности хранения
func Quantize(d decimal.Decimal) decimal.Decimal {
	return d.RoundBank(DecimalPlaces)
}

// Clamp ограничивает сумму диапазоном [-MaxAmount, MaxAmount] с сохранением знака.
// Второе значение true, если значение было обрезано.
func Clamp(d decimal.Decimal) (decimal.Decimal, bool) {
	if d.Abs().LessThanOrEqual(MaxAmount) {
		return d, false
	}
	if d.IsNegative() {
		return MaxAmount.Neg(), true
	}
	return MaxAmount, true
}
