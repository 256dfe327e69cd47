package utils

import "github.com/shopspring/decimal"

// ComputeTotal returns the total typed by staff when non-zero, otherwise
// fare per person times passenger count when a fare is known.
func ComputeTotal(farePerPerson decimal.NullDecimal, passengers int, typed decimal.Decimal) decimal.Decimal {
	if !typed.IsZero() || !farePerPerson.Valid || passengers <= 0 {
		return typed
	}
	return farePerPerson.Decimal.Mul(decimal.NewFromInt(int64(passengers)))
}
