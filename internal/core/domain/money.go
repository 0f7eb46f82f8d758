package domain

import "github.com/shopspring/decimal"

var minorUnitFactor = decimal.NewFromInt(100)

// ComputeFees splits a gross sale amount into the platform fee and the
// seller's net proceeds. The fee is rounded to cents, so fee + net always
// equals gross exactly.
func ComputeFees(gross, rate decimal.Decimal) (fee, net decimal.Decimal) {
	fee = gross.Mul(rate).Round(2)
	net = gross.Sub(fee)
	return fee, net
}

// ToMinorUnits converts a decimal currency amount to integer cents for the
// payment gateway wire format.
func ToMinorUnits(amount decimal.Decimal) int64 {
	return amount.Mul(minorUnitFactor).Round(0).IntPart()
}

// FromMinorUnits converts gateway cents back to a decimal currency amount.
func FromMinorUnits(cents int64) decimal.Decimal {
	return decimal.NewFromInt(cents).Div(minorUnitFactor)
}
