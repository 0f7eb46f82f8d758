package domain_test

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/ticketbay/marketplace/internal/core/domain"
)

func TestComputeFees_CanonicalRate(t *testing.T) {
	gross := decimal.RequireFromString("100.00")
	rate := decimal.RequireFromString("0.05")

	fee, net := domain.ComputeFees(gross, rate)

	assert.True(t, fee.Equal(decimal.RequireFromString("5.00")), "fee was %s", fee)
	assert.True(t, net.Equal(decimal.RequireFromString("95.00")), "net was %s", net)
}

func TestComputeFees_FeePlusNetEqualsGross(t *testing.T) {
	rate := decimal.RequireFromString("0.05")

	for _, raw := range []string{"0.01", "0.99", "1.00", "33.33", "149.99", "2500.07", "100000.01"} {
		gross := decimal.RequireFromString(raw)
		fee, net := domain.ComputeFees(gross, rate)

		assert.True(t, fee.Add(net).Equal(gross), "fee %s + net %s != gross %s", fee, net, gross)
		assert.True(t, fee.Exponent() >= -2, "fee %s has sub-cent precision", fee)
	}
}

func TestComputeFees_RoundsFeeToCents(t *testing.T) {
	// 3% of 33.33 is 0.9999; the fee rounds to a whole cent and the net
	// absorbs the remainder.
	fee, net := domain.ComputeFees(decimal.RequireFromString("33.33"), decimal.RequireFromString("0.03"))

	assert.True(t, fee.Equal(decimal.RequireFromString("1.00")), "fee was %s", fee)
	assert.True(t, net.Equal(decimal.RequireFromString("32.33")), "net was %s", net)
}

func TestMinorUnitsRoundTrip(t *testing.T) {
	for _, raw := range []string{"0.01", "0.10", "1.00", "19.99", "100.00", "12345.67"} {
		amount := decimal.RequireFromString(raw)

		cents := domain.ToMinorUnits(amount)
		back := domain.FromMinorUnits(cents)

		assert.True(t, back.Equal(amount), "%s -> %d -> %s", amount, cents, back)
	}
}

func TestToMinorUnits(t *testing.T) {
	assert.Equal(t, int64(10000), domain.ToMinorUnits(decimal.RequireFromString("100.00")))
	assert.Equal(t, int64(9500), domain.ToMinorUnits(decimal.RequireFromString("95.00")))
	assert.Equal(t, int64(1), domain.ToMinorUnits(decimal.RequireFromString("0.01")))
}
