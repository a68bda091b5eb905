package domain

import (
	"math"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMinorUnits(t *testing.T) {
	got, err := MinorUnits(decimal.RequireFromString("1500.50"), "NGN")
	require.NoError(t, err)
	assert.Equal(t, int64(150050), got)

	got, err = MinorUnits(decimal.NewFromInt(25), "USD")
	require.NoError(t, err)
	assert.Equal(t, int64(2500), got)
}

func TestValidateAmount(t *testing.T) {
	assert.ErrorIs(t, ValidateAmount(decimal.Zero, "NGN"), ErrValidation)
	assert.ErrorIs(t, ValidateAmount(decimal.NewFromInt(-5), "NGN"), ErrValidation)
	assert.ErrorIs(t, ValidateAmount(decimal.RequireFromString("1.005"), "NGN"), ErrValidation)
	assert.ErrorIs(t, ValidateAmount(decimal.NewFromInt(1), "XXX1"), ErrValidation)
	assert.NoError(t, ValidateAmount(decimal.RequireFromString("0.01"), "USD"))
}

func TestAmountBeyondMinorUnitRange(t *testing.T) {
	huge := decimal.RequireFromString("100000000000000000000")
	assert.ErrorIs(t, ValidateAmount(huge, "NGN"), ErrValidation)

	_, err := MinorUnits(huge, "NGN")
	assert.ErrorIs(t, err, ErrValidation)

	// 92233720368547758.07 NGN is exactly math.MaxInt64 kobo.
	got, err := MinorUnits(decimal.RequireFromString("92233720368547758.07"), "NGN")
	require.NoError(t, err)
	assert.Equal(t, int64(math.MaxInt64), got)
	assert.ErrorIs(t, ValidateAmount(decimal.RequireFromString("92233720368547758.08"), "NGN"), ErrValidation)
}

func TestMajorString(t *testing.T) {
	assert.Equal(t, "10.00", MajorString(decimal.NewFromInt(10), "USD"))
	assert.Equal(t, "10.5", MajorString(decimal.RequireFromString("10.5"), "unknown"))
}

func TestErrorUnwrap(t *testing.T) {
	err := Wrap(ErrPersistence, "could not save transfer", ErrDuplicateReference)
	assert.ErrorIs(t, err, ErrPersistence)
	assert.ErrorIs(t, err, ErrDuplicateReference)
	assert.Equal(t, "could not save transfer", Message(err))
	assert.Equal(t, "could not save transfer: duplicate transfer reference", err.Error())
}

func TestParseProvider(t *testing.T) {
	p, err := ParseProvider(" Paystack ")
	require.NoError(t, err)
	assert.Equal(t, ProviderPaystack, p)
	assert.True(t, p.Regional())
	assert.False(t, ProviderDwolla.Regional())

	_, err = ParseProvider("stripe")
	assert.ErrorIs(t, err, ErrValidation)
}
