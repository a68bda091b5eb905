package domain

import (
	"fmt"
	"math"

	"github.com/Rhymond/go-money"
	"github.com/shopspring/decimal"
)

var maxMinorUnits = decimal.NewFromInt(math.MaxInt64)

// ValidateAmount rejects non-positive amounts, amounts finer than the
// currency's minor unit and amounts whose minor-unit value overflows int64.
func ValidateAmount(amount decimal.Decimal, currency string) error {
	if !amount.IsPositive() {
		return Validation("amount must be greater than zero")
	}
	cur := money.GetCurrency(currency)
	if cur == nil {
		return Validation(fmt.Sprintf("unsupported currency %q", currency))
	}
	if !amount.Equal(amount.Truncate(int32(cur.Fraction))) {
		return Validation(fmt.Sprintf("amount has more than %d decimal places", cur.Fraction))
	}
	if amount.Shift(int32(cur.Fraction)).GreaterThan(maxMinorUnits) {
		return Validation("amount is too large")
	}
	return nil
}

// ToMoney converts a major-unit amount to a go-money value in minor units.
func ToMoney(amount decimal.Decimal, currency string) (*money.Money, error) {
	if err := ValidateAmount(amount, currency); err != nil {
		return nil, err
	}
	cur := money.GetCurrency(currency)
	minor := amount.Shift(int32(cur.Fraction))
	if !minor.IsInteger() {
		return nil, Validation("amount is not representable in minor units")
	}
	return money.New(minor.IntPart(), cur.Code), nil
}

// MinorUnits returns amount in the currency's smallest unit (kobo for NGN, cents for USD).
func MinorUnits(amount decimal.Decimal, currency string) (int64, error) {
	m, err := ToMoney(amount, currency)
	if err != nil {
		return 0, err
	}
	return m.Amount(), nil
}

// MajorString formats amount with exactly the currency's number of decimals.
func MajorString(amount decimal.Decimal, currency string) string {
	cur := money.GetCurrency(currency)
	if cur == nil {
		return amount.String()
	}
	return amount.StringFixed(int32(cur.Fraction))
}
