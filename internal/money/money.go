// Package money converts between decimal amounts used at the HTTP boundary
// and the int64 minor units stored in the ledger.
package money

import (
	"errors"
	"strings"

	"github.com/shopspring/decimal"
)

var (
	ErrInvalidAmount   = errors.New("amount must be a positive decimal")
	ErrTooManyDecimals = errors.New("amount has more decimal places than the currency allows")
	ErrInvalidCurrency = errors.New("currency must be a three-letter ISO 4217 code")
)

// zeroDecimal lists currencies without a minor unit.
var zeroDecimal = map[string]bool{
	"JPY": true,
	"KRW": true,
	"VND": true,
	"CLP": true,
	"ISK": true,
	"UGX": true,
}

func NormalizeCurrency(currency string) (string, error) {
	c := strings.ToUpper(strings.TrimSpace(currency))
	if len(c) != 3 {
		return "", ErrInvalidCurrency
	}
	for _, r := range c {
		if r < 'A' || r > 'Z' {
			return "", ErrInvalidCurrency
		}
	}
	return c, nil
}

func Exponent(currency string) int32 {
	if zeroDecimal[strings.ToUpper(currency)] {
		return 0
	}
	return 2
}

// ToMinor parses a decimal string such as "120.50" into minor units.
func ToMinor(amount, currency string) (int64, error) {
	d, err := decimal.NewFromString(strings.TrimSpace(amount))
	if err != nil {
		return 0, ErrInvalidAmount
	}
	if !d.IsPositive() {
		return 0, ErrInvalidAmount
	}

	exp := Exponent(currency)
	if !d.Equal(d.Truncate(exp)) {
		return 0, ErrTooManyDecimals
	}

	minor := d.Shift(exp)
	if !minor.IsInteger() || minor.GreaterThan(decimal.NewFromInt(1<<53)) {
		return 0, ErrInvalidAmount
	}
	return minor.IntPart(), nil
}

// FromMinor formats minor units as a fixed-point decimal string.
func FromMinor(minor int64, currency string) string {
	exp := Exponent(currency)
	return decimal.New(minor, -exp).StringFixed(exp)
}
