// Package money converts free-form price strings into integer cents.
package money

import (
	"errors"
	"fmt"
	"math"
	"strings"
	"unicode"

	"github.com/shopspring/decimal"
)

const (
	decimalPlaces  = 2
	thousandsGroup = 3
)

var (
	ErrInvalidAmount = errors.New("invalid amount")
	ErrOverflow      = errors.New("amount out of range")

	maxCents = decimal.NewFromInt(math.MaxInt64)
)

// ParseCents parses a price string such as "$1,250.50", "USD 99" or "12.5"
// into an integer amount of cents. Currency symbols and letters are ignored.
// Commas are only accepted as thousands separators, and more than two
// decimals is rejected.
func ParseCents(s string) (int64, error) {
	number, negative := digitsOf(s)

	whole, fraction, _ := strings.Cut(number, ".")
	if whole == "" && fraction == "" {
		return 0, fmt.Errorf("%w: %q", ErrInvalidAmount, s)
	}

	if len(fraction) > decimalPlaces || strings.ContainsAny(fraction, ".,") {
		return 0, fmt.Errorf("%w: %q", ErrInvalidAmount, s)
	}

	whole, ok := ungroup(whole)
	if !ok {
		return 0, fmt.Errorf("%w: %q", ErrInvalidAmount, s)
	}

	if whole == "" {
		whole = "0"
	}

	if fraction != "" {
		whole += "." + fraction
	}

	amount, err := decimal.NewFromString(whole)
	if err != nil {
		return 0, fmt.Errorf("%w: %q", ErrInvalidAmount, s)
	}

	cents := amount.Shift(decimalPlaces)
	if cents.GreaterThan(maxCents) {
		return 0, fmt.Errorf("%w: %q", ErrOverflow, s)
	}

	if negative {
		cents = cents.Neg()
	}

	return cents.IntPart(), nil
}

// Add sums two amounts of cents, failing instead of wrapping around.
func Add(total, cents int64) (int64, error) {
	if (cents > 0 && total > math.MaxInt64-cents) || (cents < 0 && total < math.MinInt64-cents) {
		return total, ErrOverflow
	}

	return total + cents, nil
}

// FormatCents renders cents with two decimals, e.g. 125050 -> "1250.50".
func FormatCents(cents int64) string {
	return decimal.New(cents, -decimalPlaces).StringFixed(decimalPlaces)
}

// digitsOf keeps digits, dots and commas. A minus sign counts only before the
// first digit.
func digitsOf(s string) (string, bool) {
	var digits strings.Builder

	negative := false

	for _, r := range strings.TrimSpace(s) {
		switch {
		case unicode.IsDigit(r), r == '.', r == ',':
			digits.WriteRune(r)
		case r == '-' && digits.Len() == 0:
			negative = true
		}
	}

	return digits.String(), negative
}

// ungroup strips thousands separators, rejecting groups that are not three
// digits wide, so "1,50" is not read as 150.
func ungroup(whole string) (string, bool) {
	if !strings.Contains(whole, ",") {
		return whole, true
	}

	groups := strings.Split(whole, ",")
	if len(groups[0]) == 0 || len(groups[0]) > thousandsGroup {
		return "", false
	}

	for _, group := range groups[1:] {
		if len(group) != thousandsGroup {
			return "", false
		}
	}

	return strings.Join(groups, ""), true
}
