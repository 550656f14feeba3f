// Package money provides exact decimal handling for journal amounts.
// Amounts are parsed from locale-formatted report text into shopspring/decimal
// values and rendered at the ISO-4217 precision of their currency, which is
// looked up through go-money.
package money

import (
	"errors"
	"fmt"
	"strings"
	"unicode"

	"github.com/Rhymond/go-money"
	"github.com/shopspring/decimal"
)

// Common currency codes (ISO-4217)
const (
	EUR = "EUR" // Euro
	USD = "USD" // US Dollar
	GBP = "GBP" // British Pound
	CHF = "CHF" // Swiss Franc
	JPY = "JPY" // Japanese Yen (no decimal places)
)

// DefaultPrecision is used for currencies go-money does not know.
const DefaultPrecision = 2

var (
	// ErrInvalidAmount is returned when a cell cannot be read as a number.
	ErrInvalidAmount = errors.New("invalid amount")
	// ErrUnknownCurrency is returned for codes outside ISO-4217.
	ErrUnknownCurrency = errors.New("unknown currency")
)

// ParseAmount parses a report amount such as "1.234,56", "1 234,56-",
// "-12,00" or "(12,00)". When european is true the comma is the decimal
// separator and dots group thousands, otherwise the reverse.
func ParseAmount(s string, european bool) (decimal.Decimal, error) {
	raw := s
	s = strings.Map(func(r rune) rune {
		if unicode.IsSpace(r) {
			return -1
		}
		return r
	}, s)

	for _, sym := range []string{"€", "$", "£", "CHF", "EUR"} {
		s = strings.ReplaceAll(s, sym, "")
	}
	if s == "" {
		return decimal.Zero, fmt.Errorf("%w: empty value", ErrInvalidAmount)
	}

	negative := false
	switch {
	case strings.HasPrefix(s, "(") && strings.HasSuffix(s, ")"):
		negative = true
		s = s[1 : len(s)-1]
	case strings.HasPrefix(s, "-"):
		negative = true
		s = s[1:]
	case strings.HasSuffix(s, "-"):
		negative = true
		s = s[:len(s)-1]
	case strings.HasPrefix(s, "+"):
		s = s[1:]
	}

	if s == "" || !isDigit(rune(s[0])) || !isDigit(rune(s[len(s)-1])) {
		return decimal.Zero, fmt.Errorf("%w: %q", ErrInvalidAmount, raw)
	}
	for _, r := range s {
		if !isDigit(r) && r != '.' && r != ',' {
			return decimal.Zero, fmt.Errorf("%w: %q", ErrInvalidAmount, raw)
		}
	}

	decimalSep, groupSep := ",", "."
	if !european {
		decimalSep, groupSep = ".", ","
	}
	s, ok := normalizeDigits(s, decimalSep, groupSep)
	if !ok {
		return decimal.Zero, fmt.Errorf("%w: %q", ErrInvalidAmount, raw)
	}

	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero, fmt.Errorf("%w: %q", ErrInvalidAmount, raw)
	}
	if negative {
		d = d.Neg()
	}
	return d, nil
}

// normalizeDigits rewrites a grouped amount such as "1.234,56" as
// "1234.56". The decimal separator may appear once. Group separators are only
// accepted in the integer part, each followed by exactly three digits.
func normalizeDigits(s, decimalSep, groupSep string) (string, bool) {
	intPart, frac, hasFrac := strings.Cut(s, decimalSep)
	if hasFrac && (frac == "" || strings.ContainsAny(frac, ".,")) {
		return "", false
	}

	groups := strings.Split(intPart, groupSep)
	if groups[0] == "" || (len(groups) > 1 && len(groups[0]) > 3) {
		return "", false
	}
	for _, g := range groups[1:] {
		if len(g) != 3 || strings.ContainsAny(g, ".,") {
			return "", false
		}
	}

	out := strings.Join(groups, "")
	if hasFrac {
		out += "." + frac
	}
	return out, true
}

// NormalizeCurrency upper-cases code and checks it against ISO-4217.
func NormalizeCurrency(code string) (string, error) {
	c := strings.ToUpper(strings.TrimSpace(code))
	if money.GetCurrency(c) == nil {
		return "", fmt.Errorf("%w: %q", ErrUnknownCurrency, code)
	}
	return c, nil
}

// Precision returns the number of minor-unit digits for the currency.
func Precision(code string) int32 {
	currency := money.GetCurrency(strings.ToUpper(code))
	if currency == nil {
		return DefaultPrecision
	}
	return int32(currency.Fraction)
}

// Round rounds d to the precision of the currency.
func Round(d decimal.Decimal, code string) decimal.Decimal {
	return d.Round(Precision(code))
}

// FitsPrecision reports whether d has no more significant decimals than the
// currency allows. Trailing zeros are ignored.
func FitsPrecision(d decimal.Decimal, code string) bool {
	return d.Equal(Round(d, code))
}

// Format renders d with the fixed precision of the currency, no thousands
// separators and a leading minus for negative values.
func Format(d decimal.Decimal, code string) string {
	return d.StringFixed(Precision(code))
}

// Equal compares two amounts at the precision of the currency.
func Equal(a, b decimal.Decimal, code string) bool {
	return Round(a, code).Equal(Round(b, code))
}

func isDigit(r rune) bool {
	return r >= '0' && r <= '9'
}
