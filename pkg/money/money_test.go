package money

import (
	"errors"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseAmount(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		european bool
		want     string
	}{
		{"european thousands", "1.234,56", true, "1234.56"},
		{"european plain", "4,50", true, "4.5"},
		{"european spaces", "12 345,00", true, "12345"},
		{"trailing minus", "1.234,56-", true, "-1234.56"},
		{"leading minus", "-12,00", true, "-12"},
		{"parentheses", "(7,25)", true, "-7.25"},
		{"euro symbol", "€ 99,99", true, "99.99"},
		{"european millions", "1.234.567,89", true, "1234567.89"},
		{"european thousands only", "1.234", true, "1234"},
		{"american", "1,234.56", false, "1234.56"},
		{"american plain", "12.50", false, "12.5"},
		{"american negative", "-0.01", false, "-0.01"},
		{"integer", "100", true, "100"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseAmount(tt.input, tt.european)
			require.NoError(t, err)
			assert.True(t, decimal.RequireFromString(tt.want).Equal(got), "got %s", got)
		})
	}
}

func TestParseAmount_Invalid(t *testing.T) {
	tests := []struct {
		input    string
		european bool
	}{
		{"", true},
		{"   ", true},
		{"abc", true},
		{"12,3x", true},
		{"--5", true},
		{"1,2,a", true},
		{",50", true},
		{"-", true},
		{"12.50", true},
		{"1.5", true},
		{"3000.00", true},
		{"1.23,45", true},
		{"1234.567,00", true},
		{"1,234,56", true},
		{"12,50.", true},
		{"1.234,5.6", true},
		{"12,50", false},
		{"1,5", false},
		{"1.234.56", false},
		{"1,23.45", false},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			d, err := ParseAmount(tt.input, tt.european)
			require.Error(t, err, "parsed as %s", d)
			assert.True(t, errors.Is(err, ErrInvalidAmount))
		})
	}
}

func TestNormalizeCurrency(t *testing.T) {
	code, err := NormalizeCurrency(" eur ")
	require.NoError(t, err)
	assert.Equal(t, EUR, code)

	_, err = NormalizeCurrency("XXY")
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrUnknownCurrency))
}

func TestPrecisionAndFormat(t *testing.T) {
	assert.Equal(t, int32(2), Precision(EUR))
	assert.Equal(t, int32(0), Precision(JPY))
	assert.Equal(t, int32(DefaultPrecision), Precision("???"))

	tests := []struct {
		amount   string
		currency string
		want     string
	}{
		{"1234.5", EUR, "1234.50"},
		{"-0.005", EUR, "-0.01"},
		{"0", EUR, "0.00"},
		{"1500", JPY, "1500"},
		{"-12.3456", USD, "-12.35"},
	}
	for _, tt := range tests {
		t.Run(tt.amount+tt.currency, func(t *testing.T) {
			assert.Equal(t, tt.want, Format(decimal.RequireFromString(tt.amount), tt.currency))
		})
	}
}

func TestEqual(t *testing.T) {
	a := decimal.RequireFromString("10.004")
	b := decimal.RequireFromString("10.001")
	assert.True(t, Equal(a, b, EUR))
	assert.False(t, Equal(a, decimal.RequireFromString("10.02"), EUR))
}

func TestFitsPrecision(t *testing.T) {
	tests := []struct {
		amount   string
		currency string
		want     bool
	}{
		{"99.99", EUR, true},
		{"99.999", EUR, false},
		{"100.000", EUR, true},
		{"1500", JPY, true},
		{"1500.5", JPY, false},
		{"-0.001", USD, false},
	}
	for _, tt := range tests {
		t.Run(tt.amount+tt.currency, func(t *testing.T) {
			assert.Equal(t, tt.want, FitsPrecision(decimal.RequireFromString(tt.amount), tt.currency))
		})
	}
}
