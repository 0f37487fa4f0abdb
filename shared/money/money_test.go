package money_test

import (
	"math"
	"testing"
	"tourbook/shared/money"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseCents(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected int64
		wantErr  bool
	}{
		{name: "plain integer", input: "100", expected: 10000},
		{name: "dollar sign and separator", input: "$1,250.50", expected: 125050},
		{name: "currency code", input: "USD 99.9", expected: 9990},
		{name: "leading fraction", input: ".75", expected: 75},
		{name: "negative", input: "-$5.00", expected: -500},
		{name: "whitespace", input: "  42.10 ", expected: 4210},
		{name: "empty", input: "", wantErr: true},
		{name: "no digits", input: "free", wantErr: true},
		{name: "too many decimals", input: "1.999", wantErr: true},
		{name: "two dots", input: "1.2.3", wantErr: true},
		{name: "many thousands groups", input: "$12,345,678.90", expected: 1234567890},
		{name: "largest whole", input: "92233720368547758.07", expected: math.MaxInt64},
		{name: "decimal comma", input: "1,50", wantErr: true},
		{name: "short group", input: "1,25,000", wantErr: true},
		{name: "leading comma", input: ",500", wantErr: true},
		{name: "comma in fraction", input: "1.5,0", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cents, err := money.ParseCents(tt.input)
			if tt.wantErr {
				require.ErrorIs(t, err, money.ErrInvalidAmount)
				assert.Zero(t, cents)

				return
			}

			require.NoError(t, err)
			assert.Equal(t, tt.expected, cents)
		})
	}
}

func TestParseCents_Overflow(t *testing.T) {
	for _, input := range []string{"92233720368547758.08", "99999999999999999", "-$99,999,999,999,999,999"} {
		t.Run(input, func(t *testing.T) {
			cents, err := money.ParseCents(input)
			require.ErrorIs(t, err, money.ErrOverflow)
			assert.Zero(t, cents)
		})
	}
}

func TestAdd(t *testing.T) {
	total, err := money.Add(100, 250)
	require.NoError(t, err)
	assert.Equal(t, int64(350), total)

	total, err = money.Add(math.MaxInt64-1, 5)
	require.ErrorIs(t, err, money.ErrOverflow)
	assert.Equal(t, int64(math.MaxInt64-1), total)

	total, err = money.Add(math.MinInt64+1, -5)
	require.ErrorIs(t, err, money.ErrOverflow)
	assert.Equal(t, int64(math.MinInt64+1), total)
}

func TestFormatCents(t *testing.T) {
	assert.Equal(t, "1250.50", money.FormatCents(125050))
	assert.Equal(t, "0.05", money.FormatCents(5))
	assert.Equal(t, "-3.00", money.FormatCents(-300))
	assert.Equal(t, "92233720368547758.07", money.FormatCents(math.MaxInt64))
}
