package customorder

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseQuotedPrice(t *testing.T) {
	t.Run("accepted formats", func(t *testing.T) {
		cases := []struct {
			input string
			want  string
		}{
			{"1111.11", "1111.11"},
			{"$1,111.11", "1111.11"},
			{"1111", "1111"},
			{"  $25.00 ", "25.00"},
			{"$ 3 250.00", "3250.00"},
			{"0", "0"},
		}
		for _, tc := range cases {
			got, err := ParseQuotedPrice(tc.input)
			require.NoError(t, err, "input %q", tc.input)
			require.True(t, got.Valid, "input %q", tc.input)
			assert.True(t, got.Decimal.Equal(decimal.RequireFromString(tc.want)),
				"input %q parsed to %s, want %s", tc.input, got.Decimal, tc.want)
		}
	})

	t.Run("rejected formats", func(t *testing.T) {
		cases := []struct {
			input string
			want  error
		}{
			{"1.5", ErrInvalidPrice},
			{"25.001", ErrInvalidPrice},
			{"abc", ErrInvalidPrice},
			{"12.34.56", ErrInvalidPrice},
			{"-5.00", ErrNegativePrice},
		}
		for _, tc := range cases {
			got, err := ParseQuotedPrice(tc.input)
			assert.ErrorIs(t, err, tc.want, "input %q", tc.input)
			assert.False(t, got.Valid, "input %q", tc.input)
		}
	})

	t.Run("empty input clears the quote", func(t *testing.T) {
		got, err := ParseQuotedPrice("   ")
		require.NoError(t, err)
		assert.False(t, got.Valid)
	})
}
