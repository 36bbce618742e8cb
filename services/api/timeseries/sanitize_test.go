package timeseries

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSanitizeValue(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		in   *float64
		want *float64
	}{
		{name: "nil", in: nil, want: nil},
		{name: "nan", in: Float(math.NaN()), want: nil},
		{name: "positive infinity", in: Float(math.Inf(1)), want: nil},
		{name: "negative infinity", in: Float(math.Inf(-1)), want: nil},
		{name: "negative clamps to zero", in: Float(-3), want: Float(0)},
		{name: "negative zero", in: Float(math.Copysign(0, -1)), want: Float(0)},
		{name: "zero", in: Float(0), want: Float(0)},
		{name: "positive", in: Float(12.5), want: Float(12.5)},
	}
	for _, tc := range tests {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			got := SanitizeValue(tc.in)
			if tc.want == nil {
				assert.Nil(t, got)
				return
			}
			require.NotNil(t, got)
			assert.Equal(t, *tc.want, *got)
			assert.False(t, math.Signbit(*got))
		})
	}
}

func TestSanitizeValueCopies(t *testing.T) {
	in := Float(4)
	out := SanitizeValue(in)
	*in = 99
	assert.Equal(t, 4.0, *out)
}

func TestSanitizeValueNeverNegative(t *testing.T) {
	for _, v := range []float64{-1e9, -0.0001, -1, 0, 1e-9, 3, 1e12} {
		got := SanitizeValue(Float(v))
		require.NotNil(t, got)
		assert.GreaterOrEqual(t, *got, 0.0)
	}
}
