package device

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestNormalize(t *testing.T) {
	testCases := []struct {
		val    int
		expect float64
	}{
		{0, 0},
		{AxisMax, 1},
		{-AxisMax, -1},
		{-32768, -1},
		{40000, 1},
	}
	for _, tc := range testCases {
		require.Equal(t, tc.expect, Normalize(tc.val), "%d", tc.val)
	}
	require.InDelta(t, 0.5, Normalize(16384), 0.0001)
}
