package tracker

import (
	"math"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestStrideMeters(t *testing.T) {
	require.InDelta(t, 0.72625, StrideMeters(175), 0.0001)
	require.Equal(t, defaultStrideMeters, StrideMeters(0))
	require.Equal(t, defaultStrideMeters, StrideMeters(-180))
	require.Equal(t, defaultStrideMeters, StrideMeters(math.NaN()))
	require.Equal(t, defaultStrideMeters, StrideMeters(math.Inf(1)))
}

func TestDistanceKm(t *testing.T) {
	require.InDelta(t, 7.2625, DistanceKm(10000, 175), 0.001)
	require.Zero(t, DistanceKm(0, 175))
	require.Zero(t, DistanceKm(-100, 175))
}

func TestCalories(t *testing.T) {
	require.InDelta(t, 40, Calories(1000, 70), 0.001)
	// Scaled by weight relative to the 70 kg reference.
	require.InDelta(t, 20, Calories(1000, 35), 0.001)
	// Unset or invalid weight falls back to the reference.
	require.InDelta(t, 40, Calories(1000, 0), 0.001)
	require.InDelta(t, 40, Calories(1000, math.NaN()), 0.001)
	require.Zero(t, Calories(-10, 70))
}
