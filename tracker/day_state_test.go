package tracker

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestDayStateSameDayAccumulation(t *testing.T) {
	var s dayState
	s.initialize(1000, "2026-08-30", 0)
	require.Equal(t, 0, s.total)

	require.Equal(t, 200, s.apply(1200, "2026-08-30"))
	require.Equal(t, 500, s.apply(1500, "2026-08-30"))
}

func TestDayStateResumesPersistedSteps(t *testing.T) {
	var s dayState
	s.initialize(1000, "2026-08-30", 500)
	require.Equal(t, 500, s.total)

	// 200 new sensor steps on top of the 500 already persisted.
	require.Equal(t, 700, s.apply(1200, "2026-08-30"))
}

func TestDayStateMidnightRebase(t *testing.T) {
	var s dayState
	s.initialize(1000, "2026-08-30", 0)
	require.Equal(t, 500, s.apply(1500, "2026-08-30"))

	// First reading after midnight starts the new day at zero.
	require.Equal(t, 0, s.apply(1600, "2026-08-31"))
	require.Equal(t, 100, s.apply(1700, "2026-08-31"))
}

func TestDayStateSensorReboot(t *testing.T) {
	var s dayState
	s.initialize(1000, "2026-08-30", 0)
	require.Equal(t, 500, s.apply(1500, "2026-08-30"))

	// Counter restarted below the last seen value: keep the day's total and
	// count steps since boot.
	require.Equal(t, 600, s.apply(100, "2026-08-30"))
	require.Equal(t, 650, s.apply(150, "2026-08-30"))
}

func TestDayStateForcedRollover(t *testing.T) {
	var s dayState
	s.initialize(1000, "2026-08-30", 0)
	s.apply(1500, "2026-08-30")

	require.False(t, s.rollover("2026-08-30"))
	require.True(t, s.rollover("2026-08-31"))
	require.Equal(t, 0, s.total)

	// Steps counted while the device was idle overnight belong to the new day.
	require.Equal(t, 100, s.apply(1600, "2026-08-31"))
}

func TestDayStateNeverNegative(t *testing.T) {
	var s dayState
	s.initialize(1000, "2026-08-30", 0)
	// A raw value between baseline and zero after rebase cannot drive the
	// total below zero.
	s.baseline = 2000
	s.lastRaw = 1000
	require.Equal(t, 0, s.apply(1500, "2026-08-30"))
}
