package tracker

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/stepsync/server/models"
)

func TestGoalWindow(t *testing.T) {
	date := "2026-08-30"

	start, end := goalWindow(&models.Goal{Period: models.GoalPeriodDaily}, date)
	require.Equal(t, date, start)
	require.Equal(t, date, end)

	start, end = goalWindow(&models.Goal{Period: models.GoalPeriodWeekly}, date)
	require.Equal(t, "2026-08-24", start)
	require.Equal(t, date, end)

	start, end = goalWindow(&models.Goal{Period: models.GoalPeriodMonthly}, date)
	require.Equal(t, "2026-08-01", start)
	require.Equal(t, date, end)

	start, end = goalWindow(&models.Goal{
		Period: models.GoalPeriodCustom, StartDate: "2026-08-01", EndDate: "2026-09-15",
	}, date)
	require.Equal(t, "2026-08-01", start)
	require.Equal(t, "2026-09-15", end)

	// Open-ended custom bounds fall back to the evaluation date.
	start, end = goalWindow(&models.Goal{Period: models.GoalPeriodCustom}, date)
	require.Equal(t, date, start)
	require.Equal(t, date, end)
}

func TestChallengeCoversDate(t *testing.T) {
	c := &models.Challenge{StartDate: "2026-08-01", EndDate: "2026-08-31"}
	require.True(t, challengeCoversDate(c, "2026-08-15"))
	require.True(t, challengeCoversDate(c, "2026-08-01"))
	require.True(t, challengeCoversDate(c, "2026-08-31"))
	require.False(t, challengeCoversDate(c, "2026-07-31"))
	require.False(t, challengeCoversDate(c, "2026-09-01"))

	// Unbounded challenges cover every date.
	require.True(t, challengeCoversDate(&models.Challenge{}, "2026-08-15"))
}
