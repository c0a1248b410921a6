package notify

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/stepsync/server/models"
	"github.com/stepsync/server/repository"
)

type reminderCapture struct {
	mu    sync.Mutex
	calls []reminderCall
}

type reminderCall struct {
	userID uint
	steps  int
	goal   int
}

func (c *reminderCapture) GoalCompleted(context.Context, uint, *models.Goal) {}

func (c *reminderCapture) AchievementUnlocked(context.Context, uint, *models.Achievement) {}

func (c *reminderCapture) ChallengeCompleted(context.Context, uint, *models.Challenge) {}

func (c *reminderCapture) DailyReminder(_ context.Context, userID uint, steps, goal int) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.calls = append(c.calls, reminderCall{userID: userID, steps: steps, goal: goal})
}

func TestReminderRunsOncePerUserPerDay(t *testing.T) {
	ctx := context.Background()

	db, err := gorm.Open(sqlite.Open("file::memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(&models.User{}, &models.StepRecord{}))
	store := repository.NewSQLStore(db)

	u := &models.User{Username: "sleepy", PasswordHash: "x", DailyStepGoal: 8000, FriendCode: "sleepy-code"}
	require.NoError(t, store.Users.Create(ctx, u))

	now := time.Date(2026, 8, 30, 20, 0, 0, 0, time.UTC)
	_, err = store.StepRecords.Upsert(ctx, &models.StepRecord{
		UserID: u.ID, Date: now.Format(models.DateLayout), Steps: 3200, UpdatedAt: now,
	})
	require.NoError(t, err)

	capture := &reminderCapture{}
	s := NewReminderScheduler(store, capture, 20, nil)

	s.runOnce(ctx, now)
	s.runOnce(ctx, now) // same day: no second reminder

	require.Len(t, capture.calls, 1)
	require.Equal(t, reminderCall{userID: u.ID, steps: 3200, goal: 8000}, capture.calls[0])

	// Next day resets the dedupe.
	s.runOnce(ctx, now.AddDate(0, 0, 1))
	require.Len(t, capture.calls, 2)
}
