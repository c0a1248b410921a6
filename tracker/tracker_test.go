package tracker_test

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
	"github.com/stepsync/server/tracker"
)

// captureNotifier records delivered events for assertions.
type captureNotifier struct {
	mu           sync.Mutex
	goals        []uint
	achievements []string
	challenges   []uint
}

func (n *captureNotifier) GoalCompleted(_ context.Context, _ uint, g *models.Goal) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.goals = append(n.goals, g.ID)
}

func (n *captureNotifier) AchievementUnlocked(_ context.Context, _ uint, a *models.Achievement) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.achievements = append(n.achievements, a.AchievementType)
}

func (n *captureNotifier) ChallengeCompleted(_ context.Context, _ uint, c *models.Challenge) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.challenges = append(n.challenges, c.ID)
}

func (n *captureNotifier) DailyReminder(context.Context, uint, int, int) {}

func newTestStore(t *testing.T) *repository.Store {
	t.Helper()
	db, err := gorm.Open(sqlite.Open("file::memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(
		&models.User{},
		&models.StepRecord{},
		&models.Activity{},
		&models.Goal{},
		&models.Friend{},
		&models.Achievement{},
		&models.Challenge{},
		&models.ChallengeParticipation{},
	))
	return repository.NewSQLStore(db)
}

func TestPipelineEndToEnd(t *testing.T) {
	ctx := context.Background()
	store := newTestStore(t)
	capture := &captureNotifier{}

	user := &models.User{
		Username: "walker", PasswordHash: "x", HeightCm: 175, WeightKg: 70,
		DailyStepGoal: 10000, FriendCode: "walker-code",
	}
	require.NoError(t, store.Users.Create(ctx, user))

	goal := &models.Goal{
		UserID: user.ID, GoalType: models.GoalTypeSteps, Period: models.GoalPeriodDaily,
		TargetValue: 1000, CreatedAt: time.Now(), UpdatedAt: time.Now(),
	}
	require.NoError(t, store.Goals.Create(ctx, goal))

	challenge := &models.Challenge{
		Title: "Step it up", TargetValue: 2000, CreatorID: user.ID,
		Active: true, CreatedAt: time.Now(),
	}
	require.NoError(t, store.Challenges.Create(ctx, challenge))
	_, err := store.Challenges.Join(ctx, challenge.ID, user.ID)
	require.NoError(t, err)

	fanout := tracker.NewFanout(store, nil, capture, nil)
	svc := tracker.NewService(store, fanout, nil)

	at := time.Date(2026, 8, 30, 10, 0, 0, 0, time.UTC)
	date := at.Format(models.DateLayout)

	// First reading of the session captures the baseline.
	rec, err := svc.Record(ctx, tracker.Reading{UserID: user.ID, Raw: 0, At: at})
	require.NoError(t, err)
	require.Equal(t, 0, rec.Steps)

	rec, err = svc.Record(ctx, tracker.Reading{UserID: user.ID, Raw: 1050, At: at.Add(time.Hour)})
	require.NoError(t, err)
	require.Equal(t, 1050, rec.Steps)
	require.Equal(t, date, rec.Date)
	require.Greater(t, rec.DistanceKm, 0.0)
	require.Greater(t, rec.Calories, 0.0)

	// Persisted record matches.
	stored, err := store.StepRecords.GetByDate(ctx, user.ID, date)
	require.NoError(t, err)
	require.Equal(t, 1050, stored.Steps)

	// The 1000-step daily goal completed exactly once.
	completed, err := store.Goals.ListCompleted(ctx, user.ID)
	require.NoError(t, err)
	require.Len(t, completed, 1)
	require.Equal(t, []uint{goal.ID}, capture.goals)

	// Lifetime milestones at 100 and 1000 unlocked, 10000 not yet.
	require.ElementsMatch(t, []string{"first_100", "first_1k"}, capture.achievements)

	// Challenge accumulated the delta but has not reached its target.
	parts, err := store.Challenges.Participations(ctx, user.ID)
	require.NoError(t, err)
	require.Len(t, parts, 1)
	require.Equal(t, 1050, parts[0].Steps)
	require.False(t, parts[0].Completed)
	require.Empty(t, capture.challenges)

	// Sensor reboot: counter restarts below the last value, day total keeps
	// growing from where it was.
	rec, err = svc.Record(ctx, tracker.Reading{UserID: user.ID, Raw: 200, At: at.Add(2 * time.Hour)})
	require.NoError(t, err)
	require.Equal(t, 1250, rec.Steps)

	// Crossing the challenge target completes the participation.
	rec, err = svc.Record(ctx, tracker.Reading{UserID: user.ID, Raw: 1000, At: at.Add(3 * time.Hour)})
	require.NoError(t, err)
	require.Equal(t, 2050, rec.Steps)
	require.Equal(t, []uint{challenge.ID}, capture.challenges)

	// Goal completion fired only once despite further progress.
	require.Equal(t, []uint{goal.ID}, capture.goals)
}

func TestStreak(t *testing.T) {
	ctx := context.Background()
	store := newTestStore(t)

	type day struct {
		date  string
		steps int
	}
	cases := []struct {
		name string
		days []day
		want int
	}{
		{name: "no records", days: nil, want: 0},
		{name: "single day", days: []day{{"2026-08-30", 500}}, want: 1},
		{name: "consecutive days", days: []day{
			{"2026-08-30", 500}, {"2026-08-29", 400}, {"2026-08-28", 300},
		}, want: 3},
		{name: "gap breaks streak", days: []day{
			{"2026-08-30", 500}, {"2026-08-29", 400},
			{"2026-08-27", 300}, {"2026-08-26", 200},
		}, want: 2},
		{name: "zero step day breaks streak", days: []day{
			{"2026-08-30", 500}, {"2026-08-29", 0}, {"2026-08-28", 400},
		}, want: 1},
		{name: "latest day has no steps", days: []day{
			{"2026-08-30", 0}, {"2026-08-29", 400},
		}, want: 0},
	}
	for i, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			user := &models.User{
				Username:   "streaker-" + tc.name,
				FriendCode: "streak-code-" + tc.name,
			}
			require.NoError(t, store.Users.Create(ctx, user))
			for _, d := range tc.days {
				_, err := store.StepRecords.Upsert(ctx, &models.StepRecord{
					UserID: user.ID, Date: d.date, Steps: d.steps,
				})
				require.NoError(t, err)
			}
			got, err := tracker.Streak(ctx, store.StepRecords, user.ID)
			require.NoError(t, err)
			require.Equal(t, tc.want, got, "case %d", i)
		})
	}
}

func TestRecordRejectsNegativeRaw(t *testing.T) {
	store := newTestStore(t)
	svc := tracker.NewService(store, nil, nil)
	_, err := svc.Record(context.Background(), tracker.Reading{UserID: 1, Raw: -1})
	require.Error(t, err)
}

func TestRestartRecovery(t *testing.T) {
	ctx := context.Background()
	store := newTestStore(t)

	user := &models.User{Username: "resumer", PasswordHash: "x", FriendCode: "resumer-code"}
	require.NoError(t, store.Users.Create(ctx, user))

	at := time.Date(2026, 8, 30, 9, 0, 0, 0, time.UTC)

	svc := tracker.NewService(store, nil, nil)
	rec, err := svc.Record(ctx, tracker.Reading{UserID: user.ID, Raw: 0, At: at})
	require.NoError(t, err)
	require.Equal(t, 0, rec.Steps)
	rec, err = svc.Record(ctx, tracker.Reading{UserID: user.ID, Raw: 800, At: at.Add(time.Hour)})
	require.NoError(t, err)
	require.Equal(t, 800, rec.Steps)

	// A fresh service resumes from the persisted total instead of dropping it.
	restarted := tracker.NewService(store, nil, nil)
	rec, err = restarted.Record(ctx, tracker.Reading{UserID: user.ID, Raw: 900, At: at.Add(2 * time.Hour)})
	require.NoError(t, err)
	require.Equal(t, 800, rec.Steps)
	rec, err = restarted.Record(ctx, tracker.Reading{UserID: user.ID, Raw: 1000, At: at.Add(3 * time.Hour)})
	require.NoError(t, err)
	require.Equal(t, 900, rec.Steps)
}
