package repository_test

import (
	"context"
	"fmt"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/stepsync/server/models"
	"github.com/stepsync/server/repository"
)

// Both backends run the exact same suite. The SQL store uses an in-memory
// SQLite database; the Mongo store only runs when MONGO_TEST_URI is set.

func newSQLTestStore(t *testing.T) *repository.Store {
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

func newMongoTestStore(t *testing.T) *repository.Store {
	t.Helper()
	uri := os.Getenv("MONGO_TEST_URI")
	if uri == "" {
		t.Skip("MONGO_TEST_URI not set")
	}
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	client, err := mongo.Connect(ctx, options.Client().ApplyURI(uri))
	require.NoError(t, err)
	dbName := fmt.Sprintf("stepsync_test_%d", time.Now().UnixNano())
	db := client.Database(dbName)
	t.Cleanup(func() {
		_ = db.Drop(context.Background())
		_ = client.Disconnect(context.Background())
	})
	store, err := repository.NewMongoStore(ctx, db)
	require.NoError(t, err)
	return store
}

func TestSQLStoreContract(t *testing.T) {
	runStoreSuite(t, newSQLTestStore(t))
}

func TestMongoStoreContract(t *testing.T) {
	runStoreSuite(t, newMongoTestStore(t))
}

func createUser(t *testing.T, store *repository.Store, name string) *models.User {
	t.Helper()
	u := &models.User{
		Username:      name,
		PasswordHash:  "x",
		HeightCm:      175,
		WeightKg:      70,
		DailyStepGoal: 10000,
		FriendCode:    name + "-code",
	}
	require.NoError(t, store.Users.Create(context.Background(), u))
	require.NotZero(t, u.ID)
	return u
}

func runStoreSuite(t *testing.T, store *repository.Store) {
	ctx := context.Background()

	t.Run("UserUniqueness", func(t *testing.T) {
		createUser(t, store, "alice")
		err := store.Users.Create(ctx, &models.User{
			Username: "alice", PasswordHash: "x", FriendCode: "other-code",
		})
		require.ErrorIs(t, err, repository.ErrDuplicate)

		u, err := store.Users.GetByUsername(ctx, "alice")
		require.NoError(t, err)
		byCode, err := store.Users.GetByFriendCode(ctx, "alice-code")
		require.NoError(t, err)
		require.Equal(t, u.ID, byCode.ID)
	})

	t.Run("UpsertDelta", func(t *testing.T) {
		u := createUser(t, store, "bob")

		rec := &models.StepRecord{UserID: u.ID, Date: "2026-08-29", Steps: 500, UpdatedAt: time.Now()}
		delta, err := store.StepRecords.Upsert(ctx, rec)
		require.NoError(t, err)
		require.Equal(t, 500, delta)

		rec2 := &models.StepRecord{UserID: u.ID, Date: "2026-08-29", Steps: 1200, UpdatedAt: time.Now()}
		delta, err = store.StepRecords.Upsert(ctx, rec2)
		require.NoError(t, err)
		require.Equal(t, 700, delta)

		got, err := store.StepRecords.GetByDate(ctx, u.ID, "2026-08-29")
		require.NoError(t, err)
		require.Equal(t, 1200, got.Steps)

		recs, err := store.StepRecords.ListBetween(ctx, u.ID, "2026-08-01", "2026-08-31")
		require.NoError(t, err)
		require.Len(t, recs, 1)
	})

	t.Run("TotalsAndRecent", func(t *testing.T) {
		u := createUser(t, store, "carol")
		for i, steps := range []int{1000, 2000, 3000} {
			date := fmt.Sprintf("2026-08-%02d", 10+i)
			_, err := store.StepRecords.Upsert(ctx, &models.StepRecord{
				UserID: u.ID, Date: date, Steps: steps, DistanceKm: 1, Calories: 40, UpdatedAt: time.Now(),
			})
			require.NoError(t, err)
		}

		totals, err := store.StepRecords.TotalsBetween(ctx, u.ID, "2026-08-10", "2026-08-12")
		require.NoError(t, err)
		require.Equal(t, 6000, totals.Steps)
		require.InDelta(t, 3.0, totals.DistanceKm, 0.001)

		total, err := store.StepRecords.TotalSteps(ctx, u.ID)
		require.NoError(t, err)
		require.Equal(t, 6000, total)

		recent, err := store.StepRecords.ListRecent(ctx, u.ID, 2)
		require.NoError(t, err)
		require.Len(t, recent, 2)
		require.Equal(t, "2026-08-12", recent[0].Date)
		require.Equal(t, "2026-08-11", recent[1].Date)
	})

	t.Run("GoalCompletionIsOneWay", func(t *testing.T) {
		u := createUser(t, store, "dave")
		g := &models.Goal{
			UserID: u.ID, GoalType: models.GoalTypeSteps, Period: models.GoalPeriodDaily,
			TargetValue: 1000, CreatedAt: time.Now(), UpdatedAt: time.Now(),
		}
		require.NoError(t, store.Goals.Create(ctx, g))

		require.NoError(t, store.Goals.UpdateProgress(ctx, g.ID, 1050))

		done, err := store.Goals.CompleteIfActive(ctx, g.ID)
		require.NoError(t, err)
		require.True(t, done)

		// The transition happens exactly once.
		done, err = store.Goals.CompleteIfActive(ctx, g.ID)
		require.NoError(t, err)
		require.False(t, done)

		active, err := store.Goals.ListActive(ctx, u.ID)
		require.NoError(t, err)
		require.Empty(t, active)
		completed, err := store.Goals.ListCompleted(ctx, u.ID)
		require.NoError(t, err)
		require.Len(t, completed, 1)
	})

	t.Run("AchievementUnlockIsIdempotent", func(t *testing.T) {
		u := createUser(t, store, "erin")
		a := &models.Achievement{
			UserID: u.ID, AchievementType: "first_1k", Title: "Getting Going", UnlockedAt: time.Now(),
		}
		fresh, err := store.Achievements.UnlockIfAbsent(ctx, a)
		require.NoError(t, err)
		require.True(t, fresh)

		again := &models.Achievement{
			UserID: u.ID, AchievementType: "first_1k", Title: "Getting Going", UnlockedAt: time.Now(),
		}
		fresh, err = store.Achievements.UnlockIfAbsent(ctx, again)
		require.NoError(t, err)
		require.False(t, fresh)

		n, err := store.Achievements.Count(ctx, u.ID)
		require.NoError(t, err)
		require.Equal(t, 1, n)
	})

	t.Run("FriendAcceptCreatesReciprocalEdge", func(t *testing.T) {
		a := createUser(t, store, "frank")
		b := createUser(t, store, "grace")

		require.NoError(t, store.Friends.Request(ctx, a.ID, b.ID))
		require.ErrorIs(t, store.Friends.Request(ctx, a.ID, b.ID), repository.ErrDuplicate)

		pending, err := store.Friends.ListPending(ctx, b.ID)
		require.NoError(t, err)
		require.Len(t, pending, 1)
		require.Equal(t, a.ID, pending[0].UserID)

		require.NoError(t, store.Friends.Accept(ctx, b.ID, a.ID))

		forA, err := store.Friends.ListAccepted(ctx, a.ID)
		require.NoError(t, err)
		require.Len(t, forA, 1)
		forB, err := store.Friends.ListAccepted(ctx, b.ID)
		require.NoError(t, err)
		require.Len(t, forB, 1)

		require.NoError(t, store.Friends.Remove(ctx, a.ID, b.ID))
		forA, err = store.Friends.ListAccepted(ctx, a.ID)
		require.NoError(t, err)
		require.Empty(t, forA)
		forB, err = store.Friends.ListAccepted(ctx, b.ID)
		require.NoError(t, err)
		require.Empty(t, forB)
	})

	t.Run("ChallengeProgress", func(t *testing.T) {
		creator := createUser(t, store, "heidi")
		joiner := createUser(t, store, "ivan")

		ch := &models.Challenge{
			Title: "Weekend walk", TargetValue: 2000, CreatorID: creator.ID,
			Active: true, CreatedAt: time.Now(),
		}
		require.NoError(t, store.Challenges.Create(ctx, ch))
		require.NotZero(t, ch.ID)

		p1, err := store.Challenges.Join(ctx, ch.ID, joiner.ID)
		require.NoError(t, err)
		require.Equal(t, 0, p1.Steps)

		// Joining again returns the same participation.
		p2, err := store.Challenges.Join(ctx, ch.ID, joiner.ID)
		require.NoError(t, err)
		require.Equal(t, p1.ID, p2.ID)

		require.Error(t, store.Challenges.AddParticipationSteps(ctx, ch.ID, joiner.ID, -5))
		require.NoError(t, store.Challenges.AddParticipationSteps(ctx, ch.ID, joiner.ID, 1500))

		done, err := store.Challenges.CompleteParticipationIfReached(ctx, ch.ID, joiner.ID, ch.TargetValue)
		require.NoError(t, err)
		require.False(t, done)

		require.NoError(t, store.Challenges.AddParticipationSteps(ctx, ch.ID, joiner.ID, 600))
		done, err = store.Challenges.CompleteParticipationIfReached(ctx, ch.ID, joiner.ID, ch.TargetValue)
		require.NoError(t, err)
		require.True(t, done)
		done, err = store.Challenges.CompleteParticipationIfReached(ctx, ch.ID, joiner.ID, ch.TargetValue)
		require.NoError(t, err)
		require.False(t, done)

		parts, err := store.Challenges.ParticipantsOf(ctx, ch.ID)
		require.NoError(t, err)
		require.Len(t, parts, 1)
		require.Equal(t, 2100, parts[0].Steps)
	})

	t.Run("WatchByDateDeliversWrites", func(t *testing.T) {
		u := createUser(t, store, "judy")

		watchCtx, cancel := context.WithCancel(ctx)
		defer cancel()
		ch, err := store.StepRecords.WatchByDate(watchCtx, u.ID, "2026-08-30")
		require.NoError(t, err)

		_, err = store.StepRecords.Upsert(ctx, &models.StepRecord{
			UserID: u.ID, Date: "2026-08-30", Steps: 42, UpdatedAt: time.Now(),
		})
		require.NoError(t, err)

		select {
		case rec := <-ch:
			require.Equal(t, 42, rec.Steps)
		case <-time.After(5 * time.Second):
			t.Fatal("no watch event received")
		}

		cancel()
		select {
		case _, open := <-ch:
			require.False(t, open)
		case <-time.After(5 * time.Second):
			t.Fatal("channel not closed after cancel")
		}
	})

	t.Run("ActivityWindow", func(t *testing.T) {
		u := createUser(t, store, "karl")
		base := time.Date(2026, 8, 20, 8, 0, 0, 0, time.UTC)
		for i := 0; i < 3; i++ {
			start := base.AddDate(0, 0, i)
			require.NoError(t, store.Activities.Create(ctx, &models.Activity{
				UserID: u.ID, ActivityType: "walk",
				StartTime: start, EndTime: start.Add(30 * time.Minute),
				DurationSec: 1800, CreatedAt: time.Now(),
			}))
		}

		n, err := store.Activities.CountBetween(ctx, u.ID, base, base.AddDate(0, 0, 2))
		require.NoError(t, err)
		require.Equal(t, 2, n)

		items, err := store.Activities.ListByUser(ctx, u.ID, 10)
		require.NoError(t, err)
		require.Len(t, items, 3)

		require.NoError(t, store.Activities.Delete(ctx, u.ID, items[0].ID))
		_, err = store.Activities.GetByID(ctx, items[0].ID)
		require.ErrorIs(t, err, repository.ErrNotFound)
	})
}
