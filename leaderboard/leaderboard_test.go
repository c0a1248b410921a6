package leaderboard

import (
	"context"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/stepsync/server/models"
	"github.com/stepsync/server/repository"
)

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

// seedChallenge creates a challenge with three participants whose accumulated
// steps are 300, 900 and 600 in join order.
func seedChallenge(t *testing.T, store *repository.Store) (uint, []uint) {
	t.Helper()
	ctx := context.Background()

	names := []string{"ada", "ben", "cleo"}
	steps := []int{300, 900, 600}
	ids := make([]uint, 0, len(names))
	for _, name := range names {
		u := &models.User{Username: name, FriendCode: name + "-code"}
		require.NoError(t, store.Users.Create(ctx, u))
		ids = append(ids, u.ID)
	}

	ch := &models.Challenge{
		Title: "August open", TargetValue: 10000, CreatorID: ids[0],
		Active: true, CreatedAt: time.Now(),
	}
	require.NoError(t, store.Challenges.Create(ctx, ch))
	for i, uid := range ids {
		_, err := store.Challenges.Join(ctx, ch.ID, uid)
		require.NoError(t, err)
		require.NoError(t, store.Challenges.AddParticipationSteps(ctx, ch.ID, uid, steps[i]))
	}
	return ch.ID, ids
}

func TestTopFromStoreOrdering(t *testing.T) {
	ctx := context.Background()
	store := newTestStore(t)
	challengeID, ids := seedChallenge(t, store)

	board := New(nil, store, nil)
	entries, err := board.topFromStore(ctx, challengeID, 10)
	require.NoError(t, err)
	require.Len(t, entries, 3)

	// Descending by steps, ranks assigned from 1.
	require.Equal(t, []int{900, 600, 300}, []int{entries[0].Steps, entries[1].Steps, entries[2].Steps})
	require.Equal(t, []int{1, 2, 3}, []int{entries[0].Rank, entries[1].Rank, entries[2].Rank})
	require.Equal(t, ids[1], entries[0].UserID)
	require.Equal(t, "ben", entries[0].Username)

	// The cap trims the tail, not the head.
	top2, err := board.topFromStore(ctx, challengeID, 2)
	require.NoError(t, err)
	require.Len(t, top2, 2)
	require.Equal(t, "ben", top2[0].Username)
	require.Equal(t, "cleo", top2[1].Username)
}

func TestTopFallsBackWhenRedisUnavailable(t *testing.T) {
	ctx := context.Background()
	store := newTestStore(t)
	challengeID, _ := seedChallenge(t, store)

	// A client pointed at a closed port fails every command.
	rdb := redis.NewClient(&redis.Options{
		Addr:         "127.0.0.1:1",
		DialTimeout:  50 * time.Millisecond,
		ReadTimeout:  50 * time.Millisecond,
		WriteTimeout: 50 * time.Millisecond,
		MaxRetries:   -1,
		PoolSize:     1,
	})
	defer rdb.Close()

	board := New(rdb, store, nil)

	// AddSteps only logs on failure, Top serves from storage.
	board.AddSteps(ctx, challengeID, 1, 100)

	entries, err := board.Top(ctx, challengeID, 10)
	require.NoError(t, err)
	require.Len(t, entries, 3)
	require.Equal(t, 900, entries[0].Steps)
	require.Equal(t, 1, entries[0].Rank)

	// Zero and negative limits fall back to the default window.
	entries, err = board.Top(ctx, challengeID, 0)
	require.NoError(t, err)
	require.Len(t, entries, 3)
}
