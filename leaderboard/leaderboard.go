// Package leaderboard ranks challenge participants with a Redis sorted set
// per challenge. The stored participations remain the source of truth; the
// sorted set is a rebuildable cache.
package leaderboard

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/stepsync/server/models"
	"github.com/stepsync/server/repository"
)

const keyTTL = 30 * 24 * time.Hour

// Board maintains per-challenge rankings.
type Board struct {
	rdb   *redis.Client
	store *repository.Store
	log   *zap.Logger
}

func New(rdb *redis.Client, store *repository.Store, log *zap.Logger) *Board {
	if log == nil {
		log = zap.NewNop()
	}
	return &Board{rdb: rdb, store: store, log: log}
}

func key(challengeID uint) string {
	return fmt.Sprintf("challenge:lb:%d", challengeID)
}

// AddSteps increments a participant's score. Failures are logged only; the
// set can be rebuilt from the participations at any time.
func (b *Board) AddSteps(ctx context.Context, challengeID, userID uint, delta int) {
	if delta <= 0 {
		return
	}
	k := key(challengeID)
	member := fmt.Sprintf("%d", userID)
	if err := b.rdb.ZIncrBy(ctx, k, float64(delta), member).Err(); err != nil {
		b.log.Warn("leaderboard: zincrby failed",
			zap.Uint("challenge_id", challengeID), zap.Error(err))
		return
	}
	b.rdb.Expire(ctx, k, keyTTL)
}

// Top returns the n highest-ranked participants with usernames resolved.
// When the sorted set is missing (cold Redis) it is rebuilt from storage
// first.
func (b *Board) Top(ctx context.Context, challengeID uint, n int) ([]models.LeaderboardEntry, error) {
	if n <= 0 {
		n = 10
	}
	k := key(challengeID)
	exists, err := b.rdb.Exists(ctx, k).Result()
	if err != nil {
		return b.topFromStore(ctx, challengeID, n)
	}
	if exists == 0 {
		if err := b.Rebuild(ctx, challengeID); err != nil {
			return b.topFromStore(ctx, challengeID, n)
		}
	}
	zs, err := b.rdb.ZRevRangeWithScores(ctx, k, 0, int64(n-1)).Result()
	if err != nil {
		return b.topFromStore(ctx, challengeID, n)
	}
	entries := make([]models.LeaderboardEntry, 0, len(zs))
	for i, z := range zs {
		var uid uint
		if _, err := fmt.Sscanf(fmt.Sprint(z.Member), "%d", &uid); err != nil {
			continue
		}
		entries = append(entries, models.LeaderboardEntry{
			Rank:     i + 1,
			UserID:   uid,
			Username: b.username(ctx, uid),
			Steps:    int(z.Score),
		})
	}
	return entries, nil
}

// Rebuild repopulates the sorted set from the stored participations.
func (b *Board) Rebuild(ctx context.Context, challengeID uint) error {
	parts, err := b.store.Challenges.ParticipantsOf(ctx, challengeID)
	if err != nil {
		return err
	}
	k := key(challengeID)
	members := make([]redis.Z, 0, len(parts))
	for _, p := range parts {
		members = append(members, redis.Z{
			Score:  float64(p.Steps),
			Member: fmt.Sprintf("%d", p.UserID),
		})
	}
	pipe := b.rdb.TxPipeline()
	pipe.Del(ctx, k)
	if len(members) > 0 {
		pipe.ZAdd(ctx, k, members...)
	}
	pipe.Expire(ctx, k, keyTTL)
	_, err = pipe.Exec(ctx)
	return err
}

// topFromStore serves rankings directly from the participations when Redis
// is unavailable.
func (b *Board) topFromStore(ctx context.Context, challengeID uint, n int) ([]models.LeaderboardEntry, error) {
	parts, err := b.store.Challenges.ParticipantsOf(ctx, challengeID)
	if err != nil {
		return nil, err
	}
	if len(parts) > n {
		parts = parts[:n]
	}
	entries := make([]models.LeaderboardEntry, 0, len(parts))
	for i, p := range parts {
		entries = append(entries, models.LeaderboardEntry{
			Rank:     i + 1,
			UserID:   p.UserID,
			Username: b.username(ctx, p.UserID),
			Steps:    p.Steps,
		})
	}
	return entries, nil
}

func (b *Board) username(ctx context.Context, userID uint) string {
	u, err := b.store.Users.GetByID(ctx, userID)
	if err != nil {
		return ""
	}
	return u.Username
}
