// Package notify delivers outbound user events. The tracker pipeline calls it
// after successful writes; delivery failures are logged, never propagated back
// into the pipeline.
package notify

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/stepsync/server/models"
)

// Event kinds published to subscribers.
const (
	EventGoalCompleted       = "goal_completed"
	EventAchievementUnlocked = "achievement_unlocked"
	EventChallengeCompleted  = "challenge_completed"
	EventDailyReminder       = "daily_reminder"
)

// Event is the wire format published per user.
type Event struct {
	Kind      string         `json:"kind"`
	UserID    uint           `json:"user_id"`
	Title     string         `json:"title"`
	Body      string         `json:"body"`
	Payload   map[string]any `json:"payload,omitempty"`
	CreatedAt time.Time      `json:"created_at"`
}

// Notifier delivers events to a single user.
type Notifier interface {
	GoalCompleted(ctx context.Context, userID uint, goal *models.Goal)
	AchievementUnlocked(ctx context.Context, userID uint, a *models.Achievement)
	ChallengeCompleted(ctx context.Context, userID uint, c *models.Challenge)
	DailyReminder(ctx context.Context, userID uint, steps, goal int)
}

// ChannelFor returns the pub/sub channel carrying a user's events.
func ChannelFor(userID uint) string {
	return fmt.Sprintf("stepsync:events:%d", userID)
}

// RedisNotifier publishes events on per-user Redis pub/sub channels.
type RedisNotifier struct {
	rdb *redis.Client
	log *zap.Logger
}

// NewRedisNotifier builds a notifier over the given client. A nil logger
// falls back to a no-op logger.
func NewRedisNotifier(rdb *redis.Client, log *zap.Logger) *RedisNotifier {
	if log == nil {
		log = zap.NewNop()
	}
	return &RedisNotifier{rdb: rdb, log: log}
}

func (n *RedisNotifier) publish(ctx context.Context, ev Event) {
	ev.CreatedAt = time.Now()
	raw, err := json.Marshal(ev)
	if err != nil {
		n.log.Error("notify: marshal event", zap.String("kind", ev.Kind), zap.Error(err))
		return
	}
	if err := n.rdb.Publish(ctx, ChannelFor(ev.UserID), raw).Err(); err != nil {
		n.log.Warn("notify: publish failed",
			zap.String("kind", ev.Kind), zap.Uint("user_id", ev.UserID), zap.Error(err))
	}
}

func (n *RedisNotifier) GoalCompleted(ctx context.Context, userID uint, goal *models.Goal) {
	n.publish(ctx, Event{
		Kind:   EventGoalCompleted,
		UserID: userID,
		Title:  "Goal completed",
		Body:   fmt.Sprintf("You reached your %s %s goal.", goal.Period, goal.GoalType),
		Payload: map[string]any{
			"goal_id":       goal.ID,
			"goal_type":     goal.GoalType,
			"period":        goal.Period,
			"current_value": goal.CurrentValue,
			"target_value":  goal.TargetValue,
		},
	})
}

func (n *RedisNotifier) AchievementUnlocked(ctx context.Context, userID uint, a *models.Achievement) {
	n.publish(ctx, Event{
		Kind:   EventAchievementUnlocked,
		UserID: userID,
		Title:  "Achievement unlocked",
		Body:   a.Title,
		Payload: map[string]any{
			"achievement_type": a.AchievementType,
			"description":      a.Description,
			"icon_name":        a.IconName,
		},
	})
}

func (n *RedisNotifier) ChallengeCompleted(ctx context.Context, userID uint, c *models.Challenge) {
	n.publish(ctx, Event{
		Kind:   EventChallengeCompleted,
		UserID: userID,
		Title:  "Challenge completed",
		Body:   fmt.Sprintf("You finished the challenge %q.", c.Title),
		Payload: map[string]any{
			"challenge_id": c.ID,
			"target_value": c.TargetValue,
		},
	})
}

func (n *RedisNotifier) DailyReminder(ctx context.Context, userID uint, steps, goal int) {
	n.publish(ctx, Event{
		Kind:   EventDailyReminder,
		UserID: userID,
		Title:  "Keep moving",
		Body:   fmt.Sprintf("You are at %d of %d steps today.", steps, goal),
		Payload: map[string]any{
			"steps": steps,
			"goal":  goal,
		},
	})
}

// LogNotifier writes events to the log only. Used in tests and when Redis is
// not configured.
type LogNotifier struct {
	log *zap.Logger
}

func NewLogNotifier(log *zap.Logger) *LogNotifier {
	if log == nil {
		log = zap.NewNop()
	}
	return &LogNotifier{log: log}
}

func (n *LogNotifier) GoalCompleted(ctx context.Context, userID uint, goal *models.Goal) {
	n.log.Info("notify: goal completed",
		zap.Uint("user_id", userID), zap.Uint("goal_id", goal.ID), zap.String("goal_type", goal.GoalType))
}

func (n *LogNotifier) AchievementUnlocked(ctx context.Context, userID uint, a *models.Achievement) {
	n.log.Info("notify: achievement unlocked",
		zap.Uint("user_id", userID), zap.String("type", a.AchievementType))
}

func (n *LogNotifier) ChallengeCompleted(ctx context.Context, userID uint, c *models.Challenge) {
	n.log.Info("notify: challenge completed",
		zap.Uint("user_id", userID), zap.Uint("challenge_id", c.ID))
}

func (n *LogNotifier) DailyReminder(ctx context.Context, userID uint, steps, goal int) {
	n.log.Info("notify: daily reminder",
		zap.Uint("user_id", userID), zap.Int("steps", steps), zap.Int("goal", goal))
}
