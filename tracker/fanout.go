package tracker

import (
	"context"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/stepsync/server/leaderboard"
	"github.com/stepsync/server/models"
	"github.com/stepsync/server/notify"
	"github.com/stepsync/server/repository"
)

// Fanout runs the three downstream evaluations after a step record write:
// goal progress, challenge progress and achievements. The branches are
// independent; a failure in one is logged and does not stop the others.
type Fanout struct {
	store    *repository.Store
	board    *leaderboard.Board
	notifier notify.Notifier
	log      *zap.Logger
	now      func() time.Time
}

// NewFanout wires the evaluations. board may be nil when Redis is not
// configured; notifications then still go through the notifier.
func NewFanout(store *repository.Store, board *leaderboard.Board, notifier notify.Notifier, log *zap.Logger) *Fanout {
	if log == nil {
		log = zap.NewNop()
	}
	if notifier == nil {
		notifier = notify.NewLogNotifier(log)
	}
	return &Fanout{store: store, board: board, notifier: notifier, log: log, now: time.Now}
}

// Run evaluates all branches for one step record write. delta is the step
// difference the write contributed relative to the previously stored total.
func (f *Fanout) Run(ctx context.Context, user *models.User, rec *models.StepRecord, delta int) {
	var g errgroup.Group
	g.Go(func() error {
		if err := f.evaluateGoals(ctx, user, rec); err != nil {
			f.log.Warn("fanout: goals", zap.Uint("user_id", user.ID), zap.Error(err))
		}
		return nil
	})
	g.Go(func() error {
		if err := f.evaluateChallenges(ctx, user, rec, delta); err != nil {
			f.log.Warn("fanout: challenges", zap.Uint("user_id", user.ID), zap.Error(err))
		}
		return nil
	})
	g.Go(func() error {
		if err := f.evaluateAchievements(ctx, user); err != nil {
			f.log.Warn("fanout: achievements", zap.Uint("user_id", user.ID), zap.Error(err))
		}
		return nil
	})
	_ = g.Wait()
}

func (f *Fanout) evaluateGoals(ctx context.Context, user *models.User, rec *models.StepRecord) error {
	goals, err := f.store.Goals.ListActive(ctx, user.ID)
	if err != nil {
		return err
	}
	for i := range goals {
		goal := &goals[i]
		if !goal.CoversDate(rec.Date) {
			continue
		}
		value, err := f.goalValue(ctx, user.ID, goal, rec.Date)
		if err != nil {
			f.log.Warn("fanout: goal value",
				zap.Uint("goal_id", goal.ID), zap.Error(err))
			continue
		}
		if err := f.store.Goals.UpdateProgress(ctx, goal.ID, value); err != nil {
			f.log.Warn("fanout: goal progress",
				zap.Uint("goal_id", goal.ID), zap.Error(err))
			continue
		}
		goal.CurrentValue = value
		if value >= goal.TargetValue {
			done, err := f.store.Goals.CompleteIfActive(ctx, goal.ID)
			if err != nil {
				f.log.Warn("fanout: goal completion",
					zap.Uint("goal_id", goal.ID), zap.Error(err))
				continue
			}
			if done {
				f.notifier.GoalCompleted(ctx, user.ID, goal)
			}
		}
	}
	return nil
}

// goalValue accumulates the goal's metric over its evaluation window ending
// at date.
func (f *Fanout) goalValue(ctx context.Context, userID uint, goal *models.Goal, date string) (float64, error) {
	start, end := goalWindow(goal, date)
	if goal.GoalType == models.GoalTypeActivities {
		from, to, err := windowTimes(start, end)
		if err != nil {
			return 0, err
		}
		n, err := f.store.Activities.CountBetween(ctx, userID, from, to)
		return float64(n), err
	}
	totals, err := f.store.StepRecords.TotalsBetween(ctx, userID, start, end)
	if err != nil {
		return 0, err
	}
	switch goal.GoalType {
	case models.GoalTypeDistance:
		return totals.DistanceKm, nil
	case models.GoalTypeCalories:
		return totals.Calories, nil
	default:
		return float64(totals.Steps), nil
	}
}

// goalWindow resolves a goal's period into an inclusive date range ending at
// the given date.
func goalWindow(goal *models.Goal, date string) (start, end string) {
	switch goal.Period {
	case models.GoalPeriodWeekly:
		return shiftDate(date, -6), date
	case models.GoalPeriodMonthly:
		return shiftDate(date, -29), date
	case models.GoalPeriodCustom:
		start, end = goal.StartDate, goal.EndDate
		if start == "" {
			start = date
		}
		if end == "" {
			end = date
		}
		return start, end
	default:
		return date, date
	}
}

func shiftDate(date string, days int) string {
	t, err := time.Parse(models.DateLayout, date)
	if err != nil {
		return date
	}
	return t.AddDate(0, 0, days).Format(models.DateLayout)
}

// windowTimes converts an inclusive date range into [start of first day,
// end of last day) timestamps.
func windowTimes(start, end string) (time.Time, time.Time, error) {
	from, err := time.Parse(models.DateLayout, start)
	if err != nil {
		return time.Time{}, time.Time{}, err
	}
	to, err := time.Parse(models.DateLayout, end)
	if err != nil {
		return time.Time{}, time.Time{}, err
	}
	return from, to.AddDate(0, 0, 1), nil
}

func (f *Fanout) evaluateChallenges(ctx context.Context, user *models.User, rec *models.StepRecord, delta int) error {
	if delta <= 0 {
		return nil
	}
	parts, err := f.store.Challenges.Participations(ctx, user.ID)
	if err != nil {
		return err
	}
	for _, p := range parts {
		ch, err := f.store.Challenges.GetByID(ctx, p.ChallengeID)
		if err != nil {
			f.log.Warn("fanout: challenge lookup",
				zap.Uint("challenge_id", p.ChallengeID), zap.Error(err))
			continue
		}
		if !ch.Active || !challengeCoversDate(ch, rec.Date) {
			continue
		}
		if err := f.store.Challenges.AddParticipationSteps(ctx, ch.ID, user.ID, delta); err != nil {
			f.log.Warn("fanout: challenge increment",
				zap.Uint("challenge_id", ch.ID), zap.Error(err))
			continue
		}
		if f.board != nil {
			f.board.AddSteps(ctx, ch.ID, user.ID, delta)
		}
		if p.Completed {
			continue
		}
		done, err := f.store.Challenges.CompleteParticipationIfReached(ctx, ch.ID, user.ID, ch.TargetValue)
		if err != nil {
			f.log.Warn("fanout: challenge completion",
				zap.Uint("challenge_id", ch.ID), zap.Error(err))
			continue
		}
		if done {
			f.notifier.ChallengeCompleted(ctx, user.ID, ch)
		}
	}
	return nil
}

func challengeCoversDate(c *models.Challenge, date string) bool {
	if c.StartDate != "" && date < c.StartDate {
		return false
	}
	if c.EndDate != "" && date > c.EndDate {
		return false
	}
	return true
}

// Lifetime step milestones and streak badges. Unlocks are idempotent; the
// repository's uniqueness constraint decides which caller wins.
var stepMilestones = []struct {
	typ       string
	threshold int
	title     string
	desc      string
}{
	{"first_100", 100, "First Steps", "Walked 100 steps in total."},
	{"first_1k", 1000, "Getting Going", "Walked 1,000 steps in total."},
	{"first_10k", 10000, "Striding Out", "Walked 10,000 steps in total."},
	{"marathon", 50000, "Marathon Walker", "Walked 50,000 steps in total."},
}

var streakBadges = []struct {
	typ   string
	days  int
	title string
	desc  string
}{
	{"streak_7", 7, "One Week Streak", "Stepped every day for 7 days straight."},
	{"streak_30", 30, "One Month Streak", "Stepped every day for 30 days straight."},
}

func (f *Fanout) evaluateAchievements(ctx context.Context, user *models.User) error {
	total, err := f.store.StepRecords.TotalSteps(ctx, user.ID)
	if err != nil {
		return err
	}
	for _, m := range stepMilestones {
		if total < m.threshold {
			continue
		}
		f.unlock(ctx, user.ID, m.typ, m.title, m.desc, "footsteps")
	}

	streak, err := Streak(ctx, f.store.StepRecords, user.ID)
	if err != nil {
		return err
	}
	for _, b := range streakBadges {
		if streak < b.days {
			continue
		}
		f.unlock(ctx, user.ID, b.typ, b.title, b.desc, "flame")
	}
	return nil
}

func (f *Fanout) unlock(ctx context.Context, userID uint, typ, title, desc, icon string) {
	a := &models.Achievement{
		UserID:          userID,
		AchievementType: typ,
		Title:           title,
		Description:     desc,
		IconName:        icon,
		UnlockedAt:      f.now(),
	}
	fresh, err := f.store.Achievements.UnlockIfAbsent(ctx, a)
	if err != nil {
		f.log.Warn("fanout: unlock",
			zap.Uint("user_id", userID), zap.String("type", typ), zap.Error(err))
		return
	}
	if fresh {
		f.notifier.AchievementUnlocked(ctx, userID, a)
	}
}

// Streak counts consecutive days with at least one step, walking backwards
// from the most recent record.
func Streak(ctx context.Context, steps repository.StepRecordRepository, userID uint) (int, error) {
	recs, err := steps.ListRecent(ctx, userID, 60)
	if err != nil {
		return 0, err
	}
	streak := 0
	var prev time.Time
	for _, rec := range recs {
		if rec.Steps < 1 {
			break
		}
		day, err := time.Parse(models.DateLayout, rec.Date)
		if err != nil {
			break
		}
		if streak > 0 && !day.AddDate(0, 0, 1).Equal(prev) {
			break
		}
		streak++
		prev = day
	}
	return streak, nil
}
