package notify

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/stepsync/server/models"
	"github.com/stepsync/server/repository"
)

// ReminderScheduler sends each user a daily reminder with their current step
// count at a fixed local hour. One reminder per user per day.
type ReminderScheduler struct {
	store    *repository.Store
	notifier Notifier
	log      *zap.Logger
	hour     int

	lastSent map[uint]string // userID -> date last reminded
}

func NewReminderScheduler(store *repository.Store, notifier Notifier, hour int, log *zap.Logger) *ReminderScheduler {
	if log == nil {
		log = zap.NewNop()
	}
	if hour < 0 || hour > 23 {
		hour = 20
	}
	return &ReminderScheduler{
		store:    store,
		notifier: notifier,
		log:      log,
		hour:     hour,
		lastSent: make(map[uint]string),
	}
}

// Start runs the scheduler loop until ctx is cancelled.
func (s *ReminderScheduler) Start(ctx context.Context) {
	go func() {
		ticker := time.NewTicker(time.Minute)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case now := <-ticker.C:
				if now.Hour() == s.hour {
					s.runOnce(ctx, now)
				}
			}
		}
	}()
}

func (s *ReminderScheduler) runOnce(ctx context.Context, now time.Time) {
	date := now.Format(models.DateLayout)
	const pageSize = 200
	for offset := 0; ; offset += pageSize {
		users, total, err := s.store.Users.List(ctx, offset, pageSize)
		if err != nil {
			s.log.Warn("reminder: listing users", zap.Error(err))
			return
		}
		for i := range users {
			u := &users[i]
			if s.lastSent[u.ID] == date {
				continue
			}
			steps := 0
			if rec, err := s.store.StepRecords.GetByDate(ctx, u.ID, date); err == nil {
				steps = rec.Steps
			}
			s.notifier.DailyReminder(ctx, u.ID, steps, u.DailyStepGoal)
			s.lastSent[u.ID] = date
		}
		if int64(offset+pageSize) >= total || len(users) < pageSize {
			return
		}
	}
}
