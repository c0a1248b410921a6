// Package tracker turns raw cumulative sensor readings into per-day step
// records and drives the downstream goal, challenge and achievement updates.
package tracker

import (
	"context"
	"errors"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/stepsync/server/models"
	"github.com/stepsync/server/repository"
)

// ErrStopped is returned when a reading arrives after the service shut down.
var ErrStopped = errors.New("tracker: service stopped")

// Reading is one cumulative step-counter sample from a user's device.
type Reading struct {
	UserID uint
	Raw    int
	At     time.Time
}

// Service serializes all step accounting per user through a single writer
// goroutine. A minute ticker feeds rollover checks into the same writers, so
// day-boundary state is only ever touched from one goroutine per user.
type Service struct {
	store  *repository.Store
	fanout *Fanout
	log    *zap.Logger
	now    func() time.Time

	ctx context.Context
	wg  sync.WaitGroup

	mu      sync.Mutex
	workers map[uint]*worker
	stopped bool
}

// NewService wires the tracker over a backend store. fanout may be nil to
// disable downstream evaluation (used by some tests).
func NewService(store *repository.Store, fanout *Fanout, log *zap.Logger) *Service {
	if log == nil {
		log = zap.NewNop()
	}
	return &Service{
		store:   store,
		fanout:  fanout,
		log:     log,
		now:     time.Now,
		workers: make(map[uint]*worker),
	}
}

// Start launches the rollover ticker. The service runs until ctx is
// cancelled.
func (s *Service) Start(ctx context.Context) {
	s.ctx = ctx
	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		ticker := time.NewTicker(time.Minute)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				s.shutdown()
				return
			case now := <-ticker.C:
				s.broadcastTick(now)
			}
		}
	}()
}

// Wait blocks until all worker goroutines have exited.
func (s *Service) Wait() {
	s.wg.Wait()
}

// Record processes one sensor reading and returns the persisted record for
// the reading's date. Raw counters below zero are rejected.
func (s *Service) Record(ctx context.Context, r Reading) (*models.StepRecord, error) {
	if r.Raw < 0 {
		return nil, errors.New("tracker: negative raw counter")
	}
	if r.At.IsZero() {
		r.At = s.now()
	}
	w, err := s.workerFor(r.UserID)
	if err != nil {
		return nil, err
	}
	item := workItem{reading: &r, reply: make(chan workResult, 1)}
	select {
	case w.ch <- item:
	case <-ctx.Done():
		return nil, ctx.Err()
	case <-s.done():
		return nil, ErrStopped
	}
	select {
	case res := <-item.reply:
		return res.rec, res.err
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

func (s *Service) workerFor(userID uint) (*worker, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.stopped {
		return nil, ErrStopped
	}
	w, ok := s.workers[userID]
	if !ok {
		w = &worker{svc: s, userID: userID, ch: make(chan workItem, 16)}
		s.workers[userID] = w
		s.wg.Add(1)
		go w.run()
	}
	return w, nil
}

func (s *Service) broadcastTick(now time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, w := range s.workers {
		select {
		case w.ch <- workItem{tick: now}:
		default:
			// Worker is busy; the next tick will catch the rollover.
		}
	}
}

func (s *Service) shutdown() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.stopped = true
	for _, w := range s.workers {
		close(w.ch)
	}
	s.workers = make(map[uint]*worker)
}

func (s *Service) done() <-chan struct{} {
	if s.ctx != nil {
		return s.ctx.Done()
	}
	return nil
}

type workItem struct {
	reading *Reading
	tick    time.Time
	reply   chan workResult
}

type workResult struct {
	rec *models.StepRecord
	err error
}

// worker owns one user's dayState. Everything that mutates the state runs on
// this goroutine.
type worker struct {
	svc    *Service
	userID uint
	ch     chan workItem
	state  dayState
	user   *models.User
}

func (w *worker) run() {
	defer w.svc.wg.Done()
	for item := range w.ch {
		switch {
		case item.reading != nil:
			rec, err := w.handleReading(item.reading)
			if item.reply != nil {
				item.reply <- workResult{rec: rec, err: err}
			}
		case !item.tick.IsZero():
			w.handleTick(item.tick)
		}
	}
}

func (w *worker) handleReading(r *Reading) (*models.StepRecord, error) {
	ctx := w.ctx()
	date := r.At.Format(models.DateLayout)

	if w.state.date == "" {
		persisted := 0
		if rec, err := w.svc.store.StepRecords.GetByDate(ctx, w.userID, date); err == nil {
			persisted = rec.Steps
		} else if !errors.Is(err, repository.ErrNotFound) {
			return nil, err
		}
		w.state.initialize(r.Raw, date, persisted)
	}

	total := w.state.apply(r.Raw, date)
	return w.persist(ctx, date, total)
}

func (w *worker) handleTick(now time.Time) {
	date := now.Format(models.DateLayout)
	if !w.state.rollover(date) {
		return
	}
	ctx := w.ctx()
	if _, err := w.persist(ctx, date, 0); err != nil {
		w.svc.log.Warn("tracker: rollover persist failed",
			zap.Uint("user_id", w.userID), zap.Error(err))
	}
}

// persist writes the day's record and, when the write succeeds, runs the
// downstream evaluations. In-memory state is never rolled back on failure;
// the next reading retries the write naturally.
func (w *worker) persist(ctx context.Context, date string, total int) (*models.StepRecord, error) {
	user, err := w.currentUser(ctx)
	if err != nil {
		return nil, err
	}

	rec := &models.StepRecord{
		UserID:     w.userID,
		Date:       date,
		Steps:      total,
		DistanceKm: DistanceKm(total, user.HeightCm),
		Calories:   Calories(total, user.WeightKg),
		UpdatedAt:  w.svc.now(),
	}
	delta, err := w.svc.store.StepRecords.Upsert(ctx, rec)
	if err != nil {
		w.svc.log.Error("tracker: upsert failed",
			zap.Uint("user_id", w.userID), zap.String("date", date), zap.Error(err))
		return nil, err
	}

	if w.svc.fanout != nil {
		w.svc.fanout.Run(ctx, user, rec, delta)
	}
	return rec, nil
}

func (w *worker) currentUser(ctx context.Context) (*models.User, error) {
	u, err := w.svc.store.Users.GetByID(ctx, w.userID)
	if err != nil {
		if w.user != nil {
			return w.user, nil
		}
		return nil, err
	}
	w.user = u
	return u, nil
}

func (w *worker) ctx() context.Context {
	if w.svc.ctx != nil {
		return w.svc.ctx
	}
	return context.Background()
}
