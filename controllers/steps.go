package controllers

import (
	"context"
	"errors"
	"io"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/stepsync/server/models"
	"github.com/stepsync/server/repository"
	"github.com/stepsync/server/tracker"
	"github.com/stepsync/server/utils"
)

// StepsController accepts sensor readings and serves step history. Writes go
// through the tracker service so per-user accounting stays serialized.
type StepsController struct {
	store   *repository.Store
	tracker *tracker.Service
}

func NewStepsController(store *repository.Store, svc *tracker.Service) *StepsController {
	return &StepsController{store: store, tracker: svc}
}

type readingRequest struct {
	Raw int    `json:"raw" binding:"min=0"`
	At  string `json:"at"` // RFC 3339, optional; server time when empty
}

// RecordReading feeds one cumulative sensor sample into the pipeline and
// returns the resulting record for the sample's date.
func (s *StepsController) RecordReading(ctx *gin.Context) {
	userID, ok := currentUserID(ctx)
	if !ok {
		return
	}

	var req readingRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		utils.Error(ctx, http.StatusBadRequest, 40020, "invalid reading payload")
		return
	}

	r := tracker.Reading{UserID: userID, Raw: req.Raw}
	if req.At != "" {
		at, err := time.Parse(time.RFC3339, req.At)
		if err != nil {
			utils.Error(ctx, http.StatusBadRequest, 40021, "invalid reading timestamp")
			return
		}
		r.At = at
	}

	rec, err := s.tracker.Record(ctx, r)
	if err != nil {
		if errors.Is(err, tracker.ErrStopped) {
			utils.Error(ctx, http.StatusServiceUnavailable, 50320, "tracker unavailable")
			return
		}
		repoError(ctx, 50020, err)
		return
	}
	utils.Success(ctx, rec)
}

// Today returns the record for the current date, zero-valued when none
// exists yet.
func (s *StepsController) Today(ctx *gin.Context) {
	userID, ok := currentUserID(ctx)
	if !ok {
		return
	}

	date := time.Now().Format(models.DateLayout)
	rec, err := s.store.StepRecords.GetByDate(ctx, userID, date)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			utils.Success(ctx, models.StepRecord{UserID: userID, Date: date})
			return
		}
		repoError(ctx, 50021, err)
		return
	}
	utils.Success(ctx, rec)
}

// History lists records either over an explicit date range (?start=&end=) or
// the most recent days (?days=, default 7).
func (s *StepsController) History(ctx *gin.Context) {
	userID, ok := currentUserID(ctx)
	if !ok {
		return
	}

	start, end := ctx.Query("start"), ctx.Query("end")
	if start != "" && end != "" {
		if !validDate(start) || !validDate(end) || start > end {
			utils.Error(ctx, http.StatusBadRequest, 40022, "invalid date range")
			return
		}
		recs, err := s.store.StepRecords.ListBetween(ctx, userID, start, end)
		if err != nil {
			repoError(ctx, 50021, err)
			return
		}
		utils.Success(ctx, recs)
		return
	}

	days, err := strconv.Atoi(ctx.DefaultQuery("days", "7"))
	if err != nil || days < 1 || days > 365 {
		utils.Error(ctx, http.StatusBadRequest, 40023, "invalid days parameter")
		return
	}
	recs, err := s.store.StepRecords.ListRecent(ctx, userID, days)
	if err != nil {
		repoError(ctx, 50021, err)
		return
	}
	utils.Success(ctx, recs)
}

// Summary aggregates lifetime totals, the last-7-day window and the current
// streak.
func (s *StepsController) Summary(ctx *gin.Context) {
	userID, ok := currentUserID(ctx)
	if !ok {
		return
	}

	now := time.Now()
	today := now.Format(models.DateLayout)
	weekStart := now.AddDate(0, 0, -6).Format(models.DateLayout)

	week, err := s.store.StepRecords.TotalsBetween(ctx, userID, weekStart, today)
	if err != nil {
		repoError(ctx, 50022, err)
		return
	}
	total, err := s.store.StepRecords.TotalSteps(ctx, userID)
	if err != nil {
		repoError(ctx, 50022, err)
		return
	}
	streak, err := tracker.Streak(ctx, s.store.StepRecords, userID)
	if err != nil {
		repoError(ctx, 50022, err)
		return
	}

	todaySteps := 0
	if rec, err := s.store.StepRecords.GetByDate(ctx, userID, today); err == nil {
		todaySteps = rec.Steps
	}

	utils.Success(ctx, gin.H{
		"today_steps": todaySteps,
		"week":        week,
		"total_steps": total,
		"streak_days": streak,
	})
}

// Live streams today's record as server-sent events until the client
// disconnects. Each write to the record produces one event.
func (s *StepsController) Live(ctx *gin.Context) {
	userID, ok := currentUserID(ctx)
	if !ok {
		return
	}

	date := time.Now().Format(models.DateLayout)
	watchCtx, cancel := context.WithCancel(ctx.Request.Context())
	defer cancel()

	ch, err := s.store.StepRecords.WatchByDate(watchCtx, userID, date)
	if err != nil {
		repoError(ctx, 50023, err)
		return
	}

	ctx.Stream(func(w io.Writer) bool {
		select {
		case rec, ok := <-ch:
			if !ok {
				return false
			}
			ctx.SSEvent("steps", rec)
			return true
		case <-ctx.Request.Context().Done():
			return false
		}
	})
}

func validDate(s string) bool {
	_, err := time.Parse(models.DateLayout, s)
	return err == nil
}
