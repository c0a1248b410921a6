package controllers

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/stepsync/server/models"
	"github.com/stepsync/server/repository"
	"github.com/stepsync/server/utils"
)

// ActivitiesController manages user-entered workout sessions.
type ActivitiesController struct {
	store *repository.Store
}

func NewActivitiesController(store *repository.Store) *ActivitiesController {
	return &ActivitiesController{store: store}
}

type activityRequest struct {
	ActivityType string  `json:"activity_type" binding:"required,max=32"`
	StartTime    string  `json:"start_time" binding:"required"`
	EndTime      string  `json:"end_time" binding:"required"`
	DistanceKm   float64 `json:"distance_km" binding:"min=0"`
	Calories     float64 `json:"calories" binding:"min=0"`
	Steps        int     `json:"steps" binding:"min=0"`
	Notes        string  `json:"notes" binding:"max=512"`
}

// Create records one workout session.
func (a *ActivitiesController) Create(ctx *gin.Context) {
	userID, ok := currentUserID(ctx)
	if !ok {
		return
	}

	var req activityRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		utils.Error(ctx, http.StatusBadRequest, 40030, "invalid activity payload")
		return
	}
	start, err := time.Parse(time.RFC3339, req.StartTime)
	if err != nil {
		utils.Error(ctx, http.StatusBadRequest, 40031, "invalid start time")
		return
	}
	end, err := time.Parse(time.RFC3339, req.EndTime)
	if err != nil || end.Before(start) {
		utils.Error(ctx, http.StatusBadRequest, 40032, "invalid end time")
		return
	}

	activity := models.Activity{
		UserID:       userID,
		ActivityType: utils.SanitizeText(req.ActivityType),
		StartTime:    start,
		EndTime:      end,
		DurationSec:  int(end.Sub(start).Seconds()),
		DistanceKm:   req.DistanceKm,
		Calories:     req.Calories,
		Steps:        req.Steps,
		Notes:        utils.SanitizeText(req.Notes),
		CreatedAt:    time.Now(),
	}
	if err := a.store.Activities.Create(ctx, &activity); err != nil {
		repoError(ctx, 50030, err)
		return
	}
	utils.Success(ctx, activity)
}

// List returns recent activities, optionally windowed by ?start= and ?end=
// dates.
func (a *ActivitiesController) List(ctx *gin.Context) {
	userID, ok := currentUserID(ctx)
	if !ok {
		return
	}

	start, end := ctx.Query("start"), ctx.Query("end")
	if start != "" && end != "" {
		if !validDate(start) || !validDate(end) || start > end {
			utils.Error(ctx, http.StatusBadRequest, 40033, "invalid date range")
			return
		}
		from, _ := time.Parse(models.DateLayout, start)
		to, _ := time.Parse(models.DateLayout, end)
		items, err := a.store.Activities.ListBetween(ctx, userID, from, to.AddDate(0, 0, 1))
		if err != nil {
			repoError(ctx, 50031, err)
			return
		}
		utils.Success(ctx, items)
		return
	}

	limit, err := strconv.Atoi(ctx.DefaultQuery("limit", "20"))
	if err != nil || limit < 1 || limit > 200 {
		utils.Error(ctx, http.StatusBadRequest, 40034, "invalid limit")
		return
	}
	items, err := a.store.Activities.ListByUser(ctx, userID, limit)
	if err != nil {
		repoError(ctx, 50031, err)
		return
	}
	utils.Success(ctx, items)
}

// Get returns one activity owned by the caller.
func (a *ActivitiesController) Get(ctx *gin.Context) {
	userID, ok := currentUserID(ctx)
	if !ok {
		return
	}
	id, ok := pathID(ctx, "id")
	if !ok {
		return
	}

	activity, err := a.store.Activities.GetByID(ctx, id)
	if err != nil {
		repoError(ctx, 50032, err)
		return
	}
	if activity.UserID != userID {
		utils.Error(ctx, http.StatusNotFound, 40400, "record not found")
		return
	}
	utils.Success(ctx, activity)
}

// Delete removes one activity owned by the caller.
func (a *ActivitiesController) Delete(ctx *gin.Context) {
	userID, ok := currentUserID(ctx)
	if !ok {
		return
	}
	id, ok := pathID(ctx, "id")
	if !ok {
		return
	}

	if err := a.store.Activities.Delete(ctx, userID, id); err != nil {
		repoError(ctx, 50033, err)
		return
	}
	utils.Success(ctx, nil)
}
