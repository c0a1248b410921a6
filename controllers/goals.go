package controllers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/stepsync/server/models"
	"github.com/stepsync/server/repository"
	"github.com/stepsync/server/utils"
)

// GoalsController manages user goals. Progress and completion are driven by
// the tracker pipeline; handlers only create, list and edit targets.
type GoalsController struct {
	store *repository.Store
}

func NewGoalsController(store *repository.Store) *GoalsController {
	return &GoalsController{store: store}
}

type goalRequest struct {
	GoalType    string  `json:"goal_type" binding:"required,oneof=steps distance calories activities"`
	Period      string  `json:"period" binding:"required,oneof=daily weekly monthly custom"`
	TargetValue float64 `json:"target_value" binding:"required,gt=0"`
	StartDate   string  `json:"start_date"`
	EndDate     string  `json:"end_date"`
}

// Create adds a goal. Custom-period goals need an explicit date range.
func (g *GoalsController) Create(ctx *gin.Context) {
	userID, ok := currentUserID(ctx)
	if !ok {
		return
	}

	var req goalRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		utils.Error(ctx, http.StatusBadRequest, 40040, "invalid goal payload")
		return
	}
	if req.StartDate != "" && !validDate(req.StartDate) {
		utils.Error(ctx, http.StatusBadRequest, 40041, "invalid start date")
		return
	}
	if req.EndDate != "" && !validDate(req.EndDate) {
		utils.Error(ctx, http.StatusBadRequest, 40041, "invalid end date")
		return
	}
	if req.Period == models.GoalPeriodCustom && (req.StartDate == "" || req.EndDate == "" || req.StartDate > req.EndDate) {
		utils.Error(ctx, http.StatusBadRequest, 40042, "custom goals need a valid date range")
		return
	}

	goal := models.Goal{
		UserID:      userID,
		GoalType:    req.GoalType,
		Period:      req.Period,
		TargetValue: req.TargetValue,
		StartDate:   req.StartDate,
		EndDate:     req.EndDate,
		CreatedAt:   time.Now(),
		UpdatedAt:   time.Now(),
	}
	if err := g.store.Goals.Create(ctx, &goal); err != nil {
		repoError(ctx, 50040, err)
		return
	}
	utils.Success(ctx, goal)
}

// List returns goals filtered by ?state=active|completed|all (default
// active).
func (g *GoalsController) List(ctx *gin.Context) {
	userID, ok := currentUserID(ctx)
	if !ok {
		return
	}

	var (
		goals []models.Goal
		err   error
	)
	switch ctx.DefaultQuery("state", "active") {
	case "completed":
		goals, err = g.store.Goals.ListCompleted(ctx, userID)
	case "all":
		goals, err = g.store.Goals.ListAll(ctx, userID)
	default:
		goals, err = g.store.Goals.ListActive(ctx, userID)
	}
	if err != nil {
		repoError(ctx, 50041, err)
		return
	}
	utils.Success(ctx, goals)
}

type goalUpdateRequest struct {
	TargetValue *float64 `json:"target_value" binding:"omitempty,gt=0"`
	EndDate     *string  `json:"end_date"`
}

// Update edits a goal's target or end date. Completed goals are immutable.
func (g *GoalsController) Update(ctx *gin.Context) {
	userID, ok := currentUserID(ctx)
	if !ok {
		return
	}
	id, ok := pathID(ctx, "id")
	if !ok {
		return
	}

	var req goalUpdateRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		utils.Error(ctx, http.StatusBadRequest, 40043, "invalid goal update")
		return
	}

	goal, err := g.store.Goals.GetByID(ctx, id)
	if err != nil {
		repoError(ctx, 50042, err)
		return
	}
	if goal.UserID != userID {
		utils.Error(ctx, http.StatusNotFound, 40400, "record not found")
		return
	}
	if goal.Completed {
		utils.Error(ctx, http.StatusConflict, 40940, "goal already completed")
		return
	}

	if req.TargetValue != nil {
		goal.TargetValue = *req.TargetValue
	}
	if req.EndDate != nil {
		if *req.EndDate != "" && !validDate(*req.EndDate) {
			utils.Error(ctx, http.StatusBadRequest, 40041, "invalid end date")
			return
		}
		goal.EndDate = *req.EndDate
	}
	goal.UpdatedAt = time.Now()

	if err := g.store.Goals.Update(ctx, goal); err != nil {
		repoError(ctx, 50043, err)
		return
	}
	utils.Success(ctx, goal)
}

// Delete removes a goal owned by the caller.
func (g *GoalsController) Delete(ctx *gin.Context) {
	userID, ok := currentUserID(ctx)
	if !ok {
		return
	}
	id, ok := pathID(ctx, "id")
	if !ok {
		return
	}

	if err := g.store.Goals.Delete(ctx, userID, id); err != nil {
		repoError(ctx, 50044, err)
		return
	}
	utils.Success(ctx, nil)
}
