package controllers

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/stepsync/server/leaderboard"
	"github.com/stepsync/server/models"
	"github.com/stepsync/server/repository"
	"github.com/stepsync/server/utils"
)

// ChallengesController manages shared step competitions and their
// leaderboards.
type ChallengesController struct {
	store *repository.Store
	board *leaderboard.Board
}

func NewChallengesController(store *repository.Store, board *leaderboard.Board) *ChallengesController {
	return &ChallengesController{store: store, board: board}
}

type challengeRequest struct {
	Title       string `json:"title" binding:"required,min=3,max=128"`
	Description string `json:"description" binding:"max=512"`
	TargetValue int    `json:"target_value" binding:"required,gt=0"`
	StartDate   string `json:"start_date"`
	EndDate     string `json:"end_date"`
}

// Create opens a new challenge; the creator joins automatically.
func (c *ChallengesController) Create(ctx *gin.Context) {
	userID, ok := currentUserID(ctx)
	if !ok {
		return
	}

	var req challengeRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		utils.Error(ctx, http.StatusBadRequest, 40070, "invalid challenge payload")
		return
	}
	if req.StartDate != "" && !validDate(req.StartDate) {
		utils.Error(ctx, http.StatusBadRequest, 40071, "invalid start date")
		return
	}
	if req.EndDate != "" && !validDate(req.EndDate) {
		utils.Error(ctx, http.StatusBadRequest, 40071, "invalid end date")
		return
	}
	if req.StartDate != "" && req.EndDate != "" && req.StartDate > req.EndDate {
		utils.Error(ctx, http.StatusBadRequest, 40072, "start date after end date")
		return
	}

	challenge := models.Challenge{
		Title:         utils.SanitizeText(req.Title),
		Description:   utils.SanitizeText(req.Description),
		ChallengeType: "steps",
		TargetValue:   req.TargetValue,
		StartDate:     req.StartDate,
		EndDate:       req.EndDate,
		CreatorID:     userID,
		Active:        true,
		CreatedAt:     time.Now(),
	}
	if err := c.store.Challenges.Create(ctx, &challenge); err != nil {
		repoError(ctx, 50070, err)
		return
	}
	if _, err := c.store.Challenges.Join(ctx, challenge.ID, userID); err != nil {
		repoError(ctx, 50071, err)
		return
	}
	utils.Success(ctx, challenge)
}

// List returns all active challenges.
func (c *ChallengesController) List(ctx *gin.Context) {
	items, err := c.store.Challenges.ListActive(ctx)
	if err != nil {
		repoError(ctx, 50072, err)
		return
	}
	utils.Success(ctx, items)
}

// Get returns one challenge by id.
func (c *ChallengesController) Get(ctx *gin.Context) {
	id, ok := pathID(ctx, "id")
	if !ok {
		return
	}
	challenge, err := c.store.Challenges.GetByID(ctx, id)
	if err != nil {
		repoError(ctx, 50073, err)
		return
	}
	utils.Success(ctx, challenge)
}

// Join adds the caller to a challenge. Joining twice is a no-op returning
// the existing participation.
func (c *ChallengesController) Join(ctx *gin.Context) {
	userID, ok := currentUserID(ctx)
	if !ok {
		return
	}
	id, ok := pathID(ctx, "id")
	if !ok {
		return
	}

	challenge, err := c.store.Challenges.GetByID(ctx, id)
	if err != nil {
		repoError(ctx, 50073, err)
		return
	}
	if !challenge.Active {
		utils.Error(ctx, http.StatusConflict, 40970, "challenge is closed")
		return
	}

	p, err := c.store.Challenges.Join(ctx, id, userID)
	if err != nil {
		repoError(ctx, 50071, err)
		return
	}
	utils.Success(ctx, p)
}

// Mine lists the caller's participations.
func (c *ChallengesController) Mine(ctx *gin.Context) {
	userID, ok := currentUserID(ctx)
	if !ok {
		return
	}
	items, err := c.store.Challenges.Participations(ctx, userID)
	if err != nil {
		repoError(ctx, 50074, err)
		return
	}
	utils.Success(ctx, items)
}

// Leaderboard returns the top participants for a challenge (?limit=,
// default 10).
func (c *ChallengesController) Leaderboard(ctx *gin.Context) {
	id, ok := pathID(ctx, "id")
	if !ok {
		return
	}
	limit, err := strconv.Atoi(ctx.DefaultQuery("limit", "10"))
	if err != nil || limit < 1 || limit > 100 {
		utils.Error(ctx, http.StatusBadRequest, 40073, "invalid limit")
		return
	}

	if _, err := c.store.Challenges.GetByID(ctx, id); err != nil {
		repoError(ctx, 50073, err)
		return
	}

	entries, err := c.board.Top(ctx, id, limit)
	if err != nil {
		repoError(ctx, 50075, err)
		return
	}
	utils.Success(ctx, entries)
}
