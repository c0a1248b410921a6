package controllers

import (
	"github.com/gin-gonic/gin"

	"github.com/stepsync/server/repository"
	"github.com/stepsync/server/utils"
)

// AchievementsController serves unlocked badges. Unlocking itself happens in
// the tracker pipeline.
type AchievementsController struct {
	store *repository.Store
}

func NewAchievementsController(store *repository.Store) *AchievementsController {
	return &AchievementsController{store: store}
}

// List returns the caller's achievements, newest first.
func (a *AchievementsController) List(ctx *gin.Context) {
	userID, ok := currentUserID(ctx)
	if !ok {
		return
	}
	items, err := a.store.Achievements.List(ctx, userID)
	if err != nil {
		repoError(ctx, 50060, err)
		return
	}
	utils.Success(ctx, items)
}

// Count returns how many badges the caller has unlocked.
func (a *AchievementsController) Count(ctx *gin.Context) {
	userID, ok := currentUserID(ctx)
	if !ok {
		return
	}
	n, err := a.store.Achievements.Count(ctx, userID)
	if err != nil {
		repoError(ctx, 50060, err)
		return
	}
	utils.Success(ctx, gin.H{"count": n})
}
