package controllers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/stepsync/server/models"
	"github.com/stepsync/server/repository"
	"github.com/stepsync/server/utils"
)

const statsCacheKey = "stats:service"

// StatsController serves aggregate service numbers, cached in Redis to keep
// the landing page cheap.
type StatsController struct {
	store *repository.Store
}

func NewStatsController(store *repository.Store) *StatsController {
	return &StatsController{store: store}
}

// GetStats returns user count and today's community step total.
func (s *StatsController) GetStats(ctx *gin.Context) {
	if b, ok := utils.CacheGetBytes(statsCacheKey); ok {
		ctx.Data(http.StatusOK, "application/json", b)
		return
	}

	_, total, err := s.store.Users.List(ctx, 0, 1)
	if err != nil {
		repoError(ctx, 50080, err)
		return
	}

	today := time.Now().Format(models.DateLayout)
	stepsToday := 0
	// Walk users in pages; acceptable at this cache interval.
	const pageSize = 500
	for offset := 0; ; offset += pageSize {
		users, _, err := s.store.Users.List(ctx, offset, pageSize)
		if err != nil {
			repoError(ctx, 50080, err)
			return
		}
		for i := range users {
			if rec, err := s.store.StepRecords.GetByDate(ctx, users[i].ID, today); err == nil {
				stepsToday += rec.Steps
			}
		}
		if len(users) < pageSize {
			break
		}
	}

	resp := utils.JSONResponse{Code: 0, Message: "success", Data: gin.H{
		"users":       total,
		"steps_today": stepsToday,
		"date":        today,
	}}
	utils.CacheSetJSON(statsCacheKey, resp, time.Minute)
	ctx.JSON(http.StatusOK, resp)
}
