package routes

import (
	"net/http"
	"strings"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"

	"github.com/stepsync/server/config"
	"github.com/stepsync/server/controllers"
	"github.com/stepsync/server/leaderboard"
	"github.com/stepsync/server/middleware"
	"github.com/stepsync/server/repository"
	"github.com/stepsync/server/tracker"
	"github.com/stepsync/server/utils"
)

// SetupRouter wires routes, middlewares, and controllers.
func SetupRouter(store *repository.Store, svc *tracker.Service, board *leaderboard.Board) *gin.Engine {
	// Load config and set Gin mode from configuration
	cfg := config.Get()
	switch strings.ToLower(cfg.GinMode) {
	case "debug":
		gin.SetMode(gin.DebugMode)
	case "test":
		gin.SetMode(gin.TestMode)
	default:
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()
	// Replace default console logger with file-based zap logger
	gl, err := utils.NewRollingFileLogger(cfg.GinPath, cfg.LogLevel, cfg.LogMaxSizeMB, cfg.LogMaxBackups, cfg.LogMaxAgeDays, cfg.LogCompress)
	if err == nil {
		r.Use(utils.Ginzap(gl, time.RFC3339, true))
		r.Use(utils.RecoveryWithZap(gl, false))
	} else {
		// fallback if the logger failed to init
		r.Use(gin.Recovery())
	}

	corsCfg := cors.Config{
		AllowMethods:     []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Authorization", "Content-Type"},
		ExposeHeaders:    []string{"Content-Length"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}
	if len(cfg.AllowedOrigins) == 1 && cfg.AllowedOrigins[0] == "*" {
		corsCfg.AllowAllOrigins = true
	} else {
		corsCfg.AllowOrigins = cfg.AllowedOrigins
	}
	r.Use(cors.New(corsCfg))

	r.GET("/health", func(ctx *gin.Context) {
		utils.Success(ctx, gin.H{"status": "ok"})
	})

	authController := controllers.NewAuthController(store)
	stepsController := controllers.NewStepsController(store, svc)
	activitiesController := controllers.NewActivitiesController(store)
	goalsController := controllers.NewGoalsController(store)
	friendsController := controllers.NewFriendsController(store)
	achievementsController := controllers.NewAchievementsController(store)
	challengesController := controllers.NewChallengesController(store, board)
	statsController := controllers.NewStatsController(store)

	api := r.Group("/api/v1")

	authGroup := api.Group("/auth")
	authGroup.Use(middleware.RateLimitMiddleware())
	authGroup.POST("/register", authController.Register)
	authGroup.POST("/login", authController.Login)
	authGroup.POST("/logout", middleware.AuthRequired(), authController.Logout)
	authGroup.GET("/me", middleware.AuthRequired(), authController.Me)
	authGroup.PATCH("/profile", middleware.AuthRequired(), authController.UpdateProfile)

	// Public endpoints
	api.GET("/stats", statsController.GetStats)
	api.GET("/users/:id", authController.GetUserPublic)
	api.GET("/user/by-username/:username", authController.GetUserPublicByUsername)

	protected := api.Group("")
	protected.Use(middleware.AuthRequired(), middleware.RateLimitMiddleware())

	protected.POST("/steps/readings", stepsController.RecordReading)
	protected.GET("/steps/today", stepsController.Today)
	protected.GET("/steps/history", stepsController.History)
	protected.GET("/steps/summary", stepsController.Summary)
	protected.GET("/steps/live", stepsController.Live)

	protected.POST("/activities", activitiesController.Create)
	protected.GET("/activities", activitiesController.List)
	protected.GET("/activities/:id", activitiesController.Get)
	protected.DELETE("/activities/:id", activitiesController.Delete)

	protected.POST("/goals", goalsController.Create)
	protected.GET("/goals", goalsController.List)
	protected.PUT("/goals/:id", goalsController.Update)
	protected.DELETE("/goals/:id", goalsController.Delete)

	protected.POST("/friends/requests", friendsController.Request)
	protected.POST("/friends/requests/:id/accept", friendsController.Accept)
	protected.DELETE("/friends/:id", friendsController.Remove)
	protected.GET("/friends", friendsController.List)
	protected.GET("/friends/pending", friendsController.Pending)

	protected.GET("/achievements", achievementsController.List)
	protected.GET("/achievements/count", achievementsController.Count)

	protected.POST("/challenges", challengesController.Create)
	protected.GET("/challenges", challengesController.List)
	protected.GET("/challenges/mine", challengesController.Mine)
	protected.GET("/challenges/:id", challengesController.Get)
	protected.POST("/challenges/:id/join", challengesController.Join)
	protected.GET("/challenges/:id/leaderboard", challengesController.Leaderboard)

	r.NoRoute(func(ctx *gin.Context) {
		utils.Error(ctx, http.StatusNotFound, 40400, "route not found")
	})

	return r
}
