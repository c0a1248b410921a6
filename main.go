package main

import (
	"context"

	"github.com/stepsync/server/config"
	"github.com/stepsync/server/leaderboard"
	"github.com/stepsync/server/models"
	"github.com/stepsync/server/notify"
	"github.com/stepsync/server/repository"
	"github.com/stepsync/server/routes"
	"github.com/stepsync/server/tracker"
	"github.com/stepsync/server/utils"
)

func main() {
	cfg := config.Load()

	// Initialize logger early
	if err := utils.InitLogger(cfg); err != nil {
		panic(err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	var store *repository.Store
	switch cfg.StorageBackend {
	case "mongo":
		db, err := config.InitMongo(ctx)
		if err != nil {
			utils.Sugar.Fatalf("mongo init failed: %v", err)
		}
		store, err = repository.NewMongoStore(ctx, db)
		if err != nil {
			utils.Sugar.Fatalf("mongo store init failed: %v", err)
		}
	default:
		db := config.InitDatabase(
			&models.User{},
			&models.StepRecord{},
			&models.Activity{},
			&models.Goal{},
			&models.Friend{},
			&models.Achievement{},
			&models.Challenge{},
			&models.ChallengeParticipation{},
		)
		store = repository.NewSQLStore(db)
	}

	rdb := utils.GetRedis()
	notifier := notify.NewRedisNotifier(rdb, utils.Logger)
	board := leaderboard.New(rdb, store, utils.Logger)

	fanout := tracker.NewFanout(store, board, notifier, utils.Logger)
	svc := tracker.NewService(store, fanout, utils.Logger)
	svc.Start(ctx)

	if cfg.ReminderEnabled {
		notify.NewReminderScheduler(store, notifier, cfg.ReminderHour, utils.Logger).Start(ctx)
	}

	r := routes.SetupRouter(store, svc, board)

	utils.Sugar.Infof("Starting server on port %s (graceful, backend=%s)", cfg.AppPort, cfg.StorageBackend)
	if err := utils.GraceServer(":"+cfg.AppPort, r); err != nil {
		utils.Sugar.Fatalf("server stopped with error: %v", err)
	}
}
