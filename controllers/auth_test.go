package controllers_test

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strconv"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/stepsync/server/config"
	"github.com/stepsync/server/controllers"
	"github.com/stepsync/server/middleware"
	"github.com/stepsync/server/models"
	"github.com/stepsync/server/repository"
	"github.com/stepsync/server/tracker"
	"github.com/stepsync/server/utils"
)

func newTestStore(t *testing.T) *repository.Store {
	t.Helper()
	db, err := gorm.Open(sqlite.Open("file::memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(
		&models.User{},
		&models.StepRecord{},
		&models.Activity{},
		&models.Goal{},
		&models.Friend{},
		&models.Achievement{},
		&models.Challenge{},
		&models.ChallengeParticipation{},
	))
	return repository.NewSQLStore(db)
}

func setupRouter(t *testing.T) (*gin.Engine, *repository.Store) {
	t.Helper()
	config.SetForTesting(config.AppConfig{
		JWTSecret:          "test-secret",
		RateLimitPerMinute: 1000,
	})
	gin.SetMode(gin.TestMode)

	store := newTestStore(t)
	svc := tracker.NewService(store, tracker.NewFanout(store, nil, nil, nil), nil)

	auth := controllers.NewAuthController(store)
	steps := controllers.NewStepsController(store, svc)
	friends := controllers.NewFriendsController(store)

	r := gin.New()
	r.POST("/register", auth.Register)
	r.POST("/login", auth.Login)

	protected := r.Group("", middleware.AuthRequired())
	protected.GET("/me", auth.Me)
	protected.PATCH("/profile", auth.UpdateProfile)
	protected.POST("/steps/readings", steps.RecordReading)
	protected.GET("/steps/today", steps.Today)
	protected.POST("/friends/requests", friends.Request)
	protected.POST("/friends/requests/:id/accept", friends.Accept)
	protected.GET("/friends", friends.List)
	protected.GET("/friends/pending", friends.Pending)
	return r, store
}

func doJSON(t *testing.T, r *gin.Engine, method, path, token string, body any) (*httptest.ResponseRecorder, utils.JSONResponse) {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	var resp utils.JSONResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	return w, resp
}

func registerUser(t *testing.T, r *gin.Engine, name string) string {
	t.Helper()
	w, resp := doJSON(t, r, http.MethodPost, "/register", "", gin.H{
		"username": name,
		"password": "hunter22",
	})
	require.Equal(t, http.StatusOK, w.Code)
	data := resp.Data.(map[string]any)
	token, ok := data["token"].(string)
	require.True(t, ok)
	require.NotEmpty(t, token)
	return token
}

func TestRegisterLoginMe(t *testing.T) {
	r, _ := setupRouter(t)

	token := registerUser(t, r, "walker")

	// Duplicate username rejected.
	w, _ := doJSON(t, r, http.MethodPost, "/register", "", gin.H{
		"username": "walker", "password": "hunter22",
	})
	require.Equal(t, http.StatusConflict, w.Code)

	// Wrong password rejected.
	w, _ = doJSON(t, r, http.MethodPost, "/login", "", gin.H{
		"username": "walker", "password": "wrong",
	})
	require.Equal(t, http.StatusUnauthorized, w.Code)

	w, resp := doJSON(t, r, http.MethodPost, "/login", "", gin.H{
		"username": "walker", "password": "hunter22",
	})
	require.Equal(t, http.StatusOK, w.Code)
	require.Equal(t, 0, resp.Code)

	w, resp = doJSON(t, r, http.MethodGet, "/me", token, nil)
	require.Equal(t, http.StatusOK, w.Code)
	me := resp.Data.(map[string]any)
	require.Equal(t, "walker", me["username"])
	require.Equal(t, float64(10000), me["daily_step_goal"])

	// No token -> 401.
	w, _ = doJSON(t, r, http.MethodGet, "/me", "", nil)
	require.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestUpdateProfileAndReadings(t *testing.T) {
	r, store := setupRouter(t)
	token := registerUser(t, r, "runner")

	w, _ := doJSON(t, r, http.MethodPatch, "/profile", token, gin.H{
		"height_cm": 180, "weight_kg": 80, "daily_step_goal": 12000,
	})
	require.Equal(t, http.StatusOK, w.Code)

	u, err := store.Users.GetByUsername(context.Background(), "runner")
	require.NoError(t, err)
	require.Equal(t, 12000, u.DailyStepGoal)

	w, _ = doJSON(t, r, http.MethodPost, "/steps/readings", token, gin.H{"raw": 0})
	require.Equal(t, http.StatusOK, w.Code)
	w, resp := doJSON(t, r, http.MethodPost, "/steps/readings", token, gin.H{"raw": 2500})
	require.Equal(t, http.StatusOK, w.Code)
	rec := resp.Data.(map[string]any)
	require.Equal(t, float64(2500), rec["steps"])

	w, resp = doJSON(t, r, http.MethodGet, "/steps/today", token, nil)
	require.Equal(t, http.StatusOK, w.Code)
	today := resp.Data.(map[string]any)
	require.Equal(t, float64(2500), today["steps"])
}

func TestFriendRequestFlow(t *testing.T) {
	r, store := setupRouter(t)
	tokenA := registerUser(t, r, "anna")
	tokenB := registerUser(t, r, "ben")

	ben, err := store.Users.GetByUsername(context.Background(), "ben")
	require.NoError(t, err)
	anna, err := store.Users.GetByUsername(context.Background(), "anna")
	require.NoError(t, err)

	w, _ := doJSON(t, r, http.MethodPost, "/friends/requests", tokenA, gin.H{
		"friend_code": ben.FriendCode,
	})
	require.Equal(t, http.StatusOK, w.Code)

	// Self-befriending rejected.
	w, _ = doJSON(t, r, http.MethodPost, "/friends/requests", tokenA, gin.H{
		"friend_code": anna.FriendCode,
	})
	require.Equal(t, http.StatusBadRequest, w.Code)

	w, resp := doJSON(t, r, http.MethodGet, "/friends/pending", tokenB, nil)
	require.Equal(t, http.StatusOK, w.Code)
	pending := resp.Data.([]any)
	require.Len(t, pending, 1)

	w, _ = doJSON(t, r, http.MethodPost, "/friends/requests/"+itoa(anna.ID)+"/accept", tokenB, nil)
	require.Equal(t, http.StatusOK, w.Code)

	// Both sides now see the friendship.
	w, resp = doJSON(t, r, http.MethodGet, "/friends", tokenA, nil)
	require.Equal(t, http.StatusOK, w.Code)
	require.Len(t, resp.Data.([]any), 1)
	w, resp = doJSON(t, r, http.MethodGet, "/friends", tokenB, nil)
	require.Equal(t, http.StatusOK, w.Code)
	require.Len(t, resp.Data.([]any), 1)
}

func itoa(id uint) string {
	return strconv.FormatUint(uint64(id), 10)
}
