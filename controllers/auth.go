package controllers

import (
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/stepsync/server/models"
	"github.com/stepsync/server/repository"
	"github.com/stepsync/server/utils"
)

const tokenDuration = 72 * time.Hour

// AuthController handles registration, sessions and profiles.
type AuthController struct {
	store *repository.Store
}

func NewAuthController(store *repository.Store) *AuthController {
	return &AuthController{store: store}
}

type registerRequest struct {
	Username      string  `json:"username" binding:"required,min=3,max=32"`
	Password      string  `json:"password" binding:"required,min=6,max=72"`
	Email         string  `json:"email" binding:"omitempty,email"`
	Age           int     `json:"age"`
	WeightKg      float64 `json:"weight_kg"`
	HeightCm      float64 `json:"height_cm"`
	FitnessGoal   string  `json:"fitness_goal"`
	DailyStepGoal int     `json:"daily_step_goal"`
}

// Register creates an account and returns a fresh session token.
func (a *AuthController) Register(ctx *gin.Context) {
	var req registerRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		utils.Error(ctx, http.StatusBadRequest, 40010, "invalid register payload")
		return
	}

	username := strings.TrimSpace(utils.SanitizeText(req.Username))
	if username == "" {
		utils.Error(ctx, http.StatusBadRequest, 40011, "invalid username")
		return
	}

	hash, err := utils.HashPassword(req.Password)
	if err != nil {
		utils.Error(ctx, http.StatusInternalServerError, 50010, "could not hash password")
		return
	}

	user := models.User{
		Username:      username,
		Email:         strings.TrimSpace(req.Email),
		PasswordHash:  hash,
		Age:           req.Age,
		WeightKg:      req.WeightKg,
		HeightCm:      req.HeightCm,
		FitnessGoal:   utils.SanitizeText(req.FitnessGoal),
		DailyStepGoal: req.DailyStepGoal,
		FriendCode:    uuid.NewString(),
	}
	if user.DailyStepGoal <= 0 {
		user.DailyStepGoal = 10000
	}

	if err := a.store.Users.Create(ctx, &user); err != nil {
		if err == repository.ErrDuplicate {
			utils.Error(ctx, http.StatusConflict, 40910, "username already taken")
			return
		}
		repoError(ctx, 50011, err)
		return
	}

	token, err := utils.GenerateToken(user.ID, user.Username, tokenDuration)
	if err != nil {
		utils.Error(ctx, http.StatusInternalServerError, 50012, "could not issue token")
		return
	}

	utils.Success(ctx, gin.H{"token": token, "user": publicProfile(&user)})
}

type loginRequest struct {
	Username string `json:"username" binding:"required"`
	Password string `json:"password" binding:"required"`
}

// Login verifies credentials and issues a session token.
func (a *AuthController) Login(ctx *gin.Context) {
	var req loginRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		utils.Error(ctx, http.StatusBadRequest, 40012, "invalid login payload")
		return
	}

	user, err := a.store.Users.GetByUsername(ctx, strings.TrimSpace(req.Username))
	if err != nil || !utils.CheckPassword(user.PasswordHash, req.Password) {
		utils.Error(ctx, http.StatusUnauthorized, 40110, "invalid username or password")
		return
	}

	token, err := utils.GenerateToken(user.ID, user.Username, tokenDuration)
	if err != nil {
		utils.Error(ctx, http.StatusInternalServerError, 50012, "could not issue token")
		return
	}

	utils.Success(ctx, gin.H{"token": token, "user": publicProfile(user)})
}

// Logout revokes the presented token until its natural expiry.
func (a *AuthController) Logout(ctx *gin.Context) {
	authHeader := ctx.GetHeader("Authorization")
	parts := strings.SplitN(authHeader, " ", 2)
	if len(parts) == 2 {
		token := strings.TrimSpace(parts[1])
		if claims, err := utils.ParseToken(token); err == nil && claims.ExpiresAt != nil {
			utils.BlacklistToken(token, claims.ExpiresAt.Time)
		}
	}
	utils.Success(ctx, nil)
}

// Me returns the full profile of the authenticated user.
func (a *AuthController) Me(ctx *gin.Context) {
	userID, ok := currentUserID(ctx)
	if !ok {
		return
	}
	user, err := a.store.Users.GetByID(ctx, userID)
	if err != nil {
		repoError(ctx, 50013, err)
		return
	}
	utils.Success(ctx, user)
}

type updateProfileRequest struct {
	Email         *string  `json:"email" binding:"omitempty,email"`
	Age           *int     `json:"age"`
	WeightKg      *float64 `json:"weight_kg"`
	HeightCm      *float64 `json:"height_cm"`
	FitnessGoal   *string  `json:"fitness_goal"`
	DailyStepGoal *int     `json:"daily_step_goal"`
}

// UpdateProfile applies partial updates to body metrics and preferences.
func (a *AuthController) UpdateProfile(ctx *gin.Context) {
	userID, ok := currentUserID(ctx)
	if !ok {
		return
	}

	var req updateProfileRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		utils.Error(ctx, http.StatusBadRequest, 40013, "invalid profile payload")
		return
	}

	user, err := a.store.Users.GetByID(ctx, userID)
	if err != nil {
		repoError(ctx, 50013, err)
		return
	}

	if req.Email != nil {
		user.Email = strings.TrimSpace(*req.Email)
	}
	if req.Age != nil && *req.Age >= 0 {
		user.Age = *req.Age
	}
	if req.WeightKg != nil && *req.WeightKg >= 0 {
		user.WeightKg = *req.WeightKg
	}
	if req.HeightCm != nil && *req.HeightCm >= 0 {
		user.HeightCm = *req.HeightCm
	}
	if req.FitnessGoal != nil {
		user.FitnessGoal = utils.SanitizeText(*req.FitnessGoal)
	}
	if req.DailyStepGoal != nil && *req.DailyStepGoal > 0 {
		user.DailyStepGoal = *req.DailyStepGoal
	}

	if err := a.store.Users.Update(ctx, user); err != nil {
		repoError(ctx, 50014, err)
		return
	}
	utils.CacheDelete(userCacheKey(user.ID))
	utils.Success(ctx, user)
}

// GetUserPublic returns the public profile by numeric id, cached in Redis.
func (a *AuthController) GetUserPublic(ctx *gin.Context) {
	id, ok := pathID(ctx, "id")
	if !ok {
		return
	}

	key := userCacheKey(id)
	if b, ok := utils.CacheGetBytes(key); ok {
		ctx.Data(http.StatusOK, "application/json", b)
		return
	}

	user, err := a.store.Users.GetByID(ctx, id)
	if err != nil {
		repoError(ctx, 50013, err)
		return
	}

	resp := utils.JSONResponse{Code: 0, Message: "success", Data: publicProfile(user)}
	utils.CacheSetJSON(key, resp, 5*time.Minute)
	ctx.JSON(http.StatusOK, resp)
}

// GetUserPublicByUsername returns the public profile by username.
func (a *AuthController) GetUserPublicByUsername(ctx *gin.Context) {
	username := strings.TrimSpace(ctx.Param("username"))
	if username == "" {
		utils.Error(ctx, http.StatusBadRequest, 40011, "invalid username")
		return
	}
	user, err := a.store.Users.GetByUsername(ctx, username)
	if err != nil {
		repoError(ctx, 50013, err)
		return
	}
	utils.Success(ctx, publicProfile(user))
}

// publicProfile strips fields other users should not see.
func publicProfile(u *models.User) gin.H {
	return gin.H{
		"id":              u.ID,
		"username":        u.Username,
		"fitness_goal":    u.FitnessGoal,
		"daily_step_goal": u.DailyStepGoal,
		"friend_code":     u.FriendCode,
		"created_at":      u.CreatedAt,
	}
}

func userCacheKey(id uint) string {
	return fmt.Sprintf("user:public:%d", id)
}
