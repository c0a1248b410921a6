package controllers

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/stepsync/server/models"
	"github.com/stepsync/server/repository"
	"github.com/stepsync/server/utils"
)

// FriendsController manages friendship edges. Requests are addressed by
// friend code so usernames never need to be guessable.
type FriendsController struct {
	store *repository.Store
}

func NewFriendsController(store *repository.Store) *FriendsController {
	return &FriendsController{store: store}
}

type friendRequestPayload struct {
	FriendCode string `json:"friend_code" binding:"required,max=36"`
}

// Request sends a friend request to the owner of the given friend code.
func (f *FriendsController) Request(ctx *gin.Context) {
	userID, ok := currentUserID(ctx)
	if !ok {
		return
	}

	var req friendRequestPayload
	if err := ctx.ShouldBindJSON(&req); err != nil {
		utils.Error(ctx, http.StatusBadRequest, 40050, "invalid friend request")
		return
	}

	target, err := f.store.Users.GetByFriendCode(ctx, strings.TrimSpace(req.FriendCode))
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			utils.Error(ctx, http.StatusNotFound, 40450, "no user with that friend code")
			return
		}
		repoError(ctx, 50050, err)
		return
	}
	if target.ID == userID {
		utils.Error(ctx, http.StatusBadRequest, 40051, "cannot befriend yourself")
		return
	}

	if err := f.store.Friends.Request(ctx, userID, target.ID); err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			utils.Error(ctx, http.StatusConflict, 40950, "request already exists")
			return
		}
		repoError(ctx, 50051, err)
		return
	}
	utils.Success(ctx, gin.H{"friend_id": target.ID, "username": target.Username})
}

// Accept confirms a pending request addressed to the caller.
func (f *FriendsController) Accept(ctx *gin.Context) {
	userID, ok := currentUserID(ctx)
	if !ok {
		return
	}
	requesterID, ok := pathID(ctx, "id")
	if !ok {
		return
	}

	if err := f.store.Friends.Accept(ctx, userID, requesterID); err != nil {
		repoError(ctx, 50052, err)
		return
	}
	utils.Success(ctx, nil)
}

// Remove deletes the relationship in both directions.
func (f *FriendsController) Remove(ctx *gin.Context) {
	userID, ok := currentUserID(ctx)
	if !ok {
		return
	}
	friendID, ok := pathID(ctx, "id")
	if !ok {
		return
	}

	if err := f.store.Friends.Remove(ctx, userID, friendID); err != nil {
		repoError(ctx, 50053, err)
		return
	}
	utils.Success(ctx, nil)
}

// List returns accepted friends with public profiles attached.
func (f *FriendsController) List(ctx *gin.Context) {
	userID, ok := currentUserID(ctx)
	if !ok {
		return
	}

	edges, err := f.store.Friends.ListAccepted(ctx, userID)
	if err != nil {
		repoError(ctx, 50054, err)
		return
	}
	utils.Success(ctx, f.withProfiles(ctx, edges, func(e *models.Friend) uint { return e.FriendUserID }))
}

// Pending returns requests awaiting the caller's decision.
func (f *FriendsController) Pending(ctx *gin.Context) {
	userID, ok := currentUserID(ctx)
	if !ok {
		return
	}

	edges, err := f.store.Friends.ListPending(ctx, userID)
	if err != nil {
		repoError(ctx, 50054, err)
		return
	}
	utils.Success(ctx, f.withProfiles(ctx, edges, func(e *models.Friend) uint { return e.UserID }))
}

func (f *FriendsController) withProfiles(ctx *gin.Context, edges []models.Friend, pick func(*models.Friend) uint) []gin.H {
	out := make([]gin.H, 0, len(edges))
	for i := range edges {
		e := &edges[i]
		item := gin.H{"status": e.Status, "since": e.CreatedAt}
		if u, err := f.store.Users.GetByID(ctx, pick(e)); err == nil {
			item["user"] = publicProfile(u)
		}
		out = append(out, item)
	}
	return out
}
