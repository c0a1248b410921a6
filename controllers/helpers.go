// Package controllers implements the HTTP handlers for the step tracking
// API. Each controller wraps the repository store; handlers translate
// repository errors into the uniform response envelope.
package controllers

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/stepsync/server/middleware"
	"github.com/stepsync/server/repository"
	"github.com/stepsync/server/utils"
)

// currentUserID extracts the authenticated user from the Gin context. When
// absent the handler has been reached without the auth middleware; respond
// with 401 and report false.
func currentUserID(ctx *gin.Context) (uint, bool) {
	v, ok := ctx.Get(middleware.ContextUserIDKey)
	if !ok {
		utils.Error(ctx, http.StatusUnauthorized, 40100, "no current user")
		return 0, false
	}
	id, ok := v.(uint)
	if !ok || id == 0 {
		utils.Error(ctx, http.StatusUnauthorized, 40100, "no current user")
		return 0, false
	}
	return id, true
}

// pathID parses a numeric :param path segment.
func pathID(ctx *gin.Context, name string) (uint, bool) {
	raw := ctx.Param(name)
	id, err := strconv.ParseUint(raw, 10, 64)
	if err != nil || id == 0 {
		utils.Error(ctx, http.StatusBadRequest, 40001, "invalid id")
		return 0, false
	}
	return uint(id), true
}

// repoError maps repository errors onto the response envelope.
func repoError(ctx *gin.Context, code int, err error) {
	switch {
	case errors.Is(err, repository.ErrNotFound):
		utils.Error(ctx, http.StatusNotFound, 40400, "record not found")
	case errors.Is(err, repository.ErrDuplicate):
		utils.Error(ctx, http.StatusConflict, 40900, "record already exists")
	default:
		utils.Error(ctx, http.StatusInternalServerError, code, "internal error")
		if utils.Sugar != nil {
			utils.Sugar.Warnf("handler error path=%s err=%v", ctx.FullPath(), err)
		}
	}
}
