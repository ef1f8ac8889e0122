// Package api holds the gin handlers of the public HTTP API.
package api

import (
	"strconv"
	"strings"

	apperrors "literary-character-ai/backend/pkg/errors"
	"literary-character-ai/backend/pkg/middleware"

	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"
)

func invalidRequest(cause error) *apperrors.AppError {
	return apperrors.NewBadRequestError("INVALID_REQUEST", "Invalid request format").WithCause(cause)
}

// notblank rejects strings that are empty after trimming; request structs
// bound by these handlers rely on it
func init() {
	v, ok := binding.Validator.Engine().(*validator.Validate)
	if !ok {
		return
	}
	_ = v.RegisterValidation("notblank", func(fl validator.FieldLevel) bool {
		return strings.TrimSpace(fl.Field().String()) != ""
	})
}

// currentUser returns the authenticated user ID, pushing a 401 when absent
func currentUser(c *gin.Context) (uint, bool) {
	id, ok := middleware.UserID(c)
	if !ok {
		_ = c.Error(apperrors.NewUnauthorizedError("AUTH_REQUIRED", "Authentication required"))
		return 0, false
	}
	return id, true
}

// idParam parses a positive numeric path parameter
func idParam(c *gin.Context, name string) (uint, bool) {
	id, err := strconv.ParseUint(c.Param(name), 10, 64)
	if err != nil || id == 0 {
		_ = c.Error(apperrors.NewBadRequestError("INVALID_ID", name+" must be a positive number"))
		return 0, false
	}
	return uint(id), true
}
