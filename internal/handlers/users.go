package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/yudhapratama/learnhub/internal/middleware"
	"github.com/yudhapratama/learnhub/internal/services"
	"github.com/yudhapratama/learnhub/pkg/errors"
	"github.com/yudhapratama/learnhub/pkg/response"
)

// UserHandler serves the profile of the authenticated user.
type UserHandler struct {
	auth *services.AuthService
}

func NewUserHandler(auth *services.AuthService) *UserHandler {
	return &UserHandler{auth: auth}
}

// GET /api/user/me
func (h *UserHandler) Me(c *gin.Context) {
	userID := c.GetString(middleware.CtxUserIDKey)
	if userID == "" {
		response.Error(c, errors.ErrUnauthorized)
		return
	}

	user, err := h.auth.GetUser(c.Request.Context(), userID)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, http.StatusOK, user)
}
