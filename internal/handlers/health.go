package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/yudhapratama/learnhub/pkg/errors"
	"github.com/yudhapratama/learnhub/pkg/response"
)

// HealthHandler reports process and database liveness.
type HealthHandler struct {
	db *gorm.DB
}

func NewHealthHandler(db *gorm.DB) *HealthHandler {
	return &HealthHandler{db: db}
}

// GET /api/health
func (h *HealthHandler) Check(c *gin.Context) {
	sqlDB, err := h.db.DB()
	if err != nil {
		response.Error(c, errors.ErrUnavailable)
		return
	}
	if err := sqlDB.PingContext(c.Request.Context()); err != nil {
		response.Error(c, errors.ErrUnavailable)
		return
	}

	response.Success(c, http.StatusOK, gin.H{"status": "ok"})
}
