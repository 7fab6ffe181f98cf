package http

import (
	"errors"
	"net/http"
	"strconv"

	"ma-siu/pkg/logger"
	"ma-siu/services/reward/internal/usecase"

	"github.com/gin-gonic/gin"
)

func respondError(c *gin.Context, log *logger.Logger, err error, action string) {
	switch {
	case errors.Is(err, usecase.ErrInvalidAmount), errors.Is(err, usecase.ErrInvalidReward):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	case errors.Is(err, usecase.ErrNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": "Not found"})
	case errors.Is(err, usecase.ErrInvalidState):
		c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
	case errors.Is(err, usecase.ErrContention):
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "Service busy, please retry"})
	default:
		log.Error("Failed to %s: %v", action, err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to " + action})
	}
}

func pageParams(c *gin.Context) (int, int) {
	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	pageSize, _ := strconv.Atoi(c.DefaultQuery("pageSize", "20"))
	return page, pageSize
}
