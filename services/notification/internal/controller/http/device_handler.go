package http

import (
	"net/http"

	"ma-siu/pkg/logger"
	"ma-siu/services/notification/internal/usecase"

	"github.com/gin-gonic/gin"
)

type DeviceHandler struct {
	deviceUseCase  usecase.DeviceUseCase
	vapidPublicKey string
	logger         *logger.Logger
}

func NewDeviceHandler(deviceUseCase usecase.DeviceUseCase, vapidPublicKey string, logger *logger.Logger) *DeviceHandler {
	return &DeviceHandler{
		deviceUseCase:  deviceUseCase,
		vapidPublicKey: vapidPublicKey,
		logger:         logger,
	}
}

type RegisterDeviceRequest struct {
	// Token is the browser PushSubscription serialized as JSON.
	Token    string   `json:"token" binding:"required"`
	Platform string   `json:"platform"`
	Topics   []string `json:"topics"`
}

type UnregisterDeviceRequest struct {
	Token string `json:"token" binding:"required"`
}

// RegisterDevice godoc
// @Summary      Register a push subscription
// @Tags         devices
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        request body RegisterDeviceRequest true "Subscription"
// @Success      201  {object}  entity.DeviceToken
// @Failure      400  {object}  map[string]string
// @Router       /devices [post]
func (h *DeviceHandler) RegisterDevice(c *gin.Context) {
	userID := c.GetString("user_id")
	if userID == "" {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
		return
	}

	var req RegisterDeviceRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	device, err := h.deviceUseCase.RegisterDevice(c.Request.Context(), userID, req.Token, req.Platform, req.Topics)
	if err != nil {
		respondError(c, h.logger, err, "register device")
		return
	}

	c.JSON(http.StatusCreated, device)
}

// UnregisterDevice godoc
// @Summary      Remove a push subscription
// @Tags         devices
// @Accept       json
// @Security     BearerAuth
// @Param        request body UnregisterDeviceRequest true "Subscription"
// @Success      204
// @Failure      404  {object}  map[string]string
// @Router       /devices [delete]
func (h *DeviceHandler) UnregisterDevice(c *gin.Context) {
	userID := c.GetString("user_id")
	if userID == "" {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
		return
	}

	var req UnregisterDeviceRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	if err := h.deviceUseCase.UnregisterDevice(c.Request.Context(), userID, req.Token); err != nil {
		respondError(c, h.logger, err, "unregister device")
		return
	}

	c.Status(http.StatusNoContent)
}

// GetVAPIDPublicKey godoc
// @Summary      Get the VAPID public key
// @Description  Application server key for PushManager.subscribe
// @Tags         devices
// @Produce      json
// @Success      200  {object}  map[string]string
// @Router       /push/vapid-public-key [get]
func (h *DeviceHandler) GetVAPIDPublicKey(c *gin.Context) {
	if h.vapidPublicKey == "" {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "Web push is not configured"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"publicKey": h.vapidPublicKey})
}
