package http

import (
	"net/http"

	"ma-siu/pkg/logger"
	"ma-siu/services/notification/internal/entity"
	"ma-siu/services/notification/internal/usecase"

	"github.com/gin-gonic/gin"
)

type NotificationHandler struct {
	dispatcher usecase.DispatcherUseCase
	history    usecase.HistoryUseCase
	logger     *logger.Logger
}

func NewNotificationHandler(dispatcher usecase.DispatcherUseCase, history usecase.HistoryUseCase, logger *logger.Logger) *NotificationHandler {
	return &NotificationHandler{
		dispatcher: dispatcher,
		history:    history,
		logger:     logger,
	}
}

type SendNotificationRequest struct {
	UserID               string            `json:"userId" binding:"required"`
	DeviceTokens         []string          `json:"deviceTokens"`
	UseRegisteredDevices bool              `json:"useRegisteredDevices"`
	Type                 string            `json:"type"`
	Title                string            `json:"title" binding:"required"`
	Body                 string            `json:"body"`
	ImageURL             string            `json:"imageUrl"`
	Data                 map[string]string `json:"data,omitempty"`
	IdempotencyKey       string            `json:"idempotencyKey"`
}

type SendTopicRequest struct {
	Topic          string            `json:"topic" binding:"required"`
	Type           string            `json:"type"`
	Title          string            `json:"title" binding:"required"`
	Body           string            `json:"body"`
	ImageURL       string            `json:"imageUrl"`
	Data           map[string]string `json:"data,omitempty"`
	IdempotencyKey string            `json:"idempotencyKey"`
}

// SendTemplatedRequest renders one of the built-in templates. Voucher types
// need code; System needs title. Without deviceTokens the user's registered
// devices are used.
type SendTemplatedRequest struct {
	UserID         string   `json:"userId" binding:"required"`
	DeviceTokens   []string `json:"deviceTokens"`
	Type           string   `json:"type" binding:"required"`
	Code           string   `json:"code"`
	Platform       string   `json:"platform"`
	Discount       string   `json:"discount"`
	PostID         string   `json:"postId"`
	HoursRemaining int      `json:"hoursRemaining"`
	Title          string   `json:"title"`
	Body           string   `json:"body"`
	IdempotencyKey string   `json:"idempotencyKey"`
}

// Send godoc
// @Summary      Send a notification (internal)
// @Description  Deliver a push to one user. A repeated idempotency key is skipped.
// @Tags         notifications
// @Accept       json
// @Produce      json
// @Param        request body SendNotificationRequest true "Notification"
// @Success      200  {object}  map[string]interface{}
// @Failure      400  {object}  map[string]string
// @Failure      502  {object}  map[string]string
// @Router       /notifications/send [post]
func (h *NotificationHandler) Send(c *gin.Context) {
	var req SendNotificationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	sent, err := h.dispatcher.Send(c.Request.Context(), usecase.SendRequest{
		UserID:               req.UserID,
		DeviceTokens:         req.DeviceTokens,
		UseRegisteredDevices: req.UseRegisteredDevices,
		Type:                 entity.NotificationType(req.Type),
		Title:                req.Title,
		Body:                 req.Body,
		ImageURL:             req.ImageURL,
		Data:                 req.Data,
		IdempotencyKey:       req.IdempotencyKey,
	})
	if err != nil {
		respondError(c, h.logger, err, "send notification")
		return
	}

	c.JSON(http.StatusOK, gin.H{"sent": sent, "duplicate": !sent})
}

// SendTopic godoc
// @Summary      Broadcast to a topic (internal)
// @Tags         notifications
// @Accept       json
// @Produce      json
// @Param        request body SendTopicRequest true "Broadcast"
// @Success      200  {object}  map[string]interface{}
// @Router       /notifications/send-topic [post]
func (h *NotificationHandler) SendTopic(c *gin.Context) {
	var req SendTopicRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	sent, err := h.dispatcher.SendToTopic(c.Request.Context(), usecase.TopicRequest{
		Topic:          req.Topic,
		Type:           entity.NotificationType(req.Type),
		Title:          req.Title,
		Body:           req.Body,
		ImageURL:       req.ImageURL,
		Data:           req.Data,
		IdempotencyKey: req.IdempotencyKey,
	})
	if err != nil {
		respondError(c, h.logger, err, "send topic notification")
		return
	}

	c.JSON(http.StatusOK, gin.H{"sent": sent})
}

// SendTemplated godoc
// @Summary      Send a templated notification (internal)
// @Description  NewVoucher and VoucherExpiring are keyed by voucher code; System by idempotencyKey.
// @Tags         notifications
// @Accept       json
// @Produce      json
// @Param        request body SendTemplatedRequest true "Templated notification"
// @Success      200  {object}  map[string]interface{}
// @Failure      400  {object}  map[string]string
// @Failure      502  {object}  map[string]string
// @Router       /notifications/send-templated [post]
func (h *NotificationHandler) SendTemplated(c *gin.Context) {
	var req SendTemplatedRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	ctx := c.Request.Context()
	var (
		sent bool
		err  error
	)
	switch entity.NotificationType(req.Type) {
	case entity.NotificationTypeNewVoucher, entity.NotificationTypeVoucherExpiring:
		if req.Code == "" {
			c.JSON(http.StatusBadRequest, gin.H{"error": "code is required"})
			return
		}
		if entity.NotificationType(req.Type) == entity.NotificationTypeNewVoucher {
			sent, err = h.dispatcher.SendNewVoucher(ctx, req.UserID, req.DeviceTokens, req.Code, req.Platform, req.Discount, req.PostID)
		} else {
			sent, err = h.dispatcher.SendVoucherExpiring(ctx, req.UserID, req.DeviceTokens, req.Code, req.Platform, req.HoursRemaining, req.PostID)
		}
	case entity.NotificationTypeSystem:
		sent, err = h.dispatcher.SendSystem(ctx, req.UserID, req.DeviceTokens, req.Title, req.Body, req.IdempotencyKey)
	default:
		c.JSON(http.StatusBadRequest, gin.H{"error": "unsupported template type " + req.Type})
		return
	}
	if err != nil {
		respondError(c, h.logger, err, "send templated notification")
		return
	}

	c.JSON(http.StatusOK, gin.H{"sent": sent, "duplicate": !sent})
}

// CheckDuplicate godoc
// @Summary      Check an idempotency key (internal)
// @Tags         notifications
// @Produce      json
// @Param        recipientId query string true "User id or topic:{name}"
// @Param        key         query string true "Idempotency key"
// @Success      200  {object}  map[string]bool
// @Router       /notifications/dedup [get]
func (h *NotificationHandler) CheckDuplicate(c *gin.Context) {
	duplicate, err := h.dispatcher.IsDuplicate(c.Request.Context(), c.Query("recipientId"), c.Query("key"))
	if err != nil {
		respondError(c, h.logger, err, "check duplicate")
		return
	}

	c.JSON(http.StatusOK, gin.H{"duplicate": duplicate})
}

// GetNotifications godoc
// @Summary      Get user notifications
// @Description  Paged history, newest first, with the unread count
// @Tags         notifications
// @Produce      json
// @Security     BearerAuth
// @Param        page      query int false "Page (1-based)"
// @Param        pageSize  query int false "Page size (max 100)"
// @Success      200  {object}  usecase.NotificationPage
// @Router       /notifications [get]
func (h *NotificationHandler) GetNotifications(c *gin.Context) {
	userID := c.GetString("user_id")
	if userID == "" {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
		return
	}

	page, pageSize := pageParams(c)
	result, err := h.history.GetNotifications(c.Request.Context(), userID, page, pageSize)
	if err != nil {
		respondError(c, h.logger, err, "get notifications")
		return
	}

	c.JSON(http.StatusOK, result)
}

// GetUnreadCount godoc
// @Summary      Get unread count
// @Tags         notifications
// @Produce      json
// @Security     BearerAuth
// @Success      200  {object}  map[string]int64
// @Router       /notifications/unread-count [get]
func (h *NotificationHandler) GetUnreadCount(c *gin.Context) {
	userID := c.GetString("user_id")
	if userID == "" {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
		return
	}

	count, err := h.history.GetUnreadCount(c.Request.Context(), userID)
	if err != nil {
		respondError(c, h.logger, err, "get unread count")
		return
	}

	c.JSON(http.StatusOK, gin.H{"unreadCount": count})
}

// MarkRead godoc
// @Summary      Mark a notification read
// @Tags         notifications
// @Security     BearerAuth
// @Param        id path string true "Notification ID"
// @Success      204
// @Failure      404  {object}  map[string]string
// @Router       /notifications/{id}/read [post]
func (h *NotificationHandler) MarkRead(c *gin.Context) {
	userID := c.GetString("user_id")
	if userID == "" {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
		return
	}

	if err := h.history.MarkRead(c.Request.Context(), userID, c.Param("id")); err != nil {
		respondError(c, h.logger, err, "mark notification read")
		return
	}

	c.Status(http.StatusNoContent)
}

// MarkAllRead godoc
// @Summary      Mark all notifications read
// @Tags         notifications
// @Produce      json
// @Security     BearerAuth
// @Success      200  {object}  map[string]int64
// @Router       /notifications/mark-all-read [post]
func (h *NotificationHandler) MarkAllRead(c *gin.Context) {
	userID := c.GetString("user_id")
	if userID == "" {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
		return
	}

	updated, err := h.history.MarkAllRead(c.Request.Context(), userID)
	if err != nil {
		respondError(c, h.logger, err, "mark all read")
		return
	}

	c.JSON(http.StatusOK, gin.H{"updated": updated})
}
