package http

import (
	"context"
	"net/http"
	"time"

	"ma-siu/pkg/logger"
	"ma-siu/services/reward/internal/entity"
	"ma-siu/services/reward/internal/usecase"

	"github.com/gin-gonic/gin"
)

type PointsHandler struct {
	pointsUseCase usecase.PointsUseCase
	logger        *logger.Logger
}

func NewPointsHandler(pointsUseCase usecase.PointsUseCase, logger *logger.Logger) *PointsHandler {
	return &PointsHandler{
		pointsUseCase: pointsUseCase,
		logger:        logger,
	}
}

type BalanceResponse struct {
	UserID          string    `json:"userId"`
	TotalPoints     int       `json:"totalPoints"`
	AvailablePoints int       `json:"availablePoints"`
	PendingPoints   int       `json:"pendingPoints"`
	LifetimePoints  int       `json:"lifetimePoints"`
	LastUpdated     time.Time `json:"lastUpdated"`
}

func toBalanceResponse(b *entity.Balance) BalanceResponse {
	return BalanceResponse{
		UserID:          b.UserID,
		TotalPoints:     b.TotalPoints(),
		AvailablePoints: b.AvailablePoints,
		PendingPoints:   b.PendingPoints,
		LifetimePoints:  b.LifetimePoints,
		LastUpdated:     b.LastUpdated,
	}
}

type AddPointsRequest struct {
	UserID      string `json:"userId" binding:"required"`
	Amount      int    `json:"amount" binding:"required"`
	Reason      string `json:"reason" binding:"required"`
	ReferenceID string `json:"referenceId"`
	IsPending   bool   `json:"isPending"`
}

type SettlePendingRequest struct {
	UserID string `json:"userId" binding:"required"`
	Amount int    `json:"amount" binding:"required"`
}

// GetBalance godoc
// @Summary      Get points balance
// @Description  Get the points balance of the authenticated user
// @Tags         points
// @Produce      json
// @Security     BearerAuth
// @Success      200  {object}  BalanceResponse
// @Router       /points/balance [get]
func (h *PointsHandler) GetBalance(c *gin.Context) {
	userID := c.GetString("user_id")
	if userID == "" {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
		return
	}

	balance, err := h.pointsUseCase.GetBalance(c.Request.Context(), userID)
	if err != nil {
		respondError(c, h.logger, err, "get balance")
		return
	}

	c.JSON(http.StatusOK, toBalanceResponse(balance))
}

// GetTransactions godoc
// @Summary      Get points transactions
// @Description  Paged transaction history, newest first
// @Tags         points
// @Produce      json
// @Security     BearerAuth
// @Param        page      query int false "Page (1-based)"
// @Param        pageSize  query int false "Page size (max 100)"
// @Success      200  {object}  usecase.TransactionPage
// @Router       /points/transactions [get]
func (h *PointsHandler) GetTransactions(c *gin.Context) {
	userID := c.GetString("user_id")
	if userID == "" {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
		return
	}

	page, pageSize := pageParams(c)
	result, err := h.pointsUseCase.GetTransactions(c.Request.Context(), userID, page, pageSize)
	if err != nil {
		respondError(c, h.logger, err, "get transactions")
		return
	}

	c.JSON(http.StatusOK, result)
}

// AddPoints godoc
// @Summary      Add points (internal)
// @Description  Credit points to a user. Requires X-Internal-Api-Key.
// @Tags         points
// @Accept       json
// @Produce      json
// @Param        request body AddPointsRequest true "Points to add"
// @Success      200  {object}  BalanceResponse
// @Failure      400  {object}  map[string]string
// @Router       /points/add [post]
func (h *PointsHandler) AddPoints(c *gin.Context) {
	var req AddPointsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	balance, err := h.pointsUseCase.AddPoints(c.Request.Context(), usecase.AddPointsRequest{
		UserID:      req.UserID,
		Amount:      req.Amount,
		Reason:      req.Reason,
		ReferenceID: req.ReferenceID,
		Pending:     req.IsPending,
	})
	if err != nil {
		respondError(c, h.logger, err, "add points")
		return
	}

	c.JSON(http.StatusOK, toBalanceResponse(balance))
}

// ApprovePending godoc
// @Summary      Approve pending points (internal)
// @Tags         points
// @Accept       json
// @Produce      json
// @Param        request body SettlePendingRequest true "Points to approve"
// @Success      200  {object}  BalanceResponse
// @Router       /points/pending/approve [post]
func (h *PointsHandler) ApprovePending(c *gin.Context) {
	h.settle(c, h.pointsUseCase.ApprovePending, "approve pending points")
}

// RejectPending godoc
// @Summary      Reject pending points (internal)
// @Tags         points
// @Accept       json
// @Produce      json
// @Param        request body SettlePendingRequest true "Points to reject"
// @Success      200  {object}  BalanceResponse
// @Router       /points/pending/reject [post]
func (h *PointsHandler) RejectPending(c *gin.Context) {
	h.settle(c, h.pointsUseCase.RejectPending, "reject pending points")
}

func (h *PointsHandler) settle(c *gin.Context, fn func(ctx context.Context, userID string, amount int) (*entity.Balance, error), action string) {
	var req SettlePendingRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	balance, err := fn(c.Request.Context(), req.UserID, req.Amount)
	if err != nil {
		respondError(c, h.logger, err, action)
		return
	}

	c.JSON(http.StatusOK, toBalanceResponse(balance))
}
