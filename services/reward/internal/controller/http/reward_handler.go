package http

import (
	"net/http"

	"ma-siu/pkg/logger"
	"ma-siu/services/reward/internal/entity"
	"ma-siu/services/reward/internal/usecase"

	"github.com/gin-gonic/gin"
)

const maxImageSize = 5 << 20

var outcomeMessages = map[usecase.RedemptionOutcome]string{
	usecase.OutcomeRewardNotFound:     "Reward not found",
	usecase.OutcomeRewardUnavailable:  "Reward is not available",
	usecase.OutcomeInsufficientPoints: "Insufficient points",
}

type RewardHandler struct {
	rewardUseCase usecase.RewardUseCase
	logger        *logger.Logger
}

func NewRewardHandler(rewardUseCase usecase.RewardUseCase, logger *logger.Logger) *RewardHandler {
	return &RewardHandler{
		rewardUseCase: rewardUseCase,
		logger:        logger,
	}
}

type CreateRewardRequest struct {
	Name              string `json:"name" binding:"required"`
	Description       string `json:"description"`
	Type              string `json:"type"`
	PointsCost        int    `json:"pointsCost" binding:"required,min=1"`
	QuantityAvailable *int   `json:"quantityAvailable"`
	ImageURL          string `json:"imageUrl"`
}

type RedemptionStatusRequest struct {
	RedemptionCode string `json:"redemptionCode"`
	Notes          string `json:"notes"`
}

// GetCatalog godoc
// @Summary      List rewards
// @Description  All active rewards
// @Tags         rewards
// @Produce      json
// @Security     BearerAuth
// @Success      200  {object}  map[string]interface{}
// @Router       /rewards [get]
func (h *RewardHandler) GetCatalog(c *gin.Context) {
	rewards, err := h.rewardUseCase.GetCatalog(c.Request.Context())
	if err != nil {
		respondError(c, h.logger, err, "get rewards")
		return
	}

	c.JSON(http.StatusOK, gin.H{"rewards": rewards, "count": len(rewards)})
}

// Redeem godoc
// @Summary      Redeem a reward
// @Description  Spend points on a catalog reward
// @Tags         rewards
// @Produce      json
// @Security     BearerAuth
// @Param        id path string true "Reward ID"
// @Success      200  {object}  map[string]interface{}
// @Failure      400  {object}  map[string]string
// @Failure      503  {object}  map[string]string
// @Router       /rewards/{id}/redeem [post]
func (h *RewardHandler) Redeem(c *gin.Context) {
	userID := c.GetString("user_id")
	if userID == "" {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
		return
	}

	result, err := h.rewardUseCase.Redeem(c.Request.Context(), userID, c.Param("id"))
	if err != nil {
		respondError(c, h.logger, err, "redeem reward")
		return
	}

	if !result.Success {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":   outcomeMessages[result.Outcome],
			"outcome": result.Outcome,
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"redemptionId": result.Redemption.ID,
		"redemption":   result.Redemption,
	})
}

// GetRedemptions godoc
// @Summary      List my redemptions
// @Tags         rewards
// @Produce      json
// @Security     BearerAuth
// @Param        page      query int false "Page (1-based)"
// @Param        pageSize  query int false "Page size (max 100)"
// @Success      200  {object}  usecase.RedemptionPage
// @Router       /rewards/redemptions [get]
func (h *RewardHandler) GetRedemptions(c *gin.Context) {
	userID := c.GetString("user_id")
	if userID == "" {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
		return
	}

	page, pageSize := pageParams(c)
	result, err := h.rewardUseCase.GetRedemptions(c.Request.Context(), userID, page, pageSize)
	if err != nil {
		respondError(c, h.logger, err, "get redemptions")
		return
	}

	c.JSON(http.StatusOK, result)
}

// CreateReward godoc
// @Summary      Create reward (admin)
// @Tags         rewards
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        request body CreateRewardRequest true "Reward"
// @Success      201  {object}  entity.Reward
// @Failure      400  {object}  map[string]string
// @Router       /rewards [post]
func (h *RewardHandler) CreateReward(c *gin.Context) {
	var req CreateRewardRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	quantity := entity.UnlimitedQuantity
	if req.QuantityAvailable != nil {
		quantity = *req.QuantityAvailable
	}

	reward, err := h.rewardUseCase.CreateReward(c.Request.Context(), usecase.CreateRewardRequest{
		Name:              req.Name,
		Description:       req.Description,
		Type:              entity.RewardType(req.Type),
		PointsCost:        req.PointsCost,
		QuantityAvailable: quantity,
		ImageURL:          req.ImageURL,
	})
	if err != nil {
		respondError(c, h.logger, err, "create reward")
		return
	}

	c.JSON(http.StatusCreated, reward)
}

// UploadRewardImage godoc
// @Summary      Upload reward image (admin)
// @Tags         rewards
// @Accept       multipart/form-data
// @Produce      json
// @Security     BearerAuth
// @Param        id    path     string true "Reward ID"
// @Param        image formData file   true "Image file"
// @Success      200  {object}  entity.Reward
// @Router       /rewards/{id}/image [post]
func (h *RewardHandler) UploadRewardImage(c *gin.Context) {
	fileHeader, err := c.FormFile("image")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Image file required"})
		return
	}
	if fileHeader.Size > maxImageSize {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Image too large"})
		return
	}

	file, err := fileHeader.Open()
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Failed to read image"})
		return
	}
	defer file.Close()

	contentType := fileHeader.Header.Get("Content-Type")
	if contentType == "" {
		contentType = "application/octet-stream"
	}

	reward, err := h.rewardUseCase.UpdateRewardImage(c.Request.Context(), c.Param("id"), fileHeader.Filename, file, contentType)
	if err != nil {
		respondError(c, h.logger, err, "upload reward image")
		return
	}

	c.JSON(http.StatusOK, reward)
}

// ApproveRedemption godoc
// @Summary      Approve redemption (admin)
// @Tags         rewards
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        id      path string                  true  "Redemption ID"
// @Param        request body RedemptionStatusRequest false "Code and notes"
// @Success      200  {object}  entity.Redemption
// @Failure      409  {object}  map[string]string
// @Router       /rewards/redemptions/{id}/approve [post]
func (h *RewardHandler) ApproveRedemption(c *gin.Context) {
	var req RedemptionStatusRequest
	_ = c.ShouldBindJSON(&req)

	redemption, err := h.rewardUseCase.ApproveRedemption(c.Request.Context(), c.Param("id"), req.RedemptionCode, req.Notes)
	if err != nil {
		respondError(c, h.logger, err, "approve redemption")
		return
	}

	c.JSON(http.StatusOK, redemption)
}

// CompleteRedemption godoc
// @Summary      Complete redemption (admin)
// @Tags         rewards
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        id      path string                  true  "Redemption ID"
// @Param        request body RedemptionStatusRequest false "Notes"
// @Success      200  {object}  entity.Redemption
// @Router       /rewards/redemptions/{id}/complete [post]
func (h *RewardHandler) CompleteRedemption(c *gin.Context) {
	var req RedemptionStatusRequest
	_ = c.ShouldBindJSON(&req)

	redemption, err := h.rewardUseCase.CompleteRedemption(c.Request.Context(), c.Param("id"), req.Notes)
	if err != nil {
		respondError(c, h.logger, err, "complete redemption")
		return
	}

	c.JSON(http.StatusOK, redemption)
}
