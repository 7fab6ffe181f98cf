package http

import (
	"net/http"

	"ma-siu/pkg/logger"
	"ma-siu/services/reward/internal/usecase"

	"github.com/gin-gonic/gin"
)

type AdminHandler struct {
	reconcileUseCase usecase.ReconcileUseCase
	logger           *logger.Logger
}

func NewAdminHandler(reconcileUseCase usecase.ReconcileUseCase, logger *logger.Logger) *AdminHandler {
	return &AdminHandler{
		reconcileUseCase: reconcileUseCase,
		logger:           logger,
	}
}

// Reconcile godoc
// @Summary      Run reconciliation sweep (admin)
// @Description  Rebuilds redemptions interrupted after the points spend
// @Tags         admin
// @Produce      json
// @Security     BearerAuth
// @Success      200  {object}  usecase.ReconcileSummary
// @Router       /admin/reconcile [post]
func (h *AdminHandler) Reconcile(c *gin.Context) {
	summary, err := h.reconcileUseCase.Run(c.Request.Context())
	if err != nil {
		respondError(c, h.logger, err, "run reconciliation")
		return
	}

	c.JSON(http.StatusOK, summary)
}
