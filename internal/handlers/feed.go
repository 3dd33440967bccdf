package handlers

import (
	"net/http"

	"nft-marketplace-api/internal/models"
	"nft-marketplace-api/internal/services"
	"nft-marketplace-api/pkg/logger"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// FeedHandler handles feed-related HTTP requests
type FeedHandler struct {
	controller services.ControllerInterface
}

// NewFeedHandler creates a new FeedHandler instance
func NewFeedHandler(controller services.ControllerInterface) *FeedHandler {
	return &FeedHandler{
		controller: controller,
	}
}

// GetFeed handles GET /api/feed requests
func (h *FeedHandler) GetFeed(c *gin.Context) {
	c.JSON(http.StatusOK, h.controller.Snapshot())
}

// SetTab handles POST /api/feed/tab requests
func (h *FeedHandler) SetTab(c *gin.Context) {
	log := logger.GetLogger().WithContext(c.Request.Context())

	var req models.SetTabRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		models.HandleError(c, models.NewAppErrorWithDetails(
			models.ErrorCodeMalformedJSON, "Invalid JSON format", err.Error()), log)
		return
	}

	tab, err := models.ParseTab(req.Tab)
	if err != nil {
		log.Warn("Rejected unknown feed tab", zap.String("tab", req.Tab))
		models.HandleError(c, models.NewAppErrorWithDetails(
			models.ErrorCodeInvalidTab, "Unknown feed tab", req.Tab), log)
		return
	}

	h.controller.SetTab(c.Request.Context(), tab)

	log.Info("Feed tab changed", zap.String("tab", string(tab)))
	c.JSON(http.StatusOK, h.controller.Snapshot())
}

// SetChain handles POST /api/feed/chain requests
func (h *FeedHandler) SetChain(c *gin.Context) {
	log := logger.GetLogger().WithContext(c.Request.Context())

	var req models.SetChainRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		models.HandleError(c, models.NewAppErrorWithDetails(
			models.ErrorCodeMalformedJSON, "Invalid JSON format", err.Error()), log)
		return
	}

	h.controller.SetChain(c.Request.Context(), req.Chain)

	log.Info("Feed chain changed", zap.String("chain", req.Chain))
	c.JSON(http.StatusOK, h.controller.Snapshot())
}

// Refresh handles POST /api/feed/refresh requests
func (h *FeedHandler) Refresh(c *gin.Context) {
	log := logger.GetLogger().WithContext(c.Request.Context())

	// Body is optional; an empty body means a silent refresh
	var req models.RefreshRequest
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			models.HandleError(c, models.NewAppErrorWithDetails(
				models.ErrorCodeMalformedJSON, "Invalid JSON format", err.Error()), log)
			return
		}
	}

	h.controller.Refresh(c.Request.Context(), req.Force)

	log.Info("Feed refresh requested", zap.Bool("force", req.Force))
	c.JSON(http.StatusAccepted, h.controller.Snapshot())
}

// GetCard handles GET /api/feed/cards/:card_id requests
func (h *FeedHandler) GetCard(c *gin.Context) {
	log := logger.GetLogger().WithContext(c.Request.Context())

	cardID := c.Param("card_id")
	card, ok := h.controller.CardByID(cardID)
	if !ok {
		models.HandleError(c, models.NewAppErrorWithDetails(
			models.ErrorCodeUnknownCard, "Card not found in current feed", cardID), log)
		return
	}

	c.JSON(http.StatusOK, card)
}
