package handlers

import (
	"net/http"

	"nft-marketplace-api/internal/models"
	"nft-marketplace-api/internal/services"
	"nft-marketplace-api/pkg/logger"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// MintHandler handles mint simulation HTTP requests
type MintHandler struct {
	simulator     *services.MintSimulator
	notifications *services.NotificationBuffer
}

// NewMintHandler creates a new MintHandler instance
func NewMintHandler(simulator *services.MintSimulator, notifications *services.NotificationBuffer) *MintHandler {
	return &MintHandler{
		simulator:     simulator,
		notifications: notifications,
	}
}

// Mint handles POST /api/mint requests. The call blocks through settlement;
// the card's state is queryable from a second request meanwhile.
func (h *MintHandler) Mint(c *gin.Context) {
	log := logger.GetLogger().WithContext(c.Request.Context())

	var req models.MintRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		models.HandleError(c, models.NewAppErrorWithDetails(
			models.ErrorCodeMalformedJSON, "Invalid JSON format", err.Error()), log)
		return
	}

	result, err := h.simulator.Mint(c.Request.Context(), req.CardID)
	if err != nil {
		models.HandleError(c, err, log)
		return
	}

	log.Info("Mint completed",
		zap.String("card_id", req.CardID),
		zap.String("signature", result.Signature),
	)
	c.JSON(http.StatusOK, result)
}

// GetStatus handles GET /api/mint/:card_id requests
func (h *MintHandler) GetStatus(c *gin.Context) {
	cardID := c.Param("card_id")

	c.JSON(http.StatusOK, models.MintStatusResponse{
		CardID: cardID,
		State:  h.simulator.State(cardID),
	})
}

// GetNotifications handles GET /api/notifications requests
func (h *MintHandler) GetNotifications(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"notifications": h.notifications.Recent(),
	})
}
