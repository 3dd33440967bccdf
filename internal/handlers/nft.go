package handlers

import (
	"net/http"

	"nft-marketplace-api/internal/models"
	"nft-marketplace-api/internal/services"
	"nft-marketplace-api/pkg/logger"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// NFTHandler handles NFT creation HTTP requests
type NFTHandler struct {
	creator *services.NFTCreator
}

// NewNFTHandler creates a new NFTHandler instance
func NewNFTHandler(creator *services.NFTCreator) *NFTHandler {
	return &NFTHandler{
		creator: creator,
	}
}

// Create handles POST /api/nfts requests
func (h *NFTHandler) Create(c *gin.Context) {
	log := logger.GetLogger().WithContext(c.Request.Context())

	var req models.CreateNFTRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		models.HandleError(c, models.NewAppErrorWithDetails(
			models.ErrorCodeMalformedJSON, "Invalid JSON format", err.Error()), log)
		return
	}

	response, err := h.creator.Create(c.Request.Context(), &req)
	if err != nil {
		models.HandleError(c, err, log)
		return
	}

	log.Info("NFT creation completed",
		zap.String("name", response.Name),
		zap.String("signature", response.Signature),
	)
	c.JSON(http.StatusCreated, response)
}
