package handlers

import (
	"net/http"
	"strings"

	"nft-marketplace-api/internal/models"
	"nft-marketplace-api/internal/services"
	"nft-marketplace-api/pkg/logger"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// WalletHandler handles wallet session HTTP requests
type WalletHandler struct {
	sessions services.WalletSessionInterface
}

// NewWalletHandler creates a new WalletHandler instance
func NewWalletHandler(sessions services.WalletSessionInterface) *WalletHandler {
	return &WalletHandler{
		sessions: sessions,
	}
}

// GetSession handles GET /api/wallet requests. Probing never triggers a
// wallet prompt.
func (h *WalletHandler) GetSession(c *gin.Context) {
	c.JSON(http.StatusOK, h.sessions.Probe())
}

// Connect handles POST /api/wallet/connect requests
func (h *WalletHandler) Connect(c *gin.Context) {
	log := logger.GetLogger().WithContext(c.Request.Context())

	var req models.ConnectRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		models.HandleError(c, models.NewAppErrorWithDetails(
			models.ErrorCodeMalformedJSON, "Invalid JSON format", err.Error()), log)
		return
	}

	choice, err := parseProvider(req.Provider)
	if err != nil {
		log.Warn("Rejected unknown wallet provider", zap.String("provider", req.Provider))
		models.HandleError(c, models.NewValidationError("Unknown wallet provider", req.Provider), log)
		return
	}

	session, err := h.sessions.Connect(c.Request.Context(), choice)
	if err != nil {
		models.HandleError(c, err, log)
		return
	}

	c.JSON(http.StatusOK, session)
}

// Disconnect handles POST /api/wallet/disconnect requests. Disconnecting an
// already-disconnected session succeeds.
func (h *WalletHandler) Disconnect(c *gin.Context) {
	log := logger.GetLogger().WithContext(c.Request.Context())

	if err := h.sessions.Disconnect(c.Request.Context()); err != nil {
		models.HandleError(c, err, log)
		return
	}

	c.JSON(http.StatusOK, h.sessions.Probe())
}

// parseProvider maps a request string onto a known provider choice
func parseProvider(raw string) (models.WalletProviderChoice, error) {
	switch models.WalletProviderChoice(strings.ToLower(raw)) {
	case models.ProviderPhantom:
		return models.ProviderPhantom, nil
	case models.ProviderSolflare:
		return models.ProviderSolflare, nil
	default:
		return "", models.NewValidationError("Unknown wallet provider", raw)
	}
}
