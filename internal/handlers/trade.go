// internal/handlers/trade.go
package handlers

import (
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/tradeloop/tradeloop-backend/internal/models"
	"github.com/tradeloop/tradeloop-backend/internal/services"
	"github.com/tradeloop/tradeloop-backend/internal/utils"
)

type TradeHandler struct {
	tradeOfferService *services.TradeOfferService
}

func NewTradeHandler(tradeOfferService *services.TradeOfferService) *TradeHandler {
	return &TradeHandler{tradeOfferService: tradeOfferService}
}

// POST /trades
func (h *TradeHandler) CreateOffer(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}

	var req struct {
		TradeAnchorID uuid.UUID `json:"trade_anchor_id" validate:"required"`
		TargetItemID  uuid.UUID `json:"target_item_id" validate:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.BadRequestResponse(c, "", err.Error())
		return
	}

	offer, err := h.tradeOfferService.CreateTradeOffer(req.TradeAnchorID, req.TargetItemID, userID)
	if err != nil {
		respondServiceError(c, err)
		return
	}

	utils.CreatedResponse(c, offer)
}

// GET /trades/:id
func (h *TradeHandler) GetOffer(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}
	offerID, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	offer, err := h.tradeOfferService.GetTradeOffer(offerID)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	if !offer.IsParticipant(userID) {
		utils.ForbiddenResponse(c, "not a trade participant")
		return
	}

	utils.SuccessResponse(c, offer)
}

// GET /trades
func (h *TradeHandler) ListOffers(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}

	role := c.DefaultQuery("role", "all")
	status := models.OfferStatus(c.Query("status"))

	offers, err := h.tradeOfferService.ListTradeOffers(userID, role, status)
	if err != nil {
		respondServiceError(c, err)
		return
	}

	utils.SuccessResponse(c, offers)
}

// POST /trades/:id/accept
func (h *TradeHandler) AcceptOffer(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}
	offerID, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	offer, err := h.tradeOfferService.AcceptTradeOffer(offerID, userID)
	if err != nil {
		respondServiceError(c, err)
		return
	}

	utils.SuccessResponse(c, offer)
}

// POST /trades/:id/decline
func (h *TradeHandler) DeclineOffer(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}
	offerID, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	var req struct {
		Reason string `json:"reason,omitempty"`
	}
	// The body is optional for declines.
	_ = c.ShouldBindJSON(&req)

	offer, err := h.tradeOfferService.DeclineTradeOffer(offerID, userID, req.Reason)
	if err != nil {
		respondServiceError(c, err)
		return
	}

	utils.SuccessResponse(c, offer)
}

// POST /trades/:id/complete
func (h *TradeHandler) CompleteOffer(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}
	offerID, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	offer, err := h.tradeOfferService.CompleteTradeOffer(offerID, userID)
	if err != nil {
		respondServiceError(c, err)
		return
	}

	utils.SuccessResponse(c, gin.H{
		"offer":     offer,
		"completed": offer.Status == models.OfferStatusCompleted,
	})
}
