// internal/handlers/swipe.go
package handlers

import (
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/tradeloop/tradeloop-backend/internal/models"
	"github.com/tradeloop/tradeloop-backend/internal/services"
	"github.com/tradeloop/tradeloop-backend/internal/utils"
)

type SwipeHandler struct {
	swipeService     *services.SwipeService
	poolService      *services.ItemPoolService
	rateLimitService *services.RateLimitService
}

func NewSwipeHandler(swipeService *services.SwipeService, poolService *services.ItemPoolService, rateLimitService *services.RateLimitService) *SwipeHandler {
	return &SwipeHandler{
		swipeService:     swipeService,
		poolService:      poolService,
		rateLimitService: rateLimitService,
	}
}

// POST /swipe/sessions
func (h *SwipeHandler) CreateSession(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}

	var req struct {
		TradeAnchorID uuid.UUID `json:"trade_anchor_id" validate:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.BadRequestResponse(c, "", err.Error())
		return
	}

	session, err := h.swipeService.CreateSwipeSession(userID, req.TradeAnchorID)
	if err != nil {
		respondServiceError(c, err)
		return
	}

	utils.CreatedResponse(c, session)
}

// POST /swipe/sessions/:id/swipes
func (h *SwipeHandler) RecordSwipe(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}
	sessionID, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	var req struct {
		ItemID    uuid.UUID             `json:"item_id" validate:"required"`
		Direction models.SwipeDirection `json:"direction" validate:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.BadRequestResponse(c, "", err.Error())
		return
	}

	result, err := h.swipeService.RecordSwipe(sessionID, userID, req.ItemID, req.Direction)
	if err != nil {
		respondServiceError(c, err)
		return
	}

	utils.CreatedResponse(c, result)
}

// GET /swipe/sessions/:id/history
func (h *SwipeHandler) GetHistory(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}
	sessionID, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	records, err := h.swipeService.GetSwipeHistory(sessionID, userID)
	if err != nil {
		respondServiceError(c, err)
		return
	}

	utils.SuccessResponse(c, records)
}

// POST /swipe/sessions/:id/pool
func (h *SwipeHandler) GetPool(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}
	sessionID, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	var req struct {
		Filters     services.PoolFilters  `json:"filters"`
		Coordinates *services.Coordinates `json:"coordinates,omitempty"`
		Cursor      int                   `json:"cursor"`
		Limit       int                   `json:"limit"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.BadRequestResponse(c, "", err.Error())
		return
	}

	page, err := h.poolService.BuildPool(services.PoolRequest{
		UserID:      userID,
		SessionID:   sessionID,
		Filters:     req.Filters,
		Coordinates: req.Coordinates,
		Cursor:      req.Cursor,
		Limit:       req.Limit,
	})
	if err != nil {
		respondServiceError(c, err)
		return
	}

	utils.SuccessResponse(c, page)
}

// GET /swipe/rate-limit
func (h *SwipeHandler) GetRateLimit(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}

	action := models.RateLimitAction(c.DefaultQuery("action", string(models.RateLimitActionSwipe)))
	result, err := h.rateLimitService.Check(userID, action)
	if err != nil {
		respondServiceError(c, err)
		return
	}

	utils.SuccessResponse(c, result)
}

func queryInt(c *gin.Context, name string, fallback int) int {
	if v, err := strconv.Atoi(c.Query(name)); err == nil {
		return v
	}
	return fallback
}
