// internal/handlers/item.go
package handlers

import (
	"github.com/gin-gonic/gin"

	"github.com/tradeloop/tradeloop-backend/internal/services"
	"github.com/tradeloop/tradeloop-backend/internal/utils"
)

type ItemHandler struct {
	itemService    *services.ItemService
	storageService *services.StorageService
}

func NewItemHandler(itemService *services.ItemService, storageService *services.StorageService) *ItemHandler {
	return &ItemHandler{
		itemService:    itemService,
		storageService: storageService,
	}
}

// POST /items
func (h *ItemHandler) CreateItem(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}

	var req services.CreateItemRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.BadRequestResponse(c, "", err.Error())
		return
	}

	item, err := h.itemService.CreateItem(userID, &req)
	if err != nil {
		respondServiceError(c, err)
		return
	}

	utils.CreatedResponse(c, item)
}

// GET /items/:id
func (h *ItemHandler) GetItem(c *gin.Context) {
	itemID, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	item, err := h.itemService.GetItem(itemID)
	if err != nil {
		respondServiceError(c, err)
		return
	}

	utils.SuccessResponse(c, item)
}

// PATCH /items/:id
func (h *ItemHandler) UpdateItem(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}
	itemID, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	var req services.UpdateItemRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.BadRequestResponse(c, "", err.Error())
		return
	}

	item, err := h.itemService.UpdateItem(itemID, userID, &req)
	if err != nil {
		respondServiceError(c, err)
		return
	}

	utils.SuccessResponse(c, item)
}

// DELETE /items/:id
func (h *ItemHandler) DeleteItem(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}
	itemID, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	if err := h.itemService.DeleteItem(itemID, userID); err != nil {
		respondServiceError(c, err)
		return
	}

	utils.SuccessResponse(c, gin.H{"deleted": true})
}

// GET /items
func (h *ItemHandler) ListMyItems(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}

	params := utils.GetPaginationParams(c)
	items, total, err := h.itemService.ListUserItems(userID, params)
	if err != nil {
		respondServiceError(c, err)
		return
	}

	utils.PaginatedResponse(c, utils.CreatePaginationResult(items, total, params))
}

// POST /items/:id/images
func (h *ItemHandler) UploadImage(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}
	itemID, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	file, header, err := c.Request.FormFile("file")
	if err != nil {
		utils.BadRequestResponse(c, "file is required", nil)
		return
	}
	defer file.Close()

	if err := h.storageService.ValidateImage(file); err != nil {
		utils.BadRequestResponse(c, err.Error(), nil)
		return
	}

	result, err := h.storageService.UploadFile(file, header, h.storageService.GetDefaultUploadOptions("items"))
	if err != nil {
		utils.BadRequestResponse(c, err.Error(), nil)
		return
	}

	item, err := h.itemService.GetItem(itemID)
	if err != nil {
		respondServiceError(c, err)
		return
	}

	images := append([]string(item.Images), result.URL)
	updated, err := h.itemService.UpdateItem(itemID, userID, &services.UpdateItemRequest{Images: images})
	if err != nil {
		respondServiceError(c, err)
		return
	}

	utils.SuccessResponse(c, gin.H{
		"item":   updated,
		"upload": result,
	})
}
