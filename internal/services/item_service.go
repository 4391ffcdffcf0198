// internal/services/item_service.go
package services

import (
	"errors"
	"fmt"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/tradeloop/tradeloop-backend/internal/models"
	"github.com/tradeloop/tradeloop-backend/internal/utils"
)

type ItemService struct {
	db *gorm.DB
}

type CreateItemRequest struct {
	Title       string               `json:"title" validate:"required,min=3,max=255"`
	Description string               `json:"description" validate:"max=4000"`
	Category    string               `json:"category" validate:"required,max=100"`
	Condition   models.ItemCondition `json:"condition" validate:"required"`
	Images      []string             `json:"images,omitempty"`
	Latitude    *float64             `json:"latitude,omitempty" validate:"omitempty,min=-90,max=90"`
	Longitude   *float64             `json:"longitude,omitempty" validate:"omitempty,min=-180,max=180"`
}

type UpdateItemRequest struct {
	Title       string               `json:"title,omitempty" validate:"omitempty,min=3,max=255"`
	Description *string              `json:"description,omitempty" validate:"omitempty,max=4000"`
	Category    string               `json:"category,omitempty" validate:"omitempty,max=100"`
	Condition   models.ItemCondition `json:"condition,omitempty"`
	Images      []string             `json:"images,omitempty"`
	Status      models.ItemStatus    `json:"status,omitempty"`
}

func NewItemService(db *gorm.DB) *ItemService {
	return &ItemService{db: db}
}

func (s *ItemService) CreateItem(ownerID uuid.UUID, req *CreateItemRequest) (*models.Item, error) {
	if err := utils.ValidateStruct(req); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidInput, err)
	}
	if !models.ValidItemCondition(req.Condition) {
		return nil, fmt.Errorf("%w: unknown condition %q", ErrInvalidInput, req.Condition)
	}

	var owner models.User
	if err := s.db.First(&owner, "id = ?", ownerID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("%w: user %s", ErrNotFound, ownerID)
		}
		return nil, fmt.Errorf("failed to load owner: %w", err)
	}
	if owner.Status != models.UserStatusActive {
		return nil, fmt.Errorf("%w: account is %s", ErrUnauthorized, owner.Status)
	}

	item := &models.Item{
		OwnerID:     ownerID,
		Title:       req.Title,
		Description: req.Description,
		Category:    req.Category,
		Condition:   req.Condition,
		Images:      models.StringList(req.Images),
		Status:      models.ItemStatusAvailable,
		Latitude:    req.Latitude,
		Longitude:   req.Longitude,
	}

	if err := s.db.Create(item).Error; err != nil {
		return nil, fmt.Errorf("failed to create item: %w", err)
	}

	return item, nil
}

func (s *ItemService) GetItem(itemID uuid.UUID) (*models.Item, error) {
	var item models.Item
	if err := s.db.Preload("Owner").First(&item, "id = ?", itemID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("%w: item %s", ErrNotFound, itemID)
		}
		return nil, fmt.Errorf("failed to load item: %w", err)
	}
	return &item, nil
}

// UpdateItem applies owner edits. Traded items are immutable; owners may
// only move status between available and unavailable.
func (s *ItemService) UpdateItem(itemID, ownerID uuid.UUID, req *UpdateItemRequest) (*models.Item, error) {
	if err := utils.ValidateStruct(req); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidInput, err)
	}

	var item models.Item
	if err := s.db.First(&item, "id = ?", itemID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("%w: item %s", ErrNotFound, itemID)
		}
		return nil, fmt.Errorf("failed to load item: %w", err)
	}

	if item.OwnerID != ownerID {
		return nil, fmt.Errorf("%w: not the item owner", ErrUnauthorized)
	}
	if item.Status == models.ItemStatusTraded {
		return nil, fmt.Errorf("%w: traded items cannot be edited", ErrInvalidState)
	}

	updates := make(map[string]interface{})
	if req.Title != "" {
		updates["title"] = req.Title
	}
	if req.Description != nil {
		updates["description"] = *req.Description
	}
	if req.Category != "" {
		updates["category"] = req.Category
	}
	if req.Condition != "" {
		if !models.ValidItemCondition(req.Condition) {
			return nil, fmt.Errorf("%w: unknown condition %q", ErrInvalidInput, req.Condition)
		}
		updates["condition"] = req.Condition
	}
	if req.Images != nil {
		updates["images"] = models.StringList(req.Images)
	}
	if req.Status != "" {
		if req.Status != models.ItemStatusAvailable && req.Status != models.ItemStatusUnavailable {
			return nil, fmt.Errorf("%w: owners may only set available or unavailable", ErrInvalidState)
		}
		updates["status"] = req.Status
	}

	if len(updates) > 0 {
		if err := s.db.Model(&item).Updates(updates).Error; err != nil {
			return nil, fmt.Errorf("failed to update item: %w", err)
		}
	}

	return &item, nil
}

// DeleteItem soft-deletes a listing. Items with an accepted offer must have
// the offer resolved first.
func (s *ItemService) DeleteItem(itemID, ownerID uuid.UUID) error {
	var item models.Item
	if err := s.db.First(&item, "id = ?", itemID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return fmt.Errorf("%w: item %s", ErrNotFound, itemID)
		}
		return fmt.Errorf("failed to load item: %w", err)
	}

	if item.OwnerID != ownerID {
		return fmt.Errorf("%w: not the item owner", ErrUnauthorized)
	}

	var acceptedCount int64
	if err := s.db.Model(&models.TradeOffer{}).
		Where("(trade_anchor_id = ? OR target_item_id = ?) AND status = ?",
			itemID, itemID, models.OfferStatusAccepted).
		Count(&acceptedCount).Error; err != nil {
		return fmt.Errorf("failed to check accepted offers: %w", err)
	}
	if acceptedCount > 0 {
		return fmt.Errorf("%w: item has an accepted offer in flight", ErrInvalidState)
	}

	if err := s.db.Delete(&item).Error; err != nil {
		return fmt.Errorf("failed to delete item: %w", err)
	}
	return nil
}

func (s *ItemService) ListUserItems(ownerID uuid.UUID, params utils.PaginationParams) ([]models.Item, int64, error) {
	query := s.db.Model(&models.Item{}).Where("owner_id = ?", ownerID)
	if params.Category != "" {
		query = query.Where("category = ?", params.Category)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to count items: %w", err)
	}

	allowedSortFields := []string{"created_at", "updated_at", "title", "status", "swipe_interest_count"}
	query = utils.ApplySort(query, params, allowedSortFields)
	query = utils.ApplyPagination(query, params)

	var items []models.Item
	if err := query.Find(&items).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to list items: %w", err)
	}

	return items, total, nil
}
