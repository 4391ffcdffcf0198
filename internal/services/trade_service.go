// internal/services/trade_service.go
package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"

	"github.com/tradeloop/tradeloop-backend/internal/database"
	"github.com/tradeloop/tradeloop-backend/internal/models"
)

// DeclineReasonConflict is written onto offers swept aside when one of their
// items is committed to a different completed trade.
const DeclineReasonConflict = "Item no longer available"

type TradeOfferService struct {
	db                  *gorm.DB
	conversationService *ConversationService
	notificationService *NotificationService
}

func NewTradeOfferService(db *gorm.DB, conversationService *ConversationService, notificationService *NotificationService) *TradeOfferService {
	return &TradeOfferService{
		db:                  db,
		conversationService: conversationService,
		notificationService: notificationService,
	}
}

// CreateTradeOffer registers interest in targetItemID, offering tradeAnchorID
// in exchange. Creation is idempotent on the (anchor, target, offeringUser)
// triple: a repeated right-swipe refreshes updated_at on the existing offer
// and returns it otherwise unchanged.
func (s *TradeOfferService) CreateTradeOffer(tradeAnchorID, targetItemID, offeringUserID uuid.UUID) (*models.TradeOffer, error) {
	if tradeAnchorID == uuid.Nil || targetItemID == uuid.Nil || offeringUserID == uuid.Nil {
		return nil, fmt.Errorf("%w: trade anchor, target item and offering user ids are required", ErrInvalidInput)
	}

	var existing models.TradeOffer
	err := s.db.Where("trade_anchor_id = ? AND target_item_id = ? AND offering_user_id = ?",
		tradeAnchorID, targetItemID, offeringUserID).First(&existing).Error
	if err == nil {
		if err := s.db.Model(&existing).Update("updated_at", time.Now()).Error; err != nil {
			return nil, fmt.Errorf("failed to refresh existing offer: %w", err)
		}
		return &existing, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("failed to look up existing offer: %w", err)
	}

	var anchor, target models.Item
	if err := s.db.First(&anchor, "id = ?", tradeAnchorID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("%w: trade anchor %s", ErrNotFound, tradeAnchorID)
		}
		return nil, fmt.Errorf("failed to load trade anchor: %w", err)
	}
	if err := s.db.First(&target, "id = ?", targetItemID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("%w: target item %s", ErrNotFound, targetItemID)
		}
		return nil, fmt.Errorf("failed to load target item: %w", err)
	}

	if anchor.Status != models.ItemStatusAvailable {
		return nil, fmt.Errorf("%w: trade anchor is %s", ErrItemUnavailable, anchor.Status)
	}
	if target.Status != models.ItemStatusAvailable {
		return nil, fmt.Errorf("%w: target item is %s", ErrItemUnavailable, target.Status)
	}
	if anchor.OwnerID != offeringUserID {
		return nil, fmt.Errorf("%w: user %s does not own item %s", ErrNotOwner, offeringUserID, tradeAnchorID)
	}

	offer := &models.TradeOffer{
		TradeAnchorID:      tradeAnchorID,
		TradeAnchorOwnerID: anchor.OwnerID,
		TargetItemID:       targetItemID,
		TargetItemOwnerID:  target.OwnerID,
		OfferingUserID:     offeringUserID,
		Status:             models.OfferStatusPending,
		CompletedBy:        models.StringList{},
	}

	// One offer write plus one counter increment. No cross-item lock is
	// taken; a racing offer on the same target only skews the counter.
	err = database.Retry(context.Background(), func() error {
		return database.WithTransaction(s.db, func(tx *gorm.DB) error {
			if err := tx.Create(offer).Error; err != nil {
				return fmt.Errorf("failed to create trade offer: %w", err)
			}
			if err := tx.Model(&models.Item{}).Where("id = ?", targetItemID).
				UpdateColumn("swipe_interest_count", gorm.Expr("swipe_interest_count + 1")).Error; err != nil {
				return fmt.Errorf("failed to update interest count: %w", err)
			}
			return nil
		})
	})
	if err != nil {
		return nil, err
	}

	if s.notificationService != nil {
		go s.notificationService.NotifyOfferCreated(offer)
	}

	return offer, nil
}

// AcceptTradeOffer moves a pending offer to accepted. Only the target item's
// owner may accept.
func (s *TradeOfferService) AcceptTradeOffer(offerID, userID uuid.UUID) (*models.TradeOffer, error) {
	offer, err := s.GetTradeOffer(offerID)
	if err != nil {
		return nil, err
	}

	if offer.TargetItemOwnerID != userID {
		return nil, fmt.Errorf("%w: only the target item owner may accept", ErrUnauthorized)
	}
	if offer.Status != models.OfferStatusPending {
		return nil, fmt.Errorf("%w: cannot accept a %s offer", ErrInvalidState, offer.Status)
	}

	// Guard against stale client state: both items must still exist and
	// neither may have been withdrawn.
	if err := s.checkItemsNotWithdrawn(offer); err != nil {
		return nil, err
	}

	if err := s.db.Model(offer).Update("status", models.OfferStatusAccepted).Error; err != nil {
		return nil, fmt.Errorf("failed to accept offer: %w", err)
	}
	offer.Status = models.OfferStatusAccepted

	if s.notificationService != nil {
		go s.notificationService.NotifyOfferAccepted(offer)
	}

	return offer, nil
}

// DeclineTradeOffer moves a pending or accepted offer to declined, optionally
// recording a reason. Only the target item's owner may decline.
func (s *TradeOfferService) DeclineTradeOffer(offerID, userID uuid.UUID, reason string) (*models.TradeOffer, error) {
	offer, err := s.GetTradeOffer(offerID)
	if err != nil {
		return nil, err
	}

	if offer.TargetItemOwnerID != userID {
		return nil, fmt.Errorf("%w: only the target item owner may decline", ErrUnauthorized)
	}
	if offer.IsTerminal() {
		return nil, fmt.Errorf("%w: cannot decline a %s offer", ErrInvalidState, offer.Status)
	}

	updates := map[string]interface{}{"status": models.OfferStatusDeclined}
	if reason != "" {
		updates["decline_reason"] = reason
	}
	if err := s.db.Model(offer).Updates(updates).Error; err != nil {
		return nil, fmt.Errorf("failed to decline offer: %w", err)
	}
	offer.Status = models.OfferStatusDeclined
	if reason != "" {
		offer.DeclineReason = &reason
	}

	if s.notificationService != nil {
		go s.notificationService.NotifyOfferDeclined(offer)
	}

	return offer, nil
}

// CompleteTradeOffer records one participant's completion confirmation. The
// second confirmation is the dual-confirmation transition: the offer becomes
// completed, both items become traded, and every other accepted offer
// referencing either item is declined, all in one atomic batch.
func (s *TradeOfferService) CompleteTradeOffer(offerID, userID uuid.UUID) (*models.TradeOffer, error) {
	var offer models.TradeOffer
	var completedNow bool
	var sweptOffers int

	err := database.Retry(context.Background(), func() error {
		completedNow = false
		sweptOffers = 0

		return database.WithTransaction(s.db, func(tx *gorm.DB) error {
			if err := tx.First(&offer, "id = ?", offerID).Error; err != nil {
				if errors.Is(err, gorm.ErrRecordNotFound) {
					return fmt.Errorf("%w: trade offer %s", ErrNotFound, offerID)
				}
				return fmt.Errorf("failed to load trade offer: %w", err)
			}

			if !offer.IsParticipant(userID) {
				return fmt.Errorf("%w: only trade participants may confirm completion", ErrUnauthorized)
			}
			if offer.Status != models.OfferStatusAccepted && offer.Status != models.OfferStatusCompleted {
				return fmt.Errorf("%w: offer is %s", ErrNotAccepted, offer.Status)
			}
			if offer.CompletedBy.Contains(userID.String()) {
				return fmt.Errorf("%w: user %s", ErrAlreadyConfirmed, userID)
			}

			var anchor, target models.Item
			if err := tx.First(&anchor, "id = ?", offer.TradeAnchorID).Error; err != nil {
				return fmt.Errorf("%w: trade anchor missing", ErrItemsUnavailable)
			}
			if err := tx.First(&target, "id = ?", offer.TargetItemID).Error; err != nil {
				return fmt.Errorf("%w: target item missing", ErrItemsUnavailable)
			}
			if anchor.Status != models.ItemStatusAvailable || target.Status != models.ItemStatusAvailable {
				return fmt.Errorf("%w: anchor is %s, target is %s", ErrItemsUnavailable, anchor.Status, target.Status)
			}

			offer.CompletedBy = append(offer.CompletedBy, userID.String())

			bothConfirmed := offer.CompletedBy.Contains(offer.OfferingUserID.String()) &&
				offer.CompletedBy.Contains(offer.TargetItemOwnerID.String())

			if !bothConfirmed {
				// First confirmer: record it, status stays accepted.
				return tx.Model(&offer).Update("completed_by", offer.CompletedBy).Error
			}

			completedNow = true
			offer.Status = models.OfferStatusCompleted
			if err := tx.Model(&offer).Updates(map[string]interface{}{
				"status":       models.OfferStatusCompleted,
				"completed_by": offer.CompletedBy,
			}).Error; err != nil {
				return fmt.Errorf("failed to complete offer: %w", err)
			}

			itemIDs := []uuid.UUID{offer.TradeAnchorID, offer.TargetItemID}
			if err := tx.Model(&models.Item{}).Where("id IN ?", itemIDs).
				Update("status", models.ItemStatusTraded).Error; err != nil {
				return fmt.Errorf("failed to mark items traded: %w", err)
			}

			conflicts, err := acceptedOffersReferencing(tx, itemIDs, offer.ID)
			if err != nil {
				return fmt.Errorf("conflict sweep failed: %w", err)
			}
			if len(conflicts) > 0 {
				ids := make([]uuid.UUID, 0, len(conflicts))
				for _, c := range conflicts {
					ids = append(ids, c.ID)
				}
				if err := tx.Model(&models.TradeOffer{}).Where("id IN ?", ids).
					Updates(map[string]interface{}{
						"status":         models.OfferStatusDeclined,
						"decline_reason": DeclineReasonConflict,
					}).Error; err != nil {
					return fmt.Errorf("failed to decline conflicting offers: %w", err)
				}
			}
			sweptOffers = len(conflicts)

			return nil
		})
	})
	if err != nil {
		return nil, err
	}

	if completedNow {
		logrus.WithFields(logrus.Fields{
			"offer_id":     offer.ID,
			"trade_anchor": offer.TradeAnchorID,
			"target_item":  offer.TargetItemID,
			"swept_offers": sweptOffers,
			"confirmed_by": userID,
		}).Info("Trade completed")

		// Best effort; a failure here is logged, never rolled back.
		go s.disableConflictingConversations(&offer)

		if s.notificationService != nil {
			go s.notificationService.NotifyOfferCompleted(&offer)
		}
	}

	return &offer, nil
}

func (s *TradeOfferService) GetTradeOffer(offerID uuid.UUID) (*models.TradeOffer, error) {
	var offer models.TradeOffer
	if err := s.db.First(&offer, "id = ?", offerID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("%w: trade offer %s", ErrNotFound, offerID)
		}
		return nil, fmt.Errorf("failed to load trade offer: %w", err)
	}
	return &offer, nil
}

// ListTradeOffers returns a user's offers. role is "incoming", "outgoing" or
// "all"; status narrows by offer status when non-empty.
func (s *TradeOfferService) ListTradeOffers(userID uuid.UUID, role string, status models.OfferStatus) ([]models.TradeOffer, error) {
	query := s.db.Model(&models.TradeOffer{}).
		Preload("TradeAnchor").Preload("TargetItem").
		Order("created_at DESC")

	switch role {
	case "incoming":
		query = query.Where("target_item_owner_id = ?", userID)
	case "outgoing":
		query = query.Where("offering_user_id = ?", userID)
	default:
		query = query.Where("offering_user_id = ? OR target_item_owner_id = ?", userID, userID)
	}

	if status != "" {
		query = query.Where("status = ?", status)
	}

	var offers []models.TradeOffer
	if err := query.Find(&offers).Error; err != nil {
		return nil, fmt.Errorf("failed to list trade offers: %w", err)
	}
	return offers, nil
}

func (s *TradeOfferService) checkItemsNotWithdrawn(offer *models.TradeOffer) error {
	var items []models.Item
	ids := []uuid.UUID{offer.TradeAnchorID, offer.TargetItemID}
	if err := s.db.Where("id IN ?", ids).Find(&items).Error; err != nil {
		return fmt.Errorf("failed to load offer items: %w", err)
	}
	if len(items) != 2 {
		return fmt.Errorf("%w: an item in this trade no longer exists", ErrItemsUnavailable)
	}
	for _, item := range items {
		if item.Status == models.ItemStatusUnavailable {
			return fmt.Errorf("%w: item %s has been withdrawn", ErrItemsUnavailable, item.ID)
		}
	}
	return nil
}

func (s *TradeOfferService) disableConflictingConversations(offer *models.TradeOffer) {
	if s.conversationService == nil {
		return
	}

	itemIDs := []uuid.UUID{offer.TradeAnchorID, offer.TargetItemID}
	disabled, err := s.conversationService.DisableForItems(itemIDs, offer.ID, DeclineReasonConflict)
	if err != nil {
		logrus.WithError(err).WithField("offer_id", offer.ID).
			Error("Failed to disable conversations after trade completion")
		return
	}

	logrus.WithFields(logrus.Fields{
		"offer_id": offer.ID,
		"disabled": disabled,
	}).Info("Disabled conversations for traded items")
}

// acceptedOffersReferencing emulates a disjunctive query over a store that
// only supports conjunctive predicates: one query per item-id and role
// combination, unioned and de-duplicated by offer id.
func acceptedOffersReferencing(tx *gorm.DB, itemIDs []uuid.UUID, exclude uuid.UUID) ([]models.TradeOffer, error) {
	seen := make(map[uuid.UUID]bool)
	var result []models.TradeOffer

	for _, field := range []string{"trade_anchor_id", "target_item_id"} {
		for _, itemID := range itemIDs {
			var batch []models.TradeOffer
			if err := tx.Where(field+" = ? AND status = ?", itemID, models.OfferStatusAccepted).
				Find(&batch).Error; err != nil {
				return nil, err
			}
			for _, offer := range batch {
				if offer.ID == exclude || seen[offer.ID] {
					continue
				}
				seen[offer.ID] = true
				result = append(result, offer)
			}
		}
	}

	return result, nil
}
