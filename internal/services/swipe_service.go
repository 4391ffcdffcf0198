// internal/services/swipe_service.go
package services

import (
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"

	"github.com/tradeloop/tradeloop-backend/internal/models"
)

// Remaining swipes at or below this threshold produce a soft warning.
const swipeWarnThreshold = 10

type SwipeService struct {
	db                  *gorm.DB
	tradeOfferService   *TradeOfferService
	conversationService *ConversationService
	rateLimitService    *RateLimitService
}

// SwipeResult carries the record plus whatever a right-swipe produced.
// Warning is advisory and never fails the swipe.
type SwipeResult struct {
	Record       *models.SwipeRecord  `json:"record"`
	Offer        *models.TradeOffer   `json:"offer,omitempty"`
	Conversation *models.Conversation `json:"conversation,omitempty"`
	Warning      string               `json:"warning,omitempty"`
}

func NewSwipeService(db *gorm.DB, tradeOfferService *TradeOfferService, conversationService *ConversationService, rateLimitService *RateLimitService) *SwipeService {
	return &SwipeService{
		db:                  db,
		tradeOfferService:   tradeOfferService,
		conversationService: conversationService,
		rateLimitService:    rateLimitService,
	}
}

// CreateSwipeSession opens a swipe session around one trade anchor. The
// caller must own the anchor, since right-swipes offer it in trade.
func (s *SwipeService) CreateSwipeSession(userID, tradeAnchorID uuid.UUID) (*models.SwipeSession, error) {
	if userID == uuid.Nil || tradeAnchorID == uuid.Nil {
		return nil, fmt.Errorf("%w: user and trade anchor ids are required", ErrInvalidInput)
	}

	var anchor models.Item
	if err := s.db.First(&anchor, "id = ?", tradeAnchorID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("%w: trade anchor %s", ErrNotFound, tradeAnchorID)
		}
		return nil, fmt.Errorf("failed to load trade anchor: %w", err)
	}
	if anchor.OwnerID != userID {
		return nil, fmt.Errorf("%w: user %s does not own item %s", ErrNotOwner, userID, tradeAnchorID)
	}

	session := &models.SwipeSession{
		UserID:         userID,
		TradeAnchorID:  tradeAnchorID,
		LastActivityAt: time.Now(),
	}
	if err := s.db.Create(session).Error; err != nil {
		return nil, fmt.Errorf("failed to create swipe session: %w", err)
	}

	return session, nil
}

// RecordSwipe appends one swipe decision. A right swipe additionally creates
// (or refreshes) the trade offer and its conversation.
func (s *SwipeService) RecordSwipe(sessionID, userID, itemID uuid.UUID, direction models.SwipeDirection) (*SwipeResult, error) {
	if direction != models.SwipeDirectionLeft && direction != models.SwipeDirectionRight {
		return nil, fmt.Errorf("%w: unknown swipe direction %q", ErrInvalidInput, direction)
	}

	session, err := s.getSession(sessionID, userID)
	if err != nil {
		return nil, err
	}

	result := &SwipeResult{}

	if s.rateLimitService != nil {
		limit, err := s.rateLimitService.Allow(userID, models.RateLimitActionSwipe)
		if err != nil {
			logrus.WithError(err).Warn("Rate limit check failed, allowing swipe")
		} else if !limit.Allowed {
			return nil, fmt.Errorf("%w: swipe limit resets at %s", ErrRateLimited, limit.ResetAt.Format(time.RFC3339))
		} else if limit.Remaining <= swipeWarnThreshold {
			result.Warning = fmt.Sprintf("approaching swipe rate limit: %d remaining", limit.Remaining)
		}
	}

	// Duplicate guard, one record per (session, item). A plain read check:
	// a racing duplicate slips through as a data-quality blemish, not a
	// correctness problem.
	var existing models.SwipeRecord
	err = s.db.Where("session_id = ? AND item_id = ?", sessionID, itemID).First(&existing).Error
	switch {
	case err == nil:
		result.Record = &existing
		if result.Warning == "" {
			result.Warning = "item already swiped in this session"
		}
	case errors.Is(err, gorm.ErrRecordNotFound):
		record := &models.SwipeRecord{
			SessionID: sessionID,
			UserID:    userID,
			ItemID:    itemID,
			Direction: direction,
		}
		if err := s.db.Create(record).Error; err != nil {
			return nil, fmt.Errorf("failed to record swipe: %w", err)
		}
		result.Record = record
	default:
		return nil, fmt.Errorf("failed to check for duplicate swipe: %w", err)
	}

	if err := s.db.Model(session).Update("last_activity_at", time.Now()).Error; err != nil {
		logrus.WithError(err).WithField("session_id", sessionID).
			Warn("Failed to touch swipe session")
	}

	if direction == models.SwipeDirectionRight {
		// Offer creation is idempotent on the triple, so repeating a
		// right-swipe on the same pair is safe.
		offer, err := s.tradeOfferService.CreateTradeOffer(session.TradeAnchorID, itemID, userID)
		if err != nil {
			return nil, err
		}
		result.Offer = offer

		conversation, err := s.conversationService.CreateForOffer(offer)
		if err != nil {
			// The offer stands; the conversation can be recreated later.
			logrus.WithError(err).WithField("offer_id", offer.ID).
				Error("Failed to create conversation for offer")
		} else {
			result.Conversation = conversation
		}
	}

	return result, nil
}

// GetSwipeHistory returns every record in the session. Its only contract is
// that swiped items never reappear in the same session's pool.
func (s *SwipeService) GetSwipeHistory(sessionID, userID uuid.UUID) ([]models.SwipeRecord, error) {
	if _, err := s.getSession(sessionID, userID); err != nil {
		return nil, err
	}

	var records []models.SwipeRecord
	if err := s.db.Where("session_id = ?", sessionID).Find(&records).Error; err != nil {
		return nil, fmt.Errorf("failed to load swipe history: %w", err)
	}
	return records, nil
}

func (s *SwipeService) getSession(sessionID, userID uuid.UUID) (*models.SwipeSession, error) {
	var session models.SwipeSession
	if err := s.db.First(&session, "id = ?", sessionID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("%w: swipe session %s", ErrNotFound, sessionID)
		}
		return nil, fmt.Errorf("failed to load swipe session: %w", err)
	}
	if session.UserID != userID {
		return nil, fmt.Errorf("%w: session belongs to another user", ErrUnauthorized)
	}
	return &session, nil
}
