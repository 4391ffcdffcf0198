// internal/services/conversation_service.go
package services

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"

	"github.com/tradeloop/tradeloop-backend/internal/models"
)

// EventPublisher pushes entity snapshots to subscribed clients. The websocket
// hub satisfies this; a nil publisher disables live delivery.
type EventPublisher interface {
	PublishToUsers(userIDs []string, eventType string, data interface{})
}

type ConversationService struct {
	db               *gorm.DB
	rateLimitService *RateLimitService
	publisher        EventPublisher
}

type SendMessageRequest struct {
	Text string `json:"text" validate:"required,min=1,max=2000"`
}

func NewConversationService(db *gorm.DB, rateLimitService *RateLimitService, publisher EventPublisher) *ConversationService {
	return &ConversationService{
		db:               db,
		rateLimitService: rateLimitService,
		publisher:        publisher,
	}
}

// CreateForOffer opens the negotiation channel for a trade offer. One
// conversation exists per offer; repeated calls return the existing one.
func (s *ConversationService) CreateForOffer(offer *models.TradeOffer) (*models.Conversation, error) {
	var existing models.Conversation
	err := s.db.Where("trade_offer_id = ?", offer.ID).First(&existing).Error
	if err == nil {
		return &existing, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("failed to look up conversation: %w", err)
	}

	conversation := &models.Conversation{
		ParticipantIDs: models.StringList{offer.OfferingUserID.String(), offer.TargetItemOwnerID.String()},
		TradeAnchorID:  offer.TradeAnchorID,
		TargetItemID:   offer.TargetItemID,
		TradeOfferID:   offer.ID,
		Status:         models.ConversationStatusActive,
		UnreadCounts: models.JSONB{
			offer.OfferingUserID.String():    0,
			offer.TargetItemOwnerID.String(): 0,
		},
	}

	if err := s.db.Create(conversation).Error; err != nil {
		return nil, fmt.Errorf("failed to create conversation: %w", err)
	}

	return conversation, nil
}

func (s *ConversationService) GetConversation(conversationID, userID uuid.UUID) (*models.Conversation, error) {
	var conversation models.Conversation
	if err := s.db.First(&conversation, "id = ?", conversationID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("%w: conversation %s", ErrNotFound, conversationID)
		}
		return nil, fmt.Errorf("failed to load conversation: %w", err)
	}

	if !conversation.HasParticipant(userID) {
		return nil, fmt.Errorf("%w: not a participant", ErrUnauthorized)
	}

	return &conversation, nil
}

// ListConversations returns the caller's conversations, most recently active
// first. Membership is resolved through the offers table since the store
// cannot query inside the participant list.
func (s *ConversationService) ListConversations(userID uuid.UUID) ([]models.Conversation, error) {
	var offerIDs []uuid.UUID
	if err := s.db.Model(&models.TradeOffer{}).
		Where("offering_user_id = ? OR target_item_owner_id = ?", userID, userID).
		Pluck("id", &offerIDs).Error; err != nil {
		return nil, fmt.Errorf("failed to resolve conversation membership: %w", err)
	}
	if len(offerIDs) == 0 {
		return []models.Conversation{}, nil
	}

	var conversations []models.Conversation
	if err := s.db.Where("trade_offer_id IN ?", offerIDs).
		Order("updated_at DESC").
		Find(&conversations).Error; err != nil {
		return nil, fmt.Errorf("failed to list conversations: %w", err)
	}

	return conversations, nil
}

// SendMessage appends a message to an active conversation. Sends count
// against the per-user message rate limit.
func (s *ConversationService) SendMessage(conversationID, senderID uuid.UUID, req *SendMessageRequest) (*models.Message, error) {
	text := strings.TrimSpace(req.Text)
	if text == "" {
		return nil, fmt.Errorf("%w: message text is required", ErrInvalidInput)
	}

	conversation, err := s.GetConversation(conversationID, senderID)
	if err != nil {
		return nil, err
	}
	if conversation.Status != models.ConversationStatusActive {
		return nil, fmt.Errorf("%w: conversation is disabled", ErrInvalidState)
	}

	if s.rateLimitService != nil {
		result, err := s.rateLimitService.Allow(senderID, models.RateLimitActionMessage)
		if err != nil {
			logrus.WithError(err).Warn("Rate limit check failed, allowing message")
		} else if !result.Allowed {
			return nil, fmt.Errorf("%w: message limit resets at %s", ErrRateLimited, result.ResetAt.Format(time.RFC3339))
		}
	}

	message := &models.Message{
		ConversationID: conversationID,
		SenderID:       senderID,
		Text:           text,
	}
	if err := s.db.Create(message).Error; err != nil {
		return nil, fmt.Errorf("failed to create message: %w", err)
	}

	now := time.Now()
	unread := conversation.UnreadCounts
	if unread == nil {
		unread = models.JSONB{}
	}
	for _, participant := range conversation.ParticipantIDs {
		if participant != senderID.String() {
			unread[participant] = unreadCount(unread, participant) + 1
		}
	}

	if err := s.db.Model(conversation).Updates(map[string]interface{}{
		"last_message_text": text,
		"last_message_at":   now,
		"unread_counts":     unread,
	}).Error; err != nil {
		logrus.WithError(err).WithField("conversation_id", conversationID).
			Error("Failed to update conversation preview")
	}

	if s.publisher != nil {
		s.publisher.PublishToUsers(conversation.ParticipantIDs, "message.created", message)
	}

	return message, nil
}

func (s *ConversationService) ListMessages(conversationID, userID uuid.UUID, limit int) ([]models.Message, error) {
	if _, err := s.GetConversation(conversationID, userID); err != nil {
		return nil, err
	}

	if limit <= 0 || limit > 200 {
		limit = 50
	}

	var messages []models.Message
	if err := s.db.Where("conversation_id = ?", conversationID).
		Order("created_at ASC").
		Limit(limit).
		Find(&messages).Error; err != nil {
		return nil, fmt.Errorf("failed to list messages: %w", err)
	}

	return messages, nil
}

// MarkRead zeroes the caller's unread counter.
func (s *ConversationService) MarkRead(conversationID, userID uuid.UUID) error {
	conversation, err := s.GetConversation(conversationID, userID)
	if err != nil {
		return err
	}

	unread := conversation.UnreadCounts
	if unread == nil {
		unread = models.JSONB{}
	}
	unread[userID.String()] = 0

	if err := s.db.Model(conversation).Update("unread_counts", unread).Error; err != nil {
		return fmt.Errorf("failed to mark conversation read: %w", err)
	}
	return nil
}

// DisableForItems disables every active conversation referencing any of the
// given items, except the one tied to excludeOfferID. Conversations are never
// deleted. Returns how many were disabled.
func (s *ConversationService) DisableForItems(itemIDs []uuid.UUID, excludeOfferID uuid.UUID, reason string) (int, error) {
	seen := make(map[uuid.UUID]bool)
	var targets []uuid.UUID

	// The store supports only conjunctive predicates; the disjunction over
	// anchor/target columns is composed client-side and de-duplicated by id.
	for _, field := range []string{"trade_anchor_id", "target_item_id"} {
		var batch []models.Conversation
		if err := s.db.Where(field+" IN ? AND status = ?", itemIDs, models.ConversationStatusActive).
			Find(&batch).Error; err != nil {
			return 0, fmt.Errorf("failed to query conversations: %w", err)
		}
		for _, conversation := range batch {
			if conversation.TradeOfferID == excludeOfferID || seen[conversation.ID] {
				continue
			}
			seen[conversation.ID] = true
			targets = append(targets, conversation.ID)
		}
	}

	if len(targets) == 0 {
		return 0, nil
	}

	if err := s.db.Model(&models.Conversation{}).Where("id IN ?", targets).
		Updates(map[string]interface{}{
			"status":          models.ConversationStatusDisabled,
			"disabled_reason": reason,
		}).Error; err != nil {
		return 0, fmt.Errorf("failed to disable conversations: %w", err)
	}

	return len(targets), nil
}

func unreadCount(counts models.JSONB, key string) int {
	switch v := counts[key].(type) {
	case int:
		return v
	case float64:
		return int(v)
	}
	return 0
}
