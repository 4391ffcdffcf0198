// internal/models/conversation.go
package models

import (
	"time"

	"github.com/google/uuid"
)

// Conversation is created alongside a trade offer and is disabled, never
// deleted, when a conflicting offer completes.
type Conversation struct {
	BaseModel
	ParticipantIDs StringList         `json:"participant_ids" gorm:"type:jsonb;not null"`
	TradeAnchorID  uuid.UUID          `json:"trade_anchor_id" gorm:"type:uuid;not null;index"`
	TargetItemID   uuid.UUID          `json:"target_item_id" gorm:"type:uuid;not null;index"`
	TradeOfferID   uuid.UUID          `json:"trade_offer_id" gorm:"type:uuid;not null;uniqueIndex"`
	Status         ConversationStatus `json:"status" gorm:"type:varchar(20);default:'active';index"`
	DisabledReason *string            `json:"disabled_reason,omitempty" gorm:"size:255"`
	UnreadCounts   JSONB              `json:"unread_counts" gorm:"type:jsonb"`

	LastMessageText string     `json:"last_message_text,omitempty" gorm:"size:512"`
	LastMessageAt   *time.Time `json:"last_message_at,omitempty"`

	// Relationships
	Messages []Message `json:"messages,omitempty" gorm:"foreignKey:ConversationID"`
}

func (c *Conversation) HasParticipant(userID uuid.UUID) bool {
	return c.ParticipantIDs.Contains(userID.String())
}

type Message struct {
	BaseModel
	ConversationID uuid.UUID `json:"conversation_id" gorm:"type:uuid;not null;index"`
	SenderID       uuid.UUID `json:"sender_id" gorm:"type:uuid;not null;index"`
	Text           string    `json:"text" gorm:"type:text;not null"`
}
