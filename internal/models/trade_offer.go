// internal/models/trade_offer.go
package models

import (
	"github.com/google/uuid"
)

// TradeOffer links the item a user offers away (the trade anchor) to the item
// they want (the target). At most one logical offer exists per
// (trade_anchor_id, target_item_id, offering_user_id) triple.
type TradeOffer struct {
	BaseModel
	TradeAnchorID      uuid.UUID   `json:"trade_anchor_id" gorm:"type:uuid;not null;index"`
	TradeAnchorOwnerID uuid.UUID   `json:"trade_anchor_owner_id" gorm:"type:uuid;not null;index"`
	TargetItemID       uuid.UUID   `json:"target_item_id" gorm:"type:uuid;not null;index"`
	TargetItemOwnerID  uuid.UUID   `json:"target_item_owner_id" gorm:"type:uuid;not null;index"`
	OfferingUserID     uuid.UUID   `json:"offering_user_id" gorm:"type:uuid;not null;index"`
	Status             OfferStatus `json:"status" gorm:"type:varchar(20);default:'pending';index"`
	CompletedBy        StringList  `json:"completed_by" gorm:"type:jsonb"`
	DeclineReason      *string     `json:"decline_reason,omitempty" gorm:"size:255"`

	// Relationships
	TradeAnchor Item `json:"trade_anchor,omitempty" gorm:"foreignKey:TradeAnchorID"`
	TargetItem  Item `json:"target_item,omitempty" gorm:"foreignKey:TargetItemID"`
}

// Participants returns both sides of the offer.
func (o *TradeOffer) Participants() []uuid.UUID {
	return []uuid.UUID{o.OfferingUserID, o.TargetItemOwnerID}
}

func (o *TradeOffer) IsParticipant(userID uuid.UUID) bool {
	return userID == o.OfferingUserID || userID == o.TargetItemOwnerID
}

func (o *TradeOffer) IsTerminal() bool {
	return o.Status == OfferStatusDeclined || o.Status == OfferStatusCompleted
}
