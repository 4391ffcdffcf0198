// internal/models/swipe.go
package models

import (
	"time"

	"github.com/google/uuid"
)

// SwipeSession groups the swipe decisions a user makes while shopping around a
// single trade anchor. The session's history feeds pool exclusion.
type SwipeSession struct {
	BaseModel
	UserID         uuid.UUID `json:"user_id" gorm:"type:uuid;not null;index"`
	TradeAnchorID  uuid.UUID `json:"trade_anchor_id" gorm:"type:uuid;not null;index"`
	LastActivityAt time.Time `json:"last_activity_at"`
}

// SwipeRecord is an append-only log entry, ideally one per (session, item)
// pair. The duplicate guard is a data-quality check, not an atomic constraint.
type SwipeRecord struct {
	BaseModel
	SessionID uuid.UUID      `json:"session_id" gorm:"type:uuid;not null;index"`
	UserID    uuid.UUID      `json:"user_id" gorm:"type:uuid;not null;index"`
	ItemID    uuid.UUID      `json:"item_id" gorm:"type:uuid;not null;index"`
	Direction SwipeDirection `json:"direction" gorm:"type:varchar(10);not null"`
}
