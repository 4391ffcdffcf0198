// internal/models/item.go
package models

import (
	"github.com/google/uuid"
)

type Item struct {
	BaseModel
	OwnerID            uuid.UUID     `json:"owner_id" gorm:"type:uuid;not null;index"`
	Title              string        `json:"title" gorm:"size:255;not null"`
	Description        string        `json:"description" gorm:"type:text"`
	Category           string        `json:"category" gorm:"size:100;index"`
	Condition          ItemCondition `json:"condition" gorm:"type:varchar(20);not null"`
	Images             StringList    `json:"images" gorm:"type:jsonb"`
	Status             ItemStatus    `json:"status" gorm:"type:varchar(20);default:'available';index"`
	SwipeInterestCount int64         `json:"swipe_interest_count" gorm:"default:0"`
	Latitude           *float64      `json:"latitude,omitempty"`
	Longitude          *float64      `json:"longitude,omitempty"`

	// Relationships
	Owner User `json:"owner,omitempty" gorm:"foreignKey:OwnerID"`
}
