// internal/models/notification.go
package models

import (
	"time"

	"github.com/google/uuid"
)

type NotificationType string

const (
	NotificationOfferCreated   NotificationType = "offer_created"
	NotificationOfferAccepted  NotificationType = "offer_accepted"
	NotificationOfferDeclined  NotificationType = "offer_declined"
	NotificationOfferCompleted NotificationType = "offer_completed"
)

type Notification struct {
	BaseModel
	UserID  uuid.UUID        `json:"user_id" gorm:"type:uuid;not null;index"`
	Type    NotificationType `json:"type" gorm:"type:varchar(30);not null"`
	Payload JSONB            `json:"payload" gorm:"type:jsonb"`
	ReadAt  *time.Time       `json:"read_at,omitempty"`
}
