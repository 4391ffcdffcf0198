// internal/models/rate_limit.go
package models

import (
	"github.com/google/uuid"
)

// RateLimitBucket holds the action timestamps (unix millis) for one
// (user, action) key. Checks rewrite the list after dropping entries older
// than the window; the read-modify-write is deliberately untransacted.
type RateLimitBucket struct {
	BaseModel
	UserID     uuid.UUID       `json:"user_id" gorm:"type:uuid;not null;index:idx_rate_limits_key,unique"`
	Action     RateLimitAction `json:"action" gorm:"type:varchar(20);not null;index:idx_rate_limits_key,unique"`
	Timestamps Int64List       `json:"timestamps" gorm:"type:jsonb"`
}
