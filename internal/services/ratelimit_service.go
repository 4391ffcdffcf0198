// internal/services/ratelimit_service.go
package services

import (
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/tradeloop/tradeloop-backend/internal/config"
	"github.com/tradeloop/tradeloop-backend/internal/models"
)

// RateLimitService is a sliding-window limiter keyed by (user, action). Each
// key is one row holding its timestamp list; a check drops entries older than
// the window and rewrites the row. The read-modify-write is untransacted: a
// race between two requests yields a slightly generous limit, which is
// acceptable here.
type RateLimitService struct {
	db  *gorm.DB
	cfg config.RateLimitConfig
	now func() time.Time
}

type RateLimitResult struct {
	Allowed   bool      `json:"allowed"`
	Remaining int       `json:"remaining"`
	ResetAt   time.Time `json:"reset_at"`
}

func NewRateLimitService(db *gorm.DB, cfg config.RateLimitConfig) *RateLimitService {
	return &RateLimitService{
		db:  db,
		cfg: cfg,
		now: time.Now,
	}
}

// SetClock overrides the limiter's clock. Tests use this to move time.
func (s *RateLimitService) SetClock(now func() time.Time) {
	s.now = now
}

// Check reports the current window state without consuming an action.
func (s *RateLimitService) Check(userID uuid.UUID, action models.RateLimitAction) (*RateLimitResult, error) {
	return s.evaluate(userID, action, false)
}

// Allow consumes one action when the window has room.
func (s *RateLimitService) Allow(userID uuid.UUID, action models.RateLimitAction) (*RateLimitResult, error) {
	return s.evaluate(userID, action, true)
}

// Record appends an action timestamp without checking the limit.
func (s *RateLimitService) Record(userID uuid.UUID, action models.RateLimitAction) error {
	bucket, err := s.loadBucket(userID, action)
	if err != nil {
		return err
	}

	bucket.Timestamps = append(s.prune(bucket.Timestamps), s.now().UnixMilli())
	return s.saveBucket(bucket)
}

func (s *RateLimitService) evaluate(userID uuid.UUID, action models.RateLimitAction, consume bool) (*RateLimitResult, error) {
	bucket, err := s.loadBucket(userID, action)
	if err != nil {
		return nil, err
	}

	limit := s.limitFor(action)
	window := s.window()
	now := s.now()

	timestamps := s.prune(bucket.Timestamps)
	remaining := limit - len(timestamps)
	if remaining < 0 {
		remaining = 0
	}

	result := &RateLimitResult{
		Allowed:   remaining > 0,
		Remaining: remaining,
		ResetAt:   now,
	}
	if len(timestamps) > 0 {
		result.ResetAt = time.UnixMilli(timestamps[0]).Add(window)
	}

	if consume && result.Allowed {
		timestamps = append(timestamps, now.UnixMilli())
		result.Remaining--
	}

	bucket.Timestamps = timestamps
	if err := s.saveBucket(bucket); err != nil {
		return nil, err
	}

	return result, nil
}

func (s *RateLimitService) loadBucket(userID uuid.UUID, action models.RateLimitAction) (*models.RateLimitBucket, error) {
	var bucket models.RateLimitBucket
	err := s.db.Where("user_id = ? AND action = ?", userID, action).
		FirstOrCreate(&bucket, models.RateLimitBucket{UserID: userID, Action: action}).Error
	if err != nil {
		return nil, fmt.Errorf("failed to load rate limit bucket: %w", err)
	}
	return &bucket, nil
}

func (s *RateLimitService) saveBucket(bucket *models.RateLimitBucket) error {
	if err := s.db.Model(bucket).Update("timestamps", bucket.Timestamps).Error; err != nil {
		return fmt.Errorf("failed to save rate limit bucket: %w", err)
	}
	return nil
}

// prune drops timestamps older than the window, keeping order.
func (s *RateLimitService) prune(timestamps models.Int64List) models.Int64List {
	cutoff := s.now().Add(-s.window()).UnixMilli()
	kept := make(models.Int64List, 0, len(timestamps))
	for _, ts := range timestamps {
		if ts > cutoff {
			kept = append(kept, ts)
		}
	}
	return kept
}

func (s *RateLimitService) window() time.Duration {
	return time.Duration(s.cfg.WindowMinutes) * time.Minute
}

func (s *RateLimitService) limitFor(action models.RateLimitAction) int {
	switch action {
	case models.RateLimitActionSwipe:
		return s.cfg.SwipeLimit
	case models.RateLimitActionMessage:
		return s.cfg.MessageLimit
	}
	return s.cfg.SwipeLimit
}
