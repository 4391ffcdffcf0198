// internal/services/ratelimit_service_test.go
package services

import (
	"testing"
	"time"

	"github.com/stretchr/testify/suite"
	"gorm.io/gorm"

	"github.com/tradeloop/tradeloop-backend/internal/config"
	"github.com/tradeloop/tradeloop-backend/internal/models"
)

type RateLimitServiceTestSuite struct {
	suite.Suite
	db      *gorm.DB
	service *RateLimitService
	user    *models.User
	clock   time.Time
}

func (s *RateLimitServiceTestSuite) SetupTest() {
	s.db = newTestDB(s.T())
	s.service = NewRateLimitService(s.db, config.RateLimitConfig{
		WindowMinutes: 60,
		SwipeLimit:    3,
		MessageLimit:  2,
	})

	s.clock = time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	s.service.SetClock(func() time.Time { return s.clock })

	s.user = createTestUser(s.T(), s.db, "alice@example.com")
}

func (s *RateLimitServiceTestSuite) advance(d time.Duration) {
	s.clock = s.clock.Add(d)
}

func (s *RateLimitServiceTestSuite) TestAllowConsumesUpToLimit() {
	for i := 0; i < 3; i++ {
		result, err := s.service.Allow(s.user.ID, models.RateLimitActionSwipe)
		s.Require().NoError(err)
		s.True(result.Allowed)
		s.Equal(2-i, result.Remaining)
	}

	result, err := s.service.Allow(s.user.ID, models.RateLimitActionSwipe)
	s.Require().NoError(err)
	s.False(result.Allowed)
	s.Equal(0, result.Remaining)
}

func (s *RateLimitServiceTestSuite) TestWindowSlides() {
	for i := 0; i < 3; i++ {
		_, err := s.service.Allow(s.user.ID, models.RateLimitActionSwipe)
		s.Require().NoError(err)
		s.advance(10 * time.Minute)
	}

	result, err := s.service.Check(s.user.ID, models.RateLimitActionSwipe)
	s.Require().NoError(err)
	s.False(result.Allowed)

	// 31 more minutes puts the first action outside the hour window.
	s.advance(31 * time.Minute)

	result, err = s.service.Allow(s.user.ID, models.RateLimitActionSwipe)
	s.Require().NoError(err)
	s.True(result.Allowed)
}

func (s *RateLimitServiceTestSuite) TestCheckDoesNotConsume() {
	for i := 0; i < 5; i++ {
		result, err := s.service.Check(s.user.ID, models.RateLimitActionSwipe)
		s.Require().NoError(err)
		s.True(result.Allowed)
		s.Equal(3, result.Remaining)
	}
}

func (s *RateLimitServiceTestSuite) TestRecordAppendsUnconditionally() {
	for i := 0; i < 5; i++ {
		s.Require().NoError(s.service.Record(s.user.ID, models.RateLimitActionSwipe))
	}

	result, err := s.service.Check(s.user.ID, models.RateLimitActionSwipe)
	s.Require().NoError(err)
	s.False(result.Allowed)
	s.Equal(0, result.Remaining)
}

func (s *RateLimitServiceTestSuite) TestResetAtTracksOldestAction() {
	_, err := s.service.Allow(s.user.ID, models.RateLimitActionSwipe)
	s.Require().NoError(err)

	first := s.clock
	s.advance(20 * time.Minute)

	result, err := s.service.Check(s.user.ID, models.RateLimitActionSwipe)
	s.Require().NoError(err)
	s.Equal(first.Add(time.Hour).UnixMilli(), result.ResetAt.UnixMilli())
}

func (s *RateLimitServiceTestSuite) TestActionsAreIndependent() {
	for i := 0; i < 2; i++ {
		_, err := s.service.Allow(s.user.ID, models.RateLimitActionMessage)
		s.Require().NoError(err)
	}

	messages, err := s.service.Check(s.user.ID, models.RateLimitActionMessage)
	s.Require().NoError(err)
	s.False(messages.Allowed)

	swipes, err := s.service.Check(s.user.ID, models.RateLimitActionSwipe)
	s.Require().NoError(err)
	s.True(swipes.Allowed)
	s.Equal(3, swipes.Remaining)
}

func TestRateLimitServiceSuite(t *testing.T) {
	suite.Run(t, new(RateLimitServiceTestSuite))
}
