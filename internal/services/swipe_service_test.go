// internal/services/swipe_service_test.go
package services

import (
	"testing"

	"github.com/stretchr/testify/suite"
	"gorm.io/gorm"

	"github.com/tradeloop/tradeloop-backend/internal/config"
	"github.com/tradeloop/tradeloop-backend/internal/models"
)

type SwipeServiceTestSuite struct {
	suite.Suite
	db      *gorm.DB
	service *SwipeService

	alice *models.User
	bob   *models.User

	anchor *models.Item
	target *models.Item

	session *models.SwipeSession
}

func (s *SwipeServiceTestSuite) SetupTest() {
	s.db = newTestDB(s.T())

	rateLimits := config.RateLimitConfig{WindowMinutes: 60, SwipeLimit: 200, MessageLimit: 120}
	rateLimitService := NewRateLimitService(s.db, rateLimits)
	conversationService := NewConversationService(s.db, rateLimitService, nil)
	tradeOfferService := NewTradeOfferService(s.db, conversationService, nil)
	s.service = NewSwipeService(s.db, tradeOfferService, conversationService, rateLimitService)

	s.alice = createTestUser(s.T(), s.db, "alice@example.com")
	s.bob = createTestUser(s.T(), s.db, "bob@example.com")

	s.anchor = createTestItem(s.T(), s.db, s.alice, "Record player")
	s.target = createTestItem(s.T(), s.db, s.bob, "Mountain bike")

	session, err := s.service.CreateSwipeSession(s.alice.ID, s.anchor.ID)
	s.Require().NoError(err)
	s.session = session
}

func (s *SwipeServiceTestSuite) TestCreateSessionRequiresAnchorOwnership() {
	_, err := s.service.CreateSwipeSession(s.bob.ID, s.anchor.ID)
	s.ErrorIs(err, ErrNotOwner)
}

func (s *SwipeServiceTestSuite) TestRecordSwipeValidatesDirection() {
	_, err := s.service.RecordSwipe(s.session.ID, s.alice.ID, s.target.ID, "up")
	s.ErrorIs(err, ErrInvalidInput)
}

func (s *SwipeServiceTestSuite) TestRecordSwipeRequiresSessionOwner() {
	_, err := s.service.RecordSwipe(s.session.ID, s.bob.ID, s.target.ID, models.SwipeDirectionLeft)
	s.ErrorIs(err, ErrUnauthorized)
}

func (s *SwipeServiceTestSuite) TestLeftSwipeOnlyRecords() {
	result, err := s.service.RecordSwipe(s.session.ID, s.alice.ID, s.target.ID, models.SwipeDirectionLeft)
	s.Require().NoError(err)

	s.NotNil(result.Record)
	s.Equal(models.SwipeDirectionLeft, result.Record.Direction)
	s.Nil(result.Offer)
	s.Nil(result.Conversation)

	var offerCount int64
	s.db.Model(&models.TradeOffer{}).Count(&offerCount)
	s.Equal(int64(0), offerCount)
}

func (s *SwipeServiceTestSuite) TestRightSwipeCreatesOfferAndConversation() {
	result, err := s.service.RecordSwipe(s.session.ID, s.alice.ID, s.target.ID, models.SwipeDirectionRight)
	s.Require().NoError(err)

	s.Require().NotNil(result.Offer)
	s.Equal(s.anchor.ID, result.Offer.TradeAnchorID)
	s.Equal(s.target.ID, result.Offer.TargetItemID)
	s.Equal(models.OfferStatusPending, result.Offer.Status)

	s.Require().NotNil(result.Conversation)
	s.Equal(result.Offer.ID, result.Conversation.TradeOfferID)
	s.True(result.Conversation.HasParticipant(s.alice.ID))
	s.True(result.Conversation.HasParticipant(s.bob.ID))
}

func (s *SwipeServiceTestSuite) TestDuplicateSwipeReturnsExistingRecord() {
	first, err := s.service.RecordSwipe(s.session.ID, s.alice.ID, s.target.ID, models.SwipeDirectionRight)
	s.Require().NoError(err)

	second, err := s.service.RecordSwipe(s.session.ID, s.alice.ID, s.target.ID, models.SwipeDirectionRight)
	s.Require().NoError(err)

	s.Equal(first.Record.ID, second.Record.ID)
	s.NotEmpty(second.Warning)

	// The offer path is idempotent, so the repeat still returns the offer.
	s.Require().NotNil(second.Offer)
	s.Equal(first.Offer.ID, second.Offer.ID)

	var recordCount int64
	s.db.Model(&models.SwipeRecord{}).Count(&recordCount)
	s.Equal(int64(1), recordCount)
}

func (s *SwipeServiceTestSuite) TestSwipeRateLimit() {
	limitedRates := NewRateLimitService(s.db, config.RateLimitConfig{WindowMinutes: 60, SwipeLimit: 2, MessageLimit: 120})
	conversationService := NewConversationService(s.db, limitedRates, nil)
	tradeOfferService := NewTradeOfferService(s.db, conversationService, nil)
	limited := NewSwipeService(s.db, tradeOfferService, conversationService, limitedRates)

	items := []*models.Item{
		createTestItem(s.T(), s.db, s.bob, "One"),
		createTestItem(s.T(), s.db, s.bob, "Two"),
	}
	for _, item := range items {
		result, err := limited.RecordSwipe(s.session.ID, s.alice.ID, item.ID, models.SwipeDirectionLeft)
		s.Require().NoError(err)
		// With a tiny limit every allowed swipe is close to the cap.
		s.NotEmpty(result.Warning)
	}

	third := createTestItem(s.T(), s.db, s.bob, "Three")
	_, err := limited.RecordSwipe(s.session.ID, s.alice.ID, third.ID, models.SwipeDirectionLeft)
	s.ErrorIs(err, ErrRateLimited)
}

func (s *SwipeServiceTestSuite) TestGetSwipeHistory() {
	other := createTestItem(s.T(), s.db, s.bob, "Another item")

	_, err := s.service.RecordSwipe(s.session.ID, s.alice.ID, s.target.ID, models.SwipeDirectionLeft)
	s.Require().NoError(err)
	_, err = s.service.RecordSwipe(s.session.ID, s.alice.ID, other.ID, models.SwipeDirectionRight)
	s.Require().NoError(err)

	records, err := s.service.GetSwipeHistory(s.session.ID, s.alice.ID)
	s.Require().NoError(err)
	s.Len(records, 2)

	_, err = s.service.GetSwipeHistory(s.session.ID, s.bob.ID)
	s.ErrorIs(err, ErrUnauthorized)
}

func TestSwipeServiceSuite(t *testing.T) {
	suite.Run(t, new(SwipeServiceTestSuite))
}
