// internal/services/trade_service_test.go
package services

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/suite"
	"gorm.io/gorm"

	"github.com/tradeloop/tradeloop-backend/internal/config"
	"github.com/tradeloop/tradeloop-backend/internal/models"
)

type TradeServiceTestSuite struct {
	suite.Suite
	db           *gorm.DB
	service      *TradeOfferService
	conversation *ConversationService

	alice *models.User // owns anchor
	bob   *models.User // owns target
	carol *models.User // third party

	anchor *models.Item // alice's item, offered away
	target *models.Item // bob's item, wanted
}

func (s *TradeServiceTestSuite) SetupTest() {
	s.db = newTestDB(s.T())

	rateLimits := config.RateLimitConfig{WindowMinutes: 60, SwipeLimit: 200, MessageLimit: 120}
	s.conversation = NewConversationService(s.db, NewRateLimitService(s.db, rateLimits), nil)
	s.service = NewTradeOfferService(s.db, s.conversation, nil)

	s.alice = createTestUser(s.T(), s.db, "alice@example.com")
	s.bob = createTestUser(s.T(), s.db, "bob@example.com")
	s.carol = createTestUser(s.T(), s.db, "carol@example.com")

	s.anchor = createTestItem(s.T(), s.db, s.alice, "Record player")
	s.target = createTestItem(s.T(), s.db, s.bob, "Mountain bike")
}

func (s *TradeServiceTestSuite) TestCreateOffer() {
	offer, err := s.service.CreateTradeOffer(s.anchor.ID, s.target.ID, s.alice.ID)
	s.Require().NoError(err)

	s.Equal(models.OfferStatusPending, offer.Status)
	s.Equal(s.alice.ID, offer.OfferingUserID)
	s.Equal(s.bob.ID, offer.TargetItemOwnerID)
	s.Empty(offer.CompletedBy)

	var target models.Item
	s.Require().NoError(s.db.First(&target, "id = ?", s.target.ID).Error)
	s.Equal(int64(1), target.SwipeInterestCount)
}

func (s *TradeServiceTestSuite) TestCreateOfferIsIdempotent() {
	first, err := s.service.CreateTradeOffer(s.anchor.ID, s.target.ID, s.alice.ID)
	s.Require().NoError(err)

	second, err := s.service.CreateTradeOffer(s.anchor.ID, s.target.ID, s.alice.ID)
	s.Require().NoError(err)

	s.Equal(first.ID, second.ID)
	s.Equal(models.OfferStatusPending, second.Status)

	var count int64
	s.db.Model(&models.TradeOffer{}).Count(&count)
	s.Equal(int64(1), count)

	// The interest counter only moves on real creation.
	var target models.Item
	s.Require().NoError(s.db.First(&target, "id = ?", s.target.ID).Error)
	s.Equal(int64(1), target.SwipeInterestCount)
}

func (s *TradeServiceTestSuite) TestCreateOfferRequiresAnchorOwnership() {
	_, err := s.service.CreateTradeOffer(s.anchor.ID, s.target.ID, s.carol.ID)
	s.ErrorIs(err, ErrNotOwner)
}

func (s *TradeServiceTestSuite) TestCreateOfferRejectsUnavailableTarget() {
	s.Require().NoError(s.db.Model(s.target).Update("status", models.ItemStatusUnavailable).Error)

	_, err := s.service.CreateTradeOffer(s.anchor.ID, s.target.ID, s.alice.ID)
	s.ErrorIs(err, ErrItemUnavailable)
}

func (s *TradeServiceTestSuite) TestAcceptOffer() {
	offer, err := s.service.CreateTradeOffer(s.anchor.ID, s.target.ID, s.alice.ID)
	s.Require().NoError(err)

	accepted, err := s.service.AcceptTradeOffer(offer.ID, s.bob.ID)
	s.Require().NoError(err)
	s.Equal(models.OfferStatusAccepted, accepted.Status)
}

func (s *TradeServiceTestSuite) TestAcceptRequiresTargetOwner() {
	offer, err := s.service.CreateTradeOffer(s.anchor.ID, s.target.ID, s.alice.ID)
	s.Require().NoError(err)

	_, err = s.service.AcceptTradeOffer(offer.ID, s.alice.ID)
	s.ErrorIs(err, ErrUnauthorized)
}

func (s *TradeServiceTestSuite) TestAcceptRejectsWithdrawnItems() {
	offer, err := s.service.CreateTradeOffer(s.anchor.ID, s.target.ID, s.alice.ID)
	s.Require().NoError(err)

	s.Require().NoError(s.db.Model(s.anchor).Update("status", models.ItemStatusUnavailable).Error)

	_, err = s.service.AcceptTradeOffer(offer.ID, s.bob.ID)
	s.ErrorIs(err, ErrItemsUnavailable)
	s.Equal(OutcomeStale, ClassifyOutcome(err))
}

func (s *TradeServiceTestSuite) TestDeclineOfferWithReason() {
	offer, err := s.service.CreateTradeOffer(s.anchor.ID, s.target.ID, s.alice.ID)
	s.Require().NoError(err)

	declined, err := s.service.DeclineTradeOffer(offer.ID, s.bob.ID, "not interested")
	s.Require().NoError(err)
	s.Equal(models.OfferStatusDeclined, declined.Status)
	s.Require().NotNil(declined.DeclineReason)
	s.Equal("not interested", *declined.DeclineReason)

	// Terminal offers cannot be declined again.
	_, err = s.service.DeclineTradeOffer(offer.ID, s.bob.ID, "")
	s.ErrorIs(err, ErrInvalidState)
}

func (s *TradeServiceTestSuite) TestCompleteRequiresAcceptedStatus() {
	offer, err := s.service.CreateTradeOffer(s.anchor.ID, s.target.ID, s.alice.ID)
	s.Require().NoError(err)

	_, err = s.service.CompleteTradeOffer(offer.ID, s.alice.ID)
	s.ErrorIs(err, ErrNotAccepted)
}

func (s *TradeServiceTestSuite) TestDualConfirmationCompletes() {
	offer, err := s.service.CreateTradeOffer(s.anchor.ID, s.target.ID, s.alice.ID)
	s.Require().NoError(err)
	_, err = s.service.AcceptTradeOffer(offer.ID, s.bob.ID)
	s.Require().NoError(err)

	// First confirmation: recorded, offer stays accepted, items untouched.
	afterFirst, err := s.service.CompleteTradeOffer(offer.ID, s.alice.ID)
	s.Require().NoError(err)
	s.Equal(models.OfferStatusAccepted, afterFirst.Status)
	s.True(afterFirst.CompletedBy.Contains(s.alice.ID.String()))

	var anchor models.Item
	s.Require().NoError(s.db.First(&anchor, "id = ?", s.anchor.ID).Error)
	s.Equal(models.ItemStatusAvailable, anchor.Status)

	// Second confirmation: the trade transition runs.
	afterSecond, err := s.service.CompleteTradeOffer(offer.ID, s.bob.ID)
	s.Require().NoError(err)
	s.Equal(models.OfferStatusCompleted, afterSecond.Status)
	s.True(afterSecond.CompletedBy.Contains(s.bob.ID.String()))

	var items []models.Item
	s.Require().NoError(s.db.Where("id IN ?", []uuid.UUID{s.anchor.ID, s.target.ID}).Find(&items).Error)
	s.Len(items, 2)
	for _, item := range items {
		s.Equal(models.ItemStatusTraded, item.Status)
	}
}

func (s *TradeServiceTestSuite) TestDuplicateConfirmationRejected() {
	offer, err := s.service.CreateTradeOffer(s.anchor.ID, s.target.ID, s.alice.ID)
	s.Require().NoError(err)
	_, err = s.service.AcceptTradeOffer(offer.ID, s.bob.ID)
	s.Require().NoError(err)

	_, err = s.service.CompleteTradeOffer(offer.ID, s.alice.ID)
	s.Require().NoError(err)

	_, err = s.service.CompleteTradeOffer(offer.ID, s.alice.ID)
	s.ErrorIs(err, ErrAlreadyConfirmed)
	s.Equal(OutcomeRejected, ClassifyOutcome(err))
}

func (s *TradeServiceTestSuite) TestCompleteRejectsStaleItems() {
	offer, err := s.service.CreateTradeOffer(s.anchor.ID, s.target.ID, s.alice.ID)
	s.Require().NoError(err)
	_, err = s.service.AcceptTradeOffer(offer.ID, s.bob.ID)
	s.Require().NoError(err)

	s.Require().NoError(s.db.Model(s.target).Update("status", models.ItemStatusUnavailable).Error)

	_, err = s.service.CompleteTradeOffer(offer.ID, s.alice.ID)
	s.ErrorIs(err, ErrItemsUnavailable)
	s.Equal(OutcomeStale, ClassifyOutcome(err))
}

func (s *TradeServiceTestSuite) TestCompletionSweepsConflictingOffers() {
	// Carol also has an accepted offer on bob's target item.
	carolItem := createTestItem(s.T(), s.db, s.carol, "Guitar amp")
	conflicting, err := s.service.CreateTradeOffer(carolItem.ID, s.target.ID, s.carol.ID)
	s.Require().NoError(err)
	_, err = s.service.AcceptTradeOffer(conflicting.ID, s.bob.ID)
	s.Require().NoError(err)

	// And bob has an accepted outgoing offer anchored on the target.
	davidItem := createTestItem(s.T(), s.db, s.carol, "Espresso machine")
	outgoing, err := s.service.CreateTradeOffer(s.target.ID, davidItem.ID, s.bob.ID)
	s.Require().NoError(err)
	_, err = s.service.AcceptTradeOffer(outgoing.ID, s.carol.ID)
	s.Require().NoError(err)

	offer, err := s.service.CreateTradeOffer(s.anchor.ID, s.target.ID, s.alice.ID)
	s.Require().NoError(err)
	_, err = s.service.AcceptTradeOffer(offer.ID, s.bob.ID)
	s.Require().NoError(err)

	_, err = s.service.CompleteTradeOffer(offer.ID, s.alice.ID)
	s.Require().NoError(err)
	completed, err := s.service.CompleteTradeOffer(offer.ID, s.bob.ID)
	s.Require().NoError(err)
	s.Equal(models.OfferStatusCompleted, completed.Status)

	for _, sweptID := range []string{conflicting.ID.String(), outgoing.ID.String()} {
		var swept models.TradeOffer
		s.Require().NoError(s.db.First(&swept, "id = ?", sweptID).Error)
		s.Equal(models.OfferStatusDeclined, swept.Status)
		s.Require().NotNil(swept.DeclineReason)
		s.Equal(DeclineReasonConflict, *swept.DeclineReason)
	}
}

func (s *TradeServiceTestSuite) TestListTradeOffersByRole() {
	offer, err := s.service.CreateTradeOffer(s.anchor.ID, s.target.ID, s.alice.ID)
	s.Require().NoError(err)

	incoming, err := s.service.ListTradeOffers(s.bob.ID, "incoming", "")
	s.Require().NoError(err)
	s.Len(incoming, 1)
	s.Equal(offer.ID, incoming[0].ID)

	outgoing, err := s.service.ListTradeOffers(s.bob.ID, "outgoing", "")
	s.Require().NoError(err)
	s.Empty(outgoing)

	pending, err := s.service.ListTradeOffers(s.alice.ID, "all", models.OfferStatusPending)
	s.Require().NoError(err)
	s.Len(pending, 1)

	completed, err := s.service.ListTradeOffers(s.alice.ID, "all", models.OfferStatusCompleted)
	s.Require().NoError(err)
	s.Empty(completed)
}

func TestTradeServiceSuite(t *testing.T) {
	suite.Run(t, new(TradeServiceTestSuite))
}
