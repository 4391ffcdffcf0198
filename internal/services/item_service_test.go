// internal/services/item_service_test.go
package services

import (
	"testing"

	"github.com/stretchr/testify/suite"
	"gorm.io/gorm"

	"github.com/tradeloop/tradeloop-backend/internal/models"
	"github.com/tradeloop/tradeloop-backend/internal/utils"
)

type ItemServiceTestSuite struct {
	suite.Suite
	db      *gorm.DB
	service *ItemService

	alice *models.User
	bob   *models.User
}

func (s *ItemServiceTestSuite) SetupTest() {
	s.db = newTestDB(s.T())
	s.service = NewItemService(s.db)

	s.alice = createTestUser(s.T(), s.db, "alice@example.com")
	s.bob = createTestUser(s.T(), s.db, "bob@example.com")
}

func (s *ItemServiceTestSuite) TestCreateItem() {
	item, err := s.service.CreateItem(s.alice.ID, &CreateItemRequest{
		Title:     "Turntable",
		Category:  "electronics",
		Condition: models.ItemConditionLikeNew,
		Images:    []string{"https://cdn.example.com/turntable.jpg"},
	})
	s.Require().NoError(err)

	s.Equal(models.ItemStatusAvailable, item.Status)
	s.Equal(s.alice.ID, item.OwnerID)
	s.Equal(int64(0), item.SwipeInterestCount)
}

func (s *ItemServiceTestSuite) TestCreateItemRejectsUnknownCondition() {
	_, err := s.service.CreateItem(s.alice.ID, &CreateItemRequest{
		Title:     "Turntable",
		Category:  "electronics",
		Condition: "mint",
	})
	s.ErrorIs(err, ErrInvalidInput)
}

func (s *ItemServiceTestSuite) TestUpdateItemOwnerOnly() {
	item := createTestItem(s.T(), s.db, s.alice, "Turntable")

	_, err := s.service.UpdateItem(item.ID, s.bob.ID, &UpdateItemRequest{Title: "Stolen"})
	s.ErrorIs(err, ErrUnauthorized)
}

func (s *ItemServiceTestSuite) TestTradedItemsAreImmutable() {
	item := createTestItem(s.T(), s.db, s.alice, "Turntable")
	s.Require().NoError(s.db.Model(item).Update("status", models.ItemStatusTraded).Error)

	_, err := s.service.UpdateItem(item.ID, s.alice.ID, &UpdateItemRequest{Title: "New title"})
	s.ErrorIs(err, ErrInvalidState)
}

func (s *ItemServiceTestSuite) TestOwnerStatusTransitionsRestricted() {
	item := createTestItem(s.T(), s.db, s.alice, "Turntable")

	updated, err := s.service.UpdateItem(item.ID, s.alice.ID, &UpdateItemRequest{Status: models.ItemStatusUnavailable})
	s.Require().NoError(err)
	s.Equal(item.ID, updated.ID)

	var reloaded models.Item
	s.Require().NoError(s.db.First(&reloaded, "id = ?", item.ID).Error)
	s.Equal(models.ItemStatusUnavailable, reloaded.Status)

	// Owners may not set traded directly.
	_, err = s.service.UpdateItem(item.ID, s.alice.ID, &UpdateItemRequest{Status: models.ItemStatusTraded})
	s.ErrorIs(err, ErrInvalidState)
}

func (s *ItemServiceTestSuite) TestDeleteBlockedByAcceptedOffer() {
	anchor := createTestItem(s.T(), s.db, s.bob, "Bob's anchor")
	item := createTestItem(s.T(), s.db, s.alice, "Wanted item")

	offer := &models.TradeOffer{
		TradeAnchorID:      anchor.ID,
		TradeAnchorOwnerID: s.bob.ID,
		TargetItemID:       item.ID,
		TargetItemOwnerID:  s.alice.ID,
		OfferingUserID:     s.bob.ID,
		Status:             models.OfferStatusAccepted,
	}
	s.Require().NoError(s.db.Create(offer).Error)

	err := s.service.DeleteItem(item.ID, s.alice.ID)
	s.ErrorIs(err, ErrInvalidState)

	// Resolving the offer unblocks the delete.
	s.Require().NoError(s.db.Model(offer).Update("status", models.OfferStatusDeclined).Error)
	s.Require().NoError(s.service.DeleteItem(item.ID, s.alice.ID))

	_, err = s.service.GetItem(item.ID)
	s.ErrorIs(err, ErrNotFound)
}

func (s *ItemServiceTestSuite) TestListUserItems() {
	createTestItem(s.T(), s.db, s.alice, "One")
	createTestItem(s.T(), s.db, s.alice, "Two")
	createTestItem(s.T(), s.db, s.bob, "Bob's")

	items, total, err := s.service.ListUserItems(s.alice.ID, utils.PaginationParams{Page: 1, Limit: 10, Sort: "created_at", Order: "desc"})
	s.Require().NoError(err)
	s.Equal(int64(2), total)
	s.Len(items, 2)
}

func (s *ItemServiceTestSuite) TestListUserItemsFiltersByCategory() {
	createTestItem(s.T(), s.db, s.alice, "Headphones")
	createTestItem(s.T(), s.db, s.alice, "Keyboard")

	book := createTestItem(s.T(), s.db, s.alice, "Novel")
	book.Category = "books"
	s.Require().NoError(s.db.Save(book).Error)

	items, total, err := s.service.ListUserItems(s.alice.ID, utils.PaginationParams{Page: 1, Limit: 10, Sort: "created_at", Order: "desc", Category: "books"})
	s.Require().NoError(err)
	s.Equal(int64(1), total)
	s.Require().Len(items, 1)
	s.Equal("Novel", items[0].Title)
}

func TestItemServiceSuite(t *testing.T) {
	suite.Run(t, new(ItemServiceTestSuite))
}
