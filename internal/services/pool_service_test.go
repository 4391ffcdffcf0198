// internal/services/pool_service_test.go
package services

import (
	"testing"
	"time"

	"github.com/stretchr/testify/suite"
	"gorm.io/gorm"

	"github.com/tradeloop/tradeloop-backend/internal/models"
)

type PoolServiceTestSuite struct {
	suite.Suite
	db      *gorm.DB
	service *ItemPoolService

	alice *models.User
	bob   *models.User
}

func (s *PoolServiceTestSuite) SetupTest() {
	s.db = newTestDB(s.T())
	s.service = NewItemPoolService(s.db)

	s.alice = createTestUser(s.T(), s.db, "alice@example.com")
	s.bob = createTestUser(s.T(), s.db, "bob@example.com")
}

func (s *PoolServiceTestSuite) TestExcludesOwnAndNonAvailableItems() {
	createTestItem(s.T(), s.db, s.alice, "Alice's own item")
	candidate := createTestItem(s.T(), s.db, s.bob, "Bob's item")

	traded := createTestItem(s.T(), s.db, s.bob, "Already traded")
	s.Require().NoError(s.db.Model(traded).Update("status", models.ItemStatusTraded).Error)

	page, err := s.service.BuildPool(PoolRequest{UserID: s.alice.ID})
	s.Require().NoError(err)
	s.Require().Len(page.Items, 1)
	s.Equal(candidate.ID, page.Items[0].ID)
	s.True(page.Exhausted)
}

func (s *PoolServiceTestSuite) TestExcludesSwipedItems() {
	anchor := createTestItem(s.T(), s.db, s.alice, "Anchor")
	swiped := createTestItem(s.T(), s.db, s.bob, "Swiped already")
	fresh := createTestItem(s.T(), s.db, s.bob, "Fresh")

	session := &models.SwipeSession{
		UserID:         s.alice.ID,
		TradeAnchorID:  anchor.ID,
		LastActivityAt: time.Now(),
	}
	s.Require().NoError(s.db.Create(session).Error)
	s.Require().NoError(s.db.Create(&models.SwipeRecord{
		SessionID: session.ID,
		UserID:    s.alice.ID,
		ItemID:    swiped.ID,
		Direction: models.SwipeDirectionLeft,
	}).Error)

	page, err := s.service.BuildPool(PoolRequest{UserID: s.alice.ID, SessionID: session.ID})
	s.Require().NoError(err)
	s.Require().Len(page.Items, 1)
	s.Equal(fresh.ID, page.Items[0].ID)
}

func (s *PoolServiceTestSuite) TestCategoryAndConditionFilters() {
	books := createTestItem(s.T(), s.db, s.bob, "Novel")
	s.Require().NoError(s.db.Model(books).Update("category", "books").Error)

	poorItem := createTestItem(s.T(), s.db, s.bob, "Worn out")
	s.Require().NoError(s.db.Model(poorItem).Update("condition", models.ItemConditionPoor).Error)

	createTestItem(s.T(), s.db, s.bob, "Good electronics")

	page, err := s.service.BuildPool(PoolRequest{
		UserID:  s.alice.ID,
		Filters: PoolFilters{Categories: []string{"books"}},
	})
	s.Require().NoError(err)
	s.Require().Len(page.Items, 1)
	s.Equal(books.ID, page.Items[0].ID)

	page, err = s.service.BuildPool(PoolRequest{
		UserID:  s.alice.ID,
		Filters: PoolFilters{Conditions: []models.ItemCondition{models.ItemConditionGood}},
	})
	s.Require().NoError(err)
	s.Len(page.Items, 2)
}

func (s *PoolServiceTestSuite) TestDistanceFilter() {
	maxKm := 50.0
	origin := &Coordinates{Latitude: 52.52, Longitude: 13.405} // Berlin

	near := createTestItem(s.T(), s.db, s.bob, "Near")
	nearLat, nearLon := 52.50, 13.40
	s.Require().NoError(s.db.Model(near).Updates(map[string]interface{}{
		"latitude": nearLat, "longitude": nearLon,
	}).Error)

	far := createTestItem(s.T(), s.db, s.bob, "Far")
	farLat, farLon := 48.137, 11.575 // Munich
	s.Require().NoError(s.db.Model(far).Updates(map[string]interface{}{
		"latitude": farLat, "longitude": farLon,
	}).Error)

	// No coordinates on record: the item is never excluded by distance.
	unlocated := createTestItem(s.T(), s.db, s.bob, "Unlocated")

	page, err := s.service.BuildPool(PoolRequest{
		UserID:      s.alice.ID,
		Coordinates: origin,
		Filters:     PoolFilters{MaxDistanceKm: &maxKm},
	})
	s.Require().NoError(err)
	s.Require().Len(page.Items, 2)

	ids := []string{page.Items[0].ID.String(), page.Items[1].ID.String()}
	s.Contains(ids, near.ID.String())
	s.Contains(ids, unlocated.ID.String())
}

func (s *PoolServiceTestSuite) TestCursorPagination() {
	for i := 0; i < 5; i++ {
		createTestItem(s.T(), s.db, s.bob, "Item")
	}

	first, err := s.service.BuildPool(PoolRequest{UserID: s.alice.ID, Limit: 2})
	s.Require().NoError(err)
	s.Len(first.Items, 2)
	s.Equal(2, first.NextCursor)
	s.False(first.Exhausted)

	second, err := s.service.BuildPool(PoolRequest{UserID: s.alice.ID, Cursor: first.NextCursor, Limit: 2})
	s.Require().NoError(err)
	s.Len(second.Items, 2)

	third, err := s.service.BuildPool(PoolRequest{UserID: s.alice.ID, Cursor: second.NextCursor, Limit: 2})
	s.Require().NoError(err)
	s.Len(third.Items, 1)
	s.True(third.Exhausted)

	seen := map[string]bool{}
	for _, page := range [][]models.Item{first.Items, second.Items, third.Items} {
		for _, item := range page {
			s.False(seen[item.ID.String()], "item served twice")
			seen[item.ID.String()] = true
		}
	}
}

func (s *PoolServiceTestSuite) TestNeedsRefill() {
	// Paginated variant refills at 70% consumed.
	s.False(NeedsRefill(13, 20, true))
	s.True(NeedsRefill(14, 20, true))

	// Non-paginated variant refills at five or fewer remaining.
	s.False(NeedsRefill(10, 20, false))
	s.True(NeedsRefill(15, 20, false))

	// Empty pools always need a refill.
	s.True(NeedsRefill(0, 0, true))
	s.True(NeedsRefill(0, 0, false))
}

func TestPoolServiceSuite(t *testing.T) {
	suite.Run(t, new(PoolServiceTestSuite))
}
