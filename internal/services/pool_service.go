// internal/services/pool_service.go
package services

import (
	"fmt"
	"math"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/tradeloop/tradeloop-backend/internal/models"
)

const (
	defaultPoolBatchSize = 20

	// Prefetch policy: the paginated client refills once 70% of a page is
	// consumed; the non-paginated variant refills at five or fewer left.
	paginatedRefillRatio     = 0.7
	minRemainingBeforeRefill = 5
)

// ItemPoolService builds the deduplicated, paginated candidate stream a user
// swipes through: never their own items, never items already swiped in the
// session, only available items passing the active filters.
type ItemPoolService struct {
	db *gorm.DB
}

type Coordinates struct {
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
}

type PoolFilters struct {
	Categories    []string               `json:"categories,omitempty"`
	Conditions    []models.ItemCondition `json:"conditions,omitempty"`
	MaxDistanceKm *float64               `json:"max_distance_km,omitempty"`
}

type PoolRequest struct {
	UserID      uuid.UUID
	SessionID   uuid.UUID
	Filters     PoolFilters
	Coordinates *Coordinates
	Cursor      int
	Limit       int
}

type PoolPage struct {
	Items      []models.Item `json:"items"`
	NextCursor int           `json:"next_cursor"`
	Exhausted  bool          `json:"exhausted"`
}

func NewItemPoolService(db *gorm.DB) *ItemPoolService {
	return &ItemPoolService{db: db}
}

// BuildPool returns one batch of candidates starting at the request cursor.
// Category and condition filters run in the store query; the distance filter
// runs client-side since the store only supports equality/range predicates.
func (s *ItemPoolService) BuildPool(req PoolRequest) (*PoolPage, error) {
	if req.UserID == uuid.Nil {
		return nil, fmt.Errorf("%w: user id is required", ErrInvalidInput)
	}

	limit := req.Limit
	if limit <= 0 || limit > 100 {
		limit = defaultPoolBatchSize
	}

	swiped, err := s.swipedItemIDs(req.SessionID)
	if err != nil {
		return nil, err
	}

	page := &PoolPage{
		Items:      make([]models.Item, 0, limit),
		NextCursor: req.Cursor,
	}

	// Distance is filtered after the fetch, so keep pulling store batches
	// until the page fills or the store runs dry.
	for len(page.Items) < limit {
		batch, err := s.fetchBatch(req, swiped, page.NextCursor, limit)
		if err != nil {
			return nil, err
		}
		if len(batch) == 0 {
			page.Exhausted = true
			break
		}

		for _, item := range batch {
			page.NextCursor++
			if !s.withinDistance(req, &item) {
				continue
			}
			page.Items = append(page.Items, item)
			if len(page.Items) == limit {
				break
			}
		}

		if len(batch) < limit && len(page.Items) < limit {
			page.Exhausted = true
			break
		}
	}

	return page, nil
}

// NeedsRefill implements the client prefetch heuristic for both loading
// variants.
func NeedsRefill(consumed, total int, paginated bool) bool {
	if total <= 0 {
		return true
	}
	if paginated {
		return float64(consumed)/float64(total) >= paginatedRefillRatio
	}
	return total-consumed <= minRemainingBeforeRefill
}

func (s *ItemPoolService) fetchBatch(req PoolRequest, swiped []uuid.UUID, cursor, limit int) ([]models.Item, error) {
	query := s.db.Model(&models.Item{}).
		Where("status = ?", models.ItemStatusAvailable).
		Where("owner_id <> ?", req.UserID)

	if len(req.Filters.Categories) > 0 {
		query = query.Where("category IN ?", req.Filters.Categories)
	}
	if len(req.Filters.Conditions) > 0 {
		query = query.Where("condition IN ?", req.Filters.Conditions)
	}
	if len(swiped) > 0 {
		query = query.Where("id NOT IN ?", swiped)
	}

	var items []models.Item
	if err := query.Order("created_at DESC").Offset(cursor).Limit(limit).Find(&items).Error; err != nil {
		return nil, fmt.Errorf("failed to query item pool: %w", err)
	}
	return items, nil
}

func (s *ItemPoolService) swipedItemIDs(sessionID uuid.UUID) ([]uuid.UUID, error) {
	if sessionID == uuid.Nil {
		return nil, nil
	}

	var ids []uuid.UUID
	if err := s.db.Model(&models.SwipeRecord{}).
		Where("session_id = ?", sessionID).
		Pluck("item_id", &ids).Error; err != nil {
		return nil, fmt.Errorf("failed to load session swipe history: %w", err)
	}
	return ids, nil
}

func (s *ItemPoolService) withinDistance(req PoolRequest, item *models.Item) bool {
	if req.Filters.MaxDistanceKm == nil || req.Coordinates == nil {
		return true
	}
	if item.Latitude == nil || item.Longitude == nil {
		// Items without a location are never excluded by distance.
		return true
	}

	distance := haversineKm(req.Coordinates.Latitude, req.Coordinates.Longitude, *item.Latitude, *item.Longitude)
	return distance <= *req.Filters.MaxDistanceKm
}

const earthRadiusKm = 6371.0

func haversineKm(lat1, lon1, lat2, lon2 float64) float64 {
	dLat := (lat2 - lat1) * math.Pi / 180
	dLon := (lon2 - lon1) * math.Pi / 180

	a := math.Sin(dLat/2)*math.Sin(dLat/2) +
		math.Cos(lat1*math.Pi/180)*math.Cos(lat2*math.Pi/180)*
			math.Sin(dLon/2)*math.Sin(dLon/2)

	return earthRadiusKm * 2 * math.Atan2(math.Sqrt(a), math.Sqrt(1-a))
}
