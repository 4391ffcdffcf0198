// internal/services/notification_service.go
package services

import (
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"

	"github.com/tradeloop/tradeloop-backend/internal/models"
)

// NotificationService persists per-user notification rows for offer lifecycle
// events. Writers call it from goroutines; failures are logged, never
// surfaced to the triggering request.
type NotificationService struct {
	db *gorm.DB
}

func NewNotificationService(db *gorm.DB) *NotificationService {
	return &NotificationService{db: db}
}

func (s *NotificationService) NotifyOfferCreated(offer *models.TradeOffer) {
	s.create(offer.TargetItemOwnerID, models.NotificationOfferCreated, offer)
}

func (s *NotificationService) NotifyOfferAccepted(offer *models.TradeOffer) {
	s.create(offer.OfferingUserID, models.NotificationOfferAccepted, offer)
}

func (s *NotificationService) NotifyOfferDeclined(offer *models.TradeOffer) {
	s.create(offer.OfferingUserID, models.NotificationOfferDeclined, offer)
}

func (s *NotificationService) NotifyOfferCompleted(offer *models.TradeOffer) {
	for _, participant := range offer.Participants() {
		s.create(participant, models.NotificationOfferCompleted, offer)
	}
}

func (s *NotificationService) ListNotifications(userID uuid.UUID, unreadOnly bool, limit int) ([]models.Notification, error) {
	if limit <= 0 || limit > 100 {
		limit = 20
	}

	query := s.db.Where("user_id = ?", userID).Order("created_at DESC").Limit(limit)
	if unreadOnly {
		query = query.Where("read_at IS NULL")
	}

	var notifications []models.Notification
	if err := query.Find(&notifications).Error; err != nil {
		return nil, fmt.Errorf("failed to list notifications: %w", err)
	}
	return notifications, nil
}

func (s *NotificationService) MarkNotificationRead(notificationID, userID uuid.UUID) error {
	now := time.Now()
	result := s.db.Model(&models.Notification{}).
		Where("id = ? AND user_id = ?", notificationID, userID).
		Update("read_at", now)
	if result.Error != nil {
		return fmt.Errorf("failed to mark notification read: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return fmt.Errorf("%w: notification %s", ErrNotFound, notificationID)
	}
	return nil
}

func (s *NotificationService) create(userID uuid.UUID, notificationType models.NotificationType, offer *models.TradeOffer) {
	notification := &models.Notification{
		UserID: userID,
		Type:   notificationType,
		Payload: models.JSONB{
			"offer_id":        offer.ID.String(),
			"trade_anchor_id": offer.TradeAnchorID.String(),
			"target_item_id":  offer.TargetItemID.String(),
			"status":          string(offer.Status),
		},
	}

	if err := s.db.Create(notification).Error; err != nil {
		logrus.WithError(err).WithFields(logrus.Fields{
			"user_id": userID,
			"type":    notificationType,
		}).Error("Failed to create notification")
	}
}
