// internal/services/helpers_test.go
package services

import (
	"fmt"
	"testing"

	"github.com/glebarez/sqlite"
	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/tradeloop/tradeloop-backend/internal/models"
)

// newTestDB opens an isolated in-memory database and migrates the full schema.
func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", uuid.NewString())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		t.Fatalf("failed to open test database: %v", err)
	}

	err = db.AutoMigrate(
		&models.User{},
		&models.Item{},
		&models.TradeOffer{},
		&models.Conversation{},
		&models.Message{},
		&models.SwipeSession{},
		&models.SwipeRecord{},
		&models.RateLimitBucket{},
		&models.Notification{},
	)
	if err != nil {
		t.Fatalf("failed to migrate test database: %v", err)
	}

	return db
}

func createTestUser(t *testing.T, db *gorm.DB, email string) *models.User {
	t.Helper()

	user := &models.User{
		Email:           email,
		FirstName:       "Test",
		LastName:        "User",
		EligibleToMatch: true,
		Status:          models.UserStatusActive,
	}
	if err := user.SetPassword("TestPass123!"); err != nil {
		t.Fatalf("failed to hash password: %v", err)
	}
	if err := db.Create(user).Error; err != nil {
		t.Fatalf("failed to create test user: %v", err)
	}
	return user
}

func createTestItem(t *testing.T, db *gorm.DB, owner *models.User, title string) *models.Item {
	t.Helper()

	item := &models.Item{
		OwnerID:   owner.ID,
		Title:     title,
		Category:  "electronics",
		Condition: models.ItemConditionGood,
		Status:    models.ItemStatusAvailable,
	}
	if err := db.Create(item).Error; err != nil {
		t.Fatalf("failed to create test item: %v", err)
	}
	return item
}
