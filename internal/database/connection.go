// internal/database/connection.go
package database

import (
	"fmt"
	"log"
	"time"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/tradeloop/tradeloop-backend/internal/config"
	"github.com/tradeloop/tradeloop-backend/internal/models"
)

func Initialize(cfg config.DatabaseConfig) (*gorm.DB, error) {
	var gormConfig *gorm.Config

	if cfg.LogLevel == "silent" {
		gormConfig = &gorm.Config{
			Logger: logger.Default.LogMode(logger.Silent),
		}
	} else {
		gormConfig = &gorm.Config{
			Logger: logger.Default.LogMode(logger.Info),
		}
	}

	db, err := gorm.Open(postgres.Open(cfg.DSN()), gormConfig)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to get underlying sql.DB: %w", err)
	}

	sqlDB.SetMaxOpenConns(cfg.MaxOpenConns)
	sqlDB.SetMaxIdleConns(cfg.MaxIdleConns)
	sqlDB.SetConnMaxLifetime(time.Duration(cfg.MaxLifetime) * time.Second)

	if err := sqlDB.Ping(); err != nil {
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	log.Println("Database connection established successfully")
	return db, nil
}

func Close(db *gorm.DB) {
	sqlDB, err := db.DB()
	if err != nil {
		log.Printf("Error getting underlying sql.DB: %v", err)
		return
	}

	if err := sqlDB.Close(); err != nil {
		log.Printf("Error closing database connection: %v", err)
	} else {
		log.Println("Database connection closed successfully")
	}
}

func RunMigrations(db *gorm.DB) error {
	log.Println("Running database migrations...")

	err := db.AutoMigrate(
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
		return fmt.Errorf("failed to run migrations: %w", err)
	}

	if err := createIndexes(db); err != nil {
		return fmt.Errorf("failed to create indexes: %w", err)
	}

	log.Println("Database migrations completed successfully")
	return nil
}

func createIndexes(db *gorm.DB) error {
	indexes := []string{
		// Item indexes
		"CREATE INDEX IF NOT EXISTS idx_items_owner ON items(owner_id)",
		"CREATE INDEX IF NOT EXISTS idx_items_category_status ON items(category, status)",
		"CREATE INDEX IF NOT EXISTS idx_items_created_at ON items(created_at DESC)",

		// Trade offer indexes; the triple backs idempotent offer creation and the
		// per-item lookups back the conflict sweep
		"CREATE INDEX IF NOT EXISTS idx_trade_offers_triple ON trade_offers(trade_anchor_id, target_item_id, offering_user_id)",
		"CREATE INDEX IF NOT EXISTS idx_trade_offers_anchor_status ON trade_offers(trade_anchor_id, status)",
		"CREATE INDEX IF NOT EXISTS idx_trade_offers_target_status ON trade_offers(target_item_id, status)",
		"CREATE INDEX IF NOT EXISTS idx_trade_offers_offering_user ON trade_offers(offering_user_id)",

		// Conversation indexes
		"CREATE INDEX IF NOT EXISTS idx_conversations_anchor ON conversations(trade_anchor_id)",
		"CREATE INDEX IF NOT EXISTS idx_conversations_target ON conversations(target_item_id)",
		"CREATE INDEX IF NOT EXISTS idx_messages_conversation ON messages(conversation_id, created_at)",

		// Swipe indexes
		"CREATE INDEX IF NOT EXISTS idx_swipe_records_session_item ON swipe_records(session_id, item_id)",
		"CREATE INDEX IF NOT EXISTS idx_swipe_sessions_user ON swipe_sessions(user_id, created_at DESC)",
	}

	for _, index := range indexes {
		if err := db.Exec(index).Error; err != nil {
			log.Printf("Warning: Failed to create index: %s, Error: %v", index, err)
			// Continue with other indexes instead of failing completely
		}
	}

	return nil
}

// Transaction helper
func WithTransaction(db *gorm.DB, fn func(*gorm.DB) error) error {
	tx := db.Begin()
	if tx.Error != nil {
		return tx.Error
	}

	defer func() {
		if r := recover(); r != nil {
			tx.Rollback()
			panic(r)
		}
	}()

	if err := fn(tx); err != nil {
		tx.Rollback()
		return err
	}

	return tx.Commit().Error
}
