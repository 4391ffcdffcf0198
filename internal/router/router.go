// internal/router/router.go
package router

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/tradeloop/tradeloop-backend/internal/config"
	"github.com/tradeloop/tradeloop-backend/internal/handlers"
	"github.com/tradeloop/tradeloop-backend/internal/middleware"
	"github.com/tradeloop/tradeloop-backend/internal/services"
	"github.com/tradeloop/tradeloop-backend/internal/utils"
	"github.com/tradeloop/tradeloop-backend/internal/ws"
)

func Initialize(db *gorm.DB, cfg *config.Config) *gin.Engine {
	// Initialize services
	hub := ws.NewHub()
	storageService, _ := services.NewStorageService(cfg)
	notificationService := services.NewNotificationService(db)
	rateLimitService := services.NewRateLimitService(db, cfg.RateLimit)
	conversationService := services.NewConversationService(db, rateLimitService, hub)
	tradeOfferService := services.NewTradeOfferService(db, conversationService, notificationService)
	swipeService := services.NewSwipeService(db, tradeOfferService, conversationService, rateLimitService)
	poolService := services.NewItemPoolService(db)
	itemService := services.NewItemService(db)
	authService := services.NewAuthService(db, cfg)

	// Initialize handlers
	authHandler := handlers.NewAuthHandler(authService, storageService)
	itemHandler := handlers.NewItemHandler(itemService, storageService)
	swipeHandler := handlers.NewSwipeHandler(swipeService, poolService, rateLimitService)
	tradeHandler := handlers.NewTradeHandler(tradeOfferService)
	conversationHandler := handlers.NewConversationHandler(conversationService)
	notificationHandler := handlers.NewNotificationHandler(notificationService)
	wsHandler := handlers.NewWSHandler(hub, cfg.Environment != "production")

	// Set JWT secret
	utils.SetJWTSecret(cfg.JWT.SecretKey)

	// Initialize Gin router
	r := gin.New()

	// Global middleware
	r.Use(gin.Recovery())
	r.Use(middleware.RequestLogger())
	r.Use(middleware.CORS())
	r.Use(middleware.GeneralRateLimit())

	// Health check
	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"status":  "healthy",
			"version": "1.0.0",
		})
	})

	// Live event stream
	r.GET("/ws", wsHandler.Handle)

	// API v1 routes
	v1 := r.Group("/v1")
	{
		// Authentication routes
		auth := v1.Group("/auth")
		auth.Use(middleware.AuthRateLimit())
		{
			auth.POST("/register", authHandler.Register)
			auth.POST("/login", authHandler.Login)
			auth.POST("/refresh", authHandler.RefreshToken)
		}

		// User routes
		users := v1.Group("/users")
		users.Use(middleware.AuthRequired())
		{
			users.GET("/me", authHandler.GetProfile)
			users.PATCH("/me", authHandler.UpdateProfile)
			users.POST("/me/avatar", middleware.UploadRateLimit(), authHandler.UploadAvatar)
		}

		// Item routes
		items := v1.Group("/items")
		{
			items.GET("/:id", middleware.OptionalAuth(), itemHandler.GetItem)

			protected := items.Group("")
			protected.Use(middleware.AuthRequired())
			{
				protected.GET("", itemHandler.ListMyItems)
				protected.POST("", itemHandler.CreateItem)
				protected.PATCH("/:id", itemHandler.UpdateItem)
				protected.DELETE("/:id", itemHandler.DeleteItem)
				protected.POST("/:id/images", middleware.UploadRateLimit(), itemHandler.UploadImage)
			}
		}

		// Swipe routes
		swipe := v1.Group("/swipe")
		swipe.Use(middleware.AuthRequired())
		{
			swipe.POST("/sessions", swipeHandler.CreateSession)
			swipe.POST("/sessions/:id/swipes", swipeHandler.RecordSwipe)
			swipe.GET("/sessions/:id/history", swipeHandler.GetHistory)
			swipe.POST("/sessions/:id/pool", swipeHandler.GetPool)
			swipe.GET("/rate-limit", swipeHandler.GetRateLimit)
		}

		// Trade offer routes
		trades := v1.Group("/trades")
		trades.Use(middleware.AuthRequired())
		{
			trades.GET("", tradeHandler.ListOffers)
			trades.POST("", tradeHandler.CreateOffer)
			trades.GET("/:id", tradeHandler.GetOffer)
			trades.POST("/:id/accept", tradeHandler.AcceptOffer)
			trades.POST("/:id/decline", tradeHandler.DeclineOffer)
			trades.POST("/:id/complete", tradeHandler.CompleteOffer)
		}

		// Conversation routes
		conversations := v1.Group("/conversations")
		conversations.Use(middleware.AuthRequired())
		{
			conversations.GET("", conversationHandler.ListConversations)
			conversations.GET("/:id", conversationHandler.GetConversation)
			conversations.GET("/:id/messages", conversationHandler.ListMessages)
			conversations.POST("/:id/messages", conversationHandler.SendMessage)
			conversations.POST("/:id/read", conversationHandler.MarkRead)
		}

		// Notification routes
		notifications := v1.Group("/notifications")
		notifications.Use(middleware.AuthRequired())
		{
			notifications.GET("", notificationHandler.ListNotifications)
			notifications.POST("/:id/read", notificationHandler.MarkRead)
		}
	}

	return r
}
