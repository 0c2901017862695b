package routes

import (
	"secondhand-market-server/internal/chat"
	"secondhand-market-server/internal/config"
	"secondhand-market-server/internal/handlers"
	"secondhand-market-server/internal/middleware"
	"secondhand-market-server/internal/models"
	"secondhand-market-server/internal/presence"
	"secondhand-market-server/internal/trade"
	"secondhand-market-server/internal/ws"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

// SetupRoutes configures the application routes.
func SetupRoutes(router *gin.Engine, db *gorm.DB, cfg *config.Config, hub *ws.Hub, tracker *presence.Tracker, chatSvc *chat.Service, tradeSvc *trade.Service) {
	// Initialize handlers
	authHandler := handlers.NewAuthHandler(db, cfg)
	userHandler := handlers.NewUserHandler(db)
	productHandler := handlers.NewProductHandler(db)
	chatHandler := handlers.NewChatHandler(chatSvc)
	transactionHandler := handlers.NewTransactionHandler(tradeSvc)
	wsHandler := handlers.NewWSHandler(cfg, hub, chatSvc, tracker)

	// Public routes (no authentication required)
	public := router.Group("/api/v1")
	{
		authRoutes := public.Group("/auth")
		{
			authRoutes.POST("/register", authHandler.Register)
			authRoutes.POST("/login", authHandler.Login)
			authRoutes.POST("/refresh-token", authHandler.RefreshToken)
		}

		// Browsing listings needs no account
		public.GET("/products", productHandler.ListProducts)
		public.GET("/products/:productId", productHandler.GetProductByID)
	}

	// Websocket endpoint authenticates via token query parameter because
	// browsers cannot attach headers to upgrade requests.
	router.GET("/ws", wsHandler.Serve)

	// Authenticated routes
	private := router.Group("/api/v1")
	private.Use(middleware.AuthMiddleware(cfg))
	{
		authRoutesPrivate := private.Group("/auth")
		{
			authRoutesPrivate.POST("/logout", authHandler.Logout)
			authRoutesPrivate.GET("/profile", authHandler.GetProfile)
			authRoutesPrivate.PUT("/profile", authHandler.UpdateProfile)
		}

		userRoutes := private.Group("/users")
		{
			userRoutes.GET("/:userId", userHandler.GetUserByID)

			adminRoutes := userRoutes.Group("")
			adminRoutes.Use(middleware.RoleAuthMiddleware(models.RoleAdmin))
			{
				adminRoutes.GET("", userHandler.ListUsers)
			}
		}

		productRoutes := private.Group("/products")
		{
			productRoutes.POST("", productHandler.CreateProduct)
			productRoutes.GET("/mine/list", productHandler.ListMyProducts)
		}

		chatRoutes := private.Group("/chats")
		{
			chatRoutes.POST("/rooms", chatHandler.OpenRoom)
			chatRoutes.GET("", chatHandler.ListRooms)
			chatRoutes.GET("/unread-count", chatHandler.TotalUnread)

			chatRoutes.GET("/:roomId/messages", chatHandler.ListMessages)
			chatRoutes.POST("/:roomId/messages", chatHandler.SendMessage)
			chatRoutes.POST("/:roomId/read", chatHandler.MarkRoomRead)
			chatRoutes.POST("/:roomId/pin", chatHandler.TogglePin)
			chatRoutes.POST("/:roomId/mute", chatHandler.ToggleMute)
			chatRoutes.POST("/:roomId/close", chatHandler.CloseRoom)
			chatRoutes.GET("/:roomId/search", chatHandler.SearchMessages)
			chatRoutes.GET("/:roomId/delivery-stats", chatHandler.DeliveryStats)
		}

		messageRoutes := private.Group("/messages")
		{
			messageRoutes.POST("/:messageId/recall", chatHandler.RecallMessage)
			messageRoutes.PATCH("/:messageId/delivered", chatHandler.MarkDelivered)
			messageRoutes.PATCH("/:messageId/read", chatHandler.MarkMessageRead)
		}

		transactionRoutes := private.Group("/transactions")
		{
			transactionRoutes.POST("/inquiry", transactionHandler.CreateInquiry)
			transactionRoutes.GET("", transactionHandler.List)
			transactionRoutes.GET("/:transactionId", transactionHandler.Get)
			transactionRoutes.POST("/:transactionId/agree-offline", transactionHandler.AgreeOffline)
			transactionRoutes.POST("/:transactionId/complete", transactionHandler.Complete)
			transactionRoutes.POST("/:transactionId/cancel", transactionHandler.Cancel)
		}
	}

	// Simple health check endpoint
	router.GET("/health", func(c *gin.Context) {
		c.JSON(200, gin.H{"status": "UP"})
	})
}
