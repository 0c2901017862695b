package main

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"

	"secondhand-market-server/internal/chat"
	"secondhand-market-server/internal/config"
	"secondhand-market-server/internal/models"
	"secondhand-market-server/internal/presence"
	"secondhand-market-server/internal/routes"
	"secondhand-market-server/internal/trade"
	"secondhand-market-server/internal/ws"
)

func main() {
	// Load environment variables
	if err := godotenv.Load(); err != nil {
		log.Printf("No .env file loaded: %v", err)
	}

	// Initialize configuration
	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("Error loading config: %v", err)
	}

	// Initialize database connection
	db, err := models.InitDB(models.DatabaseConfig{DSN: cfg.Database.DSN})
	if err != nil {
		log.Fatalf("Error connecting to database: %v", err)
	}

	// Wire the realtime layer: hub for fan-out, redis-backed presence
	hub := ws.NewHub()
	store := presence.NewRedisStore(cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB)
	tracker := presence.NewTracker(store, hub)

	chatSvc := chat.NewService(db, hub, tracker)
	tradeSvc := trade.NewService(db, chatSvc)

	// Background sweep rotating soon-to-expire pickup codes
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	refresher := trade.NewRefresher(tradeSvc,
		time.Duration(cfg.CodeRefreshIntervalHours)*time.Hour)
	go refresher.Run(ctx)

	// Initialize Gin router
	router := gin.Default()

	// Configure CORS
	corsConfig := cors.DefaultConfig()
	corsConfig.AllowOrigins = []string{cfg.Origin}
	corsConfig.AllowCredentials = true
	corsConfig.AllowMethods = []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"}
	corsConfig.AllowHeaders = []string{"Origin", "Content-Type", "Accept", "Authorization"}
	router.Use(cors.New(corsConfig))

	routes.SetupRoutes(router, db, cfg, hub, tracker, chatSvc, tradeSvc)

	// Start server
	serverAddr := fmt.Sprintf(":%s", cfg.Port)
	fmt.Printf("Server running on port %s\n", cfg.Port)
	if err := router.Run(serverAddr); err != nil {
		log.Fatalf("Failed to start server: %v", err)
	}
}
