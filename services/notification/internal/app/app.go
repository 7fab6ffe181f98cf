package internal

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"ma-siu/pkg/config"
	"ma-siu/pkg/jwt"
	"ma-siu/pkg/logger"
	"ma-siu/pkg/middleware"
	"ma-siu/pkg/queue"
	notificationHTTP "ma-siu/services/notification/internal/controller/http"
	"ma-siu/services/notification/internal/gateway"
	"ma-siu/services/notification/internal/repo/dedup"
	"ma-siu/services/notification/internal/repo/live"
	"ma-siu/services/notification/internal/repo/persistent"
	"ma-siu/services/notification/internal/usecase"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"go.mongodb.org/mongo-driver/mongo"

	_ "ma-siu/services/notification/docs" // Swagger docs
)

const eventQueue = "notification.events"

func Run(cfg *config.Config, log *logger.Logger, mongoClient *mongo.Client, db *mongo.Database, redisClient *redis.Client, queueClient *queue.Client) {
	jwtService := jwt.NewService(cfg.JWTSecret)

	notificationRepo := persistent.NewNotificationRepository(db)
	deviceRepo := persistent.NewDeviceRepository(db)

	indexCtx, indexCancel := context.WithTimeout(context.Background(), 10*time.Second)
	if err := notificationRepo.EnsureIndexes(indexCtx); err != nil {
		log.Error("Failed to create notification indexes: %v", err)
	}
	if err := deviceRepo.EnsureIndexes(indexCtx); err != nil {
		log.Error("Failed to create device indexes: %v", err)
	}
	indexCancel()

	guard := dedup.NewRedisGuard(redisClient)
	feed := live.NewRedisFeed(redisClient)
	webPush := gateway.NewWebPush(cfg, deviceRepo, log)

	dispatcherUseCase := usecase.NewDispatcherUseCase(notificationRepo, deviceRepo, guard, webPush, feed, cfg.DedupTTL, log)
	historyUseCase := usecase.NewHistoryUseCase(notificationRepo)
	deviceUseCase := usecase.NewDeviceUseCase(deviceRepo)
	intakeUseCase := usecase.NewIntakeUseCase(dispatcherUseCase, log)

	notificationHandler := notificationHTTP.NewNotificationHandler(dispatcherUseCase, historyUseCase, log)
	deviceHandler := notificationHTTP.NewDeviceHandler(deviceUseCase, webPush.VAPIDPublicKey(), log)
	liveHandler := notificationHTTP.NewLiveHandler(feed, jwtService, log)

	consumeCtx, stopConsuming := context.WithCancel(context.Background())
	defer stopConsuming()
	if err := queueClient.Consume(consumeCtx, eventQueue, usecase.IntakeRoutingKeys, intakeUseCase.Handle); err != nil {
		log.Error("Failed to start event consumer: %v", err)
		panic(err)
	}

	r := gin.Default()

	r.Use(cors.New(cors.Config{
		AllowOrigins:     []string{"http://localhost:3000", "http://127.0.0.1:3000", "*"},
		AllowMethods:     []string{"GET", "POST", "PUT", "DELETE", "OPTIONS", "PATCH"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Authorization", "Accept", middleware.InternalAPIKeyHeader},
		ExposeHeaders:    []string{"Content-Length"},
		AllowCredentials: true,
		MaxAge:           12 * 3600,
	}))

	r.GET("/health", func(c *gin.Context) {
		c.JSON(200, gin.H{"status": "ok"})
	})

	r.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))

	// Browsers cannot set headers on the websocket handshake, so the feed
	// authenticates with ?token= itself.
	r.GET("/api/v1/notifications/ws", liveHandler.HandleWebSocket)
	r.GET("/api/v1/push/vapid-public-key", deviceHandler.GetVAPIDPublicKey)

	internalAPI := r.Group("/api/v1")
	internalAPI.Use(middleware.InternalAPIKeyMiddleware(cfg.InternalAPIKey))
	{
		internalAPI.POST("/notifications/send", notificationHandler.Send)
		internalAPI.POST("/notifications/send-topic", notificationHandler.SendTopic)
		internalAPI.POST("/notifications/send-templated", notificationHandler.SendTemplated)
		internalAPI.GET("/notifications/dedup", notificationHandler.CheckDuplicate)
	}

	api := r.Group("/api/v1")
	api.Use(middleware.AuthMiddleware(jwtService))
	api.Use(middleware.RateLimitMiddleware(redisClient, 100, time.Minute))
	{
		api.GET("/notifications", notificationHandler.GetNotifications)
		api.GET("/notifications/unread-count", notificationHandler.GetUnreadCount)
		api.POST("/notifications/:id/read", notificationHandler.MarkRead)
		api.POST("/notifications/mark-all-read", notificationHandler.MarkAllRead)

		api.POST("/devices", deviceHandler.RegisterDevice)
		api.DELETE("/devices", deviceHandler.UnregisterDevice)
	}

	srv := &http.Server{
		Addr:    ":" + cfg.ServerPort,
		Handler: r,
	}

	go func() {
		log.Info("Notification service starting on port %s", cfg.ServerPort)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Error("Failed to start server: %v", err)
			panic(err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Info("Shutting down notification service...")

	stopConsuming()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		log.Error("Server forced to shutdown: %v", err)
	}

	if err := queueClient.Close(); err != nil {
		log.Error("Error closing RabbitMQ: %v", err)
	}

	if err := redisClient.Close(); err != nil {
		log.Error("Error closing Redis: %v", err)
	}

	if err := mongoClient.Disconnect(ctx); err != nil {
		log.Error("Error disconnecting MongoDB: %v", err)
	}

	log.Info("Notification service exited")
}
