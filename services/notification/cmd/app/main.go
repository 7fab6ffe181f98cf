package main

import (
	"context"

	"ma-siu/pkg/cache"
	"ma-siu/pkg/config"
	"ma-siu/pkg/database"
	"ma-siu/pkg/logger"
	"ma-siu/pkg/queue"
	notificationApp "ma-siu/services/notification/internal/app"

	"github.com/gin-gonic/gin"
)

func init() {
	gin.SetMode(gin.ReleaseMode)
}

// @title           Notification Service API
// @version         1.0
// @description     Deduplicated web push, notification history and live feed
// @termsOfService  http://swagger.io/terms/

// @contact.name   API Support
// @contact.url    http://www.swagger.io/support
// @contact.email  support@swagger.io

// @license.name  Apache 2.0
// @license.url   http://www.apache.org/licenses/LICENSE-2.0.html

// @host      localhost:8007
// @BasePath  /api/v1

// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
// @description Type "Bearer" followed by a space and JWT token.

// @securityDefinitions.apikey InternalKey
// @in header
// @name X-Internal-Api-Key

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic(err)
	}

	log := logger.NewWithLevel(cfg.LogLevel)
	mongoClient, db, err := database.NewMongoDB(context.Background(), cfg)
	if err != nil {
		log.Error("Failed to connect to MongoDB: %v", err)
		panic(err)
	}

	redisClient, err := cache.NewRedisClient(cfg)
	if err != nil {
		log.Error("Failed to connect to redis: %v", err)
		panic(err)
	}

	queueClient, err := queue.NewRabbitMQClient(cfg, log)
	if err != nil {
		log.Error("Failed to connect to RabbitMQ: %v", err)
		panic(err)
	}

	notificationApp.Run(cfg, log, mongoClient, db, redisClient, queueClient)
}
