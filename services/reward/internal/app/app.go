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
	"ma-siu/pkg/s3"
	rewardHTTP "ma-siu/services/reward/internal/controller/http"
	"ma-siu/services/reward/internal/repo/lock"
	"ma-siu/services/reward/internal/repo/persistent"
	"ma-siu/services/reward/internal/usecase"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"github.com/robfig/cron/v3"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"gorm.io/gorm"

	_ "ma-siu/services/reward/docs" // Swagger docs
)

const reconcileTimeout = 2 * time.Minute

func Run(cfg *config.Config, log *logger.Logger, db *gorm.DB, redisClient *redis.Client, queueClient *queue.Client, s3Client *s3.Client) {
	jwtService := jwt.NewService(cfg.JWTSecret)

	pointsRepo := persistent.NewPointsRepository(db)
	rewardRepo := persistent.NewRewardRepository(db)
	locker := lock.NewRedisLocker(redisClient, log)

	pointsUseCase := usecase.NewPointsUseCase(pointsRepo, queueClient, log)
	rewardUseCase := usecase.NewRewardUseCase(rewardRepo, pointsUseCase, s3Client, log)
	reconcileUseCase := usecase.NewReconcileUseCase(rewardRepo, pointsUseCase, locker, cfg.ReconcileGrace, log)

	pointsHandler := rewardHTTP.NewPointsHandler(pointsUseCase, log)
	rewardHandler := rewardHTTP.NewRewardHandler(rewardUseCase, log)
	adminHandler := rewardHTTP.NewAdminHandler(reconcileUseCase, log)

	// Periodic sweep for redemptions interrupted mid-flight
	scheduler := cron.New()
	if _, err := scheduler.AddFunc(cfg.ReconcileSchedule, func() {
		ctx, cancel := context.WithTimeout(context.Background(), reconcileTimeout)
		defer cancel()
		if _, err := reconcileUseCase.Run(ctx); err != nil {
			log.Error("[RECONCILE] Scheduled run failed: %v", err)
		}
	}); err != nil {
		log.Error("Invalid reconcile schedule %q: %v", cfg.ReconcileSchedule, err)
		panic(err)
	}
	scheduler.Start()

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

	// Service-to-service calls from content and moderation flows
	internalAPI := r.Group("/api/v1")
	internalAPI.Use(middleware.InternalAPIKeyMiddleware(cfg.InternalAPIKey))
	{
		internalAPI.POST("/points/add", pointsHandler.AddPoints)
		internalAPI.POST("/points/pending/approve", pointsHandler.ApprovePending)
		internalAPI.POST("/points/pending/reject", pointsHandler.RejectPending)
	}

	api := r.Group("/api/v1")
	api.Use(middleware.AuthMiddleware(jwtService))
	api.Use(middleware.RateLimitMiddleware(redisClient, 100, time.Minute))
	{
		api.GET("/points/balance", pointsHandler.GetBalance)
		api.GET("/points/transactions", pointsHandler.GetTransactions)

		api.GET("/rewards", rewardHandler.GetCatalog)
		api.POST("/rewards/:id/redeem", rewardHandler.Redeem)
		api.GET("/rewards/redemptions", rewardHandler.GetRedemptions)

		admin := api.Group("")
		admin.Use(middleware.AdminOnly())
		{
			admin.POST("/rewards", rewardHandler.CreateReward)
			admin.POST("/rewards/:id/image", rewardHandler.UploadRewardImage)
			admin.POST("/rewards/redemptions/:id/approve", rewardHandler.ApproveRedemption)
			admin.POST("/rewards/redemptions/:id/complete", rewardHandler.CompleteRedemption)
			admin.POST("/admin/reconcile", adminHandler.Reconcile)
		}
	}

	srv := &http.Server{
		Addr:    ":" + cfg.ServerPort,
		Handler: r,
	}

	go func() {
		log.Info("Reward service starting on port %s", cfg.ServerPort)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Error("Failed to start server: %v", err)
			panic(err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Info("Shutting down reward service...")

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	// Let an in-flight sweep finish before closing its connections
	cronCtx := scheduler.Stop()
	select {
	case <-cronCtx.Done():
	case <-ctx.Done():
		log.Warn("Reconcile sweep still running at shutdown")
	}

	if err := srv.Shutdown(ctx); err != nil {
		log.Error("Server forced to shutdown: %v", err)
	}

	if err := queueClient.Close(); err != nil {
		log.Error("Error closing RabbitMQ: %v", err)
	}

	if err := redisClient.Close(); err != nil {
		log.Error("Error closing Redis: %v", err)
	}

	sqlDB, err := db.DB()
	if err == nil {
		if err := sqlDB.Close(); err != nil {
			log.Error("Error closing database: %v", err)
		}
	}

	log.Info("Reward service exited")
}
