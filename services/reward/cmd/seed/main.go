package main

import (
	"context"
	"flag"
	"fmt"
	"time"

	"ma-siu/pkg/config"
	"ma-siu/pkg/database"
	"ma-siu/pkg/logger"
	"ma-siu/services/reward/internal/entity"
	"ma-siu/services/reward/internal/model"
	"ma-siu/services/reward/internal/repo/persistent"
	"ma-siu/services/reward/internal/usecase"

	"gorm.io/gorm"
)

var catalog = []usecase.CreateRewardRequest{
	{Name: "Shopee 50k voucher", Description: "Voucher code for Shopee orders over 200k", Type: entity.RewardTypeVoucherCode, PointsCost: 500, QuantityAvailable: 100},
	{Name: "Lazada 30k voucher", Description: "Voucher code for Lazada orders", Type: entity.RewardTypeVoucherCode, PointsCost: 300, QuantityAvailable: 200},
	{Name: "Ma Siu tote bag", Description: "Shipped within 7 days", Type: entity.RewardTypePhysicalGift, PointsCost: 1500, QuantityAvailable: 20},
	{Name: "Phone wallpaper pack", Type: entity.RewardTypeDigitalGift, PointsCost: 50, QuantityAvailable: entity.UnlimitedQuantity},
	{Name: "Early deal access", Description: "See flash deals one hour early", Type: entity.RewardTypeExclusiveAccess, PointsCost: 800, QuantityAvailable: entity.UnlimitedQuantity},
}

var demoUsers = []struct {
	userID string
	points int
}{
	{"demo-user-1", 1000},
	{"demo-user-2", 250},
	{"demo-user-3", 2000},
}

func main() {
	var withUsers bool
	flag.BoolVar(&withUsers, "users", true, "Also credit points to demo users")
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		panic(fmt.Sprintf("Failed to load config: %v", err))
	}

	log := logger.New()
	db, err := database.NewPostgresDB(cfg)
	if err != nil {
		log.Error("Failed to connect to database: %v", err)
		panic(err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	defer cancel()

	if err := seedDatabase(ctx, db, withUsers, log); err != nil {
		log.Error("Failed to seed database: %v", err)
		panic(err)
	}

	log.Info("Database seeded successfully!")
}

func seedDatabase(ctx context.Context, db *gorm.DB, withUsers bool, log *logger.Logger) error {
	// Seeding runs without a broker, so no points-earned events go out.
	points := usecase.NewPointsUseCase(persistent.NewPointsRepository(db), nil, log)
	rewards := usecase.NewRewardUseCase(persistent.NewRewardRepository(db), points, nil, log)

	for _, req := range catalog {
		var count int64
		if err := db.WithContext(ctx).Model(&model.RewardModel{}).Where("name = ?", req.Name).Count(&count).Error; err != nil {
			return fmt.Errorf("failed to check reward %s: %w", req.Name, err)
		}
		if count > 0 {
			log.Info("Reward %s already exists, skipping", req.Name)
			continue
		}

		reward, err := rewards.CreateReward(ctx, req)
		if err != nil {
			log.Error("Failed to create reward %s: %v", req.Name, err)
			continue
		}
		log.Info("Created reward: %s (%d points)", reward.Name, reward.PointsCost)
	}

	if !withUsers {
		return nil
	}

	for _, user := range demoUsers {
		balance, err := points.GetBalance(ctx, user.userID)
		if err != nil {
			return fmt.Errorf("failed to load balance for %s: %w", user.userID, err)
		}
		if balance.LifetimePoints > 0 {
			log.Info("User %s already has points, skipping", user.userID)
			continue
		}

		if _, err := points.AddPoints(ctx, usecase.AddPointsRequest{
			UserID: user.userID,
			Amount: user.points,
			Reason: "Seed bonus",
		}); err != nil {
			log.Error("Failed to credit %s: %v", user.userID, err)
			continue
		}
		log.Info("Credited %d points to %s", user.points, user.userID)
	}

	return nil
}
