package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type RewardModel struct {
	ID                string `gorm:"type:uuid;primary_key"`
	Name              string `gorm:"type:varchar(200);not null"`
	Description       string `gorm:"type:text"`
	Type              string `gorm:"type:varchar(32);not null"`
	PointsCost        int    `gorm:"not null"`
	QuantityAvailable int    `gorm:"not null"`
	IsActive          bool   `gorm:"not null;index"`
	ImageURL          string `gorm:"type:varchar(500)"`
	CreatedAt         time.Time
	UpdatedAt         time.Time
}

func (RewardModel) TableName() string {
	return "rewards"
}

func (r *RewardModel) BeforeCreate(tx *gorm.DB) error {
	if r.ID == "" {
		r.ID = uuid.New().String()
	}
	return nil
}

type RedemptionModel struct {
	ID                 string `gorm:"type:uuid;primary_key"`
	UserID             string `gorm:"type:varchar(64);not null;index"`
	RewardID           string `gorm:"type:uuid;not null;index"`
	RewardName         string `gorm:"type:varchar(200);not null"`
	PointsSpent        int    `gorm:"not null"`
	Status             string `gorm:"type:varchar(16);not null;index"`
	RedemptionCode     string `gorm:"type:varchar(100)"`
	Notes              string `gorm:"type:text"`
	SpendTransactionID string `gorm:"type:uuid;uniqueIndex;not null"`
	StockReserved      bool   `gorm:"not null;default:false"`
	CreatedAt          time.Time
	ProcessedAt        *time.Time
}

func (RedemptionModel) TableName() string {
	return "redemptions"
}

func (r *RedemptionModel) BeforeCreate(tx *gorm.DB) error {
	if r.ID == "" {
		r.ID = uuid.New().String()
	}
	return nil
}
