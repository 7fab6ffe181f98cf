package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type BalanceModel struct {
	ID              string `gorm:"type:uuid;primary_key"`
	UserID          string `gorm:"type:varchar(64);uniqueIndex;not null"`
	AvailablePoints int    `gorm:"not null;default:0"`
	PendingPoints   int    `gorm:"not null;default:0"`
	LifetimePoints  int    `gorm:"not null;default:0"`
	CreatedAt       time.Time
	UpdatedAt       time.Time
}

func (BalanceModel) TableName() string {
	return "point_balances"
}

func (b *BalanceModel) BeforeCreate(tx *gorm.DB) error {
	if b.ID == "" {
		b.ID = uuid.New().String()
	}
	return nil
}

type TransactionModel struct {
	ID          string    `gorm:"type:uuid;primary_key"`
	UserID      string    `gorm:"type:varchar(64);not null;index:idx_point_transactions_user_created,priority:1"`
	Amount      int       `gorm:"not null"`
	Kind        string    `gorm:"type:varchar(16);not null"`
	Reason      string    `gorm:"type:varchar(255)"`
	ReferenceID string    `gorm:"type:varchar(64);index"`
	Status      string    `gorm:"type:varchar(16);not null"`
	CreatedAt   time.Time `gorm:"index:idx_point_transactions_user_created,priority:2"`
	ProcessedAt *time.Time
}

func (TransactionModel) TableName() string {
	return "point_transactions"
}

func (t *TransactionModel) BeforeCreate(tx *gorm.DB) error {
	if t.ID == "" {
		t.ID = uuid.New().String()
	}
	return nil
}
