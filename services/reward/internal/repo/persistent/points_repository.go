package persistent

import (
	"context"
	"errors"
	"time"

	"ma-siu/services/reward/internal/entity"
	"ma-siu/services/reward/internal/model"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// PointsRepository stores balances and their transaction log. Every mutation
// writes the balance change and its transaction row in one database
// transaction.
type PointsRepository interface {
	GetOrCreateBalance(ctx context.Context, userID string) (*entity.Balance, error)
	// Earn credits txn.Amount to pending (Pending status) or available
	// (Completed status) and to lifetime when countLifetime is set.
	Earn(ctx context.Context, txn *entity.Transaction, countLifetime bool) (*entity.Balance, error)
	// Spend debits -txn.Amount only if enough points are available. It returns
	// false with nothing written when they are not.
	Spend(ctx context.Context, txn *entity.Transaction) (*entity.Balance, bool, error)
	SettlePending(ctx context.Context, userID string, amount int, target entity.TransactionStatus) (*entity.Balance, error)
	GetTransactions(ctx context.Context, userID string, limit, offset int) ([]*entity.Transaction, int64, error)
}

var errInsufficientPoints = errors.New("insufficient points")

type pointsRepository struct {
	db *gorm.DB
}

func NewPointsRepository(db *gorm.DB) PointsRepository {
	return &pointsRepository{db: db}
}

// ensureBalance is safe to race: concurrent first touches insert once.
func ensureBalance(tx *gorm.DB, userID string) *gorm.DB {
	return tx.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "user_id"}},
		DoNothing: true,
	}).Create(&model.BalanceModel{UserID: userID})
}

func creditBalance(tx *gorm.DB, txn *entity.Transaction, countLifetime bool) *gorm.DB {
	updates := map[string]interface{}{"updated_at": time.Now()}
	if txn.Status == entity.TransactionStatusPending {
		updates["pending_points"] = gorm.Expr("pending_points + ?", txn.Amount)
	} else {
		updates["available_points"] = gorm.Expr("available_points + ?", txn.Amount)
		if countLifetime {
			updates["lifetime_points"] = gorm.Expr("lifetime_points + ?", txn.Amount)
		}
	}
	return tx.Model(&model.BalanceModel{}).Where("user_id = ?", txn.UserID).Updates(updates)
}

// debitAvailable touches no row when the balance cannot cover cost.
func debitAvailable(tx *gorm.DB, userID string, cost int) *gorm.DB {
	return tx.Model(&model.BalanceModel{}).
		Where("user_id = ? AND available_points >= ?", userID, cost).
		Updates(map[string]interface{}{
			"available_points": gorm.Expr("available_points - ?", cost),
			"updated_at":       time.Now(),
		})
}

func loadBalance(tx *gorm.DB, userID string) (*entity.Balance, error) {
	var balanceModel model.BalanceModel
	if err := tx.Where("user_id = ?", userID).First(&balanceModel).Error; err != nil {
		return nil, err
	}
	return ToBalanceEntity(&balanceModel), nil
}

func (r *pointsRepository) GetOrCreateBalance(ctx context.Context, userID string) (*entity.Balance, error) {
	db := r.db.WithContext(ctx)
	if err := ensureBalance(db, userID).Error; err != nil {
		return nil, mapError(err)
	}
	balance, err := loadBalance(db, userID)
	return balance, mapError(err)
}

func (r *pointsRepository) Earn(ctx context.Context, txn *entity.Transaction, countLifetime bool) (*entity.Balance, error) {
	var balance *entity.Balance
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := ensureBalance(tx, txn.UserID).Error; err != nil {
			return err
		}
		if err := creditBalance(tx, txn, countLifetime).Error; err != nil {
			return err
		}

		txnModel := ToTransactionModel(txn)
		if err := tx.Create(txnModel).Error; err != nil {
			return err
		}
		txn.ID = txnModel.ID
		txn.CreatedAt = txnModel.CreatedAt

		var err error
		balance, err = loadBalance(tx, txn.UserID)
		return err
	})
	if err != nil {
		return nil, mapError(err)
	}
	return balance, nil
}

func (r *pointsRepository) Spend(ctx context.Context, txn *entity.Transaction) (*entity.Balance, bool, error) {
	cost := -txn.Amount
	var balance *entity.Balance
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := ensureBalance(tx, txn.UserID).Error; err != nil {
			return err
		}
		res := debitAvailable(tx, txn.UserID, cost)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return errInsufficientPoints
		}

		txnModel := ToTransactionModel(txn)
		if err := tx.Create(txnModel).Error; err != nil {
			return err
		}
		txn.ID = txnModel.ID
		txn.CreatedAt = txnModel.CreatedAt

		var err error
		balance, err = loadBalance(tx, txn.UserID)
		return err
	})
	if errors.Is(err, errInsufficientPoints) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, mapError(err)
	}
	return balance, true, nil
}

func (r *pointsRepository) SettlePending(ctx context.Context, userID string, amount int, target entity.TransactionStatus) (*entity.Balance, error) {
	var balance *entity.Balance
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := ensureBalance(tx, userID).Error; err != nil {
			return err
		}

		var locked model.BalanceModel
		if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
			Where("user_id = ?", userID).First(&locked).Error; err != nil {
			return err
		}

		move := amount
		if locked.PendingPoints < move {
			move = locked.PendingPoints
		}
		if move <= 0 {
			balance = ToBalanceEntity(&locked)
			return nil
		}

		var pendingModels []model.TransactionModel
		if err := tx.Where("user_id = ? AND kind = ? AND status = ?",
			userID, string(entity.TransactionKindEarn), string(entity.TransactionStatusPending)).
			Order("created_at ASC").Find(&pendingModels).Error; err != nil {
			return err
		}
		pending := make([]*entity.Transaction, len(pendingModels))
		for i := range pendingModels {
			pending[i] = ToTransactionEntity(&pendingModels[i])
		}

		updated, created := entity.SettlePending(pending, move, target, time.Now())
		for _, e := range updated {
			if err := tx.Model(&model.TransactionModel{}).Where("id = ?", e.ID).
				Updates(map[string]interface{}{"status": string(e.Status), "processed_at": e.ProcessedAt}).Error; err != nil {
				return err
			}
		}
		for _, e := range created {
			if err := tx.Create(ToTransactionModel(e)).Error; err != nil {
				return err
			}
		}

		updates := map[string]interface{}{
			"pending_points": gorm.Expr("pending_points - ?", move),
			"updated_at":     time.Now(),
		}
		if target == entity.TransactionStatusCompleted {
			updates["available_points"] = gorm.Expr("available_points + ?", move)
			updates["lifetime_points"] = gorm.Expr("lifetime_points + ?", move)
		}
		if err := tx.Model(&model.BalanceModel{}).Where("user_id = ?", userID).Updates(updates).Error; err != nil {
			return err
		}

		var err error
		balance, err = loadBalance(tx, userID)
		return err
	})
	if err != nil {
		return nil, mapError(err)
	}
	return balance, nil
}

func (r *pointsRepository) GetTransactions(ctx context.Context, userID string, limit, offset int) ([]*entity.Transaction, int64, error) {
	db := r.db.WithContext(ctx)

	var total int64
	if err := db.Model(&model.TransactionModel{}).Where("user_id = ?", userID).Count(&total).Error; err != nil {
		return nil, 0, mapError(err)
	}

	var transactionModels []model.TransactionModel
	query := db.Where("user_id = ?", userID).Order("created_at DESC")
	if limit > 0 {
		query = query.Limit(limit).Offset(offset)
	}
	if err := query.Find(&transactionModels).Error; err != nil {
		return nil, 0, mapError(err)
	}

	transactions := make([]*entity.Transaction, len(transactionModels))
	for i := range transactionModels {
		transactions[i] = ToTransactionEntity(&transactionModels[i])
	}
	return transactions, total, nil
}
