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

// ErrInvalidTransition is returned when a redemption is not in a state the
// requested status change accepts.
var ErrInvalidTransition = errors.New("invalid redemption status transition")

type RewardRepository interface {
	ListActive(ctx context.Context) ([]*entity.Reward, error)
	GetByID(ctx context.Context, id string) (*entity.Reward, error)
	Create(ctx context.Context, reward *entity.Reward) error
	UpdateImage(ctx context.Context, id, imageURL string) (*entity.Reward, error)

	// CreateRedemption inserts once per spend transaction and reports
	// whether this call created the row.
	CreateRedemption(ctx context.Context, redemption *entity.Redemption) (bool, error)
	GetRedemption(ctx context.Context, id string) (*entity.Redemption, error)
	ListRedemptions(ctx context.Context, userID string, limit, offset int) ([]*entity.Redemption, int64, error)
	// ReserveStock flags a pending redemption as reserved and takes one unit
	// of the reward's inventory, both or neither.
	ReserveStock(ctx context.Context, redemptionID, rewardID string) (entity.StockOutcome, error)
	// RejectUnreserved rejects a pending redemption that never got stock.
	// Only the caller that gets true may refund it.
	RejectUnreserved(ctx context.Context, redemptionID, notes string) (bool, error)
	TransitionRedemption(ctx context.Context, id string, from []entity.RedemptionStatus, to entity.RedemptionStatus, code, notes string) (*entity.Redemption, error)

	FindOrphanSpends(ctx context.Context, reasonPrefix string, before time.Time, limit int) ([]*entity.Transaction, error)
	FindUnreservedRedemptions(ctx context.Context, before time.Time, limit int) ([]*entity.Redemption, error)
}

var errSoldOut = errors.New("sold out")

type rewardRepository struct {
	db *gorm.DB
}

func NewRewardRepository(db *gorm.DB) RewardRepository {
	return &rewardRepository{db: db}
}

func insertRedemption(tx *gorm.DB, redemptionModel *model.RedemptionModel) *gorm.DB {
	return tx.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "spend_transaction_id"}},
		DoNothing: true,
	}).Create(redemptionModel)
}

func markReserved(tx *gorm.DB, redemptionID string) *gorm.DB {
	return tx.Model(&model.RedemptionModel{}).
		Where("id = ? AND status = ? AND stock_reserved = ?", redemptionID, string(entity.RedemptionStatusPending), false).
		Update("stock_reserved", true)
}

// takeStock decrements finite inventory and leaves unlimited rewards as is.
// It touches no row when the reward is sold out.
func takeStock(tx *gorm.DB, rewardID string) *gorm.DB {
	return tx.Model(&model.RewardModel{}).
		Where("id = ? AND (quantity_available > 0 OR quantity_available = ?)", rewardID, entity.UnlimitedQuantity).
		Updates(map[string]interface{}{
			"quantity_available": gorm.Expr("CASE WHEN quantity_available = ? THEN quantity_available ELSE quantity_available - 1 END", entity.UnlimitedQuantity),
			"updated_at":         time.Now(),
		})
}

func (r *rewardRepository) ListActive(ctx context.Context) ([]*entity.Reward, error) {
	var rewardModels []model.RewardModel
	if err := r.db.WithContext(ctx).Where("is_active = ?", true).
		Order("points_cost ASC").Find(&rewardModels).Error; err != nil {
		return nil, mapError(err)
	}

	rewards := make([]*entity.Reward, len(rewardModels))
	for i := range rewardModels {
		rewards[i] = ToRewardEntity(&rewardModels[i])
	}
	return rewards, nil
}

func (r *rewardRepository) GetByID(ctx context.Context, id string) (*entity.Reward, error) {
	var rewardModel model.RewardModel
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&rewardModel).Error; err != nil {
		return nil, mapError(err)
	}
	return ToRewardEntity(&rewardModel), nil
}

func (r *rewardRepository) Create(ctx context.Context, reward *entity.Reward) error {
	rewardModel := ToRewardModel(reward)
	if err := r.db.WithContext(ctx).Create(rewardModel).Error; err != nil {
		return mapError(err)
	}
	reward.ID = rewardModel.ID
	reward.CreatedAt = rewardModel.CreatedAt
	reward.UpdatedAt = rewardModel.UpdatedAt
	return nil
}

func (r *rewardRepository) UpdateImage(ctx context.Context, id, imageURL string) (*entity.Reward, error) {
	res := r.db.WithContext(ctx).Model(&model.RewardModel{}).Where("id = ?", id).
		Updates(map[string]interface{}{"image_url": imageURL, "updated_at": time.Now()})
	if res.Error != nil {
		return nil, mapError(res.Error)
	}
	if res.RowsAffected == 0 {
		return nil, ErrNotFound
	}
	return r.GetByID(ctx, id)
}

func (r *rewardRepository) CreateRedemption(ctx context.Context, redemption *entity.Redemption) (bool, error) {
	redemptionModel := ToRedemptionModel(redemption)
	res := insertRedemption(r.db.WithContext(ctx), redemptionModel)
	if res.Error != nil {
		return false, mapError(res.Error)
	}
	if res.RowsAffected == 0 {
		return false, nil
	}
	redemption.ID = redemptionModel.ID
	redemption.CreatedAt = redemptionModel.CreatedAt
	return true, nil
}

func (r *rewardRepository) GetRedemption(ctx context.Context, id string) (*entity.Redemption, error) {
	var redemptionModel model.RedemptionModel
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&redemptionModel).Error; err != nil {
		return nil, mapError(err)
	}
	return ToRedemptionEntity(&redemptionModel), nil
}

func (r *rewardRepository) ListRedemptions(ctx context.Context, userID string, limit, offset int) ([]*entity.Redemption, int64, error) {
	db := r.db.WithContext(ctx)

	var total int64
	if err := db.Model(&model.RedemptionModel{}).Where("user_id = ?", userID).Count(&total).Error; err != nil {
		return nil, 0, mapError(err)
	}

	var redemptionModels []model.RedemptionModel
	query := db.Where("user_id = ?", userID).Order("created_at DESC")
	if limit > 0 {
		query = query.Limit(limit).Offset(offset)
	}
	if err := query.Find(&redemptionModels).Error; err != nil {
		return nil, 0, mapError(err)
	}

	redemptions := make([]*entity.Redemption, len(redemptionModels))
	for i := range redemptionModels {
		redemptions[i] = ToRedemptionEntity(&redemptionModels[i])
	}
	return redemptions, total, nil
}

func (r *rewardRepository) ReserveStock(ctx context.Context, redemptionID, rewardID string) (entity.StockOutcome, error) {
	outcome := entity.StockReserved
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		res := markReserved(tx, redemptionID)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			outcome = entity.StockSkipped
			return nil
		}

		res = takeStock(tx, rewardID)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return errSoldOut
		}
		return nil
	})
	if errors.Is(err, errSoldOut) {
		return entity.StockSoldOut, nil
	}
	if err != nil {
		return entity.StockSkipped, mapError(err)
	}
	return outcome, nil
}

func (r *rewardRepository) RejectUnreserved(ctx context.Context, redemptionID, notes string) (bool, error) {
	res := r.db.WithContext(ctx).Model(&model.RedemptionModel{}).
		Where("id = ? AND status = ? AND stock_reserved = ?", redemptionID, string(entity.RedemptionStatusPending), false).
		Updates(map[string]interface{}{
			"status":       string(entity.RedemptionStatusRejected),
			"notes":        notes,
			"processed_at": time.Now(),
		})
	if res.Error != nil {
		return false, mapError(res.Error)
	}
	return res.RowsAffected == 1, nil
}

func (r *rewardRepository) TransitionRedemption(ctx context.Context, id string, from []entity.RedemptionStatus, to entity.RedemptionStatus, code, notes string) (*entity.Redemption, error) {
	fromValues := make([]string, len(from))
	for i, s := range from {
		fromValues[i] = string(s)
	}

	updates := map[string]interface{}{
		"status":       string(to),
		"processed_at": time.Now(),
	}
	if code != "" {
		updates["redemption_code"] = code
	}
	if notes != "" {
		updates["notes"] = notes
	}

	res := r.db.WithContext(ctx).Model(&model.RedemptionModel{}).
		Where("id = ? AND status IN ?", id, fromValues).Updates(updates)
	if res.Error != nil {
		return nil, mapError(res.Error)
	}
	if res.RowsAffected == 0 {
		if _, err := r.GetRedemption(ctx, id); err != nil {
			return nil, err
		}
		return nil, ErrInvalidTransition
	}
	return r.GetRedemption(ctx, id)
}

func (r *rewardRepository) FindOrphanSpends(ctx context.Context, reasonPrefix string, before time.Time, limit int) ([]*entity.Transaction, error) {
	var transactionModels []model.TransactionModel
	err := r.db.WithContext(ctx).
		Where("kind = ? AND status = ? AND reason LIKE ? AND created_at < ?",
			string(entity.TransactionKindSpend), string(entity.TransactionStatusCompleted), reasonPrefix+"%", before).
		Where("NOT EXISTS (SELECT 1 FROM redemptions r WHERE r.spend_transaction_id = point_transactions.id)").
		Order("created_at ASC").
		Limit(limit).
		Find(&transactionModels).Error
	if err != nil {
		return nil, mapError(err)
	}

	transactions := make([]*entity.Transaction, len(transactionModels))
	for i := range transactionModels {
		transactions[i] = ToTransactionEntity(&transactionModels[i])
	}
	return transactions, nil
}

func (r *rewardRepository) FindUnreservedRedemptions(ctx context.Context, before time.Time, limit int) ([]*entity.Redemption, error) {
	var redemptionModels []model.RedemptionModel
	err := r.db.WithContext(ctx).
		Where("status = ? AND stock_reserved = ? AND created_at < ?", string(entity.RedemptionStatusPending), false, before).
		Order("created_at ASC").
		Limit(limit).
		Find(&redemptionModels).Error
	if err != nil {
		return nil, mapError(err)
	}

	redemptions := make([]*entity.Redemption, len(redemptionModels))
	for i := range redemptionModels {
		redemptions[i] = ToRedemptionEntity(&redemptionModels[i])
	}
	return redemptions, nil
}
