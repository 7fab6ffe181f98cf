package usecase

import (
	"context"
	"fmt"

	"ma-siu/pkg/logger"
	"ma-siu/services/reward/internal/entity"
	"ma-siu/services/reward/internal/repo/persistent"
)

const (
	RedeemReasonPrefix = "Redeem:"
	RefundReasonPrefix = "Refund:"
	soldOutNote        = "Reward sold out, points refunded"
)

// stockKeeper takes inventory for a redemption that already paid, and undoes
// the payment when the reward sold out in the meantime. The request path and
// the reconciliation sweep share it.
type stockKeeper struct {
	rewardRepo persistent.RewardRepository
	points     PointsUseCase
	logger     *logger.Logger
}

func (k *stockKeeper) reserve(ctx context.Context, redemption *entity.Redemption) (entity.StockOutcome, error) {
	var outcome entity.StockOutcome
	err := withRetry(ctx, func() error {
		var err error
		outcome, err = k.rewardRepo.ReserveStock(ctx, redemption.ID, redemption.RewardID)
		return err
	})
	if err != nil {
		return entity.StockSkipped, fmt.Errorf("failed to reserve stock: %w", err)
	}

	switch outcome {
	case entity.StockReserved:
		redemption.StockReserved = true
		return outcome, nil
	case entity.StockSoldOut:
		return k.compensate(ctx, redemption)
	default:
		return outcome, nil
	}
}

func (k *stockKeeper) compensate(ctx context.Context, redemption *entity.Redemption) (entity.StockOutcome, error) {
	rejected, err := k.rewardRepo.RejectUnreserved(ctx, redemption.ID, soldOutNote)
	if err != nil {
		return entity.StockSoldOut, fmt.Errorf("failed to reject redemption %s: %w", redemption.ID, err)
	}
	if !rejected {
		return entity.StockSkipped, nil
	}
	redemption.Status = entity.RedemptionStatusRejected
	redemption.Notes = soldOutNote

	if _, err := k.points.Refund(ctx, redemption.UserID, redemption.PointsSpent,
		RefundReasonPrefix+redemption.RewardName, redemption.ID); err != nil {
		k.logger.Error("[REDEEM] Refund of %d points to user %s for redemption %s failed, manual reconciliation required: %v",
			redemption.PointsSpent, redemption.UserID, redemption.ID, err)
		return entity.StockSoldOut, fmt.Errorf("%w: redemption %s: %v", ErrCompensationFailed, redemption.ID, err)
	}

	k.logger.Info("[REDEEM] Reward %s sold out, refunded %d points to user %s", redemption.RewardID, redemption.PointsSpent, redemption.UserID)
	return entity.StockSoldOut, nil
}
