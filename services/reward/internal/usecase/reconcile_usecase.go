package usecase

import (
	"context"
	"fmt"
	"strings"
	"time"

	"ma-siu/pkg/logger"
	"ma-siu/services/reward/internal/entity"
	"ma-siu/services/reward/internal/repo/persistent"
)

const (
	reconcileLockKey = "reconcile:lock"
	reconcileLockTTL = 10 * time.Minute
	reconcileBatch   = 100
)

// Locker is satisfied by lock.RedisLocker. A nil release means another
// instance holds the lock.
type Locker interface {
	TryLock(ctx context.Context, key string, ttl time.Duration) (release func(), err error)
}

type ReconcileSummary struct {
	Recreated int  `json:"recreated"`
	Reserved  int  `json:"reserved"`
	Refunded  int  `json:"refunded"`
	Failed    int  `json:"failed"`
	Skipped   bool `json:"skipped"`
}

// ReconcileUseCase repairs redemptions interrupted between the spend and
// the inventory reservation.
type ReconcileUseCase interface {
	Run(ctx context.Context) (*ReconcileSummary, error)
}

type reconcileUseCase struct {
	rewardRepo persistent.RewardRepository
	stock      *stockKeeper
	locker     Locker
	grace      time.Duration
	logger     *logger.Logger
	now        func() time.Time
}

func NewReconcileUseCase(rewardRepo persistent.RewardRepository, points PointsUseCase, locker Locker, grace time.Duration, log *logger.Logger) ReconcileUseCase {
	log = log.With("component", "reconcile")
	return &reconcileUseCase{
		rewardRepo: rewardRepo,
		stock:      &stockKeeper{rewardRepo: rewardRepo, points: points, logger: log},
		locker:     locker,
		grace:      grace,
		logger:     log,
		now:        time.Now,
	}
}

func (uc *reconcileUseCase) Run(ctx context.Context) (*ReconcileSummary, error) {
	release, err := uc.locker.TryLock(ctx, reconcileLockKey, reconcileLockTTL)
	if err != nil {
		return nil, err
	}
	if release == nil {
		uc.logger.Info("[RECONCILE] Another sweep is running, skipping")
		return &ReconcileSummary{Skipped: true}, nil
	}
	defer release()

	summary := &ReconcileSummary{}
	before := uc.now().Add(-uc.grace)

	orphans, err := uc.rewardRepo.FindOrphanSpends(ctx, RedeemReasonPrefix, before, reconcileBatch)
	if err != nil {
		return nil, fmt.Errorf("failed to find orphan spends: %w", err)
	}
	for _, spend := range orphans {
		uc.recreate(ctx, spend, summary)
	}

	unreserved, err := uc.rewardRepo.FindUnreservedRedemptions(ctx, before, reconcileBatch)
	if err != nil {
		return nil, fmt.Errorf("failed to find unreserved redemptions: %w", err)
	}
	for _, redemption := range unreserved {
		uc.settle(ctx, redemption, summary)
	}

	uc.logger.Info("[RECONCILE] Sweep done: recreated=%d reserved=%d refunded=%d failed=%d",
		summary.Recreated, summary.Reserved, summary.Refunded, summary.Failed)
	return summary, nil
}

func (uc *reconcileUseCase) recreate(ctx context.Context, spend *entity.Transaction, summary *ReconcileSummary) {
	reward, err := uc.rewardRepo.GetByID(ctx, spend.ReferenceID)
	if isNotFound(err) {
		// Redeeming a deleted reward can only end in a refund.
		reward = &entity.Reward{ID: spend.ReferenceID}
	} else if err != nil {
		uc.logger.Error("[RECONCILE] Failed to load reward %s for spend %s: %v", spend.ReferenceID, spend.ID, err)
		summary.Failed++
		return
	}

	redemption := entity.NewRedemption(spend.UserID, reward, spend.ID, spend.CreatedAt)
	redemption.RewardName = strings.TrimPrefix(spend.Reason, RedeemReasonPrefix)
	redemption.PointsSpent = -spend.Amount

	created, err := uc.rewardRepo.CreateRedemption(ctx, redemption)
	if err != nil {
		uc.logger.Error("[RECONCILE] Failed to recreate redemption for spend %s: %v", spend.ID, err)
		summary.Failed++
		return
	}
	if !created {
		return
	}
	summary.Recreated++
	uc.logger.Warn("[RECONCILE] Recreated redemption %s for spend %s (user %s)", redemption.ID, spend.ID, spend.UserID)

	if !redemption.StockReserved {
		uc.settle(ctx, redemption, summary)
	}
}

func (uc *reconcileUseCase) settle(ctx context.Context, redemption *entity.Redemption, summary *ReconcileSummary) {
	outcome, err := uc.stock.reserve(ctx, redemption)
	if err != nil {
		uc.logger.Error("[RECONCILE] Failed to settle redemption %s: %v", redemption.ID, err)
		summary.Failed++
		return
	}
	switch outcome {
	case entity.StockReserved:
		summary.Reserved++
	case entity.StockSoldOut:
		summary.Refunded++
	}
}
