package usecase

import (
	"context"
	"errors"
	"fmt"
	"io"
	"path"
	"strings"
	"time"

	"ma-siu/pkg/logger"
	"ma-siu/services/reward/internal/entity"
	"ma-siu/services/reward/internal/repo/persistent"

	"github.com/google/uuid"
)

type RedemptionOutcome string

const (
	OutcomeRewardNotFound     RedemptionOutcome = "RewardNotFound"
	OutcomeRewardUnavailable  RedemptionOutcome = "RewardUnavailable"
	OutcomeInsufficientPoints RedemptionOutcome = "InsufficientPoints"
)

// RedemptionResult carries expected business failures as values.
type RedemptionResult struct {
	Success    bool
	Redemption *entity.Redemption
	Outcome    RedemptionOutcome
}

func failed(outcome RedemptionOutcome) *RedemptionResult {
	return &RedemptionResult{Outcome: outcome}
}

type CreateRewardRequest struct {
	Name              string
	Description       string
	Type              entity.RewardType
	PointsCost        int
	QuantityAvailable int
	ImageURL          string
}

type RedemptionPage struct {
	Redemptions []*entity.Redemption `json:"redemptions"`
	Page        int                  `json:"page"`
	PageSize    int                  `json:"pageSize"`
	Total       int64                `json:"total"`
}

// ImageStore is satisfied by the S3 client.
type ImageStore interface {
	UploadObject(ctx context.Context, key string, body io.ReadSeeker, contentType string) (string, error)
	DeleteObject(ctx context.Context, key string) error
}

type RewardUseCase interface {
	GetCatalog(ctx context.Context) ([]*entity.Reward, error)
	Redeem(ctx context.Context, userID, rewardID string) (*RedemptionResult, error)
	GetRedemptions(ctx context.Context, userID string, page, pageSize int) (*RedemptionPage, error)
	CreateReward(ctx context.Context, req CreateRewardRequest) (*entity.Reward, error)
	UpdateRewardImage(ctx context.Context, rewardID, filename string, body io.ReadSeeker, contentType string) (*entity.Reward, error)
	ApproveRedemption(ctx context.Context, redemptionID, code, notes string) (*entity.Redemption, error)
	CompleteRedemption(ctx context.Context, redemptionID, notes string) (*entity.Redemption, error)
}

type rewardUseCase struct {
	rewardRepo persistent.RewardRepository
	points     PointsUseCase
	images     ImageStore
	stock      *stockKeeper
	logger     *logger.Logger
	now        func() time.Time
}

func NewRewardUseCase(rewardRepo persistent.RewardRepository, points PointsUseCase, images ImageStore, log *logger.Logger) RewardUseCase {
	log = log.With("component", "redemption")
	return &rewardUseCase{
		rewardRepo: rewardRepo,
		points:     points,
		images:     images,
		stock:      &stockKeeper{rewardRepo: rewardRepo, points: points, logger: log},
		logger:     log,
		now:        time.Now,
	}
}

func (uc *rewardUseCase) GetCatalog(ctx context.Context) ([]*entity.Reward, error) {
	rewards, err := uc.rewardRepo.ListActive(ctx)
	if err != nil {
		uc.logger.Error("Failed to list rewards: %v", err)
		return nil, fmt.Errorf("failed to list rewards: %w", err)
	}
	return rewards, nil
}

// Redeem charges the user before touching inventory. A crash after the spend
// leaves a charged user with a redemption the reconciliation sweep can
// rebuild, never an uncharged one.
func (uc *rewardUseCase) Redeem(ctx context.Context, userID, rewardID string) (*RedemptionResult, error) {
	reward, err := uc.rewardRepo.GetByID(ctx, rewardID)
	if isNotFound(err) {
		return failed(OutcomeRewardNotFound), nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load reward: %w", err)
	}
	if !reward.CanRedeem() {
		uc.logger.Info("[REDEEM] Reward %s is not redeemable", rewardID)
		return failed(OutcomeRewardUnavailable), nil
	}

	balance, err := uc.points.GetBalance(ctx, userID)
	if err != nil {
		return nil, err
	}
	if balance.AvailablePoints < reward.PointsCost {
		return failed(OutcomeInsufficientPoints), nil
	}

	spend, err := uc.points.Spend(ctx, userID, reward.PointsCost, RedeemReasonPrefix+reward.Name, reward.ID)
	if err != nil {
		return nil, err
	}
	if spend == nil {
		return failed(OutcomeInsufficientPoints), nil
	}

	redemption := entity.NewRedemption(userID, reward, spend.ID, uc.now())
	var created bool
	err = withRetry(ctx, func() error {
		var err error
		created, err = uc.rewardRepo.CreateRedemption(ctx, redemption)
		return err
	})
	if err == nil && !created {
		err = fmt.Errorf("redemption for spend %s already exists", spend.ID)
	}
	if err != nil {
		uc.logger.Warn("[REDEEM] Spend %s for user %s has no redemption yet, reconciliation will recreate it: %v", spend.ID, userID, err)
		return nil, fmt.Errorf("failed to record redemption: %w", err)
	}

	if !redemption.StockReserved {
		outcome, err := uc.stock.reserve(ctx, redemption)
		if err != nil {
			return nil, err
		}
		switch outcome {
		case entity.StockSoldOut:
			return failed(OutcomeRewardUnavailable), nil
		case entity.StockSkipped:
			current, err := uc.rewardRepo.GetRedemption(ctx, redemption.ID)
			if err != nil {
				return nil, fmt.Errorf("failed to reload redemption: %w", err)
			}
			if current.Status == entity.RedemptionStatusRejected {
				return failed(OutcomeRewardUnavailable), nil
			}
			redemption = current
		}
	}

	uc.logger.Info("[REDEEM] User %s redeemed %s for %d points (redemption %s)", userID, reward.Name, reward.PointsCost, redemption.ID)
	return &RedemptionResult{Success: true, Redemption: redemption}, nil
}

func (uc *rewardUseCase) GetRedemptions(ctx context.Context, userID string, page, pageSize int) (*RedemptionPage, error) {
	page, pageSize = normalizePage(page, pageSize)

	redemptions, total, err := uc.rewardRepo.ListRedemptions(ctx, userID, pageSize, (page-1)*pageSize)
	if err != nil {
		uc.logger.Error("Failed to list redemptions: %v", err)
		return nil, fmt.Errorf("failed to list redemptions: %w", err)
	}

	return &RedemptionPage{
		Redemptions: redemptions,
		Page:        page,
		PageSize:    pageSize,
		Total:       total,
	}, nil
}

func (uc *rewardUseCase) CreateReward(ctx context.Context, req CreateRewardRequest) (*entity.Reward, error) {
	if req.Type == "" {
		req.Type = entity.RewardTypeVoucherCode
	}
	switch {
	case strings.TrimSpace(req.Name) == "":
		return nil, fmt.Errorf("%w: name is required", ErrInvalidReward)
	case req.PointsCost <= 0:
		return nil, fmt.Errorf("%w: points cost must be positive", ErrInvalidReward)
	case req.QuantityAvailable < entity.UnlimitedQuantity:
		return nil, fmt.Errorf("%w: quantity must be -1 or more", ErrInvalidReward)
	case !req.Type.Valid():
		return nil, fmt.Errorf("%w: unknown type %s", ErrInvalidReward, req.Type)
	}

	reward := &entity.Reward{
		Name:              req.Name,
		Description:       req.Description,
		Type:              req.Type,
		PointsCost:        req.PointsCost,
		QuantityAvailable: req.QuantityAvailable,
		IsActive:          true,
		ImageURL:          req.ImageURL,
	}
	if err := uc.rewardRepo.Create(ctx, reward); err != nil {
		uc.logger.Error("Failed to create reward: %v", err)
		return nil, fmt.Errorf("failed to create reward: %w", err)
	}

	uc.logger.Info("Created reward %s (%s, cost=%d, quantity=%d)", reward.ID, reward.Name, reward.PointsCost, reward.QuantityAvailable)
	return reward, nil
}

func (uc *rewardUseCase) UpdateRewardImage(ctx context.Context, rewardID, filename string, body io.ReadSeeker, contentType string) (*entity.Reward, error) {
	previous, err := uc.rewardRepo.GetByID(ctx, rewardID)
	if err != nil {
		if isNotFound(err) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to load reward: %w", err)
	}

	key := fmt.Sprintf("%s%s%s", imagePrefix(rewardID), uuid.New().String(), strings.ToLower(path.Ext(filename)))
	url, err := uc.images.UploadObject(ctx, key, body, contentType)
	if err != nil {
		uc.logger.Error("Failed to upload reward image: %v", err)
		return nil, fmt.Errorf("failed to upload image: %w", err)
	}

	reward, err := uc.rewardRepo.UpdateImage(ctx, rewardID, url)
	if err != nil {
		return nil, fmt.Errorf("failed to update reward image: %w", err)
	}

	if oldKey, ok := imageKey(rewardID, previous.ImageURL); ok && oldKey != key {
		if err := uc.images.DeleteObject(ctx, oldKey); err != nil {
			uc.logger.Warn("Failed to delete replaced image %s: %v", oldKey, err)
		}
	}
	return reward, nil
}

func imagePrefix(rewardID string) string {
	return "rewards/" + rewardID + "/"
}

// imageKey recovers the object key from a URL this service uploaded. Images
// set elsewhere are left alone.
func imageKey(rewardID, url string) (string, bool) {
	i := strings.Index(url, imagePrefix(rewardID))
	if i < 0 {
		return "", false
	}
	return url[i:], true
}

func (uc *rewardUseCase) ApproveRedemption(ctx context.Context, redemptionID, code, notes string) (*entity.Redemption, error) {
	return uc.transition(ctx, redemptionID,
		[]entity.RedemptionStatus{entity.RedemptionStatusPending},
		entity.RedemptionStatusApproved, code, notes)
}

func (uc *rewardUseCase) CompleteRedemption(ctx context.Context, redemptionID, notes string) (*entity.Redemption, error) {
	return uc.transition(ctx, redemptionID,
		[]entity.RedemptionStatus{entity.RedemptionStatusPending, entity.RedemptionStatusApproved},
		entity.RedemptionStatusCompleted, "", notes)
}

// transition only moves redemptions whose stock is already reserved.
func (uc *rewardUseCase) transition(ctx context.Context, redemptionID string, from []entity.RedemptionStatus, to entity.RedemptionStatus, code, notes string) (*entity.Redemption, error) {
	current, err := uc.rewardRepo.GetRedemption(ctx, redemptionID)
	if isNotFound(err) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load redemption: %w", err)
	}
	if !current.StockReserved {
		return nil, fmt.Errorf("%w: redemption %s has no stock reserved yet", ErrInvalidState, redemptionID)
	}

	redemption, err := uc.rewardRepo.TransitionRedemption(ctx, redemptionID, from, to, code, notes)
	switch {
	case errors.Is(err, persistent.ErrInvalidTransition):
		return nil, fmt.Errorf("%w: cannot move redemption %s to %s", ErrInvalidState, redemptionID, to)
	case isNotFound(err):
		return nil, ErrNotFound
	case err != nil:
		return nil, fmt.Errorf("failed to update redemption: %w", err)
	}

	uc.logger.Info("Redemption %s moved to %s", redemptionID, to)
	return redemption, nil
}
