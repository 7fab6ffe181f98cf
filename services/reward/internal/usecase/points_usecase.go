package usecase

import (
	"context"
	"errors"
	"fmt"
	"time"

	"ma-siu/pkg/events"
	"ma-siu/pkg/logger"
	"ma-siu/services/reward/internal/entity"
	"ma-siu/services/reward/internal/repo/persistent"
)

const (
	defaultPageSize = 20
	maxPageSize     = 100
)

// EventPublisher is satisfied by the RabbitMQ client.
type EventPublisher interface {
	Publish(ctx context.Context, routingKey string, payload interface{}) error
}

type AddPointsRequest struct {
	UserID      string
	Amount      int
	Reason      string
	ReferenceID string
	Pending     bool
}

type TransactionPage struct {
	Transactions []*entity.Transaction `json:"transactions"`
	Page         int                   `json:"page"`
	PageSize     int                   `json:"pageSize"`
	Total        int64                 `json:"total"`
}

type PointsUseCase interface {
	AddPoints(ctx context.Context, req AddPointsRequest) (*entity.Balance, error)
	// Spend returns the spend transaction, or nil when available points are short.
	Spend(ctx context.Context, userID string, amount int, reason, referenceID string) (*entity.Transaction, error)
	SpendPoints(ctx context.Context, userID string, amount int, reason, referenceID string) (bool, error)
	// Refund credits points back after a failed redemption. It does not count
	// toward lifetime points and emits no points-earned event.
	Refund(ctx context.Context, userID string, amount int, reason, referenceID string) (*entity.Balance, error)
	ApprovePending(ctx context.Context, userID string, amount int) (*entity.Balance, error)
	RejectPending(ctx context.Context, userID string, amount int) (*entity.Balance, error)
	GetBalance(ctx context.Context, userID string) (*entity.Balance, error)
	GetTransactions(ctx context.Context, userID string, page, pageSize int) (*TransactionPage, error)
}

type pointsUseCase struct {
	pointsRepo persistent.PointsRepository
	publisher  EventPublisher
	logger     *logger.Logger
	now        func() time.Time
}

func NewPointsUseCase(pointsRepo persistent.PointsRepository, publisher EventPublisher, log *logger.Logger) PointsUseCase {
	return &pointsUseCase{
		pointsRepo: pointsRepo,
		publisher:  publisher,
		logger:     log.With("component", "ledger"),
		now:        time.Now,
	}
}

func (uc *pointsUseCase) AddPoints(ctx context.Context, req AddPointsRequest) (*entity.Balance, error) {
	if req.Amount <= 0 {
		return nil, ErrInvalidAmount
	}

	status := entity.TransactionStatusCompleted
	if req.Pending {
		status = entity.TransactionStatusPending
	}
	txn := &entity.Transaction{
		UserID:      req.UserID,
		Amount:      req.Amount,
		Kind:        entity.TransactionKindEarn,
		Reason:      req.Reason,
		ReferenceID: req.ReferenceID,
		Status:      status,
		CreatedAt:   uc.now(),
	}
	if !req.Pending {
		processed := txn.CreatedAt
		txn.ProcessedAt = &processed
	}

	var balance *entity.Balance
	err := withRetry(ctx, func() error {
		var err error
		balance, err = uc.pointsRepo.Earn(ctx, txn, true)
		return err
	})
	if err != nil {
		uc.logger.Error("[LEDGER] Failed to add %d points for user %s: %v", req.Amount, req.UserID, err)
		return nil, fmt.Errorf("failed to add points: %w", err)
	}

	uc.logger.Info("[LEDGER] User %s earned %d points (pending=%t, reason=%s)", req.UserID, req.Amount, req.Pending, req.Reason)
	uc.publishEarned(ctx, req, txn.CreatedAt)
	return balance, nil
}

func (uc *pointsUseCase) publishEarned(ctx context.Context, req AddPointsRequest, at time.Time) {
	if uc.publisher == nil {
		return
	}
	event := events.NewPointsEarned(req.UserID, req.Amount, req.Reason, req.Pending, at)
	if err := uc.publisher.Publish(ctx, events.RoutingPointsEarned, event); err != nil {
		uc.logger.Warn("[LEDGER] Failed to publish points earned for user %s: %v", req.UserID, err)
	}
}

func (uc *pointsUseCase) Spend(ctx context.Context, userID string, amount int, reason, referenceID string) (*entity.Transaction, error) {
	if amount <= 0 {
		return nil, ErrInvalidAmount
	}

	now := uc.now()
	txn := &entity.Transaction{
		UserID:      userID,
		Amount:      -amount,
		Kind:        entity.TransactionKindSpend,
		Reason:      reason,
		ReferenceID: referenceID,
		Status:      entity.TransactionStatusCompleted,
		CreatedAt:   now,
		ProcessedAt: &now,
	}

	var spent bool
	err := withRetry(ctx, func() error {
		var err error
		_, spent, err = uc.pointsRepo.Spend(ctx, txn)
		return err
	})
	if err != nil {
		uc.logger.Error("[LEDGER] Failed to spend %d points for user %s: %v", amount, userID, err)
		return nil, fmt.Errorf("failed to spend points: %w", err)
	}
	if !spent {
		uc.logger.Info("[LEDGER] User %s has insufficient points for %d (%s)", userID, amount, reason)
		return nil, nil
	}

	uc.logger.Info("[LEDGER] User %s spent %d points (%s)", userID, amount, reason)
	return txn, nil
}

func (uc *pointsUseCase) SpendPoints(ctx context.Context, userID string, amount int, reason, referenceID string) (bool, error) {
	txn, err := uc.Spend(ctx, userID, amount, reason, referenceID)
	if err != nil {
		return false, err
	}
	return txn != nil, nil
}

func (uc *pointsUseCase) Refund(ctx context.Context, userID string, amount int, reason, referenceID string) (*entity.Balance, error) {
	if amount <= 0 {
		return nil, ErrInvalidAmount
	}

	now := uc.now()
	txn := &entity.Transaction{
		UserID:      userID,
		Amount:      amount,
		Kind:        entity.TransactionKindEarn,
		Reason:      reason,
		ReferenceID: referenceID,
		Status:      entity.TransactionStatusCompleted,
		CreatedAt:   now,
		ProcessedAt: &now,
	}

	var balance *entity.Balance
	err := withRetry(ctx, func() error {
		var err error
		balance, err = uc.pointsRepo.Earn(ctx, txn, false)
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("failed to refund points: %w", err)
	}

	uc.logger.Info("[LEDGER] Refunded %d points to user %s (%s)", amount, userID, reason)
	return balance, nil
}

func (uc *pointsUseCase) ApprovePending(ctx context.Context, userID string, amount int) (*entity.Balance, error) {
	return uc.settle(ctx, userID, amount, entity.TransactionStatusCompleted)
}

func (uc *pointsUseCase) RejectPending(ctx context.Context, userID string, amount int) (*entity.Balance, error) {
	return uc.settle(ctx, userID, amount, entity.TransactionStatusRejected)
}

func (uc *pointsUseCase) settle(ctx context.Context, userID string, amount int, target entity.TransactionStatus) (*entity.Balance, error) {
	if amount <= 0 {
		return nil, ErrInvalidAmount
	}

	var balance *entity.Balance
	err := withRetry(ctx, func() error {
		var err error
		balance, err = uc.pointsRepo.SettlePending(ctx, userID, amount, target)
		return err
	})
	if err != nil {
		uc.logger.Error("[LEDGER] Failed to settle pending points for user %s: %v", userID, err)
		return nil, fmt.Errorf("failed to settle pending points: %w", err)
	}

	uc.logger.Info("[LEDGER] Settled up to %d pending points for user %s as %s", amount, userID, target)
	return balance, nil
}

func (uc *pointsUseCase) GetBalance(ctx context.Context, userID string) (*entity.Balance, error) {
	balance, err := uc.pointsRepo.GetOrCreateBalance(ctx, userID)
	if err != nil {
		uc.logger.Error("Failed to get balance: %v", err)
		return nil, fmt.Errorf("failed to get balance: %w", err)
	}
	return balance, nil
}

func (uc *pointsUseCase) GetTransactions(ctx context.Context, userID string, page, pageSize int) (*TransactionPage, error) {
	page, pageSize = normalizePage(page, pageSize)

	transactions, total, err := uc.pointsRepo.GetTransactions(ctx, userID, pageSize, (page-1)*pageSize)
	if err != nil {
		uc.logger.Error("Failed to get transactions: %v", err)
		return nil, fmt.Errorf("failed to get transactions: %w", err)
	}

	return &TransactionPage{
		Transactions: transactions,
		Page:         page,
		PageSize:     pageSize,
		Total:        total,
	}, nil
}

func normalizePage(page, pageSize int) (int, int) {
	if page < 1 {
		page = 1
	}
	if pageSize < 1 {
		pageSize = defaultPageSize
	}
	if pageSize > maxPageSize {
		pageSize = maxPageSize
	}
	return page, pageSize
}

func isNotFound(err error) bool {
	return errors.Is(err, persistent.ErrNotFound)
}
