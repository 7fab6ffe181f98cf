package http

import (
	"context"
	"io"

	"ma-siu/services/reward/internal/entity"
	"ma-siu/services/reward/internal/usecase"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/mock"
)

type MockPointsUseCase struct {
	mock.Mock
}

func (m *MockPointsUseCase) AddPoints(ctx context.Context, req usecase.AddPointsRequest) (*entity.Balance, error) {
	args := m.Called(ctx, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entity.Balance), args.Error(1)
}

func (m *MockPointsUseCase) Spend(ctx context.Context, userID string, amount int, reason, referenceID string) (*entity.Transaction, error) {
	args := m.Called(ctx, userID, amount, reason, referenceID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entity.Transaction), args.Error(1)
}

func (m *MockPointsUseCase) SpendPoints(ctx context.Context, userID string, amount int, reason, referenceID string) (bool, error) {
	args := m.Called(ctx, userID, amount, reason, referenceID)
	return args.Bool(0), args.Error(1)
}

func (m *MockPointsUseCase) Refund(ctx context.Context, userID string, amount int, reason, referenceID string) (*entity.Balance, error) {
	args := m.Called(ctx, userID, amount, reason, referenceID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entity.Balance), args.Error(1)
}

func (m *MockPointsUseCase) ApprovePending(ctx context.Context, userID string, amount int) (*entity.Balance, error) {
	args := m.Called(ctx, userID, amount)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entity.Balance), args.Error(1)
}

func (m *MockPointsUseCase) RejectPending(ctx context.Context, userID string, amount int) (*entity.Balance, error) {
	args := m.Called(ctx, userID, amount)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entity.Balance), args.Error(1)
}

func (m *MockPointsUseCase) GetBalance(ctx context.Context, userID string) (*entity.Balance, error) {
	args := m.Called(ctx, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entity.Balance), args.Error(1)
}

func (m *MockPointsUseCase) GetTransactions(ctx context.Context, userID string, page, pageSize int) (*usecase.TransactionPage, error) {
	args := m.Called(ctx, userID, page, pageSize)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*usecase.TransactionPage), args.Error(1)
}

var _ usecase.PointsUseCase = (*MockPointsUseCase)(nil)

type MockRewardUseCase struct {
	mock.Mock
}

func (m *MockRewardUseCase) GetCatalog(ctx context.Context) ([]*entity.Reward, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*entity.Reward), args.Error(1)
}

func (m *MockRewardUseCase) Redeem(ctx context.Context, userID, rewardID string) (*usecase.RedemptionResult, error) {
	args := m.Called(ctx, userID, rewardID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*usecase.RedemptionResult), args.Error(1)
}

func (m *MockRewardUseCase) GetRedemptions(ctx context.Context, userID string, page, pageSize int) (*usecase.RedemptionPage, error) {
	args := m.Called(ctx, userID, page, pageSize)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*usecase.RedemptionPage), args.Error(1)
}

func (m *MockRewardUseCase) CreateReward(ctx context.Context, req usecase.CreateRewardRequest) (*entity.Reward, error) {
	args := m.Called(ctx, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entity.Reward), args.Error(1)
}

func (m *MockRewardUseCase) UpdateRewardImage(ctx context.Context, rewardID, filename string, body io.ReadSeeker, contentType string) (*entity.Reward, error) {
	args := m.Called(ctx, rewardID, filename, body, contentType)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entity.Reward), args.Error(1)
}

func (m *MockRewardUseCase) ApproveRedemption(ctx context.Context, redemptionID, code, notes string) (*entity.Redemption, error) {
	args := m.Called(ctx, redemptionID, code, notes)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entity.Redemption), args.Error(1)
}

func (m *MockRewardUseCase) CompleteRedemption(ctx context.Context, redemptionID, notes string) (*entity.Redemption, error) {
	args := m.Called(ctx, redemptionID, notes)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entity.Redemption), args.Error(1)
}

var _ usecase.RewardUseCase = (*MockRewardUseCase)(nil)

type MockReconcileUseCase struct {
	mock.Mock
}

func (m *MockReconcileUseCase) Run(ctx context.Context) (*usecase.ReconcileSummary, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*usecase.ReconcileSummary), args.Error(1)
}

var _ usecase.ReconcileUseCase = (*MockReconcileUseCase)(nil)

func setupTestRouter() *gin.Engine {
	gin.SetMode(gin.TestMode)
	return gin.New()
}

func asUser(userID string, h gin.HandlerFunc) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Set("user_id", userID)
		h(c)
	}
}
