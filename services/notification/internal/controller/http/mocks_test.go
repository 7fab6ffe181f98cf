package http

import (
	"context"
	"sync"

	"ma-siu/services/notification/internal/entity"
	"ma-siu/services/notification/internal/usecase"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/mock"
)

type MockDispatcherUseCase struct {
	mock.Mock
}

func (m *MockDispatcherUseCase) Send(ctx context.Context, req usecase.SendRequest) (bool, error) {
	args := m.Called(ctx, req)
	return args.Bool(0), args.Error(1)
}

func (m *MockDispatcherUseCase) SendToTopic(ctx context.Context, req usecase.TopicRequest) (bool, error) {
	args := m.Called(ctx, req)
	return args.Bool(0), args.Error(1)
}

func (m *MockDispatcherUseCase) SendNewVoucher(ctx context.Context, userID string, tokens []string, code, platform, discount, postID string) (bool, error) {
	args := m.Called(ctx, userID, tokens, code, platform, discount, postID)
	return args.Bool(0), args.Error(1)
}

func (m *MockDispatcherUseCase) SendVoucherExpiring(ctx context.Context, userID string, tokens []string, code, platform string, hoursRemaining int, postID string) (bool, error) {
	args := m.Called(ctx, userID, tokens, code, platform, hoursRemaining, postID)
	return args.Bool(0), args.Error(1)
}

func (m *MockDispatcherUseCase) SendSystem(ctx context.Context, userID string, tokens []string, title, body, key string) (bool, error) {
	args := m.Called(ctx, userID, tokens, title, body, key)
	return args.Bool(0), args.Error(1)
}

func (m *MockDispatcherUseCase) SendPointsEarned(ctx context.Context, userID string, points int, reason, eventKey string) (bool, error) {
	args := m.Called(ctx, userID, points, reason, eventKey)
	return args.Bool(0), args.Error(1)
}

func (m *MockDispatcherUseCase) IsDuplicate(ctx context.Context, recipientID, key string) (bool, error) {
	args := m.Called(ctx, recipientID, key)
	return args.Bool(0), args.Error(1)
}

type MockHistoryUseCase struct {
	mock.Mock
}

func (m *MockHistoryUseCase) GetNotifications(ctx context.Context, userID string, page, pageSize int) (*usecase.NotificationPage, error) {
	args := m.Called(ctx, userID, page, pageSize)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*usecase.NotificationPage), args.Error(1)
}

func (m *MockHistoryUseCase) GetUnreadCount(ctx context.Context, userID string) (int64, error) {
	args := m.Called(ctx, userID)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockHistoryUseCase) MarkRead(ctx context.Context, userID, notificationID string) error {
	args := m.Called(ctx, userID, notificationID)
	return args.Error(0)
}

func (m *MockHistoryUseCase) MarkAllRead(ctx context.Context, userID string) (int64, error) {
	args := m.Called(ctx, userID)
	return args.Get(0).(int64), args.Error(1)
}

type MockDeviceUseCase struct {
	mock.Mock
}

func (m *MockDeviceUseCase) RegisterDevice(ctx context.Context, userID, token, platform string, topics []string) (*entity.DeviceToken, error) {
	args := m.Called(ctx, userID, token, platform, topics)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entity.DeviceToken), args.Error(1)
}

func (m *MockDeviceUseCase) UnregisterDevice(ctx context.Context, userID, token string) error {
	args := m.Called(ctx, userID, token)
	return args.Error(0)
}

// fakeLiveSource hands out one channel per user and records subscriptions.
type fakeLiveSource struct {
	mu    sync.Mutex
	feeds map[string]chan []byte
	ready chan string
	err   error
}

func newFakeLiveSource() *fakeLiveSource {
	return &fakeLiveSource{feeds: map[string]chan []byte{}, ready: make(chan string, 1)}
}

func (s *fakeLiveSource) Listen(ctx context.Context, userID string) (<-chan []byte, error) {
	if s.err != nil {
		return nil, s.err
	}
	ch := make(chan []byte, 4)
	s.mu.Lock()
	s.feeds[userID] = ch
	s.mu.Unlock()
	s.ready <- userID
	return ch, nil
}

func (s *fakeLiveSource) feed(userID string) chan []byte {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.feeds[userID]
}

var (
	_ usecase.DispatcherUseCase = (*MockDispatcherUseCase)(nil)
	_ usecase.HistoryUseCase    = (*MockHistoryUseCase)(nil)
	_ usecase.DeviceUseCase     = (*MockDeviceUseCase)(nil)
	_ LiveSource                = (*fakeLiveSource)(nil)
)

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
