package usecase

import (
	"context"
	"errors"
	"fmt"
	"time"

	"ma-siu/services/notification/internal/entity"
	"ma-siu/services/notification/internal/repo/persistent"
)

const (
	defaultPageSize = 20
	maxPageSize     = 100
)

type NotificationPage struct {
	Notifications []*entity.Notification `json:"notifications"`
	UnreadCount   int64                  `json:"unreadCount"`
	Total         int64                  `json:"total"`
	Page          int                    `json:"page"`
	PageSize      int                    `json:"pageSize"`
}

type HistoryUseCase interface {
	GetNotifications(ctx context.Context, userID string, page, pageSize int) (*NotificationPage, error)
	GetUnreadCount(ctx context.Context, userID string) (int64, error)
	MarkRead(ctx context.Context, userID, notificationID string) error
	MarkAllRead(ctx context.Context, userID string) (int64, error)
}

type historyUseCase struct {
	notificationRepo persistent.NotificationRepository
	now              func() time.Time
}

func NewHistoryUseCase(notificationRepo persistent.NotificationRepository) HistoryUseCase {
	return &historyUseCase{
		notificationRepo: notificationRepo,
		now:              time.Now,
	}
}

func (uc *historyUseCase) GetNotifications(ctx context.Context, userID string, page, pageSize int) (*NotificationPage, error) {
	page, pageSize = normalizePage(page, pageSize)

	notifications, total, err := uc.notificationRepo.ListByUser(ctx, userID, (page-1)*pageSize, pageSize)
	if err != nil {
		return nil, fmt.Errorf("failed to list notifications: %w", err)
	}

	unread, err := uc.notificationRepo.CountUnread(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to count unread: %w", err)
	}

	return &NotificationPage{
		Notifications: notifications,
		UnreadCount:   unread,
		Total:         total,
		Page:          page,
		PageSize:      pageSize,
	}, nil
}

func (uc *historyUseCase) GetUnreadCount(ctx context.Context, userID string) (int64, error) {
	return uc.notificationRepo.CountUnread(ctx, userID)
}

func (uc *historyUseCase) MarkRead(ctx context.Context, userID, notificationID string) error {
	err := uc.notificationRepo.MarkRead(ctx, userID, notificationID, uc.now())
	if errors.Is(err, persistent.ErrNotFound) {
		return ErrNotFound
	}
	return err
}

func (uc *historyUseCase) MarkAllRead(ctx context.Context, userID string) (int64, error) {
	return uc.notificationRepo.MarkAllRead(ctx, userID, uc.now())
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
