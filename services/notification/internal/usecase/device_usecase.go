package usecase

import (
	"context"
	"errors"
	"fmt"
	"time"

	"ma-siu/services/notification/internal/entity"
	"ma-siu/services/notification/internal/gateway"
	"ma-siu/services/notification/internal/repo/persistent"
)

type DeviceUseCase interface {
	RegisterDevice(ctx context.Context, userID, token, platform string, topics []string) (*entity.DeviceToken, error)
	UnregisterDevice(ctx context.Context, userID, token string) error
}

type deviceUseCase struct {
	deviceRepo persistent.DeviceRepository
	now        func() time.Time
}

func NewDeviceUseCase(deviceRepo persistent.DeviceRepository) DeviceUseCase {
	return &deviceUseCase{
		deviceRepo: deviceRepo,
		now:        time.Now,
	}
}

func (uc *deviceUseCase) RegisterDevice(ctx context.Context, userID, token, platform string, topics []string) (*entity.DeviceToken, error) {
	if platform == "" {
		platform = entity.PlatformWeb
	}
	if platform != entity.PlatformWeb {
		return nil, fmt.Errorf("%w: unsupported platform %s", ErrInvalidRequest, platform)
	}
	if _, err := gateway.ParseSubscription(token); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidRequest, err)
	}

	now := uc.now()
	device, err := uc.deviceRepo.Upsert(ctx, &entity.DeviceToken{
		UserID:    userID,
		Token:     token,
		Platform:  platform,
		Topics:    dedupeTopics(topics),
		CreatedAt: now,
		UpdatedAt: now,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to register device: %w", err)
	}
	return device, nil
}

func (uc *deviceUseCase) UnregisterDevice(ctx context.Context, userID, token string) error {
	err := uc.deviceRepo.Delete(ctx, userID, token)
	if errors.Is(err, persistent.ErrNotFound) {
		return ErrNotFound
	}
	return err
}

func dedupeTopics(topics []string) []string {
	seen := make(map[string]struct{}, len(topics))
	out := make([]string, 0, len(topics))
	for _, t := range topics {
		if t == "" {
			continue
		}
		if _, ok := seen[t]; ok {
			continue
		}
		seen[t] = struct{}{}
		out = append(out, t)
	}
	return out
}
