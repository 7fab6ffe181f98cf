package usecase

import (
	"context"
	"errors"
	"fmt"
	"time"

	"ma-siu/pkg/logger"
	"ma-siu/services/notification/internal/entity"
	"ma-siu/services/notification/internal/gateway"
	"ma-siu/services/notification/internal/repo/persistent"
	"ma-siu/services/notification/internal/template"
)

// Guard is satisfied by dedup.RedisGuard.
type Guard interface {
	IsDuplicate(ctx context.Context, recipientID, key string) (bool, error)
	Claim(ctx context.Context, recipientID, key string, ttl time.Duration) (bool, error)
	Release(ctx context.Context, recipientID, key string) error
}

// LiveFeed is satisfied by live.RedisFeed.
type LiveFeed interface {
	Publish(ctx context.Context, n *entity.Notification) error
}

type SendRequest struct {
	UserID string
	// DeviceTokens is used as given. With UseRegisteredDevices the user's
	// registered devices are looked up instead.
	DeviceTokens         []string
	UseRegisteredDevices bool
	Type                 entity.NotificationType
	Title                string
	Body                 string
	ImageURL             string
	Data                 map[string]string
	IdempotencyKey       string
}

type TopicRequest struct {
	Topic          string
	Type           entity.NotificationType
	Title          string
	Body           string
	ImageURL       string
	Data           map[string]string
	IdempotencyKey string
}

// DispatcherUseCase returns (false, nil) when there was nothing to do: the
// idempotency key was already claimed, or a topic broadcast was rejected
// permanently. Retryable failures wrap ErrDeliveryFailed.
type DispatcherUseCase interface {
	Send(ctx context.Context, req SendRequest) (bool, error)
	SendToTopic(ctx context.Context, req TopicRequest) (bool, error)
	SendNewVoucher(ctx context.Context, userID string, tokens []string, code, platform, discount, postID string) (bool, error)
	SendVoucherExpiring(ctx context.Context, userID string, tokens []string, code, platform string, hoursRemaining int, postID string) (bool, error)
	SendPointsEarned(ctx context.Context, userID string, points int, reason, eventKey string) (bool, error)
	SendSystem(ctx context.Context, userID string, tokens []string, title, body, key string) (bool, error)
	// IsDuplicate reports whether key was already handled for the recipient.
	IsDuplicate(ctx context.Context, recipientID, key string) (bool, error)
}

type dispatcherUseCase struct {
	notificationRepo persistent.NotificationRepository
	deviceRepo       persistent.DeviceRepository
	guard            Guard
	gateway          gateway.Gateway
	feed             LiveFeed
	dedupTTL         time.Duration
	logger           *logger.Logger
	now              func() time.Time
}

func NewDispatcherUseCase(
	notificationRepo persistent.NotificationRepository,
	deviceRepo persistent.DeviceRepository,
	guard Guard,
	gw gateway.Gateway,
	feed LiveFeed,
	dedupTTL time.Duration,
	log *logger.Logger,
) DispatcherUseCase {
	return &dispatcherUseCase{
		notificationRepo: notificationRepo,
		deviceRepo:       deviceRepo,
		guard:            guard,
		gateway:          gw,
		feed:             feed,
		dedupTTL:         dedupTTL,
		logger:           log.With("component", "dispatcher"),
		now:              time.Now,
	}
}

func (uc *dispatcherUseCase) Send(ctx context.Context, req SendRequest) (bool, error) {
	if req.UserID == "" || req.Title == "" {
		return false, fmt.Errorf("%w: userId and title are required", ErrInvalidRequest)
	}
	if req.Type == "" {
		req.Type = entity.NotificationTypeSystem
	}
	if !req.Type.Valid() {
		return false, fmt.Errorf("%w: unknown type %s", ErrInvalidRequest, req.Type)
	}

	claimed, err := uc.claim(ctx, req.UserID, req.IdempotencyKey)
	if err != nil {
		return false, err
	}
	if !claimed {
		uc.logger.Info("[DISPATCH] Skipping duplicate %s for user %s", req.IdempotencyKey, req.UserID)
		return false, nil
	}

	tokens := req.DeviceTokens
	if req.UseRegisteredDevices {
		tokens, err = uc.deviceRepo.TokensForUser(ctx, req.UserID)
		if err != nil {
			uc.release(ctx, req.UserID, req.IdempotencyKey)
			return false, fmt.Errorf("failed to load devices: %w", err)
		}
	}

	n := entity.NewNotification(req.UserID, req.Type, req.Title, req.Body, req.ImageURL, req.Data, uc.now())
	if err := uc.notificationRepo.Create(ctx, n); err != nil {
		uc.release(ctx, req.UserID, req.IdempotencyKey)
		return false, fmt.Errorf("failed to record notification: %w", err)
	}

	transportErr := uc.deliver(ctx, n, tokens)

	if err := uc.notificationRepo.Update(ctx, n); err != nil {
		// The push already went out; keep the claim so a retry cannot resend it.
		uc.logger.Error("[DISPATCH] Failed to record outcome of notification %s (status %s): %v", n.ID, n.Status, err)
	}

	if transportErr != nil {
		uc.release(ctx, req.UserID, req.IdempotencyKey)
		uc.logger.Warn("[DISPATCH] Delivery of notification %s to user %s failed: %v", n.ID, req.UserID, transportErr)
		return false, fmt.Errorf("%w: %v", ErrDeliveryFailed, transportErr)
	}

	if uc.feed != nil {
		if err := uc.feed.Publish(ctx, n); err != nil {
			uc.logger.Warn("[DISPATCH] Failed to publish notification %s to live feed: %v", n.ID, err)
		}
	}

	uc.logger.Info("[DISPATCH] Notification %s for user %s finished as %s (%d tokens)", n.ID, req.UserID, n.Status, len(tokens))
	return true, nil
}

// deliver sets the final status on n and returns the transport error, if
// any, that should make the caller retry.
func (uc *dispatcherUseCase) deliver(ctx context.Context, n *entity.Notification, tokens []string) error {
	msg := gateway.Message{Title: n.Title, Body: n.Body, ImageURL: n.ImageURL, Data: n.Data}

	switch len(tokens) {
	case 0:
		n.MarkSent("", uc.now())
		return nil

	case 1:
		id, err := uc.gateway.SendSingle(ctx, tokens[0], msg)
		if err == nil {
			n.MarkSent(id, uc.now())
			return nil
		}
		n.MarkFailed(err.Error())
		if errors.Is(err, gateway.ErrSubscriptionExpired) {
			uc.prune(ctx, tokens)
		}
		if gateway.IsTransport(err) {
			return err
		}
		return nil

	default:
		result, err := uc.gateway.SendMulticast(ctx, tokens, msg)
		if err != nil {
			n.MarkFailed(err.Error())
			return err
		}
		n.MarkSent(fmt.Sprintf("batch:%d/%d", result.SuccessCount, len(tokens)), uc.now())
		if result.FailureCount > 0 {
			n.ErrorMessage = fmt.Sprintf("%d of %d deliveries failed", result.FailureCount, len(tokens))
		}
		uc.prune(ctx, result.Expired())
		return nil
	}
}

func (uc *dispatcherUseCase) prune(ctx context.Context, tokens []string) {
	if len(tokens) == 0 || uc.deviceRepo == nil {
		return
	}
	if _, err := uc.deviceRepo.DeleteTokens(ctx, tokens); err != nil {
		uc.logger.Warn("[DISPATCH] Failed to prune %d expired tokens: %v", len(tokens), err)
	}
}

func (uc *dispatcherUseCase) SendToTopic(ctx context.Context, req TopicRequest) (bool, error) {
	if req.Topic == "" || req.Title == "" {
		return false, fmt.Errorf("%w: topic and title are required", ErrInvalidRequest)
	}

	recipient := topicRecipient(req.Topic)
	claimed, err := uc.claim(ctx, recipient, req.IdempotencyKey)
	if err != nil {
		return false, err
	}
	if !claimed {
		uc.logger.Info("[DISPATCH] Skipping duplicate %s for topic %s", req.IdempotencyKey, req.Topic)
		return false, nil
	}

	msg := gateway.Message{Title: req.Title, Body: req.Body, ImageURL: req.ImageURL, Data: req.Data}
	id, err := uc.gateway.SendToTopic(ctx, req.Topic, msg)
	if err != nil {
		if gateway.IsTransport(err) {
			uc.release(ctx, recipient, req.IdempotencyKey)
			uc.logger.Warn("[DISPATCH] Broadcast to topic %s failed: %v", req.Topic, err)
			return false, fmt.Errorf("%w: %v", ErrDeliveryFailed, err)
		}
		uc.logger.Warn("[DISPATCH] Broadcast to topic %s rejected: %v", req.Topic, err)
		return false, nil
	}

	uc.logger.Info("[DISPATCH] Broadcast %s to topic %s (%s)", req.Type, req.Topic, id)
	return true, nil
}

func (uc *dispatcherUseCase) SendNewVoucher(ctx context.Context, userID string, tokens []string, code, platform, discount, postID string) (bool, error) {
	msg := template.NewVoucher(code, platform, discount, postID)
	return uc.Send(ctx, templated(userID, tokens, msg, "voucher:"+code))
}

func (uc *dispatcherUseCase) SendVoucherExpiring(ctx context.Context, userID string, tokens []string, code, platform string, hoursRemaining int, postID string) (bool, error) {
	msg := template.VoucherExpiring(code, platform, hoursRemaining, postID)
	return uc.Send(ctx, templated(userID, tokens, msg, "expiring:"+code))
}

func (uc *dispatcherUseCase) SendPointsEarned(ctx context.Context, userID string, points int, reason, eventKey string) (bool, error) {
	req := templated(userID, nil, template.PointsEarned(points, reason), "points:"+eventKey)
	req.UseRegisteredDevices = true
	return uc.Send(ctx, req)
}

func (uc *dispatcherUseCase) SendSystem(ctx context.Context, userID string, tokens []string, title, body, key string) (bool, error) {
	if title == "" {
		return false, fmt.Errorf("%w: title is required", ErrInvalidRequest)
	}
	if key != "" {
		key = "system:" + key
	}
	return uc.Send(ctx, templated(userID, tokens, template.System(title, body), key))
}

// templated falls back to the user's registered devices when no tokens are
// given.
func templated(userID string, tokens []string, msg template.Message, key string) SendRequest {
	return SendRequest{
		UserID:               userID,
		DeviceTokens:         tokens,
		UseRegisteredDevices: len(tokens) == 0,
		Type:                 msg.Type,
		Title:                msg.Title,
		Body:                 msg.Body,
		Data:                 msg.Data,
		IdempotencyKey:       key,
	}
}

func (uc *dispatcherUseCase) IsDuplicate(ctx context.Context, recipientID, key string) (bool, error) {
	if recipientID == "" || key == "" {
		return false, fmt.Errorf("%w: recipientId and key are required", ErrInvalidRequest)
	}
	return uc.guard.IsDuplicate(ctx, recipientID, key)
}

func (uc *dispatcherUseCase) claim(ctx context.Context, recipientID, key string) (bool, error) {
	if key == "" {
		return true, nil
	}
	claimed, err := uc.guard.Claim(ctx, recipientID, key, uc.dedupTTL)
	if err != nil {
		return false, fmt.Errorf("failed to claim idempotency key: %w", err)
	}
	return claimed, nil
}

func (uc *dispatcherUseCase) release(ctx context.Context, recipientID, key string) {
	if key == "" {
		return
	}
	if err := uc.guard.Release(ctx, recipientID, key); err != nil {
		uc.logger.Error("[DISPATCH] Failed to release idempotency key %s for %s: %v", key, recipientID, err)
	}
}

func topicRecipient(topic string) string {
	return "topic:" + topic
}
