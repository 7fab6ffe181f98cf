package usecase

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"time"

	"ma-siu/pkg/events"
	"ma-siu/pkg/logger"
	"ma-siu/pkg/queue"
	"ma-siu/pkg/voucher"
	"ma-siu/services/notification/internal/template"
)

const defaultAuthorName = "A creator you follow"

// IntakeRoutingKeys are the events the notification service consumes.
var IntakeRoutingKeys = []string{
	events.RoutingPostPublished,
	events.RoutingVoucherCreated,
	events.RoutingVoucherExpiring,
	events.RoutingPointsEarned,
}

// IntakeUseCase turns broker events into dispatcher calls. Handle matches
// queue.Handler: undecodable or invalid events wrap queue.ErrPermanent,
// everything else that fails is retried by redelivery.
type IntakeUseCase interface {
	Handle(ctx context.Context, routingKey string, body []byte) error
}

type intakeUseCase struct {
	dispatcher DispatcherUseCase
	logger     *logger.Logger
	now        func() time.Time
}

func NewIntakeUseCase(dispatcher DispatcherUseCase, log *logger.Logger) IntakeUseCase {
	return &intakeUseCase{
		dispatcher: dispatcher,
		logger:     log.With("component", "intake"),
		now:        time.Now,
	}
}

func (uc *intakeUseCase) Handle(ctx context.Context, routingKey string, body []byte) error {
	var err error
	switch routingKey {
	case events.RoutingPostPublished:
		err = uc.postPublished(ctx, body)
	case events.RoutingVoucherCreated:
		err = uc.voucherCreated(ctx, body)
	case events.RoutingVoucherExpiring:
		err = uc.voucherExpiring(ctx, body)
	case events.RoutingPointsEarned:
		err = uc.pointsEarned(ctx, body)
	default:
		err = fmt.Errorf("%w: unknown routing key %s", queue.ErrPermanent, routingKey)
	}

	if errors.Is(err, ErrInvalidRequest) {
		err = fmt.Errorf("%w: %v", queue.ErrPermanent, err)
	}
	if err != nil {
		uc.logger.Warn("[INTAKE] %s: %v", routingKey, err)
	}
	return err
}

func decode(body []byte, v interface{}) error {
	if err := json.Unmarshal(body, v); err != nil {
		return fmt.Errorf("%w: malformed event: %v", queue.ErrPermanent, err)
	}
	return nil
}

func (uc *intakeUseCase) postPublished(ctx context.Context, body []byte) error {
	var evt events.PostPublished
	if err := decode(body, &evt); err != nil {
		return err
	}
	if evt.PostID == "" {
		return fmt.Errorf("%w: postId is required", ErrInvalidRequest)
	}

	author := evt.AuthorName
	if author == "" {
		author = defaultAuthorName
	}
	msg := template.NewPost(author, evt.Title, evt.PostID)
	if evt.AffiliateURL != "" {
		msg.Data["affiliateUrl"] = evt.AffiliateURL
	}

	_, err := uc.dispatcher.SendToTopic(ctx, topicRequest(events.TopicNewPosts, msg, "post:"+evt.PostID))
	return err
}

func (uc *intakeUseCase) voucherCreated(ctx context.Context, body []byte) error {
	var evt events.VoucherCreated
	if err := decode(body, &evt); err != nil {
		return err
	}
	if evt.Code == "" {
		return fmt.Errorf("%w: code is required", ErrInvalidRequest)
	}

	msg := template.NewVoucher(evt.Code, evt.Platform, evt.Discount, evt.PostID)
	if !evt.ExpiresAt.IsZero() {
		msg.Data["expiresAt"] = evt.ExpiresAt.UTC().Format(time.RFC3339)
	}

	_, err := uc.dispatcher.SendToTopic(ctx, topicRequest(events.TopicVoucherAlerts, msg, "voucher:"+evt.Code))
	return err
}

func remainingPercent(evt events.VoucherExpiring, now time.Time) (int, bool) {
	switch {
	case evt.RemainingPercent != nil:
		return *evt.RemainingPercent, true
	case !evt.StartAt.IsZero() && !evt.ExpiresAt.IsZero():
		return voucher.RemainingPercent(evt.StartAt, evt.ExpiresAt, now), true
	default:
		return 0, false
	}
}

func (uc *intakeUseCase) voucherExpiring(ctx context.Context, body []byte) error {
	var evt events.VoucherExpiring
	if err := decode(body, &evt); err != nil {
		return err
	}
	if evt.VoucherID == "" {
		return fmt.Errorf("%w: voucherId is required", ErrInvalidRequest)
	}

	code := evt.Code
	if code == "" {
		code = evt.Title
	}
	msg := template.VoucherExpiring(code, evt.Platform, voucher.HoursRemaining(evt.ExpiresAt, uc.now()), evt.PostID)
	if percent, ok := remainingPercent(evt, uc.now()); ok {
		msg.Data["remainingPercent"] = strconv.Itoa(percent)
		msg.Data["urgency"] = string(voucher.UrgencyFor(percent))
	}

	_, err := uc.dispatcher.SendToTopic(ctx, topicRequest(events.TopicVoucherAlerts, msg, "expiring:"+evt.VoucherID))
	return err
}

func (uc *intakeUseCase) pointsEarned(ctx context.Context, body []byte) error {
	var evt events.PointsEarned
	if err := decode(body, &evt); err != nil {
		return err
	}
	if evt.UserID == "" || evt.Points <= 0 {
		return fmt.Errorf("%w: userId and positive points are required", ErrInvalidRequest)
	}

	key := evt.EventID
	if key == "" {
		key = fmt.Sprintf("%d:%d", evt.EarnedAt.UnixMilli(), evt.Points)
	}
	reason := evt.Reason
	if evt.IsPending {
		reason += " (pending approval)"
	}

	_, err := uc.dispatcher.SendPointsEarned(ctx, evt.UserID, evt.Points, reason, key)
	return err
}

func topicRequest(topic string, msg template.Message, key string) TopicRequest {
	return TopicRequest{
		Topic:          topic,
		Type:           msg.Type,
		Title:          msg.Title,
		Body:           msg.Body,
		Data:           msg.Data,
		IdempotencyKey: key,
	}
}
