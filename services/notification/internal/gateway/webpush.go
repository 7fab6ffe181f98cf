package gateway

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	"ma-siu/pkg/config"
	"ma-siu/pkg/logger"

	webpush "github.com/SherClockHolmes/webpush-go"
	"golang.org/x/sync/errgroup"
)

const (
	defaultTTL         = 86400
	defaultConcurrency = 8
)

type sendFunc func(ctx context.Context, payload []byte, sub *webpush.Subscription, opts *webpush.Options) (*http.Response, error)

type WebPush struct {
	publicKey   string
	privateKey  string
	subscriber  string
	devices     DeviceStore
	concurrency int
	send        sendFunc
	logger      *logger.Logger
}

func NewWebPush(cfg *config.Config, devices DeviceStore, log *logger.Logger) *WebPush {
	return &WebPush{
		publicKey:   cfg.VAPIDPublicKey,
		privateKey:  cfg.VAPIDPrivateKey,
		subscriber:  cfg.VAPIDSubscriber,
		devices:     devices,
		concurrency: defaultConcurrency,
		send:        webpush.SendNotificationWithContext,
		logger:      log.With("component", "webpush"),
	}
}

func (w *WebPush) VAPIDPublicKey() string {
	return w.publicKey
}

// ParseSubscription decodes a device token into a browser push subscription.
func ParseSubscription(token string) (*webpush.Subscription, error) {
	var sub webpush.Subscription
	if err := json.Unmarshal([]byte(token), &sub); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}
	if sub.Endpoint == "" || sub.Keys.P256dh == "" || sub.Keys.Auth == "" {
		return nil, fmt.Errorf("%w: endpoint and keys are required", ErrInvalidToken)
	}
	return &sub, nil
}

func (w *WebPush) SendSingle(ctx context.Context, token string, msg Message) (string, error) {
	sub, err := ParseSubscription(token)
	if err != nil {
		return "", err
	}

	payload, err := json.Marshal(msg)
	if err != nil {
		return "", fmt.Errorf("failed to marshal push payload: %w", err)
	}

	resp, err := w.send(ctx, payload, sub, &webpush.Options{
		Subscriber:      w.subscriber,
		VAPIDPublicKey:  w.publicKey,
		VAPIDPrivateKey: w.privateKey,
		TTL:             defaultTTL,
		Urgency:         webpush.UrgencyHigh,
	})
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrTransport, err)
	}
	defer resp.Body.Close()

	return classify(resp)
}

func classify(resp *http.Response) (string, error) {
	code := resp.StatusCode
	switch {
	case code >= 200 && code < 300:
		return resp.Header.Get("Location"), nil
	case code == http.StatusNotFound || code == http.StatusGone:
		return "", ErrSubscriptionExpired
	case code == http.StatusTooManyRequests || code >= 500:
		return "", fmt.Errorf("%w: push service returned %d", ErrTransport, code)
	default:
		return "", fmt.Errorf("push service rejected message: %d", code)
	}
}

// SendMulticast delivers to every token with bounded concurrency. The error
// is non-nil only when no token succeeded and every failure was retryable.
func (w *WebPush) SendMulticast(ctx context.Context, tokens []string, msg Message) (*MulticastResult, error) {
	result := &MulticastResult{Results: make([]Result, len(tokens))}

	var g errgroup.Group
	g.SetLimit(w.concurrency)
	for i, token := range tokens {
		g.Go(func() error {
			id, err := w.SendSingle(ctx, token, msg)
			result.Results[i] = Result{Token: token, MessageID: id, Err: err}
			return nil
		})
	}
	_ = g.Wait()

	transportFailures := 0
	for _, res := range result.Results {
		switch {
		case res.Err == nil:
			result.SuccessCount++
		case IsTransport(res.Err):
			result.FailureCount++
			transportFailures++
		default:
			result.FailureCount++
		}
	}

	if len(tokens) > 0 && transportFailures == len(tokens) {
		return result, fmt.Errorf("%w: all %d deliveries failed", ErrTransport, len(tokens))
	}
	return result, nil
}

// SendToTopic fans out to every device subscribed to the topic and prunes
// subscriptions the push service reports as expired.
func (w *WebPush) SendToTopic(ctx context.Context, topic string, msg Message) (string, error) {
	tokens, err := w.devices.TokensForTopic(ctx, topic)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrTransport, err)
	}
	if len(tokens) == 0 {
		return fmt.Sprintf("topic:%s:0/0", topic), nil
	}

	result, err := w.SendMulticast(ctx, tokens, msg)
	if err != nil {
		return "", err
	}

	if expired := result.Expired(); len(expired) > 0 {
		if removed, err := w.devices.DeleteTokens(ctx, expired); err != nil {
			w.logger.Warn("Failed to prune %d expired subscriptions: %v", len(expired), err)
		} else {
			w.logger.Info("Pruned %d expired subscriptions from topic %s", removed, topic)
		}
	}

	return fmt.Sprintf("topic:%s:%d/%d", topic, result.SuccessCount, len(tokens)), nil
}
