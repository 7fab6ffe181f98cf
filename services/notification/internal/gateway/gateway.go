// Package gateway adapts the external push service behind a narrow interface.
package gateway

import (
	"context"
	"errors"
)

var (
	// ErrTransport is a retryable failure: network error, throttling or a
	// push service outage.
	ErrTransport = errors.New("push transport failure")
	// ErrSubscriptionExpired means the device token is gone for good.
	ErrSubscriptionExpired = errors.New("push subscription expired")
	ErrInvalidToken        = errors.New("invalid device token")
)

type Message struct {
	Title    string            `json:"title"`
	Body     string            `json:"body"`
	ImageURL string            `json:"image,omitempty"`
	Data     map[string]string `json:"data,omitempty"`
}

type Result struct {
	Token     string
	MessageID string
	Err       error
}

type MulticastResult struct {
	SuccessCount int
	FailureCount int
	Results      []Result
}

// Expired lists tokens the push service reported as permanently gone.
func (r *MulticastResult) Expired() []string {
	var tokens []string
	for _, res := range r.Results {
		if errors.Is(res.Err, ErrSubscriptionExpired) {
			tokens = append(tokens, res.Token)
		}
	}
	return tokens
}

// Gateway errors wrapping ErrTransport are retryable; any other error is a
// permanent rejection of that delivery.
type Gateway interface {
	SendSingle(ctx context.Context, token string, msg Message) (messageID string, err error)
	SendMulticast(ctx context.Context, tokens []string, msg Message) (*MulticastResult, error)
	SendToTopic(ctx context.Context, topic string, msg Message) (messageID string, err error)
}

// DeviceStore resolves topic subscribers and forgets expired tokens.
type DeviceStore interface {
	TokensForTopic(ctx context.Context, topic string) ([]string, error)
	DeleteTokens(ctx context.Context, tokens []string) (int64, error)
}

func IsTransport(err error) bool {
	return errors.Is(err, ErrTransport)
}
