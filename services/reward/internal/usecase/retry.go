package usecase

import (
	"context"
	"errors"
	"fmt"
	"time"

	"ma-siu/services/reward/internal/repo/persistent"

	"github.com/sethvargo/go-retry"
)

const (
	maxAttempts  = 3
	retryBackoff = 20 * time.Millisecond
)

// withRetry re-runs fn on storage conflicts with exponential backoff. Any
// other error is returned as is on the first attempt.
func withRetry(ctx context.Context, fn func() error) error {
	backoff := retry.WithMaxRetries(maxAttempts-1, retry.NewExponential(retryBackoff))
	err := retry.Do(ctx, backoff, func(ctx context.Context) error {
		err := fn()
		if errors.Is(err, persistent.ErrConflict) {
			return retry.RetryableError(err)
		}
		return err
	})
	if errors.Is(err, persistent.ErrConflict) {
		return fmt.Errorf("%w: %v", ErrContention, err)
	}
	return err
}
