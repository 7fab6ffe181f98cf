package usecase

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"ma-siu/services/reward/internal/repo/persistent"

	"github.com/stretchr/testify/assert"
)

func TestWithRetry(t *testing.T) {
	conflict := fmt.Errorf("serialization failure: %w", persistent.ErrConflict)
	boom := errors.New("connection refused")

	tests := []struct {
		name      string
		failures  []error
		wantCalls int
		wantErr   error
	}{
		{name: "first try succeeds", wantCalls: 1},
		{name: "conflict then success", failures: []error{conflict, conflict}, wantCalls: 3},
		{name: "conflicts exhaust attempts", failures: []error{conflict, conflict, conflict, conflict}, wantCalls: maxAttempts, wantErr: ErrContention},
		{name: "other errors are not retried", failures: []error{boom, conflict}, wantCalls: 1, wantErr: boom},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			calls := 0
			err := withRetry(context.Background(), func() error {
				calls++
				if calls <= len(tt.failures) {
					return tt.failures[calls-1]
				}
				return nil
			})

			assert.Equal(t, tt.wantCalls, calls)
			if tt.wantErr == nil {
				assert.NoError(t, err)
			} else {
				assert.ErrorIs(t, err, tt.wantErr)
			}
		})
	}
}

func TestWithRetry_StopsOnCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	calls := 0

	err := withRetry(ctx, func() error {
		calls++
		cancel()
		return persistent.ErrConflict
	})

	assert.Equal(t, 1, calls)
	assert.ErrorIs(t, err, context.Canceled)
}
