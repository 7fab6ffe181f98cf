package usecase

import "errors"

var (
	ErrInvalidRequest = errors.New("invalid notification request")
	ErrNotFound       = errors.New("not found")
	// ErrDeliveryFailed is a retryable push transport failure. The dedup
	// claim has been released so a redelivered event can try again.
	ErrDeliveryFailed = errors.New("notification delivery failed")
)
