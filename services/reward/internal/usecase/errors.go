package usecase

import "errors"

var (
	ErrInvalidAmount = errors.New("amount must be positive")
	ErrInvalidReward = errors.New("invalid reward")
	ErrNotFound      = errors.New("not found")
	ErrInvalidState  = errors.New("invalid state")
	// ErrContention means bounded retries on storage conflicts ran out.
	ErrContention = errors.New("too much contention, try again")
	// ErrCompensationFailed means a refund after a lost inventory race did
	// not go through and the accounts need manual reconciliation.
	ErrCompensationFailed = errors.New("compensation failed")
)
