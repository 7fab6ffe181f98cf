// Package voucher computes expiry progress for time-boxed vouchers.
package voucher

import (
	"math"
	"time"
)

type Urgency string

const (
	UrgencyGreen  Urgency = "green"
	UrgencyYellow Urgency = "yellow"
	UrgencyRed    Urgency = "red"
)

// RemainingPercent returns the share of the voucher lifetime still left,
// truncated to an integer in [0, 100].
func RemainingPercent(startAt, expiresAt, now time.Time) int {
	if !now.Before(expiresAt) {
		return 0
	}
	if !now.After(startAt) {
		return 100
	}
	total := expiresAt.Sub(startAt).Milliseconds()
	if total <= 0 {
		return 0
	}
	remaining := expiresAt.Sub(now).Milliseconds()
	return int(remaining * 100 / total)
}

func UrgencyFor(percent int) Urgency {
	switch {
	case percent >= 50:
		return UrgencyGreen
	case percent >= 20:
		return UrgencyYellow
	default:
		return UrgencyRed
	}
}

// HoursRemaining rounds up, so a voucher with 30 minutes left reports 1.
func HoursRemaining(expiresAt, now time.Time) int {
	d := expiresAt.Sub(now)
	if d <= 0 {
		return 0
	}
	return int(math.Ceil(d.Hours()))
}
