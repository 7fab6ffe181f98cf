// Package events holds the broker message contracts shared by the services.
package events

import (
	"time"

	"github.com/google/uuid"
)

// Routing keys on the topic exchange.
const (
	RoutingPostPublished   = "post.published"
	RoutingVoucherCreated  = "voucher.created"
	RoutingVoucherExpiring = "voucher.expiring"
	RoutingPointsEarned    = "points.earned"
)

// Broadcast topics used by the push gateway.
const (
	TopicNewPosts      = "new-posts"
	TopicVoucherAlerts = "voucher-alerts"
)

type PostPublished struct {
	EventID      string    `json:"eventId"`
	PostID       string    `json:"postId"`
	AuthorID     string    `json:"authorId"`
	AuthorName   string    `json:"authorName,omitempty"`
	Title        string    `json:"title"`
	AffiliateURL string    `json:"affiliateUrl,omitempty"`
	PublishedAt  time.Time `json:"publishedAt"`
}

type VoucherCreated struct {
	EventID   string    `json:"eventId"`
	VoucherID string    `json:"voucherId"`
	Code      string    `json:"code"`
	Platform  string    `json:"platform"`
	StartAt   time.Time `json:"startAt,omitempty"`
	ExpiresAt time.Time `json:"expiresAt"`
	Discount  string    `json:"discount,omitempty"`
	PostID    string    `json:"postId,omitempty"`
}

// VoucherExpiring carries either RemainingPercent or StartAt; consumers
// derive the percent from StartAt and ExpiresAt when it is absent.
type VoucherExpiring struct {
	EventID          string    `json:"eventId"`
	VoucherID        string    `json:"voucherId"`
	Code             string    `json:"code"`
	Platform         string    `json:"platform"`
	PostID           string    `json:"postId,omitempty"`
	Title            string    `json:"title"`
	RemainingPercent *int      `json:"remainingPercent,omitempty"`
	StartAt          time.Time `json:"startAt,omitempty"`
	ExpiresAt        time.Time `json:"expiresAt"`
}

type PointsEarned struct {
	EventID   string    `json:"eventId"`
	UserID    string    `json:"userId"`
	Points    int       `json:"points"`
	Reason    string    `json:"reason"`
	IsPending bool      `json:"isPending"`
	EarnedAt  time.Time `json:"earnedAt"`
}

func NewPointsEarned(userID string, points int, reason string, pending bool, at time.Time) PointsEarned {
	return PointsEarned{
		EventID:   uuid.New().String(),
		UserID:    userID,
		Points:    points,
		Reason:    reason,
		IsPending: pending,
		EarnedAt:  at,
	}
}
