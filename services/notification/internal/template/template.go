// Package template builds the push copy for each notification type.
package template

import (
	"fmt"
	"strconv"

	"ma-siu/services/notification/internal/entity"
)

const (
	maxPostTitle  = 50
	postTitleKeep = 47
)

type Message struct {
	Type  entity.NotificationType
	Title string
	Body  string
	Data  map[string]string
}

func NewVoucher(code, platform, discount, postID string) Message {
	body := "Code: " + code
	if discount != "" {
		body += " - " + discount
	}
	return Message{
		Type:  entity.NotificationTypeNewVoucher,
		Title: fmt.Sprintf("🎁 New voucher from %s!", platform),
		Body:  body,
		Data: map[string]string{
			"type":        string(entity.NotificationTypeNewVoucher),
			"voucherCode": code,
			"platform":    platform,
			"postId":      postID,
		},
	}
}

func VoucherExpiring(code, platform string, hoursRemaining int, postID string) Message {
	return Message{
		Type:  entity.NotificationTypeVoucherExpiring,
		Title: fmt.Sprintf("%s Voucher expiring soon!", urgencyMarker(hoursRemaining)),
		Body:  fmt.Sprintf("Code %s (%s) expires in %d hours!", code, platform, hoursRemaining),
		Data: map[string]string{
			"type":           string(entity.NotificationTypeVoucherExpiring),
			"voucherCode":    code,
			"platform":       platform,
			"hoursRemaining": strconv.Itoa(hoursRemaining),
			"postId":         postID,
		},
	}
}

func NewPost(authorName, postTitle, postID string) Message {
	return Message{
		Type:  entity.NotificationTypeNewPost,
		Title: fmt.Sprintf("📱 %s just posted", authorName),
		Body:  truncate(postTitle),
		Data: map[string]string{
			"type":       string(entity.NotificationTypeNewPost),
			"authorName": authorName,
			"postId":     postID,
		},
	}
}

func PointsEarned(points int, reason string) Message {
	return Message{
		Type:  entity.NotificationTypePointsEarned,
		Title: fmt.Sprintf("🎉 +%d reward points!", points),
		Body:  reason,
		Data: map[string]string{
			"type":   string(entity.NotificationTypePointsEarned),
			"points": strconv.Itoa(points),
		},
	}
}

func System(title, body string) Message {
	return Message{
		Type:  entity.NotificationTypeSystem,
		Title: "📢 " + title,
		Body:  body,
		Data: map[string]string{
			"type": string(entity.NotificationTypeSystem),
		},
	}
}

func urgencyMarker(hoursRemaining int) string {
	switch {
	case hoursRemaining <= 2:
		return "🔴"
	case hoursRemaining <= 6:
		return "🟡"
	default:
		return "🟢"
	}
}

func truncate(title string) string {
	runes := []rune(title)
	if len(runes) <= maxPostTitle {
		return title
	}
	return string(runes[:postTitleKeep]) + "..."
}
