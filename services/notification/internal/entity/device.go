package entity

import "time"

const PlatformWeb = "web"

// DeviceToken is a push endpoint registered by a user. For web push the
// token is the JSON-serialized browser subscription.
type DeviceToken struct {
	UserID    string    `json:"userId"`
	Token     string    `json:"token"`
	Platform  string    `json:"platform"`
	Topics    []string  `json:"topics"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}
