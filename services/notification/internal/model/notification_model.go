package model

import "time"

const (
	NotificationsCollection = "notifications"
	DevicesCollection       = "device_tokens"
)

type NotificationModel struct {
	ID           string            `bson:"_id"`
	UserID       string            `bson:"user_id"`
	Type         string            `bson:"type"`
	Title        string            `bson:"title"`
	Body         string            `bson:"body"`
	ImageURL     string            `bson:"image_url,omitempty"`
	Data         map[string]string `bson:"data,omitempty"`
	Status       string            `bson:"status"`
	CreatedAt    time.Time         `bson:"created_at"`
	SentAt       *time.Time        `bson:"sent_at,omitempty"`
	ReadAt       *time.Time        `bson:"read_at,omitempty"`
	DeliveryRef  string            `bson:"delivery_ref,omitempty"`
	ErrorMessage string            `bson:"error_message,omitempty"`
}

type DeviceModel struct {
	Token     string    `bson:"_id"`
	UserID    string    `bson:"user_id"`
	Platform  string    `bson:"platform"`
	Topics    []string  `bson:"topics"`
	CreatedAt time.Time `bson:"created_at"`
	UpdatedAt time.Time `bson:"updated_at"`
}
