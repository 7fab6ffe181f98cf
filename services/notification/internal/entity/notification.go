package entity

import "time"

type NotificationType string

const (
	NotificationTypeNewVoucher      NotificationType = "NewVoucher"
	NotificationTypeVoucherExpiring NotificationType = "VoucherExpiring"
	NotificationTypeNewPost         NotificationType = "NewPost"
	NotificationTypePointsEarned    NotificationType = "PointsEarned"
	NotificationTypeSystem          NotificationType = "System"
)

func (t NotificationType) Valid() bool {
	switch t {
	case NotificationTypeNewVoucher, NotificationTypeVoucherExpiring, NotificationTypeNewPost,
		NotificationTypePointsEarned, NotificationTypeSystem:
		return true
	}
	return false
}

type NotificationStatus string

const (
	NotificationStatusPending NotificationStatus = "Pending"
	NotificationStatusSent    NotificationStatus = "Sent"
	NotificationStatusFailed  NotificationStatus = "Failed"
)

type Notification struct {
	ID           string             `json:"id"`
	UserID       string             `json:"userId"`
	Type         NotificationType   `json:"type"`
	Title        string             `json:"title"`
	Body         string             `json:"body"`
	ImageURL     string             `json:"imageUrl,omitempty"`
	Data         map[string]string  `json:"data"`
	Status       NotificationStatus `json:"status"`
	CreatedAt    time.Time          `json:"createdAt"`
	SentAt       *time.Time         `json:"sentAt,omitempty"`
	ReadAt       *time.Time         `json:"readAt,omitempty"`
	DeliveryRef  string             `json:"deliveryRef,omitempty"`
	ErrorMessage string             `json:"errorMessage,omitempty"`
}

func NewNotification(userID string, typ NotificationType, title, body, imageURL string, data map[string]string, now time.Time) *Notification {
	if data == nil {
		data = map[string]string{}
	}
	return &Notification{
		UserID:    userID,
		Type:      typ,
		Title:     title,
		Body:      body,
		ImageURL:  imageURL,
		Data:      data,
		Status:    NotificationStatusPending,
		CreatedAt: now,
	}
}

func (n *Notification) MarkSent(deliveryRef string, now time.Time) {
	n.Status = NotificationStatusSent
	n.SentAt = &now
	n.DeliveryRef = deliveryRef
}

func (n *Notification) MarkFailed(errorMessage string) {
	n.Status = NotificationStatusFailed
	n.ErrorMessage = errorMessage
}

func (n *Notification) Read() bool {
	return n.ReadAt != nil
}
