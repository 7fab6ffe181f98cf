package entity

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestNotificationLifecycle(t *testing.T) {
	now := time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)
	n := NewNotification("user-1", NotificationTypeSystem, "Hello", "Body", "", nil, now)

	assert.Equal(t, NotificationStatusPending, n.Status)
	assert.NotNil(t, n.Data)
	assert.Nil(t, n.SentAt)
	assert.False(t, n.Read())

	later := now.Add(time.Second)
	n.MarkSent("msg-1", later)
	assert.Equal(t, NotificationStatusSent, n.Status)
	assert.Equal(t, "msg-1", n.DeliveryRef)
	assert.Equal(t, later, *n.SentAt)

	failed := NewNotification("user-1", NotificationTypeSystem, "Hello", "Body", "", nil, now)
	failed.MarkFailed("subscription expired")
	assert.Equal(t, NotificationStatusFailed, failed.Status)
	assert.Equal(t, "subscription expired", failed.ErrorMessage)
	assert.Nil(t, failed.SentAt)
}

func TestNotificationTypeValid(t *testing.T) {
	assert.True(t, NotificationTypePointsEarned.Valid())
	assert.True(t, NotificationTypeSystem.Valid())
	assert.False(t, NotificationType("Like").Valid())
	assert.False(t, NotificationType("").Valid())
}
