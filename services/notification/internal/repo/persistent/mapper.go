package persistent

import (
	"ma-siu/services/notification/internal/entity"
	"ma-siu/services/notification/internal/model"
)

func ToNotificationEntity(m *model.NotificationModel) *entity.Notification {
	if m == nil {
		return nil
	}
	data := m.Data
	if data == nil {
		data = map[string]string{}
	}
	return &entity.Notification{
		ID:           m.ID,
		UserID:       m.UserID,
		Type:         entity.NotificationType(m.Type),
		Title:        m.Title,
		Body:         m.Body,
		ImageURL:     m.ImageURL,
		Data:         data,
		Status:       entity.NotificationStatus(m.Status),
		CreatedAt:    m.CreatedAt,
		SentAt:       m.SentAt,
		ReadAt:       m.ReadAt,
		DeliveryRef:  m.DeliveryRef,
		ErrorMessage: m.ErrorMessage,
	}
}

func ToNotificationModel(e *entity.Notification) *model.NotificationModel {
	if e == nil {
		return nil
	}
	return &model.NotificationModel{
		ID:           e.ID,
		UserID:       e.UserID,
		Type:         string(e.Type),
		Title:        e.Title,
		Body:         e.Body,
		ImageURL:     e.ImageURL,
		Data:         e.Data,
		Status:       string(e.Status),
		CreatedAt:    e.CreatedAt,
		SentAt:       e.SentAt,
		ReadAt:       e.ReadAt,
		DeliveryRef:  e.DeliveryRef,
		ErrorMessage: e.ErrorMessage,
	}
}

func ToDeviceEntity(m *model.DeviceModel) *entity.DeviceToken {
	if m == nil {
		return nil
	}
	return &entity.DeviceToken{
		UserID:    m.UserID,
		Token:     m.Token,
		Platform:  m.Platform,
		Topics:    m.Topics,
		CreatedAt: m.CreatedAt,
		UpdatedAt: m.UpdatedAt,
	}
}
