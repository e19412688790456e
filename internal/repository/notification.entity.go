package repository

import (
	"time"

	"github.com/greenwaste/collection-gateway/internal/model"
)

type NotificationEntity struct {
	ID                int64         `db:"id"                  gorm:"primaryKey;autoIncrement;column:id"`
	ReportID          int64         `db:"report_id"           gorm:"column:report_id;not null;index"`
	Report            *ReportEntity `gorm:"foreignKey:ReportID;references:ID;constraint:OnDelete:CASCADE"`
	Channel           string        `db:"channel"             gorm:"column:channel;not null;default:whatsapp"`
	Status            string        `db:"status"              gorm:"column:status;not null;index"`
	Destination       string        `db:"destination"         gorm:"column:destination;not null"`
	Message           string        `db:"message"             gorm:"column:message;not null"`
	ImageURL          string        `db:"image_url"           gorm:"column:image_url"`
	ProviderMessageID string        `db:"provider_message_id" gorm:"column:provider_message_id;index"`
	SentAt            *time.Time    `db:"sent_at"             gorm:"column:sent_at"`
	DeliveredAt       *time.Time    `db:"delivered_at"        gorm:"column:delivered_at"`
	CreatedAt         time.Time     `db:"created_at"          gorm:"column:created_at;autoCreateTime"`
	UpdatedAt         time.Time     `db:"updated_at"          gorm:"column:updated_at;autoUpdateTime"`
}

func (NotificationEntity) TableName() string {
	return "notifications"
}

func toNotificationEntity(m *model.Notification) *NotificationEntity {
	if m == nil {
		return nil
	}
	return &NotificationEntity{
		ID:                m.ID,
		ReportID:          m.ReportID,
		Channel:           string(m.Channel),
		Status:            string(m.Status),
		Destination:       m.Destination,
		Message:           m.Message,
		ImageURL:          m.ImageURL,
		ProviderMessageID: m.ProviderMessageID,
		SentAt:            m.SentAt,
		DeliveredAt:       m.DeliveredAt,
		CreatedAt:         m.CreatedAt,
		UpdatedAt:         m.UpdatedAt,
	}
}

func toNotificationModel(e *NotificationEntity) *model.Notification {
	if e == nil {
		return nil
	}
	return &model.Notification{
		ID:                e.ID,
		ReportID:          e.ReportID,
		Channel:           model.NotificationChannel(e.Channel),
		Status:            model.NotificationStatus(e.Status),
		Destination:       e.Destination,
		Message:           e.Message,
		ImageURL:          e.ImageURL,
		ProviderMessageID: e.ProviderMessageID,
		SentAt:            e.SentAt,
		DeliveredAt:       e.DeliveredAt,
		CreatedAt:         e.CreatedAt,
		UpdatedAt:         e.UpdatedAt,
	}
}

func toNotificationModels(entities []*NotificationEntity) []*model.Notification {
	if entities == nil {
		return nil
	}
	models := make([]*model.Notification, len(entities))
	for i, e := range entities {
		models[i] = toNotificationModel(e)
	}
	return models
}
