package model

import "time"

type NotificationChannel string

const (
	ChannelWhatsApp NotificationChannel = "whatsapp"
)

// NotificationStatus is the delivery lifecycle of an outbound message:
// PENDING until the provider accepts it, then SENT or FAILED, and DELIVERED
// once the provider webhook confirms receipt.
type NotificationStatus string

const (
	NotificationStatusPending   NotificationStatus = "PENDING"
	NotificationStatusSent      NotificationStatus = "SENT"
	NotificationStatusFailed    NotificationStatus = "FAILED"
	NotificationStatusDelivered NotificationStatus = "DELIVERED"
)

// Notification is an outbound message informing a settlement of a completed
// pickup and its cost.
type Notification struct {
	ID                int64               `json:"id"`
	ReportID          int64               `json:"report_id"`
	Channel           NotificationChannel `json:"channel"`
	Status            NotificationStatus  `json:"status"`
	Destination       string              `json:"destination"`
	Message           string              `json:"message"`
	ImageURL          string              `json:"image_url,omitempty"`
	ProviderMessageID string              `json:"provider_message_id,omitempty"`
	SentAt            *time.Time          `json:"sent_at,omitempty"`
	DeliveredAt       *time.Time          `json:"delivered_at,omitempty"`
	CreatedAt         time.Time           `json:"created_at"`
	UpdatedAt         time.Time           `json:"updated_at"`
}

type NotificationFilter struct {
	ReportID *int64
	Statuses []NotificationStatus
	From     *time.Time
	To       *time.Time
	Limit    int
	Offset   int
	Desc     bool
}
