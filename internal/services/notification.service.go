package services

import (
	"context"
	"errors"
	"time"

	"github.com/greenwaste/collection-gateway/internal/model"
	"github.com/greenwaste/collection-gateway/internal/repository"
	"github.com/greenwaste/collection-gateway/pkg/logger"
)

type NotificationRepository interface {
	GetByID(ctx context.Context, id int64) (*model.Notification, error)
	MarkDelivered(ctx context.Context, providerMessageID string, deliveredAt time.Time) (*model.Notification, error)
	List(ctx context.Context, scope model.AccessScope, f model.NotificationFilter) ([]*model.Notification, int64, error)
}

// NotificationService serves notification reads and the provider delivery
// webhook. Sending is the dispatcher's job, not this service's.
type NotificationService struct {
	notificationRepo NotificationRepository
}

func NewNotificationService(notificationRepo NotificationRepository) *NotificationService {
	return &NotificationService{notificationRepo: notificationRepo}
}

func (s *NotificationService) Get(ctx context.Context, id int64) (*model.Notification, error) {
	n, err := s.notificationRepo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return n, nil
}

func (s *NotificationService) List(ctx context.Context, scope model.AccessScope, f model.NotificationFilter) ([]*model.Notification, int64, error) {
	if err := scope.Validate(); err != nil {
		return nil, 0, err
	}
	return s.notificationRepo.List(ctx, scope, f)
}

// ConfirmDelivery handles the provider's delivery callback. Unknown provider
// message ids are logged and dropped: callbacks can outlive their
// notifications and the provider retries on non-2xx responses.
func (s *NotificationService) ConfirmDelivery(ctx context.Context, providerMessageID string, deliveredAt time.Time) (*model.Notification, error) {
	if providerMessageID == "" {
		return nil, errors.New("provider message id is required")
	}
	if deliveredAt.IsZero() {
		deliveredAt = time.Now()
	}

	n, err := s.notificationRepo.MarkDelivered(ctx, providerMessageID, deliveredAt)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			logger.Warn("notification: delivery callback for unknown message",
				"provider_message_id", providerMessageID)
			return nil, ErrNotFound
		}
		return nil, err
	}
	return n, nil
}
