package repository

import (
	"context"
	"errors"
	"time"

	"github.com/greenwaste/collection-gateway/internal/model"
	"github.com/greenwaste/collection-gateway/pkg/pg"
	"gorm.io/gorm"
)

type NotificationRepository struct {
	*pg.DB
}

func NewNotificationRepository(db *pg.DB) *NotificationRepository {
	return &NotificationRepository{
		db,
	}
}

func (r *NotificationRepository) Create(ctx context.Context, n *model.Notification) (*model.Notification, error) {
	entity := toNotificationEntity(n)

	if err := r.Write(ctx).WithContext(ctx).Create(entity).Error; err != nil {
		return nil, err
	}

	return toNotificationModel(entity), nil
}

func (r *NotificationRepository) GetByID(ctx context.Context, id int64) (*model.Notification, error) {
	var entity NotificationEntity
	err := r.Read(ctx).WithContext(ctx).Where("id = ?", id).First(&entity).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return toNotificationModel(&entity), nil
}

// MarkSent records a successful provider hand-off.
func (r *NotificationRepository) MarkSent(ctx context.Context, id int64, providerMessageID string) error {
	now := time.Now()
	result := r.Write(ctx).WithContext(ctx).Model(&NotificationEntity{}).
		Where("id = ?", id).
		Updates(map[string]interface{}{
			"status":              string(model.NotificationStatusSent),
			"provider_message_id": providerMessageID,
			"sent_at":             &now,
		})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *NotificationRepository) MarkFailed(ctx context.Context, id int64) error {
	result := r.Write(ctx).WithContext(ctx).Model(&NotificationEntity{}).
		Where("id = ?", id).
		Update("status", string(model.NotificationStatusFailed))
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

// MarkDelivered handles the provider delivery webhook: the provider only
// knows its own message id, so the lookup goes through that.
func (r *NotificationRepository) MarkDelivered(ctx context.Context, providerMessageID string, deliveredAt time.Time) (*model.Notification, error) {
	var entity NotificationEntity
	err := r.Write(ctx).WithContext(ctx).
		Where("provider_message_id = ?", providerMessageID).
		First(&entity).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}

	result := r.Write(ctx).WithContext(ctx).Model(&NotificationEntity{}).
		Where("id = ?", entity.ID).
		Updates(map[string]interface{}{
			"status":       string(model.NotificationStatusDelivered),
			"delivered_at": &deliveredAt,
		})
	if result.Error != nil {
		return nil, result.Error
	}

	return r.GetByID(ctx, entity.ID)
}

// List returns notifications visible to the caller. Scope is resolved through
// the owning report and applied ahead of all other filters.
func (r *NotificationRepository) List(ctx context.Context, scope model.AccessScope, f model.NotificationFilter) ([]*model.Notification, int64, error) {
	q := r.Read(ctx).WithContext(ctx).Model(&NotificationEntity{})
	if scope.Role != model.RoleAdmin {
		q = q.Joins("JOIN reports ON reports.id = notifications.report_id")
		q = scopeReports(q, scope, "reports.")
	}

	if f.ReportID != nil {
		q = q.Where("notifications.report_id = ?", *f.ReportID)
	}
	if len(f.Statuses) > 0 {
		statuses := make([]string, len(f.Statuses))
		for i, s := range f.Statuses {
			statuses[i] = string(s)
		}
		q = q.Where("notifications.status IN ?", statuses)
	}
	if f.From != nil {
		q = q.Where("notifications.created_at >= ?", *f.From)
	}
	if f.To != nil {
		q = q.Where("notifications.created_at < ?", *f.To)
	}

	var total int64
	if err := q.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	order := "notifications.created_at"
	if f.Desc {
		order += " DESC"
	} else {
		order += " ASC"
	}

	limit := f.Limit
	if limit <= 0 || limit > 1000 {
		limit = 50
	}
	offset := f.Offset
	if offset < 0 {
		offset = 0
	}

	var entities []*NotificationEntity
	if err := q.Order(order).Limit(limit).Offset(offset).Find(&entities).Error; err != nil {
		return nil, 0, err
	}

	return toNotificationModels(entities), total, nil
}
