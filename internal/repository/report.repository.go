package repository

import (
	"context"
	"errors"

	"github.com/greenwaste/collection-gateway/internal/model"
	"github.com/greenwaste/collection-gateway/pkg/pg"
	"gorm.io/gorm"
)

type ReportRepository struct {
	*pg.DB
}

func NewReportRepository(db *pg.DB) *ReportRepository {
	return &ReportRepository{
		db,
	}
}

func (r *ReportRepository) Create(ctx context.Context, rep *model.Report) (*model.Report, error) {
	entity := toReportEntity(rep)

	if err := r.Write(ctx).WithContext(ctx).Create(entity).Error; err != nil {
		return nil, err
	}

	return toReportModel(entity), nil
}

func (r *ReportRepository) GetByID(ctx context.Context, scope model.AccessScope, id int64) (*model.Report, error) {
	q := scopeReports(r.Read(ctx).WithContext(ctx), scope, "")

	var entity ReportEntity
	err := q.Where("id = ?", id).First(&entity).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return toReportModel(&entity), nil
}

// List returns reports visible to the caller. The access scope is applied
// before any filter so no filter combination can widen visibility.
func (r *ReportRepository) List(ctx context.Context, scope model.AccessScope, f model.ReportFilter) ([]*model.Report, int64, error) {
	q := scopeReports(r.Read(ctx).WithContext(ctx).Model(&ReportEntity{}), scope, "")

	if f.SettlementID != nil {
		q = q.Where("settlement_id = ?", *f.SettlementID)
	}
	if f.DriverID != nil {
		q = q.Where("driver_id = ?", *f.DriverID)
	}
	if f.ContainerTypeID != nil {
		q = q.Where("container_type_id = ?", *f.ContainerTypeID)
	}
	if f.From != nil {
		q = q.Where("created_at >= ?", *f.From)
	}
	if f.To != nil {
		q = q.Where("created_at < ?", *f.To)
	}

	var total int64
	if err := q.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	order := "created_at"
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

	var entities []*ReportEntity
	if err := q.Order(order).Limit(limit).Offset(offset).Find(&entities).Error; err != nil {
		return nil, 0, err
	}

	return toReportModels(entities), total, nil
}

func (r *ReportRepository) Update(ctx context.Context, id int64, p model.ReportUpdateRequest) (*model.Report, error) {
	updates := map[string]interface{}{}
	if p.Notes != nil {
		updates["notes"] = *p.Notes
	}
	if p.ImageURL != nil {
		updates["image_url"] = *p.ImageURL
	}
	if p.ImagePath != nil {
		updates["image_path"] = *p.ImagePath
	}

	if len(updates) > 0 {
		result := r.Write(ctx).WithContext(ctx).Model(&ReportEntity{}).Where("id = ?", id).Updates(updates)
		if result.Error != nil {
			return nil, result.Error
		}
		if result.RowsAffected == 0 {
			return nil, ErrNotFound
		}
	}

	return r.GetByID(ctx, model.AdminScope(), id)
}

func (r *ReportRepository) MarkNotificationSent(ctx context.Context, id int64) error {
	result := r.Write(ctx).WithContext(ctx).Model(&ReportEntity{}).
		Where("id = ?", id).
		Update("notification_sent", true)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}
