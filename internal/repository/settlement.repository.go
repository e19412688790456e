package repository

import (
	"context"
	"errors"

	"github.com/greenwaste/collection-gateway/internal/model"
	"github.com/greenwaste/collection-gateway/pkg/pg"
	"gorm.io/gorm"
)

var (
	// ErrNotFound is returned when a requested row does not exist.
	ErrNotFound = errors.New("record not found")
)

type SettlementRepository struct {
	*pg.DB
}

func NewSettlementRepository(db *pg.DB) *SettlementRepository {
	return &SettlementRepository{
		db,
	}
}

func (r *SettlementRepository) Create(ctx context.Context, s *model.Settlement) (*model.Settlement, error) {
	entity := toSettlementEntity(s)

	if err := r.Write(ctx).WithContext(ctx).Create(entity).Error; err != nil {
		return nil, err
	}

	return toSettlementModel(entity), nil
}

func (r *SettlementRepository) GetByID(ctx context.Context, id int64) (*model.Settlement, error) {
	var entity SettlementEntity
	err := r.Read(ctx).WithContext(ctx).Where("id = ?", id).First(&entity).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return toSettlementModel(&entity), nil
}

func (r *SettlementRepository) Update(ctx context.Context, id int64, p model.SettlementUpdateRequest) (*model.Settlement, error) {
	updates := map[string]interface{}{}
	if p.Name != nil {
		updates["name"] = *p.Name
	}
	if p.ContactName != nil {
		updates["contact_name"] = *p.ContactName
	}
	if p.ContactPhone != nil {
		updates["contact_phone"] = *p.ContactPhone
	}

	if len(updates) > 0 {
		result := r.Write(ctx).WithContext(ctx).Model(&SettlementEntity{}).Where("id = ?", id).Updates(updates)
		if result.Error != nil {
			return nil, result.Error
		}
		if result.RowsAffected == 0 {
			return nil, ErrNotFound
		}
	}

	return r.GetByID(ctx, id)
}

func (r *SettlementRepository) Delete(ctx context.Context, id int64) error {
	result := r.Write(ctx).WithContext(ctx).Where("id = ?", id).Delete(&SettlementEntity{})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *SettlementRepository) List(ctx context.Context, f model.SettlementFilter) ([]*model.Settlement, int64, error) {
	q := r.Read(ctx).WithContext(ctx).Model(&SettlementEntity{})

	if f.Name != nil && *f.Name != "" {
		q = q.Where("name LIKE ?", "%"+*f.Name+"%")
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

	var entities []*SettlementEntity
	if err := q.Order(order).Limit(limit).Offset(offset).Find(&entities).Error; err != nil {
		return nil, 0, err
	}

	return toSettlementModels(entities), total, nil
}
