package repository

import (
	"context"
	"errors"

	"github.com/greenwaste/collection-gateway/internal/model"
	"github.com/greenwaste/collection-gateway/pkg/pg"
	"gorm.io/gorm"
)

type ContainerTypeRepository struct {
	*pg.DB
}

func NewContainerTypeRepository(db *pg.DB) *ContainerTypeRepository {
	return &ContainerTypeRepository{
		db,
	}
}

func (r *ContainerTypeRepository) Create(ctx context.Context, ct *model.ContainerType) (*model.ContainerType, error) {
	entity := toContainerTypeEntity(ct)

	if err := r.Write(ctx).WithContext(ctx).Create(entity).Error; err != nil {
		return nil, err
	}

	return toContainerTypeModel(entity), nil
}

func (r *ContainerTypeRepository) GetByID(ctx context.Context, id int64) (*model.ContainerType, error) {
	var entity ContainerTypeEntity
	err := r.Read(ctx).WithContext(ctx).Where("id = ?", id).First(&entity).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return toContainerTypeModel(&entity), nil
}

func (r *ContainerTypeRepository) Update(ctx context.Context, id int64, p model.ContainerTypeUpdateRequest) (*model.ContainerType, error) {
	updates := map[string]interface{}{}
	if p.Name != nil {
		updates["name"] = *p.Name
	}
	if p.Size != nil {
		updates["size"] = *p.Size
	}
	if p.Unit != nil {
		updates["unit"] = *p.Unit
	}

	if len(updates) > 0 {
		result := r.Write(ctx).WithContext(ctx).Model(&ContainerTypeEntity{}).Where("id = ?", id).Updates(updates)
		if result.Error != nil {
			return nil, result.Error
		}
		if result.RowsAffected == 0 {
			return nil, ErrNotFound
		}
	}

	return r.GetByID(ctx, id)
}

func (r *ContainerTypeRepository) Delete(ctx context.Context, id int64) error {
	result := r.Write(ctx).WithContext(ctx).Where("id = ?", id).Delete(&ContainerTypeEntity{})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *ContainerTypeRepository) List(ctx context.Context, limit, offset int) ([]*model.ContainerType, int64, error) {
	q := r.Read(ctx).WithContext(ctx).Model(&ContainerTypeEntity{})

	var total int64
	if err := q.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	if limit <= 0 || limit > 1000 {
		limit = 50
	}
	if offset < 0 {
		offset = 0
	}

	var entities []*ContainerTypeEntity
	if err := q.Order("name ASC").Limit(limit).Offset(offset).Find(&entities).Error; err != nil {
		return nil, 0, err
	}

	return toContainerTypeModels(entities), total, nil
}
