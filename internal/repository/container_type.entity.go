package repository

import (
	"time"

	"github.com/greenwaste/collection-gateway/internal/model"
)

type ContainerTypeEntity struct {
	ID        int64     `db:"id"         gorm:"primaryKey;autoIncrement;column:id"`
	Name      string    `db:"name"       gorm:"column:name;not null"`
	Size      float64   `db:"size"       gorm:"column:size;not null"`
	Unit      string    `db:"unit"       gorm:"column:unit;not null;default:m3"`
	CreatedAt time.Time `db:"created_at" gorm:"column:created_at;autoCreateTime"`
	UpdatedAt time.Time `db:"updated_at" gorm:"column:updated_at;autoUpdateTime"`
}

func (ContainerTypeEntity) TableName() string {
	return "container_types"
}

func toContainerTypeEntity(m *model.ContainerType) *ContainerTypeEntity {
	if m == nil {
		return nil
	}
	return &ContainerTypeEntity{
		ID:        m.ID,
		Name:      m.Name,
		Size:      m.Size,
		Unit:      m.Unit,
		CreatedAt: m.CreatedAt,
		UpdatedAt: m.UpdatedAt,
	}
}

func toContainerTypeModel(e *ContainerTypeEntity) *model.ContainerType {
	if e == nil {
		return nil
	}
	return &model.ContainerType{
		ID:        e.ID,
		Name:      e.Name,
		Size:      e.Size,
		Unit:      e.Unit,
		CreatedAt: e.CreatedAt,
		UpdatedAt: e.UpdatedAt,
	}
}

func toContainerTypeModels(entities []*ContainerTypeEntity) []*model.ContainerType {
	if entities == nil {
		return nil
	}
	models := make([]*model.ContainerType, len(entities))
	for i, e := range entities {
		models[i] = toContainerTypeModel(e)
	}
	return models
}
