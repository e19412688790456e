package repository

import (
	"time"

	"github.com/greenwaste/collection-gateway/internal/model"
)

type SettlementEntity struct {
	ID           int64     `db:"id"            gorm:"primaryKey;autoIncrement;column:id"`
	Name         string    `db:"name"          gorm:"column:name;not null"`
	ContactName  string    `db:"contact_name"  gorm:"column:contact_name"`
	ContactPhone string    `db:"contact_phone" gorm:"column:contact_phone"`
	CreatedAt    time.Time `db:"created_at"    gorm:"column:created_at;autoCreateTime"`
	UpdatedAt    time.Time `db:"updated_at"    gorm:"column:updated_at;autoUpdateTime"`
}

func (SettlementEntity) TableName() string {
	return "settlements"
}

func toSettlementEntity(m *model.Settlement) *SettlementEntity {
	if m == nil {
		return nil
	}
	return &SettlementEntity{
		ID:           m.ID,
		Name:         m.Name,
		ContactName:  m.ContactName,
		ContactPhone: m.ContactPhone,
		CreatedAt:    m.CreatedAt,
		UpdatedAt:    m.UpdatedAt,
	}
}

func toSettlementModel(e *SettlementEntity) *model.Settlement {
	if e == nil {
		return nil
	}
	return &model.Settlement{
		ID:           e.ID,
		Name:         e.Name,
		ContactName:  e.ContactName,
		ContactPhone: e.ContactPhone,
		CreatedAt:    e.CreatedAt,
		UpdatedAt:    e.UpdatedAt,
	}
}

func toSettlementModels(entities []*SettlementEntity) []*model.Settlement {
	if entities == nil {
		return nil
	}
	models := make([]*model.Settlement, len(entities))
	for i, e := range entities {
		models[i] = toSettlementModel(e)
	}
	return models
}
