package repository

import (
	"time"

	"github.com/greenwaste/collection-gateway/internal/model"
	"github.com/shopspring/decimal"
)

type PricingEntity struct {
	ID              int64                `db:"id"                gorm:"primaryKey;autoIncrement;column:id"`
	SettlementID    int64                `db:"settlement_id"     gorm:"column:settlement_id;not null;index"`
	Settlement      *SettlementEntity    `gorm:"foreignKey:SettlementID;references:ID"`
	ContainerTypeID int64                `db:"container_type_id" gorm:"column:container_type_id;not null;index"`
	ContainerType   *ContainerTypeEntity `gorm:"foreignKey:ContainerTypeID;references:ID"`
	Price           decimal.Decimal      `db:"price"             gorm:"column:price;type:numeric(12,2);not null"`
	Currency        string               `db:"currency"          gorm:"column:currency;not null;default:ILS"`
	IsActive        bool                 `db:"is_active"         gorm:"column:is_active;not null;default:false;index"`
	CreatedAt       time.Time            `db:"created_at"        gorm:"column:created_at;autoCreateTime"`
	UpdatedAt       time.Time            `db:"updated_at"        gorm:"column:updated_at;autoUpdateTime"`
}

func (PricingEntity) TableName() string {
	return "settlement_tank_pricing"
}

func toPricingEntity(m *model.Pricing) *PricingEntity {
	if m == nil {
		return nil
	}
	return &PricingEntity{
		ID:              m.ID,
		SettlementID:    m.SettlementID,
		ContainerTypeID: m.ContainerTypeID,
		Price:           m.Price,
		Currency:        m.Currency,
		IsActive:        m.IsActive,
		CreatedAt:       m.CreatedAt,
		UpdatedAt:       m.UpdatedAt,
	}
}

func toPricingModel(e *PricingEntity) *model.Pricing {
	if e == nil {
		return nil
	}
	return &model.Pricing{
		ID:              e.ID,
		SettlementID:    e.SettlementID,
		ContainerTypeID: e.ContainerTypeID,
		Price:           e.Price,
		Currency:        e.Currency,
		IsActive:        e.IsActive,
		CreatedAt:       e.CreatedAt,
		UpdatedAt:       e.UpdatedAt,
	}
}

func toPricingModels(entities []*PricingEntity) []*model.Pricing {
	if entities == nil {
		return nil
	}
	models := make([]*model.Pricing, len(entities))
	for i, e := range entities {
		models[i] = toPricingModel(e)
	}
	return models
}
