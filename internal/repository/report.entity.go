package repository

import (
	"time"

	"github.com/greenwaste/collection-gateway/internal/model"
	"github.com/shopspring/decimal"
)

type ReportEntity struct {
	ID               int64                `db:"id"                gorm:"primaryKey;autoIncrement;column:id"`
	SettlementID     int64                `db:"settlement_id"     gorm:"column:settlement_id;not null;index"`
	Settlement       *SettlementEntity    `gorm:"foreignKey:SettlementID;references:ID"`
	DriverID         int64                `db:"driver_id"         gorm:"column:driver_id;not null;index"`
	ContainerTypeID  int64                `db:"container_type_id" gorm:"column:container_type_id;not null;index"`
	ContainerType    *ContainerTypeEntity `gorm:"foreignKey:ContainerTypeID;references:ID"`
	Volume           float64              `db:"volume"            gorm:"column:volume;not null"`
	Notes            string               `db:"notes"             gorm:"column:notes"`
	ImageURL         string               `db:"image_url"         gorm:"column:image_url"`
	ImagePath        string               `db:"image_path"        gorm:"column:image_path"`
	UnitPrice        decimal.Decimal      `db:"unit_price"        gorm:"column:unit_price;type:numeric(12,2);not null"`
	TotalPrice       decimal.Decimal      `db:"total_price"       gorm:"column:total_price;type:numeric(12,2);not null"`
	Currency         string               `db:"currency"          gorm:"column:currency;not null"`
	PricingID        *int64               `db:"pricing_id"        gorm:"column:pricing_id;index"`
	NotificationSent bool                 `db:"notification_sent" gorm:"column:notification_sent;not null;default:false"`
	CreatedAt        time.Time            `db:"created_at"        gorm:"column:created_at;autoCreateTime"`
	UpdatedAt        time.Time            `db:"updated_at"        gorm:"column:updated_at;autoUpdateTime"`
}

func (ReportEntity) TableName() string {
	return "reports"
}

func toReportEntity(m *model.Report) *ReportEntity {
	if m == nil {
		return nil
	}
	return &ReportEntity{
		ID:               m.ID,
		SettlementID:     m.SettlementID,
		DriverID:         m.DriverID,
		ContainerTypeID:  m.ContainerTypeID,
		Volume:           m.Volume,
		Notes:            m.Notes,
		ImageURL:         m.ImageURL,
		ImagePath:        m.ImagePath,
		UnitPrice:        m.UnitPrice,
		TotalPrice:       m.TotalPrice,
		Currency:         m.Currency,
		PricingID:        m.PricingID,
		NotificationSent: m.NotificationSent,
		CreatedAt:        m.CreatedAt,
		UpdatedAt:        m.UpdatedAt,
	}
}

func toReportModel(e *ReportEntity) *model.Report {
	if e == nil {
		return nil
	}
	return &model.Report{
		ID:               e.ID,
		SettlementID:     e.SettlementID,
		DriverID:         e.DriverID,
		ContainerTypeID:  e.ContainerTypeID,
		Volume:           e.Volume,
		Notes:            e.Notes,
		ImageURL:         e.ImageURL,
		ImagePath:        e.ImagePath,
		UnitPrice:        e.UnitPrice,
		TotalPrice:       e.TotalPrice,
		Currency:         e.Currency,
		PricingID:        e.PricingID,
		NotificationSent: e.NotificationSent,
		CreatedAt:        e.CreatedAt,
		UpdatedAt:        e.UpdatedAt,
	}
}

func toReportModels(entities []*ReportEntity) []*model.Report {
	if entities == nil {
		return nil
	}
	models := make([]*model.Report, len(entities))
	for i, e := range entities {
		models[i] = toReportModel(e)
	}
	return models
}
