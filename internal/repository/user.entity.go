package repository

import (
	"time"

	"github.com/greenwaste/collection-gateway/internal/model"
)

type UserEntity struct {
	ID           int64     `db:"id"            gorm:"primaryKey;autoIncrement;column:id"`
	Name         string    `db:"name"          gorm:"column:name;not null"`
	Phone        string    `db:"phone"         gorm:"column:phone"`
	Role         string    `db:"role"          gorm:"column:role;not null"`
	SettlementID *int64    `db:"settlement_id" gorm:"column:settlement_id;index"`
	CreatedAt    time.Time `db:"created_at"    gorm:"column:created_at;autoCreateTime"`
}

func (UserEntity) TableName() string {
	return "users"
}

func toUserModel(e *UserEntity) *model.User {
	if e == nil {
		return nil
	}
	return &model.User{
		ID:           e.ID,
		Name:         e.Name,
		Phone:        e.Phone,
		Role:         model.Role(e.Role),
		SettlementID: e.SettlementID,
		CreatedAt:    e.CreatedAt,
	}
}

func toUserModels(entities []*UserEntity) []*model.User {
	if entities == nil {
		return nil
	}
	models := make([]*model.User, len(entities))
	for i, e := range entities {
		models[i] = toUserModel(e)
	}
	return models
}
