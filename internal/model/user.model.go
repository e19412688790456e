package model

import "time"

type Role string

const (
	RoleAdmin          Role = "ADMIN"
	RoleSettlementUser Role = "SETTLEMENT_USER"
	RoleDriver         Role = "DRIVER"
)

// User mirrors the identity provider's user record: drivers submit reports,
// settlement users read their settlement's data, admins manage master data.
type User struct {
	ID           int64     `json:"id"`
	Name         string    `json:"name"`
	Phone        string    `json:"phone,omitempty"`
	Role         Role      `json:"role"`
	SettlementID *int64    `json:"settlement_id,omitempty"`
	CreatedAt    time.Time `json:"created_at"`
}
