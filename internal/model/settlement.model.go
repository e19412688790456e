package model

import (
	"errors"
	"time"
)

// Settlement is a municipality/locality that receives waste-collection
// service and is billed per pickup. Administrator-owned master data.
type Settlement struct {
	ID           int64     `json:"id"`
	Name         string    `json:"name"`
	ContactName  string    `json:"contact_name,omitempty"`
	ContactPhone string    `json:"contact_phone,omitempty"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

type SettlementCreateRequest struct {
	Name         string
	ContactName  string
	ContactPhone string
}

func (p SettlementCreateRequest) Validate() error {
	if p.Name == "" {
		return errors.New("name is required")
	}
	return nil
}

type SettlementUpdateRequest struct {
	Name         *string
	ContactName  *string
	ContactPhone *string
}

type SettlementFilter struct {
	Name   *string // substring match
	Limit  int
	Offset int
	Desc   bool
}
