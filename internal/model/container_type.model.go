package model

import (
	"errors"
	"time"
)

// ContainerType is a class of waste bin/tank with a fixed volume capacity,
// used as the pricing unit.
type ContainerType struct {
	ID        int64     `json:"id"`
	Name      string    `json:"name"`
	Size      float64   `json:"size"` // capacity in cubic meters, > 0
	Unit      string    `json:"unit"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

type ContainerTypeCreateRequest struct {
	Name string
	Size float64
	Unit string
}

func (p ContainerTypeCreateRequest) Validate() error {
	if p.Name == "" {
		return errors.New("name is required")
	}
	if p.Size <= 0 {
		return errors.New("size must be greater than zero")
	}
	return nil
}

type ContainerTypeUpdateRequest struct {
	Name *string
	Size *float64
	Unit *string
}
