package model

import (
	"errors"
	"time"

	"github.com/shopspring/decimal"
)

// Pricing is an active rate for a specific settlement + container-type pair:
// the cost of one full container of that type. At most one row per pair may
// be active at any time.
type Pricing struct {
	ID              int64           `json:"id"`
	SettlementID    int64           `json:"settlement_id"`
	ContainerTypeID int64           `json:"container_type_id"`
	Price           decimal.Decimal `json:"price"`
	Currency        string          `json:"currency"`
	IsActive        bool            `json:"is_active"`
	CreatedAt       time.Time       `json:"created_at"`
	UpdatedAt       time.Time       `json:"updated_at"`
}

type PricingCreateRequest struct {
	SettlementID    int64
	ContainerTypeID int64
	Price           decimal.Decimal
	Currency        string
	IsActive        bool
}

func (p PricingCreateRequest) Validate() error {
	if p.SettlementID == 0 {
		return errors.New("settlement_id is required")
	}
	if p.ContainerTypeID == 0 {
		return errors.New("container_type_id is required")
	}
	if !p.Price.IsPositive() {
		return errors.New("price must be greater than zero")
	}
	if len(p.Currency) != 3 {
		return errors.New("currency must be a 3-letter code")
	}
	return nil
}

type PricingFilter struct {
	SettlementID    *int64
	ContainerTypeID *int64
	IsActive        *bool
	Limit           int
	Offset          int
	Desc            bool
}

// ActivePrice is the result of resolving the active pricing rule for a
// settlement/container pair: the matched rule, the container type supplying
// the size denominator, and the derived per-cubic-meter rate.
type ActivePrice struct {
	Pricing       *Pricing
	ContainerType *ContainerType
	UnitPrice     decimal.Decimal
}

// PriceQuote is the outcome of a total-price calculation, carrying the
// pricing rule id so a report stays auditable after the rule changes.
type PriceQuote struct {
	UnitPrice  decimal.Decimal `json:"unit_price"`
	TotalPrice decimal.Decimal `json:"total_price"`
	Currency   string          `json:"currency"`
	PricingID  int64           `json:"pricing_id"`
}
