package model

import (
	"errors"
	"time"
	"unicode/utf8"

	"github.com/shopspring/decimal"
)

// Report records one waste-collection pickup event. Reports are a historical
// record: they can be updated by administrators but never deleted through
// the API.
type Report struct {
	ID               int64           `json:"id"`
	SettlementID     int64           `json:"settlement_id"`
	DriverID         int64           `json:"driver_id"`
	ContainerTypeID  int64           `json:"container_type_id"`
	Volume           float64         `json:"volume"` // cubic meters
	Notes            string          `json:"notes,omitempty"`
	ImageURL         string          `json:"image_url,omitempty"`
	ImagePath        string          `json:"image_path,omitempty"`
	UnitPrice        decimal.Decimal `json:"unit_price"`
	TotalPrice       decimal.Decimal `json:"total_price"`
	Currency         string          `json:"currency"`
	PricingID        *int64          `json:"pricing_id,omitempty"`
	NotificationSent bool            `json:"notification_sent"`
	CreatedAt        time.Time       `json:"created_at"`
	UpdatedAt        time.Time       `json:"updated_at"`
}

type ReportCreateRequest struct {
	SettlementID    int64
	DriverID        int64
	ContainerTypeID int64
	Volume          float64
	Notes           string
	ImageURL        string
	ImagePath       string

	// Optional caller-supplied pricing. Both UnitPrice and TotalPrice must be
	// present for the server-side calculation to be skipped.
	UnitPrice  *decimal.Decimal
	TotalPrice *decimal.Decimal
	Currency   string
}

// HasSuppliedPricing reports whether the caller provided complete pricing.
func (p ReportCreateRequest) HasSuppliedPricing() bool {
	return p.UnitPrice != nil && p.TotalPrice != nil
}

func (p ReportCreateRequest) Validate(maxVolume float64, maxNotes int) error {
	if p.SettlementID == 0 {
		return errors.New("settlement_id is required")
	}
	if p.DriverID == 0 {
		return errors.New("driver_id is required")
	}
	if p.ContainerTypeID == 0 {
		return errors.New("container_type_id is required")
	}
	if p.Volume <= 0 {
		return errors.New("volume must be greater than zero")
	}
	if p.Volume > maxVolume {
		return errors.New("volume exceeds the allowed maximum")
	}
	if maxNotes > 0 && utf8.RuneCountInString(p.Notes) > maxNotes {
		return errors.New("notes exceed maximum length")
	}
	if p.HasSuppliedPricing() {
		if p.UnitPrice.IsNegative() || p.TotalPrice.IsNegative() {
			return errors.New("supplied prices must not be negative")
		}
		if len(p.Currency) != 3 {
			return errors.New("currency must be a 3-letter code")
		}
	}
	return nil
}

type ReportUpdateRequest struct {
	Notes     *string
	ImageURL  *string
	ImagePath *string
}

// ReportFilter controls report listing. Scope is applied by the repository
// before any of these filters.
type ReportFilter struct {
	SettlementID    *int64
	DriverID        *int64
	ContainerTypeID *int64
	From            *time.Time
	To              *time.Time
	Limit           int
	Offset          int
	Desc            bool
}
