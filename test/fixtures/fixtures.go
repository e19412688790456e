package fixtures

import (
	"time"

	"github.com/greenwaste/collection-gateway/internal/model"
	"github.com/shopspring/decimal"
)

var (
	TestSettlementKfarSaba = model.Settlement{
		ID:           1,
		Name:         "Kfar Saba",
		ContactName:  "Municipal Coordinator",
		ContactPhone: "+972501234567",
	}

	TestSettlementRaanana = model.Settlement{
		ID:           2,
		Name:         "Raanana",
		ContactName:  "Waste Supervisor",
		ContactPhone: "+972527654321",
	}

	TestSettlementNoContact = model.Settlement{
		ID:   3,
		Name: "Hod Hasharon",
	}

	TestContainerTen = model.ContainerType{
		ID:   2,
		Name: "10 cubic tank",
		Size: 10,
		Unit: "m3",
	}

	TestContainerFive = model.ContainerType{
		ID:   3,
		Name: "5 cubic tank",
		Size: 5,
		Unit: "m3",
	}
)

func NewTestReportCreateRequest(settlementID, driverID, containerTypeID int64, volume float64) model.ReportCreateRequest {
	return model.ReportCreateRequest{
		SettlementID:    settlementID,
		DriverID:        driverID,
		ContainerTypeID: containerTypeID,
		Volume:          volume,
	}
}

func NewTestPricingCreateRequest(settlementID, containerTypeID int64, price string, active bool) model.PricingCreateRequest {
	return model.PricingCreateRequest{
		SettlementID:    settlementID,
		ContainerTypeID: containerTypeID,
		Price:           decimal.RequireFromString(price),
		Currency:        "ILS",
		IsActive:        active,
	}
}

var (
	ValidPhoneNumbers = []string{
		"+972501234567",
		"+972527654321",
		"+972541112223",
	}

	InvalidVolumes = []float64{0, -1, -3.2}
)

func ReportCreateRequestKfarSaba() model.ReportCreateRequest {
	return NewTestReportCreateRequest(1, 100, 2, 3.2)
}

func ReportCreateRequestWithSuppliedPricing() model.ReportCreateRequest {
	unit := decimal.RequireFromString("45")
	total := decimal.RequireFromString("144.00")
	req := NewTestReportCreateRequest(1, 100, 2, 3.2)
	req.UnitPrice = &unit
	req.TotalPrice = &total
	req.Currency = "ILS"
	return req
}

func ReportFilterBySettlement(settlementID int64) model.ReportFilter {
	return model.ReportFilter{
		SettlementID: &settlementID,
		Limit:        50,
		Offset:       0,
		Desc:         false,
	}
}

func ReportFilterByTimeRange(settlementID int64, from, to time.Time) model.ReportFilter {
	return model.ReportFilter{
		SettlementID: &settlementID,
		From:         &from,
		To:           &to,
		Limit:        50,
		Offset:       0,
		Desc:         false,
	}
}

func NotificationFilterByStatus(statuses ...model.NotificationStatus) model.NotificationFilter {
	return model.NotificationFilter{
		Statuses: statuses,
		Limit:    50,
		Offset:   0,
		Desc:     true,
	}
}
