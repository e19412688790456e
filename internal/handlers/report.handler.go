package handlers

import (
	"context"
	"errors"
	"strconv"

	"github.com/fasthttp/router"
	"github.com/greenwaste/collection-gateway/internal/model"
	"github.com/greenwaste/collection-gateway/internal/services"
	xhttp "github.com/greenwaste/collection-gateway/pkg/http"
	"github.com/shopspring/decimal"
)

type ReportService interface {
	Create(ctx context.Context, p model.ReportCreateRequest) (*model.Report, error)
	Get(ctx context.Context, scope model.AccessScope, id int64) (*model.Report, error)
	List(ctx context.Context, scope model.AccessScope, f model.ReportFilter) ([]*model.Report, int64, error)
	Update(ctx context.Context, id int64, p model.ReportUpdateRequest) (*model.Report, error)
}

type ReportHandler struct {
	svc ReportService
}

func RegisterReportRoutes(e *router.Group, h *ReportHandler) {
	e.POST("/reports", h.CreateReport)
	e.GET("/reports", h.ListReports)
	e.GET("/reports/{id}", h.GetReport)
	e.PATCH("/reports/{id}", h.UpdateReport)
}

func NewReportHandler(reportService ReportService) *ReportHandler {
	return &ReportHandler{
		svc: reportService,
	}
}

type createReportRequest struct {
	SettlementID    int64   `json:"settlement_id"`
	DriverID        int64   `json:"driver_id"`
	ContainerTypeID int64   `json:"container_type_id"`
	Volume          float64 `json:"volume"`
	Notes           string  `json:"notes"`
	ImageURL        string  `json:"image_url"`
	ImagePath       string  `json:"image_path"`
	UnitPrice       *string `json:"unit_price"`
	TotalPrice      *string `json:"total_price"`
	Currency        string  `json:"currency"`
}

type updateReportRequest struct {
	Notes     *string `json:"notes"`
	ImageURL  *string `json:"image_url"`
	ImagePath *string `json:"image_path"`
}

type reportListResponse struct {
	Items []*model.Report `json:"items"`
	Total int64           `json:"total"`
}

func (h *ReportHandler) CreateReport(ctx *xhttp.RequestCtx) {
	scope, ok := requireScope(ctx)
	if !ok {
		return
	}
	if scope.Role != model.RoleDriver && scope.Role != model.RoleAdmin {
		writeError(ctx, 403, "only drivers and administrators may submit reports")
		return
	}

	var req createReportRequest
	if err := readJSON(ctx, &req); err != nil {
		writeError(ctx, 400, "invalid JSON: "+err.Error())
		return
	}

	p := model.ReportCreateRequest{
		SettlementID:    req.SettlementID,
		DriverID:        req.DriverID,
		ContainerTypeID: req.ContainerTypeID,
		Volume:          req.Volume,
		Notes:           req.Notes,
		ImageURL:        req.ImageURL,
		ImagePath:       req.ImagePath,
		Currency:        req.Currency,
	}

	// Drivers report as themselves regardless of body content.
	if scope.Role == model.RoleDriver {
		p.DriverID = scope.UserID
	}

	if req.UnitPrice != nil {
		v, err := decimal.NewFromString(*req.UnitPrice)
		if err != nil {
			writeError(ctx, 400, "invalid unit_price")
			return
		}
		p.UnitPrice = &v
	}
	if req.TotalPrice != nil {
		v, err := decimal.NewFromString(*req.TotalPrice)
		if err != nil {
			writeError(ctx, 400, "invalid total_price")
			return
		}
		p.TotalPrice = &v
	}

	rep, err := h.svc.Create(ctx, p)
	if err != nil {
		if errors.Is(err, services.ErrPricingNotFound) {
			writeError(ctx, 422, err.Error())
			return
		}
		if errors.Is(err, services.ErrNotFound) {
			writeError(ctx, 404, "settlement not found")
			return
		}
		writeError(ctx, 400, err.Error())
		return
	}
	writeJSON(ctx, 201, rep)
}

func (h *ReportHandler) GetReport(ctx *xhttp.RequestCtx) {
	scope, ok := requireScope(ctx)
	if !ok {
		return
	}

	id, err := pathInt64(ctx, "id")
	if err != nil {
		writeError(ctx, 400, "invalid report id")
		return
	}

	rep, err := h.svc.Get(ctx, scope, id)
	if err != nil {
		if errors.Is(err, services.ErrNotFound) {
			writeError(ctx, 404, "report not found")
			return
		}
		writeError(ctx, 400, err.Error())
		return
	}
	writeJSON(ctx, 200, rep)
}

func (h *ReportHandler) ListReports(ctx *xhttp.RequestCtx) {
	scope, ok := requireScope(ctx)
	if !ok {
		return
	}

	var f model.ReportFilter
	f.SettlementID = queryInt64(ctx, "settlement_id")
	f.DriverID = queryInt64(ctx, "driver_id")
	f.ContainerTypeID = queryInt64(ctx, "container_type_id")
	if v := query(ctx, "from"); v != "" {
		if t, e := parseTime(v); e == nil {
			f.From = &t
		}
	}
	if v := query(ctx, "to"); v != "" {
		if t, e := parseTime(v); e == nil {
			f.To = &t
		}
	}
	if v := query(ctx, "limit"); v != "" {
		if n, e := strconv.Atoi(v); e == nil {
			f.Limit = n
		}
	}
	if v := query(ctx, "offset"); v != "" {
		if n, e := strconv.Atoi(v); e == nil {
			f.Offset = n
		}
	}
	if query(ctx, "order") == "desc" {
		f.Desc = true
	}

	items, total, err := h.svc.List(ctx, scope, f)
	if err != nil {
		writeError(ctx, 400, err.Error())
		return
	}
	writeJSON(ctx, 200, reportListResponse{Items: items, Total: total})
}

func (h *ReportHandler) UpdateReport(ctx *xhttp.RequestCtx) {
	if _, ok := requireAdmin(ctx); !ok {
		return
	}

	id, err := pathInt64(ctx, "id")
	if err != nil {
		writeError(ctx, 400, "invalid report id")
		return
	}

	var req updateReportRequest
	if err := readJSON(ctx, &req); err != nil {
		writeError(ctx, 400, "invalid JSON: "+err.Error())
		return
	}

	rep, err := h.svc.Update(ctx, id, model.ReportUpdateRequest{
		Notes:     req.Notes,
		ImageURL:  req.ImageURL,
		ImagePath: req.ImagePath,
	})
	if err != nil {
		if errors.Is(err, services.ErrNotFound) {
			writeError(ctx, 404, "report not found")
			return
		}
		writeError(ctx, 400, err.Error())
		return
	}
	writeJSON(ctx, 200, rep)
}
