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

type PricingService interface {
	Create(ctx context.Context, p model.PricingCreateRequest) (*model.Pricing, error)
	Get(ctx context.Context, id int64) (*model.Pricing, error)
	Activate(ctx context.Context, id int64) (*model.Pricing, error)
	Deactivate(ctx context.Context, id int64) (*model.Pricing, error)
	Delete(ctx context.Context, id int64) error
	List(ctx context.Context, f model.PricingFilter) ([]*model.Pricing, int64, error)
	Quote(ctx context.Context, settlementID, containerTypeID int64, volume float64) (*model.PriceQuote, error)
}

type PricingHandler struct {
	svc PricingService
}

func RegisterPricingRoutes(e *router.Group, h *PricingHandler) {
	e.POST("/pricing", h.CreatePricing)
	e.GET("/pricing", h.ListPricing)
	e.GET("/pricing/quote", h.QuotePrice)
	e.GET("/pricing/{id}", h.GetPricing)
	e.POST("/pricing/{id}/activate", h.ActivatePricing)
	e.POST("/pricing/{id}/deactivate", h.DeactivatePricing)
	e.DELETE("/pricing/{id}", h.DeletePricing)
}

func NewPricingHandler(pricingService PricingService) *PricingHandler {
	return &PricingHandler{
		svc: pricingService,
	}
}

type createPricingRequest struct {
	SettlementID    int64  `json:"settlement_id"`
	ContainerTypeID int64  `json:"container_type_id"`
	Price           string `json:"price"`
	Currency        string `json:"currency"`
	IsActive        bool   `json:"is_active"`
}

type pricingListResponse struct {
	Items []*model.Pricing `json:"items"`
	Total int64            `json:"total"`
}

func (h *PricingHandler) CreatePricing(ctx *xhttp.RequestCtx) {
	if _, ok := requireAdmin(ctx); !ok {
		return
	}

	var req createPricingRequest
	if err := readJSON(ctx, &req); err != nil {
		writeError(ctx, 400, "invalid JSON: "+err.Error())
		return
	}

	price, err := decimal.NewFromString(req.Price)
	if err != nil {
		writeError(ctx, 400, "invalid price")
		return
	}

	created, err := h.svc.Create(ctx, model.PricingCreateRequest{
		SettlementID:    req.SettlementID,
		ContainerTypeID: req.ContainerTypeID,
		Price:           price,
		Currency:        req.Currency,
		IsActive:        req.IsActive,
	})
	if err != nil {
		if errors.Is(err, services.ErrDuplicateActivePricing) {
			writeError(ctx, 409, err.Error())
			return
		}
		if errors.Is(err, services.ErrNotFound) {
			writeError(ctx, 404, "container type not found")
			return
		}
		writeError(ctx, 400, err.Error())
		return
	}
	writeJSON(ctx, 201, created)
}

func (h *PricingHandler) GetPricing(ctx *xhttp.RequestCtx) {
	if _, ok := requireAdmin(ctx); !ok {
		return
	}

	id, err := pathInt64(ctx, "id")
	if err != nil {
		writeError(ctx, 400, "invalid pricing id")
		return
	}

	p, err := h.svc.Get(ctx, id)
	if err != nil {
		if errors.Is(err, services.ErrNotFound) {
			writeError(ctx, 404, "pricing not found")
			return
		}
		writeError(ctx, 400, err.Error())
		return
	}
	writeJSON(ctx, 200, p)
}

func (h *PricingHandler) ListPricing(ctx *xhttp.RequestCtx) {
	if _, ok := requireAdmin(ctx); !ok {
		return
	}

	var f model.PricingFilter
	f.SettlementID = queryInt64(ctx, "settlement_id")
	f.ContainerTypeID = queryInt64(ctx, "container_type_id")
	if v := query(ctx, "active"); v != "" {
		active := v == "true" || v == "1"
		f.IsActive = &active
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

	items, total, err := h.svc.List(ctx, f)
	if err != nil {
		writeError(ctx, 400, err.Error())
		return
	}
	writeJSON(ctx, 200, pricingListResponse{Items: items, Total: total})
}

// QuotePrice exposes the price calculation without creating a report, for
// client-side previews.
func (h *PricingHandler) QuotePrice(ctx *xhttp.RequestCtx) {
	if _, ok := requireScope(ctx); !ok {
		return
	}

	settlementID := queryInt64(ctx, "settlement_id")
	containerTypeID := queryInt64(ctx, "container_type_id")
	if settlementID == nil || containerTypeID == nil {
		writeError(ctx, 400, "settlement_id and container_type_id are required")
		return
	}

	volume, err := strconv.ParseFloat(query(ctx, "volume"), 64)
	if err != nil {
		writeError(ctx, 400, "invalid volume")
		return
	}

	quote, err := h.svc.Quote(ctx, *settlementID, *containerTypeID, volume)
	if err != nil {
		if errors.Is(err, services.ErrPricingNotFound) {
			writeError(ctx, 422, err.Error())
			return
		}
		if errors.Is(err, services.ErrInvalidVolume) {
			writeError(ctx, 400, err.Error())
			return
		}
		writeError(ctx, 400, err.Error())
		return
	}
	writeJSON(ctx, 200, quote)
}

func (h *PricingHandler) ActivatePricing(ctx *xhttp.RequestCtx) {
	if _, ok := requireAdmin(ctx); !ok {
		return
	}

	id, err := pathInt64(ctx, "id")
	if err != nil {
		writeError(ctx, 400, "invalid pricing id")
		return
	}

	p, err := h.svc.Activate(ctx, id)
	if err != nil {
		if errors.Is(err, services.ErrNotFound) {
			writeError(ctx, 404, "pricing not found")
			return
		}
		writeError(ctx, 400, err.Error())
		return
	}
	writeJSON(ctx, 200, p)
}

func (h *PricingHandler) DeactivatePricing(ctx *xhttp.RequestCtx) {
	if _, ok := requireAdmin(ctx); !ok {
		return
	}

	id, err := pathInt64(ctx, "id")
	if err != nil {
		writeError(ctx, 400, "invalid pricing id")
		return
	}

	p, err := h.svc.Deactivate(ctx, id)
	if err != nil {
		if errors.Is(err, services.ErrNotFound) {
			writeError(ctx, 404, "pricing not found")
			return
		}
		writeError(ctx, 400, err.Error())
		return
	}
	writeJSON(ctx, 200, p)
}

func (h *PricingHandler) DeletePricing(ctx *xhttp.RequestCtx) {
	if _, ok := requireAdmin(ctx); !ok {
		return
	}

	id, err := pathInt64(ctx, "id")
	if err != nil {
		writeError(ctx, 400, "invalid pricing id")
		return
	}

	if err := h.svc.Delete(ctx, id); err != nil {
		if errors.Is(err, services.ErrNotFound) {
			writeError(ctx, 404, "pricing not found")
			return
		}
		writeError(ctx, 400, err.Error())
		return
	}
	ctx.Response.SetStatusCode(204)
}
