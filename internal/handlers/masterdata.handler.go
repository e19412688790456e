package handlers

import (
	"context"
	"errors"
	"strconv"

	"github.com/fasthttp/router"
	"github.com/greenwaste/collection-gateway/internal/model"
	"github.com/greenwaste/collection-gateway/internal/services"
	xhttp "github.com/greenwaste/collection-gateway/pkg/http"
)

type MasterDataService interface {
	CreateSettlement(ctx context.Context, p model.SettlementCreateRequest) (*model.Settlement, error)
	GetSettlement(ctx context.Context, id int64) (*model.Settlement, error)
	UpdateSettlement(ctx context.Context, id int64, p model.SettlementUpdateRequest) (*model.Settlement, error)
	DeleteSettlement(ctx context.Context, id int64) error
	ListSettlements(ctx context.Context, f model.SettlementFilter) ([]*model.Settlement, int64, error)

	CreateContainerType(ctx context.Context, p model.ContainerTypeCreateRequest) (*model.ContainerType, error)
	GetContainerType(ctx context.Context, id int64) (*model.ContainerType, error)
	UpdateContainerType(ctx context.Context, id int64, p model.ContainerTypeUpdateRequest) (*model.ContainerType, error)
	DeleteContainerType(ctx context.Context, id int64) error
	ListContainerTypes(ctx context.Context, limit, offset int) ([]*model.ContainerType, int64, error)

	GetUser(ctx context.Context, id int64) (*model.User, error)
	ListUsers(ctx context.Context, role model.Role, limit, offset int) ([]*model.User, int64, error)
}

type MasterDataHandler struct {
	svc MasterDataService
}

func RegisterMasterDataRoutes(e *router.Group, h *MasterDataHandler) {
	e.POST("/settlements", h.CreateSettlement)
	e.GET("/settlements", h.ListSettlements)
	e.GET("/settlements/{id}", h.GetSettlement)
	e.PATCH("/settlements/{id}", h.UpdateSettlement)
	e.DELETE("/settlements/{id}", h.DeleteSettlement)

	e.POST("/container-types", h.CreateContainerType)
	e.GET("/container-types", h.ListContainerTypes)
	e.GET("/container-types/{id}", h.GetContainerType)
	e.PATCH("/container-types/{id}", h.UpdateContainerType)
	e.DELETE("/container-types/{id}", h.DeleteContainerType)

	e.GET("/users", h.ListUsers)
	e.GET("/users/{id}", h.GetUser)
}

func NewMasterDataHandler(svc MasterDataService) *MasterDataHandler {
	return &MasterDataHandler{
		svc: svc,
	}
}

type settlementRequest struct {
	Name         string `json:"name"`
	ContactName  string `json:"contact_name"`
	ContactPhone string `json:"contact_phone"`
}

type settlementUpdateRequest struct {
	Name         *string `json:"name"`
	ContactName  *string `json:"contact_name"`
	ContactPhone *string `json:"contact_phone"`
}

type settlementListResponse struct {
	Items []*model.Settlement `json:"items"`
	Total int64               `json:"total"`
}

type containerTypeRequest struct {
	Name string  `json:"name"`
	Size float64 `json:"size"`
	Unit string  `json:"unit"`
}

type containerTypeUpdateRequest struct {
	Name *string  `json:"name"`
	Size *float64 `json:"size"`
	Unit *string  `json:"unit"`
}

type containerTypeListResponse struct {
	Items []*model.ContainerType `json:"items"`
	Total int64                  `json:"total"`
}

func (h *MasterDataHandler) CreateSettlement(ctx *xhttp.RequestCtx) {
	if _, ok := requireAdmin(ctx); !ok {
		return
	}

	var req settlementRequest
	if err := readJSON(ctx, &req); err != nil {
		writeError(ctx, 400, "invalid JSON: "+err.Error())
		return
	}

	created, err := h.svc.CreateSettlement(ctx, model.SettlementCreateRequest{
		Name:         req.Name,
		ContactName:  req.ContactName,
		ContactPhone: req.ContactPhone,
	})
	if err != nil {
		writeError(ctx, 400, err.Error())
		return
	}
	writeJSON(ctx, 201, created)
}

func (h *MasterDataHandler) GetSettlement(ctx *xhttp.RequestCtx) {
	if _, ok := requireScope(ctx); !ok {
		return
	}

	id, err := pathInt64(ctx, "id")
	if err != nil {
		writeError(ctx, 400, "invalid settlement id")
		return
	}

	settlement, err := h.svc.GetSettlement(ctx, id)
	if err != nil {
		if errors.Is(err, services.ErrNotFound) {
			writeError(ctx, 404, "settlement not found")
			return
		}
		writeError(ctx, 400, err.Error())
		return
	}
	writeJSON(ctx, 200, settlement)
}

func (h *MasterDataHandler) ListSettlements(ctx *xhttp.RequestCtx) {
	if _, ok := requireScope(ctx); !ok {
		return
	}

	var f model.SettlementFilter
	if v := query(ctx, "name"); v != "" {
		f.Name = &v
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

	items, total, err := h.svc.ListSettlements(ctx, f)
	if err != nil {
		writeError(ctx, 400, err.Error())
		return
	}
	writeJSON(ctx, 200, settlementListResponse{Items: items, Total: total})
}

func (h *MasterDataHandler) UpdateSettlement(ctx *xhttp.RequestCtx) {
	if _, ok := requireAdmin(ctx); !ok {
		return
	}

	id, err := pathInt64(ctx, "id")
	if err != nil {
		writeError(ctx, 400, "invalid settlement id")
		return
	}

	var req settlementUpdateRequest
	if err := readJSON(ctx, &req); err != nil {
		writeError(ctx, 400, "invalid JSON: "+err.Error())
		return
	}

	settlement, err := h.svc.UpdateSettlement(ctx, id, model.SettlementUpdateRequest{
		Name:         req.Name,
		ContactName:  req.ContactName,
		ContactPhone: req.ContactPhone,
	})
	if err != nil {
		if errors.Is(err, services.ErrNotFound) {
			writeError(ctx, 404, "settlement not found")
			return
		}
		writeError(ctx, 400, err.Error())
		return
	}
	writeJSON(ctx, 200, settlement)
}

func (h *MasterDataHandler) DeleteSettlement(ctx *xhttp.RequestCtx) {
	if _, ok := requireAdmin(ctx); !ok {
		return
	}

	id, err := pathInt64(ctx, "id")
	if err != nil {
		writeError(ctx, 400, "invalid settlement id")
		return
	}

	if err := h.svc.DeleteSettlement(ctx, id); err != nil {
		if errors.Is(err, services.ErrNotFound) {
			writeError(ctx, 404, "settlement not found")
			return
		}
		writeError(ctx, 400, err.Error())
		return
	}
	ctx.Response.SetStatusCode(204)
}

func (h *MasterDataHandler) CreateContainerType(ctx *xhttp.RequestCtx) {
	if _, ok := requireAdmin(ctx); !ok {
		return
	}

	var req containerTypeRequest
	if err := readJSON(ctx, &req); err != nil {
		writeError(ctx, 400, "invalid JSON: "+err.Error())
		return
	}

	created, err := h.svc.CreateContainerType(ctx, model.ContainerTypeCreateRequest{
		Name: req.Name,
		Size: req.Size,
		Unit: req.Unit,
	})
	if err != nil {
		writeError(ctx, 400, err.Error())
		return
	}
	writeJSON(ctx, 201, created)
}

func (h *MasterDataHandler) GetContainerType(ctx *xhttp.RequestCtx) {
	if _, ok := requireScope(ctx); !ok {
		return
	}

	id, err := pathInt64(ctx, "id")
	if err != nil {
		writeError(ctx, 400, "invalid container type id")
		return
	}

	ct, err := h.svc.GetContainerType(ctx, id)
	if err != nil {
		if errors.Is(err, services.ErrNotFound) {
			writeError(ctx, 404, "container type not found")
			return
		}
		writeError(ctx, 400, err.Error())
		return
	}
	writeJSON(ctx, 200, ct)
}

func (h *MasterDataHandler) ListContainerTypes(ctx *xhttp.RequestCtx) {
	if _, ok := requireScope(ctx); !ok {
		return
	}

	limit := 0
	offset := 0
	if v := query(ctx, "limit"); v != "" {
		if n, e := strconv.Atoi(v); e == nil {
			limit = n
		}
	}
	if v := query(ctx, "offset"); v != "" {
		if n, e := strconv.Atoi(v); e == nil {
			offset = n
		}
	}

	items, total, err := h.svc.ListContainerTypes(ctx, limit, offset)
	if err != nil {
		writeError(ctx, 400, err.Error())
		return
	}
	writeJSON(ctx, 200, containerTypeListResponse{Items: items, Total: total})
}

func (h *MasterDataHandler) UpdateContainerType(ctx *xhttp.RequestCtx) {
	if _, ok := requireAdmin(ctx); !ok {
		return
	}

	id, err := pathInt64(ctx, "id")
	if err != nil {
		writeError(ctx, 400, "invalid container type id")
		return
	}

	var req containerTypeUpdateRequest
	if err := readJSON(ctx, &req); err != nil {
		writeError(ctx, 400, "invalid JSON: "+err.Error())
		return
	}

	ct, err := h.svc.UpdateContainerType(ctx, id, model.ContainerTypeUpdateRequest{
		Name: req.Name,
		Size: req.Size,
		Unit: req.Unit,
	})
	if err != nil {
		if errors.Is(err, services.ErrNotFound) {
			writeError(ctx, 404, "container type not found")
			return
		}
		writeError(ctx, 400, err.Error())
		return
	}
	writeJSON(ctx, 200, ct)
}

func (h *MasterDataHandler) DeleteContainerType(ctx *xhttp.RequestCtx) {
	if _, ok := requireAdmin(ctx); !ok {
		return
	}

	id, err := pathInt64(ctx, "id")
	if err != nil {
		writeError(ctx, 400, "invalid container type id")
		return
	}

	if err := h.svc.DeleteContainerType(ctx, id); err != nil {
		if errors.Is(err, services.ErrNotFound) {
			writeError(ctx, 404, "container type not found")
			return
		}
		writeError(ctx, 400, err.Error())
		return
	}
	ctx.Response.SetStatusCode(204)
}

type userListResponse struct {
	Items []*model.User `json:"items"`
	Total int64         `json:"total"`
}

func (h *MasterDataHandler) GetUser(ctx *xhttp.RequestCtx) {
	if _, ok := requireAdmin(ctx); !ok {
		return
	}

	id, err := pathInt64(ctx, "id")
	if err != nil {
		writeError(ctx, 400, "invalid user id")
		return
	}

	user, err := h.svc.GetUser(ctx, id)
	if err != nil {
		if errors.Is(err, services.ErrNotFound) {
			writeError(ctx, 404, "user not found")
			return
		}
		writeError(ctx, 400, err.Error())
		return
	}
	writeJSON(ctx, 200, user)
}

func (h *MasterDataHandler) ListUsers(ctx *xhttp.RequestCtx) {
	if _, ok := requireAdmin(ctx); !ok {
		return
	}

	role := model.Role(query(ctx, "role"))
	limit := 0
	offset := 0
	if v := query(ctx, "limit"); v != "" {
		if n, e := strconv.Atoi(v); e == nil {
			limit = n
		}
	}
	if v := query(ctx, "offset"); v != "" {
		if n, e := strconv.Atoi(v); e == nil {
			offset = n
		}
	}

	items, total, err := h.svc.ListUsers(ctx, role, limit, offset)
	if err != nil {
		writeError(ctx, 400, err.Error())
		return
	}
	writeJSON(ctx, 200, userListResponse{Items: items, Total: total})
}
